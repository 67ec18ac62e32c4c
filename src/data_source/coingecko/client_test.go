package coingecko

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coin-dashboard/src/cache"
	"coin-dashboard/src/helpers"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
	"coin-dashboard/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	srv   *httptest.Server
	mu    sync.Mutex
	hits  map[string]int
	query map[string][]string
}

func newFakeUpstream(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{hits: map[string]int{}, query: map[string][]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.query[r.URL.Path] = append(f.query[r.URL.Path], r.URL.RawQuery)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeUpstream) lastQuery(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.query[path]
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log := logger.NewLogger(nil, "coingecko-test")
	log.SetOutput(io.Discard)

	cfg := &models.MConfig{}
	cfg.Network.RequestTimeout = 5
	cfg.Network.MaxRetries = 1
	cfg.Network.ConcurrentRequests = 4
	cfg.Network.RateLimitPerSecond = 1000
	cfg.Network.RateLimitBurst = 100
	cfg.Network.BreakerFailureThreshold = 100
	cfg.Network.BreakerTimeoutSeconds = 30
	cfg.MarketData.BaseURL = baseURL
	cfg.MarketData.VsCurrency = "usd"
	cfg.MarketData.PerPage = 100
	cfg.MarketData.SearchLimit = 20

	nm := network.NewAsyncNetworkManager(cfg, log)
	nm.BaseDelay = time.Millisecond
	qc := cache.NewQueryCache(cache.NewMemoryBackend(), 0, log)
	return NewClient(cfg, nm, qc, log)
}

// -----------------------------------------------------------------------------

func TestListCoinsDropsMissingAndDuplicateIDs(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":43250.75,"market_cap_rank":1,"max_supply":21000000},
			{"id":"","symbol":"x","name":"Nameless"},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":null,"market_cap_rank":null,"max_supply":null},
			{"id":"bitcoin","symbol":"btc2","name":"Bitcoin again"}
		]`)
	})
	c := newTestClient(t, up.srv.URL)

	coins, err := c.ListCoins(context.Background(), models.MListParams{Page: 2, SortBy: "volume_desc"})
	require.NoError(t, err)
	require.Len(t, coins, 2)

	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, "btc", coins[0].Symbol)
	require.NotNil(t, coins[0].CurrentPrice)
	assert.Equal(t, 43250.75, *coins[0].CurrentPrice)
	assert.Equal(t, 21000000.0, *coins[0].MaxSupply)
	assert.Nil(t, coins[1].CurrentPrice)
	assert.Nil(t, coins[1].MarketCapRank)
	assert.Nil(t, coins[1].MaxSupply)

	q := up.lastQuery(PathMarkets)
	assert.Contains(t, q, "order=volume_desc")
	assert.Contains(t, q, "page=2")
	assert.Contains(t, q, "per_page=100")
	assert.Contains(t, q, "vs_currency=usd")
	assert.Contains(t, q, "sparkline=false")
}

// -----------------------------------------------------------------------------

func TestListCoinsSearchHydratesFirstHits(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathSearch:
			var hits []string
			for i := 0; i < 25; i++ {
				hits = append(hits, fmt.Sprintf(`{"id":"coin-%d","name":"Coin %d"}`, i, i))
			}
			fmt.Fprintf(w, `{"coins":[%s]}`, strings.Join(hits, ","))
		case PathMarkets:
			fmt.Fprint(w, `[{"id":"coin-0","symbol":"c0","name":"Coin 0"},{"id":"coin-1","symbol":"c1","name":"Coin 1"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, up.srv.URL)

	coins, err := c.ListCoins(context.Background(), models.MListParams{Page: 1, Search: "  coin "})
	require.NoError(t, err)
	assert.Len(t, coins, 2)

	assert.Contains(t, up.lastQuery(PathSearch), "query=coin")
	q := up.lastQuery(PathMarkets)
	assert.Contains(t, q, "order=market_cap_desc")
	assert.Contains(t, q, "coin-19")
	assert.NotContains(t, q, "coin-20")
}

// -----------------------------------------------------------------------------

func TestListCoinsSearchWithoutHitsSkipsHydration(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"coins":[]}`)
	})
	c := newTestClient(t, up.srv.URL)

	coins, err := c.ListCoins(context.Background(), models.MListParams{Search: "zzzz"})
	require.NoError(t, err)
	assert.Empty(t, coins)
	assert.NotNil(t, coins)
	assert.Equal(t, 0, up.count(PathMarkets))
}

// -----------------------------------------------------------------------------

func TestConcurrentIdenticalListCoinsShareOneCall(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`)
	})
	c := newTestClient(t, up.srv.URL)
	params := models.MListParams{Page: 1, SortBy: "market_cap_desc"}

	var wg sync.WaitGroup
	results := make([][]models.MCoinSummary, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			coins, err := c.ListCoins(context.Background(), params)
			assert.NoError(t, err)
			results[i] = coins
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, up.count(PathMarkets))
	assert.Equal(t, results[0], results[1])

	// Callers get independent copies
	results[0][0].Name = "mutated"
	again, err := c.ListCoins(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", again[0].Name)
}

// -----------------------------------------------------------------------------

func TestGetGlobalStats(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"active_cryptocurrencies":13000,"markets":1000,"ongoing_icos":49,
			"total_market_cap":{"usd":1.7e12},"total_volume":{"usd":6.5e10},
			"market_cap_percentage":{"btc":51.2,"eth":16.9},
			"market_cap_change_percentage_24h_usd":-1.25,"updated_at":1700000000}}`)
	})
	c := newTestClient(t, up.srv.URL)

	g, err := c.GetGlobalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13000, g.ActiveCryptocurrencies)
	assert.Equal(t, 1.7e12, g.TotalMarketCap["usd"])
	assert.Equal(t, 51.2, g.MarketCapPercentage["btc"])
	assert.Equal(t, -1.25, *g.MarketCapChangePercentage24hUSD)
	assert.Equal(t, 49, *g.OngoingICOs)
	assert.Nil(t, g.UpcomingICOs)
	assert.EqualValues(t, 1700000000, g.UpdatedAt)
}

// -----------------------------------------------------------------------------

func TestGetGlobalStatsWithoutData(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	c := newTestClient(t, up.srv.URL)

	_, err := c.GetGlobalStats(context.Background())
	fe, ok := helpers.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, QueryGlobal, fe.Query)
	assert.Contains(t, fe.BodyError, "malformed response")
}

// -----------------------------------------------------------------------------

func TestGetCoinDetailsTransform(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/vanar-chain", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("tickers"))
		fmt.Fprint(w, `{
			"id":"vanar-chain","symbol":"vanry","name":"Vanar Chain","market_cap_rank":250,
			"image":{"thumb":"t.png","small":"s.png","large":""},
			"description":{"en":"  L1 for entertainment. "},
			"links":{"homepage":["","https://vanarchain.com"],"blockchain_site":["https://explorer.vanarchain.com"]},
			"categories":["Gaming",null,""],
			"genesis_date":null,"hashing_algorithm":null,
			"market_data":{
				"current_price":{"usd":0.12,"eur":0.11},
				"market_cap":{"usd":250000000},
				"total_volume":{"usd":12000000},
				"high_24h":{"usd":0.13},"low_24h":{"usd":null},
				"ath":{"usd":0.38},"ath_date":{"usd":"2024-03-14T00:00:00Z"},
				"atl":{"usd":0.01},"atl_date":{"usd":"2023-10-01T00:00:00Z"},
				"price_change_percentage_24h":2.5,"price_change_percentage_7d":-3.1,"price_change_percentage_30d":null,
				"circulating_supply":2000000000,"total_supply":2400000000,"max_supply":null
			}
		}`)
	})
	c := newTestClient(t, up.srv.URL)

	d, err := c.GetCoinDetails(context.Background(), "vanar-chain")
	require.NoError(t, err)

	assert.Equal(t, "s.png", d.Image)
	assert.Equal(t, 250, *d.MarketCapRank)
	assert.Equal(t, 0.12, *d.CurrentPrice)
	assert.Equal(t, 0.13, *d.High24h)
	assert.Nil(t, d.Low24h)
	assert.Equal(t, -3.1, *d.PriceChangePercentage7d)
	assert.Nil(t, d.PriceChangePercentage30d)
	assert.Nil(t, d.MaxSupply)
	assert.Equal(t, "L1 for entertainment.", d.Description)
	assert.Equal(t, "https://vanarchain.com", d.Homepage)
	assert.Equal(t, "https://explorer.vanarchain.com", d.BlockchainSite)
	assert.Equal(t, []string{"Gaming"}, d.Categories)
	assert.Equal(t, "2024-03-14T00:00:00Z", d.ATHDate)
	assert.Empty(t, d.GenesisDate)
}

// -----------------------------------------------------------------------------

func TestGetCoinDetailsNotFoundCarriesQuery(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"coin not found"}`)
	})
	c := newTestClient(t, up.srv.URL)

	_, err := c.GetCoinDetails(context.Background(), "nope")
	fe, ok := helpers.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, QueryDetails, fe.Query)
	assert.Equal(t, "nope", fe.Identifier)
	assert.Equal(t, "coin not found", fe.BodyError)
	assert.Equal(t, 1, up.count("/coins/nope"))
}

// -----------------------------------------------------------------------------

func TestGetCoinDetailsRequiresID(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.GetCoinDetails(context.Background(), " ")
	var ve *helpers.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// -----------------------------------------------------------------------------

func TestGetCoinChart(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		fmt.Fprint(w, `{"prices":[[1700000000000,100.5],[1700000360000,null],[1700000720000,101]],
			"market_caps":[[1700000000000,2e12]],"total_volumes":[]}`)
	})
	c := newTestClient(t, up.srv.URL)

	series, err := c.GetCoinChart(context.Background(), "bitcoin", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, series.Days)
	assert.Equal(t, []models.MChartPoint{{Timestamp: 1700000000000, Price: 100.5}, {Timestamp: 1700000720000, Price: 101}}, series.Prices)
	assert.Len(t, series.MarketCaps, 1)
	assert.Empty(t, series.TotalVolumes)

	_, err = c.GetCoinChart(context.Background(), "bitcoin", 14)
	var ve *helpers.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, up.count("/coins/bitcoin/market_chart"))
}

// -----------------------------------------------------------------------------

func TestMalformedPayloadIsNotCached(t *testing.T) {
	var calls int32
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			fmt.Fprint(w, `{"unexpected":"object"}`)
			return
		}
		fmt.Fprint(w, `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`)
	})
	c := newTestClient(t, up.srv.URL)

	_, err := c.ListCoins(context.Background(), models.MListParams{Page: 1})
	fe, ok := helpers.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, fe.Status)

	coins, err := c.ListCoins(context.Background(), models.MListParams{Page: 1})
	require.NoError(t, err)
	assert.Len(t, coins, 1)
}

// -----------------------------------------------------------------------------

func TestInvalidateRefetchesOnlyMatchingQueries(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathGlobal:
			fmt.Fprint(w, `{"data":{"markets":1}}`)
		default:
			fmt.Fprint(w, `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`)
		}
	})
	c := newTestClient(t, up.srv.URL)
	ctx := context.Background()

	_, err := c.ListCoins(ctx, models.MListParams{Page: 1})
	require.NoError(t, err)
	_, err = c.GetGlobalStats(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, ListPrefixes()...))

	_, _ = c.ListCoins(ctx, models.MListParams{Page: 1})
	_, _ = c.GetGlobalStats(ctx)
	assert.Equal(t, 2, up.count(PathMarkets))
	assert.Equal(t, 1, up.count(PathGlobal))
}

// -----------------------------------------------------------------------------

func TestDetailPrefixesDoNotOverlapSimilarIDs(t *testing.T) {
	for _, p := range DetailPrefixes("bitcoin") {
		assert.False(t, strings.HasPrefix(cache.Key(CoinPath("bitcoin-cash"), map[string]string{"tickers": "false"}), p))
		assert.False(t, strings.HasPrefix(CoinPath("bitcoin-cash")+"/market_chart?days=7", p))
	}
	assert.True(t, strings.HasPrefix(cache.Key(CoinPath("bitcoin"), map[string]string{"tickers": "false"}), DetailPrefixes("bitcoin")[0]))
}
