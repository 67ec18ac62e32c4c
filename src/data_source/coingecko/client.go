package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"coin-dashboard/src/cache"
	"coin-dashboard/src/config"
	"coin-dashboard/src/helpers"
	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
)

// Upstream paths, also used as cache key prefixes
const (
	PathMarkets = "/coins/markets"
	PathSearch  = "/search"
	PathGlobal  = "/global"
	PathCoins   = "/coins/"
)

// Query names attached to fetch errors
const (
	QueryMarkets = "markets"
	QuerySearch  = "search"
	QueryGlobal  = "global"
	QueryDetails = "details"
	QueryChart   = "chart"
)

const defaultOrder = "market_cap_desc"

// -----------------------------------------------------------------------------

// Client is the typed, cached CoinGecko v3 client.
type Client struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Cache   *cache.QueryCache
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewClient(cfg *models.MConfig, netMgr interfaces.INetworkManager, qc *cache.QueryCache, log *logger.Logger) *Client {
	return &Client{
		Config:  cfg,
		Network: netMgr,
		Cache:   qc,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// ListCoins returns a markets page, or the hydrated search hits when
// params.Search is set.
func (c *Client) ListCoins(ctx context.Context, params models.MListParams) ([]models.MCoinSummary, error) {
	search := strings.TrimSpace(params.Search)
	if search != "" {
		return c.searchCoins(ctx, search)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	order := params.SortBy
	if order == "" {
		order = defaultOrder
	}

	rows, err := get[[]marketRow](ctx, c, QueryMarkets, "", PathMarkets, map[string]string{
		"vs_currency":             c.Config.MarketData.VsCurrency,
		"order":                   order,
		"per_page":                strconv.Itoa(c.Config.MarketData.PerPage),
		"page":                    strconv.Itoa(page),
		"sparkline":               "false",
		"price_change_percentage": "7d,30d",
	})
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// -----------------------------------------------------------------------------

// searchCoins resolves the query to ids, then hydrates them with market data.
func (c *Client) searchCoins(ctx context.Context, search string) ([]models.MCoinSummary, error) {
	found, err := get[searchResponse](ctx, c, QuerySearch, "", PathSearch, map[string]string{"query": search})
	if err != nil {
		return nil, err
	}

	ids := searchIDs(found, c.Config.MarketData.SearchLimit)
	if len(ids) == 0 {
		return []models.MCoinSummary{}, nil
	}

	rows, err := get[[]marketRow](ctx, c, QueryMarkets, "", PathMarkets, map[string]string{
		"vs_currency": c.Config.MarketData.VsCurrency,
		"ids":         strings.Join(ids, ","),
		"order":       defaultOrder,
		"sparkline":   "false",
	})
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetGlobalStats(ctx context.Context) (models.MGlobalSnapshot, error) {
	resp, err := get[globalResponse](ctx, c, QueryGlobal, "", PathGlobal, nil)
	if err != nil {
		return models.MGlobalSnapshot{}, err
	}
	if resp.Data == nil {
		return models.MGlobalSnapshot{}, malformed(QueryGlobal, "", PathGlobal, fmt.Errorf("missing data object"))
	}
	return toGlobal(resp), nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetCoinDetails(ctx context.Context, id string) (models.MCoinDetail, error) {
	if err := validateID(id); err != nil {
		return models.MCoinDetail{}, err
	}

	resp, err := get[detailResponse](ctx, c, QueryDetails, id, CoinPath(id), map[string]string{
		"localization":   "false",
		"tickers":        "false",
		"community_data": "false",
		"developer_data": "false",
		"sparkline":      "false",
	})
	if err != nil {
		return models.MCoinDetail{}, err
	}
	if resp.ID == "" {
		return models.MCoinDetail{}, malformed(QueryDetails, id, CoinPath(id), fmt.Errorf("missing id"))
	}
	return toDetail(resp, c.Config.MarketData.VsCurrency), nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetCoinChart(ctx context.Context, id string, days int) (models.MChartSeries, error) {
	if err := validateID(id); err != nil {
		return models.MChartSeries{}, err
	}
	if !config.ValidChartDays(days) {
		return models.MChartSeries{}, helpers.NewValidationError("unsupported chart range %d days (want one of %v)", days, config.ChartDays)
	}

	resp, err := get[chartResponse](ctx, c, QueryChart, id, CoinPath(id)+"/market_chart", map[string]string{
		"vs_currency": c.Config.MarketData.VsCurrency,
		"days":        strconv.Itoa(days),
	})
	if err != nil {
		return models.MChartSeries{}, err
	}
	return toChart(resp, id, days), nil
}

// -----------------------------------------------------------------------------

// Invalidate drops cached responses under the given key prefixes.
func (c *Client) Invalidate(ctx context.Context, prefixes ...string) error {
	return c.Cache.Invalidate(ctx, prefixes...)
}

// -----------------------------------------------------------------------------

// CoinPath is the upstream path of a single coin.
func CoinPath(id string) string {
	return PathCoins + url.PathEscape(id)
}

// ListPrefixes are the cache prefixes of the listing and search views.
func ListPrefixes() []string {
	return []string{PathMarkets, PathSearch}
}

// DetailPrefixes are the cache prefixes of one coin's detail and chart.
func DetailPrefixes(id string) []string {
	p := CoinPath(id)
	return []string{p + "?", p + "/"}
}

// -----------------------------------------------------------------------------

// get fetches path through the cache and decodes the payload as T.
// Payloads that do not decode are never stored.
func get[T any](ctx context.Context, c *Client, query, id, path string, params map[string]string) (T, error) {
	var out T
	endpoint := c.Config.MarketData.BaseURL + path
	key := cache.Key(path, params)

	data, err := c.Cache.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		c.Logger.Debug("GET %s", key)
		body, err := c.Network.Get(ctx, endpoint, params)
		if err != nil {
			if fe, ok := helpers.AsFetchError(err); ok {
				fe.Query = query
				fe.Identifier = id
				return nil, fe
			}
			return nil, &helpers.FetchError{Query: query, Identifier: id, URL: endpoint, Transport: true, Cause: err}
		}
		var probe T
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, malformed(query, id, endpoint, err)
		}
		return body, nil
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, malformed(query, id, endpoint, err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// malformed reports a 200 response whose body does not match the expected shape.
func malformed(query, id, endpoint string, cause error) error {
	return &helpers.FetchError{
		Query:      query,
		Identifier: id,
		URL:        endpoint,
		Status:     http.StatusOK,
		BodyError:  "malformed response: " + cause.Error(),
		Cause:      cause,
	}
}

// -----------------------------------------------------------------------------

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return helpers.NewValidationError("coin id is required")
	}
	return nil
}
