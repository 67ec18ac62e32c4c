package coingecko

import (
	"strings"

	"coin-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Upstream payloads. Every numeric is a pointer since CoinGecko reports nulls.
// -----------------------------------------------------------------------------

type marketRow struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	PriceChange7dInCurrency  *float64 `json:"price_change_percentage_7d_in_currency"`
	PriceChange30dInCurrency *float64 `json:"price_change_percentage_30d_in_currency"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
	MaxSupply                *float64 `json:"max_supply"`
}

type searchResponse struct {
	Coins []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"coins"`
}

type globalResponse struct {
	Data *struct {
		ActiveCryptocurrencies          int                `json:"active_cryptocurrencies"`
		UpcomingICOs                    *int               `json:"upcoming_icos"`
		OngoingICOs                     *int               `json:"ongoing_icos"`
		EndedICOs                       *int               `json:"ended_icos"`
		Markets                         int                `json:"markets"`
		TotalMarketCap                  map[string]float64 `json:"total_market_cap"`
		TotalVolume                     map[string]float64 `json:"total_volume"`
		MarketCapPercentage             map[string]float64 `json:"market_cap_percentage"`
		MarketCapChangePercentage24hUSD *float64           `json:"market_cap_change_percentage_24h_usd"`
		UpdatedAt                       int64              `json:"updated_at"`
	} `json:"data"`
}

type detailResponse struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank *int   `json:"market_cap_rank"`
	Image         struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage       []string `json:"homepage"`
		BlockchainSite []string `json:"blockchain_site"`
	} `json:"links"`
	Categories       []*string `json:"categories"`
	GenesisDate      *string   `json:"genesis_date"`
	HashingAlgorithm *string   `json:"hashing_algorithm"`
	LastUpdated      string    `json:"last_updated"`
	MarketData       *struct {
		CurrentPrice             map[string]*float64 `json:"current_price"`
		MarketCap                map[string]*float64 `json:"market_cap"`
		TotalVolume              map[string]*float64 `json:"total_volume"`
		High24h                  map[string]*float64 `json:"high_24h"`
		Low24h                   map[string]*float64 `json:"low_24h"`
		ATH                      map[string]*float64 `json:"ath"`
		ATHDate                  map[string]string   `json:"ath_date"`
		ATL                      map[string]*float64 `json:"atl"`
		ATLDate                  map[string]string   `json:"atl_date"`
		PriceChangePercentage24h *float64            `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  *float64            `json:"price_change_percentage_7d"`
		PriceChangePercentage30d *float64            `json:"price_change_percentage_30d"`
		CirculatingSupply        *float64            `json:"circulating_supply"`
		TotalSupply              *float64            `json:"total_supply"`
		MaxSupply                *float64            `json:"max_supply"`
	} `json:"market_data"`
}

type chartResponse struct {
	Prices       [][]*float64 `json:"prices"`
	MarketCaps   [][]*float64 `json:"market_caps"`
	TotalVolumes [][]*float64 `json:"total_volumes"`
}

// -----------------------------------------------------------------------------
// Narrowing into models
// -----------------------------------------------------------------------------

// toSummaries drops rows without an id and repeated ids, keeping the first.
func toSummaries(rows []marketRow) []models.MCoinSummary {
	out := make([]models.MCoinSummary, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, models.MCoinSummary{
			ID:                       r.ID,
			Symbol:                   r.Symbol,
			Name:                     r.Name,
			Image:                    r.Image,
			CurrentPrice:             r.CurrentPrice,
			MarketCap:                r.MarketCap,
			MarketCapRank:            r.MarketCapRank,
			TotalVolume:              r.TotalVolume,
			PriceChangePercentage24h: r.PriceChangePercentage24h,
			PriceChangePercentage7d:  r.PriceChange7dInCurrency,
			PriceChangePercentage30d: r.PriceChange30dInCurrency,
			CirculatingSupply:        r.CirculatingSupply,
			TotalSupply:              r.TotalSupply,
			MaxSupply:                r.MaxSupply,
			High24h:                  r.High24h,
			Low24h:                   r.Low24h,
		})
	}
	return out
}

// -----------------------------------------------------------------------------

// searchIDs returns up to limit distinct, non-empty ids in upstream order.
func searchIDs(resp searchResponse, limit int) []string {
	ids := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, c := range resp.Coins {
		if len(ids) == limit {
			break
		}
		if c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	}
	return ids
}

// -----------------------------------------------------------------------------

func toGlobal(resp globalResponse) models.MGlobalSnapshot {
	d := resp.Data
	return models.MGlobalSnapshot{
		ActiveCryptocurrencies:          d.ActiveCryptocurrencies,
		Markets:                         d.Markets,
		UpcomingICOs:                    d.UpcomingICOs,
		OngoingICOs:                     d.OngoingICOs,
		EndedICOs:                       d.EndedICOs,
		TotalMarketCap:                  nonNilMap(d.TotalMarketCap),
		TotalVolume:                     nonNilMap(d.TotalVolume),
		MarketCapPercentage:             nonNilMap(d.MarketCapPercentage),
		MarketCapChangePercentage24hUSD: d.MarketCapChangePercentage24hUSD,
		UpdatedAt:                       d.UpdatedAt,
	}
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

// -----------------------------------------------------------------------------

// toDetail flattens the per-currency maps for vs.
func toDetail(d detailResponse, vs string) models.MCoinDetail {
	image := d.Image.Large
	if image == "" {
		image = d.Image.Small
	}

	out := models.MCoinDetail{
		MCoinSummary: models.MCoinSummary{
			ID:            d.ID,
			Symbol:        d.Symbol,
			Name:          d.Name,
			Image:         image,
			MarketCapRank: d.MarketCapRank,
		},
		Description:    strings.TrimSpace(d.Description.En),
		Homepage:       firstLink(d.Links.Homepage),
		BlockchainSite: firstLink(d.Links.BlockchainSite),
		Categories:     make([]string, 0, len(d.Categories)),
		LastUpdated:    d.LastUpdated,
	}
	for _, c := range d.Categories {
		if c != nil && *c != "" {
			out.Categories = append(out.Categories, *c)
		}
	}
	if d.GenesisDate != nil {
		out.GenesisDate = *d.GenesisDate
	}
	if d.HashingAlgorithm != nil {
		out.HashingAlgorithm = *d.HashingAlgorithm
	}

	if md := d.MarketData; md != nil {
		out.CurrentPrice = md.CurrentPrice[vs]
		out.MarketCap = md.MarketCap[vs]
		out.TotalVolume = md.TotalVolume[vs]
		out.High24h = md.High24h[vs]
		out.Low24h = md.Low24h[vs]
		out.PriceChangePercentage24h = md.PriceChangePercentage24h
		out.PriceChangePercentage7d = md.PriceChangePercentage7d
		out.PriceChangePercentage30d = md.PriceChangePercentage30d
		out.CirculatingSupply = md.CirculatingSupply
		out.TotalSupply = md.TotalSupply
		out.MaxSupply = md.MaxSupply
		out.ATH = md.ATH[vs]
		out.ATHDate = md.ATHDate[vs]
		out.ATL = md.ATL[vs]
		out.ATLDate = md.ATLDate[vs]
	}
	return out
}

func firstLink(links []string) string {
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

func toChart(resp chartResponse, id string, days int) models.MChartSeries {
	return models.MChartSeries{
		CoinID:       id,
		Days:         days,
		Prices:       toPoints(resp.Prices),
		MarketCaps:   toPoints(resp.MarketCaps),
		TotalVolumes: toPoints(resp.TotalVolumes),
	}
}

// toPoints keeps well-formed [timestamp, value] pairs.
func toPoints(raw [][]*float64) []models.MChartPoint {
	points := make([]models.MChartPoint, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 || pair[0] == nil || pair[1] == nil {
			continue
		}
		points = append(points, models.MChartPoint{Timestamp: int64(*pair[0]), Price: *pair[1]})
	}
	return points
}
