package models

// MCoinSummary is one row of the markets listing.
// Numeric fields are pointers because the upstream API reports nulls.
type MCoinSummary struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  *float64 `json:"price_change_percentage_7d_in_currency,omitempty"`
	PriceChangePercentage30d *float64 `json:"price_change_percentage_30d_in_currency,omitempty"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
	MaxSupply                *float64 `json:"max_supply"` // nil means unbounded
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
}

// -----------------------------------------------------------------------------

// MListParams are the effective parameters of a listing request.
type MListParams struct {
	Page   int    `json:"page"`
	Search string `json:"search"`
	SortBy string `json:"sort_by"` // upstream order, e.g. "market_cap_desc"
}
