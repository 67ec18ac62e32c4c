package models

// MGlobalSnapshot aggregates market-wide statistics.
type MGlobalSnapshot struct {
	ActiveCryptocurrencies          int                `json:"active_cryptocurrencies"`
	Markets                         int                `json:"markets"`
	UpcomingICOs                    *int               `json:"upcoming_icos,omitempty"`
	OngoingICOs                     *int               `json:"ongoing_icos,omitempty"`
	EndedICOs                       *int               `json:"ended_icos,omitempty"`
	TotalMarketCap                  map[string]float64 `json:"total_market_cap"`
	TotalVolume                     map[string]float64 `json:"total_volume"`
	MarketCapPercentage             map[string]float64 `json:"market_cap_percentage"`
	MarketCapChangePercentage24hUSD *float64           `json:"market_cap_change_percentage_24h_usd"`
	UpdatedAt                       int64              `json:"updated_at"` // epoch seconds
}
