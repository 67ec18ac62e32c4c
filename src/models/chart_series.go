package models

// MChartPoint is a single sample of a price history.
type MChartPoint struct {
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	Price     float64 `json:"price"`
}

// MChartSeries is an ordered price history of one coin.
type MChartSeries struct {
	CoinID       string        `json:"coin_id"`
	Days         int           `json:"days"`
	Prices       []MChartPoint `json:"prices"`
	MarketCaps   []MChartPoint `json:"market_caps,omitempty"`
	TotalVolumes []MChartPoint `json:"total_volumes,omitempty"`
}

// MChartStats summarises a chart series over its range.
type MChartStats struct {
	Open          float64 `json:"open"`
	Close         float64 `json:"close"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	ChangePercent float64 `json:"change_percent"`
	Points        int     `json:"points"`
}
