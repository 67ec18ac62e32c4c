package models

// -----------------------------------------------------------------------------
// View models consumed by the presentation layer
// -----------------------------------------------------------------------------

// ChangeColor classifies a signed change for display.
type ChangeColor string

const (
	ColorPositive ChangeColor = "positive"
	ColorNegative ChangeColor = "negative"
	ColorNeutral  ChangeColor = "neutral"
)

// QueryStatus is the lifecycle state of a query.
type QueryStatus string

const (
	StatusIdle    QueryStatus = "idle"
	StatusLoading QueryStatus = "loading"
	StatusSuccess QueryStatus = "success"
	StatusError   QueryStatus = "error"
)

// MCoinRow is a formatted listing row.
type MCoinRow struct {
	Coin        MCoinSummary `json:"coin"`
	Rank        int          `json:"rank"`
	Featured    bool         `json:"featured"`
	Price       string       `json:"price"`
	Change24h   string       `json:"change_24h"`
	ChangeColor ChangeColor  `json:"change_color"`
	MarketCap   string       `json:"market_cap"`
	Volume      string       `json:"volume"`
}

// MTableView is the dashboard table or search-results list.
type MTableView struct {
	Status QueryStatus `json:"status"`
	Query  MQueryState `json:"query"`
	Rows   []MCoinRow  `json:"rows"`
	Total  int         `json:"total"`
	Empty  bool        `json:"empty"`
	Error  *MErrorView `json:"error,omitempty"`
}

// MStatView is one formatted global statistic.
type MStatView struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Value       string      `json:"value"`
	Change      string      `json:"change,omitempty"`
	ChangeColor ChangeColor `json:"change_color,omitempty"`
}

// MGlobalView is the formatted market overview.
type MGlobalView struct {
	Status    QueryStatus `json:"status"`
	Stats     []MStatView `json:"stats"`
	UpdatedAt int64       `json:"updated_at"`
	Error     *MErrorView `json:"error,omitempty"`
}

// MDetailView merges coin detail and chart data for the detail page.
type MDetailView struct {
	Status            QueryStatus `json:"status"`
	Coin              MCoinDetail `json:"coin"`
	Price             string      `json:"price"`
	Change24h         string      `json:"change_24h"`
	ChangeColor       ChangeColor `json:"change_color"`
	Change7d          string      `json:"change_7d"`
	Change7dColor     ChangeColor `json:"change_7d_color"`
	Change30d         string      `json:"change_30d"`
	Change30dColor    ChangeColor `json:"change_30d_color"`
	MarketCap         string      `json:"market_cap"`
	Volume            string      `json:"volume"`
	CirculatingSupply string      `json:"circulating_supply"`
	TotalSupply       string      `json:"total_supply"`
	MaxSupply         string      `json:"max_supply"`
	High24h           string      `json:"high_24h"`
	Low24h            string      `json:"low_24h"`
	ATH               string      `json:"ath"`
	ATL               string      `json:"atl"`
	Chart             *MChartView `json:"chart,omitempty"`
	Error             *MErrorView `json:"error,omitempty"`
	DetailsError      *MErrorView `json:"details_error,omitempty"`
	ChartError        *MErrorView `json:"chart_error,omitempty"`
}

// MChartView is a display-ready chart.
type MChartView struct {
	Days   int           `json:"days"`
	Points []MChartPoint `json:"points"`
	Stats  MChartStats   `json:"stats"`
	High   string        `json:"high"`
	Low    string        `json:"low"`
	Change string        `json:"change"`
	Color  ChangeColor   `json:"color"`
}

// MErrorView is a classified failure ready to render.
type MErrorView struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Status   int    `json:"status,omitempty"`
	Query    string `json:"query,omitempty"`
	BackPath string `json:"back_path,omitempty"`
}
