package models

// SortKey is a sortable listing column.
type SortKey string

const (
	SortByRank      SortKey = "market_cap_rank"
	SortByName      SortKey = "name"
	SortByPrice     SortKey = "current_price"
	SortByChange24h SortKey = "price_change_percentage_24h"
	SortByMarketCap SortKey = "market_cap"
	SortByVolume    SortKey = "total_volume"
)

// SortDirection orders a listing.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// MQueryState holds the user's listing selections. Never persisted.
type MQueryState struct {
	SearchText    string        `json:"search_text"`
	SortKey       SortKey       `json:"sort_key"`
	SortDirection SortDirection `json:"sort_direction"`
	Category      string        `json:"category"`
	Page          int           `json:"page"`
}
