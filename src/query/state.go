package query

import (
	"strings"

	"coin-dashboard/src/helpers"
	"coin-dashboard/src/models"
)

// CategoryAll is the advisory category meaning no narrowing.
const CategoryAll = "all"

// Upstream orders understood by /coins/markets
const (
	OrderMarketCapDesc = "market_cap_desc"
	OrderMarketCapAsc  = "market_cap_asc"
	OrderVolumeDesc    = "volume_desc"
	OrderVolumeAsc     = "volume_asc"
	OrderIDAsc         = "id_asc"
	OrderIDDesc        = "id_desc"
)

// -----------------------------------------------------------------------------

// State is an immutable listing query. Mutators return a modified copy.
type State struct {
	models.MQueryState
}

// NewState returns the canonical default: rank ascending, all categories, page 1.
func NewState() State {
	return State{models.MQueryState{
		SortKey:       models.SortByRank,
		SortDirection: models.SortAsc,
		Category:      CategoryAll,
		Page:          1,
	}}
}

// -----------------------------------------------------------------------------

// WithSearch replaces the search text and returns to the first page.
func (s State) WithSearch(text string) State {
	s.SearchText = text
	s.Page = 1
	return s
}

// WithSort sets both sort key and direction.
func (s State) WithSort(key models.SortKey, dir models.SortDirection) State {
	s.SortKey = key
	s.SortDirection = dir
	return s
}

// ToggleSort flips the direction of the active key, or starts a new key ascending.
func (s State) ToggleSort(key models.SortKey) State {
	if s.SortKey == key {
		if s.SortDirection == models.SortAsc {
			s.SortDirection = models.SortDesc
		} else {
			s.SortDirection = models.SortAsc
		}
		return s
	}
	s.SortKey = key
	s.SortDirection = models.SortAsc
	return s
}

// WithCategory sets the advisory category. Empty means all.
func (s State) WithCategory(category string) State {
	category = strings.TrimSpace(category)
	if category == "" {
		category = CategoryAll
	}
	s.Category = category
	return s
}

// WithPage selects a page, clamped to 1.
func (s State) WithPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// -----------------------------------------------------------------------------

// Search returns the trimmed search text.
func (s State) Search() string {
	return strings.TrimSpace(s.SearchText)
}

// IsDefaultSort reports whether rows can keep the upstream order.
func (s State) IsDefaultSort() bool {
	return s.SortKey == models.SortByRank && s.SortDirection == models.SortAsc
}

// -----------------------------------------------------------------------------

// Params derives the effective list request. Columns the upstream cannot
// order by fall back to market cap and are sorted locally.
func (s State) Params() models.MListParams {
	page := s.Page
	if page < 1 {
		page = 1
	}
	return models.MListParams{
		Page:   page,
		Search: s.Search(),
		SortBy: UpstreamOrder(s.SortKey, s.SortDirection),
	}
}

// UpstreamOrder maps a column and direction to a /coins/markets order.
func UpstreamOrder(key models.SortKey, dir models.SortDirection) string {
	desc := dir == models.SortDesc
	switch key {
	case models.SortByMarketCap:
		if desc {
			return OrderMarketCapDesc
		}
		return OrderMarketCapAsc
	case models.SortByVolume:
		if desc {
			return OrderVolumeDesc
		}
		return OrderVolumeAsc
	case models.SortByName:
		if desc {
			return OrderIDDesc
		}
		return OrderIDAsc
	default:
		return OrderMarketCapDesc
	}
}

// -----------------------------------------------------------------------------

// ParseSortKey validates a column name. Empty selects the rank column.
func ParseSortKey(s string) (models.SortKey, error) {
	switch key := models.SortKey(strings.TrimSpace(s)); key {
	case "":
		return models.SortByRank, nil
	case models.SortByRank, models.SortByName, models.SortByPrice,
		models.SortByChange24h, models.SortByMarketCap, models.SortByVolume:
		return key, nil
	default:
		return "", helpers.NewValidationError("unknown sort key %q", s)
	}
}

// ParseDirection validates a direction. Empty selects ascending.
func ParseDirection(s string) (models.SortDirection, error) {
	switch dir := models.SortDirection(strings.ToLower(strings.TrimSpace(s))); dir {
	case "":
		return models.SortAsc, nil
	case models.SortAsc, models.SortDesc:
		return dir, nil
	default:
		return "", helpers.NewValidationError("unknown sort direction %q", s)
	}
}
