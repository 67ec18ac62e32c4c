package query

import (
	"sort"

	"coin-dashboard/src/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort returns a stably sorted copy of rows. Missing numbers compare as 0,
// a missing rank falls back to the row's 1-based position, and names use
// English collation.
func Sort(rows []models.MCoinSummary, key models.SortKey, dir models.SortDirection) []models.MCoinSummary {
	type indexed struct {
		row models.MCoinSummary
		pos int
	}
	items := make([]indexed, len(rows))
	for i, r := range rows {
		items[i] = indexed{row: r, pos: i + 1}
	}

	// Collators keep internal buffers, one per call
	col := collate.New(language.English, collate.IgnoreCase)
	sign := 1
	if dir == models.SortDesc {
		sign = -1
	}

	sort.SliceStable(items, func(i, j int) bool {
		return sign*compare(col, items[i].row, items[j].row, items[i].pos, items[j].pos, key) < 0
	})

	out := make([]models.MCoinSummary, len(items))
	for i, it := range items {
		out[i] = it.row
	}
	return out
}

// -----------------------------------------------------------------------------

func compare(col *collate.Collator, a, b models.MCoinSummary, posA, posB int, key models.SortKey) int {
	switch key {
	case models.SortByName:
		return col.CompareString(a.Name, b.Name)
	case models.SortByPrice:
		return cmpFloat(a.CurrentPrice, b.CurrentPrice)
	case models.SortByChange24h:
		return cmpFloat(a.PriceChangePercentage24h, b.PriceChangePercentage24h)
	case models.SortByMarketCap:
		return cmpFloat(a.MarketCap, b.MarketCap)
	case models.SortByVolume:
		return cmpFloat(a.TotalVolume, b.TotalVolume)
	default:
		return cmpInt(Rank(a, posA), Rank(b, posB))
	}
}

// Rank returns the market cap rank, or the fallback position when absent.
func Rank(c models.MCoinSummary, position int) int {
	if c.MarketCapRank != nil {
		return *c.MarketCapRank
	}
	return position
}

func cmpFloat(a, b *float64) int {
	var x, y float64
	if a != nil {
		x = *a
	}
	if b != nil {
		y = *b
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
