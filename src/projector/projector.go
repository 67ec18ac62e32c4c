// Package projector shapes client results into presentation view models.
package projector

import (
	"strings"

	"coin-dashboard/src/analysis"
	"coin-dashboard/src/formatter"
	"coin-dashboard/src/models"
	"coin-dashboard/src/query"

	"github.com/shopspring/decimal"
)

// Detail view fallback band for a missing 24h high/low
const highLowBand = 0.05

// -----------------------------------------------------------------------------

type Projector struct {
	FeaturedSymbol string
	VsCurrency     string
	Analysis       *analysis.AnalysisFacade
}

func NewProjector(cfg *models.MConfig, facade *analysis.AnalysisFacade) *Projector {
	return &Projector{
		FeaturedSymbol: cfg.MarketData.FeaturedSymbol,
		VsCurrency:     cfg.MarketData.VsCurrency,
		Analysis:       facade,
	}
}

// -----------------------------------------------------------------------------

// ProjectTable filters rows by the search text and sorts them by state.
// With no search and the default sort the upstream order is kept.
func (p *Projector) ProjectTable(rows []models.MCoinSummary, state query.State) models.MTableView {
	return p.project(rows, state, false)
}

// ProjectSearch is ProjectTable followed by moving the featured coin to the top.
func (p *Projector) ProjectSearch(rows []models.MCoinSummary, state query.State) models.MTableView {
	return p.project(rows, state, true)
}

// -----------------------------------------------------------------------------

func (p *Projector) project(rows []models.MCoinSummary, state query.State, promote bool) models.MTableView {
	positions := make(map[string]int, len(rows))
	for i, r := range rows {
		positions[r.ID] = i + 1
	}

	shaped := query.Filter(rows, state.Search())
	if !state.IsDefaultSort() {
		shaped = query.Sort(shaped, state.SortKey, state.SortDirection)
	}

	out := make([]models.MCoinRow, len(shaped))
	for i, c := range shaped {
		out[i] = FormatRow(c, positions[c.ID])
	}
	if promote {
		out = p.promoteFeatured(out)
	}

	return models.MTableView{
		Query: state.MQueryState,
		Rows:  out,
		Total: len(out),
		Empty: len(out) == 0,
	}
}

// -----------------------------------------------------------------------------

// promoteFeatured moves the first featured row to index 0, keeping the
// relative order of the others.
func (p *Projector) promoteFeatured(rows []models.MCoinRow) []models.MCoinRow {
	if p.FeaturedSymbol == "" {
		return rows
	}
	for i := range rows {
		if !strings.EqualFold(rows[i].Coin.Symbol, p.FeaturedSymbol) {
			continue
		}
		rows[i].Featured = true
		if i > 0 {
			featured := rows[i]
			copy(rows[1:i+1], rows[:i])
			rows[0] = featured
		}
		break
	}
	return rows
}

// -----------------------------------------------------------------------------

// FormatRow renders a listing row. position is the 1-based upstream index
// used when the coin has no market cap rank.
func FormatRow(c models.MCoinSummary, position int) models.MCoinRow {
	return models.MCoinRow{
		Coin:        c,
		Rank:        query.Rank(c, position),
		Price:       formatter.FormatPrice(c.CurrentPrice),
		Change24h:   formatter.FormatPercentage(c.PriceChangePercentage24h),
		ChangeColor: formatter.ChangeColor(c.PriceChangePercentage24h),
		MarketCap:   formatter.FormatCurrency(c.MarketCap),
		Volume:      formatter.FormatCurrency(c.TotalVolume),
	}
}

// -----------------------------------------------------------------------------

// BuildDetailView merges a coin's detail record with its chart. Either may
// be nil when its query failed.
func (p *Projector) BuildDetailView(detail *models.MCoinDetail, chart *models.MChartSeries) models.MDetailView {
	var view models.MDetailView
	if chart != nil {
		view.Chart = p.BuildChartView(*chart)
	}
	if detail == nil {
		return view
	}

	d := *detail
	d.Categories = append([]string(nil), detail.Categories...)
	high, low := d.High24h, d.Low24h
	if d.CurrentPrice != nil {
		if high == nil {
			high = scaled(*d.CurrentPrice, 1+highLowBand)
		}
		if low == nil {
			low = scaled(*d.CurrentPrice, 1-highLowBand)
		}
	}

	view.Coin = d
	view.Price = formatter.FormatPriceOr(d.CurrentPrice, formatter.NotAvailable)
	view.Change24h = formatter.FormatPercentage(d.PriceChangePercentage24h)
	view.ChangeColor = formatter.ChangeColor(d.PriceChangePercentage24h)
	view.Change7d = formatter.FormatPercentage(d.PriceChangePercentage7d)
	view.Change7dColor = formatter.ChangeColor(d.PriceChangePercentage7d)
	view.Change30d = formatter.FormatPercentage(d.PriceChangePercentage30d)
	view.Change30dColor = formatter.ChangeColor(d.PriceChangePercentage30d)
	view.MarketCap = formatter.FormatCurrencyOr(d.MarketCap, formatter.NotAvailable)
	view.Volume = formatter.FormatCurrencyOr(d.TotalVolume, formatter.NotAvailable)
	view.CirculatingSupply = formatter.FormatSupplyOr(d.CirculatingSupply, formatter.NotAvailable)
	view.TotalSupply = formatter.FormatSupplyOr(d.TotalSupply, formatter.NotAvailable)
	view.MaxSupply = formatter.FormatSupply(d.MaxSupply)
	view.High24h = formatter.FormatPriceOr(high, formatter.NotAvailable)
	view.Low24h = formatter.FormatPriceOr(low, formatter.NotAvailable)
	view.ATH = formatter.FormatPriceOr(d.ATH, formatter.NotAvailable)
	view.ATL = formatter.FormatPriceOr(d.ATL, formatter.NotAvailable)
	return view
}

func scaled(v, factor float64) *float64 {
	out, _ := decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(factor)).Float64()
	return &out
}

// -----------------------------------------------------------------------------

// BuildChartView downsamples the series and summarises its range.
func (p *Projector) BuildChartView(series models.MChartSeries) *models.MChartView {
	points, stats := p.Analysis.Analyze(series)
	view := &models.MChartView{
		Days:   series.Days,
		Points: points,
		Stats:  stats,
		High:   formatter.FormatPrice(&stats.High),
		Low:    formatter.FormatPrice(&stats.Low),
	}
	if stats.Points == 0 {
		view.Change = formatter.FormatPercentage(nil)
		view.Color = formatter.ChangeColor(nil)
		return view
	}
	view.Change = formatter.FormatPercentage(&stats.ChangePercent)
	view.Color = formatter.ChangeColor(&stats.ChangePercent)
	return view
}

// -----------------------------------------------------------------------------

// BuildGlobalView formats the market overview. Figures the upstream did not
// report are left out.
func (p *Projector) BuildGlobalView(g models.MGlobalSnapshot) models.MGlobalView {
	var stats []models.MStatView

	if v, ok := g.TotalMarketCap[p.VsCurrency]; ok {
		stat := models.MStatView{ID: "total_market_cap", Label: "Total Market Cap", Value: formatter.FormatCurrency(&v)}
		if change := g.MarketCapChangePercentage24hUSD; change != nil {
			stat.Change = formatter.FormatPercentage(change)
			stat.ChangeColor = formatter.ChangeColor(change)
		}
		stats = append(stats, stat)
	}
	if v, ok := g.TotalVolume[p.VsCurrency]; ok {
		stats = append(stats, models.MStatView{ID: "total_volume", Label: "24h Volume", Value: formatter.FormatCurrency(&v)})
	}
	if v, ok := g.MarketCapPercentage["btc"]; ok {
		stats = append(stats, models.MStatView{ID: "btc_dominance", Label: "BTC Dominance", Value: share(v)})
	}
	stats = append(stats,
		models.MStatView{ID: "active_cryptocurrencies", Label: "Active Cryptocurrencies", Value: formatter.FormatCount(g.ActiveCryptocurrencies)},
		models.MStatView{ID: "markets", Label: "Markets", Value: formatter.FormatCount(g.Markets)},
	)
	if v, ok := g.MarketCapPercentage["eth"]; ok {
		stats = append(stats, models.MStatView{ID: "eth_dominance", Label: "ETH Dominance", Value: share(v)})
	}

	icos := []struct {
		id, label string
		n         *int
	}{
		{"ended_icos", "Ended ICOs", g.EndedICOs},
		{"ongoing_icos", "Ongoing ICOs", g.OngoingICOs},
		{"upcoming_icos", "Upcoming ICOs", g.UpcomingICOs},
	}
	for _, ico := range icos {
		if ico.n != nil {
			stats = append(stats, models.MStatView{ID: ico.id, Label: ico.label, Value: formatter.FormatCount(*ico.n)})
		}
	}

	return models.MGlobalView{Stats: stats, UpdatedAt: g.UpdatedAt}
}

func share(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}
