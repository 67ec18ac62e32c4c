package analysis

import (
	"coin-dashboard/src/analysis/core"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
)

type AnalysisFacade struct {
	MaxPoints int
	Resampler *TimeSeriesResampler
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		MaxPoints: cfg.MarketData.ChartMaxPoints,
		Resampler: &TimeSeriesResampler{},
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Stats computes range statistics over every price of the series.
func (a *AnalysisFacade) Stats(series models.MChartSeries) models.MChartStats {
	prices := make([]float64, len(series.Prices))
	for i, p := range series.Prices {
		prices[i] = p.Price
	}
	if len(prices) == 0 {
		return models.MChartStats{}
	}

	ohlc := core.ComputeOHLC(prices)
	mean, std := core.CalculateMeanStd(prices)
	return models.MChartStats{
		Open:          ohlc.Open,
		Close:         ohlc.Close,
		High:          ohlc.High,
		Low:           ohlc.Low,
		Mean:          mean,
		StdDev:        std,
		ChangePercent: core.CalculateChangePercent(ohlc.Close, ohlc.Open),
		Points:        len(prices),
	}
}

// -----------------------------------------------------------------------------

// Analyze returns the display points of a series and its full-range stats.
func (a *AnalysisFacade) Analyze(series models.MChartSeries) ([]models.MChartPoint, models.MChartStats) {
	stats := a.Stats(series)
	points := a.Resampler.Downsample(series.Prices, a.MaxPoints)
	if len(points) < len(series.Prices) {
		a.Logger.Debug("Downsampled %s chart from %d to %d points", series.CoinID, len(series.Prices), len(points))
	}
	return points, stats
}
