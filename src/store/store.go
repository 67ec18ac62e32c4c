// Package store orchestrates market data queries into view models.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"coin-dashboard/src/classifier"
	"coin-dashboard/src/config"
	"coin-dashboard/src/data_source/coingecko"
	"coin-dashboard/src/helpers"
	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
	"coin-dashboard/src/projector"
	"coin-dashboard/src/query"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRegistrySize bounds each query registry when the config leaves it unset.
const DefaultRegistrySize = 256

// Store owns the per-view queries and turns their outcomes into views.
type Store struct {
	Client      interfaces.IMarketDataClient
	Projector   *projector.Projector
	Errors      *helpers.ErrorHandler
	Logger      *logger.Logger
	DefaultDays int

	// Registries keep the last snapshot of recently displayed views and
	// evict the least recently used ones. Fetched data lives in the cache.
	mu      sync.Mutex
	lists   *lru.Cache[models.MListParams, *Query[[]models.MCoinSummary]]
	global  *Query[models.MGlobalSnapshot]
	details *lru.Cache[string, *Query[models.MCoinDetail]]
	charts  *lru.Cache[string, *Query[models.MChartSeries]]
}

// -----------------------------------------------------------------------------

func NewStore(cfg *models.MConfig, client interfaces.IMarketDataClient, proj *projector.Projector, log *logger.Logger) *Store {
	s := &Store{
		Client:      client,
		Projector:   proj,
		Errors:      helpers.NewErrorHandler(log.Named("Errors")),
		Logger:      log,
		DefaultDays: cfg.MarketData.DefaultChartDays,
	}
	size := cfg.MarketData.QueryRegistrySize
	if size <= 0 {
		size = DefaultRegistrySize
	}
	s.lists = newRegistry[models.MListParams, *Query[[]models.MCoinSummary]](size)
	s.details = newRegistry[string, *Query[models.MCoinDetail]](size)
	s.charts = newRegistry[string, *Query[models.MChartSeries]](size)
	s.global = NewQuery(coingecko.QueryGlobal, s.Client.GetGlobalStats)
	return s
}

// newRegistry panics only on a non-positive size, which NewStore rules out.
func newRegistry[K comparable, V any](size int) *lru.Cache[K, V] {
	c, err := lru.New[K, V](size)
	if err != nil {
		panic(err)
	}
	return c
}

// -----------------------------------------------------------------------------

// RegistrySizes reports how many list, detail and chart queries are retained.
func (s *Store) RegistrySizes() (lists, details, charts int) {
	return s.lists.Len(), s.details.Len(), s.charts.Len()
}

// -----------------------------------------------------------------------------
// Query registry
// -----------------------------------------------------------------------------

func (s *Store) listQuery(params models.MListParams) *Query[[]models.MCoinSummary] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.lists.Get(params); ok {
		return q
	}
	name := coingecko.QueryMarkets
	if params.Search != "" {
		name = coingecko.QuerySearch
	}
	q := NewQuery(name, func(ctx context.Context) ([]models.MCoinSummary, error) {
		return s.Client.ListCoins(ctx, params)
	})
	s.lists.Add(params, q)
	return q
}

// -----------------------------------------------------------------------------

func (s *Store) detailQuery(id string) *Query[models.MCoinDetail] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.details.Get(id); ok {
		return q
	}
	q := NewQuery(coingecko.QueryDetails, func(ctx context.Context) (models.MCoinDetail, error) {
		return s.Client.GetCoinDetails(ctx, id)
	})
	s.details.Add(id, q)
	return q
}

// -----------------------------------------------------------------------------

func (s *Store) chartQuery(id string, days int) *Query[models.MChartSeries] {
	key := fmt.Sprintf("%s/%d", id, days)
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.charts.Get(key); ok {
		return q
	}
	q := NewQuery(coingecko.QueryChart, func(ctx context.Context) (models.MChartSeries, error) {
		return s.Client.GetCoinChart(ctx, id, days)
	})
	s.charts.Add(key, q)
	return q
}

// -----------------------------------------------------------------------------

// record feeds a query outcome to the error handler.
func (s *Store) record(err error, operation string) {
	if err == nil {
		s.Errors.Success()
		return
	}
	s.Errors.Handle(err, operation)
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

// Table loads the listing for state and projects it.
func (s *Store) Table(ctx context.Context, state query.State) models.MTableView {
	snap, err := s.listQuery(state.Params()).Run(ctx)
	s.record(err, "list coins")
	return tableView(snap, state, s.Projector.ProjectTable)
}

// -----------------------------------------------------------------------------

// Search loads the search hits for state and projects them with the
// featured coin on top. An empty search shows the full listing as fetched.
func (s *Store) Search(ctx context.Context, state query.State) models.MTableView {
	if state.Search() == "" {
		return s.Table(ctx, state)
	}
	snap, err := s.listQuery(state.Params()).Run(ctx)
	s.record(err, "search coins")
	return tableView(snap, state, s.Projector.ProjectSearch)
}

func tableView(snap Snapshot[[]models.MCoinSummary], state query.State, project func([]models.MCoinSummary, query.State) models.MTableView) models.MTableView {
	view := project(snap.Data, state)
	view.Status = snap.Status
	if snap.Status == models.StatusError {
		view.Error = snap.Err.View()
	}
	return view
}

// -----------------------------------------------------------------------------

// Global loads the market overview.
func (s *Store) Global(ctx context.Context) models.MGlobalView {
	snap, err := s.global.Run(ctx)
	s.record(err, "global stats")

	var view models.MGlobalView
	if snap.HasData {
		view = s.Projector.BuildGlobalView(snap.Data)
	}
	view.Status = snap.Status
	if snap.Status == models.StatusError {
		view.Error = snap.Err.View()
	}
	return view
}

// -----------------------------------------------------------------------------

// Detail loads a coin's details and chart concurrently and waits for both.
// The returned classification is the merged failure, nil when both succeed.
func (s *Store) Detail(ctx context.Context, id string, days int) (models.MDetailView, *classifier.Classification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.MDetailView{}, nil, helpers.NewValidationError("coin id is required")
	}
	if days == 0 {
		days = s.DefaultDays
	}
	if !config.ValidChartDays(days) {
		return models.MDetailView{}, nil, helpers.NewValidationError("unsupported chart period: %d days", days)
	}

	var (
		wg      sync.WaitGroup
		details Snapshot[models.MCoinDetail]
		chart   Snapshot[models.MChartSeries]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		details, err = s.detailQuery(id).Run(ctx)
		s.record(err, "coin details "+id)
	}()
	go func() {
		defer wg.Done()
		var err error
		chart, err = s.chartQuery(id, days).Run(ctx)
		s.record(err, "coin chart "+id)
	}()
	wg.Wait()

	var detailData *models.MCoinDetail
	if details.HasData {
		detailData = &details.Data
	}
	var chartData *models.MChartSeries
	if chart.HasData {
		chartData = &chart.Data
	}
	view := s.Projector.BuildDetailView(detailData, chartData)

	var detailsErr, chartErr *classifier.Classification
	if details.Status == models.StatusError {
		detailsErr = details.Err
	}
	if chart.Status == models.StatusError {
		chartErr = chart.Err
	}
	merged := classifier.Merge(detailsErr, chartErr)

	view.Status = models.StatusSuccess
	if merged != nil {
		view.Status = models.StatusError
	}
	view.Error = merged.View()
	view.DetailsError = detailsErr.View()
	view.ChartError = chartErr.View()
	return view, merged, nil
}

// -----------------------------------------------------------------------------
// Refresh
// -----------------------------------------------------------------------------

// RefreshTable drops the cached listing and global stats and reloads the
// listing for state.
func (s *Store) RefreshTable(ctx context.Context, state query.State) (models.MTableView, error) {
	if err := s.invalidate(ctx, append(coingecko.ListPrefixes(), coingecko.PathGlobal)...); err != nil {
		return models.MTableView{}, err
	}
	if state.Search() != "" {
		return s.Search(ctx, state), nil
	}
	return s.Table(ctx, state), nil
}

// -----------------------------------------------------------------------------

// RefreshDetail drops one coin's cached detail and chart and reloads both.
func (s *Store) RefreshDetail(ctx context.Context, id string, days int) (models.MDetailView, *classifier.Classification, error) {
	if err := s.invalidate(ctx, coingecko.DetailPrefixes(id)...); err != nil {
		return models.MDetailView{}, nil, err
	}
	return s.Detail(ctx, id, days)
}

// -----------------------------------------------------------------------------

// Invalidate drops the cached listing and global entries, and the detail
// entries of the given coins. Without ids every coin entry is dropped.
func (s *Store) Invalidate(ctx context.Context, coinIDs ...string) error {
	prefixes := append(coingecko.ListPrefixes(), coingecko.PathGlobal)
	if len(coinIDs) == 0 {
		prefixes = append(prefixes, coingecko.PathCoins)
	}
	for _, id := range coinIDs {
		prefixes = append(prefixes, coingecko.DetailPrefixes(id)...)
	}
	return s.invalidate(ctx, prefixes...)
}

func (s *Store) invalidate(ctx context.Context, prefixes ...string) error {
	if err := s.Client.Invalidate(ctx, prefixes...); err != nil {
		return s.Errors.Handle(err, "invalidate cache")
	}
	s.Logger.Debug("Invalidated %d cache prefixes", len(prefixes))
	return nil
}
