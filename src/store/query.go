package store

import (
	"context"
	"sync"
	"time"

	"coin-dashboard/src/classifier"
	"coin-dashboard/src/models"
)

// Snapshot is a point-in-time copy of a query's state. Data and HasData
// survive a failed refetch so the last good result stays on screen.
type Snapshot[T any] struct {
	Status    models.QueryStatus
	Data      T
	HasData   bool
	Err       *classifier.Classification
	UpdatedAt time.Time
}

// -----------------------------------------------------------------------------

// Query runs one fetch and tracks it through idle, loading, success and error.
type Query[T any] struct {
	Name string

	mu    sync.RWMutex
	state Snapshot[T]
	fetch func(ctx context.Context) (T, error)
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func NewQuery[T any](name string, fetch func(ctx context.Context) (T, error)) *Query[T] {
	return &Query[T]{
		Name:  name,
		state: Snapshot[T]{Status: models.StatusIdle},
		fetch: fetch,
		now:   time.Now,
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns the current state without fetching.
func (q *Query[T]) Snapshot() Snapshot[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state
}

// -----------------------------------------------------------------------------

// Run moves the query to loading, fetches, and settles it. The returned
// error is the raw fetch error, already classified into the snapshot.
func (q *Query[T]) Run(ctx context.Context) (Snapshot[T], error) {
	q.mu.Lock()
	q.state.Status = models.StatusLoading
	q.mu.Unlock()

	data, err := q.fetch(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		q.state.Status = models.StatusError
		q.state.Err = classifier.Classify(err)
		return q.state, err
	}
	q.state = Snapshot[T]{
		Status:    models.StatusSuccess,
		Data:      data,
		HasData:   true,
		UpdatedAt: q.now(),
	}
	return q.state, nil
}
