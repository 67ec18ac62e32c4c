package query

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a search is issued.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays submissions until input settles. Each submission gets a
// new token and supersedes the previous one; work carrying an old token
// must discard its result.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	current uint64
	timer   *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Submit schedules fn after the quiet period and returns its token. A
// pending earlier submission is cancelled.
func (d *Debouncer) Submit(fn func(token uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.current++
	token := d.current
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { fn(token) })
	return token
}

// IsCurrent reports whether token belongs to the latest submission.
func (d *Debouncer) IsCurrent(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return token == d.current
}

// Stop cancels any pending submission and invalidates outstanding tokens.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
