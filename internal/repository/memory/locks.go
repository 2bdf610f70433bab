package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
)

// rowLocks hands out exclusive locks keyed by row. A waiter gives up after
// the timeout with domain.ErrBusy.
type rowLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func newRowLocks() *rowLocks {
	return &rowLocks{held: make(map[string]chan struct{})}
}

func (l *rowLocks) acquire(ctx context.Context, key string, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		l.mu.Lock()
		released, taken := l.held[key]
		if !taken {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-expired:
			return fmt.Errorf("lock %s: %w", key, domain.ErrBusy)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *rowLocks) release(key string) {
	l.mu.Lock()
	ch, ok := l.held[key]
	delete(l.held, key)
	l.mu.Unlock()
	if ok {
		close(ch)
	}
}

func flightKey(id int64) string  { return fmt.Sprintf("flight:%d", id) }
func seatKey(id int64) string    { return fmt.Sprintf("seat:%d", id) }
func bookingKey(id int64) string { return fmt.Sprintf("booking:%d", id) }
