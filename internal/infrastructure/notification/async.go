package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

var _ port.Notifier = (*Async)(nil)

// ErrQueueFull is returned when a notification is dropped.
var ErrQueueFull = errors.New("notification queue full")

// Async delivers notifications on background workers so a slow mail server
// never holds a loan lock or a batch.
type Async struct {
	next    port.Notifier
	queue   chan port.Notification
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

// NewAsync starts workers goroutines draining a queue of size buffer.
func NewAsync(next port.Notifier, workers, buffer int, timeout time.Duration, logger *slog.Logger) *Async {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	a := &Async{
		next:    next,
		queue:   make(chan port.Notification, buffer),
		timeout: timeout,
		logger:  logger,
	}
	a.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go a.work()
	}
	return a
}

// Notify enqueues n without blocking.
func (a *Async) Notify(_ context.Context, n port.Notification) error {
	select {
	case a.queue <- n:
		return nil
	default:
		a.logger.Warn("dropping notification", "kind", n.Kind, "loan_id", n.LoanID, "error", ErrQueueFull)
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued notifications to go out.
func (a *Async) Close() {
	a.once.Do(func() { close(a.queue) })
	a.wg.Wait()
}

func (a *Async) work() {
	defer a.wg.Done()
	for n := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Notify(ctx, n); err != nil {
			a.logger.Warn("notification failed", "kind", n.Kind, "loan_id", n.LoanID, "error", err)
		}
		cancel()
	}
}
