package lock

import (
	"context"
	"sync"

	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

var _ port.LoanLocker = (*MemoryLocker)(nil)

// MemoryLocker serialises per loan within one process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*loanLock
}

type loanLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker returns an empty locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*loanLock)}
}

// WithLoanLock runs fn while holding loanID's lock. Waiting stops with the
// context's error if ctx ends first.
func (m *MemoryLocker) WithLoanLock(ctx context.Context, loanID string, fn func(ctx context.Context) error) error {
	l := m.acquireRef(loanID)
	defer m.releaseRef(loanID, l)

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.ch }()

	return fn(ctx)
}

func (m *MemoryLocker) acquireRef(loanID string) *loanLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[loanID]
	if !ok {
		l = &loanLock{ch: make(chan struct{}, 1)}
		m.locks[loanID] = l
	}
	l.refs++
	return l
}

// releaseRef drops idle entries so the map does not grow with every loan seen.
func (m *MemoryLocker) releaseRef(loanID string, l *loanLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, loanID)
	}
}

func (m *MemoryLocker) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
