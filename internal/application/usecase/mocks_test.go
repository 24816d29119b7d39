package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/application/usecase"
	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

// --- Mock implementations ---

type mockInstallmentRepository struct {
	mu              sync.Mutex
	store           map[string]map[int]model.Installment
	findFunc        func(ctx context.Context, loanID string, emiNo int) (model.Installment, error)
	listFunc        func(ctx context.Context, loanID string) ([]model.Installment, error)
	updateFunc      func(ctx context.Context, inst model.Installment) error
	replaceFunc     func(ctx context.Context, s model.Schedule) error
	listOverdueFunc func(ctx context.Context, asOf time.Time, limit int) ([]model.Installment, error)
	updated         []model.Installment
	replaced        []model.Schedule
}

func newMockInstallmentRepository(insts ...model.Installment) *mockInstallmentRepository {
	m := &mockInstallmentRepository{store: make(map[string]map[int]model.Installment)}
	for _, inst := range insts {
		m.put(inst)
	}
	return m
}

func (m *mockInstallmentRepository) put(inst model.Installment) {
	if m.store[inst.LoanID()] == nil {
		m.store[inst.LoanID()] = make(map[int]model.Installment)
	}
	m.store[inst.LoanID()][inst.EmiNo()] = inst.ClearEvents()
}

func (m *mockInstallmentRepository) get(loanID string, emiNo int) model.Installment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[loanID][emiNo]
}

func (m *mockInstallmentRepository) FindByLoanAndEmiNo(ctx context.Context, loanID string, emiNo int) (model.Installment, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, loanID, emiNo)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.store[loanID][emiNo]
	if !ok {
		return model.Installment{}, fmt.Errorf("installment %s/%d: %w", loanID, emiNo, model.ErrNotFound)
	}
	return inst, nil
}

func (m *mockInstallmentRepository) ListByLoan(ctx context.Context, loanID string) ([]model.Installment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, loanID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Installment, 0, len(m.store[loanID]))
	for _, inst := range m.store[loanID] {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmiNo() < out[j].EmiNo() })
	return out, nil
}

func (m *mockInstallmentRepository) ReplaceSchedule(ctx context.Context, s model.Schedule) error {
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, s.LoanID())
	for _, inst := range s.Installments() {
		m.put(inst)
	}
	m.replaced = append(m.replaced, s)
	return nil
}

func (m *mockInstallmentRepository) Update(ctx context.Context, inst model.Installment) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, inst)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(inst)
	m.updated = append(m.updated, inst)
	return nil
}

func (m *mockInstallmentRepository) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Installment, error) {
	if m.listOverdueFunc != nil {
		return m.listOverdueFunc(ctx, asOf, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Installment
	for _, byEmi := range m.store {
		for _, inst := range byEmi {
			if inst.IsOverdue(asOf) {
				out = append(out, inst)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LoanID() != out[j].LoanID() {
			return out[i].LoanID() < out[j].LoanID()
		}
		return out[i].EmiNo() < out[j].EmiNo()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockLoanRepository struct {
	mu           sync.Mutex
	loans        map[string]model.Loan
	findByIDFunc func(ctx context.Context, id string) (model.Loan, error)
	saveFunc     func(ctx context.Context, loan model.Loan) error
	savedLoans   []model.Loan
}

func newMockLoanRepository(loans ...model.Loan) *mockLoanRepository {
	m := &mockLoanRepository{loans: make(map[string]model.Loan)}
	for _, l := range loans {
		m.loans[l.ID()] = l
	}
	return m
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id string) (model.Loan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrNotFound)
	}
	return l, nil
}

func (m *mockLoanRepository) Save(ctx context.Context, loan model.Loan) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID()] = loan
	m.savedLoans = append(m.savedLoans, loan)
	return nil
}

type mockPenaltySettingsProvider struct {
	currentFunc func(ctx context.Context, asOf time.Time) (model.PenaltySettings, error)
}

func (m *mockPenaltySettingsProvider) Current(ctx context.Context, asOf time.Time) (model.PenaltySettings, error) {
	if m.currentFunc != nil {
		return m.currentFunc(ctx, asOf)
	}
	return model.PenaltySettings{}, fmt.Errorf("penalty settings: %w", model.ErrNotFound)
}

type mockLeaveDayProvider struct {
	listFunc func(ctx context.Context, start, end time.Time) ([]model.LeaveDay, error)
}

func (m *mockLeaveDayProvider) ListBetween(ctx context.Context, start, end time.Time) ([]model.LeaveDay, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, start, end)
	}
	return nil, nil
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) ofType(t string) []event.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.DomainEvent
	for _, e := range m.publishedEvents {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

type mockNotifier struct {
	mu         sync.Mutex
	notifyFunc func(ctx context.Context, n port.Notification) error
	sent       []port.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, n port.Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, n)
	}
	return nil
}

func (m *mockNotifier) kinds() []port.NotificationKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]port.NotificationKind, 0, len(m.sent))
	for _, n := range m.sent {
		out = append(out, n.Kind)
	}
	return out
}

// mockLoanLocker serialises per loan like the real lockers and counts calls.
type mockLoanLocker struct {
	locks sync.Map
	mu    sync.Mutex
	calls map[string]int
}

func (m *mockLoanLocker) WithLoanLock(ctx context.Context, loanID string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[loanID]++
	m.mu.Unlock()

	l, _ := m.locks.LoadOrStore(loanID, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return fn(ctx)
}

type sequentialReceipts struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialReceipts) Next(_ time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("RCP-%03d", s.n)
}

type mockRecorder struct {
	mu        sync.Mutex
	applied   []string
	rejected  []string
	completed int
	batches   [][2]int
}

func (m *mockRecorder) PaymentApplied(_ context.Context, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, status)
}

func (m *mockRecorder) PaymentRejected(_ context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, reason)
}

func (m *mockRecorder) LoanCompleted(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
}

func (m *mockRecorder) BatchProcessed(_ context.Context, processed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, [2]int{processed, failed})
}

func (m *mockRecorder) OverdueSwept(context.Context, int, int) {}

var _ usecase.SettlementRecorder = (*mockRecorder)(nil)

// --- Fixtures ---

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLoan(id string, period int, disbursed time.Time) model.Loan {
	return model.ReconstructLoan(
		id, dec("100000"), dec("2"), period, dec("12000"),
		valueobject.InterestModelFlat, disbursed, valueobject.LoanStatusDisbursed,
		"Asha Devi", "asha@example.com", 1, disbursed,
	)
}

// testSchedule builds period pending installments of 12000 for loanID.
func testSchedule(loanID string, period int, disbursed time.Time) []model.Installment {
	out := make([]model.Installment, 0, period)
	for i := 1; i <= period; i++ {
		out = append(out, model.NewInstallment(loanID, i, model.AddMonthsClamped(disbursed, i), dec("12000"), disbursed))
	}
	return out
}

type settlementFixture struct {
	installments *mockInstallmentRepository
	loans        *mockLoanRepository
	penalties    *mockPenaltySettingsProvider
	locker       *mockLoanLocker
	publisher    *mockEventPublisher
	notifier     *mockNotifier
	receipts     *sequentialReceipts
	recorder     *mockRecorder
}

func newSettlementFixture(loans []model.Loan, insts []model.Installment) *settlementFixture {
	return &settlementFixture{
		installments: newMockInstallmentRepository(insts...),
		loans:        newMockLoanRepository(loans...),
		penalties:    &mockPenaltySettingsProvider{},
		locker:       &mockLoanLocker{},
		publisher:    &mockEventPublisher{},
		notifier:     &mockNotifier{},
		receipts:     &sequentialReceipts{},
		recorder:     &mockRecorder{},
	}
}

func (f *settlementFixture) deps() usecase.SettlementDeps {
	return usecase.SettlementDeps{
		Installments: f.installments,
		Loans:        f.loans,
		Penalties:    f.penalties,
		Locker:       f.locker,
		Publisher:    f.publisher,
		Notifier:     f.notifier,
		Receipts:     f.receipts,
		Metrics:      f.recorder,
	}
}
