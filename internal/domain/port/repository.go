package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// InstallmentRepository persists installments. Lookups that find nothing
// return an error wrapping model.ErrNotFound.
type InstallmentRepository interface {
	FindByLoanAndEmiNo(ctx context.Context, loanID string, emiNo int) (model.Installment, error)
	// ListByLoan returns the loan's installments ordered by emi number.
	ListByLoan(ctx context.Context, loanID string) ([]model.Installment, error)
	// ReplaceSchedule deletes every installment of the schedule's loan and
	// inserts the new ones in a single transaction.
	ReplaceSchedule(ctx context.Context, schedule model.Schedule) error
	Update(ctx context.Context, inst model.Installment) error
	// ListOverdue returns pending installments due before asOf.
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Installment, error)
}

// LoanRepository is the engine's view of the loan service's loans.
type LoanRepository interface {
	FindByID(ctx context.Context, id string) (model.Loan, error)
	Save(ctx context.Context, loan model.Loan) error
}

// ---------------------------------------------------------------------------
// Configuration providers
// ---------------------------------------------------------------------------

// PenaltySettingsProvider returns the policy in force at asOf, or an error
// wrapping model.ErrNotFound when none is configured.
type PenaltySettingsProvider interface {
	Current(ctx context.Context, asOf time.Time) (model.PenaltySettings, error)
}

// LeaveDayProvider lists configured leave days within [start, end].
type LeaveDayProvider interface {
	ListBetween(ctx context.Context, start, end time.Time) ([]model.LeaveDay, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Coordination
// ---------------------------------------------------------------------------

// LoanLocker serialises work scoped to a single loan. fn runs while the lock
// is held; different loans never block each other.
type LoanLocker interface {
	WithLoanLock(ctx context.Context, loanID string, fn func(ctx context.Context) error) error
}

// ReceiptNumberGenerator issues receipt numbers.
type ReceiptNumberGenerator interface {
	Next(now time.Time) string
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

// NotificationKind identifies the message template.
type NotificationKind string

const (
	NotificationInstallmentPaid NotificationKind = "installment_paid"
	NotificationOverdue         NotificationKind = "installment_overdue"
	NotificationLoanCompleted   NotificationKind = "loan_completed"
)

// Notification is a message request to a borrower.
type Notification struct {
	DueDate       time.Time
	Amount        decimal.Decimal
	Penalty       decimal.Decimal
	Kind          NotificationKind
	LoanID        string
	RecipientName string
	Recipient     string
	ReceiptNumber string
	EmiNo         int
	DaysOverdue   int
}

// Notifier delivers a notification. Callers never act on its result beyond
// logging.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
