package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/money"
)

// ---------------------------------------------------------------------------
// Installment aggregate
// ---------------------------------------------------------------------------

// Installment is one EMI of a loan's schedule. It is immutable; ApplyPayment
// returns a new copy.
type Installment struct {
	dueDate       time.Time
	paymentDate   time.Time
	createdAt     time.Time
	updatedAt     time.Time
	amount        decimal.Decimal
	paidAmount    decimal.Decimal
	balance       decimal.Decimal
	penalty       decimal.Decimal
	id            string
	loanID        string
	receiptNumber string
	remarks       string
	paymentMode   valueobject.PaymentMode
	status        valueobject.InstallmentStatus
	domainEvents  []event.DomainEvent
	emiNo         int
	version       int
}

// Payment is one payment intent against an installment.
type Payment struct {
	Date          time.Time
	Amount        decimal.Decimal
	Mode          valueobject.PaymentMode
	Remarks       string
	ReceiptNumber string
}

// Validate checks the fields every payment needs.
func (p Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if p.Mode.IsZero() {
		return fmt.Errorf("%w: payment mode is required", ErrValidation)
	}
	if p.Date.IsZero() {
		return fmt.Errorf("%w: payment date is required", ErrValidation)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewInstallment creates a pending installment whose balance is its amount.
func NewInstallment(loanID string, emiNo int, dueDate time.Time, amount decimal.Decimal, now time.Time) Installment {
	return Installment{
		id:         uuid.New().String(),
		loanID:     loanID,
		emiNo:      emiNo,
		dueDate:    DateOf(dueDate),
		amount:     amount,
		paidAmount: decimal.Zero,
		balance:    amount,
		penalty:    decimal.Zero,
		status:     valueobject.InstallmentStatusPending,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}
}

// ReconstructInstallment rebuilds an Installment from persistence.
func ReconstructInstallment(
	id, loanID string,
	emiNo int,
	dueDate time.Time,
	amount, paidAmount, balance, penalty decimal.Decimal,
	paymentDate time.Time,
	paymentMode valueobject.PaymentMode,
	status valueobject.InstallmentStatus,
	receiptNumber, remarks string,
	version int,
	createdAt, updatedAt time.Time,
) Installment {
	return Installment{
		id:            id,
		loanID:        loanID,
		emiNo:         emiNo,
		dueDate:       dueDate,
		amount:        amount,
		paidAmount:    paidAmount,
		balance:       balance,
		penalty:       penalty,
		paymentDate:   paymentDate,
		paymentMode:   paymentMode,
		status:        status,
		receiptNumber: receiptNumber,
		remarks:       remarks,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// ApplyPayment records p against the installment.
//
// paidAmount is overwritten with p.Amount rather than accumulated, so a
// partial payment is corrected by resubmitting the full total. The amount may
// not exceed the scheduled amount plus currentPenalty. A receipt number is
// taken from p, or from fallbackReceipt when the installment becomes paid
// without one.
func (i Installment) ApplyPayment(p Payment, currentPenalty decimal.Decimal, fallbackReceipt string, now time.Time) (Installment, error) {
	if i.status.IsPaid() {
		return i, fmt.Errorf("%w: loan %s emi %d", ErrAlreadyPaid, i.loanID, i.emiNo)
	}
	if err := p.Validate(); err != nil {
		return i, err
	}
	ceiling := i.amount.Add(money.NonNegative(currentPenalty))
	if p.Amount.GreaterThan(ceiling) {
		return i, fmt.Errorf("%w: %s > %s", ErrAmountExceedsBalance, p.Amount, ceiling)
	}

	next := i
	next.paidAmount = p.Amount
	next.balance = money.NonNegative(i.amount.Sub(p.Amount))
	next.paymentDate = DateOf(p.Date)
	next.paymentMode = p.Mode
	next.remarks = p.Remarks
	next.version = i.version + 1
	next.updatedAt = now

	if p.Amount.GreaterThanOrEqual(i.amount) {
		next.status = valueobject.InstallmentStatusPaid
	} else {
		next.status = valueobject.InstallmentStatusPartial
	}

	switch {
	case p.ReceiptNumber != "":
		next.receiptNumber = p.ReceiptNumber
	case next.status.IsPaid() && next.receiptNumber == "":
		next.receiptNumber = fallbackReceipt
	}

	next.domainEvents = copyEvents(i.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewInstallmentPaymentApplied(
		i.loanID, i.emiNo, next.paidAmount, next.balance,
		next.status.String(), next.paymentMode.String(), next.receiptNumber,
		next.paymentDate, now,
	))
	if next.status.IsPaid() {
		next.domainEvents = append(next.domainEvents, event.NewInstallmentPaid(
			i.loanID, i.emiNo, next.paidAmount, next.receiptNumber, now,
		))
	}

	return next, nil
}

// WithPenalty stores a refreshed penalty figure. Status is untouched.
func (i Installment) WithPenalty(penalty decimal.Decimal, now time.Time) Installment {
	next := i
	next.penalty = penalty
	next.version = i.version + 1
	next.updatedAt = now
	return next
}

// ---------------------------------------------------------------------------
// Derived state
// ---------------------------------------------------------------------------

// IsOverdue reports whether a pending installment's due date has passed.
func (i Installment) IsOverdue(asOf time.Time) bool {
	return i.status.Equal(valueobject.InstallmentStatusPending) && i.dueDate.Before(DateOf(asOf))
}

// DaysOverdue returns the whole days past due as of asOf, or 0 when the
// installment is not overdue.
func (i Installment) DaysOverdue(asOf time.Time) int {
	if !i.IsOverdue(asOf) {
		return 0
	}
	return DaysOverdue(i.dueDate, asOf)
}

// CurrentPenalty derives the penalty owed as of asOf under s.
func (i Installment) CurrentPenalty(asOf time.Time, s PenaltySettings) decimal.Decimal {
	return CalculatePenalty(i.amount, i.DaysOverdue(asOf), s)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (i Installment) ID() string                            { return i.id }
func (i Installment) LoanID() string                        { return i.loanID }
func (i Installment) EmiNo() int                            { return i.emiNo }
func (i Installment) DueDate() time.Time                    { return i.dueDate }
func (i Installment) Amount() decimal.Decimal               { return i.amount }
func (i Installment) PaidAmount() decimal.Decimal           { return i.paidAmount }
func (i Installment) Balance() decimal.Decimal              { return i.balance }
func (i Installment) Penalty() decimal.Decimal              { return i.penalty }
func (i Installment) PaymentDate() time.Time                { return i.paymentDate }
func (i Installment) PaymentMode() valueobject.PaymentMode  { return i.paymentMode }
func (i Installment) Status() valueobject.InstallmentStatus { return i.status }
func (i Installment) ReceiptNumber() string                 { return i.receiptNumber }
func (i Installment) Remarks() string                       { return i.remarks }
func (i Installment) Version() int                          { return i.version }
func (i Installment) CreatedAt() time.Time                  { return i.createdAt }
func (i Installment) UpdatedAt() time.Time                  { return i.updatedAt }
func (i Installment) DomainEvents() []event.DomainEvent     { return i.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (i Installment) ClearEvents() Installment {
	next := i
	next.domainEvents = nil
	return next
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if src == nil {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}
