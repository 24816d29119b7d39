package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/money"
)

// ---------------------------------------------------------------------------
// Schedule aggregate
// ---------------------------------------------------------------------------

// Schedule is the ordered set of installments of one loan.
type Schedule struct {
	loanID       string
	installments []Installment
	domainEvents []event.DomainEvent
}

// GenerateSchedule builds installments 1..period for a disbursed loan. Due
// dates are the disbursement date plus i calendar months, clamped to the end
// of shorter months.
func GenerateSchedule(loan Loan, now time.Time) (Schedule, error) {
	if !loan.ReadyForSchedule() {
		return Schedule{}, fmt.Errorf("%w: loan %s has no approved amount or disbursement date", ErrNotReady, loan.ID())
	}
	if loan.Period() <= 0 {
		return Schedule{}, fmt.Errorf("%w: period must be positive, got %d", ErrValidation, loan.Period())
	}
	if !loan.EMIAmount().IsPositive() {
		return Schedule{}, fmt.Errorf("%w: loan %s has no EMI amount", ErrNotReady, loan.ID())
	}

	installments := make([]Installment, 0, loan.Period())
	for i := 1; i <= loan.Period(); i++ {
		due := AddMonthsClamped(loan.DisbursedDate(), i)
		installments = append(installments, NewInstallment(loan.ID(), i, due, loan.EMIAmount(), now))
	}

	s := Schedule{loanID: loan.ID(), installments: installments}
	s.domainEvents = append(s.domainEvents, event.NewScheduleGenerated(
		loan.ID(), len(installments), loan.EMIAmount(),
		installments[0].DueDate(), installments[len(installments)-1].DueDate(), now,
	))
	return s, nil
}

// ReconstructSchedule rebuilds a Schedule from stored installments ordered by
// emi number.
func ReconstructSchedule(loanID string, installments []Installment) Schedule {
	return Schedule{loanID: loanID, installments: installments}
}

// AllPaid reports whether the schedule is non-empty and every installment is
// paid.
func (s Schedule) AllPaid() bool {
	if len(s.installments) == 0 {
		return false
	}
	for _, inst := range s.installments {
		if !inst.Status().IsPaid() {
			return false
		}
	}
	return true
}

// Settle returns an AllInstallmentsSettled event when every installment is
// paid, or nil otherwise.
func (s Schedule) Settle(now time.Time) event.DomainEvent {
	if !s.AllPaid() {
		return nil
	}
	paid := make([]decimal.Decimal, len(s.installments))
	for i, inst := range s.installments {
		paid[i] = inst.PaidAmount()
	}
	return event.NewAllInstallmentsSettled(s.loanID, len(s.installments), money.Sum(paid...), now)
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// ScheduleSummary aggregates a schedule as of a given date.
type ScheduleSummary struct {
	NextDueDate       time.Time
	TotalAmount       decimal.Decimal
	TotalPaid         decimal.Decimal
	TotalBalance      decimal.Decimal
	TotalPenalty      decimal.Decimal
	TotalInstallments int
	PaidCount         int
	PartialCount      int
	PendingCount      int
	OverdueCount      int
}

// Summarize counts and sums the schedule as of asOf. Penalties are derived
// from s rather than read from the stored column.
func (s Schedule) Summarize(asOf time.Time, settings PenaltySettings) ScheduleSummary {
	sum := ScheduleSummary{
		TotalInstallments: len(s.installments),
		TotalAmount:       decimal.Zero,
		TotalPaid:         decimal.Zero,
		TotalBalance:      decimal.Zero,
		TotalPenalty:      decimal.Zero,
	}

	for _, inst := range s.installments {
		sum.TotalAmount = sum.TotalAmount.Add(inst.Amount())
		sum.TotalPaid = sum.TotalPaid.Add(inst.PaidAmount())
		sum.TotalBalance = sum.TotalBalance.Add(inst.Balance())
		sum.TotalPenalty = sum.TotalPenalty.Add(inst.CurrentPenalty(asOf, settings))

		switch {
		case inst.Status().IsPaid():
			sum.PaidCount++
			continue
		case inst.Status().Equal(valueobject.InstallmentStatusPartial):
			sum.PartialCount++
		default:
			sum.PendingCount++
		}
		if inst.IsOverdue(asOf) {
			sum.OverdueCount++
		}
		if sum.NextDueDate.IsZero() {
			sum.NextDueDate = inst.DueDate()
		}
	}

	return sum
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (s Schedule) LoanID() string                    { return s.loanID }
func (s Schedule) Len() int                          { return len(s.installments) }
func (s Schedule) DomainEvents() []event.DomainEvent { return s.domainEvents }

// Installments returns a defensive copy of the installments.
func (s Schedule) Installments() []Installment {
	if s.installments == nil {
		return nil
	}
	out := make([]Installment, len(s.installments))
	copy(out, s.installments)
	return out
}
