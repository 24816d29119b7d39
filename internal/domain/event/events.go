package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// Every repayment event is keyed by loan so that a loan's events stay ordered
// on one partition.
const aggregateLoanSchedule = "LoanSchedule"

const (
	TypeScheduleGenerated         = "repayment.schedule.generated"
	TypeInstallmentPaymentApplied = "repayment.installment.payment_applied"
	TypeInstallmentPaid           = "repayment.installment.paid"
	TypeAllInstallmentsSettled    = "repayment.loan.all_installments_settled"
	TypeInstallmentOverdue        = "repayment.installment.overdue"
)

// ---------------------------------------------------------------------------
// Schedule Events
// ---------------------------------------------------------------------------

// ScheduleGenerated is raised when a loan's schedule is created or replaced.
type ScheduleGenerated struct {
	FirstDueDate time.Time `json:"first_due_date"`
	LastDueDate  time.Time `json:"last_due_date"`
	events.BaseEvent
	EMIAmount    decimal.Decimal `json:"emi_amount"`
	Installments int             `json:"installments"`
}

func NewScheduleGenerated(
	loanID string, installments int, emi decimal.Decimal,
	firstDue, lastDue, now time.Time,
) ScheduleGenerated {
	return ScheduleGenerated{
		BaseEvent:    events.NewBaseEvent(TypeScheduleGenerated, loanID, aggregateLoanSchedule, now),
		Installments: installments,
		EMIAmount:    emi,
		FirstDueDate: firstDue,
		LastDueDate:  lastDue,
	}
}

// ---------------------------------------------------------------------------
// Installment Events
// ---------------------------------------------------------------------------

// InstallmentPaymentApplied is raised for every accepted payment, partial or full.
type InstallmentPaymentApplied struct {
	PaymentDate time.Time `json:"payment_date"`
	events.BaseEvent
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	PaymentMode   string          `json:"payment_mode"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	EmiNo         int             `json:"emi_no"`
}

func NewInstallmentPaymentApplied(
	loanID string, emiNo int,
	paid, balance decimal.Decimal,
	status, mode, receipt string,
	paymentDate, now time.Time,
) InstallmentPaymentApplied {
	return InstallmentPaymentApplied{
		BaseEvent:     events.NewBaseEvent(TypeInstallmentPaymentApplied, loanID, aggregateLoanSchedule, now),
		EmiNo:         emiNo,
		PaidAmount:    paid,
		Balance:       balance,
		Status:        status,
		PaymentMode:   mode,
		ReceiptNumber: receipt,
		PaymentDate:   paymentDate,
	}
}

// InstallmentPaid is raised when an installment reaches the paid state.
type InstallmentPaid struct {
	events.BaseEvent
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	ReceiptNumber string          `json:"receipt_number"`
	EmiNo         int             `json:"emi_no"`
}

func NewInstallmentPaid(loanID string, emiNo int, paid decimal.Decimal, receipt string, now time.Time) InstallmentPaid {
	return InstallmentPaid{
		BaseEvent:     events.NewBaseEvent(TypeInstallmentPaid, loanID, aggregateLoanSchedule, now),
		EmiNo:         emiNo,
		PaidAmount:    paid,
		ReceiptNumber: receipt,
	}
}

// InstallmentOverdue is raised by the overdue sweep when a penalty is refreshed.
type InstallmentOverdue struct {
	DueDate time.Time `json:"due_date"`
	events.BaseEvent
	Penalty     decimal.Decimal `json:"penalty"`
	EmiNo       int             `json:"emi_no"`
	DaysOverdue int             `json:"days_overdue"`
}

func NewInstallmentOverdue(loanID string, emiNo int, dueDate time.Time, days int, penalty decimal.Decimal, now time.Time) InstallmentOverdue {
	return InstallmentOverdue{
		BaseEvent:   events.NewBaseEvent(TypeInstallmentOverdue, loanID, aggregateLoanSchedule, now),
		EmiNo:       emiNo,
		DueDate:     dueDate,
		DaysOverdue: days,
		Penalty:     penalty,
	}
}

// ---------------------------------------------------------------------------
// Loan Events
// ---------------------------------------------------------------------------

// AllInstallmentsSettled tells the loan service that every installment of a
// loan is paid and the loan should move to completed.
type AllInstallmentsSettled struct {
	events.BaseEvent
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Installments int             `json:"installments"`
}

func NewAllInstallmentsSettled(loanID string, installments int, totalPaid decimal.Decimal, now time.Time) AllInstallmentsSettled {
	return AllInstallmentsSettled{
		BaseEvent:    events.NewBaseEvent(TypeAllInstallmentsSettled, loanID, aggregateLoanSchedule, now),
		Installments: installments,
		TotalPaid:    totalPaid,
	}
}
