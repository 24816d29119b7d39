package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dates cross the API as YYYY-MM-DD strings.
const DateLayout = time.DateOnly

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CalculateEMIRequest carries the inputs of an EMI computation.
type CalculateEMIRequest struct {
	InterestModel string          `json:"interest_model"`
	Principal     decimal.Decimal `json:"principal"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Period        int             `json:"period"`
}

// GenerateScheduleRequest identifies the loan whose schedule is (re)built.
// With PreservePayments set, a schedule that already records a payment is
// kept as is.
type GenerateScheduleRequest struct {
	LoanID           string `json:"loan_id"`
	PreservePayments bool   `json:"preserve_payments,omitempty"`
}

// PaymentRecord is one payment intent. Amount and PaymentDate stay strings so
// a malformed value fails its own record rather than the whole request.
type PaymentRecord struct {
	LoanID        string `json:"loan_id"`
	Amount        string `json:"amount"`
	PaymentDate   string `json:"payment_date"`
	PaymentMode   string `json:"payment_mode"`
	Remarks       string `json:"remarks,omitempty"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
	EmiNo         int    `json:"emi_no"`
}

// BatchPaymentRequest carries many payment intents.
type BatchPaymentRequest struct {
	Records []PaymentRecord `json:"records"`
}

// GetScheduleRequest identifies a schedule to read. AsOf defaults to today.
type GetScheduleRequest struct {
	LoanID string `json:"loan_id"`
	AsOf   string `json:"as_of,omitempty"`
}

// CalculatePenaltyRequest computes a penalty either for a stored installment
// (LoanID and EmiNo set) or for a raw EMI amount and day count. PenaltyRate
// and PenaltyType override the configured policy when given.
type CalculatePenaltyRequest struct {
	LoanID      string `json:"loan_id,omitempty"`
	AsOf        string `json:"as_of,omitempty"`
	EMIAmount   string `json:"emi_amount,omitempty"`
	PenaltyRate string `json:"penalty_rate,omitempty"`
	PenaltyType string `json:"penalty_type,omitempty"`
	EmiNo       int    `json:"emi_no,omitempty"`
	DaysOverdue int    `json:"days_overdue,omitempty"`
}

// CountCollectionDaysRequest asks for a business-day breakdown of an inclusive
// date range. A nil ExcludeSaturdays uses the configured default.
type CountCollectionDaysRequest struct {
	ExcludeSaturdays *bool  `json:"exclude_saturdays,omitempty"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
}

// LoanDisbursedMessage is the loan service's disbursement notice.
type LoanDisbursedMessage struct {
	DisbursedDate time.Time       `json:"disbursed_date"`
	Principal     decimal.Decimal `json:"principal"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	EMIAmount     decimal.Decimal `json:"emi_amount"`
	LoanID        string          `json:"loan_id"`
	InterestModel string          `json:"interest_model,omitempty"`
	BorrowerName  string          `json:"borrower_name,omitempty"`
	BorrowerEmail string          `json:"borrower_email,omitempty"`
	Period        int             `json:"period"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// EMIResponse is the result of an EMI computation.
type EMIResponse struct {
	InterestModel string          `json:"interest_model"`
	EMI           decimal.Decimal `json:"emi"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalInterest decimal.Decimal `json:"total_interest"`
}

// InstallmentResponse is the external representation of an installment.
type InstallmentResponse struct {
	PaymentDate   *string         `json:"payment_date,omitempty"`
	LoanID        string          `json:"loan_id"`
	DueDate       string          `json:"due_date"`
	PaymentMode   string          `json:"payment_mode,omitempty"`
	Status        string          `json:"status"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	Remarks       string          `json:"remarks,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Penalty       decimal.Decimal `json:"penalty"`
	EmiNo         int             `json:"emi_no"`
	DaysOverdue   int             `json:"days_overdue"`
	Overdue       bool            `json:"overdue"`
}

// ScheduleSummaryResponse aggregates a schedule.
type ScheduleSummaryResponse struct {
	NextDueDate       string          `json:"next_due_date,omitempty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalPenalty      decimal.Decimal `json:"total_penalty"`
	TotalInstallments int             `json:"total_installments"`
	PaidCount         int             `json:"paid_count"`
	PartialCount      int             `json:"partial_count"`
	PendingCount      int             `json:"pending_count"`
	OverdueCount      int             `json:"overdue_count"`
}

// ScheduleResponse lists a loan's installments.
type ScheduleResponse struct {
	Summary      *ScheduleSummaryResponse `json:"summary,omitempty"`
	LoanID       string                   `json:"loan_id"`
	Installments []InstallmentResponse    `json:"installments"`
	// Preserved reports that an existing schedule with payments was kept.
	Preserved bool `json:"preserved,omitempty"`
}

// PaymentResponse is the outcome of a single applied payment.
type PaymentResponse struct {
	Installment   InstallmentResponse `json:"installment"`
	LoanCompleted bool                `json:"loan_completed"`
}

// BatchSuccess is a record that was applied.
type BatchSuccess struct {
	Record        PaymentRecord   `json:"record"`
	Status        string          `json:"status"`
	ReceiptNumber string          `json:"receipt_number"`
	Balance       decimal.Decimal `json:"balance"`
}

// BatchFailure is a record that was rejected, with its taxonomy reason.
type BatchFailure struct {
	Record  PaymentRecord `json:"record"`
	Reason  string        `json:"reason"`
	Message string        `json:"message"`
}

// BatchPaymentResponse reports per-record outcomes in input order.
type BatchPaymentResponse struct {
	Successes      []BatchSuccess `json:"successes"`
	Failures       []BatchFailure `json:"failures"`
	ProcessedCount int            `json:"processed_count"`
	FailedCount    int            `json:"failed_count"`
}

// PenaltyResponse is a computed penalty and the policy used.
type PenaltyResponse struct {
	LoanID      string          `json:"loan_id,omitempty"`
	PenaltyType string          `json:"penalty_type"`
	Penalty     decimal.Decimal `json:"penalty"`
	PenaltyRate decimal.Decimal `json:"penalty_rate"`
	EMIAmount   decimal.Decimal `json:"emi_amount"`
	EmiNo       int             `json:"emi_no,omitempty"`
	DaysOverdue int             `json:"days_overdue"`
}

// LeaveDayResponse is a leave day inside a counted range.
type LeaveDayResponse struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// CollectionDaysResponse is the business-day breakdown of a range.
type CollectionDaysResponse struct {
	LeaveDatesInRange []LeaveDayResponse `json:"leave_dates_in_range"`
	TotalDays         int                `json:"total_days"`
	SundaysCount      int                `json:"sundays_count"`
	SaturdaysCount    int                `json:"saturdays_count"`
	LeaveDaysCount    int                `json:"leave_days_count"`
	CollectionDays    int                `json:"collection_days"`
	ExcludeSaturdays  bool               `json:"exclude_saturdays"`
}

// OverdueSweepResult reports one overdue sweep run.
type OverdueSweepResult struct {
	Scanned  int `json:"scanned"`
	Updated  int `json:"updated"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}
