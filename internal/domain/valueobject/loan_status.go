package valueobject

import "fmt"

// LoanStatus is the lifecycle stage of a loan as owned by the loan service.
// The repayment engine only ever requests the move to completed.
type LoanStatus struct {
	value string
}

const (
	loanStatusPending   = "pending"
	loanStatusApproved  = "approved"
	loanStatusRejected  = "rejected"
	loanStatusDisbursed = "disbursed"
	loanStatusActive    = "active"
	loanStatusCompleted = "completed"
)

var (
	LoanStatusPending   = LoanStatus{value: loanStatusPending}
	LoanStatusApproved  = LoanStatus{value: loanStatusApproved}
	LoanStatusRejected  = LoanStatus{value: loanStatusRejected}
	LoanStatusDisbursed = LoanStatus{value: loanStatusDisbursed}
	LoanStatusActive    = LoanStatus{value: loanStatusActive}
	LoanStatusCompleted = LoanStatus{value: loanStatusCompleted}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusPending:   LoanStatusPending,
	loanStatusApproved:  LoanStatusApproved,
	loanStatusRejected:  LoanStatusRejected,
	loanStatusDisbursed: LoanStatusDisbursed,
	loanStatusActive:    LoanStatusActive,
	loanStatusCompleted: LoanStatusCompleted,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// CanComplete reports whether a loan in this status may move to completed.
func (s LoanStatus) CanComplete() bool {
	return s.value == loanStatusDisbursed || s.value == loanStatusActive
}
