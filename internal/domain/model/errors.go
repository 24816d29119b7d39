package model

import "errors"

// Error taxonomy of the repayment engine. Callers wrap these with context and
// match them with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrNotReady             = errors.New("loan not ready for scheduling")
	ErrAlreadyPaid          = errors.New("installment already paid")
	ErrAmountExceedsBalance = errors.New("amount exceeds balance plus penalty")
	ErrInvalidRange         = errors.New("end date before start date")
	ErrConfiguration        = errors.New("invalid configuration")
)

var reasons = []struct {
	err  error
	name string
}{
	{ErrValidation, "ValidationError"},
	{ErrNotFound, "NotFoundError"},
	{ErrNotReady, "NotReadyError"},
	{ErrAlreadyPaid, "AlreadyPaidError"},
	{ErrAmountExceedsBalance, "AmountExceedsBalanceError"},
	{ErrInvalidRange, "InvalidRangeError"},
	{ErrConfiguration, "ConfigurationError"},
}

// ReasonOf returns the taxonomy name of err, or "InternalError" when err does
// not wrap one of the engine's sentinels.
func ReasonOf(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "InternalError"
}
