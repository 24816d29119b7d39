package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/money"
)

// DefaultPenaltyRate is the percentage applied when no settings are configured.
var DefaultPenaltyRate = decimal.NewFromInt(2)

// PenaltySettings is the late-payment policy in force from EffectiveFrom.
type PenaltySettings struct {
	EffectiveFrom time.Time
	Rate          decimal.Decimal
	Type          valueobject.PenaltyType
}

// DefaultPenaltySettings returns the 2% per-day policy.
func DefaultPenaltySettings() PenaltySettings {
	return PenaltySettings{
		Rate: DefaultPenaltyRate,
		Type: valueobject.PenaltyTypePerDay,
	}
}

// NewPenaltySettings validates raw policy values. A negative rate or an
// unknown type yields ErrConfiguration; callers fall back to
// DefaultPenaltySettings.
func NewPenaltySettings(rate decimal.Decimal, rawType string, effectiveFrom time.Time) (PenaltySettings, error) {
	if rate.IsNegative() {
		return PenaltySettings{}, fmt.Errorf("%w: penalty rate must not be negative", ErrConfiguration)
	}
	pt, ok := valueobject.ParsePenaltyType(rawType)
	if !ok {
		return PenaltySettings{}, fmt.Errorf("%w: unknown penalty type %q", ErrConfiguration, rawType)
	}
	return PenaltySettings{Rate: rate, Type: pt, EffectiveFrom: effectiveFrom}, nil
}

// CalculatePenalty returns the surcharge owed on an installment of emiAmount
// that is daysOverdue days late. Nothing is owed when daysOverdue <= 0. An
// unset policy type is treated as per_day.
func CalculatePenalty(emiAmount decimal.Decimal, daysOverdue int, s PenaltySettings) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}

	base := money.Percent(emiAmount, s.Rate)

	switch {
	case s.Type.Equal(valueobject.PenaltyTypeFixedTotal):
		return money.Round(base)
	case s.Type.Equal(valueobject.PenaltyTypePerWeek):
		weeks := (daysOverdue + 6) / 7
		return money.Round(base.Mul(decimal.NewFromInt(int64(weeks))))
	default:
		return money.Round(base.Mul(decimal.NewFromInt(int64(daysOverdue))))
	}
}

// DaysOverdue counts whole days from dueDate to asOf, never negative.
func DaysOverdue(dueDate, asOf time.Time) int {
	d := DaysBetween(dueDate, asOf)
	if d < 0 {
		return 0
	}
	return d
}
