package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/money"
)

var twelve = decimal.NewFromInt(12)

// EMIResult is the outcome of an EMI computation, in whole currency units.
type EMIResult struct {
	EMI           decimal.Decimal
	TotalAmount   decimal.Decimal
	TotalInterest decimal.Decimal
}

// CalculateEMI dispatches on the interest model.
func CalculateEMI(m valueobject.InterestModel, principal, rate decimal.Decimal, period int) (EMIResult, error) {
	if m.Equal(valueobject.InterestModelReducing) {
		return CalculateReducingEMI(principal, rate, period)
	}
	return CalculateFlatEMI(principal, rate, period)
}

// CalculateFlatEMI applies simple interest: rate is a percentage charged on the
// full principal once per period.
//
//	totalInterest = principal × rate/100 × period
//	emi           = round((principal + totalInterest) / period)
func CalculateFlatEMI(principal, rate decimal.Decimal, period int) (EMIResult, error) {
	if err := validateEMIInput(principal, rate, period); err != nil {
		return EMIResult{}, err
	}

	n := decimal.NewFromInt(int64(period))
	interest := money.Round(money.Percent(principal, rate).Mul(n))
	total := money.Round(principal).Add(interest)

	return EMIResult{
		EMI:           money.Round(total.Div(n)),
		TotalAmount:   total,
		TotalInterest: interest,
	}, nil
}

// CalculateReducingEMI applies the annuity formula on a monthly rate derived
// from an annual percentage:
//
//	r   = rate/100/12
//	emi = round(P × r × (1+r)^n / ((1+r)^n − 1))
//
// A zero rate degenerates to an even split of the principal.
func CalculateReducingEMI(principal, rate decimal.Decimal, period int) (EMIResult, error) {
	if err := validateEMIInput(principal, rate, period); err != nil {
		return EMIResult{}, err
	}

	n := decimal.NewFromInt(int64(period))

	var emi decimal.Decimal
	if rate.IsZero() {
		emi = money.Round(principal.Div(n))
	} else {
		r := money.Percent(decimal.NewFromInt(1), rate).Div(twelve)
		factor := decimal.NewFromInt(1).Add(r).Pow(n)
		emi = money.Round(principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1))))
	}

	total := emi.Mul(n)
	return EMIResult{
		EMI:           emi,
		TotalAmount:   total,
		TotalInterest: total.Sub(money.Round(principal)),
	}, nil
}

func validateEMIInput(principal, rate decimal.Decimal, period int) error {
	if period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %d", ErrValidation, period)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: interest rate must not be negative", ErrValidation)
	}
	if !principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive", ErrValidation)
	}
	return nil
}
