package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Loan (read model of the loan service's aggregate)
// ---------------------------------------------------------------------------

// Loan carries the loan fields the repayment engine reads. It is immutable;
// the only transition the engine may request is MarkCompleted.
type Loan struct {
	disbursedDate time.Time
	updatedAt     time.Time
	principal     decimal.Decimal
	interestRate  decimal.Decimal
	emiAmount     decimal.Decimal
	id            string
	borrowerName  string
	borrowerEmail string
	interestModel valueobject.InterestModel
	status        valueobject.LoanStatus
	period        int
	version       int
}

// NewLoan registers a loan announced by the loan service. When emiAmount is
// zero it is derived from principal, rate and period under the interest model.
func NewLoan(
	id string,
	principal, interestRate decimal.Decimal,
	period int,
	emiAmount decimal.Decimal,
	model valueobject.InterestModel,
	disbursedDate time.Time,
	status valueobject.LoanStatus,
	borrowerName, borrowerEmail string,
	now time.Time,
) (Loan, error) {
	if id == "" {
		return Loan{}, fmt.Errorf("%w: loan ID is required", ErrValidation)
	}
	if status.IsZero() {
		return Loan{}, fmt.Errorf("%w: loan status is required", ErrValidation)
	}
	if emiAmount.IsZero() {
		res, err := CalculateEMI(model, principal, interestRate, period)
		if err != nil {
			return Loan{}, err
		}
		emiAmount = res.EMI
	}

	return Loan{
		id:            id,
		principal:     principal,
		interestRate:  interestRate,
		period:        period,
		emiAmount:     emiAmount,
		interestModel: model,
		disbursedDate: disbursedDate,
		status:        status,
		borrowerName:  borrowerName,
		borrowerEmail: borrowerEmail,
		version:       1,
		updatedAt:     now,
	}, nil
}

// ReconstructLoan rebuilds a Loan from persistence.
func ReconstructLoan(
	id string,
	principal, interestRate decimal.Decimal,
	period int,
	emiAmount decimal.Decimal,
	model valueobject.InterestModel,
	disbursedDate time.Time,
	status valueobject.LoanStatus,
	borrowerName, borrowerEmail string,
	version int,
	updatedAt time.Time,
) Loan {
	return Loan{
		id:            id,
		principal:     principal,
		interestRate:  interestRate,
		period:        period,
		emiAmount:     emiAmount,
		interestModel: model,
		disbursedDate: disbursedDate,
		status:        status,
		borrowerName:  borrowerName,
		borrowerEmail: borrowerEmail,
		version:       version,
		updatedAt:     updatedAt,
	}
}

// MarkCompleted moves a disbursed or active loan to completed.
func (l Loan) MarkCompleted(now time.Time) (Loan, error) {
	if !l.status.CanComplete() {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l
	next.status = valueobject.LoanStatusCompleted
	next.version = l.version + 1
	next.updatedAt = now
	return next, nil
}

// ReadyForSchedule reports whether the loan has an approved amount and a
// disbursement date.
func (l Loan) ReadyForSchedule() bool {
	return l.principal.IsPositive() && !l.disbursedDate.IsZero()
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                               { return l.id }
func (l Loan) Principal() decimal.Decimal               { return l.principal }
func (l Loan) InterestRate() decimal.Decimal            { return l.interestRate }
func (l Loan) Period() int                              { return l.period }
func (l Loan) EMIAmount() decimal.Decimal               { return l.emiAmount }
func (l Loan) InterestModel() valueobject.InterestModel { return l.interestModel }
func (l Loan) DisbursedDate() time.Time                 { return l.disbursedDate }
func (l Loan) Status() valueobject.LoanStatus           { return l.status }
func (l Loan) BorrowerName() string                     { return l.borrowerName }
func (l Loan) BorrowerEmail() string                    { return l.borrowerEmail }
func (l Loan) Version() int                             { return l.version }
func (l Loan) UpdatedAt() time.Time                     { return l.updatedAt }
