package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

func TestNewInstallmentStatus(t *testing.T) {
	for _, raw := range []string{"pending", "partial", "paid"} {
		s, err := valueobject.NewInstallmentStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, s.String())
	}

	_, err := valueobject.NewInstallmentStatus("overdue")
	assert.Error(t, err, "overdue is derived, never stored")

	assert.True(t, valueobject.InstallmentStatusPaid.IsPaid())
	assert.False(t, valueobject.InstallmentStatusPartial.IsPaid())
	assert.True(t, valueobject.InstallmentStatus{}.IsZero())
}

func TestNewPaymentMode(t *testing.T) {
	m, err := valueobject.NewPaymentMode("cheque")
	require.NoError(t, err)
	assert.True(t, m.Equal(valueobject.PaymentModeCheque))

	_, err = valueobject.NewPaymentMode("upi")
	assert.Error(t, err)
	_, err = valueobject.NewPaymentMode("")
	assert.Error(t, err)
}

func TestParsePenaltyType(t *testing.T) {
	p, ok := valueobject.ParsePenaltyType("per_week")
	assert.True(t, ok)
	assert.True(t, p.Equal(valueobject.PenaltyTypePerWeek))

	p, ok = valueobject.ParsePenaltyType("per_fortnight")
	assert.False(t, ok)
	assert.True(t, p.Equal(valueobject.PenaltyTypePerDay))

	p, ok = valueobject.ParsePenaltyType("")
	assert.False(t, ok)
	assert.True(t, p.Equal(valueobject.PenaltyTypePerDay))
}

func TestLoanStatus_CanComplete(t *testing.T) {
	assert.True(t, valueobject.LoanStatusDisbursed.CanComplete())
	assert.True(t, valueobject.LoanStatusActive.CanComplete())
	assert.False(t, valueobject.LoanStatusCompleted.CanComplete())
	assert.False(t, valueobject.LoanStatusPending.CanComplete())

	_, err := valueobject.NewLoanStatus("PAID_OFF")
	assert.Error(t, err)
}

func TestNewInterestModel(t *testing.T) {
	m, err := valueobject.NewInterestModel("")
	require.NoError(t, err)
	assert.True(t, m.Equal(valueobject.InterestModelFlat))

	m, err = valueobject.NewInterestModel("reducing")
	require.NoError(t, err)
	assert.Equal(t, "reducing", m.String())

	_, err = valueobject.NewInterestModel("compound")
	assert.Error(t, err)
}
