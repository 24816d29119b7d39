package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

func settings(rate string, pt valueobject.PenaltyType) model.PenaltySettings {
	return model.PenaltySettings{Rate: dec(rate), Type: pt}
}

func TestCalculatePenalty(t *testing.T) {
	emi := dec("12000")

	tests := []struct {
		name string
		pt   valueobject.PenaltyType
		days int
		want string
	}{
		{"per day five days", valueobject.PenaltyTypePerDay, 5, "1200"},
		{"per day one day", valueobject.PenaltyTypePerDay, 1, "240"},
		{"per week partial week rounds up", valueobject.PenaltyTypePerWeek, 5, "240"},
		{"per week exactly one week", valueobject.PenaltyTypePerWeek, 7, "240"},
		{"per week eight days", valueobject.PenaltyTypePerWeek, 8, "480"},
		{"fixed total", valueobject.PenaltyTypeFixedTotal, 30, "240"},
		{"not overdue", valueobject.PenaltyTypePerDay, 0, "0"},
		{"negative days", valueobject.PenaltyTypeFixedTotal, -4, "0"},
		{"unset type behaves as per day", valueobject.PenaltyType{}, 5, "1200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.CalculatePenalty(emi, tt.days, settings("2", tt.pt))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCalculatePenalty_Monotonic(t *testing.T) {
	emi := dec("3333")
	for _, pt := range []valueobject.PenaltyType{valueobject.PenaltyTypePerDay, valueobject.PenaltyTypePerWeek} {
		prev := decimal.Zero
		for d := 0; d <= 90; d++ {
			p := model.CalculatePenalty(emi, d, settings("1.5", pt))
			assert.True(t, p.GreaterThanOrEqual(prev), "%s: penalty(%d)=%s < %s", pt, d, p, prev)
			prev = p
		}
	}

	first := model.CalculatePenalty(emi, 1, settings("1.5", valueobject.PenaltyTypeFixedTotal))
	for d := 2; d <= 90; d++ {
		assert.True(t, first.Equal(model.CalculatePenalty(emi, d, settings("1.5", valueobject.PenaltyTypeFixedTotal))))
	}
}

func TestDefaultPenaltySettings(t *testing.T) {
	s := model.DefaultPenaltySettings()
	assert.True(t, dec("2").Equal(s.Rate))
	assert.True(t, s.Type.Equal(valueobject.PenaltyTypePerDay))
}

func TestNewPenaltySettings(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s, err := model.NewPenaltySettings(dec("1"), "per_week", from)
	require.NoError(t, err)
	assert.True(t, s.Type.Equal(valueobject.PenaltyTypePerWeek))
	assert.Equal(t, from, s.EffectiveFrom)

	_, err = model.NewPenaltySettings(dec("-1"), "per_day", from)
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	_, err = model.NewPenaltySettings(dec("1"), "hourly", from)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, model.DaysOverdue(due, due))
	assert.Equal(t, 0, model.DaysOverdue(due, due.AddDate(0, 0, -3)))
	assert.Equal(t, 5, model.DaysOverdue(due, time.Date(2024, 3, 20, 23, 59, 0, 0, time.UTC)))
}
