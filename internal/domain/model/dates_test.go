package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/mfi-repayment/internal/domain/model"
)

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		from   time.Time
		months int
		want   time.Time
	}{
		{day(2024, 1, 15), 1, day(2024, 2, 15)},
		{day(2024, 1, 15), 3, day(2024, 4, 15)},
		{day(2024, 1, 31), 1, day(2024, 2, 29)},
		{day(2023, 1, 31), 1, day(2023, 2, 28)},
		{day(2024, 1, 31), 2, day(2024, 3, 31)},
		{day(2024, 8, 31), 1, day(2024, 9, 30)},
		{day(2024, 11, 30), 3, day(2025, 2, 28)},
		{day(2024, 12, 10), 14, day(2026, 2, 10)},
	}

	for _, tt := range tests {
		got := model.AddMonthsClamped(tt.from, tt.months)
		assert.Equal(t, tt.want, got, "%s + %d months", tt.from.Format(time.DateOnly), tt.months)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 8, model.DaysBetween(day(2024, 6, 1), day(2024, 6, 9)))
	assert.Equal(t, -8, model.DaysBetween(day(2024, 6, 9), day(2024, 6, 1)))
	assert.Equal(t, 366, model.DaysBetween(day(2024, 1, 1), day(2025, 1, 1)))
	assert.Equal(t, 118338, model.DaysBetween(day(1700, 1, 1), day(2024, 1, 1)))
	assert.Equal(t, -118338, model.DaysBetween(day(2024, 1, 1), day(1700, 1, 1)))
}
