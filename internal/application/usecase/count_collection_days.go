package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

// CountCollectionDaysUseCase breaks a date range into collection days and
// exclusions using the configured leave-day calendar.
type CountCollectionDaysUseCase struct {
	leaveDays        port.LeaveDayProvider
	excludeSaturdays bool
}

// NewCountCollectionDaysUseCase wires dependencies. excludeSaturdays is the
// default used when a request does not say.
func NewCountCollectionDaysUseCase(leaveDays port.LeaveDayProvider, excludeSaturdays bool) *CountCollectionDaysUseCase {
	return &CountCollectionDaysUseCase{leaveDays: leaveDays, excludeSaturdays: excludeSaturdays}
}

// Execute counts the inclusive range [StartDate, EndDate].
func (uc *CountCollectionDaysUseCase) Execute(ctx context.Context, req dto.CountCollectionDaysRequest) (dto.CollectionDaysResponse, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return dto.CollectionDaysResponse{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return dto.CollectionDaysResponse{}, err
	}
	if end.Before(start) {
		return dto.CollectionDaysResponse{}, fmt.Errorf("%w: %s is before %s", model.ErrInvalidRange, req.EndDate, req.StartDate)
	}

	exclude := uc.excludeSaturdays
	if req.ExcludeSaturdays != nil {
		exclude = *req.ExcludeSaturdays
	}

	var leaves []model.LeaveDay
	if uc.leaveDays != nil {
		leaves, err = uc.leaveDays.ListBetween(ctx, start, end)
		if err != nil {
			return dto.CollectionDaysResponse{}, fmt.Errorf("list leave days: %w", err)
		}
	}

	count, err := model.CountCollectionDays(start, end, exclude, leaves)
	if err != nil {
		return dto.CollectionDaysResponse{}, err
	}

	resp := dto.CollectionDaysResponse{
		TotalDays:         count.TotalDays,
		SundaysCount:      count.SundaysCount,
		SaturdaysCount:    count.SaturdaysCount,
		LeaveDaysCount:    count.LeaveDaysCount,
		CollectionDays:    count.CollectionDays,
		ExcludeSaturdays:  exclude,
		LeaveDatesInRange: make([]dto.LeaveDayResponse, 0, len(count.LeaveDatesInRange)),
	}
	for _, ld := range count.LeaveDatesInRange {
		resp.LeaveDatesInRange = append(resp.LeaveDatesInRange, dto.LeaveDayResponse{
			Date:   ld.Date.Format(dto.DateLayout),
			Reason: ld.Reason,
		})
	}
	return resp, nil
}
