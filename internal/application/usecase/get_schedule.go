package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

// GetScheduleUseCase reads a loan's schedule with overdue state and
// penalties derived as of a date.
type GetScheduleUseCase struct {
	installments port.InstallmentRepository
	penalties    port.PenaltySettingsProvider
	logger       *slog.Logger
}

// NewGetScheduleUseCase wires dependencies.
func NewGetScheduleUseCase(
	installments port.InstallmentRepository,
	penalties port.PenaltySettingsProvider,
	logger *slog.Logger,
) *GetScheduleUseCase {
	return &GetScheduleUseCase{installments: installments, penalties: penalties, logger: logger}
}

// Execute returns the schedule and its summary.
func (uc *GetScheduleUseCase) Execute(ctx context.Context, req dto.GetScheduleRequest) (dto.ScheduleResponse, error) {
	if req.LoanID == "" {
		return dto.ScheduleResponse{}, fmt.Errorf("%w: loan_id is required", model.ErrValidation)
	}
	asOf, err := parseAsOf(req.AsOf, time.Now().UTC())
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	insts, err := uc.installments.ListByLoan(ctx, req.LoanID)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("list installments: %w", err)
	}
	if len(insts) == 0 {
		return dto.ScheduleResponse{}, fmt.Errorf("%w: no schedule for loan %s", model.ErrNotFound, req.LoanID)
	}

	settings := resolvePenaltySettings(ctx, uc.penalties, asOf, uc.logger)
	sum := model.ReconstructSchedule(req.LoanID, insts).Summarize(asOf, settings)

	summary := &dto.ScheduleSummaryResponse{
		TotalInstallments: sum.TotalInstallments,
		PaidCount:         sum.PaidCount,
		PartialCount:      sum.PartialCount,
		PendingCount:      sum.PendingCount,
		OverdueCount:      sum.OverdueCount,
		TotalAmount:       sum.TotalAmount,
		TotalPaid:         sum.TotalPaid,
		TotalBalance:      sum.TotalBalance,
		TotalPenalty:      sum.TotalPenalty,
	}
	if !sum.NextDueDate.IsZero() {
		summary.NextDueDate = sum.NextDueDate.Format(dto.DateLayout)
	}

	return dto.ScheduleResponse{
		LoanID:       req.LoanID,
		Installments: toInstallmentResponses(insts, asOf, settings),
		Summary:      summary,
	}, nil
}
