package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

// GenerateScheduleUseCase builds a loan's installments, replacing any
// existing schedule.
type GenerateScheduleUseCase struct {
	loans        port.LoanRepository
	installments port.InstallmentRepository
	locker       port.LoanLocker
	publisher    port.EventPublisher
	logger       *slog.Logger
}

// NewGenerateScheduleUseCase wires dependencies.
func NewGenerateScheduleUseCase(
	loans port.LoanRepository,
	installments port.InstallmentRepository,
	locker port.LoanLocker,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *GenerateScheduleUseCase {
	return &GenerateScheduleUseCase{
		loans:        loans,
		installments: installments,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
	}
}

// Execute regenerates the schedule. Regeneration is destructive and must not
// race with payments, so it runs under the loan lock and the repository swaps
// the rows in one transaction.
func (uc *GenerateScheduleUseCase) Execute(ctx context.Context, req dto.GenerateScheduleRequest) (dto.ScheduleResponse, error) {
	if req.LoanID == "" {
		return dto.ScheduleResponse{}, fmt.Errorf("%w: loan_id is required", model.ErrValidation)
	}

	ctx, span := tracer.Start(ctx, "generate_schedule")
	defer span.End()

	var (
		schedule  model.Schedule
		preserved []model.Installment
	)
	err := uc.locker.WithLoanLock(ctx, req.LoanID, func(ctx context.Context) error {
		now := time.Now().UTC()

		// 0. Keep a schedule that already carries payments. Checked under the
		// lock so a payment settling concurrently is never erased.
		if req.PreservePayments {
			existing, err := uc.installments.ListByLoan(ctx, req.LoanID)
			if err != nil && !errors.Is(err, model.ErrNotFound) {
				return fmt.Errorf("list installments: %w", err)
			}
			if hasPayments(existing) {
				preserved = existing
				return nil
			}
		}

		// 1. Retrieve the loan.
		loan, err := uc.loans.FindByID(ctx, req.LoanID)
		if err != nil {
			return fmt.Errorf("find loan: %w", err)
		}

		// 2. Build the schedule.
		schedule, err = model.GenerateSchedule(loan, now)
		if err != nil {
			return fmt.Errorf("generate schedule: %w", err)
		}

		// 3. Replace atomically.
		if err := uc.installments.ReplaceSchedule(ctx, schedule); err != nil {
			return fmt.Errorf("replace schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.ScheduleResponse{}, err
	}

	if preserved != nil {
		uc.logger.Info("schedule already has payments, not regenerating", "loan_id", req.LoanID)
		now := time.Now().UTC()
		return dto.ScheduleResponse{
			LoanID:       req.LoanID,
			Installments: toInstallmentResponses(preserved, now, model.DefaultPenaltySettings()),
			Preserved:    true,
		}, nil
	}

	// 4. Publish events.
	if err := uc.publisher.Publish(ctx, schedule.DomainEvents()...); err != nil {
		uc.logger.Error("failed to publish schedule events", "loan_id", req.LoanID, "error", err)
	}

	uc.logger.Info("schedule generated", "loan_id", req.LoanID, "installments", schedule.Len())

	now := time.Now().UTC()
	return dto.ScheduleResponse{
		LoanID:       req.LoanID,
		Installments: toInstallmentResponses(schedule.Installments(), now, model.DefaultPenaltySettings()),
	}, nil
}

func hasPayments(insts []model.Installment) bool {
	for _, inst := range insts {
		if !inst.Status().Equal(valueobject.InstallmentStatusPending) {
			return true
		}
	}
	return false
}
