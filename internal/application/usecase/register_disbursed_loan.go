package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

// RegisterDisbursedLoanUseCase records a loan announced by the loan service
// and builds its first schedule.
type RegisterDisbursedLoanUseCase struct {
	loans    port.LoanRepository
	generate *GenerateScheduleUseCase
	logger   *slog.Logger
}

// NewRegisterDisbursedLoanUseCase wires dependencies.
func NewRegisterDisbursedLoanUseCase(
	loans port.LoanRepository,
	generate *GenerateScheduleUseCase,
	logger *slog.Logger,
) *RegisterDisbursedLoanUseCase {
	return &RegisterDisbursedLoanUseCase{
		loans:    loans,
		generate: generate,
		logger:   logger,
	}
}

// Execute is safe to repeat: a schedule that already has payments recorded is
// left alone, since regenerating it would erase them.
func (uc *RegisterDisbursedLoanUseCase) Execute(ctx context.Context, msg dto.LoanDisbursedMessage) error {
	now := time.Now().UTC()

	// 1. Build the loan read model.
	im, err := valueobject.NewInterestModel(msg.InterestModel)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	loan, err := model.NewLoan(
		msg.LoanID, msg.Principal, msg.InterestRate, msg.Period, msg.EMIAmount,
		im, msg.DisbursedDate, valueobject.LoanStatusDisbursed,
		msg.BorrowerName, msg.BorrowerEmail, now,
	)
	if err != nil {
		return fmt.Errorf("build loan: %w", err)
	}

	// 2. Persist the loan. Save never reopens a completed loan.
	if err := uc.loans.Save(ctx, loan); err != nil {
		return fmt.Errorf("save loan: %w", err)
	}

	// 3. Generate its schedule unless payments were already recorded.
	resp, err := uc.generate.Execute(ctx, dto.GenerateScheduleRequest{LoanID: loan.ID(), PreservePayments: true})
	if err != nil {
		return fmt.Errorf("generate schedule: %w", err)
	}
	if resp.Preserved {
		uc.logger.Info("redelivered disbursement kept existing schedule", "loan_id", loan.ID())
	}
	return nil
}
