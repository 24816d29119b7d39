package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/money"
)

// CalculatePenaltyUseCase computes late-payment penalties on demand.
type CalculatePenaltyUseCase struct {
	installments port.InstallmentRepository
	penalties    port.PenaltySettingsProvider
	logger       *slog.Logger
}

// NewCalculatePenaltyUseCase wires dependencies.
func NewCalculatePenaltyUseCase(
	installments port.InstallmentRepository,
	penalties port.PenaltySettingsProvider,
	logger *slog.Logger,
) *CalculatePenaltyUseCase {
	return &CalculatePenaltyUseCase{installments: installments, penalties: penalties, logger: logger}
}

// Execute prices either a stored installment as of a date or a raw EMI amount
// and day count.
func (uc *CalculatePenaltyUseCase) Execute(ctx context.Context, req dto.CalculatePenaltyRequest) (dto.PenaltyResponse, error) {
	asOf, err := parseAsOf(req.AsOf, time.Now().UTC())
	if err != nil {
		return dto.PenaltyResponse{}, err
	}
	settings := uc.settings(ctx, req, asOf)

	resp := dto.PenaltyResponse{
		PenaltyRate: settings.Rate,
		PenaltyType: settings.Type.String(),
	}

	if req.LoanID != "" {
		if req.EmiNo <= 0 {
			return dto.PenaltyResponse{}, fmt.Errorf("%w: emi_no is required with loan_id", model.ErrValidation)
		}
		inst, err := uc.installments.FindByLoanAndEmiNo(ctx, req.LoanID, req.EmiNo)
		if err != nil {
			return dto.PenaltyResponse{}, fmt.Errorf("find installment: %w", err)
		}
		resp.LoanID = inst.LoanID()
		resp.EmiNo = inst.EmiNo()
		resp.EMIAmount = inst.Amount()
		resp.DaysOverdue = inst.DaysOverdue(asOf)
		resp.Penalty = model.CalculatePenalty(inst.Amount(), resp.DaysOverdue, settings)
		return resp, nil
	}

	emi, err := money.Parse(req.EMIAmount)
	if err != nil {
		return dto.PenaltyResponse{}, fmt.Errorf("%w: emi_amount: %v", model.ErrValidation, err)
	}
	if emi.IsNegative() {
		return dto.PenaltyResponse{}, fmt.Errorf("%w: emi_amount must not be negative", model.ErrValidation)
	}
	resp.EMIAmount = emi
	resp.DaysOverdue = max(req.DaysOverdue, 0)
	resp.Penalty = model.CalculatePenalty(emi, resp.DaysOverdue, settings)
	return resp, nil
}

// settings applies request overrides on top of the configured policy. A
// malformed or negative rate is ignored; an unknown type means per_day.
func (uc *CalculatePenaltyUseCase) settings(ctx context.Context, req dto.CalculatePenaltyRequest, asOf time.Time) model.PenaltySettings {
	base := resolvePenaltySettings(ctx, uc.penalties, asOf, uc.logger)
	if req.PenaltyRate == "" && req.PenaltyType == "" {
		return base
	}

	out := base
	if req.PenaltyRate != "" {
		rate, err := decimal.NewFromString(req.PenaltyRate)
		if err != nil || rate.IsNegative() {
			uc.logger.Warn("ignoring penalty rate override",
				"reason", model.ReasonOf(model.ErrConfiguration), "penalty_rate", req.PenaltyRate)
			return base
		}
		out.Rate = rate
	}
	if req.PenaltyType != "" {
		pt, ok := valueobject.ParsePenaltyType(req.PenaltyType)
		if !ok {
			uc.logger.Warn("unknown penalty type, using per_day", "penalty_type", req.PenaltyType)
		}
		out.Type = pt
	}
	return out
}
