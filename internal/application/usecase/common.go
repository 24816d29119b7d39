package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/money"
)

var tracer = otel.Tracer("github.com/bibbank/mfi-repayment/internal/application/usecase")

// SettlementRecorder receives settlement outcomes for metrics.
type SettlementRecorder interface {
	PaymentApplied(ctx context.Context, status string)
	PaymentRejected(ctx context.Context, reason string)
	LoanCompleted(ctx context.Context)
	BatchProcessed(ctx context.Context, processed, failed int)
	OverdueSwept(ctx context.Context, updated, notified int)
}

type nopRecorder struct{}

func (nopRecorder) PaymentApplied(context.Context, string)   {}
func (nopRecorder) PaymentRejected(context.Context, string)  {}
func (nopRecorder) LoanCompleted(context.Context)            {}
func (nopRecorder) BatchProcessed(context.Context, int, int) {}
func (nopRecorder) OverdueSwept(context.Context, int, int)   {}

func recorderOrNop(r SettlementRecorder) SettlementRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// resolvePenaltySettings returns the configured policy at asOf, or the 2%
// per-day default when none is configured or the lookup fails.
func resolvePenaltySettings(ctx context.Context, p port.PenaltySettingsProvider, asOf time.Time, logger *slog.Logger) model.PenaltySettings {
	if p == nil {
		return model.DefaultPenaltySettings()
	}
	s, err := p.Current(ctx, asOf)
	switch {
	case err == nil:
		return s
	case errors.Is(err, model.ErrNotFound):
		logger.Debug("no penalty settings configured, using default")
	default:
		logger.Warn("penalty settings unavailable, using default", "error", err)
	}
	return model.DefaultPenaltySettings()
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", model.ErrValidation, field)
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", model.ErrValidation, field, raw)
	}
	return t, nil
}

// parseAsOf reads an optional date, defaulting to today.
func parseAsOf(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return model.DateOf(now), nil
	}
	return parseDate("as_of", raw)
}

// parsePaymentRecord checks that every required field is present and well
// formed.
func parsePaymentRecord(rec dto.PaymentRecord) (model.Payment, error) {
	if strings.TrimSpace(rec.LoanID) == "" {
		return model.Payment{}, fmt.Errorf("%w: loan_id is required", model.ErrValidation)
	}
	if rec.EmiNo <= 0 {
		return model.Payment{}, fmt.Errorf("%w: emi_no is required", model.ErrValidation)
	}
	if strings.TrimSpace(rec.Amount) == "" {
		return model.Payment{}, fmt.Errorf("%w: amount is required", model.ErrValidation)
	}
	amount, err := money.Parse(rec.Amount)
	if err != nil {
		return model.Payment{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	date, err := parseDate("payment_date", rec.PaymentDate)
	if err != nil {
		return model.Payment{}, err
	}
	if strings.TrimSpace(rec.PaymentMode) == "" {
		return model.Payment{}, fmt.Errorf("%w: payment_mode is required", model.ErrValidation)
	}
	mode, err := valueobject.NewPaymentMode(strings.ToLower(strings.TrimSpace(rec.PaymentMode)))
	if err != nil {
		return model.Payment{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	p := model.Payment{
		Amount:        amount,
		Date:          date,
		Mode:          mode,
		Remarks:       rec.Remarks,
		ReceiptNumber: strings.TrimSpace(rec.ReceiptNumber),
	}
	return p, p.Validate()
}

func toInstallmentResponse(inst model.Installment, asOf time.Time, s model.PenaltySettings) dto.InstallmentResponse {
	resp := dto.InstallmentResponse{
		LoanID:        inst.LoanID(),
		EmiNo:         inst.EmiNo(),
		DueDate:       inst.DueDate().Format(dto.DateLayout),
		Amount:        inst.Amount(),
		PaidAmount:    inst.PaidAmount(),
		Balance:       inst.Balance(),
		Penalty:       inst.Penalty(),
		PaymentMode:   inst.PaymentMode().String(),
		Status:        inst.Status().String(),
		ReceiptNumber: inst.ReceiptNumber(),
		Remarks:       inst.Remarks(),
	}
	if !inst.PaymentDate().IsZero() {
		d := inst.PaymentDate().Format(dto.DateLayout)
		resp.PaymentDate = &d
	}
	if inst.IsOverdue(asOf) {
		resp.Overdue = true
		resp.DaysOverdue = inst.DaysOverdue(asOf)
		resp.Penalty = inst.CurrentPenalty(asOf, s)
	}
	return resp
}

func toInstallmentResponses(insts []model.Installment, asOf time.Time, s model.PenaltySettings) []dto.InstallmentResponse {
	out := make([]dto.InstallmentResponse, 0, len(insts))
	for _, inst := range insts {
		out = append(out, toInstallmentResponse(inst, asOf, s))
	}
	return out
}
