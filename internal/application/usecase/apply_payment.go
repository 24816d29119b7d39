package usecase

import (
	"context"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
)

// ApplyPaymentUseCase applies one payment to one installment.
type ApplyPaymentUseCase struct {
	settler *paymentSettler
}

// NewApplyPaymentUseCase wires dependencies.
func NewApplyPaymentUseCase(deps SettlementDeps) *ApplyPaymentUseCase {
	return &ApplyPaymentUseCase{settler: newPaymentSettler(deps)}
}

// Execute validates the record and settles it. Errors wrap the model
// sentinels so callers can classify them.
func (uc *ApplyPaymentUseCase) Execute(ctx context.Context, req dto.PaymentRecord) (dto.PaymentResponse, error) {
	payment, err := parsePaymentRecord(req)
	if err != nil {
		uc.settler.Metrics.PaymentRejected(ctx, model.ReasonOf(err))
		return dto.PaymentResponse{}, err
	}

	res, err := uc.settler.settle(ctx, req.LoanID, req.EmiNo, payment, false)
	if err != nil {
		uc.settler.Metrics.PaymentRejected(ctx, model.ReasonOf(err))
		return dto.PaymentResponse{}, err
	}

	return dto.PaymentResponse{
		Installment:   toInstallmentResponse(res.installment, payment.Date, model.DefaultPenaltySettings()),
		LoanCompleted: res.loanCompleted,
	}, nil
}
