package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

// CalculateEMIUseCase computes an EMI quote. It has no side effects.
type CalculateEMIUseCase struct{}

// NewCalculateEMIUseCase returns the use case.
func NewCalculateEMIUseCase() *CalculateEMIUseCase { return &CalculateEMIUseCase{} }

// Execute returns the EMI and totals under the requested interest model.
func (uc *CalculateEMIUseCase) Execute(_ context.Context, req dto.CalculateEMIRequest) (dto.EMIResponse, error) {
	im, err := valueobject.NewInterestModel(req.InterestModel)
	if err != nil {
		return dto.EMIResponse{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	res, err := model.CalculateEMI(im, req.Principal, req.InterestRate, req.Period)
	if err != nil {
		return dto.EMIResponse{}, err
	}

	return dto.EMIResponse{
		InterestModel: im.String(),
		EMI:           res.EMI,
		TotalAmount:   res.TotalAmount,
		TotalInterest: res.TotalInterest,
	}, nil
}
