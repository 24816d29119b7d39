package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
)

// UseCase is the shape shared by every application use case.
type UseCase[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// UseCases groups the operations the handler exposes.
type UseCases struct {
	CalculateEMI         UseCase[dto.CalculateEMIRequest, dto.EMIResponse]
	GenerateSchedule     UseCase[dto.GenerateScheduleRequest, dto.ScheduleResponse]
	GetSchedule          UseCase[dto.GetScheduleRequest, dto.ScheduleResponse]
	ApplyPayment         UseCase[dto.PaymentRecord, dto.PaymentResponse]
	ProcessBatchPayments UseCase[dto.BatchPaymentRequest, dto.BatchPaymentResponse]
	CalculatePenalty     UseCase[dto.CalculatePenaltyRequest, dto.PenaltyResponse]
	CountCollectionDays  UseCase[dto.CountCollectionDaysRequest, dto.CollectionDaysResponse]
}

// RepaymentHandler implements RepaymentServiceServer on top of the use cases.
type RepaymentHandler struct {
	UnimplementedRepaymentServiceServer

	uc     UseCases
	logger *slog.Logger
}

// NewRepaymentHandler creates the gRPC handler.
func NewRepaymentHandler(uc UseCases, logger *slog.Logger) *RepaymentHandler {
	return &RepaymentHandler{uc: uc, logger: logger}
}

func (h *RepaymentHandler) CalculateEMI(ctx context.Context, req *dto.CalculateEMIRequest) (*dto.EMIResponse, error) {
	return call(ctx, h, "CalculateEMI", h.uc.CalculateEMI, req)
}

func (h *RepaymentHandler) GenerateSchedule(ctx context.Context, req *dto.GenerateScheduleRequest) (*dto.ScheduleResponse, error) {
	return call(ctx, h, "GenerateSchedule", h.uc.GenerateSchedule, req)
}

func (h *RepaymentHandler) GetSchedule(ctx context.Context, req *dto.GetScheduleRequest) (*dto.ScheduleResponse, error) {
	return call(ctx, h, "GetSchedule", h.uc.GetSchedule, req)
}

func (h *RepaymentHandler) ApplyPayment(ctx context.Context, req *dto.PaymentRecord) (*dto.PaymentResponse, error) {
	return call(ctx, h, "ApplyPayment", h.uc.ApplyPayment, req)
}

func (h *RepaymentHandler) ProcessBatchPayments(ctx context.Context, req *dto.BatchPaymentRequest) (*dto.BatchPaymentResponse, error) {
	return call(ctx, h, "ProcessBatchPayments", h.uc.ProcessBatchPayments, req)
}

func (h *RepaymentHandler) CalculatePenalty(ctx context.Context, req *dto.CalculatePenaltyRequest) (*dto.PenaltyResponse, error) {
	return call(ctx, h, "CalculatePenalty", h.uc.CalculatePenalty, req)
}

func (h *RepaymentHandler) CountCollectionDays(ctx context.Context, req *dto.CountCollectionDaysRequest) (*dto.CollectionDaysResponse, error) {
	return call(ctx, h, "CountCollectionDays", h.uc.CountCollectionDays, req)
}

func call[Req, Resp any](ctx context.Context, h *RepaymentHandler, method string, uc UseCase[Req, Resp], req *Req) (*Resp, error) {
	if uc == nil {
		return nil, status.Errorf(codes.Unimplemented, "method %s not configured", method)
	}
	if req == nil {
		req = new(Req)
	}
	resp, err := uc.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(method, err)
	}
	return &resp, nil
}

// toStatus maps the engine's error taxonomy onto gRPC codes. The status
// message is prefixed with the taxonomy name so clients can branch on it.
func (h *RepaymentHandler) toStatus(method string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	reason := model.ReasonOf(err)
	code := codes.Internal
	switch reason {
	case "ValidationError", "InvalidRangeError":
		code = codes.InvalidArgument
	case "NotFoundError":
		code = codes.NotFound
	case "NotReadyError", "ConfigurationError":
		code = codes.FailedPrecondition
	case "AlreadyPaidError":
		code = codes.AlreadyExists
	case "AmountExceedsBalanceError":
		code = codes.OutOfRange
	}

	if code == codes.Internal {
		h.logger.Error("request failed", "method", method, "error", err)
		return status.Error(code, reason+": internal error")
	}
	return status.Error(code, reason+": "+err.Error())
}
