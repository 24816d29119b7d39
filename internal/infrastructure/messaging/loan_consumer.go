package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	pkgkafka "github.com/bibbank/mfi-repayment/pkg/kafka"
)

// EventTypeLoanDisbursed is the lending service's disbursement event.
const EventTypeLoanDisbursed = "lending.loan.disbursed"

// DisbursedLoanRegistrar is satisfied by usecase.RegisterDisbursedLoanUseCase.
type DisbursedLoanRegistrar interface {
	Execute(ctx context.Context, msg dto.LoanDisbursedMessage) error
}

// LoanEventHandler turns lending-service events into schedule generation.
type LoanEventHandler struct {
	register DisbursedLoanRegistrar
	logger   *slog.Logger
}

// NewLoanEventHandler wires the handler.
func NewLoanEventHandler(register DisbursedLoanRegistrar, logger *slog.Logger) *LoanEventHandler {
	return &LoanEventHandler{register: register, logger: logger}
}

// Handle is a pkg/kafka.Handler. Other event types are acknowledged and
// skipped. Messages that can never succeed (malformed, invalid or not ready)
// are logged and acknowledged; anything else is returned so the consumer
// retries the message.
func (h *LoanEventHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	if t := msg.Headers["event_type"]; t != "" && t != EventTypeLoanDisbursed {
		return nil
	}

	var payload dto.LoanDisbursedMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Error("dropping malformed loan event", "key", string(msg.Key), "error", err)
		return nil
	}
	if payload.LoanID == "" {
		payload.LoanID = string(msg.Key)
	}

	err := h.register.Execute(ctx, payload)
	switch {
	case err == nil:
		h.logger.Info("loan registered from event", "loan_id", payload.LoanID)
		return nil
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotReady):
		h.logger.Error("dropping unusable loan event",
			"loan_id", payload.LoanID, "reason", model.ReasonOf(err), "error", err)
		return nil
	default:
		return fmt.Errorf("register loan %s: %w", payload.LoanID, err)
	}
}
