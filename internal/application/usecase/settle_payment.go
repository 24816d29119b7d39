package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/events"
)

// SettlementDeps are the collaborators shared by single and batch payment
// application.
type SettlementDeps struct {
	Installments port.InstallmentRepository
	Loans        port.LoanRepository
	Penalties    port.PenaltySettingsProvider
	Locker       port.LoanLocker
	Publisher    port.EventPublisher
	Notifier     port.Notifier
	Receipts     port.ReceiptNumberGenerator
	Metrics      SettlementRecorder
	Logger       *slog.Logger
}

type paymentSettler struct {
	SettlementDeps
}

func newPaymentSettler(deps SettlementDeps) *paymentSettler {
	deps.Metrics = recorderOrNop(deps.Metrics)
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &paymentSettler{SettlementDeps: deps}
}

type settlement struct {
	installment   model.Installment
	loan          model.Loan
	loanKnown     bool
	loanCompleted bool
}

// settle applies p to installment (loanID, emiNo) while holding the loan's
// lock, so the all-paid check and the completion request cannot interleave
// with another payment on the same loan. When alwaysReceipt is set, a receipt
// is issued for partial payments too.
func (s *paymentSettler) settle(ctx context.Context, loanID string, emiNo int, p model.Payment, alwaysReceipt bool) (settlement, error) {
	ctx, span := tracer.Start(ctx, "settle_payment")
	defer span.End()
	span.SetAttributes(attribute.String("loan_id", loanID), attribute.Int("emi_no", emiNo))

	var out settlement
	err := s.Locker.WithLoanLock(ctx, loanID, func(ctx context.Context) error {
		now := time.Now().UTC()

		// 1. Resolve the installment.
		inst, err := s.Installments.FindByLoanAndEmiNo(ctx, loanID, emiNo)
		if err != nil {
			return fmt.Errorf("find installment: %w", err)
		}

		// 2. Penalty accrued up to the payment date widens the accepted amount.
		settings := resolvePenaltySettings(ctx, s.Penalties, now, s.Logger)
		penalty := inst.CurrentPenalty(p.Date, settings)

		// A receipt number is drawn only when one will be stored: always in
		// batch mode, otherwise only when the payment settles the installment.
		var fallback string
		if p.ReceiptNumber == "" && inst.ReceiptNumber() == "" {
			switch {
			case alwaysReceipt:
				p.ReceiptNumber = s.Receipts.Next(now)
			case p.Amount.GreaterThanOrEqual(inst.Amount()):
				fallback = s.Receipts.Next(now)
			}
		}

		// 3. Run the state machine.
		next, err := inst.ApplyPayment(p, penalty, fallback, now)
		if err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}

		// 4. Persist.
		if err := s.Installments.Update(ctx, next); err != nil {
			return fmt.Errorf("update installment: %w", err)
		}
		out.installment = next
		var pending events.EventCollector
		pending.RecordAll(next.DomainEvents()...)

		// 5. Completion check, still under the loan lock.
		if next.Status().IsPaid() {
			s.completeIfSettled(ctx, loanID, now, &out, &pending)
		}

		// 6. Publish. Settlement stands even if the events cannot be queued.
		if err := s.Publisher.Publish(ctx, pending.Events()...); err != nil {
			s.Logger.Error("failed to publish settlement events",
				"loan_id", loanID, "emi_no", emiNo, "events", len(pending.Events()), "error", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, model.ReasonOf(err))
		return settlement{}, err
	}

	s.Metrics.PaymentApplied(ctx, out.installment.Status().String())
	if out.loanCompleted {
		s.Metrics.LoanCompleted(ctx)
	}
	s.notify(ctx, out)
	return out, nil
}

// completeIfSettled records AllInstallmentsSettled and requests the loan's
// move to completed when every installment is paid. Failures here are logged;
// the event still carries the completion request to the loan service.
func (s *paymentSettler) completeIfSettled(ctx context.Context, loanID string, now time.Time, out *settlement, pending *events.EventCollector) {
	insts, err := s.Installments.ListByLoan(ctx, loanID)
	if err != nil {
		s.Logger.Error("failed to list installments for completion check", "loan_id", loanID, "error", err)
		return
	}

	settled := model.ReconstructSchedule(loanID, insts).Settle(now)
	if settled == nil {
		return
	}

	loan, err := s.Loans.FindByID(ctx, loanID)
	if err != nil {
		s.Logger.Warn("loan not available for completion", "loan_id", loanID, "error", err)
		pending.Record(settled)
		return
	}
	out.loan, out.loanKnown = loan, true

	if loan.Status().Equal(valueobject.LoanStatusCompleted) {
		return
	}

	pending.Record(settled)
	done, err := loan.MarkCompleted(now)
	if err != nil {
		s.Logger.Warn("loan cannot be completed",
			"loan_id", loanID, "status", loan.Status().String(), "error", err)
		return
	}
	if err := s.Loans.Save(ctx, done); err != nil {
		s.Logger.Error("failed to mark loan completed", "loan_id", loanID, "error", err)
		return
	}

	out.loan = done
	out.loanCompleted = true
	s.Logger.Info("loan completed", "loan_id", loanID)
}

// notify hands borrower messages to the notifier. Delivery problems are only
// logged.
func (s *paymentSettler) notify(ctx context.Context, out settlement) {
	if s.Notifier == nil || !out.installment.Status().IsPaid() {
		return
	}

	inst := out.installment
	loan := out.loan
	if !out.loanKnown {
		var err error
		loan, err = s.Loans.FindByID(ctx, inst.LoanID())
		if err != nil {
			s.Logger.Debug("skipping notification, loan unknown", "loan_id", inst.LoanID(), "error", err)
			return
		}
	}
	if loan.BorrowerEmail() == "" {
		return
	}

	base := port.Notification{
		LoanID:        inst.LoanID(),
		EmiNo:         inst.EmiNo(),
		Recipient:     loan.BorrowerEmail(),
		RecipientName: loan.BorrowerName(),
		Amount:        inst.PaidAmount(),
		DueDate:       inst.DueDate(),
		ReceiptNumber: inst.ReceiptNumber(),
	}

	paid := base
	paid.Kind = port.NotificationInstallmentPaid
	if err := s.Notifier.Notify(ctx, paid); err != nil {
		s.Logger.Warn("notification failed", "kind", paid.Kind, "loan_id", inst.LoanID(), "error", err)
	}

	if out.loanCompleted {
		done := base
		done.Kind = port.NotificationLoanCompleted
		if err := s.Notifier.Notify(ctx, done); err != nil {
			s.Logger.Warn("notification failed", "kind", done.Kind, "loan_id", inst.LoanID(), "error", err)
		}
	}
}
