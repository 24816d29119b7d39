package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

// DefaultSweepBatchSize bounds the installments scanned per sweep run.
const DefaultSweepBatchSize = 500

// OverdueSweepUseCase refreshes the stored penalty of overdue installments
// and reminds borrowers. It never changes installment status.
type OverdueSweepUseCase struct {
	installments port.InstallmentRepository
	loans        port.LoanRepository
	penalties    port.PenaltySettingsProvider
	locker       port.LoanLocker
	publisher    port.EventPublisher
	notifier     port.Notifier
	metrics      SettlementRecorder
	logger       *slog.Logger
	batchSize    int
}

// NewOverdueSweepUseCase wires dependencies.
func NewOverdueSweepUseCase(
	installments port.InstallmentRepository,
	loans port.LoanRepository,
	penalties port.PenaltySettingsProvider,
	locker port.LoanLocker,
	publisher port.EventPublisher,
	notifier port.Notifier,
	metrics SettlementRecorder,
	logger *slog.Logger,
	batchSize int,
) *OverdueSweepUseCase {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &OverdueSweepUseCase{
		installments: installments,
		loans:        loans,
		penalties:    penalties,
		locker:       locker,
		publisher:    publisher,
		notifier:     notifier,
		metrics:      recorderOrNop(metrics),
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Execute sweeps installments overdue as of asOf. A failure on one
// installment is logged and counted; the sweep continues.
func (uc *OverdueSweepUseCase) Execute(ctx context.Context, asOf time.Time) (dto.OverdueSweepResult, error) {
	ctx, span := tracer.Start(ctx, "overdue_sweep")
	defer span.End()

	asOf = model.DateOf(asOf)

	// 1. Collect candidates.
	overdue, err := uc.installments.ListOverdue(ctx, asOf, uc.batchSize)
	if err != nil {
		return dto.OverdueSweepResult{}, fmt.Errorf("list overdue: %w", err)
	}

	settings := resolvePenaltySettings(ctx, uc.penalties, asOf, uc.logger)
	res := dto.OverdueSweepResult{Scanned: len(overdue)}
	loans := make(map[string]*model.Loan)

	for _, candidate := range overdue {
		if ctx.Err() != nil {
			break
		}

		// 2. Refresh the penalty under the loan lock.
		var (
			current model.Installment
			changed bool
		)
		err := uc.locker.WithLoanLock(ctx, candidate.LoanID(), func(ctx context.Context) error {
			inst, err := uc.installments.FindByLoanAndEmiNo(ctx, candidate.LoanID(), candidate.EmiNo())
			if err != nil {
				return fmt.Errorf("find installment: %w", err)
			}
			current = inst
			if !inst.IsOverdue(asOf) {
				return nil
			}
			penalty := inst.CurrentPenalty(asOf, settings)
			if penalty.Equal(inst.Penalty()) {
				return nil
			}
			current = inst.WithPenalty(penalty, time.Now().UTC())
			if err := uc.installments.Update(ctx, current); err != nil {
				return fmt.Errorf("update installment: %w", err)
			}
			changed = true
			return nil
		})
		if err != nil {
			res.Failed++
			uc.logger.Error("overdue sweep failed for installment",
				"loan_id", candidate.LoanID(), "emi_no", candidate.EmiNo(), "error", err)
			continue
		}
		if !current.IsOverdue(asOf) {
			continue
		}

		days := current.DaysOverdue(asOf)
		if changed {
			res.Updated++
			evt := event.NewInstallmentOverdue(current.LoanID(), current.EmiNo(), current.DueDate(), days, current.Penalty(), time.Now().UTC())
			if err := uc.publisher.Publish(ctx, evt); err != nil {
				uc.logger.Error("failed to publish overdue event", "loan_id", current.LoanID(), "error", err)
			}
		}

		// 3. Remind the borrower.
		if uc.remind(ctx, current, days, loans) {
			res.Notified++
		}
	}

	uc.metrics.OverdueSwept(ctx, res.Updated, res.Notified)
	uc.logger.Info("overdue sweep finished",
		"as_of", asOf.Format(dto.DateLayout),
		"scanned", res.Scanned, "updated", res.Updated, "notified", res.Notified, "failed", res.Failed)
	return res, nil
}

func (uc *OverdueSweepUseCase) remind(ctx context.Context, inst model.Installment, days int, cache map[string]*model.Loan) bool {
	if uc.notifier == nil {
		return false
	}

	loan, ok := cache[inst.LoanID()]
	if !ok {
		l, err := uc.loans.FindByID(ctx, inst.LoanID())
		if err != nil {
			uc.logger.Debug("skipping reminder, loan unknown", "loan_id", inst.LoanID(), "error", err)
			cache[inst.LoanID()] = nil
			return false
		}
		loan = &l
		cache[inst.LoanID()] = loan
	}
	if loan == nil || loan.BorrowerEmail() == "" {
		return false
	}

	err := uc.notifier.Notify(ctx, port.Notification{
		Kind:          port.NotificationOverdue,
		LoanID:        inst.LoanID(),
		EmiNo:         inst.EmiNo(),
		Recipient:     loan.BorrowerEmail(),
		RecipientName: loan.BorrowerName(),
		Amount:        inst.Balance(),
		Penalty:       inst.Penalty(),
		DueDate:       inst.DueDate(),
		DaysOverdue:   days,
	})
	if err != nil {
		uc.logger.Warn("notification failed", "kind", port.NotificationOverdue, "loan_id", inst.LoanID(), "error", err)
		return false
	}
	return true
}
