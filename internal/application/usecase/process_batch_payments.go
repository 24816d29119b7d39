package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
)

// DefaultBatchParallelism bounds how many loans a batch settles at once.
const DefaultBatchParallelism = 8

// ProcessBatchPaymentsUseCase applies many payment intents with per-record
// isolation. Records of different loans settle in parallel; records sharing a
// loan settle one after another in input order.
type ProcessBatchPaymentsUseCase struct {
	settler     *paymentSettler
	parallelism int
}

// NewProcessBatchPaymentsUseCase wires dependencies. A parallelism below one
// uses DefaultBatchParallelism.
func NewProcessBatchPaymentsUseCase(deps SettlementDeps, parallelism int) *ProcessBatchPaymentsUseCase {
	if parallelism < 1 {
		parallelism = DefaultBatchParallelism
	}
	return &ProcessBatchPaymentsUseCase{
		settler:     newPaymentSettler(deps),
		parallelism: parallelism,
	}
}

type recordOutcome struct {
	err    error
	result settlement
}

// Execute never fails because of an individual record; those become entries
// in Failures. It only fails when the request carries no record list.
func (uc *ProcessBatchPaymentsUseCase) Execute(ctx context.Context, req dto.BatchPaymentRequest) (dto.BatchPaymentResponse, error) {
	if req.Records == nil {
		return dto.BatchPaymentResponse{}, fmt.Errorf("%w: records is required", model.ErrValidation)
	}

	ctx, span := tracer.Start(ctx, "process_batch_payments")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(req.Records)))

	outcomes := make([]recordOutcome, len(req.Records))
	payments := make([]model.Payment, len(req.Records))

	// 1. Validate every record and group the valid ones by loan.
	var loanOrder []string
	byLoan := make(map[string][]int)
	for i, rec := range req.Records {
		p, err := parsePaymentRecord(rec)
		if err != nil {
			outcomes[i].err = err
			continue
		}
		payments[i] = p
		if _, seen := byLoan[rec.LoanID]; !seen {
			loanOrder = append(loanOrder, rec.LoanID)
		}
		byLoan[rec.LoanID] = append(byLoan[rec.LoanID], i)
	}

	// 2. Settle loans in parallel, each loan's records serially. Every
	// goroutine writes only its own indices of outcomes.
	var g errgroup.Group
	g.SetLimit(uc.parallelism)
	for _, loanID := range loanOrder {
		idxs := byLoan[loanID]
		g.Go(func() error {
			for _, i := range idxs {
				rec := req.Records[i]
				res, err := uc.settler.settle(ctx, rec.LoanID, rec.EmiNo, payments[i], true)
				outcomes[i] = recordOutcome{result: res, err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	// 3. Report in input order.
	resp := dto.BatchPaymentResponse{
		Successes: make([]dto.BatchSuccess, 0, len(req.Records)),
		Failures:  make([]dto.BatchFailure, 0),
	}
	for i, rec := range req.Records {
		o := outcomes[i]
		if o.err != nil {
			reason := model.ReasonOf(o.err)
			resp.Failures = append(resp.Failures, dto.BatchFailure{
				Record:  rec,
				Reason:  reason,
				Message: o.err.Error(),
			})
			resp.FailedCount++
			uc.settler.Metrics.PaymentRejected(ctx, reason)
			uc.settler.Logger.Warn("batch record failed",
				"index", i, "loan_id", rec.LoanID, "emi_no", rec.EmiNo, "reason", reason, "error", o.err)
			continue
		}
		inst := o.result.installment
		resp.Successes = append(resp.Successes, dto.BatchSuccess{
			Record:        rec,
			Status:        inst.Status().String(),
			ReceiptNumber: inst.ReceiptNumber(),
			Balance:       inst.Balance(),
		})
		resp.ProcessedCount++
	}

	uc.settler.Metrics.BatchProcessed(ctx, resp.ProcessedCount, resp.FailedCount)
	uc.settler.Logger.Info("batch processed",
		"records", len(req.Records), "processed", resp.ProcessedCount, "failed", resp.FailedCount)

	return resp, nil
}
