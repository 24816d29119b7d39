package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/mfi-repayment/internal/application/usecase"
)

var _ usecase.SettlementRecorder = (*Recorder)(nil)

// Recorder counts settlement outcomes with OpenTelemetry instruments.
type Recorder struct {
	applied   metric.Int64Counter
	rejected  metric.Int64Counter
	completed metric.Int64Counter
	batches   metric.Int64Histogram
	swept     metric.Int64Counter
}

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	var (
		r   Recorder
		err error
	)
	if r.applied, err = meter.Int64Counter("repayment_payments_applied_total",
		metric.WithDescription("Payments applied, by resulting installment status")); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if r.rejected, err = meter.Int64Counter("repayment_payments_rejected_total",
		metric.WithDescription("Payments rejected, by reason")); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if r.completed, err = meter.Int64Counter("repayment_loans_completed_total",
		metric.WithDescription("Loans whose installments are all paid")); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if r.batches, err = meter.Int64Histogram("repayment_batch_records",
		metric.WithDescription("Records per batch, by outcome")); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if r.swept, err = meter.Int64Counter("repayment_overdue_swept_total",
		metric.WithDescription("Overdue sweep results, by action")); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	return &r, nil
}

func (r *Recorder) PaymentApplied(ctx context.Context, status string) {
	r.applied.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (r *Recorder) PaymentRejected(ctx context.Context, reason string) {
	r.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *Recorder) LoanCompleted(ctx context.Context) {
	r.completed.Add(ctx, 1)
}

func (r *Recorder) BatchProcessed(ctx context.Context, processed, failed int) {
	r.batches.Record(ctx, int64(processed), metric.WithAttributes(attribute.String("outcome", "processed")))
	r.batches.Record(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
}

func (r *Recorder) OverdueSwept(ctx context.Context, updated, notified int) {
	r.swept.Add(ctx, int64(updated), metric.WithAttributes(attribute.String("action", "penalty_updated")))
	r.swept.Add(ctx, int64(notified), metric.WithAttributes(attribute.String("action", "notified")))
}
