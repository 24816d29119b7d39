package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	pgpkg "github.com/bibbank/mfi-repayment/pkg/postgres"
)

var _ port.InstallmentRepository = (*InstallmentRepo)(nil)

// ErrVersionConflict is returned when an update loses an optimistic-lock race.
var ErrVersionConflict = errors.New("optimistic locking conflict on installment")

const installmentColumns = `
	id, loan_id, emi_no, due_date, amount, paid_amount, balance, penalty,
	payment_date, payment_mode, status, receipt_number, remarks,
	version, created_at, updated_at`

// InstallmentRepo implements port.InstallmentRepository.
type InstallmentRepo struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepo creates a new PostgreSQL-backed installment repository.
func NewInstallmentRepo(pool *pgxpool.Pool) *InstallmentRepo {
	return &InstallmentRepo{pool: pool}
}

// FindByLoanAndEmiNo retrieves one installment.
func (r *InstallmentRepo) FindByLoanAndEmiNo(ctx context.Context, loanID string, emiNo int) (model.Installment, error) {
	query := `SELECT` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1 AND emi_no = $2
	`
	inst, err := scanInstallment(r.pool.QueryRow(ctx, query, loanID, emiNo))
	if err != nil {
		return model.Installment{}, notFound(err, fmt.Sprintf("installment %s/%d", loanID, emiNo))
	}
	return inst, nil
}

// ListByLoan returns the loan's installments ordered by emi number.
func (r *InstallmentRepo) ListByLoan(ctx context.Context, loanID string) ([]model.Installment, error) {
	query := `SELECT` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1
		ORDER BY emi_no
	`
	return r.queryInstallments(ctx, query, loanID)
}

// ListOverdue returns pending installments due before asOf, oldest first.
func (r *InstallmentRepo) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Installment, error) {
	query := `SELECT` + installmentColumns + `
		FROM installments
		WHERE status = 'pending' AND due_date < $1
		ORDER BY due_date, loan_id, emi_no
		LIMIT $2
	`
	return r.queryInstallments(ctx, query, model.DateOf(asOf), limit)
}

// ReplaceSchedule swaps the loan's installments in one transaction. A
// transaction-scoped advisory lock on the loan keeps concurrent replacements
// from interleaving their delete and insert.
func (r *InstallmentRepo) ReplaceSchedule(ctx context.Context, schedule model.Schedule) error {
	return pgpkg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := pgpkg.AdvisoryXactLock(ctx, tx, "schedule:"+schedule.LoanID()); err != nil {
			return err
		}
		if err := deleteAllForLoan(ctx, tx, schedule.LoanID()); err != nil {
			return err
		}
		return createBatch(ctx, tx, schedule.Installments())
	})
}

// Update writes a changed installment. inst.Version() must be exactly one
// ahead of the stored row.
func (r *InstallmentRepo) Update(ctx context.Context, inst model.Installment) error {
	query := `
		UPDATE installments SET
			paid_amount    = $3,
			balance        = $4,
			penalty        = $5,
			payment_date   = $6,
			payment_mode   = $7,
			status         = $8,
			receipt_number = $9,
			remarks        = $10,
			version        = $11,
			updated_at     = $12
		WHERE loan_id = $1 AND emi_no = $2 AND version = $13
	`
	tag, err := r.pool.Exec(ctx, query,
		inst.LoanID(), inst.EmiNo(),
		inst.PaidAmount(), inst.Balance(), inst.Penalty(),
		nullableDate(inst.PaymentDate()), nullableString(inst.PaymentMode().String()),
		inst.Status().String(), nullableString(inst.ReceiptNumber()), inst.Remarks(),
		inst.Version(), inst.UpdatedAt(), inst.Version()-1,
	)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("installment %s/%d: %w", inst.LoanID(), inst.EmiNo(), ErrVersionConflict)
	}
	return nil
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

func deleteAllForLoan(ctx context.Context, q pgpkg.Querier, loanID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM installments WHERE loan_id = $1`, loanID); err != nil {
		return fmt.Errorf("delete installments for loan %s: %w", loanID, err)
	}
	return nil
}

func createBatch(ctx context.Context, tx pgx.Tx, insts []model.Installment) error {
	if len(insts) == 0 {
		return nil
	}
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`
	batch := &pgx.Batch{}
	for _, inst := range insts {
		batch.Queue(query,
			inst.ID(), inst.LoanID(), inst.EmiNo(), model.DateOf(inst.DueDate()),
			inst.Amount(), inst.PaidAmount(), inst.Balance(), inst.Penalty(),
			nullableDate(inst.PaymentDate()), nullableString(inst.PaymentMode().String()),
			inst.Status().String(), nullableString(inst.ReceiptNumber()), inst.Remarks(),
			inst.Version(), inst.CreatedAt(), inst.UpdatedAt(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert installments: %w", err)
	}
	return nil
}

func (r *InstallmentRepo) queryInstallments(ctx context.Context, query string, args ...any) ([]model.Installment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var out []model.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func scanInstallment(s scannable) (model.Installment, error) {
	var (
		id, loanID                           string
		emiNo, version                       int
		dueDate                              time.Time
		amount, paidAmount, balance, penalty decimal.Decimal
		paymentDate                          *time.Time
		paymentMode, receiptNumber           *string
		statusStr, remarks                   string
		createdAt, updatedAt                 time.Time
	)

	err := s.Scan(
		&id, &loanID, &emiNo, &dueDate, &amount, &paidAmount, &balance, &penalty,
		&paymentDate, &paymentMode, &statusStr, &receiptNumber, &remarks,
		&version, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Installment{}, err
	}

	status, err := valueobject.NewInstallmentStatus(statusStr)
	if err != nil {
		return model.Installment{}, fmt.Errorf("installment %s: %w", id, err)
	}
	var mode valueobject.PaymentMode
	if m := derefString(paymentMode); m != "" {
		if mode, err = valueobject.NewPaymentMode(m); err != nil {
			return model.Installment{}, fmt.Errorf("installment %s: %w", id, err)
		}
	}

	return model.ReconstructInstallment(
		id, loanID, emiNo, dueDate.UTC(),
		amount, paidAmount, balance, penalty,
		derefTime(paymentDate), mode, status,
		derefString(receiptNumber), remarks,
		version, createdAt.UTC(), updatedAt.UTC(),
	), nil
}
