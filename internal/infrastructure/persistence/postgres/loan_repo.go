package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
)

var _ port.LoanRepository = (*LoanRepo)(nil)

// LoanRepo implements port.LoanRepository over the local copy of loans
// announced by the lending service.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a new PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Save upserts a loan. A redelivered disbursement overwrites the terms but
// never reopens a completed loan.
func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	query := `
		INSERT INTO loans (
			id, principal, interest_rate, period, emi_amount, interest_model,
			disbursed_date, status, borrower_name, borrower_email,
			version, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			principal      = EXCLUDED.principal,
			interest_rate  = EXCLUDED.interest_rate,
			period         = EXCLUDED.period,
			emi_amount     = EXCLUDED.emi_amount,
			interest_model = EXCLUDED.interest_model,
			disbursed_date = EXCLUDED.disbursed_date,
			status         = CASE WHEN loans.status = 'completed' THEN loans.status ELSE EXCLUDED.status END,
			borrower_name  = EXCLUDED.borrower_name,
			borrower_email = EXCLUDED.borrower_email,
			version        = loans.version + 1,
			updated_at     = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		loan.ID(), loan.Principal(), loan.InterestRate(), loan.Period(), loan.EMIAmount(),
		loan.InterestModel().String(), nullableDate(loan.DisbursedDate()), loan.Status().String(),
		loan.BorrowerName(), loan.BorrowerEmail(), loan.Version(), loan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save loan: %w", err)
	}
	return nil
}

// FindByID retrieves a loan by ID.
func (r *LoanRepo) FindByID(ctx context.Context, id string) (model.Loan, error) {
	query := `
		SELECT id, principal, interest_rate, period, emi_amount, interest_model,
		       disbursed_date, status, borrower_name, borrower_email,
		       version, updated_at
		FROM loans
		WHERE id = $1
	`
	loan, err := scanLoanRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return model.Loan{}, notFound(err, "loan "+id)
	}
	return loan, nil
}

func scanLoanRow(s scannable) (model.Loan, error) {
	var (
		id, interestModel, statusStr       string
		borrowerName, borrowerEmail        string
		principal, interestRate, emiAmount decimal.Decimal
		period, version                    int
		disbursedDate                      *time.Time
		updatedAt                          time.Time
	)

	err := s.Scan(
		&id, &principal, &interestRate, &period, &emiAmount, &interestModel,
		&disbursedDate, &statusStr, &borrowerName, &borrowerEmail,
		&version, &updatedAt,
	)
	if err != nil {
		return model.Loan{}, err
	}

	im, err := valueobject.NewInterestModel(interestModel)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}
	status, err := valueobject.NewLoanStatus(statusStr)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}

	return model.ReconstructLoan(
		id, principal, interestRate, period, emiAmount, im,
		derefTime(disbursedDate), status, borrowerName, borrowerEmail,
		version, updatedAt.UTC(),
	), nil
}
