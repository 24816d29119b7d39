package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

var (
	_ port.PenaltySettingsProvider = (*PenaltySettingsRepo)(nil)
	_ port.LeaveDayProvider        = (*LeaveDayRepo)(nil)
)

// PenaltySettingsRepo stores penalty policies with the date they take effect.
type PenaltySettingsRepo struct {
	pool *pgxpool.Pool
}

// NewPenaltySettingsRepo creates a new PostgreSQL-backed settings repository.
func NewPenaltySettingsRepo(pool *pgxpool.Pool) *PenaltySettingsRepo {
	return &PenaltySettingsRepo{pool: pool}
}

// Current returns the newest policy effective on or before asOf. A stored
// row that fails validation yields an error wrapping model.ErrConfiguration.
func (r *PenaltySettingsRepo) Current(ctx context.Context, asOf time.Time) (model.PenaltySettings, error) {
	query := `
		SELECT penalty_rate, penalty_type, effective_from
		FROM penalty_settings
		WHERE effective_from <= $1
		ORDER BY effective_from DESC, id DESC
		LIMIT 1
	`
	var (
		rate    decimal.Decimal
		rawType string
		from    time.Time
	)
	if err := r.pool.QueryRow(ctx, query, model.DateOf(asOf)).Scan(&rate, &rawType, &from); err != nil {
		return model.PenaltySettings{}, notFound(err, "penalty settings")
	}
	return model.NewPenaltySettings(rate, rawType, from.UTC())
}

// Save records a policy.
func (r *PenaltySettingsRepo) Save(ctx context.Context, s model.PenaltySettings) error {
	query := `
		INSERT INTO penalty_settings (penalty_rate, penalty_type, effective_from)
		VALUES ($1, $2, $3)
	`
	if _, err := r.pool.Exec(ctx, query, s.Rate, s.Type.String(), model.DateOf(s.EffectiveFrom)); err != nil {
		return fmt.Errorf("save penalty settings: %w", err)
	}
	return nil
}

// SeedIfEmpty stores s when no policy exists yet.
func (r *PenaltySettingsRepo) SeedIfEmpty(ctx context.Context, s model.PenaltySettings) (bool, error) {
	query := `
		INSERT INTO penalty_settings (penalty_rate, penalty_type, effective_from)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (SELECT 1 FROM penalty_settings)
	`
	tag, err := r.pool.Exec(ctx, query, s.Rate, s.Type.String(), model.DateOf(s.EffectiveFrom))
	if err != nil {
		return false, fmt.Errorf("seed penalty settings: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LeaveDayRepo reads the administrator-maintained leave calendar.
type LeaveDayRepo struct {
	pool *pgxpool.Pool
}

// NewLeaveDayRepo creates a new PostgreSQL-backed leave day repository.
func NewLeaveDayRepo(pool *pgxpool.Pool) *LeaveDayRepo {
	return &LeaveDayRepo{pool: pool}
}

// ListBetween returns leave days within [start, end] ordered by date.
func (r *LeaveDayRepo) ListBetween(ctx context.Context, start, end time.Time) ([]model.LeaveDay, error) {
	query := `
		SELECT leave_date, reason
		FROM leave_days
		WHERE leave_date BETWEEN $1 AND $2
		ORDER BY leave_date
	`
	rows, err := r.pool.Query(ctx, query, model.DateOf(start), model.DateOf(end))
	if err != nil {
		return nil, fmt.Errorf("query leave days: %w", err)
	}
	defer rows.Close()

	var out []model.LeaveDay
	for rows.Next() {
		var ld model.LeaveDay
		if err := rows.Scan(&ld.Date, &ld.Reason); err != nil {
			return nil, fmt.Errorf("scan leave day: %w", err)
		}
		ld.Date = ld.Date.UTC()
		out = append(out, ld)
	}
	return out, rows.Err()
}

// Add upserts a leave day.
func (r *LeaveDayRepo) Add(ctx context.Context, ld model.LeaveDay) error {
	query := `
		INSERT INTO leave_days (leave_date, reason) VALUES ($1, $2)
		ON CONFLICT (leave_date) DO UPDATE SET reason = EXCLUDED.reason
	`
	if _, err := r.pool.Exec(ctx, query, model.DateOf(ld.Date), ld.Reason); err != nil {
		return fmt.Errorf("save leave day: %w", err)
	}
	return nil
}
