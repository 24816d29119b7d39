//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/mfi-repayment/pkg/testutil"
)

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "migrations")
}

var (
	dbOnce sync.Once
	dbPG   *testutil.PostgresContainer
)

// setupTestDB shares one container across the package and empties the
// tables for each test.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dbOnce.Do(func() {
		dbPG = testutil.NewPostgresContainer(ctx, t)
		dbPG.RunMigrations(t, migrationsDir())
	})
	dbPG.Truncate(ctx, t, "installments", "loans", "penalty_settings", "leave_days", "outbox")
	return dbPG.Pool
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func disbursedLoan(t *testing.T, id string, period int) model.Loan {
	t.Helper()
	loan, err := model.NewLoan(
		id, decimal.NewFromInt(100000), decimal.NewFromInt(2), period, decimal.Zero,
		valueobject.InterestModelFlat, day(2024, 1, 31), valueobject.LoanStatusDisbursed,
		"Meena K", "meena@example.com", time.Now().UTC().Truncate(time.Microsecond),
	)
	require.NoError(t, err)
	return loan
}

func TestLoanRepo_SaveAndFind(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewLoanRepo(pool)
	ctx := context.Background()

	loan := disbursedLoan(t, "loan-100", 10)
	require.NoError(t, repo.Save(ctx, loan))

	got, err := repo.FindByID(ctx, "loan-100")
	require.NoError(t, err)
	assert.True(t, loan.Principal().Equal(got.Principal()))
	assert.True(t, decimal.NewFromInt(12000).Equal(got.EMIAmount()))
	assert.Equal(t, 10, got.Period())
	assert.Equal(t, day(2024, 1, 31), got.DisbursedDate())
	assert.Equal(t, "disbursed", got.Status().String())
	assert.Equal(t, "meena@example.com", got.BorrowerEmail())

	completed, err := got.MarkCompleted(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, completed))

	// a redelivered disbursement does not reopen the loan
	require.NoError(t, repo.Save(ctx, loan))
	got, err = repo.FindByID(ctx, "loan-100")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status().String())

	_, err = repo.FindByID(ctx, "loan-missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestInstallmentRepo_ReplaceAndList(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewInstallmentRepo(pool)
	ctx := context.Background()

	loan := disbursedLoan(t, "loan-200", 3)
	sched, err := model.GenerateSchedule(loan, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceSchedule(ctx, sched))

	list, err := repo.ListByLoan(ctx, "loan-200")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, day(2024, 2, 29), list[0].DueDate(), "clamped to month end")
	assert.Equal(t, day(2024, 3, 31), list[1].DueDate())
	assert.Equal(t, day(2024, 4, 30), list[2].DueDate())
	for i, inst := range list {
		assert.Equal(t, i+1, inst.EmiNo())
		assert.Equal(t, "pending", inst.Status().String())
		assert.True(t, inst.PaymentMode().IsZero())
		assert.True(t, inst.PaymentDate().IsZero())
	}

	shorter := model.ReconstructLoan(
		loan.ID(), loan.Principal(), loan.InterestRate(), 2, loan.EMIAmount(), loan.InterestModel(),
		loan.DisbursedDate(), loan.Status(), "", "", 1, time.Now().UTC(),
	)
	sched, err = model.GenerateSchedule(shorter, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceSchedule(ctx, sched))

	list, err = repo.ListByLoan(ctx, "loan-200")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestInstallmentRepo_UpdateAndOverdue(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewInstallmentRepo(pool)
	ctx := context.Background()

	sched, err := model.GenerateSchedule(disbursedLoan(t, "loan-300", 3), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceSchedule(ctx, sched))

	inst, err := repo.FindByLoanAndEmiNo(ctx, "loan-300", 1)
	require.NoError(t, err)

	paid, err := inst.ApplyPayment(model.Payment{
		Amount:  decimal.NewFromInt(12000),
		Date:    day(2024, 2, 28),
		Mode:    valueobject.PaymentModeCheque,
		Remarks: "cheque 000123",
	}, decimal.Zero, "RCP20240228000001", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, paid))

	got, err := repo.FindByLoanAndEmiNo(ctx, "loan-300", 1)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status().String())
	assert.Equal(t, "cheque", got.PaymentMode().String())
	assert.Equal(t, day(2024, 2, 28), got.PaymentDate())
	assert.Equal(t, "RCP20240228000001", got.ReceiptNumber())
	assert.True(t, got.Balance().IsZero())
	assert.Equal(t, paid.Version(), got.Version())

	// the stale copy loses
	err = repo.Update(ctx, paid)
	assert.True(t, errors.Is(err, postgres.ErrVersionConflict))

	overdue, err := repo.ListOverdue(ctx, day(2024, 4, 1), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 2, overdue[0].EmiNo())

	_, err = repo.FindByLoanAndEmiNo(ctx, "loan-300", 9)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestPenaltySettingsRepo(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewPenaltySettingsRepo(pool)
	ctx := context.Background()

	_, err := repo.Current(ctx, day(2024, 6, 1))
	assert.True(t, errors.Is(err, model.ErrNotFound))

	seeded, err := repo.SeedIfEmpty(ctx, model.DefaultPenaltySettings())
	require.NoError(t, err)
	assert.True(t, seeded)

	weekly, err := model.NewPenaltySettings(decimal.NewFromInt(1), "per_week", day(2024, 7, 1))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, weekly))

	got, err := repo.Current(ctx, day(2024, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, "per_day", got.Type.String())

	got, err = repo.Current(ctx, day(2024, 7, 1))
	require.NoError(t, err)
	assert.Equal(t, "per_week", got.Type.String())
	assert.True(t, decimal.NewFromInt(1).Equal(got.Rate))

	seeded, err = repo.SeedIfEmpty(ctx, model.DefaultPenaltySettings())
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestLeaveDayRepo(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewLeaveDayRepo(pool)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, model.LeaveDay{Date: day(2024, 6, 5), Reason: "Festival"}))
	require.NoError(t, repo.Add(ctx, model.LeaveDay{Date: day(2024, 6, 20), Reason: "Audit"}))
	require.NoError(t, repo.Add(ctx, model.LeaveDay{Date: day(2024, 6, 5), Reason: "Eid"}))

	got, err := repo.ListBetween(ctx, day(2024, 6, 1), day(2024, 6, 9))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, 6, 5), got[0].Date)
	assert.Equal(t, "Eid", got[0].Reason)
}

func TestOutboxRepo(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewOutboxRepo(pool)
	ctx := context.Background()

	evt := event.NewInstallmentPaid("loan-400", 1, decimal.NewFromInt(12000), "RCP-1", time.Now().UTC())
	require.NoError(t, repo.Publish(ctx, evt))
	require.NoError(t, repo.Publish(ctx, evt), "storing twice is a no-op")

	pending, err := repo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, evt.EventID(), pending[0].ID)
	assert.Equal(t, event.TypeInstallmentPaid, pending[0].EventType)
	assert.Equal(t, "loan-400", pending[0].AggregateID)
	assert.Contains(t, string(pending[0].Payload), "RCP-1")

	require.NoError(t, repo.MarkPublished(ctx, []string{pending[0].ID}))
	pending, err = repo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
