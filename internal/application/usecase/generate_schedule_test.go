package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/application/usecase"
	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/valueobject"
	"github.com/bibbank/mfi-repayment/pkg/testutil"
)

func TestGenerateSchedule_Success(t *testing.T) {
	loans := newMockLoanRepository(testLoan("loan-1", 3, disbursed))
	insts := newMockInstallmentRepository()
	locker := &mockLoanLocker{}
	pub := &mockEventPublisher{}
	uc := usecase.NewGenerateScheduleUseCase(loans, insts, locker, pub, slog.Default())

	resp, err := uc.Execute(context.Background(), dto.GenerateScheduleRequest{LoanID: "loan-1"})
	require.NoError(t, err)

	require.Len(t, resp.Installments, 3)
	for i, want := range []string{"2024-02-15", "2024-03-15", "2024-04-15"} {
		assert.Equal(t, i+1, resp.Installments[i].EmiNo)
		assert.Equal(t, want, resp.Installments[i].DueDate)
		testutil.AssertAmount(t, "12000", resp.Installments[i].Amount)
		assert.Equal(t, "pending", resp.Installments[i].Status)
	}

	require.Len(t, insts.replaced, 1)
	assert.Equal(t, 3, insts.replaced[0].Len())
	assert.Len(t, pub.ofType(event.TypeScheduleGenerated), 1)
	assert.Equal(t, 1, locker.calls["loan-1"])
}

func TestGenerateSchedule_ReplacesExisting(t *testing.T) {
	old := testSchedule("loan-1", 5, disbursed)
	loans := newMockLoanRepository(testLoan("loan-1", 3, disbursed))
	insts := newMockInstallmentRepository(old...)
	uc := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, &mockEventPublisher{}, slog.Default())

	_, err := uc.Execute(context.Background(), dto.GenerateScheduleRequest{LoanID: "loan-1"})
	require.NoError(t, err)

	list, err := insts.ListByLoan(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestGenerateSchedule_Errors(t *testing.T) {
	notDisbursed := model.ReconstructLoan(
		"loan-2", dec("50000"), dec("2"), 6, dec("9333"),
		valueobject.InterestModelFlat, time.Time{}, valueobject.LoanStatusApproved,
		"", "", 1, disbursed,
	)
	zeroEMI := model.ReconstructLoan(
		"loan-3", dec("50000"), dec("2"), 6, decimal.Zero,
		valueobject.InterestModelFlat, disbursed, valueobject.LoanStatusDisbursed,
		"", "", 1, disbursed,
	)
	loans := newMockLoanRepository(notDisbursed, zeroEMI)

	tests := []struct {
		name   string
		loanID string
		reason string
	}{
		{"missing id", "", "ValidationError"},
		{"unknown loan", "loan-x", "NotFoundError"},
		{"not disbursed", "loan-2", "NotReadyError"},
		{"no emi", "loan-3", "NotReadyError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts := newMockInstallmentRepository()
			uc := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, &mockEventPublisher{}, slog.Default())

			_, err := uc.Execute(context.Background(), dto.GenerateScheduleRequest{LoanID: tt.loanID})
			require.Error(t, err)
			assert.Equal(t, tt.reason, model.ReasonOf(err))
			assert.Empty(t, insts.replaced)
		})
	}
}

func TestGenerateSchedule_ReplaceFailure(t *testing.T) {
	loans := newMockLoanRepository(testLoan("loan-1", 3, disbursed))
	insts := newMockInstallmentRepository()
	insts.replaceFunc = func(context.Context, model.Schedule) error { return fmt.Errorf("deadlock detected") }
	pub := &mockEventPublisher{}
	uc := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, pub, slog.Default())

	_, err := uc.Execute(context.Background(), dto.GenerateScheduleRequest{LoanID: "loan-1"})
	testutil.AssertErrorContains(t, err, "replace schedule")
	assert.Empty(t, pub.publishedEvents)
}

func TestRegisterDisbursedLoan(t *testing.T) {
	msg := dto.LoanDisbursedMessage{
		LoanID:        "loan-7",
		Principal:     dec("100000"),
		InterestRate:  dec("2"),
		Period:        10,
		DisbursedDate: disbursed,
		BorrowerName:  "Ravi",
		BorrowerEmail: "ravi@example.com",
	}

	t.Run("saves loan and builds schedule", func(t *testing.T) {
		loans := newMockLoanRepository()
		insts := newMockInstallmentRepository()
		gen := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, &mockEventPublisher{}, slog.Default())
		uc := usecase.NewRegisterDisbursedLoanUseCase(loans, gen, slog.Default())

		require.NoError(t, uc.Execute(context.Background(), msg))

		require.Len(t, loans.savedLoans, 1)
		assert.True(t, dec("12000").Equal(loans.savedLoans[0].EMIAmount()), "emi derived when absent")
		list, err := insts.ListByLoan(context.Background(), "loan-7")
		require.NoError(t, err)
		assert.Len(t, list, 10)
	})

	t.Run("redelivery does not erase payments", func(t *testing.T) {
		sched := testSchedule("loan-7", 10, disbursed)
		sched[0] = paidInstallment(t, sched[0], "R1")
		loans := newMockLoanRepository()
		insts := newMockInstallmentRepository(sched...)
		gen := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, &mockEventPublisher{}, slog.Default())
		uc := usecase.NewRegisterDisbursedLoanUseCase(loans, gen, slog.Default())

		require.NoError(t, uc.Execute(context.Background(), msg))
		assert.Empty(t, insts.replaced)
		assert.True(t, insts.get("loan-7", 1).Status().IsPaid())
	})

	t.Run("payment settled just before the lock is kept", func(t *testing.T) {
		sched := testSchedule("loan-7", 10, disbursed)
		loans := newMockLoanRepository()
		insts := newMockInstallmentRepository(sched...)
		locker := &hookedLoanLocker{before: func() {
			// A concurrent ApplyPayment finishes right before generation runs.
			insts.put(paidInstallment(t, sched[0], "R1"))
		}}
		gen := usecase.NewGenerateScheduleUseCase(loans, insts, locker, &mockEventPublisher{}, slog.Default())
		uc := usecase.NewRegisterDisbursedLoanUseCase(loans, gen, slog.Default())

		require.NoError(t, uc.Execute(context.Background(), msg))
		assert.Empty(t, insts.replaced)
		assert.True(t, insts.get("loan-7", 1).Status().IsPaid())
	})

	t.Run("invalid message", func(t *testing.T) {
		bad := msg
		bad.InterestModel = "balloon"
		loans := newMockLoanRepository()
		insts := newMockInstallmentRepository()
		gen := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, &mockEventPublisher{}, slog.Default())
		uc := usecase.NewRegisterDisbursedLoanUseCase(loans, gen, slog.Default())

		err := uc.Execute(context.Background(), bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrValidation))
	})
}

// hookedLoanLocker runs before once the lock is held, ahead of fn.
type hookedLoanLocker struct {
	before func()
}

func (h *hookedLoanLocker) WithLoanLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if h.before != nil {
		h.before()
	}
	return fn(ctx)
}

func TestGenerateSchedule_PreservePayments(t *testing.T) {
	sched := testSchedule("loan-1", 3, disbursed)
	sched[1] = paidInstallment(t, sched[1], "R2")
	loans := newMockLoanRepository(testLoan("loan-1", 3, disbursed))
	insts := newMockInstallmentRepository(sched...)
	pub := &mockEventPublisher{}
	uc := usecase.NewGenerateScheduleUseCase(loans, insts, &mockLoanLocker{}, pub, slog.Default())

	resp, err := uc.Execute(context.Background(), dto.GenerateScheduleRequest{LoanID: "loan-1", PreservePayments: true})
	require.NoError(t, err)
	assert.True(t, resp.Preserved)
	assert.Len(t, resp.Installments, 3)
	assert.Empty(t, insts.replaced)
	assert.Empty(t, pub.publishedEvents)

	resp, err = uc.Execute(context.Background(), dto.GenerateScheduleRequest{LoanID: "loan-1"})
	require.NoError(t, err)
	assert.False(t, resp.Preserved)
	assert.Len(t, insts.replaced, 1)
}
