package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearledger/fee-engine/ledger"
	"github.com/clearledger/fee-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const year27 = ledger.AcademicYear("2026-2027")

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func statement(id, studentID string, year ledger.AcademicYear, term ledger.Term, payable float64) ledger.Statement {
	now := time.Now().UTC()
	total := ledger.NewMoney(payable)
	return ledger.Statement{
		ID:             ledger.StatementID(id),
		StudentID:      ledger.StudentID(studentID),
		AcademicYear:   year,
		Term:           term,
		ClassName:      "Class p4",
		CurrentTermFee: total,
		TotalPayable:   total,
		AmountPaid:     ledger.ZeroMoney(),
		BalanceAmount:  total,
		Status:         ledger.StatementPending,
		TermStart:      now.AddDate(0, -1, 0),
		TermEnd:        now.AddDate(0, 2, 0),
		DueDate:        now.AddDate(0, 2, 0),
		CreatedAt:      now,
	}
}

// =============================================================================
// STATEMENTS
// =============================================================================

func TestSQLiteStore_StatementRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st := statement("st-1", "stu-1", year27, ledger.Term1, 1234.50)
	require.NoError(t, store.CreateStatement(ctx, st))

	got, err := store.GetStatement(ctx, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, st.StudentID, got.StudentID)
	assert.Equal(t, st.AcademicYear, got.AcademicYear)
	assert.Equal(t, st.Term, got.Term)
	assert.True(t, got.TotalPayable.Equal(ledger.NewMoney(1234.50)), "totalPayable: %s", got.TotalPayable)
	assert.Equal(t, ledger.StatementPending, got.Status)
}

func TestSQLiteStore_DuplicatePeriod_Rejected(t *testing.T) {
	// GIVEN: A statement for (stu-1, 2026-2027, term1)
	// WHEN: Creating another row for the same period
	// THEN: The unique constraint surfaces as ErrDuplicateStatement

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, statement("st-1", "stu-1", year27, ledger.Term1, 100)))

	err := store.CreateStatement(ctx, statement("st-2", "stu-1", year27, ledger.Term1, 100))
	assert.ErrorIs(t, err, ledger.ErrDuplicateStatement)

	// Same period, different student is fine.
	require.NoError(t, store.CreateStatement(ctx, statement("st-3", "stu-2", year27, ledger.Term1, 100)))
}

func TestSQLiteStore_GetStatement_Missing_NilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetStatement(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpdateStatement_Missing(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateStatement(context.Background(), statement("ghost", "stu-1", year27, ledger.Term1, 100))
	assert.ErrorIs(t, err, ledger.ErrStatementNotFound)
}

func TestSQLiteStore_ListPendingWithBalance_OldestFirst(t *testing.T) {
	// GIVEN: Pending statements across years and terms, one completed
	// WHEN: Listing pending-with-balance
	// THEN: Oldest period first; the completed row is excluded

	store := newTestStore(t)
	ctx := context.Background()

	newer := statement("st-new", "stu-1", "2027-2028", ledger.Term1, 100)
	older := statement("st-old", "stu-1", year27, ledger.Term2, 100)
	oldest := statement("st-oldest", "stu-1", year27, ledger.Term1, 100)
	settled := statement("st-done", "stu-1", year27, ledger.Term3, 100)
	settled.AmountPaid = settled.TotalPayable
	settled.BalanceAmount = ledger.ZeroMoney()
	settled.Status = ledger.StatementCompleted

	for _, st := range []ledger.Statement{newer, older, oldest, settled} {
		require.NoError(t, store.CreateStatement(ctx, st))
	}

	got, err := store.ListPendingWithBalance(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ledger.StatementID("st-oldest"), got[0].ID)
	assert.Equal(t, ledger.StatementID("st-old"), got[1].ID)
	assert.Equal(t, ledger.StatementID("st-new"), got[2].ID)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestSQLiteStore_SumCompleted_DecimalExact(t *testing.T) {
	// GIVEN: Completed payments with cent-level amounts plus a pending one
	// WHEN: Summing
	// THEN: The sum is exact and skips the pending row

	store := newTestStore(t)
	ctx := context.Background()

	st := statement("st-1", "stu-1", year27, ledger.Term1, 1000)
	require.NoError(t, store.CreateStatement(ctx, st))

	mk := func(id string, amount float64, status ledger.PaymentStatus) ledger.Payment {
		now := time.Now().UTC()
		return ledger.Payment{
			ID:          ledger.PaymentID(id),
			Reference:   "FEE-" + id,
			StudentID:   "stu-1",
			StatementID: st.ID,
			Amount:      ledger.NewMoney(amount),
			Method:      "cash",
			Status:      status,
			PaidAt:      now,
			CreatedAt:   now,
		}
	}
	require.NoError(t, store.CreatePayment(ctx, mk("p-1", 0.10, ledger.PaymentCompleted)))
	require.NoError(t, store.CreatePayment(ctx, mk("p-2", 0.20, ledger.PaymentCompleted)))
	require.NoError(t, store.CreatePayment(ctx, mk("p-3", 99.99, ledger.PaymentPending)))

	sum, err := store.SumCompleted(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(ledger.MustParseMoney("0.30")), "sum: %s", sum)
}

// =============================================================================
// TERM PERIODS
// =============================================================================

func TestSQLiteStore_UpdateTerm_ReplacesDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateTerm(ctx, ledger.TermPeriod{
		AcademicYear: year27, Term: ledger.Term1, Start: start, End: end,
	}))

	newEnd := end.AddDate(0, 1, 0)
	require.NoError(t, store.UpdateTerm(ctx, ledger.TermPeriod{
		AcademicYear: year27, Term: ledger.Term1, Start: start, End: newEnd,
	}))

	got, err := store.FindTerm(ctx, year27, ledger.Term1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.End.Equal(newEnd), "end: %s", got.End)
}

func TestSQLiteStore_UpdateTerm_Missing(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateTerm(context.Background(), ledger.TermPeriod{
		AcademicYear: year27, Term: ledger.Term2,
		Start: time.Now().UTC(), End: time.Now().UTC().AddDate(0, 3, 0),
	})
	assert.ErrorIs(t, err, ledger.ErrTermNotFound)
}

// =============================================================================
// SEQUENCES
// =============================================================================

func TestSQLiteStore_NextSequence_Monotonic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := uint64(1); want <= 5; want++ {
		n, err := store.NextSequence(ctx, ledger.PaymentSequenceName)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// Independent counters per name.
	n, err := store.NextSequence(ctx, ledger.ReceiptSequenceName)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestSQLiteStore_ImplementsLedgerStore(t *testing.T) {
	var _ ledger.Store = newTestStore(t)
}
