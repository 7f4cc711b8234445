package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearledger/fee-engine/ledger"
)

// =============================================================================
// STATEMENT CREATION PROPAGATION
// =============================================================================

func TestEnsureStatements_CreatesForActiveTerms(t *testing.T) {
	// GIVEN: One active term with a fee for the student's class
	// WHEN: Ensuring statements
	// THEN: A pending statement for that term, payable = the class fee

	engine, mem := newTestEngine()
	ctx := context.Background()

	s := seedStudent(t, mem, "stu-1", "p4")
	seedActiveTerm(t, mem, year27, ledger.Term1)
	seedClassFee(t, mem, "fee-1", "p4", ledger.Term1, 900)

	created, err := engine.EnsureStatements(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)

	st := created[0]
	assert.Equal(t, year27, st.AcademicYear)
	assert.Equal(t, ledger.Term1, st.Term)
	assert.True(t, st.PreviousBalance.IsZero())
	assert.True(t, st.TotalPayable.Equal(money(900)))
	assert.True(t, st.BalanceAmount.Equal(money(900)))
	assert.Equal(t, ledger.StatementPending, st.Status)
}

func TestEnsureStatements_Idempotent(t *testing.T) {
	// GIVEN: Statements already created for the active term
	// WHEN: Ensuring again
	// THEN: Nothing new is created

	engine, mem := newTestEngine()
	ctx := context.Background()

	s := seedStudent(t, mem, "stu-1", "p4")
	seedActiveTerm(t, mem, year27, ledger.Term1)
	seedClassFee(t, mem, "fee-1", "p4", ledger.Term1, 900)

	first, err := engine.EnsureStatements(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := engine.EnsureStatements(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, second)

	all, err := mem.ListStatementsByStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEnsureStatements_CarriesPreviousBalanceForward(t *testing.T) {
	// GIVEN: An unpaid term1 statement (balance 400) and term2 turning active
	// WHEN: Ensuring statements
	// THEN: term2's previousBalance is 400 and payable = 400 + fee

	engine, mem := newTestEngine()
	ctx := context.Background()

	s := seedStudent(t, mem, "stu-1", "p4")
	st1 := seedStatement(t, mem, "st-1", s.ID, year27, ledger.Term1, 1000)
	seedCompletedPayment(t, mem, "p-1", s.ID, st1.ID, 600)
	_, err := engine.Recompute(ctx, st1.ID)
	require.NoError(t, err)

	seedActiveTerm(t, mem, year27, ledger.Term2)
	seedClassFee(t, mem, "fee-2", "p4", ledger.Term2, 1000)

	created, err := engine.EnsureStatements(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)

	st2 := created[0]
	assert.True(t, st2.PreviousBalance.Equal(money(400)), "previousBalance: %s", st2.PreviousBalance)
	assert.True(t, st2.TotalPayable.Equal(money(1400)), "totalPayable: %s", st2.TotalPayable)
}

func TestEnsureStatements_NoClassFee_Skips(t *testing.T) {
	// GIVEN: An active term but no fee configured for the student's class
	// WHEN: Ensuring statements
	// THEN: Nothing is created and no error is raised

	engine, mem := newTestEngine()
	ctx := context.Background()

	s := seedStudent(t, mem, "stu-1", "p4")
	seedActiveTerm(t, mem, year27, ledger.Term1)

	created, err := engine.EnsureStatements(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestEnsureStatements_StudentNotFound(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.EnsureStatements(context.Background(), "ghost")
	assert.ErrorIs(t, err, ledger.ErrStudentNotFound)
}

// =============================================================================
// CLASS CHANGE PROPAGATION
// =============================================================================

func TestApplyClassChange_CollapsesBalanceIntoNewTotal(t *testing.T) {
	// GIVEN: A student owing 600 of 1000 (400 paid) in the active term
	// WHEN: Moving to a new class with a different fee
	// THEN: The statement keeps the 600 debt as its new total, paid resets
	//       to zero, and the fee snapshot comes from the new class

	engine, mem := newTestEngine()
	ctx := context.Background()

	s := seedStudent(t, mem, "stu-1", "p4")
	seedActiveTerm(t, mem, year27, ledger.Term1)
	seedClassFee(t, mem, "fee-p5", "p5", ledger.Term1, 1200)

	st := seedStatement(t, mem, "st-1", s.ID, year27, ledger.Term1, 1000)
	seedCompletedPayment(t, mem, "p-1", s.ID, st.ID, 400)
	_, err := engine.Recompute(ctx, st.ID)
	require.NoError(t, err)

	updated, err := engine.ApplyClassChange(ctx, s.ID, "p5")
	require.NoError(t, err)
	require.Len(t, updated, 1)

	got := updated[0]
	assert.True(t, got.TotalPayable.Equal(money(600)), "totalPayable: %s", got.TotalPayable)
	assert.True(t, got.AmountPaid.IsZero(), "amountPaid: %s", got.AmountPaid)
	assert.True(t, got.BalanceAmount.Equal(money(600)), "balance: %s", got.BalanceAmount)
	assert.Equal(t, ledger.StatementPending, got.Status)
	assert.True(t, got.CurrentTermFee.Equal(money(1200)), "fee snapshot: %s", got.CurrentTermFee)
	assert.Equal(t, "Class p5", got.ClassName)

	// The student record follows the class.
	reloaded, err := mem.GetStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ClassID("p5"), reloaded.ClassID)
	assert.Equal(t, "Class p5", reloaded.ClassName)
}

func TestApplyClassChange_NoFeeForNewClass_SkipsStatement(t *testing.T) {
	// GIVEN: The new class has no fee for the active term
	// WHEN: Changing class
	// THEN: The statement is left alone but the student is still reassigned

	engine, mem := newTestEngine()
	ctx := context.Background()

	s := seedStudent(t, mem, "stu-1", "p4")
	seedActiveTerm(t, mem, year27, ledger.Term1)
	seedStatement(t, mem, "st-1", s.ID, year27, ledger.Term1, 1000)

	updated, err := engine.ApplyClassChange(ctx, s.ID, "p5")
	require.NoError(t, err)
	assert.Empty(t, updated)

	st, err := mem.GetStatement(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, st.TotalPayable.Equal(money(1000)))

	reloaded, err := mem.GetStudent(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ClassID("p5"), reloaded.ClassID)
}

func TestApplyClassChange_StudentNotFound(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.ApplyClassChange(context.Background(), "ghost", "p5")
	assert.ErrorIs(t, err, ledger.ErrStudentNotFound)
}
