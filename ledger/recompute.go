/*
recompute.go - Balance recomputation unit

PURPOSE:
  The idempotent core primitive: derive a statement's amountPaid,
  balanceAmount, and status from its completed payments and persist the
  result. Every payment creation, payment deletion, receipt recording,
  and manual override funnels through Recompute; so does the scheduled
  sweep. There is no second "inline" calculation path anywhere.

INVARIANTS (restored on every call):
  - BalanceAmount = max(0, TotalPayable - AmountPaid)
  - Status = completed iff BalanceAmount == 0

BATCH FORMS:
  RecomputeStudent, RecomputeTerm, RecomputeYear, RecomputeActiveTerms
  re-verify whole slices of the ledger. Per-statement and per-term
  failures are collected, logged, and never abort the remainder.

SEE ALSO:
  - waterfall.go: Calls Recompute after each allocation
  - sweep.go: Calls the term walker with a per-statement timeout
*/
package ledger

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Recompute derives amountPaid/balanceAmount/status for one statement from
// its completed payments and persists the result. Idempotent: with no
// intervening payment change, a second call leaves the statement unchanged.
func (e *Engine) Recompute(ctx context.Context, id StatementID) (*Statement, error) {
	st, err := e.store.GetStatement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load statement: %w", err)
	}
	if st == nil {
		return nil, &NotFoundError{Sentinel: ErrStatementNotFound, ID: string(id)}
	}

	paid, err := e.store.SumCompleted(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sum payments for statement %s: %w", id, err)
	}

	st.AmountPaid = paid
	st.BalanceAmount = st.TotalPayable.Sub(paid).ClampNonNegative()
	if st.BalanceAmount.IsZero() {
		st.Status = StatementCompleted
	} else {
		st.Status = StatementPending
	}

	if err := e.store.UpdateStatement(ctx, *st); err != nil {
		return nil, fmt.Errorf("persist statement %s: %w", id, err)
	}
	return st, nil
}

// RecomputeStudent re-verifies every statement owned by a student.
func (e *Engine) RecomputeStudent(ctx context.Context, studentID StudentID) ([]Statement, error) {
	student, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Sentinel: ErrStudentNotFound, ID: string(studentID)}
	}

	statements, err := e.store.ListStatementsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	updated := make([]Statement, 0, len(statements))
	for _, st := range statements {
		res, err := e.Recompute(ctx, st.ID)
		if err != nil {
			log.Printf("[RECOMPUTE] statement %s for student %s: %v", st.ID, studentID, err)
			continue
		}
		updated = append(updated, *res)
	}
	return updated, nil
}

// =============================================================================
// TERM / YEAR / ACTIVE-TERM WALKERS
// =============================================================================

// StatementFailure records one statement the sweep could not recompute.
type StatementFailure struct {
	StatementID StatementID
	Reason      string
}

// TermResult is the per-term entry of a batch recomputation report.
type TermResult struct {
	AcademicYear AcademicYear
	Term         Term
	Updated      int
	Failures     []StatementFailure
	Err          string // set when the term could not be walked at all
}

// RecalcReport aggregates a batch recomputation across terms.
type RecalcReport struct {
	TotalUpdated int
	Results      []TermResult
}

// RecomputeTerm re-verifies every statement scoped to one (year, term).
// Returns the count of statements successfully updated. Per-statement
// failures are logged and skipped, never fatal.
func (e *Engine) RecomputeTerm(ctx context.Context, year AcademicYear, term Term) (int, error) {
	count, _, err := e.recomputeTermStatements(ctx, year, term, 0)
	return count, err
}

// recomputeTermStatements walks one term's statements. itemTimeout > 0
// bounds each recomputation so one stalled store call cannot stall the
// whole walk (the sweep path sets it; request paths pass 0).
func (e *Engine) recomputeTermStatements(ctx context.Context, year AcademicYear, term Term, itemTimeout time.Duration) (int, []StatementFailure, error) {
	statements, err := e.store.ListStatementsForTerm(ctx, year, term)
	if err != nil {
		return 0, nil, fmt.Errorf("list statements for %s %s: %w", year, term, err)
	}

	count := 0
	var failures []StatementFailure
	for _, st := range statements {
		itemCtx := ctx
		cancel := func() {}
		if itemTimeout > 0 {
			itemCtx, cancel = context.WithTimeout(ctx, itemTimeout)
		}
		_, err := e.Recompute(itemCtx, st.ID)
		cancel()
		if err != nil {
			log.Printf("[RECOMPUTE] %s %s statement %s: %v", year, term, st.ID, err)
			failures = append(failures, StatementFailure{StatementID: st.ID, Reason: err.Error()})
			continue
		}
		count++
	}
	return count, failures, nil
}

// RecomputeYear re-verifies every term of an academic year. A failing term
// is recorded in the report and the remaining terms are still attempted.
func (e *Engine) RecomputeYear(ctx context.Context, year AcademicYear) (*RecalcReport, error) {
	terms, err := e.store.ListTermsByYear(ctx, year)
	if err != nil {
		return nil, err
	}

	report := &RecalcReport{}
	for _, tp := range terms {
		report.Results = append(report.Results, e.walkTerm(ctx, tp, 0, report))
	}
	return report, nil
}

// RecomputeActiveTerms re-verifies every statement of every currently
// active term. This is the sweep body; it is also callable on demand.
func (e *Engine) RecomputeActiveTerms(ctx context.Context) (*RecalcReport, error) {
	return e.recomputeActiveTerms(ctx, 0)
}

func (e *Engine) recomputeActiveTerms(ctx context.Context, itemTimeout time.Duration) (*RecalcReport, error) {
	active, err := ActiveTerms(ctx, e.store, nowUTC())
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		log.Printf("[RECOMPUTE] no active terms")
		return &RecalcReport{}, nil
	}

	report := &RecalcReport{}
	for _, tp := range active {
		report.Results = append(report.Results, e.walkTerm(ctx, tp, itemTimeout, report))
	}
	return report, nil
}

func (e *Engine) walkTerm(ctx context.Context, tp TermPeriod, itemTimeout time.Duration, report *RecalcReport) TermResult {
	result := TermResult{AcademicYear: tp.AcademicYear, Term: tp.Term}
	count, failures, err := e.recomputeTermStatements(ctx, tp.AcademicYear, tp.Term, itemTimeout)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Updated = count
	result.Failures = failures
	report.TotalUpdated += count
	return result
}
