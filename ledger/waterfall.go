/*
waterfall.go - Arrears-first payment allocation

PURPOSE:
  Takes one incoming payment for a student and settles older unpaid
  periods before crediting the target period. Oldest arrears first,
  strictly by (academicYear, term) ascending; each settlement creates its
  own completed payment row and recomputes its statement before the next
  allocation reads the next balance.

TARGET RESOLUTION (first match wins):
  1. Explicit statement id
  2. (academicYear, term) - creating the statement on the fly from the
     class fee and term dates if it does not exist yet
  3. Class fee id - the student's statement for that fee's term
  4. The student's most recent pending statement
  Nothing resolves -> ErrNoStatement.

AUDIT TRAIL:
  The final payment against the target is recorded even when arrears
  consumed the whole amount - a zero payment row preserves "this
  transaction targeted this period".

CONCURRENCY:
  The whole allocation runs under the student's lock; concurrent payments
  for one student serialize instead of interleaving lost updates.

SEE ALSO:
  - recompute.go: Invoked per touched statement
  - refseq.go: Reference codes, one per created payment row
*/
package ledger

import (
	"context"
	"fmt"
	"log"
)

// AllocationRequest describes one incoming payment. Exactly one target
// resolution input is required; Amount may be zero to mean "the target's
// outstanding balance".
type AllocationRequest struct {
	StudentID StudentID

	// Target resolution inputs, in precedence order.
	StatementID  StatementID
	AcademicYear AcademicYear
	Term         Term
	ClassFeeID   ClassFeeID

	Amount     Money
	Method     string
	Note       string
	RecordedBy ActorID
}

// AllocationResult reports every payment row the waterfall created and the
// target statement's final state.
type AllocationResult struct {
	Payments       []Payment
	FinalStatement Statement
}

// AllocatePayment settles a student's older arrears from the incoming
// amount, oldest first, then credits the remainder to the target statement.
func (e *Engine) AllocatePayment(ctx context.Context, req AllocationRequest) (*AllocationResult, error) {
	student, err := e.store.GetStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Sentinel: ErrStudentNotFound, ID: string(req.StudentID)}
	}

	defer e.locks.acquire(req.StudentID)()

	target, err := e.resolveTarget(ctx, student, req)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount.IsZero() {
		// Unspecified amount means "pay off the target".
		amount = target.BalanceAmount
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	log.Printf("[WATERFALL] student %s paying %s toward %s %s", student.ID, amount, target.AcademicYear, target.Term)

	arrears, err := e.store.ListPendingWithBalance(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	result := &AllocationResult{}
	remaining := amount

	for _, prev := range arrears {
		if prev.ID == target.ID {
			continue
		}
		if !remaining.IsPositive() {
			break
		}

		allocation := remaining.Min(prev.BalanceAmount)
		note := fmt.Sprintf("Payment allocated from current term payment to clear %s - %s arrears", prev.AcademicYear, prev.Term)

		p, err := e.createCompletedPayment(ctx, student, prev.ID, "", allocation, req.Method, note, req.RecordedBy)
		if err != nil {
			return nil, err
		}
		result.Payments = append(result.Payments, *p)

		if _, err := e.Recompute(ctx, prev.ID); err != nil {
			return nil, err
		}
		remaining = remaining.Sub(allocation)
		log.Printf("[WATERFALL] settled %s against %s %s, remaining %s", allocation, prev.AcademicYear, prev.Term, remaining)
	}

	// The target payment is recorded even at zero to keep the audit trail.
	// It is capped at the target's own balance: surplus beyond everything
	// owed is not recorded as a payment (no credit-forward).
	targetAmount := remaining.ClampNonNegative().Min(target.BalanceAmount)
	p, err := e.createCompletedPayment(ctx, student, target.ID, req.ClassFeeID, targetAmount, req.Method, req.Note, req.RecordedBy)
	if err != nil {
		return nil, err
	}
	result.Payments = append(result.Payments, *p)

	final, err := e.Recompute(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	result.FinalStatement = *final
	return result, nil
}

func (e *Engine) createCompletedPayment(ctx context.Context, student *Student, statementID StatementID, classFeeID ClassFeeID, amount Money, method, note string, actor ActorID) (*Payment, error) {
	ref, err := e.nextPaymentReference(ctx)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = DefaultPaymentMethod
	}

	now := nowUTC()
	p := Payment{
		ID:          PaymentID(newID()),
		Reference:   ref,
		StudentID:   student.ID,
		StatementID: statementID,
		ClassFeeID:  classFeeID,
		Amount:      amount,
		Method:      method,
		Status:      PaymentCompleted,
		PaidAt:      now,
		Note:        note,
		RecordedBy:  actor,
		ClassName:   student.ClassName,
		CreatedAt:   now,
	}
	if err := e.store.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment %s: %w", ref, err)
	}
	return &p, nil
}

// =============================================================================
// TARGET RESOLUTION
// =============================================================================

func (e *Engine) resolveTarget(ctx context.Context, student *Student, req AllocationRequest) (*Statement, error) {
	switch {
	case req.StatementID != "":
		st, err := e.store.GetStatement(ctx, req.StatementID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, &NotFoundError{Sentinel: ErrStatementNotFound, ID: string(req.StatementID)}
		}
		if st.StudentID != student.ID {
			return nil, ErrStatementOwnership
		}
		return st, nil

	case req.AcademicYear != "" && req.Term != "":
		if _, err := ParseTerm(string(req.Term)); err != nil {
			return nil, err
		}
		st, err := e.store.FindStatement(ctx, student.ID, req.AcademicYear, req.Term)
		if err != nil {
			return nil, err
		}
		if st != nil {
			return st, nil
		}
		return e.createStatementForPeriod(ctx, student, req.AcademicYear, req.Term)

	case req.ClassFeeID != "":
		fee, err := e.store.GetClassFee(ctx, req.ClassFeeID)
		if err != nil {
			return nil, err
		}
		if fee == nil {
			return nil, &NotFoundError{Sentinel: ErrClassFeeNotFound, ID: string(req.ClassFeeID)}
		}
		statements, err := e.store.ListStatementsByStudent(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		// Most recent statement matching the fee's term.
		var match *Statement
		for i := range statements {
			st := &statements[i]
			if st.Term != fee.Term {
				continue
			}
			if match == nil || st.CreatedAt.After(match.CreatedAt) {
				match = st
			}
		}
		if match == nil {
			return nil, &NotFoundError{Sentinel: ErrNoStatement, ID: string(student.ID)}
		}
		return match, nil

	default:
		st, err := e.store.LatestPendingStatement(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, &NotFoundError{Sentinel: ErrNoStatement, ID: string(student.ID)}
		}
		return st, nil
	}
}

// createStatementForPeriod lazily creates the target statement when a
// payment names an (academicYear, term) the student has no statement for.
// The fee comes from the student's current class; previous arrears are not
// folded in here - they remain on their own statements for the waterfall.
func (e *Engine) createStatementForPeriod(ctx context.Context, student *Student, year AcademicYear, term Term) (*Statement, error) {
	period, err := e.store.FindTerm(ctx, year, term)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, &NotFoundError{Sentinel: ErrTermNotFound, ID: fmt.Sprintf("%s %s", year, term)}
	}

	fee, err := e.store.FindClassFee(ctx, student.ClassID, term)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, &NotFoundError{Sentinel: ErrClassFeeNotFound, ID: fmt.Sprintf("%s %s", student.ClassID, term)}
	}

	st := Statement{
		ID:              StatementID(newID()),
		StudentID:       student.ID,
		AcademicYear:    year,
		Term:            term,
		ClassName:       student.ClassName,
		CurrentTermFee:  fee.Amount,
		PreviousBalance: ZeroMoney(),
		TotalPayable:    fee.Amount,
		AmountPaid:      ZeroMoney(),
		BalanceAmount:   fee.Amount,
		Status:          StatementPending,
		TermStart:       period.Start,
		TermEnd:         period.End,
		DueDate:         period.End,
		CreatedAt:       nowUTC(),
	}
	if err := e.store.CreateStatement(ctx, st); err != nil {
		return nil, err
	}
	log.Printf("[WATERFALL] created statement %s for %s %s on demand", st.ID, year, term)
	return &st, nil
}
