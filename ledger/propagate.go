/*
propagate.go - Term and class-change propagation

PURPOSE:
  Keeps the ledger attached to the correct fee schedule when the world
  moves around it. Two triggers:

  1. A term becomes known for a student (enrollment, or a new term turns
     active): create the missing statements, carrying the previous
     period's balance forward as arrears.

  2. A student changes class mid-term: re-point every active term's
     statement at the new class's fee. The remaining unpaid amount
     becomes the new total and paid history is zeroed - "forget payment
     history, keep the debt". That collapse discards per-term payment
     attribution; it is the confirmed intended policy, not an accident.

IDEMPOTENCE:
  Statement creation skips silently when the (student, year, term) row
  already exists, so EnsureStatements can run on every enrollment event,
  term creation, and sweep without duplicating rows.

SEE ALSO:
  - term.go: Active-term predicate feeding both triggers
*/
package ledger

import (
	"context"
	"fmt"
	"log"
)

// EnsureStatements creates a statement for every currently active term the
// student lacks one for. Safe to call repeatedly.
func (e *Engine) EnsureStatements(ctx context.Context, studentID StudentID) ([]Statement, error) {
	student, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Sentinel: ErrStudentNotFound, ID: string(studentID)}
	}

	defer e.locks.acquire(studentID)()

	active, err := ActiveTerms(ctx, e.store, nowUTC())
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		log.Printf("[PROPAGATE] no active terms, nothing to create for student %s", studentID)
		return nil, nil
	}

	var created []Statement
	for _, tp := range active {
		st, err := e.ensureStatementForTerm(ctx, student, tp)
		if err != nil {
			return created, err
		}
		if st != nil {
			created = append(created, *st)
		}
	}
	return created, nil
}

func (e *Engine) ensureStatementForTerm(ctx context.Context, student *Student, tp TermPeriod) (*Statement, error) {
	fee, err := e.store.FindClassFee(ctx, student.ClassID, tp.Term)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		// No fee configured for this class and term; nothing to bill.
		log.Printf("[PROPAGATE] no class fee for class %s in %s, skipping student %s", student.ClassID, tp.Term, student.ID)
		return nil, nil
	}

	existing, err := e.store.FindStatement(ctx, student.ID, tp.AcademicYear, tp.Term)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	// Carry the most recent prior period's balance within the same
	// academic year forward as arrears.
	previousBalance := ZeroMoney()
	prior, err := e.store.LatestStatementForYear(ctx, student.ID, tp.AcademicYear)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		previousBalance = prior.BalanceAmount
	}

	totalPayable := previousBalance.Add(fee.Amount)
	st := Statement{
		ID:              StatementID(newID()),
		StudentID:       student.ID,
		AcademicYear:    tp.AcademicYear,
		Term:            tp.Term,
		ClassName:       student.ClassName,
		CurrentTermFee:  fee.Amount,
		PreviousBalance: previousBalance,
		TotalPayable:    totalPayable,
		AmountPaid:      ZeroMoney(),
		BalanceAmount:   totalPayable,
		Status:          StatementPending,
		TermStart:       tp.Start,
		TermEnd:         tp.End,
		DueDate:         tp.End,
		CreatedAt:       nowUTC(),
	}
	if err := e.store.CreateStatement(ctx, st); err != nil {
		return nil, fmt.Errorf("create statement for %s %s: %w", tp.AcademicYear, tp.Term, err)
	}
	log.Printf("[PROPAGATE] statement created for student %s - %s %s (payable %s)", student.ID, tp.AcademicYear, tp.Term, totalPayable)
	return &st, nil
}

// ApplyClassChange reassigns the student to a new class and rewrites every
// active term's statement against the new class's fee schedule. The
// statement's remaining balance becomes its new total payable; amountPaid
// resets to zero.
func (e *Engine) ApplyClassChange(ctx context.Context, studentID StudentID, newClassID ClassID) ([]Statement, error) {
	student, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &NotFoundError{Sentinel: ErrStudentNotFound, ID: string(studentID)}
	}

	defer e.locks.acquire(studentID)()

	active, err := ActiveTerms(ctx, e.store, nowUTC())
	if err != nil {
		return nil, err
	}

	var updated []Statement
	newClassName := student.ClassName
	for _, tp := range active {
		st, err := e.store.FindStatement(ctx, studentID, tp.AcademicYear, tp.Term)
		if err != nil {
			return updated, err
		}
		if st == nil {
			log.Printf("[PROPAGATE] no statement for student %s in %s %s, skipping", studentID, tp.AcademicYear, tp.Term)
			continue
		}

		fee, err := e.store.FindClassFee(ctx, newClassID, tp.Term)
		if err != nil {
			return updated, err
		}
		if fee == nil {
			log.Printf("[PROPAGATE] no class fee for class %s in %s, skipping", newClassID, tp.Term)
			continue
		}
		newClassName = fee.ClassName

		// Collapse paid history: the outstanding balance is the new total.
		st.ClassName = fee.ClassName
		st.CurrentTermFee = fee.Amount
		st.TotalPayable = st.BalanceAmount
		st.AmountPaid = ZeroMoney()
		st.BalanceAmount = st.TotalPayable
		st.Status = StatementPending

		if err := e.store.UpdateStatement(ctx, *st); err != nil {
			return updated, fmt.Errorf("rewrite statement %s on class change: %w", st.ID, err)
		}
		updated = append(updated, *st)
		log.Printf("[PROPAGATE] class change for student %s in %s %s: new class %s, payable %s", studentID, tp.AcademicYear, tp.Term, fee.ClassName, st.TotalPayable)
	}

	student.ClassID = newClassID
	student.ClassName = newClassName
	if err := e.store.UpdateStudent(ctx, *student); err != nil {
		return updated, fmt.Errorf("update student %s class: %w", studentID, err)
	}
	return updated, nil
}
