/*
Package ledger provides the fee ledger reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms for keeping
  per-student, per-term billing statements consistent with their payment
  history: balance recomputation, arrears-first payment allocation,
  reference sequencing, term/class-change propagation, and the recurring
  reconciliation sweep.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A decimal money amount (no floating point, ever)
  - Statement: One billing row per (student, academicYear, term)
  - Payment: One row per money movement, linked to exactly one Statement
  - TermPeriod: An (academicYear, term) pair with start/end dates

DESIGN PRINCIPLES:
  1. Derived state: amountPaid/balanceAmount/status are always recomputed
     from completed payments, never trusted as stored truth
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing student/statement IDs
  4. Auditability: Every payment carries a reference code, actor, and note

SEE ALSO:
  - recompute.go: Balance recomputation from payment history
  - waterfall.go: Arrears-first allocation of incoming payments
  - term.go: Active-term predicate
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal amount in the school's single currency
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}
func (m Money) String() string { return m.Value.StringFixed(2) }

// ClampNonNegative floors a money amount at zero. Balances never go negative:
// an over-paid statement has balance 0, not a credit.
func (m Money) ClampNonNegative() Money {
	if m.IsNegative() {
		return ZeroMoney()
	}
	return m
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StudentID string
type StatementID string
type PaymentID string
type ReceiptID string
type ClassID string
type ClassFeeID string
type ActorID string

// AcademicYear uses the "2026-2027" form. Lexical order is chronological order.
type AcademicYear string

// =============================================================================
// TERM - Enumerated school term within an academic year
// =============================================================================

type Term string

const (
	Term1 Term = "term1"
	Term2 Term = "term2"
	Term3 Term = "term3"
)

// ParseTerm validates a term value. Lexical order of valid terms is
// chronological order, which the arrears waterfall relies on.
func ParseTerm(s string) (Term, error) {
	switch Term(s) {
	case Term1, Term2, Term3:
		return Term(s), nil
	default:
		return "", &InvalidTermError{Value: s}
	}
}

// =============================================================================
// STATEMENT - The ledger row: one per (student, academicYear, term)
// =============================================================================

type StatementStatus string

const (
	StatementPending   StatementStatus = "pending"
	StatementCompleted StatementStatus = "completed"
)

// Statement is the billing row for one student in one term.
//
// INVARIANTS (restored by every recomputation):
//   - BalanceAmount = max(0, TotalPayable - AmountPaid)
//   - Status = completed iff BalanceAmount is zero
//
// TotalPayable = PreviousBalance + CurrentTermFee, fixed at creation.
// The only operation allowed to rewrite it is a class change, which
// collapses the paid history into the remaining debt (see propagate.go).
type Statement struct {
	ID           StatementID
	StudentID    StudentID
	AcademicYear AcademicYear
	Term         Term

	ClassName      string // snapshot of the student's class at creation
	CurrentTermFee Money  // snapshot of the class fee at creation
	PreviousBalance Money // arrears carried from the prior period

	TotalPayable  Money
	AmountPaid    Money // derived
	BalanceAmount Money // derived
	Status        StatementStatus

	TermStart time.Time
	TermEnd   time.Time
	DueDate   time.Time
	CreatedAt time.Time
}

// =============================================================================
// PAYMENT - One row per money movement
// =============================================================================

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

const DefaultPaymentMethod = "cash"

// Payment records a single money movement against a statement. Only
// completed payments count toward a statement's AmountPaid. Amounts are
// never mutated after creation; a mistaken payment is deleted (receipt
// guard permitting) and the statement recomputed.
type Payment struct {
	ID          PaymentID
	Reference   string // e.g. "FEE-000123", strictly increasing
	StudentID   StudentID
	StatementID StatementID
	ClassFeeID  ClassFeeID // optional: set when the payment was raised from a class fee
	Amount      Money
	Method      string
	Status      PaymentStatus
	PaidAt      time.Time
	Note        string
	RecordedBy  ActorID
	ClassName   string // snapshot of the student's class at payment time
	CreatedAt   time.Time
}

// Receipt is proof-of-payment, downstream of the ledger. A payment with
// receipts cannot be deleted.
type Receipt struct {
	ID          ReceiptID
	Number      string // e.g. "RCP-000042"
	StudentID   StudentID
	PaymentID   PaymentID
	Amount      Money
	Method      string
	IssuedAt    time.Time
	Description string
}

// =============================================================================
// COLLABORATOR RECORDS - Consumed from external stores
// =============================================================================

type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
)

type Student struct {
	ID          StudentID
	AdmissionNo string
	FullName    string
	ClassID     ClassID
	ClassName   string
	Status      StudentStatus
}

// ClassFee is the fee owed by students of a class for a term.
// Unique per (ClassID, Term).
type ClassFee struct {
	ID        ClassFeeID
	ClassID   ClassID
	ClassName string
	Term      Term
	Amount    Money
}
