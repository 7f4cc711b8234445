/*
store.go - Persistence interfaces for the fee ledger

PURPOSE:
  Defines the interface between the engine and the datastore. One small
  interface per record kind; Store combines them for implementations.
  Different implementations can use SQLite or in-memory storage.

NOT-FOUND CONTRACT:
  Single-record lookups (Get*, Find*, Latest*) return (nil, nil) when the
  record does not exist. The engine maps absence to its sentinel errors;
  stores never invent domain errors beyond ErrDuplicateStatement.

SEQUENCES:
  NextSequence is the atomic counter behind payment and receipt reference
  codes. Implementations MUST make the increment a single atomic
  operation - a read-then-write reference counter is exactly the race
  this engine exists to avoid.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - ledger/store: In-memory store for testing/dev

SEE ALSO:
  - refseq.go: Reference formatting on top of NextSequence
*/
package ledger

import "context"

// =============================================================================
// RECORD STORES
// =============================================================================

type StudentStore interface {
	CreateStudent(ctx context.Context, s Student) error
	GetStudent(ctx context.Context, id StudentID) (*Student, error)
	UpdateStudent(ctx context.Context, s Student) error
	ListStudents(ctx context.Context) ([]Student, error)
}

type ClassFeeStore interface {
	CreateClassFee(ctx context.Context, f ClassFee) error
	GetClassFee(ctx context.Context, id ClassFeeID) (*ClassFee, error)

	// FindClassFee looks up the unique fee for a (class, term) pair.
	FindClassFee(ctx context.Context, classID ClassID, term Term) (*ClassFee, error)
}

type TermStore interface {
	CreateTerm(ctx context.Context, tp TermPeriod) error

	// UpdateTerm replaces the date window for an existing (AcademicYear, Term)
	// period. Returns ErrTermNotFound if the period was never created.
	UpdateTerm(ctx context.Context, tp TermPeriod) error

	FindTerm(ctx context.Context, year AcademicYear, term Term) (*TermPeriod, error)
	ListTerms(ctx context.Context) ([]TermPeriod, error)
	ListTermsByYear(ctx context.Context, year AcademicYear) ([]TermPeriod, error)
}

type StatementStore interface {
	// CreateStatement persists a new statement. Returns ErrDuplicateStatement
	// if one already exists for (StudentID, AcademicYear, Term).
	CreateStatement(ctx context.Context, st Statement) error

	GetStatement(ctx context.Context, id StatementID) (*Statement, error)
	FindStatement(ctx context.Context, studentID StudentID, year AcademicYear, term Term) (*Statement, error)
	UpdateStatement(ctx context.Context, st Statement) error

	ListStatementsByStudent(ctx context.Context, studentID StudentID) ([]Statement, error)
	ListStatementsForTerm(ctx context.Context, year AcademicYear, term Term) ([]Statement, error)

	// ListPendingWithBalance returns the student's pending statements with a
	// positive balance, ordered ascending by (academicYear, term) - the
	// oldest-first order the arrears waterfall walks.
	ListPendingWithBalance(ctx context.Context, studentID StudentID) ([]Statement, error)

	// LatestPendingStatement returns the most recently created pending
	// statement for the student, or (nil, nil) if there is none.
	LatestPendingStatement(ctx context.Context, studentID StudentID) (*Statement, error)

	// LatestStatementForYear returns the most recently created statement for
	// the student within an academic year, or (nil, nil). Used to carry the
	// previous period's balance into a new statement.
	LatestStatementForYear(ctx context.Context, studentID StudentID, year AcademicYear) (*Statement, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)
	UpdatePayment(ctx context.Context, p Payment) error
	DeletePayment(ctx context.Context, id PaymentID) error

	// SumCompleted returns the sum of completed payment amounts linked to a
	// statement. Zero if there are none. This is the recomputation input.
	SumCompleted(ctx context.Context, statementID StatementID) (Money, error)

	ListPaymentsByStudent(ctx context.Context, studentID StudentID) ([]Payment, error)
	ListPayments(ctx context.Context) ([]Payment, error)
}

type ReceiptStore interface {
	CreateReceipt(ctx context.Context, r Receipt) error
	ListReceiptsByPayment(ctx context.Context, paymentID PaymentID) ([]Receipt, error)
}

// =============================================================================
// SEQUENCES - Atomic reference counters
// =============================================================================

type SequenceStore interface {
	// NextSequence atomically increments and returns the named counter.
	// Two concurrent calls never observe the same value.
	NextSequence(ctx context.Context, name string) (uint64, error)
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is everything the engine needs from persistence.
type Store interface {
	StudentStore
	ClassFeeStore
	TermStore
	StatementStore
	PaymentStore
	ReceiptStore
	SequenceStore
}
