/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Production persistence for the fee ledger. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  students:      Student records with current class assignment
  class_fees:    Fee per (class, term), unique
  term_periods:  (academicYear, term) with start/end dates
  statements:    One ledger row per (student, academicYear, term), unique
  payments:      One row per money movement, unique reference code
  receipts:      Proof-of-payment rows, block payment deletion
  sequences:     Atomic counters behind FEE-/RCP- reference codes

SEQUENCES:
  NextSequence is a single upsert with RETURNING - the increment happens
  inside SQLite, so two concurrent payment requests can never mint the
  same reference code. During migration the counters are seeded from the
  highest existing reference suffix, which keeps codes monotonic across
  restarts and imports.

MONEY:
  Amounts are stored as decimal strings and summed in Go with
  shopspring/decimal. SQLite's numeric affinity would silently coerce to
  float; the ledger never lets that happen.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/fees.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  engine := ledger.NewEngine(st)

SEE ALSO:
  - ledger/store.go: Interface contracts
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/clearledger/fee-engine/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		admission_no TEXT NOT NULL,
		full_name TEXT NOT NULL,
		class_id TEXT NOT NULL,
		class_name TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS class_fees (
		id TEXT PRIMARY KEY,
		class_id TEXT NOT NULL,
		class_name TEXT NOT NULL,
		term TEXT NOT NULL,
		amount TEXT NOT NULL,
		UNIQUE(class_id, term)
	);

	CREATE TABLE IF NOT EXISTS term_periods (
		academic_year TEXT NOT NULL,
		term TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		PRIMARY KEY (academic_year, term)
	);

	-- One ledger row per (student, academicYear, term)
	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		academic_year TEXT NOT NULL,
		term TEXT NOT NULL,
		class_name TEXT NOT NULL DEFAULT '',
		current_term_fee TEXT NOT NULL,
		previous_balance TEXT NOT NULL,
		total_payable TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		balance_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		term_start TEXT NOT NULL,
		term_end TEXT NOT NULL,
		due_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(student_id, academic_year, term)
	);

	CREATE INDEX IF NOT EXISTS idx_statements_student
		ON statements(student_id);
	CREATE INDEX IF NOT EXISTS idx_statements_period
		ON statements(academic_year, term);
	-- Hot path: the waterfall's pending-with-balance scan
	CREATE INDEX IF NOT EXISTS idx_statements_student_status
		ON statements(student_id, status);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		statement_id TEXT NOT NULL,
		class_fee_id TEXT,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		recorded_by TEXT NOT NULL DEFAULT '',
		class_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: recomputation's completed-payment sum
	CREATE INDEX IF NOT EXISTS idx_payments_statement_status
		ON payments(statement_id, status);
	CREATE INDEX IF NOT EXISTS idx_payments_student
		ON payments(student_id);

	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		payment_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		issued_at TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_receipts_payment
		ON receipts(payment_id);

	-- Atomic reference counters
	CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedSequences()
}

// seedSequences initializes the counters from the highest existing
// reference suffix so codes stay monotonic across restarts and data
// imports. The reference format is fixed-width ("FEE-000123"), so suffix
// parsing is safe.
func (s *Store) seedSequences() error {
	seeds := []struct {
		name  string
		query string
	}{
		{ledger.PaymentSequenceName,
			`SELECT COALESCE(MAX(CAST(substr(reference, 5) AS INTEGER)), 0) FROM payments`},
		{ledger.ReceiptSequenceName,
			`SELECT COALESCE(MAX(CAST(substr(number, 5) AS INTEGER)), 0) FROM receipts`},
	}
	for _, seed := range seeds {
		var highest int64
		if err := s.db.QueryRow(seed.query).Scan(&highest); err != nil {
			return err
		}
		_, err := s.db.Exec(`
			INSERT INTO sequences(name, value) VALUES(?, ?)
			ON CONFLICT(name) DO UPDATE SET value = max(value, excluded.value)`,
			seed.name, highest)
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func moneyOf(s string) (ledger.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ledger.ZeroMoney(), fmt.Errorf("parse money %q: %w", s, err)
	}
	return ledger.Money{Value: d}, nil
}

func timeOf(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// =============================================================================
// STUDENTS
// =============================================================================

func (s *Store) CreateStudent(ctx context.Context, st ledger.Student) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, admission_no, full_name, class_id, class_name, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(st.ID), st.AdmissionNo, st.FullName, string(st.ClassID), st.ClassName, string(st.Status))
	return err
}

func (s *Store) GetStudent(ctx context.Context, id ledger.StudentID) (*ledger.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, admission_no, full_name, class_id, class_name, status
		FROM students WHERE id = ?`, string(id))
	var st ledger.Student
	var sid, classID, status string
	err := row.Scan(&sid, &st.AdmissionNo, &st.FullName, &classID, &st.ClassName, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.ID = ledger.StudentID(sid)
	st.ClassID = ledger.ClassID(classID)
	st.Status = ledger.StudentStatus(status)
	return &st, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st ledger.Student) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE students SET admission_no = ?, full_name = ?, class_id = ?, class_name = ?, status = ?
		WHERE id = ?`,
		st.AdmissionNo, st.FullName, string(st.ClassID), st.ClassName, string(st.Status), string(st.ID))
	return err
}

func (s *Store) ListStudents(ctx context.Context) ([]ledger.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, admission_no, full_name, class_id, class_name, status
		FROM students ORDER BY admission_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Student
	for rows.Next() {
		var st ledger.Student
		var sid, classID, status string
		if err := rows.Scan(&sid, &st.AdmissionNo, &st.FullName, &classID, &st.ClassName, &status); err != nil {
			return nil, err
		}
		st.ID = ledger.StudentID(sid)
		st.ClassID = ledger.ClassID(classID)
		st.Status = ledger.StudentStatus(status)
		out = append(out, st)
	}
	return out, rows.Err()
}

// =============================================================================
// CLASS FEES
// =============================================================================

func (s *Store) CreateClassFee(ctx context.Context, f ledger.ClassFee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO class_fees (id, class_id, class_name, term, amount)
		VALUES (?, ?, ?, ?, ?)`,
		string(f.ID), string(f.ClassID), f.ClassName, string(f.Term), f.Amount.Value.String())
	return err
}

func (s *Store) GetClassFee(ctx context.Context, id ledger.ClassFeeID) (*ledger.ClassFee, error) {
	return scanClassFee(s.db.QueryRowContext(ctx, `
		SELECT id, class_id, class_name, term, amount FROM class_fees WHERE id = ?`, string(id)))
}

func (s *Store) FindClassFee(ctx context.Context, classID ledger.ClassID, term ledger.Term) (*ledger.ClassFee, error) {
	return scanClassFee(s.db.QueryRowContext(ctx, `
		SELECT id, class_id, class_name, term, amount FROM class_fees
		WHERE class_id = ? AND term = ?`, string(classID), string(term)))
}

func scanClassFee(row *sql.Row) (*ledger.ClassFee, error) {
	var f ledger.ClassFee
	var id, classID, term, amount string
	err := row.Scan(&id, &classID, &f.ClassName, &term, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.ID = ledger.ClassFeeID(id)
	f.ClassID = ledger.ClassID(classID)
	f.Term = ledger.Term(term)
	if f.Amount, err = moneyOf(amount); err != nil {
		return nil, err
	}
	return &f, nil
}

// =============================================================================
// TERM PERIODS
// =============================================================================

func (s *Store) CreateTerm(ctx context.Context, tp ledger.TermPeriod) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO term_periods (academic_year, term, start_date, end_date)
		VALUES (?, ?, ?, ?)`,
		string(tp.AcademicYear), string(tp.Term), fmtTime(tp.Start), fmtTime(tp.End))
	return err
}

func (s *Store) UpdateTerm(ctx context.Context, tp ledger.TermPeriod) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE term_periods SET start_date = ?, end_date = ?
		WHERE academic_year = ? AND term = ?`,
		fmtTime(tp.Start), fmtTime(tp.End), string(tp.AcademicYear), string(tp.Term))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrTermNotFound
	}
	return nil
}

func (s *Store) FindTerm(ctx context.Context, year ledger.AcademicYear, term ledger.Term) (*ledger.TermPeriod, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT academic_year, term, start_date, end_date FROM term_periods
		WHERE academic_year = ? AND term = ?`, string(year), string(term))
	tp, err := scanTerm(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tp, nil
}

func (s *Store) ListTerms(ctx context.Context) ([]ledger.TermPeriod, error) {
	return s.queryTerms(ctx, `
		SELECT academic_year, term, start_date, end_date FROM term_periods
		ORDER BY academic_year, term`)
}

func (s *Store) ListTermsByYear(ctx context.Context, year ledger.AcademicYear) ([]ledger.TermPeriod, error) {
	return s.queryTerms(ctx, `
		SELECT academic_year, term, start_date, end_date FROM term_periods
		WHERE academic_year = ? ORDER BY term`, string(year))
}

func (s *Store) queryTerms(ctx context.Context, query string, args ...any) ([]ledger.TermPeriod, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.TermPeriod
	for rows.Next() {
		tp, err := scanTerm(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *tp)
	}
	return out, rows.Err()
}

func scanTerm(scan func(...any) error) (*ledger.TermPeriod, error) {
	var year, term, start, end string
	if err := scan(&year, &term, &start, &end); err != nil {
		return nil, err
	}
	var tp ledger.TermPeriod
	var err error
	tp.AcademicYear = ledger.AcademicYear(year)
	tp.Term = ledger.Term(term)
	if tp.Start, err = timeOf(start); err != nil {
		return nil, err
	}
	if tp.End, err = timeOf(end); err != nil {
		return nil, err
	}
	return &tp, nil
}

// =============================================================================
// STATEMENTS
// =============================================================================

const statementColumns = `id, student_id, academic_year, term, class_name,
	current_term_fee, previous_balance, total_payable, amount_paid,
	balance_amount, status, term_start, term_end, due_date, created_at`

func (s *Store) CreateStatement(ctx context.Context, st ledger.Statement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO statements (`+statementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(st.ID), string(st.StudentID), string(st.AcademicYear), string(st.Term), st.ClassName,
		st.CurrentTermFee.Value.String(), st.PreviousBalance.Value.String(), st.TotalPayable.Value.String(),
		st.AmountPaid.Value.String(), st.BalanceAmount.Value.String(), string(st.Status),
		fmtTime(st.TermStart), fmtTime(st.TermEnd), fmtTime(st.DueDate), fmtTime(st.CreatedAt))
	if isUniqueViolation(err) {
		return ledger.ErrDuplicateStatement
	}
	return err
}

func (s *Store) GetStatement(ctx context.Context, id ledger.StatementID) (*ledger.Statement, error) {
	return oneStatement(s.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE id = ?`, string(id)))
}

func (s *Store) FindStatement(ctx context.Context, studentID ledger.StudentID, year ledger.AcademicYear, term ledger.Term) (*ledger.Statement, error) {
	return oneStatement(s.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements
		WHERE student_id = ? AND academic_year = ? AND term = ?`,
		string(studentID), string(year), string(term)))
}

func (s *Store) UpdateStatement(ctx context.Context, st ledger.Statement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE statements SET class_name = ?, current_term_fee = ?, previous_balance = ?,
			total_payable = ?, amount_paid = ?, balance_amount = ?, status = ?,
			term_start = ?, term_end = ?, due_date = ?
		WHERE id = ?`,
		st.ClassName, st.CurrentTermFee.Value.String(), st.PreviousBalance.Value.String(),
		st.TotalPayable.Value.String(), st.AmountPaid.Value.String(), st.BalanceAmount.Value.String(),
		string(st.Status), fmtTime(st.TermStart), fmtTime(st.TermEnd), fmtTime(st.DueDate),
		string(st.ID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrStatementNotFound
	}
	return nil
}

func (s *Store) ListStatementsByStudent(ctx context.Context, studentID ledger.StudentID) ([]ledger.Statement, error) {
	return s.queryStatements(ctx, `
		SELECT `+statementColumns+` FROM statements
		WHERE student_id = ? ORDER BY academic_year, term`, string(studentID))
}

func (s *Store) ListStatementsForTerm(ctx context.Context, year ledger.AcademicYear, term ledger.Term) ([]ledger.Statement, error) {
	return s.queryStatements(ctx, `
		SELECT `+statementColumns+` FROM statements
		WHERE academic_year = ? AND term = ? ORDER BY id`, string(year), string(term))
}

// ListPendingWithBalance orders oldest first - the waterfall's walk order.
func (s *Store) ListPendingWithBalance(ctx context.Context, studentID ledger.StudentID) ([]ledger.Statement, error) {
	all, err := s.queryStatements(ctx, `
		SELECT `+statementColumns+` FROM statements
		WHERE student_id = ? AND status = ?
		ORDER BY academic_year, term`, string(studentID), string(ledger.StatementPending))
	if err != nil {
		return nil, err
	}
	// Balance filtering happens in Go: amounts are decimal strings and a
	// SQLite comparison on them would be lexical.
	out := all[:0]
	for _, st := range all {
		if st.BalanceAmount.IsPositive() {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *Store) LatestPendingStatement(ctx context.Context, studentID ledger.StudentID) (*ledger.Statement, error) {
	return oneStatement(s.db.QueryRowContext(ctx, `
		SELECT `+statementColumns+` FROM statements
		WHERE student_id = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1`, string(studentID), string(ledger.StatementPending)))
}

func (s *Store) LatestStatementForYear(ctx context.Context, studentID ledger.StudentID, year ledger.AcademicYear) (*ledger.Statement, error) {
	return oneStatement(s.db.QueryRowContext(ctx, `
		SELECT `+statementColumns+` FROM statements
		WHERE student_id = ? AND academic_year = ?
		ORDER BY created_at DESC LIMIT 1`, string(studentID), string(year)))
}

func (s *Store) queryStatements(ctx context.Context, query string, args ...any) ([]ledger.Statement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Statement
	for rows.Next() {
		st, err := scanStatement(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func oneStatement(row *sql.Row) (*ledger.Statement, error) {
	st, err := scanStatement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func scanStatement(scan func(...any) error) (*ledger.Statement, error) {
	var st ledger.Statement
	var id, studentID, year, term, status string
	var fee, prev, payable, paid, balance string
	var termStart, termEnd, due, created string
	if err := scan(&id, &studentID, &year, &term, &st.ClassName,
		&fee, &prev, &payable, &paid, &balance, &status,
		&termStart, &termEnd, &due, &created); err != nil {
		return nil, err
	}

	st.ID = ledger.StatementID(id)
	st.StudentID = ledger.StudentID(studentID)
	st.AcademicYear = ledger.AcademicYear(year)
	st.Term = ledger.Term(term)
	st.Status = ledger.StatementStatus(status)

	var err error
	if st.CurrentTermFee, err = moneyOf(fee); err != nil {
		return nil, err
	}
	if st.PreviousBalance, err = moneyOf(prev); err != nil {
		return nil, err
	}
	if st.TotalPayable, err = moneyOf(payable); err != nil {
		return nil, err
	}
	if st.AmountPaid, err = moneyOf(paid); err != nil {
		return nil, err
	}
	if st.BalanceAmount, err = moneyOf(balance); err != nil {
		return nil, err
	}
	if st.TermStart, err = timeOf(termStart); err != nil {
		return nil, err
	}
	if st.TermEnd, err = timeOf(termEnd); err != nil {
		return nil, err
	}
	if st.DueDate, err = timeOf(due); err != nil {
		return nil, err
	}
	if st.CreatedAt, err = timeOf(created); err != nil {
		return nil, err
	}
	return &st, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = `id, reference, student_id, statement_id, class_fee_id,
	amount, method, status, paid_at, note, recorded_by, class_name, created_at`

func (s *Store) CreatePayment(ctx context.Context, p ledger.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), p.Reference, string(p.StudentID), string(p.StatementID), string(p.ClassFeeID),
		p.Amount.Value.String(), p.Method, string(p.Status), fmtTime(p.PaidAt),
		p.Note, string(p.RecordedBy), p.ClassName, fmtTime(p.CreatedAt))
	return err
}

func (s *Store) GetPayment(ctx context.Context, id ledger.PaymentID) (*ledger.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, string(id)).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p ledger.Payment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payments SET method = ?, status = ?, paid_at = ?, note = ?
		WHERE id = ?`,
		p.Method, string(p.Status), fmtTime(p.PaidAt), p.Note, string(p.ID))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, id ledger.PaymentID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, string(id))
	return err
}

// SumCompleted sums in Go with decimal arithmetic; amounts are stored as
// text and SQLite's SUM would coerce them to float.
func (s *Store) SumCompleted(ctx context.Context, statementID ledger.StatementID) (ledger.Money, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM payments WHERE statement_id = ? AND status = ?`,
		string(statementID), string(ledger.PaymentCompleted))
	if err != nil {
		return ledger.ZeroMoney(), err
	}
	defer rows.Close()

	sum := ledger.ZeroMoney()
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return ledger.ZeroMoney(), err
		}
		m, err := moneyOf(amount)
		if err != nil {
			return ledger.ZeroMoney(), err
		}
		sum = sum.Add(m)
	}
	return sum, rows.Err()
}

func (s *Store) ListPaymentsByStudent(ctx context.Context, studentID ledger.StudentID) ([]ledger.Payment, error) {
	return s.queryPayments(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE student_id = ? ORDER BY reference`, string(studentID))
}

func (s *Store) ListPayments(ctx context.Context) ([]ledger.Payment, error) {
	return s.queryPayments(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY reference`)
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]ledger.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPayment(scan func(...any) error) (*ledger.Payment, error) {
	var p ledger.Payment
	var id, studentID, statementID, status string
	var classFeeID sql.NullString
	var amount, paidAt, recordedBy, created string
	if err := scan(&id, &p.Reference, &studentID, &statementID, &classFeeID,
		&amount, &p.Method, &status, &paidAt, &p.Note, &recordedBy, &p.ClassName, &created); err != nil {
		return nil, err
	}

	p.ID = ledger.PaymentID(id)
	p.StudentID = ledger.StudentID(studentID)
	p.StatementID = ledger.StatementID(statementID)
	p.ClassFeeID = ledger.ClassFeeID(classFeeID.String)
	p.Status = ledger.PaymentStatus(status)
	p.RecordedBy = ledger.ActorID(recordedBy)

	var err error
	if p.Amount, err = moneyOf(amount); err != nil {
		return nil, err
	}
	if p.PaidAt, err = timeOf(paidAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = timeOf(created); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// RECEIPTS
// =============================================================================

func (s *Store) CreateReceipt(ctx context.Context, r ledger.Receipt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts (id, number, student_id, payment_id, amount, method, issued_at, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Number, string(r.StudentID), string(r.PaymentID),
		r.Amount.Value.String(), r.Method, fmtTime(r.IssuedAt), r.Description)
	return err
}

func (s *Store) ListReceiptsByPayment(ctx context.Context, paymentID ledger.PaymentID) ([]ledger.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, student_id, payment_id, amount, method, issued_at, description
		FROM receipts WHERE payment_id = ? ORDER BY number`, string(paymentID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Receipt
	for rows.Next() {
		var r ledger.Receipt
		var id, studentID, pid, amount, issued string
		if err := rows.Scan(&id, &r.Number, &studentID, &pid, &amount, &r.Method, &issued, &r.Description); err != nil {
			return nil, err
		}
		r.ID = ledger.ReceiptID(id)
		r.StudentID = ledger.StudentID(studentID)
		r.PaymentID = ledger.PaymentID(pid)
		if r.Amount, err = moneyOf(amount); err != nil {
			return nil, err
		}
		if r.IssuedAt, err = timeOf(issued); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// SEQUENCES
// =============================================================================

// NextSequence increments inside SQLite in a single upsert statement;
// concurrent callers serialize on the database writer and never observe
// the same value.
func (s *Store) NextSequence(ctx context.Context, name string) (uint64, error) {
	var value uint64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sequences(name, value) VALUES(?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", name, err)
	}
	return value, nil
}
