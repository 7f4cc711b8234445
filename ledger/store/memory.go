// Package store provides an in-memory ledger.Store implementation
// (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/clearledger/fee-engine/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	students   map[ledger.StudentID]ledger.Student
	classFees  map[ledger.ClassFeeID]ledger.ClassFee
	terms      map[termKey]ledger.TermPeriod
	statements map[ledger.StatementID]ledger.Statement
	payments   map[ledger.PaymentID]ledger.Payment
	receipts   map[ledger.ReceiptID]ledger.Receipt
	sequences  map[string]uint64
}

type termKey struct {
	Year ledger.AcademicYear
	Term ledger.Term
}

func NewMemory() *Memory {
	return &Memory{
		students:   make(map[ledger.StudentID]ledger.Student),
		classFees:  make(map[ledger.ClassFeeID]ledger.ClassFee),
		terms:      make(map[termKey]ledger.TermPeriod),
		statements: make(map[ledger.StatementID]ledger.Statement),
		payments:   make(map[ledger.PaymentID]ledger.Payment),
		receipts:   make(map[ledger.ReceiptID]ledger.Receipt),
		sequences:  make(map[string]uint64),
	}
}

// =============================================================================
// STUDENTS
// =============================================================================

func (m *Memory) CreateStudent(_ context.Context, s ledger.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *Memory) GetStudent(_ context.Context, id ledger.StudentID) (*ledger.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) UpdateStudent(_ context.Context, s ledger.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *Memory) ListStudents(_ context.Context) ([]ledger.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// CLASS FEES
// =============================================================================

func (m *Memory) CreateClassFee(_ context.Context, f ledger.ClassFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classFees[f.ID] = f
	return nil
}

func (m *Memory) GetClassFee(_ context.Context, id ledger.ClassFeeID) (*ledger.ClassFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.classFees[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (m *Memory) FindClassFee(_ context.Context, classID ledger.ClassID, term ledger.Term) (*ledger.ClassFee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.classFees {
		if f.ClassID == classID && f.Term == term {
			out := f
			return &out, nil
		}
	}
	return nil, nil
}

// =============================================================================
// TERMS
// =============================================================================

func (m *Memory) CreateTerm(_ context.Context, tp ledger.TermPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms[termKey{tp.AcademicYear, tp.Term}] = tp
	return nil
}

func (m *Memory) UpdateTerm(_ context.Context, tp ledger.TermPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := termKey{tp.AcademicYear, tp.Term}
	if _, ok := m.terms[key]; !ok {
		return ledger.ErrTermNotFound
	}
	m.terms[key] = tp
	return nil
}

func (m *Memory) FindTerm(_ context.Context, year ledger.AcademicYear, term ledger.Term) (*ledger.TermPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tp, ok := m.terms[termKey{year, term}]
	if !ok {
		return nil, nil
	}
	return &tp, nil
}

func (m *Memory) ListTerms(_ context.Context) ([]ledger.TermPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.TermPeriod, 0, len(m.terms))
	for _, tp := range m.terms {
		out = append(out, tp)
	}
	sortTerms(out)
	return out, nil
}

func (m *Memory) ListTermsByYear(_ context.Context, year ledger.AcademicYear) ([]ledger.TermPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.TermPeriod
	for _, tp := range m.terms {
		if tp.AcademicYear == year {
			out = append(out, tp)
		}
	}
	sortTerms(out)
	return out, nil
}

func sortTerms(terms []ledger.TermPeriod) {
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].AcademicYear != terms[j].AcademicYear {
			return terms[i].AcademicYear < terms[j].AcademicYear
		}
		return terms[i].Term < terms[j].Term
	})
}

// =============================================================================
// STATEMENTS
// =============================================================================

func (m *Memory) CreateStatement(_ context.Context, st ledger.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.statements {
		if existing.StudentID == st.StudentID &&
			existing.AcademicYear == st.AcademicYear &&
			existing.Term == st.Term {
			return ledger.ErrDuplicateStatement
		}
	}
	m.statements[st.ID] = st
	return nil
}

func (m *Memory) GetStatement(_ context.Context, id ledger.StatementID) (*ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statements[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *Memory) FindStatement(_ context.Context, studentID ledger.StudentID, year ledger.AcademicYear, term ledger.Term) (*ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.statements {
		if st.StudentID == studentID && st.AcademicYear == year && st.Term == term {
			out := st
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateStatement(_ context.Context, st ledger.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.statements[st.ID]; !ok {
		return ledger.ErrStatementNotFound
	}
	m.statements[st.ID] = st
	return nil
}

func (m *Memory) ListStatementsByStudent(_ context.Context, studentID ledger.StudentID) ([]ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Statement
	for _, st := range m.statements {
		if st.StudentID == studentID {
			out = append(out, st)
		}
	}
	sortStatementsByPeriod(out)
	return out, nil
}

func (m *Memory) ListStatementsForTerm(_ context.Context, year ledger.AcademicYear, term ledger.Term) ([]ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Statement
	for _, st := range m.statements {
		if st.AcademicYear == year && st.Term == term {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListPendingWithBalance(_ context.Context, studentID ledger.StudentID) ([]ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Statement
	for _, st := range m.statements {
		if st.StudentID == studentID && st.Status == ledger.StatementPending && st.BalanceAmount.IsPositive() {
			out = append(out, st)
		}
	}
	sortStatementsByPeriod(out)
	return out, nil
}

func (m *Memory) LatestPendingStatement(_ context.Context, studentID ledger.StudentID) (*ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *ledger.Statement
	for _, st := range m.statements {
		if st.StudentID != studentID || st.Status != ledger.StatementPending {
			continue
		}
		st := st
		if latest == nil || st.CreatedAt.After(latest.CreatedAt) {
			latest = &st
		}
	}
	return latest, nil
}

func (m *Memory) LatestStatementForYear(_ context.Context, studentID ledger.StudentID, year ledger.AcademicYear) (*ledger.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *ledger.Statement
	for _, st := range m.statements {
		if st.StudentID != studentID || st.AcademicYear != year {
			continue
		}
		st := st
		if latest == nil || st.CreatedAt.After(latest.CreatedAt) {
			latest = &st
		}
	}
	return latest, nil
}

// Oldest first: (academicYear asc, term asc). The unique period constraint
// makes a secondary tie-break unnecessary.
func sortStatementsByPeriod(sts []ledger.Statement) {
	sort.Slice(sts, func(i, j int) bool {
		if sts[i].AcademicYear != sts[j].AcademicYear {
			return sts[i].AcademicYear < sts[j].AcademicYear
		}
		return sts[i].Term < sts[j].Term
	})
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) CreatePayment(_ context.Context, p ledger.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id ledger.PaymentID) (*ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) UpdatePayment(_ context.Context, p ledger.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return ledger.ErrPaymentNotFound
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) DeletePayment(_ context.Context, id ledger.PaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payments, id)
	return nil
}

func (m *Memory) SumCompleted(_ context.Context, statementID ledger.StatementID) (ledger.Money, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := ledger.ZeroMoney()
	for _, p := range m.payments {
		if p.StatementID == statementID && p.Status == ledger.PaymentCompleted {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (m *Memory) ListPaymentsByStudent(_ context.Context, studentID ledger.StudentID) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Payment
	for _, p := range m.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (m *Memory) ListPayments(_ context.Context) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

// =============================================================================
// RECEIPTS
// =============================================================================

func (m *Memory) CreateReceipt(_ context.Context, r ledger.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[r.ID] = r
	return nil
}

func (m *Memory) ListReceiptsByPayment(_ context.Context, paymentID ledger.PaymentID) ([]ledger.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Receipt
	for _, r := range m.receipts {
		if r.PaymentID == paymentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// =============================================================================
// SEQUENCES
// =============================================================================

// NextSequence increments under the store lock; concurrent callers never
// observe the same value.
func (m *Memory) NextSequence(_ context.Context, name string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[name]++
	return m.sequences[name], nil
}
