package ledger

import "sync"

// =============================================================================
// PER-STUDENT LOCKS - Serialize ledger mutations for one student
// =============================================================================

// studentLocks is a keyed mutex registry. Two concurrent waterfall runs
// for the same student would otherwise interleave their read-modify-write
// of the same statements and lose updates; every mutation path (waterfall,
// class change, payment deletion, receipt recording) takes the student's
// lock first. Recomputation itself stays lock-free - it is idempotent and
// callers that need exclusion already hold the lock.
type studentLocks struct {
	mu sync.Mutex
	m  map[StudentID]*sync.Mutex
}

func newStudentLocks() *studentLocks {
	return &studentLocks{m: make(map[StudentID]*sync.Mutex)}
}

// acquire locks the student's mutex and returns the unlock function.
//
//	defer e.locks.acquire(studentID)()
func (l *studentLocks) acquire(id StudentID) func() {
	l.mu.Lock()
	sl, ok := l.m[id]
	if !ok {
		sl = &sync.Mutex{}
		l.m[id] = sl
	}
	l.mu.Unlock()

	sl.Lock()
	return sl.Unlock
}
