package ledger

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// TERM PERIOD - (academicYear, term) with calendar dates
// =============================================================================

// TermPeriod places a term on the calendar. "Active" is a derived,
// time-based property - it is computed on every read and never stored.
type TermPeriod struct {
	AcademicYear AcademicYear
	Term         Term
	Start        time.Time
	End          time.Time
}

// IsActive reports whether now falls inside the term's date range,
// inclusive on both ends. Nothing in the data model prevents overlapping
// terms, so zero, one, or many periods may be active at once.
func (tp TermPeriod) IsActive(now time.Time) bool {
	return !now.Before(tp.Start) && !now.After(tp.End)
}

// Validate checks the period's shape: a known term and start before end.
func (tp TermPeriod) Validate() error {
	if _, err := ParseTerm(string(tp.Term)); err != nil {
		return err
	}
	if !tp.Start.Before(tp.End) {
		return errors.New("term start date must be before end date")
	}
	return nil
}

// ActiveTerms returns every term period active at the given instant.
func ActiveTerms(ctx context.Context, store TermStore, now time.Time) ([]TermPeriod, error) {
	all, err := store.ListTerms(ctx)
	if err != nil {
		return nil, err
	}
	var active []TermPeriod
	for _, tp := range all {
		if tp.IsActive(now) {
			active = append(active, tp)
		}
	}
	return active, nil
}
