// Package filter narrows the order table by the current selection and holds
// that selection.
package filter

import (
	"fmt"
	"strconv"

	"sales-dashboard/internal/models"
)

// InvalidYearError is returned when a non-"All" year cannot be parsed. The
// view filter refuses to turn it into an empty result.
type InvalidYearError struct {
	Value string
	Err   error
}

func (e *InvalidYearError) Error() string {
	return fmt.Sprintf("invalid year %q: %v", e.Value, e.Err)
}

func (e *InvalidYearError) Unwrap() error {
	return e.Err
}

// predicate is a parsed selection. The year is converted once so every row
// compares integers.
type predicate struct {
	sel     models.FilterSelection
	year    int
	anyYear bool
}

func newPredicate(sel models.FilterSelection) (predicate, error) {
	p := predicate{sel: sel, anyYear: sel.Year == models.AllValue}
	if !p.anyYear {
		y, err := strconv.Atoi(sel.Year)
		if err != nil {
			return predicate{}, &InvalidYearError{Value: sel.Year, Err: err}
		}
		p.year = y
	}
	return p, nil
}

func (p predicate) match(o models.Order) bool {
	if p.sel.State != models.AllValue && o.State != p.sel.State {
		return false
	}
	if p.sel.Category != models.AllValue && o.Category != p.sel.Category {
		return false
	}
	return p.anyYear || o.OrderYear == p.year
}

// Apply keeps a row iff it matches every non-"All" field of sel. The input
// table is never modified; an all-"All" selection returns it as is.
func Apply(table models.Table, sel models.FilterSelection) (models.Table, error) {
	p, err := newPredicate(sel)
	if err != nil {
		return nil, err
	}

	if sel.IsAll() {
		return table, nil
	}

	out := make(models.Table, 0, len(table)/4)
	for _, o := range table {
		if p.match(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Matches reports whether a single order satisfies sel. A selection with an
// unparseable year matches nothing.
func Matches(o models.Order, sel models.FilterSelection) bool {
	p, err := newPredicate(sel)
	return err == nil && p.match(o)
}
