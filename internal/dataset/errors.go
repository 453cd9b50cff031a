package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrNoRecords     = errors.New("no valid records found")
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("empty file")
)

// MalformedRowError reports a source row that was rejected during load.
// Rejected rows are counted and skipped; they never abort the load.
type MalformedRowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedRowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: malformed %s: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: malformed %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}
