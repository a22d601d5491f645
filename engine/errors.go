package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers
// can match with errors.Is.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrColumnKind    = errors.New("column has the wrong kind")
	ErrZeroTotal     = errors.New("share denominator is zero")
	ErrEmptyTable    = errors.New("table has no rows")
	ErrUnknownPeriod = errors.New("unknown period unit")
	ErrInvalidOption = errors.New("invalid option")
)

// MissingColumnError names a required column absent from the input.
type MissingColumnError struct {
	Column string
	Role   string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing %s column %q", e.Role, e.Column)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// ColumnKindError reports a column that exists with the wrong role,
// e.g. a time column that was loaded as a string dimension.
type ColumnKindError struct {
	Column string
	Want   ColumnKind
	Got    ColumnKind
}

func (e *ColumnKindError) Error() string {
	return fmt.Sprintf("column %q is a %s column, want %s", e.Column, e.Got, e.Want)
}

func (e *ColumnKindError) Unwrap() error { return ErrColumnKind }

// DegenerateError reports a share computation whose denominator is zero
// or not finite. Group is empty for a grand total.
type DegenerateError struct {
	Measure string
	Group   string
	Total   float64
}

func (e *DegenerateError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("grand total of %q is %v: shares are undefined", e.Measure, e.Total)
	}
	return fmt.Sprintf("total of %q for group %q is %v: shares are undefined", e.Measure, e.Group, e.Total)
}

func (e *DegenerateError) Unwrap() error { return ErrZeroTotal }
