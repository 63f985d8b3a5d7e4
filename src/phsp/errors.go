package phsp

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch matches any *SchemaMismatchError via errors.Is.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrParse matches any *ParseError via errors.Is.
	ErrParse = errors.New("parse error")
)

// SchemaMismatchError reports a row whose column count differs from the schema.
type SchemaMismatchError struct {
	File string
	Line int
	Mode Mode
	Got  int
	Want int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s:%d: %s rows have %d columns, found %d", e.File, e.Line, e.Mode, e.Want, e.Got)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// ParseError reports a numeric column that could not be converted.
type ParseError struct {
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: cannot parse %q as a number: %v", e.File, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
