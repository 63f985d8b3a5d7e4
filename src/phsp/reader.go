package phsp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MaxLineBytes caps a single input line. Step-by-Step rows are a few hundred
// bytes; DBSCAN cluster lists can be longer.
const MaxLineBytes = 16 * 1024 * 1024

// Record is one parsed row. Values holds the numeric columns at their schema
// position (Text columns are 0 there); Raw holds every token as read.
type Record struct {
	Line   int
	Values []float64
	Raw    []string
}

// Value returns the numeric value at column i.
func (r Record) Value(i int) float64 { return r.Values[i] }

// ReadRecords parses r row by row against s and calls fn for every row.
// name identifies the source in errors. Blank lines are skipped. The first
// width or parse failure stops the read; fn errors are returned unchanged.
// It returns the number of rows handed to fn.
func ReadRecords(r io.Reader, name string, s *Schema, fn func(Record) error) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	want := s.Len()
	rows := 0
	lineNo := 0
	for sc.Scan() {
		lineNo++
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) != want {
			return rows, &SchemaMismatchError{File: name, Line: lineNo, Mode: s.Mode, Got: len(tokens), Want: want}
		}
		rec := Record{Line: lineNo, Values: make([]float64, want), Raw: tokens}
		for i, f := range s.Fields {
			if f.Kind != Numeric {
				continue
			}
			v, err := strconv.ParseFloat(tokens[i], 64)
			if err != nil {
				return rows, &ParseError{File: name, Line: lineNo, Column: f.Name, Value: tokens[i], Err: err}
			}
			rec.Values[i] = v
		}
		if err := fn(rec); err != nil {
			return rows, err
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return rows, fmt.Errorf("read %s at line %d: %w", name, lineNo+1, err)
	}
	return rows, nil
}

// ReadFile opens path and runs ReadRecords over it, naming errors by the base file name.
func ReadFile(path string, s *Schema, fn func(Record) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReadRecords(f, filepath.Base(path), s, fn)
}
