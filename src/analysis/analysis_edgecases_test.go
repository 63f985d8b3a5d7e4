package analysis

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

func TestReduceFileSchemaMismatchNamesFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "short.phsp", dbscanRow(1, 1, 1, 1), "2 1 1 1 [2]")
	_, err := ReduceFile(p, phsp.ModeDBSCAN)
	if !errors.Is(err, phsp.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	var sm *phsp.SchemaMismatchError
	if !errors.As(err, &sm) || sm.File != "short.phsp" || sm.Line != 2 {
		t.Fatalf("unexpected mismatch detail: %#v", sm)
	}
}

func TestReduceFileWrongModeFailsFast(t *testing.T) {
	dir := t.TempDir()
	// a DBSCAN file read as Step-by-Step must not silently misalign
	p := writeFile(t, dir, "dbscan.phsp", dbscanRow(1, 2, 3, 4))
	if _, err := ReduceFile(p, phsp.ModeStepByStep); !errors.Is(err, phsp.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestReduceFileParseError(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.phsp", "1 2 three 1 [1] [1]")
	_, err := ReduceFile(p, phsp.ModeDBSCAN)
	var pe *phsp.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.File != "bad.phsp" || pe.Line != 1 || pe.Column != phsp.ColDoubleStrandBreaks {
		t.Fatalf("unexpected parse error detail: %#v", pe)
	}
}

func TestNaNPropagatesToShares(t *testing.T) {
	dir := t.TempDir()
	row := stepRow(map[string]float64{phsp.ColDSBs: 2, phsp.ColDSBsDirect: math.NaN(), phsp.ColDSBsIndirect: 1, phsp.ColDSBsHybrid: 1})
	sum, err := ReduceFile(writeFile(t, dir, "nan.phsp", row), phsp.ModeStepByStep)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if !math.IsNaN(sum.DSBShares()[0]) {
		t.Fatalf("expected NaN direct share, got %v", sum.DSBShares())
	}
	if sum.DSBShares()[1] != 50 {
		t.Fatalf("indirect share = %v", sum.DSBShares()[1])
	}
}

func TestAnalyzeDirectoryAbortsWholeBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.phsp", dbscanRow(1, 1, 1, 1))
	writeFile(t, dir, "b.phsp", "not enough columns")
	writeFile(t, dir, "c.phsp", dbscanRow(1, 1, 1, 1))
	visited := 0
	sums, err := AnalyzeDirectory(context.Background(), dir, ScanOptions{Mode: phsp.ModeDBSCAN, Visit: func(FileSummary) error {
		visited++
		return nil
	}})
	if err == nil || !errors.Is(err, phsp.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if sums != nil {
		t.Fatalf("expected no partial summaries, got %d", len(sums))
	}
	if visited != 1 {
		t.Fatalf("expected scan to stop after a.phsp, visited=%d", visited)
	}
}

func TestAnalyzeDirectoryHonoursCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.phsp", dbscanRow(1, 1, 1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := AnalyzeDirectory(ctx, dir, ScanOptions{Mode: phsp.ModeDBSCAN}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeDirectoryMissingDir(t *testing.T) {
	_, err := AnalyzeDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), ScanOptions{Mode: phsp.ModeDBSCAN})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
