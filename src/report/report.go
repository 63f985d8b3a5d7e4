// Package report accumulates per-file summaries and chart artifacts and
// writes them as one xlsx workbook.
package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/analysis"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/charts"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

const (
	// SummarySheet holds the DBSCAN per-file table.
	SummarySheet = "Summary"
	// DefaultSheet is the single Step-by-Step sheet.
	DefaultSheet = "Sheet1"

	// MaxSheetName is the xlsx limit on sheet name length, in characters.
	MaxSheetName = 31
)

// ErrAlreadySaved is returned when Save is called on a report that has
// already been written.
var ErrAlreadySaved = errors.New("report already saved")

// Report is an ordered set of file summaries plus the chart rendered for
// each. It is written at most once.
type Report struct {
	mode   phsp.Mode
	dir    string
	sums   []analysis.FileSummary
	charts []*charts.Artifact
	saved  string
}

// New starts an empty report for mode whose charts belong next to the
// source files in dir.
func New(mode phsp.Mode, dir string) *Report {
	return &Report{mode: mode, dir: dir}
}

// Mode of every summary in the report.
func (r *Report) Mode() phsp.Mode { return r.mode }

// Dir is the source directory charts are written to.
func (r *Report) Dir() string { return r.dir }

// Len is the number of files in the report.
func (r *Report) Len() int { return len(r.sums) }

// Add appends sum and its chart; art may be nil when the chart was gated.
func (r *Report) Add(sum analysis.FileSummary, art *charts.Artifact) error {
	if r.saved != "" {
		return ErrAlreadySaved
	}
	if sum.Mode() != r.mode {
		return fmt.Errorf("report: %s summary %s in %s report", sum.Mode(), sum.File(), r.mode)
	}
	r.sums = append(r.sums, sum)
	r.charts = append(r.charts, art)
	return nil
}

// Summaries returns the summaries in insertion order.
func (r *Report) Summaries() []analysis.FileSummary {
	return append([]analysis.FileSummary(nil), r.sums...)
}

// Charts returns the non-nil chart artifacts in insertion order.
func (r *Report) Charts() []*charts.Artifact {
	var out []*charts.Artifact
	for _, a := range r.charts {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Header is the first row of the summary table.
func Header(m phsp.Mode) []string {
	first := "File"
	if m == phsp.ModeDBSCAN {
		first = "File Name"
	}
	return append([]string{first}, analysis.MetricKeys(m)...)
}

// Workbook lays the report out as an excelize workbook. The caller owns the
// returned file and must Close it.
func (r *Report) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	table := DefaultSheet
	if r.mode == phsp.ModeDBSCAN {
		table = SummarySheet
		if err := f.SetSheetName(DefaultSheet, SummarySheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("report: rename sheet: %w", err)
		}
	}
	if err := r.writeTable(f, table); err != nil {
		f.Close()
		return nil, err
	}
	if r.mode == phsp.ModeDBSCAN {
		if err := r.writeChartSheets(f); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (r *Report) writeTable(f *excelize.File, sheet string) error {
	header := Header(r.mode)
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("report: header: %w", err)
	}
	for i, s := range r.sums {
		row := make([]interface{}, 0, len(header))
		row = append(row, s.File())
		for _, v := range s.Values() {
			row = append(row, cellValue(v))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("report: row for %s: %w", s.File(), err)
		}
	}
	return nil
}

func (r *Report) writeChartSheets(f *excelize.File) error {
	used := map[string]int{strings.ToLower(SummarySheet): 1}
	for i, s := range r.sums {
		name := SheetName(s.File(), used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("report: sheet %q: %w", name, err)
		}
		art := r.charts[i]
		if art == nil {
			continue
		}
		pic := &excelize.Picture{Extension: ".png", File: art.PNG, Format: &excelize.GraphicOptions{}}
		if err := f.AddPictureFromBytes(name, "A1", pic); err != nil {
			return fmt.Errorf("report: embed %s: %w", art.Name, err)
		}
	}
	return nil
}

// cellValue blanks values a spreadsheet cannot hold.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

var sheetNameReplacer = strings.NewReplacer(`\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_", ":", "_")

// SheetName turns a file name into a legal, unique sheet name. used tracks
// names already taken (case-insensitively) and is updated.
func SheetName(file string, used map[string]int) string {
	base := sheetNameReplacer.Replace(file)
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Sheet"
	}
	name := truncateRunes(base, MaxSheetName)
	for n := 2; used[strings.ToLower(name)] > 0; n++ {
		suffix := fmt.Sprintf("~%d", n)
		name = truncateRunes(base, MaxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)]++
	return name
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

// Save writes the workbook to path. A report is saved at most once.
func (r *Report) Save(path string) error {
	if r.saved != "" {
		return fmt.Errorf("%w to %s", ErrAlreadySaved, r.saved)
	}
	f, err := r.Workbook()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	r.saved = path
	phsp.Infof("[report] saved %s (%s files, %s mode)", path, humanize.Comma(int64(len(r.sums))), r.mode)
	return nil
}

// Saved returns the path the report was written to, or "".
func (r *Report) Saved() string { return r.saved }

// WriteCharts writes every chart artifact into the source directory and
// returns the paths written.
func (r *Report) WriteCharts() ([]string, error) {
	var paths []string
	for _, a := range r.Charts() {
		p := filepath.Join(r.dir, a.Name)
		if err := os.WriteFile(p, a.PNG, 0o644); err != nil {
			return paths, fmt.Errorf("report: write chart %s: %w", p, err)
		}
		phsp.Debugf("[report] wrote %s (%s)", p, humanize.Bytes(uint64(len(a.PNG))))
		paths = append(paths, p)
	}
	return paths, nil
}
