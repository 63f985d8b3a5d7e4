package analysis

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

// DBSCAN metric names, also the Summary sheet column headers.
const (
	MetricSingleStrandBreaks  = "Single Strand Breaks"
	MetricDoubleStrandBreaks  = "Double Strand Breaks"
	MetricComplexStrandBreaks = "Complex Strand Breaks"
)

// Step-by-Step metric names, also the report column headers.
const (
	MetricTotalDose              = "total_dose"
	MetricDSBs                   = "Number_DSBs"
	MetricDSBsDirect             = "Number_DSBs_Direct"
	MetricDSBsIndirect           = "Number_DSBs_Indirect"
	MetricDSBsHybrid             = "Number_DSBs_Hybrid"
	MetricSSBs                   = "Number_SSBs"
	MetricSSBsDirect             = "Number_SSBs_Direct"
	MetricSSBsQuasiDirect        = "Number_SSBs_QuasiDirect"
	MetricSSBsIndirect           = "Number_SSBs_Indirect"
	MetricPercentDSBsDirect      = "Percentage_DSBs_Direct"
	MetricPercentDSBsIndirect    = "Percentage_DSBs_Indirect"
	MetricPercentDSBsHybrid      = "Percentage_DSBs_Hybrid"
	MetricPercentSSBsDirect      = "Percentage_SSBs_Direct"
	MetricPercentSSBsQuasiDirect = "Percentage_SSBs_QuasiDirect"
	MetricPercentSSBsIndirect    = "Percentage_SSBs_Indirect"
	MetricDSBPerGyGbp            = "DSB/Gy/Gbp"
	MetricSSBPerGyGbp            = "SSB/Gy/Gbp"
	MetricSSBDSBRatio            = "SSB/DSBs Ratio"
)

// DBSCANMetrics is the fixed metric order of DBSCAN summaries.
var DBSCANMetrics = []string{MetricSingleStrandBreaks, MetricDoubleStrandBreaks, MetricComplexStrandBreaks}

// StepByStepMetrics is the fixed metric order of Step-by-Step summaries.
var StepByStepMetrics = []string{
	MetricTotalDose,
	MetricDSBs, MetricDSBsDirect, MetricDSBsIndirect, MetricDSBsHybrid,
	MetricSSBs, MetricSSBsDirect, MetricSSBsQuasiDirect, MetricSSBsIndirect,
	MetricPercentDSBsDirect, MetricPercentDSBsIndirect, MetricPercentDSBsHybrid,
	MetricPercentSSBsDirect, MetricPercentSSBsQuasiDirect, MetricPercentSSBsIndirect,
	MetricDSBPerGyGbp, MetricSSBPerGyGbp,
	MetricSSBDSBRatio,
}

// MetricKeys returns the metric order shared by every summary of mode m.
func MetricKeys(m phsp.Mode) []string {
	switch m {
	case phsp.ModeDBSCAN:
		return DBSCANMetrics
	case phsp.ModeStepByStep:
		return StepByStepMetrics
	}
	return nil
}

// SafeRatio returns num/den, or 0 when den is 0. Every ratio and percentage
// in a summary goes through here.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// SafePercent is SafeRatio scaled to percent.
func SafePercent(part, total float64) float64 {
	return SafeRatio(part, total) * 100
}

// FileSummary holds the aggregate metrics of one input file. Values follow
// MetricKeys(Mode) positionally. A FileSummary is not modified after the
// reducer produces it.
type FileSummary struct {
	file   string
	mode   phsp.Mode
	rows   int
	values []float64
}

func newSummary(file string, mode phsp.Mode, rows int, values []float64) FileSummary {
	return FileSummary{file: file, mode: mode, rows: rows, values: values}
}

// SummaryOf builds a summary from precomputed values in MetricKeys(mode) order.
func SummaryOf(file string, mode phsp.Mode, rows int, values []float64) (FileSummary, error) {
	keys := MetricKeys(mode)
	if keys == nil {
		return FileSummary{}, fmt.Errorf("no metrics for mode %q", mode)
	}
	if len(values) != len(keys) {
		return FileSummary{}, fmt.Errorf("%s summary needs %d values, got %d", mode, len(keys), len(values))
	}
	return newSummary(file, mode, rows, append([]float64(nil), values...)), nil
}

// File is the source file name (no directory).
func (s FileSummary) File() string { return s.file }

// Mode is the aggregation mode that produced the summary.
func (s FileSummary) Mode() phsp.Mode { return s.mode }

// Rows is the number of data rows that were reduced.
func (s FileSummary) Rows() int { return s.rows }

// Keys returns the metric names in report order.
func (s FileSummary) Keys() []string { return MetricKeys(s.mode) }

// Values returns a copy of the metric values in Keys order.
func (s FileSummary) Values() []float64 { return append([]float64(nil), s.values...) }

// Value returns the named metric.
func (s FileSummary) Value(name string) (float64, bool) {
	for i, k := range s.Keys() {
		if k == name {
			return s.values[i], true
		}
	}
	return 0, false
}

// Get is Value for names that are known to exist; missing names read as 0.
func (s FileSummary) Get(name string) float64 {
	v, _ := s.Value(name)
	return v
}

// Reducer folds the rows of one file into a FileSummary.
type Reducer interface {
	Add(rec phsp.Record)
	Summary(file string) FileSummary
}

// NewReducer returns the reducer for mode m.
func NewReducer(m phsp.Mode) (Reducer, error) {
	switch m {
	case phsp.ModeDBSCAN:
		return newDBSCANReducer(), nil
	case phsp.ModeStepByStep:
		return newStepReducer(), nil
	}
	return nil, fmt.Errorf("no reducer for mode %q", m)
}

type dbscanReducer struct {
	iSSB, iDSB, iCSB int
	ssb, dsb, csb    float64
	rows             int
}

func newDBSCANReducer() *dbscanReducer {
	s := phsp.DBSCANSchema
	return &dbscanReducer{
		iSSB: s.MustIndex(phsp.ColSingleStrandBreaks),
		iDSB: s.MustIndex(phsp.ColDoubleStrandBreaks),
		iCSB: s.MustIndex(phsp.ColComplexStrandBreaks),
	}
}

func (d *dbscanReducer) Add(rec phsp.Record) {
	d.ssb += rec.Value(d.iSSB)
	d.dsb += rec.Value(d.iDSB)
	d.csb += rec.Value(d.iCSB)
	d.rows++
}

func (d *dbscanReducer) Summary(file string) FileSummary {
	return newSummary(file, phsp.ModeDBSCAN, d.rows, []float64{d.ssb, d.dsb, d.csb})
}

// stepColumns are the Step-by-Step columns that get summed, in the order of
// the first nine metrics followed by the two rate columns.
var stepColumns = []string{
	phsp.ColDosePerEvent,
	phsp.ColDSBs, phsp.ColDSBsDirect, phsp.ColDSBsIndirect, phsp.ColDSBsHybrid,
	phsp.ColSSBs, phsp.ColSSBsDirect, phsp.ColSSBsQuasiDirect, phsp.ColSSBsIndirect,
	phsp.ColDSBPerGyGbp, phsp.ColSSBPerGyGbp,
}

const (
	sDose = iota
	sDSB
	sDSBDirect
	sDSBIndirect
	sDSBHybrid
	sSSB
	sSSBDirect
	sSSBQuasi
	sSSBIndirect
	sDSBRate
	sSSBRate
)

type stepReducer struct {
	idx  []int
	sums []float64
	rows int
}

func newStepReducer() *stepReducer {
	r := &stepReducer{idx: make([]int, len(stepColumns)), sums: make([]float64, len(stepColumns))}
	for i, c := range stepColumns {
		r.idx[i] = phsp.StepByStepSchema.MustIndex(c)
	}
	return r
}

func (r *stepReducer) Add(rec phsp.Record) {
	for i, col := range r.idx {
		r.sums[i] += rec.Value(col)
	}
	r.rows++
}

func (r *stepReducer) Summary(file string) FileSummary {
	s := r.sums
	dsb, ssb := s[sDSB], s[sSSB]
	values := []float64{
		s[sDose],
		dsb, s[sDSBDirect], s[sDSBIndirect], s[sDSBHybrid],
		ssb, s[sSSBDirect], s[sSSBQuasi], s[sSSBIndirect],
		SafePercent(s[sDSBDirect], dsb), SafePercent(s[sDSBIndirect], dsb), SafePercent(s[sDSBHybrid], dsb),
		SafePercent(s[sSSBDirect], ssb), SafePercent(s[sSSBQuasi], ssb), SafePercent(s[sSSBIndirect], ssb),
		s[sDSBRate], s[sSSBRate],
		SafeRatio(ssb, dsb),
	}
	return newSummary(file, phsp.ModeStepByStep, r.rows, values)
}

// ReduceFile parses path with the schema of mode m and returns its summary.
// Any width or parse failure fails the whole file.
func ReduceFile(path string, m phsp.Mode) (FileSummary, error) {
	defer phsp.TimeTrack(time.Now(), "[analysis] reduce "+filepath.Base(path))
	schema, err := phsp.SchemaFor(m)
	if err != nil {
		return FileSummary{}, err
	}
	red, err := NewReducer(m)
	if err != nil {
		return FileSummary{}, err
	}
	rows, err := phsp.ReadFile(path, schema, func(rec phsp.Record) error {
		red.Add(rec)
		return nil
	})
	if err != nil {
		return FileSummary{}, err
	}
	name := filepath.Base(path)
	phsp.Debugf("[analysis] %s: reduced %s rows (%s mode)", name, humanize.Comma(int64(rows)), m)
	return red.Summary(name), nil
}

// DSBShares returns the Direct/Indirect/Hybrid DSB percentages.
func (s FileSummary) DSBShares() [3]float64 {
	return [3]float64{s.Get(MetricPercentDSBsDirect), s.Get(MetricPercentDSBsIndirect), s.Get(MetricPercentDSBsHybrid)}
}

// SSBShares returns the Direct/QuasiDirect/Indirect SSB percentages.
func (s FileSummary) SSBShares() [3]float64 {
	return [3]float64{s.Get(MetricPercentSSBsDirect), s.Get(MetricPercentSSBsQuasiDirect), s.Get(MetricPercentSSBsIndirect)}
}

// StrandBreaks returns the single/double/complex sums of a DBSCAN summary.
func (s FileSummary) StrandBreaks() [3]float64 {
	return [3]float64{s.Get(MetricSingleStrandBreaks), s.Get(MetricDoubleStrandBreaks), s.Get(MetricComplexStrandBreaks)}
}
