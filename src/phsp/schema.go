// Package phsp defines the column layouts of the phase-space damage files
// written by the simulation and reads them into typed records.
//
// A .phsp file has no header. Each line is one event and its columns are
// identified purely by position, so every mode carries an explicit ordered
// Schema and rows are checked against its width before any field is read.
package phsp

import (
	"fmt"
	"strings"
)

// Mode selects the simulation output flavour and with it the column layout.
type Mode string

const (
	ModeDBSCAN     Mode = "DBSCAN"
	ModeStepByStep Mode = "Step-by-Step"
)

// DefaultExtension is the file extension of simulation output files.
const DefaultExtension = ".phsp"

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeDBSCAN, ModeStepByStep}

// ParseMode accepts the display names as well as common CLI spellings
// (dbscan, step-by-step, stepbystep, step_by_step, sbs).
func ParseMode(s string) (Mode, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("-", "", "_", "", " ", "").Replace(k)
	switch k {
	case "dbscan":
		return ModeDBSCAN, nil
	case "stepbystep", "sbs":
		return ModeStepByStep, nil
	}
	return "", fmt.Errorf("unknown mode %q (want DBSCAN or Step-by-Step)", s)
}

// FieldKind tells the parser how to interpret a column.
type FieldKind int

const (
	// Numeric columns must parse as float64.
	Numeric FieldKind = iota
	// Text columns are kept verbatim (e.g. DBSCAN cluster size lists).
	Text
)

// Field is one named column.
type Field struct {
	Name string
	Kind FieldKind
}

// Schema is the ordered column layout of one mode.
type Schema struct {
	Mode   Mode
	Fields []Field
	index  map[string]int
}

func newSchema(m Mode, fields []Field) *Schema {
	s := &Schema{Mode: m, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Len returns the number of columns every row must have.
func (s *Schema) Len() int { return len(s.Fields) }

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// MustIndex is Index for names known at compile time; it panics on a typo.
func (s *Schema) MustIndex(name string) int {
	i, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("phsp: %s schema has no column %q", s.Mode, name))
	}
	return i
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

func numeric(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n, Kind: Numeric}
	}
	return out
}

// DBSCAN column names.
const (
	ColEventNumber         = "Event_number"
	ColSingleStrandBreaks  = "Single_strand_breaks"
	ColDoubleStrandBreaks  = "Double_strand_breaks"
	ColComplexStrandBreaks = "Complex_strand_breaks"
	ColClusterSizes        = "Cluster_sizes"
	ColClusterSizeWeights  = "Cluster_size_weights"
)

// Step-by-Step column names read by the reducer. The remaining columns are
// only listed in StepByStepSchema.
const (
	ColDosePerEvent    = "Dose_per_event_Gy"
	ColDSBPerGyGbp     = "DSB/Gy/Gbp"
	ColSSBPerGyGbp     = "SSB/Gy/Gbp"
	ColDSBs            = "DSBs"
	ColDSBsDirect      = "DSBs_Direct"
	ColDSBsIndirect    = "DSBs_Indirect"
	ColDSBsHybrid      = "DSBs_Hybrid"
	ColSSBs            = "SSBs"
	ColSSBsDirect      = "SSBs_Direct"
	ColSSBsQuasiDirect = "SSBs_QuasiDirect"
	ColSSBsIndirect    = "SSBs_Indirect"
)

// DBSCANSchema is the 6-column layout of DBSCAN clustering output.
var DBSCANSchema = newSchema(ModeDBSCAN, append(
	numeric(ColEventNumber, ColSingleStrandBreaks, ColDoubleStrandBreaks, ColComplexStrandBreaks),
	Field{Name: ColClusterSizes, Kind: Text},
	Field{Name: ColClusterSizeWeights, Kind: Text},
))

// StepByStepSchema is the 33-column layout of step-by-step damage scoring.
var StepByStepSchema = newSchema(ModeStepByStep, numeric(
	"Energy_imparted_per_event", ColDosePerEvent, ColDSBPerGyGbp, ColSSBPerGyGbp,
	"SB/Gy/Gbp", "SSB+/Gy/Gbp", "DSB+/Gy/Gbp", "MoreComplexDamage/Gy/Gbp",
	"BD/Gy/Gbp", ColDSBs, ColDSBsDirect, ColDSBsIndirect, ColDSBsHybrid,
	"DSBs_Direct_WithOneQuasiDirect", "DSBs_Direct_WithBothQuasiDirect",
	"DSBs_Hybrid_WithOneQuasiDirect", ColSSBs, ColSSBsDirect, ColSSBsQuasiDirect,
	ColSSBsIndirect, "SBs", "SBs_Direct", "SBs_QuasiDirect", "SBs_Indirect",
	"SSB+s", "DSB+s", "More_complex_damages", "BDs", "BDs_Direct", "BDs_QuasiDirect",
	"BDs_Indirect", "Foci_150nm", "Foci_500nm",
))

// SchemaFor returns the fixed schema of mode m.
func SchemaFor(m Mode) (*Schema, error) {
	switch m {
	case ModeDBSCAN:
		return DBSCANSchema, nil
	case ModeStepByStep:
		return StepByStepSchema, nil
	}
	return nil, fmt.Errorf("no schema for mode %q", m)
}
