// Package uihelpers holds the viewer logic that does not need a window, so it
// can be tested headless.
package uihelpers

import (
	"path/filepath"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

// ModeOptions are the radio group labels in display order.
func ModeOptions() []string {
	out := make([]string, len(phsp.Modes))
	for i, m := range phsp.Modes {
		out[i] = string(m)
	}
	return out
}

// ModeFromSelection maps a radio label to a mode. An empty or unknown
// selection falls back to DBSCAN, the initial choice.
func ModeFromSelection(sel string) phsp.Mode {
	m, err := phsp.ParseMode(sel)
	if err != nil {
		return phsp.ModeDBSCAN
	}
	return m
}

// TruncatePath shortens p to about n characters keeping the base name.
func TruncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}
