package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

// ListInputFiles returns the names of regular files in dir ending in ext,
// sorted so repeated scans visit files in the same order.
func ListInputFiles(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = phsp.DefaultExtension
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		if !e.Type().IsRegular() {
			// follow symlinks, skip anything that is not a file behind them
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ScanOptions controls AnalyzeDirectory.
type ScanOptions struct {
	Mode      phsp.Mode
	Extension string
	// Visit is called with every summary in scan order. An error aborts the scan.
	Visit func(FileSummary) error
	// Progress is called after each file with the number done and the total.
	Progress func(done, total int, name string)
}

// AnalyzeDirectory reduces every matching file in dir. The batch is
// all-or-nothing: the first file that fails aborts the scan and no summaries
// are returned. ctx is checked between files only.
func AnalyzeDirectory(ctx context.Context, dir string, opts ScanOptions) ([]FileSummary, error) {
	defer phsp.TimeTrack(time.Now(), "[scan] "+dir)
	names, err := ListInputFiles(dir, opts.Extension)
	if err != nil {
		return nil, err
	}
	phsp.Infof("[scan] %s: %d %s file(s) in %s mode", dir, len(names), extOrDefault(opts.Extension), opts.Mode)
	out := make([]FileSummary, 0, len(names))
	var rows int
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum, err := ReduceFile(filepath.Join(dir, name), opts.Mode)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", name, err)
		}
		if opts.Visit != nil {
			if err := opts.Visit(sum); err != nil {
				return nil, err
			}
		}
		out = append(out, sum)
		rows += sum.Rows()
		if opts.Progress != nil {
			opts.Progress(i+1, len(names), name)
		}
	}
	phsp.Infof("[scan] reduced %s rows from %d file(s)", humanize.Comma(int64(rows)), len(out))
	return out, nil
}

func extOrDefault(ext string) string {
	if ext == "" {
		return phsp.DefaultExtension
	}
	return ext
}
