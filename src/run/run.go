// Package run drives one report run: choose a directory, analyze it into an
// in-memory report, choose a save path, commit. The CLI and the desktop
// viewer both go through here.
package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/analysis"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/charts"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/config"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/report"
)

// Status lines shown to the user.
const (
	StatusOperationCanceled = "Operation was canceled."
	StatusSaveCanceled      = "Save operation was canceled."
	statusSavedPrefix       = "Result saved to: "
	statusFailedPrefix      = "Analysis failed: "
)

// StatusSaved is the status after a successful commit.
func StatusSaved(path string) string { return statusSavedPrefix + path }

// StatusFailed is the status after an analysis or save error.
func StatusFailed(err error) string { return statusFailedPrefix + err.Error() }

// StatusSink receives user-facing status lines.
type StatusSink interface {
	Status(msg string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(msg string)

// Status implements StatusSink.
func (f StatusFunc) Status(msg string) { f(msg) }

// Chooser asks the user for paths. ok=false means the user canceled.
type Chooser interface {
	ChooseDirectory() (dir string, ok bool, err error)
	ChooseSavePath(defaultName string) (path string, ok bool, err error)
}

// Context is built once per run and passed to every phase.
type Context struct {
	ID              string
	Mode            phsp.Mode
	InputDir        string
	OutputPath      string
	Extension       string
	Charts          charts.Options
	WriteChartFiles bool

	Status   StatusSink
	Progress func(done, total int, name string)
}

// NewContext validates cfg and builds a run context with a fresh run id.
func NewContext(cfg *config.Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Context{
		ID:              uuid.NewString(),
		Mode:            cfg.ParsedMode(),
		InputDir:        cfg.InputDir,
		OutputPath:      cfg.Output,
		Extension:       cfg.Extension,
		Charts:          cfg.ChartOptions(),
		WriteChartFiles: cfg.WriteChartFiles,
	}, nil
}

func (rc *Context) status(msg string) {
	if rc.Status != nil {
		rc.Status.Status(msg)
	}
}

// Outcome is the result of a run as the user sees it.
type Outcome struct {
	Status   string
	Path     string
	Canceled bool
	Files    int
	Charts   []string
}

// DefaultReportName suggests a workbook name for mode.
func DefaultReportName(m phsp.Mode) string {
	return strings.ReplaceAll(string(m), "-", "") + "_Results.xlsx"
}

// EnsureXLSXExt appends .xlsx when path has no extension.
func EnsureXLSXExt(path string) string {
	if path == "" || filepath.Ext(path) != "" {
		return path
	}
	return path + ".xlsx"
}

// Analyze scans rc.InputDir and builds the report in memory. Nothing is
// written to disk.
func Analyze(ctx context.Context, rc *Context) (*report.Report, error) {
	if rc.InputDir == "" {
		return nil, errors.New("no input directory")
	}
	defer phsp.TimeTrack(time.Now(), "[run] analyze")
	rep := report.New(rc.Mode, rc.InputDir)
	_, err := analysis.AnalyzeDirectory(ctx, rc.InputDir, analysis.ScanOptions{
		Mode:      rc.Mode,
		Extension: rc.Extension,
		Progress:  rc.Progress,
		Visit: func(sum analysis.FileSummary) error {
			art, err := charts.Render(sum, rc.Charts)
			if err != nil {
				return err
			}
			return rep.Add(sum, art)
		},
	})
	if err != nil {
		return nil, err
	}
	phsp.Infof("[run] %s: %d files, %d charts", rc.InputDir, rep.Len(), len(rep.Charts()))
	return rep, nil
}

// Commit saves rep to path, then writes its charts next to the sources when
// rc.WriteChartFiles is set.
func Commit(rc *Context, rep *report.Report, path string) (Outcome, error) {
	path = EnsureXLSXExt(path)
	if err := rep.Save(path); err != nil {
		out := Outcome{Status: StatusFailed(err), Files: rep.Len()}
		rc.status(out.Status)
		return out, err
	}
	out := Outcome{Status: StatusSaved(path), Path: path, Files: rep.Len()}
	if rc.WriteChartFiles {
		written, err := rep.WriteCharts()
		out.Charts = written
		if err != nil {
			out.Status = StatusFailed(err)
			rc.status(out.Status)
			return out, err
		}
	}
	rc.status(out.Status)
	return out, nil
}

// Canceled records a user cancellation as the outcome of the run.
func Canceled(rc *Context, status string) Outcome {
	phsp.Infof("[run] %s", status)
	rc.status(status)
	return Outcome{Status: status, Canceled: true}
}

// Execute runs every phase. Paths already set on rc are used as is; the
// chooser is asked for the rest.
func Execute(ctx context.Context, rc *Context, ch Chooser) (Outcome, error) {
	if rc.InputDir == "" {
		if ch == nil {
			return Outcome{}, errors.New("no input directory and no chooser")
		}
		dir, ok, err := ch.ChooseDirectory()
		if err != nil {
			return Outcome{}, fmt.Errorf("choose directory: %w", err)
		}
		if !ok || dir == "" {
			return Canceled(rc, StatusOperationCanceled), nil
		}
		rc.InputDir = dir
	}

	rep, err := Analyze(ctx, rc)
	if err != nil {
		out := Outcome{Status: StatusFailed(err)}
		rc.status(out.Status)
		return out, err
	}

	path := rc.OutputPath
	if path == "" {
		if ch == nil {
			return Outcome{}, errors.New("no output path and no chooser")
		}
		p, ok, err := ch.ChooseSavePath(DefaultReportName(rc.Mode))
		if err != nil {
			return Outcome{}, fmt.Errorf("choose save path: %w", err)
		}
		if !ok || p == "" {
			return Canceled(rc, StatusSaveCanceled), nil
		}
		path = p
	}
	return Commit(rc, rep, path)
}
