// phspreport entrypoint.
//
// Two subcommands share the run pipeline:
//  1. analyze: scan a directory of .phsp files, build the workbook, save it and
//     write the chart PNGs next to the sources.
//  2. summarize: scan and reduce only, print per-file summaries as a table or JSON.
//     Nothing is written.
//
// Settings come from phsp.yaml (or --config), then PHSP_* environment
// variables, then flags.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/analysis"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/config"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/run"
)

// runFlags are the flags shared by analyze and summarize.
type runFlags struct {
	configPath string
	logLevel   string
	mode       string
	dir        string
	out        string
	ext        string
	pieGate    string
	noCharts   bool
	noProgress bool
}

func newRootCmd() *cobra.Command {
	f := &runFlags{}
	root := &cobra.Command{
		Use:           "phspreport",
		Short:         "Summarize DBSCAN and Step-by-Step phase space files into an xlsx report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", config.DefaultPath, "YAML config file (missing file means defaults)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&f.mode, "mode", "", "Analysis mode: dbscan or step-by-step")
	root.PersistentFlags().StringVar(&f.dir, "dir", "", "Directory containing the phase space files")
	root.PersistentFlags().StringVar(&f.ext, "ext", "", "Input file extension (default .phsp)")
	root.PersistentFlags().StringVar(&f.pieGate, "pie-gate", "", "Step-by-Step pie gate: each or both")
	root.PersistentFlags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")

	root.AddCommand(newAnalyzeCmd(f), newSummarizeCmd(f))
	return root
}

func newAnalyzeCmd(f *runFlags) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a directory and save the xlsx report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer phsp.Sync()
			var ch run.Chooser
			if interactive {
				ch = &promptChooser{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
			} else if rc.InputDir == "" || rc.OutputPath == "" {
				return fmt.Errorf("--dir and --out are required unless --interactive is set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			out, err := run.Execute(ctx, rc, ch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Status)
			if len(out.Charts) > 0 {
				phsp.Infof("[cli] wrote %d chart files to %s", len(out.Charts), rc.InputDir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.out, "out", "", "Output workbook path (.xlsx appended when missing)")
	cmd.Flags().BoolVar(&f.noCharts, "no-chart-files", false, "Do not write chart PNGs next to the sources")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for missing directory and output path")
	return cmd
}

func newSummarizeCmd(f *runFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print per-file summaries without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer phsp.Sync()
			if rc.InputDir == "" {
				return fmt.Errorf("--dir is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			rep, err := run.Analyze(ctx, rc)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rep.Summaries())
			}
			return writeTable(cmd.OutOrStdout(), rc.Mode, rep.Summaries())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// setup loads the config, applies flags and builds the run context.
func setup(cmd *cobra.Command, f *runFlags) (*run.Context, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = f.mode
	}
	if flags.Changed("dir") {
		cfg.InputDir = f.dir
	}
	if flags.Changed("out") {
		cfg.Output = f.out
	}
	if flags.Changed("ext") {
		cfg.Extension = f.ext
	}
	if flags.Changed("pie-gate") {
		cfg.Charts.PieGate = f.pieGate
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.noCharts {
		cfg.WriteChartFiles = false
	}
	rc, err := run.NewContext(cfg)
	if err != nil {
		return nil, err
	}
	phsp.SetLogLevel(cfg.LogLevel)
	if !f.noProgress && isTerminal(cmd.ErrOrStderr()) {
		rc.Progress = progressFunc(cmd.ErrOrStderr())
	}
	phsp.SetRunID(rc.ID)
	phsp.Debugf("[cli] run %s: mode=%s dir=%s", rc.ID, rc.Mode, rc.InputDir)
	return rc, nil
}

func isTerminal(w io.Writer) bool {
	if fw, ok := w.(*os.File); ok {
		return term.IsTerminal(int(fw.Fd()))
	}
	return false
}

// progressFunc draws one bar over the files of a scan. The bar is created on
// the first callback, when the total is known.
func progressFunc(w io.Writer) func(done, total int, name string) {
	var bar *progressbar.ProgressBar
	return func(done, total int, name string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("analyzing"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionSetWriter(w),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
			)
		}
		bar.Describe(name)
		_ = bar.Set(done)
	}
}

// promptChooser asks on the terminal. An empty answer cancels.
type promptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *promptChooser) ask(q string) (string, bool, error) {
	fmt.Fprint(p.out, q)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	line = strings.TrimSpace(line)
	return line, line != "", nil
}

func (p *promptChooser) ChooseDirectory() (string, bool, error) {
	return p.ask("Directory to analyze (empty to cancel): ")
}

func (p *promptChooser) ChooseSavePath(def string) (string, bool, error) {
	return p.ask(fmt.Sprintf("Save report as (e.g. %s, empty to cancel): ", def))
}

type metricJSON struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

type summaryJSON struct {
	File    string       `json:"file"`
	Mode    string       `json:"mode"`
	Rows    int          `json:"rows"`
	Metrics []metricJSON `json:"metrics"`
}

// writeJSON prints sums as an array. NaN and Inf become null.
func writeJSON(w io.Writer, sums []analysis.FileSummary) error {
	out := make([]summaryJSON, 0, len(sums))
	for _, s := range sums {
		js := summaryJSON{File: s.File(), Mode: string(s.Mode()), Rows: s.Rows()}
		vals := s.Values()
		for i, k := range s.Keys() {
			m := metricJSON{Name: k}
			if v := vals[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				m.Value = &v
			}
			js.Metrics = append(js.Metrics, m)
		}
		out = append(out, js)
	}
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, m phsp.Mode, sums []analysis.FileSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File\tRows\t%s\n", strings.Join(analysis.MetricKeys(m), "\t"))
	for _, s := range sums {
		cells := make([]string, 0, len(s.Keys()))
		for _, v := range s.Values() {
			cells = append(cells, formatValue(v))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.File(), humanize.Comma(int64(s.Rows())), strings.Join(cells, "\t"))
	}
	fmt.Fprintf(tw, "Total files: %d\n", len(sums))
	return tw.Flush()
}

func formatValue(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return "-"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return humanize.Comma(int64(v))
	default:
		return fmt.Sprintf("%.4g", v)
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		phsp.Sync()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
