package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/analysis"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

func writePhsp(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

// execute runs the CLI with args against a config path that does not exist.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommandWritesReport(t *testing.T) {
	src := t.TempDir()
	writePhsp(t, src, "a.phsp", "1 3 1 0 [1] [1]", "2 4 0 2 [1] [1]")
	out := filepath.Join(t.TempDir(), "dbscan")

	stdout, err := execute(t, "", "analyze", "--mode", "dbscan", "--dir", src, "--out", out)
	require.NoError(t, err)
	assert.Equal(t, "Result saved to: "+out+".xlsx\n", stdout)

	f, err := excelize.OpenFile(out + ".xlsx")
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.phsp", "7", "1", "2"}, rows[1])
	_, err = os.Stat(filepath.Join(src, "a.phsp.png"))
	assert.NoError(t, err)
}

func TestAnalyzeCommandNoChartFiles(t *testing.T) {
	src := t.TempDir()
	writePhsp(t, src, "a.phsp", "1 3 1 0 [1] [1]")
	_, err := execute(t, "", "analyze", "--dir", src, "--out", filepath.Join(t.TempDir(), "r.xlsx"), "--no-chart-files")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(src, "a.phsp.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyzeCommandRequiresPaths(t *testing.T) {
	_, err := execute(t, "", "analyze", "--mode", "dbscan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dir and --out")
}

func TestAnalyzeCommandInteractiveCancel(t *testing.T) {
	src := t.TempDir()
	writePhsp(t, src, "a.phsp", "1 3 1 0 [1] [1]")
	stdout, err := execute(t, src+"\n\n", "analyze", "--interactive")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stdout, "Save operation was canceled.\n"), stdout)
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAnalyzeCommandInteractiveDirectoryCancel(t *testing.T) {
	stdout, err := execute(t, "\n", "analyze", "--interactive")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stdout, "Operation was canceled.\n"), stdout)
}

func TestAnalyzeCommandSchemaMismatch(t *testing.T) {
	src := t.TempDir()
	writePhsp(t, src, "bad.phsp", "1 2 3")
	_, err := execute(t, "", "analyze", "--dir", src, "--out", filepath.Join(t.TempDir(), "r.xlsx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, phsp.ErrSchemaMismatch))
}

func TestSummarizeTable(t *testing.T) {
	src := t.TempDir()
	writePhsp(t, src, "a.phsp", "1 3 1 0 [1] [1]")
	writePhsp(t, src, "b.phsp", "1 1000 1 1 [1] [1]")
	stdout, err := execute(t, "", "summarize", "--dir", src)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "File"))
	assert.Contains(t, lines[0], analysis.MetricComplexStrandBreaks)
	assert.Contains(t, lines[2], "1,000")
	assert.Equal(t, "Total files: 2", lines[3])
}

func TestSummarizeJSON(t *testing.T) {
	src := t.TempDir()
	writePhsp(t, src, "a.phsp", "1 NaN 1 0 [1] [1]")
	stdout, err := execute(t, "", "summarize", "--dir", src, "--json")
	require.NoError(t, err)

	var got []summaryJSON
	require.NoError(t, jsoniter.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a.phsp", got[0].File)
	assert.Equal(t, "DBSCAN", got[0].Mode)
	require.Len(t, got[0].Metrics, 3)
	assert.Nil(t, got[0].Metrics[0].Value, "NaN encodes as null")
	require.NotNil(t, got[0].Metrics[1].Value)
	assert.Equal(t, 1.0, *got[0].Metrics[1].Value)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12,345", formatValue(12345))
	assert.Equal(t, "0.25", formatValue(0.25))
	assert.Equal(t, "-", formatValue(math.NaN()))
	assert.Equal(t, "-", formatValue(math.Inf(-1)))
}
