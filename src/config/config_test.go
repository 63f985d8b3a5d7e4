package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/charts"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, phsp.ModeDBSCAN, cfg.ParsedMode())
	assert.Equal(t, charts.DefaultOptions(), cfg.ChartOptions())
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "phsp.yaml")
	body := `mode: step-by-step
input_dir: /data/run7
extension: .dat
write_chart_files: false
charts:
  pie_width: 500
  pie_gate: both
`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, phsp.ModeStepByStep, cfg.ParsedMode())
	assert.Equal(t, "/data/run7", cfg.InputDir)
	assert.Equal(t, ".dat", cfg.Extension)
	assert.False(t, cfg.WriteChartFiles)
	opts := cfg.ChartOptions()
	assert.Equal(t, 500, opts.PieWidth)
	assert.Equal(t, 700, opts.PieHeight, "unset keys keep defaults")
	assert.Equal(t, charts.GateBoth, opts.Gate)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "phsp.yaml")
	require.NoError(t, os.WriteFile(p, []byte("charts: [unclosed"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("env beats file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "phsp.yaml")
		require.NoError(t, os.WriteFile(p, []byte("mode: dbscan\noutput: a.xlsx\n"), 0o644))
		t.Setenv("PHSP_MODE", "sbs")
		t.Setenv("PHSP_OUTPUT", "b.xlsx")

		cfg, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, phsp.ModeStepByStep, cfg.ParsedMode())
		assert.Equal(t, "b.xlsx", cfg.Output)
	})

	t.Run("remaining keys", func(t *testing.T) {
		t.Setenv("PHSP_INPUT_DIR", "/in")
		t.Setenv("PHSP_LOG_LEVEL", "debug")
		t.Setenv("PHSP_PIE_GATE", "both")
		t.Setenv("PHSP_WRITE_CHART_FILES", "false")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/in", cfg.InputDir)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "both", cfg.Charts.PieGate)
		assert.False(t, cfg.WriteChartFiles)
	})

	t.Run("unparsable bool is ignored", func(t *testing.T) {
		t.Setenv("PHSP_WRITE_CHART_FILES", "maybe")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.WriteChartFiles)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"mode":      func(c *Config) { c.Mode = "kmeans" },
		"gate":      func(c *Config) { c.Charts.PieGate = "either" },
		"log level": func(c *Config) { c.LogLevel = "loud" },
		"extension": func(c *Config) { c.Extension = "" },
		"bar width": func(c *Config) { c.Charts.BarWidth = 0 },
		"pie size":  func(c *Config) { c.Charts.PieHeight = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.InputDir = "/x"
	require.NoError(t, cfg.Save(p))
	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
