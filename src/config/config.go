// Package config loads phspreport settings from a YAML file, then applies
// environment overrides. Command-line flags are applied by the front ends.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/charts"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "phsp.yaml"

// Config holds every setting a run needs.
type Config struct {
	Mode      string `yaml:"mode"`
	InputDir  string `yaml:"input_dir"`
	Output    string `yaml:"output"`
	Extension string `yaml:"extension"`
	LogLevel  string `yaml:"log_level"`
	// WriteChartFiles controls whether chart PNGs are written next to the sources.
	WriteChartFiles bool `yaml:"write_chart_files"`

	Charts ChartsConfig `yaml:"charts"`
}

// ChartsConfig sizes the rendered charts and picks the pie gate policy.
type ChartsConfig struct {
	BarWidth  int    `yaml:"bar_width"`
	BarHeight int    `yaml:"bar_height"`
	PieWidth  int    `yaml:"pie_width"`
	PieHeight int    `yaml:"pie_height"`
	PieGate   string `yaml:"pie_gate"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	d := charts.DefaultOptions()
	return &Config{
		Mode:            string(phsp.ModeDBSCAN),
		Extension:       phsp.DefaultExtension,
		LogLevel:        "info",
		WriteChartFiles: true,
		Charts: ChartsConfig{
			BarWidth:  d.BarWidth,
			BarHeight: d.BarHeight,
			PieWidth:  d.PieWidth,
			PieHeight: d.PieHeight,
			PieGate:   string(d.Gate),
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(path), err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PHSP_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("PHSP_INPUT_DIR"); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv("PHSP_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("PHSP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PHSP_PIE_GATE"); v != "" {
		c.Charts.PieGate = v
	}
	if v := os.Getenv("PHSP_WRITE_CHART_FILES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.WriteChartFiles = b
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := phsp.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := charts.ParseGatePolicy(c.Charts.PieGate); err != nil {
		return err
	}
	if !phsp.ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}
	if c.Extension == "" {
		return fmt.Errorf("extension must not be empty")
	}
	sizes := []struct {
		name string
		v    int
	}{
		{"charts.bar_width", c.Charts.BarWidth},
		{"charts.bar_height", c.Charts.BarHeight},
		{"charts.pie_width", c.Charts.PieWidth},
		{"charts.pie_height", c.Charts.PieHeight},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", s.name, s.v)
		}
	}
	return nil
}

// ParsedMode returns the configured mode. Call Validate first.
func (c *Config) ParsedMode() phsp.Mode {
	m, _ := phsp.ParseMode(c.Mode)
	return m
}

// ChartOptions converts the charts section for the renderer.
func (c *Config) ChartOptions() charts.Options {
	gate, err := charts.ParseGatePolicy(c.Charts.PieGate)
	if err != nil {
		gate = charts.GateEach
	}
	return charts.Options{
		BarWidth:  c.Charts.BarWidth,
		BarHeight: c.Charts.BarHeight,
		PieWidth:  c.Charts.PieWidth,
		PieHeight: c.Charts.PieHeight,
		Gate:      gate,
	}
}
