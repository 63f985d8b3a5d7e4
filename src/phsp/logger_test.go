package phsp

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	savedRoot, saved := rootLogger, baseLogger
	savedLevel := GetLogLevel()
	SetLogOutput(&buf)
	t.Cleanup(func() {
		rootLogger, baseLogger = savedRoot, saved
		currentLevel.SetLevel(savedLevel)
	})
	return &buf
}

func TestInfof_NoDoubleFormattingWithPercent(t *testing.T) {
	buf := captureLogs(t)
	SetLogLevel("info")

	msg := "[scan] run1.phsp: Percentage_DSBs_Direct=45.0% (100.0% of rows parsed)"
	Infof(msg)

	out := buf.String()
	if !strings.Contains(out, "(100.0% of rows parsed)") {
		t.Fatalf("log output missing expected percent segment: %s", out)
	}
	if strings.Contains(out, "%!") {
		t.Fatalf("log output shows fmt artifact: %s", out)
	}
}

func TestSetLogLevelFiltersDebug(t *testing.T) {
	buf := captureLogs(t)
	SetLogLevel("warn")
	Infof("hidden %d", 1)
	Debugf("hidden too")
	Warnf("shown %s", "warn")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info/debug suppressed at warn level: %s", out)
	}
	if !strings.Contains(out, "shown warn") {
		t.Fatalf("expected warn line: %s", out)
	}
}

func TestSetLogLevelIgnoresUnknown(t *testing.T) {
	captureLogs(t)
	SetLogLevel("debug")
	SetLogLevel("chatty")
	if GetLogLevel().String() != "debug" {
		t.Fatalf("unknown level changed state: %s", GetLogLevel())
	}
	if ValidLogLevel("chatty") || !ValidLogLevel(" WARNING ") {
		t.Fatalf("ValidLogLevel mismatch")
	}
}

func TestSetRunIDAddsField(t *testing.T) {
	buf := captureLogs(t)
	SetLogLevel("debug")
	SetRunID("abc-123")
	TimeTrack(time.Now(), "phase")
	out := buf.String()
	if !strings.Contains(out, "abc-123") || !strings.Contains(out, "phase took") {
		t.Fatalf("run id or timing missing: %s", out)
	}
}

func TestSetRunIDReplacesPrevious(t *testing.T) {
	buf := captureLogs(t)
	SetLogLevel("info")
	SetRunID("first")
	SetRunID("second")
	Infof("tagged")
	SetRunID("")
	Infof("untagged")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if strings.Contains(lines[0], "first") || !strings.Contains(lines[0], "second") {
		t.Fatalf("run id not replaced: %s", lines[0])
	}
	if strings.Contains(lines[1], "run_id") {
		t.Fatalf("run id not cleared: %s", lines[1])
	}
}
