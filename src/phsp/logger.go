package phsp

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levelNames = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

var currentLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// rootLogger carries no run fields; baseLogger is what the helpers write to.
var (
	rootLogger = newLogger(os.Stderr)
	baseLogger = rootLogger
)

// newLogger builds the console logger shared by all packages. Output goes to w
// and honours currentLevel.
func newLogger(w io.Writer) *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	enc.EncodeCaller = nil
	enc.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), currentLevel)
	return zap.New(core).Sugar()
}

// SetLogLevel parses and sets global log level. Unknown names are ignored.
func SetLogLevel(s string) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return
	}
	currentLevel.SetLevel(l)
}

// ValidLogLevel reports whether s names a level accepted by SetLogLevel.
func ValidLogLevel(s string) bool {
	_, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// GetLogLevel returns current global log level.
func GetLogLevel() zapcore.Level { return currentLevel.Level() }

// SetRunID tags every following log line with run_id=id, replacing any
// previous id. An empty id removes the tag.
func SetRunID(id string) {
	if id == "" {
		baseLogger = rootLogger
		return
	}
	baseLogger = rootLogger.With("run_id", id)
}

// SetLogOutput redirects log output, e.g. to io.Discard while a progress bar owns the terminal.
func SetLogOutput(w io.Writer) {
	rootLogger = newLogger(w)
	baseLogger = rootLogger
}

// Sync flushes buffered log entries.
func Sync() { _ = baseLogger.Sync() }

// Public helpers. A format without args is logged verbatim, so literal % in
// pre-formatted messages survive.
func Debugf(format string, a ...interface{}) { baseLogger.Debugf(format, a...) }
func Infof(format string, a ...interface{})  { baseLogger.Infof(format, a...) }
func Warnf(format string, a ...interface{})  { baseLogger.Warnf(format, a...) }
func Errorf(format string, a ...interface{}) { baseLogger.Errorf(format, a...) }

// Timing helper for phases.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
