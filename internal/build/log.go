// Package build provides the ambient logging stack shared by every other
// package in this module: a leveled, structured logger backed by
// btcsuite/btclog, fanned out to the console and an optional rotating log
// file via HandlerSet.
package build

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// Log is the package-level logger every other package in this module logs
// through. It defaults to a console-only handler at Info level; call
// InitLogging during program start-up to attach file rotation and adjust
// the level.
var Log = newDefaultLogger()

func newDefaultLogger() btclogv2.Logger {
	handler := btclogv2.NewDefaultHandler(os.Stdout)
	handler.SetLevel(btclog.LevelInfo)
	return btclogv2.NewSLogger(handler, "ERLR")
}

// InitLoggingConfig configures InitLogging.
type InitLoggingConfig struct {
	// Level is the minimum level that will be logged, e.g. "debug",
	// "info", "warn", "error". Defaults to "info" if empty or
	// unrecognised.
	Level string

	// Rotator, if non-nil, receives every log line in addition to the
	// console, enabling dual-stream logging the way HandlerSet does for
	// the wider program this package was adapted from.
	Rotator *RotatingLogWriter
}

// InitLogging reconfigures the package logger per cfg. It is safe to call
// at most once during start-up, before any goroutine has begun logging.
func InitLogging(cfg InitLoggingConfig) {
	level := parseLevel(cfg.Level)

	console := btclogv2.NewDefaultHandler(os.Stdout)
	console.SetLevel(level)

	if cfg.Rotator == nil {
		Log = btclogv2.NewSLogger(console, "ERLR")
		return
	}

	file := btclogv2.NewDefaultHandler(cfg.Rotator)
	file.SetLevel(level)

	set := NewHandlerSet(console, file)
	set.SetLevel(level)

	Log = btclogv2.NewSLogger(set, "ERLR")
}

func parseLevel(s string) btclog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return btclog.LevelTrace
	case "debug":
		return btclog.LevelDebug
	case "warn", "warning":
		return btclog.LevelWarn
	case "error":
		return btclog.LevelError
	case "critical":
		return btclog.LevelCritical
	case "off":
		return btclog.LevelOff
	default:
		return btclog.LevelInfo
	}
}

// kvString renders alternating key, value, key, value, ... pairs into a
// single "key=value key=value" string for appending to a log line.
func kvString(kvs []any) string {
	if len(kvs) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i+1 < len(kvs); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", kvs[i], kvs[i+1])
	}
	return b.String()
}

// TraceS logs msg at Trace level with the given alternating key/value
// pairs appended. ctx is accepted for call-site symmetry with the other
// *S helpers and future correlation-id propagation; it is not otherwise
// consulted.
func TraceS(ctx context.Context, msg string, kvs ...any) {
	Log.Tracef("%s %s", msg, kvString(kvs))
}

// DebugS logs msg at Debug level with the given alternating key/value
// pairs appended.
func DebugS(ctx context.Context, msg string, kvs ...any) {
	Log.Debugf("%s %s", msg, kvString(kvs))
}

// InfoS logs msg at Info level with the given alternating key/value pairs
// appended.
func InfoS(ctx context.Context, msg string, kvs ...any) {
	Log.Infof("%s %s", msg, kvString(kvs))
}

// WarnS logs msg at Warn level, including err, with the given alternating
// key/value pairs appended.
func WarnS(ctx context.Context, msg string, err error, kvs ...any) {
	Log.Warnf("%s err=%v %s", msg, err, kvString(kvs))
}

// ErrorS logs msg at Error level, including err, with the given
// alternating key/value pairs appended.
func ErrorS(ctx context.Context, msg string, err error, kvs ...any) {
	Log.Errorf("%s err=%v %s", msg, err, kvString(kvs))
}
