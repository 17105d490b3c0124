// Package logging wires spec.md's components into a shared,
// subsystem-tagged logging backend, grounded on the teacher's
// `logger/logger.go` (a single backend logger, a tee'd stdout+rotator
// writer, and a map of short subsystem tags to per-subsystem loggers). The
// teacher's own `logs` backend package wasn't present in the retrieved
// sample, so `github.com/btcsuite/btclog` — the real upstream library that
// family of loggers is built on — is used directly instead of
// reimplementing its API by hand.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem tags, one per spec.md component.
const (
	Mempool   = "MEMP"
	Broadcast = "BCST"
	Template  = "TMPL"
	RPCClient = "RPCC"
	Config    = "CONF"
)

var subsystemTags = []string{Mempool, Broadcast, Template, RPCClient, Config}

// logWriter tees log output to stdout and, once initialized, to a rolling
// log file.
type logWriter struct {
	rotator *rotator.Rotator
}

func (w *logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if w.rotator != nil {
		w.rotator.Write(p)
	}
	return len(p), nil
}

var (
	writer       = &logWriter{}
	backend      = btclog.NewBackend(writer)
	subsystemLog = make(map[string]btclog.Logger, len(subsystemTags))
)

func init() {
	for _, tag := range subsystemTags {
		subsystemLog[tag] = backend.Logger(tag)
	}
}

// InitLogRotator points every subsystem logger's output at a rolling log
// file at logFile, in addition to stdout. It must be called once, early
// during startup, before subsystem loggers are used from other
// goroutines — mirroring the teacher's InitLogRotators contract.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("logging: creating log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("logging: creating file rotator: %w", err)
	}
	writer.rotator = r
	return nil
}

// Logger returns the logger for the given subsystem tag. Unknown tags
// return a no-op logger rather than nil, so a typo in a tag never crashes
// the caller.
func Logger(tag string) btclog.Logger {
	if logger, ok := subsystemLog[tag]; ok {
		return logger
	}
	return btclog.Disabled
}

// SetLevel sets the logging level for the given subsystem tag. Unknown tags
// are ignored.
func SetLevel(tag string, level btclog.Level) {
	if logger, ok := subsystemLog[tag]; ok {
		logger.SetLevel(level)
	}
}

// SetLevels sets the logging level for every subsystem.
func SetLevels(level btclog.Level) {
	for _, logger := range subsystemLog {
		logger.SetLevel(level)
	}
}

// ParseAndSetDebugLevels parses a debug-level specification — either a bare
// level ("info") applied to every subsystem, or a comma-separated list of
// TAG=level pairs ("MEMP=debug,BCST=trace") — and applies it, grounded on
// the teacher's ParseAndSetDebugLevels.
func ParseAndSetDebugLevels(spec string) error {
	if !strings.Contains(spec, ",") && !strings.Contains(spec, "=") {
		level, ok := btclog.LevelFromString(spec)
		if !ok {
			return fmt.Errorf("logging: invalid debug level %q", spec)
		}
		SetLevels(level)
		return nil
	}

	for _, pair := range strings.Split(spec, ",") {
		fields := strings.SplitN(pair, "=", 2)
		if len(fields) != 2 {
			return fmt.Errorf("logging: invalid subsystem/level pair %q", pair)
		}
		tag, levelStr := fields[0], fields[1]
		if _, ok := subsystemLog[tag]; !ok {
			return fmt.Errorf("logging: unknown subsystem %q (supported: %s)", tag, strings.Join(SupportedSubsystems(), ", "))
		}
		level, ok := btclog.LevelFromString(levelStr)
		if !ok {
			return fmt.Errorf("logging: invalid debug level %q", levelStr)
		}
		SetLevel(tag, level)
	}
	return nil
}

// SupportedSubsystems returns every subsystem tag, sorted.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystemLog))
	for tag := range subsystemLog {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

var _ io.Writer = (*logWriter)(nil)

// Spawn runs f in a new goroutine, recovering and logging any panic against
// the named subsystem rather than crashing the process — adapted from the
// teacher's `util/panics.GoroutineWrapperFunc`/`HandlePanic` pair, compacted
// into a single call since this package's loggers don't carry the teacher's
// own Backend.Close() shutdown hook.
func Spawn(tag string, f func()) {
	stackTrace := debug.Stack()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger := Logger(tag)
				logger.Criticalf("panic: %v", r)
				logger.Criticalf("goroutine stack trace at spawn: %s", stackTrace)
				logger.Criticalf("stack trace: %s", debug.Stack())
			}
		}()
		f()
	}()
}
