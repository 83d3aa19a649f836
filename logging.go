package objectloop

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Severity mirrors the (category, severity, file, line, message) shape of a
// single log record.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Logger is the logging sink consumed by the dispatcher, thread and object
// model: callers never see an exception, only a logged usage error and a
// no-op.
type Logger interface {
	Log(severity Severity, category, message string)
}

// noopLogger discards everything. It is the default when no logger is
// configured, so the core never has to nil-check.
type noopLogger struct{}

func (noopLogger) Log(Severity, string, string) {}

// NewZerologLogger adapts a zerolog.Logger to the Logger interface, tagging
// every record with the calling file and line.
func NewZerologLogger(backend zerolog.Logger) Logger {
	return &zerologLogger{backend: backend}
}

// NewDefaultLogger returns a console-formatted zerolog-backed Logger
// writing to stderr, for callers that don't want to configure their own
// zerolog.Logger.
func NewDefaultLogger(minSeverity Severity) Logger {
	backend := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger().Level(severityToZerolog(minSeverity))
	return NewZerologLogger(backend)
}

type zerologLogger struct {
	backend zerolog.Logger
}

func (l *zerologLogger) Log(severity Severity, category, message string) {
	_, file, line, ok := runtime.Caller(1)
	ev := l.backend.WithLevel(severityToZerolog(severity)).Str("category", category)
	if ok {
		ev = ev.Str("file", file).Int("line", line)
	}
	ev.Msg(message)
}

func severityToZerolog(s Severity) zerolog.Level {
	switch s {
	case SeverityDebug:
		return zerolog.DebugLevel
	case SeverityInfo:
		return zerolog.InfoLevel
	case SeverityWarn:
		return zerolog.WarnLevel
	case SeverityError:
		return zerolog.ErrorLevel
	case SeverityFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
