package realtime

import (
	"fmt"
	"log"
	"os"
)

type LogLevel uint

const (
	LogNone LogLevel = iota
	LogError
	LogWarning
	LogInfo
	LogVerbose
	LogDebug
)

var logLevelNames = map[LogLevel]string{
	LogError:   "[ERROR] ",
	LogWarning: "[WARN] ",
	LogInfo:    "[INFO] ",
	LogVerbose: "[VERBOSE] ",
	LogDebug:   "[DEBUG] ",
}

// String implements the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LogNone:
		return "none"
	case LogError:
		return "error"
	case LogWarning:
		return "warning"
	case LogInfo:
		return "info"
	case LogVerbose:
		return "verbose"
	case LogDebug:
		return "debug"
	default:
		return fmt.Sprintf("LogLevel(%d)", uint(l))
	}
}

// ParseLogLevel maps a level name, as printed by LogLevel.String, back to
// its value.
func ParseLogLevel(s string) (LogLevel, error) {
	for l := LogNone; l <= LogDebug; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return LogNone, fmt.Errorf("unknown log level %q", s)
}

// Logger is an interface for realtime client loggers.
type Logger interface {
	Printf(level LogLevel, format string, v ...interface{})
}

// LoggerOptions pairs a Logger with the most verbose level it receives.
type LoggerOptions struct {
	Logger Logger
	Level  LogLevel
}

func (l LoggerOptions) Is(level LogLevel) bool {
	return l.Level != LogNone && l.Level >= level
}

func (l LoggerOptions) Printf(level LogLevel, format string, v ...interface{}) {
	if l.Is(level) && l.Logger != nil {
		l.Logger.Printf(level, format, v...)
	}
}

// stdLogger wraps log.Logger to satisfy the Logger interface.
type stdLogger struct {
	*log.Logger
}

func (s *stdLogger) Printf(level LogLevel, format string, v ...interface{}) {
	s.Logger.Printf(logLevelNames[level]+format, v...)
}

func defaultLogger() Logger {
	return &stdLogger{Logger: log.New(os.Stderr, "realtime: ", log.LstdFlags)}
}

// logger is the internal logger type, with helper methods that wrap the raw
// LoggerOptions.
type logger struct {
	l LoggerOptions
}

func (l logger) Errorf(fmt string, v ...interface{}) {
	l.l.Printf(LogError, fmt, v...)
}

func (l logger) Warnf(fmt string, v ...interface{}) {
	l.l.Printf(LogWarning, fmt, v...)
}

func (l logger) Infof(fmt string, v ...interface{}) {
	l.l.Printf(LogInfo, fmt, v...)
}

func (l logger) Verbosef(fmt string, v ...interface{}) {
	l.l.Printf(LogVerbose, fmt, v...)
}

func (l logger) Debugf(fmt string, v ...interface{}) {
	l.l.Printf(LogDebug, fmt, v...)
}
