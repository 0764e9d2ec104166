// Package applog is a minimal leveled wrapper over the standard library
// logger. The rest of this module logs through it instead of importing
// "log" directly so every component honors config.LoggingConfig's level.
package applog

import (
	"fmt"
	"log"
	"os"
)

// Level orders the severities this logger recognizes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger tags every line with a component name and drops lines below its
// configured level.
type Logger struct {
	component string
	min       Level
	out       *log.Logger
}

// New creates a Logger writing to stderr, tagged with component.
func New(component string, min Level) *Logger {
	return &Logger{component: component, min: min, out: log.New(os.Stderr, "", log.LstdFlags)}
}

// With returns a Logger for a sub-component, sharing the parent's level and
// output, following the practice of prefixing log lines with a
// bracketed tag rather than building a full structured-field hierarchy.
func (l *Logger) With(component string) *Logger {
	return &Logger{component: l.component + "." + component, min: l.min, out: l.out}
}

func (l *Logger) log(level Level, tag, format string, args ...any) {
	if level < l.min {
		return
	}
	l.out.Printf("[%s] [%s] %s", tag, l.component, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, "DEBUG", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, "INFO", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, "WARN", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, "ERROR", format, args...) }
