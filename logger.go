package modkit

import "os"

// Logger defines the leveled, structured logger every module carries.
// Arguments after the message are key/value pairs:
//
//	logger.Info("module initialized", "module", "billing", "providers", 2)
//
// Fatal records an entry at fatal severity. It never terminates the process;
// the runtime uses it right before returning the failure to the caller.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
}

// LoggerProvider builds a logger from a module's log config.
// The runtime only depends on this shape.
type LoggerProvider func(cfg LogConfig) Logger

// DefaultLoggerProvider is used when neither the props nor any ancestor supply one.
var DefaultLoggerProvider LoggerProvider = func(cfg LogConfig) Logger {
	return NewZerologLogger(cfg, os.Stderr)
}

type nopLogger struct{}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Trace(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Fatal(string, ...any) {}
