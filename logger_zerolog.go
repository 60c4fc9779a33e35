package modkit

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger builds the default JSON (or console) logger for cfg.
// The namespace is attached as the "ns" field; an unset or unknown level means info.
func NewZerologLogger(cfg LogConfig, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = parsed
		}
	}

	zctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Ns != "" {
		zctx = zctx.Str("ns", cfg.Ns)
	}
	if cfg.Name != "" {
		zctx = zctx.Str("logger", cfg.Name)
	}
	return &zerologLogger{log: zctx.Logger()}
}

func (l *zerologLogger) write(level zerolog.Level, msg string, args []any) {
	// WithLevel never exits or panics, which is what Fatal needs
	e := l.log.WithLevel(level)
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Msg(msg)
}

func (l *zerologLogger) Trace(msg string, args ...any) { l.write(zerolog.TraceLevel, msg, args) }
func (l *zerologLogger) Debug(msg string, args ...any) { l.write(zerolog.DebugLevel, msg, args) }
func (l *zerologLogger) Info(msg string, args ...any)  { l.write(zerolog.InfoLevel, msg, args) }
func (l *zerologLogger) Warn(msg string, args ...any)  { l.write(zerolog.WarnLevel, msg, args) }
func (l *zerologLogger) Error(msg string, args ...any) { l.write(zerolog.ErrorLevel, msg, args) }
func (l *zerologLogger) Fatal(msg string, args ...any) { l.write(zerolog.FatalLevel, msg, args) }
