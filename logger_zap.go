package modkit

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger. zap has no trace level, so trace goes to debug.
// zap exits on Fatal, so fatal entries are written at error level with severity=fatal.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{log: l.Sugar()}
}

// ZapLoggerProvider derives module loggers from base: the namespace becomes the
// logger name and a configured level can only raise base's level.
func ZapLoggerProvider(base *zap.Logger) LoggerProvider {
	return func(cfg LogConfig) Logger {
		l := base
		if cfg.Ns != "" {
			l = l.Named(cfg.Ns)
		}
		if cfg.Level != "" {
			text := strings.ToLower(cfg.Level)
			if text == "trace" {
				text = "debug"
			}
			if lvl, err := zapcore.ParseLevel(text); err == nil {
				l = l.WithOptions(zap.IncreaseLevel(lvl))
			}
		}
		return NewZapLogger(l)
	}
}

func (l *zapLogger) Trace(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }

func (l *zapLogger) Fatal(msg string, args ...any) {
	l.log.Errorw(msg, append(args, "severity", "fatal")...)
}
