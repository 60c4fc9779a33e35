package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/GoCodeAlone/modkit"
)

func (m *Module) execute(ctx context.Context, name string) error {
	m.mu.Lock()
	fn, ok := m.handlers[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, name)
	}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	data := JobEventData{Job: name, Duration: elapsed.String()}
	eventType := EventTypeJobCompleted
	if err != nil {
		eventType = EventTypeJobFailed
		data.Error = err.Error()
		data.Code = string(modkit.CodeOf(err))
		m.Log().Error("job failed", "job", name, "duration", elapsed, "error", err)
	} else if m.Debug() {
		m.Log().Debug("job completed", "job", name, "duration", elapsed)
	}

	m.Emit(eventType, modkit.NewCloudEvent(eventType, "modkit://"+m.Namespace(), data, nil))
	return err
}

// cronLogger routes cron's own diagnostics into the module logger.
type cronLogger struct {
	log modkit.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Trace(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
