// Package eventlogger records the CloudEvents emitted on module buses to
// console or file targets. Recording never blocks the emitter: entries go
// through a bounded queue and are dropped when it is full.
//
//	eventlogger:
//	  format: text
//	  filters: ["com.modkit.billing.*", "com.modkit.module.*"]
//	  targets:
//	    - type: file
//	      path: /var/log/modkitd/events.log
package eventlogger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/registry"
)

// ModuleName is the conventional submodule name of the event logger.
const ModuleName = "eventlogger"

// Source is anything with a module bus, i.e. every type embedding modkit.Base.
type Source interface {
	On(event string, fn modkit.Listener)
}

// Module writes recorded events to its targets while it runs.
type Module struct {
	modkit.Base

	cfg     Config
	console io.Writer
	targets []Target

	mu      sync.Mutex
	queue   chan Entry
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

// New returns the event logger factory. Console targets write to stdout.
func New() modkit.Factory {
	return WithConsole(os.Stdout)
}

// WithConsole returns a factory whose console targets write to w.
func WithConsole(w io.Writer) modkit.Factory {
	return func(context.Context) (modkit.Module, error) {
		return &Module{console: w}, nil
	}
}

// OnInit validates the targets. Events recorded before Run are queued.
func (m *Module) OnInit(context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("eventlogger config: %w", err)
	}
	m.cfg.applyDefaults()
	if err := m.cfg.validate(); err != nil {
		return err
	}
	m.queue = make(chan Entry, m.cfg.BufferSize)
	return nil
}

// OnRun opens the targets and starts the writer.
func (m *Module) OnRun(context.Context) error {
	targets := make([]Target, 0, len(m.cfg.Targets))
	for _, tc := range m.cfg.Targets {
		t, err := openTarget(tc, m.console)
		if err != nil {
			for _, opened := range targets {
				_ = opened.Close()
			}
			return err
		}
		targets = append(targets, t)
	}
	m.targets = targets

	m.mu.Lock()
	m.done = make(chan struct{})
	m.mu.Unlock()
	go m.drain(m.queue, m.done)
	return nil
}

// OnStop closes the queue, waits for the writer up to DrainTimeout and closes the targets.
func (m *Module) OnStop(context.Context) error {
	m.mu.Lock()
	if m.closed || m.queue == nil {
		m.closed = true
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	done := m.done
	m.mu.Unlock()

	if done != nil {
		if m.cfg.DrainTimeout > 0 {
			select {
			case <-done:
			case <-time.After(m.cfg.DrainTimeout):
				m.Log().Warn("event queue not drained", "pending", len(m.queue))
			}
		} else {
			<-done
		}
	}

	var err error
	for _, t := range m.targets {
		err = multierr.Append(err, t.Close())
	}
	return err
}

func (m *Module) drain(queue <-chan Entry, done chan<- struct{}) {
	defer close(done)
	for e := range queue {
		for _, t := range m.targets {
			if err := t.Write(e); err != nil {
				m.Log().Error("failed to write event", "type", e.Type, "error", err)
			}
		}
	}
}

// Watch records the given event types emitted on src.
func (m *Module) Watch(src Source, eventTypes ...string) {
	for _, et := range eventTypes {
		src.On(et, m.listen)
	}
}

func (m *Module) listen(args ...any) {
	if len(args) == 0 {
		return
	}
	if ev, ok := args[0].(modkit.CloudEvent); ok {
		m.Record(ev)
	}
}

// Record queues ev. It reports false when ev is filtered out, the queue is full
// or the module is stopped.
func (m *Module) Record(ev modkit.CloudEvent) bool {
	if !m.accepts(ev.Type()) {
		return false
	}
	e := Entry{
		Time:   ev.Time(),
		Type:   ev.Type(),
		Source: ev.Source(),
		ID:     ev.ID(),
		Data:   ev.Data(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.queue == nil {
		return false
	}
	select {
	case m.queue <- e:
		return true
	default:
		m.dropped.Add(1)
		m.Log().Warn("event queue full, dropping event", "type", e.Type)
		return false
	}
}

// Dropped returns how many events were dropped because the queue was full.
func (m *Module) Dropped() int64 {
	return m.dropped.Load()
}

func (m *Module) accepts(eventType string) bool {
	if len(m.cfg.Filters) == 0 {
		return true
	}
	for _, f := range m.cfg.Filters {
		if registry.IsWildcard(f) {
			if len(registry.MatchPrefix([]string{eventType}, f)) > 0 {
				return true
			}
			continue
		}
		if f == eventType {
			return true
		}
	}
	return false
}
