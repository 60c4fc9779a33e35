// Package scheduler runs named cron jobs inside a modkit module tree.
//
// Jobs are declared in configuration and bound to code at runtime:
//
//	scheduler:
//	  timeout: 30s
//	  jobs:
//	    report: "@hourly"
//	    cleanup: "*/5 * * * *"
//
//	s, err := modkit.ModuleAs[*scheduler.Module](ctx, app, "scheduler")
//	err = s.Handle("report", func(ctx context.Context) error { ... })
//
// Every execution emits EventTypeJobCompleted or EventTypeJobFailed on the
// module's bus with a CloudEvent carrying JobEventData.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/modkit"
)

// ModuleName is the conventional submodule name of the scheduler.
const ModuleName = "scheduler"

// JobFunc is the code bound to a configured job.
type JobFunc func(ctx context.Context) error

// Module schedules configured jobs with robfig/cron once it runs.
type Module struct {
	modkit.Base

	mu       sync.Mutex
	cfg      Config
	cron     *cron.Cron
	handlers map[string]JobFunc
	entries  map[string]cron.EntryID

	runCtx context.Context
	cancel context.CancelFunc
}

// New returns the scheduler factory.
func New() modkit.Factory {
	return modkit.New[Module]()
}

// OnInit decodes the job table and validates every spec.
func (m *Module) OnInit(context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("scheduler config: %w", err)
	}

	opts := []cron.Option{
		cron.WithLogger(cronLogger{log: m.Log()}),
		cron.WithChain(cron.Recover(cronLogger{log: m.Log()})),
	}
	if m.cfg.Location != "" {
		loc, err := time.LoadLocation(m.cfg.Location)
		if err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidLocation, m.cfg.Location, err)
		}
		opts = append(opts, cron.WithLocation(loc))
	}
	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if m.cfg.Seconds {
		fields |= cron.SecondOptional
	}
	parser := cron.NewParser(fields)
	opts = append(opts, cron.WithParser(parser))

	for _, name := range m.Jobs() {
		if _, err := parser.Parse(m.cfg.Jobs[name]); err != nil {
			return fmt.Errorf("%w %q (%s): %w", ErrInvalidSchedule, name, m.cfg.Jobs[name], err)
		}
	}

	m.cron = cron.New(opts...)
	m.handlers = make(map[string]JobFunc)
	m.entries = make(map[string]cron.EntryID)
	m.runCtx, m.cancel = context.WithCancel(context.Background())

	m.Log().Info("scheduler configured", "jobs", len(m.cfg.Jobs))
	return nil
}

// OnRun starts the cron loop.
func (m *Module) OnRun(context.Context) error {
	m.cron.Start()
	return nil
}

// OnStop stops the cron loop and waits for running jobs, or for ctx.
func (m *Module) OnStop(ctx context.Context) error {
	if m.cron == nil {
		return nil
	}
	m.cancel()
	done := m.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

// Jobs returns the configured job names in ascending order.
func (m *Module) Jobs() []string {
	return slices.Sorted(maps.Keys(m.cfg.Jobs))
}

// Handle binds fn to the configured job name and schedules it.
func (m *Module) Handle(name string, fn JobFunc) error {
	if m.cron == nil {
		return ErrSchedulerMissing
	}
	spec, ok := m.cfg.Jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrHandlerExists, name)
	}

	id, err := m.cron.AddFunc(spec, func() { _ = m.execute(m.runCtx, name) })
	if err != nil {
		return fmt.Errorf("%w %q (%s): %w", ErrInvalidSchedule, name, spec, err)
	}
	m.handlers[name] = fn
	m.entries[name] = id
	return nil
}

// Trigger runs the job name immediately, outside its schedule.
func (m *Module) Trigger(ctx context.Context, name string) error {
	return m.execute(ctx, name)
}

// Next returns the next scheduled activation of name, or zero when the job has
// no handler or the scheduler is not running.
func (m *Module) Next(name string) time.Time {
	m.mu.Lock()
	id, ok := m.entries[name]
	m.mu.Unlock()
	if !ok || m.cron == nil {
		return time.Time{}
	}
	return m.cron.Entry(id).Next
}
