package modkit

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/GoCodeAlone/modkit/registry"
)

// Stage is the lifecycle position derived from a module's timestamps.
type Stage int

const (
	StageNew Stage = iota
	StageCreated
	StageInitializing
	StageInitialized
	StageRunning
	StageStopped
)

func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageInitializing:
		return "initializing"
	case StageInitialized:
		return "initialized"
	case StageRunning:
		return "running"
	case StageStopped:
		return "stopped"
	default:
		return "new"
	}
}

// Stamps is a snapshot of the lifecycle timestamps. Zero means "not yet".
type Stamps struct {
	Created      time.Time
	InitStarted  time.Time
	InitFinished time.Time
	Run          time.Time
	Stopped      time.Time
}

// Stage derives the current stage from the timestamps.
func (s Stamps) Stage() Stage {
	switch {
	case !s.Stopped.IsZero():
		return StageStopped
	case !s.Run.IsZero():
		return StageRunning
	case !s.InitFinished.IsZero():
		return StageInitialized
	case !s.InitStarted.IsZero():
		return StageInitializing
	case !s.Created.IsZero():
		return StageCreated
	default:
		return StageNew
	}
}

// Base implements the module life cycle, the submodule resolver and the event bus.
// Embed it in every module type and construct modules through Create.
type Base struct {
	self Module

	// initMu serializes Init; runMu serializes Run and Stop.
	initMu sync.Mutex
	runMu  sync.Mutex

	mu       sync.RWMutex
	name     string
	parent   Module
	config   Config
	log      Logger
	provider LoggerProvider
	extra    map[string]Factory
	hooks    []ResolveHook
	stamps   Stamps
	bus      *Emitter

	available *registry.Catalog[Factory]
	inited    map[string]*slot
	order     []string
}

func (b *Base) core() *Base { return b }

func (b *Base) assign(self Module, props Props) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.self = self
	b.name = props.Name
	b.parent = props.Parent
	b.config = props.Config
	b.log = props.Logger
	b.provider = props.LoggerProvider
	b.extra = props.Modules
	b.hooks = slices.Clone(props.OnResolve)
	b.inited = make(map[string]*slot)
	b.stamps.Created = time.Now()
}

// Name returns the module name.
func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.name == "" {
		return typeName(b.self)
	}
	return b.name
}

// Parent returns the module that instantiated this one, or nil for a root.
func (b *Base) Parent() Module {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.parent
}

// Config returns the effective configuration.
func (b *Base) Config() Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// Debug reports whether debug tracing is enabled for this module.
func (b *Base) Debug() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.Debug
}

// Namespace returns the dotted logging namespace. A root without a configured
// namespace uses its name.
func (b *Base) Namespace() string {
	b.mu.RLock()
	ns := b.config.Log.Ns
	b.mu.RUnlock()
	if ns != "" {
		return ns
	}
	return b.Name()
}

// Log returns the module logger. Before Init it is a no-op logger.
func (b *Base) Log() Logger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.log == nil {
		return NopLogger()
	}
	return b.log
}

// Stamps returns a snapshot of the lifecycle timestamps.
func (b *Base) Stamps() Stamps {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stamps
}

// Stage returns the current lifecycle stage.
func (b *Base) Stage() Stage {
	return b.Stamps().Stage()
}

func (b *Base) created() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.stamps.Created.IsZero()
}

func (b *Base) loggerProvider() LoggerProvider {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.provider != nil {
		return b.provider
	}
	return DefaultLoggerProvider
}

// Init is a no-op once it has started, even if the first call failed; the
// failure is reported to the first caller only.
func (b *Base) Init(ctx context.Context) error {
	if !b.created() {
		return errInvalidNewInstance(typeName(b.self))
	}

	b.initMu.Lock()
	defer b.initMu.Unlock()

	b.mu.Lock()
	if !b.stamps.InitStarted.IsZero() {
		b.mu.Unlock()
		return nil
	}
	b.stamps.InitStarted = time.Now()
	if b.name == "" {
		b.name = typeName(b.self)
	}
	needLogger := b.log == nil
	b.mu.Unlock()

	if needLogger {
		cfg := b.Config().Log
		if cfg.Name == "" {
			cfg.Name = b.Name()
		}
		cfg.Ns = b.Namespace()
		logger := b.loggerProvider()(cfg)
		b.mu.Lock()
		b.log = logger
		b.mu.Unlock()
	}

	b.buildCatalog()
	if b.Debug() {
		b.Log().Trace("init", "module", b.Name())
	}

	if h, ok := b.self.(Initializer); ok {
		if err := h.OnInit(ctx); err != nil {
			b.emitLifecycle(EventTypeModuleFailed, err)
			return err
		}
	}

	b.mu.Lock()
	b.stamps.InitFinished = time.Now()
	b.mu.Unlock()
	b.emitLifecycle(EventTypeModuleInitialized, nil)
	return nil
}

// Run initializes the module if needed, runs its already instantiated children
// and then calls OnRun. Once started, Run is a no-op even if the first run
// failed; running after Stop fails. A module whose Init failed cannot run.
func (b *Base) Run(ctx context.Context) error {
	if !b.created() {
		return errInvalidNewInstance(typeName(b.self))
	}

	b.runMu.Lock()
	defer b.runMu.Unlock()

	st := b.Stamps()
	if !st.Stopped.IsZero() {
		return errInvalidWorkflow(fmt.Sprintf("%s is stopped", b.Name()))
	}
	if !st.Run.IsZero() {
		return nil
	}

	if err := b.self.Init(ctx); err != nil {
		return err
	}
	if b.Stamps().InitFinished.IsZero() {
		return errInvalidWorkflow(fmt.Sprintf("%s did not finish init", b.Name()))
	}

	b.mu.Lock()
	b.stamps.Run = time.Now()
	b.mu.Unlock()
	if b.Debug() {
		b.Log().Trace("run", "module", b.Name())
	}

	err := b.runChildren(ctx)
	if err == nil {
		if h, ok := b.self.(Runner); ok {
			err = h.OnRun(ctx)
		}
	}
	if err != nil {
		b.emitLifecycle(EventTypeModuleFailed, err)
		return err
	}

	b.emitLifecycle(EventTypeModuleStarted, nil)
	return nil
}

// runChildren runs every child instantiated so far, concurrently. Failures are
// wrapped with the child's name like resolution failures.
func (b *Base) runChildren(ctx context.Context) error {
	var g errgroup.Group
	for _, c := range b.namedChildren() {
		g.Go(func() error {
			if err := c.inst.Run(ctx); err != nil {
				return errInjecting(c.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Start performs Init then Run.
func (b *Base) Start(ctx context.Context) error {
	if !b.created() {
		return errInvalidNewInstance(typeName(b.self))
	}
	if err := b.self.Init(ctx); err != nil {
		return err
	}
	return b.self.Run(ctx)
}

// Stop stops the instantiated children in reverse instantiation order, then
// calls OnStop. It is safe to call more than once and a stopped module cannot
// run again. Event listeners are kept; see RemoveAllListeners.
func (b *Base) Stop(ctx context.Context) error {
	if !b.created() {
		return errInvalidNewInstance(typeName(b.self))
	}

	b.runMu.Lock()
	defer b.runMu.Unlock()

	b.mu.Lock()
	if !b.stamps.Stopped.IsZero() {
		b.mu.Unlock()
		return nil
	}
	b.stamps.Stopped = time.Now()
	b.mu.Unlock()
	if b.Debug() {
		b.Log().Trace("stop", "module", b.Name())
	}

	var err error
	children := b.namedChildren()
	for i := len(children) - 1; i >= 0; i-- {
		err = multierr.Append(err, children[i].inst.Stop(ctx))
	}
	if h, ok := b.self.(Stopper); ok {
		err = multierr.Append(err, h.OnStop(ctx))
	}

	b.mu.Lock()
	b.inited = make(map[string]*slot)
	b.order = nil
	b.mu.Unlock()

	b.emitLifecycle(EventTypeModuleStopped, err)
	return err
}

type namedChild struct {
	name string
	inst Module
}

// namedChildren returns the successfully constructed children in instantiation order.
func (b *Base) namedChildren() []namedChild {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]namedChild, 0, len(b.order))
	for _, name := range b.order {
		if s, ok := b.inited[name]; ok && s.inst != nil {
			out = append(out, namedChild{name: name, inst: s.inst})
		}
	}
	return out
}

func (b *Base) emitter() *Emitter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		b.bus = NewEmitter()
	}
	return b.bus
}

// On subscribes fn to event on the module's private bus.
func (b *Base) On(event string, fn Listener) {
	b.emitter().On(event, fn)
}

// Emit publishes args to the listeners of event on the module's private bus.
func (b *Base) Emit(event string, args ...any) bool {
	return b.emitter().Emit(event, args...)
}

// RemoveAllListeners drops the listeners of the given events, or of every event.
func (b *Base) RemoveAllListeners(events ...string) {
	b.emitter().RemoveAllListeners(events...)
}
