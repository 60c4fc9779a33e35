// Package modkit provides a hierarchical module lifecycle runtime: a small
// dependency-injection container that gives every subsystem the same
// create -> init -> run -> stop life cycle, lazily instantiated submodules,
// wildcard submodule lookup, cascading configuration and logging namespaces,
// and a private per-module event bus.
//
// A module is any type embedding Base. Behaviour is supplied through optional
// hook interfaces instead of overriding lifecycle methods:
//
//	type Billing struct {
//		modkit.Base
//	}
//
//	func (b *Billing) Submodules() map[string]modkit.Factory {
//		return map[string]modkit.Factory{"providers.stripe": modkit.New[Stripe]()}
//	}
//
//	func (b *Billing) OnInit(ctx context.Context) error {
//		_, err := b.Modules(ctx, []string{"providers.*"})
//		return err
//	}
//
//	app, err := modkit.CreateAndRun(ctx, modkit.New[App](), modkit.Props{Config: cfg})
package modkit

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/multierr"
)

// Module is the lifecycle contract. It can only be satisfied by embedding Base.
type Module interface {
	// Name returns the module name. It defaults to the implementing type's name.
	Name() string

	// Init resolves the logger and the submodule catalogue, then calls OnInit.
	Init(ctx context.Context) error

	// Run initializes if needed, runs already instantiated children, then calls OnRun.
	Run(ctx context.Context) error

	// Start performs Init then Run.
	Start(ctx context.Context) error

	// Stop stops children in reverse instantiation order, then calls OnStop.
	Stop(ctx context.Context) error

	core() *Base
}

// Initializer is implemented by modules that acquire resources during Init.
// Submodules may be resolved from OnInit.
type Initializer interface {
	OnInit(ctx context.Context) error
}

// Runner is implemented by modules with work to do when they run.
type Runner interface {
	OnRun(ctx context.Context) error
}

// Stopper is implemented by modules owning resources (sockets, connections)
// that must be released on Stop.
type Stopper interface {
	OnStop(ctx context.Context) error
}

// SubmoduleProvider declares the submodules a module type can instantiate.
// It is read once, during Init.
type SubmoduleProvider interface {
	Submodules() map[string]Factory
}

// Factory constructs a fresh, zero-state module. It may block, e.g. to resolve a
// plugin, and may fail.
type Factory func(ctx context.Context) (Module, error)

// New returns a Factory for the module type T.
func New[T any, PT interface {
	*T
	Module
}]() Factory {
	return func(context.Context) (Module, error) {
		return PT(new(T)), nil
	}
}

// ResolveHook observes every submodule construction attempt. ns is the dotted
// namespace of the requested child.
type ResolveHook func(ns string, duration time.Duration, err error)

// Props are assigned to a module by Create before Init.
type Props struct {
	// Name overrides the default type-derived name.
	Name string

	// Parent is a back-reference used for namespacing only.
	Parent Module

	// Config is the module's effective configuration.
	Config Config

	// Logger is used as is when set; otherwise one is built from Config.Log.
	Logger Logger

	// LoggerProvider builds the logger. Children inherit it.
	LoggerProvider LoggerProvider

	// Modules adds to, or replaces, the factories declared by Submodules.
	Modules map[string]Factory

	// OnResolve hooks are inherited by children.
	OnResolve []ResolveHook
}

// Create builds a module through factory, assigns props, marks it created and
// initializes it. Modules built any other way fail every lifecycle call.
// When Init fails the module is stopped, releasing children it already started.
func Create(ctx context.Context, factory Factory, props Props) (Module, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	m, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil || reflect.ValueOf(m).IsNil() {
		return nil, ErrFactoryNilModule
	}

	m.core().assign(m, props)
	if err := m.Init(ctx); err != nil {
		return nil, multierr.Append(err, m.Stop(ctx))
	}
	return m, nil
}

// CreateAndRun is Create followed by Run. When Run fails the module is stopped.
func CreateAndRun(ctx context.Context, factory Factory, props Props) (Module, error) {
	m, err := Create(ctx, factory, props)
	if err != nil {
		return nil, err
	}
	if err := m.Run(ctx); err != nil {
		return nil, multierr.Append(err, m.Stop(ctx))
	}
	return m, nil
}

// ModuleAs resolves the submodule name of parent and asserts it to T.
func ModuleAs[T any](ctx context.Context, parent Module, name string, opts ...ResolveOption) (T, error) {
	var zero T
	m, err := parent.core().Module(ctx, name, opts...)
	if err != nil {
		return zero, err
	}
	t, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrModuleType, name, m)
	}
	return t, nil
}

func typeName(m any) string {
	if m == nil {
		return "Module"
	}
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if n := t.Name(); n != "" {
		return n
	}
	return "Module"
}
