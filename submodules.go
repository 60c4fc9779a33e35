package modkit

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoCodeAlone/modkit/registry"
)

// slot is a submodule cache entry. ready is closed once construction settles;
// concurrent requesters wait on it instead of building a second instance.
type slot struct {
	ready chan struct{}
	inst  Module
	err   error
}

type resolveOptions struct {
	run bool
}

// ResolveOption tunes a submodule lookup.
type ResolveOption func(*resolveOptions)

// WithoutRun resolves a submodule without running it. It will still be run when
// its parent runs.
func WithoutRun() ResolveOption {
	return func(o *resolveOptions) { o.run = false }
}

func (b *Base) buildCatalog() {
	var declared map[string]Factory
	if p, ok := b.self.(SubmoduleProvider); ok {
		declared = p.Submodules()
	}

	b.mu.Lock()
	b.available = registry.NewCatalog(declared, b.extra)
	names := b.available.Names()
	debug := b.config.Debug
	b.mu.Unlock()

	if debug && len(names) > 0 {
		b.Log().Trace("modules", "names", names)
	}
}

func (b *Base) catalog() *registry.Catalog[Factory] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.available
}

// HasModule reports whether name is declared. A wildcard pattern reports
// whether anything matches it. Before Init nothing is declared.
func (b *Base) HasModule(name string) bool {
	c := b.catalog()
	if registry.IsWildcard(name) {
		return len(c.Match(name)) > 0
	}
	return c.Has(name)
}

// HasModules returns, for every pattern, the declared names it covers mapped to
// true. Plain names that are not declared map to false.
func (b *Base) HasModules(patterns ...string) map[string]bool {
	c := b.catalog()
	out := make(map[string]bool)
	for _, p := range patterns {
		if registry.IsWildcard(p) {
			for _, name := range c.Match(p) {
				out[name] = true
			}
			continue
		}
		out[p] = c.Has(p)
	}
	return out
}

// ModuleConfig computes the effective config of the submodule name.
func (b *Base) ModuleConfig(name string) (Config, error) {
	return Cascade(b.Config(), b.Namespace(), name)
}

// Module returns the submodule name, constructing, initializing and (unless
// WithoutRun is given) running it on first use. Concurrent requests for the same
// name share a single construction.
func (b *Base) Module(ctx context.Context, name string, opts ...ResolveOption) (Module, error) {
	if err := b.checkResolvable(); err != nil {
		return nil, err
	}
	if registry.IsWildcard(name) {
		return nil, errInvalidWorkflow(fmt.Sprintf("pattern %q resolves many modules, use Modules", name))
	}
	return b.resolve(ctx, name, buildResolveOptions(opts))
}

// Modules resolves every name covered by patterns concurrently and returns them
// keyed by name. Wildcards expand against the declared names; a wildcard with
// no match contributes nothing. The first failure is returned after all lookups
// settle.
func (b *Base) Modules(ctx context.Context, patterns []string, opts ...ResolveOption) (map[string]Module, error) {
	if err := b.checkResolvable(); err != nil {
		return nil, err
	}
	o := buildResolveOptions(opts)
	names := b.expand(patterns)
	if b.Debug() {
		b.Log().Trace("module(pattern)", "patterns", patterns, "names", names)
	}

	var (
		mu  sync.Mutex
		out = make(map[string]Module, len(names))
		g   errgroup.Group
	)
	for _, name := range names {
		g.Go(func() error {
			m, err := b.resolve(ctx, name, o)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildResolveOptions(opts []ResolveOption) resolveOptions {
	o := resolveOptions{run: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (b *Base) checkResolvable() error {
	if !b.created() {
		return errInvalidNewInstance(typeName(b.self))
	}
	st := b.Stamps()
	if st.InitStarted.IsZero() {
		return errInvalidWorkflow(fmt.Sprintf("%s must be initialized before resolving submodules", b.Name()))
	}
	if !st.Stopped.IsZero() {
		return errInvalidWorkflow(fmt.Sprintf("%s is stopped", b.Name()))
	}
	return nil
}

// expand turns patterns into a de-duplicated list of names, in request order.
func (b *Base) expand(patterns []string) []string {
	c := b.catalog()
	var names []string
	for _, p := range patterns {
		if registry.IsWildcard(p) {
			names = append(names, c.Match(p)...)
			continue
		}
		names = append(names, p)
	}
	seen := make(map[string]struct{}, len(names))
	return slices.DeleteFunc(names, func(n string) bool {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
		return false
	})
}

func (b *Base) resolve(ctx context.Context, name string, o resolveOptions) (Module, error) {
	if b.Debug() {
		b.Log().Trace("module(name)", "name", name, "run", o.run)
	}

	b.mu.Lock()
	if s, ok := b.inited[name]; ok {
		b.mu.Unlock()
		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if s.err != nil {
			return nil, s.err
		}
		return s.inst, nil
	}
	factory, ok := b.available.Get(name)
	if !ok {
		b.mu.Unlock()
		return nil, errNotFound(name, b.name)
	}
	s := &slot{ready: make(chan struct{})}
	b.inited[name] = s
	b.mu.Unlock()

	start := time.Now()
	inst, err := b.construct(ctx, name, factory)
	if err != nil {
		b.mu.Lock()
		delete(b.inited, name)
		b.mu.Unlock()
		s.err = errInjecting(name, err)
		close(s.ready)
		return nil, b.injectFailed(name, start, s.err)
	}

	// cached before running, so a failed run leaves the instance in place
	s.inst = inst
	b.mu.Lock()
	b.order = append(b.order, name)
	b.mu.Unlock()
	close(s.ready)

	if o.run {
		if err := inst.Run(ctx); err != nil {
			return nil, b.injectFailed(name, start, errInjecting(name, err))
		}
	}
	b.callResolveHooks(name, time.Since(start), nil)
	return inst, nil
}

func (b *Base) construct(ctx context.Context, name string, factory Factory) (Module, error) {
	cfg, err := b.ModuleConfig(name)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	props := Props{
		Parent:         b.self,
		Config:         cfg,
		LoggerProvider: b.provider,
		OnResolve:      b.hooks,
	}
	b.mu.RUnlock()
	return Create(ctx, factory, props)
}

func (b *Base) injectFailed(name string, start time.Time, err error) error {
	b.Log().Fatal("failed to inject module", "name", name, "error", err)
	b.callResolveHooks(name, time.Since(start), err)
	return err
}

func (b *Base) callResolveHooks(name string, d time.Duration, err error) {
	b.mu.RLock()
	hooks := b.hooks
	b.mu.RUnlock()
	if len(hooks) == 0 {
		return
	}
	ns := JoinNamespace(b.Namespace(), name)
	for _, h := range hooks {
		h(ns, d, err)
	}
}
