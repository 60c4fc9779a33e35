// Package app is the root module of modkitd. Every bundled module whose
// configuration section is present is resolved during init and run with the
// root; HTTP routes, metrics and job handlers are wired between them.
package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/modules/billing"
	"github.com/GoCodeAlone/modkit/modules/configwatcher"
	"github.com/GoCodeAlone/modkit/modules/eventlogger"
	"github.com/GoCodeAlone/modkit/modules/httpserver"
	"github.com/GoCodeAlone/modkit/modules/metrics"
	"github.com/GoCodeAlone/modkit/modules/scheduler"
)

// HeartbeatJob is the scheduler job the root handles itself.
const HeartbeatJob = "heartbeat"

var lifecycleEvents = []string{
	modkit.EventTypeModuleStarted,
	modkit.EventTypeModuleStopped,
	modkit.EventTypeModuleFailed,
}

// domainEvents are recorded by the event logger in addition to lifecycle events.
var domainEvents = map[string][]string{
	billing.ModuleName:   {billing.EventTypeChargeSucceeded, billing.EventTypeChargeFailed},
	scheduler.ModuleName: {scheduler.EventTypeJobCompleted, scheduler.EventTypeJobFailed},
}

// Options bind the root to process-level collaborators.
type Options struct {
	// Collector enables the metrics submodule.
	Collector *metrics.Collector

	// OnChange is called when the config watcher reports changed files.
	OnChange func(paths []string)
}

// App is the modkitd root module.
type App struct {
	modkit.Base

	opts    Options
	enabled []string
}

// Factory returns the root factory for opts.
func Factory(opts Options) modkit.Factory {
	return func(context.Context) (modkit.Module, error) {
		return &App{opts: opts}, nil
	}
}

func (a *App) Submodules() map[string]modkit.Factory {
	subs := map[string]modkit.Factory{
		billing.ModuleName:       billing.New(),
		configwatcher.ModuleName: configwatcher.New(),
		eventlogger.ModuleName:   eventlogger.New(),
		httpserver.ModuleName:    httpserver.New(),
		scheduler.ModuleName:     scheduler.New(),
	}
	if a.opts.Collector != nil {
		subs[metrics.ModuleName] = metrics.Factory(a.opts.Collector)
	}
	return subs
}

// Enabled returns the submodules resolved at init.
func (a *App) Enabled() []string {
	return slices.Clone(a.enabled)
}

// OnInit resolves the enabled submodules without running them; they run with the root.
func (a *App) OnInit(ctx context.Context) error {
	for name := range a.HasModules("*") {
		if _, configured := a.Config().Lookup(name); configured || name == metrics.ModuleName {
			a.enabled = append(a.enabled, name)
		}
	}
	slices.Sort(a.enabled)

	// the event logger is instantiated first so it is stopped last
	var events *eventlogger.Module
	if slices.Contains(a.enabled, eventlogger.ModuleName) {
		el, err := modkit.ModuleAs[*eventlogger.Module](ctx, a, eventlogger.ModuleName, modkit.WithoutRun())
		if err != nil {
			return err
		}
		events = el
	}

	mods, err := a.Modules(ctx, a.enabled, modkit.WithoutRun())
	if err != nil {
		return err
	}

	if events != nil {
		a.watch(events, mods)
	}

	if srv, ok := mods[httpserver.ModuleName].(*httpserver.Module); ok {
		for _, name := range a.enabled {
			if rp, ok := mods[name].(httpserver.RouteProvider); ok {
				if err := srv.Mount(rp); err != nil {
					return fmt.Errorf("mount %s routes: %w", name, err)
				}
			}
		}
	}

	if s, ok := mods[scheduler.ModuleName].(*scheduler.Module); ok {
		if a.opts.Collector != nil {
			a.opts.Collector.WatchScheduler(s)
		}
		if slices.Contains(s.Jobs(), HeartbeatJob) {
			if err := s.Handle(HeartbeatJob, a.heartbeat); err != nil {
				return err
			}
		}
	}

	if w, ok := mods[configwatcher.ModuleName].(*configwatcher.Module); ok && a.opts.OnChange != nil {
		w.On(configwatcher.EventChange, func(args ...any) {
			if len(args) == 0 {
				return
			}
			if paths, ok := args[0].([]string); ok {
				a.opts.OnChange(paths)
			}
		})
	}

	a.Log().Info("modules enabled", "modules", a.enabled)
	return nil
}

func (a *App) watch(events *eventlogger.Module, mods map[string]modkit.Module) {
	events.Watch(a, modkit.EventTypeModuleStarted, modkit.EventTypeModuleFailed)
	for _, name := range a.enabled {
		if name == eventlogger.ModuleName {
			continue
		}
		src, ok := mods[name].(eventlogger.Source)
		if !ok {
			continue
		}
		events.Watch(src, lifecycleEvents...)
		events.Watch(src, domainEvents[name]...)
	}
}

func (a *App) heartbeat(ctx context.Context) error {
	mods, err := a.Modules(ctx, a.enabled, modkit.WithoutRun())
	if err != nil {
		return err
	}
	args := make([]any, 0, 2*len(mods))
	for _, name := range a.enabled {
		if s, ok := mods[name].(interface{ Stage() modkit.Stage }); ok {
			args = append(args, name, s.Stage().String())
		}
	}
	a.Log().Info("heartbeat", args...)
	return nil
}
