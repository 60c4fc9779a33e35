// Package configwatcher watches configuration files and emits EventChange on
// its bus when they are written, created, renamed or removed. Bursts of file
// system events are debounced into one notification.
package configwatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GoCodeAlone/modkit"
)

// ModuleName is the conventional submodule name of the watcher.
const ModuleName = "configwatcher"

// EventChange is emitted with the changed paths ([]string) as its only argument.
const EventChange = "change"

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 250 * time.Millisecond

var ErrNoPaths = errors.New("configwatcher: no paths configured")

// Config defines the configuration for the watcher.
type Config struct {
	Paths    []string      `yaml:"paths" json:"paths" toml:"paths"`
	Debounce time.Duration `yaml:"debounce" json:"debounce" toml:"debounce"`
}

// Module watches the configured files while it runs.
type Module struct {
	modkit.Base

	cfg     Config
	watched map[string]struct{}

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// New returns the watcher factory.
func New() modkit.Factory {
	return modkit.New[Module]()
}

func (m *Module) OnInit(context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("configwatcher config: %w", err)
	}
	if len(m.cfg.Paths) == 0 {
		return ErrNoPaths
	}
	if m.cfg.Debounce <= 0 {
		m.cfg.Debounce = DefaultDebounce
	}

	m.watched = make(map[string]struct{}, len(m.cfg.Paths))
	for _, p := range m.cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("configwatcher path %q: %w", p, err)
		}
		m.watched[abs] = struct{}{}
	}
	return nil
}

// Paths returns the absolute watched paths.
func (m *Module) Paths() []string {
	paths := make([]string, 0, len(m.watched))
	for p := range m.watched {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// OnRun watches the parent directories so editors that replace files are seen.
func (m *Module) OnRun(context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for p := range m.watched {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	m.mu.Lock()
	m.watcher = w
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(w)
	m.Log().Info("watching configuration", "paths", m.Paths())
	return nil
}

func (m *Module) OnStop(context.Context) error {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	m.wg.Wait()
	return err
}

func (m *Module) loop(w *fsnotify.Watcher) {
	defer m.wg.Done()

	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if !m.relevant(ev) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(m.cfg.Debounce)
			} else {
				timer.Reset(m.cfg.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.Log().Warn("watcher error", "error", err)

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			fire = nil

			if m.Debug() {
				m.Log().Debug("configuration changed", "paths", changed)
			}
			m.Emit(EventChange, changed)
		}
	}
}

func (m *Module) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := m.watched[abs]
	return ok
}
