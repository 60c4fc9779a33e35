package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/modkit"
)

// ModuleName is the conventional submodule name of the metrics module.
const ModuleName = "metrics"

var (
	ErrNoCollector = errors.New("metrics module has no collector")
	errJobFailed   = errors.New("job failed")
)

// Config defines the configuration for the metrics module
type Config struct {
	// Path is where the exposition endpoint is mounted. Defaults to /metrics.
	Path string `json:"path" yaml:"path" toml:"path"`
}

// Module exposes a Collector over HTTP.
type Module struct {
	modkit.Base

	collector *Collector
	cfg       Config
}

// Factory returns a metrics module factory bound to collector.
func Factory(collector *Collector) modkit.Factory {
	return func(context.Context) (modkit.Module, error) {
		return &Module{collector: collector}, nil
	}
}

func (m *Module) OnInit(context.Context) error {
	if m.collector == nil {
		return ErrNoCollector
	}
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	if m.cfg.Path == "" {
		m.cfg.Path = "/metrics"
	}
	return nil
}

// Collector returns the bound collector.
func (m *Module) Collector() *Collector {
	return m.collector
}

// Routes mounts the exposition endpoint.
func (m *Module) Routes(r chi.Router) {
	r.Method(http.MethodGet, m.cfg.Path, m.collector.Handler())
}
