package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/modkit"
)

// ModuleName is the conventional submodule name of the HTTP server.
const ModuleName = "httpserver"

// RouteProvider is implemented by modules that serve HTTP routes.
type RouteProvider interface {
	Routes(r chi.Router)
}

// Module runs an http.Server for the lifetime of the module.
type Module struct {
	modkit.Base

	cfg    Config
	router chi.Router

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// New returns the HTTP server factory.
func New() modkit.Factory {
	return modkit.New[Module]()
}

func (m *Module) OnInit(context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("httpserver config: %w", err)
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", m.health)
	m.router = r
	return nil
}

// Router returns the router. Routes must be added before the module runs.
func (m *Module) Router() chi.Router {
	return m.router
}

// Mount lets every provider add its routes.
func (m *Module) Mount(providers ...RouteProvider) error {
	if m.router == nil {
		return ErrRouterNotReady
	}
	m.mu.Lock()
	live := m.server != nil
	m.mu.Unlock()
	if live {
		return ErrServerAlreadyLive
	}
	for _, p := range providers {
		p.Routes(m.router)
	}
	return nil
}

// OnRun binds the listener and serves in the background.
func (m *Module) OnRun(context.Context) error {
	ln, err := net.Listen("tcp", m.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.cfg.Address(), err)
	}

	srv := &http.Server{
		Handler:      m.router,
		ReadTimeout:  m.cfg.ReadTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		IdleTimeout:  m.cfg.IdleTimeout,
	}

	m.mu.Lock()
	m.server = srv
	m.listener = ln
	m.done = make(chan struct{})
	m.mu.Unlock()

	tls := m.cfg.TLS != nil && m.cfg.TLS.Enabled
	m.Log().Info("HTTP server listening", "address", ln.Addr().String(), "tls", tls)

	go func() {
		defer close(m.done)
		var err error
		if tls {
			err = srv.ServeTLS(ln, m.cfg.TLS.CertFile, m.cfg.TLS.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Log().Error("HTTP server failed", "error", err)
		}
	}()
	return nil
}

// OnStop shuts the server down gracefully.
func (m *Module) OnStop(ctx context.Context) error {
	m.mu.Lock()
	srv, done := m.server, m.done
	m.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	<-done
	m.Log().Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once the server runs.
func (m *Module) Addr() (net.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil, ErrServerNotStarted
	}
	return m.listener.Addr(), nil
}

type healthResponse struct {
	Status string `json:"status"`
	Module string `json:"module"`
	Stage  string `json:"stage"`
}

func (m *Module) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Module: m.Namespace(), Stage: m.Stage().String()}
	if parent := m.Parent(); parent != nil {
		if p, ok := parent.(interface{ Stage() modkit.Stage }); ok && p.Stage() == modkit.StageStopped {
			resp.Status = "stopping"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
