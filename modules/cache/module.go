// Package cache is a key/value cache module with memory and Redis engines.
// Values are stored as bytes; Load and Store add a JSON encoding on top.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GoCodeAlone/modkit"
)

// ModuleName is the conventional submodule name of the cache.
const ModuleName = "cache"

// Module owns one cache engine, connected while the module runs.
type Module struct {
	modkit.Base

	cfg    Config
	engine Engine
}

// New returns the cache factory.
func New() modkit.Factory {
	return modkit.New[Module]()
}

// OnInit picks the engine.
func (m *Module) OnInit(context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	m.cfg.applyDefaults()

	switch m.cfg.Engine {
	case EngineMemory:
		m.engine = NewMemoryCache(&m.cfg)
	case EngineRedis:
		m.engine = NewRedisCache(&m.cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngine, m.cfg.Engine)
	}
	return nil
}

// OnRun connects the engine.
func (m *Module) OnRun(ctx context.Context) error {
	err := m.engine.Connect(ctx)
	m.emitEngine(EventTypeCacheConnected, err)
	if err != nil {
		return err
	}
	m.Log().Info("cache connected", "engine", m.cfg.Engine)
	return nil
}

// OnStop closes the engine.
func (m *Module) OnStop(ctx context.Context) error {
	if m.engine == nil {
		return nil
	}
	err := m.engine.Close(ctx)
	m.emitEngine(EventTypeCacheDisconnected, err)
	return err
}

func (m *Module) emitEngine(eventType string, err error) {
	data := EngineEventData{Engine: m.cfg.Engine}
	if err != nil {
		data.Error = err.Error()
	}
	m.Emit(eventType, modkit.NewCloudEvent(eventType, "modkit://"+m.Namespace(), data, nil))
}

// Engine returns the active engine.
func (m *Module) Engine() Engine {
	return m.engine
}

func (m *Module) key(k string) (string, error) {
	if k == "" {
		return "", ErrInvalidKey
	}
	return m.cfg.Prefix + k, nil
}

// Get retrieves the raw bytes stored under key.
func (m *Module) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := m.key(key)
	if err != nil {
		return nil, false, err
	}
	return m.engine.Get(ctx, k)
}

// Set stores value under key. A zero ttl uses the configured default.
func (m *Module) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := m.key(key)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = m.cfg.DefaultTTL
	}
	return m.engine.Set(ctx, k, value, ttl)
}

// Delete removes key.
func (m *Module) Delete(ctx context.Context, key string) error {
	k, err := m.key(key)
	if err != nil {
		return err
	}
	return m.engine.Delete(ctx, k)
}

// Flush removes everything.
func (m *Module) Flush(ctx context.Context) error {
	return m.engine.Flush(ctx)
}

// Load decodes the JSON stored under key into target.
func (m *Module) Load(ctx context.Context, key string, target any) (bool, error) {
	b, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, target); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return true, nil
}

// Store JSON-encodes value under key.
func (m *Module) Store(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return m.Set(ctx, key, b, ttl)
}
