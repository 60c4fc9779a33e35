// Package database is a database/sql module. The pure Go sqlite driver is
// registered; other drivers can be linked in by the host binary.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/GoCodeAlone/modkit"
)

// ModuleName is the conventional submodule name of the database.
const ModuleName = "database"

// Module owns a connection pool that is open while the module runs.
type Module struct {
	modkit.Base

	cfg Config

	mu sync.RWMutex
	db *sql.DB
}

// New returns the database factory.
func New() modkit.Factory {
	return modkit.New[Module]()
}

func (m *Module) OnInit(context.Context) error {
	if err := m.Config().Decode(&m.cfg); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	m.cfg.applyDefaults()
	if m.cfg.DSN == "" {
		return fmt.Errorf("%w for driver %s", ErrNoDSN, m.cfg.Driver)
	}
	return validateTableName(m.cfg.MigrationsTable)
}

// OnRun opens the pool and checks the connection.
func (m *Module) OnRun(ctx context.Context) error {
	db, err := sql.Open(m.cfg.Driver, m.cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if m.cfg.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(m.cfg.MaxOpenConnections)
	}
	if m.cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.cfg.MaxIdleConnections)
	}
	if m.cfg.ConnectionMaxLifetime > 0 {
		db.SetConnMaxLifetime(m.cfg.ConnectionMaxLifetime)
	}
	if m.cfg.ConnectionMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(m.cfg.ConnectionMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m.mu.Lock()
	m.db = db
	m.mu.Unlock()

	m.Emit(EventTypeConnected, modkit.NewCloudEvent(EventTypeConnected, "modkit://"+m.Namespace(), map[string]any{"driver": m.cfg.Driver}, nil))
	m.Log().Info("database connected", "driver", m.cfg.Driver)
	return nil
}

// OnStop closes the pool.
func (m *Module) OnStop(context.Context) error {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.mu.Unlock()
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

// DB returns the pool, or ErrNotConnected.
func (m *Module) DB() (*sql.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrNotConnected
	}
	return m.db, nil
}

func (m *Module) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := m.DB()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

func (m *Module) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := m.DB()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}

// Stats returns the pool statistics.
func (m *Module) Stats() sql.DBStats {
	db, err := m.DB()
	if err != nil {
		return sql.DBStats{}
	}
	return db.Stats()
}
