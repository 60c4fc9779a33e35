package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/GoCodeAlone/modkit"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateTableName(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

// Migration is one schema change, applied at most once by ID.
type Migration struct {
	ID  string
	SQL string
}

// Migrate applies the migrations not yet recorded, in order, each in its own
// transaction. It returns the IDs it applied.
func (m *Module) Migrate(ctx context.Context, migrations ...Migration) ([]string, error) {
	db, err := m.DB()
	if err != nil {
		return nil, err
	}

	// #nosec G201 - table name is validated in OnInit
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, m.cfg.MigrationsTable)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	done, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, mig := range migrations {
		if slices.Contains(done, mig.ID) {
			continue
		}
		start := time.Now()
		err := m.apply(ctx, db, mig)
		m.emitMigration(mig.ID, time.Since(start), err)
		if err != nil {
			return applied, err
		}
		applied = append(applied, mig.ID)
	}
	if len(applied) > 0 {
		m.Log().Info("migrations applied", "ids", applied)
	}
	return applied, nil
}

func (m *Module) apply(ctx context.Context, db *sql.DB, mig Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", mig.ID, err)
	}
	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %s: %w", mig.ID, err)
	}
	// #nosec G201 - table name is validated in OnInit
	record := fmt.Sprintf("INSERT INTO %s (id) VALUES (?)", m.cfg.MigrationsTable)
	if _, err := tx.ExecContext(ctx, record, mig.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", mig.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", mig.ID, err)
	}
	return nil
}

// Applied returns the recorded migration IDs in application order.
func (m *Module) Applied(ctx context.Context) ([]string, error) {
	// #nosec G201 - table name is validated in OnInit
	rows, err := m.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY applied_at, id", m.cfg.MigrationsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}
	return ids, nil
}

func (m *Module) emitMigration(id string, d time.Duration, err error) {
	eventType := EventTypeMigrationApplied
	data := MigrationEventData{ID: id, Duration: d.String()}
	if err != nil {
		eventType = EventTypeMigrationFailed
		data.Error = err.Error()
	}
	m.Emit(eventType, modkit.NewCloudEvent(eventType, "modkit://"+m.Namespace(), data, nil))
}
