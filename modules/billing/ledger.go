package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/GoCodeAlone/modkit/modules/database"
)

// LedgerModule is the submodule name of the optional receipt ledger.
const LedgerModule = "ledger"

// fixed width so that text order is time order
const ledgerTime = "2006-01-02T15:04:05.000000000Z"

var ledgerMigrations = []database.Migration{
	{
		ID: "001_receipts",
		SQL: `CREATE TABLE receipts (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
	},
	{ID: "002_receipts_reference", SQL: `CREATE INDEX receipts_reference ON receipts (reference)`},
}

func (m *Module) record(ctx context.Context, r Receipt) error {
	_, err := m.ledger.ExecContext(ctx,
		`INSERT INTO receipts (id, provider, amount, currency, reference, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Provider, r.Amount, r.Currency, r.Reference, r.CreatedAt.UTC().Format(ledgerTime),
	)
	if err != nil {
		return fmt.Errorf("failed to record receipt %s: %w", r.ID, err)
	}
	return nil
}

// Receipts returns up to limit recorded receipts, newest first.
func (m *Module) Receipts(ctx context.Context, limit int) ([]Receipt, error) {
	if m.ledger == nil {
		return nil, ErrNoLedger
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := m.ledger.QueryContext(ctx,
		`SELECT id, provider, amount, currency, reference, created_at FROM receipts ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	out := []Receipt{}
	for rows.Next() {
		var (
			r       Receipt
			created string
		)
		if err := rows.Scan(&r.ID, &r.Provider, &r.Amount, &r.Currency, &r.Reference, &created); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		if r.CreatedAt, err = time.Parse(ledgerTime, created); err != nil {
			return nil, fmt.Errorf("receipt %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
