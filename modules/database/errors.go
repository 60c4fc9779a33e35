package database

import "errors"

var (
	// ErrNotConnected is returned before Run or after Stop.
	ErrNotConnected = errors.New("database not connected")

	// ErrInvalidTableName is returned for a migrations table name that is not a plain identifier.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrNoDSN is returned when a non-sqlite driver has no DSN.
	ErrNoDSN = errors.New("database DSN is required")
)
