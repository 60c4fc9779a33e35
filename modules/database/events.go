package database

// Event type constants for database module events.
const (
	EventTypeConnected        = "com.modkit.database.connected"
	EventTypeMigrationApplied = "com.modkit.database.migration.applied"
	EventTypeMigrationFailed  = "com.modkit.database.migration.failed"
)

// MigrationEventData is the payload of the migration events.
type MigrationEventData struct {
	ID       string `json:"id"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}
