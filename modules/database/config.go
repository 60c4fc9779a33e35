package database

import "time"

// Config represents database module configuration
type Config struct {
	// Driver is the database/sql driver name. Default: sqlite.
	Driver string `json:"driver" yaml:"driver" toml:"driver"`

	// DSN is the database connection string. Default: an in-memory sqlite database.
	DSN string `json:"dsn" yaml:"dsn" toml:"dsn"`

	// MaxOpenConnections sets the maximum number of open connections to the database
	MaxOpenConnections int `json:"max_open_connections" yaml:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections sets the maximum number of idle connections in the pool
	MaxIdleConnections int `json:"max_idle_connections" yaml:"max_idle_connections" toml:"max_idle_connections"`

	// ConnectionMaxLifetime sets the maximum amount of time a connection may be reused
	ConnectionMaxLifetime time.Duration `json:"connection_max_lifetime" yaml:"connection_max_lifetime" toml:"connection_max_lifetime"`

	// ConnectionMaxIdleTime sets the maximum amount of time a connection may be idle
	ConnectionMaxIdleTime time.Duration `json:"connection_max_idle_time" yaml:"connection_max_idle_time" toml:"connection_max_idle_time"`

	// PingTimeout bounds the connection check on Run. Default: 5s.
	PingTimeout time.Duration `json:"ping_timeout" yaml:"ping_timeout" toml:"ping_timeout"`

	// MigrationsTable tracks applied migrations. Default: schema_migrations.
	MigrationsTable string `json:"migrations_table" yaml:"migrations_table" toml:"migrations_table"`
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.DSN == "" && c.Driver == "sqlite" {
		c.DSN = ":memory:"
	}
	// every connection to ":memory:" opens a separate database
	if c.DSN == ":memory:" {
		c.MaxOpenConnections = 1
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 5 * time.Second
	}
	if c.MigrationsTable == "" {
		c.MigrationsTable = "schema_migrations"
	}
}
