package scheduler

import "time"

// Config defines the configuration for the scheduler module
type Config struct {
	// Jobs maps job names to cron specs, e.g. "*/5 * * * *" or "@hourly".
	Jobs map[string]string `json:"jobs" yaml:"jobs" toml:"jobs"`

	// Timeout bounds a single job execution. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// Location is the IANA time zone specs are evaluated in. Defaults to local time.
	Location string `json:"location" yaml:"location" toml:"location"`

	// Seconds enables an optional leading seconds field in specs.
	Seconds bool `json:"seconds" yaml:"seconds" toml:"seconds"`
}
