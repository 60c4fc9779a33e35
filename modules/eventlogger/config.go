package eventlogger

import (
	"fmt"
	"time"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Target types.
const (
	TargetConsole = "console"
	TargetFile    = "file"
)

// Config holds configuration for the event logger module.
type Config struct {
	// Format is the default format of every target, json or text.
	Format string `yaml:"format" json:"format" toml:"format"`

	// Targets lists where entries are written. Empty means one console target.
	Targets []TargetConfig `yaml:"targets" json:"targets" toml:"targets"`

	// Filters restricts the recorded event types. A trailing "*" matches a prefix.
	Filters []string `yaml:"filters" json:"filters" toml:"filters"`

	// BufferSize is the capacity of the queue between recording and writing.
	BufferSize int `yaml:"bufferSize" json:"bufferSize" toml:"bufferSize"`

	// DrainTimeout bounds how long Stop waits for queued entries. Zero or
	// negative waits until the queue is empty.
	DrainTimeout time.Duration `yaml:"drainTimeout" json:"drainTimeout" toml:"drainTimeout"`
}

// TargetConfig configures one output target.
type TargetConfig struct {
	Type   string `yaml:"type" json:"type" toml:"type"`
	Format string `yaml:"format" json:"format" toml:"format"`

	// Path is the file written by file targets. It is opened for appending.
	Path string `yaml:"path" json:"path" toml:"path"`
}

func (c *Config) applyDefaults() {
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if len(c.Targets) == 0 {
		c.Targets = []TargetConfig{{Type: TargetConsole}}
	}
	for i := range c.Targets {
		if c.Targets[i].Type == "" {
			c.Targets[i].Type = TargetConsole
		}
		if c.Targets[i].Format == "" {
			c.Targets[i].Format = c.Format
		}
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 100
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 2 * time.Second
	}
}

func (c *Config) validate() error {
	for i, t := range c.Targets {
		switch t.Format {
		case FormatJSON, FormatText:
		default:
			return fmt.Errorf("%w: target %d: %q", ErrUnknownFormat, i, t.Format)
		}
		switch t.Type {
		case TargetConsole:
		case TargetFile:
			if t.Path == "" {
				return fmt.Errorf("%w: target %d", ErrMissingPath, i)
			}
		default:
			return fmt.Errorf("%w: target %d: %q", ErrUnknownTarget, i, t.Type)
		}
	}
	return nil
}
