package feeders

import (
	"github.com/BurntSushi/toml"
	"github.com/golobby/config/v3/pkg/feeder"
)

// TomlFeeder reads a TOML file.
type TomlFeeder struct {
	feeder.Toml
	optional bool
}

// NewTomlFeeder creates a TomlFeeder for filePath.
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{Toml: feeder.Toml{Path: filePath}}
}

// Optional marks the file as allowed to be missing.
func (t TomlFeeder) Optional() TomlFeeder {
	t.optional = true
	return t
}

func (t TomlFeeder) IsOptional() bool { return t.optional }

func (t TomlFeeder) Source() string { return t.Path }

// FeedKey reads the file and decodes only the section under key into target.
func (t TomlFeeder) FeedKey(key string, target any) error {
	return feedKey(t, key, target, toml.Marshal, toml.Unmarshal, "TOML")
}
