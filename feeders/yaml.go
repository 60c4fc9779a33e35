package feeders

import (
	"github.com/golobby/config/v3/pkg/feeder"
	"gopkg.in/yaml.v3"
)

// YamlFeeder reads a YAML file.
type YamlFeeder struct {
	feeder.Yaml
	optional bool
}

// NewYamlFeeder creates a YamlFeeder for filePath.
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{Yaml: feeder.Yaml{Path: filePath}}
}

// Optional marks the file as allowed to be missing.
func (y YamlFeeder) Optional() YamlFeeder {
	y.optional = true
	return y
}

func (y YamlFeeder) IsOptional() bool { return y.optional }

func (y YamlFeeder) Source() string { return y.Path }

// FeedKey reads the file and decodes only the section under key into target.
func (y YamlFeeder) FeedKey(key string, target any) error {
	return feedKey(y, key, target, yaml.Marshal, yaml.Unmarshal, "YAML")
}
