package feeders

import (
	"encoding/json"

	"github.com/golobby/config/v3/pkg/feeder"
)

// JSONFeeder reads a JSON file.
type JSONFeeder struct {
	feeder.Json
	optional bool
}

// NewJSONFeeder creates a JSONFeeder for filePath.
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{Json: feeder.Json{Path: filePath}}
}

// Optional marks the file as allowed to be missing.
func (j JSONFeeder) Optional() JSONFeeder {
	j.optional = true
	return j
}

func (j JSONFeeder) IsOptional() bool { return j.optional }

func (j JSONFeeder) Source() string { return j.Path }

// FeedKey reads the file and decodes only the section under key into target.
func (j JSONFeeder) FeedKey(key string, target any) error {
	return feedKey(j, key, target, json.Marshal, json.Unmarshal, "JSON")
}
