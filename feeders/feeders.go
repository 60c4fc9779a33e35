// Package feeders loads module configuration trees from YAML, JSON and TOML files
// and from prefixed environment variables.
//
// Every file feeder decodes into a generic mapping; Load deep-merges the mappings
// in order so later sources override earlier ones key by key:
//
//	tree, err := feeders.Load(
//		feeders.NewYamlFeeder("config/app.yaml"),
//		feeders.NewYamlFeeder("config/app.local.yaml"),
//	)
//	cfg, err := modkit.ConfigFromMap(tree)
package feeders

import (
	"errors"
	"fmt"
	"os"
)

// Feeder decodes a configuration source into target.
type Feeder interface {
	Feed(target any) error
}

// Load feeds every source into a fresh mapping and deep-merges the results in order.
// Sources whose file does not exist are skipped when they implement Optional and
// report true.
func Load(sources ...Feeder) (map[string]any, error) {
	tree := make(map[string]any)
	for _, src := range sources {
		if o, ok := src.(Optional); ok && o.IsOptional() {
			if _, err := os.Stat(o.Source()); errors.Is(err, os.ErrNotExist) {
				continue
			}
		}
		var data map[string]any
		if err := src.Feed(&data); err != nil {
			return nil, fmt.Errorf("failed to feed %s: %w", describe(src), err)
		}
		Merge(tree, data)
	}
	return tree, nil
}

// Optional is implemented by file feeders that may point at a missing file.
type Optional interface {
	IsOptional() bool
	Source() string
}

// Merge deep-merges src into dst. Nested mappings are merged recursively; any
// other value in src replaces the one in dst.
func Merge(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := asMap(v)
		dstMap, dstIsMap := asMap(dst[k])
		if srcIsMap && dstIsMap {
			Merge(dstMap, srcMap)
			dst[k] = dstMap
			continue
		}
		if srcIsMap {
			copied := make(map[string]any, len(srcMap))
			Merge(copied, srcMap)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func describe(f Feeder) string {
	if p, ok := f.(interface{ Source() string }); ok {
		return p.Source()
	}
	return fmt.Sprintf("%T", f)
}

// feedKey extracts the subtree stored under key and remarshals it into target.
func feedKey(
	feeder Feeder,
	key string,
	target any,
	marshalFunc func(any) ([]byte, error),
	unmarshalFunc func([]byte, any) error,
	fileType string,
) error {
	var allData map[string]any
	if err := feeder.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileType, err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	valueBytes, err := marshalFunc(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}
	if err = unmarshalFunc(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", fileType, err)
	}
	return nil
}
