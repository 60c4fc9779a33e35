package modkit

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// LogConfig is the logging sub-configuration of a module.
type LogConfig struct {
	// Name is the logger name. It is never inherited by children.
	Name string `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`

	// Ns is the dotted logging namespace, e.g. "App.billing.providers.stripe".
	Ns string `yaml:"ns,omitempty" json:"ns,omitempty" toml:"ns,omitempty"`

	// Level is one of trace, debug, info, warn, error, fatal.
	Level string `yaml:"level,omitempty" json:"level,omitempty" toml:"level,omitempty"`

	// Format is "json" (default) or "console".
	Format string `yaml:"format,omitempty" json:"format,omitempty" toml:"format,omitempty"`
}

// Config is the effective configuration of a module.
//
// Debug and Log are the options every module recognizes. Everything else lives in
// Extra: the module's own options (read through Decode) and the subtrees of its
// children, keyed by submodule name.
type Config struct {
	Debug bool           `yaml:"debug,omitempty" json:"debug,omitempty" toml:"debug,omitempty"`
	Log   LogConfig      `yaml:"log,omitempty" json:"log,omitempty" toml:"log,omitempty"`
	Extra map[string]any `yaml:",inline" json:"-" toml:"-"`
}

// rawConfig tells an explicit "debug: false" apart from an absent key.
type rawConfig struct {
	Debug *bool          `yaml:"debug"`
	Log   LogConfig      `yaml:"log"`
	Extra map[string]any `yaml:",inline"`
}

// ConfigFromMap converts a generic mapping, as produced by the feeders, into a Config.
func ConfigFromMap(m map[string]any) (Config, error) {
	cfg, _, err := configFromMap(m)
	return cfg, err
}

func configFromMap(m map[string]any) (Config, bool, error) {
	var raw rawConfig
	if len(m) > 0 {
		b, err := yaml.Marshal(m)
		if err != nil {
			return Config{}, false, fmt.Errorf("failed to marshal config: %w", err)
		}
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return Config{}, false, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	cfg := Config{Log: raw.Log, Extra: raw.Extra}
	if raw.Debug != nil {
		cfg.Debug = *raw.Debug
	}
	return cfg, raw.Debug != nil, nil
}

// Lookup returns the raw value stored under path. A key that literally contains
// dots wins over the dotted walk through nested mappings.
func (c Config) Lookup(path string) (any, bool) {
	if v, ok := c.Extra[path]; ok {
		return v, true
	}
	var cur any = c.Extra
	for _, seg := range strings.Split(path, ".") {
		m, ok := toStringMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Sub returns the section under path as a Config. A missing section yields an empty Config.
func (c Config) Sub(path string) (Config, error) {
	cfg, _, err := c.sub(path)
	return cfg, err
}

func (c Config) sub(path string) (Config, bool, error) {
	v, ok := c.Lookup(path)
	if !ok || v == nil {
		return Config{}, false, nil
	}
	if cfg, ok := v.(Config); ok {
		return cfg, true, nil
	}
	m, ok := toStringMap(v)
	if !ok {
		return Config{}, false, fmt.Errorf("%w: %s is %T", ErrConfigNotMap, path, v)
	}
	return configFromMap(m)
}

// Decode remarshals the module's own options (Extra) into target, a pointer to a typed
// option struct. Keys that target does not declare are ignored.
func (c Config) Decode(target any) error {
	b, err := yaml.Marshal(c.Extra)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	if err := yaml.Unmarshal(b, target); err != nil {
		return fmt.Errorf("failed to decode options into %T: %w", target, err)
	}
	return nil
}

// Cascade computes the effective config of the child called name from its parent's
// config and logging namespace. It has no side effects.
//
// The child inherits the parent's debug flag unless its own section sets one, and
// its log config is the parent's (without the name) with a fresh namespace, overlaid
// by the child's own log settings.
func Cascade(parent Config, parentNs, name string) (Config, error) {
	child, debugSet, err := parent.sub(name)
	if err != nil {
		return Config{}, err
	}
	if !debugSet {
		child.Debug = parent.Debug
	}

	inherited := parent.Log
	inherited.Name = ""
	inherited.Ns = JoinNamespace(parentNs, name)
	child.Log = overlayLog(inherited, child.Log)
	return child, nil
}

// JoinNamespace joins dotted namespace segments, dropping empty ones.
func JoinNamespace(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

func overlayLog(base, over LogConfig) LogConfig {
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Ns != "" {
		base.Ns = over.Ns
	}
	if over.Level != "" {
		base.Level = over.Level
	}
	if over.Format != "" {
		base.Format = over.Format
	}
	return base
}

func toStringMap(v any) (map[string]any, bool) {
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
