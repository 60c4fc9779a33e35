// Package logmasker redacts sensitive values from structured log arguments.
//
// It decorates a modkit.LoggerProvider, so every module in a tree logs through
// the same rules:
//
//	masker, err := logmasker.New(logmasker.DefaultConfig())
//	props.LoggerProvider = masker.Provider(modkit.DefaultLoggerProvider)
//
// Field rules match the argument key; pattern rules match string values. A
// value implementing MaskableValue decides for itself.
package logmasker

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/GoCodeAlone/modkit"
)

// SectionName is the root configuration section read by modkitd.
const SectionName = "logmasker"

// MaskStrategy defines the type of masking to apply.
type MaskStrategy string

const (
	// MaskStrategyRedact replaces the entire value with "[REDACTED]".
	MaskStrategyRedact MaskStrategy = "redact"

	// MaskStrategyPartial shows only part of the value, masking the rest.
	MaskStrategyPartial MaskStrategy = "partial"

	// MaskStrategyHash replaces the value with a short SHA-256 digest.
	MaskStrategyHash MaskStrategy = "hash"

	// MaskStrategyNone does not mask the value.
	MaskStrategyNone MaskStrategy = "none"
)

const redacted = "[REDACTED]"

// MaskableValue is implemented by values that control their own masking.
type MaskableValue interface {
	ShouldMask() bool
	MaskedValue() any
}

// FieldRule masks the value logged under a key.
type FieldRule struct {
	Field    string             `yaml:"field" json:"field" toml:"field"`
	Strategy MaskStrategy       `yaml:"strategy" json:"strategy" toml:"strategy"`
	Partial  *PartialMaskConfig `yaml:"partial,omitempty" json:"partial,omitempty" toml:"partial,omitempty"`
}

// PatternRule masks string values matching a regular expression.
type PatternRule struct {
	Pattern  string             `yaml:"pattern" json:"pattern" toml:"pattern"`
	Strategy MaskStrategy       `yaml:"strategy" json:"strategy" toml:"strategy"`
	Partial  *PartialMaskConfig `yaml:"partial,omitempty" json:"partial,omitempty" toml:"partial,omitempty"`
}

// PartialMaskConfig defines how to partially mask a value.
type PartialMaskConfig struct {
	ShowFirst int    `yaml:"showFirst" json:"showFirst" toml:"showFirst"`
	ShowLast  int    `yaml:"showLast" json:"showLast" toml:"showLast"`
	MaskChar  string `yaml:"maskChar" json:"maskChar" toml:"maskChar"`
	MinLength int    `yaml:"minLength" json:"minLength" toml:"minLength"`
}

// Config defines the masking rules.
type Config struct {
	Enabled         bool              `yaml:"enabled" json:"enabled" toml:"enabled"`
	DefaultStrategy MaskStrategy      `yaml:"defaultStrategy" json:"defaultStrategy" toml:"defaultStrategy"`
	Fields          []FieldRule       `yaml:"fields" json:"fields" toml:"fields"`
	Patterns        []PatternRule     `yaml:"patterns" json:"patterns" toml:"patterns"`
	DefaultPartial  PartialMaskConfig `yaml:"defaultPartial" json:"defaultPartial" toml:"defaultPartial"`
}

// DefaultConfig masks credentials, card numbers and e-mail addresses.
func DefaultConfig() Config {
	partial := PartialMaskConfig{ShowFirst: 2, ShowLast: 2, MaskChar: "*", MinLength: 4}
	return Config{
		Enabled:         true,
		DefaultStrategy: MaskStrategyRedact,
		Fields: []FieldRule{
			{Field: "password", Strategy: MaskStrategyRedact},
			{Field: "redisPassword", Strategy: MaskStrategyRedact},
			{Field: "token", Strategy: MaskStrategyRedact},
			{Field: "secret", Strategy: MaskStrategyRedact},
			{Field: "email", Strategy: MaskStrategyPartial, Partial: &partial},
		},
		Patterns: []PatternRule{
			{Pattern: `\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`, Strategy: MaskStrategyRedact},
		},
		DefaultPartial: partial,
	}
}

type compiledPattern struct {
	PatternRule
	re *regexp.Regexp
}

// Masker applies a compiled Config.
type Masker struct {
	cfg      Config
	fields   map[string]FieldRule
	patterns []compiledPattern
}

// New compiles cfg.
func New(cfg Config) (*Masker, error) {
	m := &Masker{cfg: cfg, fields: make(map[string]FieldRule, len(cfg.Fields))}
	for _, rule := range cfg.Fields {
		m.fields[rule.Field] = rule
	}
	for _, rule := range cfg.Patterns {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern '%s': %w", rule.Pattern, err)
		}
		m.patterns = append(m.patterns, compiledPattern{PatternRule: rule, re: re})
	}
	if m.cfg.DefaultStrategy == "" {
		m.cfg.DefaultStrategy = MaskStrategyRedact
	}
	return m, nil
}

// FromConfig reads the masking rules from the logmasker section of cfg. Without
// that section it returns nil and no error.
func FromConfig(cfg modkit.Config) (*Masker, error) {
	if _, ok := cfg.Lookup(SectionName); !ok {
		return nil, nil
	}
	sub, err := cfg.Sub(SectionName)
	if err != nil {
		return nil, err
	}
	rules := DefaultConfig()
	if err := sub.Decode(&rules); err != nil {
		return nil, fmt.Errorf("logmasker config: %w", err)
	}
	return New(rules)
}

// Provider wraps every logger built by inner.
func (m *Masker) Provider(inner modkit.LoggerProvider) modkit.LoggerProvider {
	return func(cfg modkit.LogConfig) modkit.Logger {
		return m.Logger(inner(cfg))
	}
}

// Logger wraps inner.
func (m *Masker) Logger(inner modkit.Logger) modkit.Logger {
	return &maskingLogger{inner: inner, masker: m}
}

// Args returns a copy of the key/value pairs with the rules applied.
func (m *Masker) Args(args []any) []any {
	if !m.cfg.Enabled || len(args) == 0 {
		return args
	}

	out := make([]any, len(args))
	copy(out, args)
	for i := 1; i < len(out); i += 2 {
		if mv, ok := out[i].(MaskableValue); ok {
			if mv.ShouldMask() {
				out[i] = mv.MaskedValue()
			}
			continue
		}
		key, _ := out[i-1].(string)
		out[i] = m.value(key, out[i])
	}
	return out
}

func (m *Masker) value(key string, v any) any {
	if rule, ok := m.fields[key]; ok {
		return m.apply(v, rule.Strategy, rule.Partial)
	}
	if s, ok := v.(string); ok {
		for _, p := range m.patterns {
			if p.re.MatchString(s) {
				return m.apply(v, p.Strategy, p.Partial)
			}
		}
	}
	return v
}

func (m *Masker) apply(v any, strategy MaskStrategy, partial *PartialMaskConfig) any {
	switch strategy {
	case MaskStrategyRedact:
		return redacted
	case MaskStrategyPartial:
		s, ok := v.(string)
		if !ok {
			return redacted
		}
		if partial == nil {
			partial = &m.cfg.DefaultPartial
		}
		return partialMask(s, partial)
	case MaskStrategyHash:
		sum := sha256.Sum256([]byte(fmt.Sprint(v)))
		return fmt.Sprintf("[HASH:%x]", sum[:8])
	case MaskStrategyNone:
		return v
	default:
		return m.apply(v, m.cfg.DefaultStrategy, partial)
	}
}

func partialMask(value string, cfg *PartialMaskConfig) string {
	if len(value) < cfg.MinLength || cfg.ShowFirst+cfg.ShowLast >= len(value) {
		return value
	}
	maskChar := cfg.MaskChar
	if maskChar == "" {
		maskChar = "*"
	}
	masked := len(value) - cfg.ShowFirst - cfg.ShowLast
	return value[:cfg.ShowFirst] + strings.Repeat(maskChar, masked) + value[len(value)-cfg.ShowLast:]
}

type maskingLogger struct {
	inner  modkit.Logger
	masker *Masker
}

func (l *maskingLogger) Trace(msg string, args ...any) { l.inner.Trace(msg, l.masker.Args(args)...) }
func (l *maskingLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, l.masker.Args(args)...) }
func (l *maskingLogger) Info(msg string, args ...any)  { l.inner.Info(msg, l.masker.Args(args)...) }
func (l *maskingLogger) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.masker.Args(args)...) }
func (l *maskingLogger) Error(msg string, args ...any) { l.inner.Error(msg, l.masker.Args(args)...) }
func (l *maskingLogger) Fatal(msg string, args ...any) { l.inner.Fatal(msg, l.masker.Args(args)...) }
