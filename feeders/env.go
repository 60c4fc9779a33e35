package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// DefaultEnvPrefix prefixes the variables read by ApplyEnv.
const DefaultEnvPrefix = "MODKIT"

// EnvFeeder fills `env`-tagged struct fields from PREFIX_TAG environment
// variables. Nested structs are walked; unset variables leave fields untouched.
type EnvFeeder struct {
	Prefix string
}

// NewEnvFeeder creates an EnvFeeder for prefix.
func NewEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

// Feed populates structure, which must be a pointer to a struct.
func (f EnvFeeder) Feed(structure any) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrEnvInvalidStructure, structure)
	}
	return fillStruct(rv.Elem(), strings.ToUpper(f.Prefix))
}

func fillStruct(rv reflect.Value, prefix string) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)
		if !fieldType.IsExported() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := fillStruct(field, prefix); err != nil {
				return err
			}
			continue
		}

		tag, ok := fieldType.Tag.Lookup("env")
		if !ok || tag == "" {
			continue
		}
		if err := setFieldFromEnv(field, envName(prefix, tag)); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

func envName(prefix, tag string) string {
	if prefix == "" {
		return strings.ToUpper(tag)
	}
	return prefix + "_" + strings.ToUpper(tag)
}

func setFieldFromEnv(field reflect.Value, name string) error {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil
	}
	converted, err := cast.FromType(value, field.Type())
	if err != nil {
		return fmt.Errorf("%w: %s=%q as %v: %v", ErrEnvConversion, name, value, field.Type(), err)
	}
	if !field.CanSet() {
		return fmt.Errorf("%w: %s", ErrEnvFieldCannotBeSet, name)
	}
	field.Set(reflect.ValueOf(converted))
	return nil
}

// Overrides are the root settings the environment may force, e.g.
// MODKIT_DEBUG=true or MODKIT_LOG_LEVEL=debug.
type Overrides struct {
	Debug     string `env:"DEBUG"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// ApplyEnv reads Overrides under prefix and writes them into the root of tree.
// Children pick them up through the config cascade.
func ApplyEnv(tree map[string]any, prefix string) error {
	var o Overrides
	if err := NewEnvFeeder(prefix).Feed(&o); err != nil {
		return err
	}

	if o.Debug != "" {
		debug, err := cast.FromType(o.Debug, reflect.TypeOf(false))
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrEnvConversion, envName(strings.ToUpper(prefix), "DEBUG"), o.Debug, err)
		}
		tree["debug"] = debug
	}
	if o.LogLevel == "" && o.LogFormat == "" {
		return nil
	}

	logSection, ok := asMap(tree["log"])
	if !ok {
		logSection = make(map[string]any)
	}
	if o.LogLevel != "" {
		logSection["level"] = o.LogLevel
	}
	if o.LogFormat != "" {
		logSection["format"] = o.LogFormat
	}
	tree["log"] = logSection
	return nil
}
