package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from environment variables and the settings
// file at path. An empty path falls back to GABLE_SETTINGS, then to
// gable.yaml; only the implicit gable.yaml may be missing.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}

	set, err := loadEnv(reflect.ValueOf(cfg).Elem(), lookup)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	explicit := path != "" || set["GABLE_SETTINGS"]
	if path == "" {
		path = cfg.Export.Settings
	}
	settings, err := ReadSettings(path)
	switch {
	case err == nil:
		cfg.Settings = *settings
		cfg.SettingsFile = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// ReadSettings parses a YAML settings file.
func ReadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

// boundField is a settable struct field with its struct tags.
type boundField struct {
	path  string
	tag   reflect.StructTag
	value reflect.Value
}

// walkFields lists the settable leaf fields of v, descending into nested
// structs. Fields tagged `env:"-"` are skipped with their subtree.
func walkFields(v reflect.Value, prefix string) []boundField {
	var out []boundField
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() || field.Tag.Get("env") == "-" {
			continue
		}
		path := prefix + field.Name
		if field.Type.Kind() == reflect.Struct {
			out = append(out, walkFields(fieldVal, path+".")...)
			continue
		}
		out = append(out, boundField{path: path, tag: field.Tag, value: fieldVal})
	}
	return out
}

// loadEnv populates the `env`-tagged fields of v through lookup, falling
// back to the `default` tag. It reports every malformed variable at once
// and returns the names of the variables that were set.
func loadEnv(v reflect.Value, lookup func(string) (string, bool)) (map[string]bool, error) {
	set := make(map[string]bool)
	var errs []string
	for _, f := range walkFields(v, "") {
		name := f.tag.Get("env")
		if name == "" {
			continue
		}
		value, ok := lookup(name)
		if ok && value != "" {
			set[name] = true
		} else {
			value = f.tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := setField(f.value, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", name, value, err))
		}
	}
	if len(errs) > 0 {
		return set, fmt.Errorf("invalid environment:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return set, nil
}

// applyDefaults fills the zero fields of v from their `default` tags.
func applyDefaults(v reflect.Value) error {
	for _, f := range walkFields(v, "") {
		def := f.tag.Get("default")
		if def == "" || !f.value.IsZero() {
			continue
		}
		if err := setField(f.value, def); err != nil {
			return fmt.Errorf("default for %s: %w", f.path, err)
		}
	}
	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
