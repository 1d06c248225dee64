// Package config loads gable configuration from environment variables and
// an optional YAML settings file describing the build targets.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"dario.cat/mergo"

	"github.com/ukaji3/gable-go/pkg/gable"
	"github.com/ukaji3/gable-go/pkg/gable/sheet"
)

// DefaultSettingsFile is read when GABLE_SETTINGS is not set. It may be absent.
const DefaultSettingsFile = "gable.yaml"

// Config holds all gable configuration.
type Config struct {
	Logging LoggingConfig
	Export  ExportConfig

	// Settings is the parsed settings file. Zero when no file was read.
	Settings Settings `env:"-"`
	// SettingsFile is the path the settings were read from, if any.
	SettingsFile string `env:"-"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log output format: text, json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ExportConfig holds the environment-level export settings.
type ExportConfig struct {
	// Workspace is the directory scanned for .gable files. Overrides the
	// settings file when set.
	Workspace string `env:"GABLE_WORKSPACE"`

	// Settings is the settings file path (default: gable.yaml)
	Settings string `env:"GABLE_SETTINGS" default:"gable.yaml"`

	// Parallelism bounds concurrent export jobs (default: 4)
	Parallelism int `env:"GABLE_PARALLELISM" default:"4"`
}

// Settings is the YAML settings file.
type Settings struct {
	Workspace string           `yaml:"workspace"`
	Defaults  TargetSettings   `yaml:"defaults"`
	Targets   []TargetSettings `yaml:"targets"`
}

// TargetSettings describes one build target. Unset fields inherit from
// the settings defaults, then from the `default` tags, so a target cannot
// turn proto2 back off once the defaults enable it.
type TargetSettings struct {
	Name           string   `yaml:"name" default:"default"`
	Keyword        string   `yaml:"keyword"`
	TargetDir      string   `yaml:"target_dir" default:"out"`
	ProtoTargetDir string   `yaml:"proto_target_dir"`
	Formats        []string `yaml:"formats"`
	Proto2         bool     `yaml:"proto2"`
	ProtoPackage   string   `yaml:"proto_package"`
	Policy         string   `yaml:"policy" default:"skip"`
}

// WorkspaceDir returns the workspace directory to export.
func (c *Config) WorkspaceDir() string {
	if c.Export.Workspace != "" {
		return c.Export.Workspace
	}
	if c.Settings.Workspace != "" {
		return c.Settings.Workspace
	}
	return "."
}

// Targets returns the targets with defaults merged in. A settings file
// without targets yields a single target built from its defaults.
func (c *Config) Targets() ([]TargetSettings, error) {
	defaults := c.Settings.Defaults
	if err := applyDefaults(reflect.ValueOf(&defaults).Elem()); err != nil {
		return nil, err
	}
	if len(c.Settings.Targets) == 0 {
		return []TargetSettings{defaults}, nil
	}

	targets := make([]TargetSettings, 0, len(c.Settings.Targets))
	for i, t := range c.Settings.Targets {
		if err := mergo.Merge(&t, defaults); err != nil {
			return nil, fmt.Errorf("merge target %d: %w", i, err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// BuildTarget converts the settings into an export target.
func (t TargetSettings) BuildTarget() (gable.BuildTarget, error) {
	formats, err := gable.ParseFormats(t.Formats)
	if err != nil {
		return gable.BuildTarget{}, err
	}
	policy, err := sheet.ParsePolicy(t.Policy)
	if err != nil {
		return gable.BuildTarget{}, err
	}
	return gable.BuildTarget{
		DisplayName:    t.Name,
		Keyword:        t.Keyword,
		TargetDir:      t.TargetDir,
		ProtoTargetDir: t.ProtoTargetDir,
		Formats:        formats,
		Proto2:         t.Proto2,
		ProtoPackage:   t.ProtoPackage,
		Policy:         policy,
	}, nil
}

// BuildTargets returns every configured export target.
func (c *Config) BuildTargets() ([]gable.BuildTarget, error) {
	targets, err := c.Targets()
	if err != nil {
		return nil, err
	}
	out := make([]gable.BuildTarget, 0, len(targets))
	for _, t := range targets {
		bt, err := t.BuildTarget()
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", t.Name, err)
		}
		out = append(out, bt)
	}
	return out, nil
}

// Target returns the build target named name.
func (c *Config) Target(name string) (gable.BuildTarget, error) {
	targets, err := c.BuildTargets()
	if err != nil {
		return gable.BuildTarget{}, err
	}
	for _, t := range targets {
		if t.DisplayName == name {
			return t, nil
		}
	}
	return gable.BuildTarget{}, fmt.Errorf("unknown target %q", name)
}

// ApplyOverrides sets the non-empty command-line values over the loaded
// configuration and validates the result again.
func (c *Config) ApplyOverrides(level, format, workspace string) error {
	if level != "" {
		c.Logging.Level = level
	}
	if format != "" {
		c.Logging.Format = format
	}
	if workspace != "" {
		c.Export.Workspace = workspace
	}
	return c.Validate()
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if c.Export.Parallelism <= 0 {
		errs = append(errs, fmt.Sprintf("GABLE_PARALLELISM (%d) must be positive", c.Export.Parallelism))
	}

	targets, err := c.Targets()
	if err != nil {
		errs = append(errs, err.Error())
	}
	seen := make(map[string]bool)
	for i, t := range targets {
		label := fmt.Sprintf("targets[%d]", i)
		if t.Name == "" {
			errs = append(errs, label+": name is required")
		} else if seen[t.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate target name %q", label, t.Name))
		}
		seen[t.Name] = true
		if t.TargetDir == "" {
			errs = append(errs, label+": target_dir is required")
		}
		if _, err := gable.ParseFormats(t.Formats); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", label, err))
		}
		if _, err := sheet.ParsePolicy(t.Policy); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", label, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a short representation of the config for logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}, ", c.Logging.Level, c.Logging.Format))
	b.WriteString(fmt.Sprintf("Export: {Workspace: %q, Parallelism: %d}, ", c.WorkspaceDir(), c.Export.Parallelism))
	b.WriteString(fmt.Sprintf("Settings: {File: %q, Targets: %d}", c.SettingsFile, len(c.Settings.Targets)))
	b.WriteString("}")
	return b.String()
}
