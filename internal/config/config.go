// Package config loads indexprep configuration from defaults, the user
// config file, the project config file and the environment.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/processor"
	"github.com/Aman-CERP/indexprep/internal/store"
)

// CurrentVersion is the configuration schema version.
const CurrentVersion = 1

// Project config file names, in lookup order.
var projectConfigNames = []string{".indexprep.yaml", ".indexprep.yml"}

// Config is the complete indexprep configuration.
type Config struct {
	Version    int                `yaml:"version" json:"version"`
	Index      IndexConfig        `yaml:"index" json:"index"`
	Processors processor.Settings `yaml:"processors" json:"processors"`
	Pipeline   PipelineConfig     `yaml:"pipeline" json:"pipeline"`
	Sink       SinkConfig         `yaml:"sink" json:"sink"`
	Watch      WatchConfig        `yaml:"watch" json:"watch"`
	Logging    LoggingConfig      `yaml:"logging" json:"logging"`

	// Sources lists the files that contributed, lowest precedence first.
	Sources []string `yaml:"-" json:"-"`
}

// IndexConfig describes the index the processors serve.
type IndexConfig struct {
	ID string `yaml:"id" json:"id"`
	// Datasources lets validation check processors against the index.
	// Empty means unknown.
	Datasources []string `yaml:"datasources,omitempty" json:"datasources,omitempty"`
}

// PipelineConfig tunes batch processing.
type PipelineConfig struct {
	// Workers is the number of items processed concurrently.
	// 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`
}

// SinkConfig selects where processed batches are indexed.
type SinkConfig struct {
	Backend string `yaml:"backend" json:"backend"` // none, bleve or sqlite
	Path    string `yaml:"path" json:"path"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Version:    CurrentVersion,
		Processors: processor.DefaultSettings(),
		Sink:       SinkConfig{Backend: string(store.BackendNone)},
		Watch:      WatchConfig{Debounce: "500ms"},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/indexprep/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/indexprep/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "indexprep", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "indexprep", "config.yaml")
	}
	return filepath.Join(home, ".config", "indexprep", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// FindProjectConfig returns the project config file in dir, or "" if
// there is none.
func FindProjectConfig(dir string) string {
	for _, name := range projectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// ProjectConfigPath returns where a new project config in dir is written.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, projectConfigNames[0])
}

// Load loads configuration for a project directory. Sources apply in
// order of increasing precedence:
//  1. Defaults
//  2. User config (~/.config/indexprep/config.yaml)
//  3. Project config (.indexprep.yaml in dir)
//  4. Environment variables (INDEXPREP_*)
func Load(dir string) (*Config, error) {
	return load(FindProjectConfig(dir), false)
}

// LoadFile is Load with an explicit config file in place of the project
// config. The file must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(projectPath string, required bool) (*Config, error) {
	cfg := NewConfig()

	if UserConfigExists() {
		if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
			return nil, err
		}
	}

	if projectPath != "" {
		if !fileExists(projectPath) {
			if required {
				return nil, amerrors.New(amerrors.ErrCodeConfigNotFound,
					fmt.Sprintf("config file %s not found", projectPath), nil).
					WithSuggestion("Create one with: indexprep config init")
			}
		} else if err := cfg.loadYAML(projectPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes a file over the current values. Keys absent from the
// file keep their current values; lists are replaced, maps are merged.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return amerrors.New(amerrors.ErrCodeConfigPermission,
				fmt.Sprintf("cannot read config file %s", path), err)
		}
		return amerrors.IOError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := c.decode(bytes.NewReader(data)); err != nil {
		return amerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("file", path)
	}
	c.Sources = append(c.Sources, path)
	return nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Parse decodes YAML over the defaults without reading any file or the
// environment. The result is not validated.
func Parse(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, amerrors.ConfigError("failed to parse config", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies INDEXPREP_* variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("INDEXPREP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INDEXPREP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return amerrors.ConfigError("INDEXPREP_WORKERS must be an integer", err).
				WithDetail("value", v)
		}
		c.Pipeline.Workers = n
	}
	if v := os.Getenv("INDEXPREP_SINK_BACKEND"); v != "" {
		c.Sink.Backend = v
	}
	if v := os.Getenv("INDEXPREP_SINK_PATH"); v != "" {
		c.Sink.Path = v
	}
	return nil
}

// Issues returns every problem in the configuration.
func (c *Config) Issues() processor.ValidationErrors {
	var errs processor.ValidationErrors

	if c.Version != CurrentVersion {
		errs = append(errs, processor.ValidationError{
			Processor: "config", Option: "version",
			Message: fmt.Sprintf("unsupported version %d (expected %d)", c.Version, CurrentVersion),
		})
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, processor.ValidationError{
			Processor: "pipeline", Option: "workers",
			Message: fmt.Sprintf("must be non-negative, got %d", c.Pipeline.Workers),
		})
	}

	backend, err := store.ParseBackend(c.Sink.Backend)
	switch {
	case err != nil:
		errs = append(errs, processor.ValidationError{Processor: "sink", Option: "backend", Message: err.Error()})
	case backend != store.BackendNone && c.Sink.Path == "":
		errs = append(errs, processor.ValidationError{
			Processor: "sink", Option: "path",
			Message: fmt.Sprintf("required for backend %s", backend),
		})
	}

	if _, err := c.WatchDebounce(); err != nil {
		errs = append(errs, processor.ValidationError{Processor: "watch", Option: "debounce", Message: err.Error()})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, processor.ValidationError{
			Processor: "logging", Option: "level",
			Message: fmt.Sprintf("must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level),
		})
	}

	errs = append(errs, processor.Validate(c.Processors, c.Index.Datasources)...)
	return errs
}

// Validate returns a configuration error listing every issue, or nil.
func (c *Config) Validate() error {
	issues := c.Issues()
	if len(issues) == 0 {
		return nil
	}

	err := amerrors.ConfigError("invalid configuration", issues)
	for _, issue := range issues {
		key := issue.Processor
		if issue.Option != "" {
			key += "." + issue.Option
		}
		err.WithDetail(key, issue.Message)
	}
	return err.WithSuggestion("Fix the listed options and run: indexprep validate")
}

// SinkBackend returns the parsed sink backend.
func (c *Config) SinkBackend() store.Backend {
	b, err := store.ParseBackend(c.Sink.Backend)
	if err != nil {
		return store.BackendNone
	}
	return b
}

// WatchDebounce returns the parsed watch debounce interval.
func (c *Config) WatchDebounce() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", c.Watch.Debounce)
	}
	if d < 0 {
		return 0, fmt.Errorf("must be non-negative, got %s", d)
	}
	return d, nil
}

// BuildProcessors creates the enabled processors.
func (c *Config) BuildProcessors() ([]processor.Processor, error) {
	procs, err := processor.Build(c.Processors, c.Index.Datasources)
	if err != nil {
		return nil, amerrors.ConfigError("invalid processor configuration", err)
	}
	return procs, nil
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
