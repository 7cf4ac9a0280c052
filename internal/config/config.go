// Package config handles exporter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Faultbox/meshexport/pkg/export"
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExportConfig holds export session settings.
type ExportConfig struct {
	Format    export.Policy `yaml:"format" toml:"format"`         // native, glb or fbx
	OutputDir string        `yaml:"output_dir" toml:"output_dir"` // Where exported files are written
	Workers   int           `yaml:"workers" toml:"workers"`       // Assets exported in parallel
	Generator string        `yaml:"generator" toml:"generator"`   // asset.generator in containers
	Material  string        `yaml:"material" toml:"material"`     // Name of the shared material
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Format:    export.PolicyFbx,
			OutputDir: "export",
			Workers:   runtime.NumCPU(),
			Generator: "meshexport",
			Material:  "Default",
		},
		Watch: WatchConfig{
			DebounceMS: 200,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that would make an export session fail.
func (c *Config) Validate() error {
	var errs []error
	if c.Export.OutputDir == "" {
		errs = append(errs, errors.New("export.output_dir is empty"))
	}
	if c.Export.Workers < 1 {
		errs = append(errs, fmt.Errorf("export.workers must be at least 1, got %d", c.Export.Workers))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS))
	}
	return errors.Join(errs...)
}
