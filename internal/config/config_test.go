package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshexport/pkg/export"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Export.Format != export.PolicyFbx {
		t.Errorf("expected format fbx, got %s", cfg.Export.Format)
	}
	if cfg.Export.OutputDir != "export" {
		t.Errorf("expected output dir 'export', got %s", cfg.Export.OutputDir)
	}
	if cfg.Export.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Export.Workers)
	}
	if cfg.Export.Material != "Default" {
		t.Errorf("expected material 'Default', got %s", cfg.Export.Material)
	}
	if cfg.Watch.DebounceMS != 200 {
		t.Errorf("expected debounce 200ms, got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "meshexport.yaml")

	yamlContent := `
export:
  format: glb
  output_dir: "out/models"
  workers: 3
  generator: "pipeline"

watch:
  debounce_ms: 50

logging:
  level: "debug"
  log_file: "export.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.Format != export.PolicyGlb {
		t.Errorf("expected format glb, got %s", cfg.Export.Format)
	}
	if cfg.Export.OutputDir != "out/models" {
		t.Errorf("expected output dir out/models, got %s", cfg.Export.OutputDir)
	}
	if cfg.Export.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Export.Workers)
	}
	if cfg.Export.Generator != "pipeline" {
		t.Errorf("expected generator pipeline, got %s", cfg.Export.Generator)
	}
	if cfg.Export.Material != "Default" {
		t.Errorf("unset material should keep default, got %s", cfg.Export.Material)
	}
	if cfg.Watch.DebounceMS != 50 {
		t.Errorf("expected debounce 50, got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Logging.LogFile != "export.log" {
		t.Errorf("expected log file 'export.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "meshexport.toml")

	tomlContent := `
[export]
format = "native"
workers = 2

[logging]
level = "warn"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.Format != export.PolicyNative {
		t.Errorf("expected format native, got %s", cfg.Export.Format)
	}
	if cfg.Export.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Export.Workers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Export.OutputDir != "export" {
		t.Errorf("unset output dir should keep default, got %s", cfg.Export.OutputDir)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", "bad.yaml", "export:\n  workers: not a number\n  invalid syntax here\n"},
		{"unknown format", "format.yaml", "export:\n  format: obj\n"},
		{"bad toml", "bad.toml", "[export\nworkers = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "meshexport.toml"), []byte("[export]\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./meshexport.toml" {
		t.Errorf("expected ./meshexport.toml, got %q", path)
	}
}

func TestLoadWithFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("export:\n  format: glb\n  output_dir: from-file\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "file only",
			args: []string{"-config", configPath},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Format != export.PolicyGlb || cfg.Export.OutputDir != "from-file" {
					t.Errorf("got %s/%s", cfg.Export.Format, cfg.Export.OutputDir)
				}
			},
		},
		{
			name: "flags override file",
			args: []string{"-config", configPath, "-format", "fbx", "-out", "from-flag", "-workers", "7", "-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Format != export.PolicyFbx {
					t.Errorf("expected fbx, got %s", cfg.Export.Format)
				}
				if cfg.Export.OutputDir != "from-flag" {
					t.Errorf("expected from-flag, got %s", cfg.Export.OutputDir)
				}
				if cfg.Export.Workers != 7 {
					t.Errorf("expected 7 workers, got %d", cfg.Export.Workers)
				}
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected debug level, got %s", cfg.Logging.Level)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			cfg, err := Load(f)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestLoadBadFormatFlag(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: info\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(&Flags{Config: configPath, Format: "stl"}); err == nil {
		t.Error("expected error for unknown format flag")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Export.OutputDir = ""
	cfg.Export.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Export.Format = export.PolicyNative
	cfg.Export.OutputDir = "saved"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Export.Format != export.PolicyNative || loaded.Export.OutputDir != "saved" {
		t.Errorf("reloaded %s/%s", loaded.Export.Format, loaded.Export.OutputDir)
	}
}
