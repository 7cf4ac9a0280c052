package config

import (
	"flag"

	"github.com/Faultbox/meshexport/pkg/export"
)

// Flags holds command-line overrides. Zero values leave the config unchanged.
type Flags struct {
	Config  string
	Debug   bool
	Format  string
	Out     string
	Workers int
}

// RegisterFlags binds the common flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Format, "format", "", "Export policy: native, glb or fbx")
	fs.StringVar(&f.Out, "out", "", "Output directory")
	fs.IntVar(&f.Workers, "workers", 0, "Assets exported in parallel")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Format != "" {
		p, err := export.ParsePolicy(f.Format)
		if err != nil {
			return err
		}
		cfg.Export.Format = p
	}
	if f.Out != "" {
		cfg.Export.OutputDir = f.Out
	}
	if f.Workers > 0 {
		cfg.Export.Workers = f.Workers
	}
	return nil
}
