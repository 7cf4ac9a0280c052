// meshexport converts MESH records into binary glTF containers or native files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshexport/internal/assets"
	"github.com/Faultbox/meshexport/internal/config"
	"github.com/Faultbox/meshexport/internal/logger"
	"github.com/Faultbox/meshexport/internal/pipeline"
	"github.com/Faultbox/meshexport/pkg/export"
	"github.com/Faultbox/meshexport/pkg/glb"
	"github.com/Faultbox/meshexport/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "export", "x":
		os.Exit(cmdExport(args))
	case "plan":
		os.Exit(cmdPlan(args))
	case "inspect":
		os.Exit(cmdInspect(args))
	case "watch":
		os.Exit(cmdWatch(args))
	case "init-config":
		os.Exit(cmdInitConfig(args))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshexport - mesh record exporter

Usage:
  meshexport <command> [options]

Commands:
  export [options] <file.mesh|dir>...   Export records to .glb or native .mesh
  plan [options] <file.mesh|dir>...     Show the export path for each record
  inspect <file.glb>                    Show container header and chunks
  watch [options] <dir>...              Re-export records when they change
  init-config [options] [path]          Write the effective config as YAML

Options:
  -config <path>   Config file (.yaml or .toml)
  -format <name>   Export policy: native, glb or fbx
  -out <dir>       Output directory
  -workers <n>     Assets exported in parallel
  -debug           Enable debug logging

Examples:
  meshexport export -format fbx -out build/models assets/
  meshexport plan -format fbx assets/
  meshexport inspect build/models/cube.glb`)
}

// setup parses flags, loads config, initializes logging and builds a runner.
func setup(name string, args []string) (*config.Config, *pipeline.Runner, []string, bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, nil, false
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, nil, false
	}

	exporter := export.New(cfg.Export.Format,
		export.WithLogger(logger.Log.Named("export")),
		export.WithMaterial(&scene.Material{Name: cfg.Export.Material}),
		export.WithGenerator(cfg.Export.Generator),
	)

	runner := &pipeline.Runner{
		Exporter: exporter,
		Assets:   assets.NewManager(),
		OutDir:   cfg.Export.OutputDir,
		Workers:  cfg.Export.Workers,
		Log:      logger.Log.Named("pipeline"),
	}
	return cfg, runner, fs.Args(), true
}

func cmdExport(args []string) int {
	cfg, runner, inputs, ok := setup("export", args)
	if !ok {
		return 1
	}
	defer logger.Sync()

	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: meshexport export [options] <file.mesh|dir>...")
		return 1
	}

	paths, err := runner.Assets.Resolve(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	outcomes, err := runner.Run(ctx, paths)
	if err != nil {
		logger.Error("export interrupted", zap.Error(err))
		return 1
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL  %s: %v\n", o.Input, o.Err)
			continue
		}
		fmt.Printf("%-9s %s -> %s (%d bytes)\n", o.Decision, o.Input, o.Output, o.Bytes)
	}

	logger.Info("export finished",
		zap.Stringer("policy", cfg.Export.Format),
		zap.Int("assets", len(outcomes)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))

	if failed > 0 {
		return 1
	}
	return 0
}

func cmdPlan(args []string) int {
	cfg, runner, inputs, ok := setup("plan", args)
	if !ok {
		return 1
	}
	defer logger.Sync()

	paths, err := runner.Assets.Resolve(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	counts := make(map[export.Decision]int)
	for _, o := range runner.Plan(paths) {
		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "FAIL  %s: %v\n", o.Input, o.Err)
			continue
		}
		counts[o.Decision]++
		fmt.Printf("%-9s %-24s %s\n", o.Decision, o.Mesh, o.Input)
	}

	fmt.Fprintf(os.Stderr, "\npolicy %s: %d container, %d native\n",
		cfg.Export.Format, counts[export.UseBinaryContainer], counts[export.UseNative])
	return 0
}

func cmdInspect(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshexport inspect <file.glb>")
		return 1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	c, err := glb.Inspect(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("File:    %s\n", args[0])
	fmt.Printf("Version: %d\n", c.Version)
	fmt.Printf("Length:  %d bytes\n", c.Length)
	fmt.Printf("Chunks:  %d\n", len(c.Chunks))
	for i, ch := range c.Chunks {
		fmt.Printf("  [%d] %-4s %d bytes\n", i, ch.TypeName(), len(ch.Data))
	}
	return 0
}

func cmdWatch(args []string) int {
	cfg, runner, dirs, ok := setup("watch", args)
	if !ok {
		return 1
	}
	defer logger.Sync()

	if len(dirs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: meshexport watch [options] <dir>...")
		return 1
	}
	if err := os.MkdirAll(runner.OutDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	w, err := runner.NewWatcher(dirs, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	w.OnExport = func(o pipeline.Outcome) {
		if o.Err != nil {
			logger.Sugar.Warnf("re-export of %s failed: %v", o.Input, o.Err)
			return
		}
		fmt.Printf("%-9s %s -> %s (%d bytes)\n", o.Decision, o.Input, o.Output, o.Bytes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("watching", zap.Strings("dirs", dirs), zap.String("out", runner.OutDir))
	if err := w.Run(ctx); err != nil {
		logger.Error("watch stopped", zap.Error(err))
		return 1
	}
	return 0
}

func cmdInitConfig(args []string) int {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if fs.NArg() > 0 {
		path = fs.Arg(0)
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s\n", path)
	return 0
}
