// Package pipeline runs export sessions over MESH files and persists results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshexport/internal/assets"
	"github.com/Faultbox/meshexport/pkg/export"
	"github.com/Faultbox/meshexport/pkg/mesh"
	"github.com/Faultbox/meshexport/pkg/meshfile"
)

// ContainerExtension is the extension of binary container outputs.
const ContainerExtension = ".glb"

// ErrOutputIsInput is returned when an export would overwrite its own input.
var ErrOutputIsInput = errors.New("output path is the input file")

// Runner exports mesh files into an output directory.
type Runner struct {
	Exporter *export.Exporter
	Assets   *assets.Manager
	OutDir   string
	Workers  int
	Log      *zap.Logger
}

// Outcome is the result of exporting one input file.
type Outcome struct {
	Input    string
	Mesh     string
	Decision export.Decision
	Output   string // Written file, empty on failure
	Bytes    int
	Omitted  int
	Err      error
}

// Run exports every path using up to Workers goroutines. A failing asset
// is reported in its Outcome and does not stop the others. Run returns an
// error only when ctx is cancelled or the output directory is unusable.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Outcome, error) {
	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	outcomes := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))

	for i, path := range paths {
		i, path := i, path
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.ExportFile(path)
			return nil
		})
	}

	// gctx is cancelled once Wait returns; only the caller's ctx says
	// whether the run was interrupted.
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

// Plan loads paths and returns the routing decision for each, in order,
// without exporting anything. Load failures are reported per outcome.
func (r *Runner) Plan(paths []string) []Outcome {
	outcomes := make([]Outcome, len(paths))
	var records []*mesh.Record
	var index []int
	for i, path := range paths {
		outcomes[i].Input = path
		rec, err := r.Assets.Load(path)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		records = append(records, rec)
		index = append(index, i)
	}

	for j, entry := range r.Exporter.Plan(records) {
		o := &outcomes[index[j]]
		o.Mesh = entry.Record.Name
		o.Decision = entry.Decision
	}
	return outcomes
}

// ExportFile loads, exports and writes one file. Delegated meshes are
// written with the native serializer; container meshes as .glb.
func (r *Runner) ExportFile(path string) Outcome {
	start := time.Now()
	out := Outcome{Input: path}
	log := r.logger().With(zap.String("input", path))

	rec, err := r.Assets.Load(path)
	if err != nil {
		out.Err = err
		log.Error("load failed", zap.Error(err))
		return out
	}
	out.Mesh = rec.Name

	res, err := r.Exporter.Export(rec)
	if err != nil {
		out.Err = err
		log.Error("export failed", zap.Error(err))
		return out
	}
	out.Decision = res.Decision
	out.Omitted = len(res.Omitted)

	data, ext := res.Data, ContainerExtension
	if res.Delegated() {
		data, err = meshfile.Encode(rec)
		if err != nil {
			out.Err = fmt.Errorf("native export of %q: %w", rec.Name, err)
			log.Error("native export failed", zap.Error(err))
			return out
		}
		ext = meshfile.Extension
	}

	target := filepath.Join(r.OutDir, OutputName(path, ext))
	if samePath(target, path) {
		out.Err = fmt.Errorf("%w: %s", ErrOutputIsInput, path)
		log.Error("refusing to overwrite input", zap.String("output", target))
		return out
	}
	if err := writeFileAtomic(target, data); err != nil {
		out.Err = err
		log.Error("write failed", zap.String("output", target), zap.Error(err))
		return out
	}

	out.Output = target
	out.Bytes = len(data)
	log.Info("exported",
		zap.String("mesh", rec.Name),
		zap.Stringer("decision", res.Decision),
		zap.String("output", target),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// samePath reports whether a and b resolve to the same absolute path.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// OutputName returns the output file name for input with the given extension.
func OutputName(input, ext string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
