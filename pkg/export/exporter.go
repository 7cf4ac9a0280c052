package export

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshexport/pkg/glb"
	"github.com/Faultbox/meshexport/pkg/mesh"
	"github.com/Faultbox/meshexport/pkg/scene"
)

// Export failures, re-exported for callers that only import this package.
var (
	ErrMeshHasNoGeometry    = scene.ErrMeshHasNoGeometry
	ErrEmptyContainerOutput = glb.ErrEmptyContainerOutput
)

// Exporter routes meshes under a fixed policy. It holds no mutable state
// and is safe for concurrent use.
type Exporter struct {
	policy    Policy
	material  *scene.Material
	generator string
	log       *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for routing and omission messages.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMaterial sets the material shared by every exported primitive.
// The material must not be modified while exports are running.
func WithMaterial(m *scene.Material) Option {
	return func(e *Exporter) {
		if m != nil {
			e.material = m
		}
	}
}

// WithGenerator sets the container's asset.generator string.
func WithGenerator(name string) Option {
	return func(e *Exporter) {
		e.generator = name
	}
}

// New creates an Exporter for policy.
func New(policy Policy, opts ...Option) *Exporter {
	e := &Exporter{
		policy:   policy,
		material: scene.DefaultMaterial,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the exporter's policy.
func (e *Exporter) Policy() Policy {
	return e.policy
}

// Result is the outcome of a successful export call.
type Result struct {
	Name     string
	Decision Decision
	Skin     SkinClass

	// Data holds the container bytes when Decision is UseBinaryContainer.
	// It is nil for delegated meshes.
	Data []byte

	// Omitted lists submeshes that produced no geometry.
	Omitted []scene.Omission
}

// Delegated reports whether the caller must use the native serializer.
func (r *Result) Delegated() bool {
	return r.Decision == UseNative
}

// Route returns the decision for rec under the exporter's policy.
func (e *Exporter) Route(rec *mesh.Record) Decision {
	return RouteMesh(rec, e.policy)
}

// Export routes rec and, on the container path, builds and serializes its
// scene. Delegation is reported in the result, not as an error. On failure
// no bytes are returned.
func (e *Exporter) Export(rec *mesh.Record) (*Result, error) {
	class := ClassifySkin(rec)
	res := &Result{
		Name:     rec.Name,
		Skin:     class,
		Decision: Route(e.policy, class == SkinEffective),
	}

	log := e.log.With(zap.String("mesh", rec.Name), zap.Stringer("policy", e.policy))
	if class == SkinUnreadable {
		log.Warn("skin stream unreadable, treating mesh as unskinned")
	}
	log.Debug("routed mesh", zap.Stringer("decision", res.Decision), zap.Stringer("skin", class))

	if res.Delegated() {
		return res, nil
	}

	graph, omitted, err := scene.Build(rec, e.material)
	res.Omitted = omitted
	for _, o := range omitted {
		log.Debug("submesh omitted", zap.Int("submesh", o.Submesh), zap.Error(o.Err))
	}
	if err != nil {
		log.Warn("export failed", zap.Error(err))
		return nil, fmt.Errorf("exporting %q: %w", rec.Name, err)
	}

	data, err := glb.Serialize(graph, glb.Options{Generator: e.generator})
	if err != nil {
		log.Warn("export failed", zap.Error(err))
		return nil, fmt.Errorf("exporting %q: %w", rec.Name, err)
	}

	res.Data = data
	log.Debug("exported container",
		zap.Int("bytes", len(data)),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("omitted", len(omitted)))
	return res, nil
}

// PlanEntry is the registration-time classification of one record.
type PlanEntry struct {
	Record   *mesh.Record
	Decision Decision
}

// Plan classifies records into export collections before any export runs.
// It uses the same routing as Export, so an unmodified record is exported
// the way it was planned.
func (e *Exporter) Plan(records []*mesh.Record) []PlanEntry {
	entries := make([]PlanEntry, len(records))
	for i, rec := range records {
		entries[i] = PlanEntry{Record: rec, Decision: e.Route(rec)}
	}
	return entries
}

// Collections groups planned records by decision, keeping input order.
func Collections(entries []PlanEntry) map[Decision][]*mesh.Record {
	out := make(map[Decision][]*mesh.Record)
	for _, en := range entries {
		out[en.Decision] = append(out[en.Decision], en.Record)
	}
	return out
}
