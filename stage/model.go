package stage

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scailab/stagekit/core/parallel"
	"github.com/scailab/stagekit/engine"
	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/errors"
	"github.com/scailab/stagekit/pkg/log"
)

// parallelRowThreshold is the row count above which scoring fans out across
// workers.
const parallelRowThreshold = 1000

// Model is the scoring stage: it owns an immutable trained artifact and
// converts arbitrary tabular rows into scored output rows. The artifact
// bytes are never mutated after construction.
type Model struct {
	uid    string
	def    *engine.Definition
	raw    []byte
	params *Params

	schemaOnce sync.Once
	outSchema  frame.Schema
	outErr     error
}

// NewModel wraps a parsed definition and its raw artifact bytes in a
// scoring stage. The bytes are copied so later caller mutations cannot
// reach the stage.
func NewModel(def *engine.Definition, raw []byte) *Model {
	return newModelWithUID(def, raw, newUID("model"))
}

func newModelWithUID(def *engine.Definition, raw []byte, uid string) *Model {
	return &Model{
		uid:    uid,
		def:    def,
		raw:    append([]byte(nil), raw...),
		params: NewParams(),
	}
}

func newUID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// UID returns the stage instance identifier.
func (m *Model) UID() string {
	return m.uid
}

// ClassName returns the persisted class identity.
func (m *Model) ClassName() string {
	return modelClassName
}

// Definition returns the parsed model definition.
func (m *Model) Definition() *engine.Definition {
	return m.def
}

// ArtifactBytes returns a copy of the raw trained artifact.
func (m *Model) ArtifactBytes() []byte {
	return append([]byte(nil), m.raw...)
}

// Params returns the stage's configuration (feature columns and prediction
// column annotations propagated from the trainer).
func (m *Model) Params() *Params {
	return m.params
}

// GetParams implements the generic parameter surface.
func (m *Model) GetParams() map[string]any {
	return m.params.GetParams()
}

// SetParams implements the generic parameter surface.
func (m *Model) SetParams(params map[string]any) error {
	return m.params.SetParams(params)
}

// TransformSchema declares the scored-output schema without materializing
// any data. It is callable before Transform, derives the schema once per
// model load, and returns an identical schema on every call.
func (m *Model) TransformSchema() (frame.Schema, error) {
	if m.def == nil {
		return nil, errors.NewNotFittedError("Model", "TransformSchema")
	}
	m.schemaOnce.Do(func() {
		m.outSchema, m.outErr = OutputSchema(m.def)
	})
	return m.outSchema, m.outErr
}

// Transform scores every row of the input and returns a frame with the
// schema declared by TransformSchema. Struct columns are flattened into
// dotted leaf columns first; each row is then coerced into a feature record
// and predicted independently, so rows are scored in parallel with a fresh
// dispatcher per worker chunk. Output row order matches input row order.
func (m *Model) Transform(ds *frame.Frame) (*frame.Frame, error) {
	if m.def == nil {
		return nil, errors.NewNotFittedError("Model", "Transform")
	}

	outSchema, err := m.TransformSchema()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	flat := ds.Flatten()
	featureSet := m.featureSet()

	n := flat.NumRows()
	rows := make([][]any, n)

	var mu sync.Mutex
	var firstErr error

	parallel.ParallelizeWithThreshold(n, parallelRowThreshold, func(chunkStart, chunkEnd int) {
		disp := NewDispatcher(m.def)
		for i := chunkStart; i < chunkEnd; i++ {
			rec := CoerceRow(flat.Schema, flat.Rows[i], featureSet)
			preds, err := disp.Predict(rec)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			out := make([]any, len(preds))
			for j, v := range preds {
				out[j] = v
			}
			rows[i] = out
		}
	})

	if firstErr != nil {
		return nil, firstErr
	}

	slog.Debug("transform complete",
		slog.String(log.StageNameKey, "Model"),
		slog.String(log.UIDKey, m.uid),
		slog.String(log.OperationKey, "transform"),
		slog.String(log.CategoryKey, string(m.def.Category)),
		slog.Int(log.RowsKey, n),
		slog.Int64(log.DurationMsKey, time.Since(start).Milliseconds()),
	)
	return &frame.Frame{Schema: outSchema, Rows: rows}, nil
}

// featureSet returns the membership test for the coercion matrix: the
// configured feature columns when present, nil when the configuration is
// empty so that every input column is treated as a feature.
func (m *Model) featureSet() map[string]struct{} {
	cols := m.params.FeatureCols()
	if len(cols) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	return set
}
