package stage

import (
	"strconv"

	"github.com/scailab/stagekit/engine"
	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/errors"
)

// Dispatcher routes prediction and output-schema derivation by the
// artifact's model category. It is cheap to construct; scoring workers
// create a fresh one per unit of work so no prediction state is shared
// across goroutines.
type Dispatcher struct {
	def    *engine.Definition
	scorer *engine.Scorer
}

// NewDispatcher creates a dispatcher for a parsed model definition.
func NewDispatcher(def *engine.Definition) *Dispatcher {
	return &Dispatcher{def: def, scorer: def.NewScorer()}
}

// Predict scores one feature record. The record is read through the
// artifact's ordered feature names; keys that are missing or do not parse
// as numbers contribute the 0 sentinel, matching the coercion matrix.
func (d *Dispatcher) Predict(rec Record) ([]float64, error) {
	features := make([]float64, len(d.def.FeatureNames))
	for i, name := range d.def.FeatureNames {
		if raw, ok := rec[name]; ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				features[i] = v
			}
		}
	}
	return d.scorer.Score(features)
}

// OutputSchema derives the scored-output schema for a model definition.
// The shape depends only on the category and response domain, so callers
// cache the result once per model load rather than re-deriving per row.
func OutputSchema(def *engine.Definition) (frame.Schema, error) {
	switch def.Category {
	case engine.Binomial, engine.Multinomial:
		if len(def.Domain) == 0 {
			return nil, errors.Newf("stage: %s artifact has an empty response domain", def.Category)
		}
		schema := make(frame.Schema, len(def.Domain))
		for i, label := range def.Domain {
			schema[i] = frame.Field{Name: label, Type: frame.Float64Type}
		}
		return schema, nil
	case engine.Regression:
		return frame.Schema{{Name: "value", Type: frame.Float64Type}}, nil
	case engine.Clustering:
		return frame.Schema{{Name: "cluster", Type: frame.Float64Type}}, nil
	default:
		return nil, errors.NewUnsupportedCategoryError("stage.OutputSchema", string(def.Category))
	}
}
