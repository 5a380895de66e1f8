// Package stage implements the two pipeline-stage roles built around a
// trained model artifact: the Trainer, which configures and delegates a
// fitting run, and the Model, which scores arbitrary tabular rows against
// an immutable artifact. The package also owns the feature coercion matrix,
// the category dispatcher and the persistence codec.
package stage

import (
	"bytes"
	"encoding/gob"

	"github.com/scailab/stagekit/pkg/errors"
)

// Defaults for the algorithm configuration.
const (
	DefaultSplitRatio    = 1.0
	DefaultPredictionCol = "prediction"
)

// Generic parameter-map keys, shared by GetParams/SetParams and the
// persisted metadata.
const (
	paramSplitRatio    = "split_ratio"
	paramPredictionCol = "prediction_col"
	paramFeatureCols   = "feature_cols"
)

// Params is the algorithm configuration of a stage: the train/validation
// split ratio, the prediction (response) column name, and the feature
// column list. The zero split ratio of 1.0 means the whole input trains;
// nil feature columns mean "all input columns", resolved once at fit time.
// All mutation goes through validating setters.
type Params struct {
	splitRatio    float64
	predictionCol string
	featureCols   []string
}

// NewParams creates a configuration with defaults.
func NewParams() *Params {
	return &Params{
		splitRatio:    DefaultSplitRatio,
		predictionCol: DefaultPredictionCol,
	}
}

// SplitRatio returns the configured train/validation ratio.
func (p *Params) SplitRatio() float64 {
	return p.splitRatio
}

// SetSplitRatio sets the train/validation ratio. 1.0 disables validation.
func (p *Params) SetSplitRatio(r float64) error {
	if r <= 0 || r > 1 {
		return errors.NewValidationError(paramSplitRatio, "must be in (0, 1]", r)
	}
	p.splitRatio = r
	return nil
}

// PredictionCol returns the configured prediction column name.
func (p *Params) PredictionCol() string {
	return p.predictionCol
}

// SetPredictionCol sets the prediction column name.
func (p *Params) SetPredictionCol(name string) error {
	if name == "" {
		return errors.NewValidationError(paramPredictionCol, "must not be empty", name)
	}
	p.predictionCol = name
	return nil
}

// FeatureCols returns the configured feature columns. Nil means "all input
// columns".
func (p *Params) FeatureCols() []string {
	return p.featureCols
}

// SetFeatureCols sets the feature columns. An explicitly empty list fails
// fast: there is no meaningful fit over zero features, and silently falling
// back to "all columns" would mask the caller's mistake.
func (p *Params) SetFeatureCols(cols []string) error {
	if len(cols) == 0 {
		return errors.NewValidationError(paramFeatureCols, "must not be set to an empty list", cols)
	}
	p.featureCols = cols
	return nil
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	out := &Params{
		splitRatio:    p.splitRatio,
		predictionCol: p.predictionCol,
	}
	if p.featureCols != nil {
		out.featureCols = append([]string(nil), p.featureCols...)
	}
	return out
}

// GetParams returns the generic parameter map persisted in stage metadata.
func (p *Params) GetParams() map[string]any {
	m := map[string]any{
		paramSplitRatio:    p.splitRatio,
		paramPredictionCol: p.predictionCol,
	}
	if p.featureCols != nil {
		m[paramFeatureCols] = append([]string(nil), p.featureCols...)
	}
	return m
}

// SetParams re-applies a generic parameter map onto the configuration,
// running the same validation as the typed setters. Unknown keys fail.
func (p *Params) SetParams(m map[string]any) error {
	for key, val := range m {
		switch key {
		case paramSplitRatio:
			r, ok := toFloat(val)
			if !ok {
				return errors.NewValidationError(key, "must be a float", val)
			}
			if err := p.SetSplitRatio(r); err != nil {
				return err
			}
		case paramPredictionCol:
			s, ok := val.(string)
			if !ok {
				return errors.NewValidationError(key, "must be a string", val)
			}
			if err := p.SetPredictionCol(s); err != nil {
				return err
			}
		case paramFeatureCols:
			cols, ok := toStrings(val)
			if !ok {
				return errors.NewValidationError(key, "must be a string list", val)
			}
			if err := p.SetFeatureCols(cols); err != nil {
				return err
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", val)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

// toStrings accepts []string directly and []any as produced by JSON
// metadata decoding.
func toStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, len(x))
		for i, el := range x {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// paramsState is the gob wire form of Params; the blob is opaque to
// everything but this codec.
type paramsState struct {
	SplitRatio    float64
	PredictionCol string
	FeatureCols   []string
}

// GobEncode implements gob.GobEncoder.
func (p *Params) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := paramsState{
		SplitRatio:    p.splitRatio,
		PredictionCol: p.predictionCol,
		FeatureCols:   p.featureCols,
	}
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, errors.Wrap(err, "stage: cannot encode params")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (p *Params) GobDecode(raw []byte) error {
	var state paramsState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return errors.Wrap(err, "stage: cannot decode params")
	}
	p.splitRatio = state.SplitRatio
	p.predictionCol = state.PredictionCol
	p.featureCols = state.FeatureCols
	return nil
}
