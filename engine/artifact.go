package engine

import (
	"encoding/json"

	"github.com/scailab/stagekit/pkg/errors"
)

// ArtifactVersion is the document version emitted by the reference engine.
const ArtifactVersion = "1.0.0"

// Definition is the structured model definition parsed from trained
// artifact bytes: category, ordered input feature names, the response
// domain for classification, and the numeric payload the scoring routines
// consume. A Definition is immutable after ReadArtifact.
type Definition struct {
	Version      string        `json:"version"`
	Category     ModelCategory `json:"category"`
	FeatureNames []string      `json:"feature_names"`

	// Domain is the ordered set of class labels for classification
	// artifacts; empty otherwise.
	Domain []string `json:"domain,omitempty"`

	// Weights holds one coefficient row per output (a single row for
	// binomial and regression, one per class for multinomial).
	Weights [][]float64 `json:"weights,omitempty"`

	// Intercepts holds one bias term per weight row.
	Intercepts []float64 `json:"intercepts,omitempty"`

	// Centroids holds one point per cluster for clustering artifacts.
	Centroids [][]float64 `json:"centroids,omitempty"`
}

// ReadArtifact parses trained artifact bytes into a structured model
// definition. The bytes themselves stay opaque to callers and are never
// re-encoded; persistence stores them verbatim.
func ReadArtifact(raw []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, errors.Wrap(err, "engine: malformed artifact")
	}
	if def.Version == "" {
		return nil, errors.New("engine: artifact carries no version")
	}
	if def.Category == "" {
		def.Category = Unknown
	}
	if len(def.FeatureNames) == 0 {
		return nil, errors.New("engine: artifact declares no feature names")
	}
	return &def, nil
}

// encodeArtifact serializes a definition into artifact bytes. Only engines
// produce artifacts; everything downstream treats them as opaque.
func encodeArtifact(def *Definition) ([]byte, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, errors.Wrap(err, "engine: cannot encode artifact")
	}
	return raw, nil
}
