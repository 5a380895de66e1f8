package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scailab/stagekit/engine"
	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/errors"
)

func binomialDef() *engine.Definition {
	return &engine.Definition{
		Version:      engine.ArtifactVersion,
		Category:     engine.Binomial,
		FeatureNames: []string{"x"},
		Domain:       []string{"no", "yes"},
		Weights:      [][]float64{{2}},
		Intercepts:   []float64{-1},
	}
}

func TestOutputSchemaByCategory(t *testing.T) {
	tests := []struct {
		name string
		def  *engine.Definition
		want []string
	}{
		{
			name: "regression is a single double column named value",
			def: &engine.Definition{
				Version: engine.ArtifactVersion, Category: engine.Regression,
				FeatureNames: []string{"x"},
			},
			want: []string{"value"},
		},
		{
			name: "clustering is a single double column named cluster",
			def: &engine.Definition{
				Version: engine.ArtifactVersion, Category: engine.Clustering,
				FeatureNames: []string{"x"},
			},
			want: []string{"cluster"},
		},
		{
			name: "binomial has one column per domain label in domain order",
			def:  binomialDef(),
			want: []string{"no", "yes"},
		},
		{
			name: "multinomial has one column per domain label in domain order",
			def: &engine.Definition{
				Version: engine.ArtifactVersion, Category: engine.Multinomial,
				FeatureNames: []string{"x"}, Domain: []string{"a", "b", "c"},
			},
			want: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := OutputSchema(tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.Names())
			for _, f := range schema {
				assert.Equal(t, frame.Float64Type, f.Type)
			}
		})
	}
}

func TestOutputSchemaUnsupportedCategories(t *testing.T) {
	for _, c := range []engine.ModelCategory{engine.AutoEncoder, engine.DimReduction, engine.WordEmbedding, engine.Unknown} {
		def := &engine.Definition{Version: engine.ArtifactVersion, Category: c, FeatureNames: []string{"x"}}
		_, err := OutputSchema(def)
		require.Error(t, err, "category %s must fail fast", c)

		var unsupported *errors.UnsupportedCategoryError
		assert.ErrorAs(t, err, &unsupported)
	}
}

func TestOutputSchemaRejectsEmptyDomain(t *testing.T) {
	def := &engine.Definition{Version: engine.ArtifactVersion, Category: engine.Binomial, FeatureNames: []string{"x"}}
	_, err := OutputSchema(def)
	assert.Error(t, err)
}

func TestDispatcherPredict(t *testing.T) {
	disp := NewDispatcher(binomialDef())

	probs, err := disp.Predict(Record{"x": "1"})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-12)
}

func TestDispatcherPredictMissingKeyIsZero(t *testing.T) {
	disp := NewDispatcher(binomialDef())

	withZero, err := disp.Predict(Record{"x": "0"})
	require.NoError(t, err)
	missing, err := disp.Predict(Record{})
	require.NoError(t, err)
	assert.Equal(t, withZero, missing)

	// Unparsable values contribute the same 0 sentinel.
	garbage, err := disp.Predict(Record{"x": "red"})
	require.NoError(t, err)
	assert.Equal(t, withZero, garbage)
}

func TestDispatcherPredictUnsupportedCategory(t *testing.T) {
	def := &engine.Definition{Version: engine.ArtifactVersion, Category: engine.AutoEncoder, FeatureNames: []string{"x"}}
	_, err := NewDispatcher(def).Predict(Record{"x": "1"})
	require.Error(t, err)

	var unsupported *errors.UnsupportedCategoryError
	assert.ErrorAs(t, err, &unsupported)
}
