package stage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scailab/stagekit/engine"
	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/errors"
)

// captureEngine records the TrainSpec it receives and returns canned
// artifact bytes.
type captureEngine struct {
	spec engine.TrainSpec
	raw  []byte
	err  error
}

func (e *captureEngine) Train(_ context.Context, spec engine.TrainSpec) ([]byte, error) {
	e.spec = spec
	if e.err != nil {
		return nil, e.err
	}
	return e.raw, nil
}

func regressionArtifact(t *testing.T, features []string) []byte {
	t.Helper()
	weights := make([]float64, len(features))
	raw, err := json.Marshal(&engine.Definition{
		Version:      engine.ArtifactVersion,
		Category:     engine.Regression,
		FeatureNames: features,
		Weights:      [][]float64{weights},
		Intercepts:   []float64{0},
	})
	require.NoError(t, err)
	return raw
}

func trainFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	schema := frame.Schema{
		{Name: "x", Type: frame.Float64Type},
		{Name: "color", Type: frame.StringType},
		{Name: "y", Type: frame.Float64Type},
	}
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		rows[i] = []any{float64(i), "red", float64(2 * i)}
	}
	f, err := frame.New(schema, rows)
	require.NoError(t, err)
	return f
}

func setupContext(t *testing.T, eng engine.TrainingEngine) *frame.MemStore {
	t.Helper()
	store := frame.NewMemStore()
	engine.SetContext(&engine.ExecutionContext{Store: store, Engine: eng})
	t.Cleanup(func() { engine.SetContext(nil) })
	return store
}

func TestFitDefaultsFeatureColumnsOnce(t *testing.T) {
	eng := &captureEngine{raw: regressionArtifact(t, []string{"x", "color"})}
	setupContext(t, eng)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetPredictionCol("y"))

	model, err := tr.Fit(context.Background(), trainFrame(t, 10))
	require.NoError(t, err)

	// Defaulted to the dataset's full column set, response included.
	assert.Equal(t, []string{"x", "color", "y"}, tr.Params().FeatureCols())
	assert.Equal(t, []string{"x", "color", "y"}, eng.spec.FeatureColumns)
	assert.Equal(t, "y", eng.spec.ResponseColumn)

	// Best-effort annotation propagated onto the fitted model.
	assert.Equal(t, []string{"x", "color", "y"}, model.Params().FeatureCols())
	assert.Equal(t, "y", model.Params().PredictionCol())
}

func TestFitWithoutSplitUsesWholeFrame(t *testing.T) {
	eng := &captureEngine{raw: regressionArtifact(t, []string{"x"})}
	store := setupContext(t, eng)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetFeatureCols([]string{"x"}))
	require.NoError(t, tr.Params().SetPredictionCol("y"))

	_, err := tr.Fit(context.Background(), trainFrame(t, 10))
	require.NoError(t, err)

	assert.Empty(t, eng.spec.ValidKey, "ratio 1.0 must not produce a validation partition")

	train, err := store.Get(eng.spec.TrainKey)
	require.NoError(t, err)
	assert.Equal(t, 10, train.NumRows())
	assert.Equal(t, []string{"x", "y"}, train.Schema.Names())
}

func TestFitSplitsBelowFullRatio(t *testing.T) {
	eng := &captureEngine{raw: regressionArtifact(t, []string{"x"})}
	store := setupContext(t, eng)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetFeatureCols([]string{"x"}))
	require.NoError(t, tr.Params().SetPredictionCol("y"))
	require.NoError(t, tr.Params().SetSplitRatio(0.8))

	_, err := tr.Fit(context.Background(), trainFrame(t, 10))
	require.NoError(t, err)

	require.NotEmpty(t, eng.spec.ValidKey)
	train, err := store.Get(eng.spec.TrainKey)
	require.NoError(t, err)
	valid, err := store.Get(eng.spec.ValidKey)
	require.NoError(t, err)
	assert.Equal(t, 8, train.NumRows())
	assert.Equal(t, 2, valid.NumRows())
}

func TestFitCoercesStringColumnsToCategorical(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(w error) {})

	eng := &captureEngine{raw: regressionArtifact(t, []string{"x", "color"})}
	store := setupContext(t, eng)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetFeatureCols([]string{"x", "color"}))
	require.NoError(t, tr.Params().SetPredictionCol("y"))

	_, err := tr.Fit(context.Background(), trainFrame(t, 5))
	require.NoError(t, err)

	// The mutation must be visible through the store, not just locally.
	train, err := store.Get(eng.spec.TrainKey)
	require.NoError(t, err)
	colorIdx := train.Schema.FieldIndex("color")
	require.GreaterOrEqual(t, colorIdx, 0)
	assert.True(t, train.Schema[colorIdx].Categorical)
}

func TestFitSurfacesEngineErrorsVerbatim(t *testing.T) {
	sentinel := errors.New("training backend exploded")
	eng := &captureEngine{err: sentinel}
	setupContext(t, eng)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetFeatureCols([]string{"x"}))
	require.NoError(t, tr.Params().SetPredictionCol("y"))

	_, err := tr.Fit(context.Background(), trainFrame(t, 5))
	assert.ErrorIs(t, err, sentinel)
}

func TestFitFailsWithoutExecutionContext(t *testing.T) {
	engine.SetContext(nil)

	tr := NewTrainer(NewParams())
	_, err := tr.Fit(context.Background(), trainFrame(t, 5))
	assert.ErrorIs(t, err, errors.ErrNoContext)
}

func TestFitRejectsUnknownProjectionColumn(t *testing.T) {
	eng := &captureEngine{raw: regressionArtifact(t, []string{"x"})}
	setupContext(t, eng)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetFeatureCols([]string{"x"}))
	// Default prediction column "prediction" is absent from the frame.
	_, err := tr.Fit(context.Background(), trainFrame(t, 5))
	assert.Error(t, err)
}

func TestFitEndToEndWithGLMEngine(t *testing.T) {
	store := frame.NewMemStore()
	engine.SetContext(&engine.ExecutionContext{Store: store, Engine: engine.NewGLMEngine(store)})
	t.Cleanup(func() { engine.SetContext(nil) })

	schema := frame.Schema{
		{Name: "x", Type: frame.Float64Type},
		{Name: "y", Type: frame.Float64Type},
	}
	rows := make([][]any, 20)
	for i := range rows {
		x := float64(i)
		rows[i] = []any{x, 3*x - 2}
	}
	ds, err := frame.New(schema, rows)
	require.NoError(t, err)

	tr := NewTrainer(NewParams())
	require.NoError(t, tr.Params().SetFeatureCols([]string{"x"}))
	require.NoError(t, tr.Params().SetPredictionCol("y"))
	require.NoError(t, tr.Params().SetSplitRatio(0.8))

	model, err := tr.Fit(context.Background(), ds)
	require.NoError(t, err)

	out, err := model.Transform(ds)
	require.NoError(t, err)
	require.Equal(t, 20, out.NumRows())
	assert.Equal(t, []string{"value"}, out.Schema.Names())
	// The trainer held out 20% of the rows, but the relation is exactly
	// linear so the fit recovers it regardless.
	assert.InDelta(t, 3*7.0-2, out.Rows[7][0].(float64), 1e-6)
}
