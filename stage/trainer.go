package stage

import (
	"context"
	"log/slog"
	"time"

	"github.com/scailab/stagekit/engine"
	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/log"
)

// Trainer is the algorithm stage: it configures a fitting run, partitions
// the input, delegates to the Training Engine and wraps the resulting
// artifact in a scoring stage.
type Trainer struct {
	uid    string
	params *Params
	ec     *engine.ExecutionContext
}

// NewTrainer creates a trainer stage. The execution context is resolved at
// fit time via engine.Ensure.
func NewTrainer(params *Params) *Trainer {
	if params == nil {
		params = NewParams()
	}
	return &Trainer{uid: newUID("trainer"), params: params}
}

// newTrainerFromState reconstructs a trainer from persisted state: the
// decoded configuration blob, the persisted UID and an ensured execution
// context.
func newTrainerFromState(params *Params, uid string, ec *engine.ExecutionContext) *Trainer {
	return &Trainer{uid: uid, params: params, ec: ec}
}

// UID returns the stage instance identifier.
func (t *Trainer) UID() string {
	return t.uid
}

// ClassName returns the persisted class identity.
func (t *Trainer) ClassName() string {
	return trainerClassName
}

// Params returns the mutable algorithm configuration. Configure it before
// calling Fit.
func (t *Trainer) Params() *Params {
	return t.params
}

// GetParams implements the generic parameter surface.
func (t *Trainer) GetParams() map[string]any {
	return t.params.GetParams()
}

// SetParams implements the generic parameter surface.
func (t *Trainer) SetParams(params map[string]any) error {
	return t.params.SetParams(params)
}

// Fit trains against the dataset and returns a fitted scoring stage. It
// blocks until the split and the training run both complete.
//
// When no feature columns are configured they default, once, to the
// dataset's full current column set. The feature and prediction columns
// are projected into a new frame; at a split ratio below 1.0 the frame is
// partitioned into train and validation subsets, otherwise the whole frame
// is the training partition. String columns of the training partition are
// coerced to categorical and the mutated frame is re-published to the
// store before the engine reads it. Engine failures are surfaced verbatim.
func (t *Trainer) Fit(ctx context.Context, ds *frame.Frame) (*Model, error) {
	ec := t.ec
	if ec == nil {
		var err error
		if ec, err = engine.Ensure(); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	// One-time defaulting, not a steady invariant: the list stays bound to
	// this dataset's columns for the lifetime of the configuration.
	if len(t.params.FeatureCols()) == 0 {
		if err := t.params.SetFeatureCols(ds.Schema.Names()); err != nil {
			return nil, err
		}
	}
	featureCols := t.params.FeatureCols()
	responseCol := t.params.PredictionCol()

	projected, err := ds.Select(projectionColumns(featureCols, responseCol))
	if err != nil {
		return nil, err
	}

	var trainPart frame.Partition
	var validKey string
	if ratio := t.params.SplitRatio(); ratio < 1.0 {
		parts, err := frame.Split(projected, ratio, ec.Store)
		if err != nil {
			return nil, err
		}
		trainPart = parts[0]
		// The splitter may legitimately yield a single partition.
		if len(parts) > 1 {
			validKey = parts[1].Key
		}
	} else {
		trainPart = frame.Partition{Key: newUID("train"), Frame: projected}
	}

	// Categorical coercion mutates the partition's schema; the re-put makes
	// the mutation durably visible to the engine.
	trainPart.Frame.AsCategorical()
	if err := ec.Store.Put(trainPart.Key, trainPart.Frame); err != nil {
		return nil, err
	}

	slog.Debug("training partition published",
		slog.String(log.StageNameKey, "Trainer"),
		slog.String(log.UIDKey, t.uid),
		slog.String(log.OperationKey, "fit"),
		slog.String(log.FrameKeyKey, trainPart.Key),
		slog.Float64(log.RatioKey, t.params.SplitRatio()),
		slog.Int(log.RowsKey, trainPart.Frame.NumRows()),
	)

	spec := engine.TrainSpec{
		TrainKey:       trainPart.Key,
		ValidKey:       validKey,
		ResponseColumn: responseCol,
		FeatureColumns: featureCols,
	}

	raw, err := ec.Engine.Train(ctx, spec)
	if err != nil {
		return nil, err
	}

	def, err := engine.ReadArtifact(raw)
	if err != nil {
		return nil, err
	}

	model := NewModel(def, raw)
	// Best-effort metadata annotation; scoring works without it.
	_ = model.params.SetFeatureCols(featureCols)
	_ = model.params.SetPredictionCol(responseCol)

	slog.Info("fit complete",
		slog.String(log.StageNameKey, "Trainer"),
		slog.String(log.UIDKey, t.uid),
		slog.String(log.OperationKey, "fit"),
		slog.String(log.CategoryKey, string(def.Category)),
		slog.Int64(log.DurationMsKey, time.Since(start).Milliseconds()),
	)
	return model, nil
}

// projectionColumns is the feature columns plus the prediction column,
// deduplicated while preserving order.
func projectionColumns(featureCols []string, predictionCol string) []string {
	cols := make([]string, 0, len(featureCols)+1)
	seen := make(map[string]bool, len(featureCols)+1)
	for _, c := range featureCols {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	if !seen[predictionCol] {
		cols = append(cols, predictionCol)
	}
	return cols
}
