package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/scailab/stagekit/core/parallel"
	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/errors"
)

// GLMEngine is the reference Training Engine: a generalized linear model
// fitted by normal equations over the training partition. It exists so fit
// and transform can be exercised end to end without an external runtime;
// production deployments plug their own TrainingEngine into the context.
type GLMEngine struct {
	store     frame.Store
	objective ModelCategory
}

// NewGLMEngine creates a regression-objective engine reading frames from
// the given store.
func NewGLMEngine(store frame.Store) *GLMEngine {
	return &GLMEngine{store: store, objective: Regression}
}

// SetObjective switches the fitting objective. Only regression and
// binomial are implemented.
func (g *GLMEngine) SetObjective(c ModelCategory) error {
	if c != Regression && c != Binomial {
		return errors.NewUnsupportedCategoryError("GLMEngine.SetObjective", string(c))
	}
	g.objective = c
	return nil
}

// Train implements TrainingEngine. The training partition is read from the
// store under spec.TrainKey; the validation partition, when present, is
// ignored by this engine.
func (g *GLMEngine) Train(ctx context.Context, spec TrainSpec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	train, err := g.store.Get(spec.TrainKey)
	if err != nil {
		return nil, err
	}
	if train.NumRows() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	// The defaulted configuration lists every dataset column as a feature,
	// response included; the engine owns excluding it.
	featureCols := make([]string, 0, len(spec.FeatureColumns))
	for _, c := range spec.FeatureColumns {
		if c != spec.ResponseColumn {
			featureCols = append(featureCols, c)
		}
	}
	if len(featureCols) == 0 {
		return nil, errors.New("engine: train spec declares no feature columns")
	}

	X, err := featureMatrix(train, featureCols)
	if err != nil {
		return nil, err
	}

	var y []float64
	var domain []string
	switch g.objective {
	case Binomial:
		y, domain, err = binomialTargets(train, spec.ResponseColumn)
	default:
		y, err = numericTargets(train, spec.ResponseColumn)
	}
	if err != nil {
		return nil, err
	}

	weights, intercept, err := solveLeastSquares(X, y)
	if err != nil {
		return nil, err
	}

	def := &Definition{
		Version:      ArtifactVersion,
		Category:     g.objective,
		FeatureNames: featureCols,
		Domain:       domain,
		Weights:      [][]float64{weights},
		Intercepts:   []float64{intercept},
	}
	return encodeArtifact(def)
}

// featureMatrix builds the n×d design matrix from the named columns.
func featureMatrix(f *frame.Frame, cols []string) (*mat.Dense, error) {
	n := f.NumRows()
	d := len(cols)

	idx := make([]int, d)
	for i, name := range cols {
		j := f.Schema.FieldIndex(name)
		if j < 0 {
			return nil, errors.NewValueError("GLMEngine.Train", "unknown feature column '"+name+"'")
		}
		idx[i] = j
	}

	X := mat.NewDense(n, d, nil)
	for r, row := range f.Rows {
		for i, j := range idx {
			v, err := cellToFloat(f.Schema[j].Type, row[j])
			if err != nil {
				return nil, errors.Wrapf(err, "engine: feature column '%s', row %d", cols[i], r)
			}
			X.Set(r, i, v)
		}
	}
	return X, nil
}

func numericTargets(f *frame.Frame, col string) ([]float64, error) {
	j := f.Schema.FieldIndex(col)
	if j < 0 {
		return nil, errors.NewValueError("GLMEngine.Train", "unknown response column '"+col+"'")
	}

	y := make([]float64, f.NumRows())
	for r, row := range f.Rows {
		v, err := cellToFloat(f.Schema[j].Type, row[j])
		if err != nil {
			return nil, errors.Wrapf(err, "engine: response column '%s', row %d", col, r)
		}
		y[r] = v
	}
	return y, nil
}

// logitTarget is the logit-scale target used for binomial least squares, so
// that sigmoid scoring recovers probabilities near 0 and 1 for the two
// labels.
const logitTarget = 4.0

// binomialTargets maps the response column to ±logitTarget and returns the
// lexicographically ordered two-label domain. The second label is the
// positive class.
func binomialTargets(f *frame.Frame, col string) ([]float64, []string, error) {
	j := f.Schema.FieldIndex(col)
	if j < 0 {
		return nil, nil, errors.NewValueError("GLMEngine.Train", "unknown response column '"+col+"'")
	}

	seen := make(map[string]bool)
	labels := make([]string, f.NumRows())
	for r, row := range f.Rows {
		label := responseLabel(row[j])
		labels[r] = label
		seen[label] = true
	}
	if len(seen) != 2 {
		return nil, nil, errors.Newf("engine: binomial response column '%s' has %d distinct labels, want 2", col, len(seen))
	}

	domain := make([]string, 0, 2)
	for label := range seen {
		domain = append(domain, label)
	}
	sort.Strings(domain)

	y := make([]float64, len(labels))
	for r, label := range labels {
		if label == domain[1] {
			y[r] = logitTarget
		} else {
			y[r] = -logitTarget
		}
	}
	return y, domain, nil
}

func responseLabel(cell any) string {
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}

// solveLeastSquares fits w, b minimizing ||[1 X]·[b w] - y||² by normal
// equations.
func solveLeastSquares(X *mat.Dense, y []float64) ([]float64, float64, error) {
	n, d := X.Dims()

	// Prepend an all-ones intercept column.
	aug := mat.NewDense(n, d+1, nil)
	parallel.ParallelizeWithThreshold(n, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			aug.Set(i, 0, 1.0)
			for j := 0; j < d; j++ {
				aug.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XT mat.Dense
	XT.CloneFrom(aug.T())

	var XTX mat.Dense
	XTX.Mul(&XT, aug)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return nil, 0, errors.Wrap(err, "engine: singular design matrix")
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, mat.NewVecDense(n, y))

	coeffs := mat.NewVecDense(d+1, nil)
	coeffs.MulVec(&XTXInv, &XTy)

	weights := make([]float64, d)
	for i := 0; i < d; i++ {
		weights[i] = coeffs.AtVec(i + 1)
	}
	return weights, coeffs.AtVec(0), nil
}

// cellToFloat decodes a numeric-compatible cell. Unlike scoring-time
// coercion there is no "0" fallback here: a training frame with cells the
// engine cannot read is a caller error.
func cellToFloat(t frame.DataType, cell any) (float64, error) {
	if cell == nil {
		return 0, errors.New("null cell")
	}

	switch t {
	case frame.BoolType:
		if b, ok := cell.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
	case frame.Int8Type:
		if v, ok := cell.(int8); ok {
			return float64(v), nil
		}
	case frame.Int16Type:
		if v, ok := cell.(int16); ok {
			return float64(v), nil
		}
	case frame.Int32Type:
		if v, ok := cell.(int32); ok {
			return float64(v), nil
		}
	case frame.Int64Type:
		if v, ok := cell.(int64); ok {
			return float64(v), nil
		}
	case frame.Float32Type:
		if v, ok := cell.(float32); ok {
			return float64(v), nil
		}
	case frame.Float64Type:
		if v, ok := cell.(float64); ok {
			return v, nil
		}
	case frame.DecimalType:
		if v, ok := cell.(frame.Decimal); ok {
			return v.Float64(), nil
		}
	case frame.TimestampType, frame.DateType:
		if v, ok := cell.(time.Time); ok {
			return float64(v.UnixMilli()), nil
		}
	}
	return 0, errors.Newf("cell of type %s is not numeric-compatible", t)
}
