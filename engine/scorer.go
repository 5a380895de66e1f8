package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/scailab/stagekit/pkg/errors"
)

// Scorer is the per-category prediction routine for one artifact. A Scorer
// is cheap to construct and not shared across goroutines; parallel callers
// create a fresh one per unit of work.
type Scorer struct {
	def *Definition
}

// NewScorer returns a prediction handle for the definition.
func (d *Definition) NewScorer() *Scorer {
	return &Scorer{def: d}
}

// Score predicts one feature vector. The result shape depends on the model
// category: one probability per domain label for binomial and multinomial,
// a single scalar for regression, a single cluster index for clustering.
// Declared-but-unimplemented categories fail fast.
func (s *Scorer) Score(features []float64) ([]float64, error) {
	if len(features) != len(s.def.FeatureNames) {
		return nil, errors.Newf("engine: feature vector has %d values, artifact expects %d",
			len(features), len(s.def.FeatureNames))
	}

	switch s.def.Category {
	case Binomial:
		return s.scoreBinomial(features)
	case Multinomial:
		return s.scoreMultinomial(features)
	case Regression:
		return s.scoreRegression(features)
	case Clustering:
		return s.scoreClustering(features)
	case AutoEncoder, DimReduction, WordEmbedding, Unknown:
		return nil, errors.NewUnsupportedCategoryError("Scorer.Score", string(s.def.Category))
	default:
		return nil, errors.NewUnsupportedCategoryError("Scorer.Score", string(s.def.Category))
	}
}

func (s *Scorer) scoreBinomial(features []float64) ([]float64, error) {
	if len(s.def.Domain) != 2 {
		return nil, errors.Newf("engine: binomial artifact has %d domain labels, want 2", len(s.def.Domain))
	}
	z, err := s.linear(0, features)
	if err != nil {
		return nil, err
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func (s *Scorer) scoreMultinomial(features []float64) ([]float64, error) {
	k := len(s.def.Domain)
	if k == 0 {
		return nil, errors.New("engine: multinomial artifact has an empty response domain")
	}
	if len(s.def.Weights) != k {
		return nil, errors.Newf("engine: multinomial artifact has %d weight rows for %d labels", len(s.def.Weights), k)
	}

	logits := make([]float64, k)
	for i := 0; i < k; i++ {
		z, err := s.linear(i, features)
		if err != nil {
			return nil, err
		}
		logits[i] = z
	}
	return softmax(logits), nil
}

func (s *Scorer) scoreRegression(features []float64) ([]float64, error) {
	z, err := s.linear(0, features)
	if err != nil {
		return nil, err
	}
	return []float64{z}, nil
}

func (s *Scorer) scoreClustering(features []float64) ([]float64, error) {
	if len(s.def.Centroids) == 0 {
		return nil, errors.New("engine: clustering artifact has no centroids")
	}

	x := mat.NewVecDense(len(features), features)
	best := 0
	bestDist := math.Inf(1)
	for i, c := range s.def.Centroids {
		if len(c) != len(features) {
			return nil, errors.Newf("engine: centroid %d has %d values, artifact expects %d", i, len(c), len(features))
		}
		var diff mat.VecDense
		diff.SubVec(x, mat.NewVecDense(len(c), c))
		if d := mat.Norm(&diff, 2); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return []float64{float64(best)}, nil
}

// linear computes weights[row]·features + intercepts[row].
func (s *Scorer) linear(row int, features []float64) (float64, error) {
	if row >= len(s.def.Weights) {
		return 0, errors.Newf("engine: artifact has no weight row %d", row)
	}
	w := s.def.Weights[row]
	if len(w) != len(features) {
		return 0, errors.Newf("engine: weight row %d has %d values, got %d features", row, len(w), len(features))
	}

	z := mat.Dot(mat.NewVecDense(len(w), w), mat.NewVecDense(len(features), features))
	if row < len(s.def.Intercepts) {
		z += s.def.Intercepts[row]
	}
	return z, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, z := range logits[1:] {
		if z > maxLogit {
			maxLogit = z
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, z := range logits {
		out[i] = math.Exp(z - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
