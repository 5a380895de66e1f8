// Package engine holds the collaborator boundary of stagekit: the execution
// context, the Training Engine contract, the artifact reader with its
// per-category scoring routines, and a reference GLM engine.
package engine

// ModelCategory is the closed classification of what kind of prediction
// task a trained artifact performs.
type ModelCategory string

const (
	// Binomial is binary classification over a two-label response domain.
	Binomial ModelCategory = "binomial"
	// Multinomial is multiclass classification.
	Multinomial ModelCategory = "multinomial"
	// Regression predicts a single scalar.
	Regression ModelCategory = "regression"
	// Clustering assigns a cluster index.
	Clustering ModelCategory = "clustering"

	// AutoEncoder is declared but has no prediction routine.
	AutoEncoder ModelCategory = "autoencoder"
	// DimReduction is declared but has no prediction routine.
	DimReduction ModelCategory = "dimreduction"
	// WordEmbedding is declared but has no prediction routine.
	WordEmbedding ModelCategory = "wordembedding"
	// Unknown marks an artifact whose category could not be determined.
	Unknown ModelCategory = "unknown"
)

// Supported reports whether the category has a prediction routine and an
// output schema. Unsupported categories fail fast at dispatch, never
// silently.
func (c ModelCategory) Supported() bool {
	switch c {
	case Binomial, Multinomial, Regression, Clustering:
		return true
	default:
		return false
	}
}
