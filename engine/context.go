package engine

import (
	"context"
	"sync"

	"github.com/scailab/stagekit/frame"
	"github.com/scailab/stagekit/pkg/errors"
)

// TrainSpec is the immutable configuration value handed to a Training
// Engine. It is rebuilt by the trainer stage before every delegation so the
// engine never observes the stage's own mutable parameters.
type TrainSpec struct {
	// TrainKey is the frame-store key of the training partition.
	TrainKey string

	// ValidKey is the frame-store key of the validation partition, empty
	// when the split produced a single partition.
	ValidKey string

	// ResponseColumn names the column the engine fits against.
	ResponseColumn string

	// FeatureColumns are the input columns, in configuration order.
	FeatureColumns []string

	// Params carries engine-specific tuning values, opaque to the stages.
	Params map[string]any
}

// TrainingEngine runs a fitting algorithm against frames published in the
// store and returns trained artifact bytes. Engines are opaque: failures
// are surfaced to callers verbatim, without retry or wrapping.
type TrainingEngine interface {
	Train(ctx context.Context, spec TrainSpec) ([]byte, error)
}

// ExecutionContext bundles the shared collaborators a trainer stage needs:
// the frame store and the Training Engine.
type ExecutionContext struct {
	Store  frame.Store
	Engine TrainingEngine
}

var (
	contextMu sync.RWMutex
	current   *ExecutionContext
)

// SetContext installs the process-wide execution context. Pass nil to clear
// it (tests do this between cases).
func SetContext(ec *ExecutionContext) {
	contextMu.Lock()
	defer contextMu.Unlock()
	current = ec
}

// Ensure returns the installed execution context. A persisted trainer stage
// cannot be reconstructed, and a trainer cannot fit, without one.
func Ensure() (*ExecutionContext, error) {
	contextMu.RLock()
	defer contextMu.RUnlock()
	if current == nil {
		return nil, errors.WithStack(errors.ErrNoContext)
	}
	return current, nil
}
