package frame

import (
	"math"

	"github.com/google/uuid"

	"github.com/scailab/stagekit/pkg/errors"
)

// Partition is an opaque handle to a disjoint row subset of a split frame,
// addressable by its frame-store key. Handles are produced once per fit and
// consumed immediately by the Training Engine.
type Partition struct {
	Key   string
	Frame *Frame
}

// Split partitions f into train and validation subsets approximating
// ratio : (1-ratio) and publishes both to the store under fresh uuid keys.
// The split is deterministic and single-pass: the first round(ratio*N) rows
// form the train partition, the remainder the validation partition. When
// the rule yields a single non-empty subset only the train partition is
// returned; callers must not assume both partitions exist.
func Split(f *Frame, ratio float64, store Store) ([]Partition, error) {
	if ratio <= 0 || ratio > 1 {
		return nil, errors.NewValueError("frame.Split", "ratio must be in (0, 1]")
	}

	n := f.NumRows()
	trainN := int(math.Round(ratio * float64(n)))
	if trainN > n {
		trainN = n
	}

	train := &Frame{Schema: cloneSchema(f.Schema), Rows: f.Rows[:trainN]}
	parts := []Partition{{Key: "train_" + uuid.NewString(), Frame: train}}

	if trainN < n {
		valid := &Frame{Schema: cloneSchema(f.Schema), Rows: f.Rows[trainN:]}
		parts = append(parts, Partition{Key: "valid_" + uuid.NewString(), Frame: valid})
	}

	for _, p := range parts {
		if err := store.Put(p.Key, p.Frame); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

func cloneSchema(s Schema) Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}
