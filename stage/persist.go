package stage

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/scailab/stagekit/engine"
	"github.com/scailab/stagekit/pkg/errors"
)

// Artifact directory layout, per stage instance.
const (
	metadataFileName = "metadata"
	paramsFileName   = "params.gob"
	modelFileName    = "model.bin"
)

// Persisted class identities.
const (
	trainerClassName = "stage.Trainer"
	modelClassName   = "stage.Model"
)

// Stage is the persistable surface shared by Trainer and Model: identity,
// the generic parameter map, and the stage-specific payload.
type Stage interface {
	UID() string
	ClassName() string
	GetParams() map[string]any
	SetParams(params map[string]any) error

	savePayload(dir string) error
}

// metadata is the engine-generic pipeline metadata written alongside the
// stage payload: instance UID, class identity and the parameter map.
type metadata struct {
	UID    string         `json:"uid"`
	Class  string         `json:"class"`
	Params map[string]any `json:"params"`
}

// Builder reconstructs a stage of one class from its artifact directory and
// metadata. The generic parameter map is re-applied by Load after the
// builder returns; builders only restore identity and payload.
type Builder func(dir string, meta *metadata) (Stage, error)

// builders maps a persisted class identity to its typed constructor. An
// explicit registry replaces runtime class lookup: reconstruction stays
// "by declared type" without reflection.
var builders = map[string]Builder{
	trainerClassName: buildTrainer,
	modelClassName:   buildModel,
}

// Save persists a stage into dir: the generic metadata document plus the
// stage-specific payload (a serialized configuration blob for a trainer,
// raw trained-artifact bytes for a model).
func Save(s Stage, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "stage: cannot create artifact directory")
	}

	meta := metadata{
		UID:    s.UID(),
		Class:  s.ClassName(),
		Params: s.GetParams(),
	}
	raw, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "stage: cannot encode metadata")
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFileName), raw, 0o644); err != nil {
		return errors.Wrap(err, "stage: cannot write metadata")
	}

	return s.savePayload(dir)
}

// Load reconstructs a stage from dir. Metadata is read first, the class's
// registered builder restores identity and payload, and the generic
// parameter map is then re-applied onto the new instance. The configuration
// blob and the parameter map evolve independently; the two-step
// reconstruction keeps them consistent.
func Load(dir string) (Stage, error) {
	raw, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		return nil, errors.NewReconstructionError("", "cannot read metadata", err)
	}

	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errors.NewReconstructionError("", "malformed metadata", err)
	}

	builder, ok := builders[meta.Class]
	if !ok {
		return nil, errors.NewReconstructionError(meta.Class, "no builder registered for class", nil)
	}

	s, err := builder(dir, &meta)
	if err != nil {
		return nil, err
	}

	if len(meta.Params) > 0 {
		if err := s.SetParams(meta.Params); err != nil {
			return nil, errors.NewReconstructionError(meta.Class, "cannot re-apply parameter map", err)
		}
	}
	return s, nil
}

// savePayload writes the trainer's configuration blob.
func (t *Trainer) savePayload(dir string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t.params); err != nil {
		return errors.Wrap(err, "stage: cannot encode trainer configuration")
	}
	if err := os.WriteFile(filepath.Join(dir, paramsFileName), buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "stage: cannot write trainer configuration")
	}
	return nil
}

// savePayload writes the raw trained-artifact bytes verbatim. Persistence
// never re-encodes the binary format; the on-disk bytes are byte-identical
// to the artifact the stage was built with.
func (m *Model) savePayload(dir string) error {
	if m.raw == nil {
		return errors.NewNotFittedError("Model", "Save")
	}
	if err := os.WriteFile(filepath.Join(dir, modelFileName), m.raw, 0o644); err != nil {
		return errors.Wrap(err, "stage: cannot write model artifact")
	}
	return nil
}

// buildTrainer reconstructs a trainer: the execution context must be
// obtainable, then the configuration blob is decoded and injected through
// the persisted-state constructor.
func buildTrainer(dir string, meta *metadata) (Stage, error) {
	ec, err := engine.Ensure()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(dir, paramsFileName))
	if err != nil {
		return nil, errors.NewReconstructionError(meta.Class, "cannot read configuration blob", err)
	}

	params := NewParams()
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(params); err != nil {
		return nil, errors.NewReconstructionError(meta.Class, "cannot decode configuration blob", err)
	}

	return newTrainerFromState(params, meta.UID, ec), nil
}

// buildModel reconstructs a scoring stage: the artifact bytes are read
// fully into memory and independently reparsed into a structured model
// definition.
func buildModel(dir string, meta *metadata) (Stage, error) {
	raw, err := os.ReadFile(filepath.Join(dir, modelFileName))
	if err != nil {
		return nil, errors.NewReconstructionError(meta.Class, "cannot read model artifact", err)
	}

	def, err := engine.ReadArtifact(raw)
	if err != nil {
		return nil, errors.NewReconstructionError(meta.Class, "cannot reparse model artifact", err)
	}

	return newModelWithUID(def, raw, meta.UID), nil
}
