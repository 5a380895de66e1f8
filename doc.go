// Package stagekit adapts pre-trained, serialized model artifacts into
// pipeline stages for tabular data processing.
//
// A trained model artifact is an opaque, versioned binary blob. stagekit
// wraps it in two stage roles:
//
//   - stage.Trainer configures a fitting run, optionally splits the input
//     frame into train/validation partitions, delegates to a Training
//     Engine, and returns a fitted scoring stage.
//   - stage.Model owns an immutable artifact, coerces arbitrary tabular
//     rows into the artifact's feature representation, predicts row by
//     row, and assembles a typed output frame.
//
// # Quick Start
//
//	store := frame.NewMemStore()
//	engine.SetContext(&engine.ExecutionContext{
//	    Store:  store,
//	    Engine: engine.NewGLMEngine(store),
//	})
//
//	tr := stage.NewTrainer(stage.NewParams())
//	if err := tr.Params().SetSplitRatio(0.8); err != nil {
//	    log.Fatal(err)
//	}
//	model, err := tr.Fit(context.Background(), train)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	scored, err := model.Transform(test)
//
// # Packages
//
//   - frame: column schemas, in-memory frames, the key/value frame store
//     and the ratio-based splitter
//   - engine: execution context, Training Engine contract, artifact
//     reader and per-category scorers, plus a reference GLM engine
//   - stage: the trainer and scoring stages, feature coercion, category
//     dispatch and the persistence codec
//   - core/parallel: chunked row parallelism used during scoring
//   - pkg/errors, pkg/log: error taxonomy and structured logging
package stagekit
