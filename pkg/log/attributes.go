package log

// Standard attribute keys for stage operations. Hierarchical names keep the
// emitted JSON filterable across fit, transform and persistence logs.
const (
	// StageNameKey identifies the stage type, e.g. "Trainer" or "Model".
	StageNameKey = "stage.name"

	// UIDKey is the unique identifier of a stage instance.
	UIDKey = "stage.uid"

	// OperationKey names the operation: "fit", "transform", "save", "load".
	OperationKey = "stage.operation"

	// CategoryKey is the model category of the trained artifact.
	CategoryKey = "model.category"

	// RowsKey is the number of rows in the frame being processed.
	RowsKey = "data.rows"

	// ColumnsKey is the number of columns in the frame being processed.
	ColumnsKey = "data.columns"

	// RatioKey is the configured train/validation split ratio.
	RatioKey = "split.ratio"

	// FrameKeyKey is the frame-store key of a published partition.
	FrameKeyKey = "frame.key"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
