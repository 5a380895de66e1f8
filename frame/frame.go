package frame

import (
	"fmt"

	"github.com/scailab/stagekit/pkg/errors"
)

// Frame is an in-memory tabular dataset: a schema and row-major cells.
// Cell values follow the Go representation documented on DataType; nil is a
// null cell regardless of type.
type Frame struct {
	Schema Schema
	Rows   [][]any
}

// New creates a frame after validating that every row matches the schema
// width.
func New(schema Schema, rows [][]any) (*Frame, error) {
	for i, row := range rows {
		if len(row) != len(schema) {
			return nil, errors.NewValueError("frame.New",
				fmt.Sprintf("row %d has %d cells, schema has %d columns", i, len(row), len(schema)))
		}
	}
	return &Frame{Schema: schema, Rows: rows}, nil
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return len(f.Rows)
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int {
	return len(f.Schema)
}

// Select projects the named columns, in the given order, into a new frame.
// Row slices are copied; cell values are shared.
func (f *Frame) Select(names []string) (*Frame, error) {
	idx := make([]int, len(names))
	schema := make(Schema, len(names))
	for i, name := range names {
		j := f.Schema.FieldIndex(name)
		if j < 0 {
			return nil, errors.NewValueError("Frame.Select", "unknown column '"+name+"'")
		}
		idx[i] = j
		schema[i] = f.Schema[j]
	}

	rows := make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]any, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return &Frame{Schema: schema, Rows: rows}, nil
}

// Flatten expands struct columns into dotted leaf columns, rewriting every
// row so cell order matches Schema.Flatten(). A nil struct cell yields nil
// leaves. Idempotent on frames without struct columns.
func (f *Frame) Flatten() *Frame {
	if !f.Schema.HasStructs() {
		return f
	}

	flat := f.Schema.Flatten()
	rows := make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]any, 0, len(flat))
		for i, field := range f.Schema {
			out = appendFlatCells(out, field, row[i])
		}
		rows[r] = out
	}
	return &Frame{Schema: flat, Rows: rows}
}

func appendFlatCells(out []any, f Field, cell any) []any {
	if f.Type != StructType {
		return append(out, cell)
	}

	sub, _ := cell.([]any)
	for i, subField := range f.Fields {
		var v any
		if i < len(sub) {
			v = sub[i]
		}
		out = appendFlatCells(out, subField, v)
	}
	return out
}

// AsCategorical marks every string column as categorical in place. The
// Training Engine requires this normalization on the training partition
// before it reads the frame.
func (f *Frame) AsCategorical() {
	for i := range f.Schema {
		if f.Schema[i].Type == StringType && !f.Schema[i].Categorical {
			f.Schema[i].Categorical = true
			errors.Warn(errors.NewDataConversionWarning(
				f.Schema[i].Name, "string", "categorical", "training engine categorical handling"))
		}
	}
}

// Column returns the cells of the named column in row order.
func (f *Frame) Column(name string) ([]any, error) {
	j := f.Schema.FieldIndex(name)
	if j < 0 {
		return nil, errors.NewValueError("Frame.Column", "unknown column '"+name+"'")
	}
	cells := make([]any, len(f.Rows))
	for r, row := range f.Rows {
		cells[r] = row[j]
	}
	return cells, nil
}
