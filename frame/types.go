// Package frame implements the tabular data model shared by all stages:
// column schemas over a closed set of logical types, in-memory frames, the
// key/value frame store and the ratio-based dataset splitter.
package frame

import "math"

// DataType is the closed enumeration of logical column types.
type DataType int

const (
	// BoolType holds bool cells.
	BoolType DataType = iota
	// Int8Type holds int8 cells.
	Int8Type
	// Int16Type holds int16 cells.
	Int16Type
	// Int32Type holds int32 cells.
	Int32Type
	// Int64Type holds int64 cells.
	Int64Type
	// Float32Type holds float32 cells.
	Float32Type
	// Float64Type holds float64 cells.
	Float64Type
	// DecimalType holds Decimal cells.
	DecimalType
	// StringType holds string cells.
	StringType
	// TimestampType holds time.Time cells with sub-day precision.
	TimestampType
	// DateType holds time.Time cells truncated to a day.
	DateType
	// ArrayType holds []any cells whose elements share Field.Elem.
	ArrayType
	// VectorType holds *mat.VecDense cells.
	VectorType
	// StructType holds []any cells aligned with Field.Fields.
	StructType
)

// String returns the logical type name.
func (t DataType) String() string {
	switch t {
	case BoolType:
		return "bool"
	case Int8Type:
		return "int8"
	case Int16Type:
		return "int16"
	case Int32Type:
		return "int32"
	case Int64Type:
		return "int64"
	case Float32Type:
		return "float32"
	case Float64Type:
		return "float64"
	case DecimalType:
		return "decimal"
	case StringType:
		return "string"
	case TimestampType:
		return "timestamp"
	case DateType:
		return "date"
	case ArrayType:
		return "array"
	case VectorType:
		return "vector"
	case StructType:
		return "struct"
	default:
		return "unknown"
	}
}

// Decimal is a fixed-point value. Coercion and scoring read it through its
// double-precision value only.
type Decimal struct {
	Unscaled int64
	Scale    int32
}

// Float64 returns the decoded double-precision value.
func (d Decimal) Float64() float64 {
	return float64(d.Unscaled) / math.Pow(10, float64(d.Scale))
}

// Field describes one column: name, logical type and nullability. Elem is
// the element type of an ArrayType column, Fields the nested schema of a
// StructType column. Categorical marks a string column coerced to
// categorical for the Training Engine.
type Field struct {
	Name        string
	Type        DataType
	Nullable    bool
	Elem        DataType
	Fields      Schema
	Categorical bool
}

// Schema is an ordered sequence of fields.
type Schema []Field

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// FieldIndex returns the position of the named column, or -1.
func (s Schema) FieldIndex(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Flatten expands struct columns into dotted-path leaf columns, depth-first
// with a struct's leaves taking its position in the column order. After
// flattening no column has a struct type.
func (s Schema) Flatten() Schema {
	out := make(Schema, 0, len(s))
	for _, f := range s {
		out = appendFlattened(out, f, f.Name)
	}
	return out
}

func appendFlattened(out Schema, f Field, path string) Schema {
	if f.Type != StructType {
		leaf := f
		leaf.Name = path
		leaf.Fields = nil
		return append(out, leaf)
	}
	for _, sub := range f.Fields {
		out = appendFlattened(out, sub, path+"."+sub.Name)
	}
	return out
}

// HasStructs reports whether any top-level column is a struct.
func (s Schema) HasStructs() bool {
	for _, f := range s {
		if f.Type == StructType {
			return true
		}
	}
	return false
}
