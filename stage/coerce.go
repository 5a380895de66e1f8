package stage

import (
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/scailab/stagekit/frame"
)

// Record is the canonical string-keyed scalar representation of one row, as
// consumed by the prediction routine. Keys are flattened leaf column names,
// or columnName+elementIndex for array and vector columns.
type Record map[string]string

// CoerceRow converts one row of a flattened schema into a feature record,
// restricted to the feature set (nil means every column is a feature).
//
// Coercion rules: null cells emit "0", bools emit "1"/"0", numeric and
// decimal cells stringify their decoded scalar value, timestamps and dates
// stringify as epoch milliseconds, strings pass through, arrays and vectors
// expand into one indexed key per element in source order, and any other or
// mistyped cell falls back to "0" rather than failing.
//
// Known limitations, kept deliberately: the "0" sentinel for nulls and
// unsupported cells is indistinguishable from a legitimate zero value, and
// rows whose array or vector cells differ in length produce differently
// keyed records — no padding or truncation reconciles them.
func CoerceRow(schema frame.Schema, row []any, features map[string]struct{}) Record {
	rec := make(Record, len(schema))
	for i, field := range schema {
		if features != nil {
			if _, ok := features[field.Name]; !ok {
				continue
			}
		}
		coerceCell(rec, field, row[i])
	}
	return rec
}

func coerceCell(rec Record, field frame.Field, cell any) {
	if cell == nil {
		rec[field.Name] = "0"
		return
	}

	switch field.Type {
	case frame.ArrayType:
		elems, ok := cell.([]any)
		if !ok {
			rec[field.Name] = "0"
			return
		}
		for i, el := range elems {
			rec[field.Name+strconv.Itoa(i)] = scalarString(field.Elem, el)
		}
	case frame.VectorType:
		vec, ok := cell.(*mat.VecDense)
		if !ok {
			rec[field.Name] = "0"
			return
		}
		for i := 0; i < vec.Len(); i++ {
			rec[field.Name+strconv.Itoa(i)] = strconv.FormatFloat(vec.AtVec(i), 'g', -1, 64)
		}
	default:
		rec[field.Name] = scalarString(field.Type, cell)
	}
}

// scalarString stringifies a scalar cell of the given logical type. The
// switch is exhaustive over the closed DataType set; the default arm is the
// documented defensive "0" fallback, which also covers cells whose dynamic
// type does not match the declared one.
func scalarString(t frame.DataType, cell any) string {
	if cell == nil {
		return "0"
	}

	switch t {
	case frame.BoolType:
		if b, ok := cell.(bool); ok {
			if b {
				return "1"
			}
			return "0"
		}
	case frame.Int8Type:
		if v, ok := cell.(int8); ok {
			return strconv.FormatInt(int64(v), 10)
		}
	case frame.Int16Type:
		if v, ok := cell.(int16); ok {
			return strconv.FormatInt(int64(v), 10)
		}
	case frame.Int32Type:
		if v, ok := cell.(int32); ok {
			return strconv.FormatInt(int64(v), 10)
		}
	case frame.Int64Type:
		if v, ok := cell.(int64); ok {
			return strconv.FormatInt(v, 10)
		}
	case frame.Float32Type:
		if v, ok := cell.(float32); ok {
			return strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
	case frame.Float64Type:
		if v, ok := cell.(float64); ok {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case frame.DecimalType:
		if v, ok := cell.(frame.Decimal); ok {
			return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
		}
	case frame.StringType:
		if v, ok := cell.(string); ok {
			return v
		}
	case frame.TimestampType, frame.DateType:
		if v, ok := cell.(time.Time); ok {
			return strconv.FormatInt(v.UnixMilli(), 10)
		}
	}
	return "0"
}
