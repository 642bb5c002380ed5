package bridge

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Reader converts the cells of one Arrow column into dynamic values. The
// concrete array type is resolved once in NewReader, not per cell.
type Reader struct {
	arr  arrow.Array
	read func(i int) value.Value
}

// NewReader returns a Reader for arr, or an UnsupportedType conversion error
// when the column type cannot be bound.
func NewReader(arr arrow.Array) (*Reader, error) {
	if arr == nil {
		return nil, evalerr.Wrap(evalerr.KindConversion, fmt.Errorf("%w: nil column", evalerr.ErrUnsupportedType))
	}
	if err := CheckType(arr.DataType()); err != nil {
		return nil, err
	}

	r := &Reader{arr: arr}
	switch a := arr.(type) {
	case *array.Null:
		r.read = func(int) value.Value { return value.Null() }
	case *array.Boolean:
		r.read = func(i int) value.Value { return value.Bool(a.Value(i)) }
	case *array.Int8:
		r.read = func(i int) value.Value { return value.Int(int64(a.Value(i))) }
	case *array.Int16:
		r.read = func(i int) value.Value { return value.Int(int64(a.Value(i))) }
	case *array.Int32:
		r.read = func(i int) value.Value { return value.Int(int64(a.Value(i))) }
	case *array.Int64:
		r.read = func(i int) value.Value { return value.Int(a.Value(i)) }
	case *array.Uint8:
		r.read = func(i int) value.Value { return value.Uint(uint64(a.Value(i))) }
	case *array.Uint16:
		r.read = func(i int) value.Value { return value.Uint(uint64(a.Value(i))) }
	case *array.Uint32:
		r.read = func(i int) value.Value { return value.Uint(uint64(a.Value(i))) }
	case *array.Uint64:
		r.read = func(i int) value.Value { return value.Uint(a.Value(i)) }
	case *array.Float16:
		r.read = func(i int) value.Value { return value.Float(float64(a.Value(i).Float32())) }
	case *array.Float32:
		r.read = func(i int) value.Value { return value.Float(float64(a.Value(i))) }
	case *array.Float64:
		r.read = func(i int) value.Value { return value.Float(a.Value(i)) }
	case *array.String:
		// Value aliases the column buffer; the scope must own its text.
		r.read = func(i int) value.Value { return value.String(strings.Clone(a.Value(i))) }
	case *array.LargeString:
		r.read = func(i int) value.Value { return value.String(strings.Clone(a.Value(i))) }
	case *array.Binary:
		r.read = func(i int) value.Value { return value.Blob(a.Value(i)) }
	case *array.LargeBinary:
		r.read = func(i int) value.Value { return value.Blob(a.Value(i)) }
	case *array.FixedSizeBinary:
		r.read = func(i int) value.Value { return value.Blob(a.Value(i)) }
	default:
		return nil, evalerr.Wrap(evalerr.KindConversion,
			fmt.Errorf("%w: array implementation %T", evalerr.ErrUnsupportedType, arr))
	}
	return r, nil
}

// Len returns the number of cells in the column.
func (r *Reader) Len() int { return r.arr.Len() }

// DataType returns the Arrow type of the column.
func (r *Reader) DataType() arrow.DataType { return r.arr.DataType() }

// Value returns cell i. Invalid cells (SQL NULL) become Null.
func (r *Reader) Value(i int) value.Value {
	if r.arr.IsNull(i) {
		return value.Null()
	}
	return r.read(i)
}

// ToDynamic converts a single cell. Prefer a Reader when converting a column.
func ToDynamic(arr arrow.Array, i int) (value.Value, error) {
	r, err := NewReader(arr)
	if err != nil {
		return value.Null(), err
	}
	return r.Value(i), nil
}
