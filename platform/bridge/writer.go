package bridge

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// ColumnWriter accumulates dynamic values into an output column.
type ColumnWriter interface {
	// Append converts v and appends it. On error nothing is appended.
	Append(v value.Value) error
	AppendNull()
	Len() int
	DataType() arrow.DataType
	// NewArray returns the built column and resets the writer.
	NewArray() arrow.Array
	Release()
}

// Writer is the ColumnWriter for the scalar types accepted by CheckType.
type Writer struct {
	dt arrow.DataType
	b  array.Builder
}

// NewWriter returns a Writer producing a column of type dt.
func NewWriter(mem memory.Allocator, dt arrow.DataType) (*Writer, error) {
	if err := CheckType(dt); err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Writer{dt: dt, b: array.NewBuilder(mem, dt)}, nil
}

func (w *Writer) DataType() arrow.DataType { return w.dt }

func (w *Writer) Len() int { return w.b.Len() }

func (w *Writer) AppendNull() { w.b.AppendNull() }

func (w *Writer) Append(v value.Value) error {
	if v.IsNull() {
		w.b.AppendNull()
		return nil
	}
	x, err := FromDynamic(v, w.dt)
	if err != nil {
		return err
	}

	switch b := w.b.(type) {
	case *array.BooleanBuilder:
		b.Append(x.(bool))
	case *array.Int8Builder:
		b.Append(x.(int8))
	case *array.Int16Builder:
		b.Append(x.(int16))
	case *array.Int32Builder:
		b.Append(x.(int32))
	case *array.Int64Builder:
		b.Append(x.(int64))
	case *array.Uint8Builder:
		b.Append(x.(uint8))
	case *array.Uint16Builder:
		b.Append(x.(uint16))
	case *array.Uint32Builder:
		b.Append(x.(uint32))
	case *array.Uint64Builder:
		b.Append(x.(uint64))
	case *array.Float16Builder:
		b.Append(x.(float16.Num))
	case *array.Float32Builder:
		b.Append(x.(float32))
	case *array.Float64Builder:
		b.Append(x.(float64))
	case *array.StringBuilder:
		b.Append(x.(string))
	case *array.LargeStringBuilder:
		b.Append(x.(string))
	case *array.BinaryBuilder:
		b.Append(x.([]byte))
	case *array.FixedSizeBinaryBuilder:
		b.Append(x.([]byte))
	default:
		return evalerr.Wrap(evalerr.KindConversion,
			fmt.Errorf("%w: builder %T", evalerr.ErrUnsupportedType, w.b))
	}
	return nil
}

func (w *Writer) NewArray() arrow.Array { return w.b.NewArray() }

func (w *Writer) Release() { w.b.Release() }
