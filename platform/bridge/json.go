package bridge

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// JSONWriter is a ColumnWriter that stores each value as a JSON document in a
// utf8 column. Any dynamic value other than Null is accepted, including lists
// and maps, so it is used for the result envelope.
type JSONWriter struct {
	b *array.StringBuilder
}

// NewJSONWriter returns a JSONWriter allocating from mem.
func NewJSONWriter(mem memory.Allocator) *JSONWriter {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &JSONWriter{b: array.NewStringBuilder(mem)}
}

func (w *JSONWriter) DataType() arrow.DataType { return arrow.BinaryTypes.String }

func (w *JSONWriter) Len() int { return w.b.Len() }

func (w *JSONWriter) AppendNull() { w.b.AppendNull() }

func (w *JSONWriter) Append(v value.Value) error {
	if v.IsNull() {
		w.b.AppendNull()
		return nil
	}
	doc, err := v.MarshalJSON()
	if err != nil {
		return evalerr.Wrap(evalerr.KindConversion, err)
	}
	w.b.Append(string(doc))
	return nil
}

func (w *JSONWriter) NewArray() arrow.Array { return w.b.NewArray() }

func (w *JSONWriter) Release() { w.b.Release() }
