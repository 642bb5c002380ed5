package bridge

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// roundTrip writes values into a column of type dt and reads them back.
func roundTrip(t *testing.T, dt arrow.DataType, in []value.Value) []value.Value {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	w, err := NewWriter(mem, dt)
	require.NoError(t, err)
	defer w.Release()
	for _, v := range in {
		require.NoError(t, w.Append(v), "append %s", v)
	}
	arr := w.NewArray()
	defer arr.Release()
	require.Equal(t, len(in), arr.Len())

	r, err := NewReader(arr)
	require.NoError(t, err)
	out := make([]value.Value, r.Len())
	for i := range out {
		out[i] = r.Value(i)
	}
	return out
}

func TestIntegerRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dt   arrow.DataType
		vals []value.Value
	}{
		{arrow.PrimitiveTypes.Int8, []value.Value{value.Int(math.MinInt8), value.Int(-1), value.Int(0), value.Int(math.MaxInt8)}},
		{arrow.PrimitiveTypes.Int16, []value.Value{value.Int(math.MinInt16), value.Int(0), value.Int(math.MaxInt16)}},
		{arrow.PrimitiveTypes.Int32, []value.Value{value.Int(math.MinInt32), value.Int(0), value.Int(math.MaxInt32)}},
		{arrow.PrimitiveTypes.Int64, []value.Value{value.Int(math.MinInt64), value.Int(0), value.Int(math.MaxInt64)}},
		{arrow.PrimitiveTypes.Uint8, []value.Value{value.Uint(0), value.Uint(math.MaxUint8)}},
		{arrow.PrimitiveTypes.Uint16, []value.Value{value.Uint(0), value.Uint(math.MaxUint16)}},
		{arrow.PrimitiveTypes.Uint32, []value.Value{value.Uint(0), value.Uint(math.MaxUint32)}},
		{arrow.PrimitiveTypes.Uint64, []value.Value{value.Uint(0), value.Uint(math.MaxInt64), value.Uint(math.MaxInt64 + 1), value.Uint(math.MaxUint64)}},
	}

	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			t.Parallel()
			out := roundTrip(t, tt.dt, tt.vals)
			for i := range tt.vals {
				assert.True(t, tt.vals[i].Equal(out[i]), "row %d: want %s, got %s", i, tt.vals[i], out[i])
			}
		})
	}
}

func TestScalarRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dt   arrow.DataType
		vals []value.Value
	}{
		{"bool", arrow.FixedWidthTypes.Boolean, []value.Value{value.Bool(true), value.Bool(false)}},
		{"float16", arrow.FixedWidthTypes.Float16, []value.Value{value.Float(1.5), value.Float(-2)}},
		{"float32", arrow.PrimitiveTypes.Float32, []value.Value{value.Float(0.25), value.Float(math.Inf(1))}},
		{"float64", arrow.PrimitiveTypes.Float64, []value.Value{value.Float(math.MaxFloat64), value.Float(-0.1)}},
		{"utf8", arrow.BinaryTypes.String, []value.Value{value.String("héllo"), value.String("")}},
		{"large utf8", arrow.BinaryTypes.LargeString, []value.Value{value.String("x")}},
		{"binary", arrow.BinaryTypes.Binary, []value.Value{value.Blob([]byte{0, 1, 255})}},
		{"large binary", arrow.BinaryTypes.LargeBinary, []value.Value{value.Blob([]byte("b"))}},
		{"fixed binary", &arrow.FixedSizeBinaryType{ByteWidth: 2}, []value.Value{value.Blob([]byte{9, 8})}},
		{"nulls", arrow.PrimitiveTypes.Int32, []value.Value{value.Null(), value.Int(1), value.Null()}},
		{"null type", arrow.Null, []value.Value{value.Null(), value.Null()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := roundTrip(t, tt.dt, tt.vals)
			for i := range tt.vals {
				assert.True(t, tt.vals[i].Equal(out[i]), "row %d: want %s, got %s", i, tt.vals[i], out[i])
			}
		})
	}
}

func TestNarrowingRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   value.Value
		dt   arrow.DataType
		want any
		err  error
	}{
		{"float truncates toward zero", value.Float(2.9), arrow.PrimitiveTypes.Int64, int64(2), nil},
		{"negative float truncates toward zero", value.Float(-2.9), arrow.PrimitiveTypes.Int32, int32(-2), nil},
		{"float to unsigned", value.Float(7.99), arrow.PrimitiveTypes.Uint8, uint8(7), nil},
		{"small negative float to unsigned", value.Float(-0.5), arrow.PrimitiveTypes.Uint8, uint8(0), nil},
		{"integer overflow", value.Int(128), arrow.PrimitiveTypes.Int8, nil, evalerr.ErrOverflow},
		{"negative to unsigned", value.Int(-1), arrow.PrimitiveTypes.Uint64, nil, evalerr.ErrOverflow},
		{"huge unsigned to int64", value.Uint(math.MaxUint64), arrow.PrimitiveTypes.Int64, nil, evalerr.ErrOverflow},
		{"float overflow int64", value.Float(1e19), arrow.PrimitiveTypes.Int64, nil, evalerr.ErrOverflow},
		{"nan to int", value.Float(math.NaN()), arrow.PrimitiveTypes.Int16, nil, evalerr.ErrOverflow},
		{"inf to int", value.Float(math.Inf(-1)), arrow.PrimitiveTypes.Int16, nil, evalerr.ErrOverflow},
		{"int to float", value.Int(3), arrow.PrimitiveTypes.Float64, float64(3), nil},
		{"huge unsigned to float", value.Uint(math.MaxUint64), arrow.PrimitiveTypes.Float64, float64(math.MaxUint64), nil},
		{"float32 overflow", value.Float(1e39), arrow.PrimitiveTypes.Float32, nil, evalerr.ErrOverflow},
		{"float16 overflow", value.Float(70000), arrow.FixedWidthTypes.Float16, nil, evalerr.ErrOverflow},
		{"string to int", value.String("1"), arrow.PrimitiveTypes.Int64, nil, evalerr.ErrTypeMismatch},
		{"bool to int", value.Bool(true), arrow.PrimitiveTypes.Int64, nil, evalerr.ErrTypeMismatch},
		{"int to bool", value.Int(1), arrow.FixedWidthTypes.Boolean, nil, evalerr.ErrTypeMismatch},
		{"list to string", value.List(value.Int(1)), arrow.BinaryTypes.String, nil, evalerr.ErrTypeMismatch},
		{"blob to string", value.Blob([]byte("ok")), arrow.BinaryTypes.String, "ok", nil},
		{"invalid utf8 blob to string", value.Blob([]byte{0xff}), arrow.BinaryTypes.String, nil, ErrInvalidUTF8},
		{"string to binary", value.String("ab"), arrow.BinaryTypes.Binary, []byte("ab"), nil},
		{"fixed width mismatch", value.Blob([]byte{1}), &arrow.FixedSizeBinaryType{ByteWidth: 2}, nil, ErrWidthMismatch},
		{"value into null type", value.Int(1), arrow.Null, nil, evalerr.ErrTypeMismatch},
		{"null into any type", value.Null(), arrow.PrimitiveTypes.Uint8, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FromDynamic(tt.in, tt.dt)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.ErrorIs(t, err, evalerr.ErrConversion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnsupportedTypesFailFast(t *testing.T) {
	t.Parallel()

	unsupported := []arrow.DataType{
		arrow.ListOf(arrow.PrimitiveTypes.Int64),
		arrow.StructOf(arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int8}),
		arrow.FixedWidthTypes.Date32,
		arrow.FixedWidthTypes.Timestamp_us,
		&arrow.Decimal128Type{Precision: 10, Scale: 2},
	}
	for _, dt := range unsupported {
		err := CheckType(dt)
		require.ErrorIs(t, err, evalerr.ErrUnsupportedType, dt.String())
		require.ErrorIs(t, err, evalerr.ErrConversion, dt.String())

		_, err = NewWriter(memory.DefaultAllocator, dt)
		require.ErrorIs(t, err, evalerr.ErrUnsupportedType, dt.String())
	}

	b := array.NewDate32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.Append(arrow.Date32(1))
	arr := b.NewArray()
	defer arr.Release()

	_, err := NewReader(arr)
	require.ErrorIs(t, err, evalerr.ErrUnsupportedType)

	_, err = NewReader(nil)
	require.ErrorIs(t, err, evalerr.ErrUnsupportedType)
}

func TestReaderCopiesText(t *testing.T) {
	t.Parallel()

	b := array.NewStringBuilder(memory.DefaultAllocator)
	b.AppendValues([]string{"alpha", "beta"}, []bool{true, false})
	arr := b.NewArray()
	b.Release()

	v, err := ToDynamic(arr, 0)
	require.NoError(t, err)
	nullCell, err := ToDynamic(arr, 1)
	require.NoError(t, err)
	arr.Release()

	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "alpha", s)
	assert.True(t, nullCell.IsNull())
}

func TestFailedAppendLeavesWriterUntouched(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(memory.DefaultAllocator, arrow.PrimitiveTypes.Int8)
	require.NoError(t, err)
	defer w.Release()

	require.Error(t, w.Append(value.Int(1000)))
	assert.Equal(t, 0, w.Len())
	w.AppendNull()
	require.NoError(t, w.Append(value.Int(5)))
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, arrow.PrimitiveTypes.Int8, w.DataType())
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	w := NewJSONWriter(nil)
	defer w.Release()

	require.NoError(t, w.Append(value.Map(map[string]value.Value{"a": value.List(value.Int(1))})))
	require.NoError(t, w.Append(value.Null()))
	require.Error(t, w.Append(value.Float(math.NaN())))
	require.NoError(t, w.Append(value.String("x")))

	arr := w.NewArray()
	defer arr.Release()
	s := arr.(*array.String)
	require.Equal(t, 3, s.Len())
	assert.JSONEq(t, `{"a":[1]}`, s.Value(0))
	assert.True(t, s.IsNull(1))
	assert.Equal(t, `"x"`, s.Value(2))
}

func TestParseType(t *testing.T) {
	t.Parallel()

	dt, err := ParseType("Int64")
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, dt))

	dt, err = ParseType("varchar")
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, dt))

	_, err = ParseType("decimal")
	require.ErrorIs(t, err, ErrUnknownTypeName)
}
