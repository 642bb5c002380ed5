package bridge

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/float16"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Float bounds used by the truncation rule. 2^63 and 2^64 are exact in float64.
const (
	twoPow63 = 9223372036854775808.0
	twoPow64 = 18446744073709551616.0

	maxFloat16 = 65504.0
)

func mismatch(v value.Value, dt arrow.DataType) error {
	return evalerr.Wrap(evalerr.KindConversion,
		fmt.Errorf("%w: cannot convert %s to %s", evalerr.ErrTypeMismatch, v.Kind(), dt))
}

func overflow(v value.Value, dt arrow.DataType) error {
	return evalerr.Wrap(evalerr.KindConversion,
		fmt.Errorf("%w: %s does not fit in %s", evalerr.ErrOverflow, v, dt))
}

// truncate applies the single narrowing rule for float to integer targets:
// truncation toward zero. NaN and infinities have no integer value.
func truncate(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Trunc(f), true
}

// toSigned narrows v into [lo, hi].
func toSigned(v value.Value, lo, hi int64, dt arrow.DataType) (int64, error) {
	switch v.Kind() {
	case value.KindInt:
		i, ok := v.Int64()
		if !ok || i < lo || i > hi {
			return 0, overflow(v, dt)
		}
		return i, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		t, ok := truncate(f)
		if !ok || t < -twoPow63 || t >= twoPow63 {
			return 0, overflow(v, dt)
		}
		i := int64(t)
		if i < lo || i > hi {
			return 0, overflow(v, dt)
		}
		return i, nil
	default:
		return 0, mismatch(v, dt)
	}
}

// toUnsigned narrows v into [0, hi].
func toUnsigned(v value.Value, hi uint64, dt arrow.DataType) (uint64, error) {
	switch v.Kind() {
	case value.KindInt:
		u, ok := v.Uint64()
		if !ok || u > hi {
			return 0, overflow(v, dt)
		}
		return u, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		t, ok := truncate(f)
		if !ok || t < 0 || t >= twoPow64 {
			return 0, overflow(v, dt)
		}
		u := uint64(t)
		if u > hi {
			return 0, overflow(v, dt)
		}
		return u, nil
	default:
		return 0, mismatch(v, dt)
	}
}

// toFloat converts Integer and Float values. Finite values whose magnitude
// exceeds limit are rejected instead of rounding to infinity.
func toFloat(v value.Value, limit float64, dt arrow.DataType) (float64, error) {
	var f float64
	switch v.Kind() {
	case value.KindInt:
		if u, ok := v.Uint64(); ok && u > math.MaxInt64 {
			f = float64(u)
		} else {
			i, _ := v.Int64()
			f = float64(i)
		}
	case value.KindFloat:
		f, _ = v.AsFloat()
	default:
		return 0, mismatch(v, dt)
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > limit {
		return 0, overflow(v, dt)
	}
	return f, nil
}

func toBool(v value.Value, dt arrow.DataType) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, mismatch(v, dt)
	}
	return b, nil
}

func toText(v value.Value, dt arrow.DataType) (string, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	case value.KindBlob:
		b, _ := v.AsBlob()
		if !utf8.Valid(b) {
			return "", evalerr.Wrap(evalerr.KindConversion, ErrInvalidUTF8)
		}
		return string(b), nil
	default:
		return "", mismatch(v, dt)
	}
}

func toBytes(v value.Value, dt arrow.DataType) ([]byte, error) {
	switch v.Kind() {
	case value.KindBlob:
		b, _ := v.AsBlob()
		return b, nil
	case value.KindString:
		s, _ := v.AsString()
		return []byte(s), nil
	default:
		return nil, mismatch(v, dt)
	}
}

// FromDynamic converts v into the Go representation of a cell of type dt:
// bool, int8..int64, uint8..uint64, float16.Num, float32, float64, string or
// []byte. Null converts to nil for every target type.
func FromDynamic(v value.Value, dt arrow.DataType) (any, error) {
	if err := CheckType(dt); err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}

	switch dt.ID() {
	case arrow.NULL:
		return nil, mismatch(v, dt)
	case arrow.BOOL:
		return toBool(v, dt)
	case arrow.INT8:
		i, err := toSigned(v, math.MinInt8, math.MaxInt8, dt)
		return int8(i), err
	case arrow.INT16:
		i, err := toSigned(v, math.MinInt16, math.MaxInt16, dt)
		return int16(i), err
	case arrow.INT32:
		i, err := toSigned(v, math.MinInt32, math.MaxInt32, dt)
		return int32(i), err
	case arrow.INT64:
		return toSigned(v, math.MinInt64, math.MaxInt64, dt)
	case arrow.UINT8:
		u, err := toUnsigned(v, math.MaxUint8, dt)
		return uint8(u), err
	case arrow.UINT16:
		u, err := toUnsigned(v, math.MaxUint16, dt)
		return uint16(u), err
	case arrow.UINT32:
		u, err := toUnsigned(v, math.MaxUint32, dt)
		return uint32(u), err
	case arrow.UINT64:
		return toUnsigned(v, math.MaxUint64, dt)
	case arrow.FLOAT16:
		f, err := toFloat(v, maxFloat16, dt)
		return float16.New(float32(f)), err
	case arrow.FLOAT32:
		f, err := toFloat(v, math.MaxFloat32, dt)
		return float32(f), err
	case arrow.FLOAT64:
		return toFloat(v, math.MaxFloat64, dt)
	case arrow.STRING, arrow.LARGE_STRING:
		return toText(v, dt)
	case arrow.BINARY, arrow.LARGE_BINARY:
		return toBytes(v, dt)
	case arrow.FIXED_SIZE_BINARY:
		b, err := toBytes(v, dt)
		if err != nil {
			return nil, err
		}
		if width := dt.(*arrow.FixedSizeBinaryType).ByteWidth; len(b) != width {
			return nil, evalerr.Wrap(evalerr.KindConversion,
				fmt.Errorf("%w: got %d bytes, want %d", ErrWidthMismatch, len(b), width))
		}
		return b, nil
	}
	return nil, mismatch(v, dt)
}
