package value

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Interface returns the Go native form of v: nil, bool, int64 (uint64 above
// math.MaxInt64), float64, string, []byte, []any or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		b, _ := v.AsBool()
		return b
	case KindInt:
		if v.unsigned {
			return v.bits
		}
		return int64(v.bits)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBlob:
		return bytes.Clone(v.b)
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromGo converts a Go native value into a Value. It accepts the types
// produced by Interface, the other sized integer and float types, json.Number
// and Value itself.
func FromGo(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Uint(uint64(v)), nil
	case uint8:
		return Uint(uint64(v)), nil
	case uint16:
		return Uint(uint64(v)), nil
	case uint32:
		return Uint(uint64(v)), nil
	case uint64:
		return Uint(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Blob(v), nil
	case json.Number:
		return fromNumber(v)
	case []any:
		elems := make([]Value, len(v))
		for i, e := range v {
			conv, err := FromGo(e)
			if err != nil {
				return Null(), fmt.Errorf("list element %d: %w", i, err)
			}
			elems[i] = conv
		}
		return List(elems...), nil
	case map[string]any:
		m := make(map[string]Value, len(v))
		for k, e := range v {
			conv, err := FromGo(e)
			if err != nil {
				return Null(), fmt.Errorf("map key %q: %w", k, err)
			}
			m[k] = conv
		}
		return Map(m), nil
	default:
		return Null(), fmt.Errorf("%w: %T", ErrUnsupportedGoType, in)
	}
}
