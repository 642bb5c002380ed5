package value

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// MarshalJSON encodes v as JSON. Blobs are encoded as base64 strings and
// integers keep their exact decimal form. Floats always carry a fraction or
// an exponent, so 3.0 is written as 3.0 and decodes back to a Float.
func (v Value) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(v.jsonable())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJSON, err)
	}
	return b, nil
}

// jsonFloat encodes a float64 so that it cannot be read back as an integer.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported float value: %v", v)
	}
	format := byte('f')
	if abs := math.Abs(v); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, v, format, -1, 64)
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, ".0"...)
	}
	return b, nil
}

// jsonable is Interface with floats replaced by jsonFloat.
func (v Value) jsonable() any {
	switch v.kind {
	case KindFloat:
		return jsonFloat(v.f)
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.jsonable()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.jsonable()
		}
		return out
	default:
		return v.Interface()
	}
}

// ParseJSON decodes a JSON document into a Value. Numbers without a fraction
// or exponent become Integers when they fit, everything else becomes Float.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), err
	}
	if dec.More() {
		return Null(), fmt.Errorf("unexpected data after JSON document")
	}
	return FromGo(raw)
}

func fromNumber(n json.Number) (Value, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return Float(f), nil
}
