package value

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind is the tag of a dynamic value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBlob
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is the dynamically typed value exchanged between the host columns and
// the scripting engines. The zero Value is Null.
//
// Integers cover the whole int64 and uint64 range: values above math.MaxInt64
// are stored with the unsigned flag set, everything else as int64 bits.
type Value struct {
	kind     Kind
	unsigned bool
	bits     uint64
	f        float64
	s        string
	b        []byte
	list     []Value
	m        map[string]Value
}

// Null returns the Null value.
func Null() Value { return Value{} }

// Bool returns a Boolean value.
func Bool(v bool) Value {
	var bits uint64
	if v {
		bits = 1
	}
	return Value{kind: KindBool, bits: bits}
}

// Int returns an Integer value.
func Int(v int64) Value {
	return Value{kind: KindInt, bits: uint64(v)}
}

// Uint returns an Integer value. Values that fit in an int64 are stored signed,
// so Uint(7) and Int(7) are equal.
func Uint(v uint64) Value {
	if v <= math.MaxInt64 {
		return Int(int64(v))
	}
	return Value{kind: KindInt, unsigned: true, bits: v}
}

// Float returns a Float value.
func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// String returns a String value. Go strings are immutable, so no copy is made.
func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Blob returns a Blob value holding a copy of v.
func Blob(v []byte) Value {
	return Value{kind: KindBlob, b: bytes.Clone(v)}
}

// List returns a List value holding the given elements.
func List(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindList, list: elems}
}

// Map returns a Map value. A nil map yields an empty map.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the payload of a Boolean value.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bits == 1, true
}

// Int64 returns the payload of an Integer value when it fits in an int64.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInt || v.unsigned {
		return 0, false
	}
	return int64(v.bits), true
}

// Uint64 returns the payload of an Integer value when it is non-negative.
func (v Value) Uint64() (uint64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	if v.unsigned {
		return v.bits, true
	}
	if int64(v.bits) < 0 {
		return 0, false
	}
	return v.bits, true
}

// AsFloat returns the payload of a Float value.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsString returns the payload of a String value.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBlob returns the payload of a Blob value. The slice is shared with v.
func (v Value) AsBlob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return v.b, true
}

// AsList returns the elements of a List value.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsMap returns the entries of a Map value.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Equal reports deep equality. Floats compare by value, so NaN is never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt:
		return v.unsigned == o.unsigned && v.bits == o.bits
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBlob:
		return bytes.Equal(v.b, o.b)
	case KindList:
		return slices.EqualFunc(v.list, o.list, Value.Equal)
	case KindMap:
		return maps.EqualFunc(v.m, o.m, Value.Equal)
	}
	return false
}

func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		b, _ := v.AsBool()
		sb.WriteString(strconv.FormatBool(b))
	case KindInt:
		if v.unsigned {
			sb.WriteString(strconv.FormatUint(v.bits, 10))
		} else {
			sb.WriteString(strconv.FormatInt(int64(v.bits), 10))
		}
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindBlob:
		fmt.Fprintf(sb, "blob(%x)", v.b)
	case KindList:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.format(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(v.m)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			v.m[k].format(sb)
		}
		sb.WriteByte('}')
	}
}
