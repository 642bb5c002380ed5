package internal

import (
	"fmt"

	starlarkLib "go.starlark.net/starlark"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

func unsupported(format string, args ...any) error {
	return evalerr.Wrap(evalerr.KindConversion,
		fmt.Errorf("%w: %s", evalerr.ErrUnsupportedType, fmt.Sprintf(format, args...)))
}

// ToStarlark converts a dynamic value into a Starlark value. Lists and maps
// are converted into new, unfrozen containers owned by the caller.
func ToStarlark(v value.Value) (starlarkLib.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return starlarkLib.None, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return starlarkLib.Bool(b), nil
	case value.KindInt:
		if i, ok := v.Int64(); ok {
			return starlarkLib.MakeInt64(i), nil
		}
		u, _ := v.Uint64()
		return starlarkLib.MakeUint64(u), nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return starlarkLib.Float(f), nil
	case value.KindString:
		s, _ := v.AsString()
		return starlarkLib.String(s), nil
	case value.KindBlob:
		b, _ := v.AsBlob()
		return starlarkLib.Bytes(b), nil
	case value.KindList:
		elems, _ := v.AsList()
		out := make([]starlarkLib.Value, len(elems))
		for i, e := range elems {
			sv, err := ToStarlark(e)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return starlarkLib.NewList(out), nil
	case value.KindMap:
		m, _ := v.AsMap()
		dict := starlarkLib.NewDict(len(m))
		for k, e := range m {
			sv, err := ToStarlark(e)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlarkLib.String(k), sv); err != nil {
				return nil, fmt.Errorf("failed to set dict key %q: %w", k, err)
			}
		}
		return dict, nil
	default:
		return nil, unsupported("dynamic kind %s", v.Kind())
	}
}

// FromStarlark converts a Starlark result into a dynamic value. Integers
// outside the int64 and uint64 ranges, dicts with non-string keys and values
// such as functions or modules are conversion errors.
func FromStarlark(v starlarkLib.Value) (value.Value, error) {
	if v == nil {
		return value.Null(), nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return value.Null(), nil
	case starlarkLib.Bool:
		return value.Bool(bool(v)), nil
	case starlarkLib.Int:
		if i, ok := v.Int64(); ok {
			return value.Int(i), nil
		}
		if u, ok := v.Uint64(); ok {
			return value.Uint(u), nil
		}
		return value.Null(), evalerr.Wrap(evalerr.KindConversion,
			fmt.Errorf("%w: integer %s does not fit in 64 bits", evalerr.ErrOverflow, v))
	case starlarkLib.Float:
		return value.Float(float64(v)), nil
	case starlarkLib.String:
		return value.String(string(v)), nil
	case starlarkLib.Bytes:
		return value.Blob([]byte(v)), nil
	case *starlarkLib.List:
		return fromIterable(v, v.Len())
	case starlarkLib.Tuple:
		return fromIterable(v, v.Len())
	case *starlarkLib.Set:
		return fromIterable(v, v.Len())
	case *starlarkLib.Dict:
		m := make(map[string]value.Value, v.Len())
		for _, item := range v.Items() {
			k, ok := item[0].(starlarkLib.String)
			if !ok {
				return value.Null(), evalerr.Wrap(evalerr.KindConversion, fmt.Errorf(
					"%w: dict key %s is a %s, want string", evalerr.ErrTypeMismatch, item[0], item[0].Type()))
			}
			e, err := FromStarlark(item[1])
			if err != nil {
				return value.Null(), err
			}
			m[string(k)] = e
		}
		return value.Map(m), nil
	default:
		return value.Null(), unsupported("starlark %s", v.Type())
	}
}

func fromIterable(v starlarkLib.Iterable, n int) (value.Value, error) {
	elems := make([]value.Value, 0, n)
	iter := v.Iterate()
	defer iter.Done()
	var x starlarkLib.Value
	for iter.Next(&x) {
		e, err := FromStarlark(x)
		if err != nil {
			return value.Null(), err
		}
		elems = append(elems, e)
	}
	return value.List(elems...), nil
}
