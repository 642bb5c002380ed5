package internal

import (
	"fmt"
	"math"

	"github.com/risor-io/risor/object"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// ToRisor converts a dynamic value into a Risor object. Risor integers are
// int64, so unsigned values above math.MaxInt64 are conversion errors.
func ToRisor(v value.Value) (object.Object, error) {
	switch v.Kind() {
	case value.KindNull:
		return object.Nil, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return object.NewBool(b), nil
	case value.KindInt:
		i, ok := v.Int64()
		if !ok {
			u, _ := v.Uint64()
			return nil, evalerr.Wrap(evalerr.KindConversion, fmt.Errorf(
				"%w: %d exceeds the risor integer range (max %d)", evalerr.ErrOverflow, u, int64(math.MaxInt64)))
		}
		return object.NewInt(i), nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return object.NewFloat(f), nil
	case value.KindString:
		s, _ := v.AsString()
		return object.NewString(s), nil
	case value.KindBlob:
		b, _ := v.AsBlob()
		return object.NewByteSlice(b), nil
	case value.KindList:
		elems, _ := v.AsList()
		items := make([]object.Object, len(elems))
		for i, e := range elems {
			o, err := ToRisor(e)
			if err != nil {
				return nil, err
			}
			items[i] = o
		}
		return object.NewList(items), nil
	case value.KindMap:
		m, _ := v.AsMap()
		items := make(map[string]object.Object, len(m))
		for k, e := range m {
			o, err := ToRisor(e)
			if err != nil {
				return nil, err
			}
			items[k] = o
		}
		return object.NewMap(items), nil
	default:
		return nil, evalerr.Wrap(evalerr.KindConversion,
			fmt.Errorf("%w: dynamic kind %s", evalerr.ErrUnsupportedType, v.Kind()))
	}
}

// FromRisor converts a Risor result into a dynamic value. An error object is
// reported as a runtime error.
func FromRisor(obj object.Object) (value.Value, error) {
	if obj == nil {
		return value.Null(), nil
	}
	if errObj, ok := obj.(*object.Error); ok {
		return value.Null(), evalerr.Wrap(evalerr.KindRuntime, errObj.Value())
	}

	v, err := value.FromGo(obj.Interface())
	if err != nil {
		return value.Null(), evalerr.Wrap(evalerr.KindConversion, fmt.Errorf(
			"%w: risor %s: %w", evalerr.ErrUnsupportedType, obj.Type(), err))
	}
	return v, nil
}
