package bridge

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
)

var typesByName = map[string]arrow.DataType{
	"null":         arrow.Null,
	"bool":         arrow.FixedWidthTypes.Boolean,
	"int8":         arrow.PrimitiveTypes.Int8,
	"int16":        arrow.PrimitiveTypes.Int16,
	"int32":        arrow.PrimitiveTypes.Int32,
	"int64":        arrow.PrimitiveTypes.Int64,
	"uint8":        arrow.PrimitiveTypes.Uint8,
	"uint16":       arrow.PrimitiveTypes.Uint16,
	"uint32":       arrow.PrimitiveTypes.Uint32,
	"uint64":       arrow.PrimitiveTypes.Uint64,
	"float16":      arrow.FixedWidthTypes.Float16,
	"float32":      arrow.PrimitiveTypes.Float32,
	"float64":      arrow.PrimitiveTypes.Float64,
	"utf8":         arrow.BinaryTypes.String,
	"large_utf8":   arrow.BinaryTypes.LargeString,
	"binary":       arrow.BinaryTypes.Binary,
	"large_binary": arrow.BinaryTypes.LargeBinary,
}

var typeAliases = map[string]string{
	"boolean": "bool",
	"string":  "utf8",
	"varchar": "utf8",
	"double":  "float64",
	"float":   "float32",
	"bigint":  "int64",
	"integer": "int32",
	"blob":    "binary",
}

// ParseType maps a configuration type name such as "int64" or "utf8" onto an
// Arrow data type. Names are case-insensitive.
func ParseType(name string) (arrow.DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := typeAliases[n]; ok {
		n = alias
	}
	dt, ok := typesByName[n]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTypeName, name)
	}
	return dt, nil
}

// CheckType reports whether values of dt can cross the bridge in either
// direction. Nested and host specific types fail with UnsupportedType.
func CheckType(dt arrow.DataType) error {
	if dt == nil {
		return evalerr.Wrap(evalerr.KindConversion, fmt.Errorf("%w: nil data type", evalerr.ErrUnsupportedType))
	}
	switch dt.ID() {
	case arrow.NULL, arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.LARGE_STRING,
		arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return nil
	default:
		return evalerr.Wrap(evalerr.KindConversion, fmt.Errorf("%w: %s", evalerr.ErrUnsupportedType, dt))
	}
}
