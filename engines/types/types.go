package types

import (
	"fmt"
	"strings"
)

// Type names a scripting dialect that can evaluate expressions.
type Type string

const (
	// Starlark engine: https://github.com/google/starlark-go
	Starlark Type = "starlark"
	// Risor engine: https://github.com/risor-io/risor
	Risor Type = "risor"
)

// All lists the supported dialects.
var All = []Type{Starlark, Risor}

// Parse returns the dialect with the given case-insensitive name.
func Parse(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	switch t {
	case Starlark, Risor:
		return t, nil
	default:
		return "", fmt.Errorf("unknown dialect %q", name)
	}
}

func (t Type) String() string { return string(t) }
