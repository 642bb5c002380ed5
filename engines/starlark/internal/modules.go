package internal

import (
	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
)

// Module namespaces predeclared for every expression. The compiler and the
// evaluator must agree on them, otherwise an expression that resolved at
// compile time fails to run.
const (
	namespaceJSON = "json"
	namespaceMath = "math"
	namespaceTime = "time"
)

const (
	// ResultName is the global the compiled program assigns the expression value to.
	ResultName = "__evalexpr_result__"

	// StateName is the dict that survives across the rows of one evaluation
	// call when stateful scripts are enabled.
	StateName = "state"
)

// StarlarkModules returns a fresh dict of the standard modules.
func StarlarkModules() starlarkLib.StringDict {
	return starlarkLib.StringDict{
		namespaceJSON: starlarkJSON.Module,
		namespaceMath: starlarkMath.Module,
		namespaceTime: starlarkTime.Module,
	}
}

// IsReserved reports whether name cannot be used as a variable name.
// Variables may shadow universal builtins such as len or str.
func IsReserved(name string) bool {
	switch name {
	case namespaceJSON, namespaceMath, namespaceTime, ResultName, StateName:
		return true
	default:
		return false
	}
}
