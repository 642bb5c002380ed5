// Package starlark evaluates expressions written in Starlark.
package starlark

import (
	"log/slog"

	"github.com/robbyt/go-evalexpr/engines/starlark/compiler"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// NewCompiler returns a Starlark compiler for expressions that reference the
// given variables.
func NewCompiler(
	handler slog.Handler,
	variables []string,
	limits script.Limits,
	stateful bool,
) (*compiler.Compiler, error) {
	return compiler.New(
		compiler.WithLogHandler(handler),
		compiler.WithVariables(variables...),
		compiler.WithLimits(limits),
		compiler.WithStatefulScripts(stateful),
	)
}
