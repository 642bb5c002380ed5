// Package risor evaluates expressions written in Risor.
package risor

import (
	"log/slog"

	"github.com/robbyt/go-evalexpr/engines/risor/compiler"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// NewCompiler returns a Risor compiler for expressions that reference the
// given variables. Risor keeps no interpreter state between rows, so stateful
// scripts are rejected.
func NewCompiler(
	handler slog.Handler,
	variables []string,
	limits script.Limits,
	stateful bool,
) (*compiler.Compiler, error) {
	if stateful {
		return nil, compiler.ErrStatefulNotSupported
	}
	return compiler.New(
		compiler.WithLogHandler(handler),
		compiler.WithVariables(variables...),
		compiler.WithLimits(limits),
	)
}
