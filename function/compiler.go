package function

import (
	"fmt"

	"github.com/robbyt/go-evalexpr/engines/risor"
	"github.com/robbyt/go-evalexpr/engines/starlark"
	"github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/options"
	"github.com/robbyt/go-evalexpr/platform/script"
)

// newCompiler returns the compiler for the configured dialect.
func newCompiler(cfg *options.Config) (script.Compiler, error) {
	handler := cfg.GetHandler()
	vars := cfg.GetVariables()
	limits := cfg.GetLimits()

	switch cfg.GetDialect() {
	case types.Starlark:
		c, err := starlark.NewCompiler(handler, vars, limits, cfg.StatefulScripts())
		if err != nil {
			return nil, err
		}
		return c, nil
	case types.Risor:
		c, err := risor.NewCompiler(handler, vars, limits, cfg.StatefulScripts())
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", cfg.GetDialect())
	}
}
