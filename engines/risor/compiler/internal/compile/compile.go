package compile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	risorParser "github.com/risor-io/risor/parser"
)

// Compile parses and compiles exprText into bytecode. The names are the
// variables injected at eval time; together with the Risor builtins they are
// the only globals the expression may reference.
func Compile(exprText string, names []string) (*risorCompiler.Code, error) {
	if strings.TrimSpace(exprText) == "" {
		return nil, ErrContentEmpty
	}

	ast, err := risorParser.Parse(context.Background(), exprText)
	if err != nil {
		errMsg := err.Error()
		var friendlyErr risorErrors.FriendlyError
		if errors.As(err, &friendlyErr) {
			errMsg = friendlyErr.FriendlyErrorMessage()
		}
		return nil, fmt.Errorf("%w: %s", ErrCompileFailed, errMsg)
	}

	globalNames := append(risorLib.NewConfig().GlobalNames(), names...)
	bc, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(globalNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	if bc.InstructionCount() < 1 {
		return nil, ErrNoInstructions
	}
	return bc, nil
}
