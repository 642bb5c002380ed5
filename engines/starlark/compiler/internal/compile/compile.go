package compile

import (
	"fmt"
	"strings"

	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/robbyt/go-evalexpr/engines/starlark/internal"
)

const filename = "expr.star"

func fileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{Set: true}
}

// Compile checks that exprText is exactly one Starlark expression and compiles
// it into a program that stores the expression value in internal.ResultName.
//
// Names not listed in predeclared, the standard modules or the universe are
// rejected here rather than at run time.
func Compile(exprText string, predeclared []string) (*starlarkLib.Program, error) {
	if strings.TrimSpace(exprText) == "" {
		return nil, ErrContentEmpty
	}
	opts := fileOptions()

	// Parsing the bare text first keeps input such as "1) + (2" from
	// escaping the parentheses added below.
	if _, err := opts.ParseExpr(filename, exprText, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	src := internal.ResultName + " = (\n" + exprText + "\n)\n"
	f, err := opts.Parse(filename, src, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	names := internal.StarlarkModules()
	for _, n := range predeclared {
		names[n] = starlarkLib.None
	}

	prog, err := starlarkLib.FileProgram(f, names.Has)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return prog, nil
}
