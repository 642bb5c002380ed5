package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/robbyt/go-evalexpr/engines/types"
	"github.com/robbyt/go-evalexpr/platform/scope"
	"github.com/robbyt/go-evalexpr/platform/script"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Compiler is a mock implementation of script.Compiler for testing purposes.
type Compiler struct {
	mock.Mock
}

// Compile is a mock implementation of the Compile method.
func (m *Compiler) Compile(exprText string) (script.Program, error) {
	args := m.Called(exprText)
	prog, _ := args.Get(0).(script.Program)
	return prog, args.Error(1)
}

// Program is a mock implementation of script.Program for testing purposes.
type Program struct {
	mock.Mock
}

// GetSource is a mock implementation of the GetSource method.
func (m *Program) GetSource() string {
	args := m.Called()
	return args.String(0)
}

// GetMachineType is a mock implementation of the GetMachineType method.
func (m *Program) GetMachineType() types.Type {
	args := m.Called()
	return args.Get(0).(types.Type)
}

// NewRunner is a mock implementation of the NewRunner method.
func (m *Program) NewRunner() script.Runner {
	args := m.Called()
	return args.Get(0).(script.Runner)
}

// Runner is a mock implementation of script.Runner for testing purposes.
type Runner struct {
	mock.Mock
}

// Run is a mock implementation of the Run method.
func (m *Runner) Run(ctx context.Context, b scope.Binding) (value.Value, error) {
	args := m.Called(ctx, b)
	v, _ := args.Get(0).(value.Value)
	return v, args.Error(1)
}
