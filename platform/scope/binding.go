package scope

import (
	"fmt"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Binding maps variable names to the values of one row. Bindings are built per
// row and are not shared across rows or goroutines.
type Binding struct {
	names  []string
	values []value.Value
}

// New returns a Binding of names to values. The slices are used as is.
func New(names []string, values []value.Value) (Binding, error) {
	if len(names) != len(values) {
		return Binding{}, evalerr.Wrap(evalerr.KindBind, fmt.Errorf(
			"%w: %d variables, %d values", evalerr.ErrArityMismatch, len(names), len(values)))
	}
	return Binding{names: names, values: values}, nil
}

// Len returns the number of bound variables.
func (b Binding) Len() int { return len(b.names) }

// Name returns the name of variable i.
func (b Binding) Name(i int) string { return b.names[i] }

// Value returns the value of variable i.
func (b Binding) Value(i int) value.Value { return b.values[i] }

// Lookup returns the value bound to name.
func (b Binding) Lookup(name string) (value.Value, bool) {
	for i, n := range b.names {
		if n == name {
			return b.values[i], true
		}
	}
	return value.Null(), false
}

// HasNull reports whether any bound variable is Null.
func (b Binding) HasNull() bool {
	for _, v := range b.values {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// All iterates over name, value pairs in declaration order.
func (b Binding) All(yield func(string, value.Value) bool) {
	for i, n := range b.names {
		if !yield(n, b.values[i]) {
			return
		}
	}
}
