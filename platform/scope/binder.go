package scope

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/robbyt/go-evalexpr/platform/bridge"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
	"github.com/robbyt/go-evalexpr/platform/value"
)

// Binder builds per-row Bindings from the columns of one batch. A Binder is
// created for a single evaluation call and must not outlive it, since it reads
// the caller's columns directly.
type Binder struct {
	names   []string
	readers []*bridge.Reader
	json    []bool
	rows    int
}

// BinderOption configures a Binder.
type BinderOption func(*binderConfig)

type binderConfig struct {
	json map[string]bool
}

// WithJSON decodes the text bound to the named variable as a JSON document.
// A cell that is not valid JSON fails its row with a conversion error.
func WithJSON(names ...string) BinderOption {
	return func(c *binderConfig) {
		for _, n := range names {
			c.json[n] = true
		}
	}
}

// NewBinder checks the batch against the declared variable names and returns a
// Binder for it. Column types are checked here, so an unsupported column fails
// before any row is evaluated.
func NewBinder(names []string, columns []arrow.Array, rows int, opts ...BinderOption) (*Binder, error) {
	cfg := binderConfig{json: make(map[string]bool)}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(names) != len(columns) {
		return nil, evalerr.Wrap(evalerr.KindBind, fmt.Errorf(
			"%w: %d variables declared, %d columns supplied",
			evalerr.ErrArityMismatch, len(names), len(columns)))
	}
	if err := CheckNames(names); err != nil {
		return nil, err
	}

	readers := make([]*bridge.Reader, len(columns))
	decode := make([]bool, len(columns))
	for i, col := range columns {
		r, err := bridge.NewReader(col)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", names[i], err)
		}
		if r.Len() != rows {
			return nil, evalerr.Wrap(evalerr.KindBind, fmt.Errorf(
				"%w: variable %q has %d rows, batch has %d", ErrColumnLength, names[i], r.Len(), rows))
		}
		if cfg.json[names[i]] {
			if !isText(r.DataType()) {
				return nil, evalerr.Wrap(evalerr.KindBind, fmt.Errorf(
					"%w: variable %q is %s", ErrNotText, names[i], r.DataType()))
			}
			decode[i] = true
		}
		readers[i] = r
	}

	return &Binder{names: names, readers: readers, json: decode, rows: rows}, nil
}

// CheckNames rejects duplicate variable names.
func CheckNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return evalerr.Wrap(evalerr.KindBind, fmt.Errorf("%w: %q", ErrDuplicateVariable, n))
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Rows returns the number of rows in the batch.
func (b *Binder) Rows() int { return b.rows }

// Names returns the declared variable names.
func (b *Binder) Names() []string { return b.names }

// Bind returns the scope of one row. Text and blob values are copied out of
// the columns.
func (b *Binder) Bind(row int) (Binding, error) {
	if row < 0 || row >= b.rows {
		return Binding{}, evalerr.Wrap(evalerr.KindBind,
			fmt.Errorf("%w: %d not in [0, %d)", ErrRowOutOfRange, row, b.rows))
	}
	values := make([]value.Value, len(b.readers))
	for i, r := range b.readers {
		v := r.Value(row)
		if b.json[i] && !v.IsNull() {
			text, _ := v.AsString()
			doc, err := value.ParseJSON([]byte(text))
			if err != nil {
				return Binding{}, evalerr.Wrap(evalerr.KindConversion,
					fmt.Errorf("variable %q: %w", b.names[i], err)).AtRow(row)
			}
			v = doc
		}
		values[i] = v
	}
	return Binding{names: b.names, values: values}, nil
}

func isText(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return true
	default:
		return false
	}
}
