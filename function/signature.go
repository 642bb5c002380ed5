package function

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/robbyt/go-evalexpr/platform/bridge"
	"github.com/robbyt/go-evalexpr/platform/evalerr"
)

// Signature declares how a scalar function is called. The first argument is
// always the expression text; the rest are bound to Variables in order.
type Signature struct {
	Name      string
	Variables []string
	Return    arrow.DataType
}

// Arity returns the number of arguments, the expression included.
func (s Signature) Arity() int { return 1 + len(s.Variables) }

func (s Signature) String() string {
	args := make([]string, 0, s.Arity())
	args = append(args, "expr utf8")
	for _, v := range s.Variables {
		args = append(args, v+" any")
	}
	ret := "null"
	if s.Return != nil {
		ret = s.Return.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", s.Name, strings.Join(args, ", "), ret)
}

// Check validates the columns of rec against the signature before any row is
// evaluated.
func (s Signature) Check(rec arrow.Record) error {
	if rec == nil {
		return evalerr.New(evalerr.KindBind, "%s: nil record", s.Name)
	}
	if int(rec.NumCols()) != s.Arity() {
		return evalerr.Wrap(evalerr.KindBind, fmt.Errorf(
			"%w: %s takes %d arguments, got %d", evalerr.ErrArityMismatch, s.Name, s.Arity(), rec.NumCols()))
	}
	switch dt := rec.Column(0).DataType(); dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
	default:
		return evalerr.Wrap(evalerr.KindBind, fmt.Errorf("%w: got %s", ErrExprColumn, dt))
	}
	for i, name := range s.Variables {
		if err := bridge.CheckType(rec.Column(i + 1).DataType()); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}
	return nil
}

// envelopeType is the struct returned in envelope error mode.
func envelopeType(ok arrow.DataType) *arrow.StructType {
	return arrow.StructOf(
		arrow.Field{Name: "ok", Type: ok, Nullable: true},
		arrow.Field{Name: "error", Type: arrow.BinaryTypes.String, Nullable: true},
	)
}
