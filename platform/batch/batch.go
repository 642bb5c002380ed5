package batch

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/segmentio/ksuid"

	"github.com/robbyt/go-evalexpr/platform/evalerr"
)

// ColumnBatch is the read-only input of one evaluation call: the columns bound
// to the declared variables, in declaration order, and the row count.
type ColumnBatch struct {
	Columns []arrow.Array
	NumRows int
}

// FromRecord returns the batch made of the record columns starting at first.
// The record must stay alive for the duration of the evaluation call.
func FromRecord(rec arrow.Record, first int) ColumnBatch {
	cols := rec.Columns()
	if first > len(cols) {
		first = len(cols)
	}
	return ColumnBatch{Columns: cols[first:], NumRows: int(rec.NumRows())}
}

// Result holds one output slot per input row. A row either has a value in
// Column (possibly NULL) and a nil entry in Errors, or a NULL in Column and
// its error record in Errors.
type Result struct {
	CallID ksuid.KSUID
	Column arrow.Array
	Errors []*evalerr.Error
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r.Column == nil {
		return 0
	}
	return r.Column.Len()
}

// Failed returns the number of rows with an error record.
func (r *Result) Failed() int {
	n := 0
	for _, e := range r.Errors {
		if e != nil {
			n++
		}
	}
	return n
}

// Err returns every row error combined, or nil when all rows succeeded.
func (r *Result) Err() error {
	return evalerr.Combine(r.Errors)
}

// Release releases the output column.
func (r *Result) Release() {
	if r.Column != nil {
		r.Column.Release()
		r.Column = nil
	}
}
