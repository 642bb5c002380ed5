package evalerr

import "go.uber.org/multierr"

// Combine merges per-row errors, skipping nil entries. It returns nil when
// every entry is nil.
func Combine(errs []*Error) error {
	var out error
	for _, e := range errs {
		if e != nil {
			out = multierr.Append(out, e)
		}
	}
	return out
}

// Errors splits an error produced by Combine back into its parts.
func Errors(err error) []error {
	// A single *Error is returned by Combine as is; its Unwrap must not split it.
	if e, ok := err.(*Error); ok {
		return []error{e}
	}
	return multierr.Errors(err)
}
