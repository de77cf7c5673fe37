package model

import (
	"fmt"
	"strings"
)

// Row is one structured value flowing between ops.
type Row []any

// Append returns a new row made of r followed by values. r is never modified.
func (r Row) Append(values ...any) Row {
	out := make(Row, 0, len(r)+len(values))
	out = append(out, r...)

	return append(out, values...)
}

// Copy returns a shallow copy of r.
func (r Row) Copy() Row {
	if r == nil {
		return nil
	}

	out := make(Row, len(r))
	copy(out, r)

	return out
}

func (r Row) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = fmt.Sprintf("%v", v)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}
