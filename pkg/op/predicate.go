package op

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var ErrBadPredicate = errors.New("incorrect predicate")

var comparisons = map[string]func(int) bool{
	"==": func(c int) bool { return c == 0 },
	"!=": func(c int) bool { return c != 0 },
	"<":  func(c int) bool { return c < 0 },
	"<=": func(c int) bool { return c <= 0 },
	">":  func(c int) bool { return c > 0 },
	">=": func(c int) bool { return c >= 0 },
}

// Predicate compares one column of a row with a literal: "COL CMP LITERAL",
// COL being the index of the column. A literal is an integer, a float, true, false,
// or a string, optionally double quoted.
type Predicate struct {
	Source  string
	Column  int
	Op      string
	Literal any
}

// ParsePredicate compiles the source of a predicate.
func ParsePredicate(source string) (*Predicate, error) {
	fields := strings.Fields(source)
	if len(fields) < 3 {
		return nil, errors.Wrapf(ErrBadPredicate, "%q: expected COL CMP LITERAL", source)
	}

	col, err := strconv.Atoi(fields[0])
	if err != nil || col < 0 {
		return nil, errors.Wrapf(ErrBadPredicate, "%q: column %q is not an index", source, fields[0])
	}

	if _, ok := comparisons[fields[1]]; !ok {
		return nil, errors.Wrapf(ErrBadPredicate, "%q: unknown comparison %q", source, fields[1])
	}

	literal := strings.Join(fields[2:], " ")

	return &Predicate{
		Source:  strings.Join(fields, " "),
		Column:  col,
		Op:      fields[1],
		Literal: parseLiteral(literal),
	}, nil
}

func parseLiteral(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if s == "true" || s == "false" {
		return s == "true"
	}

	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}

	return s
}

// Match evaluates the predicate on row.
func (p *Predicate) Match(row model.Row) (bool, error) {
	if p.Column >= len(row) {
		return false, errors.Wrapf(ErrBadPredicate, "%q: row has no column %d", p.Source, p.Column)
	}

	c, err := compare(row[p.Column], p.Literal)
	if err != nil {
		return false, err
	}

	return comparisons[p.Op](c), nil
}
