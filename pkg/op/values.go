package op

import (
	"cmp"

	"github.com/pkg/errors"
)

var ErrIncompatibleTypes = errors.New("incompatible types")

// normalize converts the integer and float types to int64 and float64.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case uint:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// numbers returns a and b as two int64, or as two float64 when one of them is a float.
func numbers(a, b any) (any, any, bool) {
	a, b = normalize(a), normalize(b)

	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x, y, true
		case float64:
			return float64(x), y, true
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return x, float64(y), true
		case float64:
			return x, y, true
		}
	}

	return nil, nil, false
}

// compare orders two numbers, two strings or two bools.
func compare(a, b any) (int, error) {
	if x, y, ok := numbers(a, b); ok {
		switch xx := x.(type) {
		case int64:
			return cmp.Compare(xx, y.(int64)), nil
		default:
			return cmp.Compare(xx.(float64), y.(float64)), nil
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			default:
				return 1, nil
			}
		}
	}

	return 0, errors.Wrapf(ErrIncompatibleTypes, "cannot compare %T and %T", a, b)
}

func add(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		if xx, isInt := x.(int64); isInt {
			return xx + y.(int64), nil
		}

		return x.(float64) + y.(float64), nil
	}

	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return x + y, nil
		}
	}

	return nil, errors.Wrapf(ErrIncompatibleTypes, "cannot add %T and %T", a, b)
}

func multiply(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		if xx, isInt := x.(int64); isInt {
			return xx * y.(int64), nil
		}

		return x.(float64) * y.(float64), nil
	}

	return nil, errors.Wrapf(ErrIncompatibleTypes, "cannot multiply %T and %T", a, b)
}
