package element

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/playmatatu/pinball/internal/vmath"
)

// Prop is one entry of an element's getter/setter table. A nil Set makes the
// property read-only.
type Prop struct {
	Get func() any
	Set func(value any) error
}

func numProp(get func() float64, set func(float64) error) Prop {
	p := Prop{Get: func() any { return get() }}
	if set != nil {
		p.Set = func(v any) error {
			f, err := toFloat(v)
			if err != nil {
				return err
			}
			return set(f)
		}
	}
	return p
}

func boolProp(get func() bool, set func(bool) error) Prop {
	p := Prop{Get: func() any { return get() }}
	if set != nil {
		p.Set = func(v any) error {
			b, err := toBool(v)
			if err != nil {
				return err
			}
			return set(b)
		}
	}
	return p
}

// floatField binds a plain float field with optional clamping.
func floatField(f *float64, lo, hi float64) Prop {
	return numProp(func() float64 { return *f }, func(v float64) error {
		if lo < hi {
			v = vmath.Clamp(v, lo, hi)
		}
		*f = v
		return nil
	})
}

func boolField(f *bool) Prop {
	return boolProp(func() bool { return *f }, func(v bool) error {
		*f = v
		return nil
	})
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidArgument, n)
		}
		return f, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidArgument, v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidArgument, b)
		}
		return parsed, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

// argFloat reads an optional numeric argument.
func argFloat(args []any, i int, def float64) (float64, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	return toFloat(args[i])
}
