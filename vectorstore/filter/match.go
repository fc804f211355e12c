package filter

import (
	"fmt"

	"github.com/spf13/cast"
)

// Matches reports whether metadata satisfies every condition in f. A nil or
// empty filter matches everything.
func (f *Filter) Matches(metadata map[string]any) bool {
	if f.Empty() {
		return true
	}
	for _, c := range f.Conditions {
		if !matchOne(c, metadata[c.Field]) {
			return false
		}
	}
	return true
}

func matchOne(c Condition, actual any) bool {
	switch c.Op {
	case OpEq:
		return equal(actual, c.Value)
	case OpNe:
		return !equal(actual, c.Value)
	case OpIn:
		values, _ := c.Value.([]any)
		for _, v := range values {
			if equal(actual, v) {
				return true
			}
		}
		return false
	case OpGte:
		a, err1 := cast.ToFloat64E(actual)
		b, err2 := cast.ToFloat64E(c.Value)
		return err1 == nil && err2 == nil && a >= b
	case OpLte:
		a, err1 := cast.ToFloat64E(actual)
		b, err2 := cast.ToFloat64E(c.Value)
		return err1 == nil && err2 == nil && a <= b
	default:
		return false
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	// Compare via string representation so numeric/string metadata values
	// coming from a JSON-sourced corpus (float64 vs int vs string) compare
	// sanely without a type-switch per possible metadata value type.
	return fmt.Sprint(a) == fmt.Sprint(b)
}
