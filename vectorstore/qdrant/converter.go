package qdrant

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cast"

	"financebuddy/core/vectorstore/filter"
)

// ToFilter converts the conjunctive filter.Filter into a qdrant.Filter. Every
// condition lands in Must, except Ne conditions, which land in MustNot as the
// matching positive condition; together they still express AND.
func ToFilter(f *filter.Filter) (*qdrant.Filter, error) {
	if f.Empty() {
		return nil, nil
	}

	qf := &qdrant.Filter{}
	for _, c := range f.Conditions {
		cond, negate, err := toCondition(c)
		if err != nil {
			return nil, err
		}
		if negate {
			qf.MustNot = append(qf.MustNot, cond)
		} else {
			qf.Must = append(qf.Must, cond)
		}
	}
	return qf, nil
}

func toCondition(c filter.Condition) (cond *qdrant.Condition, negate bool, err error) {
	switch c.Op {
	case filter.OpEq:
		cond, err = matchCondition(c.Field, c.Value)
		return cond, false, err
	case filter.OpNe:
		cond, err = matchCondition(c.Field, c.Value)
		return cond, true, err
	case filter.OpIn:
		cond, err = matchAnyCondition(c.Field, c.Value)
		return cond, false, err
	case filter.OpGte:
		v, castErr := cast.ToFloat64E(c.Value)
		if castErr != nil {
			return nil, false, fmt.Errorf("qdrant: gte value for %q is not numeric: %w", c.Field, castErr)
		}
		return qdrant.NewRange(c.Field, &qdrant.Range{Gte: &v}), false, nil
	case filter.OpLte:
		v, castErr := cast.ToFloat64E(c.Value)
		if castErr != nil {
			return nil, false, fmt.Errorf("qdrant: lte value for %q is not numeric: %w", c.Field, castErr)
		}
		return qdrant.NewRange(c.Field, &qdrant.Range{Lte: &v}), false, nil
	default:
		return nil, false, fmt.Errorf("qdrant: unsupported filter op %q", c.Op)
	}
}

func matchCondition(field string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatchKeyword(field, v), nil
	case bool:
		return qdrant.NewMatchBool(field, v), nil
	case int, int32, int64, float32, float64:
		return qdrant.NewMatchInt(field, cast.ToInt64(v)), nil
	default:
		return nil, fmt.Errorf("qdrant: unsupported match value type %T for field %q", value, field)
	}
}

func matchAnyCondition(field string, value any) (*qdrant.Condition, error) {
	values, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("qdrant: in-filter value for %q must be a slice", field)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("qdrant: in-filter for %q has no values", field)
	}

	switch values[0].(type) {
	case string:
		keywords := make([]string, len(values))
		for i, v := range values {
			keywords[i] = cast.ToString(v)
		}
		return qdrant.NewMatchKeywords(field, keywords...), nil
	default:
		ints := make([]int64, len(values))
		for i, v := range values {
			n, err := cast.ToInt64E(v)
			if err != nil {
				return nil, fmt.Errorf("qdrant: in-filter value %v for %q is not numeric: %w", v, field, err)
			}
			ints[i] = n
		}
		return qdrant.NewMatchInts(field, ints...), nil
	}
}
