// Package filter implements the conjunctive metadata filter vector stores
// apply during searchSimilar/delete (spec.md §4.2: "filters are
// conjunctive"). This is deliberately not a query language: no boolean
// precedence, parentheses, or OR — every condition must hold.
package filter

// Op is a comparison applied to one metadata field.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpIn  Op = "in"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// Condition is one field comparison within a conjunctive Filter.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction (AND) of Conditions.
type Filter struct {
	Conditions []Condition
}

func New(conditions ...Condition) *Filter {
	return &Filter{Conditions: conditions}
}

func Eq(field string, value any) Condition  { return Condition{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value any) Condition  { return Condition{Field: field, Op: OpNe, Value: value} }
func In(field string, values []any) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}
func Gte(field string, value any) Condition { return Condition{Field: field, Op: OpGte, Value: value} }
func Lte(field string, value any) Condition { return Condition{Field: field, Op: OpLte, Value: value} }

// And appends a condition and returns the filter for chaining.
func (f *Filter) And(c Condition) *Filter {
	f.Conditions = append(f.Conditions, c)
	return f
}

// Empty reports whether the filter has no conditions (matches everything).
func (f *Filter) Empty() bool {
	return f == nil || len(f.Conditions) == 0
}
