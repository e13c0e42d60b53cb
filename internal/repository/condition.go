package repository

import "strings"

// Condition is a composable predicate over an entity's columns. The zero
// value means "no condition"; mutating operations interpret it as "skip
// the check" while reads interpret it as "match everything".
type Condition struct {
	expr string // SQL fragment with ? placeholders
	args []any
}

// Eq matches rows where column equals value
func Eq(column string, value any) Condition {
	return Condition{expr: column + " = ?", args: []any{value}}
}

// Ne matches rows where column does not equal value
func Ne(column string, value any) Condition {
	return Condition{expr: column + " <> ?", args: []any{value}}
}

// And combines conditions conjunctively. Zero-value operands are skipped.
func And(conds ...Condition) Condition {
	var exprs []string
	var args []any
	for _, c := range conds {
		if c.IsZero() {
			continue
		}
		exprs = append(exprs, "("+c.expr+")")
		args = append(args, c.args...)
	}
	if len(exprs) == 0 {
		return Condition{}
	}
	return Condition{expr: strings.Join(exprs, " AND "), args: args}
}

// All matches every row
func All() Condition {
	return Condition{expr: "TRUE"}
}

// IsZero reports whether the condition is the zero "no condition" value
func (c Condition) IsZero() bool {
	return c.expr == ""
}

// SQL returns the WHERE fragment (with ? placeholders) and its arguments.
// The zero condition renders as TRUE.
func (c Condition) SQL() (string, []any) {
	if c.IsZero() {
		return "TRUE", nil
	}
	return c.expr, c.args
}
