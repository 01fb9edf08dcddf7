package querybuilder

import "strings"

// Condition renders one predicate of a WHERE clause joined with AND.
type Condition interface {
	writeTo(w *sqlWriter)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func Lte(column string, value any) Condition {
	return compareCondition{column: column, op: "<=", value: value}
}

func (c compareCondition) writeTo(w *sqlWriter) {
	w.WriteString(c.column)
	w.WriteString(" " + c.op + " ")
	w.bind(c.value)
}

// EqLiteral inlines value as a quoted literal so the planner can use partial
// indexes on enum-like columns (status = 'OPEN').
func EqLiteral(column, value string) Condition {
	return rawCondition(column + " = '" + strings.ReplaceAll(value, "'", "''") + "'")
}

func IsNull(column string) Condition {
	return rawCondition(column + " IS NULL")
}

type rawCondition string

func (c rawCondition) writeTo(w *sqlWriter) {
	w.WriteString(string(c))
}

type inCondition[T any] struct {
	column string
	values []T
}

// In renders column IN (...). An empty list matches nothing.
func In[T any](column string, values []T) Condition {
	return inCondition[T]{column: column, values: values}
}

func (c inCondition[T]) writeTo(w *sqlWriter) {
	if len(c.values) == 0 {
		w.WriteString("1=0")
		return
	}

	w.WriteString(c.column)
	w.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.bind(v)
	}
	w.WriteString(")")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains is a case-insensitive substring match with LIKE wildcards in text
// escaped.
func Contains(column, text string) Condition {
	return compareCondition{column: column, op: "ILIKE", value: "%" + likeEscaper.Replace(text) + "%"}
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate with ? placeholders bound in order.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) writeTo(w *sqlWriter) {
	w.writeExpr(c.expr, c.args)
}
