// Package querybuilder renders small SELECT/INSERT/UPDATE/DELETE statements with
// bind-var placeholders ("?"). Callers rebind to the driver's placeholder style
// (sqlx.DB.Rebind) before executing, so one query shape serves SQLite and Postgres.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func NotEq(column string, value any) Condition {
	return compareCondition{column: column, op: "<>", value: value}
}

func Gte(column string, value any) Condition {
	return compareCondition{column: column, op: ">=", value: value}
}

func Lt(column string, value any) Condition {
	return compareCondition{column: column, op: "<", value: value}
}

func (c compareCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.column)
	buf.WriteString(" ")
	buf.WriteString(c.op)
	buf.WriteString(" ?")
	*args = append(*args, c.value)
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

// InStrings is In for the common string-key case.
func InStrings(column string, values []string) Condition {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return inCondition{column: column, values: out}
}

func (c inCondition) appendSQL(buf *strings.Builder, args *[]any) {
	if len(c.values) == 0 {
		buf.WriteString("1=0")
		return
	}

	buf.WriteString(c.column)
	buf.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("?")
		*args = append(*args, v)
	}
	buf.WriteString(")")
}

type nullCondition struct {
	column string
	not    bool
}

func IsNull(column string) Condition {
	return nullCondition{column: column}
}

func IsNotNull(column string) Condition {
	return nullCondition{column: column, not: true}
}

func (c nullCondition) appendSQL(buf *strings.Builder, _ *[]any) {
	buf.WriteString(c.column)
	if c.not {
		buf.WriteString(" IS NOT NULL")
		return
	}
	buf.WriteString(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr embeds a raw SQL fragment; "?" inside expr binds to args in order.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.expr)
	*args = append(*args, c.args...)
}

type SelectBuilder struct {
	columns []string
	table   string
	joins   []string
	where   []Condition
	groupBy []string
	orderBy []string
	limit   int
	offset  int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Join(clause string) *SelectBuilder {
	b.joins = append(b.joins, "JOIN "+clause)
	return b
}

func (b *SelectBuilder) LeftJoin(clause string) *SelectBuilder {
	b.joins = append(b.joins, "LEFT JOIN "+clause)
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) Offset(offset int) *SelectBuilder {
	b.offset = offset
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)
	for _, join := range b.joins {
		buf.WriteString(" ")
		buf.WriteString(join)
	}

	args := make([]any, 0, len(b.where))
	appendWhereClause(&buf, b.where, &args)
	appendListClause(&buf, " GROUP BY ", b.groupBy)
	appendListClause(&buf, " ORDER BY ", b.orderBy)
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
		if b.offset > 0 {
			buf.WriteString(" OFFSET ")
			buf.WriteString(strconv.Itoa(b.offset))
		}
	}

	return buf.String(), args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix appends a raw clause such as "ON CONFLICT (...) DO UPDATE SET ...".
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		buf.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(row)), ", "))
		buf.WriteString(")")
		args = append(args, row...)
	}

	if b.suffix != "" {
		buf.WriteString(" ")
		buf.WriteString(b.suffix)
	}

	return buf.String(), args, nil
}

type setClause struct {
	column string
	expr   string
	args   []any
}

type UpdateBuilder struct {
	table string
	sets  []setClause
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, expr: "?", args: []any{value}})
	return b
}

// SetExpr assigns a raw expression; "?" inside expr binds to args in order.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, expr: expr, args: args})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var buf strings.Builder
	buf.WriteString("UPDATE ")
	buf.WriteString(b.table)
	buf.WriteString(" SET ")

	args := make([]any, 0, len(b.sets)+len(b.where))
	for i, s := range b.sets {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s.column)
		buf.WriteString(" = ")
		buf.WriteString(s.expr)
		args = append(args, s.args...)
	}

	appendWhereClause(&buf, b.where, &args)
	return buf.String(), args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete without where clause is not allowed")
	}

	var buf strings.Builder
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)

	args := make([]any, 0, len(b.where))
	appendWhereClause(&buf, b.where, &args)
	return buf.String(), args, nil
}

func appendWhereClause(buf *strings.Builder, conditions []Condition, args *[]any) {
	if len(conditions) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c.appendSQL(buf, args)
	}
}

func appendListClause(buf *strings.Builder, keyword string, parts []string) {
	if len(parts) == 0 {
		return
	}
	buf.WriteString(keyword)
	buf.WriteString(strings.Join(parts, ", "))
}
