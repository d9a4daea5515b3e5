// Package querybuilder renders the few Postgres statements the document store
// issues, with $n placeholders.
package querybuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Condition is one AND-ed term of a WHERE clause.
type Condition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return Condition{column: column, value: value}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
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

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, errors.New("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("select table is required")
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)

	args := make([]any, 0, len(b.where))
	for i, c := range b.where {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		args = append(args, c.value)
		buf.WriteString(c.column + " = " + placeholder(len(args)))
	}
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}

	return buf.String(), args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	values  []any
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
	b.values = append([]any(nil), values...)
	return b
}

// Suffix is appended verbatim, typically an ON CONFLICT clause.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, errors.New("insert columns are required")
	}
	if len(b.values) != len(b.columns) {
		return "", nil, fmt.Errorf("insert has %d values for %d columns", len(b.values), len(b.columns))
	}

	placeholders := make([]string, len(b.values))
	for i := range b.values {
		placeholders[i] = placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(b.columns, ", "), strings.Join(placeholders, ", "))
	if b.suffix != "" {
		query += " " + b.suffix
	}
	return query, append([]any(nil), b.values...), nil
}

func placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}
