package db

import (
	"fmt"
	"strings"
)

// Update accumulates column assignments for a dynamic single-row UPDATE.
// Column names come from code, never from request input.
type Update struct {
	table string
	sets  []string
	args  []any
}

// NewUpdate starts an UPDATE against table.
func NewUpdate(table string) *Update {
	return &Update{table: table}
}

// Set assigns value to column.
func (u *Update) Set(column string, value any) *Update {
	u.args = append(u.args, value)
	u.sets = append(u.sets, fmt.Sprintf("%s = $%d", column, len(u.args)))
	return u
}

// SetRaw appends an assignment with no argument, such as "updated_at = NOW()".
func (u *Update) SetRaw(assignment string) *Update {
	u.sets = append(u.sets, assignment)
	return u
}

// Empty reports whether no column was set with Set.
func (u *Update) Empty() bool {
	return len(u.args) == 0
}

// Build returns the statement keyed on id and its arguments.
func (u *Update) Build(id any, returning string) (string, []any) {
	args := append(append([]any{}, u.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", u.table, strings.Join(u.sets, ", "), len(args))
	if returning != "" {
		query += " RETURNING " + returning
	}
	return query, args
}
