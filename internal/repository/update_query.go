package repository

import (
	"fmt"
	"strings"

	"github.com/Baaaki/storefront/internal/apperror"
)

// updatableColumns is the only source of identifiers interpolated into
// UPDATE statements.
var updatableColumns = map[string]map[string]bool{
	"users":    {"firstname": true, "lastname": true, "username": true, "password": true},
	"products": {"name": true, "price": true, "category": true},
	"orders":   {"state": true},
}

// Field is one column assignment of a partial update.
type Field struct {
	Column string
	Value  any
}

type UpdateQuery struct {
	SQL  string
	Args []any
}

// BuildUpdateQuery renders "UPDATE <table> SET c1 = ?, c2 = ? WHERE id = ? RETURNING *".
// Columns keep the order of fields; values are bound, never interpolated.
func BuildUpdateQuery(table string, fields []Field, id int64) (UpdateQuery, error) {
	allowed, ok := updatableColumns[table]
	if !ok {
		return UpdateQuery{}, apperror.Internal(fmt.Errorf("table %q is not updatable", table))
	}
	if len(fields) == 0 {
		return UpdateQuery{}, apperror.ErrNoFieldsProvided
	}

	var sb strings.Builder
	args := make([]any, 0, len(fields)+1)

	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")

	for i, f := range fields {
		if !allowed[f.Column] {
			return UpdateQuery{}, apperror.Internal(fmt.Errorf("column %q of %s is not updatable", f.Column, table))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Column)
		sb.WriteString(" = ?")
		args = append(args, f.Value)
	}

	sb.WriteString(" WHERE id = ? RETURNING *")
	args = append(args, id)

	return UpdateQuery{SQL: sb.String(), Args: args}, nil
}
