package dbx

import "strings"

// Placeholders returns n comma-separated '?' markers for IN clauses.
func Placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Args converts a string id list to the []any form ExecContext expects.
func Args(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
