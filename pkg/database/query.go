package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a lower-cased LIKE pattern matching s anywhere. Wildcards
// in s match literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// ILike is a case-insensitive LIKE condition on column that works on both
// postgres and sqlite. Use it with ContainsPattern.
func ILike(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '\\'"
}
