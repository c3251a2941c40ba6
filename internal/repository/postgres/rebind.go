package postgres

import (
	"strconv"
	"strings"
)

// rebind rewrites ? placeholders to $n for the postgres drivers.
// Question marks inside single-quoted literals are left alone.
func rebind(driver, query string) string {
	if driver != "postgres" && driver != "pgx" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
