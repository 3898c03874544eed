package migrate

import "strings"

// Migration is a single versioned schema change loaded from disk. It is
// immutable once loaded; the runner never modifies it.
type Migration struct {
	// Version is the sortable timestamp identifier parsed from the filename,
	// e.g. "20231207_120000". It uniquely identifies the migration and
	// determines application order.
	Version string
	// Name is the human-readable slug from the filename remainder.
	Name string
	// Up is the SQL executed on apply. It is never empty.
	Up string
	// Down is the SQL executed on rollback. An empty string means no rollback
	// is defined for this migration.
	Down string
}

// stripComments removes every '#' comment from s, from the marker up to (but
// not including) the end of its line. Newlines are preserved, so line numbers
// reported in database errors still match the file. The rule is purely
// lexical: a '#' inside an SQL string literal is also treated as a comment
// marker, so migration SQL must avoid it.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inComment := false
	for _, r := range s {
		switch {
		case r == '\n':
			inComment = false
			b.WriteRune(r)
		case r == '#':
			inComment = true
		case !inComment:
			b.WriteRune(r)
		}
	}

	return b.String()
}
