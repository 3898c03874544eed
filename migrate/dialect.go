package migrate

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect is the SQL variant of the target database. It affects only the
// ledger table schema and statement placeholders, never the migration SQL
// itself, which is authored by the user for their target database.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Validate implements the kong.Validatable interface, and also guards direct
// library use of the Runner.
func (d Dialect) Validate() error {
	switch d {
	case DialectSQLite, DialectPostgres, DialectMySQL:
		return nil
	}
	return fmt.Errorf("unsupported dialect '%s'", d)
}

// rebind converts '?' statement placeholders to the dialect's syntax.
// Postgres uses ordinal $N placeholders; sqlite and mysql accept '?' as is.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
