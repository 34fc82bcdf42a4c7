package sqlstore

import (
	"errors"
	"regexp"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteTimeLayout is fixed width so text comparison matches chronological order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

var placeholder = regexp.MustCompile(`\$(\d+)`)

// dialect captures what differs between the supported SQL engines.
// Queries are written once with $n placeholders.
type dialect struct {
	name      string
	driver    string
	forUpdate string
	seqColumn string
	rebind    func(query string) string
	timeArg   func(t time.Time) any
	isUnique  func(err error) bool
	isFK      func(err error) bool
}

var postgresDialect = dialect{
	name:      "postgres",
	driver:    "postgres",
	forUpdate: " FOR UPDATE",
	seqColumn: "seq",
	rebind:    func(q string) string { return q },
	timeArg:   func(t time.Time) any { return t.UTC() },
	isUnique:  func(err error) bool { return pqCode(err) == "23505" },
	isFK:      func(err error) bool { return pqCode(err) == "23503" },
}

var sqliteDialect = dialect{
	name:      "sqlite",
	driver:    "sqlite",
	forUpdate: "",
	seqColumn: "rowid",
	rebind:    func(q string) string { return placeholder.ReplaceAllString(q, "?$1") },
	timeArg:   func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
	isUnique: func(err error) bool {
		code := sqliteCode(err)
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
	isFK: func(err error) bool { return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY },
}

// nullTime converts an optional timestamp into a query argument
func (d dialect) nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.timeArg(*t)
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}
