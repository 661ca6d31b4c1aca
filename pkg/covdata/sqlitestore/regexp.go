package sqlitestore

import (
	"database/sql/driver"
	"regexp"

	sqlite "modernc.org/sqlite"
)

// init registers the REGEXP scalar function every query in this
// package relies on for set_query_contexts's regex matching.
// modernc.org/sqlite registers scalar functions once for the driver,
// rather than per-connection the way Python's sqlite3.create_function
// does; since every *sql.DB opened by this package uses the same
// driver, one registration covers them all.
func init() {
	err := sqlite.RegisterDeterministicScalarFunction("regexp", 2, regexpFunc)
	if err != nil {
		panic("sqlitestore: failed to register REGEXP function: " + err.Error())
	}
}

// regexpFunc implements SQLite's REGEXP operator as `pattern`
// search-matching somewhere in `text` (unanchored), mirroring
// sqldata.py's `re.search(text, pattern) is not None`. The original's
// argument order is preserved here: SQLite calls REGEXP(pattern, text)
// for the `text REGEXP pattern` operator.
func regexpFunc(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, _ := args[0].(string)
	text, _ := args[1].(string)

	matched, err := regexp.MatchString(pattern, text)
	if err != nil {
		return nil, err
	}
	return matched, nil
}
