//go:build !cgo_sqlite

package corpus

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// testDSNParams tunes the test database with the pure Go SQLite driver's
// _pragma query-parameter syntax.
const testDSNParams = "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-4000)"

// openTestDB opens the test database with the pure Go SQLite driver.
func openTestDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", dataSource)
}
