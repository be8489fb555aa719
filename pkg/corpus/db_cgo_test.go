//go:build cgo_sqlite

package corpus

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// testDSNParams tunes the test database with the cgo SQLite driver's
// query-parameter syntax.
const testDSNParams = "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000"

// openTestDB opens the test database with the cgo SQLite driver.
func openTestDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite3", dataSource)
}
