//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// initDB opens the corpus database with the pure Go SQLite driver.
func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", dataSource)
}
