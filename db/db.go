// ABOUTME: Database connection management and initialization
// ABOUTME: Opens SQLite with WAL mode at an XDG path, or a hosted MySQL database
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DialectSQLite = "sqlite3"
	DialectMySQL  = "mysql"
)

// OpenDatabase opens (creating if needed) a SQLite database at path.
func OpenDatabase(path string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open(DialectSQLite, path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Configure connection pool for SQLite (avoid database locked errors)
	db.SetMaxOpenConns(1)

	if err := InitSchema(db, DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenMySQL connects to MySQL using a go-sql-driver DSN, e.g.
// user:pass@tcp(127.0.0.1:3306)/shadecal. parseTime is forced on so DATETIME
// columns scan into time.Time.
func OpenMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DialectMySQL, withParseTime(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach mysql: %w", err)
	}

	if err := InitSchema(db, DialectMySQL); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open opens a database for the named dialect and returns a Store over it.
func Open(dialect, dsn string) (*Store, error) {
	var (
		database *sql.DB
		err      error
	)
	switch dialect {
	case DialectSQLite, "sqlite", "":
		database, err = OpenDatabase(dsn)
		dialect = DialectSQLite
	case DialectMySQL:
		database, err = OpenMySQL(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", dialect)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(database, dialect), nil
}

func withParseTime(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}
