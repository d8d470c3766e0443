// Package database opens the embedded store and prepares its tables.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DBControl holds the open database handle.
type DBControl struct {
	DB *sql.DB
}

// InitDB opens (creating if needed) the database at path and ensures
// the schema exists.
func InitDB(path string) (*DBControl, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to make database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at path %q: %w", path, err)
	}

	dc := &DBControl{DB: db}
	if err := dc.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return dc, nil
}

// initTables initializes the SQL tables.
func (dc *DBControl) initTables() error {
	tx, err := dc.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := initUsageTable(tx); err != nil {
		return err
	}
	if err := initHistoryTable(tx); err != nil {
		return err
	}

	return tx.Commit()
}
