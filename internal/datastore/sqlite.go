package datastore

import (
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/errors"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Output.SQLite.Path
	if path == "" {
		return errors.Newf("sqlite path is not configured").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return errors.Newf("failed to open SQLite database: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	// SQLite needs the pragma for ON DELETE CASCADE to fire.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return errors.Newf("failed to enable sqlite foreign keys: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Main.Debug, "SQLite", path)
}

// Close is a no-op for SQLite, the driver manages the file handle.
func (store *SQLiteStore) Close() error {
	return nil
}
