package export

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"menuscope/internal/menu"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Older snapshots must be deleted before the next run.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLite is the optional relational snapshot of a run's items and estimates.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens the snapshot database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("open sqlite: path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure sqlite directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Harvest workers share one handle; a single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLite{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLite) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// ReplaceItems stores the flattened items of one restaurant, replacing any
// rows left by an earlier run.
func (s *SQLite) ReplaceItems(ctx context.Context, restaurant string, records []menu.ItemRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin items tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE restaurant = ?", restaurant); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (
            restaurant, position, name, price, description, image_url, state, rating
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare items insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, restaurant, i+1, r.Name, r.Price, r.Description, r.ImageURL, r.State, r.Rating); err != nil {
			return fmt.Errorf("insert item %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items: %w", err)
	}
	return nil
}

// ReplaceNutrition stores the merged estimates of one restaurant. List
// columns hold JSON arrays.
func (s *SQLite) ReplaceNutrition(ctx context.Context, restaurant string, dishes []DishReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin nutrition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM nutrition WHERE restaurant = ?", restaurant); err != nil {
		return fmt.Errorf("clear nutrition: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nutrition (
            restaurant, position, dish, calories, protein, carbohydrates, fat,
            vitamins, minerals, estimators
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare nutrition insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range dishes {
		n := d.Nutrition
		_, err := stmt.ExecContext(ctx,
			restaurant, d.Position, d.Name,
			n.Calories, n.Macronutrients.Protein, n.Macronutrients.Carbohydrates, n.Macronutrients.Fat,
			jsonList(n.Micronutrients.Vitamins), jsonList(n.Micronutrients.Minerals), jsonList(d.Estimators),
		)
		if err != nil {
			return fmt.Errorf("insert nutrition for %q: %w", d.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit nutrition: %w", err)
	}
	return nil
}

func jsonList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
