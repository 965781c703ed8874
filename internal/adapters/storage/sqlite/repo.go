package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores runtime overrides in sqlite.
type Repository struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:oncall-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS overrides (
			id TEXT PRIMARY KEY,
			engineer TEXT NOT NULL,
			date TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_overrides_date_engineer ON overrides(date, engineer);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateOverride inserts one override. A second row for the same date and engineer is rejected.
func (r *Repository) CreateOverride(ctx context.Context, o domain.OverrideRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO overrides(id, engineer, date, note, created_at)
		VALUES(?, ?, ?, ?, ?)
	`, o.ID, o.Name, o.Date.String(), o.Note, ts(o.CreatedAt))
	if err != nil {
		if isUniqueConstraintErr(err) {
			return app.ErrDuplicateOverride
		}
		return fmt.Errorf("insert override: %w", err)
	}
	return nil
}

// GetOverride returns one stored override by id.
func (r *Repository) GetOverride(ctx context.Context, id string) (domain.OverrideRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, engineer, date, note, created_at
		FROM overrides
		WHERE id = ?
	`, id)
	return scanOverride(row)
}

// ListOverrides returns every stored override in insertion order.
// created_at is informational; rowid alone defines the order.
func (r *Repository) ListOverrides(ctx context.Context) ([]domain.OverrideRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, engineer, date, note, created_at
		FROM overrides
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := make([]domain.OverrideRecord, 0)
	for rows.Next() {
		record, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOverride removes one stored override by id.
func (r *Repository) DeleteOverride(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM overrides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return translateNoRows(res)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanOverride handles scan override.
func scanOverride(s scanner) (domain.OverrideRecord, error) {
	var (
		record     domain.OverrideRecord
		dateRaw    string
		createdRaw string
	)
	if err := s.Scan(&record.ID, &record.Name, &dateRaw, &record.Note, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OverrideRecord{}, app.ErrNotFound
		}
		return domain.OverrideRecord{}, err
	}
	date, err := domain.ParseDate(dateRaw)
	if err != nil {
		return domain.OverrideRecord{}, fmt.Errorf("decode override %s date %q: %w", record.ID, dateRaw, err)
	}
	record.Date = date
	record.CreatedAt = parseTS(createdRaw)
	return record, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// isUniqueConstraintErr reports whether err is a sqlite UNIQUE violation.
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
