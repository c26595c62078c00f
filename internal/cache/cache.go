package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/newsreel/newsreel/internal/headline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache persists fetched headline pages and the pinned set.
type Cache struct {
	db  *sql.DB
	log *slog.Logger
}

func Open(ctx context.Context, dbPath string, log *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(ctx, db, dbPath, log); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, log: log}, nil
}

func migrateUp(ctx context.Context, db *sql.DB, dbPath string, log *slog.Logger) error {
	dbInstance, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.DebugContext(ctx, "No migrations to apply", "dbPath", dbPath)
		return nil
	}

	version, dirty, _ := m.Version()
	log.InfoContext(ctx, "Cache is migrated", "dbPath", dbPath, "version", version, "dirty", dirty)
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveHeadlines replaces whatever was cached for page with items, keeping
// their order.
func (c *Cache) SaveHeadlines(ctx context.Context, page int, items []headline.Headline) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM headlines WHERE page = ?", page); err != nil {
		return fmt.Errorf("clearing page %d: %w", page, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO headlines (page, position, title, url, source, description, image_url, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, h := range items {
		_, err := stmt.ExecContext(ctx, page, i, h.Title, h.URL, h.Source, h.Description, h.ImageURL, h.PublishedAt.UTC(), now)
		if err != nil {
			return fmt.Errorf("storing headline %q: %w", h.URL, err)
		}
	}

	return tx.Commit()
}

func (c *Cache) Headlines(ctx context.Context, page int) ([]headline.Headline, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT title, url, source, description, image_url, published_at
		FROM headlines WHERE page = ? ORDER BY position
	`, page)
	if err != nil {
		return nil, fmt.Errorf("querying page %d: %w", page, err)
	}
	defer rows.Close()
	return scanHeadlines(rows)
}

// Pin adds h to the pinned set. Pins are keyed by title; pinning a second
// item with an already-pinned title keeps the first one.
func (c *Cache) Pin(ctx context.Context, h headline.Headline) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pinned (title, url, source, description, image_url, published_at, pinned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO NOTHING
	`, h.Title, h.URL, h.Source, h.Description, h.ImageURL, h.PublishedAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("pinning %q: %w", h.Title, err)
	}
	return nil
}

// Unpin removes the pin titled title and reports whether one existed.
func (c *Cache) Unpin(ctx context.Context, title string) (bool, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM pinned WHERE title = ?", title)
	if err != nil {
		return false, fmt.Errorf("unpinning %q: %w", title, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Pinned returns the pinned set in the order items were pinned.
func (c *Cache) Pinned(ctx context.Context) ([]headline.Headline, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT title, url, source, description, image_url, published_at
		FROM pinned ORDER BY pinned_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying pinned: %w", err)
	}
	defer rows.Close()
	return scanHeadlines(rows)
}

// Prune drops cached headline pages fetched more than olderThan ago. Pins
// are never pruned.
func (c *Cache) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := c.db.ExecContext(ctx, "DELETE FROM headlines WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning headlines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := c.db.ExecContext(ctx, "VACUUM"); err != nil {
			c.log.WarnContext(ctx, "Vacuum after prune failed", "error", err)
		}
	}
	return n, nil
}

type Stats struct {
	Headlines int
	Pages     int
	Pinned    int
	Size      int64
}

func (c *Cache) Stats(ctx context.Context, dbPath string) (Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM headlines),
		       (SELECT COUNT(DISTINCT page) FROM headlines),
		       (SELECT COUNT(*) FROM pinned)
	`).Scan(&s.Headlines, &s.Pages, &s.Pinned)
	if err != nil {
		return s, fmt.Errorf("counting rows: %w", err)
	}
	fi, err := os.Stat(dbPath)
	if err != nil {
		return s, fmt.Errorf("stat db file: %w", err)
	}
	s.Size = fi.Size()
	return s, nil
}

func scanHeadlines(rows *sql.Rows) ([]headline.Headline, error) {
	var out []headline.Headline
	for rows.Next() {
		var h headline.Headline
		if err := rows.Scan(&h.Title, &h.URL, &h.Source, &h.Description, &h.ImageURL, &h.PublishedAt); err != nil {
			return nil, fmt.Errorf("scanning headline: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
