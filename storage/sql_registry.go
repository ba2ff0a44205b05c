package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// SQLRegistry persists the visited set in a SQLite-compatible database.
// Which driver is available depends on build tags, see DefaultSQLDriver.
type SQLRegistry struct {
	db     *sql.DB
	driver string
}

type SQLRegistryOptions struct {
	Driver string
	// DSN is a file path for sqlite3, or a libsql url / file: path for libsql.
	DSN string
}

func NewSQLRegistry(opts SQLRegistryOptions) (*SQLRegistry, error) {
	if opts.Driver == "" {
		opts.Driver = DefaultSQLDriver
	}
	if opts.DSN == "" {
		opts.DSN = "./data/visited.db"
	}
	if !slices.Contains(sql.Drivers(), opts.Driver) {
		return nil, fmt.Errorf("sql driver %q is not compiled in (available: %s)", opts.Driver, strings.Join(sql.Drivers(), ", "))
	}

	dsn, err := prepareDSN(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &SQLRegistry{
		db:     db,
		driver: opts.Driver,
	}
	if err := r.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

func prepareDSN(driver, dsn string) (string, error) {
	if strings.Contains(dsn, "://") {
		return dsn, nil
	}

	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create db directory: %w", err)
	}

	switch driver {
	case "sqlite3":
		if strings.Contains(dsn, "?") {
			return dsn, nil
		}
		return dsn + "?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", nil
	case "libsql":
		if strings.HasPrefix(dsn, "file:") {
			return dsn, nil
		}
		return "file:" + dsn, nil
	default:
		return dsn, nil
	}
}

func (r *SQLRegistry) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS visited (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		added_at DATETIME NOT NULL
	);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (r *SQLRegistry) Contains(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM visited WHERE url = ?)",
		url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check visited url: %w", err)
	}
	return exists, nil
}

// Add relies on the UNIQUE constraint, so concurrent callers race inside SQLite
// rather than between a SELECT and an INSERT.
func (r *SQLRegistry) Add(ctx context.Context, url string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO visited (id, url, added_at) VALUES (?, ?, ?)`,
		generateID(url), url, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert visited url: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLRegistry) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM visited"); err != nil {
		return fmt.Errorf("failed to clear visited: %w", err)
	}
	return nil
}

func (r *SQLRegistry) Len(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visited").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count visited: %w", err)
	}
	return count, nil
}

func (r *SQLRegistry) Driver() string {
	return r.driver
}

func (r *SQLRegistry) Close() error {
	return r.db.Close()
}
