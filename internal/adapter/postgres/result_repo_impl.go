package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the repository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const schema = `
	CREATE TABLE IF NOT EXISTS crawl_results (
		domain TEXT NOT NULL,
		url    TEXT NOT NULL,
		PRIMARY KEY (domain, url)
	);
`

// ResultRepoImpl provides a concrete implementation for the ResultRepository interface using PostgreSQL.
type ResultRepoImpl struct {
	db DB
}

// NewResultRepo creates a new instance of ResultRepoImpl.
func NewResultRepo(db DB) *ResultRepoImpl {
	return &ResultRepoImpl{db: db}
}

// EnsureSchema creates the crawl_results table if it does not exist.
func (r *ResultRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create crawl_results table: %w", err)
	}
	return nil
}

// Insert replaces the domain's rows in a single transaction, so concurrent
// readers see either the previous result or the new one.
func (r *ResultRepoImpl) Insert(ctx context.Context, domain string, urls []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", domain, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM crawl_results WHERE domain = $1;`, domain); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to clear crawl result for %s: %w", domain, err)
	}

	if len(urls) > 0 {
		query := `
			INSERT INTO crawl_results (domain, url)
			SELECT $1, u FROM unnest($2::text[]) AS u
			ON CONFLICT (domain, url) DO NOTHING;
		`
		if _, err := tx.Exec(ctx, query, domain, urls); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to store crawl result for %s: %w", domain, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit crawl result for %s: %w", domain, err)
	}
	return nil
}

// Get returns the stored URLs. An unknown domain yields an empty slice.
func (r *ResultRepoImpl) Get(ctx context.Context, domain string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT url FROM crawl_results WHERE domain = $1;`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl result for %s: %w", domain, err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *ResultRepoImpl) Count(ctx context.Context, domain string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM crawl_results WHERE domain = $1;`, domain).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count crawl result for %s: %w", domain, err)
	}
	return n, nil
}

func (r *ResultRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
