// Package postgres stores hydrated documents in a jsonb table so that several
// service instances can share one cache.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/jsonapi-entities/pkg/jsonapi/cache"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string
}

func LoadConfiguration(ctx context.Context) Config {
	return Config{
		host:     env.GetVariableOrDefault(ctx, "POSTGRES_HOST", ""),
		user:     env.GetVariableOrDefault(ctx, "POSTGRES_USER", ""),
		password: env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", ""),
		port:     env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		dbname:   env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "diwise"),
		sslmode:  env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),
	}
}

func (c Config) ConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.user, c.password, c.host, c.port, c.dbname, c.sslmode)
}

func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = conn.Ping(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return conn, err
}

type Cache struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// New creates the documents table if needed. Documents older than ttl are
// treated as missing, a zero ttl keeps them forever.
func New(ctx context.Context, pool *pgxpool.Pool, ttl time.Duration) (*Cache, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS jsonapi_documents (
			endpoint  TEXT PRIMARY KEY,
			document  JSONB NOT NULL,
			fetchedAt TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &Cache{pool: pool, ttl: ttl}, nil
}

func (c *Cache) Get(ctx context.Context, endpoint string) (map[string]any, error) {
	var document map[string]any

	err := c.pool.QueryRow(ctx,
		`SELECT document FROM jsonapi_documents WHERE endpoint=$1 AND ($2::interval IS NULL OR fetchedAt > NOW() - $2::interval)`,
		endpoint, c.interval(),
	).Scan(&document)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return document, nil
}

func (c *Cache) Set(ctx context.Context, endpoint string, document map[string]any) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO jsonapi_documents(endpoint, document, fetchedAt) VALUES ($1, $2, NOW())
		ON CONFLICT (endpoint) DO UPDATE SET document = EXCLUDED.document, fetchedAt = EXCLUDED.fetchedAt`,
		endpoint, document,
	)
	return err
}

func (c *Cache) Snapshot(ctx context.Context) (map[string]map[string]any, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT endpoint, document FROM jsonapi_documents WHERE ($1::interval IS NULL OR fetchedAt > NOW() - $1::interval) ORDER BY endpoint`,
		c.interval(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := map[string]map[string]any{}

	for rows.Next() {
		var endpoint string
		var document map[string]any

		err := rows.Scan(&endpoint, &document)
		if err != nil {
			return nil, err
		}
		snapshot[endpoint] = document
	}

	return snapshot, rows.Err()
}

// Purge deletes every document fetched before the given time and returns the number of removed rows
func (c *Cache) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM jsonapi_documents WHERE fetchedAt < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *Cache) Vacuum(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `VACUUM ANALYZE jsonapi_documents`)
	return err
}

// Close releases the connection pool handed to New
func (c *Cache) Close() error {
	c.pool.Close()
	return nil
}

func (c *Cache) interval() *string {
	if c.ttl <= 0 {
		return nil
	}
	s := fmt.Sprintf("%d seconds", int64(c.ttl.Seconds()))
	return &s
}
