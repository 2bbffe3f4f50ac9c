package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"pos-till/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolConfig holds database connection pool configuration.
type PoolConfig struct {
	MaxOpenConns    int32
	MaxIdleConns    int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible default pool configuration.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// NewPool creates a new PostgreSQL connection pool and verifies connectivity
// by pinging the database. The caller owns the pool and must Close it; no
// package-level connection singleton exists.
func NewPool(ctx context.Context, connString string, config *PoolConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = config.MaxOpenConns
	poolConfig.MinConns = config.MaxIdleConns
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created")
	return pool, nil
}

// collectionName guards against a collection name ever reaching SQL that was
// not a plain lowercase identifier.
var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PostgresStore keeps a collection as ordered JSONB rows in its own table.
// SaveAll is a truncate-and-insert inside one transaction, preserving the
// full-collection-overwrite contract of the flat-file store.
type PostgresStore[T any] struct {
	pool   *pgxpool.Pool
	table  string
	logger zerolog.Logger
}

// NewPostgresStore creates a Postgres-backed store for the named collection.
func NewPostgresStore[T any](pool *pgxpool.Pool, collection string, logger zerolog.Logger) (*PostgresStore[T], error) {
	if !collectionName.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	return &PostgresStore[T]{
		pool:   pool,
		table:  "records_" + collection,
		logger: logger.With().Str("store", collection).Logger(),
	}, nil
}

// Init creates the collection table if it does not exist.
func (s *PostgresStore[T]) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			pos INT PRIMARY KEY,
			doc JSONB NOT NULL
		)
	`, s.table)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return model.NewPersistenceError("init "+s.table, err)
	}
	return nil
}

// LoadAll reads every record in collection order.
func (s *PostgresStore[T]) LoadAll(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s ORDER BY pos`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, model.NewPersistenceError("query "+s.table, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, model.NewPersistenceError("scan "+s.table, err)
		}
		var record T
		if err := json.Unmarshal(doc, &record); err != nil {
			return nil, model.NewPersistenceError("decode "+s.table, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewPersistenceError("iterate "+s.table, err)
	}

	s.logger.Debug().Int("count", len(records)).Msg("collection loaded")
	return records, nil
}

// SaveAll replaces the collection inside a single transaction.
func (s *PostgresStore[T]) SaveAll(ctx context.Context, records []T) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.NewPersistenceError("begin tx for "+s.table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
		return model.NewPersistenceError("truncate "+s.table, err)
	}

	if len(records) > 0 {
		insert := fmt.Sprintf(`INSERT INTO %s (pos, doc) VALUES ($1, $2)`, s.table)

		batch := &pgx.Batch{}
		for i, record := range records {
			doc, err := json.Marshal(record)
			if err != nil {
				return model.NewPersistenceError("encode "+s.table, err)
			}
			batch.Queue(insert, i, doc)
		}

		results := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return model.NewPersistenceError("insert into "+s.table, err)
			}
		}
		if err := results.Close(); err != nil {
			return model.NewPersistenceError("insert into "+s.table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.NewPersistenceError("commit "+s.table, err)
	}

	s.logger.Debug().Int("count", len(records)).Msg("collection saved")
	return nil
}
