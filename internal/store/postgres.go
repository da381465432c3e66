package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/address-classifier/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS classifications (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	address        TEXT NOT NULL,
	category       TEXT NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	reason         TEXT NOT NULL DEFAULT '',
	nearby_count   INTEGER NOT NULL DEFAULT 0,
	policy_version TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_classifications_created_at ON classifications(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_classifications_address ON classifications(address);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, c model.Classification, policyVersion string) (*model.ClassificationRecord, error) {
	rec := newRecord(c, policyVersion)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO classifications (id, address, category, confidence, reason, nearby_count, policy_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Address, string(rec.Result.Category), rec.Result.Confidence,
		rec.Result.Reason, rec.Result.NearbyCount, rec.PolicyVersion, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert classification")
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]model.ClassificationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, address, category, confidence, reason, nearby_count, policy_version, created_at
		 FROM classifications ORDER BY created_at DESC, id DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list classifications")
	}
	defer rows.Close()

	records := []model.ClassificationRecord{}
	for rows.Next() {
		var (
			rec      model.ClassificationRecord
			category string
		)
		if err := rows.Scan(&rec.ID, &rec.Address, &category, &rec.Result.Confidence,
			&rec.Result.Reason, &rec.Result.NearbyCount, &rec.PolicyVersion, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan classification")
		}
		rec.Result.Category = model.ParseCategory(category)
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list classifications iterate")
}
