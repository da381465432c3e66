package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/address-classifier/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS classifications (
	id             TEXT PRIMARY KEY,
	address        TEXT NOT NULL,
	category       TEXT NOT NULL,
	confidence     REAL NOT NULL,
	reason         TEXT NOT NULL DEFAULT '',
	nearby_count   INTEGER NOT NULL DEFAULT 0,
	policy_version TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_classifications_created_at ON classifications(created_at);
CREATE INDEX IF NOT EXISTS idx_classifications_address ON classifications(address);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Record(ctx context.Context, c model.Classification, policyVersion string) (*model.ClassificationRecord, error) {
	rec := newRecord(c, policyVersion)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO classifications (id, address, category, confidence, reason, nearby_count, policy_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Address, string(rec.Result.Category), rec.Result.Confidence,
		rec.Result.Reason, rec.Result.NearbyCount, rec.PolicyVersion, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert classification")
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.ClassificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, category, confidence, reason, nearby_count, policy_version, created_at
		 FROM classifications ORDER BY created_at DESC, id DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list classifications")
	}
	defer rows.Close() //nolint:errcheck

	records := []model.ClassificationRecord{}
	for rows.Next() {
		var (
			rec      model.ClassificationRecord
			category string
		)
		if err := rows.Scan(&rec.ID, &rec.Address, &category, &rec.Result.Confidence,
			&rec.Result.Reason, &rec.Result.NearbyCount, &rec.PolicyVersion, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan classification")
		}
		rec.Result.Category = model.ParseCategory(category)
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list classifications iterate")
}

func newRecord(c model.Classification, policyVersion string) *model.ClassificationRecord {
	return &model.ClassificationRecord{
		ID:            uuid.New().String(),
		Address:       c.Address,
		Result:        c.ClassificationResult,
		PolicyVersion: policyVersion,
		CreatedAt:     time.Now().UTC(),
	}
}
