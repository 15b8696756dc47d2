package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rate_limit_ledgers (
	purpose    TEXT PRIMARY KEY,
	timestamps TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore keeps ledgers in a local SQLite file, for single-node
// deployments without Postgres.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the database at path in WAL mode and ensures
// the ledger table exists.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite ledger: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, purpose string) ([]int64, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT timestamps FROM rate_limit_ledgers WHERE purpose = ?`, purpose).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", purpose, err)
	}
	return decode([]byte(data))
}

func (s *SQLiteStore) Save(ctx context.Context, purpose string, timestamps []int64) error {
	data, err := encode(timestamps)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rate_limit_ledgers (purpose, timestamps, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(purpose) DO UPDATE SET timestamps = excluded.timestamps, updated_at = CURRENT_TIMESTAMP`,
		purpose, string(data))
	if err != nil {
		return fmt.Errorf("save ledger %s: %w", purpose, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
