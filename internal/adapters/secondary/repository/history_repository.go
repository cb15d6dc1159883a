package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/logger"
)

// defaultHistoryLimit caps List calls that do not specify a limit
const defaultHistoryLimit = 20

// HistoryRepository persists research run records in SQLite
type HistoryRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewHistoryRepository opens (and if needed creates) the history database
// at the given path
func NewHistoryRepository(path string, log logger.Logger) (*HistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryRepository{
		db:     db,
		logger: log,
	}, nil
}

// createSchema creates the research_runs table if it doesn't exist
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS research_runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			strategy TEXT NOT NULL,
			providers TEXT NOT NULL DEFAULT '',
			result_count INTEGER NOT NULL DEFAULT 0,
			elapsed REAL NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_research_runs_created_at
		ON research_runs(created_at)
	`)
	return err
}

// Close closes the database connection
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

// Save stores one run record
func (r *HistoryRepository) Save(ctx context.Context, record *domain.ResearchRecord) error {
	providers := make([]string, 0, len(record.Providers))
	for _, p := range record.Providers {
		providers = append(providers, string(p))
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO research_runs
			(id, query, strategy, providers, result_count, elapsed, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.Query,
		string(record.Strategy),
		strings.Join(providers, ","),
		record.ResultCount,
		record.Elapsed,
		record.Success,
		record.Error,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save research record", "id", record.ID, "error", err)
		return err
	}
	return nil
}

// List returns the most recent records, newest first
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]*domain.ResearchRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, query, strategy, providers, result_count, elapsed, success, error, created_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ResearchRecord
	for rows.Next() {
		record := &domain.ResearchRecord{}
		var strategy, providers string
		if err := rows.Scan(
			&record.ID,
			&record.Query,
			&strategy,
			&providers,
			&record.ResultCount,
			&record.Elapsed,
			&record.Success,
			&record.Error,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		record.Strategy = domain.Strategy(strategy)
		if providers != "" {
			for _, p := range strings.Split(providers, ",") {
				record.Providers = append(record.Providers, domain.Provider(p))
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
