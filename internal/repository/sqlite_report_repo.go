package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"eternal/internal/model"
)

// SQLiteReportRepo stores reports in a local SQLite file for single-node setups
type SQLiteReportRepo struct {
	db *sql.DB
}

// NewSQLiteReportRepo opens (and creates if needed) the report database
func NewSQLiteReportRepo(dbPath string) (*SQLiteReportRepo, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteReportRepo{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteReportRepo) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS reports (
		owner_id TEXT PRIMARY KEY,
		report_json TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database handle
func (r *SQLiteReportRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteReportRepo) Save(ctx context.Context, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	query := `
	INSERT INTO reports (owner_id, report_json, generated_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(owner_id) DO UPDATE SET
		report_json = excluded.report_json,
		generated_at = excluded.generated_at,
		updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query, report.OwnerID, string(data), report.GeneratedAt.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (r *SQLiteReportRepo) GetByOwner(ctx context.Context, ownerID string) (*model.Report, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT report_json FROM reports WHERE owner_id = ?`, ownerID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan report row: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

func (r *SQLiteReportRepo) Delete(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}
