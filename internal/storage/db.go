// Package storage keeps the run history database at .filescope/history.db.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"filescope/internal/config"
)

// HistoryFile is the database file name inside the config directory.
const HistoryFile = "history.db"

// DB represents a database connection with transaction helpers
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the history database at .filescope/history.db.
// If the database doesn't exist, it will be created along with all necessary tables
func Open(repoRoot string, logger *slog.Logger) (*DB, error) {
	dir := filepath.Join(repoRoot, config.ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", config.ConfigDir, err)
	}

	dbPath := filepath.Join(dir, HistoryFile)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds on lock
		"PRAGMA cache_size=-16000",  // 16MB cache
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = encoder.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	db := &DB{
		conn:    conn,
		logger:  logger,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
	}

	if !dbExists {
		logger.Info("Creating history database", "path", dbPath)
	}
	// Schema statements are idempotent, so existing databases are upgraded in place.
	if err := db.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.dbPath
}

// Close closes the database connection and releases the codecs
func (db *DB) Close() error {
	if db.decoder != nil {
		db.decoder.Close()
	}
	if db.encoder != nil {
		_ = db.encoder.Close()
	}
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// WithTx executes a function within a transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Schema version tracking
const currentSchemaVersion = 1

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		schema := `
			CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				started_at TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				command TEXT NOT NULL,
				repo_state_id TEXT,
				head_commit TEXT,
				changed_count INTEGER NOT NULL DEFAULT 0,
				selected_count INTEGER NOT NULL DEFAULT 0,
				pool_size INTEGER NOT NULL DEFAULT 0,
				degraded_count INTEGER NOT NULL DEFAULT 0,
				report BLOB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);
		`
		if _, err := tx.Exec(schema); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	})
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
