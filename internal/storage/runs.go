package storage

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"filescope/internal/errors"
)

// timeLayout is fixed-width so that started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunSummary is the indexed part of a stored run.
type RunSummary struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"startedAt"`
	DurationMs    int64     `json:"durationMs"`
	Command       string    `json:"command"`
	RepoStateID   string    `json:"repoStateId,omitempty"`
	HeadCommit    string    `json:"headCommit,omitempty"`
	ChangedCount  int       `json:"changedCount"`
	SelectedCount int       `json:"selectedCount"`
	PoolSize      int       `json:"poolSize"`
	DegradedCount int       `json:"degradedCount"`
}

// Run is a stored run with its decompressed report JSON.
type Run struct {
	RunSummary
	Report []byte `json:"-"`
}

// SaveRun stores a run. The report JSON is zstd-compressed.
func (db *DB) SaveRun(summary RunSummary, reportJSON []byte) error {
	if summary.ID == "" {
		return errors.New(errors.InternalError, "Run ID is required", nil)
	}

	blob := db.encoder.EncodeAll(reportJSON, make([]byte, 0, len(reportJSON)/4))

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, duration_ms, command, repo_state_id, head_commit,
			changed_count, selected_count, pool_size, degraded_count, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.DurationMs,
		summary.Command,
		summary.RepoStateID,
		summary.HeadCommit,
		summary.ChangedCount,
		summary.SelectedCount,
		summary.PoolSize,
		summary.DegradedCount,
		blob,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	db.logger.Debug("Saved run",
		"id", summary.ID,
		"reportBytes", len(reportJSON),
		"storedBytes", len(blob),
	)
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	query := `
		SELECT id, started_at, duration_ms, command, repo_state_id, head_commit,
			changed_count, selected_count, pool_size, degraded_count
		FROM runs ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// GetRun loads one run by ID. A missing run returns nil without error.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, duration_ms, command, repo_state_id, head_commit,
			changed_count, selected_count, pool_size, degraded_count, report
		FROM runs WHERE id = ?`, id)

	var run Run
	var startedAt string
	var repoStateID, headCommit sql.NullString
	var blob []byte
	err := row.Scan(
		&run.ID, &startedAt, &run.DurationMs, &run.Command, &repoStateID, &headCommit,
		&run.ChangedCount, &run.SelectedCount, &run.PoolSize, &run.DegradedCount, &blob,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	run.StartedAt, _ = time.Parse(timeLayout, startedAt)
	run.RepoStateID = repoStateID.String
	run.HeadCommit = headCommit.String

	run.Report, err = db.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress report: %w", err)
	}
	return &run, nil
}

// Prune keeps the newest keep runs and deletes the rest. It returns the
// number of deleted runs.
func (db *DB) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	res, err := db.conn.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		db.logger.Debug("Pruned run history", "deleted", n, "keep", keep)
	}
	return n, nil
}

func scanSummary(rows *sql.Rows) (RunSummary, error) {
	var s RunSummary
	var startedAt string
	var repoStateID, headCommit sql.NullString
	err := rows.Scan(
		&s.ID, &startedAt, &s.DurationMs, &s.Command, &repoStateID, &headCommit,
		&s.ChangedCount, &s.SelectedCount, &s.PoolSize, &s.DegradedCount,
	)
	if err != nil {
		return s, fmt.Errorf("failed to scan run: %w", err)
	}
	s.StartedAt, _ = time.Parse(timeLayout, startedAt)
	s.RepoStateID = repoStateID.String
	s.HeadCommit = headCommit.String
	return s, nil
}
