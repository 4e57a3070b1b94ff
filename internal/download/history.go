package download

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"chorus/internal/wire"
)

// Job status values recorded in the history database.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// History records every download job and its outcome in SQLite so
// operators can audit past jobs after the daemon restarts.
type History struct {
	db   *sql.DB
	path string
}

// Record is one history row.
type Record struct {
	JobID       int64
	RequestType string
	URL         string
	ArtistName  string
	AlbumName   string
	Status      string
	Error       string
	AlbumID     uint32
	Songs       int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// OpenHistory initializes or connects to the history database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS download_jobs (
    job_id       INTEGER PRIMARY KEY,
    request_type TEXT NOT NULL,
    url          TEXT NOT NULL,
    artist_name  TEXT NOT NULL,
    album_name   TEXT NOT NULL,
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    album_id     INTEGER NOT NULL DEFAULT 0,
    songs        INTEGER NOT NULL DEFAULT 0,
    started_at   TEXT NOT NULL,
    finished_at  TEXT NOT NULL DEFAULT ''
)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &History{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// JobStarted records a freshly launched job.
func (h *History) JobStarted(ctx context.Context, jobID uint32, req wire.DownloadRequest) error {
	_, err := h.db.ExecContext(ctx, `
INSERT INTO download_jobs (job_id, request_type, url, artist_name, album_name, status, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(jobID), string(req.RequestType), req.URL, req.ArtistName, req.AlbumName,
		StatusRunning, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record job start: %w", err)
	}
	return nil
}

// JobCompleted marks a job successful, noting the album it created and
// how many songs landed.
func (h *History) JobCompleted(ctx context.Context, jobID uint32, albumID uint32, songs int) error {
	_, err := h.db.ExecContext(ctx, `
UPDATE download_jobs SET status = ?, album_id = ?, songs = ?, finished_at = ? WHERE job_id = ?`,
		StatusCompleted, int64(albumID), songs, time.Now().UTC().Format(time.RFC3339Nano), int64(jobID))
	if err != nil {
		return fmt.Errorf("record job completion: %w", err)
	}
	return nil
}

// JobFailed marks a job failed with its terminal error message.
func (h *History) JobFailed(ctx context.Context, jobID uint32, message string) error {
	_, err := h.db.ExecContext(ctx, `
UPDATE download_jobs SET status = ?, error = ?, finished_at = ? WHERE job_id = ?`,
		StatusFailed, message, time.Now().UTC().Format(time.RFC3339Nano), int64(jobID))
	if err != nil {
		return fmt.Errorf("record job failure: %w", err)
	}
	return nil
}

// NextJobID returns one past the highest job ID ever recorded, so IDs
// stay monotonic across daemon restarts.
func (h *History) NextJobID(ctx context.Context) (uint32, error) {
	var max sql.NullInt64
	if err := h.db.QueryRowContext(ctx, `SELECT MAX(job_id) FROM download_jobs`).Scan(&max); err != nil {
		return 0, fmt.Errorf("query max job id: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return uint32(max.Int64) + 1, nil
}

// List returns all history rows, newest first.
func (h *History) List(ctx context.Context) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx, `
SELECT job_id, request_type, url, artist_name, album_name, status, error, album_id, songs, started_at, finished_at
FROM download_jobs ORDER BY job_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var albumID, songs int64
		var started, finished string
		if err := rows.Scan(&rec.JobID, &rec.RequestType, &rec.URL, &rec.ArtistName, &rec.AlbumName,
			&rec.Status, &rec.Error, &albumID, &songs, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.AlbumID = uint32(albumID)
		rec.Songs = int(songs)
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			rec.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			rec.FinishedAt = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
