// Package storage persists the library to disk: a JSON snapshot plus the
// committed change log as a companion file, with daily gzip backups of
// both. The snapshot and the log belong together; finding only one of
// them on boot is treated as corruption.
package storage

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chorus/internal/config"
	"chorus/internal/library"
	"chorus/internal/logging"
)

// Log entries are separated by ",\n" so the file reads as a JSON array
// once wrapped in brackets.
const logSeparator = ",\n"

type Store struct {
	snapshotPath string
	logPath      string
	backupDir    string
	logger       *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Store {
	return &Store{
		snapshotPath: cfg.SnapshotPath(),
		logPath:      cfg.ChangeLogPath(),
		backupDir:    cfg.BackupDir(),
		logger:       logging.WithComponent(logger, "storage"),
	}
}

// Load reads the snapshot and change log from disk. When neither file
// exists it returns (nil, false, nil) and the caller starts fresh; when
// only one exists it returns an error rather than guessing.
func (s *Store) Load() (*library.Library, bool, error) {
	snapshot, snapErr := os.ReadFile(s.snapshotPath)
	logData, logErr := os.ReadFile(s.logPath)

	snapMissing := errors.Is(snapErr, fs.ErrNotExist)
	logMissing := errors.Is(logErr, fs.ErrNotExist)

	switch {
	case snapMissing && logMissing:
		return nil, false, nil
	case snapErr != nil && !snapMissing:
		return nil, false, fmt.Errorf("read snapshot: %w", snapErr)
	case logErr != nil && !logMissing:
		return nil, false, fmt.Errorf("read change log: %w", logErr)
	case snapMissing != logMissing:
		return nil, false, fmt.Errorf("snapshot and change log must exist together: snapshot=%v log=%v", !snapMissing, !logMissing)
	}

	log, err := decodeLog(logData)
	if err != nil {
		return nil, false, err
	}
	lib, err := library.FromSnapshot(snapshot, log)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("library loaded",
		slog.Uint64(logging.FieldRevision, uint64(lib.Revision())),
		slog.Int("artists", lib.NumArtists()),
		slog.Int("albums", lib.NumAlbums()),
		slog.Int("songs", lib.NumSongs()),
		slog.Int("tags", lib.NumTags()),
		slog.Int("logEntries", len(log)))
	return lib, true, nil
}

// Save writes the snapshot and the change log, each atomically via a
// temp file rename.
func (s *Store) Save(lib *library.Library) error {
	snapshot, err := lib.MarshalSnapshot()
	if err != nil {
		return err
	}
	logData, err := encodeLog(lib.Log())
	if err != nil {
		return err
	}
	if err := writeAtomic(s.snapshotPath, snapshot); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := writeAtomic(s.logPath, logData); err != nil {
		return fmt.Errorf("write change log: %w", err)
	}
	s.logger.Debug("library saved", slog.Uint64(logging.FieldRevision, uint64(lib.Revision())))
	return nil
}

// Backup writes gzip copies of the snapshot and change log into the
// backup directory, named by the current date. A day's second call is a
// no-op, so callers can invoke it on every save.
func (s *Store) Backup() error {
	day := time.Now().Format("2006-01-02")
	snapBackup := filepath.Join(s.backupDir, "library-"+day+".json.gz")
	logBackup := filepath.Join(s.backupDir, "library-"+day+".log.gz")

	if _, err := os.Stat(snapBackup); err == nil {
		return nil
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if err := gzipFile(s.snapshotPath, snapBackup); err != nil {
		return fmt.Errorf("backup snapshot: %w", err)
	}
	if err := gzipFile(s.logPath, logBackup); err != nil {
		return fmt.Errorf("backup change log: %w", err)
	}
	s.logger.Info("daily backup written", slog.String(logging.FieldPath, snapBackup))
	return nil
}

func encodeLog(log []library.CommittedChange) ([]byte, error) {
	entries := make([]string, len(log))
	for i, change := range log {
		raw, err := json.Marshal(change)
		if err != nil {
			return nil, fmt.Errorf("encode log entry %d: %w", i, err)
		}
		entries[i] = string(raw)
	}
	return []byte(strings.Join(entries, logSeparator)), nil
}

func decodeLog(data []byte) ([]library.CommittedChange, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	wrapped := "[\n" + trimmed + "\n]"
	var log []library.CommittedChange
	if err := json.Unmarshal([]byte(wrapped), &log); err != nil {
		return nil, fmt.Errorf("decode change log: %w", err)
	}
	return log, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
