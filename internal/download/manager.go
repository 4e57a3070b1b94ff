// Package download turns download requests into asynchronous jobs: an
// external tool fetches media into a staging directory, then a
// deterministic commit sequence writes the artist, album and songs into
// the library and the media files move into permanent storage. Jobs run
// off the commit path so the server keeps answering requests; a crashed
// job never blocks unrelated commits.
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"chorus/internal/config"
	"chorus/internal/fileutil"
	"chorus/internal/library"
	"chorus/internal/logging"
	"chorus/internal/wire"
)

// Committer is the serialization point for library mutations. The daemon
// implements it; jobs hold it only for the brief commit sequence once
// media is ready, never during tool I/O.
type Committer interface {
	Commit(req library.ChangeRequest) (library.CommittedChange, error)
}

// Track is one media file produced by a fetch.
type Track struct {
	Title    string
	Duration uint32
	Path     string
}

// FetchResult is the metadata and media a fetch tool delivered.
type FetchResult struct {
	ArtistName string
	AlbumName  string
	Tracks     []Track
}

// Fetcher retrieves media for a download request into destDir.
type Fetcher interface {
	Fetch(ctx context.Context, req wire.DownloadRequest, destDir string) (*FetchResult, error)
}

// Notifier receives job outcomes. The notifications service implements
// it; a nil notifier disables the calls.
type Notifier interface {
	JobCompleted(ctx context.Context, artist, album string, songs int)
	JobFailed(ctx context.Context, url string, err error)
}

// Manager owns the running-jobs table and launches one goroutine per
// job.
type Manager struct {
	committer Committer
	fetcher   Fetcher
	history   *History
	notifier  Notifier
	logger    *slog.Logger

	stagingDir string
	mediaDir   string

	mu     sync.Mutex
	jobs   map[uint32]wire.DownloadRequest
	nextID uint32

	wg sync.WaitGroup
}

// NewManager constructs a manager. Job IDs continue past the highest ID
// in the history database.
func NewManager(ctx context.Context, cfg *config.Config, committer Committer, fetcher Fetcher, history *History, notifier Notifier, logger *slog.Logger) (*Manager, error) {
	if committer == nil || fetcher == nil || history == nil {
		return nil, errors.New("download manager requires committer, fetcher and history")
	}
	nextID, err := history.NextJobID(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{
		committer:  committer,
		fetcher:    fetcher,
		history:    history,
		notifier:   notifier,
		logger:     logging.WithComponent(logger, "download"),
		stagingDir: cfg.Paths.StagingDir,
		mediaDir:   cfg.Paths.MediaDir,
		jobs:       make(map[uint32]wire.DownloadRequest),
		nextID:     nextID,
	}, nil
}

// Start validates a request, allocates the next job ID and launches the
// worker. The returned ID identifies the job in queries and history.
func (m *Manager) Start(ctx context.Context, req wire.DownloadRequest) (uint32, error) {
	if !req.RequestType.Known() {
		return 0, fmt.Errorf("unknown download request type %q", req.RequestType)
	}
	if req.URL == "" {
		return 0, errors.New("download request has no URL")
	}
	if req.ArtistID == 0 && req.ArtistName == "" {
		return 0, errors.New("download request names no artist")
	}

	m.mu.Lock()
	jobID := m.nextID
	m.nextID++
	m.jobs[jobID] = req
	m.mu.Unlock()

	if err := m.history.JobStarted(ctx, jobID, req); err != nil {
		m.mu.Lock()
		delete(m.jobs, jobID)
		m.mu.Unlock()
		return 0, err
	}

	m.logger.Info("download job started",
		slog.Uint64(logging.FieldJobID, uint64(jobID)),
		slog.String(logging.FieldURL, req.URL))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx, jobID, req)
	}()
	return jobID, nil
}

// Active returns the jobs still in flight, ordered by job ID.
func (m *Manager) Active() []wire.ActiveDownload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]wire.ActiveDownload, 0, len(m.jobs))
	for id, req := range m.jobs {
		out = append(out, wire.ActiveDownload{ID: id, Request: req})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Wait blocks until every launched job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// History exposes the job audit store.
func (m *Manager) History() *History {
	return m.history
}

func (m *Manager) run(ctx context.Context, jobID uint32, req wire.DownloadRequest) {
	defer func() {
		m.mu.Lock()
		delete(m.jobs, jobID)
		m.mu.Unlock()
	}()

	staging := filepath.Join(m.stagingDir, uuid.New().String())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		m.fail(ctx, jobID, req, fmt.Errorf("create staging directory: %w", err))
		return
	}
	defer os.RemoveAll(staging)

	result, err := m.fetcher.Fetch(ctx, req, staging)
	if err != nil {
		m.fail(ctx, jobID, req, err)
		return
	}
	if len(result.Tracks) == 0 {
		m.fail(ctx, jobID, req, errors.New("fetch produced no tracks"))
		return
	}

	albumID, artistName, albumName, songs, err := m.commitTracks(req, result)
	if err != nil {
		m.fail(ctx, jobID, req, err)
		return
	}

	if err := m.history.JobCompleted(ctx, jobID, albumID, songs); err != nil {
		m.logger.Warn("history update failed",
			slog.Uint64(logging.FieldJobID, uint64(jobID)), logging.Error(err))
	}
	m.logger.Info("download job completed",
		slog.Uint64(logging.FieldJobID, uint64(jobID)),
		slog.Uint64(logging.FieldAlbumID, uint64(albumID)),
		slog.Int("songs", songs))
	if m.notifier != nil {
		m.notifier.JobCompleted(ctx, artistName, albumName, songs)
	}
}

// commitTracks runs the deterministic commit sequence and moves each
// media file into place under its new song ID.
func (m *Manager) commitTracks(req wire.DownloadRequest, result *FetchResult) (albumID uint32, artistName, albumName string, songs int, err error) {
	artistID := req.ArtistID
	artistName = req.ArtistName
	if artistName == "" {
		artistName = result.ArtistName
	}
	if artistID == 0 {
		change, err := m.committer.Commit(library.ChangeRequest{Type: library.ArtistAddOrGet, Name: artistName})
		if err != nil {
			return 0, "", "", 0, fmt.Errorf("resolve artist: %w", err)
		}
		artistID = change.CreatedID
	}

	albumName = req.AlbumName
	if albumName == "" {
		albumName = result.AlbumName
	}
	albumChange, err := m.committer.Commit(library.ChangeRequest{Type: library.AlbumAdd, TargetID: artistID, Name: albumName})
	if err != nil {
		return 0, "", "", 0, fmt.Errorf("create album: %w", err)
	}
	albumID = albumChange.CreatedID

	for i, track := range result.Tracks {
		songChange, err := m.committer.Commit(library.ChangeRequest{Type: library.SongAdd, TargetID: albumID, Name: track.Title})
		if err != nil {
			return albumID, artistName, albumName, songs, fmt.Errorf("create song %q: %w", track.Title, err)
		}
		songID := songChange.CreatedID
		details := []library.ChangeRequest{
			{Type: library.SongSetPosition, TargetID: songID, Detail: uint32(i + 1)},
			{Type: library.SongSetLength, TargetID: songID, Detail: track.Duration},
			{Type: library.SongSetFileEnding, TargetID: songID, Name: filepath.Ext(track.Path)},
		}
		for _, detail := range details {
			if _, err := m.committer.Commit(detail); err != nil {
				return albumID, artistName, albumName, songs, fmt.Errorf("describe song %q: %w", track.Title, err)
			}
		}
		dest := filepath.Join(m.mediaDir, strconv.FormatUint(uint64(songID), 10)+filepath.Ext(track.Path))
		if err := fileutil.MoveFile(track.Path, dest); err != nil {
			return albumID, artistName, albumName, songs, fmt.Errorf("place media for song %d: %w", songID, err)
		}
		songs++
	}
	return albumID, artistName, albumName, songs, nil
}

func (m *Manager) fail(ctx context.Context, jobID uint32, req wire.DownloadRequest, jobErr error) {
	m.logger.Error("download job failed",
		slog.Uint64(logging.FieldJobID, uint64(jobID)),
		slog.String(logging.FieldURL, req.URL),
		logging.Error(jobErr))
	if err := m.history.JobFailed(ctx, jobID, jobErr.Error()); err != nil {
		m.logger.Warn("history update failed",
			slog.Uint64(logging.FieldJobID, uint64(jobID)), logging.Error(err))
	}
	if m.notifier != nil {
		m.notifier.JobFailed(ctx, req.URL, jobErr)
	}
}
