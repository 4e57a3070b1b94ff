package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chorus/internal/download"
	"chorus/internal/library"
	"chorus/internal/logging"
	"chorus/internal/wire"
)

// ApplyChanges commits a client batch. Requests that fail validation are
// skipped and logged; the successful commits are persisted and returned
// so the client can reconcile them.
func (d *Daemon) ApplyChanges(reqs []library.ChangeRequest) ([]library.CommittedChange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	committed, errs := d.lib.Apply(reqs)
	for _, err := range errs {
		d.logger.Warn("change rejected", logging.Error(err))
	}
	if len(committed) > 0 {
		if err := d.store.Save(d.lib); err != nil {
			return nil, fmt.Errorf("persist library: %w", err)
		}
		if err := d.store.Backup(); err != nil {
			d.logger.Warn("backup failed", logging.Error(err))
		}
		d.logger.Info("changes committed",
			slog.Int("accepted", len(committed)),
			slog.Int("rejected", len(errs)),
			slog.Uint64(logging.FieldRevision, uint64(d.lib.Revision())))
	}
	return committed, nil
}

// Commit applies a single change and persists the library. The download
// manager uses it for its commit sequences.
func (d *Daemon) Commit(req library.ChangeRequest) (library.CommittedChange, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	change, err := d.lib.Commit(req)
	if err != nil {
		return library.CommittedChange{}, err
	}
	if err := d.store.Save(d.lib); err != nil {
		return library.CommittedChange{}, fmt.Errorf("persist library: %w", err)
	}
	return change, nil
}

// ChangesSince returns every committed change with revision >= rev.
func (d *Daemon) ChangesSince(rev uint32) []library.CommittedChange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lib.ChangesSince(rev)
}

// Snapshot serializes the whole library for a full sync.
func (d *Daemon) Snapshot() (uint32, []byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := d.lib.MarshalSnapshot()
	if err != nil {
		return 0, nil, err
	}
	return d.lib.Revision(), data, nil
}

// LibraryID returns the library's identity token.
func (d *Daemon) LibraryID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lib.Token().String()
}

// Revision returns the current library revision.
func (d *Daemon) Revision() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lib.Revision()
}

// MediaBaseURL returns the URL prefix clients combine with song file
// paths to stream media.
func (d *Daemon) MediaBaseURL() string {
	return d.cfg.Downloader.MediaBaseURL
}

// Dump renders the library as an indented tree for inspection.
func (d *Daemon) Dump() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lib.Dump()
}

// StartDownload validates the request against the current library and
// hands it to the download manager.
func (d *Daemon) StartDownload(req wire.DownloadRequest) (uint32, error) {
	if req.ArtistID != 0 {
		d.mu.Lock()
		exists := library.ArtistID(req.ArtistID).Exists(d.lib)
		d.mu.Unlock()
		if !exists {
			return 0, fmt.Errorf("no such artist: %d", req.ArtistID)
		}
	}
	return d.downloads.Start(d.Context(), req)
}

// ActiveDownloads lists the download jobs still in flight.
func (d *Daemon) ActiveDownloads() []wire.ActiveDownload {
	return d.downloads.Active()
}

// DownloadHistory returns past download jobs, newest first.
func (d *Daemon) DownloadHistory(ctx context.Context) ([]download.Record, error) {
	return d.history.List(ctx)
}

// UploadSong commits a song uploaded by a client and writes its payload
// into the media directory. The artist is created or reused by name and
// the song lands on the named album, creating it when missing.
func (d *Daemon) UploadSong(ctx context.Context, req wire.UploadSongRequest, payload []byte) (uint32, error) {
	if strings.TrimSpace(req.Title) == "" {
		return 0, errors.New("upload has no title")
	}
	if strings.TrimSpace(req.ArtistName) == "" {
		return 0, errors.New("upload has no artist name")
	}
	if uint64(len(payload)) != req.FileSize {
		return 0, fmt.Errorf("upload payload is %d bytes, header says %d", len(payload), req.FileSize)
	}
	ending := req.FileEnding
	if ending != "" && !strings.HasPrefix(ending, ".") {
		ending = "." + ending
	}

	d.mu.Lock()
	songID, err := d.commitUploadLocked(req, ending)
	d.mu.Unlock()
	if err != nil {
		return 0, err
	}

	dest := filepath.Join(d.cfg.Paths.MediaDir, strconv.FormatUint(uint64(songID), 10)+ending)
	if err := os.WriteFile(dest, payload, 0o644); err != nil {
		return 0, fmt.Errorf("write media file: %w", err)
	}

	d.logger.Info("song uploaded",
		slog.Uint64(logging.FieldSongID, uint64(songID)),
		slog.String("title", req.Title),
		slog.String(logging.FieldPath, dest))
	if err := d.notifier.NotifyUploadCompleted(ctx, req.Title, req.ArtistName); err != nil {
		d.logger.Warn("notification failed", logging.Error(err))
	}
	return songID, nil
}

func (d *Daemon) commitUploadLocked(req wire.UploadSongRequest, ending string) (uint32, error) {
	artist, err := d.lib.Commit(library.ChangeRequest{Type: library.ArtistAddOrGet, Name: req.ArtistName})
	if err != nil {
		return 0, fmt.Errorf("resolve artist: %w", err)
	}

	albumID := d.findAlbumLocked(artist.CreatedID, req.AlbumName)
	if albumID == 0 {
		album, err := d.lib.Commit(library.ChangeRequest{Type: library.AlbumAdd, TargetID: artist.CreatedID, Name: req.AlbumName})
		if err != nil {
			return 0, fmt.Errorf("create album: %w", err)
		}
		albumID = album.CreatedID
	}

	position := req.Position
	if position == 0 {
		position = uint32(len(library.AlbumID(albumID).Songs(d.lib))) + 1
	}

	song, err := d.lib.Commit(library.ChangeRequest{Type: library.SongAdd, TargetID: albumID, Name: req.Title})
	if err != nil {
		return 0, fmt.Errorf("create song: %w", err)
	}
	details := []library.ChangeRequest{
		{Type: library.SongSetLength, TargetID: song.CreatedID, Detail: req.Duration},
		{Type: library.SongSetPosition, TargetID: song.CreatedID, Detail: position},
		{Type: library.SongSetFileEnding, TargetID: song.CreatedID, Name: ending},
	}
	for _, detail := range details {
		if _, err := d.lib.Commit(detail); err != nil {
			return 0, fmt.Errorf("describe song: %w", err)
		}
	}
	if err := d.store.Save(d.lib); err != nil {
		return 0, fmt.Errorf("persist library: %w", err)
	}
	return song.CreatedID, nil
}

func (d *Daemon) findAlbumLocked(artistID uint32, name string) uint32 {
	for _, album := range library.ArtistID(artistID).Albums(d.lib) {
		if album.Name(d.lib) == name {
			return uint32(album)
		}
	}
	return 0
}
