package server_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chorus/internal/client"
	"chorus/internal/library"
	"chorus/internal/testsupport"
	"chorus/internal/wire"
)

func TestPingPong(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestIdentityAndMediaURL(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMediaBaseURL("https://media.example/files"))
	d, c := testsupport.StartDaemon(t, cfg)

	id, err := c.LibraryID(context.Background())
	if err != nil {
		t.Fatalf("LibraryID: %v", err)
	}
	if id != d.LibraryID() {
		t.Fatalf("library ID = %q, want %q", id, d.LibraryID())
	}

	url, err := c.MediaBaseURL(context.Background())
	if err != nil {
		t.Fatalf("MediaBaseURL: %v", err)
	}
	// Normalization appends the trailing slash.
	if url != "https://media.example/files/" {
		t.Fatalf("media URL = %q", url)
	}
}

func TestApplyChangesAndReconcile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	// IDs are allocated from one shared space: artist 1, album 2, song 3.
	committed, err := c.ApplyChanges(ctx, []library.ChangeRequest{
		{Type: library.ArtistAdd, Name: "Boards of Canada"},
		{Type: library.AlbumAdd, TargetID: 1, Name: "Geogaddi"},
		{Type: library.SongAdd, TargetID: 2, Name: "Music Is Math"},
		{Type: library.SongRemove, TargetID: 77},
	})
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	if len(committed) != 3 {
		t.Fatalf("committed %d changes, want 3", len(committed))
	}
	if committed[2].CommittedRevision != 3 {
		t.Fatalf("last revision = %d, want 3", committed[2].CommittedRevision)
	}

	// A fresh client replica converges by replaying the change list.
	replica, err := library.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := library.NewReconciler(replica)
	changes, err := c.ChangesSince(ctx, replica.Revision()+1)
	if err != nil {
		t.Fatalf("ChangesSince: %v", err)
	}
	if _, err := rec.Enqueue(changes...); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if replica.Revision() != 3 || replica.NumSongs() != 1 {
		t.Fatalf("replica revision=%d songs=%d", replica.Revision(), replica.NumSongs())
	}
}

func TestFetchLibrarySnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	if _, err := c.ApplyChanges(ctx, []library.ChangeRequest{{Type: library.TagAdd, Name: "ambient"}}); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	rev, snapshot, err := c.FetchLibrary(ctx)
	if err != nil {
		t.Fatalf("FetchLibrary: %v", err)
	}
	if rev != 1 {
		t.Fatalf("snapshot revision = %d, want 1", rev)
	}
	lib, err := library.FromSnapshot(snapshot, nil)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if lib.NumTags() != 1 {
		t.Fatalf("snapshot has %d tags, want 1", lib.NumTags())
	}
}

func TestChangeListBoundIsClosed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	if _, err := c.ApplyChanges(ctx, []library.ChangeRequest{
		{Type: library.TagAdd, Name: "a"},
		{Type: library.TagAdd, Name: "b"},
		{Type: library.TagAdd, Name: "c"},
	}); err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}

	changes, err := c.ChangesSince(ctx, 2)
	if err != nil {
		t.Fatalf("ChangesSince: %v", err)
	}
	if len(changes) != 2 || changes[0].CommittedRevision != 2 {
		t.Fatalf("ChangesSince(2) = %+v", changes)
	}
}

func TestUploadSongOverWire(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	payload := []byte("mp3 frames go here")
	songID, err := c.UploadSong(context.Background(), wire.UploadSongRequest{
		Title:      "Roygbiv",
		ArtistName: "Boards of Canada",
		AlbumName:  "Music Has the Right to Children",
		Position:   6,
		Duration:   150,
		FileEnding: ".mp3",
	}, payload)
	if err != nil {
		t.Fatalf("UploadSong: %v", err)
	}
	// Artist and album are created first, so the song gets ID 3.
	if songID != 3 {
		t.Fatalf("song ID = %d, want 3", songID)
	}

	media, err := os.ReadFile(filepath.Join(cfg.Paths.MediaDir, "3.mp3"))
	if err != nil {
		t.Fatalf("read media: %v", err)
	}
	if string(media) != string(payload) {
		t.Fatal("uploaded payload mismatch")
	}
}

func TestRejectedChangeDoesNotPoisonBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, c := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	committed, err := c.ApplyChanges(ctx, []library.ChangeRequest{
		{Type: library.ArtistRemove, TargetID: 9},
		{Type: library.ArtistAdd, Name: "Plaid"},
	})
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	if len(committed) != 1 || committed[0].Request.Type != library.ArtistAdd {
		t.Fatalf("committed = %+v", committed)
	}
	if d.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", d.Revision())
	}
}

func TestRawConnectionGetsErrorForNonRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	// Pong is a valid wire message but not a request.
	conn, err := net.DialTimeout("tcp", c.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := wire.WriteMessage(conn, wire.Pong{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := wire.ReadMessage(conn, wire.DefaultMaxMessageBytes)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	remote, ok := resp.(wire.Error)
	if !ok {
		t.Fatalf("response = %T, want wire.Error", resp)
	}
	if remote.ErrorMessage == "" {
		t.Fatal("error message is empty")
	}
}

func TestClientReportsRemoteError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	// Downloads for unknown artist IDs are rejected server-side.
	_, err := c.StartDownload(context.Background(), wire.DownloadRequest{
		RequestType: wire.DownloadYoutubeVideo,
		URL:         "https://yt.example/v",
		ArtistID:    99,
	})
	var remote *client.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
}
