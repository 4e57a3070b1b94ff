package wire_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"

	"chorus/internal/library"
	"chorus/internal/wire"
)

func roundTrip(t *testing.T, m wire.Message) wire.Message {
	t.Helper()
	var buf bytes.Buffer
	if err := wire.WriteMessage(&buf, m); err != nil {
		t.Fatalf("WriteMessage(%s): %v", m.ID(), err)
	}
	got, err := wire.ReadMessage(&buf, wire.DefaultMaxMessageBytes)
	if err != nil {
		t.Fatalf("ReadMessage(%s): %v", m.ID(), err)
	}
	return got
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"id":"Ping","data":{}}`)
	if err := wire.WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() != 4+len(payload) {
		t.Fatalf("frame length %d, want %d", buf.Len(), 4+len(payload))
	}
	got, err := wire.ReadFrame(&buf, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 1<<20)
	buf.Write(prefix[:])

	_, err := wire.ReadFrame(&buf, 1024)
	var perr *wire.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want ProtocolError", err)
	}
}

func TestReadFrameShortPayloadIsTransportError(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 100)
	buf.Write(prefix[:])
	buf.WriteString("only a little")

	_, err := wire.ReadFrame(&buf, 0)
	var terr *wire.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("got %v, want TransportError", err)
	}
}

func TestMessageRoundTrips(t *testing.T) {
	messages := []wire.Message{
		wire.Ping{},
		wire.Pong{},
		wire.Error{ErrorMessage: "nope"},
		wire.IdResponse{LibraryID: "00112233aabbccdd"},
		wire.MediaUrlResponse{URL: "https://music.example.net/media/"},
		wire.ChangeListRequest{Revision: 17},
		wire.ChangesRequest{Changes: []library.ChangeRequest{
			{Type: library.ArtistAdd, Name: "Boards of Canada"},
			{Type: library.SongSetLength, TargetID: 3, Detail: 146},
		}},
		wire.ChangesResponse{Changes: []library.CommittedChange{
			{Request: library.ChangeRequest{Type: library.ArtistAdd, Name: "Boards of Canada"}, CommittedRevision: 1, CreatedID: 1},
		}},
		wire.DownloadRequest{
			RequestType:     wire.DownloadBandcampAlbum,
			URL:             "https://example.bandcamp.com/album/x",
			ArtistName:      "Example",
			AlbumName:       "X",
			CurrentRevision: 4,
		},
		wire.DownloadResponse{DownloadID: 9},
		wire.DownloadQueryResponse{ActiveRequests: []wire.ActiveDownload{
			{ID: 9, Request: wire.DownloadRequest{RequestType: wire.DownloadYoutubeVideo, URL: "https://youtu.be/abc"}},
		}},
		wire.UploadSongRequest{
			Title: "Roygbiv", ArtistName: "Boards of Canada", AlbumName: "Music Has the Right to Children",
			Position: 8, Duration: 146, FileEnding: ".mp3", FileSize: 3511234,
		},
		wire.UploadSongResponse{SongID: 12},
	}

	for _, m := range messages {
		got := roundTrip(t, m)
		if !reflect.DeepEqual(got, m) {
			t.Errorf("%s: round trip mismatch:\ngot  %#v\nwant %#v", m.ID(), got, m)
		}
	}
}

func TestUnmarshalRejectsUnknownID(t *testing.T) {
	_, err := wire.Unmarshal([]byte(`{"id":"SelfDestruct","data":{}}`))
	var perr *wire.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want ProtocolError", err)
	}
	if !strings.Contains(perr.Reason, "SelfDestruct") {
		t.Fatalf("reason does not name the ID: %q", perr.Reason)
	}
}

func TestUnmarshalMissingMemberIsHardError(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		member  string
	}{
		{"no id", `{"data":{}}`, `"id"`},
		{"no data", `{"id":"Ping"}`, `"data"`},
		{"change list without revision", `{"id":"ChangeListRequest","data":{}}`, `"revision"`},
		{"download without url", `{"id":"DownloadRequest","data":{"requestType":"BandcampAlbum","artistId":0,"artistName":"","albumName":"","currentRevision":0}}`, `"url"`},
		{"upload without fileSize", `{"id":"UploadSongRequest","data":{"title":"t","artistName":"a","albumName":"b","position":1,"duration":2,"fileEnding":".mp3"}}`, `"fileSize"`},
		{"committed change without revision", `{"id":"ChangesResponse","data":{"changes":[{"request":{"type":"ArtistAdd","targetId":0,"detail":0,"name":"x"},"createdId":1}]}}`, `"committedRevision"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wire.Unmarshal([]byte(tc.payload))
			var perr *wire.ProtocolError
			if !errors.As(err, &perr) {
				t.Fatalf("got %v, want ProtocolError", err)
			}
			if !strings.Contains(perr.Reason, tc.member) {
				t.Fatalf("reason %q does not name member %s", perr.Reason, tc.member)
			}
		})
	}
}

func TestLibraryResponseCarriesSnapshot(t *testing.T) {
	lib, err := library.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := lib.Commit(library.ChangeRequest{Type: library.ArtistAdd, Name: "Plaid"}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	snap, err := lib.MarshalSnapshot()
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}

	got := roundTrip(t, wire.LibraryResponse{Version: lib.Revision(), LibraryJSON: snap})
	resp, ok := got.(wire.LibraryResponse)
	if !ok {
		t.Fatalf("got %T, want LibraryResponse", got)
	}
	if resp.Version != lib.Revision() {
		t.Fatalf("version: got %d, want %d", resp.Version, lib.Revision())
	}
	restored, err := library.FromSnapshot(resp.LibraryJSON, nil)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if restored.NumArtists() != 1 || restored.Token() != lib.Token() {
		t.Fatal("snapshot did not survive the wire")
	}
}
