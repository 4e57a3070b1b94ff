package wire

import (
	"encoding/json"
	"fmt"

	"chorus/internal/library"
)

// Message is one protocol message. Concrete types pair an ID string with
// an explicit encode/decode implementation.
type Message interface {
	ID() string
	encodeData() (any, error)
}

// DownloadSource names the kind of external source a download request
// points at.
type DownloadSource string

const (
	DownloadBandcampAlbum   DownloadSource = "BandcampAlbum"
	DownloadYoutubeVideo    DownloadSource = "YoutubeVideo"
	DownloadYoutubePlaylist DownloadSource = "YoutubePlaylist"
)

func (s DownloadSource) Known() bool {
	switch s {
	case DownloadBandcampAlbum, DownloadYoutubeVideo, DownloadYoutubePlaylist:
		return true
	}
	return false
}

// Error is sent in place of a regular response when a request could not
// be served.
type Error struct {
	ErrorMessage string
}

// Ping expects a Pong and carries nothing.
type Ping struct{}

type Pong struct{}

// LibraryRequest asks for a full snapshot of the server library.
type LibraryRequest struct{}

type LibraryResponse struct {
	Version     uint32
	LibraryJSON json.RawMessage
}

// MediaUrlRequest asks for the base URL under which media files are
// served; clients join it with the song's file path.
type MediaUrlRequest struct{}

type MediaUrlResponse struct {
	URL string
}

// IdRequest asks for the library identity token.
type IdRequest struct{}

type IdResponse struct {
	LibraryID string
}

// ChangesRequest submits a batch of change requests for commit.
type ChangesRequest struct {
	Changes []library.ChangeRequest
}

// ChangesResponse returns the changes that were actually committed.
// An ArtistAddOrGet that hit an existing name yields a record whose
// CommittedRevision equals the server revision at commit time without
// claiming it: the revision belongs to some other logged change. Such
// records carry the resolved artist ID back to the sender and must not
// be fed into a Reconciler; replay from ChangeListResponse instead.
type ChangesResponse struct {
	Changes []library.CommittedChange
}

// ChangeListRequest asks for every committed change with revision >= the
// given one.
type ChangeListRequest struct {
	Revision uint32
}

type ChangeListResponse struct {
	Changes []library.CommittedChange
}

// DownloadRequest starts an asynchronous download job. ArtistID may name
// an existing artist; when zero, ArtistName is resolved via get-or-create.
// CurrentRevision tells the server which revision the client has seen.
type DownloadRequest struct {
	RequestType     DownloadSource
	URL             string
	ArtistID        uint32
	ArtistName      string
	AlbumName       string
	CurrentRevision uint32
}

type DownloadResponse struct {
	DownloadID uint32
}

// DownloadQuery asks for the jobs still in flight.
type DownloadQuery struct{}

type ActiveDownload struct {
	ID      uint32
	Request DownloadRequest
}

type DownloadQueryResponse struct {
	ActiveRequests []ActiveDownload
}

// UploadSongRequest announces a song upload. Exactly FileSize raw bytes
// follow the frame on the same connection.
type UploadSongRequest struct {
	Title      string
	ArtistName string
	AlbumName  string
	Position   uint32
	Duration   uint32
	FileEnding string
	FileSize   uint64
}

type UploadSongResponse struct {
	SongID uint32
}

func (Error) ID() string                 { return "Error" }
func (Ping) ID() string                  { return "Ping" }
func (Pong) ID() string                  { return "Pong" }
func (LibraryRequest) ID() string        { return "LibraryRequest" }
func (LibraryResponse) ID() string       { return "LibraryResponse" }
func (MediaUrlRequest) ID() string       { return "MediaUrlRequest" }
func (MediaUrlResponse) ID() string      { return "MediaUrlResponse" }
func (IdRequest) ID() string             { return "IdRequest" }
func (IdResponse) ID() string            { return "IdResponse" }
func (ChangesRequest) ID() string        { return "ChangesRequest" }
func (ChangesResponse) ID() string       { return "ChangesResponse" }
func (ChangeListRequest) ID() string     { return "ChangeListRequest" }
func (ChangeListResponse) ID() string    { return "ChangeListResponse" }
func (DownloadRequest) ID() string       { return "DownloadRequest" }
func (DownloadResponse) ID() string      { return "DownloadResponse" }
func (DownloadQuery) ID() string         { return "DownloadQuery" }
func (DownloadQueryResponse) ID() string { return "DownloadQueryResponse" }
func (UploadSongRequest) ID() string     { return "UploadSongRequest" }
func (UploadSongResponse) ID() string    { return "UploadSongResponse" }

type envelope struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Marshal encodes a message into its framed payload form.
func Marshal(m Message) ([]byte, error) {
	data, err := m.encodeData()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", m.ID(), err)
	}
	payload, err := json.Marshal(envelope{ID: m.ID(), Data: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", m.ID(), err)
	}
	return payload, nil
}

// Unmarshal decodes one payload into its message type. An unknown ID or
// a missing declared member yields a ProtocolError.
func Unmarshal(payload []byte) (Message, error) {
	var env struct {
		ID   *string         `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &ProtocolError{Reason: "invalid message JSON: " + err.Error()}
	}
	if env.ID == nil {
		return nil, &ProtocolError{Reason: `missing member "id"`}
	}
	if env.Data == nil {
		return nil, &ProtocolError{Reason: `missing member "data"`}
	}
	decode, ok := decoders[*env.ID]
	if !ok {
		return nil, &ProtocolError{Reason: "no such message ID: " + *env.ID}
	}
	return decode(*env.ID, env.Data)
}

var decoders = map[string]func(string, json.RawMessage) (Message, error){
	"Error":                 decodeError,
	"Ping":                  decodeEmpty(func() Message { return Ping{} }),
	"Pong":                  decodeEmpty(func() Message { return Pong{} }),
	"LibraryRequest":        decodeEmpty(func() Message { return LibraryRequest{} }),
	"LibraryResponse":       decodeLibraryResponse,
	"MediaUrlRequest":       decodeEmpty(func() Message { return MediaUrlRequest{} }),
	"MediaUrlResponse":      decodeMediaUrlResponse,
	"IdRequest":             decodeEmpty(func() Message { return IdRequest{} }),
	"IdResponse":            decodeIdResponse,
	"ChangesRequest":        decodeChangesRequest,
	"ChangesResponse":       decodeChangesResponse,
	"ChangeListRequest":     decodeChangeListRequest,
	"ChangeListResponse":    decodeChangeListResponse,
	"DownloadRequest":       decodeDownloadRequest,
	"DownloadResponse":      decodeDownloadResponse,
	"DownloadQuery":         decodeEmpty(func() Message { return DownloadQuery{} }),
	"DownloadQueryResponse": decodeDownloadQueryResponse,
	"UploadSongRequest":     decodeUploadSongRequest,
	"UploadSongResponse":    decodeUploadSongResponse,
}
