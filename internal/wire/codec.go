package wire

import (
	"encoding/json"
	"fmt"

	"chorus/internal/library"
)

// decoder pulls required members out of a data object, remembering the
// first failure. Every declared member must be present with the right
// type; there are no optional fields on the wire.
type decoder struct {
	id  string
	obj map[string]json.RawMessage
	err error
}

func newDecoder(id string, data json.RawMessage) *decoder {
	d := &decoder{id: id}
	if err := json.Unmarshal(data, &d.obj); err != nil {
		d.err = &ProtocolError{Reason: fmt.Sprintf("%s: data is not an object", id)}
	}
	return d
}

func (d *decoder) raw(name string) json.RawMessage {
	if d.err != nil {
		return nil
	}
	raw, ok := d.obj[name]
	if !ok {
		d.err = &ProtocolError{Reason: fmt.Sprintf("%s: missing member %q", d.id, name)}
		return nil
	}
	return raw
}

func (d *decoder) into(name string, dst any) {
	raw := d.raw(name)
	if d.err != nil {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.err = &ProtocolError{Reason: fmt.Sprintf("%s: invalid member %q", d.id, name)}
	}
}

func (d *decoder) uint32(name string) uint32 {
	var v uint32
	d.into(name, &v)
	return v
}

func (d *decoder) uint64(name string) uint64 {
	var v uint64
	d.into(name, &v)
	return v
}

func (d *decoder) str(name string) string {
	var v string
	d.into(name, &v)
	return v
}

func (d *decoder) array(name string) []json.RawMessage {
	var v []json.RawMessage
	d.into(name, &v)
	return v
}

func decodeEmpty(make func() Message) func(string, json.RawMessage) (Message, error) {
	return func(id string, data json.RawMessage) (Message, error) {
		d := newDecoder(id, data)
		if d.err != nil {
			return nil, d.err
		}
		return make(), nil
	}
}

func (Ping) encodeData() (any, error)            { return struct{}{}, nil }
func (Pong) encodeData() (any, error)            { return struct{}{}, nil }
func (LibraryRequest) encodeData() (any, error)  { return struct{}{}, nil }
func (MediaUrlRequest) encodeData() (any, error) { return struct{}{}, nil }
func (IdRequest) encodeData() (any, error)       { return struct{}{}, nil }
func (DownloadQuery) encodeData() (any, error)   { return struct{}{}, nil }

func (m Error) encodeData() (any, error) {
	return struct {
		ErrorMessage string `json:"errorMessage"`
	}{m.ErrorMessage}, nil
}

func decodeError(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := Error{ErrorMessage: d.str("errorMessage")}
	return m, d.err
}

func (m LibraryResponse) encodeData() (any, error) {
	lib := m.LibraryJSON
	if lib == nil {
		lib = json.RawMessage("{}")
	}
	return struct {
		Version     uint32          `json:"version"`
		LibraryJSON json.RawMessage `json:"libraryJson"`
	}{m.Version, lib}, nil
}

func decodeLibraryResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := LibraryResponse{Version: d.uint32("version"), LibraryJSON: d.raw("libraryJson")}
	return m, d.err
}

func (m MediaUrlResponse) encodeData() (any, error) {
	return struct {
		URL string `json:"url"`
	}{m.URL}, nil
}

func decodeMediaUrlResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := MediaUrlResponse{URL: d.str("url")}
	return m, d.err
}

func (m IdResponse) encodeData() (any, error) {
	return struct {
		ID string `json:"id"`
	}{m.LibraryID}, nil
}

func decodeIdResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := IdResponse{LibraryID: d.str("id")}
	return m, d.err
}

type wireChangeRequest struct {
	Type     string `json:"type"`
	TargetID uint32 `json:"targetId"`
	Detail   uint32 `json:"detail"`
	Name     string `json:"name"`
}

type wireCommittedChange struct {
	Request           wireChangeRequest `json:"request"`
	CommittedRevision uint32            `json:"committedRevision"`
	CreatedID         uint32            `json:"createdId"`
}

func encodeChangeRequest(req library.ChangeRequest) wireChangeRequest {
	return wireChangeRequest{
		Type:     string(req.Type),
		TargetID: req.TargetID,
		Detail:   req.Detail,
		Name:     req.Name,
	}
}

func decodeChangeRequest(id string, raw json.RawMessage) (library.ChangeRequest, error) {
	d := newDecoder(id, raw)
	req := library.ChangeRequest{
		Type:     library.ChangeType(d.str("type")),
		TargetID: d.uint32("targetId"),
		Detail:   d.uint32("detail"),
		Name:     d.str("name"),
	}
	return req, d.err
}

func encodeCommittedChanges(changes []library.CommittedChange) []wireCommittedChange {
	out := make([]wireCommittedChange, len(changes))
	for i, c := range changes {
		out[i] = wireCommittedChange{
			Request:           encodeChangeRequest(c.Request),
			CommittedRevision: c.CommittedRevision,
			CreatedID:         c.CreatedID,
		}
	}
	return out
}

func decodeCommittedChanges(id string, raws []json.RawMessage) ([]library.CommittedChange, error) {
	out := make([]library.CommittedChange, 0, len(raws))
	for _, raw := range raws {
		d := newDecoder(id, raw)
		reqRaw := d.raw("request")
		rev := d.uint32("committedRevision")
		created := d.uint32("createdId")
		if d.err != nil {
			return nil, d.err
		}
		req, err := decodeChangeRequest(id, reqRaw)
		if err != nil {
			return nil, err
		}
		out = append(out, library.CommittedChange{
			Request:           req,
			CommittedRevision: rev,
			CreatedID:         created,
		})
	}
	return out, nil
}

func (m ChangesRequest) encodeData() (any, error) {
	changes := make([]wireChangeRequest, len(m.Changes))
	for i, req := range m.Changes {
		changes[i] = encodeChangeRequest(req)
	}
	return struct {
		Changes []wireChangeRequest `json:"changes"`
	}{changes}, nil
}

func decodeChangesRequest(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	raws := d.array("changes")
	if d.err != nil {
		return nil, d.err
	}
	m := ChangesRequest{Changes: make([]library.ChangeRequest, 0, len(raws))}
	for _, raw := range raws {
		req, err := decodeChangeRequest(id, raw)
		if err != nil {
			return nil, err
		}
		m.Changes = append(m.Changes, req)
	}
	return m, nil
}

func (m ChangesResponse) encodeData() (any, error) {
	return struct {
		Changes []wireCommittedChange `json:"changes"`
	}{encodeCommittedChanges(m.Changes)}, nil
}

func decodeChangesResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	raws := d.array("changes")
	if d.err != nil {
		return nil, d.err
	}
	changes, err := decodeCommittedChanges(id, raws)
	if err != nil {
		return nil, err
	}
	return ChangesResponse{Changes: changes}, nil
}

func (m ChangeListRequest) encodeData() (any, error) {
	return struct {
		Revision uint32 `json:"revision"`
	}{m.Revision}, nil
}

func decodeChangeListRequest(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := ChangeListRequest{Revision: d.uint32("revision")}
	return m, d.err
}

func (m ChangeListResponse) encodeData() (any, error) {
	return struct {
		Changes []wireCommittedChange `json:"changes"`
	}{encodeCommittedChanges(m.Changes)}, nil
}

func decodeChangeListResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	raws := d.array("changes")
	if d.err != nil {
		return nil, d.err
	}
	changes, err := decodeCommittedChanges(id, raws)
	if err != nil {
		return nil, err
	}
	return ChangeListResponse{Changes: changes}, nil
}

type wireDownloadRequest struct {
	RequestType     string `json:"requestType"`
	URL             string `json:"url"`
	ArtistID        uint32 `json:"artistId"`
	ArtistName      string `json:"artistName"`
	AlbumName       string `json:"albumName"`
	CurrentRevision uint32 `json:"currentRevision"`
}

func (m DownloadRequest) encodeData() (any, error) {
	return wireDownloadRequest{
		RequestType:     string(m.RequestType),
		URL:             m.URL,
		ArtistID:        m.ArtistID,
		ArtistName:      m.ArtistName,
		AlbumName:       m.AlbumName,
		CurrentRevision: m.CurrentRevision,
	}, nil
}

func decodeDownloadRequestData(id string, data json.RawMessage) (DownloadRequest, error) {
	d := newDecoder(id, data)
	m := DownloadRequest{
		RequestType:     DownloadSource(d.str("requestType")),
		URL:             d.str("url"),
		ArtistID:        d.uint32("artistId"),
		ArtistName:      d.str("artistName"),
		AlbumName:       d.str("albumName"),
		CurrentRevision: d.uint32("currentRevision"),
	}
	return m, d.err
}

func decodeDownloadRequest(id string, data json.RawMessage) (Message, error) {
	m, err := decodeDownloadRequestData(id, data)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m DownloadResponse) encodeData() (any, error) {
	return struct {
		DownloadID uint32 `json:"downloadId"`
	}{m.DownloadID}, nil
}

func decodeDownloadResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := DownloadResponse{DownloadID: d.uint32("downloadId")}
	return m, d.err
}

func (m DownloadQueryResponse) encodeData() (any, error) {
	type wireActive struct {
		ID      uint32              `json:"id"`
		Request wireDownloadRequest `json:"request"`
	}
	active := make([]wireActive, len(m.ActiveRequests))
	for i, a := range m.ActiveRequests {
		data, err := a.Request.encodeData()
		if err != nil {
			return nil, err
		}
		active[i] = wireActive{ID: a.ID, Request: data.(wireDownloadRequest)}
	}
	return struct {
		ActiveRequests []wireActive `json:"activeRequests"`
	}{active}, nil
}

func decodeDownloadQueryResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	raws := d.array("activeRequests")
	if d.err != nil {
		return nil, d.err
	}
	m := DownloadQueryResponse{ActiveRequests: make([]ActiveDownload, 0, len(raws))}
	for _, raw := range raws {
		entry := newDecoder(id, raw)
		jobID := entry.uint32("id")
		reqRaw := entry.raw("request")
		if entry.err != nil {
			return nil, entry.err
		}
		req, err := decodeDownloadRequestData(id, reqRaw)
		if err != nil {
			return nil, err
		}
		m.ActiveRequests = append(m.ActiveRequests, ActiveDownload{ID: jobID, Request: req})
	}
	return m, nil
}

func (m UploadSongRequest) encodeData() (any, error) {
	return struct {
		Title      string `json:"title"`
		ArtistName string `json:"artistName"`
		AlbumName  string `json:"albumName"`
		Position   uint32 `json:"position"`
		Duration   uint32 `json:"duration"`
		FileEnding string `json:"fileEnding"`
		FileSize   uint64 `json:"fileSize"`
	}{m.Title, m.ArtistName, m.AlbumName, m.Position, m.Duration, m.FileEnding, m.FileSize}, nil
}

func decodeUploadSongRequest(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := UploadSongRequest{
		Title:      d.str("title"),
		ArtistName: d.str("artistName"),
		AlbumName:  d.str("albumName"),
		Position:   d.uint32("position"),
		Duration:   d.uint32("duration"),
		FileEnding: d.str("fileEnding"),
		FileSize:   d.uint64("fileSize"),
	}
	return m, d.err
}

func (m UploadSongResponse) encodeData() (any, error) {
	return struct {
		SongID uint32 `json:"songId"`
	}{m.SongID}, nil
}

func decodeUploadSongResponse(id string, data json.RawMessage) (Message, error) {
	d := newDecoder(id, data)
	m := UploadSongResponse{SongID: d.uint32("songId")}
	return m, d.err
}
