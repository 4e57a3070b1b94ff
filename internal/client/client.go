// Package client speaks the framed protocol to a running daemon. Every
// call dials a fresh connection, sends one request and reads one
// response, matching the single-exchange contract of the server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"chorus/internal/library"
	"chorus/internal/wire"
)

// RemoteError carries an Error message the server sent in place of the
// expected response.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server: %s", e.Message)
}

type Client struct {
	addr       string
	timeout    time.Duration
	maxMessage uint32
}

// New creates a client for the daemon at addr. A zero timeout disables
// connection deadlines; maxMessage of zero falls back to the protocol
// default.
func New(addr string, timeout time.Duration, maxMessage uint32) *Client {
	if maxMessage == 0 {
		maxMessage = wire.DefaultMaxMessageBytes
	}
	return &Client{addr: addr, timeout: timeout, maxMessage: maxMessage}
}

// Addr returns the daemon address this client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, wire.Ping{}, nil)
	if err != nil {
		return err
	}
	if _, ok := resp.(wire.Pong); !ok {
		return unexpected(resp)
	}
	return nil
}

// LibraryID fetches the library identity token.
func (c *Client) LibraryID(ctx context.Context) (string, error) {
	resp, err := c.roundTrip(ctx, wire.IdRequest{}, nil)
	if err != nil {
		return "", err
	}
	m, ok := resp.(wire.IdResponse)
	if !ok {
		return "", unexpected(resp)
	}
	return m.LibraryID, nil
}

// MediaBaseURL fetches the URL prefix under which media files are served.
func (c *Client) MediaBaseURL(ctx context.Context) (string, error) {
	resp, err := c.roundTrip(ctx, wire.MediaUrlRequest{}, nil)
	if err != nil {
		return "", err
	}
	m, ok := resp.(wire.MediaUrlResponse)
	if !ok {
		return "", unexpected(resp)
	}
	return m.URL, nil
}

// FetchLibrary retrieves a full snapshot and its revision.
func (c *Client) FetchLibrary(ctx context.Context) (uint32, []byte, error) {
	resp, err := c.roundTrip(ctx, wire.LibraryRequest{}, nil)
	if err != nil {
		return 0, nil, err
	}
	m, ok := resp.(wire.LibraryResponse)
	if !ok {
		return 0, nil, unexpected(resp)
	}
	return m.Version, m.LibraryJSON, nil
}

// ApplyChanges submits a batch of change requests and returns the ones
// the server committed.
func (c *Client) ApplyChanges(ctx context.Context, reqs []library.ChangeRequest) ([]library.CommittedChange, error) {
	resp, err := c.roundTrip(ctx, wire.ChangesRequest{Changes: reqs}, nil)
	if err != nil {
		return nil, err
	}
	m, ok := resp.(wire.ChangesResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return m.Changes, nil
}

// ChangesSince fetches every committed change with revision >= rev.
// Callers that are current at revision N pass N+1.
func (c *Client) ChangesSince(ctx context.Context, rev uint32) ([]library.CommittedChange, error) {
	resp, err := c.roundTrip(ctx, wire.ChangeListRequest{Revision: rev}, nil)
	if err != nil {
		return nil, err
	}
	m, ok := resp.(wire.ChangeListResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return m.Changes, nil
}

// StartDownload asks the daemon to launch a download job.
func (c *Client) StartDownload(ctx context.Context, req wire.DownloadRequest) (uint32, error) {
	resp, err := c.roundTrip(ctx, req, nil)
	if err != nil {
		return 0, err
	}
	m, ok := resp.(wire.DownloadResponse)
	if !ok {
		return 0, unexpected(resp)
	}
	return m.DownloadID, nil
}

// ActiveDownloads lists the download jobs currently in flight.
func (c *Client) ActiveDownloads(ctx context.Context) ([]wire.ActiveDownload, error) {
	resp, err := c.roundTrip(ctx, wire.DownloadQuery{}, nil)
	if err != nil {
		return nil, err
	}
	m, ok := resp.(wire.DownloadQueryResponse)
	if !ok {
		return nil, unexpected(resp)
	}
	return m.ActiveRequests, nil
}

// UploadSong announces the upload and streams the payload on the same
// connection, then waits for the committed song ID.
func (c *Client) UploadSong(ctx context.Context, req wire.UploadSongRequest, payload []byte) (uint32, error) {
	if req.FileSize == 0 {
		req.FileSize = uint64(len(payload))
	}
	if req.FileSize != uint64(len(payload)) {
		return 0, fmt.Errorf("payload is %d bytes, request says %d", len(payload), req.FileSize)
	}
	resp, err := c.roundTrip(ctx, req, payload)
	if err != nil {
		return 0, err
	}
	m, ok := resp.(wire.UploadSongResponse)
	if !ok {
		return 0, unexpected(resp)
	}
	return m.SongID, nil
}

// roundTrip performs one request/response exchange. trailer, when
// non-nil, is written raw after the request frame.
func (c *Client) roundTrip(ctx context.Context, req wire.Message, trailer []byte) (wire.Message, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if c.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := wire.WriteMessage(conn, req); err != nil {
		return nil, err
	}
	if trailer != nil {
		if _, err := conn.Write(trailer); err != nil {
			return nil, &wire.TransportError{Op: "write upload payload", Err: err}
		}
	}

	resp, err := wire.ReadMessage(conn, c.maxMessage)
	if err != nil {
		return nil, err
	}
	if remote, ok := resp.(wire.Error); ok {
		return nil, &RemoteError{Message: remote.ErrorMessage}
	}
	return resp, nil
}

func unexpected(m wire.Message) error {
	if m == nil {
		return errors.New("no response")
	}
	return fmt.Errorf("unexpected response: %s", m.ID())
}
