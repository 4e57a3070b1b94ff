// Package server accepts TCP connections and answers one framed request
// per connection against the daemon. Unknown or malformed requests get
// an Error message back instead of a dropped connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"chorus/internal/config"
	"chorus/internal/daemon"
	"chorus/internal/logging"
	"chorus/internal/wire"
)

type Server struct {
	daemon     *daemon.Daemon
	logger     *slog.Logger
	listener   net.Listener
	timeout    time.Duration
	maxMessage uint32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New binds the configured address and prepares the server. Serve must
// be called to start accepting connections.
func New(ctx context.Context, cfg *config.Config, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	listener, err := net.Listen("tcp", cfg.Paths.Bind)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Paths.Bind, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		daemon:     d,
		logger:     logging.WithComponent(logger, "server"),
		listener:   listener,
		timeout:    time.Duration(cfg.Network.RequestTimeout) * time.Second,
		maxMessage: cfg.MaxMessageBytes(),
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Addr returns the bound listen address, which differs from the
// configured one when binding port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve starts accepting connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Info("listening", slog.String("addr", s.Addr()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.handle(c)
			}(conn)
		}
	}()
}

// Close stops accepting connections and waits for in-flight handlers.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

// handle serves exactly one request/response exchange.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	if s.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	msg, err := wire.ReadMessage(conn, s.maxMessage)
	if err != nil {
		s.logger.Warn("bad request",
			slog.String(logging.FieldRemote, remote), logging.Error(err))
		_ = wire.WriteMessage(conn, wire.Error{ErrorMessage: err.Error()})
		return
	}

	resp, err := s.dispatch(conn, msg)
	if err != nil {
		s.logger.Warn("request failed",
			slog.String(logging.FieldRemote, remote),
			slog.String(logging.FieldMessageID, msg.ID()),
			logging.Error(err))
		resp = wire.Error{ErrorMessage: err.Error()}
	}
	if err := wire.WriteMessage(conn, resp); err != nil {
		s.logger.Warn("write response failed",
			slog.String(logging.FieldRemote, remote), logging.Error(err))
	}
}

func (s *Server) dispatch(conn net.Conn, msg wire.Message) (wire.Message, error) {
	switch m := msg.(type) {
	case wire.Ping:
		return wire.Pong{}, nil

	case wire.IdRequest:
		return wire.IdResponse{LibraryID: s.daemon.LibraryID()}, nil

	case wire.MediaUrlRequest:
		return wire.MediaUrlResponse{URL: s.daemon.MediaBaseURL()}, nil

	case wire.LibraryRequest:
		rev, data, err := s.daemon.Snapshot()
		if err != nil {
			return nil, err
		}
		return wire.LibraryResponse{Version: rev, LibraryJSON: data}, nil

	case wire.ChangesRequest:
		committed, err := s.daemon.ApplyChanges(m.Changes)
		if err != nil {
			return nil, err
		}
		return wire.ChangesResponse{Changes: committed}, nil

	case wire.ChangeListRequest:
		return wire.ChangeListResponse{Changes: s.daemon.ChangesSince(m.Revision)}, nil

	case wire.DownloadRequest:
		id, err := s.daemon.StartDownload(m)
		if err != nil {
			return nil, err
		}
		return wire.DownloadResponse{DownloadID: id}, nil

	case wire.DownloadQuery:
		return wire.DownloadQueryResponse{ActiveRequests: s.daemon.ActiveDownloads()}, nil

	case wire.UploadSongRequest:
		payload, err := s.readUploadPayload(conn, m.FileSize)
		if err != nil {
			return nil, err
		}
		songID, err := s.daemon.UploadSong(s.ctx, m, payload)
		if err != nil {
			return nil, err
		}
		return wire.UploadSongResponse{SongID: songID}, nil

	default:
		return nil, fmt.Errorf("unexpected message: %s", msg.ID())
	}
}

// readUploadPayload reads the raw media bytes that follow an upload
// announcement on the same connection.
func (s *Server) readUploadPayload(conn net.Conn, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, errors.New("upload announces zero bytes")
	}
	if s.maxMessage > 0 && size > uint64(s.maxMessage) {
		return nil, fmt.Errorf("upload of %d bytes exceeds limit of %d", size, s.maxMessage)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read upload payload: %w", err)
	}
	return payload, nil
}
