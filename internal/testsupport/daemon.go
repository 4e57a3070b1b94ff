package testsupport

import (
	"context"
	"testing"
	"time"

	"chorus/internal/client"
	"chorus/internal/config"
	"chorus/internal/daemon"
	"chorus/internal/logging"
	"chorus/internal/server"
)

// StartDaemon boots a daemon plus server on an ephemeral port and
// returns a client pointed at it. Everything is torn down with the test.
func StartDaemon(t testing.TB, cfg *config.Config) (*daemon.Daemon, *client.Client) {
	t.Helper()

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		d.Close()
		t.Fatalf("daemon.Start: %v", err)
	}

	srv, err := server.New(context.Background(), cfg, d, logging.NewNop())
	if err != nil {
		d.Close()
		t.Fatalf("server.New: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		srv.Close()
		d.Close()
	})

	return d, client.New(srv.Addr(), 5*time.Second, cfg.MaxMessageBytes())
}
