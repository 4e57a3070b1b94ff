package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"chorus/internal/config"
	"chorus/internal/download"
	"chorus/internal/library"
	"chorus/internal/logging"
	"chorus/internal/notifications"
	"chorus/internal/storage"
)

type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Store
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	// mu serializes all library mutations and saves.
	mu  sync.Mutex
	lib *library.Library

	downloads *download.Manager
	history   *download.History

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	Revision        uint32
	LibraryID       string
	Artists         int
	Albums          int
	Songs           int
	Tags            int
	ActiveDownloads int
	SnapshotPath    string
	LockFilePath    string
	Bind            string
}

// New constructs a daemon: it ensures the data directories exist, loads
// the library from disk (or starts a fresh one) and prepares the
// download pipeline.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create data directories: %w", err)
	}

	store := storage.New(cfg, logger)
	lib, existed, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	if !existed {
		lib, err = library.New()
		if err != nil {
			return nil, fmt.Errorf("initialize library: %w", err)
		}
	}

	history, err := download.OpenHistory(cfg.HistoryDBPath())
	if err != nil {
		return nil, fmt.Errorf("open download history: %w", err)
	}

	notifier := notifications.NewService(cfg)
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		notifier: notifier,
		logPath:  filepath.Join(cfg.Paths.LogDir, "chorus.log"),
		lockPath: filepath.Join(cfg.Paths.LogDir, "chorusd.lock"),
		lib:      lib,
		history:  history,
	}
	d.lock = flock.New(d.lockPath)

	fetcher := download.NewToolFetcher(cfg, logger)
	jobs := &jobNotifier{svc: notifier, logger: d.logger}
	downloads, err := download.NewManager(context.Background(), cfg, d, fetcher, history, jobs, logger)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("initialize download manager: %w", err)
	}
	d.downloads = downloads

	if !existed {
		if err := store.Save(lib); err != nil {
			history.Close()
			return nil, fmt.Errorf("save fresh library: %w", err)
		}
		d.logger.Info("fresh library created", slog.String("id", lib.Token().String()))
	}
	return d, nil
}

// Start acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another chorus daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running.Store(true)
	d.logger.Info("chorus daemon started",
		slog.String("id", d.LibraryID()),
		slog.Uint64(logging.FieldRevision, uint64(d.Revision())),
		slog.String("lock", d.lockPath))
	return nil
}

// Stop cancels running downloads, waits for their goroutines, persists
// the library and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.downloads.Wait()

	d.mu.Lock()
	if err := d.store.Save(d.lib); err != nil {
		d.logger.Error("final save failed", logging.Error(err))
	}
	d.mu.Unlock()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("chorus daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.history.Close()
}

// Context returns the daemon lifetime context; it is canceled on Stop.
func (d *Daemon) Context() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:         d.running.Load(),
		Revision:        d.lib.Revision(),
		LibraryID:       d.lib.Token().String(),
		Artists:         d.lib.NumArtists(),
		Albums:          d.lib.NumAlbums(),
		Songs:           d.lib.NumSongs(),
		Tags:            d.lib.NumTags(),
		ActiveDownloads: len(d.downloads.Active()),
		SnapshotPath:    d.cfg.SnapshotPath(),
		LockFilePath:    d.lockPath,
		Bind:            d.cfg.Paths.Bind,
	}
}

// jobNotifier forwards download outcomes to the notification service,
// logging delivery failures instead of surfacing them to jobs.
type jobNotifier struct {
	svc    notifications.Service
	logger *slog.Logger
}

func (n *jobNotifier) JobCompleted(ctx context.Context, artist, album string, songs int) {
	if err := n.svc.NotifyDownloadCompleted(ctx, artist, album, songs); err != nil {
		n.logger.Warn("notification failed", logging.Error(err))
	}
}

func (n *jobNotifier) JobFailed(ctx context.Context, url string, err error) {
	if notifyErr := n.svc.NotifyDownloadFailed(ctx, url, err); notifyErr != nil {
		n.logger.Warn("notification failed", logging.Error(notifyErr))
	}
}
