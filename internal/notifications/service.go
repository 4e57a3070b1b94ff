package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chorus/internal/config"
)

const userAgent = "Chorus/0.1.0"

// Service defines the notification surface exposed to daemon components.
type Service interface {
	NotifyDownloadCompleted(ctx context.Context, artist, album string, songs int) error
	NotifyDownloadFailed(ctx context.Context, url string, err error) error
	NotifyUploadCompleted(ctx context.Context, title, artist string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, artist, album string, songs int) error {
	artist = strings.TrimSpace(artist)
	album = strings.TrimSpace(album)
	data := payload{
		title:   "Chorus - Download Complete",
		message: fmt.Sprintf("Added %s - %s (%d songs)", artist, album, songs),
		tags:    []string{"chorus", "download", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDownloadFailed(ctx context.Context, url string, err error) error {
	var builder strings.Builder
	builder.WriteString("Download failed: ")
	builder.WriteString(strings.TrimSpace(url))
	builder.WriteString("\n")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	data := payload{
		title:    "Chorus - Download Failed",
		message:  builder.String(),
		tags:     []string{"chorus", "download", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, title, artist string) error {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	data := payload{
		title:   "Chorus - Upload Complete",
		message: fmt.Sprintf("Added %s by %s", title, artist),
		tags:    []string{"chorus", "upload", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Chorus - Test",
		message:  "Notification system test",
		tags:     []string{"chorus", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDownloadCompleted(context.Context, string, string, int) error { return nil }
func (noopService) NotifyDownloadFailed(context.Context, string, error) error          { return nil }
func (noopService) NotifyUploadCompleted(context.Context, string, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
