package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"chorus/internal/config"
	"chorus/internal/logging"
	"chorus/internal/wire"
)

// ToolFetcher fetches media with youtube-dl and splits chaptered videos
// with ffmpeg. Both binaries are resolved through the configured tool
// directory when one is set, otherwise through PATH.
type ToolFetcher struct {
	toolDir      string
	fetchTimeout time.Duration
	splitTimeout time.Duration
	logger       *slog.Logger
}

func NewToolFetcher(cfg *config.Config, logger *slog.Logger) *ToolFetcher {
	return &ToolFetcher{
		toolDir:      cfg.Downloader.ToolDir,
		fetchTimeout: time.Duration(cfg.Downloader.FetchTimeout) * time.Second,
		splitTimeout: time.Duration(cfg.Downloader.SplitTimeout) * time.Second,
		logger:       logging.WithComponent(logger, "fetch"),
	}
}

// mediaInfo is the subset of youtube-dl's -j output the fetcher needs.
// Playlists and Bandcamp albums emit one such object per line.
type mediaInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Chapters []struct {
		Title     string  `json:"title"`
		StartTime float64 `json:"start_time"`
		EndTime   float64 `json:"end_time"`
	} `json:"chapters"`
}

// Fetch probes the URL for metadata, downloads the audio into destDir
// and, for a single video that carries chapter marks, cuts it into one
// file per chapter.
func (f *ToolFetcher) Fetch(ctx context.Context, req wire.DownloadRequest, destDir string) (*FetchResult, error) {
	infos, err := f.probe(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, &ToolError{Tool: "youtube-dl", Err: errors.New("no media found at URL")}
	}

	files, err := f.downloadAudio(ctx, req.URL, destDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &ToolError{Tool: "youtube-dl", Err: errors.New("download produced no files")}
	}

	result := &FetchResult{
		ArtistName: infos[0].Artist,
		AlbumName:  infos[0].Album,
	}

	if req.RequestType == wire.DownloadYoutubeVideo && len(files) == 1 && len(infos[0].Chapters) > 0 {
		tracks, err := f.splitChapters(ctx, infos[0], files[0], destDir)
		if err == nil {
			result.Tracks = tracks
			return result, nil
		}
		// Splitting is best effort, a failure falls back to the whole
		// file as one track.
		f.logger.Warn("chapter split failed",
			slog.String(logging.FieldURL, req.URL), logging.Error(err))
	}

	for i, path := range files {
		track := Track{Path: path}
		if i < len(infos) {
			track.Title = infos[i].Title
			track.Duration = uint32(infos[i].Duration)
		}
		if track.Title == "" {
			track.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		result.Tracks = append(result.Tracks, track)
	}
	return result, nil
}

// probe runs youtube-dl -j and parses the newline separated JSON
// objects it prints, one per playlist entry.
func (f *ToolFetcher) probe(ctx context.Context, url string) ([]mediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.tool("youtube-dl"), "-j", url) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &ToolError{Tool: "youtube-dl", Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	var infos []mediaInfo
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var info mediaInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, &ToolError{Tool: "youtube-dl", Err: fmt.Errorf("parse media info: %w", err)}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// downloadAudio extracts audio for every entry behind the URL into
// destDir and returns the produced files in playlist order.
func (f *ToolFetcher) downloadAudio(ctx context.Context, url, destDir string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	args := []string{
		"--quiet",
		"--ignore-errors",
		"--extract-audio",
		"-o", filepath.Join(destDir, "%(playlist_index|0)s-%(id)s.%(ext)s"),
		url,
	}
	cmd := exec.CommandContext(ctx, f.tool("youtube-dl"), args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, &ToolError{Tool: "youtube-dl", Err: err, Stderr: strings.TrimSpace(string(output))}
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil, fmt.Errorf("read staging directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(destDir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitChapters cuts a single downloaded file into one track per
// chapter with ffmpeg stream copy.
func (f *ToolFetcher) splitChapters(ctx context.Context, info mediaInfo, source, destDir string) ([]Track, error) {
	ext := filepath.Ext(source)
	var tracks []Track
	for i, chapter := range info.Chapters {
		if chapter.Title == "" || chapter.EndTime <= chapter.StartTime {
			return nil, fmt.Errorf("chapter %d has no usable bounds", i)
		}
		dest := filepath.Join(destDir, fmt.Sprintf("chapter-%03d%s", i+1, ext))
		if err := f.cut(ctx, source, dest, chapter.StartTime, chapter.EndTime); err != nil {
			return nil, err
		}
		tracks = append(tracks, Track{
			Title:    chapter.Title,
			Duration: uint32(chapter.EndTime - chapter.StartTime),
			Path:     dest,
		})
	}
	if err := os.Remove(source); err != nil {
		return nil, fmt.Errorf("remove unsplit source: %w", err)
	}
	return tracks, nil
}

func (f *ToolFetcher) cut(ctx context.Context, source, dest string, start, end float64) error {
	ctx, cancel := context.WithTimeout(ctx, f.splitTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end - start),
		"-i", source,
		"-c", "copy",
		dest,
	}
	cmd := exec.CommandContext(ctx, f.tool("ffmpeg"), args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return &ToolError{Tool: "ffmpeg", Err: err, Stderr: strings.TrimSpace(string(output))}
	}
	return nil
}

func (f *ToolFetcher) tool(name string) string {
	if f.toolDir == "" {
		return name
	}
	return filepath.Join(f.toolDir, name)
}

func formatSeconds(secs float64) string {
	return strconv.FormatFloat(secs, 'f', 3, 64)
}
