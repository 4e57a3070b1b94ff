// Package deps verifies the external binaries the download pipeline
// shells out to, so status output can flag a broken installation before
// a job fails halfway through.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"chorus/internal/config"
)

// Requirement defines an external dependency Chorus relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the tool binaries for the configured tool
// directory. An empty tool directory resolves through PATH.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "youtube-dl",
			Command:     ResolveTool(cfg.Downloader.ToolDir, "youtube-dl"),
			Description: "Fetches media and metadata for download jobs",
		},
		{
			Name:        "ffmpeg",
			Command:     ResolveTool(cfg.Downloader.ToolDir, "ffmpeg"),
			Description: "Splits chaptered videos into songs",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// ResolveTool prefers an executable inside toolDir and falls back to the
// bare name, which CheckBinaries and exec resolve through PATH.
func ResolveTool(toolDir, name string) string {
	toolDir = strings.TrimSpace(toolDir)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if toolDir == "" {
		return name
	}
	candidate := filepath.Join(toolDir, name)
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
