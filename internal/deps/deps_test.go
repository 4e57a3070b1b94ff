package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestResolveToolPrefersToolDir(t *testing.T) {
	toolDir := t.TempDir()
	name := executableName("youtube-dl")
	path := filepath.Join(toolDir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	if got := ResolveTool(toolDir, "youtube-dl"); got != path {
		t.Fatalf("ResolveTool = %q, want %q", got, path)
	}
}

func TestResolveToolFallsBackToBareName(t *testing.T) {
	if got := ResolveTool(t.TempDir(), "ffmpeg"); got != executableName("ffmpeg") {
		t.Fatalf("ResolveTool = %q, want bare name", got)
	}
	if got := ResolveTool("", "ffmpeg"); got != executableName("ffmpeg") {
		t.Fatalf("ResolveTool with empty dir = %q, want bare name", got)
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
