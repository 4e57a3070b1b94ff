package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chorus/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("exists true for a missing file")
	}
	if resolved == "" {
		t.Fatal("resolved path empty")
	}
	if cfg.Paths.Bind != "127.0.0.1:5880" {
		t.Fatalf("default bind: %q", cfg.Paths.Bind)
	}
	if cfg.Network.RequestTimeout != 30 || cfg.Network.MaxMessageMiB != 32 {
		t.Fatalf("default network: %+v", cfg.Network)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("default logging: %+v", cfg.Logging)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[paths]
library_dir = "/tmp/chorus-test/lib"
bind = "0.0.0.0:9000"

[downloader]
media_base_url = "https://music.example.net/media"

[logging]
format = "JSON"
level = "Debug"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("exists false for a present file")
	}
	if cfg.Paths.LibraryDir != "/tmp/chorus-test/lib" {
		t.Fatalf("library_dir: %q", cfg.Paths.LibraryDir)
	}
	if cfg.Paths.Bind != "0.0.0.0:9000" {
		t.Fatalf("bind: %q", cfg.Paths.Bind)
	}
	if cfg.Downloader.MediaBaseURL != "https://music.example.net/media/" {
		t.Fatalf("media_base_url not normalized with trailing slash: %q", cfg.Downloader.MediaBaseURL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not lowercased: %+v", cfg.Logging)
	}
	if got := cfg.SnapshotPath(); got != "/tmp/chorus-test/lib/library.json" {
		t.Fatalf("SnapshotPath: %q", got)
	}
	if got := cfg.MaxMessageBytes(); got != 32<<20 {
		t.Fatalf("MaxMessageBytes: %d", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad bind", "[paths]\nbind = \"no-port\"\n", "paths.bind"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"chatty\"\n", "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := config.Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error mentioning %s", err, tc.want)
			}
		})
	}
}

func TestFinalizeMatchesLoadNormalization(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.Downloader.MediaBaseURL = "https://media.example/files"
	cfg.Logging.Format = "JSON"

	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Downloader.MediaBaseURL != "https://media.example/files/" {
		t.Fatalf("media_base_url not normalized: %q", cfg.Downloader.MediaBaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format not normalized: %q", cfg.Logging.Format)
	}

	cfg.Paths.Bind = "no-port"
	if err := cfg.Finalize(); err == nil || !strings.Contains(err.Error(), "paths.bind") {
		t.Fatalf("Finalize accepted a bad bind: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := config.ExpandPath("~/music")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "music") {
		t.Fatalf("ExpandPath: %q", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
	if !exists {
		t.Fatal("sample not found after CreateSample")
	}
	def := config.Default()
	if cfg.Paths.Bind != def.Paths.Bind {
		t.Fatalf("sample bind %q differs from default %q", cfg.Paths.Bind, def.Paths.Bind)
	}
}
