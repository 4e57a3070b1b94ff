package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chorus/internal/testsupport"
)

func runCommand(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--addr", addr}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestPingCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	out, err := runCommand(t, c.Addr(), "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.Contains(out, "pong from") {
		t.Fatalf("ping output = %q", out)
	}
}

func TestPushAndChangesCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	out, err := runCommand(t, c.Addr(), "push", "ArtistAdd", "--name", "Boards of Canada")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if !strings.Contains(out, "committed ArtistAdd at revision 1") || !strings.Contains(out, "(id 1)") {
		t.Fatalf("push output = %q", out)
	}

	if _, err := runCommand(t, c.Addr(), "push", "AlbumAdd", "--target", "1", "--name", "Geogaddi"); err != nil {
		t.Fatalf("push album: %v", err)
	}

	out, err = runCommand(t, c.Addr(), "changes")
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if !strings.Contains(out, "ArtistAdd") || !strings.Contains(out, "Geogaddi") {
		t.Fatalf("changes output = %q", out)
	}
}

func TestPushRejectsUnknownChangeType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	if _, err := runCommand(t, c.Addr(), "push", "ArtistRename", "--target", "1"); err == nil {
		t.Fatal("push accepted an unknown change type")
	}
}

func TestJobsCommandWithoutJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, c := testsupport.StartDaemon(t, cfg)

	out, err := runCommand(t, c.Addr(), "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if !strings.Contains(out, "no downloads in flight") {
		t.Fatalf("jobs output = %q", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing [paths] section:\n%s", data)
	}

	// A second init without --overwrite refuses to clobber the file.
	cmd = newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("config init overwrote an existing file")
	}
}
