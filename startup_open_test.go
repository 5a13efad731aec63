package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func trackPaths(c *catalog.Catalog) []string {
	var out []string
	for _, id := range c.IDs() {
		tr, _ := c.Track(id)
		out = append(out, filepath.Base(tr.Path))
	}
	return out
}

func TestOpenLibraryScansDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.mp3"), "x")
	writeFile(t, filepath.Join(dir, "a.flac"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")

	cat, err := openLibrary(dir, catalog.DefaultScanOptions(), nil)
	if err != nil {
		t.Fatalf("openLibrary() error = %v", err)
	}
	if got := trackPaths(cat); len(got) != 2 || got[0] != "a.flac" || got[1] != "b.mp3" {
		t.Fatalf("tracks = %v, want [a.flac b.mp3]", got)
	}
}

func TestOpenLibraryKeepsPlaylistOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z.mp3"), "x")
	writeFile(t, filepath.Join(dir, "a.ogg"), "x")
	list := filepath.Join(dir, "mix.m3u")
	writeFile(t, list, "#EXTM3U\nz.mp3\nmissing.mp3\nhttp://radio.example/stream\na.ogg\n")

	cat, err := openLibrary(list, catalog.DefaultScanOptions(), nil)
	if err != nil {
		t.Fatalf("openLibrary() error = %v", err)
	}
	if got := trackPaths(cat); len(got) != 2 || got[0] != "z.mp3" || got[1] != "a.ogg" {
		t.Fatalf("tracks = %v, want [z.mp3 a.ogg]", got)
	}
}

func TestOpenLibraryErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	song := filepath.Join(dir, "song.mp3")
	writeFile(t, song, "x")
	dead := filepath.Join(dir, "dead.m3u")
	writeFile(t, dead, "gone.mp3\n")

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"missing", filepath.Join(dir, "nope"), "no such file"},
		{"empty dir", empty, "no playable files"},
		{"single file", song, "neither a directory nor a playlist"},
		{"dead playlist", dead, "no playable entries"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := openLibrary(tc.arg, catalog.DefaultScanOptions(), nil)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("openLibrary() error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func parseTestFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "presto"}
	bindFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return cmd
}

func TestLoadSettingsFlagsOverrideFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[playback]\nshuffle = false\nloop_mode = \"loop_all\"\n")

	cmd := parseTestFlags(t, "--config", path, "--shuffle", "--loop", "one", "--log-file", "/tmp/presto.log")
	settings, err := loadSettings(cmd)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if !settings.Playback.Shuffle || settings.LoopMode() != engine.LoopOne {
		t.Fatalf("playback = %+v, want shuffle and loop-one", settings.Playback)
	}
	if settings.Log.File != "/tmp/presto.log" {
		t.Fatalf("log file = %q", settings.Log.File)
	}
}

func TestLoadSettingsKeepsFileWithoutFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[playback]\nshuffle = true\n")

	settings, err := loadSettings(parseTestFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if !settings.Playback.Shuffle {
		t.Fatal("shuffle from file was overridden by an unset flag")
	}
}

func TestLoadSettingsRejectsBadLoopFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := parseTestFlags(t, "--config", filepath.Join(t.TempDir(), "none.toml"), "--loop", "sometimes")
	settings, err := loadSettings(cmd)
	if err == nil || !strings.Contains(err.Error(), "--loop") {
		t.Fatalf("loadSettings() error = %v, want --loop error", err)
	}
	if settings.LoopMode() != engine.LoopAll {
		t.Fatalf("LoopMode() = %v, want default loop-all", settings.LoopMode())
	}
}

func TestStatusLineFromSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\nnow_playing_track_fields = [\"title\", \"album\"]\nnow_playing_track_separator = \" | \"\nnow_playing_time_fields = [\"remaining\"]\n")
	settings, err := loadSettings(parseTestFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	line := statusLine(settings)
	if len(line.TrackFields) != 2 || line.TrackFields[1] != catalog.FieldAlbum || line.TrackSeparator != " | " {
		t.Fatalf("track fields = %v sep %q", line.TrackFields, line.TrackSeparator)
	}
	if len(line.TimeFields) != 1 {
		t.Fatalf("time fields = %v", line.TimeFields)
	}
}
