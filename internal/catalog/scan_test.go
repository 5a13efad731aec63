package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func scannedNames(t *testing.T, root string, opts ScanOptions) []string {
	t.Helper()
	c, err := Scan(root, opts, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	var names []string
	for _, id := range c.IDs() {
		tr, _ := c.Track(id)
		rel, _ := filepath.Rel(root, tr.Path)
		names = append(names, filepath.ToSlash(rel))
	}
	sort.Strings(names)
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScanFiltersExtensionsAndHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp3"))
	touch(t, filepath.Join(root, "b.FLAC"))
	touch(t, filepath.Join(root, "cover.jpg"))
	touch(t, filepath.Join(root, ".hidden.mp3"))
	touch(t, filepath.Join(root, ".secret", "c.ogg"))

	opts := DefaultScanOptions()
	opts.IncludeHidden = false
	got := scannedNames(t, root, opts)
	want := []string{"a.mp3", "b.FLAC"}
	if !equalNames(got, want) {
		t.Fatalf("scan without hidden = %v, want %v", got, want)
	}

	opts.IncludeHidden = true
	got = scannedNames(t, root, opts)
	want = []string{".hidden.mp3", ".secret/c.ogg", "a.mp3", "b.FLAC"}
	if !equalNames(got, want) {
		t.Fatalf("scan with hidden = %v, want %v", got, want)
	}
}

func TestScanDepthLimits(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "top.mp3"))
	touch(t, filepath.Join(root, "d1", "mid.mp3"))
	touch(t, filepath.Join(root, "d1", "d2", "deep.mp3"))

	opts := DefaultScanOptions()
	if got := scannedNames(t, root, opts); len(got) != 3 {
		t.Fatalf("unlimited scan = %v, want 3 files", got)
	}

	opts.MaxDepth = 2
	want := []string{"d1/mid.mp3", "top.mp3"}
	if got := scannedNames(t, root, opts); !equalNames(got, want) {
		t.Fatalf("max depth 2 = %v, want %v", got, want)
	}

	opts.MaxDepth = 0
	opts.Recursive = false
	want = []string{"top.mp3"}
	if got := scannedNames(t, root, opts); !equalNames(got, want) {
		t.Fatalf("non-recursive = %v, want %v", got, want)
	}
}

func TestScanFollowsLinksWithoutLooping(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "real", "song.mp3"))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(root, filepath.Join(root, "real", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	opts := DefaultScanOptions()
	got := scannedNames(t, root, opts)
	if len(got) != 1 {
		t.Fatalf("scan following links = %v, want exactly one file", got)
	}

	opts.FollowLinks = false
	want := []string{"real/song.mp3"}
	if got := scannedNames(t, root, opts); !equalNames(got, want) {
		t.Fatalf("scan without links = %v, want %v", got, want)
	}
}

func TestScanSortsByDisplayCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "beta.mp3"))
	touch(t, filepath.Join(root, "Alpha.mp3"))
	touch(t, filepath.Join(root, "charlie.wav"))

	c, err := Scan(root, DefaultScanOptions(), nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []string{"Alpha", "beta", "charlie"}
	got := c.Displays()
	if !equalNames(got, want) {
		t.Fatalf("Displays() = %v, want %v", got, want)
	}
	for i := range want {
		tr, _ := c.Track(TrackID(i))
		if tr.HasDuration() {
			t.Fatalf("track %q should have unknown duration", tr.Display)
		}
	}
}

func TestScanRejectsMissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing"), DefaultScanOptions(), nil); err == nil {
		t.Fatal("expected error for missing library root")
	}
}

func TestFromPathsKeepsOrder(t *testing.T) {
	root := t.TempDir()
	b := filepath.Join(root, "b.mp3")
	a := filepath.Join(root, "a.mp3")
	touch(t, b)
	touch(t, a)

	c := FromPaths([]string{b, a}, DefaultScanOptions(), nil)
	if got := c.Displays(); !equalNames(got, []string{"b", "a"}) {
		t.Fatalf("Displays() = %v, want [b a]", got)
	}
}
