package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/media"
	"github.com/olivier-w/presto/internal/player"
)

// ScanOptions controls which files a library scan picks up and how their
// display strings are built.
type ScanOptions struct {
	Extensions       []string
	FollowLinks      bool
	IncludeHidden    bool
	Recursive        bool
	MaxDepth         int // 0 means unlimited; the root's entries are depth 1
	DisplayFields    []Field
	DisplaySeparator string
}

// DefaultScanOptions mirrors the library defaults.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Extensions:       media.DefaultAudioExts,
		FollowLinks:      true,
		IncludeHidden:    true,
		Recursive:        true,
		DisplayFields:    []Field{FieldArtist, FieldTitle},
		DisplaySeparator: " - ",
	}
}

func (o ScanOptions) depthLimit() int {
	if !o.Recursive {
		return 1
	}
	return o.MaxDepth
}

// Scan walks root and builds a catalog sorted by display string,
// case-insensitively. Unreadable subdirectories are logged and skipped.
func Scan(root string, opts ScanOptions, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path %s is not a directory", root)
	}

	w := &walker{
		opts:    opts,
		exts:    media.NewExtSet(opts.Extensions),
		limit:   opts.depthLimit(),
		visited: make(map[string]bool),
		log:     log,
	}
	if err := w.walk(root, 0); err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}

	tracks := describeAll(w.files, opts, log)
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := strings.ToLower(tracks[i].Display), strings.ToLower(tracks[j].Display)
		if a != b {
			return a < b
		}
		return tracks[i].Path < tracks[j].Path
	})
	log.Info("library scanned", zap.String("root", root), zap.Int("tracks", len(tracks)))
	return New(tracks), nil
}

// FromPaths builds a catalog from an explicit list of files, keeping their order.
func FromPaths(paths []string, opts ScanOptions, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return New(describeAll(paths, opts, log))
}

func describeAll(paths []string, opts ScanOptions, log *zap.Logger) []Track {
	tracks := make([]Track, 0, len(paths))
	for _, p := range paths {
		tracks = append(tracks, describe(p, opts, log))
	}
	return tracks
}

func describe(path string, opts ScanOptions, log *zap.Logger) Track {
	tags := ReadTags(path)
	dur, err := player.Probe(path)
	if err != nil {
		log.Debug("duration unavailable", zap.String("path", path), zap.Error(err))
	}
	return Track{
		Path:     path,
		Title:    tags.Title,
		Artist:   tags.Artist,
		Album:    tags.Album,
		Duration: dur,
		Display:  DisplayFromFields(path, tags.Title, tags.Artist, tags.Album, opts.DisplayFields, opts.DisplaySeparator),
	}
}

type walker struct {
	opts    ScanOptions
	exts    media.ExtSet
	limit   int
	visited map[string]bool
	files   []string
	log     *zap.Logger
}

func (w *walker) walk(dir string, depth int) error {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if w.visited[real] {
			return nil
		}
		w.visited[real] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if depth == 0 {
			return err
		}
		w.log.Warn("skipping unreadable directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	childDepth := depth + 1
	for _, e := range entries {
		name := e.Name()
		if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			if !w.opts.FollowLinks {
				continue
			}
			target, err := os.Stat(path)
			if err != nil {
				w.log.Debug("skipping broken link", zap.String("path", path), zap.Error(err))
				continue
			}
			isDir = target.IsDir()
		} else if !isDir && !e.Type().IsRegular() {
			continue
		}

		if isDir {
			if w.limit == 0 || childDepth < w.limit {
				if err := w.walk(path, childDepth); err != nil {
					return err
				}
			}
			continue
		}
		if w.exts.Matches(name) {
			w.files = append(w.files, path)
		}
	}
	return nil
}
