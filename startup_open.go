package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/media"
)

// openLibrary builds the catalog for arg: a directory to scan or a local
// playlist whose entries are played in file order.
func openLibrary(arg string, opts catalog.ScanOptions, log *zap.Logger) (*catalog.Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path, err := filepath.Abs(arg)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	switch {
	case info.IsDir():
		cat, err = catalog.Scan(path, opts, log)
		if err != nil {
			return nil, err
		}
	case media.IsPlaylistExt(filepath.Ext(path)):
		entries, err := media.ParseLocalPlaylist(path)
		if err != nil {
			return nil, err
		}
		playable, skipped := media.FilterPlayableLocalPaths(entries, media.NewExtSet(opts.Extensions))
		if skipped > 0 {
			log.Info("skipped playlist entries", zap.String("playlist", path), zap.Int("skipped", skipped))
		}
		if len(playable) == 0 {
			return nil, fmt.Errorf("playlist contains no playable entries")
		}
		cat = catalog.FromPaths(playable, opts, log)
	default:
		return nil, fmt.Errorf("%s is neither a directory nor a playlist (.m3u, .m3u8, .pls)", arg)
	}

	if cat.Len() == 0 {
		return nil, fmt.Errorf("no playable files in %s (supported: %s)", arg, media.SupportedExtsList())
	}
	return cat, nil
}
