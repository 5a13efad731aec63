package media

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ParseLocalPlaylist parses a local .m3u/.m3u8/.pls file into local path entries.
// Relative entries are resolved against the playlist file directory.
// Remote (http/https) entries are skipped: the catalog only holds local files.
func ParseLocalPlaylist(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	absPlaylistPath, err := filepath.Abs(path)
	if err != nil {
		absPlaylistPath = path
	}

	data, err := os.ReadFile(absPlaylistPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}
	text := strings.TrimPrefix(string(data), "﻿")

	baseDir := filepath.Dir(absPlaylistPath)
	scanner := bufio.NewScanner(strings.NewReader(text))

	var raw []string
	switch ext {
	case ".pls":
		raw = parsePLS(scanner)
	default:
		raw = parseM3U(scanner)
	}

	entries := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.Trim(r, `"`)
		if r == "" || isRemote(r) {
			continue
		}
		entries = append(entries, resolvePlaylistEntryPath(r, baseDir))
	}
	return entries, nil
}

// FilterPlayableLocalPaths keeps only existing, non-directory files whose
// extension is in exts. It returns the kept paths and the number skipped.
func FilterPlayableLocalPaths(paths []string, exts ExtSet) ([]string, int) {
	out := make([]string, 0, len(paths))
	skipped := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || !exts.Matches(p) {
			skipped++
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out, skipped
}

func parseM3U(scanner *bufio.Scanner) []string {
	var entries []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

func parsePLS(scanner *bufio.Scanner) []string {
	var entries []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if val == "" || !isPLSFileKey(key) {
			continue
		}
		entries = append(entries, val)
	}
	return entries
}

func isPLSFileKey(key string) bool {
	if len(key) <= len("file") || !strings.EqualFold(key[:len("file")], "file") {
		return false
	}
	for _, c := range key[len("file"):] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isRemote(entry string) bool {
	lower := strings.ToLower(entry)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func resolvePlaylistEntryPath(raw, baseDir string) string {
	p := filepath.Clean(raw)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
