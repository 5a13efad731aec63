package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// Tags holds the descriptive fields read from a file.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags reads embedded tags by format. Missing or unreadable tags yield
// empty fields; the title falls back to the file name without extension.
func ReadTags(path string) Tags {
	var t Tags
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		t = readID3(path)
	case ".flac":
		t = readFLACComments(path)
	case ".ogg":
		t = readOggComments(path)
	}
	t.Title = strings.TrimSpace(t.Title)
	t.Artist = strings.TrimSpace(t.Artist)
	t.Album = strings.TrimSpace(t.Album)
	if t.Title == "" {
		t.Title = stem(path)
	}
	return t
}

func readID3(path string) Tags {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}
	}
	defer tag.Close()
	return Tags{Title: tag.Title(), Artist: tag.Artist(), Album: tag.Album()}
}

func readFLACComments(path string) Tags {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return Tags{}
	}
	defer stream.Close()

	var t Tags
	for _, block := range stream.Blocks {
		comments, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, kv := range comments.Tags {
			t.set(kv[0], kv[1])
		}
	}
	return t
}

func readOggComments(path string) Tags {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return Tags{}
	}
	var t Tags
	for _, c := range r.CommentHeader().Comments {
		if key, val, ok := strings.Cut(c, "="); ok {
			t.set(key, val)
		}
	}
	return t
}

// set applies a Vorbis comment. The first value of a key wins.
func (t *Tags) set(key, val string) {
	var dst *string
	switch strings.ToUpper(key) {
	case "TITLE":
		dst = &t.Title
	case "ARTIST":
		dst = &t.Artist
	case "ALBUM":
		dst = &t.Album
	default:
		return
	}
	if *dst == "" {
		*dst = val
	}
}
