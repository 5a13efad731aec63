package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Field selects one piece of track information for display.
type Field string

const (
	FieldDisplay  Field = "display"
	FieldTitle    Field = "title"
	FieldArtist   Field = "artist"
	FieldAlbum    Field = "album"
	FieldFilename Field = "filename"
	FieldPath     Field = "path"
)

// ParseField validates a field name from configuration.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldDisplay, FieldTitle, FieldArtist, FieldAlbum, FieldFilename, FieldPath:
		return f, nil
	}
	return "", fmt.Errorf("unknown track field %q", s)
}

// ParseFields validates a list of field names, keeping their order.
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		f, err := ParseField(n)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// DisplayFromFields joins the requested fields in order, skipping empty ones.
// It falls back to title when nothing was produced.
func DisplayFromFields(path, title, artist, album string, fields []Field, sep string) string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	album = strings.TrimSpace(album)

	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}
	for _, f := range fields {
		switch f {
		case FieldDisplay:
			// artist - title
			add(artist)
			add(title)
		case FieldTitle:
			add(title)
		case FieldArtist:
			add(artist)
		case FieldAlbum:
			add(album)
		case FieldFilename:
			add(strings.TrimSpace(stem(path)))
		case FieldPath:
			add(path)
		}
	}
	if len(parts) == 0 {
		return title
	}
	return strings.Join(parts, sep)
}

// FieldValue resolves a single field against a track.
func FieldValue(t Track, f Field) string {
	switch f {
	case FieldDisplay:
		return t.Display
	case FieldTitle:
		return t.Title
	case FieldArtist:
		return t.Artist
	case FieldAlbum:
		return t.Album
	case FieldFilename:
		return stem(t.Path)
	case FieldPath:
		return t.Path
	}
	return ""
}

func stem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
