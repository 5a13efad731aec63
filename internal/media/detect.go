package media

import (
	"path/filepath"
	"strings"
)

// decodableExts lists the formats the player can decode natively.
var decodableExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

var playlistExts = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".pls":  true,
}

// DefaultAudioExts is the library extension list used when none is configured.
var DefaultAudioExts = []string{"mp3", "flac", "wav", "ogg"}

// IsSupportedExt returns true if the extension is a format the player can decode.
func IsSupportedExt(ext string) bool {
	return decodableExts[strings.ToLower(ext)]
}

// IsPlaylistExt returns true if the extension is a supported playlist format.
func IsPlaylistExt(ext string) bool {
	return playlistExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported playable media formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg"
}

// ExtSet is a case-insensitive set of file extensions stored with a leading dot.
type ExtSet map[string]bool

// NewExtSet normalizes configured extensions ("MP3", ".flac", " ogg ") into a set.
// Extensions the player cannot decode are dropped.
func NewExtSet(exts []string) ExtSet {
	set := make(ExtSet, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		e = strings.TrimPrefix(e, ".")
		if e == "" {
			continue
		}
		if IsSupportedExt("." + e) {
			set["."+e] = true
		}
	}
	return set
}

// Matches reports whether path has one of the set's extensions.
func (s ExtSet) Matches(path string) bool {
	return s[strings.ToLower(filepath.Ext(path))]
}
