package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
	"github.com/olivier-w/presto/internal/media"
)

// EnvPrefix starts every environment override, e.g. PRESTO__AUDIO__CROSSFADE_MS.
const EnvPrefix = "PRESTO__"

// PathEnv names the variable that points at an explicit config file.
const PathEnv = "PRESTO_CONFIG_PATH"

// Settings is the full user configuration.
type Settings struct {
	Audio    Audio    `toml:"audio"`
	UI       UI       `toml:"ui"`
	Controls Controls `toml:"controls"`
	Playback Playback `toml:"playback"`
	Library  Library  `toml:"library"`
	Remote   Remote   `toml:"remote"`
	Log      Log      `toml:"log"`
}

type Audio struct {
	CrossfadeMS    int `toml:"crossfade_ms"`
	CrossfadeSteps int `toml:"crossfade_steps"`
	QuitFadeOutMS  int `toml:"quit_fade_out_ms"`
}

type UI struct {
	FollowPlayback           bool     `toml:"follow_playback"`
	HeaderText               string   `toml:"header_text"`
	NowPlayingTrackFields    []string `toml:"now_playing_track_fields"`
	NowPlayingTrackSeparator string   `toml:"now_playing_track_separator"`
	NowPlayingTimeFields     []string `toml:"now_playing_time_fields"`
	NowPlayingTimeSeparator  string   `toml:"now_playing_time_separator"`
}

type Controls struct {
	ScrubSeconds int `toml:"scrub_seconds"`
}

type Playback struct {
	Shuffle  bool   `toml:"shuffle"`
	LoopMode string `toml:"loop_mode"`
}

type Library struct {
	Extensions       []string `toml:"extensions"`
	FollowLinks      bool     `toml:"follow_links"`
	IncludeHidden    bool     `toml:"include_hidden"`
	Recursive        bool     `toml:"recursive"`
	MaxDepth         int      `toml:"max_depth"` // 0 means unlimited
	DisplayFields    []string `toml:"display_fields"`
	DisplaySeparator string   `toml:"display_separator"`
}

// Remote configures the websocket control bridge. An empty address disables it.
type Remote struct {
	ListenAddr string `toml:"listen_addr"`
}

// Log configures the rotating log file. An empty file disables logging.
type Log struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// TimeFields are the names accepted in ui.now_playing_time_fields.
var TimeFields = []string{"elapsed", "total", "remaining"}

// Default returns the built-in configuration.
func Default() Settings {
	return Settings{
		Audio: Audio{
			CrossfadeMS:    250,
			CrossfadeSteps: 10,
			QuitFadeOutMS:  500,
		},
		UI: UI{
			FollowPlayback:           true,
			HeaderText:               " ~ And presto! It's music ~ ",
			NowPlayingTrackFields:    []string{"display"},
			NowPlayingTrackSeparator: " - ",
			NowPlayingTimeFields:     []string{"elapsed", "total", "remaining"},
			NowPlayingTimeSeparator:  " / ",
		},
		Controls: Controls{ScrubSeconds: 5},
		Playback: Playback{LoopMode: "loop_all"},
		Library: Library{
			Extensions:       append([]string(nil), media.DefaultAudioExts...),
			FollowLinks:      true,
			IncludeHidden:    true,
			Recursive:        true,
			DisplayFields:    []string{"artist", "title"},
			DisplaySeparator: " - ",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultPath returns the config file location, honoring PRESTO_CONFIG_PATH
// and XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "presto", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(home, ".config", "presto", "config.toml"), nil
}

// Load builds settings from defaults, the TOML file at path (or DefaultPath
// when empty) and PRESTO__ environment overrides, in increasing priority.
// A .env file in the working directory is loaded into the environment first.
// A missing config file is not an error.
func Load(path string) (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Default(), fmt.Errorf("loading .env: %w", err)
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), err
		}
		path = p
	}

	s := Default()
	if err := s.mergeFile(path); err != nil {
		return Default(), err
	}
	if err := s.mergeEnv(os.Environ()); err != nil {
		return Default(), err
	}
	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

func (s *Settings) mergeFile(path string) error {
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// mergeEnv applies PRESTO__SECTION__KEY=value entries. List values are
// comma separated.
func (s *Settings) mergeEnv(environ []string) error {
	root := reflect.ValueOf(s).Elem()
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__")
		if !ok {
			return fmt.Errorf("%s: expected %sSECTION__KEY", name, EnvPrefix)
		}
		sec, ok := fieldByTag(root, section)
		if !ok {
			return fmt.Errorf("%s: unknown section %q", name, section)
		}
		field, ok := fieldByTag(sec, key)
		if !ok {
			return fmt.Errorf("%s: unknown key %q", name, key)
		}
		if err := setValue(field, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func fieldByTag(v reflect.Value, tag string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == tag {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func setValue(f reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		f.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		f.SetBool(b)
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		f.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported setting type %s", f.Kind())
	}
	return nil
}

// Validate rejects settings the player cannot run with.
func (s Settings) Validate() error {
	if s.Audio.CrossfadeSteps < 1 {
		return errors.New("audio.crossfade_steps must be at least 1")
	}
	if s.Audio.CrossfadeMS < 0 || s.Audio.QuitFadeOutMS < 0 {
		return errors.New("audio fade durations must not be negative")
	}
	if s.Controls.ScrubSeconds < 0 {
		return errors.New("controls.scrub_seconds must not be negative")
	}
	if s.Library.MaxDepth < 0 {
		return errors.New("library.max_depth must not be negative")
	}
	if _, err := engine.ParseLoopMode(s.Playback.LoopMode); err != nil {
		return fmt.Errorf("playback.loop_mode: %w", err)
	}
	if _, err := catalog.ParseFields(s.UI.NowPlayingTrackFields); err != nil {
		return fmt.Errorf("ui.now_playing_track_fields: %w", err)
	}
	if _, err := catalog.ParseFields(s.Library.DisplayFields); err != nil {
		return fmt.Errorf("library.display_fields: %w", err)
	}
	for _, f := range s.UI.NowPlayingTimeFields {
		if !isTimeField(f) {
			return fmt.Errorf("ui.now_playing_time_fields: unknown time field %q", f)
		}
	}
	if len(media.NewExtSet(s.Library.Extensions)) == 0 {
		return errors.New("library.extensions lists no playable format")
	}
	switch strings.ToLower(s.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", s.Log.Level)
	}
	return nil
}

func isTimeField(f string) bool {
	for _, name := range TimeFields {
		if strings.EqualFold(strings.TrimSpace(f), name) {
			return true
		}
	}
	return false
}

// Crossfade returns the track transition settings.
func (s Settings) Crossfade() engine.Crossfade {
	return engine.Crossfade{
		Duration: time.Duration(s.Audio.CrossfadeMS) * time.Millisecond,
		Steps:    s.Audio.CrossfadeSteps,
	}
}

// QuitFade returns the fade-out applied on quit.
func (s Settings) QuitFade() time.Duration {
	return time.Duration(s.Audio.QuitFadeOutMS) * time.Millisecond
}

// ScrubStep returns the seek distance for the scrub keys.
func (s Settings) ScrubStep() time.Duration {
	return time.Duration(s.Controls.ScrubSeconds) * time.Second
}

// LoopMode returns the startup loop mode. Settings are assumed validated.
func (s Settings) LoopMode() engine.LoopMode {
	m, err := engine.ParseLoopMode(s.Playback.LoopMode)
	if err != nil {
		return engine.LoopAll
	}
	return m
}

// ScanOptions converts the library section for the scanner.
func (s Settings) ScanOptions() catalog.ScanOptions {
	fields, err := catalog.ParseFields(s.Library.DisplayFields)
	if err != nil {
		fields = catalog.DefaultScanOptions().DisplayFields
	}
	return catalog.ScanOptions{
		Extensions:       s.Library.Extensions,
		FollowLinks:      s.Library.FollowLinks,
		IncludeHidden:    s.Library.IncludeHidden,
		Recursive:        s.Library.Recursive,
		MaxDepth:         s.Library.MaxDepth,
		DisplayFields:    fields,
		DisplaySeparator: s.Library.DisplaySeparator,
	}
}
