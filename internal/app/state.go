package app

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
	"github.com/olivier-w/presto/internal/view"
)

const messageTTL = 4 * time.Second

// Config holds the startup settings for the application state.
type Config struct {
	Follow    bool
	Loop      engine.LoopMode
	Shuffle   bool
	ScrubStep time.Duration
	QuitFade  time.Duration
	// Seed returns a fresh shuffle seed. Defaults to math/rand/v2.
	Seed func() uint64
	Now  func() time.Time
}

// State is the UI-facing model: the visible view, the cursor and a mirror
// of engine playback built from events. Every change to the visible order
// returns the command that brings the engine queue in line with it.
type State struct {
	cat *catalog.Catalog
	cfg Config

	query     string
	filtering bool
	shuffle   bool
	seed      uint64
	loop      engine.LoopMode
	sel       *view.Selection

	nowPlaying    catalog.TrackID
	status        engine.Status
	elapsed       time.Duration
	duration      time.Duration
	pendingFollow catalog.TrackID

	message   string
	messageAt time.Time
	quitting  bool
}

// New builds the initial view over cat.
func New(cat *catalog.Catalog, cfg Config) *State {
	if cfg.Seed == nil {
		cfg.Seed = rand.Uint64
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &State{
		cat:           cat,
		cfg:           cfg,
		shuffle:       cfg.Shuffle,
		loop:          cfg.Loop,
		nowPlaying:    catalog.NoTrack,
		pendingFollow: catalog.NoTrack,
	}
	if s.shuffle {
		s.seed = cfg.Seed()
	}
	s.sel = view.NewSelection(s.project(), cfg.Follow)
	return s
}

// Start returns the command that loads the initial view into the engine.
func (s *State) Start() []engine.Command {
	return []engine.Command{engine.SetQueue{IDs: s.sel.IDs()}}
}

func (s *State) project() []view.Row {
	return view.Project(s.cat.Displays(), s.query, s.shuffle, s.seed)
}

// recompute reprojects the view and keeps the engine queue in step.
func (s *State) recompute() []engine.Command {
	s.sel.Replace(s.project())
	s.follow()
	return []engine.Command{engine.SetShuffleQueueOrder{IDs: s.sel.IDs()}}
}

// follow moves the cursor to the playing track when following.
func (s *State) follow() {
	if s.filtering || s.nowPlaying == catalog.NoTrack {
		return
	}
	s.sel.Relocate(s.nowPlaying)
}

// Read-only views of the state for rendering.

func (s *State) Catalog() *catalog.Catalog   { return s.cat }
func (s *State) Rows() []view.Row            { return s.sel.Rows() }
func (s *State) Cursor() int                 { return s.sel.Cursor() }
func (s *State) Following() bool             { return s.sel.Following() }
func (s *State) Filtering() bool             { return s.filtering }
func (s *State) Query() string               { return s.query }
func (s *State) Shuffle() bool               { return s.shuffle }
func (s *State) Loop() engine.LoopMode       { return s.loop }
func (s *State) NowPlaying() catalog.TrackID { return s.nowPlaying }
func (s *State) Status() engine.Status       { return s.status }
func (s *State) Elapsed() time.Duration      { return s.elapsed }
func (s *State) Quitting() bool              { return s.quitting }

// Duration returns the playing track's length, or zero when unknown.
func (s *State) Duration() time.Duration {
	if s.duration > 0 {
		return s.duration
	}
	if t, ok := s.cat.Track(s.nowPlaying); ok {
		return t.Duration
	}
	return 0
}

// Selected returns the track under the cursor.
func (s *State) Selected() (catalog.TrackID, bool) {
	return s.sel.Selected()
}

// Message returns the transient status message, if it has not expired.
func (s *State) Message() string {
	if s.message == "" || s.cfg.Now().Sub(s.messageAt) > messageTTL {
		return ""
	}
	return s.message
}

func (s *State) say(msg string) {
	s.message = msg
	s.messageAt = s.cfg.Now()
}

// Down moves the cursor down. Like every manual move it leaves follow mode.
func (s *State) Down() {
	s.pendingFollow = catalog.NoTrack
	s.sel.Down()
}

// Up moves the cursor up.
func (s *State) Up() {
	s.pendingFollow = catalog.NoTrack
	s.sel.Up()
}

// Top jumps to the first row.
func (s *State) Top() {
	s.pendingFollow = catalog.NoTrack
	s.sel.Top()
}

// Bottom jumps to the last row.
func (s *State) Bottom() {
	s.pendingFollow = catalog.NoTrack
	s.sel.Bottom()
}

// Recenter jumps the cursor to the playing track.
func (s *State) Recenter() {
	s.pendingFollow = catalog.NoTrack
	s.sel.Recenter(s.nowPlaying)
}

// PlaySelected plays the track under the cursor and resumes following it.
// Nothing happens if it is already playing.
func (s *State) PlaySelected() []engine.Command {
	id, ok := s.sel.Selected()
	if !ok {
		return nil
	}
	s.filtering = false
	if id == s.nowPlaying && s.status == engine.Playing {
		return nil
	}
	s.sel.SetFollow(true)
	s.awaitTrack(id)
	return []engine.Command{engine.PlaySelected{ID: id}}
}

// awaitTrack holds relocation until the engine reports id. Resuming the
// current track produces no TrackChanged, so nothing is awaited then.
func (s *State) awaitTrack(id catalog.TrackID) {
	if id == s.nowPlaying {
		s.pendingFollow = catalog.NoTrack
		return
	}
	s.pendingFollow = id
}

// EnterFilter switches to filter entry, keeping the current query.
func (s *State) EnterFilter() {
	s.filtering = true
}

// SetQuery updates the filter text while in filter entry.
func (s *State) SetQuery(q string) []engine.Command {
	if q == s.query {
		return nil
	}
	s.query = q
	return s.recompute()
}

// ClearFilter drops the query and leaves filter entry.
func (s *State) ClearFilter() []engine.Command {
	s.filtering = false
	s.query = ""
	return s.recompute()
}

// AcceptFilter leaves filter entry and plays the selection.
func (s *State) AcceptFilter() []engine.Command {
	if s.sel.Len() == 0 {
		return nil
	}
	return s.PlaySelected()
}

// FilterDown and FilterUp move the cursor while typing a filter.
func (s *State) FilterDown() { s.Down() }
func (s *State) FilterUp()   { s.Up() }

// ToggleShuffle flips shuffle with a fresh seed and reselects the first row
// of the new order unless the cursor is following playback.
func (s *State) ToggleShuffle() []engine.Command {
	return s.setShuffle(!s.shuffle)
}

func (s *State) setShuffle(on bool) []engine.Command {
	if on == s.shuffle {
		return nil
	}
	s.shuffle = on
	if on {
		s.seed = s.cfg.Seed()
	}
	s.sel.Reset(s.project())
	s.follow()
	return []engine.Command{engine.ToggleShuffleFlag{}, engine.SetShuffleQueueOrder{IDs: s.sel.IDs()}}
}

// CycleLoop advances the loop mode.
func (s *State) CycleLoop() []engine.Command {
	s.loop = s.loop.Next()
	return []engine.Command{engine.SetLoopMode{Mode: s.loop}}
}

// Control applies a playback request from a key binding or a control
// bridge. Transport requests bring the cursor back to following playback
// unless a filter is being typed; seeks and mode changes leave it alone.
func (s *State) Control(r Request) []engine.Command {
	switch r.Kind {
	case RequestPlay, RequestPause, RequestPlayPause, RequestStop, RequestNext, RequestPrev:
		if !s.filtering {
			s.sel.SetFollow(true)
		}
	}
	switch r.Kind {
	case RequestStop, RequestNext, RequestPrev:
		// These replace any PlaySelected still in flight.
		s.pendingFollow = catalog.NoTrack
	}

	switch r.Kind {
	case RequestPlay:
		switch s.status {
		case engine.Paused:
			return []engine.Command{engine.Play{}}
		case engine.Stopped:
			return s.startFromSelection()
		}
	case RequestPause:
		if s.status == engine.Playing {
			return []engine.Command{engine.Pause{}}
		}
	case RequestPlayPause:
		if s.status == engine.Stopped {
			return s.startFromSelection()
		}
		return []engine.Command{engine.PlayPause{}}
	case RequestStop:
		return []engine.Command{engine.Stop{}}
	case RequestNext:
		return []engine.Command{engine.Next{}}
	case RequestPrev:
		return []engine.Command{engine.Prev{}}
	case RequestSeek:
		return []engine.Command{engine.SeekRelative{Delta: r.Offset}}
	case RequestSetLoop:
		s.loop = r.Loop
		return []engine.Command{engine.SetLoopMode{Mode: r.Loop}}
	case RequestSetShuffle:
		return s.setShuffle(r.Shuffle)
	case RequestQuit:
		s.quitting = true
		return []engine.Command{engine.QuitFadeOut{Fade: s.cfg.QuitFade}}
	}
	return nil
}

// ScrubForward and ScrubBack seek by the configured scrub step.
func (s *State) ScrubForward() []engine.Command {
	return s.Control(Request{Kind: RequestSeek, Offset: s.cfg.ScrubStep})
}

func (s *State) ScrubBack() []engine.Command {
	return s.Control(Request{Kind: RequestSeek, Offset: -s.cfg.ScrubStep})
}

func (s *State) startFromSelection() []engine.Command {
	id, ok := s.sel.Selected()
	if !ok {
		return nil
	}
	s.awaitTrack(id)
	return []engine.Command{engine.PlaySelected{ID: id}}
}

// HandleEvent folds an engine event into the mirrored playback state.
func (s *State) HandleEvent(ev engine.Event) {
	switch e := ev.(type) {
	case engine.TrackChanged:
		s.nowPlaying = e.ID
		s.elapsed = 0
		s.duration = 0
		if e.ID == catalog.NoTrack || !s.sel.Following() || s.filtering {
			return
		}
		if s.pendingFollow != catalog.NoTrack {
			if e.ID != s.pendingFollow {
				return
			}
			s.pendingFollow = catalog.NoTrack
		}
		s.sel.Relocate(e.ID)
	case engine.StateChanged:
		s.status = e.Status
		if e.Status == engine.Stopped {
			s.elapsed = 0
		}
	case engine.PositionTick:
		if e.ID == s.nowPlaying {
			s.elapsed = e.Elapsed
			s.duration = e.Duration
		}
	case engine.ModeChanged:
		s.loop = e.Loop
	case engine.ErrorEvent:
		s.pendingFollow = catalog.NoTrack
		if errors.Is(e.Err, engine.ErrShuttingDown) {
			return
		}
		s.say(e.Err.Error())
	}
}
