package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/olivier-w/presto/internal/catalog"
)

// LoopMode decides what happens when a track ends on its own.
type LoopMode int

const (
	NoLoop LoopMode = iota
	LoopAll
	LoopOne
)

func (m LoopMode) String() string {
	switch m {
	case NoLoop:
		return "no-loop"
	case LoopAll:
		return "loop-all"
	case LoopOne:
		return "loop-one"
	}
	return fmt.Sprintf("LoopMode(%d)", int(m))
}

// Next cycles NoLoop -> LoopAll -> LoopOne -> NoLoop.
func (m LoopMode) Next() LoopMode {
	switch m {
	case NoLoop:
		return LoopAll
	case LoopAll:
		return LoopOne
	default:
		return NoLoop
	}
}

// ParseLoopMode accepts the configuration spellings of a loop mode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "no-loop", "noloop", "none", "off":
		return NoLoop, nil
	case "loop-all", "loopall", "all", "playlist":
		return LoopAll, nil
	case "loop-one", "loopone", "one", "track":
		return LoopOne, nil
	}
	return NoLoop, fmt.Errorf("unknown loop mode %q", s)
}

// Command is a request to the engine. Commands are applied in send order.
type Command interface {
	command()
}

// SetQueue replaces the queue. When StartAt is set, that track starts
// playing; otherwise the current track keeps playing.
type SetQueue struct {
	IDs     []catalog.TrackID
	StartAt *catalog.TrackID
}

// PlaySelected starts id, which must be in the queue. Repeating it for the
// track that is already playing does nothing.
type PlaySelected struct {
	ID catalog.TrackID
}

// PlayPause toggles between playing and paused.
type PlayPause struct{}

// Play resumes a paused track.
type Play struct{}

// Pause pauses a playing track.
type Pause struct{}

// Stop ends playback and releases the current track.
type Stop struct{}

// Next moves to the following queue entry.
type Next struct{}

// Prev moves to the preceding queue entry.
type Prev struct{}

// SeekRelative moves within the current track by Delta.
type SeekRelative struct {
	Delta time.Duration
}

// SetShuffleQueueOrder replaces the queue order without interrupting the
// current track.
type SetShuffleQueueOrder struct {
	IDs []catalog.TrackID
}

// SetLoopMode changes the loop mode used at the next boundary.
type SetLoopMode struct {
	Mode LoopMode
}

// ToggleShuffleFlag flips the reported shuffle flag.
type ToggleShuffleFlag struct{}

// QuitFadeOut fades the output over Fade and shuts the engine down.
type QuitFadeOut struct {
	Fade time.Duration
}

func (SetQueue) command()             {}
func (PlaySelected) command()         {}
func (PlayPause) command()            {}
func (Play) command()                 {}
func (Pause) command()                {}
func (Stop) command()                 {}
func (Next) command()                 {}
func (Prev) command()                 {}
func (SeekRelative) command()         {}
func (SetShuffleQueueOrder) command() {}
func (SetLoopMode) command()          {}
func (ToggleShuffleFlag) command()    {}
func (QuitFadeOut) command()          {}
