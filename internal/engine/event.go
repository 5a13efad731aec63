package engine

import (
	"fmt"
	"time"

	"github.com/olivier-w/presto/internal/catalog"
)

// Status is the playback state of the engine.
type Status int

const (
	Stopped Status = iota
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Event is a notification published by the engine.
type Event interface {
	event()
}

// TrackChanged reports the new current track, or catalog.NoTrack once
// playback has ended.
type TrackChanged struct {
	ID catalog.TrackID
}

// StateChanged reports a playback status transition.
type StateChanged struct {
	Status Status
}

// PositionTick reports progress through the current track while playing.
// Duration is zero when unknown.
type PositionTick struct {
	ID       catalog.TrackID
	Elapsed  time.Duration
	Duration time.Duration
}

// ModeChanged reports the loop mode and shuffle flag.
type ModeChanged struct {
	Loop    LoopMode
	Shuffle bool
}

// ErrorEvent reports a command that could not be carried out. The engine
// state is unchanged.
type ErrorEvent struct {
	Err     error
	Command Command
}

func (e ErrorEvent) Error() string {
	return e.Err.Error()
}

func (TrackChanged) event() {}
func (StateChanged) event() {}
func (PositionTick) event() {}
func (ModeChanged) event()  {}
func (ErrorEvent) event()   {}
