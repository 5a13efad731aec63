package app

import (
	"time"

	"github.com/olivier-w/presto/internal/engine"
)

// RequestKind enumerates playback requests from keys and control bridges.
type RequestKind int

const (
	RequestPlay RequestKind = iota
	RequestPause
	RequestPlayPause
	RequestStop
	RequestNext
	RequestPrev
	RequestSeek
	RequestSetLoop
	RequestSetShuffle
	RequestQuit
)

// Request is one control action. Only the fields relevant to Kind are set.
type Request struct {
	Kind    RequestKind
	Offset  time.Duration
	Loop    engine.LoopMode
	Shuffle bool
}

var requestNames = map[RequestKind]string{
	RequestPlay:       "play",
	RequestPause:      "pause",
	RequestPlayPause:  "play_pause",
	RequestStop:       "stop",
	RequestNext:       "next",
	RequestPrev:       "previous",
	RequestSeek:       "seek",
	RequestSetLoop:    "set_loop",
	RequestSetShuffle: "set_shuffle",
	RequestQuit:       "quit",
}

func (k RequestKind) String() string {
	if n, ok := requestNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseRequestKind maps a wire name back to its kind.
func ParseRequestKind(name string) (RequestKind, bool) {
	for k, n := range requestNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}
