package engine

import "errors"

var (
	// ErrTrackNotInQueue is reported when a command names a track the
	// current queue does not hold.
	ErrTrackNotInQueue = errors.New("track not in queue")
	// ErrTrackUnavailable is reported when a track cannot be opened or decoded.
	ErrTrackUnavailable = errors.New("track unavailable")
	// ErrShuttingDown is returned for commands sent after shutdown began.
	ErrShuttingDown = errors.New("engine shutting down")
)
