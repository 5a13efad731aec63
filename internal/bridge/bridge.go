// Package bridge exposes the player to external controllers. Each bridge
// turns outside requests into app.Request values and mirrors engine events
// back out as notifications.
package bridge

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
)

// Metadata describes the playing track for a controller.
type Metadata struct {
	ID     catalog.TrackID
	Title  string
	Artist string
	Album  string
	URL    string
	Length time.Duration // zero when unknown
}

// MetadataFor looks up id in cat. It returns false for NoTrack and unknown ids.
func MetadataFor(cat *catalog.Catalog, id catalog.TrackID) (Metadata, bool) {
	t, ok := cat.Track(id)
	if !ok {
		return Metadata{ID: catalog.NoTrack}, false
	}
	return Metadata{
		ID:     t.ID,
		Title:  t.Title,
		Artist: t.Artist,
		Album:  t.Album,
		URL:    (&url.URL{Scheme: "file", Path: t.Path}).String(),
		Length: t.Duration,
	}, true
}

// Snapshot is the playback state as seen from outside the engine.
type Snapshot struct {
	Status  engine.Status
	Track   Metadata
	Loop    engine.LoopMode
	Shuffle bool
	Elapsed time.Duration
}

// Change flags which parts of a Snapshot an event burst touched.
type Change uint8

const (
	ChangedTrack Change = 1 << iota
	ChangedStatus
	ChangedMode
	ChangedPosition
)

// Tracker folds engine events into a Snapshot. It is safe for concurrent use.
type Tracker struct {
	cat *catalog.Catalog

	mu   sync.Mutex
	snap Snapshot
}

// NewTracker starts from a stopped player with nothing loaded.
func NewTracker(cat *catalog.Catalog, loop engine.LoopMode, shuffle bool) *Tracker {
	return &Tracker{
		cat: cat,
		snap: Snapshot{
			Track:   Metadata{ID: catalog.NoTrack},
			Loop:    loop,
			Shuffle: shuffle,
		},
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Apply folds ev in and reports what changed. Errors change nothing.
func (t *Tracker) Apply(ev engine.Event) Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case engine.TrackChanged:
		if e.ID == t.snap.Track.ID {
			return 0
		}
		t.snap.Track, _ = MetadataFor(t.cat, e.ID)
		t.snap.Elapsed = 0
		return ChangedTrack | ChangedPosition
	case engine.StateChanged:
		if e.Status == t.snap.Status {
			return 0
		}
		t.snap.Status = e.Status
		if e.Status == engine.Stopped {
			t.snap.Elapsed = 0
		}
		return ChangedStatus
	case engine.PositionTick:
		if e.ID != t.snap.Track.ID {
			return 0
		}
		t.snap.Elapsed = e.Elapsed
		if e.Duration > 0 {
			t.snap.Track.Length = e.Duration
		}
		return ChangedPosition
	case engine.ModeChanged:
		if e.Loop == t.snap.Loop && e.Shuffle == t.snap.Shuffle {
			return 0
		}
		t.snap.Loop = e.Loop
		t.snap.Shuffle = e.Shuffle
		return ChangedMode
	}
	return 0
}

// Follow feeds events into t until the stream ends or ctx is done.
// Events already waiting are folded together so notify runs once per
// transition.
func Follow(ctx context.Context, events <-chan engine.Event, t *Tracker, notify func(Snapshot, Change)) {
	for {
		var ev engine.Event
		var ok bool
		select {
		case <-ctx.Done():
			return
		case ev, ok = <-events:
			if !ok {
				return
			}
		}

		changed := t.Apply(ev)
	drain:
		for {
			select {
			case ev, ok = <-events:
				if !ok {
					break drain
				}
				changed |= t.Apply(ev)
			default:
				break drain
			}
		}

		if changed != 0 {
			notify(t.Snapshot(), changed)
		}
		if !ok {
			return
		}
	}
}

// deliver hands r to the application, giving up when ctx ends.
func deliver(ctx context.Context, requests chan<- app.Request, r app.Request) bool {
	select {
	case requests <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
