package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Track{
		{Path: "/music/a b.mp3", Title: "Alpha", Artist: "Ann", Album: "First", Duration: 3 * time.Minute},
		{Path: "/music/b.flac", Title: "Beta"},
	})
}

func TestMetadataFor(t *testing.T) {
	m, ok := MetadataFor(testCatalog(), 0)
	if !ok {
		t.Fatal("MetadataFor(0) not found")
	}
	if m.Title != "Alpha" || m.Artist != "Ann" || m.Album != "First" || m.Length != 3*time.Minute {
		t.Fatalf("MetadataFor(0) = %+v", m)
	}
	if m.URL != "file:///music/a%20b.mp3" {
		t.Fatalf("URL = %q", m.URL)
	}
	if m, ok := MetadataFor(testCatalog(), catalog.NoTrack); ok || m.ID != catalog.NoTrack {
		t.Fatalf("MetadataFor(NoTrack) = %+v, %v", m, ok)
	}
}

func TestTrackerApply(t *testing.T) {
	tr := NewTracker(testCatalog(), engine.LoopAll, false)

	if c := tr.Apply(engine.TrackChanged{ID: 1}); c != ChangedTrack|ChangedPosition {
		t.Fatalf("TrackChanged change = %b", c)
	}
	if c := tr.Apply(engine.TrackChanged{ID: 1}); c != 0 {
		t.Fatalf("repeated TrackChanged change = %b", c)
	}
	if c := tr.Apply(engine.StateChanged{Status: engine.Playing}); c != ChangedStatus {
		t.Fatalf("StateChanged change = %b", c)
	}
	if c := tr.Apply(engine.PositionTick{ID: 0, Elapsed: time.Second}); c != 0 {
		t.Fatal("tick for another track applied")
	}
	tr.Apply(engine.PositionTick{ID: 1, Elapsed: 2 * time.Second, Duration: time.Minute})
	if c := tr.Apply(engine.ModeChanged{Loop: engine.LoopAll}); c != 0 {
		t.Fatal("unchanged mode reported")
	}
	if c := tr.Apply(engine.ErrorEvent{Err: engine.ErrTrackUnavailable}); c != 0 {
		t.Fatal("error event changed the snapshot")
	}

	s := tr.Snapshot()
	if s.Track.ID != 1 || s.Status != engine.Playing || s.Elapsed != 2*time.Second || s.Track.Length != time.Minute {
		t.Fatalf("Snapshot() = %+v", s)
	}

	tr.Apply(engine.StateChanged{Status: engine.Stopped})
	if tr.Snapshot().Elapsed != 0 {
		t.Fatal("elapsed kept after stop")
	}
}

func TestFollowCoalescesWaitingEvents(t *testing.T) {
	events := make(chan engine.Event, 8)
	events <- engine.TrackChanged{ID: 0}
	events <- engine.StateChanged{Status: engine.Playing}
	events <- engine.TrackChanged{ID: 1}
	close(events)

	var calls []Snapshot
	var changes []Change
	Follow(context.Background(), events, NewTracker(testCatalog(), engine.LoopAll, false), func(s Snapshot, c Change) {
		calls = append(calls, s)
		changes = append(changes, c)
	})

	if len(calls) != 1 {
		t.Fatalf("notify ran %d times, want 1", len(calls))
	}
	if calls[0].Track.ID != 1 || calls[0].Status != engine.Playing {
		t.Fatalf("final snapshot = %+v", calls[0])
	}
	if changes[0]&ChangedTrack == 0 || changes[0]&ChangedStatus == 0 {
		t.Fatalf("changes = %b", changes[0])
	}
}

func TestFollowStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Follow(ctx, make(chan engine.Event), NewTracker(testCatalog(), engine.NoLoop, false), func(Snapshot, Change) {})
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestDeliverGivesUpOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if deliver(ctx, make(chan app.Request), app.Request{Kind: app.RequestNext}) {
		t.Fatal("deliver succeeded with nobody listening")
	}
}
