package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
)

func newTestPlayer(t *testing.T) (*mprisPlayer, chan app.Request, *Tracker) {
	t.Helper()
	requests := make(chan app.Request, 4)
	tr := NewTracker(testCatalog(), engine.LoopAll, false)
	return &mprisPlayer{ctx: context.Background(), requests: requests, tracker: tr}, requests, tr
}

func TestMetadataMap(t *testing.T) {
	m, _ := MetadataFor(testCatalog(), 0)
	meta := metadataMap(m)

	if got := meta["mpris:trackid"].Value(); got != dbus.ObjectPath("/org/mpris/MediaPlayer2/track/0") {
		t.Fatalf("trackid = %v", got)
	}
	if got := meta["xesam:title"].Value(); got != "Alpha" {
		t.Fatalf("title = %v", got)
	}
	if got := meta["xesam:artist"].Value().([]string); len(got) != 1 || got[0] != "Ann" {
		t.Fatalf("artist = %v", got)
	}
	if got := meta["mpris:length"].Value(); got != int64(180_000_000) {
		t.Fatalf("length = %v", got)
	}

	bare, _ := MetadataFor(testCatalog(), 1)
	meta = metadataMap(bare)
	for _, key := range []string{"xesam:artist", "xesam:album", "mpris:length"} {
		if _, ok := meta[key]; ok {
			t.Fatalf("%s set for a track without it", key)
		}
	}

	none := metadataMap(Metadata{ID: catalog.NoTrack})
	if len(none) != 1 || none["mpris:trackid"].Value() != noTrackPath {
		t.Fatalf("empty metadata = %v", none)
	}
}

func TestLoopStatusRoundTrip(t *testing.T) {
	for _, m := range []engine.LoopMode{engine.NoLoop, engine.LoopAll, engine.LoopOne} {
		got, ok := parseLoopStatus(loopStatus(m))
		if !ok || got != m {
			t.Fatalf("parseLoopStatus(loopStatus(%v)) = %v, %v", m, got, ok)
		}
	}
	if _, ok := parseLoopStatus("Sometimes"); ok {
		t.Fatal("unknown loop status parsed")
	}
	if playbackStatus(engine.Paused) != "Paused" || playbackStatus(engine.Stopped) != "Stopped" {
		t.Fatal("playback status names")
	}
}

func TestPlayerMethodsDeliverRequests(t *testing.T) {
	p, requests, _ := newTestPlayer(t)
	calls := []struct {
		call func() *dbus.Error
		want app.RequestKind
	}{
		{p.Next, app.RequestNext},
		{p.Previous, app.RequestPrev},
		{p.PlayPause, app.RequestPlayPause},
		{p.Stop, app.RequestStop},
	}
	for _, c := range calls {
		if err := c.call(); err != nil {
			t.Fatalf("method error = %v", err)
		}
		if got := <-requests; got.Kind != c.want {
			t.Fatalf("request = %v, want %v", got.Kind, c.want)
		}
	}

	p.Seek(-2_000_000)
	if got := <-requests; got.Kind != app.RequestSeek || got.Offset != -2*time.Second {
		t.Fatalf("Seek request = %+v", got)
	}
}

func TestSetPositionSeeksRelative(t *testing.T) {
	p, requests, tr := newTestPlayer(t)
	tr.Apply(engine.TrackChanged{ID: 0})
	tr.Apply(engine.PositionTick{ID: 0, Elapsed: 10 * time.Second})

	p.SetPosition(trackPath(1), 0)
	p.SetPosition(trackPath(0), (10 * time.Minute).Microseconds())
	p.SetPosition(trackPath(0), (30 * time.Second).Microseconds())

	got := <-requests
	if got.Kind != app.RequestSeek || got.Offset != 20*time.Second {
		t.Fatalf("SetPosition request = %+v, want seek +20s", got)
	}
	select {
	case extra := <-requests:
		t.Fatalf("unexpected request %+v", extra)
	default:
	}
}

func TestWritableProperties(t *testing.T) {
	p, requests, _ := newTestPlayer(t)

	if err := p.setLoopStatus(&prop.Change{Value: "Track"}); err != nil {
		t.Fatalf("setLoopStatus error = %v", err)
	}
	if got := <-requests; got.Kind != app.RequestSetLoop || got.Loop != engine.LoopOne {
		t.Fatalf("loop request = %+v", got)
	}
	if err := p.setLoopStatus(&prop.Change{Value: "Forever"}); err == nil {
		t.Fatal("invalid loop status accepted")
	}

	if err := p.setShuffle(&prop.Change{Value: true}); err != nil {
		t.Fatalf("setShuffle error = %v", err)
	}
	if got := <-requests; got.Kind != app.RequestSetShuffle || !got.Shuffle {
		t.Fatalf("shuffle request = %+v", got)
	}
}

func TestRootQuit(t *testing.T) {
	requests := make(chan app.Request, 1)
	mprisRoot{ctx: context.Background(), requests: requests}.Quit()
	if got := <-requests; got.Kind != app.RequestQuit {
		t.Fatalf("Quit request = %+v", got)
	}
}
