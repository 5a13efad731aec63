package engine

import (
	"time"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/player"
)

// voice is one open track: its decode stream, its sink and the wall-clock
// bookkeeping used to report elapsed time.
type voice struct {
	track  catalog.Track
	src    player.Source
	sink   player.Sink
	volume float64

	base    time.Duration // elapsed before the last resume
	since   time.Time
	running bool
}

func newVoice(out player.Output, t catalog.Track, src player.Source, offset time.Duration) *voice {
	return &voice{track: t, src: src, sink: out.NewSink(src), base: offset}
}

func (v *voice) setVolume(vol float64) {
	v.volume = vol
	v.sink.SetVolume(vol)
}

func (v *voice) resume(now time.Time) {
	if v.running {
		return
	}
	v.since = now
	v.running = true
	v.sink.Play()
}

func (v *voice) pause(now time.Time) {
	if !v.running {
		return
	}
	v.base += now.Sub(v.since)
	v.running = false
	v.sink.Pause()
}

func (v *voice) elapsed(now time.Time) time.Duration {
	e := v.base
	if v.running {
		e += now.Sub(v.since)
	}
	if d := v.duration(); d > 0 && e > d {
		e = d
	}
	return e
}

func (v *voice) duration() time.Duration {
	if v.track.HasDuration() {
		return v.track.Duration
	}
	return v.src.Duration()
}

// finished reports that the decoder is drained and the sink has played
// everything it buffered.
func (v *voice) finished() bool {
	return v.src.Exhausted() && !v.sink.IsPlaying()
}

func (v *voice) release() {
	v.running = false
	v.sink.Pause()
	v.sink.Close()
	v.src.Close()
}
