package engine

import "time"

const (
	quitFadeSteps = 20
	quitFadeGrace = 250 * time.Millisecond
)

// Seams for tests.
var (
	sleep     = time.Sleep
	newTicker = func(d time.Duration) (<-chan time.Time, func()) {
		t := time.NewTicker(d)
		return t.C, t.Stop
	}
)

// Crossfade describes the overlap between an outgoing and an incoming
// track. A zero Duration is a hard cut.
type Crossfade struct {
	Duration time.Duration
	Steps    int
}

func (c Crossfade) enabled() bool {
	return c.Duration > 0 && c.Steps > 0
}

func (c Crossfade) interval() time.Duration {
	return c.Duration / time.Duration(c.Steps)
}

// crossfadeVolumes returns the outgoing and incoming gains after step of
// steps. Both come from the same step so they always sum to one.
func crossfadeVolumes(step, steps int) (out, in float64) {
	if steps <= 0 || step >= steps {
		return 0, 1
	}
	if step <= 0 {
		return 1, 0
	}
	t := float64(step) / float64(steps)
	return 1 - t, t
}

// fader drives a running crossfade. The outgoing voice is owned by the
// fader; the incoming one is the engine's current voice.
type fader struct {
	from  *voice
	step  int
	steps int
	tick  <-chan time.Time
	stop  func()
}

func (e *Engine) beginFade(from *voice) {
	tick, stop := newTicker(e.crossfade.interval())
	e.fade = &fader{from: from, steps: e.crossfade.Steps, tick: tick, stop: stop}
}

// stepFade advances the running crossfade by one step.
func (e *Engine) stepFade() {
	f := e.fade
	if f == nil {
		return
	}
	f.step++
	out, in := crossfadeVolumes(f.step, f.steps)
	f.from.setVolume(out)
	if e.cur != nil {
		e.cur.setVolume(in)
	}
	if f.step >= f.steps {
		e.finishFade()
	}
}

// finishFade jumps a running crossfade to its end.
func (e *Engine) finishFade() {
	f := e.fade
	if f == nil {
		return
	}
	e.fade = nil
	f.stop()
	f.from.setVolume(0)
	f.from.release()
	if e.cur != nil {
		e.cur.setVolume(1)
	}
}

// fadeOut ramps the current voice to silence over d, giving up once
// d plus a small grace period has passed.
func (e *Engine) fadeOut(d time.Duration) {
	if e.cur == nil || d <= 0 || e.status != Playing {
		return
	}
	deadline := e.now().Add(d + quitFadeGrace)
	start := e.cur.volume
	interval := d / quitFadeSteps
	for i := 1; i <= quitFadeSteps; i++ {
		if e.now().After(deadline) {
			break
		}
		e.cur.setVolume(start * (1 - float64(i)/quitFadeSteps))
		sleep(interval)
	}
}
