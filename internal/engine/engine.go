package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/player"
	"github.com/olivier-w/presto/internal/queue"
)

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultCommandSlots = 64
)

// Options configures an Engine. Output is required.
type Options struct {
	Output player.Output
	// Open decodes a track. Defaults to player.Open on the track path.
	Open         func(catalog.Track) (player.Source, error)
	Crossfade    Crossfade
	Loop         LoopMode
	Shuffle      bool
	TickInterval time.Duration
	CommandSlots int
	Now          func() time.Time
	Logger       *zap.Logger
}

// Engine owns the output device and the playback queue. It runs on a single
// goroutine; everything else talks to it through Send and Subscribe.
type Engine struct {
	cat       *catalog.Catalog
	out       player.Output
	open      func(catalog.Track) (player.Source, error)
	crossfade Crossfade
	tickEvery time.Duration
	now       func() time.Time
	log       *zap.Logger

	cmds     chan Command
	stopping chan struct{}
	done     chan struct{}
	sendMu   sync.RWMutex
	closing  bool
	events   bus

	// Engine goroutine state.
	queue     *queue.Queue
	cur       *voice
	status    Status
	loop      LoopMode
	shuffle   bool
	fade      *fader
	quitting  bool
	quitFade  time.Duration
	errs      []Event
	tickDue   bool
	published snapshot
}

type snapshot struct {
	track   catalog.TrackID
	status  Status
	loop    LoopMode
	shuffle bool
}

// New creates an engine over cat. Call Run to start it.
func New(cat *catalog.Catalog, opts Options) (*Engine, error) {
	if opts.Output == nil {
		return nil, errors.New("engine: no audio output")
	}
	if opts.Crossfade.Duration > 0 && opts.Crossfade.Steps < 1 {
		return nil, fmt.Errorf("engine: crossfade needs at least one step, got %d", opts.Crossfade.Steps)
	}
	if opts.Open == nil {
		opts.Open = func(t catalog.Track) (player.Source, error) {
			return player.Open(t.Path)
		}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.CommandSlots <= 0 {
		opts.CommandSlots = defaultCommandSlots
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Engine{
		cat:       cat,
		out:       opts.Output,
		open:      opts.Open,
		crossfade: opts.Crossfade,
		tickEvery: opts.TickInterval,
		now:       opts.Now,
		log:       opts.Logger.Named("engine"),
		cmds:      make(chan Command, opts.CommandSlots),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
		queue:     queue.New(nil),
		loop:      opts.Loop,
		shuffle:   opts.Shuffle,
		published: snapshot{track: catalog.NoTrack, status: Stopped, loop: -1},
	}, nil
}

// Subscribe returns a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	return e.events.subscribe()
}

// Send enqueues cmd, blocking while the command buffer is full. It fails
// with ErrShuttingDown once shutdown has begun.
func (e *Engine) Send(cmd Command) error {
	return e.send(context.Background(), cmd)
}

func (e *Engine) send(ctx context.Context, cmd Command) error {
	e.sendMu.RLock()
	defer e.sendMu.RUnlock()
	if e.closing {
		return ErrShuttingDown
	}
	select {
	case e.cmds <- cmd:
		return nil
	case <-e.stopping:
		return ErrShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown asks the engine to fade out over fade and waits until it has
// released the device or ctx expires.
func (e *Engine) Shutdown(ctx context.Context, fade time.Duration) error {
	if err := e.send(ctx, QuitFadeOut{Fade: fade}); err != nil && !errors.Is(err, ErrShuttingDown) {
		return err
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run services commands until QuitFadeOut is processed or ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.events.close()

	ticker := time.NewTicker(e.tickEvery)
	defer ticker.Stop()

	e.log.Info("engine started", zap.Int("tracks", e.cat.Len()), zap.Stringer("loop", e.loop))
	e.publish()

	for {
		var fadeTick <-chan time.Time
		if e.fade != nil {
			fadeTick = e.fade.tick
		}

		select {
		case <-ctx.Done():
			e.shutdown(0)
			return ctx.Err()
		case cmd := <-e.cmds:
			e.apply(cmd)
			// Drain the backlog before publishing so bursts coalesce.
			for !e.quitting && len(e.cmds) > 0 {
				e.apply(<-e.cmds)
			}
			if e.quitting {
				e.publish()
				e.shutdown(e.quitFade)
				return nil
			}
			e.publish()
		case <-ticker.C:
			e.tick()
			e.publish()
		case <-fadeTick:
			e.stepFade()
			e.publish()
		}
	}
}

func (e *Engine) apply(cmd Command) {
	switch c := cmd.(type) {
	case SetQueue:
		e.queue.Replace(c.IDs, e.currentID())
		if c.StartAt != nil {
			e.playSelected(*c.StartAt, cmd)
		}
	case SetShuffleQueueOrder:
		e.queue.Replace(c.IDs, e.currentID())
	case PlaySelected:
		e.playSelected(c.ID, cmd)
	case PlayPause:
		switch e.status {
		case Playing:
			e.pause()
		case Paused:
			e.resume()
		}
	case Play:
		if e.status == Paused {
			e.resume()
		}
	case Pause:
		if e.status == Playing {
			e.pause()
		}
	case Stop:
		e.stop()
	case Next:
		id, ok := e.queue.PeekNext(e.loop == LoopAll)
		e.skip(cmd, id, ok)
	case Prev:
		id, ok := e.queue.PeekPrev(e.loop == LoopAll)
		e.skip(cmd, id, ok)
	case SeekRelative:
		e.seek(c.Delta, cmd)
	case SetLoopMode:
		e.loop = c.Mode
	case ToggleShuffleFlag:
		e.shuffle = !e.shuffle
	case QuitFadeOut:
		e.quitting = true
		e.quitFade = c.Fade
	}
}

func (e *Engine) currentID() catalog.TrackID {
	if e.cur == nil {
		return catalog.NoTrack
	}
	return e.cur.track.ID
}

func (e *Engine) fail(err error, cmd Command) {
	e.log.Warn("command failed", zap.String("command", fmt.Sprintf("%T", cmd)), zap.Error(err))
	e.errs = append(e.errs, ErrorEvent{Err: err, Command: cmd})
}

func (e *Engine) playSelected(id catalog.TrackID, cmd Command) {
	if id == e.currentID() && e.status != Stopped {
		if e.status == Paused {
			e.resume()
		}
		e.queue.Seek(id)
		return
	}
	if !e.queue.Contains(id) {
		e.fail(fmt.Errorf("%w: %d", ErrTrackNotInQueue, id), cmd)
		return
	}
	if err := e.startTrack(id); err != nil {
		e.fail(err, cmd)
		return
	}
	e.queue.Seek(id)
}

func (e *Engine) skip(cmd Command, id catalog.TrackID, ok bool) {
	if !ok {
		return
	}
	if err := e.startTrack(id); err != nil {
		e.fail(err, cmd)
		return
	}
	e.queue.Seek(id)
}

// startTrack opens id and makes it the current voice. A playing track is
// crossfaded out when crossfading is enabled and cut otherwise. On error
// nothing changes.
func (e *Engine) startTrack(id catalog.TrackID) error {
	t, ok := e.cat.Track(id)
	if !ok {
		return fmt.Errorf("%w: no catalog entry %d", ErrTrackUnavailable, id)
	}
	src, err := e.open(t)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTrackUnavailable, t.Path, err)
	}

	e.finishFade()
	next := newVoice(e.out, t, src, 0)
	now := e.now()
	if e.crossfade.enabled() && e.cur != nil && e.status == Playing && e.cur.sink.IsPlaying() {
		next.setVolume(0)
		next.resume(now)
		e.beginFade(e.cur)
	} else {
		if e.cur != nil {
			e.cur.release()
		}
		next.setVolume(1)
		next.resume(now)
	}
	e.cur = next
	e.status = Playing
	e.tickDue = true
	e.log.Debug("track started", zap.String("path", t.Path))
	return nil
}

func (e *Engine) pause() {
	e.finishFade()
	e.cur.pause(e.now())
	e.status = Paused
	e.tickDue = true
}

func (e *Engine) resume() {
	e.cur.resume(e.now())
	e.status = Playing
}

func (e *Engine) stop() {
	e.finishFade()
	if e.cur != nil {
		e.cur.release()
		e.cur = nil
	}
	e.status = Stopped
}

// seek rebuilds the sink for the current track at the requested offset.
// Overshooting the end is handled like the track ending on its own.
func (e *Engine) seek(delta time.Duration, cmd Command) {
	if e.cur == nil || e.status == Stopped {
		return
	}
	e.finishFade()
	now := e.now()
	target := max(e.cur.elapsed(now)+delta, 0)
	if d := e.cur.duration(); d > 0 && target >= d {
		e.boundary()
		return
	}

	src, err := e.open(e.cur.track)
	if err != nil {
		e.fail(fmt.Errorf("%w: %s: %w", ErrTrackUnavailable, e.cur.track.Path, err), cmd)
		return
	}
	if err := src.SkipTo(target); err != nil {
		src.Close()
		e.log.Debug("seek ran off the end", zap.String("path", e.cur.track.Path), zap.Error(err))
		e.boundary()
		return
	}

	old := e.cur
	next := newVoice(e.out, old.track, src, target)
	old.release()
	next.setVolume(1)
	e.cur = next
	if e.status == Playing {
		next.resume(now)
	}
	e.tickDue = true
}

// upcoming picks the track that follows the current one at a natural end.
func (e *Engine) upcoming() (catalog.TrackID, bool) {
	switch e.loop {
	case LoopOne:
		if e.cur != nil {
			return e.cur.track.ID, true
		}
		return e.queue.PeekNext(false)
	case LoopAll:
		return e.queue.PeekNext(true)
	default:
		return e.queue.PeekNext(false)
	}
}

// boundary handles the end of the current track according to the loop
// mode. Tracks that fail to open are reported and skipped.
func (e *Engine) boundary() {
	for attempts := max(e.queue.Len(), 1); attempts > 0; attempts-- {
		id, ok := e.upcoming()
		if !ok {
			e.stop()
			e.queue.Detach()
			return
		}
		err := e.startTrack(id)
		if err == nil {
			e.queue.Seek(id)
			return
		}
		e.fail(err, nil)
		if e.loop == LoopOne || !e.queue.Seek(id) {
			break
		}
	}
	e.stop()
}

func (e *Engine) tick() {
	if e.cur == nil || e.status != Playing {
		return
	}
	if e.cur.finished() {
		if err := e.cur.src.Err(); err != nil {
			e.log.Warn("decode error, skipping", zap.String("path", e.cur.track.Path), zap.Error(err))
		}
		e.boundary()
		return
	}
	if e.fade == nil && e.crossfade.enabled() {
		d := e.cur.duration()
		if _, ok := e.upcoming(); ok && d > 0 && e.cur.elapsed(e.now()) >= d-e.crossfade.Duration {
			e.boundary()
			return
		}
	}
	e.tickDue = true
}

func (e *Engine) snapshot() snapshot {
	return snapshot{track: e.currentID(), status: e.status, loop: e.loop, shuffle: e.shuffle}
}

// publish emits pending errors followed by whatever changed since the last
// publish.
func (e *Engine) publish() {
	for _, ev := range e.errs {
		e.events.publish(ev)
	}
	e.errs = e.errs[:0]

	s := e.snapshot()
	p := e.published
	if s.loop != p.loop || s.shuffle != p.shuffle {
		e.events.publish(ModeChanged{Loop: s.loop, Shuffle: s.shuffle})
	}
	if s.track != p.track {
		e.events.publish(TrackChanged{ID: s.track})
	}
	if s.status != p.status {
		e.events.publish(StateChanged{Status: s.status})
	}
	if e.tickDue && e.cur != nil && e.status != Stopped {
		e.events.publish(PositionTick{ID: s.track, Elapsed: e.cur.elapsed(e.now()), Duration: e.cur.duration()})
	}
	e.tickDue = false
	e.published = s
}

// shutdown fades out, releases the device and reports every command still
// queued as ErrShuttingDown.
func (e *Engine) shutdown(fade time.Duration) {
	close(e.stopping)
	e.sendMu.Lock()
	e.closing = true
	e.sendMu.Unlock()

	e.finishFade()
	e.fadeOut(fade)
	e.stop()

	for {
		select {
		case cmd := <-e.cmds:
			e.errs = append(e.errs, ErrorEvent{Err: ErrShuttingDown, Command: cmd})
		default:
			e.publish()
			e.log.Info("engine stopped")
			return
		}
	}
}
