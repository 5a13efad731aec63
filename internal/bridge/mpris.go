package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/catalog"
	"github.com/olivier-w/presto/internal/engine"
)

const (
	mprisBusName     = "org.mpris.MediaPlayer2.presto"
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	noTrackPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

// ErrNameTaken means another presto instance already owns the MPRIS name.
var ErrNameTaken = errors.New("mpris name already taken")

// MPRIS publishes the player on the D-Bus session bus so desktop media
// keys and tools like playerctl can drive it.
type MPRIS struct {
	conn    *dbus.Conn
	props   *prop.Properties
	tracker *Tracker
	log     *zap.Logger
}

// StartMPRIS claims the presto MPRIS name and exports the root and player
// interfaces. Requests from the bus are delivered on requests until ctx ends.
// The tracker must not be shared with another bridge.
func StartMPRIS(ctx context.Context, tracker *Tracker, requests chan<- app.Request, log *zap.Logger) (*MPRIS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	m, err := exportMPRIS(ctx, conn, tracker, requests, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

func exportMPRIS(ctx context.Context, conn *dbus.Conn, tracker *Tracker, requests chan<- app.Request, log *zap.Logger) (*MPRIS, error) {
	reply, err := conn.RequestName(mprisBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", mprisBusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, ErrNameTaken
	}

	root := mprisRoot{ctx: ctx, requests: requests}
	player := &mprisPlayer{ctx: ctx, requests: requests, tracker: tracker}
	if err := conn.Export(root, mprisPath, mprisRootIface); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", mprisRootIface, err)
	}
	if err := conn.Export(player, mprisPath, mprisPlayerIface); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", mprisPlayerIface, err)
	}

	props, err := prop.Export(conn, mprisPath, mprisProps(tracker.Snapshot(), player))
	if err != nil {
		return nil, fmt.Errorf("exporting properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(mprisPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       mprisRootIface,
				Methods:    introspect.Methods(root),
				Properties: props.Introspection(mprisRootIface),
			},
			{
				Name:       mprisPlayerIface,
				Methods:    introspect.Methods(player),
				Properties: props.Introspection(mprisPlayerIface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), mprisPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("exporting introspection: %w", err)
	}

	log.Info("mpris bridge registered", zap.String("name", mprisBusName))
	return &MPRIS{conn: conn, props: props, tracker: tracker, log: log}, nil
}

func mprisProps(s Snapshot, player *mprisPlayer) prop.Map {
	return prop.Map{
		mprisRootIface: {
			"CanQuit":             {Value: true, Emit: prop.EmitConst},
			"CanRaise":            {Value: false, Emit: prop.EmitConst},
			"HasTrackList":        {Value: false, Emit: prop.EmitConst},
			"Identity":            {Value: "presto", Emit: prop.EmitConst},
			"SupportedUriSchemes": {Value: []string{}, Emit: prop.EmitConst},
			"SupportedMimeTypes":  {Value: []string{}, Emit: prop.EmitConst},
		},
		mprisPlayerIface: {
			"PlaybackStatus": {Value: playbackStatus(s.Status), Emit: prop.EmitTrue},
			"LoopStatus":     {Value: loopStatus(s.Loop), Writable: true, Emit: prop.EmitTrue, Callback: player.setLoopStatus},
			"Shuffle":        {Value: s.Shuffle, Writable: true, Emit: prop.EmitTrue, Callback: player.setShuffle},
			"Metadata":       {Value: metadataMap(s.Track), Emit: prop.EmitTrue},
			"Position":       {Value: micros(s.Elapsed), Emit: prop.EmitFalse},
			"Rate":           {Value: 1.0, Emit: prop.EmitConst},
			"MinimumRate":    {Value: 1.0, Emit: prop.EmitConst},
			"MaximumRate":    {Value: 1.0, Emit: prop.EmitConst},
			"Volume":         {Value: 1.0, Emit: prop.EmitConst},
			"CanGoNext":      {Value: true, Emit: prop.EmitConst},
			"CanGoPrevious":  {Value: true, Emit: prop.EmitConst},
			"CanPlay":        {Value: true, Emit: prop.EmitConst},
			"CanPause":       {Value: true, Emit: prop.EmitConst},
			"CanSeek":        {Value: true, Emit: prop.EmitConst},
			"CanControl":     {Value: true, Emit: prop.EmitConst},
		},
	}
}

// Run mirrors engine events onto the bus until events closes or ctx is done.
func (m *MPRIS) Run(ctx context.Context, events <-chan engine.Event) {
	Follow(ctx, events, m.tracker, m.update)
}

func (m *MPRIS) update(s Snapshot, c Change) {
	if c&ChangedTrack != 0 {
		m.props.SetMust(mprisPlayerIface, "Metadata", metadataMap(s.Track))
	}
	if c&ChangedStatus != 0 {
		m.props.SetMust(mprisPlayerIface, "PlaybackStatus", playbackStatus(s.Status))
	}
	if c&ChangedMode != 0 {
		m.props.SetMust(mprisPlayerIface, "LoopStatus", loopStatus(s.Loop))
		m.props.SetMust(mprisPlayerIface, "Shuffle", s.Shuffle)
	}
	if c&ChangedPosition != 0 {
		m.props.SetMust(mprisPlayerIface, "Position", micros(s.Elapsed))
	}
}

// Close releases the bus name and the connection.
func (m *MPRIS) Close() error {
	if _, err := m.conn.ReleaseName(mprisBusName); err != nil {
		m.log.Warn("releasing mpris name", zap.Error(err))
	}
	return m.conn.Close()
}

type mprisRoot struct {
	ctx      context.Context
	requests chan<- app.Request
}

func (r mprisRoot) Raise() *dbus.Error { return nil }

func (r mprisRoot) Quit() *dbus.Error {
	deliver(r.ctx, r.requests, app.Request{Kind: app.RequestQuit})
	return nil
}

type mprisPlayer struct {
	ctx      context.Context
	requests chan<- app.Request
	tracker  *Tracker
}

func (p *mprisPlayer) send(kind app.RequestKind) *dbus.Error {
	deliver(p.ctx, p.requests, app.Request{Kind: kind})
	return nil
}

func (p *mprisPlayer) Next() *dbus.Error      { return p.send(app.RequestNext) }
func (p *mprisPlayer) Previous() *dbus.Error  { return p.send(app.RequestPrev) }
func (p *mprisPlayer) Pause() *dbus.Error     { return p.send(app.RequestPause) }
func (p *mprisPlayer) PlayPause() *dbus.Error { return p.send(app.RequestPlayPause) }
func (p *mprisPlayer) Stop() *dbus.Error      { return p.send(app.RequestStop) }
func (p *mprisPlayer) Play() *dbus.Error      { return p.send(app.RequestPlay) }

// Seek moves by offset microseconds.
func (p *mprisPlayer) Seek(offset int64) *dbus.Error {
	deliver(p.ctx, p.requests, app.Request{Kind: app.RequestSeek, Offset: time.Duration(offset) * time.Microsecond})
	return nil
}

// SetPosition jumps to an absolute position in the named track. Requests
// for any other track are ignored.
func (p *mprisPlayer) SetPosition(track dbus.ObjectPath, position int64) *dbus.Error {
	s := p.tracker.Snapshot()
	if track != trackPath(s.Track.ID) || position < 0 {
		return nil
	}
	if s.Track.Length > 0 && time.Duration(position)*time.Microsecond > s.Track.Length {
		return nil
	}
	offset := time.Duration(position)*time.Microsecond - s.Elapsed
	deliver(p.ctx, p.requests, app.Request{Kind: app.RequestSeek, Offset: offset})
	return nil
}

func (p *mprisPlayer) OpenUri(uri string) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("opening %s is not supported", uri))
}

func (p *mprisPlayer) setLoopStatus(c *prop.Change) *dbus.Error {
	name, _ := c.Value.(string)
	mode, ok := parseLoopStatus(name)
	if !ok {
		return dbus.MakeFailedError(fmt.Errorf("unknown loop status %q", name))
	}
	deliver(p.ctx, p.requests, app.Request{Kind: app.RequestSetLoop, Loop: mode})
	return nil
}

func (p *mprisPlayer) setShuffle(c *prop.Change) *dbus.Error {
	on, ok := c.Value.(bool)
	if !ok {
		return dbus.MakeFailedError(errors.New("shuffle must be a boolean"))
	}
	deliver(p.ctx, p.requests, app.Request{Kind: app.RequestSetShuffle, Shuffle: on})
	return nil
}

func playbackStatus(s engine.Status) string {
	switch s {
	case engine.Playing:
		return "Playing"
	case engine.Paused:
		return "Paused"
	}
	return "Stopped"
}

func loopStatus(m engine.LoopMode) string {
	switch m {
	case engine.LoopOne:
		return "Track"
	case engine.LoopAll:
		return "Playlist"
	}
	return "None"
}

func parseLoopStatus(s string) (engine.LoopMode, bool) {
	switch s {
	case "None":
		return engine.NoLoop, true
	case "Track":
		return engine.LoopOne, true
	case "Playlist":
		return engine.LoopAll, true
	}
	return engine.NoLoop, false
}

func trackPath(id catalog.TrackID) dbus.ObjectPath {
	if id == catalog.NoTrack {
		return noTrackPath
	}
	return dbus.ObjectPath(fmt.Sprintf("/org/mpris/MediaPlayer2/track/%d", id))
}

func micros(d time.Duration) int64 {
	return d.Microseconds()
}

func metadataMap(m Metadata) map[string]dbus.Variant {
	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackPath(m.ID)),
	}
	if m.ID == catalog.NoTrack {
		return meta
	}
	meta["xesam:title"] = dbus.MakeVariant(m.Title)
	if m.Artist != "" {
		meta["xesam:artist"] = dbus.MakeVariant([]string{m.Artist})
	}
	if m.Album != "" {
		meta["xesam:album"] = dbus.MakeVariant(m.Album)
	}
	if m.URL != "" {
		meta["xesam:url"] = dbus.MakeVariant(m.URL)
	}
	if m.Length > 0 {
		meta["mpris:length"] = dbus.MakeVariant(micros(m.Length))
	}
	return meta
}
