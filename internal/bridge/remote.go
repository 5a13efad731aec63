package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	clientBuffer   = 16
)

// remoteCommands are the requests a websocket client may send.
var remoteCommands = map[app.RequestKind]bool{
	app.RequestPlay:      true,
	app.RequestPause:     true,
	app.RequestPlayPause: true,
	app.RequestStop:      true,
	app.RequestNext:      true,
	app.RequestPrev:      true,
	app.RequestSeek:      true,
}

// CommandMessage is what a client sends, e.g. {"command":"seek","offset_ms":-5000}.
type CommandMessage struct {
	Command  string `json:"command"`
	OffsetMS int64  `json:"offset_ms,omitempty"`
}

// StatusMessage describes playback. It is the body of GET /status and is
// pushed to every client after each transition.
type StatusMessage struct {
	Type       string `json:"type"`
	State      string `json:"state"`
	TrackID    int    `json:"track_id"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	URL        string `json:"url,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	Loop       string `json:"loop"`
	Shuffle    bool   `json:"shuffle"`
}

type helloMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func statusMessage(s Snapshot) StatusMessage {
	return StatusMessage{
		Type:       "status",
		State:      s.Status.String(),
		TrackID:    int(s.Track.ID),
		Title:      s.Track.Title,
		Artist:     s.Track.Artist,
		Album:      s.Track.Album,
		URL:        s.Track.URL,
		DurationMS: s.Track.Length.Milliseconds(),
		ElapsedMS:  s.Elapsed.Milliseconds(),
		Loop:       s.Loop.String(),
		Shuffle:    s.Shuffle,
	}
}

// parseCommand validates a client command.
func parseCommand(data []byte) (app.Request, error) {
	var msg CommandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return app.Request{}, fmt.Errorf("invalid message: %w", err)
	}
	kind, ok := app.ParseRequestKind(msg.Command)
	if !ok || !remoteCommands[kind] {
		return app.Request{}, fmt.Errorf("unknown command %q", msg.Command)
	}
	r := app.Request{Kind: kind}
	if kind == app.RequestSeek {
		if msg.OffsetMS == 0 {
			return app.Request{}, errors.New("seek needs a non-zero offset_ms")
		}
		r.Offset = time.Duration(msg.OffsetMS) * time.Millisecond
	}
	return r, nil
}

// Remote serves a websocket control endpoint at /ws and a JSON snapshot at
// GET /status.
type Remote struct {
	tracker  *Tracker
	requests chan<- app.Request
	log      *zap.Logger
	upgrader websocket.Upgrader
	router   *mux.Router

	ctx context.Context

	mu      sync.Mutex
	clients map[uuid.UUID]*remoteClient
}

type remoteClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// NewRemote builds the bridge. Requests are delivered on requests until ctx
// ends. The tracker must not be shared with another bridge.
func NewRemote(ctx context.Context, tracker *Tracker, requests chan<- app.Request, log *zap.Logger) *Remote {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Remote{
		tracker:  tracker,
		requests: requests,
		log:      log,
		ctx:      ctx,
		clients:  make(map[uuid.UUID]*remoteClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	router := mux.NewRouter()
	router.HandleFunc("/status", r.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/ws", r.handleWS)
	r.router = router
	return r
}

// Handler returns the HTTP handler for the bridge.
func (r *Remote) Handler() http.Handler {
	return r.router
}

// Serve accepts connections on l until ctx is done.
func (r *Remote) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: r.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		r.closeClients()
	}()
	r.log.Info("remote bridge listening", zap.String("addr", l.Addr().String()))
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("remote bridge: %w", err)
	}
	return nil
}

// Run broadcasts engine transitions to every client until events closes
// or ctx is done. Position ticks alone are not broadcast.
func (r *Remote) Run(ctx context.Context, events <-chan engine.Event) {
	Follow(ctx, events, r.tracker, func(s Snapshot, c Change) {
		if c&^ChangedPosition == 0 {
			return
		}
		r.broadcast(statusMessage(s))
	})
}

func (r *Remote) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statusMessage(r.tracker.Snapshot())); err != nil {
		r.log.Warn("writing status", zap.Error(err))
	}
}

func (r *Remote) handleWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &remoteClient{id: uuid.New(), conn: conn, send: make(chan []byte, clientBuffer)}

	r.mu.Lock()
	r.clients[c.id] = c
	r.mu.Unlock()
	r.log.Info("remote client connected", zap.String("client", c.id.String()))

	r.sendTo(c, helloMessage{Type: "hello", ClientID: c.id.String()})
	r.sendTo(c, statusMessage(r.tracker.Snapshot()))

	go r.writePump(c)
	r.readPump(c)
}

func (r *Remote) readPump(c *remoteClient) {
	defer r.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Warn("websocket read error", zap.String("client", c.id.String()), zap.Error(err))
			}
			return
		}
		req, err := parseCommand(data)
		if err != nil {
			r.sendTo(c, errorMessage{Type: "error", Error: err.Error()})
			continue
		}
		r.log.Debug("remote command", zap.String("client", c.id.String()), zap.Stringer("request", req.Kind))
		if !deliver(r.ctx, r.requests, req) {
			return
		}
	}
}

func (r *Remote) writePump(c *remoteClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendTo queues v for c, dropping it when the client is not keeping up.
func (r *Remote) sendTo(c *remoteClient, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Error("encoding remote message", zap.Error(err))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		r.log.Warn("remote client too slow, dropping message", zap.String("client", c.id.String()))
	}
}

func (r *Remote) broadcast(v any) {
	r.mu.Lock()
	clients := make([]*remoteClient, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()
	for _, c := range clients {
		r.sendTo(c, v)
	}
}

func (r *Remote) drop(c *remoteClient) {
	r.mu.Lock()
	if _, ok := r.clients[c.id]; ok {
		delete(r.clients, c.id)
		close(c.send)
	}
	r.mu.Unlock()
	r.log.Info("remote client disconnected", zap.String("client", c.id.String()))
}

func (r *Remote) closeClients() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		delete(r.clients, id)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (r *Remote) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
