package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olivier-w/presto/internal/app"
	"github.com/olivier-w/presto/internal/engine"
)

func newTestRemote(t *testing.T) (*Remote, *httptest.Server, chan app.Request) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	requests := make(chan app.Request, 4)
	r := NewRemote(ctx, NewTracker(testCatalog(), engine.LoopAll, false), requests, nil)
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return r, srv, requests
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
}

func TestParseCommand(t *testing.T) {
	r, err := parseCommand([]byte(`{"command":"seek","offset_ms":-5000}`))
	if err != nil || r.Kind != app.RequestSeek || r.Offset != -5*time.Second {
		t.Fatalf("parseCommand(seek) = %+v, %v", r, err)
	}
	for _, bad := range []string{`{"command":"quit"}`, `{"command":"set_loop"}`, `{"command":"seek"}`, `not json`} {
		if _, err := parseCommand([]byte(bad)); err == nil {
			t.Fatalf("parseCommand(%s) accepted", bad)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	r, srv, _ := newTestRemote(t)
	r.tracker.Apply(engine.TrackChanged{ID: 0})
	r.tracker.Apply(engine.StateChanged{Status: engine.Playing})

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status error = %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var got StatusMessage
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got.State != "playing" || got.Title != "Alpha" || got.DurationMS != 180000 || got.Loop != "loop-all" {
		t.Fatalf("status = %+v", got)
	}

	resp, err = http.Post(srv.URL+"/status", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /status error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST /status = %d", resp.StatusCode)
	}
}

func TestWebsocketCommands(t *testing.T) {
	_, srv, requests := newTestRemote(t)
	conn := dial(t, srv)

	var hello helloMessage
	readJSON(t, conn, &hello)
	if hello.Type != "hello" || hello.ClientID == "" {
		t.Fatalf("hello = %+v", hello)
	}
	var status StatusMessage
	readJSON(t, conn, &status)
	if status.Type != "status" || status.TrackID != -1 {
		t.Fatalf("initial status = %+v", status)
	}

	if err := conn.WriteJSON(CommandMessage{Command: "next"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	select {
	case got := <-requests:
		if got.Kind != app.RequestNext {
			t.Fatalf("request = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command not delivered")
	}

	if err := conn.WriteJSON(CommandMessage{Command: "rewind"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var bad errorMessage
	readJSON(t, conn, &bad)
	if bad.Type != "error" || !strings.Contains(bad.Error, "rewind") {
		t.Fatalf("error reply = %+v", bad)
	}
}

func TestBroadcastOnTransition(t *testing.T) {
	r, srv, _ := newTestRemote(t)
	conn := dial(t, srv)
	var skip json.RawMessage
	readJSON(t, conn, &skip) // hello
	readJSON(t, conn, &skip) // status

	events := make(chan engine.Event, 4)
	events <- engine.PositionTick{ID: 0, Elapsed: time.Second}
	events <- engine.TrackChanged{ID: 1}
	close(events)
	r.Run(context.Background(), events)

	var got StatusMessage
	readJSON(t, conn, &got)
	if got.TrackID != 1 || got.Title != "Beta" {
		t.Fatalf("broadcast = %+v", got)
	}
}
