package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-lemmings/internal/config"
	"github.com/vovakirdan/tui-lemmings/internal/core"
	"github.com/vovakirdan/tui-lemmings/internal/stage"
)

func newTestStage() *stage.Stage {
	s := stage.New("web-test", "Web Test", 200, 100)
	s.AddObstacle(stage.Element{ID: "floor", Classes: []string{"collidable"}, Rect: core.NewRect(0, 90, 200, 10)})
	s.AddObstacle(stage.Element{ID: "sign", Classes: []string{"decor"}, Rect: core.NewRect(10, 10, 20, 5)})
	return s
}

// startHub runs a hub on a wall clock and serves it over httptest.
func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Simulation.SpawnCount = 0
	cfg.Simulation.SpeedMS = 10
	cfg.Display.TickRate = 100

	hub := NewHub(Config{Stage: newTestStage(), App: cfg})
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s message: %v", msg.Type, err)
	}
}

// readUntil reads messages until match accepts one or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(typ string, payload []byte) bool) []byte {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no matching message before error: %v", err)
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &head); err != nil {
			t.Fatalf("invalid payload %s: %v", payload, err)
		}
		if match(head.Type, payload) {
			return payload
		}
	}
}

func readState(t *testing.T, conn *websocket.Conn, match func(stateMessage) bool) stateMessage {
	t.Helper()

	var state stateMessage
	readUntil(t, conn, func(typ string, payload []byte) bool {
		if typ != "state" {
			return false
		}
		if err := json.Unmarshal(payload, &state); err != nil {
			t.Fatalf("invalid state %s: %v", payload, err)
		}
		return match(state)
	})
	return state
}

func TestInitialState(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	state := readState(t, conn, func(stateMessage) bool { return true })

	if state.Stage.ID != "web-test" || state.Stage.Width != 200 || state.Stage.Height != 100 {
		t.Errorf("stage = %+v, expected web-test 200x100", state.Stage)
	}
	if len(state.Stage.Obstacles) != 2 {
		t.Fatalf("len(obstacles) = %d, expected 2", len(state.Stage.Obstacles))
	}
	for _, o := range state.Stage.Obstacles {
		if expected := o.ID == "floor"; o.Solid != expected {
			t.Errorf("obstacle %s solid = %v, expected %v", o.ID, o.Solid, expected)
		}
	}
	if state.Colony.Selector != ".collidable" || state.Colony.SpeedMS != 10 {
		t.Errorf("colony = %+v, expected .collidable at 10ms", state.Colony)
	}
	if len(state.Lemmings) != 0 {
		t.Errorf("len(lemmings) = %d, expected 0", len(state.Lemmings))
	}
}

func TestSpawnCommand(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	send(t, conn, clientMessage{Type: "command", Cmd: "spawn"})
	state := readState(t, conn, func(s stateMessage) bool { return len(s.Lemmings) == 1 })

	l := state.Lemmings[0]
	if l.ID != 1 || l.W <= 0 || l.H <= 0 || l.Sprite == "" {
		t.Errorf("lemming = %+v", l)
	}
	if state.Colony.Spawned != 1 {
		t.Errorf("spawned = %d, expected 1", state.Colony.Spawned)
	}
}

func TestSelectorCommandCycles(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	send(t, conn, clientMessage{Type: "command", Cmd: "selector"})
	state := readState(t, conn, func(s stateMessage) bool { return s.Colony.Selector != ".collidable" })

	if state.Colony.Selector != ".decor" {
		t.Errorf("selector = %q, expected .decor", state.Colony.Selector)
	}
}

func TestSelectorCommandFollowsCurrent(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	send(t, conn, clientMessage{Type: "selector", Selector: "#sign"})
	readState(t, conn, func(s stateMessage) bool { return s.Colony.Selector == "#sign" })

	send(t, conn, clientMessage{Type: "command", Cmd: "selector"})
	readState(t, conn, func(s stateMessage) bool { return s.Colony.Selector == ".collidable" })

	// A class added after startup joins the rotation
	err := hub.stage.AddObstacle(stage.Element{ID: "pipe", Classes: []string{"hazard"}, Rect: core.NewRect(50, 50, 4, 4)})
	if err != nil {
		t.Fatalf("AddObstacle() error = %v", err)
	}
	send(t, conn, clientMessage{Type: "command", Cmd: "selector"})
	readState(t, conn, func(s stateMessage) bool { return s.Colony.Selector == ".decor" })
	send(t, conn, clientMessage{Type: "command", Cmd: "selector"})
	readState(t, conn, func(s stateMessage) bool { return s.Colony.Selector == ".hazard" })
}

func TestMoveObstacle(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	send(t, conn, clientMessage{Type: "move", ID: "sign", X: 50, Y: 40})
	readState(t, conn, func(s stateMessage) bool {
		for _, o := range s.Stage.Obstacles {
			if o.ID == "sign" {
				return o.X == 50 && o.Y == 40
			}
		}
		return false
	})
}

func TestRejectedMessages(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	tests := []struct {
		name string
		msg  clientMessage
	}{
		{"unknown type", clientMessage{Type: "dance"}},
		{"unknown command", clientMessage{Type: "command", Cmd: "jump"}},
		{"unknown obstacle", clientMessage{Type: "move", ID: "nope"}},
		{"bad selector", clientMessage{Type: "selector", Selector: "div"}},
		{"empty resize", clientMessage{Type: "resize"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.msg)
			payload := readUntil(t, conn, func(typ string, _ []byte) bool { return typ == "error" })

			var msg errorMessage
			if err := json.Unmarshal(payload, &msg); err != nil || msg.Error == "" {
				t.Errorf("error message = %s", payload)
			}
		})
	}
}

func TestResize(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv)

	send(t, conn, clientMessage{Type: "resize", Width: 300, Height: 150})
	readState(t, conn, func(s stateMessage) bool { return s.Stage.Width == 300 && s.Stage.Height == 150 })
}

func TestStateEndpoint(t *testing.T) {
	_, srv := startHub(t)

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200", resp.StatusCode)
	}
	var state stateMessage
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if state.Type != "state" || state.Stage.ID != "web-test" {
		t.Errorf("state = %+v", state)
	}
}

func TestCommandEndpoint(t *testing.T) {
	_, srv := startHub(t)

	resp, err := http.Post(srv.URL+"/command/jump", "", nil)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown command status = %d, expected 400", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/command/spawn", "", nil)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("spawn status = %d, expected 202", resp.StatusCode)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/state")
		if err != nil {
			t.Fatalf("GET /state error = %v", err)
		}
		var state stateMessage
		json.NewDecoder(resp.Body).Decode(&state)
		resp.Body.Close()
		if state.Colony.Agents == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("spawn command never reached the colony")
}

func TestIndex(t *testing.T) {
	_, srv := startHub(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<canvas") {
		t.Errorf("GET / = %d, body without canvas", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, expected text/html", ct)
	}
}

func TestSummaryAfterRun(t *testing.T) {
	hub := NewHub(Config{Stage: newTestStage(), App: config.DefaultConfig()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := hub.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	spawned, _, elapsed := hub.Summary()
	if spawned != 1 {
		t.Errorf("spawned = %d, expected 1 (first of the wave)", spawned)
	}
	if elapsed <= 0 {
		t.Errorf("elapsed = %v, expected > 0", elapsed)
	}
	if hub.StageID() != "web-test" {
		t.Errorf("StageID() = %q", hub.StageID())
	}
}
