package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, engine.WebSocketBufferSize),
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels must be initialized")
	}
	if hub.SessionCount() != 0 {
		t.Errorf("Expected no sessions, got %d", hub.SessionCount())
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("TEST-SESSION") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("test-session"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed on unregister")
	}

	// A second unregister must not close the channel again
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if hub.ClientCount(sessionID) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount(sessionID))
	}
	if hub.SessionCount() != 2 {
		t.Errorf("Expected 2 sessions, got %d", hub.SessionCount())
	}

	hub.unregisterClient(client1)

	if hub.ClientCount(sessionID) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount(sessionID))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "broadcast-test")
	bystander := newTestClient(hub, "elsewhere")
	hub.registerClient(client)
	hub.registerClient(bystander)

	state := &engine.GameState{
		PlayerPos: engine.Position{Row: 3, Col: 5},
		Stats:     engine.PlayerStats{MovesRemaining: 7, Strength: 2, Money: 5},
		Status:    engine.Playing,
	}
	hub.broadcastMessage(&Message{SessionID: "broadcast-test", Event: EventStateUpdate, GameState: state})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %q", EventStateUpdate, message.Event)
		}
		if message.GameState.PlayerPos != state.PlayerPos || message.GameState.Stats != state.Stats {
			t.Errorf("GameState not correctly transmitted: %+v", message.GameState)
		}
	default:
		t.Fatal("No message queued for subscribed client")
	}

	select {
	case <-bystander.send:
		t.Error("Clients of other sessions must not receive the message")
	default:
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "slow", Event: "two"})

	if hub.ClientCount("slow") != 0 {
		t.Error("A client with a full buffer should be dropped")
	}
}

func TestHubBroadcastEventQueues(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("Event-Test", EventPurchase, "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected normalized sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != EventPurchase || message.Data != "test-data" {
			t.Errorf("Unexpected message: %+v", message)
		}
		if message.Timestamp.IsZero() {
			t.Error("Expected message to be timestamped")
		}
	default:
		t.Fatal("BroadcastEvent should queue a message")
	}
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastEvent("nobody", EventReset, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcasting without a running hub must not block")
	}
}

func startTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("sessionId"))
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketUpgrade(t *testing.T) {
	hub, wsURL := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?sessionId=WS-Test", nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, "registration", func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()

	waitFor(t, "unregistration", func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub, wsURL := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?sessionId=msg-test", nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, "registration", func() bool { return hub.ClientCount("msg-test") == 1 })

	state := &engine.GameState{
		PlayerPos: engine.Position{Row: 2, Col: 4},
		Stats:     engine.PlayerStats{MovesRemaining: 12, Strength: 1, Money: 10},
		Status:    engine.Won,
	}
	hub.BroadcastToSession("MSG-TEST", state)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID 'msg-test', got %s", message.SessionID)
	}
	if message.GameState == nil || message.GameState.PlayerPos != state.PlayerPos {
		t.Fatalf("GameState position not correctly received: %+v", message.GameState)
	}
	if message.GameState.Status != engine.Won || message.GameState.Stats.Money != 10 {
		t.Errorf("GameState status/stats not correctly received: %+v", message.GameState)
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "shutdown")
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()
	waitFor(t, "registration", func() bool { return hub.ClientCount("shutdown") == 1 })

	cancel()
	<-stopped

	if hub.SessionCount() != 0 {
		t.Error("Shutdown should drop every client")
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to be closed by the server")
	}
}
