// Package handler tests drive the full HTTP + WebSocket stack: a real
// httptest server, real upgrades, and the complete join/broadcast/leave
// event flow as a client would observe it.
package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"groupchat/internal/app/chat"
	"groupchat/internal/configs"
)

func newTestServer(t *testing.T) (*httptest.Server, string, *chat.Registry) {
	t.Helper()

	registry := chat.NewRegistry()
	router := Router(&AppDeps{
		Registry: registry,
		Config: &configs.AppConfig{
			Environment:    "development",
			Port:           8080,
			AllowedOrigins: []string{},
		},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return server, wsURL, registry
}

func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn
}

// readEvent reads the next frame with a deadline and decodes it generically.
func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}

	var event map[string]any
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("Failed to decode event %q: %v", raw, err)
	}
	return event
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}
}

func eventUser(t *testing.T, event map[string]any) map[string]any {
	t.Helper()

	u, ok := event["user"].(map[string]any)
	if !ok {
		t.Fatalf("Event carries no user object: %v", event)
	}
	return u
}

// TestChatScenario walks the full two-client exchange: join sequences,
// rename visible to everyone, message delivered only to the other side,
// and the leave broadcast.
func TestChatScenario(t *testing.T) {
	_, wsURL, _ := newTestServer(t)

	x := dialWS(t, wsURL)

	users := readEvent(t, x)
	if users["type"] != "users" {
		t.Fatalf("First event must be the roster snapshot, got %v", users["type"])
	}
	if roster, ok := users["users"].([]any); !ok || len(roster) != 0 {
		t.Errorf("First client should see an empty roster, got %v", users["users"])
	}

	info := readEvent(t, x)
	if info["type"] != "info" {
		t.Fatalf("Second event must be the identity announcement, got %v", info["type"])
	}
	xID := eventUser(t, info)["id"].(string)
	xName := eventUser(t, info)["name"].(string)
	if !strings.HasPrefix(xName, "User-") {
		t.Errorf("Server-assigned default name should be id-derived, got %s", xName)
	}

	y := dialWS(t, wsURL)

	yUsers := readEvent(t, y)
	roster := yUsers["users"].([]any)
	if len(roster) != 1 || roster[0].(map[string]any)["id"] != xID {
		t.Errorf("Second client should see the first in the roster, got %v", roster)
	}

	yInfo := readEvent(t, y)
	yID := eventUser(t, yInfo)["id"].(string)
	yName := eventUser(t, yInfo)["name"].(string)

	joined := readEvent(t, x)
	if joined["type"] != "user:joined" || eventUser(t, joined)["id"] != yID {
		t.Errorf("First client should see user:joined for the second, got %v", joined)
	}

	// Rename goes to everyone, sender included.
	writeFrame(t, y, `{"type":"setName","name":"Yara"}`)

	for name, conn := range map[string]*websocket.Conn{"x": x, "y": y} {
		rename := readEvent(t, conn)
		if rename["type"] != "user:rename" {
			t.Fatalf("%s should receive user:rename, got %v", name, rename["type"])
		}
		renamed := eventUser(t, rename)
		if renamed["id"] != yID || renamed["oldName"] != yName || renamed["newName"] != "Yara" {
			t.Errorf("Rename payload mismatch on %s: %v", name, renamed)
		}
	}

	// Messages go only to the other side, with a server-stamped date.
	writeFrame(t, x, `{"type":"message","message":"hi"}`)

	msg := readEvent(t, y)
	if msg["type"] != "message" || msg["message"] != "hi" {
		t.Fatalf("Second client should receive the message, got %v", msg)
	}
	if eventUser(t, msg)["id"] != xID {
		t.Errorf("Message should carry the sender identity, got %v", msg)
	}
	if _, err := time.Parse(time.RFC3339Nano, msg["date"].(string)); err != nil {
		t.Errorf("Message date should be a server timestamp: %v", err)
	}

	// Typing events reach the other side only.
	writeFrame(t, x, `{"type":"typing","typing":true}`)
	typing := readEvent(t, y)
	if typing["type"] != "typing" || typing["typing"] != true {
		t.Errorf("Expected typing event, got %v", typing)
	}

	// Y disconnects; the next event X sees is user:left, which also proves
	// X never received its own message back.
	if err := y.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		t.Fatalf("Failed to close second client: %v", err)
	}
	_ = y.Close()

	left := readEvent(t, x)
	if left["type"] != "user:left" {
		t.Fatalf("Expected user:left, got %v", left)
	}
	leftUser := eventUser(t, left)
	if leftUser["id"] != yID || leftUser["name"] != "Yara" {
		t.Errorf("user:left should carry the final id and name, got %v", leftUser)
	}
}

// TestMalformedFrameKeepsConnectionOpen verifies protocol-error tolerance:
// invalid JSON is swallowed without a broadcast and without closing the
// sender's connection.
func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	_, wsURL, registry := newTestServer(t)

	x := dialWS(t, wsURL)
	readEvent(t, x) // users
	readEvent(t, x) // info

	y := dialWS(t, wsURL)
	readEvent(t, y) // users
	readEvent(t, y) // info
	readEvent(t, x) // user:joined

	writeFrame(t, x, `{definitely not json`)
	writeFrame(t, x, `{"type":"no-such-type","x":1}`)
	writeFrame(t, x, `{"type":"message","message":"after-garbage"}`)

	// The only event Y sees is the valid message: the garbage produced no
	// broadcast and did not close X's connection.
	msg := readEvent(t, y)
	if msg["type"] != "message" || msg["message"] != "after-garbage" {
		t.Errorf("Expected the post-garbage message, got %v", msg)
	}

	if registry.Len() != 2 {
		t.Errorf("Both connections should survive the garbage, registry has %d", registry.Len())
	}
}

// TestHealthEndpoint checks the liveness route and the JSON envelope.
func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body.Code != 0 || body.Data["status"] != "ok" {
		t.Errorf("Unexpected health payload: %+v", body)
	}
}

// TestUnknownRoute checks the standardized error envelope on 404s.
func TestUnknownRoute(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/nope")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}
