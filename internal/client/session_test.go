package client

import (
	"testing"
	"time"

	"groupchat/internal/app/chat"
	"groupchat/internal/app/user"
)

func TestHostURL(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		want       string
	}{
		{"ip tokens", "192 168 1 17", "ws://192.168.1.17:8080/ws"},
		{"single token", "localhost", "ws://localhost:8080/ws"},
		{"extra whitespace", "  10  0   0 5 ", "ws://10.0.0.5:8080/ws"},
		{"empty descriptor", "", "ws://localhost:8080/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HostURL(tt.descriptor); got != tt.want {
				t.Errorf("HostURL(%q) = %q, want %q", tt.descriptor, got, tt.want)
			}
		})
	}
}

func TestBackoffDelayGrowsExponentially(t *testing.T) {
	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // capped
		30 * time.Second,
	}

	for i, expected := range want {
		attempt := i + 1
		if got := backoffDelay(attempt); got != expected {
			t.Errorf("backoffDelay(%d) = %s, want %s", attempt, got, expected)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateDisconnected.String() != "disconnected" ||
		StateConnecting.String() != "connecting" ||
		StateOpen.String() != "open" {
		t.Errorf("State names are part of the log vocabulary and must not change")
	}
}

func TestApplyRosterProjection(t *testing.T) {
	s := NewSession("ws://example:8080/ws", Options{})

	s.apply(chat.UsersEvent{Type: chat.TypeUsers, Users: []user.Info{
		{ID: "x1", Name: "User-x1ab"},
	}})
	s.apply(chat.InfoEvent{Type: chat.TypeInfo, User: user.Info{ID: "y1", Name: "User-y1ab"}})

	if self := s.Self(); self.ID != "y1" || self.Name != "User-y1ab" {
		t.Errorf("info event should set own identity, got %+v", self)
	}

	s.apply(chat.PresenceEvent{Type: chat.TypeUserJoined, User: user.Info{ID: "z1", Name: "User-z1ab"}})
	if roster := s.Users(); len(roster) != 2 || roster[1].ID != "z1" {
		t.Errorf("user:joined should append to the roster, got %+v", roster)
	}

	s.apply(chat.PresenceEvent{Type: chat.TypeUserLeft, User: user.Info{ID: "x1", Name: "User-x1ab"}})
	roster := s.Users()
	if len(roster) != 1 || roster[0].ID != "z1" {
		t.Errorf("user:left should remove the roster entry, got %+v", roster)
	}
}

func TestApplyTypingProjection(t *testing.T) {
	s := NewSession("ws://example:8080/ws", Options{})

	alice := user.Info{ID: "a1", Name: "Alice"}

	s.apply(chat.TypingEvent{Type: chat.TypeTyping, User: alice, Typing: true})
	s.apply(chat.TypingEvent{Type: chat.TypeTyping, User: alice, Typing: true})

	if typing := s.TypingUsers(); len(typing) != 1 {
		t.Errorf("Typing set must deduplicate by id, got %+v", typing)
	}

	s.apply(chat.TypingEvent{Type: chat.TypeTyping, User: alice, Typing: false})
	if typing := s.TypingUsers(); len(typing) != 0 {
		t.Errorf("Typing false should remove the user, got %+v", typing)
	}

	// A user who disconnects mid-typing is cleared too.
	s.apply(chat.TypingEvent{Type: chat.TypeTyping, User: alice, Typing: true})
	s.apply(chat.PresenceEvent{Type: chat.TypeUserLeft, User: alice})
	if typing := s.TypingUsers(); len(typing) != 0 {
		t.Errorf("user:left should clear the typing flag, got %+v", typing)
	}
}

func TestApplyMessageLogOrder(t *testing.T) {
	s := NewSession("ws://example:8080/ws", Options{})

	for _, text := range []string{"one", "two", "three"} {
		s.apply(chat.MessageEvent{
			Type:    chat.TypeMessage,
			User:    user.Info{ID: "a1", Name: "Alice"},
			Message: text,
			Date:    time.Now(),
		})
	}

	messages := s.Messages()
	if len(messages) != 3 || messages[0].Message != "one" || messages[2].Message != "three" {
		t.Errorf("Message log should preserve receive order, got %+v", messages)
	}
}

func TestApplyRenameProjection(t *testing.T) {
	s := NewSession("ws://example:8080/ws", Options{})

	s.apply(chat.InfoEvent{Type: chat.TypeInfo, User: user.Info{ID: "y1", Name: "User-y1ab"}})
	s.apply(chat.UsersEvent{Type: chat.TypeUsers, Users: []user.Info{
		{ID: "x1", Name: "User-x1ab"},
	}})

	s.apply(chat.RenameEvent{Type: chat.TypeUserRename, User: chat.RenameInfo{
		ID: "x1", OldName: "User-x1ab", NewName: "Xena",
	}})
	if roster := s.Users(); roster[0].Name != "Xena" {
		t.Errorf("Rename should update the matching roster entry, got %+v", roster)
	}

	s.apply(chat.RenameEvent{Type: chat.TypeUserRename, User: chat.RenameInfo{
		ID: "y1", OldName: "User-y1ab", NewName: "Yara",
	}})
	if self := s.Self(); self.Name != "Yara" {
		t.Errorf("Renaming self should update the own display name, got %+v", self)
	}
}

func TestParseEvent(t *testing.T) {
	event, err := parseEvent([]byte(`{"type":"message","user":{"id":"a1","name":"Alice"},"message":"hi","date":"2026-08-28T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("parseEvent failed on a valid message frame: %v", err)
	}
	msg, ok := event.(chat.MessageEvent)
	if !ok || msg.Message != "hi" || msg.User.ID != "a1" || msg.Date.IsZero() {
		t.Errorf("Decoded message event mismatch: %+v", event)
	}

	event, err = parseEvent([]byte(`{"type":"totally:new"}`))
	if err != nil || event != nil {
		t.Errorf("Unknown event types are ignored, got event=%v err=%v", event, err)
	}

	if _, err = parseEvent([]byte(`{broken`)); err == nil {
		t.Errorf("Malformed frames should surface a decode error")
	}
}

func TestSendersAreSilentNoOpsWhileDisconnected(t *testing.T) {
	s := NewSession("ws://example:8080/ws", Options{})

	// No connection exists; these must not panic or block.
	s.SendMessage("lost")
	s.SetTyping(true)
	s.SetName("nobody")

	if s.Connected() {
		t.Errorf("Session without a connection must report disconnected")
	}
	if s.State() != StateDisconnected {
		t.Errorf("Expected StateDisconnected, got %s", s.State())
	}
}
