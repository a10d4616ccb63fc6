/*
Package chat contains the core logic for the group chat server: the connection
registry, per-connection clients, and event broadcasting.

This file defines the wire vocabulary shared by the server and the Go client:
the frame type constants, the inbound client frame envelope, and the typed
outbound events. Every frame is a single JSON object.
*/
package chat

import (
	"time"

	"groupchat/internal/app/user"
)

// EventType identifies the kind of a wire frame.
type EventType string

// Frame types sent by clients.
const (
	// TypeMessage carries a chat message (inbound and outbound).
	TypeMessage EventType = "message"

	// TypeTyping carries a typing-state change (inbound and outbound).
	TypeTyping EventType = "typing"

	// TypeSetName asks the server to change the sender's display name.
	TypeSetName EventType = "setName"
)

// Frame types sent by the server.
const (
	// TypeUsers carries the full roster snapshot sent to a new connection.
	TypeUsers EventType = "users"

	// TypeInfo announces a connection's server-assigned identity to it.
	TypeInfo EventType = "info"

	// TypeUserJoined announces a new participant to everyone else.
	TypeUserJoined EventType = "user:joined"

	// TypeUserLeft announces a departed participant to everyone remaining.
	TypeUserLeft EventType = "user:left"

	// TypeUserRename announces a display-name change to every connection.
	TypeUserRename EventType = "user:rename"
)

// ClientFrame is the envelope for frames received from clients. Payload
// fields are pointers so a missing required field can be told apart from a
// zero value.
type ClientFrame struct {
	Type    EventType `json:"type"`
	Message *string   `json:"message,omitempty"`
	Typing  *bool     `json:"typing,omitempty"`
	Name    *string   `json:"name,omitempty"`
}

// UsersEvent is the roster snapshot pushed to a newly joined connection.
type UsersEvent struct {
	Type  EventType   `json:"type"`
	Users []user.Info `json:"users"`
}

// InfoEvent tells a new connection its server-assigned id and default name.
type InfoEvent struct {
	Type EventType `json:"type"`
	User user.Info `json:"user"`
}

// PresenceEvent announces a join or leave. Type is TypeUserJoined or
// TypeUserLeft.
type PresenceEvent struct {
	Type EventType `json:"type"`
	User user.Info `json:"user"`
}

// TypingEvent announces a participant's typing-state change.
type TypingEvent struct {
	Type   EventType `json:"type"`
	User   user.Info `json:"user"`
	Typing bool      `json:"typing"`
}

// MessageEvent carries a chat message to the other participants. Date is
// stamped by the server at broadcast time; clients never supply it.
type MessageEvent struct {
	Type    EventType `json:"type"`
	User    user.Info `json:"user"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// RenameInfo describes a display-name change.
type RenameInfo struct {
	ID      string `json:"id"`
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// RenameEvent announces a display-name change to every connection,
// including the one that requested it.
type RenameEvent struct {
	Type EventType  `json:"type"`
	User RenameInfo `json:"user"`
}
