/*
Package chat contains the core logic for the group chat server: the connection
registry, per-connection clients, and event broadcasting.

This file defines the Registry, the single source of truth for who is online.
It owns every connected Client, applies registry mutations, and fans events
out to the live connections. Each mutate-then-broadcast sequence runs under
one lock acquisition so no connection ever observes a half-applied roster.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"groupchat/internal/app/user"
	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/randx"
)

// Registry tracks the set of currently connected users and their outbound
// send queues. Exactly one entry exists per live connection; entries are
// created when the connection is accepted and removed when it closes.
type Registry struct {
	// mu guards clients, order, and every Client's user record and
	// closed flag.
	mu sync.Mutex

	// clients maps user id to the owning Client.
	clients map[string]*Client

	// order holds user ids in connection order, so roster snapshots are
	// deterministic.
	order []string

	// structured logger with registry context.
	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		logger:  logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Join creates a fresh identity for the accepted connection, registers it,
// and performs the full join sequence: the new connection receives the
// roster as it was before joining plus its identity announcement, and
// everyone else receives a user:joined event. The returned Client is ready
// for its read and write pumps.
func (reg *Registry) Join(conn *websocket.Conn) *Client {
	id := randx.UserID()

	client := newClient(reg, conn, user.User{
		ID:   id,
		Name: randx.DefaultName(id),
	})

	reg.mu.Lock()
	defer reg.mu.Unlock()

	roster := reg.snapshotLocked()

	reg.clients[id] = client
	reg.order = append(reg.order, id)

	client.trySend(mustMarshal(UsersEvent{Type: TypeUsers, Users: roster}))
	client.trySend(mustMarshal(InfoEvent{Type: TypeInfo, User: client.user.Info()}))

	reg.broadcastLocked(PresenceEvent{Type: TypeUserJoined, User: client.user.Info()}, id)

	reg.logger.Info().
		Str("user_id", id).
		Str("user_name", client.user.Name).
		Int("total_users", len(reg.clients)).
		Msg("User connected")

	return client
}

// Leave removes the client's entry and announces user:left to everyone
// remaining. Calling it for a client that was already removed (or replaced
// under the same id) is a no-op.
func (reg *Registry) Leave(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	current, ok := reg.clients[c.user.ID]
	if !ok || current != c {
		return
	}

	delete(reg.clients, c.user.ID)
	for i, id := range reg.order {
		if id == c.user.ID {
			reg.order = append(reg.order[:i], reg.order[i+1:]...)
			break
		}
	}

	c.closeSendLocked()

	reg.broadcastLocked(PresenceEvent{Type: TypeUserLeft, User: c.user.Info()}, c.user.ID)

	reg.logger.Info().
		Str("user_id", c.user.ID).
		Str("user_name", c.user.Name).
		Int("total_users", len(reg.clients)).
		Msg("User disconnected")
}

// HandleMessage fans a chat message out to every other connection. The
// event date is stamped here, so the server clock is authoritative.
func (reg *Registry) HandleMessage(c *Client, text string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.broadcastLocked(MessageEvent{
		Type:    TypeMessage,
		User:    c.user.Info(),
		Message: text,
		Date:    time.Now().UTC(),
	}, c.user.ID)
}

// HandleTyping updates the sender's typing flag and announces the change
// to every other connection.
func (reg *Registry) HandleTyping(c *Client, typing bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	c.user.Typing = typing

	reg.broadcastLocked(TypingEvent{
		Type:   TypeTyping,
		User:   c.user.Info(),
		Typing: typing,
	}, c.user.ID)
}

// HandleRename changes the sender's display name and announces the change
// to every connection, the sender included.
func (reg *Registry) HandleRename(c *Client, newName string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	oldName := c.user.Name
	c.user.Name = newName

	reg.broadcastLocked(RenameEvent{
		Type: TypeUserRename,
		User: RenameInfo{
			ID:      c.user.ID,
			OldName: oldName,
			NewName: newName,
		},
	}, "")
}

// Snapshot returns the current roster in connection order.
func (reg *Registry) Snapshot() []user.Info {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.snapshotLocked()
}

// Broadcast marshals the event and sends it to every live connection,
// skipping the one whose user id matches excludeID. An empty excludeID
// excludes nobody.
func (reg *Registry) Broadcast(event any, excludeID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.broadcastLocked(event, excludeID)
}

// Len reports the number of live connections.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.clients)
}

// CloseAll drains the registry during shutdown. Closing each send queue
// makes the client's write pump emit a close frame and tear down the
// connection.
func (reg *Registry) CloseAll() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, client := range reg.clients {
		client.closeSendLocked()
	}

	reg.clients = make(map[string]*Client)
	reg.order = nil

	reg.logger.Info().Msg("Registry drained")
}

// snapshotLocked builds the roster in connection order. Callers must hold
// reg.mu.
func (reg *Registry) snapshotLocked() []user.Info {
	roster := make([]user.Info, 0, len(reg.order))
	for _, id := range reg.order {
		roster = append(roster, reg.clients[id].user.Info())
	}
	return roster
}

// broadcastLocked marshals the event once and enqueues it on every live
// connection except excludeID. A connection whose queue is closed or full
// is skipped; its own close handler removes it. Callers must hold reg.mu.
func (reg *Registry) broadcastLocked(event any, excludeID string) {
	data, err := json.Marshal(event)
	if err != nil {
		reg.logger.Error().Err(err).Msg("Error marshaling event for broadcast")
		return
	}

	for _, id := range reg.order {
		if id == excludeID {
			continue
		}
		reg.clients[id].trySend(data)
	}
}

// mustMarshal is for events built entirely from registry-owned values,
// which cannot fail to encode.
func mustMarshal(event any) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		logx.Error(err, "Error marshaling registry event")
		return nil
	}
	return data
}
