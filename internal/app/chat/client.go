/*
Package chat contains the core logic for the group chat server: the connection
registry, per-connection clients, and event broadcasting.

This file defines the Client struct, representing one active WebSocket
connection. It runs the read and write pumps, routes inbound frames to the
registry, and performs cleanup when the connection closes.
*/
package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"groupchat/internal/app/user"
	"groupchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// capacity of each client's outbound send queue.
	sendQueueSize = 256
)

// Client represents one active WebSocket connection and its registry entry.
type Client struct {
	// the registry this client belongs to.
	registry *Registry

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// the authoritative user record. Guarded by registry.mu once the
	// client is registered.
	user user.User

	// a buffered channel used to queue frames waiting to be sent.
	send chan []byte

	// set once send has been closed. Guarded by registry.mu.
	closed bool

	// structured logger with client context.
	logger zerolog.Logger
}

// newClient constructs a Client for an accepted connection. The registry
// registers it and starts the join sequence.
func newClient(registry *Registry, conn *websocket.Conn, u user.User) *Client {
	return &Client{
		registry: registry,
		conn:     conn,
		user:     u,
		send:     make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().
			Str("client_id", u.ID).
			Logger(),
	}
}

// User returns a copy of the client's current user record.
func (c *Client) User() user.User {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	return c.user
}

// ReadPump reads frames from the WebSocket connection until it closes.
// It maintains the Pong heartbeat deadline, routes every frame, and always
// ends in the same cleanup path regardless of why the connection ended.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.routeFrame(frameBytes)
	}
}

// cleanupOnDisconnect unregisters the client and closes the connection.
// Clean closes and network failures both land here.
func (c *Client) cleanupOnDisconnect() {
	c.registry.Leave(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// routeFrame decodes one inbound frame and applies the corresponding
// registry mutation and broadcast. Malformed JSON, a payload of the wrong
// shape, and unknown frame types are all tolerated: logged, no state
// change, no broadcast, connection kept open.
func (c *Client) routeFrame(frameBytes []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		c.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch frame.Type {
	case TypeMessage:
		if frame.Message == nil {
			c.logger.Warn().Msg("Client sent message frame without message field")
			return
		}
		c.registry.HandleMessage(c, *frame.Message)

	case TypeTyping:
		if frame.Typing == nil {
			c.logger.Warn().Msg("Client sent typing frame without typing field")
			return
		}
		c.registry.HandleTyping(c, *frame.Typing)

	case TypeSetName:
		if frame.Name == nil {
			c.logger.Warn().Msg("Client sent setName frame without name field")
			return
		}
		c.registry.HandleRename(c, *frame.Name)

	default:
		c.logger.Debug().Str("frame_type", string(frame.Type)).Msg("Ignoring unknown frame type")
	}
}

// WritePump drains the send queue onto the WebSocket connection and keeps
// the Ping heartbeat going. It exits when the queue is closed or a write
// fails, closing the connection either way.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one queued frame, or the close frame when the
// queue has been closed. Returns false when the pump should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePingMessage sends the periodic heartbeat Ping. Returns false when
// the pump should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// trySend enqueues a frame without blocking. A closed or full queue means
// the connection is not sendable; the frame is dropped and the client's
// own close handler is left to clean up. Callers must hold registry.mu.
func (c *Client) trySend(frame []byte) {
	if c.closed || frame == nil {
		return
	}

	select {
	case c.send <- frame:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
	}
}

// closeSendLocked closes the send queue exactly once. Callers must hold
// registry.mu.
func (c *Client) closeSendLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
