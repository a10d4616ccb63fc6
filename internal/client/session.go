/*
Package client implements the chat client transport session: a reconnecting
WebSocket connection with typed senders and local projections of server state.

This file defines the Session, an explicit reconnect state machine
(Disconnected -> Connecting -> Open -> Disconnected) with a retry counter and
exponentially growing delay. The server treats every reconnect as a brand-new
connection and resends the full roster, so the session rebuilds its view from
scratch each time it opens.
*/
package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"groupchat/internal/app/chat"
	"groupchat/internal/app/user"
	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/randx"
)

// State describes the transport session's connection state.
type State int32

const (
	// StateDisconnected means no connection exists and none is being attempted.
	StateDisconnected State = iota

	// StateConnecting means a dial attempt is in flight.
	StateConnecting

	// StateOpen means the connection is established and sendable.
	StateOpen
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

const (
	// DefaultMaxRetries caps how many consecutive failed dial attempts the
	// session makes before giving up for good.
	DefaultMaxRetries = 10

	// initialBackoff is the delay before the first reconnect attempt.
	initialBackoff = time.Second

	// backoffGrowFactor multiplies the delay after every failed attempt.
	backoffGrowFactor = 2

	// maxBackoff bounds the computed reconnect delay.
	maxBackoff = 30 * time.Second

	// sendWait is the write deadline applied to outbound frames.
	sendWait = 10 * time.Second
)

// Options tune a Session. The zero value gives the defaults.
type Options struct {
	// MaxRetries overrides DefaultMaxRetries when positive.
	MaxRetries int

	// OnEvent, when set, is invoked with every decoded server event after
	// the session has applied it to its local projections. It is called
	// from the session's read goroutine.
	OnEvent func(event any)

	// Dialer overrides websocket.DefaultDialer, mainly for tests.
	Dialer *websocket.Dialer
}

// Session owns one reconnecting connection to the chat server. All exported
// methods are safe for concurrent use.
type Session struct {
	url        string
	maxRetries int
	onEvent    func(event any)
	dialer     *websocket.Dialer

	// mu guards the connection handle, state, and all projections.
	mu    sync.Mutex
	state State
	conn  *websocket.Conn

	// local projections of server state; authoritative copies live on the
	// server and these are rebuilt on every reconnect.
	roster   []user.Info
	typing   []user.Info
	messages []chat.MessageEvent
	selfID   string
	selfName string

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger zerolog.Logger
}

// NewSession constructs a Session for the given WebSocket URL. Connect
// starts it.
func NewSession(url string, opts Options) *Session {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &Session{
		url:        url,
		maxRetries: maxRetries,
		onEvent:    opts.OnEvent,
		dialer:     dialer,
		state:      StateDisconnected,
		done:       make(chan struct{}),
		logger: logx.Logger().With().
			Str("component", "Session").
			Str("url", url).
			Logger(),
	}
}

// Connect starts the connection loop in a background goroutine.
func (s *Session) Connect() {
	s.wg.Add(1)
	go s.run()
}

// Close stops the session, closing any live connection. It blocks until the
// connection loop has exited.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})

	s.wg.Wait()
}

// run is the connection loop: dial, pump, and on failure retry with growing
// delay until the retry ceiling is reached or the session is closed.
func (s *Session) run() {
	defer s.wg.Done()

	retries := 0

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.setState(StateConnecting)

		conn, resp, err := s.dialer.Dial(s.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		if err != nil {
			s.setState(StateDisconnected)

			retries++
			if retries > s.maxRetries {
				s.logger.Warn().
					Int("retries", retries-1).
					Msg("Reconnect retries exhausted; session stays disconnected")
				return
			}

			delay := backoffDelay(retries)
			s.logger.Info().
				Err(err).
				Int("attempt", retries).
				Dur("retry_in", delay).
				Msg("Dial failed, scheduling retry")

			select {
			case <-time.After(delay):
				continue
			case <-s.done:
				return
			}
		}

		retries = 0
		s.onOpen(conn)
		s.readLoop(conn)

		s.mu.Lock()
		s.state = StateDisconnected
		s.conn = nil
		s.mu.Unlock()

		conn.Close()
		s.logger.Info().Msg("Connection closed")

		select {
		case <-s.done:
			return
		default:
		}
	}
}

// setState updates the connection state under the mutex.
func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// backoffDelay computes the reconnect delay for the given attempt number
// (1-based): initialBackoff doubling each attempt, bounded by maxBackoff.
func backoffDelay(attempt int) time.Duration {
	delay := initialBackoff
	for i := 1; i < attempt; i++ {
		delay *= backoffGrowFactor
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// onOpen installs the new connection, resets the projections (the server
// will resend the roster), and announces a placeholder display name so the
// server-assigned default is replaced immediately.
func (s *Session) onOpen(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.state = StateOpen
	s.roster = nil
	s.typing = nil
	s.mu.Unlock()

	s.logger.Info().Msg("Connected")

	name, err := randx.PlaceholderName()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate placeholder name")
		return
	}

	s.SetName(name)
}

// readLoop reads frames until the connection fails, applying each decoded
// event to the local projections.
func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		event, err := parseEvent(raw)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Server sent an undecodable frame")
			continue
		}
		if event == nil {
			continue
		}

		s.apply(event)

		if s.onEvent != nil {
			s.onEvent(event)
		}
	}
}

// parseEvent decodes a server frame into its typed event. Unknown frame
// types decode to (nil, nil) and are ignored.
func parseEvent(raw []byte) (any, error) {
	var envelope struct {
		Type chat.EventType `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid event frame: %w", err)
	}

	switch envelope.Type {
	case chat.TypeUsers:
		var event chat.UsersEvent
		err := json.Unmarshal(raw, &event)
		return event, err

	case chat.TypeInfo:
		var event chat.InfoEvent
		err := json.Unmarshal(raw, &event)
		return event, err

	case chat.TypeUserJoined, chat.TypeUserLeft:
		var event chat.PresenceEvent
		err := json.Unmarshal(raw, &event)
		return event, err

	case chat.TypeTyping:
		var event chat.TypingEvent
		err := json.Unmarshal(raw, &event)
		return event, err

	case chat.TypeMessage:
		var event chat.MessageEvent
		err := json.Unmarshal(raw, &event)
		return event, err

	case chat.TypeUserRename:
		var event chat.RenameEvent
		err := json.Unmarshal(raw, &event)
		return event, err

	default:
		return nil, nil
	}
}

// apply folds one server event into the local projections.
func (s *Session) apply(event any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := event.(type) {
	case chat.UsersEvent:
		s.roster = append([]user.Info(nil), e.Users...)

	case chat.InfoEvent:
		s.selfID = e.User.ID
		s.selfName = e.User.Name

	case chat.PresenceEvent:
		if e.Type == chat.TypeUserJoined {
			s.roster = append(s.roster, e.User)
		} else {
			s.roster = removeByID(s.roster, e.User.ID)
			s.typing = removeByID(s.typing, e.User.ID)
		}

	case chat.TypingEvent:
		s.typing = removeByID(s.typing, e.User.ID)
		if e.Typing {
			s.typing = append(s.typing, e.User)
		}

	case chat.MessageEvent:
		s.messages = append(s.messages, e)

	case chat.RenameEvent:
		for i := range s.roster {
			if s.roster[i].ID == e.User.ID {
				s.roster[i].Name = e.User.NewName
			}
		}
		if e.User.ID == s.selfID {
			s.selfName = e.User.NewName
		}
	}
}

// removeByID filters the user with the given id out of the list.
func removeByID(users []user.Info, id string) []user.Info {
	filtered := users[:0]
	for _, u := range users {
		if u.ID != id {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// SendMessage sends a chat message frame. A session that is not open drops
// the frame silently; delivery is best-effort either way.
func (s *Session) SendMessage(text string) {
	s.sendFrame(chat.ClientFrame{Type: chat.TypeMessage, Message: &text})
}

// SetTyping sends a typing-state frame. Dropped silently while disconnected.
func (s *Session) SetTyping(typing bool) {
	s.sendFrame(chat.ClientFrame{Type: chat.TypeTyping, Typing: &typing})
}

// SetName sends a rename request. Dropped silently while disconnected.
func (s *Session) SetName(name string) {
	s.sendFrame(chat.ClientFrame{Type: chat.TypeSetName, Name: &name})
}

// sendFrame serializes and writes one frame over the current connection if
// the session is open; otherwise the frame is dropped.
func (s *Session) sendFrame(frame chat.ClientFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen || s.conn == nil {
		s.logger.Debug().Str("frame_type", string(frame.Type)).Msg("Dropping frame while disconnected")
		return
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(sendWait)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to set write deadline")
		return
	}

	if err := s.conn.WriteJSON(frame); err != nil {
		s.logger.Warn().Err(err).Str("frame_type", string(frame.Type)).Msg("Failed to send frame")
	}
}

// Connected reports whether the session currently has an open connection.
func (s *Session) Connected() bool {
	return s.State() == StateOpen
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Users returns a copy of the current roster projection.
func (s *Session) Users() []user.Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]user.Info(nil), s.roster...)
}

// TypingUsers returns a copy of the users currently flagged as typing.
func (s *Session) TypingUsers() []user.Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]user.Info(nil), s.typing...)
}

// Messages returns a copy of the ordered message log for this session.
func (s *Session) Messages() []chat.MessageEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]chat.MessageEvent(nil), s.messages...)
}

// Self returns the session's own identity as last reported by the server.
func (s *Session) Self() user.Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	return user.Info{ID: s.selfID, Name: s.selfName}
}
