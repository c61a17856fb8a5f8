// Package gssession implements the game-server session FSM of spec.md
// §4.F: registration into the directory, account-list reconciliation, and
// the hand-off/kick relay between the client registry and a connected game
// server.
//
// Grounded on internal/gslistener/connection.go + handler.go (la2go) for
// the connection/handler split; the teacher's GSConnection guards its
// fields with a mutex because la2go's listener genuinely serves several
// goroutines, while this Session drops that guard for the same reason
// internal/clientsession's does: spec.md §5 places all session, registry,
// and directory mutation on one event-loop goroutine — see
// internal/gateway/eventloop.go, the sole caller of this package's methods.
package gssession

import (
	"fmt"

	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/gssession/serverpackets"
	"github.com/glandu2/rzauth/internal/wire"
)

// State is the game-server session FSM state (spec.md §4.F).
type State int

const (
	StateAwaitingLogin State = iota
	StateRegistered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingLogin:
		return "AWAITING_LOGIN"
	case StateRegistered:
		return "REGISTERED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Conn is the ability a Session needs over its own transport: writing an
// unsolicited frame (RequestKick fires outside the request/response flow
// HandlePacket drives) and severing the connection.
type Conn interface {
	Write(p []byte) (int, error)
	Close() error
}

// Session is one game server's connection state. Exactly one goroutine —
// the central event loop — ever touches a Session's fields; see the
// package doc comment.
type Session struct {
	conn Conn
	ip   string

	state     State
	serverIdx uint16

	// sendBuf backs unsolicited writes (RequestKick): unlike HandlePacket's
	// reply, which reuses the caller's per-call buffer, a kick fires from a
	// call stack that only has the Session, not a buffer.
	sendBuf []byte
}

// NewSession creates a session for a freshly accepted game-server
// connection.
func NewSession(conn Conn, ip string) *Session {
	return &Session{
		conn:    conn,
		ip:      ip,
		state:   StateAwaitingLogin,
		sendBuf: make([]byte, constants.DefaultSendBufSize),
	}
}

// IP returns the remote address.
func (s *Session) IP() string { return s.ip }

// State returns the current FSM state.
func (s *Session) State() State { return s.state }

// ServerIdx returns the directory index this session registered under.
// Meaningful only once State() == StateRegistered.
func (s *Session) ServerIdx() uint16 { return s.serverIdx }

// Close severs the connection and marks the session closed (spec.md §4.F
// "On disconnect").
func (s *Session) Close() {
	s.state = StateClosed
	if s.conn != nil {
		s.conn.Close()
	}
}

// RequestKick implements registry.GameServerSession and
// directory.GameServerSession: it writes an unsolicited AG_KICK_PLAYER
// frame asking this game server to drop account (spec.md §4.E.3 scenario
// S4). The game server's own acknowledgement arrives later as either
// CLIENT_LOGOUT or CLIENT_KICK_FAILED, handled by Handler like any other
// inbound frame.
func (s *Session) RequestKick(account string) error {
	if s.conn == nil {
		return fmt.Errorf("gssession: no connection to request kick on")
	}
	payload := s.sendBuf[constants.FrameHeaderSize:]
	n := serverpackets.KickPlayer(payload, account)
	return wire.WriteFrame(s.conn, s.sendBuf, constants.PacketAGKickPlayer, n)
}
