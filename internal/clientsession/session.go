// Package clientsession implements the client session FSM of spec.md §4.E:
// the versioned, optionally-RSA/AES-wrapped handshake → login →
// server-list → select-server dialogue.
//
// Grounded on internal/login/client.go + internal/login/state.go (la2go)
// for the Session/state shape, and internal/login/handler.go for the
// HandlePacket dispatch idiom. The teacher's Session is mutated directly by
// its own per-connection goroutine with a private mutex; this Session drops
// that mutex because spec.md §5 places all session, registry, and directory
// mutation on one central event-loop goroutine — see
// internal/gateway/eventloop.go, which is the only caller of the methods in
// this package.
package clientsession

import (
	"crypto/rsa"

	"github.com/glandu2/rzauth/internal/constants"
	"github.com/glandu2/rzauth/internal/cryptox"
	"github.com/glandu2/rzauth/internal/registry"
	"github.com/glandu2/rzauth/internal/store"
	"github.com/glandu2/rzauth/internal/wire"
)

// State is the client session FSM state (spec.md §4.E).
type State int

const (
	StateUnversioned State = iota
	StateAwaitingAuth
	StateAuthenticated
	StateSelecting
	StateHandedOff
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnversioned:
		return "UNVERSIONED"
	case StateAwaitingAuth:
		return "AWAITING_AUTH"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateSelecting:
		return "SELECTING"
	case StateHandedOff:
		return "HANDED_OFF"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Closer is the minimal ability a Session needs over its own transport:
// severing the connection (spec.md §4.E "Disconnect handling"). Kept as an
// interface, like registry.AuthSession/GameServerSession, so this package
// doesn't need to import net directly for something it only ever calls
// Close on.
type Closer interface {
	Close() error
}

// Session is one client's connection state (spec.md §3 "Session
// entities... short-lived"). Exactly one goroutine — the central event
// loop — ever touches a Session's fields; see the package doc comment.
type Session struct {
	conn Closer
	ip   string

	state      State
	epoch      constants.Epoch
	useRsaAuth bool
	rsaPub     *rsa.PublicKey
	aesKeyIV   cryptox.AESKeyIV

	account string

	// Entry is the registry back-pointer this session owns while attached
	// to auth (spec.md §3 "Ownership": "Sessions hold a weak back-pointer
	// that is nulled on move-out"). Nil once handed off or before login.
	Entry *registry.ClientData

	lastLoginServerIdx uint16
	serverIdxOffset    uint32

	// dbJobInFlight enforces spec.md §4.B "A session may have at most one
	// in-flight job per logical channel; submitting a second while one is
	// in progress must be rejected synchronously by the caller's policy."
	dbJobInFlight bool
}

// NewSession creates a session for a freshly accepted connection. epoch
// starts at EpicLatest rather than the zero value EpicUnknown: the
// dispatch table (internal/wire) only has rows for the four named epochs,
// and every session needs a usable epoch before its first VERSION message
// can even be looked up (spec.md §4.E.1's epoch-switch narrows EPIC_2 as a
// special case; everything else runs the EPIC_LATEST table, which carries
// the same id→kind mapping anyway per internal/wire's dispatchTable).
func NewSession(conn Closer, ip string) *Session {
	return &Session{conn: conn, ip: ip, state: StateUnversioned, epoch: constants.EpicLatest}
}

// IP returns the client's remote address.
func (s *Session) IP() string { return s.ip }

// State returns the current FSM state.
func (s *Session) State() State { return s.state }

// Account returns the authenticated account name, empty before
// authentication.
func (s *Session) Account() string { return s.account }

// UseRsaAuth reports whether the session negotiated the RSA/AES handshake,
// set once RSA_PUBLIC_KEY is processed. internal/gateway's clientReplyID
// reads this to pick
// between AC_SELECT_SERVER and AC_SELECT_SERVER_RSA when framing
// handleSelectServer's reply, since the wire id itself is never carried in
// the payload buffer Handler writes into.
func (s *Session) UseRsaAuth() bool { return s.useRsaAuth }

// Abort implements registry.AuthSession: forcibly closes the connection,
// used when a newer login for the same account wins the duplicate-login
// race (spec.md §4.E.3 scenario S3).
func (s *Session) Abort() {
	s.state = StateClosed
	if s.conn != nil {
		s.conn.Close()
	}
}

// buildAccountInput derives the store.AccountInput for a DB_Account job from
// a decoded account packet, recording the crypto context the PreProcess
// hook needs (spec.md §4.E.3). enc is the wire-level encryption tag the
// ACCOUNT/IMBC_ACCOUNT packet carried; the AES key/IV, when needed, come
// from the session's own handshake state rather than the packet.
func (s *Session) buildAccountInput(account string, passwordCipher []byte, enc wire.AccountEncryption, salt string) store.AccountInput {
	input := store.AccountInput{
		Account:        account,
		PasswordCipher: passwordCipher,
		Salt:           salt,
	}
	switch enc {
	case wire.AccountEncryptionDES:
		input.Encryption = store.EncryptionDES
	case wire.AccountEncryptionAES:
		input.Encryption = store.EncryptionAES
		input.AESKey = s.aesKeyIV.Key()
		input.AESIV = s.aesKeyIV.IV()
	default:
		input.Encryption = store.EncryptionNone
	}
	return input
}
