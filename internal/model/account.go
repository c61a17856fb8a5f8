// Package model holds the plain data records shared across the async DB
// layer and the registry: the account row read from the credential store,
// and the ClientLocation tag the registry and session FSMs both need.
// ClientData and GameData are defined in internal/registry and
// internal/directory respectively rather than here, since both carry
// behavior-coupled interface fields (AuthSession, GameServerSession) that
// would pull those packages into this one.
//
// Grounded on internal/model/account.go from the la2go teacher, extended
// with the fuller account/session fields spec.md §3 names (the teacher's
// account row only carried login/password/access level/last server).
package model

import "time"

// Account is the row shape of the credential store, as read by the async
// DB_Account query (spec.md §3 "Account record (from DB)"). Column names are
// configuration-driven (internal/store); this struct is the logical contract.
type Account struct {
	AccountID          uint32
	Login              string
	PasswordHashHex    *string // nil in "null-password" schemas — row accepted on name match alone
	AuthOK             bool
	Age                uint8
	LastLoginServerIdx uint16
	EventCode          uint32
	PCBang             uint32
	ServerIdxOffset    uint32
	Block              bool
	LastIP             string
	LastActive         time.Time
}

// ClientLocation tags where a registered client currently lives: attached to
// an auth session (pending server selection) or handed off to a game server.
type ClientLocation int

const (
	LocationUnknown ClientLocation = iota
	LocationAuth
	LocationGame
)

func (l ClientLocation) String() string {
	switch l {
	case LocationAuth:
		return "ATTACHED_TO_AUTH"
	case LocationGame:
		return "ATTACHED_TO_GAME"
	default:
		return "UNKNOWN"
	}
}
