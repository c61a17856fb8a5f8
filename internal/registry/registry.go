// Package registry is the cluster-wide client registry of spec.md §4.C: the
// single authoritative in-process index of who is logged in and where,
// shared only by living on the single event-loop thread spec.md §5
// describes — no mutex guards the map.
//
// Grounded on internal/login/session_manager.go (la2go) for the
// store/remove/count shape of a by-account index; that type uses sync.Map
// because la2go's SessionManager is genuinely accessed from multiple
// goroutines relaying between listeners. This registry drops the
// concurrency guard deliberately: spec.md §5 "Shared-resource policy" states
// the registry is shared only by single-thread discipline, and adding a
// mutex here would contradict the invariant it's meant to enforce, not just
// be redundant with it.
package registry

import (
	"github.com/glandu2/rzauth/internal/model"
)

// AuthSession is the minimal back-reference the registry needs into a live
// client session: the ability to force it closed when a newer login for the
// same account wins the duplicate-login race (spec.md §4.E.3 scenario S3).
type AuthSession interface {
	Abort()
}

// GameServerSession is the minimal back-reference into a live game-server
// session: the ability to ask it to kick a connected account (spec.md
// §4.E.3 scenario S4, §4.F "CLIENT_KICK_FAILED").
type GameServerSession interface {
	RequestKick(account string) error
}

// ClientData is the registry's entry (spec.md §3 "ClientData (registry
// entry)"). Exactly one exists per account name at any instant.
type ClientData struct {
	AccountID       uint32
	AccountName     string
	RemoteIP        string
	Age             uint8
	EventCode       uint32
	PCBang          uint32
	ServerIdxOffset uint32

	Location model.ClientLocation

	// Valid when Location == LocationAuth.
	AuthSession AuthSession

	// Valid when Location == LocationGame.
	GameServerIdx uint16
	GameSession   GameServerSession
	OneTimeKey    uint64
}

// Registry is the cluster-wide account→ClientData map. Keyed by account
// name rather than the account_id spec.md §9 names for the arena, since
// every game-server message that addresses a client (ACCOUNT_LIST,
// CLIENT_LOGIN, CLIENT_LOGOUT, CLIENT_KICK_FAILED) carries the name, not the
// numeric id; account_id is retained as a ClientData field for the
// DB_UpdateLastServerIdx call that does need it.
type Registry struct {
	entries map[string]*ClientData
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*ClientData)}
}

// TryAddClient inserts data iff no entry exists for data.AccountName.
// On success it returns (data, true). On failure — an entry already exists —
// it returns (existingEntry, false) so the caller can run duplicate-login
// policy (spec.md §4.C).
func (r *Registry) TryAddClient(data *ClientData) (*ClientData, bool) {
	if existing, ok := r.entries[data.AccountName]; ok {
		return existing, false
	}
	r.entries[data.AccountName] = data
	return data, true
}

// RemoveClient deletes entry, idempotent w.r.t. a second call and w.r.t. a
// stale caller: the pointer identity check ensures a removal request for an
// entry already superseded by a newer login (same account name, new
// *ClientData) is a no-op, standing in for the original's generation
// counter (spec.md §9 "guard against use-after-free on delayed DB
// completions") without needing one.
func (r *Registry) RemoveClient(entry *ClientData) {
	if entry == nil {
		return
	}
	if cur, ok := r.entries[entry.AccountName]; ok && cur == entry {
		delete(r.entries, entry.AccountName)
	}
}

// SwitchClientToServer transitions entry from AttachedToAuth to
// AttachedToGame (spec.md §4.C). Because this runs entirely on the
// single event-loop goroutine with no suspension point in between, there is
// no instant at which another call could observe entry half-moved (spec.md
// §8 invariant 6, "Hand-off atomicity").
func (r *Registry) SwitchClientToServer(entry *ClientData, gameServerIdx uint16, oneTimeKey uint64) {
	entry.AuthSession = nil
	entry.Location = model.LocationGame
	entry.GameServerIdx = gameServerIdx
	entry.OneTimeKey = oneTimeKey
}

// GetByAccountName looks up the current entry for account, if any.
func (r *Registry) GetByAccountName(account string) (*ClientData, bool) {
	entry, ok := r.entries[account]
	return entry, ok
}

// GetClientCount returns the number of registered clients. O(1): Go map
// len is constant time regardless of table size.
func (r *Registry) GetClientCount() uint32 {
	return uint32(len(r.entries))
}

// RemoveByServerIdx deletes every entry attached to gameServerIdx (spec.md
// §4.F "LOGOUT: remove all entries attached to this server" and "On
// disconnect: ... sweep any registry entries pointing at this server_idx").
// Entries not in LocationGame are untouched regardless of GameServerIdx,
// since that field is meaningless outside that location.
func (r *Registry) RemoveByServerIdx(gameServerIdx uint16) []*ClientData {
	var removed []*ClientData
	for name, entry := range r.entries {
		if entry.Location == model.LocationGame && entry.GameServerIdx == gameServerIdx {
			delete(r.entries, name)
			removed = append(removed, entry)
		}
	}
	return removed
}
