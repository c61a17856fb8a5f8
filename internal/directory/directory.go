// Package directory is the game-server directory of spec.md §4.D: a map
// from server_idx to GameData, owned exclusively by the single event-loop
// thread spec.md §5 describes — no mutex, same discipline as
// internal/registry.
//
// Grounded on internal/gameserver/table.go (la2go)'s GameServerTable: the
// bitmap-indexed first-free-index allocator is carried over verbatim in
// spirit for the AcceptAlternate path (SPEC_FULL.md §4 supplemented
// feature #4), but the teacher's sync.RWMutex and *db.DB-backed LoadFromDB
// are dropped — this directory never touches the database directly, and
// the single-thread discipline replaces the lock the way
// internal/registry's does.
package directory

import "fmt"

// GameData is the directory's entry (spec.md §3 "GameData (directory
// entry)"). Exactly one exists per server_idx at any instant.
type GameData struct {
	ServerIdx     uint16
	Name          string
	IP            string
	Port          uint16
	IsAdult       bool
	ScreenshotURL string
	HexID         []byte

	MaxPlayers  uint16
	PlayerCount uint32
	Ready       bool

	// Session is the weak back-pointer to the owning game-server session,
	// nulled by the caller when the session closes (spec.md §3
	// "Ownership": "sessions reference by server_idx", not the reverse).
	Session GameServerSession
}

// UserRatio returns min(100, PlayerCount*100/MaxPlayers), the figure
// rendered into AC_SERVER_LIST (spec.md §4.E.4). Zero capacity reads as
// full rather than dividing by zero.
func (g *GameData) UserRatio() int32 {
	if g.MaxPlayers == 0 {
		return 100
	}
	ratio := int32(g.PlayerCount) * 100 / int32(g.MaxPlayers)
	if ratio > 100 {
		ratio = 100
	}
	return ratio
}

// GameServerSession is the minimal back-reference a GameData entry needs
// into its owning game-server session: the ability to relay a kick request
// for an account the directory believes is attached there (spec.md §4.F
// "CLIENT_KICK_FAILED"). Declared here with the same method set as
// internal/registry's GameServerSession, so the same concrete session type
// satisfies both.
type GameServerSession interface {
	RequestKick(account string) error
}

// firstFreeIDMax is the highest server_idx the bitmap allocator covers,
// matching la2go's GameServerTable (two 64-bit words, bit 0 of the first
// word unused so index 0 never gets allocated).
const firstFreeIDMax = 127

// Directory is the cluster-wide server_idx→GameData map.
type Directory struct {
	entries    map[uint16]*GameData
	freeBitmap [2]uint64
}

// New returns an empty directory with every server_idx in [1, 127] marked
// free.
func New() *Directory {
	return &Directory{
		entries:    make(map[uint16]*GameData),
		freeBitmap: [2]uint64{^uint64(0), ^uint64(0)},
	}
}

// Register inserts data at the exact index data.ServerIdx; it succeeds only
// when that index is not already occupied (spec.md §4.D "Insert on
// game-server login succeeds only when server_idx is unique"). On success
// data.Ready is set true (spec.md §4.F "On success: set readiness flag").
func (d *Directory) Register(data *GameData) bool {
	if _, exists := d.entries[data.ServerIdx]; exists {
		return false
	}
	d.entries[data.ServerIdx] = data
	d.markUsed(data.ServerIdx)
	data.Ready = true
	return true
}

// RegisterFirstAvailable assigns data the lowest free server_idx in
// [1, 127] and inserts it, returning that index. It returns (0, false) when
// the directory is full. This is the AcceptAlternate path (SPEC_FULL.md §4
// supplemented feature #4): used only when the game server's requested
// index collided with a differently-keyed entry and the game server opted
// in to an alternate assignment.
func (d *Directory) RegisterFirstAvailable(data *GameData) (uint16, bool) {
	idx := d.firstAvailableID()
	if idx == 0 {
		return 0, false
	}
	data.ServerIdx = idx
	d.entries[idx] = data
	d.markUsed(idx)
	data.Ready = true
	return idx, true
}

// firstAvailableID finds the lowest unset bit in [1, firstFreeIDMax],
// returning 0 if none remain. Mirrors GameServerTable.firstAvailableID
// (la2go): bitmap lookup is O(1) amortized rather than an O(N) scan of the
// entries map.
func (d *Directory) firstAvailableID() uint16 {
	for idx := uint16(1); idx <= 63; idx++ {
		if d.freeBitmap[0]&(1<<idx) != 0 {
			return idx
		}
	}
	for idx := uint16(64); idx <= firstFreeIDMax; idx++ {
		bitPos := idx - 64
		if d.freeBitmap[1]&(1<<bitPos) != 0 {
			return idx
		}
	}
	return 0
}

func (d *Directory) markUsed(idx uint16) {
	if idx < 64 {
		d.freeBitmap[0] &^= 1 << idx
	} else {
		d.freeBitmap[1] &^= 1 << (idx - 64)
	}
}

func (d *Directory) markFree(idx uint16) {
	if idx < 64 {
		d.freeBitmap[0] |= 1 << idx
	} else {
		d.freeBitmap[1] |= 1 << (idx - 64)
	}
}

// Remove destroys the directory entry for idx, if any (spec.md §4.D
// "destroyed on game-server session close"). Idempotent.
func (d *Directory) Remove(idx uint16) {
	if _, ok := d.entries[idx]; !ok {
		return
	}
	delete(d.entries, idx)
	d.markFree(idx)
}

// GetByIdx looks up the current entry for idx, if any. The returned pointer
// is the live directory entry, not a copy: callers on the event-loop thread
// may update reconciliation fields (PlayerCount, Ready) directly, matching
// the single-thread discipline spec.md §5 describes for the registry.
func (d *Directory) GetByIdx(idx uint16) (*GameData, bool) {
	entry, ok := d.entries[idx]
	return entry, ok
}

// ValidateHexID reports whether idx is registered with exactly hexID,
// mirroring GameServerTable.ValidateHexID (la2go): used by the game-server
// session FSM to decide between "same server reconnecting" and "index
// collision" when a LOGIN's server_idx is already occupied.
func (d *Directory) ValidateHexID(idx uint16, hexID []byte) bool {
	entry, ok := d.entries[idx]
	if !ok {
		return false
	}
	if len(entry.HexID) != len(hexID) {
		return false
	}
	for i := range hexID {
		if entry.HexID[i] != hexID[i] {
			return false
		}
	}
	return true
}

// GetServerList returns a read-only snapshot of every registered GameData
// (spec.md §4.D "getServerList() returns a read-only snapshot"): plain
// value copies, so a caller cannot mutate live directory state by holding
// onto the result.
func (d *Directory) GetServerList() []GameData {
	list := make([]GameData, 0, len(d.entries))
	for _, entry := range d.entries {
		list = append(list, *entry)
	}
	return list
}

// Count returns the number of registered game servers.
func (d *Directory) Count() int {
	return len(d.entries)
}

// String renders a compact summary, useful in logs (spec.md §1 AMBIENT
// STACK logging requirement).
func (d *Directory) String() string {
	return fmt.Sprintf("directory{servers=%d}", len(d.entries))
}
