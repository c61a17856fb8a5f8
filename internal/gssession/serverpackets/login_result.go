// Package serverpackets writes auth→game-server replies of spec.md §4.F:
// TS_AG_LOGIN_RESULT, TS_AG_CLIENT_LOGIN[_EXTENDED], TS_AG_SECURITY_NO_CHECK.
//
// Grounded on internal/gslistener/serverpackets (la2go): fixed-offset
// writers returning the byte count, UTF-16LE strings null-terminated
// in-place.
package serverpackets

import (
	"encoding/binary"

	"github.com/glandu2/rzauth/internal/constants"
)

// LoginResult writes the TS_AG_LOGIN_RESULT payload answering a game
// server's LOGIN request (spec.md §4.F). serverIdx carries the directory
// index the game server was actually registered under — equal to the
// requested index except on the AcceptAlternate path, where the directory
// assigns a different one and the game server needs to learn it. Ignored
// by the client on a failure code.
func LoginResult(buf []byte, code byte, serverIdx uint16) int {
	buf[0] = code
	binary.LittleEndian.PutUint16(buf[1:], serverIdx)
	return 3
}

// loginResultCodes re-exports the shared constants for readability at call
// sites; kept as simple aliases rather than a parallel const block.
const (
	LoginResultOK             = constants.GSLoginOK
	LoginResultDuplicateIndex = constants.GSLoginDuplicateIndex
	LoginResultWrongHexID     = constants.GSLoginWrongHexID
)
