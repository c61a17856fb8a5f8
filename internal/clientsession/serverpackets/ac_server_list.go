package serverpackets

import (
	"encoding/binary"
	"net"

	"github.com/glandu2/rzauth/internal/constants"
)

// ServerEntry is one row of the filtered directory snapshot rendered into
// an AC_SERVER_LIST reply (spec.md §4.E.4).
type ServerEntry struct {
	ServerIdx     uint16
	IP            net.IP
	Port          int32
	Name          string
	IsAdult       bool
	ScreenshotURL string
	UserRatio     int32 // min(100, player_count*100/maxPlayers)
}

// Fixed-width field lengths for the EPIC_2 layout below, matching
// internal/wire's accountLoginFieldLen-style fixed-ASCII convention from the
// same client generation.
const (
	epic2ServerNameFieldLen    = 16
	epic2ScreenshotURLFieldLen = 32
)

// ACServerList writes the AC_SERVER_LIST payload: the filtered server
// entries plus the session's last_login_server_idx (spec.md §4.E.4),
// encoded per epoch (§4.E.4 "Encode with epoch EPIC_2 if the client
// previously declared it, else EPIC_9_1" — ClientSession::onServerList's
// isEpic2 ? EPIC_2 : EPIC_9_1 branch in the original). Both layouts carry
// the same field set; EPIC_2 predates the client's null-terminated
// UTF-16LE string convention and instead writes Name/ScreenshotURL into
// fixed-width NUL-padded ASCII fields.
func ACServerList(buf []byte, servers []ServerEntry, lastLoginServerIdx uint16, epoch constants.Epoch) int {
	off := 0

	binary.LittleEndian.PutUint16(buf[off:], lastLoginServerIdx)
	off += 2

	buf[off] = byte(len(servers))
	off++

	epic2 := epoch == constants.Epic2

	for _, s := range servers {
		binary.LittleEndian.PutUint16(buf[off:], s.ServerIdx)
		off += 2

		ip := s.IP.To4()
		if ip == nil {
			ip = net.IPv4(127, 0, 0, 1).To4()
		}
		copy(buf[off:], ip[:4])
		off += 4

		binary.LittleEndian.PutUint32(buf[off:], uint32(s.Port))
		off += 4

		if s.IsAdult {
			buf[off] = 1
		} else {
			buf[off] = 0
		}
		off++

		binary.LittleEndian.PutUint32(buf[off:], uint32(s.UserRatio))
		off += 4

		if epic2 {
			off += putFixedASCII(buf[off:], s.Name, epic2ServerNameFieldLen)
			off += putFixedASCII(buf[off:], s.ScreenshotURL, epic2ScreenshotURLFieldLen)
		} else {
			off += putUTF16LE(buf[off:], s.Name)
			off += putUTF16LE(buf[off:], s.ScreenshotURL)
		}
	}

	return off
}
