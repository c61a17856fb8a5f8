package serverpackets

import (
	"encoding/binary"
	"unicode/utf16"
)

// putUTF16LE writes s as null-terminated UTF-16LE into buf and returns the
// byte count written, mirroring the L2 client's string wire convention
// (grounded on internal/testutil/protocol.go's EncodeUTF16LE in la2go,
// applied here to production packet encoding rather than test fixtures).
func putUTF16LE(buf []byte, s string) int {
	encoded := utf16.Encode([]rune(s))
	off := 0
	for _, r := range encoded {
		binary.LittleEndian.PutUint16(buf[off:], r)
		off += 2
	}
	binary.LittleEndian.PutUint16(buf[off:], 0)
	off += 2
	return off
}

// putFixedASCII writes s NUL-padded into an n-byte field, truncating if it
// doesn't fit — the encode-side counterpart of internal/wire.decodeFixedASCII,
// used by the EPIC_2 server-list layout that predates the client's
// null-terminated UTF-16LE string convention.
func putFixedASCII(buf []byte, s string, n int) int {
	for i := 0; i < n; i++ {
		buf[i] = 0
	}
	copy(buf[:n], s)
	return n
}
