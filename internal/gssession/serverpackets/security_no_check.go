package serverpackets

import "encoding/binary"

// SecurityNoCheck writes the TS_AG_SECURITY_NO_CHECK reply (spec.md §4.F
// "on completion deliver an AG_SECURITY_NO_CHECK response").
func SecurityNoCheck(buf []byte, account string, result int32) int {
	off := putUTF16LE(buf, account)
	binary.LittleEndian.PutUint32(buf[off:], uint32(result))
	off += 4
	return off
}
