// Package serverpackets writes the auth→client replies of spec.md §4.E:
// SC_RESULT, AC_AES_KEY_IV, AC_RESULT, AC_SERVER_LIST, AC_SELECT_SERVER[_RSA].
//
// Grounded on internal/login/serverpackets (la2go): fixed-offset binary
// writers taking a destination buf and returning the byte count written, no
// allocation beyond the caller-supplied buffer.
package serverpackets

import "encoding/binary"

// SCResult writes the SC_RESULT payload answering a VERSION TEST/INFO probe
// (spec.md §4.E.1). value is the XOR-masked probe result; result is always
// carried verbatim even though its interpretation alongside value is an
// open question the original leaves unresolved (SPEC_FULL.md Open
// Questions). The packet id itself belongs in the frame header written by
// internal/wire.WriteFrame, not in this payload.
func SCResult(buf []byte, value uint32, result int32) int {
	binary.LittleEndian.PutUint32(buf[0:], value)
	binary.LittleEndian.PutUint32(buf[4:], uint32(result))
	return 8
}
