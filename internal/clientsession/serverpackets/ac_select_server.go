package serverpackets

import "encoding/binary"

// ACSelectServer writes the plaintext (non-RSA) AC_SELECT_SERVER payload:
// the raw one-time key plus result and pending_time (spec.md §4.E.5).
func ACSelectServer(buf []byte, oneTimeKey []byte, result int32, pendingTime int32) int {
	copy(buf[0:], oneTimeKey)
	off := len(oneTimeKey)
	binary.LittleEndian.PutUint32(buf[off:], uint32(result))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(pendingTime))
	off += 4
	return off
}

// ACSelectServerRSA writes the RSA-path AC_SELECT_SERVER_RSA payload: the
// AES-128-CBC-encrypted one-time key, its size, and pending_time (spec.md
// §4.E.5).
func ACSelectServerRSA(buf []byte, encryptedData []byte, pendingTime int32) int {
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(encryptedData)))
	off := 4
	copy(buf[off:], encryptedData)
	off += len(encryptedData)
	binary.LittleEndian.PutUint32(buf[off:], uint32(pendingTime))
	off += 4
	return off
}
