package serverpackets

import "encoding/binary"

// ACAESKeyIV writes the AC_AES_KEY_IV payload: the RSA-PKCS1-encrypted
// 32-byte AES key+IV block (spec.md §4.E.2). data_size always equals the
// RSA modulus byte length per spec.md §4.G.
func ACAESKeyIV(buf []byte, encrypted []byte) int {
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(encrypted)))
	copy(buf[4:], encrypted)
	return 4 + len(encrypted)
}
