package serverpackets

import (
	"encoding/binary"
	"unicode/utf16"
)

// ClientLoginProfile is the account profile carried in an
// AG_CLIENT_LOGIN / AG_CLIENT_LOGIN_EXTENDED reply (spec.md §4.F
// "reply with AG_CLIENT_LOGIN ... carrying the account profile").
type ClientLoginProfile struct {
	AccountID uint32
	Age       byte
	PCBang    uint32
}

// ClientLogin writes the plain AG_CLIENT_LOGIN payload (spec.md §4.F, §6
// "AG_CLIENT_LOGIN[_EXTENDED]"). The gssession handler does not send it:
// every CLIENT_LOGIN reply, success or mismatch, is framed as
// AG_CLIENT_LOGIN_EXTENDED and written with ClientLoginExtended.
func ClientLogin(buf []byte, account string, result int32) int {
	off := putUTF16LE(buf, account)
	binary.LittleEndian.PutUint32(buf[off:], uint32(result))
	off += 4
	return off
}

// ClientLoginExtended writes the AG_CLIENT_LOGIN_EXTENDED payload used by
// recent epochs, which additionally carries the account profile (spec.md
// §4.F).
func ClientLoginExtended(buf []byte, account string, result int32, profile ClientLoginProfile) int {
	off := putUTF16LE(buf, account)
	binary.LittleEndian.PutUint32(buf[off:], uint32(result))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], profile.AccountID)
	off += 4
	buf[off] = profile.Age
	off++
	binary.LittleEndian.PutUint32(buf[off:], profile.PCBang)
	off += 4
	return off
}

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
