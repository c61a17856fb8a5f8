package serverpackets

import "encoding/binary"

// ACResult writes the AC_RESULT payload carrying a result code and login
// flag (spec.md §4.E.3, §6 "Result codes"). requestMsgID echoes the
// request the result answers.
func ACResult(buf []byte, result int32, loginFlag int32, requestMsgID uint16) int {
	binary.LittleEndian.PutUint32(buf[0:], uint32(result))
	binary.LittleEndian.PutUint32(buf[4:], uint32(loginFlag))
	binary.LittleEndian.PutUint16(buf[8:], requestMsgID)
	return 10
}
