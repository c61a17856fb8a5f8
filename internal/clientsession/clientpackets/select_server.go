package clientpackets

import (
	"encoding/binary"
	"fmt"
)

// DecodeSelectServer extracts the chosen server_idx from a SELECT_SERVER
// frame payload (spec.md §4.E.5).
func DecodeSelectServer(payload []byte) (uint16, error) {
	if len(payload) < 2 {
		return 0, fmt.Errorf("decoding SELECT_SERVER: payload %d bytes shorter than server_idx field", len(payload))
	}
	return binary.LittleEndian.Uint16(payload), nil
}
