// Package clientpackets decodes client→auth frames for the client session
// FSM (spec.md §4.E): VERSION, RSA_PUBLIC_KEY, SELECT_SERVER. ACCOUNT /
// IMBC_ACCOUNT decoding lives in internal/wire (DecodeAccount) since it is
// shared, size-discriminated framing logic rather than FSM-specific.
//
// Grounded on internal/login/handler.go (la2go) for the style of pulling
// fixed fields out of a raw payload slice with bounds checks and wrapped
// errors.
package clientpackets

import "fmt"

// DecodeVersion extracts the 4-to-9 byte version literal from a VERSION
// frame payload (spec.md §4.E.1).
func DecodeVersion(payload []byte) (string, error) {
	if len(payload) < 4 || len(payload) > 9 {
		return "", fmt.Errorf("decoding VERSION: payload length %d outside 4..9", len(payload))
	}
	return string(payload), nil
}
