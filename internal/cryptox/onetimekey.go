package cryptox

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/glandu2/rzauth/internal/constants"
)

// OneTimeKey is the 64-bit token minted at SELECT_SERVER time and consumed
// by the target game server to authenticate the incoming client connection
// (spec.md glossary "One-time key").
type OneTimeKey uint64

// GenerateOneTimeKey draws a cryptographically strong 64-bit token.
func GenerateOneTimeKey() (OneTimeKey, error) {
	var buf [constants.OneTimeKeySize]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generating one-time key: %w", err)
	}
	return OneTimeKey(binary.LittleEndian.Uint64(buf[:])), nil
}

// Bytes encodes the key as 8 little-endian bytes, the plaintext wrapped by
// AES-128-CBC in the RSA-auth SELECT_SERVER reply (spec.md §4.E.5).
func (k OneTimeKey) Bytes() []byte {
	buf := make([]byte, constants.OneTimeKeySize)
	binary.LittleEndian.PutUint64(buf, uint64(k))
	return buf
}

// OneTimeKeyFromBytes decodes the 8 little-endian bytes back into a key,
// the inverse of Bytes (spec.md §8's AES round-trip law).
func OneTimeKeyFromBytes(b []byte) (OneTimeKey, error) {
	if len(b) != constants.OneTimeKeySize {
		return 0, fmt.Errorf("decoding one-time key: want %d bytes, got %d", constants.OneTimeKeySize, len(b))
	}
	return OneTimeKey(binary.LittleEndian.Uint64(b)), nil
}
