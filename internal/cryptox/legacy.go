package cryptox

import (
	"crypto/des"
	"fmt"
)

// legacyDESKey is the fixed, publicly-known key used by the oldest client
// builds to obscure (not secure) the EPIC_2 / EPIC_4 TS_CA_ACCOUNT layouts
// (spec.md §6, "legacy DES" / "epic 4 DES" wire layouts). Hardcoded because
// these clients never negotiate a key — the same constant ships in every
// binary of that era.
var legacyDESKey = []byte{0x6b, 0x60, 0xcb, 0x5b, 0x82, 0xce, 0x90, 0xb1}

// DecryptLegacyDES reverses the fixed-key single-block DES obfuscation used
// by pre-AES client builds. ciphertext must be a multiple of the DES block
// size (8 bytes); ECB, ungrouped, mirrors the original client's own decoder.
func DecryptLegacyDES(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%des.BlockSize != 0 {
		return nil, fmt.Errorf("legacy DES decrypt: ciphertext length %d not a multiple of block size", len(ciphertext))
	}

	block, err := des.NewCipher(legacyDESKey)
	if err != nil {
		return nil, fmt.Errorf("legacy DES decrypt: %w", err)
	}

	out := make([]byte, len(ciphertext))
	for off := 0; off < len(ciphertext); off += des.BlockSize {
		block.Decrypt(out[off:off+des.BlockSize], ciphertext[off:off+des.BlockSize])
	}
	return out, nil
}
