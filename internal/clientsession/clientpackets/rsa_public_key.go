package clientpackets

import "fmt"

// DecodeRSAPublicKey validates the claimed key_size against the frame size
// and returns the raw PEM bytes (spec.md §4.E.2: "Validate key_size ==
// frame_size - header_size. On mismatch: abort session.").
//
// frameSize is the total wire frame size (including the 6-byte header);
// payload is the frame body, starting with the 4-byte key_size field; the
// PEM bytes returned are everything after it.
func DecodeRSAPublicKey(payload []byte, frameSize, headerSize uint32) ([]byte, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("decoding RSA_PUBLIC_KEY: payload too short for key_size field")
	}

	keySize := decodeU32LE(payload)
	pemBytes := payload[4:]

	if uint32(keySize) != frameSize-headerSize {
		return nil, fmt.Errorf("decoding RSA_PUBLIC_KEY: key_size %d does not match frame_size-header_size %d", keySize, frameSize-headerSize)
	}

	return pemBytes, nil
}

func decodeU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
