package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/glandu2/rzauth/internal/constants"
)

// Frame is a decoded, unencrypted message: the logical id plus its payload
// (spec.md §6: "size: u32 (total including header) + id: u16").
type Frame struct {
	ID      uint16
	Payload []byte
}

// ReadFrame reads one frame from r into buf and returns a Frame whose
// Payload aliases buf. Oversized frames (beyond len(buf)) abort the session
// per spec.md §4.A ("Oversized frames abort the session").
func ReadFrame(r io.Reader, buf []byte) (Frame, error) {
	var header [constants.FrameSizeFieldLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, fmt.Errorf("reading frame size: %w", err)
	}

	totalSize := binary.LittleEndian.Uint32(header[:])
	if totalSize < constants.FrameHeaderSize {
		return Frame{}, fmt.Errorf("invalid frame size %d: smaller than header", totalSize)
	}
	if totalSize > constants.MaxFrameSize {
		return Frame{}, fmt.Errorf("oversized frame: %d bytes exceeds max %d", totalSize, constants.MaxFrameSize)
	}

	rest := int(totalSize) - constants.FrameSizeFieldLen
	if rest > len(buf) {
		return Frame{}, fmt.Errorf("frame payload %d bytes exceeds buffer capacity %d", rest, len(buf))
	}

	if _, err := io.ReadFull(r, buf[:rest]); err != nil {
		return Frame{}, fmt.Errorf("reading frame body: %w", err)
	}

	id := binary.LittleEndian.Uint16(buf[:constants.FrameIDFieldLen])
	payload := buf[constants.FrameIDFieldLen:rest]

	return Frame{ID: id, Payload: payload}, nil
}

// WriteFrame writes id and payload to w as a single framed message,
// prefixing the u32 total-size and u16 id header in-place at buf[0:6].
// Precondition: payload must alias buf[6:6+len(payload)].
func WriteFrame(w io.Writer, buf []byte, id uint16, payloadLen int) error {
	if payloadLen < 0 || constants.FrameHeaderSize+payloadLen > len(buf) {
		return fmt.Errorf("invalid payload length %d for buffer of size %d", payloadLen, len(buf))
	}

	totalSize := constants.FrameHeaderSize + payloadLen
	binary.LittleEndian.PutUint32(buf[0:constants.FrameSizeFieldLen], uint32(totalSize))
	binary.LittleEndian.PutUint16(buf[constants.FrameSizeFieldLen:constants.FrameHeaderSize], id)

	if _, err := w.Write(buf[:totalSize]); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// IsHeartbeat reports whether id is the silently-ignored heartbeat id
// (spec.md §4.A: "id 9999 is silently ignored").
func IsHeartbeat(id uint16) bool {
	return id == constants.HeartbeatPacketID
}
