package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/glandu2/rzauth/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundtrip(t *testing.T) {
	testCases := []struct {
		name    string
		id      uint16
		payload []byte
	}{
		{"empty payload", 0x01, nil},
		{"small payload", 0x05, []byte{0xAA, 0xBB, 0xCC}},
		{"larger payload", 0x06, make([]byte, 100)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, 1024)
			copy(buf[constants.FrameHeaderSize:], tc.payload)

			var w bytes.Buffer
			err := WriteFrame(&w, buf, tc.id, len(tc.payload))
			require.NoError(t, err)

			readBuf := make([]byte, 1024)
			frame, err := ReadFrame(&w, readBuf)
			require.NoError(t, err)

			assert.Equal(t, tc.id, frame.ID)
			assert.Equal(t, tc.payload, frame.Payload)
		})
	}
}

func TestReadFrameRejectsOversizedFrame(t *testing.T) {
	var w bytes.Buffer
	var header [constants.FrameSizeFieldLen]byte
	binary.LittleEndian.PutUint32(header[:], constants.MaxFrameSize+1)
	w.Write(header[:])
	_, err := ReadFrame(&w, make([]byte, constants.MaxFrameSize+constants.FrameHeaderSize))
	require.Error(t, err)
}

func TestReadFrameRejectsTruncatedHeader(t *testing.T) {
	var w bytes.Buffer
	w.Write([]byte{0x01, 0x02})
	_, err := ReadFrame(&w, make([]byte, 64))
	require.Error(t, err)
}

func TestIsHeartbeat(t *testing.T) {
	assert.True(t, IsHeartbeat(constants.HeartbeatPacketID))
	assert.False(t, IsHeartbeat(0x01))
}
