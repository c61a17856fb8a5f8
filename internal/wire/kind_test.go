package wire

import (
	"testing"

	"github.com/glandu2/rzauth/internal/constants"
	"github.com/stretchr/testify/assert"
)

func TestLookupKnownIDs(t *testing.T) {
	assert.Equal(t, KindVersion, Lookup(constants.Epic9_1, constants.PacketVersion))
	assert.Equal(t, KindAccount, Lookup(constants.EpicLatest, constants.PacketAccount))
	assert.Equal(t, KindGAClientLogin, Lookup(constants.Epic2, constants.PacketGAClientLogin))
}

func TestLookupUnknownID(t *testing.T) {
	assert.Equal(t, KindUnknown, Lookup(constants.Epic9_1, 0xFFFF))
}

func TestLookupUnknownEpoch(t *testing.T) {
	assert.Equal(t, KindUnknown, Lookup(constants.EpicUnknown, constants.PacketVersion))
}
