package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/cryptox"
	"github.com/glandu2/rzauth/internal/model"
)

func TestAccountDefinitionPreProcessRejectsBannedName(t *testing.T) {
	def := NewAccountDefinition(nil, testSchema(), false)
	input := &AccountInput{Account: "@root", PasswordCipher: []byte("whatever"), Salt: "salt"}
	assert.False(t, def.PreProcess(input))
}

func TestAccountDefinitionPreProcessDerivesPasswordHexNone(t *testing.T) {
	def := NewAccountDefinition(nil, testSchema(), false)
	input := &AccountInput{Account: "alice", PasswordCipher: []byte("hunter2"), Salt: "salt"}
	require.True(t, def.PreProcess(input))
	assert.Equal(t, cryptox.HashPassword("salt", "hunter2"), input.PasswordHex)
}

func TestAccountDefinitionPreProcessDecryptsDES(t *testing.T) {
	def := NewAccountDefinition(nil, testSchema(), false)

	// Any single 8-byte block is a valid legacy-DES ciphertext; PreProcess
	// only needs to reach a PasswordHex, not a specific plaintext.
	cipher := make([]byte, 8)
	input := &AccountInput{Account: "bob", PasswordCipher: cipher, Encryption: EncryptionDES, Salt: "salt"}
	require.True(t, def.PreProcess(input))
	assert.Len(t, input.PasswordHex, 32)
}

func TestAccountDefinitionPreProcessVetoesOnAESFailure(t *testing.T) {
	def := NewAccountDefinition(nil, testSchema(), false)
	input := &AccountInput{
		Account:        "carol",
		PasswordCipher: []byte("not a multiple of block size"),
		Encryption:     EncryptionAES,
		AESKey:         make([]byte, 16),
		AESIV:          make([]byte, 16),
		Salt:           "salt",
	}
	assert.False(t, def.PreProcess(input))
}

func TestAccountDefinitionRowDoneNullPasswordModeAcceptsOnNameMatch(t *testing.T) {
	def := NewAccountDefinition(nil, testSchema(), false)
	input := &AccountInput{PasswordHex: "irrelevant"}
	row := model.Account{PasswordHashHex: nil}
	assert.True(t, def.RowDone(input, row))
}

func TestAccountDefinitionRowDoneRequiresHashMatch(t *testing.T) {
	def := NewAccountDefinition(nil, testSchema(), false)
	input := &AccountInput{PasswordHex: "abc123"}

	wrong := "def456"
	assert.False(t, def.RowDone(input, model.Account{PasswordHashHex: &wrong}))

	right := "abc123"
	assert.True(t, def.RowDone(input, model.Account{PasswordHashHex: &right}))
}

func testSchema() config.DBAccountSchema {
	return config.Default().SQL.DBAccount
}
