package wire

import (
	"bytes"
	"fmt"
)

// AccountEncryption tags which cipher, if any, wraps the password field of
// a TS_CA_ACCOUNT / TS_CA_IMBC_ACCOUNT frame (spec.md §4.A: "three layouts:
// legacy DES, epic 4 DES, and RSA-variant").
type AccountEncryption int

const (
	AccountEncryptionNone AccountEncryption = iota
	AccountEncryptionDES
	AccountEncryptionAES
)

func (m AccountEncryption) String() string {
	switch m {
	case AccountEncryptionDES:
		return "DES"
	case AccountEncryptionAES:
		return "AES"
	default:
		return "NONE"
	}
}

// Account field layout: a fixed-width NUL-padded ASCII login name followed
// by a cipher-specific password block. The three wire layouts share the
// login field and differ only in the password block's length and cipher,
// which is exactly the "tagged parse: inspect size first" scheme spec.md
// §9 describes.
const (
	accountLoginFieldLen = 14 // matches la2go's AuthLoginUsernameMaxLength idiom

	accountLayoutLegacyDESLen = accountLoginFieldLen + 8  // single DES block
	accountLayoutEpic4DESLen  = accountLoginFieldLen + 16 // two DES blocks
	// RSA-variant password blocks are AES-128-CBC ciphertext, a multiple of
	// 16 bytes but otherwise variable length (PKCS7 padding); anything of
	// at least one AES block beyond the login field that isn't one of the
	// two fixed DES sizes above is treated as the RSA variant.
	aesBlockSize = 16
)

// DecodedAccount is the logical result of decoding any TS_CA_ACCOUNT /
// TS_CA_IMBC_ACCOUNT wire variant: the plaintext login name plus the still
// enciphered password block and the mode needed to unwrap it.
type DecodedAccount struct {
	Login          string
	PasswordCipher []byte
	Encryption     AccountEncryption
}

// DecodeAccount inspects payload's length to pick among the three
// TS_CA_ACCOUNT layouts, per spec.md §4.E.3 ("variant layout chosen by
// size and useRsaAuth"). useRsaAuth disambiguates an AES-sized payload from
// a pass-through (unencrypted) one of the same length — the RSA_PUBLIC_KEY
// exchange having happened earlier in the session is what licenses the AES
// interpretation.
func DecodeAccount(payload []byte, useRsaAuth bool) (DecodedAccount, error) {
	if len(payload) < accountLoginFieldLen {
		return DecodedAccount{}, fmt.Errorf("decoding account packet: payload %d bytes shorter than login field %d", len(payload), accountLoginFieldLen)
	}

	login := decodeFixedASCII(payload[:accountLoginFieldLen])
	rest := payload[accountLoginFieldLen:]

	switch {
	case len(payload) == accountLayoutLegacyDESLen:
		return DecodedAccount{Login: login, PasswordCipher: rest, Encryption: AccountEncryptionDES}, nil
	case len(payload) == accountLayoutEpic4DESLen:
		return DecodedAccount{Login: login, PasswordCipher: rest, Encryption: AccountEncryptionDES}, nil
	case len(rest) > 0 && len(rest)%aesBlockSize == 0 && useRsaAuth:
		return DecodedAccount{Login: login, PasswordCipher: rest, Encryption: AccountEncryptionAES}, nil
	case len(rest) > 0:
		return DecodedAccount{Login: login, PasswordCipher: rest, Encryption: AccountEncryptionNone}, nil
	default:
		return DecodedAccount{}, fmt.Errorf("decoding account packet: unrecognized layout for payload of %d bytes", len(payload))
	}
}

func decodeFixedASCII(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
