package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/glandu2/rzauth/internal/constants"
)

// AESKeyIV is the 32 random bytes generated per spec.md §4.E.2: the first 16
// bytes are the AES-128 key, the last 16 are the IV.
type AESKeyIV [constants.AESKeyIVTotal]byte

// Key returns the 16-byte AES-128 key half.
func (k AESKeyIV) Key() []byte { return k[:constants.AESKeySize] }

// IV returns the 16-byte IV half.
func (k AESKeyIV) IV() []byte { return k[constants.AESKeySize:] }

// GenerateAESKeyIV draws 32 cryptographically strong random bytes (spec.md §9
// "Cryptographic RNG" — the original seeds a weak PRNG, the rewrite must not).
func GenerateAESKeyIV() (AESKeyIV, error) {
	var kv AESKeyIV
	if _, err := rand.Read(kv[:]); err != nil {
		return kv, fmt.Errorf("generating AES key/IV: %w", err)
	}
	return kv, nil
}

// EncryptAES128CBC encrypts plaintext with PKCS7 padding under AES-128-CBC.
// Used only to wrap the 8-byte one-time key (spec.md §4.G) — never general
// traffic.
func EncryptAES128CBC(key, iv, plaintext []byte) ([]byte, error) {
	if len(key) != constants.AESKeySize {
		return nil, fmt.Errorf("AES-128-CBC encrypt: key must be %d bytes, got %d", constants.AESKeySize, len(key))
	}
	if len(iv) != constants.AESIVSize {
		return nil, fmt.Errorf("AES-128-CBC encrypt: IV must be %d bytes, got %d", constants.AESIVSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES-128-CBC encrypt: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cbc := cipher.NewCBCEncrypter(block, iv)
	cbc.CryptBlocks(out, padded)
	return out, nil
}

// DecryptAES128CBC reverses EncryptAES128CBC (used by tests and by the DB_Account
// job when unwrapping an AES-encrypted password, spec.md §4.E.3).
func DecryptAES128CBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != constants.AESKeySize {
		return nil, fmt.Errorf("AES-128-CBC decrypt: key must be %d bytes, got %d", constants.AESKeySize, len(key))
	}
	if len(iv) != constants.AESIVSize {
		return nil, fmt.Errorf("AES-128-CBC decrypt: IV must be %d bytes, got %d", constants.AESIVSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("AES-128-CBC decrypt: ciphertext length %d not a multiple of block size", len(ciphertext))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES-128-CBC decrypt: %w", err)
	}

	out := make([]byte, len(ciphertext))
	cbc := cipher.NewCBCDecrypter(block, iv)
	cbc.CryptBlocks(out, ciphertext)

	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("pkcs7 unpad: empty input")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, fmt.Errorf("pkcs7 unpad: invalid padding length %d", padLen)
	}
	return data[:len(data)-padLen], nil
}
