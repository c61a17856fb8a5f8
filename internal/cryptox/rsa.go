// Package cryptox implements the crypto helpers of spec.md §4.G: RSA
// public-key import from a client-supplied PEM block, RSA-PKCS1 encryption of
// the AES key/IV, AES-128-CBC encryption of the one-time key, legacy DES
// decryption of older account-packet layouts, and the salted-MD5-hex password
// digest used by DB_Account.
//
// Grounded on internal/crypto/rsa.go from the la2go teacher for the general
// shape of an RSA helper file (errors wrapped with fmt.Errorf, sizes validated
// against the key's modulus). The teacher generates its own RSA key pair and
// ships the modulus to the client; this gateway does the reverse per
// spec.md §4.E.2 — the client supplies its own RSA public key as a PEM block,
// and the gateway wraps a gateway-generated AES key/IV with it.
package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/glandu2/rzauth/internal/constants"
)

// ImportRSAPublicKeyPEM parses a PEM-encoded PKIX public key and rejects
// anything that isn't RSA or whose modulus is below the minimum size.
func ImportRSAPublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("importing RSA public key: no PEM block found")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("importing RSA public key: %w", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("importing RSA public key: not an RSA key")
	}

	if rsaPub.N.BitLen() < constants.RSAMinModulusBits {
		return nil, fmt.Errorf("importing RSA public key: modulus too small (%d bits, want >= %d)",
			rsaPub.N.BitLen(), constants.RSAMinModulusBits)
	}

	return rsaPub, nil
}

// RSAModulusSize returns the byte length of pub's modulus, which is also the
// size of an RSA-PKCS1 ciphertext under pub. It validates nothing.
func RSAModulusSize(pub *rsa.PublicKey) int {
	return (pub.N.BitLen() + 7) / 8
}

// RSAEncryptPKCS1 wraps data (the 32-byte AES key+IV) under the client's RSA
// public key using PKCS#1 v1.5 padding, as spec.md §4.E.2 / §4.G require.
// Output size equals the modulus byte length.
func RSAEncryptPKCS1(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
	if err != nil {
		return nil, fmt.Errorf("RSA-PKCS1 encrypting: %w", err)
	}
	return ciphertext, nil
}
