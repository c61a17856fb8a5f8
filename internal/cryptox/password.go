package cryptox

import (
	"crypto/md5"
	"encoding/hex"
)

// HashPassword digests a plaintext password the way DB_Account compares it
// against the stored PasswordHashHex column (spec.md §4.B): lowercase hex of
// MD5(salt || password). This deliberately does NOT match the la2go
// teacher's own scheme (SHA1 + base64, internal/db/db.go) — spec.md §4.B
// names salted MD5 hex explicitly, so the teacher's hash choice isn't
// followed here, only its style of living next to the repository that
// consumes it.
//
// MD5 has no suitable replacement among the pack's third-party libraries —
// the digest algorithm is a wire-format constant dictated by the legacy
// client/DB schema, not a design choice open to a stronger library.
func HashPassword(salt, plaintext string) string {
	sum := md5.Sum([]byte(salt + plaintext))
	return hex.EncodeToString(sum[:])
}
