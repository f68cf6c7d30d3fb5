package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
)

// tokenBytes gives 160 bits of entropy per token.
const tokenBytes = 20

// lowercase base32, no padding, so tokens are URL and cookie safe.
var tokenEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// GenerateToken produces a new random session token. The raw token is handed
// to the client and never stored or logged.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)

	_, err := rand.Read(buf)

	if err != nil {
		return "", err
	}

	return tokenEncoding.EncodeToString(buf), nil
}

// DeriveSessionID maps a token to its session id: lowercase hex of the
// SHA-256 of the token bytes. Deterministic and one-way; the server can
// always recompute the id from a presented token but never the reverse.
func DeriveSessionID(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
