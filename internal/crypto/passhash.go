// Package crypto implements credential hashing for principal enrollment.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Params holds Argon2id cost parameters.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams are tuned for server-side hashing (64 MB per hash).
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewSalt returns a fresh random salt of p.SaltLen bytes.
func (p Params) NewSalt() ([]byte, error) { return RandBytes(p.SaltLen) }

// Hash returns the Argon2id hash of password using salt.
func (p Params) Hash(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Verify reports whether password and salt reproduce expected, in constant time.
func (p Params) Verify(password, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(p.Hash(password, salt), expected) == 1
}
