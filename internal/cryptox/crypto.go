// Package cryptox hashes and verifies account passwords with argon2id.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize    = 16
	keySize     = 32
	argonTime   = 1
	argonMemory = 64 * 1024
	argonLanes  = 4
	scheme      = "argon2id"
)

var ErrMalformedHash = errors.New("malformed password hash")

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonLanes, keySize)
}

// HashPassword returns a self-describing "argon2id$<salt>$<key>" string
// with a fresh random salt.
func HashPassword(password []byte) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey(password, salt)
	return fmt.Sprintf("%s$%s$%s", scheme, hex.EncodeToString(salt), hex.EncodeToString(key))
}

// VerifyPassword reports whether password matches a hash produced by
// HashPassword. The key comparison runs in constant time.
func VerifyPassword(encoded string, password []byte) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != scheme {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}
	got := DeriveKey(password, salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
