package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/emberkv/emberkv/kverrors"
)

// HashAlgorithm selects which password hash a User was created with,
// per spec.md §4.11 "argon2 or bcrypt".
type HashAlgorithm string

const (
	AlgoBcrypt HashAlgorithm = "bcrypt"
	AlgoArgon2 HashAlgorithm = "argon2"
)

// User is one ACL-governed identity.
type User struct {
	Name         string
	PasswordHash string // algorithm-prefixed, e.g. "bcrypt$..." or "argon2$..."
	ACL          *ACL
	Enabled      bool
}

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// HashPassword hashes password with algo, returning an
// algorithm-prefixed string suitable for storage and later
// verification by VerifyPassword.
func HashPassword(password string, algo HashAlgorithm) (string, error) {
	switch algo {
	case AlgoBcrypt:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", kverrors.Internal("auth: bcrypt hash failed")
		}
		return "bcrypt$" + string(hash), nil
	case AlgoArgon2:
		salt := make([]byte, argon2SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", kverrors.Internal("auth: argon2 salt generation failed")
		}
		key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
		encoded := fmt.Sprintf("argon2$%s$%s",
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key))
		return encoded, nil
	default:
		return "", kverrors.InvalidArgs("auth: unknown hash algorithm " + string(algo))
	}
}

// VerifyPassword checks password against an algorithm-prefixed hash
// produced by HashPassword.
func VerifyPassword(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "bcrypt$"):
		hash := strings.TrimPrefix(encoded, "bcrypt$")
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	case strings.HasPrefix(encoded, "argon2$"):
		parts := strings.Split(strings.TrimPrefix(encoded, "argon2$"), "$")
		if len(parts) != 2 {
			return false
		}
		salt, err := base64.RawStdEncoding.DecodeString(parts[0])
		if err != nil {
			return false
		}
		want, err := base64.RawStdEncoding.DecodeString(parts[1])
		if err != nil {
			return false
		}
		got := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, uint32(len(want)))
		return subtle.ConstantTimeCompare(got, want) == 1
	default:
		return false
	}
}
