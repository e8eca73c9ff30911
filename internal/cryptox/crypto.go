// Package cryptox holds the password hashing used for account passwords and
// asset lock passwords.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/sasset/core/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 22
	keySize  = 32

	// HashLength is the length of an encoded hash: hex(salt || key).
	HashLength = 2 * (saltSize + keySize)
)

func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// PasswordHash returns a salted argon2id hash of password, hex encoded.
// The result is always HashLength characters long.
func PasswordHash(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	return encode(salt, DeriveKey([]byte(password), salt))
}

// PasswordVerify reports whether password matches a hash produced by PasswordHash.
func PasswordVerify(password, hash string) bool {
	if len(hash) != HashLength {
		return false
	}
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	salt, key := raw[:saltSize], raw[saltSize:]
	candidate := DeriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func encode(salt, key []byte) string {
	buf := make([]byte, 0, saltSize+keySize)
	buf = append(buf, salt...)
	buf = append(buf, key...)
	return hex.EncodeToString(buf)
}
