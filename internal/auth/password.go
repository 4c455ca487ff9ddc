// Package auth holds the credentials of the web users: password hashes,
// API keys, signed session cookies and permission levels.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"perseo/internal/utils"
)

var ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")

// passlib pbkdf2_sha256 defaults
const (
	pbkdf2Ident   = "pbkdf2-sha256"
	DefaultRounds = 29000
	saltSize      = 16
	keySize       = 32
)

// ab64 is passlib's adapted base64: no padding and "." instead of "+".
func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}

// HashPassword returns $pbkdf2-sha256$rounds$salt$hash.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	return hashWith(password, salt, DefaultRounds), nil
}

func hashWith(password string, salt []byte, rounds int) string {
	key := pbkdf2.Key([]byte(password), salt, rounds, keySize, sha256.New)
	return fmt.Sprintf("$%s$%d$%s$%s", pbkdf2Ident, rounds, ab64Encode(salt), ab64Encode(key))
}

// VerifyPassword checks password against a stored hash. Hashes in any other
// scheme never match.
func VerifyPassword(hash, password string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != pbkdf2Ident {
		return false
	}
	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := ab64Decode(parts[3])
	if err != nil {
		return false
	}
	want, err := ab64Decode(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random password that utils.ValidContrasena
// accepts. n is clamped to 8..48.
func GeneratePassword(n int) (string, error) {
	n = min(max(n, 8), 48)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for {
		for i := range b {
			r, err := rand.Int(rand.Reader, limit)
			if err != nil {
				return "", err
			}
			b[i] = passwordAlphabet[r.Int64()]
		}
		if s := string(b); utils.ValidContrasena(s) {
			return s, nil
		}
	}
}

// GenerateAPIKey builds base64url(id).base64url(email).random-hex
func GenerateAPIKey(userID int64, email string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(strconv.FormatInt(userID, 10))) + "." +
		enc.EncodeToString([]byte(email)) + "." +
		strings.ReplaceAll(uuid.NewString(), "-", "")
}
