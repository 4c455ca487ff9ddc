package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perseo/internal/utils"
)

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("Secreto123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$pbkdf2-sha256$29000$"))
	assert.True(t, VerifyPassword(h, "Secreto123"))
	assert.False(t, VerifyPassword(h, "secreto123"))

	other, err := HashPassword("Secreto123")
	require.NoError(t, err)
	assert.NotEqual(t, h, other)
}

func TestVerifyPasslibHash(t *testing.T) {
	salt := []byte("0123456789abcdef")
	h := hashWith("password", salt, 1000)
	assert.Equal(t, "$pbkdf2-sha256$1000$MDEyMzQ1Njc4OWFiY2RlZg$", h[:len("$pbkdf2-sha256$1000$MDEyMzQ1Njc4OWFiY2RlZg$")])
	assert.True(t, VerifyPassword(h, "password"))

	assert.False(t, VerifyPassword("", "password"))
	assert.False(t, VerifyPassword("abJnggxhB/yWI", "password"))
	assert.False(t, VerifyPassword("$pbkdf2-sha256$x$abc$def", "password"))
}

func TestAB64(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0xbf}
	enc := ab64Encode(raw)
	assert.NotContains(t, enc, "+")
	assert.NotContains(t, enc, "=")
	dec, err := ab64Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, dec)
}

func TestGeneratePassword(t *testing.T) {
	for _, n := range []int{0, 8, 12, 100} {
		p, err := GeneratePassword(n)
		require.NoError(t, err)
		assert.True(t, utils.ValidContrasena(p), p)
		assert.Equal(t, min(max(n, 8), 48), len(p))
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key := GenerateAPIKey(42, "admin@example.com")
	parts := strings.Split(key, ".")
	require.Len(t, parts, 3)

	id, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Equal(t, "42", string(id))
	email, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", string(email))
	assert.Len(t, parts[2], 32)

	assert.NotEqual(t, key, GenerateAPIKey(42, "admin@example.com"))
}

func TestSession(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)

	s, err := NewSigner("secreto")
	require.NoError(t, err)
	now := time.Unix(1700000000, 0)

	token := s.Sign(Session{UserID: 7, Expires: now.Add(SessionTTL)})
	sess, err := s.Parse(token, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.UserID)
	assert.True(t, sess.Expires.Equal(now.Add(SessionTTL)))

	_, err = s.Parse(token, now.Add(SessionTTL))
	assert.ErrorIs(t, err, ErrInvalidSession)

	other, err := NewSigner("otro")
	require.NoError(t, err)
	_, err = other.Parse(token, now)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = s.Parse("basura", now)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = s.Parse(token+"x", now)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestCan(t *testing.T) {
	perms := map[string]int{"BANCOS": CREAR, "NOMINAS": VER}
	assert.True(t, Can(perms, "BANCOS", MODIFICAR))
	assert.True(t, Can(perms, "BANCOS", CREAR))
	assert.False(t, Can(perms, "BANCOS", ADMINISTRAR))
	assert.True(t, Can(perms, "NOMINAS", VER))
	assert.False(t, Can(perms, "USUARIOS", VER))
}
