package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CookieName = "perseo_session"
	SessionTTL = 8 * time.Hour
)

var ErrInvalidSession = errors.New("sesión inválida")

type Session struct {
	UserID  int64
	Expires time.Time
}

// Signer issues and verifies session tokens: payload "id.unix" and its
// HMAC-SHA256, both base64url.
type Signer struct {
	key []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("SECRET_KEY vacío")
	}
	return &Signer{key: []byte(secret)}, nil
}

func (s *Signer) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

func (s *Signer) Sign(sess Session) string {
	payload := fmt.Sprintf("%d.%d", sess.UserID, sess.Expires.Unix())
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(payload)) + "." + enc.EncodeToString(s.mac(payload))
}

func (s *Signer) Parse(token string, now time.Time) (Session, error) {
	var sess Session
	enc := base64.RawURLEncoding

	rawPayload, rawMac, ok := strings.Cut(token, ".")
	if !ok {
		return sess, ErrInvalidSession
	}
	payload, err := enc.DecodeString(rawPayload)
	if err != nil {
		return sess, ErrInvalidSession
	}
	mac, err := enc.DecodeString(rawMac)
	if err != nil || !hmac.Equal(mac, s.mac(string(payload))) {
		return sess, ErrInvalidSession
	}

	id, exp, ok := strings.Cut(string(payload), ".")
	if !ok {
		return sess, ErrInvalidSession
	}
	if sess.UserID, err = strconv.ParseInt(id, 10, 64); err != nil {
		return sess, ErrInvalidSession
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return sess, ErrInvalidSession
	}
	sess.Expires = time.Unix(unix, 0)
	if !now.Before(sess.Expires) {
		return sess, fmt.Errorf("%w: expirada", ErrInvalidSession)
	}
	return sess, nil
}
