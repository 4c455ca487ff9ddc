package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"perseo/internal/auth"
	"perseo/internal/model"
	"perseo/internal/repository"
	"perseo/internal/utils"
)

const apiKeyHeader = "X-Api-Key"

type ctxKey struct{}

// Principal is the authenticated user of a request.
type Principal struct {
	Usuario model.Usuario
	Perms   map[string]int
}

func principal(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}

// authenticate reads the session cookie, or the API key header when there
// is no cookie.
func (s *Server) authenticate(r *http.Request) (*Principal, error) {
	ctx := r.Context()
	var (
		u   model.Usuario
		err error
	)
	if c, cerr := r.Cookie(auth.CookieName); cerr == nil {
		sess, perr := s.signer.Parse(c.Value, s.now())
		if perr != nil {
			return nil, perr
		}
		u, err = s.store.UsuarioByID(ctx, sess.UserID)
	} else if key := strings.TrimSpace(r.Header.Get(apiKeyHeader)); key != "" {
		u, err = s.store.UsuarioByAPIKey(ctx, key)
		if err == nil && !s.now().Before(u.APIKeyExpiracion) {
			err = fmt.Errorf("%w: API key expirada", auth.ErrInvalidCredentials)
		}
	} else {
		return nil, auth.ErrInvalidSession
	}

	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Activo() {
		return nil, auth.ErrInvalidCredentials
	}

	perms, err := s.store.PermissionsForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Principal{Usuario: u, Perms: perms}, nil
}

// require authenticates the request and checks nivel on modulo. An empty
// modulo only needs a valid user.
func (s *Server) require(modulo string, nivel int, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticate(r)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		if modulo != "" && !auth.Can(p.Perms, modulo, nivel) {
			s.log.Warn("forbidden", zap.String("email", p.Usuario.Email), zap.String("modulo", modulo), zap.Int("nivel", nivel))
			writeError(w, s.log, errForbidden)
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	})
}

type loginRequest struct {
	Email      string `json:"email"`
	Contrasena string `json:"contrasena"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.log, badRequest(err))
		return
	}

	email, err := utils.SafeEmail(req.Email, false)
	if err != nil || !utils.ValidContrasena(req.Contrasena) {
		writeError(w, s.log, auth.ErrInvalidCredentials)
		return
	}

	u, err := s.store.UsuarioByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		writeError(w, s.log, err)
		return
	}
	if err != nil || !u.Activo() || !auth.VerifyPassword(u.Contrasena, req.Contrasena) {
		s.log.Info("login rejected", zap.String("email", email))
		writeError(w, s.log, auth.ErrInvalidCredentials)
		return
	}

	if _, err := s.store.InsertEntradaSalida(r.Context(), model.EntradaSalida{
		UsuarioID:   u.ID,
		Tipo:        model.EntradaIngreso,
		DireccionIP: clientIP(r),
	}); err != nil {
		writeError(w, s.log, err)
		return
	}

	expires := s.now().Add(auth.SessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    s.signer.Sign(auth.Session{UserID: u.ID, Expires: expires}),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("login", zap.String("email", u.Email))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "usuario": u})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p := principal(r.Context())
	if _, err := s.store.InsertEntradaSalida(r.Context(), model.EntradaSalida{
		UsuarioID:   p.Usuario.ID,
		Tipo:        model.EntradaSalio,
		DireccionIP: clientIP(r),
	}); err != nil {
		writeError(w, s.log, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) perfil(w http.ResponseWriter, r *http.Request) {
	p := principal(r.Context())
	roles, err := s.store.RolesForUser(r.Context(), p.Usuario.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, map[string]any{
		"usuario":     p.Usuario,
		"roles":       roles,
		"permisos":    p.Perms,
		"ahora_utc":   now.UTC(),
		"ahora_local": now.In(s.loc),
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
