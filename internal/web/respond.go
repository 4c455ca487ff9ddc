package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"perseo/internal/auth"
	"perseo/internal/repository"
)

// statusError carries the HTTP status of a client error.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(err error) error { return &statusError{code: http.StatusBadRequest, err: err} }

var errForbidden = &statusError{code: http.StatusForbidden, err: errors.New("no tiene permiso")}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	code := http.StatusInternalServerError
	var se *statusError
	switch {
	case errors.As(err, &se):
		code = se.code
	case errors.Is(err, repository.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate):
		code = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidSession):
		code = http.StatusUnauthorized
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "error interno"
	}
	writeJSON(w, code, map[string]any{"success": false, "message": msg})
}
