package web

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"perseo/internal/auth"
	"perseo/internal/db"
	"perseo/internal/model"
	"perseo/internal/repository"
	"perseo/internal/utils"
)

const (
	defaultPageLength = 10
	maxPageLength     = 500
)

// never is the api_key_expiracion of users without a key.
var never = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *Server) resourceRoutes(res *repository.Resource) {
	base := "/" + res.Path
	s.mux.Handle("POST "+base+"/datatable_json", s.require(res.Module, auth.VER, s.datatable(res)))
	s.mux.Handle("GET "+base+"/{id}", s.require(res.Module, auth.VER, s.get(res)))
	if !res.Editable() {
		return
	}
	s.mux.Handle("POST "+base, s.require(res.Module, auth.CREAR, s.create(res)))
	s.mux.Handle("PUT "+base+"/{id}", s.require(res.Module, auth.MODIFICAR, s.update(res)))
	s.mux.Handle("DELETE "+base+"/{id}", s.require(res.Module, auth.ADMINISTRAR, s.setEstatus(res, model.EstatusEliminado)))
	s.mux.Handle("POST "+base+"/{id}/recover", s.require(res.Module, auth.ADMINISTRAR, s.setEstatus(res, model.EstatusActivo)))
}

// params reads a DataTables request, form encoded or JSON.
func params(r *http.Request) (map[string]string, error) {
	out := map[string]string{}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		for k, v := range body {
			if v != nil {
				out[k] = fmt.Sprint(v)
			}
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k := range r.Form {
		out[k] = r.Form.Get(k)
	}
	return out, nil
}

func (s *Server) datatable(res *repository.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := params(r)
		if err != nil {
			writeError(w, s.log, badRequest(err))
			return
		}

		draw, _ := strconv.Atoi(p["draw"])
		start, _ := strconv.Atoi(p["start"])
		length, _ := strconv.Atoi(p["length"])
		if length <= 0 {
			length = defaultPageLength
		}
		q := repository.DatatableQuery{
			Offset:  max(start, 0),
			Limit:   min(length, maxPageLength),
			Estatus: p["estatus"],
			Filters: p,
		}

		data, total, err := s.store.Datatable(r.Context(), res, q)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"draw":            draw,
			"recordsTotal":    total,
			"recordsFiltered": total,
			"data":            data,
		})
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Errorf("id inválido: %q", r.PathValue("id")))
	}
	return id, nil
}

func (s *Server) get(res *repository.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		row, err := s.store.Get(r.Context(), res, id)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, badRequest(err)
	}
	return body, nil
}

// mutate runs fn and its Bitacora entry in one transaction.
func (s *Server) mutate(ctx context.Context, res *repository.Resource, r *http.Request, fn func(store *repository.Store) (string, error)) error {
	p := principal(ctx)
	return s.db.WithTx(ctx, nil, func(tx *db.Tx) error {
		store := repository.New(&tx.Conn)
		descripcion, err := fn(store)
		if err != nil {
			return err
		}

		moduloID, err := store.ModuloIDByNombre(ctx, res.Module)
		if err != nil {
			return err
		}
		_, err = store.InsertBitacora(ctx, model.Bitacora{
			ModuloID:    moduloID,
			UsuarioID:   p.Usuario.ID,
			Descripcion: utils.SafeMessage(descripcion, 256),
			URL:         r.URL.Path,
		})
		return err
	})
}

func (s *Server) create(res *repository.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		values, err := res.Values(body, false)
		if err != nil {
			writeError(w, s.log, badRequest(err))
			return
		}
		if res == repository.Usuarios {
			if err := newUserCredentials(values); err != nil {
				writeError(w, s.log, err)
				return
			}
		}

		var id int64
		err = s.mutate(r.Context(), res, r, func(store *repository.Store) (string, error) {
			var err error
			if id, err = store.Insert(r.Context(), res, values); err != nil {
				return "", err
			}
			return fmt.Sprintf("Nuevo %s %d %s", strings.ToLower(res.Module), id, summary(values)), nil
		})
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		s.log.Info("created", zap.String("modulo", res.Module), zap.Int64("id", id))
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
	}
}

// newUserCredentials gives a new user a random password and no API key.
func newUserCredentials(values map[string]any) error {
	password, err := auth.GeneratePassword(24)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	values["contrasena"] = hash
	values["api_key"] = ""
	values["api_key_expiracion"] = never
	return nil
}

func (s *Server) update(res *repository.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		values, err := res.Values(body, true)
		if err != nil {
			writeError(w, s.log, badRequest(err))
			return
		}
		if len(values) == 0 {
			writeError(w, s.log, badRequest(fmt.Errorf("no hay cambios")))
			return
		}

		err = s.mutate(r.Context(), res, r, func(store *repository.Store) (string, error) {
			if err := store.Update(r.Context(), res, id, values); err != nil {
				return "", err
			}
			return fmt.Sprintf("Modificado %s %d %s", strings.ToLower(res.Module), id, summary(values)), nil
		})
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
	}
}

func (s *Server) setEstatus(res *repository.Resource, estatus string) http.HandlerFunc {
	verb := "Eliminado"
	if estatus == model.EstatusActivo {
		verb = "Recuperado"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		err = s.mutate(r.Context(), res, r, func(store *repository.Store) (string, error) {
			if err := store.SetEstatus(r.Context(), res, id, estatus); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s %s %d", verb, strings.ToLower(res.Module), id), nil
		})
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
	}
}

// summary lists the first text values of a change for the Bitacora.
func summary(values map[string]any) string {
	var parts []string
	for _, col := range []string{"clave", "rfc", "email", "nombre", "num_cuenta"} {
		if v, ok := values[col].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
