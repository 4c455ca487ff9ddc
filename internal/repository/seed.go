package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Seed creates one module per resource and a role with the given level on
// every module. Existing records are kept. It returns the role id.
func (s *Store) Seed(ctx context.Context, rolNombre string, nivel int) (int64, error) {
	rolID, err := s.ensure(ctx, Roles, "nombre", rolNombre, map[string]any{"nombre": rolNombre})
	if err != nil {
		return 0, err
	}

	for _, r := range Resources {
		moduloID, err := s.ensure(ctx, Modulos, "nombre", r.Module, map[string]any{
			"nombre":        r.Module,
			"nombre_corto":  strings.ToLower(r.Path),
			"icono":         "",
			"ruta":          "/" + r.Path,
			"en_navegacion": true,
		})
		if err != nil {
			return 0, err
		}

		var n int
		if err := s.c.QueryRow(ctx,
			"SELECT COUNT(*) FROM permisos WHERE rol_id = @rol AND modulo_id = @modulo",
			sql.Named("rol", rolID), sql.Named("modulo", moduloID),
		).Scan(&n); err != nil {
			return 0, err
		}
		if n > 0 {
			continue
		}
		if _, err := s.Insert(ctx, Permisos, map[string]any{
			"rol_id":    rolID,
			"modulo_id": moduloID,
			"nombre":    rolNombre + " " + r.Module,
			"nivel":     nivel,
		}); err != nil {
			return 0, err
		}
	}
	return rolID, nil
}

// AssignRol links a user to a role unless already linked.
func (s *Store) AssignRol(ctx context.Context, usuarioID, rolID int64) error {
	var n int
	if err := s.c.QueryRow(ctx,
		"SELECT COUNT(*) FROM usuarios_roles WHERE usuario_id = @u AND rol_id = @r",
		sql.Named("u", usuarioID), sql.Named("r", rolID),
	).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := s.Insert(ctx, UsuariosRoles, map[string]any{"usuario_id": usuarioID, "rol_id": rolID, "descripcion": ""})
	return err
}

func (s *Store) ensure(ctx context.Context, r *Resource, col, value string, values map[string]any) (int64, error) {
	var id int64
	err := s.c.QueryRow(ctx, "SELECT id FROM "+r.Table+" WHERE "+col+" = @v", sql.Named("v", value)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return s.Insert(ctx, r, values)
}
