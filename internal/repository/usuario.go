package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"perseo/internal/model"
)

const usuarioSelect = `SELECT id, autoridad_clave, email, nombres, apellido_paterno, apellido_materno, curp,
	puesto, api_key, api_key_expiracion, contrasena, creado, modificado, estatus FROM usuarios`

func scanUsuario(sc interface{ Scan(...any) error }) (model.Usuario, error) {
	var u model.Usuario
	err := sc.Scan(&u.ID, &u.AutoridadClave, &u.Email, &u.Nombres, &u.ApellidoPaterno, &u.ApellidoMaterno,
		&u.CURP, &u.Puesto, &u.APIKey, &u.APIKeyExpiracion, &u.Contrasena, &u.Creado, &u.Modificado, &u.Estatus)
	return u, err
}

func (s *Store) UsuarioByID(ctx context.Context, id int64) (model.Usuario, error) {
	u, err := scanUsuario(s.c.QueryRow(ctx, usuarioSelect+" WHERE id = @id", sql.Named("id", id)))
	if err != nil {
		return u, notFound(err, fmt.Sprintf("usuario %d", id))
	}
	return u, nil
}

func (s *Store) UsuarioByEmail(ctx context.Context, email string) (model.Usuario, error) {
	u, err := scanUsuario(s.c.QueryRow(ctx, usuarioSelect+" WHERE email = @email", sql.Named("email", email)))
	if err != nil {
		return u, notFound(err, "usuario "+email)
	}
	return u, nil
}

func (s *Store) UsuarioByAPIKey(ctx context.Context, key string) (model.Usuario, error) {
	u, err := scanUsuario(s.c.QueryRow(ctx, usuarioSelect+" WHERE api_key = @key", sql.Named("key", key)))
	if err != nil {
		return u, notFound(err, "api key")
	}
	return u, nil
}

// CreateUsuario inserts an active user with an already hashed password.
func (s *Store) CreateUsuario(ctx context.Context, u model.Usuario) (int64, error) {
	now := s.now()
	return s.c.InsertID(ctx, "usuarios",
		[]string{"autoridad_clave", "email", "nombres", "apellido_paterno", "apellido_materno", "curp",
			"puesto", "api_key", "api_key_expiracion", "contrasena", "creado", "modificado", "estatus"},
		sql.Named("autoridad_clave", u.AutoridadClave),
		sql.Named("email", u.Email),
		sql.Named("nombres", u.Nombres),
		sql.Named("apellido_paterno", u.ApellidoPaterno),
		sql.Named("apellido_materno", u.ApellidoMaterno),
		sql.Named("curp", u.CURP),
		sql.Named("puesto", u.Puesto),
		sql.Named("api_key", u.APIKey),
		sql.Named("api_key_expiracion", u.APIKeyExpiracion),
		sql.Named("contrasena", u.Contrasena),
		sql.Named("creado", now),
		sql.Named("modificado", now),
		sql.Named("estatus", model.EstatusActivo),
	)
}

func (s *Store) UpdateAPIKey(ctx context.Context, id int64, key string, expira time.Time) error {
	res, err := s.c.Exec(ctx,
		"UPDATE usuarios SET api_key = @key, api_key_expiracion = @expira, modificado = @now WHERE id = @id",
		sql.Named("key", key), sql.Named("expira", expira), sql.Named("now", s.now()), sql.Named("id", id))
	if err != nil {
		return err
	}
	return expectOne(res, "usuarios", id)
}

func (s *Store) UpdateContrasena(ctx context.Context, id int64, hash string) error {
	res, err := s.c.Exec(ctx,
		"UPDATE usuarios SET contrasena = @hash, modificado = @now WHERE id = @id",
		sql.Named("hash", hash), sql.Named("now", s.now()), sql.Named("id", id))
	if err != nil {
		return err
	}
	return expectOne(res, "usuarios", id)
}

// RolesForUser lists the names of the active roles of a user.
func (s *Store) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.c.Query(ctx, `SELECT r.nombre FROM usuarios_roles ur
		JOIN roles r ON r.id = ur.rol_id
		WHERE ur.usuario_id = @id AND ur.estatus = @estatus AND r.estatus = @estatus
		ORDER BY r.nombre`,
		sql.Named("id", userID), sql.Named("estatus", model.EstatusActivo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// PermissionsForUser maps module name to the highest level granted by any
// active role of the user.
func (s *Store) PermissionsForUser(ctx context.Context, userID int64) (map[string]int, error) {
	rows, err := s.c.Query(ctx, `SELECT m.nombre, p.nivel FROM usuarios_roles ur
		JOIN permisos p ON p.rol_id = ur.rol_id
		JOIN modulos m ON m.id = p.modulo_id
		WHERE ur.usuario_id = @id AND ur.estatus = @estatus AND p.estatus = @estatus AND m.estatus = @estatus`,
		sql.Named("id", userID), sql.Named("estatus", model.EstatusActivo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			modulo string
			nivel  int
		)
		if err := rows.Scan(&modulo, &nivel); err != nil {
			return nil, err
		}
		if nivel > out[modulo] {
			out[modulo] = nivel
		}
	}
	return out, rows.Err()
}

func (s *Store) ModuloIDByNombre(ctx context.Context, nombre string) (int64, error) {
	var id int64
	err := s.c.QueryRow(ctx, "SELECT id FROM modulos WHERE nombre = @nombre", sql.Named("nombre", nombre)).Scan(&id)
	if err != nil {
		return 0, notFound(err, "modulo "+nombre)
	}
	return id, nil
}

func (s *Store) InsertBitacora(ctx context.Context, b model.Bitacora) (int64, error) {
	now := s.now()
	return s.c.InsertID(ctx, "bitacoras",
		[]string{"modulo_id", "usuario_id", "descripcion", "url", "creado", "modificado", "estatus"},
		sql.Named("modulo_id", b.ModuloID),
		sql.Named("usuario_id", b.UsuarioID),
		sql.Named("descripcion", b.Descripcion),
		sql.Named("url", b.URL),
		sql.Named("creado", now),
		sql.Named("modificado", now),
		sql.Named("estatus", model.EstatusActivo),
	)
}

func (s *Store) InsertEntradaSalida(ctx context.Context, e model.EntradaSalida) (int64, error) {
	now := s.now()
	return s.c.InsertID(ctx, "entradas_salidas",
		[]string{"usuario_id", "tipo", "direccion_ip", "creado", "modificado", "estatus"},
		sql.Named("usuario_id", e.UsuarioID),
		sql.Named("tipo", e.Tipo),
		sql.Named("direccion_ip", e.DireccionIP),
		sql.Named("creado", now),
		sql.Named("modificado", now),
		sql.Named("estatus", model.EstatusActivo),
	)
}
