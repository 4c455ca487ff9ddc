package repository

import (
	"context"
	"database/sql"
	"fmt"

	"perseo/internal/model"
)

// CatalogIDs loads clave -> id of a clave/descripcion catalog.
func (s *Store) CatalogIDs(ctx context.Context, table string) (map[string]int64, error) {
	rows, err := s.c.Query(ctx, fmt.Sprintf("SELECT id, clave FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			id    int64
			clave string
		)
		if err := rows.Scan(&id, &clave); err != nil {
			return nil, err
		}
		out[clave] = id
	}
	return out, rows.Err()
}

// CreateCatalog inserts a clave/descripcion record.
func (s *Store) CreateCatalog(ctx context.Context, table, clave, descripcion string) (int64, error) {
	now := s.now()
	return s.c.InsertID(ctx, table,
		[]string{"clave", "descripcion", "creado", "modificado", "estatus"},
		sql.Named("clave", clave),
		sql.Named("descripcion", descripcion),
		sql.Named("creado", now),
		sql.Named("modificado", now),
		sql.Named("estatus", model.EstatusActivo),
	)
}

// PersonaIDs loads rfc -> id of every person.
func (s *Store) PersonaIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.c.Query(ctx, "SELECT id, rfc FROM personas")
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			id  int64
			rfc string
		)
		if err := rows.Scan(&id, &rfc); err != nil {
			return nil, err
		}
		out[rfc] = id
	}
	return out, rows.Err()
}

func (s *Store) CreatePersona(ctx context.Context, p model.Persona) (int64, error) {
	now := s.now()
	return s.c.InsertID(ctx, "personas",
		[]string{"rfc", "nombres", "apellido_primero", "apellido_segundo", "curp", "num_empleado", "modelo", "creado", "modificado", "estatus"},
		sql.Named("rfc", p.RFC),
		sql.Named("nombres", p.Nombres),
		sql.Named("apellido_primero", p.ApellidoPrimero),
		sql.Named("apellido_segundo", p.ApellidoSegundo),
		sql.Named("curp", p.CURP),
		sql.Named("num_empleado", p.NumEmpleado),
		sql.Named("modelo", p.Modelo),
		sql.Named("creado", now),
		sql.Named("modificado", now),
		sql.Named("estatus", model.EstatusActivo),
	)
}

const quincenaSelect = "SELECT id, clave, estado, creado, modificado, estatus FROM quincenas"

func (s *Store) QuincenaByClave(ctx context.Context, clave string) (model.Quincena, error) {
	var q model.Quincena
	err := s.c.QueryRow(ctx, quincenaSelect+" WHERE clave = @clave", sql.Named("clave", clave)).
		Scan(&q.ID, &q.Clave, &q.Estado, &q.Creado, &q.Modificado, &q.Estatus)
	if err != nil {
		return q, notFound(err, "quincena "+clave)
	}
	return q, nil
}

func (s *Store) CreateQuincena(ctx context.Context, clave, estado string) (model.Quincena, error) {
	q := model.Quincena{Universal: model.NewUniversal(s.now()), Clave: clave, Estado: estado}
	id, err := s.c.InsertID(ctx, "quincenas",
		[]string{"clave", "estado", "creado", "modificado", "estatus"},
		sql.Named("clave", q.Clave),
		sql.Named("estado", q.Estado),
		sql.Named("creado", q.Creado),
		sql.Named("modificado", q.Modificado),
		sql.Named("estatus", q.Estatus),
	)
	q.ID = id
	return q, err
}

const bancoSelect = "SELECT id, clave, nombre, clave_dispersion_pensionados, consecutivo, consecutivo_generado, creado, modificado, estatus FROM bancos"

func scanBanco(sc interface{ Scan(...any) error }) (model.Banco, error) {
	var b model.Banco
	err := sc.Scan(&b.ID, &b.Clave, &b.Nombre, &b.ClaveDispersionPensionados,
		&b.Consecutivo, &b.ConsecutivoGenerado, &b.Creado, &b.Modificado, &b.Estatus)
	return b, err
}

func (s *Store) BancoByClave(ctx context.Context, clave string) (model.Banco, error) {
	b, err := scanBanco(s.c.QueryRow(ctx, bancoSelect+" WHERE clave = @clave", sql.Named("clave", clave)))
	if err != nil {
		return b, notFound(err, "banco "+clave)
	}
	return b, nil
}

func (s *Store) BancosActive(ctx context.Context) ([]model.Banco, error) {
	rows, err := s.c.Query(ctx, bancoSelect+" WHERE estatus = @estatus ORDER BY id", sql.Named("estatus", model.EstatusActivo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Banco
	for rows.Next() {
		b, err := scanBanco(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBancoConsecutivo(ctx context.Context, id int64, consecutivoGenerado int) error {
	res, err := s.c.Exec(ctx,
		"UPDATE bancos SET consecutivo_generado = @n, modificado = @now WHERE id = @id",
		sql.Named("n", consecutivoGenerado), sql.Named("now", s.now()), sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("update banco %d: %w", id, err)
	}
	return expectOne(res, "bancos", id)
}
