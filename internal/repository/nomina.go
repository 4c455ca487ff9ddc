package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"perseo/internal/model"
)

// NominaColumns is the insert order used by InsertNomina and the bulk writer.
var NominaColumns = []string{
	"quincena_id", "persona_id", "centro_trabajo_id", "plaza_id", "tipo",
	"percepcion", "deduccion", "importe",
	"tfd_version", "tfd_uuid", "tfd_sello_cfd", "tfd_num_cert_sat", "tfd_sello_sat", "tfd",
	"creado", "modificado", "estatus",
}

// NominaValues follows NominaColumns.
func NominaValues(n model.Nomina) []any {
	return []any{
		n.QuincenaID, n.PersonaID, n.CentroTrabajoID, n.PlazaID, string(n.Tipo),
		n.Percepcion, n.Deduccion, n.Importe,
		n.TFDVersion, n.TFDUUID, n.TFDSelloCFD, n.TFDNumCertSAT, n.TFDSelloSAT, n.TFD,
		n.Creado, n.Modificado, n.Estatus,
	}
}

func (s *Store) InsertNomina(ctx context.Context, n model.Nomina) (int64, error) {
	vals := NominaValues(n)
	args := make([]any, len(vals))
	for i, c := range NominaColumns {
		args[i] = sql.Named(c, vals[i])
	}
	return s.c.InsertID(ctx, "nominas", NominaColumns, args...)
}

const nominaDetalleSelect = `SELECT n.id, n.quincena_id, n.persona_id, n.centro_trabajo_id, n.plaza_id, n.tipo,
	n.percepcion, n.deduccion, n.importe, n.creado, n.modificado, n.estatus,
	q.clave, c.clave, z.clave,
	p.id, p.rfc, p.nombres, p.apellido_primero, p.apellido_segundo, p.curp, p.num_empleado, p.modelo
FROM nominas n
JOIN quincenas q ON q.id = n.quincena_id
JOIN personas p ON p.id = n.persona_id
JOIN centros_trabajos c ON c.id = n.centro_trabajo_id
JOIN plazas z ON z.id = n.plaza_id`

// NominasForPeriod returns the active pay stubs of a period and type in
// insertion order.
func (s *Store) NominasForPeriod(ctx context.Context, quincena string, tipo model.NominaTipo) ([]model.NominaDetalle, error) {
	rows, err := s.c.Query(ctx,
		nominaDetalleSelect+" WHERE q.clave = @quincena AND n.tipo = @tipo AND n.estatus = @estatus ORDER BY n.id",
		sql.Named("quincena", quincena), sql.Named("tipo", string(tipo)), sql.Named("estatus", model.EstatusActivo))
	if err != nil {
		return nil, fmt.Errorf("nominas %s %s: %w", quincena, tipo, err)
	}
	defer rows.Close()

	var out []model.NominaDetalle
	for rows.Next() {
		var (
			d    model.NominaDetalle
			tipo string
		)
		err := rows.Scan(
			&d.ID, &d.QuincenaID, &d.PersonaID, &d.CentroTrabajoID, &d.PlazaID, &tipo,
			&d.Percepcion, &d.Deduccion, &d.Importe, &d.Creado, &d.Modificado, &d.Estatus,
			&d.QuincenaClave, &d.CentroTrabajoClave, &d.PlazaClave,
			&d.Persona.ID, &d.Persona.RFC, &d.Persona.Nombres, &d.Persona.ApellidoPrimero,
			&d.Persona.ApellidoSegundo, &d.Persona.CURP, &d.Persona.NumEmpleado, &d.Persona.Modelo,
		)
		if err != nil {
			return nil, err
		}
		d.Tipo = model.NominaTipo(tipo)
		out = append(out, d)
	}
	return out, rows.Err()
}

// CuentasForPersonas returns the active accounts of each person with their
// bank, in creation order.
func (s *Store) CuentasForPersonas(ctx context.Context, personaIDs []int64) (map[int64][]model.Cuenta, error) {
	out := make(map[int64][]model.Cuenta)
	const chunk = 500

	for start := 0; start < len(personaIDs); start += chunk {
		ids := personaIDs[start:min(start+chunk, len(personaIDs))]

		params := make([]string, len(ids))
		args := []any{sql.Named("estatus", model.EstatusActivo)}
		for i, id := range ids {
			name := fmt.Sprintf("p%d", i)
			params[i] = "@" + name
			args = append(args, sql.Named(name, id))
		}

		rows, err := s.c.Query(ctx, `SELECT c.id, c.persona_id, c.banco_id, c.num_cuenta,
			b.id, b.clave, b.nombre, b.clave_dispersion_pensionados, b.consecutivo, b.consecutivo_generado
			FROM cuentas c JOIN bancos b ON b.id = c.banco_id
			WHERE c.estatus = @estatus AND c.persona_id IN (`+strings.Join(params, ", ")+`)
			ORDER BY c.id`, args...)
		if err != nil {
			return nil, fmt.Errorf("cuentas: %w", err)
		}

		for rows.Next() {
			var (
				c model.Cuenta
				b model.Banco
			)
			if err := rows.Scan(&c.ID, &c.PersonaID, &c.BancoID, &c.NumCuenta,
				&b.ID, &b.Clave, &b.Nombre, &b.ClaveDispersionPensionados, &b.Consecutivo, &b.ConsecutivoGenerado,
			); err != nil {
				rows.Close()
				return nil, err
			}
			c.Banco = &b
			out[c.PersonaID] = append(out[c.PersonaID], c)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LatestNomina finds the newest active pay stub of a person in a period.
func (s *Store) LatestNomina(ctx context.Context, rfc, quincena string, tipo model.NominaTipo) (model.Nomina, error) {
	query := s.c.Dialect.Top(`SELECT n.id, n.tfd_version, n.tfd_uuid, n.tfd_fecha_timbrado, n.tfd_sello_cfd,
		n.tfd_num_cert_sat, n.tfd_sello_sat
		FROM nominas n
		JOIN personas p ON p.id = n.persona_id
		JOIN quincenas q ON q.id = n.quincena_id
		WHERE p.rfc = @rfc AND q.clave = @quincena AND n.tipo = @tipo AND n.estatus = @estatus
		ORDER BY n.id DESC`, 1)

	var (
		n     model.Nomina
		fecha sql.NullTime
	)
	err := s.c.QueryRow(ctx, query,
		sql.Named("rfc", rfc), sql.Named("quincena", quincena),
		sql.Named("tipo", string(tipo)), sql.Named("estatus", model.EstatusActivo),
	).Scan(&n.ID, &n.TFDVersion, &n.TFDUUID, &fecha, &n.TFDSelloCFD, &n.TFDNumCertSAT, &n.TFDSelloSAT)
	if err != nil {
		return n, notFound(err, "nomina "+rfc)
	}
	if fecha.Valid {
		t := fecha.Time
		n.TFDFechaTimbrado = &t
	}
	n.Tipo = tipo
	return n, nil
}

func (s *Store) UpdateNominaTimbrado(ctx context.Context, id int64, t model.Timbrado) error {
	res, err := s.c.Exec(ctx, `UPDATE nominas SET
		tfd_version = @version, tfd_uuid = @uuid, tfd_fecha_timbrado = @fecha,
		tfd_sello_cfd = @sello_cfd, tfd_num_cert_sat = @num_cert_sat, tfd_sello_sat = @sello_sat,
		tfd = @tfd, modificado = @now
		WHERE id = @id`,
		sql.Named("version", t.TFDVersion),
		sql.Named("uuid", t.TFDUUID),
		sql.Named("fecha", t.TFDFechaTimbrado),
		sql.Named("sello_cfd", t.TFDSelloCFD),
		sql.Named("num_cert_sat", t.TFDNumCertSAT),
		sql.Named("sello_sat", t.TFDSelloSAT),
		sql.Named("tfd", t.TFD),
		sql.Named("now", s.now()),
		sql.Named("id", id),
	)
	if err != nil {
		return fmt.Errorf("update timbrado %d: %w", id, err)
	}
	return expectOne(res, "nominas", id)
}
