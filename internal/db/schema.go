package db

import (
	"context"
	"fmt"
	"strings"
)

type ColType int

const (
	TypeInt ColType = iota
	TypeRef
	TypeString
	TypeText
	TypeDecimal
	TypeDate
	TypeDateTime
	TypeBool
)

type Column struct {
	Name     string
	Type     ColType
	Size     int
	Ref      string
	Nullable bool
	Unique   bool
}

type Table struct {
	Name    string
	Columns []Column
	Uniques [][]string
	Indexes [][]string
}

func str(name string, size int) Column    { return Column{Name: name, Type: TypeString, Size: size} }
func text(name string) Column             { return Column{Name: name, Type: TypeText} }
func integer(name string) Column          { return Column{Name: name, Type: TypeInt} }
func money(name string) Column            { return Column{Name: name, Type: TypeDecimal} }
func ref(name, table string) Column       { return Column{Name: name, Type: TypeRef, Ref: table} }
func unique(c Column) Column              { c.Unique = true; return c }
func nullable(c Column) Column            { c.Nullable = true; return c }
func typed(name string, t ColType) Column { return Column{Name: name, Type: t} }

// universal columns shared by every catalog
func withUniversal(t Table) Table {
	t.Columns = append(t.Columns,
		typed("creado", TypeDateTime),
		typed("modificado", TypeDateTime),
		str("estatus", 1),
	)
	return t
}

// Tables is the schema in creation order.
var Tables = []Table{
	withUniversal(Table{Name: "modulos", Columns: []Column{
		unique(str("nombre", 256)), str("nombre_corto", 64), str("icono", 48), str("ruta", 64),
		typed("en_navegacion", TypeBool),
	}}),
	withUniversal(Table{Name: "roles", Columns: []Column{unique(str("nombre", 256))}}),
	withUniversal(Table{Name: "permisos", Columns: []Column{
		ref("rol_id", "roles"), ref("modulo_id", "modulos"), str("nombre", 256), integer("nivel"),
	}, Uniques: [][]string{{"rol_id", "modulo_id"}}}),
	withUniversal(Table{Name: "usuarios", Columns: []Column{
		str("autoridad_clave", 16), unique(str("email", 256)), str("nombres", 256),
		str("apellido_paterno", 256), str("apellido_materno", 256), str("curp", 18), str("puesto", 256),
		str("api_key", 128), typed("api_key_expiracion", TypeDateTime), str("contrasena", 256),
	}}),
	withUniversal(Table{Name: "usuarios_roles", Columns: []Column{
		ref("usuario_id", "usuarios"), ref("rol_id", "roles"), str("descripcion", 256),
	}, Uniques: [][]string{{"usuario_id", "rol_id"}}}),
	withUniversal(Table{Name: "bitacoras", Columns: []Column{
		ref("modulo_id", "modulos"), ref("usuario_id", "usuarios"), str("descripcion", 256), str("url", 512),
	}, Indexes: [][]string{{"usuario_id"}}}),
	withUniversal(Table{Name: "entradas_salidas", Columns: []Column{
		ref("usuario_id", "usuarios"), str("tipo", 16), str("direccion_ip", 64),
	}, Indexes: [][]string{{"usuario_id"}}}),
	withUniversal(Table{Name: "bancos", Columns: []Column{
		unique(str("clave", 16)), str("nombre", 256), str("clave_dispersion_pensionados", 16),
		integer("consecutivo"), integer("consecutivo_generado"),
	}}),
	withUniversal(Table{Name: "centros_trabajos", Columns: []Column{
		unique(str("clave", 16)), str("descripcion", 256),
	}}),
	withUniversal(Table{Name: "puestos", Columns: []Column{
		unique(str("clave", 16)), str("descripcion", 256),
	}}),
	withUniversal(Table{Name: "plazas", Columns: []Column{
		unique(str("clave", 16)), str("descripcion", 256),
	}}),
	withUniversal(Table{Name: "tabuladores", Columns: []Column{
		ref("puesto_id", "puestos"), integer("modelo"), integer("nivel"), integer("quinquenio"),
		money("sueldo_base"), money("incentivo"), money("monedero"), money("rec_cul_dep"),
		money("sobresueldo"), money("rec_dep_cul_gravado"), money("rec_dep_cul_excento"),
		money("ayuda_transp"), money("monto_quinquenio"), money("total_percepciones"),
		money("salario_diario"), money("prima_vacacional_mensual"), money("aguinaldo_mensual"),
		money("prima_vacacional_mensual_adicional"), money("total_percepciones_integrado"),
		money("salario_diario_integrado"), typed("fecha", TypeDate),
	}, Uniques: [][]string{{"puesto_id", "modelo", "nivel", "quinquenio"}}}),
	withUniversal(Table{Name: "personas", Columns: []Column{
		unique(str("rfc", 13)), str("nombres", 256), str("apellido_primero", 256),
		str("apellido_segundo", 256), str("curp", 18), integer("num_empleado"), integer("modelo"),
		nullable(ref("tabulador_id", "tabuladores")),
	}}),
	withUniversal(Table{Name: "cuentas", Columns: []Column{
		ref("persona_id", "personas"), ref("banco_id", "bancos"), str("num_cuenta", 24),
	}, Indexes: [][]string{{"persona_id"}}}),
	withUniversal(Table{Name: "quincenas", Columns: []Column{
		unique(str("clave", 6)), str("estado", 16),
	}}),
	withUniversal(Table{Name: "nominas", Columns: []Column{
		ref("quincena_id", "quincenas"), ref("persona_id", "personas"),
		ref("centro_trabajo_id", "centros_trabajos"), ref("plaza_id", "plazas"), str("tipo", 16),
		money("percepcion"), money("deduccion"), money("importe"),
		str("tfd_version", 8), str("tfd_uuid", 64), nullable(typed("tfd_fecha_timbrado", TypeDateTime)),
		text("tfd_sello_cfd"), str("tfd_num_cert_sat", 64), text("tfd_sello_sat"), text("tfd"),
	}, Indexes: [][]string{{"quincena_id", "tipo"}, {"persona_id"}}}),
	{Name: "job_runs", Columns: []Column{
		str("process_id", 64), str("job", 64), str("quincena", 6), str("status", 16),
		typed("started_at", TypeDateTime), nullable(typed("finished_at", TypeDateTime)),
		nullable(text("error_message")),
	}, Uniques: [][]string{{"job", "quincena"}}},
}

func (d Dialect) columnType(c Column) string {
	switch c.Type {
	case TypeInt, TypeRef:
		return "INTEGER"
	case TypeString:
		switch d {
		case SQLServer:
			return fmt.Sprintf("NVARCHAR(%d)", c.Size)
		case Postgres:
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "TEXT"
	case TypeText:
		if d == SQLServer {
			return "NVARCHAR(MAX)"
		}
		return "TEXT"
	case TypeDecimal:
		if d == SQLite {
			return "NUMERIC"
		}
		return "DECIMAL(24,4)"
	case TypeDate:
		return "DATE"
	case TypeDateTime:
		switch d {
		case SQLServer:
			return "DATETIME2"
		case Postgres:
			return "TIMESTAMP"
		}
		return "DATETIME"
	case TypeBool:
		switch d {
		case SQLServer:
			return "BIT"
		case Postgres:
			return "BOOLEAN"
		}
		return "INTEGER"
	}
	return "TEXT"
}

func (d Dialect) primaryKey() string {
	switch d {
	case SQLServer:
		return "id INTEGER IDENTITY(1,1) PRIMARY KEY"
	case Postgres:
		return "id SERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// CreateTable renders an idempotent CREATE TABLE.
func (d Dialect) CreateTable(t Table) string {
	lines := []string{d.primaryKey()}
	for _, c := range t.Columns {
		line := c.Name + " " + d.columnType(c)
		if !c.Nullable {
			line += " NOT NULL"
		}
		if c.Unique {
			line += " UNIQUE"
		}
		if c.Type == TypeRef {
			line += " REFERENCES " + c.Ref + "(id)"
		}
		lines = append(lines, line)
	}
	for _, u := range t.Uniques {
		lines = append(lines, fmt.Sprintf("CONSTRAINT uq_%s_%s UNIQUE (%s)",
			t.Name, strings.Join(u, "_"), strings.Join(u, ", ")))
	}

	body := "(\n\t" + strings.Join(lines, ",\n\t") + "\n)"
	if d == SQLServer {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s %s", t.Name, t.Name, body)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", t.Name, body)
}

func (d Dialect) CreateIndexes(t Table) []string {
	var out []string
	for _, cols := range t.Indexes {
		name := fmt.Sprintf("ix_%s_%s", t.Name, strings.Join(cols, "_"))
		on := fmt.Sprintf("%s (%s)", t.Name, strings.Join(cols, ", "))
		if d == SQLServer {
			out = append(out, fmt.Sprintf(
				"IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s') CREATE INDEX %s ON %s", name, name, on))
			continue
		}
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s", name, on))
	}
	return out
}

// Statements returns the full DDL for the dialect.
func (d Dialect) Statements() []string {
	var out []string
	for _, t := range Tables {
		out = append(out, d.CreateTable(t))
		out = append(out, d.CreateIndexes(t)...)
	}
	return out
}

// Migrate creates missing tables and indexes.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range d.Dialect.Statements() {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\n%s", err, stmt)
		}
	}
	return nil
}
