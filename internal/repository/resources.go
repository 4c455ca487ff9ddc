package repository

import "perseo/internal/model"

func req(f Field) Field { f.Required = true; return f }

func fields(kind FieldKind, cols ...string) []Field {
	out := make([]Field, len(cols))
	for i, c := range cols {
		out[i] = Field{Column: c, Kind: kind}
	}
	return out
}

func claveDescripcion(module, path, table string) *Resource {
	return &Resource{
		Module:  module,
		Path:    path,
		Table:   table,
		Columns: []string{"t.clave", "t.descripcion"},
		Order:   "t.clave",
		Filters: []Filter{
			{Param: "clave", Column: "t.clave", Kind: FilterLike},
			{Param: "descripcion", Column: "t.descripcion", Kind: FilterLike},
		},
		Fields: []Field{
			req(Field{Column: "clave", Kind: FieldClave}),
			req(Field{Column: "descripcion", Kind: FieldString, MaxLen: 256}),
		},
		Unique: []string{"clave"},
	}
}

var (
	Bancos = &Resource{
		Module:  "BANCOS",
		Path:    "bancos",
		Table:   "bancos",
		Columns: []string{"t.clave", "t.nombre", "t.clave_dispersion_pensionados", "t.consecutivo", "t.consecutivo_generado"},
		Order:   "t.nombre",
		Filters: []Filter{
			{Param: "clave", Column: "t.clave", Kind: FilterEqual},
			{Param: "nombre", Column: "t.nombre", Kind: FilterLike},
		},
		Fields: []Field{
			req(Field{Column: "clave", Kind: FieldClave}),
			req(Field{Column: "nombre", Kind: FieldString, MaxLen: 256}),
			{Column: "clave_dispersion_pensionados", Kind: FieldClave},
			{Column: "consecutivo", Kind: FieldInt},
			{Column: "consecutivo_generado", Kind: FieldInt},
		},
		Unique: []string{"clave"},
	}

	Cuentas = &Resource{
		Module: "CUENTAS",
		Path:   "cuentas",
		Table:  "cuentas",
		From:   "cuentas t JOIN bancos b ON b.id = t.banco_id JOIN personas p ON p.id = t.persona_id",
		Columns: []string{
			"t.persona_id", "t.banco_id", "t.num_cuenta",
			"b.clave AS banco_clave", "b.nombre AS banco_nombre", "p.rfc AS persona_rfc",
		},
		Filters: []Filter{
			{Param: "persona_id", Column: "t.persona_id", Kind: FilterInt},
			{Param: "banco_id", Column: "t.banco_id", Kind: FilterInt},
			{Param: "persona_rfc", Column: "p.rfc", Kind: FilterRFCLike},
			{Param: "num_cuenta", Column: "t.num_cuenta", Kind: FilterLike},
		},
		Fields: []Field{
			req(Field{Column: "persona_id", Kind: FieldRef}),
			req(Field{Column: "banco_id", Kind: FieldRef}),
			req(Field{Column: "num_cuenta", Kind: FieldClave}),
		},
	}

	Personas = &Resource{
		Module: "PERSONAS",
		Path:   "personas",
		Table:  "personas",
		Columns: []string{
			"t.rfc", "t.nombres", "t.apellido_primero", "t.apellido_segundo", "t.curp",
			"t.num_empleado", "t.modelo", "t.tabulador_id",
		},
		Order: "t.rfc",
		Filters: []Filter{
			{Param: "rfc", Column: "t.rfc", Kind: FilterRFCLike},
			{Param: "nombres", Column: "t.nombres", Kind: FilterLike},
			{Param: "apellido_primero", Column: "t.apellido_primero", Kind: FilterLike},
			{Param: "curp", Column: "t.curp", Kind: FilterRFCLike},
			{Param: "num_empleado", Column: "t.num_empleado", Kind: FilterInt},
			{Param: "modelo", Column: "t.modelo", Kind: FilterInt},
		},
		Fields: []Field{
			req(Field{Column: "rfc", Kind: FieldRFC}),
			req(Field{Column: "nombres", Kind: FieldString, MaxLen: 256}),
			req(Field{Column: "apellido_primero", Kind: FieldString, MaxLen: 256}),
			{Column: "apellido_segundo", Kind: FieldString, MaxLen: 256},
			{Column: "curp", Kind: FieldCURP},
			{Column: "num_empleado", Kind: FieldInt},
			{Column: "modelo", Kind: FieldInt},
			{Column: "tabulador_id", Kind: FieldRef},
		},
		Unique: []string{"rfc"},
	}

	CentrosTrabajos = claveDescripcion("CENTROS TRABAJOS", "centros_trabajos", "centros_trabajos")
	Puestos         = claveDescripcion("PUESTOS", "puestos", "puestos")
	Plazas          = claveDescripcion("PLAZAS", "plazas", "plazas")

	Tabuladores = &Resource{
		Module:  "TABULADORES",
		Path:    "tabuladores",
		Table:   "tabuladores",
		From:    "tabuladores t JOIN puestos p ON p.id = t.puesto_id",
		Columns: tabuladorColumns(),
		Order:   "p.clave, t.modelo, t.nivel, t.quinquenio",
		Filters: []Filter{
			{Param: "puesto_id", Column: "t.puesto_id", Kind: FilterInt},
			{Param: "puesto_clave", Column: "p.clave", Kind: FilterLike},
			{Param: "modelo", Column: "t.modelo", Kind: FilterInt},
			{Param: "nivel", Column: "t.nivel", Kind: FilterInt},
		},
		Fields: append([]Field{
			req(Field{Column: "puesto_id", Kind: FieldRef}),
			{Column: "modelo", Kind: FieldInt},
			{Column: "nivel", Kind: FieldInt},
			{Column: "quinquenio", Kind: FieldInt},
			req(Field{Column: "fecha", Kind: FieldDate}),
		}, fields(FieldDecimal, model.TabuladorAmountColumns...)...),
	}

	Quincenas = &Resource{
		Module:  "QUINCENAS",
		Path:    "quincenas",
		Table:   "quincenas",
		Columns: []string{"t.clave", "t.estado"},
		Order:   "t.clave DESC",
		Filters: []Filter{
			{Param: "clave", Column: "t.clave", Kind: FilterEqual},
			{Param: "estado", Column: "t.estado", Kind: FilterEqual},
		},
		Fields: []Field{
			req(Field{Column: "clave", Kind: FieldQuincena}),
			req(Field{Column: "estado", Kind: FieldClave}),
		},
		Unique: []string{"clave"},
	}

	Nominas = &Resource{
		Module: "NOMINAS",
		Path:   "nominas",
		Table:  "nominas",
		From: "nominas t" +
			" JOIN quincenas q ON q.id = t.quincena_id" +
			" JOIN personas p ON p.id = t.persona_id" +
			" JOIN centros_trabajos c ON c.id = t.centro_trabajo_id" +
			" JOIN plazas z ON z.id = t.plaza_id",
		Columns: []string{
			"q.clave AS quincena", "t.persona_id", "p.rfc AS persona_rfc", "p.nombres AS persona_nombres",
			"p.apellido_primero AS persona_apellido_primero", "p.apellido_segundo AS persona_apellido_segundo",
			"c.clave AS centro_trabajo_clave", "z.clave AS plaza_clave", "t.tipo",
			"t.percepcion", "t.deduccion", "t.importe", "t.tfd_uuid", "t.tfd_fecha_timbrado",
		},
		Order: "t.id DESC",
		Filters: []Filter{
			{Param: "quincena", Column: "q.clave", Kind: FilterEqual},
			{Param: "persona_id", Column: "t.persona_id", Kind: FilterInt},
			{Param: "persona_rfc", Column: "p.rfc", Kind: FilterRFCLike},
			{Param: "centro_trabajo_clave", Column: "c.clave", Kind: FilterLike},
			{Param: "tipo", Column: "t.tipo", Kind: FilterEqual},
		},
	}

	Usuarios = &Resource{
		Module: "USUARIOS",
		Path:   "usuarios",
		Table:  "usuarios",
		Columns: []string{
			"t.email", "t.nombres", "t.apellido_paterno", "t.apellido_materno", "t.curp",
			"t.puesto", "t.autoridad_clave", "t.api_key_expiracion",
		},
		Order: "t.email",
		Filters: []Filter{
			{Param: "email", Column: "t.email", Kind: FilterEmailLike},
			{Param: "nombres", Column: "t.nombres", Kind: FilterLike},
			{Param: "apellido_paterno", Column: "t.apellido_paterno", Kind: FilterLike},
			{Param: "puesto", Column: "t.puesto", Kind: FilterLike},
		},
		Fields: []Field{
			req(Field{Column: "email", Kind: FieldEmail}),
			req(Field{Column: "nombres", Kind: FieldString, MaxLen: 256}),
			req(Field{Column: "apellido_paterno", Kind: FieldString, MaxLen: 256}),
			{Column: "apellido_materno", Kind: FieldString, MaxLen: 256},
			{Column: "curp", Kind: FieldCURP},
			{Column: "puesto", Kind: FieldString, MaxLen: 256},
			{Column: "autoridad_clave", Kind: FieldClave},
		},
		Unique:   []string{"email"},
		Cascades: []Cascade{{Table: "usuarios_roles", ForeignKey: "usuario_id"}},
	}

	Roles = &Resource{
		Module:  "ROLES",
		Path:    "roles",
		Table:   "roles",
		Columns: []string{"t.nombre"},
		Order:   "t.nombre",
		Filters: []Filter{{Param: "nombre", Column: "t.nombre", Kind: FilterLike}},
		Fields:  []Field{req(Field{Column: "nombre", Kind: FieldString, MaxLen: 256})},
		Unique:  []string{"nombre"},
	}

	Modulos = &Resource{
		Module:  "MODULOS",
		Path:    "modulos",
		Table:   "modulos",
		Columns: []string{"t.nombre", "t.nombre_corto", "t.icono", "t.ruta", "t.en_navegacion"},
		Order:   "t.nombre",
		Filters: []Filter{{Param: "nombre", Column: "t.nombre", Kind: FilterLike}},
		Fields: []Field{
			req(Field{Column: "nombre", Kind: FieldString, MaxLen: 256}),
			req(Field{Column: "nombre_corto", Kind: FieldString, MaxLen: 64}),
			{Column: "icono", Kind: FieldString, MaxLen: 48},
			{Column: "ruta", Kind: FieldString, MaxLen: 64},
			{Column: "en_navegacion", Kind: FieldBool},
		},
		Unique: []string{"nombre"},
	}

	Permisos = &Resource{
		Module: "PERMISOS",
		Path:   "permisos",
		Table:  "permisos",
		From:   "permisos t JOIN roles r ON r.id = t.rol_id JOIN modulos m ON m.id = t.modulo_id",
		Columns: []string{
			"t.rol_id", "t.modulo_id", "t.nombre", "t.nivel",
			"r.nombre AS rol_nombre", "m.nombre AS modulo_nombre",
		},
		Order: "r.nombre, m.nombre",
		Filters: []Filter{
			{Param: "rol_id", Column: "t.rol_id", Kind: FilterInt},
			{Param: "modulo_id", Column: "t.modulo_id", Kind: FilterInt},
		},
		Fields: []Field{
			req(Field{Column: "rol_id", Kind: FieldRef}),
			req(Field{Column: "modulo_id", Kind: FieldRef}),
			req(Field{Column: "nombre", Kind: FieldString, MaxLen: 256}),
			req(Field{Column: "nivel", Kind: FieldInt}),
		},
	}

	UsuariosRoles = &Resource{
		Module: "USUARIOS ROLES",
		Path:   "usuarios_roles",
		Table:  "usuarios_roles",
		From:   "usuarios_roles t JOIN usuarios u ON u.id = t.usuario_id JOIN roles r ON r.id = t.rol_id",
		Columns: []string{
			"t.usuario_id", "t.rol_id", "t.descripcion",
			"u.email AS usuario_email", "r.nombre AS rol_nombre",
		},
		Filters: []Filter{
			{Param: "usuario_id", Column: "t.usuario_id", Kind: FilterInt},
			{Param: "rol_id", Column: "t.rol_id", Kind: FilterInt},
		},
		Fields: []Field{
			req(Field{Column: "usuario_id", Kind: FieldRef}),
			req(Field{Column: "rol_id", Kind: FieldRef}),
			{Column: "descripcion", Kind: FieldString, MaxLen: 256},
		},
	}

	Bitacoras = &Resource{
		Module: "BITACORAS",
		Path:   "bitacoras",
		Table:  "bitacoras",
		From:   "bitacoras t JOIN usuarios u ON u.id = t.usuario_id JOIN modulos m ON m.id = t.modulo_id",
		Columns: []string{
			"t.usuario_id", "t.modulo_id", "t.descripcion", "t.url",
			"u.email AS usuario_email", "m.nombre AS modulo_nombre",
		},
		Order: "t.id DESC",
		Filters: []Filter{
			{Param: "usuario_id", Column: "t.usuario_id", Kind: FilterInt},
			{Param: "usuario_email", Column: "u.email", Kind: FilterEmailLike},
			{Param: "modulo_id", Column: "t.modulo_id", Kind: FilterInt},
		},
	}

	EntradasSalidas = &Resource{
		Module:  "ENTRADAS SALIDAS",
		Path:    "entradas_salidas",
		Table:   "entradas_salidas",
		From:    "entradas_salidas t JOIN usuarios u ON u.id = t.usuario_id",
		Columns: []string{"t.usuario_id", "t.tipo", "t.direccion_ip", "u.email AS usuario_email"},
		Order:   "t.id DESC",
		Filters: []Filter{
			{Param: "usuario_id", Column: "t.usuario_id", Kind: FilterInt},
			{Param: "usuario_email", Column: "u.email", Kind: FilterEmailLike},
			{Param: "tipo", Column: "t.tipo", Kind: FilterEqual},
		},
	}
)

// Resources lists every catalog in navigation order.
var Resources = []*Resource{
	Bancos, Cuentas, Personas, CentrosTrabajos, Puestos, Plazas, Tabuladores, Quincenas,
	Nominas, Usuarios, Roles, Modulos, Permisos, UsuariosRoles, Bitacoras, EntradasSalidas,
}

func tabuladorColumns() []string {
	cols := []string{"t.puesto_id", "p.clave AS puesto_clave", "t.modelo", "t.nivel", "t.quinquenio", "t.fecha"}
	for _, c := range model.TabuladorAmountColumns {
		cols = append(cols, "t."+c)
	}
	return cols
}
