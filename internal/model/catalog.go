package model

type Banco struct {
	Universal
	Clave                      string `json:"clave"`
	Nombre                     string `json:"nombre"`
	ClaveDispersionPensionados string `json:"clave_dispersion_pensionados"`
	Consecutivo                int    `json:"consecutivo"`
	ConsecutivoGenerado        int    `json:"consecutivo_generado"`
}

type CentroTrabajo struct {
	Universal
	Clave       string `json:"clave"`
	Descripcion string `json:"descripcion"`
}

type Puesto struct {
	Universal
	Clave       string `json:"clave"`
	Descripcion string `json:"descripcion"`
}

type Plaza struct {
	Universal
	Clave       string `json:"clave"`
	Descripcion string `json:"descripcion"`
}

// ND is the description given to catalogs created while importing payroll.
const ND = "ND"
