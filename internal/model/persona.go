package model

import "strings"

type Persona struct {
	Universal
	RFC             string `json:"rfc"`
	Nombres         string `json:"nombres"`
	ApellidoPrimero string `json:"apellido_primero"`
	ApellidoSegundo string `json:"apellido_segundo"`
	CURP            string `json:"curp"`
	NumEmpleado     int    `json:"num_empleado"`
	Modelo          int    `json:"modelo"`
	TabuladorID     *int64 `json:"tabulador_id,omitempty"`
}

func (p Persona) NombreCompleto() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Nombres, p.ApellidoPrimero, p.ApellidoSegundo} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

type Cuenta struct {
	Universal
	PersonaID int64  `json:"persona_id"`
	BancoID   int64  `json:"banco_id"`
	NumCuenta string `json:"num_cuenta"`

	// filled by joins
	Banco *Banco `json:"banco,omitempty"`
}
