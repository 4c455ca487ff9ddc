package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNombreCompleto(t *testing.T) {
	p := Persona{Nombres: "JUAN CARLOS", ApellidoPrimero: "PEÑA", ApellidoSegundo: ""}
	assert.Equal(t, "JUAN CARLOS PEÑA", p.NombreCompleto())

	p.ApellidoSegundo = "LOPEZ"
	assert.Equal(t, "JUAN CARLOS PEÑA LOPEZ", p.NombreCompleto())
}

func TestUniversalActivo(t *testing.T) {
	u := Universal{Estatus: EstatusActivo}
	assert.True(t, u.Activo())
	u.Estatus = EstatusEliminado
	assert.False(t, u.Activo())
}
