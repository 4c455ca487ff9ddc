package model

import (
	"strings"
	"time"
)

type Usuario struct {
	Universal
	AutoridadClave   string    `json:"autoridad_clave"`
	Email            string    `json:"email"`
	Nombres          string    `json:"nombres"`
	ApellidoPaterno  string    `json:"apellido_paterno"`
	ApellidoMaterno  string    `json:"apellido_materno"`
	CURP             string    `json:"curp"`
	Puesto           string    `json:"puesto"`
	APIKey           string    `json:"-"`
	APIKeyExpiracion time.Time `json:"api_key_expiracion"`
	Contrasena       string    `json:"-"`
}

func (u Usuario) Nombre() string {
	return strings.TrimSpace(strings.Join([]string{u.Nombres, u.ApellidoPaterno, u.ApellidoMaterno}, " "))
}

type Rol struct {
	Universal
	Nombre string `json:"nombre"`
}

type Modulo struct {
	Universal
	Nombre       string `json:"nombre"`
	NombreCorto  string `json:"nombre_corto"`
	Icono        string `json:"icono"`
	Ruta         string `json:"ruta"`
	EnNavegacion bool   `json:"en_navegacion"`
}

type Permiso struct {
	Universal
	RolID    int64  `json:"rol_id"`
	ModuloID int64  `json:"modulo_id"`
	Nombre   string `json:"nombre"`
	Nivel    int    `json:"nivel"`
}

type UsuarioRol struct {
	Universal
	UsuarioID   int64  `json:"usuario_id"`
	RolID       int64  `json:"rol_id"`
	Descripcion string `json:"descripcion"`
}
