package model

import "time"

const (
	EstatusActivo    = "A"
	EstatusEliminado = "B"
)

// Universal holds the columns every table carries.
type Universal struct {
	ID         int64     `json:"id"`
	Creado     time.Time `json:"creado"`
	Modificado time.Time `json:"modificado"`
	Estatus    string    `json:"estatus"`
}

func (u Universal) Activo() bool {
	return u.Estatus == EstatusActivo
}

// NewUniversal stamps a new active record.
func NewUniversal(now time.Time) Universal {
	return Universal{Creado: now, Modificado: now, Estatus: EstatusActivo}
}
