package model

import "time"

type Bitacora struct {
	Universal
	ModuloID    int64  `json:"modulo_id"`
	UsuarioID   int64  `json:"usuario_id"`
	Descripcion string `json:"descripcion"`
	URL         string `json:"url"`
}

const (
	EntradaIngreso = "INGRESO"
	EntradaSalio   = "SALIO"
)

type EntradaSalida struct {
	Universal
	UsuarioID   int64  `json:"usuario_id"`
	Tipo        string `json:"tipo"`
	DireccionIP string `json:"direccion_ip"`
}

const (
	JobRunning = "RUNNING"
	JobDone    = "DONE"
	JobFailed  = "FAILED"
)

type JobRun struct {
	ID           int64      `json:"id"`
	ProcessID    string     `json:"process_id"`
	Job          string     `json:"job"`
	Quincena     string     `json:"quincena"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
