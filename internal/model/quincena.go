package model

const (
	QuincenaAbierta = "ABIERTA"
	QuincenaCerrada = "CERRADA"
)

type Quincena struct {
	Universal
	Clave  string `json:"clave"`
	Estado string `json:"estado"`
}

func (q Quincena) Abierta() bool {
	return q.Estado == QuincenaAbierta
}
