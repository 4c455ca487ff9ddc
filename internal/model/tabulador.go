package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tabulador struct {
	Universal
	PuestoID   int64 `json:"puesto_id"`
	Modelo     int   `json:"modelo"`
	Nivel      int   `json:"nivel"`
	Quinquenio int   `json:"quinquenio"`

	SueldoBase                      decimal.Decimal `json:"sueldo_base"`
	Incentivo                       decimal.Decimal `json:"incentivo"`
	Monedero                        decimal.Decimal `json:"monedero"`
	RecCulDep                       decimal.Decimal `json:"rec_cul_dep"`
	Sobresueldo                     decimal.Decimal `json:"sobresueldo"`
	RecDepCulGravado                decimal.Decimal `json:"rec_dep_cul_gravado"`
	RecDepCulExcento                decimal.Decimal `json:"rec_dep_cul_excento"`
	AyudaTransp                     decimal.Decimal `json:"ayuda_transp"`
	MontoQuinquenio                 decimal.Decimal `json:"monto_quinquenio"`
	TotalPercepciones               decimal.Decimal `json:"total_percepciones"`
	SalarioDiario                   decimal.Decimal `json:"salario_diario"`
	PrimaVacacionalMensual          decimal.Decimal `json:"prima_vacacional_mensual"`
	AguinaldoMensual                decimal.Decimal `json:"aguinaldo_mensual"`
	PrimaVacacionalMensualAdicional decimal.Decimal `json:"prima_vacacional_mensual_adicional"`
	TotalPercepcionesIntegrado      decimal.Decimal `json:"total_percepciones_integrado"`
	SalarioDiarioIntegrado          decimal.Decimal `json:"salario_diario_integrado"`

	Fecha time.Time `json:"fecha"`
}

// Amounts lists the money columns in table order.
func (t *Tabulador) Amounts() []*decimal.Decimal {
	return []*decimal.Decimal{
		&t.SueldoBase, &t.Incentivo, &t.Monedero, &t.RecCulDep, &t.Sobresueldo,
		&t.RecDepCulGravado, &t.RecDepCulExcento, &t.AyudaTransp, &t.MontoQuinquenio,
		&t.TotalPercepciones, &t.SalarioDiario, &t.PrimaVacacionalMensual, &t.AguinaldoMensual,
		&t.PrimaVacacionalMensualAdicional, &t.TotalPercepcionesIntegrado, &t.SalarioDiarioIntegrado,
	}
}

var TabuladorAmountColumns = []string{
	"sueldo_base", "incentivo", "monedero", "rec_cul_dep", "sobresueldo",
	"rec_dep_cul_gravado", "rec_dep_cul_excento", "ayuda_transp", "monto_quinquenio",
	"total_percepciones", "salario_diario", "prima_vacacional_mensual", "aguinaldo_mensual",
	"prima_vacacional_mensual_adicional", "total_percepciones_integrado", "salario_diario_integrado",
}
