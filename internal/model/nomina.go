package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type NominaTipo string

const (
	TipoSalario    NominaTipo = "SALARIO"
	TipoDespensa   NominaTipo = "DESPENSA"
	TipoAguinaldo  NominaTipo = "AGUINALDO"
	TipoApoyoAnual NominaTipo = "APOYO ANUAL"
)

var NominaTipos = []NominaTipo{TipoSalario, TipoDespensa, TipoAguinaldo, TipoApoyoAnual}

type Nomina struct {
	Universal
	QuincenaID      int64           `json:"quincena_id"`
	PersonaID       int64           `json:"persona_id"`
	CentroTrabajoID int64           `json:"centro_trabajo_id"`
	PlazaID         int64           `json:"plaza_id"`
	Tipo            NominaTipo      `json:"tipo"`
	Percepcion      decimal.Decimal `json:"percepcion"`
	Deduccion       decimal.Decimal `json:"deduccion"`
	Importe         decimal.Decimal `json:"importe"`

	Timbrado
}

// Timbrado is the stamp data copied from the CFDI TimbreFiscalDigital.
type Timbrado struct {
	TFDVersion       string     `json:"tfd_version"`
	TFDUUID          string     `json:"tfd_uuid"`
	TFDFechaTimbrado *time.Time `json:"tfd_fecha_timbrado,omitempty"`
	TFDSelloCFD      string     `json:"tfd_sello_cfd"`
	TFDNumCertSAT    string     `json:"tfd_num_cert_sat"`
	TFDSelloSAT      string     `json:"tfd_sello_sat"`
	TFD              string     `json:"-"`
}

// NominaDetalle is a pay stub joined with the catalogs the exports print.
type NominaDetalle struct {
	Nomina
	QuincenaClave      string  `json:"quincena_clave"`
	CentroTrabajoClave string  `json:"centro_trabajo_clave"`
	PlazaClave         string  `json:"plaza_clave"`
	Persona            Persona `json:"persona"`
}
