package importer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"perseo/internal/model"
	"perseo/internal/payroll"
	"perseo/internal/utils"
)

// FirstDataRow skips the header row.
const FirstDataRow = 1

// column positions in NominaFmt2
const (
	colCentroTrabajo = 1
	colRFC           = 2
	colNombre        = 3
	colPlaza         = 8
	colPercepcion    = 12
	colDeduccion     = 13
	colImporte       = 14
	colModelo        = 236
	colNumEmpleado   = 240
)

// claves longer than the catalogs allow are cut
const (
	centroClaveLen = 16
	plazaClaveLen  = 16
)

type PayrollRow struct {
	Line               int
	CentroTrabajoClave string
	RFC                string
	NombreCompleto     string
	ApellidoPrimero    string
	ApellidoSegundo    string
	Nombres            string
	PlazaClave         string
	Percepcion         decimal.Decimal
	Deduccion          decimal.Decimal
	Importe            decimal.Decimal
	Modelo             int
	NumEmpleado        int
	Tipo               model.NominaTipo
}

func ParseRow(s Sheet, row int) (PayrollRow, error) {
	cell := func(col int) string { return s.Cell(row, col) }

	out := PayrollRow{
		Line:               row,
		CentroTrabajoClave: utils.SafeString(cell(colCentroTrabajo), centroClaveLen, false),
		RFC:                utils.SafeString(cell(colRFC), 13, true),
		NombreCompleto:     utils.SafeString(cell(colNombre), utils.DefaultMaxLen, true),
		PlazaClave:         utils.SafeString(cell(colPlaza), plazaClaveLen, false),
		Tipo:               payroll.ClassifyRow(cell),
	}
	if out.RFC == "" {
		return out, fmt.Errorf("row %d: empty rfc", row)
	}
	out.ApellidoPrimero, out.ApellidoSegundo, out.Nombres = payroll.SplitNombreCompleto(out.NombreCompleto)

	var err error
	if out.Percepcion, err = payroll.CentsToAmount(cell(colPercepcion)); err != nil {
		return out, fmt.Errorf("row %d percepcion: %w", row, err)
	}
	if out.Deduccion, err = payroll.CentsToAmount(cell(colDeduccion)); err != nil {
		return out, fmt.Errorf("row %d deduccion: %w", row, err)
	}
	if out.Importe, err = payroll.CentsToAmount(cell(colImporte)); err != nil {
		return out, fmt.Errorf("row %d importe: %w", row, err)
	}
	if out.Modelo, err = utils.ParseInt(cell(colModelo)); err != nil {
		return out, fmt.Errorf("row %d modelo: %w", row, err)
	}
	if out.NumEmpleado, err = utils.ParseInt(cell(colNumEmpleado)); err != nil {
		return out, fmt.Errorf("row %d num_empleado: %w", row, err)
	}
	return out, nil
}
