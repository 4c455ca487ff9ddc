package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"perseo/internal/model"
)

func payrollRow(rfc, nombre string, despensa bool) []string {
	cells := make([]string, 241)
	cells[colCentroTrabajo] = "ct01"
	cells[colRFC] = rfc
	cells[colNombre] = nombre
	cells[colPlaza] = "0701 E0001"
	cells[colPercepcion] = "1250050"
	cells[colDeduccion] = "250050.0"
	cells[colImporte] = "1000000"
	cells[colModelo] = "3"
	cells[colNumEmpleado] = "4521"
	cells[26], cells[27] = "P", "07"
	if despensa {
		cells[32], cells[33] = "P", "ME"
	}
	return cells
}

func TestParseRow(t *testing.T) {
	g := Grid{
		{"header"},
		payrollRow("loma800101ab1", "lópez martínez ana maría", false),
		payrollRow("PEÑA800101AB2", "PEÑA SOTO LUIS", true),
	}

	r, err := ParseRow(g, 1)
	require.NoError(t, err)
	assert.Equal(t, "CT01", r.CentroTrabajoClave)
	assert.Equal(t, "LOMA800101AB1", r.RFC)
	assert.Equal(t, "LOPEZ", r.ApellidoPrimero)
	assert.Equal(t, "MARTINEZ", r.ApellidoSegundo)
	assert.Equal(t, "ANA MARIA", r.Nombres)
	assert.Equal(t, "0701 E0001", r.PlazaClave)
	assert.Equal(t, "12500.50", r.Percepcion.StringFixed(2))
	assert.Equal(t, "2500.50", r.Deduccion.StringFixed(2))
	assert.Equal(t, "10000.00", r.Importe.StringFixed(2))
	assert.Equal(t, 3, r.Modelo)
	assert.Equal(t, 4521, r.NumEmpleado)
	assert.Equal(t, model.TipoSalario, r.Tipo)

	r, err = ParseRow(g, 2)
	require.NoError(t, err)
	assert.Equal(t, "PEÑA", r.ApellidoPrimero)
	assert.Equal(t, model.TipoDespensa, r.Tipo)
}

func TestParseRowCutsClaves(t *testing.T) {
	cells := payrollRow("LOMA800101AB1", "LOPEZ MARTINEZ ANA", false)
	cells[colPlaza] = "0701 E0001 00.0 080100"
	cells[colCentroTrabajo] = "CT01-CENTRO-NORTE-2"

	r, err := ParseRow(Grid{{"header"}, cells}, 1)
	require.NoError(t, err)
	assert.Equal(t, "0701 E0001 00.0", r.PlazaClave)
	assert.Len(t, r.PlazaClave, 15)
	assert.Equal(t, "CT01-CENTRO-NORT", r.CentroTrabajoClave)
}

func TestParseRowErrors(t *testing.T) {
	g := Grid{{}, {}}
	_, err := ParseRow(g, 1)
	assert.Error(t, err)

	bad := payrollRow("LOMA800101AB1", "X Y Z", false)
	bad[colImporte] = "mucho"
	_, err = ParseRow(Grid{{}, bad}, 1)
	assert.ErrorContains(t, err, "importe")
}

func TestGridOutOfRange(t *testing.T) {
	g := Grid{{"a"}}
	assert.Equal(t, "", g.Cell(0, 5))
	assert.Equal(t, "", g.Cell(3, 0))
	assert.Equal(t, "a", g.Cell(0, 0))
}

func TestOpenSheetXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NominaFmt2.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	row := payrollRow("LOMA800101AB1", "LOPEZ MARTINEZ ANA", true)
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"encabezado"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &values))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	g, err := OpenSheet(path)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Rows())

	r, err := ParseRow(g, 1)
	require.NoError(t, err)
	assert.Equal(t, "LOMA800101AB1", r.RFC)
	assert.Equal(t, model.TipoDespensa, r.Tipo)
	assert.Equal(t, 4521, r.NumEmpleado)
}

func TestOpenSheetUnsupported(t *testing.T) {
	_, err := OpenSheet("nomina.csv")
	assert.Error(t, err)
}

func TestOpenSheetXLSXNamedXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NominaFmt2.XLS")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]any{"encabezado", "CT01"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	g, err := OpenSheet(path)
	require.NoError(t, err)
	assert.Equal(t, "CT01", g.Cell(0, 1))
}
