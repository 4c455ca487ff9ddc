package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perseo/internal/model"
)

func TestValidateQuincena(t *testing.T) {
	q, err := ValidateQuincena(" 202405 ")
	require.NoError(t, err)
	assert.Equal(t, "202405", q)

	for _, bad := range []string{"199901", "202425", "202400", "2024-5"} {
		_, err := ValidateQuincena(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, bad)
	}
}

func TestSplitNombreCompleto(t *testing.T) {
	a1, a2, n := SplitNombreCompleto("peña gómez maría josé")
	assert.Equal(t, "PEÑA", a1)
	assert.Equal(t, "GOMEZ", a2)
	assert.Equal(t, "MARIA JOSE", n)

	a1, a2, n = SplitNombreCompleto("SOTO LUNA")
	assert.Equal(t, []string{"SOTO", "LUNA", ""}, []string{a1, a2, n})

	a1, a2, n = SplitNombreCompleto("")
	assert.Equal(t, []string{"", "", ""}, []string{a1, a2, n})
}

func row(cells map[int]string) func(int) string {
	return func(col int) string { return cells[col] }
}

func TestClassifyRow(t *testing.T) {
	assert.Equal(t, model.TipoSalario, ClassifyRow(row(nil)))

	assert.Equal(t, model.TipoDespensa, ClassifyRow(row(map[int]string{
		26: "P", 27: "07",
		32: "p", 33: " me",
	})))

	// an empty tipo ends the scan
	assert.Equal(t, model.TipoSalario, ClassifyRow(row(map[int]string{
		26: "P", 27: "07",
		38: "P", 39: "ME",
	})))

	// last pair starts at column 236
	assert.Equal(t, model.TipoDespensa, ClassifyRow(func(col int) string {
		if col == 236 {
			return "P"
		}
		if col == 237 {
			return "ME"
		}
		return "D"
	}))
}

func cuenta(num, banco string) model.Cuenta {
	return model.Cuenta{NumCuenta: num, Banco: &model.Banco{Clave: banco}}
}

func TestAccounts(t *testing.T) {
	cuentas := []model.Cuenta{cuenta("111", "9"), cuenta("222", "12"), cuenta("333", "2")}

	c, ok := SalaryAccount(cuentas)
	require.True(t, ok)
	assert.Equal(t, "222", c.NumCuenta)

	c, ok = GroceryAccount(cuentas)
	require.True(t, ok)
	assert.Equal(t, "111", c.NumCuenta)

	_, ok = SalaryAccount(cuentas[:1])
	assert.False(t, ok)
	_, ok = GroceryAccount(nil)
	assert.False(t, ok)
}

func TestCheckNumber(t *testing.T) {
	assert.Equal(t, "020000015", CheckNumber("2", 15))
	assert.Equal(t, "120001234", CheckNumber("12", 1234))
	assert.Equal(t, "1230000001", CheckNumber("123", 1))
}

func TestDispersal(t *testing.T) {
	assert.Equal(t, "0524", DispersalReference("202405"))
	assert.Equal(t, "QUINCENA 05 PENSIONADOS", DispersalConcept("202405"))
}

func TestParseTipoAndStampDir(t *testing.T) {
	tipo, err := ParseTipo("apoyo anual")
	require.NoError(t, err)
	assert.Equal(t, model.TipoApoyoAnual, tipo)

	_, err = ParseTipo("DESPENSA")
	assert.Error(t, err)

	assert.Equal(t, "202405", StampDir("202405", model.TipoSalario))
	assert.Equal(t, "202424Aguinaldos", StampDir("202424", model.TipoAguinaldo))
	assert.Equal(t, "202401ApoyosAnuales", StampDir("202401", model.TipoApoyoAnual))
}

func TestCentsToAmount(t *testing.T) {
	d, err := CentsToAmount("150075")
	require.NoError(t, err)
	assert.Equal(t, "1500.75", d.StringFixed(2))
}
