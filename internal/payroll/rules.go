// Package payroll holds the rules shared by the payroll import and the bank exports.
package payroll

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"perseo/internal/model"
	"perseo/internal/utils"
)

var ErrInvalidPeriod = errors.New("quincena inválida")

const (
	// PensionerModel marks retirees; they get their own exports.
	PensionerModel = 3

	// BancoMonederoClave is the grocery card issuer.
	BancoMonederoClave = "9"

	conceptoDespensa = "PME"
	firstConceptCol  = 26
	lastConceptCol   = 236
	conceptColStep   = 6
)

// ValidateQuincena accepts 20YYNN with NN from 01 to 24.
func ValidateQuincena(clave string) (string, error) {
	q, err := utils.SafeQuincena(clave)
	if err != nil || q[:2] != "20" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, clave)
	}
	return q, nil
}

// SplitNombreCompleto returns the first surname, the second surname and the
// given names of a "APELLIDO APELLIDO NOMBRES" string.
func SplitNombreCompleto(nombreCompleto string) (apellidoPrimero, apellidoSegundo, nombres string) {
	parts := strings.Split(utils.SafeString(nombreCompleto, utils.DefaultMaxLen, true), " ")
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], parts[1], ""
	}
	return parts[0], parts[1], strings.Join(parts[2:], " ")
}

// ClassifyRow walks the concept pairs of a payroll row. A "P"+"ME" pair means
// the row pays grocery vouchers, anything else is salary.
func ClassifyRow(cell func(col int) string) model.NominaTipo {
	for col := firstConceptCol; col <= lastConceptCol; col += conceptColStep {
		tipo := utils.SafeString(cell(col), utils.DefaultMaxLen, false)
		if tipo == "" {
			break
		}
		conc := utils.SafeString(cell(col+1), utils.DefaultMaxLen, false)
		if tipo+conc == conceptoDespensa {
			return model.TipoDespensa
		}
	}
	return model.TipoSalario
}

// SalaryAccount picks the first account not held at the grocery card issuer.
func SalaryAccount(cuentas []model.Cuenta) (model.Cuenta, bool) {
	for _, c := range cuentas {
		if c.Banco != nil && c.Banco.Clave != BancoMonederoClave {
			return c, true
		}
	}
	return model.Cuenta{}, false
}

// GroceryAccount picks the first account held at the grocery card issuer.
func GroceryAccount(cuentas []model.Cuenta) (model.Cuenta, bool) {
	for _, c := range cuentas {
		if c.Banco != nil && c.Banco.Clave == BancoMonederoClave {
			return c, true
		}
	}
	return model.Cuenta{}, false
}

// CheckNumber is the bank key padded to two digits followed by the counter
// padded to seven.
func CheckNumber(bancoClave string, consecutivo int) string {
	clave := bancoClave
	if len(clave) < 2 {
		clave = strings.Repeat("0", 2-len(clave)) + clave
	}
	return clave + fmt.Sprintf("%07d", consecutivo)
}

// DispersalReference is the period number followed by the two digit year.
func DispersalReference(quincena string) string {
	return quincena[len(quincena)-2:] + quincena[2:4]
}

func DispersalConcept(quincena string) string {
	return "QUINCENA " + quincena[len(quincena)-2:] + " PENSIONADOS"
}

// ParseTipo normalizes a stamp type argument.
func ParseTipo(s string) (model.NominaTipo, error) {
	t := model.NominaTipo(utils.SafeString(s, utils.DefaultMaxLen, false))
	switch t {
	case model.TipoSalario, model.TipoAguinaldo, model.TipoApoyoAnual:
		return t, nil
	}
	return "", fmt.Errorf("tipo inválido: %q", s)
}

// StampDir is the folder name holding the stamped receipts of a period.
func StampDir(quincena string, tipo model.NominaTipo) string {
	switch tipo {
	case model.TipoApoyoAnual:
		return quincena + "ApoyosAnuales"
	case model.TipoAguinaldo:
		return quincena + "Aguinaldos"
	}
	return quincena
}

// CentsToAmount converts an integer cents cell into pesos.
func CentsToAmount(raw string) (decimal.Decimal, error) {
	return utils.ParseCents(raw)
}
