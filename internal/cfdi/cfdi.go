// Package cfdi reads stamped CFDI 4.0 payroll receipts.
package cfdi

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

const (
	NamespaceCFDI   = "http://www.sat.gob.mx/cfd/4"
	NamespaceTFD    = "http://www.sat.gob.mx/TimbreFiscalDigital"
	NamespaceNomina = "http://www.sat.gob.mx/nomina12"

	// TimeLayout is how SAT writes dates without zone.
	TimeLayout = "2006-01-02T15:04:05"
)

var ErrNotComprobante = errors.New("root element is not a CFDI 4.0 Comprobante")

type Comprobante struct {
	Version     string      `xml:"Version,attr"`
	Serie       string      `xml:"Serie,attr"`
	Folio       string      `xml:"Folio,attr"`
	Fecha       string      `xml:"Fecha,attr"`
	Total       string      `xml:"Total,attr"`
	Emisor      Emisor      `xml:"http://www.sat.gob.mx/cfd/4 Emisor"`
	Receptor    Receptor    `xml:"http://www.sat.gob.mx/cfd/4 Receptor"`
	Complemento Complemento `xml:"http://www.sat.gob.mx/cfd/4 Complemento"`
}

type Emisor struct {
	Rfc           string `xml:"Rfc,attr"`
	Nombre        string `xml:"Nombre,attr"`
	RegimenFiscal string `xml:"RegimenFiscal,attr"`
}

type Receptor struct {
	Rfc    string `xml:"Rfc,attr"`
	Nombre string `xml:"Nombre,attr"`
}

type Complemento struct {
	Timbre *TimbreFiscalDigital `xml:"http://www.sat.gob.mx/TimbreFiscalDigital TimbreFiscalDigital"`
	Nomina *Nomina              `xml:"http://www.sat.gob.mx/nomina12 Nomina"`
}

type TimbreFiscalDigital struct {
	Version          string `xml:"Version,attr"`
	UUID             string `xml:"UUID,attr"`
	FechaTimbrado    string `xml:"FechaTimbrado,attr"`
	SelloCFD         string `xml:"SelloCFD,attr"`
	NoCertificadoSAT string `xml:"NoCertificadoSAT,attr"`
	SelloSAT         string `xml:"SelloSAT,attr"`
}

// Fecha parses FechaTimbrado.
func (t *TimbreFiscalDigital) Fecha() (time.Time, error) {
	return time.Parse(TimeLayout, t.FechaTimbrado)
}

type Nomina struct {
	Version           string         `xml:"Version,attr"`
	TipoNomina        string         `xml:"TipoNomina,attr"`
	FechaPago         string         `xml:"FechaPago,attr"`
	FechaInicialPago  string         `xml:"FechaInicialPago,attr"`
	FechaFinalPago    string         `xml:"FechaFinalPago,attr"`
	NumDiasPagados    string         `xml:"NumDiasPagados,attr"`
	TotalPercepciones string         `xml:"TotalPercepciones,attr"`
	TotalDeducciones  string         `xml:"TotalDeducciones,attr"`
	TotalOtrosPagos   string         `xml:"TotalOtrosPagos,attr"`
	Receptor          NominaReceptor `xml:"http://www.sat.gob.mx/nomina12 Receptor"`
}

type NominaReceptor struct {
	Curp        string `xml:"Curp,attr"`
	NumEmpleado string `xml:"NumEmpleado,attr"`
}

// Parse decodes a receipt. The root must be cfdi:Comprobante in the 4.0 namespace.
func Parse(r io.Reader) (*Comprobante, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNotComprobante
			}
			return nil, fmt.Errorf("read xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space != NamespaceCFDI || start.Name.Local != "Comprobante" {
			return nil, fmt.Errorf("%w: <%s %s>", ErrNotComprobante, start.Name.Space, start.Name.Local)
		}

		var c Comprobante
		if err := d.DecodeElement(&c, &start); err != nil {
			return nil, fmt.Errorf("decode comprobante: %w", err)
		}
		return &c, nil
	}
}

// RFCFromFilename takes the receiver RFC encoded in the first 13 characters
// of the file name.
func RFCFromFilename(name string) string {
	base := filepath.Base(name)
	if len(base) > 13 {
		base = base[:13]
	}
	return base
}

// Issuer is the expected emisor of every receipt.
type Issuer struct {
	RFC           string
	Nombre        string
	RegimenFiscal string
}

type Problem string

const (
	ProblemNone          Problem = ""
	ProblemNoReceptorRFC Problem = "no tiene RFC del receptor"
	ProblemReceptorRFC   Problem = "el RFC del receptor no coincide con el nombre del archivo"
	ProblemEmisorRFC     Problem = "el RFC del emisor no coincide"
	ProblemEmisorNombre  Problem = "el nombre del emisor no coincide"
	ProblemEmisorRegimen Problem = "el régimen fiscal del emisor no coincide"
)

// Check validates a receipt against the file it came from and the expected
// issuer. Values are compared as written; an unset issuer field matches no
// receipt. A receipt without TimbreFiscalDigital passes.
func Check(c *Comprobante, fileRFC string, issuer Issuer) Problem {
	switch {
	case c.Receptor.Rfc == "":
		return ProblemNoReceptorRFC
	case c.Receptor.Rfc != fileRFC:
		return ProblemReceptorRFC
	case issuer.RFC == "" || c.Emisor.Rfc != issuer.RFC:
		return ProblemEmisorRFC
	case issuer.Nombre == "" || c.Emisor.Nombre != issuer.Nombre:
		return ProblemEmisorNombre
	case issuer.RegimenFiscal == "" || c.Emisor.RegimenFiscal != issuer.RegimenFiscal:
		return ProblemEmisorRegimen
	}
	return ProblemNone
}
