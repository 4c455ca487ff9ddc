// Package exporter writes the bank payment spreadsheets.
package exporter

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"perseo/internal/utils"
)

type Layout struct {
	Prefix  string
	Headers []string
}

var nominaHeaders = []string{
	"QUINCENA",
	"CENTRO DE TRABAJO",
	"RFC",
	"NOMBRE COMPLETO",
	"NUMERO DE EMPLEADO",
	"MODELO",
	"PLAZA",
	"NOMBRE DEL BANCO",
	"BANCO ADMINISTRADOR",
	"NUMERO DE CUENTA",
	"MONTO A DEPOSITAR",
	"NO DE CHEQUE",
}

var (
	Nominas     = Layout{Prefix: "nominas", Headers: nominaHeaders}
	Pensionados = Layout{Prefix: "pensionados", Headers: nominaHeaders}
	Monederos   = Layout{Prefix: "monederos", Headers: []string{
		"CT_CLASIF",
		"RFC",
		"TOT NET CHEQUE",
		"NUM CHEQUE",
		"NUM TARJETA",
		"QUINCENA",
		"MODELO",
	}}
	DispersionesPensionados = Layout{Prefix: "dispersiones_pensionados", Headers: []string{
		"CONSECUTIVO",
		"FORMA DE PAGO",
		"TIPO DE CUENTA",
		"BANCO RECEPTOR",
		"CUENTA ABONO",
		"IMPORTE PAGO",
		"CLAVE BENEFICIARIO",
		"RFC",
		"NOMBRE",
		"REFERENCIA PAGO",
		"CONCEPTO PAGO",
	}}
)

// Writer streams rows into the first sheet of a new workbook.
type Writer struct {
	layout Layout
	file   *excelize.File
	stream *excelize.StreamWriter
	rows   int
	// next sheet row, 1-based; the header takes row 1
	next int
}

func New(layout Layout) (*Writer, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(f.GetSheetName(0))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	w := &Writer{layout: layout, file: f, stream: sw, next: 1}
	header := make([]any, len(layout.Headers))
	for i, h := range layout.Headers {
		header[i] = h
	}
	if err := w.write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// Append adds one data row. Decimals are written as numbers.
func (w *Writer) Append(values ...any) error {
	if len(values) != len(w.layout.Headers) {
		return fmt.Errorf("%s row has %d values, want %d", w.layout.Prefix, len(values), len(w.layout.Headers))
	}
	row := make([]any, len(values))
	for i, v := range values {
		if d, ok := v.(decimal.Decimal); ok {
			row[i] = d.Round(2).InexactFloat64()
			continue
		}
		row[i] = v
	}
	if err := w.write(row); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) write(row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(cell, row); err != nil {
		return fmt.Errorf("%s row %d: %w", w.layout.Prefix, w.next, err)
	}
	w.next++
	return nil
}

// Rows is the number of data rows written so far.
func (w *Writer) Rows() int { return w.rows }

// Save writes {prefix}_{quincena}_{YYYY-MM-DD_HHMMSS}.xlsx into dir.
func (w *Writer) Save(dir, quincena string, now time.Time) (string, error) {
	if err := w.stream.Flush(); err != nil {
		return "", fmt.Errorf("flush %s: %w", w.layout.Prefix, err)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, utils.TimestampedName(w.layout.Prefix, quincena, ".xlsx", now))
	if err := w.file.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) Close() error {
	return w.file.Close()
}
