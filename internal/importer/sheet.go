// Package importer reads the payroll spreadsheet produced by the payroll
// system (NominaFmt2) into rows ready to be stored.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Sheet is a read-only grid of cells addressed from zero.
type Sheet interface {
	Rows() int
	Cell(row, col int) string
}

// Grid is an in-memory Sheet. It is safe for concurrent readers.
type Grid [][]string

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// OpenSheet loads the first sheet of a .xls or .xlsx workbook. A .xls file
// holding an OOXML package is read as .xlsx.
func OpenSheet(path string) (Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		if isZip(path) {
			return openXLSX(path)
		}
		return openXLS(path)
	case ".xlsx":
		return openXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet %s", filepath.Base(path))
	}
}

func isZip(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return bytes.Equal(magic, []byte("PK\x03\x04"))
}

func openXLS(path string) (grid Grid, err error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls %s: %w", path, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%s has no sheets", path)
	}

	// broken BIFF records make the reader panic instead of failing
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("read xls %s: %v", path, r)
		}
	}()

	grid = make(Grid, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol()+1)
		for j := row.FirstCol(); j <= row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		grid[i] = cells
	}
	return grid, nil
}

func openXLSX(path string) (Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx %s: %w", path, err)
	}
	return Grid(rows), nil
}
