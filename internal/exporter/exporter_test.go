package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriterSave(t *testing.T) {
	w, err := New(Monederos)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append("J", "LOMA800101AB1", decimal.RequireFromString("1500.755"), "090000001", "5555", "202405", 1))
	assert.Equal(t, 1, w.Rows())

	dir := t.TempDir()
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	path, err := w.Save(dir, "202405", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "monederos_202405_2024-03-05_140709.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Monederos.Headers, rows[0])
	assert.Equal(t, "LOMA800101AB1", rows[1][1])
	assert.Equal(t, "1500.76", rows[1][2])
	assert.Equal(t, "090000001", rows[1][3])
}

func TestWriterRowsFollowHeader(t *testing.T) {
	w, err := New(Nominas)
	require.NoError(t, err)
	defer w.Close()

	for i, rfc := range []string{"LOMA800101AB1", "PEGJ700101XY2", "RUSR800101AB3"} {
		values := make([]any, len(Nominas.Headers))
		for j := range values {
			values[j] = ""
		}
		values[0] = rfc
		values[1] = i + 1
		require.NoError(t, w.Append(values...), rfc)
	}
	assert.Equal(t, 3, w.Rows())

	path, err := w.Save(t.TempDir(), "202405", time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Nominas.Headers, rows[0])
	assert.Equal(t, "LOMA800101AB1", rows[1][0])
	assert.Equal(t, "PEGJ700101XY2", rows[2][0])
	assert.Equal(t, "RUSR800101AB3", rows[3][0])
	assert.Equal(t, "3", rows[3][1])
}

func TestAppendChecksWidth(t *testing.T) {
	w, err := New(DispersionesPensionados)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Append(1, "04"))
	assert.Equal(t, 0, w.Rows())
}

func TestLayouts(t *testing.T) {
	assert.Len(t, Nominas.Headers, 12)
	assert.Equal(t, Nominas.Headers, Pensionados.Headers)
	assert.Len(t, DispersionesPensionados.Headers, 11)
	assert.Equal(t, "dispersiones_pensionados", DispersionesPensionados.Prefix)
}
