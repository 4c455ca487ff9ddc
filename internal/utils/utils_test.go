package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeString(t *testing.T) {
	assert.Equal(t, "PENA LOPEZ, JOSE", SafeString("  peña   lópez, josé ", DefaultMaxLen, false))
	assert.Equal(t, "PEÑA LOPEZ JOSE", SafeString("peña lópez josé", DefaultMaxLen, true))
	assert.Equal(t, "ABC", SafeString("abcdef", 3, false))
	assert.Equal(t, "", SafeString("   ", DefaultMaxLen, false))
	assert.Equal(t, "PME", SafeString("P", 0, false)+SafeString(" me ", 0, false))
	assert.Equal(t, "CALLE 5, COL. CENTRO: A/B; (X)", SafeString("calle 5, col. centro: a/b; (x)", DefaultMaxLen, false))
}

func TestSafeStringPunctuation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a-b", "A-B"},
		{"a.b", "A.B"},
		{"a,b", "A,B"},
		{"a:b", "A:B"},
		{"a;b", "A;B"},
		{"a/b", "A/B"},
		{"(a)", "(A)"},
		{"a\\b", "A B"},
		{"a#b", "A B"},
		{"a_b", "A B"},
		{"a'b", "A B"},
		{"a\tb", "A B"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeString(tt.in, DefaultMaxLen, false))
		})
	}
}

func TestSafeClave(t *testing.T) {
	c, err := SafeClave(" ct-01 ")
	require.NoError(t, err)
	assert.Equal(t, "CT-01", c)

	_, err = SafeClave("")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = SafeClave("ABCDEFGHIJKLMNOPQ")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSafeEmail(t *testing.T) {
	e, err := SafeEmail(" Admin@Example.COM ", false)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", e)

	_, err = SafeEmail("no-at-sign", false)
	assert.ErrorIs(t, err, ErrInvalid)

	frag, err := SafeEmail("adm in'", true)
	require.NoError(t, err)
	assert.Equal(t, "admin", frag)
}

func TestSafeRFC(t *testing.T) {
	r, err := SafeRFC("peña800101ab1", false)
	require.NoError(t, err)
	assert.Equal(t, "PEÑA800101AB1", r)

	_, err = SafeRFC("XYZ", false)
	assert.ErrorIs(t, err, ErrInvalid)

	frag, err := SafeRFC("pe-ña", true)
	require.NoError(t, err)
	assert.Equal(t, "PEÑA", frag)
}

func TestSafeQuincena(t *testing.T) {
	for _, ok := range []string{"202401", "202324", "202412"} {
		_, err := SafeQuincena(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"202400", "202425", "20241", "2024AB", ""} {
		_, err := SafeQuincena(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestSafeMessage(t *testing.T) {
	assert.Equal(t, "Nuevo Usuario a@b.mx", SafeMessage("Nuevo   Usuario\n a@b.mx", 256))
	assert.Equal(t, "abcd...", SafeMessage("abcdefghij", 7))
}

func TestValidContrasena(t *testing.T) {
	assert.True(t, ValidContrasena("Secreto123"))
	assert.False(t, ValidContrasena("secreto123"))
	assert.False(t, ValidContrasena("Corta1"))
	assert.False(t, ValidContrasena("Secreto 123"))
}

func TestParseNumbers(t *testing.T) {
	d, err := ParseCents("1234567")
	require.NoError(t, err)
	assert.Equal(t, "12345.67", d.StringFixed(2))

	d, err = ParseCents("1500.0")
	require.NoError(t, err)
	assert.Equal(t, "15.00", d.StringFixed(2))

	n, err := ParseInt("3.0")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	d, err = ParseNumber("1.234,56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", d.String())

	d, err = ParseNumber("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseInt("abc")
	assert.Error(t, err)
}

func TestMoveFileAddsTimestampOnClash(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dst, "a.xml"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.xml"), []byte("new"), 0644))

	moved, err := MoveFile(filepath.Join(src, "a.xml"), dst)
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Join(dst, "a.xml"), moved)
	assert.FileExists(t, moved)
}

func TestRequireFileAndDir(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, RequireFile(dir))
	assert.NoError(t, RequireDir(dir))
	assert.Error(t, RequireDir(filepath.Join(dir, "missing")))

	f := filepath.Join(dir, "NominaFmt2.XLS")
	require.NoError(t, os.WriteFile(f, nil, 0644))
	assert.NoError(t, RequireFile(f))
}

func TestTimestampedName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "nominas_202405_2024-03-05_140709.xlsx", TimestampedName("nominas", "202405", ".xlsx", now))
}
