package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "perseo.sqlite"))
	t.Setenv("LOG_PATH", filepath.Join(dir, "logs"))
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "salida"))
	t.Setenv("EXPLOTACION_BASE_DIR", filepath.Join(dir, "explotacion"))
	t.Setenv("TIMBRADOS_BASE_DIR", "")
	t.Setenv("BLOB_DRIVER", "memory")

	out, err := run(t, "", "db", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Tablas creadas.")

	out, err = run(t, "", "db", "seed", "--email", "Admin@Example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Usuario admin@example.com creado con la contraseña")

	out, err = run(t, "", "db", "seed", "--email", "admin@example.com")
	require.NoError(t, err)
	assert.NotContains(t, out, "creado")

	out, err = run(t, "", "usuarios", "nueva-api-key", "admin@example.com", "--dias", "10")
	require.NoError(t, err)
	assert.Regexp(t, `API key: \S+\.\S+\.[0-9a-f]{32}`, out)

	out, err = run(t, "", "usuarios", "mostrar-api-key", "nadie@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "No existe el e-mail nadie@example.com en usuarios")

	out, err = run(t, "Nueva1234\nOtra12345\n", "usuarios", "nueva-contrasena", "admin@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "No son iguales las contraseñas")

	out, err = run(t, "Nueva1234\nNueva1234\n", "usuarios", "nueva-contrasena", "admin@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Se ha cambiado la contraseña de admin@example.com en usuarios")

	out, err = run(t, "", "nominas", "alimentar", "202405")
	require.NoError(t, err)
	assert.Contains(t, out, "AVISO:")

	_, err = run(t, "", "nominas", "generar-nominas", "2024")
	assert.Error(t, err)

	_, err = run(t, "", "timbrados", "actualizar", "202405")
	assert.ErrorContains(t, err, "TIMBRADOS_BASE_DIR")
}
