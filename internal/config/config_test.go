package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("BLOB_DRIVER", "")
	t.Setenv("FTP_PORT", "")

	cfg := Load()
	assert.Equal(t, "sqlserver", cfg.DBDriver)
	assert.Equal(t, 4, cfg.Worker)
	assert.Equal(t, "none", cfg.Blob.Driver)
	assert.Equal(t, 21, cfg.FTP.Port)
	assert.Equal(t, "America/Mexico_City", cfg.TZName)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("FTP_MOVE", "true")
	t.Setenv("BLOB_S3_PATH_STYLE", "true")
	t.Setenv("CFDI_EMISOR_RFC", "PJE901211TI9")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 8, cfg.Worker)
	assert.True(t, cfg.FTP.MoveAfterDownload)
	assert.True(t, cfg.Blob.S3PathStyle)
	assert.Equal(t, "PJE901211TI9", cfg.EmisorRFC)
}

func TestValidate(t *testing.T) {
	cfg := &Config{ExplotacionBaseDir: "/data"}
	require.NoError(t, cfg.Validate(NeedExplotacion))

	err := cfg.Validate(NeedExplotacion, NeedTimbrados, NeedSecretKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMBRADOS_BASE_DIR")
	assert.Contains(t, err.Error(), "SECRET_KEY")
	assert.NotContains(t, err.Error(), "EXPLOTACION_BASE_DIR")
}
