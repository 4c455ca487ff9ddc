package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver string
	DBDSN    string
	DBHost   string
	DBPort   string
	DBUser   string
	DBPass   string
	DBName   string

	ExplotacionBaseDir string
	TimbradosBaseDir   string
	OutputDir          string
	LogsDir            string

	EmisorRFC    string
	EmisorNombre string
	EmisorRegFis string

	Worker         int
	BufferSize     int
	TimeoutSeconds int

	HTTPAddr  string
	SecretKey string
	TZName    string

	FTP  FTPConfig
	Blob BlobConfig
}

type FTPConfig struct {
	Host                string
	Port                int
	Username            string
	Password            string
	RemoteDir           string
	FilePattern         string
	ArchiveDir          string
	DeleteAfterDownload bool
	MoveAfterDownload   bool
}

type BlobConfig struct {
	Driver      string
	FSRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(os.Getenv("FTP_PORT"))
	if port == 0 {
		port = 21
	}
	deleteAfterDownload, _ := strconv.ParseBool(os.Getenv("FTP_DELETE"))
	moveAfterDownload, _ := strconv.ParseBool(os.Getenv("FTP_MOVE"))
	pathStyle, _ := strconv.ParseBool(os.Getenv("BLOB_S3_PATH_STYLE"))

	return &Config{
		DBDriver: getenv("DB_DRIVER", "sqlserver"),
		DBDSN:    os.Getenv("DB_DSN"),
		DBHost:   os.Getenv("SQLSERVER_HOST"),
		DBPort:   getenv("SQLSERVER_PORT", "1433"),
		DBUser:   os.Getenv("SQLSERVER_USER"),
		DBPass:   os.Getenv("SQLSERVER_PASSWORD"),
		DBName:   os.Getenv("SQLSERVER_DB"),

		ExplotacionBaseDir: os.Getenv("EXPLOTACION_BASE_DIR"),
		TimbradosBaseDir:   os.Getenv("TIMBRADOS_BASE_DIR"),
		OutputDir:          getenv("OUTPUT_DIR", "."),
		LogsDir:            getenv("LOG_PATH", "logs"),

		EmisorRFC:    os.Getenv("CFDI_EMISOR_RFC"),
		EmisorNombre: os.Getenv("CFDI_EMISOR_NOMBRE"),
		EmisorRegFis: os.Getenv("CFDI_EMISOR_REGFIS"),

		Worker:         getint("WORKER_COUNT", 4),
		BufferSize:     getint("BUFFER_SIZE", 100),
		TimeoutSeconds: getint("TIMEOUT_SECONDS", 30),

		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		SecretKey: os.Getenv("SECRET_KEY"),
		TZName:    getenv("TZ_NAME", "America/Mexico_City"),

		FTP: FTPConfig{
			Host:                os.Getenv("FTP_HOST"),
			Port:                port,
			Username:            os.Getenv("FTP_USERNAME"),
			Password:            os.Getenv("FTP_PASSWORD"),
			RemoteDir:           os.Getenv("FTP_REMOTE_DIR"),
			FilePattern:         os.Getenv("FTP_FILE_PATTERN"),
			ArchiveDir:          os.Getenv("FTP_ARCHIVE_DIR"),
			DeleteAfterDownload: deleteAfterDownload,
			MoveAfterDownload:   moveAfterDownload,
		},

		Blob: BlobConfig{
			Driver:      getenv("BLOB_DRIVER", "none"),
			FSRoot:      getenv("BLOB_FS_ROOT", "blobdata"),
			S3Bucket:    os.Getenv("BLOB_S3_BUCKET"),
			S3Region:    os.Getenv("BLOB_S3_REGION"),
			S3Endpoint:  os.Getenv("BLOB_S3_ENDPOINT"),
			S3PathStyle: pathStyle,
		},
	}
}

// Requirement names one env key a command cannot run without.
type Requirement struct {
	Key   string
	Value func(*Config) string
}

var (
	NeedExplotacion  = Requirement{"EXPLOTACION_BASE_DIR", func(c *Config) string { return c.ExplotacionBaseDir }}
	NeedTimbrados    = Requirement{"TIMBRADOS_BASE_DIR", func(c *Config) string { return c.TimbradosBaseDir }}
	NeedEmisorRFC    = Requirement{"CFDI_EMISOR_RFC", func(c *Config) string { return c.EmisorRFC }}
	NeedEmisorNombre = Requirement{"CFDI_EMISOR_NOMBRE", func(c *Config) string { return c.EmisorNombre }}
	NeedEmisorRegFis = Requirement{"CFDI_EMISOR_REGFIS", func(c *Config) string { return c.EmisorRegFis }}
	NeedSecretKey    = Requirement{"SECRET_KEY", func(c *Config) string { return c.SecretKey }}
	NeedFTPHost      = Requirement{"FTP_HOST", func(c *Config) string { return c.FTP.Host }}
)

// Validate reports every missing key at once.
func (c *Config) Validate(need ...Requirement) error {
	var missing []string
	for _, r := range need {
		if strings.TrimSpace(r.Value(c)) == "" {
			missing = append(missing, r.Key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
