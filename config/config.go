package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment
// variables, an optional .env file and CLI flags bound onto the same keys.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=fiscalpulse
//	REPORT_INPUT_EXT=.xml
//	REPORT_SOURCE_ENCODING=auto
//	REPORT_NOMINAL_RATES_FILE=rates.yaml
//	REPORT_PDF_FONT=/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf
//	PERSIST_ENABLED=true
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Report   ReportConfig
	Persist  bool // store finalized runs in Postgres
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string
	MaxUploadMB int // upload limit of POST /api/v1/reports
}

// PostgresConfig defines connection details for PostgreSQL. URL is the
// computed DSN used by database/sql.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// ReportConfig controls how archives are read and reports rendered.
type ReportConfig struct {
	InputExt         string // extension of export files inside the archive
	SourceEncoding   string // auto | utf-8 | windows-1251
	NominalRatesFile string // optional YAML percent table
	PDFFont          string // UTF-8 TTF used for PDF output
}

// Viper keys shared by LoadConfig and the CLI flag bindings.
const (
	KeyServerPort       = "SERVER_PORT"
	KeyMaxUploadMB      = "REPORT_MAX_UPLOAD_MB"
	KeyInputExt         = "REPORT_INPUT_EXT"
	KeySourceEncoding   = "REPORT_SOURCE_ENCODING"
	KeyNominalRatesFile = "REPORT_NOMINAL_RATES_FILE"
	KeyPDFFont          = "REPORT_PDF_FONT"
	KeyPersistEnabled   = "PERSIST_ENABLED"
)

var validEncodings = []string{"auto", "utf-8", "utf8", "windows-1251", "cp1251"}

// AppConfig is the globally accessible configuration instance, populated by LoadConfig.
var AppConfig Config

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//  4. CLI flags bound with viper.BindPFlag.
//
// validateConfig terminates the process when a required value is missing.
func LoadConfig() {
	viper.SetDefault(KeyServerPort, "8080")
	viper.SetDefault(KeyMaxUploadMB, 64)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "fiscalpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault(KeyInputExt, ".xml")
	viper.SetDefault(KeySourceEncoding, "auto")
	viper.SetDefault(KeyNominalRatesFile, "")
	viper.SetDefault(KeyPDFFont, "")
	viper.SetDefault(KeyPersistEnabled, false)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:        viper.GetString(KeyServerPort),
			MaxUploadMB: viper.GetInt(KeyMaxUploadMB),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Report: ReportConfig{
			InputExt:         viper.GetString(KeyInputExt),
			SourceEncoding:   strings.ToLower(viper.GetString(KeySourceEncoding)),
			NominalRatesFile: viper.GetString(KeyNominalRatesFile),
			PDFFont:          viper.GetString(KeyPDFFont),
		},
		Persist: viper.GetBool(KeyPersistEnabled),
	}

	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// Problems lists missing or invalid settings. Postgres settings are only
// required when persistence is enabled.
func (c Config) Problems() []string {
	var problems []string

	if c.Server.Port == "" {
		problems = append(problems, KeyServerPort)
	}
	if c.Server.MaxUploadMB <= 0 {
		problems = append(problems, KeyMaxUploadMB)
	}
	if c.Report.InputExt == "" {
		problems = append(problems, KeyInputExt)
	}
	if !validEncoding(c.Report.SourceEncoding) {
		problems = append(problems, KeySourceEncoding)
	}

	if c.Persist {
		if c.Postgres.Host == "" {
			problems = append(problems, "POSTGRES_HOST")
		}
		if c.Postgres.Port == 0 {
			problems = append(problems, "POSTGRES_PORT")
		}
		if c.Postgres.User == "" {
			problems = append(problems, "POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			problems = append(problems, "POSTGRES_PASSWORD")
		}
		if c.Postgres.DBName == "" {
			problems = append(problems, "POSTGRES_DB")
		}
	}
	return problems
}

func validEncoding(enc string) bool {
	for _, v := range validEncodings {
		if enc == v {
			return true
		}
	}
	return false
}

// validateConfig terminates the application when AppConfig has problems.
func validateConfig() {
	if problems := AppConfig.Problems(); len(problems) > 0 {
		log.Fatalf("missing or invalid configuration: %v\n", problems)
	}
}
