// Package config reads application configuration from environment
// variables, with a .env file loaded when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ImportConfig tunes the statement import pipeline. The PDF knobs exist
// because line height and font metrics vary bank to bank; the defaults
// suit the common retail statement layouts.
type ImportConfig struct {
	PDFRowTolerance    float64
	PDFCellGap         float64
	HeaderScanRows     int
	MinDescriptionLen  int
	DuplicateThreshold float64
}

// Load reads configuration from environment variables. A missing .env
// file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "finly-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Import: ImportConfig{
			PDFRowTolerance:    getEnvAsFloat("IMPORT_PDF_ROW_TOLERANCE", 2.0),
			PDFCellGap:         getEnvAsFloat("IMPORT_PDF_CELL_GAP", 6.0),
			HeaderScanRows:     getEnvAsInt("IMPORT_HEADER_SCAN_ROWS", 5),
			MinDescriptionLen:  getEnvAsInt("IMPORT_MIN_DESCRIPTION_LEN", 3),
			DuplicateThreshold: getEnvAsFloat("IMPORT_DUPLICATE_THRESHOLD", 0.7),
		},
	}

	if cfg.Import.DuplicateThreshold <= 0 || cfg.Import.DuplicateThreshold > 1 {
		return nil, fmt.Errorf("IMPORT_DUPLICATE_THRESHOLD must be in (0, 1], got %v", cfg.Import.DuplicateThreshold)
	}
	if cfg.Import.PDFRowTolerance <= 0 {
		return nil, fmt.Errorf("IMPORT_PDF_ROW_TOLERANCE must be positive, got %v", cfg.Import.PDFRowTolerance)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
