package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds everything the server needs to run. Values come from the
// environment, with an optional .env file for local development.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// CORSOrigins is a comma-separated allowlist for the back-office UI.
	CORSOrigins []string

	// TaxRatePercent applies to every order subtotal. Jurisdiction
	// dependent, so it is configuration rather than a code constant.
	TaxRatePercent decimal.Decimal

	// DeliveryFee is the flat fee charged on DELIVERY orders when the
	// rate lookup has no better answer.
	DeliveryFee decimal.Decimal

	Catalog  UpstreamConfig
	OrderAPI UpstreamConfig
}

// UpstreamConfig points at one of the REST collaborators.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8082")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TAX_RATE_PERCENT", "21")
	viper.SetDefault("DELIVERY_FEE", "0")

	viper.AutomaticEnv()

	// .env is optional; plain env vars are enough in deployment.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	taxRate, err := decimal.NewFromString(getEnvOrViper("TAX_RATE_PERCENT", "21"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE_PERCENT: %w", err)
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE_PERCENT must be >= 0")
	}

	deliveryFee, err := decimal.NewFromString(getEnvOrViper("DELIVERY_FEE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_FEE: %w", err)
	}
	if deliveryFee.IsNegative() {
		return nil, fmt.Errorf("DELIVERY_FEE must be >= 0")
	}

	cfg := &Config{
		Port:           getEnvOrViper("PORT", "8082"),
		Environment:    getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:       getEnvOrViper("LOG_LEVEL", "info"),
		CORSOrigins:    splitOrigins(getEnvOrViper("CORS_ORIGINS", "http://localhost:5173")),
		TaxRatePercent: taxRate,
		DeliveryFee:    deliveryFee,
		Catalog: UpstreamConfig{
			BaseURL: getEnvOrViper("CATALOG_API_URL", "http://localhost:8080"),
			Timeout: getDuration("CATALOG_TIMEOUT", 10*time.Second),
		},
		OrderAPI: UpstreamConfig{
			BaseURL: getEnvOrViper("ORDER_API_URL", "http://localhost:8081"),
			Timeout: getDuration("SUBMIT_TIMEOUT", 15*time.Second),
		},
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getDuration(key string, fallback time.Duration) time.Duration {
	s := getEnvOrViper(key, "")
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
