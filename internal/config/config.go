// Package config loads application settings from command line flags and
// environment variables, validates them, and exposes them as a Config value.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	UploadsDir          string        `env:"UPLOADS_DIR"`

	GeocoderAPIURL  string        `env:"GEOCODER_API_URL" validate:"url"`
	GeocoderAPIKey  string        `env:"GEOCODER_API_KEY"`
	GeocoderTimeout time.Duration `env:"GEOCODER_TIMEOUT"`

	// AuthTokenSigningSecretKey is the base64-encoded HMAC key used to sign
	// and verify bearer tokens.
	AuthTokenSigningSecretKey string        `env:"AUTH_TOKEN_SIGNING_SECRET_KEY"`
	AuthTokenTTL              time.Duration `env:"AUTH_TOKEN_TTL"`

	ImageQueueCapacity       int           `env:"IMAGE_QUEUE_CAPACITY"`
	DelayBetweenQueueFetches time.Duration `env:"DELAY_BETWEEN_QUEUE_FETCHES"`
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command line flag parsing.
// Used by tests, which own the flag set.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds a Config from defaults, command line flags, and environment
// variables, in increasing order of precedence, and validates the result.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{
		RunAddr:             ":8080",
		LogLevel:            "info",
		DBFileName:          "",
		DatabaseDSN:         "",
		DBConnectionTimeout: 10 * time.Second,
		MigrationsDir:       "migrations",
		UploadsDir:          "uploads/images",

		GeocoderAPIURL:  "https://maps.googleapis.com/maps/api/geocode/json",
		GeocoderAPIKey:  "",
		GeocoderTimeout: 5 * time.Second,

		AuthTokenSigningSecretKey: "c3VwZXJzZWNyZXRrZXk=",
		AuthTokenTTL:              time.Hour,

		ImageQueueCapacity:       64,
		DelayBetweenQueueFetches: 5 * time.Second,
	}

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.DBFileName, "f", cfg.DBFileName, "JSON file name with database")
		flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "A string with the database connection details")
		flag.StringVar(&cfg.UploadsDir, "u", cfg.UploadsDir, "directory for uploaded place images")
		flag.StringVar(&cfg.GeocoderAPIKey, "g", cfg.GeocoderAPIKey, "API key for the geocoding provider")
		flag.Parse()
	}

	var valuesFromEnv Config
	err = env.Parse(&valuesFromEnv)
	if err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		cfg.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		cfg.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.DBFileName != "" {
		cfg.DBFileName = valuesFromEnv.DBFileName
	}

	if valuesFromEnv.DatabaseDSN != "" {
		cfg.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		cfg.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.MigrationsDir != "" {
		cfg.MigrationsDir = valuesFromEnv.MigrationsDir
	}

	if valuesFromEnv.UploadsDir != "" {
		cfg.UploadsDir = valuesFromEnv.UploadsDir
	}

	if valuesFromEnv.GeocoderAPIURL != "" {
		cfg.GeocoderAPIURL = valuesFromEnv.GeocoderAPIURL
	}

	if valuesFromEnv.GeocoderAPIKey != "" {
		cfg.GeocoderAPIKey = valuesFromEnv.GeocoderAPIKey
	}

	if valuesFromEnv.GeocoderTimeout != 0 {
		cfg.GeocoderTimeout = valuesFromEnv.GeocoderTimeout
	}

	if valuesFromEnv.AuthTokenSigningSecretKey != "" {
		cfg.AuthTokenSigningSecretKey = valuesFromEnv.AuthTokenSigningSecretKey
	}

	if valuesFromEnv.AuthTokenTTL != 0 {
		cfg.AuthTokenTTL = valuesFromEnv.AuthTokenTTL
	}

	if valuesFromEnv.ImageQueueCapacity != 0 {
		cfg.ImageQueueCapacity = valuesFromEnv.ImageQueueCapacity
	}

	if valuesFromEnv.DelayBetweenQueueFetches != 0 {
		cfg.DelayBetweenQueueFetches = valuesFromEnv.DelayBetweenQueueFetches
	}

	return cfg, cfg.validate()
}
