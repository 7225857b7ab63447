package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	AppURL              string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	JWTExpiry           time.Duration
	SendgridAPIKey      string
	EmailFromAddress    string
	EmailFromName       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	StatsCacheTTL       time.Duration
	ReportSweepSpec     string
	CleanupSpec         string
	NotificationMaxAge  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassTrack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.url", "http://localhost:8080")
	v.SetDefault("email.from_name", "ClassTrack")
	v.SetDefault("cloudinary.folder", "classtrack/avatars")
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("report.sweep_spec", "* * * * *")
	v.SetDefault("cleanup.spec", "30 2 * * *")
	v.SetDefault("notification.max_age", "168h")

	ttl, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	expiry, err := time.ParseDuration(v.GetString("jwt.expiry"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt expiry: %w", err)
	}

	maxAge, err := time.ParseDuration(v.GetString("notification.max_age"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid notification max age: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		AppURL:              v.GetString("app.url"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		JWTExpiry:           expiry,
		SendgridAPIKey:      v.GetString("sendgrid.api_key"),
		EmailFromAddress:    v.GetString("email.from_address"),
		EmailFromName:       v.GetString("email.from_name"),
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),
		StatsCacheTTL:       ttl,
		ReportSweepSpec:     v.GetString("report.sweep_spec"),
		CleanupSpec:         v.GetString("cleanup.spec"),
		NotificationMaxAge:  maxAge,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
