package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Store    StoreConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Engine   EngineConfig
	Defaults DefaultsConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Version  string
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type StoreConfig struct {
	Driver      string
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// EngineConfig tunes the aggregation engine.
type EngineConfig struct {
	ClockSkewTolerance      time.Duration
	TodayPaddingDays        int
	IngestConcurrency       int
	MaxRangeDays            int
	SettingsRefreshInterval time.Duration
	NotifyWorkers           int
	NotifyQueueSize         int
}

// DefaultsConfig seeds AppSettings on first boot.
type DefaultsConfig struct {
	IdleThresholdSeconds      int
	ScreenshotIntervalSeconds int
	StandardClockInTime       string
	MaxUsersAllowed           int
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}
	var errs []error

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "attendance-engine"),
		Version:  getEnv("APP_VERSION", "v1.0.0"),
		Port:     getEnvInt("APP_PORT", 8080, &errs),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432, &errs),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25, &errs)),
		MinConns: int32(getEnvInt("DB_MIN_CONNS", 5, &errs)),
	}

	config.Store = StoreConfig{
		Driver:      strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		AutoMigrate: getEnvBool("STORE_AUTO_MIGRATE", true, &errs),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.Engine = EngineConfig{
		ClockSkewTolerance:      getEnvDuration("ENGINE_CLOCK_SKEW_TOLERANCE", 2*time.Minute, &errs),
		TodayPaddingDays:        getEnvInt("ENGINE_TODAY_PADDING_DAYS", 0, &errs),
		IngestConcurrency:       getEnvInt("ENGINE_INGEST_CONCURRENCY", 8, &errs),
		MaxRangeDays:            getEnvInt("ENGINE_MAX_RANGE_DAYS", 366, &errs),
		SettingsRefreshInterval: getEnvDuration("ENGINE_SETTINGS_REFRESH_INTERVAL", time.Minute, &errs),
		NotifyWorkers:           getEnvInt("ENGINE_NOTIFY_WORKERS", 2, &errs),
		NotifyQueueSize:         getEnvInt("ENGINE_NOTIFY_QUEUE_SIZE", 1000, &errs),
	}

	config.Defaults = DefaultsConfig{
		IdleThresholdSeconds:      getEnvInt("DEFAULT_IDLE_THRESHOLD_SECONDS", 300, &errs),
		ScreenshotIntervalSeconds: getEnvInt("DEFAULT_SCREENSHOT_INTERVAL_SECONDS", 600, &errs),
		StandardClockInTime:       getEnv("DEFAULT_STANDARD_CLOCK_IN_TIME", "09:00"),
		MaxUsersAllowed:           getEnvInt("DEFAULT_MAX_USERS_ALLOWED", 100, &errs),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: %s, %s", StoreMemory, StorePostgres)
	}

	if c.Engine.TodayPaddingDays < 0 {
		return fmt.Errorf("ENGINE_TODAY_PADDING_DAYS must not be negative")
	}
	if c.Engine.IngestConcurrency <= 0 {
		return fmt.Errorf("ENGINE_INGEST_CONCURRENCY must be positive")
	}
	if c.Engine.MaxRangeDays <= 0 {
		return fmt.Errorf("ENGINE_MAX_RANGE_DAYS must be positive")
	}
	if c.Engine.SettingsRefreshInterval <= 0 {
		return fmt.Errorf("ENGINE_SETTINGS_REFRESH_INTERVAL must be positive")
	}

	defaults := c.DefaultSettings()
	update := settings.UpdateSettingsRequest{
		IdleThresholdSeconds:      &defaults.IdleThresholdSeconds,
		ScreenshotIntervalSeconds: &defaults.ScreenshotIntervalSeconds,
		StandardClockInTime:       &defaults.StandardClockInTime,
		MaxUsersAllowed:           &defaults.MaxUsersAllowed,
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("invalid DEFAULT_* settings: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DefaultSettings builds the AppSettings persisted on first boot.
func (c *Config) DefaultSettings() settings.AppSettings {
	s := settings.DefaultAppSettings()
	s.IdleThresholdSeconds = c.Defaults.IdleThresholdSeconds
	s.ScreenshotIntervalSeconds = c.Defaults.ScreenshotIntervalSeconds
	s.StandardClockInTime = c.Defaults.StandardClockInTime
	s.MaxUsersAllowed = c.Defaults.MaxUsersAllowed
	return s
}

// SlogLevel maps LOG_LEVEL onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
