package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	CheckIn  CheckInConfig
	Labels   LabelsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig governs kiosk device token issuance.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CheckInConfig supplies installation-level defaults for the check-in engine.
// A row in the checkin_configurations table overrides these per installation.
type CheckInConfig struct {
	SearchMode            string
	MinPhoneLength        int
	MaxPhoneLength        int
	PhoneSearchType       string
	MaxResults            int
	PreventInactivePeople bool
	AutoSelectMode        string
	AutoSelectDaysBack    int
	CanCheckInRoleIDs     []string
	ReferenceCacheTTL     time.Duration
}

// LabelsConfig tunes name-tag rendering.
type LabelsConfig struct {
	Enabled      bool
	Organization string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		Secret:     v.GetString("KIOSK_TOKEN_SECRET"),
		Expiration: parseDuration(v.GetString("KIOSK_TOKEN_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("KIOSK_TOKEN_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CheckIn = CheckInConfig{
		SearchMode:            v.GetString("CHECKIN_SEARCH_MODE"),
		MinPhoneLength:        v.GetInt("CHECKIN_MIN_PHONE_LENGTH"),
		MaxPhoneLength:        v.GetInt("CHECKIN_MAX_PHONE_LENGTH"),
		PhoneSearchType:       v.GetString("CHECKIN_PHONE_SEARCH_TYPE"),
		MaxResults:            v.GetInt("CHECKIN_MAX_RESULTS"),
		PreventInactivePeople: v.GetBool("CHECKIN_PREVENT_INACTIVE_PEOPLE"),
		AutoSelectMode:        v.GetString("CHECKIN_AUTO_SELECT_MODE"),
		AutoSelectDaysBack:    v.GetInt("CHECKIN_AUTO_SELECT_DAYS_BACK"),
		CanCheckInRoleIDs:     splitAndTrim(v.GetString("CHECKIN_CAN_CHECK_IN_ROLE_IDS")),
		ReferenceCacheTTL:     parseDuration(v.GetString("CHECKIN_REFERENCE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Labels = LabelsConfig{
		Enabled:      v.GetBool("ENABLE_LABELS"),
		Organization: v.GetString("LABELS_ORGANIZATION"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "checkin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KIOSK_TOKEN_SECRET", "dev_secret")
	v.SetDefault("KIOSK_TOKEN_EXPIRATION", "12h")
	v.SetDefault("KIOSK_TOKEN_ISSUER", "checkin-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CHECKIN_SEARCH_MODE", "name_or_phone")
	v.SetDefault("CHECKIN_MIN_PHONE_LENGTH", 4)
	v.SetDefault("CHECKIN_MAX_PHONE_LENGTH", 10)
	v.SetDefault("CHECKIN_PHONE_SEARCH_TYPE", "ends_with")
	v.SetDefault("CHECKIN_MAX_RESULTS", 100)
	v.SetDefault("CHECKIN_PREVENT_INACTIVE_PEOPLE", false)
	v.SetDefault("CHECKIN_AUTO_SELECT_MODE", "people_and_slot")
	v.SetDefault("CHECKIN_AUTO_SELECT_DAYS_BACK", 8)
	v.SetDefault("CHECKIN_CAN_CHECK_IN_ROLE_IDS", "")
	v.SetDefault("CHECKIN_REFERENCE_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_LABELS", true)
	v.SetDefault("LABELS_ORGANIZATION", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
