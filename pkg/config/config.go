package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Lock backends for decision serialization.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Governance    GovernanceConfig
	Notifications NotificationConfig
	Archive       ArchiveConfig
	Settings      SettingsConfig
	Metrics       MetricsConfig
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

	RunMigrations bool
	MigrationsDir string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GovernanceConfig controls how review decisions are serialized.
type GovernanceConfig struct {
	LockBackend string
	LockTTL     time.Duration
}

// NotificationConfig configures out-of-band push delivery of notifications.
type NotificationConfig struct {
	PushEnabled bool
	WebhookURL  string
	Workers     int
	Retries     int
	Timeout     time.Duration
}

// ArchiveConfig signs shareable links to archived requests.
type ArchiveConfig struct {
	LinkSecret string
	LinkTTL    time.Duration
	BaseURL    string
}

// SettingsConfig governs caching of rule tables and name tables.
type SettingsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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

		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	lockBackend := strings.ToLower(strings.TrimSpace(v.GetString("GOVERNANCE_LOCK_BACKEND")))
	if lockBackend != LockBackendRedis {
		lockBackend = LockBackendMemory
	}
	cfg.Governance = GovernanceConfig{
		LockBackend: lockBackend,
		LockTTL:     parseDuration(v.GetString("GOVERNANCE_LOCK_TTL"), 10*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		PushEnabled: v.GetBool("ENABLE_PUSH"),
		WebhookURL:  v.GetString("PUSH_WEBHOOK_URL"),
		Workers:     v.GetInt("PUSH_WORKERS"),
		Retries:     v.GetInt("PUSH_RETRIES"),
		Timeout:     parseDuration(v.GetString("PUSH_TIMEOUT"), 5*time.Second),
	}

	cfg.Archive = ArchiveConfig{
		LinkSecret: v.GetString("ARCHIVE_LINK_SECRET"),
		LinkTTL:    parseDuration(v.GetString("ARCHIVE_LINK_TTL"), 7*24*time.Hour),
		BaseURL:    strings.TrimRight(v.GetString("ARCHIVE_BASE_URL"), "/"),
	}

	cfg.Settings = SettingsConfig{
		CacheEnabled: v.GetBool("ENABLE_SETTINGS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("SETTINGS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

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
	v.SetDefault("DB_NAME", "bureau_roster")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", false)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "bureau-roster-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GOVERNANCE_LOCK_BACKEND", LockBackendMemory)
	v.SetDefault("GOVERNANCE_LOCK_TTL", "10s")

	v.SetDefault("ENABLE_PUSH", false)
	v.SetDefault("PUSH_WEBHOOK_URL", "")
	v.SetDefault("PUSH_WORKERS", 2)
	v.SetDefault("PUSH_RETRIES", 3)
	v.SetDefault("PUSH_TIMEOUT", "5s")

	v.SetDefault("ARCHIVE_LINK_SECRET", "dev_archive_secret")
	v.SetDefault("ARCHIVE_LINK_TTL", "168h")
	v.SetDefault("ARCHIVE_BASE_URL", "http://localhost:8080/api/v1/shared/archive")

	v.SetDefault("ENABLE_SETTINGS_CACHE", false)
	v.SetDefault("SETTINGS_CACHE_TTL", "10m")
	v.SetDefault("ENABLE_METRICS", true)
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
