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

// Configuration errors are fatal at startup.
var (
	ErrMissingSecret       = errors.New("JWT_SECRET is required")
	ErrMissingIssuer       = errors.New("JWT_ISSUER is required")
	ErrMissingAudience     = errors.New("JWT_AUDIENCE is required")
	ErrInvalidLifetime     = errors.New("JWT_EXPIRATION_MINUTES must be positive")
	ErrMissingAdminLogin   = errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	ErrInvalidStoreTimeout = errors.New("REVOCATION_STORE_TIMEOUT must be positive")
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Revocation RevocationConfig
	CORS       CORSConfig
	Log        LogConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig carries the signing material and claim constraints for session tokens.
type JWTConfig struct {
	Secret            string
	SecretEncoding    string
	Issuer            string
	Audience          string
	ExpirationMinutes int
}

// Lifetime returns the configured token lifetime.
func (c JWTConfig) Lifetime() time.Duration {
	return time.Duration(c.ExpirationMinutes) * time.Minute
}

// AdminConfig holds the single operator credential accepted by login.
type AdminConfig struct {
	Email    string
	Password string
}

// RevocationConfig tunes the revocation store and its maintenance job.
type RevocationConfig struct {
	StoreTimeout  time.Duration
	PruneEnabled  bool
	PruneSchedule string
	PruneRetries  int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		SecretEncoding:    v.GetString("JWT_SECRET_ENCODING"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Audience:          v.GetString("JWT_AUDIENCE"),
		ExpirationMinutes: v.GetInt("JWT_EXPIRATION_MINUTES"),
	}

	cfg.Admin = AdminConfig{
		Email:    v.GetString("ADMIN_EMAIL"),
		Password: v.GetString("ADMIN_PASSWORD"),
	}

	cfg.Revocation = RevocationConfig{
		StoreTimeout:  parseDuration(v.GetString("REVOCATION_STORE_TIMEOUT"), 3*time.Second),
		PruneEnabled:  v.GetBool("REVOCATION_PRUNE_ENABLED"),
		PruneSchedule: v.GetString("REVOCATION_PRUNE_SCHEDULE"),
		PruneRetries:  v.GetInt("REVOCATION_PRUNE_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

// Validate reports settings the process must not start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingSecret
	}
	if strings.TrimSpace(c.JWT.Issuer) == "" {
		return ErrMissingIssuer
	}
	if strings.TrimSpace(c.JWT.Audience) == "" {
		return ErrMissingAudience
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return ErrInvalidLifetime
	}
	if c.Admin.Email == "" || c.Admin.Password == "" {
		return ErrMissingAdminLogin
	}
	if c.Revocation.StoreTimeout <= 0 {
		return ErrInvalidStoreTimeout
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/auth")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "auth_service")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	// JWT_SECRET has no default: a missing secret must stop the process.
	v.SetDefault("JWT_SECRET_ENCODING", "auto")
	v.SetDefault("JWT_ISSUER", "CensudexAPIGateway")
	v.SetDefault("JWT_AUDIENCE", "CensudexClients")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 60)

	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")

	v.SetDefault("REVOCATION_STORE_TIMEOUT", "3s")
	v.SetDefault("REVOCATION_PRUNE_ENABLED", true)
	v.SetDefault("REVOCATION_PRUNE_SCHEDULE", "@every 1h")
	v.SetDefault("REVOCATION_PRUNE_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
