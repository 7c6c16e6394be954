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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Membership MembershipConfig
	Uploads    UploadsConfig
	Card       CardConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret           string
	AdminExpiration  time.Duration
	MemberExpiration time.Duration
	Issuer           string
}

// AdminConfig seeds the static credential store used by the review endpoints.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// MembershipConfig governs identifier allocation.
type MembershipConfig struct {
	IDPrefix      string
	IDPadWidth    int
	AllocRetries  int
	AllocLockTTL  time.Duration
	AllocLockWait time.Duration
}

// UploadsConfig controls attachment storage limits and layout.
type UploadsConfig struct {
	StorageDir      string
	BaseURL         string
	MaxFileSize     int64
	AllowedMIMEs    []string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	OrphanTTL       time.Duration
}

// CardConfig customises the rendered membership card.
type CardConfig struct {
	ClubName     string
	ClubTagline  string
	RegistryLine string
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

	cfg.JWT = JWTConfig{
		Secret:           v.GetString("JWT_SECRET"),
		AdminExpiration:  parseDuration(v.GetString("JWT_ADMIN_EXPIRATION"), 24*time.Hour),
		MemberExpiration: parseDuration(v.GetString("JWT_MEMBER_EXPIRATION"), 7*24*time.Hour),
		Issuer:           v.GetString("JWT_ISSUER"),
	}

	cfg.Admin = AdminConfig{
		Username:     v.GetString("ADMIN_USERNAME"),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
	}

	padWidth := v.GetInt("MEMBERSHIP_ID_PAD_WIDTH")
	if padWidth <= 0 {
		padWidth = 4
	}
	cfg.Membership = MembershipConfig{
		IDPrefix:      v.GetString("MEMBERSHIP_ID_PREFIX"),
		IDPadWidth:    padWidth,
		AllocRetries:  v.GetInt("MEMBERSHIP_ALLOC_RETRIES"),
		AllocLockTTL:  parseDuration(v.GetString("MEMBERSHIP_ALLOC_LOCK_TTL"), 5*time.Second),
		AllocLockWait: parseDuration(v.GetString("MEMBERSHIP_ALLOC_LOCK_WAIT"), 2*time.Second),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:      v.GetString("UPLOADS_STORAGE_DIR"),
		BaseURL:         v.GetString("UPLOADS_BASE_URL"),
		MaxFileSize:     maxUpload,
		AllowedMIMEs:    splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
		SignedURLSecret: v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("UPLOADS_CLEANUP_INTERVAL"), time.Hour),
		OrphanTTL:       parseDuration(v.GetString("UPLOADS_ORPHAN_TTL"), 24*time.Hour),
	}

	cfg.Card = CardConfig{
		ClubName:     v.GetString("CARD_CLUB_NAME"),
		ClubTagline:  v.GetString("CARD_CLUB_TAGLINE"),
		RegistryLine: v.GetString("CARD_REGISTRY_LINE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "club_membership")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ADMIN_EXPIRATION", "24h")
	v.SetDefault("JWT_MEMBER_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "membership-api")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")

	v.SetDefault("MEMBERSHIP_ID_PREFIX", "CLUB-")
	v.SetDefault("MEMBERSHIP_ID_PAD_WIDTH", 4)
	v.SetDefault("MEMBERSHIP_ALLOC_RETRIES", 3)
	v.SetDefault("MEMBERSHIP_ALLOC_LOCK_TTL", "5s")
	v.SetDefault("MEMBERSHIP_ALLOC_LOCK_WAIT", "2s")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_BASE_URL", "http://localhost:8080/uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "image/jpeg,image/jpg,image/png,image/webp")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "24h")
	v.SetDefault("UPLOADS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("UPLOADS_ORPHAN_TTL", "24h")

	v.SetDefault("CARD_CLUB_NAME", "KINGSTAR ERIYAPADY")
	v.SetDefault("CARD_CLUB_TAGLINE", "KINGSTAR ARTS & SPORTS CLUB ERIYAPADY")
	v.SetDefault("CARD_REGISTRY_LINE", "Reg.No 324/98 | Affiliated to NYK-114/99 | KSYWB-KZD/B2/0005/13")

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
