package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel  string
	Server    ServerConfig
	Postgres  PostgresConfig
	Auth      AuthConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	HostURL        string
	AllowedOrigins []string
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type AuthConfig struct {
	JWTSecret        string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	CookieName     string
	CookieMaxAge   time.Duration
	CookieSecure   bool
	CookieSameSite string
	CookieDomain   string
	CookiePath     string

	// Optional bootstrap administrator.
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type StorageConfig struct {
	Driver      string // local | s3
	BasePath    string
	PublicURL   string
	MaxFileSize int64

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

type RateLimitConfig struct {
	Window   time.Duration
	Max      int64
	RedisURL string
}

const (
	defaultTokenTTL    = 3600 * time.Second
	defaultCookieAge   = 7 * 24 * time.Hour
	defaultMaxFileSize = 5 << 20
)

func Load() (Config, error) {
	env := getenv("APP_ENV", "development")
	hostURL := strings.TrimRight(getenv("HOST_URL", "http://localhost:8080"), "/")

	accessTTL, err := parseTTL("JWT_EXPIRES_IN", defaultTokenTTL)
	if err != nil {
		return Config{}, err
	}
	refreshTTL, err := parseTTL("JWT_REFRESH_EXPIRES_IN", defaultTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cookieAge, err := parseTTL("AUTH_COOKIE_MAX_AGE", defaultCookieAge)
	if err != nil {
		return Config{}, err
	}
	cookieSecure, err := parseBool("AUTH_COOKIE_SECURE", env == "production")
	if err != nil {
		return Config{}, err
	}
	window, err := parseTTL("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	maxRequests, err := parseInt("RATE_LIMIT_MAX", 100)
	if err != nil {
		return Config{}, err
	}
	maxFileSize, err := parseInt("UPLOAD_MAX_FILE_SIZE", defaultMaxFileSize)
	if err != nil {
		return Config{}, err
	}

	return Config{
		LogLevel: getenv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:           getenv("PORT", "8080"),
			Env:            env,
			HostURL:        hostURL,
			AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", getenv("FRONTEND_URL", "http://localhost:3000"))),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:        os.Getenv("JWT_SECRET"),
			JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
			AccessTTL:        accessTTL,
			RefreshTTL:       refreshTTL,
			CookieName:       getenv("AUTH_COOKIE_NAME", "refreshToken"),
			CookieMaxAge:     cookieAge,
			CookieSecure:     cookieSecure,
			CookieSameSite:   getenv("AUTH_COOKIE_SAMESITE", "lax"),
			CookieDomain:     os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookiePath:       getenv("AUTH_COOKIE_PATH", "/"),
			AdminEmail:       os.Getenv("ADMIN_EMAIL"),
			AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
			AdminName:        getenv("ADMIN_NAME", "Administrator"),
		},
		Storage: StorageConfig{
			Driver:      getenv("STORAGE_DRIVER", "local"),
			BasePath:    getenv("UPLOAD_DIR", "./uploads"),
			PublicURL:   strings.TrimRight(getenv("STORAGE_PUBLIC_URL", hostURL+"/upload"), "/"),
			MaxFileSize: maxFileSize,
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Region:    getenv("S3_REGION", "us-east-1"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		RateLimit: RateLimitConfig{
			Window:   window,
			Max:      maxRequests,
			RedisURL: os.Getenv("REDIS_URL"),
		},
	}, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// parseTTL accepts plain seconds ("3600") or a Go duration ("1h").
func parseTTL(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid %s: must be positive", key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func parseInt(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
