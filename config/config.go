package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds configuration values. Sensitive data has no defaults inside
// code and must be provided via the config file or the environment.
type AppConfig struct {
	AppPort string `json:"app_port"`

	// Gin framework configuration
	GinMode    string `json:"gin_mode"`
	GinLogPath string `json:"gin_log_path"`

	// Auth
	JWTSecret          string `json:"jwt_secret"`
	AccessTokenMinutes int    `json:"access_token_minutes"`
	RefreshTokenDays   int    `json:"refresh_token_days"`
	SessionCookieName  string `json:"session_cookie_name"`
	SecureCookies      bool   `json:"secure_cookies"`

	// Database
	DatabaseURI string `json:"database_uri"`
	DBHost      string `json:"db_host"`
	DBPort      string `json:"db_port"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBName      string `json:"db_name"`

	// Redis for the page cache and the token blacklist; empty host disables
	// Redis and in-process fallbacks are used instead.
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisDB       int    `json:"redis_db"`
	RedisPassword string `json:"redis_password"`

	// Home timeline page cache
	PageCacheTTLSeconds int `json:"page_cache_ttl_seconds"`

	// Web surface assets
	MediaRoot    string `json:"media_root"`
	TemplateGlob string `json:"template_glob"`
	StaticDir    string `json:"static_dir"`

	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	AllowedOrigins     []string `json:"allowed_origins"`

	// Logging configuration
	LogLevel      string `json:"log_level"`
	LogPath       string `json:"log_path"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days"`
	LogCompress   bool   `json:"log_compress"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (c AppConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (c AppConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

// PageCacheTTL returns the home timeline cache window.
func (c AppConfig) PageCacheTTL() time.Duration {
	return time.Duration(c.PageCacheTTLSeconds) * time.Second
}

var cfg AppConfig
var loaded bool

// Load reads the application configuration once during boot.
// Precedence: config/config.json -> defaults -> environment overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in the environment or config file")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting replaces the cached configuration. Tests use it to run with
// an in-memory database and without touching the process environment.
func SetForTesting(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

func loadJSONConfig(path string, into *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinLogPath == "" {
		c.GinLogPath = "logs/gin.log"
	}
	if c.AccessTokenMinutes <= 0 {
		c.AccessTokenMinutes = 60
	}
	if c.RefreshTokenDays <= 0 {
		c.RefreshTokenDays = 7
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = "yatut_session"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.PageCacheTTLSeconds <= 0 {
		c.PageCacheTTLSeconds = 20
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.TemplateGlob == "" {
		c.TemplateGlob = "templates/*.html"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/app.log"
	}
}

func applyEnvOverrides(c *AppConfig) {
	setString(&c.AppPort, "APP_PORT")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.GinLogPath, "GIN_LOG_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setInt(&c.AccessTokenMinutes, "ACCESS_TOKEN_MINUTES")
	setInt(&c.RefreshTokenDays, "REFRESH_TOKEN_DAYS")
	setString(&c.SessionCookieName, "SESSION_COOKIE_NAME")
	setBool(&c.SecureCookies, "SECURE_COOKIES")
	setString(&c.DatabaseURI, "DATABASE_URI")
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBPort, "DB_PORT")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.RedisHost, "REDIS_HOST")
	setInt(&c.RedisPort, "REDIS_PORT")
	setInt(&c.RedisDB, "REDIS_DB")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.PageCacheTTLSeconds, "PAGE_CACHE_TTL_SECONDS")
	setString(&c.MediaRoot, "MEDIA_ROOT")
	setString(&c.TemplateGlob, "TEMPLATE_GLOB")
	setString(&c.StaticDir, "STATIC_DIR")
	setInt(&c.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	setStrings(&c.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogPath, "LOG_PATH")
	setInt(&c.LogMaxSizeMB, "LOG_MAX_SIZE_MB")
	setInt(&c.LogMaxBackups, "LOG_MAX_BACKUPS")
	setInt(&c.LogMaxAgeDays, "LOG_MAX_AGE_DAYS")
	setBool(&c.LogCompress, "LOG_COMPRESS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStrings(dst *[]string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
