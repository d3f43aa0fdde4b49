// Package config reads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port         string
	MongoURI     string
	DatabaseName string
	DBDriver     string
	DBTimeout    time.Duration

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTTL          time.Duration
	RefreshTTL         time.Duration

	CookieSecure   bool
	CookieDomain   string
	CookieSameSite http.SameSite

	AllowedOrigins []string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	ReadQueryMaxLimit     int
	DefaultReadQueryLimit int

	StorageBackend  string
	R2Bucket        string
	R2AccessKeyID   string
	R2SecretKey     string
	R2Endpoint      string
	R2PublicDomain  string
	GCSBucket       string
	CredentialsFile string

	MaxUploadSizeMB     int
	AllowedFileExts     []string
	AllowedFileMimeType []string

	LogLevel slog.Level
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}
	cfg := FromEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from a lookup function, applying defaults for
// anything unset or malformed.
func FromEnv(getenv func(string) string) *Config {
	return &Config{
		Port:         stringDefault(getenv("PORT"), "8080"),
		MongoURI:     getenv("MONGODB_URI"),
		DatabaseName: stringDefault(getenv("DATABASE_NAME"), "stackforum"),
		DBDriver:     strings.ToLower(stringDefault(getenv("DB_DRIVER"), DriverMongo)),
		DBTimeout:    time.Duration(intDefault(getenv("DB_TIMEOUT_SECONDS"), 10)) * time.Second,

		AccessTokenSecret:  getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: getenv("REFRESH_TOKEN_SECRET"),
		AccessTTL:          time.Duration(intDefault(getenv("ACCESS_TOKEN_TTL_MINUTES"), 15)) * time.Minute,
		RefreshTTL:         time.Duration(intDefault(getenv("REFRESH_TOKEN_TTL_DAYS"), 7)) * 24 * time.Hour,

		CookieSecure:   getenv("COOKIE_SECURE") == "true",
		CookieDomain:   getenv("COOKIE_DOMAIN"),
		CookieSameSite: parseSameSite(getenv("COOKIE_SAME_SITE")),

		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS"), false),

		AdminEmail:    strings.ToLower(strings.TrimSpace(getenv("ADMIN_EMAIL"))),
		AdminPassword: getenv("ADMIN_PASSWORD"),
		AdminName:     stringDefault(getenv("ADMIN_NAME"), "Administrator"),

		ReadQueryMaxLimit:     intDefault(getenv("READ_QUERY_MAX_LIMIT"), 100),
		DefaultReadQueryLimit: intDefault(getenv("DEFAULT_READ_QUERY_LIMIT"), 20),

		StorageBackend:  strings.ToLower(strings.TrimSpace(getenv("STORAGE_BACKEND"))),
		R2Bucket:        getenv("R2_BUCKET"),
		R2AccessKeyID:   getenv("R2_ACCESS_KEY_ID"),
		R2SecretKey:     getenv("R2_SECRET_ACCESS_KEY"),
		R2Endpoint:      getenv("R2_ENDPOINT"),
		R2PublicDomain:  getenv("R2_PUBLIC_DOMAIN"),
		GCSBucket:       getenv("GCS_BUCKET"),
		CredentialsFile: getenv("CREDENTIALS_FILE_LOCATION"),

		MaxUploadSizeMB:     intDefault(getenv("MAX_UPLOAD_SIZE_MB"), 5),
		AllowedFileExts:     splitList(stringDefault(getenv("ALLOWED_FILE_EXTENSIONS"), ".jpg,.jpeg,.png,.webp"), true),
		AllowedFileMimeType: splitList(stringDefault(getenv("ALLOWED_FILE_MIME_TYPES"), "image/jpeg,image/png,image/webp"), true),

		LogLevel: parseLevel(getenv("LOG_LEVEL")),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set"))
	} else if c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	switch c.DBDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI must be set for the mongo driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	switch c.StorageBackend {
	case "", "r2", "gcs":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	return errors.Join(errs...)
}

func stringDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func intDefault(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(v string, lower bool) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if lower {
			item = strings.ToLower(item)
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func parseLevel(v string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
