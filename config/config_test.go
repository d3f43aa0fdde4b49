package config

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "stackforum", cfg.DatabaseName)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10*time.Second, cfg.DBTimeout)
	assert.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 100, cfg.ReadQueryMaxLimit)
	assert.Equal(t, 20, cfg.DefaultReadQueryLimit)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".webp"}, cfg.AllowedFileExts)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"PORT":                     "9000",
		"DB_DRIVER":                "Memory",
		"ACCESS_TOKEN_TTL_MINUTES": "5",
		"REFRESH_TOKEN_TTL_DAYS":   "not-a-number",
		"COOKIE_SECURE":            "true",
		"COOKIE_SAME_SITE":         "none",
		"ALLOWED_ORIGINS":          " http://localhost:5173 , ,https://forum.example.com",
		"ADMIN_EMAIL":              "  Admin@Example.com ",
		"LOG_LEVEL":                "debug",
	}))

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, http.SameSiteNoneMode, cfg.CookieSameSite)
	assert.Equal(t, []string{"http://localhost:5173", "https://forum.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := map[string]string{
		"ACCESS_TOKEN_SECRET":  "a",
		"REFRESH_TOKEN_SECRET": "r",
		"DB_DRIVER":            "memory",
	}

	require.NoError(t, FromEnv(envMap(base)).Validate())

	tests := []struct {
		name  string
		patch map[string]string
		want  string
	}{
		{"missing secret", map[string]string{"REFRESH_TOKEN_SECRET": ""}, "must be set"},
		{"same secrets", map[string]string{"REFRESH_TOKEN_SECRET": "a"}, "must differ"},
		{"mongo without uri", map[string]string{"DB_DRIVER": "mongo"}, "MONGODB_URI"},
		{"unknown driver", map[string]string{"DB_DRIVER": "redis"}, "unknown DB_DRIVER"},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "ftp"}, "unknown STORAGE_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range tt.patch {
				env[k] = v
			}
			err := FromEnv(envMap(env)).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
