package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8000", c.AppPort)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, 20, c.IndexCacheSeconds)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, "local", c.MediaBackend)
	assert.Equal(t, 5, c.MediaMaxMB)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
}

func TestApplyDefaultsPostgresPort(t *testing.T) {
	c := AppConfig{DBDriver: "postgres"}
	applyDefaults(&c)
	assert.Equal(t, "5432", c.DBPort)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("INDEX_CACHE_SECONDS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SIGNUP_CAPTCHA_ENABLED", "true")

	c := AppConfig{IndexCacheSeconds: 20}
	applyEnvOverrides(&c)

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 25, c.PageSize)
	assert.Equal(t, 20, c.IndexCacheSeconds)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.True(t, c.SignupCaptchaEnabled)
}

func TestLoadJSONConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"app": {"AppPort": "8081", "JWTSecret": "from-file", "PageSize": 5},
		"database": {"Driver": "postgres", "DBName": "blog"},
		"cache": {"Backend": "memory", "IndexCacheSeconds": 30},
		"media": {"Backend": "s3", "S3Bucket": "posts"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "8081", c.AppPort)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, 5, c.PageSize)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "blog", c.DBName)
	assert.Equal(t, "memory", c.CacheBackend)
	assert.Equal(t, 30, c.IndexCacheSeconds)
	assert.Equal(t, "s3", c.MediaBackend)
	assert.Equal(t, "posts", c.S3Bucket)
}

func TestLoadJSONConfigMissingFileIsIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &c))
}

func TestLoadJSONConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestValidate(t *testing.T) {
	c := AppConfig{}
	applyDefaults(&c)
	assert.Error(t, c.Validate(), "missing secret")

	c.JWTSecret = "x"
	assert.NoError(t, c.Validate())

	c.MediaBackend = "s3"
	assert.Error(t, c.Validate(), "s3 without bucket")
	c.S3Bucket = "b"
	assert.NoError(t, c.Validate())

	c.DBDriver = "oracle"
	assert.Error(t, c.Validate())
}

func TestOpenDatabaseSQLite(t *testing.T) {
	cfg := AppConfig{DBDriver: "sqlite", DatabaseURI: "file:cfgtest?mode=memory&cache=shared", LogLevel: "silent"}
	db, err := OpenDatabase(cfg, nil)
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"}, nil)
	assert.Error(t, err)
}
