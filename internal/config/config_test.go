package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 3*time.Second, cfg.StorageTimeout)
	assert.Equal(t, "books", cfg.ESIndex)
	assert.Equal(t, "secret", cfg.JWTSecret)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT: 9000\nJWT_ALGORITHM: hs512\nACCESS_TOKEN_TTL: 5m\n"), 0o600))

	t.Setenv("ACCESS_TOKEN_TTL", "10m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "HS512", cfg.JWTAlgorithm)
	assert.Equal(t, 10*time.Minute, cfg.AccessTokenTTL)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseURL:     "postgres://localhost/books",
		JWTSecret:       "secret",
		JWTAlgorithm:    "HS256",
		RedisURL:        "redis://localhost:6379/0",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	require.NoError(t, valid.Validate())

	broken := valid
	broken.JWTSecret = ""
	broken.JWTAlgorithm = "RS256"
	err := broken.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "RS256")
}

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}
