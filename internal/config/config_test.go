package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFrom(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
database:
  driver: postgres
  dsn: postgres://localhost:5432/app?sslmode=disable
email:
  smtp_host: smtp.example.com
  smtp_port: 587
  from_email: no-reply@example.com
  dry_run: true
auth:
  jwt_secret: s3cret
  token_ttl_hours: 12
verification:
  registration_ttl_min: 5
  recovery_ttl_min: 15
  sweep_interval_min: 1
`)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Email.DryRun)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 5*time.Minute, cfg.Verification.RegistrationTTL())
	assert.Equal(t, 15*time.Minute, cfg.Verification.RecoveryTTL())
	assert.Equal(t, time.Minute, cfg.Verification.SweepInterval())
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: s3cret
`)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 3333, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "malinoise.db", cfg.Database.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.Verification.RegistrationTTL())
	assert.Equal(t, 30*time.Minute, cfg.Verification.RecoveryTTL())
	assert.Equal(t, 5*time.Minute, cfg.Verification.SweepInterval())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
