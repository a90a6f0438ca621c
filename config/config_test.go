package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
env:
  env: test
  serviceName: atrium
  log:
    level: debug
http:
  port: 8080
auth:
  jwtSecret: file-secret
  refreshTokenTTLSeconds: 7200
redis:
  enabled: true
  addr: localhost:6379
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	return dir
}

func TestLoadWithEnv_FileValues(t *testing.T) {
	dir := writeConfig(t, testConfigYAML)
	t.Chdir(dir)

	cfg, err := LoadWithEnv[Config]("config")
	require.NoError(t, err)

	assert.Equal(t, "atrium", cfg.Env.ServiceName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	require.NotNil(t, cfg.Auth)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, int64(7200), cfg.Auth.RefreshTokenTTLSeconds)
	require.NotNil(t, cfg.Redis)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadWithEnv_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, testConfigYAML)
	t.Chdir(dir)
	t.Setenv("AUTH_JWTSECRET", "env-secret")
	t.Setenv("REDIS_USERTTL", "30s")

	cfg, err := LoadWithEnv[Config]("config")
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Second, cfg.Redis.UserTTL)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadWithEnv[Config]("config")
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Redis: &RedisConfig{}}
	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Auth)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, defaultRedisUserTTL, cfg.Redis.UserTTL)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{Auth: &AuthConfig{AccessTokenTTLSeconds: 60, RefreshTokenTTLSeconds: 30}}
	cfg.ApplyDefaults()

	assert.Equal(t, time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 30*time.Second, cfg.Auth.RefreshTTL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		auth    *AuthConfig
		wantErr bool
	}{
		{name: "missing auth", auth: nil, wantErr: true},
		{name: "blank secret", auth: &AuthConfig{JWTSecret: "  "}, wantErr: true},
		{name: "negative ttl", auth: &AuthConfig{JWTSecret: "s", AccessTokenTTLSeconds: -1}, wantErr: true},
		{name: "refresh shorter than access is allowed", auth: &AuthConfig{JWTSecret: "s", AccessTokenTTLSeconds: 100, RefreshTokenTTLSeconds: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Config{Auth: tt.auth}).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
