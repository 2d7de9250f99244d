package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultProdConfigUsesPort80WhenEnvUnset(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := DefaultProdConfig()
	assert.Equal(t, "80", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
}

func TestDefaultDevConfigUsesPort8080WhenEnvUnset(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := DefaultDevConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.ReadTimeout)
}

func TestDefaultProdConfigHonorsPortEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg := DefaultProdConfig()
	assert.Equal(t, "9090", cfg.Port)
}

func TestNewConfiguresEchoFromConfig(t *testing.T) {
	cfg := Config{Port: "8080", ReadTimeout: 5 * time.Second, WriteTimeout: 6 * time.Second, IdleTimeout: 7 * time.Second}
	s := New(cfg)

	assert.True(t, s.Echo.HideBanner)
	assert.True(t, s.Echo.HidePort)
	assert.Equal(t, cfg, s.Config)
	assert.Equal(t, 5*time.Second, s.Echo.Server.ReadTimeout)
	assert.Equal(t, 6*time.Second, s.Echo.Server.WriteTimeout)
	assert.Equal(t, 7*time.Second, s.Echo.Server.IdleTimeout)
}
