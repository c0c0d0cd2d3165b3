package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_RequiresPortAndSecret(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Port = "8460"
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "dev-secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ProductionRejectsDefaults(t *testing.T) {
	cfg := &Config{
		Port:      "8460",
		JWTSecret: "your-secret-key-change-in-production",
		Env:       "production",
	}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate(), "short secrets are rejected in production")

	cfg.JWTSecret = "a-very-long-production-grade-secret-value"
	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate(), "default DB password is rejected in production")

	cfg.DBPassword = "s3cure-db-password"
	assert.NoError(t, cfg.Validate())
}
