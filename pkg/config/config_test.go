package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "pins", cfg.Storage.BaseFolder)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL())
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("POSTGRES_URL", "postgres://db/pins")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("IDENTITY_BASE_URL", "https://identity.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres://db/pins", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://identity.example.com", cfg.Auth.IdentityBaseURL)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PINS_DATABASE_DRIVER", "sqlite")
	t.Setenv("PINS_STORAGE_BASE_FOLDER", "uploads")
	t.Setenv("PINS_AUTH_SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "uploads", cfg.Storage.BaseFolder)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
}

func TestValidate_ProductionRejectsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PINS_SERVER_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidate_StorageBackends(t *testing.T) {
	base := Config{
		Server:   ServerConfig{Env: "development"},
		Database: DatabaseConfig{Driver: "postgres"},
		Auth:     AuthConfig{Provider: "arc", JWTSecret: "x", SessionTTL: time.Hour},
		Storage:  StorageConfig{Backend: "gridfs"},
	}
	assert.ErrorContains(t, base.Validate(), "mongo.uri")

	base.Mongo.URI = "mongodb://localhost:27017"
	assert.NoError(t, base.Validate())

	base.Storage.Backend = "s3"
	assert.ErrorContains(t, base.Validate(), "unsupported storage.backend")
}
