package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2, cfg.AstroRetryCount)
	assert.Equal(t, time.Second, cfg.AstroRequestPause)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Contains(t, cfg.DatabaseDSN(), "@tcp(localhost:3306)/puja")
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{
		DBDriver:   "postgres",
		DBHost:     "db",
		DBPort:     5432,
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "puja",
		DBSSLMode:  "disable",
	}
	assert.Equal(t, "host=db user=u password=p dbname=puja port=5432 sslmode=disable", cfg.DatabaseDSN())
}

func TestValidate(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", JWTSecret: "0123456789abcdef", JWTTTL: time.Hour}
	assert.Error(t, cfg.Validate())

	cfg.DBDriver = "postgres"
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate())
}

func TestLocationFallsBackToFixedOffset(t *testing.T) {
	cfg := Config{Timezone: "Nowhere/Unknown", AstroTimezone: 5.5}
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 19800, offset)
}
