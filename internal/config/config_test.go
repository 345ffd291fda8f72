package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2025-02-01", cfg.Reduce.CutoffDate)
	assert.Equal(t, 0.8, cfg.Reduce.SampleQuantile)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "contracts.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONTRACTS_STORE_DRIVER", "postgres")
	t.Setenv("CONTRACTS_REDUCE_CUTOFF_DATE", "2024-10-01")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "2024-10-01", cfg.Reduce.CutoffDate)
}

func TestLoad_EnvOverride_EmptyDefaultKeys(t *testing.T) {
	t.Setenv("CONTRACTS_STORE_DATABASE_URL", "postgres://db.internal/contracts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://db.internal/contracts", cfg.Store.DatabaseURL)
}

func TestCutoff(t *testing.T) {
	c := ReduceConfig{CutoffDate: "2025-02-01"}
	cutoff, err := c.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestCutoff_Empty(t *testing.T) {
	cutoff, err := ReduceConfig{}.Cutoff()
	require.NoError(t, err)
	assert.True(t, cutoff.IsZero())
}

func TestCutoff_Invalid(t *testing.T) {
	_, err := ReduceConfig{CutoffDate: "02/01/2025"}.Cutoff()
	require.Error(t, err)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
}
