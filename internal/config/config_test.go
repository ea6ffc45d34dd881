package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Acme Traders", "trading")
	cfg.Fiscal.YearStart = "04-01"
	cfg.Reports.IncludeUnapproved = true
	cfg.Debug = true

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database, got.Database)
	assert.Equal(t, cfg.Tenant, got.Tenant)
	assert.Equal(t, "04-01", got.Fiscal.YearStart)
	assert.True(t, got.Reports.IncludeUnapproved)
	assert.True(t, got.Reports.SuppressZeroRows)
	assert.False(t, got.Debug, "debug is never persisted")
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "services")

	assert.Equal(t, "books.db", cfg.Database.Path)
	assert.Equal(t, "My Company", cfg.Tenant.Name)
	assert.Equal(t, "services", cfg.Tenant.Template)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.True(t, cfg.Reports.SuppressZeroRows)
	assert.False(t, cfg.Reports.IncludeUnapproved)
	require.NoError(t, cfg.Validate())

	other := Default("My Company", "services")
	assert.NotEqual(t, cfg.Tenant.ID, other.Tenant.ID)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "trading")
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "path: books.db")
	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "year_start: 01-01")
	assert.Contains(t, contents, "suppress_zero_rows: true")
	assert.NotContains(t, contents, "debug")
}

func TestValidate(t *testing.T) {
	cfg := Default("Acme", "trading")
	cfg.Database.Path = ""
	cfg.Tenant.ID = "not-a-uuid"
	cfg.Fiscal.YearStart = "13-01"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path is required")
	assert.Contains(t, err.Error(), "tenant.id")
	assert.Contains(t, err.Error(), "fiscal.year_start")

	cfg = Default("Acme", "trading")
	cfg.Fiscal.YearStart = "02-29"
	assert.Error(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	for _, k := range []string{EnvDBPath, EnvTenantID, EnvDebug} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"BOOKS_DB_PATH=/from/file.db\nBOOKS_TENANT_ID=6ba7b810-9dad-11d1-80b4-00c04fd430c8\nBOOKS_DEBUG=true\n"), 0o644))

	t.Run("file fills unset variables", func(t *testing.T) {
		cfg := Default("Acme", "trading")
		require.NoError(t, cfg.ApplyEnv(envFile))
		assert.Equal(t, "/from/file.db", cfg.Database.Path)
		assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", cfg.Tenant.ID)
		assert.True(t, cfg.Debug)
	})

	t.Run("process environment wins", func(t *testing.T) {
		t.Setenv(EnvDBPath, "/from/env.db")
		t.Setenv(EnvDebug, "false")
		cfg := Default("Acme", "trading")
		require.NoError(t, cfg.ApplyEnv(envFile))
		assert.Equal(t, "/from/env.db", cfg.Database.Path)
		assert.False(t, cfg.Debug)
	})

	t.Run("missing file is fine", func(t *testing.T) {
		cfg := Default("Acme", "trading")
		require.NoError(t, cfg.ApplyEnv(filepath.Join(dir, "absent.env")))
		assert.Equal(t, "books.db", cfg.Database.Path)
	})

	t.Run("bad debug value", func(t *testing.T) {
		t.Setenv(EnvDebug, "maybe")
		cfg := Default("Acme", "trading")
		assert.Error(t, cfg.ApplyEnv(""))
	})
}

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		start     string
		year      int
		wantName  string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"01-01", 2025, "FY2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"04-01", 2025, "FY2025-26", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"07-01", 2099, "FY2099-00", time.Date(2099, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 6, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			cfg := Default("Acme", "trading")
			cfg.Fiscal.YearStart = tt.start
			name, start, end, err := cfg.FiscalYear(tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestFiscalYearContaining(t *testing.T) {
	cfg := Default("Acme", "trading")
	cfg.Fiscal.YearStart = "04-01"

	y, err := cfg.FiscalYearContaining(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2024, y)

	y, err = cfg.FiscalYearContaining(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
}
