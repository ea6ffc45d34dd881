package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "books.yaml"

// Environment variables that override the config file.
const (
	EnvDBPath   = "BOOKS_DB_PATH"
	EnvTenantID = "BOOKS_TENANT_ID"
	EnvDebug    = "BOOKS_DEBUG"
)

// Config represents the top-level books.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Tenant   TenantConfig   `yaml:"tenant"`
	Fiscal   FiscalConfig   `yaml:"fiscal"`
	Reports  ReportsConfig  `yaml:"reports"`

	// Debug is only ever set from the environment.
	Debug bool `yaml:"-"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TenantConfig identifies the books the CLI operates on.
type TenantConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Template string `yaml:"template"` // default chart template, "trading" or "services"
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "04-01"
}

// ReportsConfig holds report defaults; command flags override them.
type ReportsConfig struct {
	IncludeUnapproved bool `yaml:"include_unapproved"`
	SuppressZeroRows  bool `yaml:"suppress_zero_rows"`
	ComparePrevious   bool `yaml:"compare_previous"`
}

// Load reads a books.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for new books with a freshly generated tenant ID.
func Default(tenantName, template string) *Config {
	return &Config{
		Database: DatabaseConfig{Path: "books.db"},
		Tenant: TenantConfig{
			ID:       uuid.NewString(),
			Name:     tenantName,
			Template: template,
		},
		Fiscal: FiscalConfig{YearStart: "01-01"},
		Reports: ReportsConfig{
			SuppressZeroRows: true,
		},
	}
}

// ApplyEnv overlays environment variables onto cfg. Values from envFile
// (a .env file; missing is fine) apply only where the process environment
// leaves the variable unset or empty.
func (c *Config) ApplyEnv(envFile string) error {
	file := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			file = m
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v := os.Getenv(key); v != "" {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvTenantID); ok && v != "" {
		c.Tenant.ID = v
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebug, err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := c.TenantID(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := c.parseYearStart(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TenantID parses tenant.id.
func (c *Config) TenantID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Tenant.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("tenant.id %q: %w", c.Tenant.ID, err)
	}
	return id, nil
}

// FiscalYear returns the bounds of the fiscal year that starts in the given
// calendar year, along with its conventional name. A January start names the
// year "FY2025"; any other start spans two calendar years, "FY2025-26".
func (c *Config) FiscalYear(startYear int) (name string, start, end time.Time, err error) {
	month, day, err := c.parseYearStart()
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	start = time.Date(startYear, month, day, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(1, 0, -1)
	name = fmt.Sprintf("FY%d", startYear)
	if end.Year() != startYear {
		name = fmt.Sprintf("FY%d-%02d", startYear, end.Year()%100)
	}
	return name, start, end, nil
}

// FiscalYearContaining returns the start year of the fiscal year covering d.
func (c *Config) FiscalYearContaining(d time.Time) (int, error) {
	month, day, err := c.parseYearStart()
	if err != nil {
		return 0, err
	}
	start := time.Date(d.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if d.Before(start) {
		return d.Year() - 1, nil
	}
	return d.Year(), nil
}

func (c *Config) parseYearStart() (time.Month, int, error) {
	t, err := time.Parse("01-02", c.Fiscal.YearStart)
	if err != nil {
		return 0, 0, fmt.Errorf("fiscal.year_start %q must be MM-DD", c.Fiscal.YearStart)
	}
	if t.Month() == time.February && t.Day() == 29 {
		return 0, 0, fmt.Errorf("fiscal.year_start %q must not be 02-29", c.Fiscal.YearStart)
	}
	return t.Month(), t.Day(), nil
}
