package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/buildinfo"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/metrics"
	"github.com/cleared-dev/books/internal/store"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgPath    string
	envFile    string
	debug      bool
	metricsOut string
	user       string

	cfg      *config.Config
	logOut   io.Writer
	logger   *slog.Logger
	store    *store.Store
	tenantID uuid.UUID
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "books",
		Short:   "Multi-tenant double-entry bookkeeping",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.setupLogger(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", config.FileName, "path to books.yaml")
	flags.StringVar(&a.envFile, "env-file", ".env", "optional .env file with BOOKS_* overrides")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.metricsOut, "metrics-out", "", "write Prometheus metrics to this file on exit")
	flags.StringVar(&a.user, "user", defaultUser(), "actor recorded in the audit trail")

	rootCmd.AddCommand(
		newInitCommand(a),
		newChartCommand(a),
		newFiscalYearCommand(a),
		newVoucherCommand(a),
		newDocumentCommand(a),
		newReportCommand(a),
		newAuditCommand(a),
	)
	a.closeAfterRun(rootCmd)

	return rootCmd
}

// closeAfterRun wraps every RunE so the store is closed and metrics are
// written whether the command succeeds or fails. cobra skips post-run
// hooks after an error.
func (a *app) closeAfterRun(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		a.closeAfterRun(c)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		return errors.Join(err, a.close())
	}
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "books"
}

func (a *app) setupLogger(w io.Writer) {
	a.logOut = w
	level := slog.LevelInfo
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads books.yaml and applies environment overrides.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s not found; run `books init` first: %w", a.cfgPath, err)
		}
		return err
	}
	if err := cfg.ApplyEnv(a.envFile); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Debug && !a.debug {
		a.debug = true
		a.setupLogger(a.logOut)
	}
	a.cfg = cfg
	a.tenantID, _ = cfg.TenantID()
	return nil
}

// open loads config and opens the store for the configured tenant.
func (a *app) open() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	return a.openStore()
}

func (a *app) openStore() error {
	st, err := store.Open(a.dbPath())
	if err != nil {
		return err
	}
	a.store = st
	a.logger.Debug("store opened", "path", st.Path(), "tenant", a.tenantID)
	return nil
}

// dbPath resolves database.path relative to the config file.
func (a *app) dbPath() string {
	p := a.cfg.Database.Path
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(a.cfgPath), p)
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.metricsOut != "" {
		errs = append(errs, metrics.WriteTextfile(a.metricsOut))
	}
	return errors.Join(errs...)
}

// parseDate parses an optional YYYY-MM-DD flag value.
func parseDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputFile opens path for writing, or returns w when path is empty or "-".
func outputFile(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
