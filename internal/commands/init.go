package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/model"
)

func newInitCommand(a *app) *cobra.Command {
	var name, template, yearStart, chartFile string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create books.yaml, the database, a default chart and the current fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, a, name, template, yearStart, chartFile)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&template, "template", "trading", "default chart template: trading or services")
	cmd.Flags().StringVar(&yearStart, "fiscal-start", "01-01", "fiscal year start as MM-DD")
	cmd.Flags().StringVar(&chartFile, "chart", "", "seed the chart from this CSV instead of the template")

	return cmd
}

func runInit(cmd *cobra.Command, a *app, name, template, yearStart, chartFile string) error {
	ctx := cmd.Context()
	if _, err := os.Stat(a.cfgPath); err == nil {
		return fmt.Errorf("%s already exists", a.cfgPath)
	}

	cfg := config.Default(name, template)
	cfg.Fiscal.YearStart = yearStart
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	tenantID, _ := cfg.TenantID()

	dir := filepath.Dir(a.cfgPath)
	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	if err := config.Save(a.cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	a.cfg, a.tenantID = cfg, tenantID

	if err := a.openStore(); err != nil {
		return err
	}
	if err := a.store.CreateTenant(ctx, model.Tenant{ID: tenantID, Name: name}); err != nil {
		return err
	}
	groups, ledgers := accounts.DefaultChart(template, tenantID)
	if chartFile != "" {
		f, err := os.Open(chartFile)
		if err != nil {
			return fmt.Errorf("opening chart: %w", err)
		}
		groups, ledgers, err = accounts.ReadChart(f, tenantID)
		f.Close()
		if err != nil {
			return err
		}
		if _, err := accounts.NewChart(groups, ledgers); err != nil {
			return fmt.Errorf("chart %s: %w", chartFile, err)
		}
	}
	if err := a.store.SaveChart(ctx, groups, ledgers); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	startYear, err := cfg.FiscalYearContaining(today())
	if err != nil {
		return err
	}
	fy, err := a.createFiscalYear(ctx, startYear)
	if err != nil {
		return err
	}

	a.logger.Info("books initialized", "tenant", tenantID, "ledgers", len(ledgers), "fiscal_year", fy.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized books for %s (tenant %s, %s)\n", name, tenantID, fy.Name)
	return nil
}

// createFiscalYear creates the configured fiscal year starting in startYear.
func (a *app) createFiscalYear(ctx context.Context, startYear int) (model.FiscalYear, error) {
	name, start, end, err := a.cfg.FiscalYear(startYear)
	if err != nil {
		return model.FiscalYear{}, err
	}
	fy := model.FiscalYear{ID: uuid.New(), TenantID: a.tenantID, Name: name, StartDate: start, EndDate: end}
	if err := a.store.CreateFiscalYear(ctx, fy); err != nil {
		return model.FiscalYear{}, err
	}
	return fy, nil
}
