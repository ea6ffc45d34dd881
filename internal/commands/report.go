package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/reports"
)

// reportFlags are shared by every report subcommand. Unset booleans fall
// back to the reports section of books.yaml.
type reportFlags struct {
	asOf, from, to    string
	includeUnapproved bool
	suppressZero      bool
	compare           bool
}

func (f *reportFlags) bind(cmd *cobra.Command, names ...string) {
	for _, d := range names {
		switch d {
		case "as-of":
			cmd.Flags().StringVar(&f.asOf, "as-of", "", "report date YYYY-MM-DD (default today)")
		case "from":
			cmd.Flags().StringVar(&f.from, "from", "", "period start YYYY-MM-DD")
		case "to":
			cmd.Flags().StringVar(&f.to, "to", "", "period end YYYY-MM-DD")
		case "include-unapproved":
			cmd.Flags().BoolVar(&f.includeUnapproved, "include-unapproved", false, "include PENDING vouchers")
		}
	}
}

// resolve applies config defaults for flags the user did not set.
func (f *reportFlags) resolve(cmd *cobra.Command, a *app) {
	rc := a.cfg.Reports
	if cmd.Flags().Lookup("include-unapproved") != nil && !cmd.Flags().Changed("include-unapproved") {
		f.includeUnapproved = rc.IncludeUnapproved
	}
	if cmd.Flags().Lookup("suppress-zero") != nil && !cmd.Flags().Changed("suppress-zero") {
		f.suppressZero = rc.SuppressZeroRows
	}
	if cmd.Flags().Lookup("compare") != nil && !cmd.Flags().Changed("compare") {
		f.compare = rc.ComparePrevious
	}
}

func (f *reportFlags) dates() (asOf, from, to time.Time, err error) {
	if asOf, err = parseDate("as-of", f.asOf); err != nil {
		return
	}
	if from, err = parseDate("from", f.from); err != nil {
		return
	}
	to, err = parseDate("to", f.to)
	return
}

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate financial reports as JSON",
	}
	cmd.AddCommand(
		newTrialBalanceCommand(a),
		newBalanceSheetCommand(a),
		newProfitLossCommand(a),
		newCashFlowCommand(a),
		newAgingCommand(a),
	)
	return cmd
}

func (a *app) generator() (*reports.Generator, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	return reports.NewGenerator(a.store, a.logger), nil
}

func newTrialBalanceCommand(a *app) *cobra.Command {
	var f reportFlags
	var fiscalYear string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Opening, period and closing balances per ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, _, _, err := f.dates()
			if err != nil {
				return err
			}
			gen, err := a.generator()
			if err != nil {
				return err
			}
			f.resolve(cmd, a)
			p := reports.TrialBalanceParams{
				TenantID:          a.tenantID,
				AsOf:              asOf,
				IncludeUnapproved: f.includeUnapproved,
				SuppressZero:      f.suppressZero,
			}
			if fiscalYear != "" {
				fy, err := a.fiscalYearByName(cmd, fiscalYear)
				if err != nil {
					return err
				}
				p.FiscalYearID = fy.ID
			} else if p.AsOf.IsZero() {
				p.AsOf = today()
			}
			tb, err := gen.TrialBalance(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tb)
		},
	}
	f.bind(cmd, "as-of", "include-unapproved")
	cmd.Flags().BoolVar(&f.suppressZero, "suppress-zero", false, "hide ledgers with no balance or movement")
	cmd.Flags().StringVar(&fiscalYear, "fiscal-year", "", "fiscal year name; as-of defaults to its end")
	return cmd
}

func newBalanceSheetCommand(a *app) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, _, _, err := f.dates()
			if err != nil {
				return err
			}
			if asOf.IsZero() {
				asOf = today()
			}
			gen, err := a.generator()
			if err != nil {
				return err
			}
			f.resolve(cmd, a)
			bs, err := gen.BalanceSheet(cmd.Context(), reports.BalanceSheetParams{
				TenantID:          a.tenantID,
				AsOf:              asOf,
				IncludeUnapproved: f.includeUnapproved,
				SuppressZero:      f.suppressZero,
				Compare:           f.compare,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), bs)
		},
	}
	f.bind(cmd, "as-of", "include-unapproved")
	cmd.Flags().BoolVar(&f.suppressZero, "suppress-zero", false, "hide zero rows")
	cmd.Flags().BoolVar(&f.compare, "compare", false, "add the previous fiscal year end")
	return cmd
}

func newProfitLossCommand(a *app) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "profit-loss",
		Short: "Income, expenses, gross and net profit for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, from, to, err := f.dates()
			if err != nil {
				return err
			}
			gen, err := a.generator()
			if err != nil {
				return err
			}
			f.resolve(cmd, a)
			pl, err := gen.ProfitLoss(cmd.Context(), reports.ProfitLossParams{
				TenantID:          a.tenantID,
				From:              from,
				To:                to,
				IncludeUnapproved: f.includeUnapproved,
				Compare:           f.compare,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pl)
		},
	}
	f.bind(cmd, "from", "to", "include-unapproved")
	cmd.Flags().BoolVar(&f.compare, "compare", false, "add the preceding period of equal length")
	return cmd
}

func newCashFlowCommand(a *app) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "cash-flow",
		Short: "Cash movement by activity, reconciled to cash and bank ledgers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, from, to, err := f.dates()
			if err != nil {
				return err
			}
			gen, err := a.generator()
			if err != nil {
				return err
			}
			f.resolve(cmd, a)
			cf, err := gen.CashFlow(cmd.Context(), reports.CashFlowParams{
				TenantID:          a.tenantID,
				From:              from,
				To:                to,
				IncludeUnapproved: f.includeUnapproved,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cf)
		},
	}
	f.bind(cmd, "from", "to", "include-unapproved")
	return cmd
}

func newAgingCommand(a *app) *cobra.Command {
	var f reportFlags
	var kind, party string
	cmd := &cobra.Command{
		Use:   "aging",
		Short: "Outstanding receivables or payables by days overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tk model.TradeKind
			switch kind {
			case "receivables":
				tk = model.TradeInvoice
			case "payables":
				tk = model.TradeBill
			default:
				return fmt.Errorf("--kind must be receivables or payables, got %q", kind)
			}
			asOf, _, _, err := f.dates()
			if err != nil {
				return err
			}
			if asOf.IsZero() {
				asOf = today()
			}
			gen, err := a.generator()
			if err != nil {
				return err
			}
			p := reports.AgingParams{TenantID: a.tenantID, Kind: tk, AsOf: asOf}
			if party != "" {
				if p.PartyID, err = uuid.Parse(party); err != nil {
					p.PartyID = partyID(a.tenantID, party)
				}
			}
			ag, err := gen.Aging(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ag)
		},
	}
	f.bind(cmd, "as-of")
	cmd.Flags().StringVar(&kind, "kind", "receivables", "receivables or payables")
	cmd.Flags().StringVar(&party, "party", "", "party name or ID")
	return cmd
}
