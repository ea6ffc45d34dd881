package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/model"
)

func newChartCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Inspect and maintain the chart of accounts",
	}
	cmd.AddCommand(newChartTreeCommand(a), newChartExportCommand(a), newChartCheckCommand(a), newChartOpeningCommand(a))
	return cmd
}

func (a *app) loadChart(cmd *cobra.Command) (*accounts.Chart, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	return accounts.NewService(a.store).Load(cmd.Context(), a.tenantID)
}

func newChartTreeCommand(a *app) *cobra.Command {
	var nature string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the group hierarchy with ledgers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n := model.Nature(upper(nature))
			if n != "" && !n.Valid() {
				return fmt.Errorf("unknown nature %q", nature)
			}
			chart, err := a.loadChart(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, root := range chart.Tree(n) {
				root.Walk(func(node *accounts.GroupNode, depth int) {
					indent := strings.Repeat("  ", depth)
					fmt.Fprintf(w, "%s%s [%s]\n", indent, node.Group.Name, node.Group.Nature)
					for _, l := range node.Ledgers {
						fmt.Fprintf(w, "%s  - %s %s\n", indent, l.Code, l.Name)
					}
				})
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&nature, "nature", "", "only roots of this nature (ASSETS, LIABILITIES, EQUITY, INCOME, EXPENSES)")
	return cmd
}

func newChartExportCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chart, err := a.loadChart(cmd)
			if err != nil {
				return err
			}
			w, done, err := outputFile(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := accounts.WriteChart(w, chart); err != nil {
				done()
				return err
			}
			return done()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newChartCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report groups whose nature differs from an ancestor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chart, err := a.loadChart(cmd)
			if err != nil {
				return err
			}
			mismatches := chart.NatureMismatches()
			w := cmd.OutOrStdout()
			if len(mismatches) == 0 {
				fmt.Fprintln(w, "chart is consistent")
				return nil
			}
			for _, m := range mismatches {
				a.logger.Warn("group nature differs from ancestor", "group", m.Group.Name, "ancestor", m.Ancestor.Name)
				fmt.Fprintf(w, "%s is %s but sits under %s (%s)\n", m.Group.Name, m.Group.Nature, m.Ancestor.Name, m.Ancestor.Nature)
			}
			return nil
		},
	}
}

func newChartOpeningCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "opening <ledger> <amount> <DEBIT|CREDIT>",
		Short: "Set a ledger's opening balance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			side := model.Side(upper(args[2]))
			if side != model.SideDebit && side != model.SideCredit {
				return fmt.Errorf("side must be DEBIT or CREDIT, got %q", args[2])
			}
			chart, err := a.loadChart(cmd)
			if err != nil {
				return err
			}
			l, err := findLedger(chart, args[0])
			if err != nil {
				return err
			}
			l.OpeningBalance, l.OpeningSide = amount, side
			if err := a.store.SetOpeningBalance(cmd.Context(), a.tenantID, l.ID, l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s opening balance %s %s\n", l.Name, amount.StringFixed(2), side)
			return nil
		},
	}
}

// findLedger resolves a ledger by code, then by name.
func findLedger(chart *accounts.Chart, ref string) (model.Ledger, error) {
	if l, ok := chart.LedgerByCode(ref); ok {
		return l, nil
	}
	if l, ok := chart.LedgerByName(ref); ok {
		return l, nil
	}
	return model.Ledger{}, model.NotFound("ledger", ref)
}
