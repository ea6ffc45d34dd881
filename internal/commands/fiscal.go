package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/model"
)

func newFiscalYearCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fiscal-year",
		Short: "Manage fiscal years",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <start-year>",
		Short: "Create the fiscal year starting in the given calendar year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("start year %q: %w", args[0], err)
			}
			if err := a.open(); err != nil {
				return err
			}
			fy, err := a.createFiscalYear(cmd.Context(), year)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s to %s)\n", fy.Name, fy.StartDate.Format("2006-01-02"), fy.EndDate.Format("2006-01-02"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List fiscal years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			years, err := a.store.ListFiscalYears(cmd.Context(), a.tenantID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTART\tEND\tSTATUS")
			for _, fy := range years {
				status := "open"
				if fy.Closed {
					status = "closed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fy.Name, fy.StartDate.Format("2006-01-02"), fy.EndDate.Format("2006-01-02"), status)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "close <name>",
		Short: "Close a fiscal year to further posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			fy, err := a.fiscalYearByName(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.store.CloseFiscalYear(cmd.Context(), a.tenantID, fy.ID); err != nil {
				return err
			}
			a.logger.Info("fiscal year closed", "name", fy.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Closed %s\n", fy.Name)
			return nil
		},
	})

	return cmd
}

func (a *app) fiscalYearByName(cmd *cobra.Command, name string) (model.FiscalYear, error) {
	years, err := a.store.ListFiscalYears(cmd.Context(), a.tenantID)
	if err != nil {
		return model.FiscalYear{}, err
	}
	for _, fy := range years {
		if fy.Name == name {
			return fy, nil
		}
	}
	return model.FiscalYear{}, model.NotFound("fiscal year", name)
}
