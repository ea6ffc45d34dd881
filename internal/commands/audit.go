package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/auditlog"
)

func newAuditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Voucher lifecycle audit trail",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the audit trail as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			entries, err := a.store.ListAudit(cmd.Context(), a.tenantID)
			if err != nil {
				return err
			}
			w, done, err := outputFile(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := auditlog.Write(w, entries); err != nil {
				done()
				return err
			}
			return done()
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.AddCommand(export)
	return cmd
}
