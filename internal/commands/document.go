package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/model"
)

func newDocumentCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document",
		Short: "Record invoices, bills and cash documents for aging and cash flow",
	}
	cmd.AddCommand(newTradeDocumentCommand(a), newCashDocumentCommand(a))
	return cmd
}

// partyID derives a stable party ID from the tenant and party name.
func partyID(tenantID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(tenantID, []byte(name))
}

func newTradeDocumentCommand(a *app) *cobra.Command {
	var kind, number, party, issue, due, total, paid, status string

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record an invoice or bill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := model.TradeDocument{
				ID:        uuid.New(),
				Kind:      model.TradeKind(upper(kind)),
				Number:    number,
				PartyName: party,
				Status:    model.TradeStatus(upper(status)),
			}
			if d.Kind != model.TradeInvoice && d.Kind != model.TradeBill {
				return fmt.Errorf("--kind must be INVOICE or BILL, got %q", kind)
			}
			var err error
			if d.IssueDate, err = parseDate("issue", issue); err != nil {
				return err
			}
			if d.DueDate, err = parseDate("due", due); err != nil {
				return err
			}
			if d.IssueDate.IsZero() {
				d.IssueDate = today()
			}
			if d.DueDate.IsZero() {
				d.DueDate = d.IssueDate
			}
			if d.TotalAmount, err = decimal.NewFromString(total); err != nil {
				return fmt.Errorf("--total: %w", err)
			}
			if d.AmountPaid, err = decimal.NewFromString(paid); err != nil {
				return fmt.Errorf("--paid: %w", err)
			}

			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			d.TenantID = a.tenantID
			d.PartyID = partyID(a.tenantID, party)
			if d.Number == "" {
				if d.Number, err = a.store.NextDocumentNumber(ctx, a.tenantID, string(d.Kind)); err != nil {
					return err
				}
			}
			if err := a.store.AddTradeDocument(ctx, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s due %s\n", d.Number, d.PartyName, d.AmountDue().StringFixed(2), d.DueDate.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.TradeInvoice), "INVOICE or BILL")
	cmd.Flags().StringVar(&number, "number", "", "document number (default next in sequence)")
	cmd.Flags().StringVar(&party, "party", "", "customer or vendor name (required)")
	_ = cmd.MarkFlagRequired("party")
	cmd.Flags().StringVar(&issue, "issue", "", "issue date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD (default issue date)")
	cmd.Flags().StringVar(&total, "total", "", "total amount (required)")
	_ = cmd.MarkFlagRequired("total")
	cmd.Flags().StringVar(&paid, "paid", "0", "amount already paid")
	cmd.Flags().StringVar(&status, "status", string(model.TradeOpen), "DRAFT, OPEN, PARTIALLY_PAID, PAID or CANCELLED")
	return cmd
}

func newCashDocumentCommand(a *app) *cobra.Command {
	var kind, number, date, amount string
	var cancelled bool

	cmd := &cobra.Command{
		Use:   "cash",
		Short: "Record a receipt, payment, payroll run or expense claim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := model.CashDocument{
				ID:        uuid.New(),
				Kind:      model.CashKind(upper(kind)),
				Number:    number,
				Cancelled: cancelled,
			}
			if !d.Kind.Valid() {
				return fmt.Errorf("unknown cash kind %q", kind)
			}
			var err error
			if d.Date, err = parseDate("date", date); err != nil {
				return err
			}
			if d.Date.IsZero() {
				d.Date = today()
			}
			if d.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			d.TenantID = a.tenantID
			if d.Number == "" {
				if d.Number, err = a.store.NextDocumentNumber(ctx, a.tenantID, string(d.Kind)); err != nil {
					return err
				}
			}
			if err := a.store.AddCashDocument(ctx, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", d.Number, d.Kind, d.Amount.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "CUSTOMER_RECEIPT, OTHER_RECEIPT, VENDOR_PAYMENT, PAYROLL, EXPENSE_CLAIM or OTHER_PAYMENT (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&number, "number", "", "document number (default next in sequence)")
	cmd.Flags().StringVar(&date, "date", "", "document date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().BoolVar(&cancelled, "cancelled", false, "record the document as cancelled")
	return cmd
}
