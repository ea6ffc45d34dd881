package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/importer"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/voucher"
)

func newVoucherCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voucher",
		Short: "Post vouchers and move them through approval",
	}
	cmd.AddCommand(
		newVoucherCreateCommand(a, "post", "Validate and post a voucher for approval", false),
		newVoucherCreateCommand(a, "draft", "Save a draft voucher; it need not balance yet", true),
		newVoucherTransitionCommand(a, "submit", "Submit a draft for approval", (*voucher.Service).Submit),
		newVoucherTransitionCommand(a, "approve", "Approve a pending voucher", (*voucher.Service).Approve),
		newVoucherTransitionCommand(a, "reject", "Reject a pending voucher", (*voucher.Service).Reject),
		newVoucherTransitionCommand(a, "cancel", "Cancel a voucher", (*voucher.Service).Cancel),
		newVoucherDeleteCommand(a),
		newVoucherReverseCommand(a),
		newVoucherShowCommand(a),
		newVoucherListCommand(a),
		newVoucherImportCommand(a),
	)
	return cmd
}

func (a *app) vouchers() (*voucher.Service, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	return voucher.NewService(a.store, a.logger), nil
}

// findVoucher resolves a number like "SAL-00001" for the configured tenant.
func (a *app) findVoucher(cmd *cobra.Command, svc *voucher.Service, number string) (model.Voucher, error) {
	number = upper(number)
	vt, err := id.VoucherType(number)
	if err != nil {
		return model.Voucher{}, err
	}
	return svc.Find(cmd.Context(), a.tenantID, vt, number)
}

func newVoucherCreateCommand(a *app, use, short string, draft bool) *cobra.Command {
	var typ, date, narration string
	var debits, credits []string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = today()
			}
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			chart, err := accounts.NewService(a.store).Load(cmd.Context(), a.tenantID)
			if err != nil {
				return err
			}
			in := voucher.Input{
				TenantID:  a.tenantID,
				Type:      model.VoucherType(upper(typ)),
				Date:      d,
				Narration: narration,
				CreatedBy: a.user,
			}
			for _, arg := range debits {
				l, err := parseLine(chart, arg, true)
				if err != nil {
					return err
				}
				in.Lines = append(in.Lines, l)
			}
			for _, arg := range credits {
				l, err := parseLine(chart, arg, false)
				if err != nil {
					return err
				}
				in.Lines = append(in.Lines, l)
			}

			create := svc.Post
			if draft {
				create = svc.SaveDraft
			}
			v, err := create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", v.Number, v.Status, v.TotalDebit.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(model.VoucherJournal), "voucher type: PAYMENT, RECEIPT, CONTRA, JOURNAL, SALES, PURCHASE, DEBIT_NOTE, CREDIT_NOTE")
	cmd.Flags().StringVar(&date, "date", "", "voucher date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&narration, "narration", "", "voucher narration")
	cmd.Flags().StringArrayVar(&debits, "dr", nil, "debit line as LEDGER=AMOUNT; repeatable")
	cmd.Flags().StringArrayVar(&credits, "cr", nil, "credit line as LEDGER=AMOUNT; repeatable")
	return cmd
}

// parseLine reads LEDGER=AMOUNT, where LEDGER is a code or name.
func parseLine(chart *accounts.Chart, arg string, debit bool) (voucher.Line, error) {
	i := strings.LastIndex(arg, "=")
	if i <= 0 {
		return voucher.Line{}, fmt.Errorf("line %q must be LEDGER=AMOUNT", arg)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(arg[i+1:]))
	if err != nil {
		return voucher.Line{}, fmt.Errorf("line %q: %w", arg, err)
	}
	l, err := findLedger(chart, strings.TrimSpace(arg[:i]))
	if err != nil {
		return voucher.Line{}, err
	}
	line := voucher.Line{LedgerID: l.ID, Debit: decimal.Zero, Credit: decimal.Zero}
	if debit {
		line.Debit = amount
	} else {
		line.Credit = amount
	}
	return line, nil
}

type transitionFunc func(*voucher.Service, context.Context, uuid.UUID, uuid.UUID, string) (model.Voucher, error)

func newVoucherTransitionCommand(a *app, use, short string, fn transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			v, err := a.findVoucher(cmd, svc, args[0])
			if err != nil {
				return err
			}
			v, err = fn(svc, cmd.Context(), a.tenantID, v.ID, a.user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", v.Number, v.Status)
			return nil
		},
	}
}

func newVoucherDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a draft, rejected or cancelled voucher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			v, err := a.findVoucher(cmd, svc, args[0])
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), a.tenantID, v.ID, a.user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", v.Number)
			return nil
		},
	}
}

func newVoucherReverseCommand(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "reverse <number>",
		Short: "Post a reversing journal for an approved voucher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate("date", date)
			if err != nil {
				return err
			}
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			v, err := a.findVoucher(cmd, svc, args[0])
			if err != nil {
				return err
			}
			rev, err := svc.Reverse(cmd.Context(), a.tenantID, v.ID, a.user, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s reversed by %s %s\n", v.Number, rev.Number, rev.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reversal date YYYY-MM-DD (default the original date)")
	return cmd
}

func newVoucherShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Print a voucher as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			v, err := a.findVoucher(cmd, svc, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newVoucherListCommand(a *app) *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Write the day book as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseDate("from", from)
			if err != nil {
				return err
			}
			t, err := parseDate("to", to)
			if err != nil {
				return err
			}
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			chart, err := accounts.NewService(a.store).Load(cmd.Context(), a.tenantID)
			if err != nil {
				return err
			}
			headers, err := svc.List(cmd.Context(), a.tenantID, f, t)
			if err != nil {
				return err
			}
			full := make([]model.Voucher, 0, len(headers))
			for _, h := range headers {
				v, err := svc.Get(cmd.Context(), a.tenantID, h.ID)
				if err != nil {
					return err
				}
				full = append(full, v)
			}

			w, done, err := outputFile(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := voucher.WriteDayBook(w, full, chart); err != nil {
				done()
				return err
			}
			return done()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newVoucherImportCommand(a *app) *cobra.Command {
	var format, bankLedger, contraLedger string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Post vouchers from CSV; without a file, every CSV in import/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := importer.DefaultRegistry(bankLedger, contraLedger).Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q", format)
			}
			svc, err := a.vouchers()
			if err != nil {
				return err
			}
			im := importer.New(accounts.NewService(a.store), svc, a.logger)

			root := filepath.Dir(a.cfgPath)
			var files []importer.FileInfo
			if len(args) == 1 {
				files = []importer.FileInfo{{Name: filepath.Base(args[0]), Path: args[0]}}
			} else if files, err = importer.Scan(root); err != nil {
				return err
			}

			var failed int
			for _, fi := range files {
				n, err := importFile(cmd, a, im, parser, fi)
				if err != nil {
					return err
				}
				failed += n
				if len(args) == 0 && n == 0 {
					if err := importer.MarkProcessed(root, fi.Name); err != nil {
						return err
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d voucher(s) rejected", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "books", "input format: books or bank")
	cmd.Flags().StringVar(&bankLedger, "bank-ledger", "Bank", "bank ledger for the bank format")
	cmd.Flags().StringVar(&contraLedger, "contra-ledger", "", "ledger that takes the other side of bank lines")
	return cmd
}

// importFile posts one file and returns how many vouchers were rejected.
func importFile(cmd *cobra.Command, a *app, im *importer.Importer, parser importer.Parser, fi importer.FileInfo) (int, error) {
	f, err := os.Open(fi.Path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", fi.Name, err)
	}
	defer f.Close()

	parsed, err := parser.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", fi.Name, err)
	}
	res, err := im.Import(cmd.Context(), a.tenantID, parsed, a.user)
	if err != nil {
		return 0, err
	}

	w := cmd.OutOrStdout()
	for _, v := range res.Posted {
		fmt.Fprintf(w, "%s: posted %s\n", fi.Name, v.Number)
	}
	for _, fl := range res.Failed {
		var verrs model.ValidationErrors
		if errors.As(fl.Err, &verrs) {
			for _, ve := range verrs {
				fmt.Fprintf(w, "%s: %s rejected: %s\n", fi.Name, fl.Ref, ve.Error())
			}
			continue
		}
		fmt.Fprintf(w, "%s: %s rejected: %v\n", fi.Name, fl.Ref, fl.Err)
	}
	return len(res.Failed), nil
}
