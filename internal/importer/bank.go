package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// BankParser parses Chase-style checking exports into two-line vouchers.
// Deposits become RECEIPT vouchers debiting BankLedger; withdrawals become
// PAYMENT vouchers crediting it. The other side always goes to ContraLedger
// for later reclassification.
type BankParser struct {
	BankLedger   string
	ContraLedger string
}

const (
	bankDateFormat = "01/02/2006"
	bankNumFields  = 7
	bankColDate    = 1
	bankColDesc    = 2
	bankColAmount  = 3
	bankColType    = 4
)

// Format returns the parser name.
func (p *BankParser) Format() string { return "bank" }

// Parse reads a bank CSV and returns one voucher per non-zero row.
func (p *BankParser) Parse(r io.Reader) ([]Voucher, error) {
	if p.BankLedger == "" || p.ContraLedger == "" {
		return nil, fmt.Errorf("bank parser needs both a bank and a contra ledger")
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = bankNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading bank CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var out []Voucher
	for i, rec := range records[1:] {
		v, skip, err := p.parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if !skip {
			out = append(out, v)
		}
	}
	return out, nil
}

func (p *BankParser) parseRow(rec []string) (Voucher, bool, error) {
	date, err := time.Parse(bankDateFormat, rec[bankColDate])
	if err != nil {
		return Voucher{}, false, fmt.Errorf("parsing date %q: %w", rec[bankColDate], err)
	}

	amount, err := decimal.NewFromString(rec[bankColAmount])
	if err != nil {
		return Voucher{}, false, fmt.Errorf("parsing amount %q: %w", rec[bankColAmount], err)
	}
	if amount.IsZero() {
		return Voucher{}, true, nil
	}

	desc := rec[bankColDesc]
	narration := desc
	if t := rec[bankColType]; t != "" {
		narration = fmt.Sprintf("%s (%s)", desc, t)
	}
	v := Voucher{Ref: makeBankRef(date, desc), Date: date, Narration: narration}
	abs := amount.Abs()
	if amount.IsPositive() {
		v.Type = model.VoucherReceipt
		v.Lines = []Line{
			{Ledger: p.BankLedger, Debit: abs, Credit: decimal.Zero},
			{Ledger: p.ContraLedger, Debit: decimal.Zero, Credit: abs},
		}
	} else {
		v.Type = model.VoucherPayment
		v.Lines = []Line{
			{Ledger: p.ContraLedger, Debit: abs, Credit: decimal.Zero},
			{Ledger: p.BankLedger, Debit: decimal.Zero, Credit: abs},
		}
	}
	return v, false, nil
}

// makeBankRef creates a reference like bank_20250103_GITHUBPRO.
func makeBankRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("bank_%s_%s", date.Format("20060102"), prefix)
}
