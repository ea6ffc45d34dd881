package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// BooksHeader is the header row of the native voucher import format. Rows
// sharing a ref form one voucher; the first row supplies type, date and
// voucher narration.
const BooksHeader = "ref,type,date,ledger,debit,credit,narration,cost_center,project"

const (
	colRef = iota
	colType
	colDate
	colLedger
	colDebit
	colCredit
	colNarration
	colCostCenter
	colProject
	booksNumFields
)

// BooksParser parses the native multi-line voucher CSV.
type BooksParser struct{}

// Format returns the parser name.
func (p *BooksParser) Format() string { return "books" }

// Parse reads the CSV and groups rows by ref, keeping first-seen order.
func (p *BooksParser) Parse(r io.Reader) ([]Voucher, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = booksNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading voucher CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") != BooksHeader {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(records[0], ","))
	}

	var out []Voucher
	index := make(map[string]int)
	for i, rec := range records[1:] {
		row := i + 2
		ref := strings.TrimSpace(rec[colRef])
		if ref == "" {
			return nil, fmt.Errorf("row %d: ref is required", row)
		}
		line, err := parseBooksLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		at, seen := index[ref]
		if !seen {
			v, err := parseBooksHeader(ref, rec)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
			index[ref] = len(out)
			out = append(out, v)
			at = len(out) - 1
		}
		out[at].Lines = append(out[at].Lines, line)
	}
	return out, nil
}

func parseBooksHeader(ref string, rec []string) (Voucher, error) {
	vt := model.VoucherType(strings.ToUpper(strings.TrimSpace(rec[colType])))
	if !vt.Valid() {
		return Voucher{}, fmt.Errorf("unknown voucher type %q", rec[colType])
	}
	date, err := time.Parse("2006-01-02", rec[colDate])
	if err != nil {
		return Voucher{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}
	return Voucher{Ref: ref, Type: vt, Date: date, Narration: rec[colNarration]}, nil
}

func parseBooksLine(rec []string) (Line, error) {
	debit, err := parseAmount(rec[colDebit])
	if err != nil {
		return Line{}, fmt.Errorf("parsing debit: %w", err)
	}
	credit, err := parseAmount(rec[colCredit])
	if err != nil {
		return Line{}, fmt.Errorf("parsing credit: %w", err)
	}
	ledger := strings.TrimSpace(rec[colLedger])
	if ledger == "" {
		return Line{}, errors.New("ledger is required")
	}
	return Line{
		Ledger:     ledger,
		Debit:      debit,
		Credit:     credit,
		Narration:  rec[colNarration],
		CostCenter: rec[colCostCenter],
		Project:    rec[colProject],
	}, nil
}

// parseAmount reads a decimal; blank is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, err)
	}
	return d, nil
}
