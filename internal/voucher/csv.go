package voucher

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/books/internal/model"
)

// DayBookHeader is the CSV header for voucher exports.
const DayBookHeader = "number,type,date,status,ledger,debit,credit,narration,cost_center,project"

const (
	numFields     = 10
	colNumber     = 0
	colType       = 1
	colDate       = 2
	colStatus     = 3
	colLedger     = 4
	colDebit      = 5
	colCredit     = 6
	colNarration  = 7
	colCostCenter = 8
	colProject    = 9
)

// WriteDayBook writes one row per voucher entry, header first. Vouchers
// must carry their entries.
func WriteDayBook(w io.Writer, vouchers []model.Voucher, ledgers LedgerLookup) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(DayBookHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, v := range vouchers {
		for _, e := range v.Entries {
			if err := cw.Write(MarshalEntry(v, e, ledgers)); err != nil {
				return fmt.Errorf("writing %s line %d: %w", v.Number, e.Sequence, err)
			}
		}
	}
	return cw.Error()
}

// MarshalEntry converts one voucher line to a CSV row.
func MarshalEntry(v model.Voucher, e model.VoucherEntry, ledgers LedgerLookup) []string {
	row := make([]string, numFields)
	row[colNumber] = v.Number
	row[colType] = string(v.Type)
	row[colDate] = v.Date.Format("2006-01-02")
	row[colStatus] = string(v.Status)
	if l, ok := ledgers.Ledger(e.LedgerID); ok {
		row[colLedger] = l.Name
	} else {
		row[colLedger] = e.LedgerID.String()
	}
	if !e.Debit.IsZero() {
		row[colDebit] = e.Debit.StringFixed(2)
	}
	if !e.Credit.IsZero() {
		row[colCredit] = e.Credit.StringFixed(2)
	}
	row[colNarration] = e.Narration
	if row[colNarration] == "" {
		row[colNarration] = v.Narration
	}
	row[colCostCenter] = e.CostCenter
	row[colProject] = e.Project
	return row
}
