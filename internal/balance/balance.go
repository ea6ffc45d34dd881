// Package balance computes ledger balances from postings.
//
// Every report goes through this package for sign handling. Internally all
// amounts are debit-positive; Normalize flips credit-natured ledgers so a
// natural balance always presents as a positive number.
package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// Window is an inclusive date range. A zero bound leaves that side open.
type Window struct {
	From time.Time
	To   time.Time
}

// Through returns a window open at the start and ending at asOf.
func Through(asOf time.Time) Window {
	return Window{To: asOf}
}

// Before returns a window covering every day strictly before d.
func Before(d time.Time) Window {
	return Window{To: model.Day(d).AddDate(0, 0, -1)}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = model.Day(d)
	if !w.From.IsZero() && d.Before(model.Day(w.From)) {
		return false
	}
	if !w.To.IsZero() && d.After(model.Day(w.To)) {
		return false
	}
	return true
}

// Opening returns the ledger's opening balance, debit-positive.
func Opening(l model.Ledger) decimal.Decimal {
	if l.OpeningSide == model.SideCredit {
		return l.OpeningBalance.Neg()
	}
	return l.OpeningBalance
}

// Sums totals debits and credits of the ledger's postings inside w.
func Sums(ledgerID uuid.UUID, postings []model.Posting, w Window) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, p := range postings {
		if p.LedgerID != ledgerID || !w.Contains(p.Date) {
			continue
		}
		debit = debit.Add(p.Debit)
		credit = credit.Add(p.Credit)
	}
	return debit, credit
}

// Net returns debits minus credits of the ledger's postings inside w.
func Net(ledgerID uuid.UUID, postings []model.Posting, w Window) decimal.Decimal {
	d, c := Sums(ledgerID, postings, w)
	return d.Sub(c)
}

// Accumulate returns the debit-positive balance as of asOf, opening included.
// A zero asOf counts every posting.
func Accumulate(l model.Ledger, postings []model.Posting, asOf time.Time) decimal.Decimal {
	return Opening(l).Add(Net(l.ID, postings, Through(asOf)))
}

// Normalize converts a debit-positive amount into the presentation sign for
// the nature: unchanged for ASSETS and EXPENSES, negated otherwise.
func Normalize(n model.Nature, debitPositive decimal.Decimal) decimal.Decimal {
	if n.DebitNormal() {
		return debitPositive
	}
	return debitPositive.Neg()
}

// Compute returns the ledger's reported balance as of asOf.
func Compute(l model.Ledger, n model.Nature, postings []model.Posting, asOf time.Time) decimal.Decimal {
	return Normalize(n, Accumulate(l, postings, asOf))
}

// Movement returns the reported change over w, ignoring the opening balance.
func Movement(ledgerID uuid.UUID, n model.Nature, postings []model.Posting, w Window) decimal.Decimal {
	return Normalize(n, Net(ledgerID, postings, w))
}

// Sided splits a debit-positive amount into a single-sided debit/credit pair.
func Sided(debitPositive decimal.Decimal) (debit, credit decimal.Decimal) {
	if debitPositive.IsNegative() {
		return decimal.Zero, debitPositive.Neg()
	}
	return debitPositive, decimal.Zero
}

// Split partitions postings into those dated before start and the rest.
func Split(postings []model.Posting, start time.Time) (before, from []model.Posting) {
	start = model.Day(start)
	for _, p := range postings {
		if model.Day(p.Date).Before(start) {
			before = append(before, p)
		} else {
			from = append(from, p)
		}
	}
	return before, from
}
