package voucher

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// LedgerLookup resolves ledger references. *accounts.Chart satisfies it.
type LedgerLookup interface {
	Ledger(id uuid.UUID) (model.Ledger, bool)
}

// ValidateEntries runs every rule a PENDING or APPROVED voucher must satisfy.
func ValidateEntries(entries []model.VoucherEntry, ledgers LedgerLookup) model.ValidationErrors {
	errs := validateBalance(entries)
	return append(errs, validateLines(entries, ledgers)...)
}

// validateBalance enforces the double-entry invariant.
func validateBalance(entries []model.VoucherEntry) model.ValidationErrors {
	var errs model.ValidationErrors
	if len(entries) < 2 {
		errs = append(errs, model.ValidationError{
			Rule:        model.RuleMinEntries,
			Description: fmt.Sprintf("voucher needs at least 2 entries, got %d", len(entries)),
		})
	}

	debit, credit := model.Totals(entries)
	if !model.Balanced(debit, credit) {
		errs = append(errs, model.ValidationError{
			Rule: model.RuleBalanced,
			Description: fmt.Sprintf("debits (%s) != credits (%s), difference %s",
				debit.StringFixed(2), credit.StringFixed(2), debit.Sub(credit).Abs().StringFixed(2)),
		})
	}
	return errs
}

// validateLines checks each line on its own. Drafts are held to these
// rules only.
func validateLines(entries []model.VoucherEntry, ledgers LedgerLookup) model.ValidationErrors {
	var errs model.ValidationErrors
	for i, e := range entries {
		ref := fmt.Sprintf("line %d", i+1)

		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			errs = append(errs, model.ValidationError{
				Rule:        model.RuleNonNegative,
				Ref:         ref,
				Description: "debit and credit must not be negative",
			})
		}

		if e.Debit.IsZero() == e.Credit.IsZero() {
			errs = append(errs, model.ValidationError{
				Rule:        model.RuleSingleSide,
				Ref:         ref,
				Description: "entry must have exactly one of debit or credit",
			})
		}

		l, ok := ledgers.Ledger(e.LedgerID)
		switch {
		case !ok:
			errs = append(errs, model.ValidationError{
				Rule:        model.RuleUnknownLedger,
				Ref:         ref,
				Description: fmt.Sprintf("unknown ledger %s", e.LedgerID),
			})
		case !l.Active:
			errs = append(errs, model.ValidationError{
				Rule:        model.RuleInactiveLedger,
				Ref:         ref,
				Description: fmt.Sprintf("ledger %q is inactive", l.Name),
			})
		}

		for _, amt := range []decimal.Decimal{e.Debit, e.Credit} {
			if !amt.Equal(amt.Round(2)) {
				errs = append(errs, model.ValidationError{
					Rule:        model.RulePrecision,
					Ref:         ref,
					Description: fmt.Sprintf("amount %s has more than 2 decimal places", amt),
				})
			}
		}
	}
	return errs
}

// validateFiscalYear checks the voucher date falls in an open fiscal year.
func validateFiscalYear(fy model.FiscalYear, found bool, v model.Voucher) model.ValidationErrors {
	day := v.Date.Format("2006-01-02")
	switch {
	case !found:
		return model.ValidationErrors{{
			Rule:        model.RuleFiscalYear,
			Ref:         day,
			Description: "no fiscal year covers this date",
		}}
	case fy.Closed:
		return model.ValidationErrors{{
			Rule:        model.RuleFiscalYear,
			Ref:         day,
			Description: fmt.Sprintf("fiscal year %q is closed", fy.Name),
		}}
	}
	return nil
}
