package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// TrialBalanceParams selects a trial balance.
type TrialBalanceParams struct {
	TenantID uuid.UUID
	// AsOf defaults to the fiscal year's end when FiscalYearID is set.
	AsOf time.Time
	// FiscalYearID pins the opening/period split; otherwise the fiscal year
	// containing AsOf is used.
	FiscalYearID      uuid.UUID
	IncludeUnapproved bool
	SuppressZero      bool
}

// TrialBalanceColumns are the six amount columns of a trial balance.
type TrialBalanceColumns struct {
	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	ClosingDebit  decimal.Decimal `json:"closing_debit"`
	ClosingCredit decimal.Decimal `json:"closing_credit"`
}

func zeroColumns() TrialBalanceColumns {
	z := decimal.Zero
	return TrialBalanceColumns{z, z, z, z, z, z}
}

func (c TrialBalanceColumns) add(o TrialBalanceColumns) TrialBalanceColumns {
	return TrialBalanceColumns{
		OpeningDebit:  c.OpeningDebit.Add(o.OpeningDebit),
		OpeningCredit: c.OpeningCredit.Add(o.OpeningCredit),
		PeriodDebit:   c.PeriodDebit.Add(o.PeriodDebit),
		PeriodCredit:  c.PeriodCredit.Add(o.PeriodCredit),
		ClosingDebit:  c.ClosingDebit.Add(o.ClosingDebit),
		ClosingCredit: c.ClosingCredit.Add(o.ClosingCredit),
	}
}

func (c TrialBalanceColumns) zero() bool {
	return c.OpeningDebit.IsZero() && c.OpeningCredit.IsZero() &&
		c.PeriodDebit.IsZero() && c.PeriodCredit.IsZero() &&
		c.ClosingDebit.IsZero() && c.ClosingCredit.IsZero()
}

// TrialBalanceRow is one ledger line.
type TrialBalanceRow struct {
	LedgerID uuid.UUID `json:"ledger_id"`
	Name     string    `json:"name"`
	Code     string    `json:"code,omitempty"`
	TrialBalanceColumns
}

// TrialBalanceGroup is a group with its ledger rows, subgroups and totals.
type TrialBalanceGroup struct {
	GroupID  uuid.UUID            `json:"group_id"`
	Name     string               `json:"name"`
	Nature   model.Nature         `json:"nature"`
	Ledgers  []TrialBalanceRow    `json:"ledgers,omitempty"`
	Children []*TrialBalanceGroup `json:"children,omitempty"`
	Totals   TrialBalanceColumns  `json:"totals"`
}

// TrialBalance lists every ledger's opening, period and closing figures.
type TrialBalance struct {
	TenantID    uuid.UUID            `json:"tenant_id"`
	AsOf        time.Time            `json:"as_of"`
	PeriodStart *time.Time           `json:"period_start,omitempty"`
	FiscalYear  string               `json:"fiscal_year,omitempty"`
	Groups      []*TrialBalanceGroup `json:"groups"`
	Totals      TrialBalanceColumns  `json:"totals"`
	IsBalanced  bool                 `json:"is_balanced"`
	// Difference is closing debits minus closing credits.
	Difference decimal.Decimal `json:"difference"`
	// NatureMismatches counts groups whose nature differs from an ancestor's.
	// Their ledgers are reported under the root group's nature.
	NatureMismatches int `json:"nature_mismatches"`
}

// TrialBalance builds the trial balance. Opening figures fold in every
// posting before the fiscal year start; without a fiscal year the whole
// history up to AsOf is the period.
func (g *Generator) TrialBalance(ctx context.Context, p TrialBalanceParams) (*TrialBalance, error) {
	began := time.Now()

	// The fiscal year may supply AsOf, so resolve it first.
	var fy model.FiscalYear
	haveFY := false
	if p.FiscalYearID != uuid.Nil {
		years, err := g.src.ListFiscalYears(ctx, p.TenantID)
		if err != nil {
			return nil, err
		}
		for _, y := range years {
			if y.ID == p.FiscalYearID {
				fy, haveFY = y, true
			}
		}
		if !haveFY {
			return nil, model.NotFound("fiscal year", p.FiscalYearID)
		}
		if p.AsOf.IsZero() {
			p.AsOf = fy.EndDate
		}
	}
	if err := requireDate("as-of", p.AsOf); err != nil {
		return nil, err
	}
	asOf := model.Day(p.AsOf)

	snap, err := g.load(ctx, p.TenantID, asOf, p.IncludeUnapproved)
	if err != nil {
		return nil, err
	}
	if !haveFY {
		fy, haveFY = snap.fiscalYearFor(asOf)
	}

	tb := &TrialBalance{TenantID: p.TenantID, AsOf: asOf, Totals: zeroColumns(), Groups: []*TrialBalanceGroup{}, NatureMismatches: snap.mismatches}
	var periodStart time.Time
	if haveFY {
		periodStart = model.Day(fy.StartDate)
		tb.PeriodStart = &periodStart
		tb.FiscalYear = fy.Name
	}

	row := func(l model.Ledger) TrialBalanceColumns {
		postings := snap.byLedger[l.ID]
		opening := balance.Opening(l)
		if haveFY {
			opening = opening.Add(balance.Net(l.ID, postings, balance.Before(periodStart)))
		}
		periodDebit, periodCredit := balance.Sums(l.ID, postings, balance.Window{From: periodStart, To: asOf})
		c := TrialBalanceColumns{PeriodDebit: periodDebit, PeriodCredit: periodCredit}
		c.OpeningDebit, c.OpeningCredit = balance.Sided(opening)
		c.ClosingDebit, c.ClosingCredit = balance.Sided(opening.Add(periodDebit).Sub(periodCredit))
		return c
	}

	for _, nature := range model.Natures {
		for _, root := range snap.chart.Tree(nature) {
			if grp, ok := g.trialBalanceGroup(root, row, p.SuppressZero); ok {
				tb.Groups = append(tb.Groups, grp)
				tb.Totals = tb.Totals.add(grp.Totals)
			}
		}
	}

	tb.Difference = tb.Totals.ClosingDebit.Sub(tb.Totals.ClosingCredit)
	tb.IsBalanced = model.Balanced(tb.Totals.ClosingDebit, tb.Totals.ClosingCredit)
	g.observe("trial_balance", tb.IsBalanced, began, tb.Difference)
	return tb, nil
}

// trialBalanceGroup lists active ledgers, plus inactive ones that still
// carry figures.
func (g *Generator) trialBalanceGroup(gn *accounts.GroupNode, row func(model.Ledger) TrialBalanceColumns, suppressZero bool) (*TrialBalanceGroup, bool) {
	grp := &TrialBalanceGroup{GroupID: gn.Group.ID, Name: gn.Group.Name, Nature: gn.Group.Nature, Totals: zeroColumns()}
	for _, l := range gn.Ledgers {
		c := row(l)
		if c.zero() && (suppressZero || !l.Active) {
			continue
		}
		grp.Ledgers = append(grp.Ledgers, TrialBalanceRow{LedgerID: l.ID, Name: l.Name, Code: l.Code, TrialBalanceColumns: c})
		grp.Totals = grp.Totals.add(c)
	}
	for _, child := range gn.Children {
		if cg, ok := g.trialBalanceGroup(child, row, suppressZero); ok {
			grp.Children = append(grp.Children, cg)
			grp.Totals = grp.Totals.add(cg.Totals)
		}
	}
	if suppressZero && len(grp.Ledgers) == 0 && len(grp.Children) == 0 {
		return nil, false
	}
	return grp, true
}
