package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// BalanceSheetParams selects a balance sheet.
type BalanceSheetParams struct {
	TenantID          uuid.UUID
	AsOf              time.Time
	IncludeUnapproved bool
	SuppressZero      bool
	// Compare adds figures as of the previous fiscal year end (or one year
	// earlier when AsOf has no fiscal year).
	Compare bool
}

// BalanceSheetSummary carries the headline totals. TotalEquity covers
// equity ledgers only; the profit lines are separate.
type BalanceSheetSummary struct {
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	CurrentYearProfit         decimal.Decimal `json:"current_year_profit"`
	PriorPeriodProfit         decimal.Decimal `json:"prior_period_profit"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

// BalanceSheet is the statement of financial position.
type BalanceSheet struct {
	TenantID        uuid.UUID            `json:"tenant_id"`
	AsOf            time.Time            `json:"as_of"`
	PreviousAsOf    *time.Time           `json:"previous_as_of,omitempty"`
	Assets          Section              `json:"assets"`
	Liabilities     Section              `json:"liabilities"`
	Equity          Section              `json:"equity"`
	Summary         BalanceSheetSummary  `json:"summary"`
	PreviousSummary *BalanceSheetSummary `json:"previous_summary,omitempty"`
	IsBalanced      bool                 `json:"is_balanced"`
	// Difference is assets minus liabilities, equity and profit.
	Difference decimal.Decimal `json:"difference"`
	// NatureMismatches counts groups whose nature differs from an ancestor's.
	// Their ledgers are reported under the root group's nature.
	NatureMismatches int `json:"nature_mismatches"`
}

// Synthetic equity lines. They are computed, never stored.
const (
	CurrentYearProfitLine = "Current Year Profit"
	PriorPeriodProfitLine = "Retained Earnings (unclosed)"
)

// profitSplit is accumulated profit as of a date, split at the fiscal year
// start.
type profitSplit struct {
	current decimal.Decimal
	prior   decimal.Decimal
}

// profitAsOf folds every income and expense ledger. Without a fiscal year
// all profit counts as current.
func (s *snapshot) profitAsOf(asOf time.Time) profitSplit {
	fy, haveFY := s.fiscalYearFor(asOf)
	total, current := decimal.Zero, decimal.Zero
	for _, l := range s.chart.Ledgers() {
		n := s.nature(l)
		if n != model.NatureIncome && n != model.NatureExpenses {
			continue
		}
		postings := s.byLedger[l.ID]
		// Debit-positive, so profit is the negation.
		total = total.Sub(balance.Accumulate(l, postings, asOf))
		if haveFY {
			current = current.Sub(balance.Net(l.ID, postings, balance.Window{From: fy.StartDate, To: asOf}))
		}
	}
	if !haveFY {
		return profitSplit{current: total, prior: decimal.Zero}
	}
	return profitSplit{current: current, prior: total.Sub(current)}
}

// previousDate is the comparison date for asOf.
func (s *snapshot) previousDate(asOf time.Time) time.Time {
	if fy, ok := s.fiscalYearFor(asOf); ok {
		return model.Day(fy.StartDate).AddDate(0, 0, -1)
	}
	return asOf.AddDate(-1, 0, 0)
}

// BalanceSheet builds the balance sheet as of p.AsOf. Current-year profit
// is folded into equity at render time.
func (g *Generator) BalanceSheet(ctx context.Context, p BalanceSheetParams) (*BalanceSheet, error) {
	began := time.Now()
	if err := requireDate("as-of", p.AsOf); err != nil {
		return nil, err
	}
	asOf := model.Day(p.AsOf)

	snap, err := g.load(ctx, p.TenantID, asOf, p.IncludeUnapproved)
	if err != nil {
		return nil, err
	}

	bs := &BalanceSheet{TenantID: p.TenantID, AsOf: asOf, NatureMismatches: snap.mismatches}
	prevAsOf := snap.previousDate(asOf)
	if p.Compare {
		bs.PreviousAsOf = &prevAsOf
	}

	var cur, prev profitSplit
	var eg errgroup.Group
	eg.Go(func() error {
		cur = snap.profitAsOf(asOf)
		return nil
	})
	if p.Compare {
		eg.Go(func() error {
			prev = snap.profitAsOf(prevAsOf)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	opts := rollupOptions{
		amount: func(l model.Ledger) pair {
			n := snap.nature(l)
			out := pair{cur: balance.Compute(l, n, snap.byLedger[l.ID], asOf), prev: decimal.Zero}
			if p.Compare {
				out.prev = balance.Compute(l, n, snap.byLedger[l.ID], prevAsOf)
			}
			return out
		},
		compare:      p.Compare,
		suppressZero: p.SuppressZero,
	}

	assets, assetTotal := rollup(snap.chart.Tree(model.NatureAssets), opts)
	liabilities, liabilityTotal := rollup(snap.chart.Tree(model.NatureLiabilities), opts)
	equity, equityTotal := rollup(snap.chart.Tree(model.NatureEquity), opts)

	profitLine := func(name string, c, pv decimal.Decimal) *Node {
		n := &Node{Name: name, Amount: c}
		if p.Compare {
			n.Previous = ptr(pv)
		}
		return n
	}
	equityWithProfit := append(equity, profitLine(CurrentYearProfitLine, cur.current, prev.current))
	if !cur.prior.IsZero() || (p.Compare && !prev.prior.IsZero()) {
		equityWithProfit = append(equityWithProfit, profitLine(PriorPeriodProfitLine, cur.prior, prev.prior))
	}
	profitTotal := pair{cur: cur.current.Add(cur.prior), prev: prev.current.Add(prev.prior)}

	bs.Assets = newSection("Assets", assets, assetTotal, p.Compare)
	bs.Liabilities = newSection("Liabilities", liabilities, liabilityTotal, p.Compare)
	bs.Equity = newSection("Equity", equityWithProfit, equityTotal.add(profitTotal), p.Compare)

	bs.Summary = summarize(assetTotal.cur, liabilityTotal.cur, equityTotal.cur, cur)
	if p.Compare {
		ps := summarize(assetTotal.prev, liabilityTotal.prev, equityTotal.prev, prev)
		bs.PreviousSummary = &ps
	}

	bs.Difference = bs.Summary.TotalAssets.Sub(bs.Summary.TotalLiabilitiesAndEquity)
	bs.IsBalanced = model.Balanced(bs.Summary.TotalAssets, bs.Summary.TotalLiabilitiesAndEquity)
	g.observe("balance_sheet", bs.IsBalanced, began, bs.Difference)
	return bs, nil
}

func summarize(assets, liabilities, equity decimal.Decimal, profit profitSplit) BalanceSheetSummary {
	return BalanceSheetSummary{
		TotalAssets:               assets,
		TotalLiabilities:          liabilities,
		TotalEquity:               equity,
		CurrentYearProfit:         profit.current,
		PriorPeriodProfit:         profit.prior,
		TotalLiabilitiesAndEquity: liabilities.Add(equity).Add(profit.current).Add(profit.prior),
	}
}
