package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// ProfitLossParams selects a profit and loss statement. A zero To means
// today; a zero From means the start of To's fiscal year.
type ProfitLossParams struct {
	TenantID          uuid.UUID
	From              time.Time
	To                time.Time
	IncludeUnapproved bool
	// Compare adds the immediately preceding period of equal length.
	Compare bool
}

// ProfitLossSummary carries the headline figures. Margins are percentages
// of total income, zero when there is no income.
type ProfitLossSummary struct {
	TotalIncome           decimal.Decimal `json:"total_income"`
	TotalDirectExpenses   decimal.Decimal `json:"total_direct_expenses"`
	GrossProfit           decimal.Decimal `json:"gross_profit"`
	TotalIndirectExpenses decimal.Decimal `json:"total_indirect_expenses"`
	NetProfit             decimal.Decimal `json:"net_profit"`
	GrossMargin           decimal.Decimal `json:"gross_margin"`
	NetMargin             decimal.Decimal `json:"net_margin"`
}

// ProfitLoss is the income statement for a period.
type ProfitLoss struct {
	TenantID         uuid.UUID          `json:"tenant_id"`
	From             *time.Time         `json:"from,omitempty"`
	To               time.Time          `json:"to"`
	PreviousFrom     *time.Time         `json:"previous_from,omitempty"`
	PreviousTo       *time.Time         `json:"previous_to,omitempty"`
	Income           Section            `json:"income"`
	DirectExpenses   Section            `json:"direct_expenses"`
	IndirectExpenses Section            `json:"indirect_expenses"`
	Summary          ProfitLossSummary  `json:"summary"`
	PreviousSummary  *ProfitLossSummary `json:"previous_summary,omitempty"`
	// IsBalanced reports whether the group rollup agrees with the net of
	// every income and expense ledger.
	IsBalanced bool            `json:"is_balanced"`
	Difference decimal.Decimal `json:"difference"`
	// NatureMismatches counts groups whose nature differs from an ancestor's.
	// Their ledgers are reported under the root group's nature.
	NatureMismatches int `json:"nature_mismatches"`
}

// ProfitLoss builds the profit and loss statement.
func (g *Generator) ProfitLoss(ctx context.Context, p ProfitLossParams) (*ProfitLoss, error) {
	began := time.Now()
	to := p.To
	if to.IsZero() {
		to = g.now()
	}
	to = model.Day(to)

	snap, err := g.load(ctx, p.TenantID, to, p.IncludeUnapproved)
	if err != nil {
		return nil, err
	}

	from := p.From
	if from.IsZero() {
		if fy, ok := snap.fiscalYearFor(to); ok {
			from = fy.StartDate
		}
	}
	if !from.IsZero() {
		from = model.Day(from)
		if from.After(to) {
			return nil, fmt.Errorf("period start %s is after end %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
	}

	pl := &ProfitLoss{TenantID: p.TenantID, To: to, NatureMismatches: snap.mismatches}
	cur := balance.Window{From: from, To: to}
	var prev balance.Window
	compare := p.Compare && !from.IsZero()
	if !from.IsZero() {
		pl.From = &from
	}
	if compare {
		prev = precedingWindow(from, to)
		pl.PreviousFrom, pl.PreviousTo = &prev.From, &prev.To
	}

	movement := func(l model.Ledger) pair {
		n := snap.nature(l)
		out := pair{cur: balance.Movement(l.ID, n, snap.byLedger[l.ID], cur), prev: decimal.Zero}
		if compare {
			out.prev = balance.Movement(l.ID, n, snap.byLedger[l.ID], prev)
		}
		return out
	}
	direct := func(l model.Ledger) bool {
		grp, _ := snap.chart.Group(l.GroupID)
		return grp.AffectsGrossProfit
	}

	var (
		income, directExp, indirectExp          []*Node
		incomeTotal, directTotal, indirectTotal pair
		flat                                    pair
	)
	var eg errgroup.Group
	eg.Go(func() error {
		income, incomeTotal = rollup(snap.chart.Tree(model.NatureIncome), rollupOptions{amount: movement, compare: compare})
		return nil
	})
	eg.Go(func() error {
		directExp, directTotal = rollup(snap.chart.Tree(model.NatureExpenses), rollupOptions{amount: movement, include: direct, compare: compare})
		return nil
	})
	eg.Go(func() error {
		indirectExp, indirectTotal = rollup(snap.chart.Tree(model.NatureExpenses), rollupOptions{
			amount:  movement,
			include: func(l model.Ledger) bool { return !direct(l) },
			compare: compare,
		})
		return nil
	})
	eg.Go(func() error {
		flat = pair{cur: decimal.Zero, prev: decimal.Zero}
		for _, l := range snap.chart.Ledgers() {
			switch snap.nature(l) {
			case model.NatureIncome:
				flat = flat.add(movement(l))
			case model.NatureExpenses:
				m := movement(l)
				flat = flat.add(pair{cur: m.cur.Neg(), prev: m.prev.Neg()})
			}
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	pl.Income = newSection("Income", income, incomeTotal, compare)
	pl.DirectExpenses = newSection("Direct Expenses", directExp, directTotal, compare)
	pl.IndirectExpenses = newSection("Indirect Expenses", indirectExp, indirectTotal, compare)
	pl.Summary = profitSummary(incomeTotal.cur, directTotal.cur, indirectTotal.cur)
	if compare {
		ps := profitSummary(incomeTotal.prev, directTotal.prev, indirectTotal.prev)
		pl.PreviousSummary = &ps
	}

	pl.Difference = pl.Summary.NetProfit.Sub(flat.cur)
	pl.IsBalanced = model.Balanced(pl.Summary.NetProfit, flat.cur)
	g.observe("profit_loss", pl.IsBalanced, began, pl.Difference)
	return pl, nil
}

func profitSummary(income, direct, indirect decimal.Decimal) ProfitLossSummary {
	gross := income.Sub(direct)
	net := gross.Sub(indirect)
	return ProfitLossSummary{
		TotalIncome:           income,
		TotalDirectExpenses:   direct,
		GrossProfit:           gross,
		TotalIndirectExpenses: indirect,
		NetProfit:             net,
		GrossMargin:           percent(gross, income),
		NetMargin:             percent(net, income),
	}
}

// precedingWindow returns the period of equal length ending the day before
// from.
func precedingWindow(from, to time.Time) balance.Window {
	days := int(to.Sub(from).Hours()/24) + 1
	end := from.AddDate(0, 0, -1)
	return balance.Window{From: end.AddDate(0, 0, -(days - 1)), To: end}
}
