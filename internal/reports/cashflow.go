package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// CashFlowParams selects a cash flow statement.
type CashFlowParams struct {
	TenantID          uuid.UUID
	From              time.Time
	To                time.Time
	IncludeUnapproved bool
}

// CashFlowLine is one classified activity line. Outflows are negative.
type CashFlowLine struct {
	Kind   model.CashKind  `json:"kind"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Activities groups lines under operating, investing or financing.
type Activities struct {
	Lines []CashFlowLine  `json:"lines"`
	Net   decimal.Decimal `json:"net"`
}

// CashLedgerBalance is one cash or bank ledger's movement over the period.
type CashLedgerBalance struct {
	LedgerID uuid.UUID       `json:"ledger_id"`
	Name     string          `json:"name"`
	Opening  decimal.Decimal `json:"opening"`
	Closing  decimal.Decimal `json:"closing"`
}

// CashFlowSummary carries the headline figures.
type CashFlowSummary struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	NetOperating   decimal.Decimal `json:"net_operating"`
	NetInvesting   decimal.Decimal `json:"net_investing"`
	NetFinancing   decimal.Decimal `json:"net_financing"`
	NetCashFlow    decimal.Decimal `json:"net_cash_flow"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// Reconciliation compares the document-derived closing balance with the
// balance in the cash and bank ledgers.
type Reconciliation struct {
	ComputedClosing decimal.Decimal `json:"computed_closing"`
	ActualClosing   decimal.Decimal `json:"actual_closing"`
	// Difference is computed minus actual.
	Difference   decimal.Decimal `json:"difference"`
	IsReconciled bool            `json:"is_reconciled"`
}

// CashFlow is the cash flow statement for a period.
type CashFlow struct {
	TenantID       uuid.UUID           `json:"tenant_id"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	Operating      Activities          `json:"operating"`
	Investing      Activities          `json:"investing"`
	Financing      Activities          `json:"financing"`
	CashLedgers    []CashLedgerBalance `json:"cash_ledgers"`
	Summary        CashFlowSummary     `json:"summary"`
	Reconciliation Reconciliation      `json:"reconciliation"`
}

var cashLabels = map[model.CashKind]string{
	model.CashCustomerReceipt: "Receipts from customers",
	model.CashOtherReceipt:    "Other receipts",
	model.CashVendorPayment:   "Payments to vendors",
	model.CashPayroll:         "Net salaries paid",
	model.CashExpenseClaim:    "Expense claims reimbursed",
	model.CashOtherPayment:    "Other payments",
}

// CashFlow builds the cash flow statement. Operating lines come from cash
// documents; the opening and actual closing come from cash/bank ledgers.
func (g *Generator) CashFlow(ctx context.Context, p CashFlowParams) (*CashFlow, error) {
	began := time.Now()
	if err := requireDate("from", p.From); err != nil {
		return nil, err
	}
	if err := requireDate("to", p.To); err != nil {
		return nil, err
	}
	from, to := model.Day(p.From), model.Day(p.To)
	if from.After(to) {
		return nil, fmt.Errorf("period start %s is after end %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	if _, err := g.src.GetTenant(ctx, p.TenantID); err != nil {
		return nil, err
	}

	var (
		groups  []model.LedgerGroup
		ledgers []model.Ledger
		docs    []model.CashDocument
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		groups, err = g.src.ListGroups(ectx, p.TenantID)
		return err
	})
	eg.Go(func() error {
		var err error
		ledgers, err = g.src.ListLedgers(ectx, p.TenantID)
		return err
	})
	eg.Go(func() error {
		var err error
		docs, err = g.src.ListCashDocuments(ectx, p.TenantID, from, to)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("loading cash flow data: %w", err)
	}

	chart, err := accounts.NewChart(groups, ledgers)
	if err != nil {
		return nil, err
	}
	cash := chart.CashOrBankLedgers()

	var postings []model.Posting
	if len(cash) > 0 {
		ids := make([]uuid.UUID, len(cash))
		for i, l := range cash {
			ids[i] = l.ID
		}
		postings, err = g.src.ListPostings(ctx, model.PostingFilter{
			TenantID:  p.TenantID,
			To:        to,
			Statuses:  model.ReportStatuses(p.IncludeUnapproved),
			LedgerIDs: ids,
		})
		if err != nil {
			return nil, fmt.Errorf("loading cash postings: %w", err)
		}
	}

	cf := &CashFlow{TenantID: p.TenantID, From: from, To: to, CashLedgers: []CashLedgerBalance{}}
	opening, actual := decimal.Zero, decimal.Zero
	for _, l := range cash {
		o := balance.Accumulate(l, postings, from.AddDate(0, 0, -1))
		c := o.Add(balance.Net(l.ID, postings, balance.Window{From: from, To: to}))
		cf.CashLedgers = append(cf.CashLedgers, CashLedgerBalance{LedgerID: l.ID, Name: l.Name, Opening: o, Closing: c})
		opening = opening.Add(o)
		actual = actual.Add(c)
	}

	cf.Operating = operatingActivities(docs)
	cf.Investing = Activities{Lines: []CashFlowLine{}, Net: decimal.Zero}
	cf.Financing = Activities{Lines: []CashFlowLine{}, Net: decimal.Zero}

	net := cf.Operating.Net.Add(cf.Investing.Net).Add(cf.Financing.Net)
	closing := opening.Add(net)
	cf.Summary = CashFlowSummary{
		OpeningBalance: opening,
		NetOperating:   cf.Operating.Net,
		NetInvesting:   cf.Investing.Net,
		NetFinancing:   cf.Financing.Net,
		NetCashFlow:    net,
		ClosingBalance: closing,
	}
	cf.Reconciliation = Reconciliation{
		ComputedClosing: closing,
		ActualClosing:   actual,
		Difference:      closing.Sub(actual),
		IsReconciled:    model.Balanced(closing, actual),
	}
	g.observe("cash_flow", cf.Reconciliation.IsReconciled, began, cf.Reconciliation.Difference)
	return cf, nil
}

// operatingActivities sums non-cancelled documents per kind, in CashKinds
// order.
func operatingActivities(docs []model.CashDocument) Activities {
	sums := make(map[model.CashKind]decimal.Decimal)
	counts := make(map[model.CashKind]int)
	for _, d := range docs {
		if d.Cancelled || !d.Kind.Valid() {
			continue
		}
		amt := d.Amount
		if !d.Kind.Inflow() {
			amt = amt.Neg()
		}
		if cur, ok := sums[d.Kind]; ok {
			sums[d.Kind] = cur.Add(amt)
		} else {
			sums[d.Kind] = amt
		}
		counts[d.Kind]++
	}

	act := Activities{Lines: []CashFlowLine{}, Net: decimal.Zero}
	for _, k := range model.CashKinds {
		amt, ok := sums[k]
		if !ok {
			amt = decimal.Zero
		}
		act.Lines = append(act.Lines, CashFlowLine{Kind: k, Label: cashLabels[k], Amount: amt, Count: counts[k]})
		act.Net = act.Net.Add(amt)
	}
	return act
}
