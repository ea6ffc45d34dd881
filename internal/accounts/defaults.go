package accounts

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

type groupDef struct {
	name      string
	parent    string
	nature    model.Nature
	direct    bool
	cashOrBnk bool
}

type ledgerDef struct {
	name  string
	group string
	code  string
}

var tradingGroups = []groupDef{
	{name: "Current Assets", nature: model.NatureAssets},
	{name: "Cash-in-Hand", parent: "Current Assets", nature: model.NatureAssets, cashOrBnk: true},
	{name: "Bank Accounts", parent: "Current Assets", nature: model.NatureAssets, cashOrBnk: true},
	{name: "Sundry Debtors", parent: "Current Assets", nature: model.NatureAssets},
	{name: "Stock-in-Hand", parent: "Current Assets", nature: model.NatureAssets},
	{name: "Fixed Assets", nature: model.NatureAssets},
	{name: "Current Liabilities", nature: model.NatureLiabilities},
	{name: "Sundry Creditors", parent: "Current Liabilities", nature: model.NatureLiabilities},
	{name: "Duties & Taxes", parent: "Current Liabilities", nature: model.NatureLiabilities},
	{name: "Loans (Liability)", nature: model.NatureLiabilities},
	{name: "Capital Account", nature: model.NatureEquity},
	{name: "Reserves & Surplus", parent: "Capital Account", nature: model.NatureEquity},
	{name: "Sales Accounts", nature: model.NatureIncome},
	{name: "Indirect Incomes", nature: model.NatureIncome},
	{name: "Purchase Accounts", nature: model.NatureExpenses, direct: true},
	{name: "Direct Expenses", nature: model.NatureExpenses, direct: true},
	{name: "Indirect Expenses", nature: model.NatureExpenses},
}

var tradingLedgers = []ledgerDef{
	{name: "Cash", group: "Cash-in-Hand", code: "1010"},
	{name: "Bank", group: "Bank Accounts", code: "1020"},
	{name: "Accounts Receivable", group: "Sundry Debtors", code: "1100"},
	{name: "Inventory", group: "Stock-in-Hand", code: "1200"},
	{name: "Furniture & Equipment", group: "Fixed Assets", code: "1500"},
	{name: "Accounts Payable", group: "Sundry Creditors", code: "2010"},
	{name: "GST Payable", group: "Duties & Taxes", code: "2100"},
	{name: "Term Loan", group: "Loans (Liability)", code: "2500"},
	{name: "Owner's Capital", group: "Capital Account", code: "3010"},
	{name: "Retained Earnings", group: "Reserves & Surplus", code: "3100"},
	{name: "Sales Income", group: "Sales Accounts", code: "4010"},
	{name: "Interest Income", group: "Indirect Incomes", code: "4500"},
	{name: "Purchases", group: "Purchase Accounts", code: "5010"},
	{name: "Freight Inward", group: "Direct Expenses", code: "5100"},
	{name: "Salaries", group: "Indirect Expenses", code: "6010"},
	{name: "Rent", group: "Indirect Expenses", code: "6020"},
	{name: "Office Supplies", group: "Indirect Expenses", code: "6030"},
}

var servicesLedgers = []ledgerDef{
	{name: "Cash", group: "Cash-in-Hand", code: "1010"},
	{name: "Bank", group: "Bank Accounts", code: "1020"},
	{name: "Accounts Receivable", group: "Sundry Debtors", code: "1100"},
	{name: "Accounts Payable", group: "Sundry Creditors", code: "2010"},
	{name: "GST Payable", group: "Duties & Taxes", code: "2100"},
	{name: "Owner's Capital", group: "Capital Account", code: "3010"},
	{name: "Retained Earnings", group: "Reserves & Surplus", code: "3100"},
	{name: "Service Revenue", group: "Sales Accounts", code: "4010"},
	{name: "Subcontractor Costs", group: "Direct Expenses", code: "5100"},
	{name: "Salaries", group: "Indirect Expenses", code: "6010"},
	{name: "Rent", group: "Indirect Expenses", code: "6020"},
	{name: "Software & SaaS", group: "Indirect Expenses", code: "6040"},
}

// DefaultChart returns the seed chart for a business template. Unknown
// templates fall back to "trading".
func DefaultChart(template string, tenantID uuid.UUID) ([]model.LedgerGroup, []model.Ledger) {
	ledgers := tradingLedgers
	if template == "services" {
		ledgers = servicesLedgers
	}

	ids := make(map[string]uuid.UUID, len(tradingGroups))
	groups := make([]model.LedgerGroup, 0, len(tradingGroups))
	for i, def := range tradingGroups {
		g := model.LedgerGroup{
			ID:                 uuid.New(),
			TenantID:           tenantID,
			Name:               def.name,
			Nature:             def.nature,
			ParentID:           ids[def.parent],
			Sequence:           (i + 1) * 10,
			AffectsGrossProfit: def.direct,
			CashOrBank:         def.cashOrBnk,
			System:             true,
		}
		ids[def.name] = g.ID
		groups = append(groups, g)
	}

	out := make([]model.Ledger, 0, len(ledgers))
	for _, def := range ledgers {
		out = append(out, model.Ledger{
			ID:             uuid.New(),
			TenantID:       tenantID,
			GroupID:        ids[def.group],
			Name:           def.name,
			Code:           def.code,
			OpeningBalance: decimal.Zero,
			OpeningSide:    model.SideDebit,
			Active:         true,
		})
	}
	return groups, out
}
