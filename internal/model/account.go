package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Nature classifies ledger groups in the chart of accounts.
type Nature string

const (
	NatureAssets      Nature = "ASSETS"
	NatureLiabilities Nature = "LIABILITIES"
	NatureIncome      Nature = "INCOME"
	NatureExpenses    Nature = "EXPENSES"
	NatureEquity      Nature = "EQUITY"
)

// Natures lists every nature in balance-sheet-then-P&L order.
var Natures = []Nature{NatureAssets, NatureLiabilities, NatureEquity, NatureIncome, NatureExpenses}

// Valid reports whether n is one of the five known natures.
func (n Nature) Valid() bool {
	switch n {
	case NatureAssets, NatureLiabilities, NatureIncome, NatureExpenses, NatureEquity:
		return true
	}
	return false
}

// DebitNormal reports whether balances of this nature are naturally debits.
func (n Nature) DebitNormal() bool {
	return n == NatureAssets || n == NatureExpenses
}

// BalanceSheet reports whether the nature belongs on the balance sheet.
func (n Nature) BalanceSheet() bool {
	return n == NatureAssets || n == NatureLiabilities || n == NatureEquity
}

// Side is the debit or credit side of an amount.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// LedgerGroup is a node in the chart-of-accounts forest.
type LedgerGroup struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Name               string
	Nature             Nature
	ParentID           uuid.UUID // uuid.Nil = root
	Sequence           int
	AffectsGrossProfit bool // EXPENSES only: direct cost when true
	CashOrBank         bool // ledgers below this group count as cash/bank
	System             bool
}

// IsRoot reports whether the group has no parent.
func (g LedgerGroup) IsRoot() bool {
	return g.ParentID == uuid.Nil
}

// Ledger is a leaf account.
type Ledger struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	GroupID        uuid.UUID
	Name           string
	Code           string
	OpeningBalance decimal.Decimal // never negative
	OpeningSide    Side
	Active         bool
}
