package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to VoucherStatus
		want     bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusDraft, StatusApproved, false},
		{StatusDraft, StatusCancelled, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusRejected, StatusCancelled, true},
		{StatusRejected, StatusApproved, false},
		{StatusApproved, StatusCancelled, false},
		{StatusApproved, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDeletable(t *testing.T) {
	assert.True(t, StatusDraft.Deletable())
	assert.True(t, StatusRejected.Deletable())
	assert.True(t, StatusCancelled.Deletable())
	assert.False(t, StatusPending.Deletable())
	assert.False(t, StatusApproved.Deletable())
}

func TestNatureDebitNormal(t *testing.T) {
	assert.True(t, NatureAssets.DebitNormal())
	assert.True(t, NatureExpenses.DebitNormal())
	assert.False(t, NatureLiabilities.DebitNormal())
	assert.False(t, NatureIncome.DebitNormal())
	assert.False(t, NatureEquity.DebitNormal())
	assert.False(t, Nature("OTHER").Valid())
}

func TestBalanced(t *testing.T) {
	assert.True(t, Balanced(dec("100.00"), dec("100.00")))
	assert.True(t, Balanced(dec("100.00"), dec("100.009")))
	assert.False(t, Balanced(dec("100.00"), dec("100.01")))
	assert.False(t, Balanced(dec("150"), dec("140")))
}

func TestTotals(t *testing.T) {
	d, c := Totals([]VoucherEntry{
		{Debit: dec("100")},
		{Debit: dec("50")},
		{Credit: dec("140")},
	})
	assert.True(t, d.Equal(dec("150")))
	assert.True(t, c.Equal(dec("140")))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Rule: RuleBalanced, Description: "debits (150.00) != credits (140.00)"},
		{Rule: RuleUnknownLedger, Ref: "line 2", Description: "unknown ledger"},
	}
	var err error = errs
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "validation failed: balanced")
	assert.Contains(t, err.Error(), "unknown-ledger [line 2]")
	assert.True(t, errs.Has(RuleBalanced))
	assert.False(t, errs.Has(RuleMinEntries))
}

func TestTransitionError(t *testing.T) {
	err := error(&TransitionError{VoucherID: uuid.New(), From: StatusApproved, To: StatusCancelled})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusApproved, te.From)
}

func TestTradeDocumentOpen(t *testing.T) {
	doc := TradeDocument{TotalAmount: dec("500"), AmountPaid: dec("200"), Status: TradePartiallyPaid}
	assert.True(t, doc.Open())
	assert.True(t, doc.AmountDue().Equal(dec("300")))

	doc.AmountPaid = dec("500")
	assert.False(t, doc.Open())

	doc.AmountPaid = dec("0")
	doc.Status = TradeCancelled
	assert.False(t, doc.Open())
}

func TestFiscalYearContains(t *testing.T) {
	fy := FiscalYear{
		StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, fy.Contains(time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC)))
	assert.True(t, fy.Contains(time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, fy.Contains(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, fy.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPostingFilterValidate(t *testing.T) {
	ok := PostingFilter{
		TenantID: uuid.New(),
		To:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Statuses: ReportStatuses(false),
	}
	require.NoError(t, ok.Validate())

	missing := PostingFilter{}
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant is required")
	assert.Contains(t, err.Error(), "end date is required")

	inverted := ok
	inverted.From = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorContains(t, inverted.Validate(), "start date is after end date")

	drafts := ok
	drafts.Statuses = []VoucherStatus{StatusDraft}
	assert.ErrorContains(t, drafts.Validate(), "only approved or pending")
}

func TestReportStatuses(t *testing.T) {
	assert.Equal(t, []VoucherStatus{StatusApproved}, ReportStatuses(false))
	assert.Equal(t, []VoucherStatus{StatusApproved, StatusPending}, ReportStatuses(true))
}

func TestTradeFilterValidate(t *testing.T) {
	f := TradeFilter{TenantID: uuid.New(), Kind: TradeInvoice, AsOf: time.Now()}
	require.NoError(t, f.Validate())

	f.Kind = "QUOTE"
	assert.ErrorContains(t, f.Validate(), "kind must be")
}
