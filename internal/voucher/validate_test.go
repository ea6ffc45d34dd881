package voucher

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/books/internal/model"
)

type mockLedgers map[uuid.UUID]model.Ledger

func (m mockLedgers) Ledger(id uuid.UUID) (model.Ledger, bool) {
	l, ok := m[id]
	return l, ok
}

func newMockLedgers(active, inactive int) (mockLedgers, []uuid.UUID) {
	m := make(mockLedgers)
	var ids []uuid.UUID
	for i := 0; i < active+inactive; i++ {
		id := uuid.New()
		m[id] = model.Ledger{ID: id, Name: "L", Active: i < active}
		ids = append(ids, id)
	}
	return m, ids
}

func entry(ledger uuid.UUID, debit, credit string) model.VoucherEntry {
	return model.VoucherEntry{LedgerID: ledger, Debit: dec(debit), Credit: dec(credit)}
}

func TestValidate_Balanced(t *testing.T) {
	ledgers, ids := newMockLedgers(2, 0)
	errs := ValidateEntries([]model.VoucherEntry{
		entry(ids[0], "100.00", "0"),
		entry(ids[1], "0", "100.00"),
	}, ledgers)
	assert.Empty(t, errs)
}

func TestValidate_WithinTolerance(t *testing.T) {
	ledgers, ids := newMockLedgers(3, 0)
	errs := ValidateEntries([]model.VoucherEntry{
		entry(ids[0], "33.33", "0"),
		entry(ids[1], "33.33", "0"),
		entry(ids[2], "0", "66.67"),
	}, ledgers)
	assert.True(t, errs.Has(model.RuleBalanced), "a full cent is outside tolerance")

	assert.True(t, model.Balanced(dec("66.665"), dec("66.66")))
}

func TestValidate_Unbalanced(t *testing.T) {
	ledgers, ids := newMockLedgers(3, 0)
	errs := ValidateEntries([]model.VoucherEntry{
		entry(ids[0], "100", "0"),
		entry(ids[1], "50", "0"),
		entry(ids[2], "0", "140"),
	}, ledgers)
	assert.Len(t, errs, 1)
	assert.Equal(t, model.RuleBalanced, errs[0].Rule)
}

func TestValidate_MinEntries(t *testing.T) {
	ledgers, ids := newMockLedgers(1, 0)
	errs := ValidateEntries(nil, ledgers)
	assert.True(t, errs.Has(model.RuleMinEntries))

	errs = ValidateEntries([]model.VoucherEntry{entry(ids[0], "0", "0")}, ledgers)
	assert.True(t, errs.Has(model.RuleMinEntries))
	assert.True(t, errs.Has(model.RuleSingleSide))
}

func TestValidate_InactiveLedger(t *testing.T) {
	ledgers, ids := newMockLedgers(1, 1)
	errs := ValidateEntries([]model.VoucherEntry{
		entry(ids[0], "5", "0"),
		entry(ids[1], "0", "5"),
	}, ledgers)
	assert.Len(t, errs, 1)
	assert.Equal(t, model.RuleInactiveLedger, errs[0].Rule)
	assert.Equal(t, "line 2", errs[0].Ref)
}

func TestValidate_DraftSkipsBalance(t *testing.T) {
	ledgers, ids := newMockLedgers(1, 0)
	errs := validateLines([]model.VoucherEntry{entry(ids[0], "5", "0")}, ledgers)
	assert.Empty(t, errs)
}
