package balance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/books/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func posting(ledgerID uuid.UUID, d time.Time, debit, credit string) model.Posting {
	return model.Posting{LedgerID: ledgerID, Date: d, Debit: dec(debit), Credit: dec(credit), Status: model.StatusApproved}
}

func TestOpening(t *testing.T) {
	assert.True(t, Opening(model.Ledger{OpeningBalance: dec("250"), OpeningSide: model.SideDebit}).Equal(dec("250")))
	assert.True(t, Opening(model.Ledger{OpeningBalance: dec("250"), OpeningSide: model.SideCredit}).Equal(dec("-250")))
	assert.True(t, Opening(model.Ledger{}).IsZero())
}

func TestCompute_SignByNature(t *testing.T) {
	id := uuid.New()
	postings := []model.Posting{
		posting(id, date(2025, 5, 1), "0", "1000"),
		posting(id, date(2025, 5, 2), "200", "0"),
	}
	income := model.Ledger{ID: id}
	assert.True(t, Compute(income, model.NatureIncome, postings, time.Time{}).Equal(dec("800")))
	assert.True(t, Compute(income, model.NatureAssets, postings, time.Time{}).Equal(dec("-800")))

	cash := model.Ledger{ID: id, OpeningBalance: dec("500"), OpeningSide: model.SideDebit}
	assert.True(t, Compute(cash, model.NatureAssets, postings, time.Time{}).Equal(dec("-300")))
}

func TestCompute_AsOfCutoff(t *testing.T) {
	id := uuid.New()
	l := model.Ledger{ID: id}
	postings := []model.Posting{
		posting(id, date(2025, 1, 10), "100", "0"),
		posting(id, date(2025, 2, 10), "50", "0"),
	}
	assert.True(t, Compute(l, model.NatureAssets, postings, date(2025, 1, 31)).Equal(dec("100")))
	assert.True(t, Compute(l, model.NatureAssets, postings, date(2025, 2, 10)).Equal(dec("150")))
}

func TestCompute_IgnoresOtherLedgers(t *testing.T) {
	id, other := uuid.New(), uuid.New()
	postings := []model.Posting{
		posting(id, date(2025, 1, 10), "100", "0"),
		posting(other, date(2025, 1, 10), "0", "100"),
	}
	assert.True(t, Compute(model.Ledger{ID: id}, model.NatureExpenses, postings, time.Time{}).Equal(dec("100")))
}

func TestAdditivity(t *testing.T) {
	id := uuid.New()
	postings := []model.Posting{
		posting(id, date(2025, 1, 5), "120.50", "0"),
		posting(id, date(2025, 2, 14), "0", "40.25"),
		posting(id, date(2025, 3, 1), "0", "300"),
		posting(id, date(2025, 3, 31), "75", "0"),
		posting(id, date(2025, 4, 2), "10", "0"),
	}
	natures := []model.Nature{model.NatureAssets, model.NatureLiabilities, model.NatureIncome, model.NatureExpenses, model.NatureEquity}
	cuts := []struct{ t1, t2 time.Time }{
		{date(2025, 1, 31), date(2025, 3, 31)},
		{date(2025, 1, 5), date(2025, 4, 30)},
		{date(2024, 12, 31), date(2025, 2, 14)},
	}
	for _, n := range natures {
		for _, side := range []model.Side{model.SideDebit, model.SideCredit} {
			l := model.Ledger{ID: id, OpeningBalance: dec("1000"), OpeningSide: side}
			for _, c := range cuts {
				whole := Compute(l, n, postings, c.t2)
				first := Compute(l, n, postings, c.t1)
				rest := Movement(id, n, postings, Window{From: c.t1.AddDate(0, 0, 1), To: c.t2})
				assert.True(t, whole.Equal(first.Add(rest)), "nature %s side %s cut %s..%s", n, side, c.t1, c.t2)
			}
		}
	}
}

func TestSided(t *testing.T) {
	d, c := Sided(dec("-40"))
	assert.True(t, d.IsZero())
	assert.True(t, c.Equal(dec("40")))

	d, c = Sided(dec("15"))
	assert.True(t, d.Equal(dec("15")))
	assert.True(t, c.IsZero())
}

func TestSplit(t *testing.T) {
	id := uuid.New()
	postings := []model.Posting{
		posting(id, date(2025, 3, 31), "1", "0"),
		posting(id, date(2025, 4, 1), "2", "0"),
		posting(id, date(2025, 4, 2), "3", "0"),
	}
	before, from := Split(postings, date(2025, 4, 1))
	assert.Len(t, before, 1)
	assert.Len(t, from, 2)
}

func TestWindowContains(t *testing.T) {
	w := Window{From: date(2025, 1, 1), To: date(2025, 1, 31)}
	assert.True(t, w.Contains(date(2025, 1, 1)))
	assert.True(t, w.Contains(time.Date(2025, 1, 31, 18, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(date(2025, 2, 1)))
	assert.True(t, Window{}.Contains(date(1990, 1, 1)))
	assert.False(t, Before(date(2025, 1, 1)).Contains(date(2025, 1, 1)))
	assert.True(t, Before(date(2025, 1, 1)).Contains(date(2024, 12, 31)))
}
