package voucher

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc    *Service
	store  *store.Store
	tenant uuid.UUID
	fy     model.FiscalYear
	chart  *accounts.Chart
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tenant := model.Tenant{ID: uuid.New(), Name: "Acme"}
	require.NoError(t, st.CreateTenant(ctx, tenant))
	groups, ledgers := accounts.DefaultChart("trading", tenant.ID)
	require.NoError(t, st.SaveChart(ctx, groups, ledgers))
	chart, err := accounts.NewChart(groups, ledgers)
	require.NoError(t, err)

	fy := model.FiscalYear{ID: uuid.New(), TenantID: tenant.ID, Name: "FY2025", StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)}
	require.NoError(t, st.CreateFiscalYear(ctx, fy))

	return fixture{svc: NewService(st, nil), store: st, tenant: tenant.ID, fy: fy, chart: chart}
}

func (f fixture) id(t *testing.T, name string) uuid.UUID {
	t.Helper()
	l, ok := f.chart.LedgerByName(name)
	require.True(t, ok, "ledger %q", name)
	return l.ID
}

func (f fixture) sale(t *testing.T, amount string) Input {
	return Input{
		TenantID:  f.tenant,
		Type:      model.VoucherSales,
		Date:      date(2025, 3, 10),
		Narration: "Cash sale",
		CreatedBy: "alice",
		Lines: []Line{
			{LedgerID: f.id(t, "Bank"), Debit: dec(amount)},
			{LedgerID: f.id(t, "Sales Income"), Credit: dec(amount)},
		},
	}
}

func TestPost_Balanced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Post(ctx, f.sale(t, "1000.00"))
	require.NoError(t, err)
	assert.Equal(t, "SAL-00001", v.Number)
	assert.Equal(t, model.StatusPending, v.Status)
	assert.False(t, v.Posted)
	assert.Equal(t, f.fy.ID, v.FiscalYearID)
	assert.True(t, v.TotalDebit.Equal(dec("1000")))

	got, err := f.svc.Get(ctx, f.tenant, v.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, 1, got.Entries[0].Sequence)

	second, err := f.svc.Post(ctx, f.sale(t, "5.00"))
	require.NoError(t, err)
	assert.Equal(t, "SAL-00002", second.Number)
}

func TestPost_UnbalancedRejectedAndNotPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := Input{
		TenantID: f.tenant, Type: model.VoucherJournal, Date: date(2025, 4, 1), CreatedBy: "alice",
		Lines: []Line{
			{LedgerID: f.id(t, "Rent"), Debit: dec("100")},
			{LedgerID: f.id(t, "Office Supplies"), Debit: dec("50")},
			{LedgerID: f.id(t, "Bank"), Credit: dec("140")},
		},
	}
	_, err := f.svc.Post(ctx, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has(model.RuleBalanced))
	assert.Contains(t, err.Error(), "difference 10.00")

	vouchers, err := f.svc.List(ctx, f.tenant, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, vouchers)

	// The failed attempt consumed no number.
	in.Lines[2].Credit = dec("150")
	v, err := f.svc.Post(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "JV-00001", v.Number)
}

func TestPost_ValidationRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		edit func(*Input)
		rule string
	}{
		{"single entry", func(in *Input) { in.Lines = in.Lines[:1] }, model.RuleMinEntries},
		{"unknown ledger", func(in *Input) { in.Lines[0].LedgerID = uuid.New() }, model.RuleUnknownLedger},
		{"negative amount", func(in *Input) {
			in.Lines[0].Debit = dec("-10")
			in.Lines[1].Credit = dec("-10")
		}, model.RuleNonNegative},
		{"both sides", func(in *Input) { in.Lines[0].Credit = dec("1") }, model.RuleSingleSide},
		{"precision", func(in *Input) {
			in.Lines[0].Debit = dec("10.001")
			in.Lines[1].Credit = dec("10.001")
		}, model.RulePrecision},
		{"outside fiscal year", func(in *Input) { in.Date = date(2024, 12, 31) }, model.RuleFiscalYear},
		{"unknown type", func(in *Input) { in.Type = "BARTER" }, model.RuleVoucherType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.sale(t, "10.00")
			tt.edit(&in)
			_, err := f.svc.Post(ctx, in)
			var verrs model.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.True(t, verrs.Has(tt.rule), "got %v", verrs)
		})
	}
}

func TestPost_ClosedFiscalYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CloseFiscalYear(ctx, f.tenant, f.fy.ID))

	_, err := f.svc.Post(ctx, f.sale(t, "10.00"))
	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has(model.RuleFiscalYear))
	assert.Contains(t, err.Error(), "closed")

	in := f.sale(t, "10.00")
	in.Lines[1].Credit = dec("9.00")
	_, err = f.svc.Post(ctx, in)
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has(model.RuleFiscalYear))
	assert.True(t, verrs.Has(model.RuleBalanced), "line and fiscal-year rules reported together")

	next := model.FiscalYear{ID: uuid.New(), TenantID: f.tenant, Name: "FY2026", StartDate: date(2026, 1, 1), EndDate: date(2026, 12, 31)}
	require.NoError(t, f.store.CreateFiscalYear(ctx, next))
	in = f.sale(t, "10.00")
	in.Date = date(2026, 2, 1)
	v, err := f.svc.Post(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "SAL-00001", v.Number, "rejected vouchers issue no number")
	assert.Equal(t, next.ID, v.FiscalYearID)
}

func TestPost_UnknownTenant(t *testing.T) {
	f := newFixture(t)
	in := f.sale(t, "10.00")
	in.TenantID = uuid.New()
	_, err := f.svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPost_ConcurrentNumbersUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := make(map[string]bool)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.svc.Post(ctx, f.sale(t, "1.00"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[v.Number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, numbers, n)
}

func TestLifecycle_ApproveAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Post(ctx, f.sale(t, "100.00"))
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, f.tenant, v.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.True(t, approved.Posted)
	assert.Equal(t, "bob", approved.ApprovedBy)
	assert.False(t, approved.ApprovedAt.IsZero())

	_, err = f.svc.Approve(ctx, f.tenant, v.ID, "bob")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = f.svc.Cancel(ctx, f.tenant, v.ID, "bob")
	var terr *model.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, model.StatusApproved, terr.From)

	err = f.svc.Delete(ctx, f.tenant, v.ID, "bob")
	assert.ErrorIs(t, err, model.ErrApprovedImmutable)

	trail, err := f.store.ListAudit(ctx, f.tenant)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, auditlog.ActionCreate, trail[0].Action)
	assert.Equal(t, auditlog.ActionApprove, trail[1].Action)
	assert.Equal(t, model.StatusPending, trail[1].From)
	assert.Equal(t, model.StatusApproved, trail[1].To)
}

func TestLifecycle_ApproveInClosedYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Post(ctx, f.sale(t, "100.00"))
	require.NoError(t, err)
	require.NoError(t, f.store.CloseFiscalYear(ctx, f.tenant, f.fy.ID))

	_, err = f.svc.Approve(ctx, f.tenant, v.ID, "bob")
	assert.ErrorIs(t, err, model.ErrClosedFiscalYear)

	got, err := f.svc.Get(ctx, f.tenant, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestLifecycle_RejectCancelDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Post(ctx, f.sale(t, "100.00"))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.tenant, v.ID, "alice")
	assert.ErrorIs(t, err, model.ErrInvalidTransition, "pending must be cancelled first")

	rejected, err := f.svc.Reject(ctx, f.tenant, v.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)

	cancelled, err := f.svc.Cancel(ctx, f.tenant, v.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	require.NoError(t, f.svc.Delete(ctx, f.tenant, v.ID, "alice"))
	_, err = f.svc.Get(ctx, f.tenant, v.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	trail, err := f.store.ListAudit(ctx, f.tenant)
	require.NoError(t, err)
	require.Len(t, trail, 4)
	assert.Equal(t, auditlog.ActionDelete, trail[3].Action)
}

func TestDraft_SubmitRequiresBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.sale(t, "100.00")
	in.Lines[1].Credit = dec("90.00")
	draft, err := f.svc.SaveDraft(ctx, in)
	require.NoError(t, err, "drafts need not balance")
	assert.Equal(t, model.StatusDraft, draft.Status)
	assert.Equal(t, "SAL-00001", draft.Number)

	_, err = f.svc.Submit(ctx, f.tenant, draft.ID, "alice")
	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has(model.RuleBalanced))

	got, err := f.svc.Get(ctx, f.tenant, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, got.Status)

	require.NoError(t, f.svc.Delete(ctx, f.tenant, draft.ID, "alice"))
}

func TestDraft_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.svc.SaveDraft(ctx, f.sale(t, "100.00"))
	require.NoError(t, err)

	pending, err := f.svc.Submit(ctx, f.tenant, draft.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, pending.Status)

	_, err = f.svc.Submit(ctx, f.tenant, draft.ID, "alice")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestReverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Post(ctx, f.sale(t, "250.00"))
	require.NoError(t, err)

	_, err = f.svc.Reverse(ctx, f.tenant, v.ID, "bob", time.Time{})
	assert.ErrorIs(t, err, model.ErrInvalidTransition, "only approved vouchers")

	_, err = f.svc.Approve(ctx, f.tenant, v.ID, "bob")
	require.NoError(t, err)

	rev, err := f.svc.Reverse(ctx, f.tenant, v.ID, "bob", date(2025, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, model.VoucherJournal, rev.Type)
	assert.Equal(t, model.StatusPending, rev.Status)
	assert.Equal(t, "Reversal of SAL-00001", rev.Narration)
	require.Len(t, rev.Entries, 2)
	assert.True(t, rev.Entries[0].Credit.Equal(dec("250")), "bank side swapped to credit")
	assert.True(t, rev.Entries[1].Debit.Equal(dec("250")))

	trail, err := f.store.ListAudit(ctx, f.tenant)
	require.NoError(t, err)
	last := trail[len(trail)-1]
	assert.Equal(t, auditlog.ActionReverse, last.Action)
	assert.Equal(t, v.ID, last.VoucherID)
	assert.Equal(t, "reversed by JV-00001", last.Details)
}

func TestWriteDayBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Post(ctx, f.sale(t, "12.50"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDayBook(&buf, []model.Voucher{v}, f.chart))
	want := DayBookHeader + "\n" +
		"SAL-00001,SALES,2025-03-10,PENDING,Bank,12.50,,Cash sale,,\n" +
		"SAL-00001,SALES,2025-03-10,PENDING,Sales Income,,12.50,Cash sale,,\n"
	assert.Equal(t, want, buf.String())
}
