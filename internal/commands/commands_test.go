package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/commands"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/model"
)

type books struct {
	t   *testing.T
	dir string
}

func newBooks(t *testing.T) *books {
	t.Helper()
	for _, k := range []string{config.EnvDBPath, config.EnvTenantID, config.EnvDebug} {
		t.Setenv(k, "")
	}
	return &books{t: t, dir: t.TempDir()}
}

func (b *books) run(args ...string) (string, error) {
	b.t.Helper()
	cmd := commands.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(b.dir, config.FileName),
		"--env-file", filepath.Join(b.dir, ".env"),
		"--user", "tester",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (b *books) must(args ...string) string {
	b.t.Helper()
	out, err := b.run(args...)
	require.NoError(b.t, err, "books %s", strings.Join(args, " "))
	return out
}

func (b *books) json(args ...string) map[string]any {
	b.t.Helper()
	var m map[string]any
	require.NoError(b.t, json.Unmarshal([]byte(b.must(args...)), &m))
	return m
}

// seeded returns books with FY2021, opening balances and one approved sale.
func seeded(t *testing.T) *books {
	t.Helper()
	b := newBooks(t)
	b.must("init", "--name", "Acme Traders")
	b.must("fiscal-year", "create", "2021")
	b.must("chart", "opening", "Bank", "500", "DEBIT")
	b.must("chart", "opening", "3010", "500", "credit")
	out := b.must("voucher", "post", "--type", "sales", "--date", "2021-03-10",
		"--narration", "Consulting", "--dr", "Bank=1000", "--cr", "Sales Income=1000")
	assert.Equal(t, "SAL-00001 PENDING 1000.00\n", out)
	assert.Equal(t, "SAL-00001 APPROVED\n", b.must("voucher", "approve", "SAL-00001"))
	return b
}

func field(m map[string]any, path ...string) any {
	var cur any = m
	for _, p := range path {
		cur = cur.(map[string]any)[p]
	}
	return cur
}

func TestInit_CreatesBooks(t *testing.T) {
	b := newBooks(t)
	out := b.must("init", "--name", "Test Biz", "--template", "services", "--fiscal-start", "04-01")
	assert.Contains(t, out, "Initialized books for Test Biz")

	cfg, err := config.Load(filepath.Join(b.dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Test Biz", cfg.Tenant.Name)
	assert.Equal(t, "services", cfg.Tenant.Template)
	assert.Equal(t, "04-01", cfg.Fiscal.YearStart)
	require.NoError(t, cfg.Validate())

	for _, p := range []string{"books.db", "import", filepath.Join("import", "processed")} {
		_, err := os.Stat(filepath.Join(b.dir, p))
		assert.NoError(t, err, "%s should exist", p)
	}

	tree := b.must("chart", "tree")
	assert.Contains(t, tree, "Bank Accounts [ASSETS]")
	assert.Contains(t, tree, "4010 Service Revenue")

	years := b.must("fiscal-year", "list")
	assert.Contains(t, years, "-04-01")
	assert.Contains(t, years, "open")

	_, err = b.run("init", "--name", "Again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_FromChartCSV(t *testing.T) {
	src := newBooks(t)
	src.must("init", "--name", "Source")
	csvPath := filepath.Join(t.TempDir(), "chart.csv")
	src.must("chart", "export", "-o", csvPath)

	b := newBooks(t)
	b.must("init", "--name", "Copy", "--chart", csvPath)
	assert.Equal(t, src.must("chart", "tree"), b.must("chart", "tree"))
	assert.Equal(t, "chart is consistent\n", b.must("chart", "check"))
}

func TestCommands_RequireConfig(t *testing.T) {
	b := newBooks(t)
	_, err := b.run("report", "balance-sheet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "books init")
}

func TestVoucher_Lifecycle(t *testing.T) {
	b := seeded(t)

	_, err := b.run("voucher", "post", "--date", "2021-03-11", "--dr", "Rent=100", "--dr", "Rent=50", "--cr", "Bank=140")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "difference 10.00")

	_, err = b.run("voucher", "delete", "SAL-00001")
	assert.ErrorIs(t, err, model.ErrApprovedImmutable)

	out := b.must("voucher", "reverse", "SAL-00001", "--date", "2021-03-31")
	assert.Equal(t, "SAL-00001 reversed by JV-00001 PENDING\n", out)

	assert.Equal(t, "JV-00001 CANCELLED\n", b.must("voucher", "cancel", "jv-00001"))
	assert.Equal(t, "JV-00001 deleted\n", b.must("voucher", "delete", "JV-00001"))
	_, err = b.run("voucher", "show", "JV-00001")
	assert.ErrorIs(t, err, model.ErrNotFound)

	b.must("voucher", "draft", "--date", "2021-04-01", "--dr", "Rent=75")
	_, err = b.run("voucher", "submit", "JV-00002")
	assert.ErrorIs(t, err, model.ErrValidation)

	b.must("voucher", "post", "--type", "payment", "--date", "2021-04-02", "--dr", "Rent=75", "--cr", "Bank=75")
	assert.Equal(t, "PAY-00001 REJECTED\n", b.must("voucher", "reject", "PAY-00001"))

	daybook := b.must("voucher", "list", "--from", "2021-01-01", "--to", "2021-12-31")
	lines := strings.Split(strings.TrimSpace(daybook), "\n")
	assert.Equal(t, "number,type,date,status,ledger,debit,credit,narration,cost_center,project", lines[0])
	assert.Contains(t, daybook, "SAL-00001,SALES,2021-03-10,APPROVED,Bank,1000.00,,Consulting,,")
	assert.Contains(t, daybook, "PAY-00001,PAYMENT,2021-04-02,REJECTED")

	audit := b.must("audit", "export")
	assert.Contains(t, audit, "timestamp,actor,action")
	assert.Contains(t, audit, "tester,approve")
	assert.Contains(t, audit, "reversed by JV-00001")
	assert.Contains(t, audit, "tester,delete")
}

func TestFiscalYear_Close(t *testing.T) {
	b := seeded(t)
	b.must("fiscal-year", "close", "FY2021")
	assert.Contains(t, b.must("fiscal-year", "list"), "closed")

	_, err := b.run("voucher", "post", "--date", "2021-05-01", "--dr", "Rent=10", "--cr", "Bank=10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	_, err = b.run("fiscal-year", "close", "FY1999")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReports(t *testing.T) {
	b := seeded(t)
	b.must("voucher", "post", "--type", "payment", "--date", "2021-03-20", "--dr", "Rent=200", "--cr", "Bank=200")

	tb := b.json("report", "trial-balance", "--as-of", "2021-12-31")
	assert.Equal(t, true, tb["is_balanced"])
	assert.Equal(t, "1500", field(tb, "totals", "closing_debit"))

	tbAll := b.json("report", "trial-balance", "--fiscal-year", "FY2021", "--include-unapproved")
	assert.Equal(t, true, tbAll["is_balanced"])
	assert.Equal(t, "1500", field(tbAll, "totals", "closing_debit"), "Bank 1300 + Rent 200")

	bs := b.json("report", "balance-sheet", "--as-of", "2021-12-31")
	assert.Equal(t, true, bs["is_balanced"])
	assert.Equal(t, "1500", field(bs, "summary", "total_assets"))
	assert.Equal(t, "1000", field(bs, "summary", "current_year_profit"))

	pl := b.json("report", "profit-loss", "--from", "2021-01-01", "--to", "2021-12-31", "--include-unapproved")
	assert.Equal(t, "800", field(pl, "summary", "net_profit"))
	assert.Equal(t, "80", field(pl, "summary", "net_margin"))

	_, err := b.run("report", "cash-flow", "--from", "2021-03-01")
	assert.Error(t, err, "cash flow needs both dates")
}

func TestDocuments_AgingAndCashFlow(t *testing.T) {
	b := seeded(t)

	out := b.must("document", "trade", "--party", "Globex", "--issue", "2021-01-01", "--due", "2021-01-31", "--total", "500")
	assert.Equal(t, "INV-00001 Globex 500.00 due 2021-01-31\n", out)
	b.must("document", "trade", "--kind", "bill", "--party", "Initech", "--issue", "2021-02-01", "--due", "2021-02-15", "--total", "80", "--paid", "30")
	_, err := b.run("document", "trade", "--party", "Globex", "--total", "10", "--paid", "20")
	assert.Error(t, err)

	ag := b.json("report", "aging", "--as-of", "2021-03-17")
	assert.Equal(t, "500", field(ag, "summary", "total_outstanding"))
	assert.Equal(t, true, ag["is_balanced"])
	docs := ag["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "31-60 Days", docs[0].(map[string]any)["bucket"])

	pay := b.json("report", "aging", "--kind", "payables", "--as-of", "2021-03-17", "--party", "Initech")
	assert.Equal(t, "50", field(pay, "summary", "total_outstanding"))

	assert.Equal(t, "CUSTOMER_RECEIPT-00001 CUSTOMER_RECEIPT 1000.00\n",
		b.must("document", "cash", "--kind", "customer_receipt", "--date", "2021-03-10", "--amount", "1000"))
	cf := b.json("report", "cash-flow", "--from", "2021-03-01", "--to", "2021-03-31")
	assert.Equal(t, "500", field(cf, "summary", "opening_balance"))
	assert.Equal(t, "1500", field(cf, "summary", "closing_balance"))
	assert.Equal(t, true, field(cf, "reconciliation", "is_reconciled"))
}

func TestVoucher_ImportDirectory(t *testing.T) {
	b := seeded(t)
	csv := "ref,type,date,ledger,debit,credit,narration,cost_center,project\n" +
		"A,JOURNAL,2021-05-01,Rent,300,,May rent,,\n" +
		"A,JOURNAL,2021-05-01,1020,,300,,,\n" +
		"B,RECEIPT,2021-05-02,Bank,40,,Interest,,\n" +
		"B,RECEIPT,2021-05-02,Interest Income,,40,,,\n"
	require.NoError(t, os.WriteFile(filepath.Join(b.dir, "import", "may.csv"), []byte(csv), 0o644))

	out := b.must("voucher", "import")
	assert.Contains(t, out, "may.csv: posted JV-00001")
	assert.Contains(t, out, "may.csv: posted RCT-00001")

	_, err := os.Stat(filepath.Join(b.dir, "import", "processed", "may.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(b.dir, "import", "may.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestVoucher_ImportRejectsBadVoucher(t *testing.T) {
	b := seeded(t)
	path := filepath.Join(t.TempDir(), "bad.csv")
	csv := "ref,type,date,ledger,debit,credit,narration,cost_center,project\n" +
		"A,JOURNAL,2021-05-01,Rent,300,,,,\n" +
		"A,JOURNAL,2021-05-01,Nowhere,,300,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	out, err := b.run("voucher", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 voucher(s) rejected")
	assert.Contains(t, out, "A rejected: unknown-ledger")
}

func TestMetricsOut(t *testing.T) {
	b := seeded(t)
	path := filepath.Join(b.dir, "books.prom")
	b.must("--metrics-out", path, "report", "balance-sheet", "--as-of", "2021-12-31")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "books_reports_generated_total")
	assert.Contains(t, string(data), "books_vouchers_posted_total")

	t.Run("written when the command fails", func(t *testing.T) {
		failPath := filepath.Join(b.dir, "fail.prom")
		_, err := b.run("--metrics-out", failPath, "voucher", "post",
			"--dr", "Rent=100", "--dr", "Rent=50", "--cr", "Bank=140")
		require.ErrorIs(t, err, model.ErrValidation)

		data, err := os.ReadFile(failPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `books_validation_failures_total{rule="balanced"}`)
	})

	t.Run("store usable after a failed command", func(t *testing.T) {
		out := b.must("voucher", "post", "--dr", "Rent=100", "--cr", "Bank=100")
		assert.Contains(t, out, "PENDING")
	})
}

func TestEnvOverridesTenant(t *testing.T) {
	b := seeded(t)
	require.NoError(t, os.WriteFile(filepath.Join(b.dir, ".env"),
		[]byte("BOOKS_TENANT_ID=6ba7b810-9dad-11d1-80b4-00c04fd430c8\n"), 0o644))

	_, err := b.run("report", "balance-sheet", "--as-of", "2021-12-31")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
