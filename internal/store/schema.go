package store

// Migrations returns the schema statements, one statement per string.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS fiscal_years (
			id         TEXT PRIMARY KEY,
			tenant_id  TEXT NOT NULL REFERENCES tenants(id),
			name       TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date   TEXT NOT NULL,
			closed     INTEGER NOT NULL DEFAULT 0,
			UNIQUE(tenant_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fiscal_years_dates ON fiscal_years(tenant_id, start_date, end_date)`,

		`CREATE TABLE IF NOT EXISTS ledger_groups (
			id                   TEXT PRIMARY KEY,
			tenant_id            TEXT NOT NULL REFERENCES tenants(id),
			name                 TEXT NOT NULL,
			nature               TEXT NOT NULL CHECK (nature IN ('ASSETS','LIABILITIES','INCOME','EXPENSES','EQUITY')),
			parent_id            TEXT REFERENCES ledger_groups(id),
			sequence             INTEGER NOT NULL DEFAULT 0,
			affects_gross_profit INTEGER NOT NULL DEFAULT 0,
			cash_or_bank         INTEGER NOT NULL DEFAULT 0,
			system               INTEGER NOT NULL DEFAULT 0,
			UNIQUE(tenant_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS ledgers (
			id              TEXT PRIMARY KEY,
			tenant_id       TEXT NOT NULL REFERENCES tenants(id),
			group_id        TEXT NOT NULL REFERENCES ledger_groups(id),
			name            TEXT NOT NULL,
			code            TEXT NOT NULL DEFAULT '',
			opening_balance TEXT NOT NULL DEFAULT '0',
			opening_side    TEXT NOT NULL DEFAULT 'DEBIT' CHECK (opening_side IN ('DEBIT','CREDIT')),
			active          INTEGER NOT NULL DEFAULT 1,
			UNIQUE(tenant_id, name)
		)`,

		// Per-(tenant, document type) sequence; incremented atomically.
		`CREATE TABLE IF NOT EXISTS doc_counters (
			tenant_id  TEXT NOT NULL REFERENCES tenants(id),
			doc_type   TEXT NOT NULL,
			last_value INTEGER NOT NULL,
			PRIMARY KEY (tenant_id, doc_type)
		)`,

		`CREATE TABLE IF NOT EXISTS vouchers (
			id             TEXT PRIMARY KEY,
			tenant_id      TEXT NOT NULL REFERENCES tenants(id),
			voucher_type   TEXT NOT NULL,
			fiscal_year_id TEXT NOT NULL REFERENCES fiscal_years(id),
			number         TEXT NOT NULL,
			date           TEXT NOT NULL,
			narration      TEXT NOT NULL DEFAULT '',
			total_debit    TEXT NOT NULL,
			total_credit   TEXT NOT NULL,
			status         TEXT NOT NULL,
			posted         INTEGER NOT NULL DEFAULT 0,
			created_by     TEXT NOT NULL DEFAULT '',
			approved_by    TEXT NOT NULL DEFAULT '',
			approved_at    TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL,
			UNIQUE(tenant_id, voucher_type, number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_tenant_date ON vouchers(tenant_id, date, status)`,

		`CREATE TABLE IF NOT EXISTS voucher_entries (
			id          TEXT PRIMARY KEY,
			voucher_id  TEXT NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
			ledger_id   TEXT NOT NULL REFERENCES ledgers(id),
			debit       TEXT NOT NULL DEFAULT '0',
			credit      TEXT NOT NULL DEFAULT '0',
			narration   TEXT NOT NULL DEFAULT '',
			cost_center TEXT NOT NULL DEFAULT '',
			project     TEXT NOT NULL DEFAULT '',
			sequence    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_voucher_entries_voucher ON voucher_entries(voucher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_voucher_entries_ledger ON voucher_entries(ledger_id)`,

		`CREATE TABLE IF NOT EXISTS trade_documents (
			id           TEXT PRIMARY KEY,
			tenant_id    TEXT NOT NULL REFERENCES tenants(id),
			kind         TEXT NOT NULL CHECK (kind IN ('INVOICE','BILL')),
			number       TEXT NOT NULL,
			party_id     TEXT NOT NULL,
			party_name   TEXT NOT NULL,
			issue_date   TEXT NOT NULL,
			due_date     TEXT NOT NULL,
			total_amount TEXT NOT NULL,
			amount_paid  TEXT NOT NULL DEFAULT '0',
			status       TEXT NOT NULL,
			UNIQUE(tenant_id, kind, number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_documents_open ON trade_documents(tenant_id, kind, status)`,

		`CREATE TABLE IF NOT EXISTS cash_documents (
			id        TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL REFERENCES tenants(id),
			kind      TEXT NOT NULL,
			number    TEXT NOT NULL,
			date      TEXT NOT NULL,
			amount    TEXT NOT NULL,
			cancelled INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cash_documents_date ON cash_documents(tenant_id, date)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id      TEXT NOT NULL REFERENCES tenants(id),
			at             TEXT NOT NULL,
			actor          TEXT NOT NULL,
			action         TEXT NOT NULL,
			voucher_id     TEXT NOT NULL,
			voucher_number TEXT NOT NULL,
			from_status    TEXT NOT NULL DEFAULT '',
			to_status      TEXT NOT NULL DEFAULT '',
			details        TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_tenant ON audit_log(tenant_id, id)`,
	}
}
