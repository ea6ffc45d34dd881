package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/auditlog"
	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// NextNumber atomically increments and returns the counter for
// (tenant, docType). The increment is part of the enclosing transaction,
// so a rollback returns the number.
func (tx *Tx) NextNumber(ctx context.Context, tenantID uuid.UUID, docType string) (int64, error) {
	var n int64
	err := tx.tx.QueryRowContext(ctx, `
		INSERT INTO doc_counters (tenant_id, doc_type, last_value) VALUES (?, ?, 1)
		ON CONFLICT(tenant_id, doc_type) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value
	`, tenantID.String(), docType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s counter: %w", docType, err)
	}
	return n, nil
}

// NextDocumentNumber issues the next formatted number for a document type
// in its own transaction. Trade modules use it for invoices and bills.
func (s *Store) NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, docType string) (string, error) {
	var number string
	err := s.Transaction(ctx, func(tx *Tx) error {
		n, err := tx.NextNumber(ctx, tenantID, docType)
		if err != nil {
			return err
		}
		number = id.FormatNumber(docType, n)
		return nil
	})
	return number, err
}

// InsertVoucher writes a voucher header and all its entries.
func (tx *Tx) InsertVoucher(ctx context.Context, v model.Voucher) error {
	_, err := tx.tx.ExecContext(ctx, `
		INSERT INTO vouchers (id, tenant_id, voucher_type, fiscal_year_id, number, date, narration,
			total_debit, total_credit, status, posted, created_by, approved_by, approved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID.String(), v.TenantID.String(), string(v.Type), v.FiscalYearID.String(), v.Number,
		formatDate(v.Date), v.Narration, v.TotalDebit.String(), v.TotalCredit.String(),
		string(v.Status), boolInt(v.Posted), v.CreatedBy, v.ApprovedBy, formatTS(v.ApprovedAt),
		formatTS(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting voucher %s: %w", v.Number, err)
	}

	for _, e := range v.Entries {
		_, err := tx.tx.ExecContext(ctx, `
			INSERT INTO voucher_entries (id, voucher_id, ledger_id, debit, credit, narration, cost_center, project, sequence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID.String(), v.ID.String(), e.LedgerID.String(), e.Debit.String(), e.Credit.String(),
			e.Narration, e.CostCenter, e.Project, e.Sequence)
		if err != nil {
			return fmt.Errorf("inserting entry %d of voucher %s: %w", e.Sequence, v.Number, err)
		}
	}
	return nil
}

// UpdateVoucherStatus persists status, posted flag and approval fields.
func (tx *Tx) UpdateVoucherStatus(ctx context.Context, v model.Voucher) error {
	res, err := tx.tx.ExecContext(ctx, `
		UPDATE vouchers SET status = ?, posted = ?, approved_by = ?, approved_at = ?
		WHERE tenant_id = ? AND id = ?
	`, string(v.Status), boolInt(v.Posted), v.ApprovedBy, formatTS(v.ApprovedAt), v.TenantID.String(), v.ID.String())
	if err != nil {
		return fmt.Errorf("updating voucher %s: %w", v.Number, err)
	}
	return expectOne(res, "voucher", v.ID)
}

// DeleteVoucher removes a voucher; its entries cascade.
func (tx *Tx) DeleteVoucher(ctx context.Context, tenantID, voucherID uuid.UUID) error {
	res, err := tx.tx.ExecContext(ctx, `DELETE FROM vouchers WHERE tenant_id = ? AND id = ?`,
		tenantID.String(), voucherID.String())
	if err != nil {
		return fmt.Errorf("deleting voucher %s: %w", voucherID, err)
	}
	return expectOne(res, "voucher", voucherID)
}

// GetVoucher reads a voucher with its entries inside the transaction.
func (tx *Tx) GetVoucher(ctx context.Context, tenantID, voucherID uuid.UUID) (model.Voucher, error) {
	return getVoucher(ctx, tx.tx, tenantID, voucherID)
}

// GetVoucher reads a voucher with its entries.
func (s *Store) GetVoucher(ctx context.Context, tenantID, voucherID uuid.UUID) (model.Voucher, error) {
	return getVoucher(ctx, s.db, tenantID, voucherID)
}

// FindVoucher looks a voucher up by its type and number.
func (s *Store) FindVoucher(ctx context.Context, tenantID uuid.UUID, vt model.VoucherType, number string) (model.Voucher, error) {
	var vid uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM vouchers WHERE tenant_id = ? AND voucher_type = ? AND number = ?
	`, tenantID.String(), string(vt), number).Scan(&vid)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voucher{}, model.NotFound("voucher", number)
	}
	if err != nil {
		return model.Voucher{}, fmt.Errorf("finding voucher %s: %w", number, err)
	}
	return s.GetVoucher(ctx, tenantID, vid)
}

func getVoucher(ctx context.Context, q querier, tenantID, voucherID uuid.UUID) (model.Voucher, error) {
	v := model.Voucher{TenantID: tenantID}
	var vt, status, date, approvedAt, createdAt string
	var posted int
	err := q.QueryRowContext(ctx, `
		SELECT id, voucher_type, fiscal_year_id, number, date, narration, total_debit, total_credit,
			status, posted, created_by, approved_by, approved_at, created_at
		FROM vouchers WHERE tenant_id = ? AND id = ?
	`, tenantID.String(), voucherID.String()).Scan(&v.ID, &vt, &v.FiscalYearID, &v.Number, &date,
		&v.Narration, &v.TotalDebit, &v.TotalCredit, &status, &posted, &v.CreatedBy, &v.ApprovedBy,
		&approvedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voucher{}, model.NotFound("voucher", voucherID)
	}
	if err != nil {
		return model.Voucher{}, fmt.Errorf("reading voucher %s: %w", voucherID, err)
	}
	v.Type = model.VoucherType(vt)
	v.Status = model.VoucherStatus(status)
	v.Posted = posted == 1
	if v.Date, err = parseDate(date); err != nil {
		return model.Voucher{}, err
	}
	if v.ApprovedAt, err = parseTS(approvedAt); err != nil {
		return model.Voucher{}, err
	}
	if v.CreatedAt, err = parseTS(createdAt); err != nil {
		return model.Voucher{}, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, ledger_id, debit, credit, narration, cost_center, project, sequence
		FROM voucher_entries WHERE voucher_id = ? ORDER BY sequence
	`, voucherID.String())
	if err != nil {
		return model.Voucher{}, fmt.Errorf("querying entries of %s: %w", v.Number, err)
	}
	defer rows.Close()
	for rows.Next() {
		e := model.VoucherEntry{VoucherID: v.ID}
		if err := rows.Scan(&e.ID, &e.LedgerID, &e.Debit, &e.Credit, &e.Narration, &e.CostCenter, &e.Project, &e.Sequence); err != nil {
			return model.Voucher{}, fmt.Errorf("scanning entry: %w", err)
		}
		v.Entries = append(v.Entries, e)
	}
	return v, rows.Err()
}

// ListVouchers returns voucher headers of a tenant dated within [from, to],
// newest last. A zero bound is open.
func (s *Store) ListVouchers(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.Voucher, error) {
	query := `SELECT id, voucher_type, number, date, narration, total_debit, total_credit, status
		FROM vouchers WHERE tenant_id = ?`
	args := []any{tenantID.String()}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(from))
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDate(to))
	}
	query += ` ORDER BY date, voucher_type, number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vouchers: %w", err)
	}
	defer rows.Close()

	var out []model.Voucher
	for rows.Next() {
		v := model.Voucher{TenantID: tenantID}
		var vt, date, status string
		if err := rows.Scan(&v.ID, &vt, &v.Number, &date, &v.Narration, &v.TotalDebit, &v.TotalCredit, &status); err != nil {
			return nil, fmt.Errorf("scanning voucher: %w", err)
		}
		v.Type = model.VoucherType(vt)
		v.Status = model.VoucherStatus(status)
		if v.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListPostings returns entries joined with their voucher headers, filtered
// by f. The filter is validated first.
func (s *Store) ListPostings(ctx context.Context, f model.PostingFilter) ([]model.Posting, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid posting filter: %w", err)
	}

	where, args := postingWhere(f)
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.ledger_id, v.id, v.number, v.voucher_type, v.status, v.date, e.debit, e.credit
		FROM voucher_entries e JOIN vouchers v ON v.id = e.voucher_id
		WHERE `+where+`
		ORDER BY v.date, v.voucher_type, v.number, e.sequence
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		var p model.Posting
		var vt, status, date string
		if err := rows.Scan(&p.LedgerID, &p.VoucherID, &p.VoucherNumber, &vt, &status, &date, &p.Debit, &p.Credit); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		p.VoucherType = model.VoucherType(vt)
		p.Status = model.VoucherStatus(status)
		if p.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func postingWhere(f model.PostingFilter) (string, []any) {
	clauses := []string{"v.tenant_id = ?", "v.date <= ?"}
	args := []any{f.TenantID.String(), formatDate(f.To)}
	if !f.From.IsZero() {
		clauses = append(clauses, "v.date >= ?")
		args = append(args, formatDate(f.From))
	}
	clauses = append(clauses, "v.status IN ("+placeholders(len(f.Statuses))+")")
	for _, st := range f.Statuses {
		args = append(args, string(st))
	}
	if len(f.LedgerIDs) > 0 {
		clauses = append(clauses, "e.ledger_id IN ("+placeholders(len(f.LedgerIDs))+")")
		for _, lid := range f.LedgerIDs {
			args = append(args, lid.String())
		}
	}
	return strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// InsertAudit appends an audit trail entry.
func (tx *Tx) InsertAudit(ctx context.Context, e auditlog.Entry) error {
	_, err := tx.tx.ExecContext(ctx, `
		INSERT INTO audit_log (tenant_id, at, actor, action, voucher_id, voucher_number, from_status, to_status, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.TenantID.String(), formatTS(e.Timestamp), e.Actor, string(e.Action), e.VoucherID.String(),
		e.VoucherNumber, string(e.From), string(e.To), e.Details)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// ListAudit returns a tenant's audit trail in insertion order.
func (s *Store) ListAudit(ctx context.Context, tenantID uuid.UUID) ([]auditlog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT at, actor, action, voucher_id, voucher_number, from_status, to_status, details
		FROM audit_log WHERE tenant_id = ? ORDER BY id
	`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var out []auditlog.Entry
	for rows.Next() {
		e := auditlog.Entry{TenantID: tenantID}
		var at, action, from, to string
		if err := rows.Scan(&at, &e.Actor, &action, &e.VoucherID, &e.VoucherNumber, &from, &to, &e.Details); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if e.Timestamp, err = parseTS(at); err != nil {
			return nil, err
		}
		e.Action = auditlog.Action(action)
		e.From = model.VoucherStatus(from)
		e.To = model.VoucherStatus(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(tsFormat)
}

func parseTS(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(tsFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
