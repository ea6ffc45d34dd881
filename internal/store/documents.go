package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// AddTradeDocument records an invoice or bill.
func (s *Store) AddTradeDocument(ctx context.Context, d model.TradeDocument) error {
	if d.AmountPaid.GreaterThan(d.TotalAmount) {
		return fmt.Errorf("%s %s: amount paid exceeds total", d.Kind, d.Number)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_documents (id, tenant_id, kind, number, party_id, party_name, issue_date, due_date,
			total_amount, amount_paid, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID.String(), d.TenantID.String(), string(d.Kind), d.Number, d.PartyID.String(), d.PartyName,
		formatDate(d.IssueDate), formatDate(d.DueDate), d.TotalAmount.String(), d.AmountPaid.String(), string(d.Status))
	if err != nil {
		return fmt.Errorf("inserting %s %s: %w", d.Kind, d.Number, err)
	}
	return nil
}

// ListTradeDocuments returns the documents matching f, ordered by due date.
// Settlement status is left to the caller.
func (s *Store) ListTradeDocuments(ctx context.Context, f model.TradeFilter) ([]model.TradeDocument, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trade filter: %w", err)
	}

	query := `SELECT id, number, party_id, party_name, issue_date, due_date, total_amount, amount_paid, status
		FROM trade_documents WHERE tenant_id = ? AND kind = ? AND issue_date <= ?`
	args := []any{f.TenantID.String(), string(f.Kind), formatDate(f.AsOf)}
	if f.PartyID != uuid.Nil {
		query += ` AND party_id = ?`
		args = append(args, f.PartyID.String())
	}
	query += ` ORDER BY due_date, number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trade documents: %w", err)
	}
	defer rows.Close()

	var out []model.TradeDocument
	for rows.Next() {
		d := model.TradeDocument{TenantID: f.TenantID, Kind: f.Kind}
		var issue, due, status string
		if err := rows.Scan(&d.ID, &d.Number, &d.PartyID, &d.PartyName, &issue, &due, &d.TotalAmount, &d.AmountPaid, &status); err != nil {
			return nil, fmt.Errorf("scanning trade document: %w", err)
		}
		if d.IssueDate, err = parseDate(issue); err != nil {
			return nil, err
		}
		if d.DueDate, err = parseDate(due); err != nil {
			return nil, err
		}
		d.Status = model.TradeStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

// AddCashDocument records a receipt, payment, payroll run or claim.
func (s *Store) AddCashDocument(ctx context.Context, d model.CashDocument) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("unknown cash document kind %q", d.Kind)
	}
	if d.Amount.IsNegative() {
		return fmt.Errorf("cash document %s: amount must not be negative", d.Number)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_documents (id, tenant_id, kind, number, date, amount, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID.String(), d.TenantID.String(), string(d.Kind), d.Number, formatDate(d.Date),
		d.Amount.String(), boolInt(d.Cancelled))
	if err != nil {
		return fmt.Errorf("inserting cash document %s: %w", d.Number, err)
	}
	return nil
}

// ListCashDocuments returns cash documents dated within [from, to],
// cancelled ones included.
func (s *Store) ListCashDocuments(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.CashDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, number, date, amount, cancelled FROM cash_documents
		WHERE tenant_id = ? AND date >= ? AND date <= ?
		ORDER BY date, number
	`, tenantID.String(), formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("querying cash documents: %w", err)
	}
	defer rows.Close()

	var out []model.CashDocument
	for rows.Next() {
		d := model.CashDocument{TenantID: tenantID}
		var kind, date string
		var cancelled int
		if err := rows.Scan(&d.ID, &kind, &d.Number, &date, &d.Amount, &cancelled); err != nil {
			return nil, fmt.Errorf("scanning cash document: %w", err)
		}
		d.Kind = model.CashKind(kind)
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		d.Cancelled = cancelled == 1
		out = append(out, d)
	}
	return out, rows.Err()
}
