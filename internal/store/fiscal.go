package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// CreateFiscalYear inserts a fiscal year. Overlapping years are rejected.
func (s *Store) CreateFiscalYear(ctx context.Context, fy model.FiscalYear) error {
	if fy.EndDate.Before(fy.StartDate) {
		return fmt.Errorf("fiscal year %q ends before it starts", fy.Name)
	}
	return s.Transaction(ctx, func(tx *Tx) error {
		var overlaps int
		err := tx.tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM fiscal_years
			WHERE tenant_id = ? AND start_date <= ? AND end_date >= ?
		`, fy.TenantID.String(), formatDate(fy.EndDate), formatDate(fy.StartDate)).Scan(&overlaps)
		if err != nil {
			return fmt.Errorf("checking overlap: %w", err)
		}
		if overlaps > 0 {
			return fmt.Errorf("fiscal year %q overlaps an existing fiscal year", fy.Name)
		}
		_, err = tx.tx.ExecContext(ctx, `
			INSERT INTO fiscal_years (id, tenant_id, name, start_date, end_date, closed)
			VALUES (?, ?, ?, ?, ?, ?)
		`, fy.ID.String(), fy.TenantID.String(), fy.Name, formatDate(fy.StartDate), formatDate(fy.EndDate), boolInt(fy.Closed))
		if err != nil {
			return fmt.Errorf("inserting fiscal year %q: %w", fy.Name, err)
		}
		return nil
	})
}

// CloseFiscalYear marks a fiscal year closed to new postings.
func (s *Store) CloseFiscalYear(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE fiscal_years SET closed = 1 WHERE tenant_id = ? AND id = ?`,
		tenantID.String(), id.String())
	if err != nil {
		return fmt.Errorf("closing fiscal year: %w", err)
	}
	return expectOne(res, "fiscal year", id)
}

// GetFiscalYear returns a fiscal year by ID or model.ErrNotFound.
func (s *Store) GetFiscalYear(ctx context.Context, tenantID, id uuid.UUID) (model.FiscalYear, error) {
	return getFiscalYear(ctx, s.db, tenantID, id)
}

// GetFiscalYear reads a fiscal year inside the transaction.
func (tx *Tx) GetFiscalYear(ctx context.Context, tenantID, id uuid.UUID) (model.FiscalYear, error) {
	return getFiscalYear(ctx, tx.tx, tenantID, id)
}

func getFiscalYear(ctx context.Context, q querier, tenantID, id uuid.UUID) (model.FiscalYear, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, closed FROM fiscal_years WHERE tenant_id = ? AND id = ?
	`, tenantID.String(), id.String())
	fy, err := scanFiscalYear(row, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FiscalYear{}, model.NotFound("fiscal year", id)
	}
	return fy, err
}

// FiscalYearFor returns the fiscal year containing d or model.ErrNotFound.
func (s *Store) FiscalYearFor(ctx context.Context, tenantID uuid.UUID, d time.Time) (model.FiscalYear, error) {
	return fiscalYearFor(ctx, s.db, tenantID, d)
}

// FiscalYearFor reads the fiscal year containing d inside the transaction.
func (tx *Tx) FiscalYearFor(ctx context.Context, tenantID uuid.UUID, d time.Time) (model.FiscalYear, error) {
	return fiscalYearFor(ctx, tx.tx, tenantID, d)
}

func fiscalYearFor(ctx context.Context, q querier, tenantID uuid.UUID, d time.Time) (model.FiscalYear, error) {
	day := formatDate(d)
	row := q.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, closed FROM fiscal_years
		WHERE tenant_id = ? AND start_date <= ? AND end_date >= ?
	`, tenantID.String(), day, day)
	fy, err := scanFiscalYear(row, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FiscalYear{}, model.NotFound("fiscal year for", day)
	}
	return fy, err
}

// ListFiscalYears returns a tenant's fiscal years, oldest first.
func (s *Store) ListFiscalYears(ctx context.Context, tenantID uuid.UUID) ([]model.FiscalYear, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, closed FROM fiscal_years WHERE tenant_id = ? ORDER BY start_date
	`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("querying fiscal years: %w", err)
	}
	defer rows.Close()

	var out []model.FiscalYear
	for rows.Next() {
		fy, err := scanFiscalYear(rows, tenantID)
		if err != nil {
			return nil, err
		}
		out = append(out, fy)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFiscalYear(row scanner, tenantID uuid.UUID) (model.FiscalYear, error) {
	fy := model.FiscalYear{TenantID: tenantID}
	var start, end string
	var closed int
	if err := row.Scan(&fy.ID, &fy.Name, &start, &end, &closed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fy, err
		}
		return fy, fmt.Errorf("scanning fiscal year: %w", err)
	}
	var err error
	if fy.StartDate, err = parseDate(start); err != nil {
		return fy, err
	}
	if fy.EndDate, err = parseDate(end); err != nil {
		return fy, err
	}
	fy.Closed = closed == 1
	return fy, nil
}
