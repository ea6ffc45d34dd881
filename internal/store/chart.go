package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// CreateTenant inserts a tenant.
func (s *Store) CreateTenant(ctx context.Context, t model.Tenant) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES (?, ?)`, t.ID.String(), t.Name)
	if err != nil {
		return fmt.Errorf("inserting tenant %q: %w", t.Name, err)
	}
	return nil
}

// GetTenant returns a tenant or model.ErrNotFound.
func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (model.Tenant, error) {
	t := model.Tenant{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM tenants WHERE id = ?`, id.String()).Scan(&t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, model.NotFound("tenant", id)
	}
	if err != nil {
		return model.Tenant{}, fmt.Errorf("reading tenant %s: %w", id, err)
	}
	return t, nil
}

// SaveChart inserts groups (parents before children) and ledgers in one
// transaction.
func (s *Store) SaveChart(ctx context.Context, groups []model.LedgerGroup, ledgers []model.Ledger) error {
	return s.Transaction(ctx, func(tx *Tx) error {
		for _, g := range orderParentsFirst(groups) {
			if err := tx.InsertGroup(ctx, g); err != nil {
				return err
			}
		}
		for _, l := range ledgers {
			if err := tx.InsertLedger(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertGroup inserts a ledger group.
func (tx *Tx) InsertGroup(ctx context.Context, g model.LedgerGroup) error {
	_, err := tx.tx.ExecContext(ctx, `
		INSERT INTO ledger_groups (id, tenant_id, name, nature, parent_id, sequence, affects_gross_profit, cash_or_bank, system)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID.String(), g.TenantID.String(), g.Name, string(g.Nature), nullableID(g.ParentID),
		g.Sequence, boolInt(g.AffectsGrossProfit), boolInt(g.CashOrBank), boolInt(g.System))
	if err != nil {
		return fmt.Errorf("inserting group %q: %w", g.Name, err)
	}
	return nil
}

// InsertLedger inserts a ledger.
func (tx *Tx) InsertLedger(ctx context.Context, l model.Ledger) error {
	if l.OpeningBalance.IsNegative() {
		return fmt.Errorf("ledger %q: opening balance must not be negative", l.Name)
	}
	side := l.OpeningSide
	if side == "" {
		side = model.SideDebit
	}
	_, err := tx.tx.ExecContext(ctx, `
		INSERT INTO ledgers (id, tenant_id, group_id, name, code, opening_balance, opening_side, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID.String(), l.TenantID.String(), l.GroupID.String(), l.Name, l.Code,
		l.OpeningBalance.String(), string(side), boolInt(l.Active))
	if err != nil {
		return fmt.Errorf("inserting ledger %q: %w", l.Name, err)
	}
	return nil
}

// SetOpeningBalance updates a ledger's opening balance and side.
func (s *Store) SetOpeningBalance(ctx context.Context, tenantID, ledgerID uuid.UUID, l model.Ledger) error {
	if l.OpeningBalance.IsNegative() {
		return fmt.Errorf("opening balance must not be negative")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE ledgers SET opening_balance = ?, opening_side = ? WHERE tenant_id = ? AND id = ?
	`, l.OpeningBalance.String(), string(l.OpeningSide), tenantID.String(), ledgerID.String())
	if err != nil {
		return fmt.Errorf("updating opening balance: %w", err)
	}
	return expectOne(res, "ledger", ledgerID)
}

// ListGroups returns every group of a tenant.
func (s *Store) ListGroups(ctx context.Context, tenantID uuid.UUID) ([]model.LedgerGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, nature, parent_id, sequence, affects_gross_profit, cash_or_bank, system
		FROM ledger_groups WHERE tenant_id = ? ORDER BY sequence, name
	`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []model.LedgerGroup
	for rows.Next() {
		g := model.LedgerGroup{TenantID: tenantID}
		var nature string
		var parent sql.NullString
		var direct, cash, system int
		if err := rows.Scan(&g.ID, &g.Name, &nature, &parent, &g.Sequence, &direct, &cash, &system); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		if parent.Valid {
			if g.ParentID, err = uuid.Parse(parent.String); err != nil {
				return nil, fmt.Errorf("group %q: parsing parent: %w", g.Name, err)
			}
		}
		g.Nature = model.Nature(nature)
		g.AffectsGrossProfit = direct == 1
		g.CashOrBank = cash == 1
		g.System = system == 1
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListLedgers returns every ledger of a tenant.
func (s *Store) ListLedgers(ctx context.Context, tenantID uuid.UUID) ([]model.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, name, code, opening_balance, opening_side, active
		FROM ledgers WHERE tenant_id = ? ORDER BY code, name
	`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("querying ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []model.Ledger
	for rows.Next() {
		l := model.Ledger{TenantID: tenantID}
		var side string
		var active int
		if err := rows.Scan(&l.ID, &l.GroupID, &l.Name, &l.Code, &l.OpeningBalance, &side, &active); err != nil {
			return nil, fmt.Errorf("scanning ledger: %w", err)
		}
		l.OpeningSide = model.Side(side)
		l.Active = active == 1
		ledgers = append(ledgers, l)
	}
	return ledgers, rows.Err()
}

func orderParentsFirst(groups []model.LedgerGroup) []model.LedgerGroup {
	placed := make(map[uuid.UUID]bool, len(groups))
	out := make([]model.LedgerGroup, 0, len(groups))
	for len(out) < len(groups) {
		progressed := false
		for _, g := range groups {
			if placed[g.ID] || (!g.IsRoot() && !placed[g.ParentID] && contains(groups, g.ParentID)) {
				continue
			}
			placed[g.ID] = true
			out = append(out, g)
			progressed = true
		}
		if !progressed {
			// Cyclic input; let the foreign keys reject it.
			for _, g := range groups {
				if !placed[g.ID] {
					out = append(out, g)
				}
			}
			break
		}
	}
	return out
}

func contains(groups []model.LedgerGroup, id uuid.UUID) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

func expectOne(res sql.Result, kind string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return model.NotFound(kind, id)
	}
	return nil
}
