package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// Header is the CSV header for chart-of-accounts files.
const Header = "kind,name,parent,nature,sequence,affects_gross_profit,cash_or_bank,code,opening_balance,opening_side,active"

const (
	numFields   = 11
	colKind     = 0
	colName     = 1
	colParent   = 2
	colNature   = 3
	colSequence = 4
	colDirect   = 5
	colCashBank = 6
	colCode     = 7
	colOpening  = 8
	colSide     = 9
	colActive   = 10

	kindGroup  = "group"
	kindLedger = "ledger"
)

// ReadChart reads a chart CSV. Parents are referenced by name and must
// appear before the rows that use them. Fresh IDs are assigned.
func ReadChart(r io.Reader, tenantID uuid.UUID) ([]model.LedgerGroup, []model.Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading chart CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	groupIDs := make(map[string]uuid.UUID)
	var groups []model.LedgerGroup
	var ledgers []model.Ledger
	for i, rec := range records[1:] {
		row := i + 2
		switch rec[colKind] {
		case kindGroup:
			g, err := unmarshalGroup(rec, groupIDs)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", row, err)
			}
			g.TenantID = tenantID
			groupIDs[g.Name] = g.ID
			groups = append(groups, g)
		case kindLedger:
			l, err := unmarshalLedger(rec, groupIDs)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", row, err)
			}
			l.TenantID = tenantID
			ledgers = append(ledgers, l)
		default:
			return nil, nil, fmt.Errorf("row %d: unknown kind %q", row, rec[colKind])
		}
	}
	return groups, ledgers, nil
}

// WriteChart writes a chart CSV, groups first so parents precede children.
func WriteChart(w io.Writer, c *Chart) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var werr error
	for _, root := range c.Tree("") {
		root.Walk(func(n *GroupNode, _ int) {
			if werr != nil {
				return
			}
			parent := ""
			if p, ok := c.Group(n.Group.ParentID); ok {
				parent = p.Name
			}
			werr = cw.Write(marshalGroup(n.Group, parent))
		})
	}
	if werr != nil {
		return fmt.Errorf("writing group: %w", werr)
	}
	for _, l := range c.Ledgers() {
		g, _ := c.Group(l.GroupID)
		if err := cw.Write(marshalLedger(l, g.Name)); err != nil {
			return fmt.Errorf("writing ledger %q: %w", l.Name, err)
		}
	}
	return cw.Error()
}

func marshalGroup(g model.LedgerGroup, parent string) []string {
	row := make([]string, numFields)
	row[colKind] = kindGroup
	row[colName] = g.Name
	row[colParent] = parent
	row[colNature] = string(g.Nature)
	row[colSequence] = strconv.Itoa(g.Sequence)
	row[colDirect] = strconv.FormatBool(g.AffectsGrossProfit)
	row[colCashBank] = strconv.FormatBool(g.CashOrBank)
	return row
}

func marshalLedger(l model.Ledger, group string) []string {
	row := make([]string, numFields)
	row[colKind] = kindLedger
	row[colName] = l.Name
	row[colParent] = group
	row[colCode] = l.Code
	row[colOpening] = l.OpeningBalance.StringFixed(2)
	row[colSide] = string(l.OpeningSide)
	row[colActive] = strconv.FormatBool(l.Active)
	return row
}

func unmarshalGroup(rec []string, groupIDs map[string]uuid.UUID) (model.LedgerGroup, error) {
	g := model.LedgerGroup{
		ID:     uuid.New(),
		Name:   rec[colName],
		Nature: model.Nature(rec[colNature]),
	}
	if !g.Nature.Valid() {
		return g, fmt.Errorf("group %q: unknown nature %q", g.Name, rec[colNature])
	}
	if rec[colParent] != "" {
		parentID, ok := groupIDs[rec[colParent]]
		if !ok {
			return g, fmt.Errorf("group %q: parent %q not defined earlier", g.Name, rec[colParent])
		}
		g.ParentID = parentID
	}
	var err error
	if rec[colSequence] != "" {
		if g.Sequence, err = strconv.Atoi(rec[colSequence]); err != nil {
			return g, fmt.Errorf("parsing sequence %q: %w", rec[colSequence], err)
		}
	}
	if g.AffectsGrossProfit, err = parseBool(rec[colDirect]); err != nil {
		return g, fmt.Errorf("parsing affects_gross_profit: %w", err)
	}
	if g.CashOrBank, err = parseBool(rec[colCashBank]); err != nil {
		return g, fmt.Errorf("parsing cash_or_bank: %w", err)
	}
	return g, nil
}

func unmarshalLedger(rec []string, groupIDs map[string]uuid.UUID) (model.Ledger, error) {
	l := model.Ledger{
		ID:             uuid.New(),
		Name:           rec[colName],
		Code:           rec[colCode],
		OpeningBalance: decimal.Zero,
		OpeningSide:    model.SideDebit,
		Active:         true,
	}
	groupID, ok := groupIDs[rec[colParent]]
	if !ok {
		return l, fmt.Errorf("ledger %q: group %q not defined", l.Name, rec[colParent])
	}
	l.GroupID = groupID

	if rec[colOpening] != "" {
		ob, err := decimal.NewFromString(rec[colOpening])
		if err != nil {
			return l, fmt.Errorf("parsing opening_balance %q: %w", rec[colOpening], err)
		}
		if ob.IsNegative() {
			return l, fmt.Errorf("ledger %q: opening balance must not be negative", l.Name)
		}
		l.OpeningBalance = ob
	}
	switch model.Side(rec[colSide]) {
	case "", model.SideDebit:
	case model.SideCredit:
		l.OpeningSide = model.SideCredit
	default:
		return l, fmt.Errorf("ledger %q: unknown opening side %q", l.Name, rec[colSide])
	}
	if rec[colActive] != "" {
		active, err := strconv.ParseBool(rec[colActive])
		if err != nil {
			return l, fmt.Errorf("parsing active %q: %w", rec[colActive], err)
		}
		l.Active = active
	}
	return l, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
