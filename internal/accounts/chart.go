package accounts

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// Chart provides in-memory lookup over one tenant's groups and ledgers.
type Chart struct {
	groups     []model.LedgerGroup
	ledgers    []model.Ledger
	groupByID  map[uuid.UUID]model.LedgerGroup
	ledgerByID map[uuid.UUID]model.Ledger
	children   map[uuid.UUID][]model.LedgerGroup
	byGroup    map[uuid.UUID][]model.Ledger
}

// NewChart indexes a flat fetch of groups and ledgers. It rejects unknown
// natures, dangling parent or group references, and parent cycles.
func NewChart(groups []model.LedgerGroup, ledgers []model.Ledger) (*Chart, error) {
	c := &Chart{
		groupByID:  make(map[uuid.UUID]model.LedgerGroup, len(groups)),
		ledgerByID: make(map[uuid.UUID]model.Ledger, len(ledgers)),
		children:   make(map[uuid.UUID][]model.LedgerGroup),
		byGroup:    make(map[uuid.UUID][]model.Ledger),
	}
	for _, g := range groups {
		if !g.Nature.Valid() {
			return nil, fmt.Errorf("group %q: unknown nature %q", g.Name, g.Nature)
		}
		c.groupByID[g.ID] = g
	}
	for _, g := range groups {
		if !g.IsRoot() {
			if _, ok := c.groupByID[g.ParentID]; !ok {
				return nil, fmt.Errorf("group %q: unknown parent %s", g.Name, g.ParentID)
			}
		}
		c.children[g.ParentID] = append(c.children[g.ParentID], g)
	}
	if err := c.checkCycles(); err != nil {
		return nil, err
	}
	for _, l := range ledgers {
		if _, ok := c.groupByID[l.GroupID]; !ok {
			return nil, fmt.Errorf("ledger %q: unknown group %s", l.Name, l.GroupID)
		}
		c.ledgerByID[l.ID] = l
		c.byGroup[l.GroupID] = append(c.byGroup[l.GroupID], l)
	}

	c.groups = sortedGroups(groups)
	c.ledgers = append([]model.Ledger(nil), ledgers...)
	sort.SliceStable(c.ledgers, func(i, j int) bool { return ledgerLess(c.ledgers[i], c.ledgers[j]) })
	for k := range c.children {
		c.children[k] = sortedGroups(c.children[k])
	}
	for k, ls := range c.byGroup {
		sort.SliceStable(ls, func(i, j int) bool { return ledgerLess(ls[i], ls[j]) })
		c.byGroup[k] = ls
	}
	return c, nil
}

func (c *Chart) checkCycles() error {
	for _, g := range c.groupByID {
		seen := map[uuid.UUID]bool{g.ID: true}
		cur := g
		for !cur.IsRoot() {
			parent := c.groupByID[cur.ParentID]
			if seen[parent.ID] {
				return fmt.Errorf("group %q: parent chain forms a cycle", g.Name)
			}
			seen[parent.ID] = true
			cur = parent
		}
	}
	return nil
}

// Groups returns all groups in display order.
func (c *Chart) Groups() []model.LedgerGroup {
	return c.groups
}

// Ledgers returns all ledgers in display order.
func (c *Chart) Ledgers() []model.Ledger {
	return c.ledgers
}

// Group returns a group by ID.
func (c *Chart) Group(id uuid.UUID) (model.LedgerGroup, bool) {
	g, ok := c.groupByID[id]
	return g, ok
}

// Ledger returns a ledger by ID.
func (c *Chart) Ledger(id uuid.UUID) (model.Ledger, bool) {
	l, ok := c.ledgerByID[id]
	return l, ok
}

// Exists reports whether a ledger ID exists.
func (c *Chart) Exists(id uuid.UUID) bool {
	_, ok := c.ledgerByID[id]
	return ok
}

// LedgerByName returns the first ledger with the given name.
func (c *Chart) LedgerByName(name string) (model.Ledger, bool) {
	for _, l := range c.ledgers {
		if l.Name == name {
			return l, true
		}
	}
	return model.Ledger{}, false
}

// LedgerByCode returns the ledger with the given code.
func (c *Chart) LedgerByCode(code string) (model.Ledger, bool) {
	if code == "" {
		return model.Ledger{}, false
	}
	for _, l := range c.ledgers {
		if l.Code == code {
			return l, true
		}
	}
	return model.Ledger{}, false
}

// GroupByName returns the first group with the given name.
func (c *Chart) GroupByName(name string) (model.LedgerGroup, bool) {
	for _, g := range c.groups {
		if g.Name == name {
			return g, true
		}
	}
	return model.LedgerGroup{}, false
}

// Nature returns the nature of the root group above a ledger. Reports place
// a ledger in the section of its root, so signs and profit follow the root
// too, even when a nested group declares a different nature.
func (c *Chart) Nature(ledgerID uuid.UUID) (model.Nature, bool) {
	l, ok := c.ledgerByID[ledgerID]
	if !ok {
		return "", false
	}
	g := c.groupByID[l.GroupID]
	if anc := c.Ancestors(g.ID); len(anc) > 0 {
		g = anc[len(anc)-1]
	}
	return g.Nature, true
}

// Children returns the direct child groups of id (uuid.Nil for roots).
func (c *Chart) Children(id uuid.UUID) []model.LedgerGroup {
	return c.children[id]
}

// LedgersIn returns the ledgers owned directly by a group.
func (c *Chart) LedgersIn(groupID uuid.UUID) []model.Ledger {
	return c.byGroup[groupID]
}

// Ancestors returns the parent chain of a group, nearest first.
func (c *Chart) Ancestors(groupID uuid.UUID) []model.LedgerGroup {
	var out []model.LedgerGroup
	g, ok := c.groupByID[groupID]
	for ok && !g.IsRoot() {
		g, ok = c.groupByID[g.ParentID]
		if ok {
			out = append(out, g)
		}
	}
	return out
}

// IsCashOrBank reports whether a ledger sits under a cash/bank group.
func (c *Chart) IsCashOrBank(ledgerID uuid.UUID) bool {
	l, ok := c.ledgerByID[ledgerID]
	if !ok {
		return false
	}
	g := c.groupByID[l.GroupID]
	if g.CashOrBank {
		return true
	}
	for _, a := range c.Ancestors(g.ID) {
		if a.CashOrBank {
			return true
		}
	}
	return false
}

// CashOrBankLedgers returns every cash/bank ledger in display order.
func (c *Chart) CashOrBankLedgers() []model.Ledger {
	var out []model.Ledger
	for _, l := range c.ledgers {
		if c.IsCashOrBank(l.ID) {
			out = append(out, l)
		}
	}
	return out
}

// NatureMismatch is a group whose nature differs from an ancestor's.
type NatureMismatch struct {
	Group    model.LedgerGroup
	Ancestor model.LedgerGroup
}

// NatureMismatches lists groups that disagree with their ancestors' nature.
// The chart stays usable; the root group's nature drives sign handling.
func (c *Chart) NatureMismatches() []NatureMismatch {
	var out []NatureMismatch
	for _, g := range c.groups {
		for _, a := range c.Ancestors(g.ID) {
			if a.Nature != g.Nature {
				out = append(out, NatureMismatch{Group: g, Ancestor: a})
				break
			}
		}
	}
	return out
}

func sortedGroups(groups []model.LedgerGroup) []model.LedgerGroup {
	out := append([]model.LedgerGroup(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func ledgerLess(a, b model.Ledger) bool {
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}
