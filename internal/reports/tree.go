package reports

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/model"
)

// Node is one row of a hierarchical statement: a group with its rolled-up
// total, or a ledger leaf.
type Node struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Code     string           `json:"code,omitempty"`
	Ledger   bool             `json:"ledger"`
	Amount   decimal.Decimal  `json:"amount"`
	Previous *decimal.Decimal `json:"previous,omitempty"`
	Children []*Node          `json:"children,omitempty"`
}

// Section is a titled forest of nodes with its total.
type Section struct {
	Title         string           `json:"title"`
	Groups        []*Node          `json:"groups"`
	Total         decimal.Decimal  `json:"total"`
	PreviousTotal *decimal.Decimal `json:"previous_total,omitempty"`
}

// pair carries a current figure and an optional comparison figure.
type pair struct {
	cur, prev decimal.Decimal
}

func (p pair) add(o pair) pair {
	return pair{cur: p.cur.Add(o.cur), prev: p.prev.Add(o.prev)}
}

func (p pair) zero() bool {
	return p.cur.IsZero() && p.prev.IsZero()
}

// rollupOptions controls how a group forest becomes statement nodes.
type rollupOptions struct {
	amount       func(model.Ledger) pair
	include      func(model.Ledger) bool // nil keeps every ledger
	compare      bool
	suppressZero bool
}

// rollup folds the forest bottom-up: a group's total is its own ledgers
// plus its child groups. Groups left without rows are dropped.
func rollup(roots []*accounts.GroupNode, opts rollupOptions) ([]*Node, pair) {
	var out []*Node
	total := pair{cur: decimal.Zero, prev: decimal.Zero}
	for _, r := range roots {
		n, sum, keep := rollupNode(r, opts)
		if !keep {
			continue
		}
		out = append(out, n)
		total = total.add(sum)
	}
	return out, total
}

func rollupNode(gn *accounts.GroupNode, opts rollupOptions) (*Node, pair, bool) {
	node := &Node{ID: gn.Group.ID, Name: gn.Group.Name}
	sum := pair{cur: decimal.Zero, prev: decimal.Zero}
	rows := 0

	for _, l := range gn.Ledgers {
		if opts.include != nil && !opts.include(l) {
			continue
		}
		amt := opts.amount(l)
		if opts.suppressZero && amt.zero() {
			continue
		}
		leaf := &Node{ID: l.ID, Name: l.Name, Code: l.Code, Ledger: true, Amount: amt.cur}
		if opts.compare {
			leaf.Previous = ptr(amt.prev)
		}
		node.Children = append(node.Children, leaf)
		sum = sum.add(amt)
		rows++
	}

	for _, child := range gn.Children {
		cn, csum, keep := rollupNode(child, opts)
		if !keep {
			continue
		}
		node.Children = append(node.Children, cn)
		sum = sum.add(csum)
		rows++
	}

	node.Amount = sum.cur
	if opts.compare {
		node.Previous = ptr(sum.prev)
	}
	if rows == 0 && (opts.suppressZero || opts.include != nil) {
		return nil, sum, false
	}
	return node, sum, true
}

func newSection(title string, groups []*Node, total pair, compare bool) Section {
	if groups == nil {
		groups = []*Node{}
	}
	s := Section{Title: title, Groups: groups, Total: total.cur}
	if compare {
		s.PreviousTotal = ptr(total.prev)
	}
	return s
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// percent returns part/whole*100 rounded to two places, or zero when whole
// is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}
