package accounts

import (
	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// GroupNode is one group with its ledgers and child groups populated.
type GroupNode struct {
	Group    model.LedgerGroup
	Ledgers  []model.Ledger
	Children []*GroupNode
}

// Tree returns the group forest. A non-empty nature keeps only roots of
// that nature (and their whole subtrees).
func (c *Chart) Tree(nature model.Nature) []*GroupNode {
	var roots []*GroupNode
	for _, g := range c.children[uuid.Nil] {
		if nature != "" && g.Nature != nature {
			continue
		}
		roots = append(roots, c.node(g))
	}
	return roots
}

func (c *Chart) node(g model.LedgerGroup) *GroupNode {
	n := &GroupNode{Group: g, Ledgers: c.byGroup[g.ID]}
	for _, child := range c.children[g.ID] {
		n.Children = append(n.Children, c.node(child))
	}
	return n
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *GroupNode) Walk(fn func(node *GroupNode, depth int)) {
	n.walk(fn, 0)
}

func (n *GroupNode) walk(fn func(*GroupNode, int), depth int) {
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}
