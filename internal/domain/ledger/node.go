package ledger

import "github.com/shopspring/decimal"

// RootID is the id of the virtual root. The root is never persisted and
// never appears in the closure table.
const RootID = -1

// Node is one entry in the hierarchical chart of accounts.
type Node struct {
	ID          int
	Name        string
	Code        string
	Description string
	Note        string

	// Rule is the sign convention: true means debit-normal, false means
	// credit-normal. It is fixed at creation and drives the sign applied
	// when leaf totals are aggregated.
	Rule bool

	// Branch marks an internal node; branches cannot hold transactions.
	Branch bool

	Unit int

	InitialTotal decimal.Decimal
	FinalTotal   decimal.Decimal

	Parent   *Node
	Children []*Node
}

// NewRoot returns the virtual root node for a tree.
func NewRoot() *Node {
	return &Node{ID: RootID, Branch: true}
}

// Reset restores the node to its default-valued state for pool reuse.
func (n *Node) Reset() {
	*n = Node{ID: RootID}
}

// AppendChild wires a parent/child link on both sides.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// NodeHash indexes live nodes by id.
type NodeHash map[int]*Node
