package ledger

import "sort"

// NodeTransMap is a many-valued mapping from an affected account id to the
// ids of the transactions touching it. It is built per structural operation
// and drives cascading notifications when nodes are removed or replaced.
type NodeTransMap map[int][]int

// Add records one (node, trans) pair.
func (m NodeTransMap) Add(nodeID, transID int) {
	m[nodeID] = append(m[nodeID], transID)
}

// Contains reports whether any transaction is recorded under nodeID.
func (m NodeTransMap) Contains(nodeID int) bool {
	return len(m[nodeID]) > 0
}

// Remove drops every entry recorded under nodeID.
func (m NodeTransMap) Remove(nodeID int) {
	delete(m, nodeID)
}

// Empty reports whether the map holds no entries at all.
func (m NodeTransMap) Empty() bool {
	return len(m) == 0
}

// Nodes returns the affected account ids in ascending order.
func (m NodeTransMap) Nodes() []int {
	nodes := make([]int, 0, len(m))
	for id := range m {
		nodes = append(nodes, id)
	}
	sort.Ints(nodes)
	return nodes
}

// TransIDs returns every recorded transaction id, grouped by account in
// ascending account order.
func (m NodeTransMap) TransIDs() []int {
	ids := make([]int, 0, len(m))
	for _, nodeID := range m.Nodes() {
		ids = append(ids, m[nodeID]...)
	}
	return ids
}
