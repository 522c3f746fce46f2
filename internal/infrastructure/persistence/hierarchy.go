package persistence

import (
	"context"
	"fmt"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BuildTree loads every non-removed node and wires parent/child links from
// the distance-1 closure rows. Nodes without a persisted parent hang off
// the virtual root. On any query error the partial tree is discarded.
func (s *SectionStore) BuildTree(ctx context.Context) (ledger.NodeHash, error) {
	nodes, err := s.readNodes(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.readRelationships(ctx, nodes); err != nil {
		for _, node := range nodes {
			if node.ID != ledger.RootID {
				s.pools.Node.Recycle(node)
			}
		}
		return nil, err
	}

	root := nodes[ledger.RootID]
	for _, node := range nodes {
		if node.ID != ledger.RootID && node.Parent == nil {
			root.AppendChild(node)
		}
	}

	return nodes, nil
}

func (s *SectionStore) readNodes(ctx context.Context) (ledger.NodeHash, error) {
	query := fmt.Sprintf(`
    SELECT id, name, code, description, note, rule, branch, unit, initial_total, final_total
    FROM %s
    WHERE removed = 0
    `, s.info.NodeTable)

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		s.logger.Error("failed to read nodes", zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	nodes := ledger.NodeHash{ledger.RootID: ledger.NewRoot()}

	for rows.Next() {
		node := s.pools.Node.Allocate()
		if err := rows.Scan(
			&node.ID, &node.Name, &node.Code, &node.Description, &node.Note,
			&node.Rule, &node.Branch, &node.Unit, &node.InitialTotal, &node.FinalTotal,
		); err != nil {
			s.pools.Node.Recycle(node)
			s.logger.Error("failed to scan node", zap.Error(err))
			return nil, err
		}
		nodes[node.ID] = node
	}

	return nodes, rows.Err()
}

func (s *SectionStore) readRelationships(ctx context.Context, nodes ledger.NodeHash) error {
	query := fmt.Sprintf(`
    SELECT ancestor, descendant
    FROM %s
    WHERE distance = 1
    `, s.info.PathTable)

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		s.logger.Error("failed to read relationships", zap.Error(err))
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ancestorID, descendantID int
		if err := rows.Scan(&ancestorID, &descendantID); err != nil {
			s.logger.Error("failed to scan relationship", zap.Error(err))
			return err
		}

		ancestor := nodes[ancestorID]
		descendant := nodes[descendantID]
		if ancestor == nil || descendant == nil {
			// A closure row pointing at a removed node; the self-rows
			// were already filtered by the node read.
			continue
		}

		ancestor.AppendChild(descendant)
	}

	return rows.Err()
}

// InsertNode persists node as a child of parentID: the entity row plus one
// closure row per ancestor of the parent and the self-row, all in one
// atomic unit. The node must still carry the unassigned-id sentinel; the
// generated id is written back on success.
func (s *SectionStore) InsertNode(ctx context.Context, parentID int, node *ledger.Node) error {
	if node == nil || node.ID != ledger.RootID {
		return shared.ErrInvalidInput
	}

	insertNode := fmt.Sprintf(`
    INSERT INTO %s (name, code, description, note, rule, branch, unit)
    VALUES (?, ?, ?, ?, ?, ?, ?)
    `, s.info.NodeTable)

	insertPath := fmt.Sprintf(`
    INSERT INTO %s (ancestor, descendant, distance)
    SELECT ancestor, ?, distance + 1 FROM %s WHERE descendant = ?
    UNION ALL
    SELECT ?, ?, 0
    `, s.info.PathTable, s.info.PathTable)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(insertNode,
			node.Name, node.Code, node.Description, node.Note,
			node.Rule, node.Branch, node.Unit,
		).Error; err != nil {
			return err
		}

		id, err := lastInsertID(tx)
		if err != nil {
			return err
		}
		node.ID = id

		return tx.Exec(insertPath, node.ID, parentID, node.ID, node.ID).Error
	})
	if err != nil {
		node.ID = ledger.RootID
		s.logger.Error("failed to insert node", zap.Error(err))
		return err
	}

	return nil
}

// RemoveNode tombstones a node in three atomic steps: mark the entity row
// removed; for a branch shift every closure row routed through it up one
// level, for a leaf tombstone its dependent transaction rows instead; then
// physically delete all non-self closure rows touching the node.
func (s *SectionStore) RemoveNode(ctx context.Context, nodeID int, branch bool) error {
	if nodeID == ledger.RootID {
		return shared.ErrRootImmutable
	}
	if nodeID <= 0 {
		return shared.ErrInvalidInput
	}

	first := fmt.Sprintf(`
    UPDATE %s
    SET removed = 1
    WHERE id = ?
    `, s.info.NodeTable)

	second, secondArgs := s.removeNodeSecondStep(nodeID)
	if branch {
		secondArgs = []any{nodeID, nodeID, nodeID}
		second = fmt.Sprintf(`
    WITH related_nodes AS (
        SELECT DISTINCT fp1.ancestor, fp2.descendant
        FROM %s AS fp1
        INNER JOIN %s AS fp2 ON fp1.descendant = fp2.ancestor
        WHERE fp2.ancestor = ? AND fp2.descendant != ? AND fp1.ancestor != ?
    )
    UPDATE %s
    SET distance = distance - 1
    WHERE (ancestor, descendant) IN (SELECT ancestor, descendant FROM related_nodes)
    `, s.info.PathTable, s.info.PathTable, s.info.PathTable)
	}

	third := fmt.Sprintf(`
    DELETE FROM %s
    WHERE (descendant = ? OR ancestor = ?) AND distance != 0
    `, s.info.PathTable)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(first, nodeID).Error; err != nil {
			return fmt.Errorf("remove node 1st step: %w", err)
		}

		if err := tx.Exec(second, secondArgs...).Error; err != nil {
			return fmt.Errorf("remove node 2nd step: %w", err)
		}

		if err := tx.Exec(third, nodeID, nodeID).Error; err != nil {
			return fmt.Errorf("remove node 3rd step: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("failed to remove node", zap.Int("node_id", nodeID), zap.Error(err))
		return err
	}

	return nil
}

// removeNodeSecondStep tombstones the transaction rows depending on a
// removed leaf. Order sections key their rows by the owning header, the
// ledger sections by either leg.
func (s *SectionStore) removeNodeSecondStep(nodeID int) (string, []any) {
	switch s.info.Section {
	case ledger.SectionPurchase, ledger.SectionSales:
		return fmt.Sprintf(`
    UPDATE %s
    SET removed = 1
    WHERE node_id = ?
    `, s.info.TransTable), []any{nodeID}
	default:
		return fmt.Sprintf(`
    UPDATE %s
    SET removed = 1
    WHERE lhs_node = ? OR rhs_node = ?
    `, s.info.TransTable), []any{nodeID, nodeID}
	}
}

// DragNode reparents the subtree under nodeID below destinationID. Step one
// severs the links to the old ancestors while keeping rows internal to the
// subtree; step two inserts the cross product of the destination's
// ancestors and the subtree's descendants. Dragging a node onto itself or
// onto its own descendant is a caller precondition; the store does not
// detect cycles.
func (s *SectionStore) DragNode(ctx context.Context, destinationID, nodeID int) error {
	if nodeID <= 0 || destinationID == nodeID {
		return shared.ErrInvalidInput
	}

	first := fmt.Sprintf(`
    WITH related_nodes AS (
        SELECT DISTINCT fp1.ancestor, fp2.descendant
        FROM %s AS fp1
        INNER JOIN %s AS fp2 ON fp1.descendant = fp2.ancestor
        WHERE fp2.ancestor = ? AND fp1.ancestor != ?
    )
    DELETE FROM %s
    WHERE (ancestor, descendant) IN (SELECT ancestor, descendant FROM related_nodes)
    `, s.info.PathTable, s.info.PathTable, s.info.PathTable)

	second := fmt.Sprintf(`
    INSERT INTO %s (ancestor, descendant, distance)
    SELECT fp1.ancestor, fp2.descendant, fp1.distance + fp2.distance + 1
    FROM %s AS fp1
    INNER JOIN %s AS fp2
    WHERE fp1.descendant = ? AND fp2.ancestor = ?
    `, s.info.PathTable, s.info.PathTable, s.info.PathTable)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(first, nodeID, nodeID).Error; err != nil {
			return fmt.Errorf("drag node 1st step: %w", err)
		}
		if err := tx.Exec(second, destinationID, nodeID).Error; err != nil {
			return fmt.Errorf("drag node 2nd step: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to drag node",
			zap.Int("node_id", nodeID),
			zap.Int("destination_id", destinationID),
			zap.Error(err))
		return err
	}

	return nil
}

// LeafTotal recomputes a leaf's initial and final totals from its
// non-removed transactions, signed by the node's rule. Branches and
// unassigned nodes are rejected before any I/O.
func (s *SectionStore) LeafTotal(ctx context.Context, node *ledger.Node) error {
	if node == nil || node.ID <= 0 || node.Branch {
		return shared.ErrInvalidInput
	}
	if !s.supportsLeafTotal() {
		return shared.ErrUnsupported
	}

	query := fmt.Sprintf(`
    SELECT
        SUM(CASE WHEN lhs_node = ? THEN lhs_debit - lhs_credit
                 ELSE rhs_debit - rhs_credit END) AS initial_balance,
        SUM(CASE WHEN lhs_node = ? THEN lhs_ratio * (lhs_debit - lhs_credit)
                 ELSE rhs_ratio * (rhs_debit - rhs_credit) END) AS final_balance
    FROM %s
    WHERE (lhs_node = ? OR rhs_node = ?) AND removed = 0
    `, s.info.TransTable)

	var result struct {
		InitialBalance decimal.NullDecimal
		FinalBalance   decimal.NullDecimal
	}
	if err := s.db.WithContext(ctx).
		Raw(query, node.ID, node.ID, node.ID, node.ID).
		Scan(&result).Error; err != nil {
		s.logger.Error("failed to calculate leaf total", zap.Int("node_id", node.ID), zap.Error(err))
		return err
	}

	sign := decimal.NewFromInt(1)
	if !node.Rule {
		sign = decimal.NewFromInt(-1)
	}

	node.InitialTotal = sign.Mul(result.InitialBalance.Decimal)
	node.FinalTotal = sign.Mul(result.FinalBalance.Decimal)
	return nil
}

func (s *SectionStore) supportsLeafTotal() bool {
	switch s.info.Section {
	case ledger.SectionFinance, ledger.SectionProduct, ledger.SectionTask:
		return true
	default:
		return false
	}
}

// InternalReference reports whether any non-removed transaction of this
// section still references the node.
func (s *SectionStore) InternalReference(ctx context.Context, nodeID int) (bool, error) {
	if nodeID <= 0 {
		return false, shared.ErrInvalidInput
	}

	var query string
	var args []any
	switch s.info.Section {
	case ledger.SectionPurchase, ledger.SectionSales:
		query = fmt.Sprintf(`
    SELECT COUNT(*) FROM %s
    WHERE node_id = ? AND removed = 0
    `, s.info.TransTable)
		args = []any{nodeID}
	default:
		query = fmt.Sprintf(`
    SELECT COUNT(*) FROM %s
    WHERE (lhs_node = ? OR rhs_node = ?) AND removed = 0
    `, s.info.TransTable)
		args = []any{nodeID, nodeID}
	}

	var count int64
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		s.logger.Error("failed to count internal references", zap.Int("node_id", nodeID), zap.Error(err))
		return false, err
	}

	return count > 0, nil
}

// ExternalReference reports whether another section still references the
// node. Only product and stakeholder nodes can be referenced externally;
// the remaining sections report false.
func (s *SectionStore) ExternalReference(ctx context.Context, nodeID int) (bool, error) {
	if nodeID <= 0 {
		return false, shared.ErrInvalidInput
	}

	var query string
	switch s.info.Section {
	case ledger.SectionProduct:
		query = `
    SELECT (SELECT COUNT(*) FROM purchase_transaction WHERE lhs_node = ? AND removed = 0)
         + (SELECT COUNT(*) FROM sales_transaction WHERE lhs_node = ? AND removed = 0)
         + (SELECT COUNT(*) FROM stakeholder_transaction WHERE lhs_node = ? AND removed = 0)
    `
	case ledger.SectionStakeholder:
		query = `
    SELECT (SELECT COUNT(*) FROM purchase_transaction WHERE rhs_node = ? AND removed = 0)
         + (SELECT COUNT(*) FROM sales_transaction WHERE rhs_node = ? AND removed = 0)
         + (SELECT COUNT(*) FROM purchase WHERE (party = ? OR employee = ?) AND removed = 0)
         + (SELECT COUNT(*) FROM sales WHERE (party = ? OR employee = ?) AND removed = 0)
    `
	default:
		return false, nil
	}

	args := []any{nodeID, nodeID, nodeID}
	if s.info.Section == ledger.SectionStakeholder {
		args = []any{nodeID, nodeID, nodeID, nodeID, nodeID, nodeID}
	}

	var count int64
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		s.logger.Error("failed to count external references", zap.Int("node_id", nodeID), zap.Error(err))
		return false, err
	}

	return count > 0, nil
}
