package persistence

import (
	"context"
	"fmt"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReplaceNode redirects every reference from oldID to newID, merging the
// two accounts. Cached records are rewritten in memory and the persisted
// rows in one bulk statement. A record whose opposite leg is already newID
// is excluded from the rewrite (it would collapse into a self-reference)
// and its id is returned so the caller can delete it instead.
//
// Replacing a node with itself is a no-op. When nothing references oldID
// after exclusions the operation succeeds trivially. Order sections key
// their transactions by the owning header, so a dual-leg rewrite does not
// apply there.
func (s *SectionStore) ReplaceNode(ctx context.Context, oldID, newID int) ([]int, error) {
	switch s.info.Section {
	case ledger.SectionPurchase, ledger.SectionSales:
		return nil, shared.ErrUnsupported
	}
	if oldID <= 0 || newID <= 0 {
		return nil, shared.ErrInvalidInput
	}
	if oldID == newID {
		return nil, nil
	}

	moved := ledger.NodeTransMap{}
	for id, trans := range s.trans {
		if trans.LhsNode == oldID {
			if trans.RhsNode == newID {
				moved.Add(newID, id)
			} else {
				moved.Add(trans.RhsNode, id)
				trans.LhsNode = newID
			}
		}
		if trans.RhsNode == oldID {
			if trans.LhsNode == newID {
				moved.Add(newID, id)
			} else {
				moved.Add(trans.LhsNode, id)
				trans.RhsNode = newID
			}
		}
	}

	// Entries keyed by newID would become self-references; they are left
	// for the caller to delete. When none remain, oldID holds nothing
	// anymore and its view can be freed.
	free := !moved.Contains(newID)
	toDelete := append([]int(nil), moved[newID]...)
	moved.Remove(newID)

	if moved.Empty() {
		return toDelete, nil
	}

	query := fmt.Sprintf(`
    UPDATE %s SET
    lhs_node = CASE WHEN lhs_node = ? AND rhs_node != ? THEN ? ELSE lhs_node END,
    rhs_node = CASE WHEN rhs_node = ? AND lhs_node != ? THEN ? ELSE rhs_node END
    WHERE lhs_node = ? OR rhs_node = ?
    `, s.info.TransTable)

	if err := s.db.WithContext(ctx).Exec(query,
		oldID, newID, newID,
		oldID, newID, newID,
		oldID, oldID,
	).Error; err != nil {
		s.logger.Error("failed to replace node",
			zap.Int("old_node_id", oldID),
			zap.Int("new_node_id", newID),
			zap.Error(err))
		return toDelete, err
	}

	s.publish(ctx,
		ledger.NewTransMovedEvent(s.info.Section, oldID, newID, moved.TransIDs()),
		ledger.NewLeafTotalsStaleEvent(s.info.Section, []int{oldID, newID}),
	)

	if s.info.Section == ledger.SectionProduct {
		s.publish(ctx, ledger.NewProductReferenceUpdatedEvent(s.info.Section, oldID, newID))
	}
	if s.info.Section == ledger.SectionStakeholder {
		s.publish(ctx, ledger.NewStakeholderReferenceUpdatedEvent(s.info.Section, oldID, newID))
	}

	if free {
		s.publish(ctx,
			ledger.NewFreeNodeViewEvent(s.info.Section, oldID),
			ledger.NewNodeRemovedEvent(s.info.Section, oldID),
		)
	}

	return toDelete, nil
}

// CascadeNodeRemoval computes, for every cached record touching nodeID on
// exactly one leg, the counterpart account and transaction id, notifies
// observers, then evicts the affected records. Events go out before the
// eviction so observers can still read the records. The returned map lists
// what was affected.
func (s *SectionStore) CascadeNodeRemoval(ctx context.Context, nodeID int) ledger.NodeTransMap {
	affected := ledger.NodeTransMap{}
	for id, trans := range s.trans {
		if trans.LhsNode == nodeID && trans.RhsNode != nodeID {
			affected.Add(trans.RhsNode, id)
		}
		if trans.RhsNode == nodeID && trans.LhsNode != nodeID {
			affected.Add(trans.LhsNode, id)
		}
	}

	s.publish(ctx,
		ledger.NewFreeNodeViewEvent(s.info.Section, nodeID),
		ledger.NewNodeRemovedEvent(s.info.Section, nodeID),
	)

	if s.supportsLeafTotal() {
		for _, counterpart := range affected.Nodes() {
			for _, transID := range affected[counterpart] {
				s.publish(ctx, ledger.NewTransRemovedEvent(s.info.Section, counterpart, transID))
			}
		}
		s.publish(ctx, ledger.NewLeafTotalsStaleEvent(s.info.Section, affected.Nodes()))
	}

	// Eviction must come last so the notifications above could still
	// observe the records.
	for _, transID := range affected.TransIDs() {
		s.evictTrans(transID)
	}

	return affected
}

// UpdateProductReference redirects the embedded product reference carried
// on transaction legs of this section from oldID to newID, on disk and in
// the cache. Sections without an embedded product reference reject the
// call before any I/O.
func (s *SectionStore) UpdateProductReference(ctx context.Context, oldID, newID int) error {
	query := s.productReferenceSQL()
	if query == "" {
		return shared.ErrUnsupported
	}
	if oldID <= 0 || newID <= 0 {
		return shared.ErrInvalidInput
	}

	if err := s.db.WithContext(ctx).Exec(query, newID, oldID).Error; err != nil {
		s.logger.Error("failed to update product reference",
			zap.Int("old_node_id", oldID),
			zap.Int("new_node_id", newID),
			zap.Error(err))
		return err
	}

	for _, trans := range s.trans {
		if trans.LhsNode == oldID {
			trans.LhsNode = newID
		}
	}

	s.publish(ctx, ledger.NewProductReferenceUpdatedEvent(s.info.Section, oldID, newID))
	return nil
}

// The product reference lives on the lhs leg ("inside product") of the
// stakeholder and order sections.
func (s *SectionStore) productReferenceSQL() string {
	switch s.info.Section {
	case ledger.SectionStakeholder, ledger.SectionPurchase, ledger.SectionSales:
		return fmt.Sprintf(`
    UPDATE %s
    SET lhs_node = ?
    WHERE lhs_node = ?
    `, s.info.TransTable)
	default:
		return ""
	}
}

// UpdateStakeholderReference redirects the counterparty reference from
// oldID to newID: the outside reference on transaction rows plus the party
// and employee columns on the owning header rows, atomically. Sections
// without counterparty columns reject the call before any I/O.
func (s *SectionStore) UpdateStakeholderReference(ctx context.Context, oldID, newID int) error {
	switch s.info.Section {
	case ledger.SectionPurchase, ledger.SectionSales:
	default:
		return shared.ErrUnsupported
	}
	if oldID <= 0 || newID <= 0 {
		return shared.ErrInvalidInput
	}

	transQuery := fmt.Sprintf(`
    UPDATE %s
    SET rhs_node = ?
    WHERE rhs_node = ?
    `, s.info.TransTable)

	headerQuery := fmt.Sprintf(`
    UPDATE %s
    SET party    = CASE WHEN party = ? THEN ? ELSE party END,
        employee = CASE WHEN employee = ? THEN ? ELSE employee END
    WHERE party = ? OR employee = ?
    `, s.info.NodeTable)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(transQuery, newID, oldID).Error; err != nil {
			return err
		}
		return tx.Exec(headerQuery, oldID, newID, oldID, newID, oldID, oldID).Error
	})
	if err != nil {
		s.logger.Error("failed to update stakeholder reference",
			zap.Int("old_node_id", oldID),
			zap.Int("new_node_id", newID),
			zap.Error(err))
		return err
	}

	for _, trans := range s.trans {
		if trans.RhsNode == oldID {
			trans.RhsNode = newID
		}
	}

	s.publish(ctx, ledger.NewStakeholderReferenceUpdatedEvent(s.info.Section, oldID, newID))
	return nil
}
