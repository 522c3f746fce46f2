package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const transColumns = `id, date_time, code, description, document, state, node_id,
        lhs_node, lhs_ratio, lhs_debit, lhs_credit,
        rhs_node, rhs_ratio, rhs_debit, rhs_credit`

// CheckMode selects how UpdateCheckState writes a toggle column.
type CheckMode int

const (
	// CheckSet writes the supplied value to every row.
	CheckSet CheckMode = iota
	// CheckReverse flips the boolean column on every row instead of
	// writing an explicit value.
	CheckReverse
)

// ReadTransactionsForNode returns a shadow for every non-removed
// transaction touching nodeID on either leg. Rows already present in the
// index are reused as-is; new rows are materialized and cached. Each shadow
// is bound with the queried node as the primary leg.
func (s *SectionStore) ReadTransactionsForNode(ctx context.Context, nodeID int) ([]*ledger.TransShadow, error) {
	if nodeID <= 0 {
		return nil, shared.ErrInvalidInput
	}

	query := fmt.Sprintf(`
    SELECT %s
    FROM %s
    WHERE (lhs_node = ? OR rhs_node = ?) AND removed = 0
    `, transColumns, s.info.TransTable)

	rows, err := s.db.WithContext(ctx).Raw(query, nodeID, nodeID).Rows()
	if err != nil {
		s.logger.Error("failed to read transactions", zap.Int("node_id", nodeID), zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return s.collectShadows(rows, nodeID)
}

// ReadTransactionsForNodeBatch is ReadTransactionsForNode restricted to a
// caller-supplied id set. The set is chunked to stay within parameter
// limits; a failing chunk is logged and skipped so the remaining chunks
// still contribute. Best-effort semantics are deliberate and limited to
// this read path.
func (s *SectionStore) ReadTransactionsForNodeBatch(ctx context.Context, nodeID int, transIDs []int) ([]*ledger.TransShadow, error) {
	if nodeID <= 0 {
		return nil, shared.ErrInvalidInput
	}
	if len(transIDs) == 0 {
		return nil, nil
	}

	var shadows []*ledger.TransShadow

	for index, chunk := range chunkIDs(transIDs, batchSize) {
		query := fmt.Sprintf(`
    SELECT %s
    FROM %s
    WHERE removed = 0 AND id IN (%s)
    `, transColumns, s.info.TransTable, placeholders(len(chunk)))

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
		if err != nil {
			s.logger.Error("failed to read transaction batch",
				zap.Int("node_id", nodeID),
				zap.Int("batch", index),
				zap.Error(err))
			continue
		}

		batch, err := s.collectShadows(rows, nodeID)
		_ = rows.Close()
		if err != nil {
			s.logger.Error("failed to scan transaction batch",
				zap.Int("node_id", nodeID),
				zap.Int("batch", index),
				zap.Error(err))
			continue
		}

		shadows = append(shadows, batch...)
	}

	return shadows, nil
}

// collectShadows materializes rows into cached transactions and wraps each
// in a shadow bound from nodeID's perspective.
func (s *SectionStore) collectShadows(rows *sql.Rows, nodeID int) ([]*ledger.TransShadow, error) {
	var shadows []*ledger.TransShadow

	for rows.Next() {
		var id int
		scratch := s.pools.Trans.Allocate()

		if err := scanTrans(rows, &id, scratch); err != nil {
			s.pools.Trans.Recycle(scratch)
			return shadows, err
		}

		trans, cached := s.trans[id]
		if cached {
			// The index wins over a re-read; the scratch row goes back.
			s.pools.Trans.Recycle(scratch)
		} else {
			trans = scratch
			trans.ID = id
			s.trans[id] = trans
		}

		shadow := s.pools.Shadow.Allocate()
		shadow.Bind(trans, nodeID == trans.LhsNode)
		shadows = append(shadows, shadow)
	}

	return shadows, rows.Err()
}

func scanTrans(rows *sql.Rows, id *int, t *ledger.Trans) error {
	var document string

	if err := rows.Scan(
		id, &t.DateTime, &t.Code, &t.Description, &document, &t.State, &t.NodeID,
		&t.LhsNode, &t.LhsRatio, &t.LhsDebit, &t.LhsCredit,
		&t.RhsNode, &t.RhsRatio, &t.RhsDebit, &t.RhsCredit,
	); err != nil {
		return err
	}

	t.Document = splitDocument(document)
	return nil
}

// InsertTrans writes a new row from the shadow's current field values, with
// the primary leg persisted as lhs. The generated id is assigned through
// the shadow into the underlying record, which is then indexed. A record
// still lacking its counterpart account is pruned, not persisted.
func (s *SectionStore) InsertTrans(ctx context.Context, shadow *ledger.TransShadow) error {
	if shadow == nil || shadow.Trans() == nil {
		return shared.ErrInvalidInput
	}
	if shadow.RelatedNode() == 0 {
		return shared.ErrInvalidState
	}

	query := fmt.Sprintf(`
    INSERT INTO %s (date_time, code, description, document, state, node_id,
                    lhs_node, lhs_ratio, lhs_debit, lhs_credit,
                    rhs_node, rhs_ratio, rhs_debit, rhs_credit)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, s.info.TransTable)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(query,
			shadow.DateTime(), shadow.Code(), shadow.Description(),
			joinDocument(shadow.Document()), shadow.State(), shadow.NodeID(),
			shadow.Node(), shadow.Ratio(), shadow.Debit(), shadow.Credit(),
			shadow.RelatedNode(), shadow.RelatedRatio(), shadow.RelatedDebit(), shadow.RelatedCredit(),
		).Error; err != nil {
			return err
		}

		id, err := lastInsertID(tx)
		if err != nil {
			return err
		}
		shadow.SetID(id)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to insert transaction", zap.Error(err))
		return err
	}

	// The persisted row stores the primary leg as lhs, so the cached
	// record must match before it is indexed.
	trans := shadow.Trans()
	if !shadow.Left() {
		swapLegs(trans)
		shadow.Rebind(true)
	}
	s.trans[trans.ID] = trans

	s.publish(ctx, ledger.NewTransAppendedEvent(s.info.Section, trans.ID, shadow.Node(), shadow.RelatedNode()))
	return nil
}

func swapLegs(t *ledger.Trans) {
	t.LhsNode, t.RhsNode = t.RhsNode, t.LhsNode
	t.LhsRatio, t.RhsRatio = t.RhsRatio, t.LhsRatio
	t.LhsDebit, t.RhsDebit = t.RhsDebit, t.LhsDebit
	t.LhsCredit, t.RhsCredit = t.RhsCredit, t.LhsCredit
}

// UpdateTrans re-writes both legs from the cached record. Operating on an
// id absent from the index is a caller error; the store does not silently
// re-read from storage.
func (s *SectionStore) UpdateTrans(ctx context.Context, transID int) error {
	trans, ok := s.trans[transID]
	if !ok {
		return shared.ErrNotCached
	}

	query := fmt.Sprintf(`
    UPDATE %s SET
    lhs_node = ?, lhs_ratio = ?, lhs_debit = ?, lhs_credit = ?,
    rhs_node = ?, rhs_ratio = ?, rhs_debit = ?, rhs_credit = ?
    WHERE id = ?
    `, s.info.TransTable)

	if err := s.db.WithContext(ctx).Exec(query,
		trans.LhsNode, trans.LhsRatio, trans.LhsDebit, trans.LhsCredit,
		trans.RhsNode, trans.RhsRatio, trans.RhsDebit, trans.RhsCredit,
		transID,
	).Error; err != nil {
		s.logger.Error("failed to update transaction", zap.Int("trans_id", transID), zap.Error(err))
		return err
	}

	// Changed amounts invalidate the running balances on both accounts.
	s.publish(ctx,
		ledger.NewBalanceRecalculationRequiredEvent(s.info.Section, trans.LhsNode, transID),
		ledger.NewBalanceRecalculationRequiredEvent(s.info.Section, trans.RhsNode, transID),
	)

	return nil
}

// RemoveTrans tombstones the row, notifies both accounts, then evicts and
// recycles the cached record. After eviction the id no longer resolves.
func (s *SectionStore) RemoveTrans(ctx context.Context, transID int) error {
	query := fmt.Sprintf(`
    UPDATE %s
    SET removed = 1
    WHERE id = ?
    `, s.info.TransTable)

	if err := s.db.WithContext(ctx).Exec(query, transID).Error; err != nil {
		s.logger.Error("failed to remove transaction", zap.Int("trans_id", transID), zap.Error(err))
		return err
	}

	if trans, ok := s.trans[transID]; ok {
		// Observers may need one last read, so events go out before
		// the eviction.
		s.publish(ctx,
			ledger.NewTransRemovedEvent(s.info.Section, trans.LhsNode, transID),
			ledger.NewTransRemovedEvent(s.info.Section, trans.RhsNode, transID),
		)
		s.evictTrans(transID)
	}

	return nil
}

// UpdateField writes one column of one row in an arbitrary section table.
func (s *SectionStore) UpdateField(ctx context.Context, table, field string, value any, id int) error {
	if table == "" || field == "" {
		return shared.ErrInvalidInput
	}

	query := fmt.Sprintf(`
    UPDATE %s
    SET %s = ?
    WHERE id = ?
    `, table, field)

	if err := s.db.WithContext(ctx).Exec(query, value, id).Error; err != nil {
		s.logger.Error("failed to update field",
			zap.String("table", table),
			zap.String("field", field),
			zap.Int("id", id),
			zap.Error(err))
		return err
	}

	return nil
}

// UpdateCheckState bulk-writes a toggle column on every transaction row.
// CheckReverse flips the column instead of writing the supplied value.
func (s *SectionStore) UpdateCheckState(ctx context.Context, column string, value any, mode CheckMode) error {
	if column == "" {
		return shared.ErrInvalidInput
	}

	var err error
	if mode == CheckReverse {
		query := fmt.Sprintf("UPDATE %s SET %s = NOT %s", s.info.TransTable, column, column)
		err = s.db.WithContext(ctx).Exec(query).Error
	} else {
		query := fmt.Sprintf("UPDATE %s SET %s = ?", s.info.TransTable, column)
		err = s.db.WithContext(ctx).Exec(query, value).Error
	}
	if err != nil {
		s.logger.Error("failed to update check state", zap.String("column", column), zap.Error(err))
		return err
	}

	return nil
}

// AllocateTransShadow hands out a pooled shadow over a fresh pooled record,
// bound left. Used by callers assembling a new entry before InsertTrans.
func (s *SectionStore) AllocateTransShadow() *ledger.TransShadow {
	trans := s.pools.Trans.Allocate()
	shadow := s.pools.Shadow.Allocate()
	shadow.Bind(trans, true)
	return shadow
}

// RecycleShadows returns shadows to the pool without touching the
// underlying records.
func (s *SectionStore) RecycleShadows(shadows []*ledger.TransShadow) {
	for _, shadow := range shadows {
		s.pools.Shadow.Recycle(shadow)
	}
}

func (s *SectionStore) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish events", zap.Error(err))
	}
}
