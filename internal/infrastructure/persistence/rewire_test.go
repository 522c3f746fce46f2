package persistence

import (
	"context"
	"testing"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceNode_SelfReplaceIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionFinance, bus)

	mustInsertTrans(t, store, 1, 2)
	bus.events = nil

	toDelete, err := store.ReplaceNode(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, toDelete)
	assert.Empty(t, bus.events)

	_, err = store.ReplaceNode(context.Background(), 0, 1)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestReplaceNode_RedirectsEveryReference(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionFinance, bus)

	a := mustInsertTrans(t, store, 1, 2)
	b := mustInsertTrans(t, store, 3, 1)
	other := mustInsertTrans(t, store, 5, 6)
	bus.events = nil

	toDelete, err := store.ReplaceNode(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Empty(t, toDelete)

	// Cached records are rewritten on the leg that held the old id.
	assert.Equal(t, 9, store.CachedTrans(a).LhsNode)
	assert.Equal(t, 9, store.CachedTrans(b).RhsNode)
	assert.Equal(t, 5, store.CachedTrans(other).LhsNode)

	var count int64
	require.NoError(t, db.Raw(
		"SELECT COUNT(*) FROM finance_transaction WHERE lhs_node = 1 OR rhs_node = 1",
	).Scan(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, db.Raw(
		"SELECT COUNT(*) FROM finance_transaction WHERE lhs_node = 9 OR rhs_node = 9",
	).Scan(&count).Error)
	assert.Equal(t, int64(2), count)

	types := bus.eventTypes()
	assert.Contains(t, types, ledger.EventTypeTransMoved)
	assert.Contains(t, types, ledger.EventTypeLeafTotalsStale)
	// Nothing kept the old account alive, so its view is released.
	assert.Contains(t, types, ledger.EventTypeFreeNodeView)
	assert.Contains(t, types, ledger.EventTypeNodeRemoved)

	for _, e := range bus.events {
		if moved, ok := e.(*ledger.TransMovedEvent); ok {
			assert.Equal(t, 1, moved.OldNodeID)
			assert.Equal(t, 9, moved.NewNodeID)
			assert.ElementsMatch(t, []int{a, b}, moved.TransIDs)
		}
	}
}

func TestReplaceNode_ExcludesSelfReferenceFormingRecords(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionFinance, bus)

	collapsing := mustInsertTrans(t, store, 1, 9)
	moved := mustInsertTrans(t, store, 1, 3)
	bus.events = nil

	toDelete, err := store.ReplaceNode(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Equal(t, []int{collapsing}, toDelete)

	// The collapsing record keeps its legs; the caller deletes it.
	assert.Equal(t, 1, store.CachedTrans(collapsing).LhsNode)
	assert.Equal(t, 9, store.CachedTrans(collapsing).RhsNode)
	assert.Equal(t, 9, store.CachedTrans(moved).LhsNode)

	var row struct {
		LhsNode int
		RhsNode int
	}
	require.NoError(t, db.Raw(
		"SELECT lhs_node, rhs_node FROM finance_transaction WHERE id = ?", collapsing,
	).Scan(&row).Error)
	assert.Equal(t, 1, row.LhsNode)
	assert.Equal(t, 9, row.RhsNode)

	// The old account still holds the excluded record, so its view stays.
	assert.NotContains(t, bus.eventTypes(), ledger.EventTypeFreeNodeView)
}

func TestReplaceNode_OnlySelfReferenceFormingRecordsIsTrivial(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionFinance, bus)

	collapsing := mustInsertTrans(t, store, 1, 9)
	bus.events = nil

	toDelete, err := store.ReplaceNode(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Equal(t, []int{collapsing}, toDelete)
	assert.Empty(t, bus.events)
}

func TestCascadeNodeRemoval_MapsCounterparts(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionFinance, bus)

	a := mustInsertTrans(t, store, 1, 2)
	b := mustInsertTrans(t, store, 3, 1)
	untouched := mustInsertTrans(t, store, 5, 6)
	bus.events = nil

	evicted := map[int]bool{}
	bus.onPublish = func() {
		evicted[a] = store.CachedTrans(a) == nil
		evicted[b] = store.CachedTrans(b) == nil
	}

	affected := store.CascadeNodeRemoval(context.Background(), 1)

	assert.Equal(t, ledger.NodeTransMap{2: {a}, 3: {b}}, affected)

	// Affected records are evicted, unrelated ones survive.
	assert.Nil(t, store.CachedTrans(a))
	assert.Nil(t, store.CachedTrans(b))
	assert.NotNil(t, store.CachedTrans(untouched))

	// Every notification went out while the records were still readable.
	assert.False(t, evicted[a])
	assert.False(t, evicted[b])

	types := bus.eventTypes()
	assert.Equal(t, ledger.EventTypeFreeNodeView, types[0])
	assert.Equal(t, ledger.EventTypeNodeRemoved, types[1])
	assert.Contains(t, types, ledger.EventTypeTransRemoved)
	assert.Contains(t, types, ledger.EventTypeLeafTotalsStale)
}

func TestCascadeNodeRemoval_OrderSectionSkipsTotals(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionPurchase, bus)

	mustInsertTrans(t, store, 1, 2)
	bus.events = nil

	store.CascadeNodeRemoval(context.Background(), 1)

	types := bus.eventTypes()
	assert.Contains(t, types, ledger.EventTypeFreeNodeView)
	assert.NotContains(t, types, ledger.EventTypeLeafTotalsStale)
	assert.NotContains(t, types, ledger.EventTypeTransRemoved)
}

func TestUpdateProductReference(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionPurchase, bus)

	id := mustInsertTrans(t, store, 7, 20)
	bus.events = nil

	require.NoError(t, store.UpdateProductReference(context.Background(), 7, 8))

	assert.Equal(t, 8, store.CachedTrans(id).LhsNode)

	var lhs int
	require.NoError(t, db.Raw("SELECT lhs_node FROM purchase_transaction WHERE id = ?", id).Scan(&lhs).Error)
	assert.Equal(t, 8, lhs)

	require.Len(t, bus.events, 1)
	assert.Equal(t, ledger.EventTypeProductReferenceUpdated, bus.events[0].EventType())

	finance := setupStore(t, db, ledger.SectionFinance, nil)
	assert.ErrorIs(t, finance.UpdateProductReference(context.Background(), 7, 8), shared.ErrUnsupported)
	assert.ErrorIs(t, store.UpdateProductReference(context.Background(), 0, 8), shared.ErrInvalidInput)
}

func TestUpdateStakeholderReference(t *testing.T) {
	db := setupTestDB(t)
	bus := &captureBus{}
	store := setupStore(t, db, ledger.SectionPurchase, bus)

	id := mustInsertTrans(t, store, 20, 7)
	require.NoError(t, db.Exec("INSERT INTO purchase (name, party, employee) VALUES ('order', 7, 3)").Error)
	bus.events = nil

	require.NoError(t, store.UpdateStakeholderReference(context.Background(), 7, 9))

	assert.Equal(t, 9, store.CachedTrans(id).RhsNode)

	var rhs int
	require.NoError(t, db.Raw("SELECT rhs_node FROM purchase_transaction WHERE id = ?", id).Scan(&rhs).Error)
	assert.Equal(t, 9, rhs)

	var header struct {
		Party    int
		Employee int
	}
	require.NoError(t, db.Raw("SELECT party, employee FROM purchase WHERE name = 'order'").Scan(&header).Error)
	assert.Equal(t, 9, header.Party)
	assert.Equal(t, 3, header.Employee)

	require.Len(t, bus.events, 1)
	assert.Equal(t, ledger.EventTypeStakeholderReferenceUpdated, bus.events[0].EventType())

	finance := setupStore(t, db, ledger.SectionFinance, nil)
	assert.ErrorIs(t, finance.UpdateStakeholderReference(context.Background(), 7, 9), shared.ErrUnsupported)
}

func TestReplaceNode_OrderSectionsAreRejected(t *testing.T) {
	db := setupTestDB(t)

	for _, section := range []ledger.Section{ledger.SectionPurchase, ledger.SectionSales} {
		store := setupStore(t, db, section, nil)
		_, err := store.ReplaceNode(context.Background(), 1, 2)
		assert.ErrorIs(t, err, shared.ErrUnsupported, section)
	}
}
