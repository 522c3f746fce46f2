package ledger

import (
	"github.com/abacus/ledger/internal/domain/shared"
)

// Event type names. Constants are deliberate: subscribers key off them.
const (
	EventTypeNodeRemoved                  = "NodeRemoved"
	EventTypeFreeNodeView                 = "FreeNodeView"
	EventTypeTransMoved                   = "TransMoved"
	EventTypeLeafTotalsStale              = "LeafTotalsStale"
	EventTypeProductReferenceUpdated      = "ProductReferenceUpdated"
	EventTypeStakeholderReferenceUpdated  = "StakeholderReferenceUpdated"
	EventTypeTransAppended                = "TransAppended"
	EventTypeTransRemoved                 = "TransRemoved"
	EventTypeBalanceRecalculationRequired = "BalanceRecalculationRequired"
)

// NodeRemovedEvent is raised after a node has been tombstoned.
type NodeRemovedEvent struct {
	shared.BaseDomainEvent
	Section Section `json:"section"`
	NodeID  int     `json:"node_id"`
}

func (e *NodeRemovedEvent) EventType() string { return EventTypeNodeRemoved }

// NewNodeRemovedEvent creates a new NodeRemovedEvent
func NewNodeRemovedEvent(section Section, nodeID int) *NodeRemovedEvent {
	return &NodeRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeNodeRemoved, "Node", nodeID),
		Section:         section,
		NodeID:          nodeID,
	}
}

// FreeNodeViewEvent tells observers to release any view bound to the node.
type FreeNodeViewEvent struct {
	shared.BaseDomainEvent
	Section Section `json:"section"`
	NodeID  int     `json:"node_id"`
}

func (e *FreeNodeViewEvent) EventType() string { return EventTypeFreeNodeView }

// NewFreeNodeViewEvent creates a new FreeNodeViewEvent
func NewFreeNodeViewEvent(section Section, nodeID int) *FreeNodeViewEvent {
	return &FreeNodeViewEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFreeNodeView, "Node", nodeID),
		Section:         section,
		NodeID:          nodeID,
	}
}

// TransMovedEvent is raised when transactions are redirected from one
// account to another during a node merge. It enumerates every moved
// transaction so observers can update without re-scanning the store.
type TransMovedEvent struct {
	shared.BaseDomainEvent
	Section   Section `json:"section"`
	OldNodeID int     `json:"old_node_id"`
	NewNodeID int     `json:"new_node_id"`
	TransIDs  []int   `json:"trans_ids"`
}

func (e *TransMovedEvent) EventType() string { return EventTypeTransMoved }

// NewTransMovedEvent creates a new TransMovedEvent
func NewTransMovedEvent(section Section, oldNodeID, newNodeID int, transIDs []int) *TransMovedEvent {
	return &TransMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransMoved, "Node", oldNodeID),
		Section:         section,
		OldNodeID:       oldNodeID,
		NewNodeID:       newNodeID,
		TransIDs:        transIDs,
	}
}

// LeafTotalsStaleEvent asks observers to recompute leaf totals for a set of
// accounts whose transactions changed underneath them.
type LeafTotalsStaleEvent struct {
	shared.BaseDomainEvent
	Section Section `json:"section"`
	NodeIDs []int   `json:"node_ids"`
}

func (e *LeafTotalsStaleEvent) EventType() string { return EventTypeLeafTotalsStale }

// NewLeafTotalsStaleEvent creates a new LeafTotalsStaleEvent
func NewLeafTotalsStaleEvent(section Section, nodeIDs []int) *LeafTotalsStaleEvent {
	return &LeafTotalsStaleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeafTotalsStale, "Node", 0),
		Section:         section,
		NodeIDs:         nodeIDs,
	}
}

// ProductReferenceUpdatedEvent is raised after every embedded product
// reference has been redirected from one node id to another.
type ProductReferenceUpdatedEvent struct {
	shared.BaseDomainEvent
	Section   Section `json:"section"`
	OldNodeID int     `json:"old_node_id"`
	NewNodeID int     `json:"new_node_id"`
}

func (e *ProductReferenceUpdatedEvent) EventType() string { return EventTypeProductReferenceUpdated }

// NewProductReferenceUpdatedEvent creates a new ProductReferenceUpdatedEvent
func NewProductReferenceUpdatedEvent(section Section, oldNodeID, newNodeID int) *ProductReferenceUpdatedEvent {
	return &ProductReferenceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductReferenceUpdated, "Node", oldNodeID),
		Section:         section,
		OldNodeID:       oldNodeID,
		NewNodeID:       newNodeID,
	}
}

// StakeholderReferenceUpdatedEvent is raised after every counterparty
// reference, on transaction rows and on owning header rows, has been
// redirected from one node id to another.
type StakeholderReferenceUpdatedEvent struct {
	shared.BaseDomainEvent
	Section   Section `json:"section"`
	OldNodeID int     `json:"old_node_id"`
	NewNodeID int     `json:"new_node_id"`
}

func (e *StakeholderReferenceUpdatedEvent) EventType() string {
	return EventTypeStakeholderReferenceUpdated
}

// NewStakeholderReferenceUpdatedEvent creates a new StakeholderReferenceUpdatedEvent
func NewStakeholderReferenceUpdatedEvent(section Section, oldNodeID, newNodeID int) *StakeholderReferenceUpdatedEvent {
	return &StakeholderReferenceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStakeholderReferenceUpdated, "Node", oldNodeID),
		Section:         section,
		OldNodeID:       oldNodeID,
		NewNodeID:       newNodeID,
	}
}

// TransRemovedEvent is raised for each cached transaction evicted because
// one of its accounts went away. It is published before the eviction so
// observers can read the record one last time.
type TransRemovedEvent struct {
	shared.BaseDomainEvent
	Section Section `json:"section"`
	NodeID  int     `json:"node_id"`
	TransID int     `json:"trans_id"`
}

func (e *TransRemovedEvent) EventType() string { return EventTypeTransRemoved }

// NewTransRemovedEvent creates a new TransRemovedEvent
func NewTransRemovedEvent(section Section, nodeID, transID int) *TransRemovedEvent {
	return &TransRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransRemoved, "Trans", transID),
		Section:         section,
		NodeID:          nodeID,
		TransID:         transID,
	}
}

// TransAppendedEvent is raised after a transaction row has been written.
type TransAppendedEvent struct {
	shared.BaseDomainEvent
	Section       Section `json:"section"`
	TransID       int     `json:"trans_id"`
	NodeID        int     `json:"node_id"`
	RelatedNodeID int     `json:"related_node_id"`
}

func (e *TransAppendedEvent) EventType() string { return EventTypeTransAppended }

// NewTransAppendedEvent creates a new TransAppendedEvent
func NewTransAppendedEvent(section Section, transID, nodeID, relatedNodeID int) *TransAppendedEvent {
	return &TransAppendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransAppended, "Trans", transID),
		Section:         section,
		TransID:         transID,
		NodeID:          nodeID,
		RelatedNodeID:   relatedNodeID,
	}
}

// BalanceRecalculationRequiredEvent asks the view for a specific account to
// rebuild its running balance starting at a transaction.
type BalanceRecalculationRequiredEvent struct {
	shared.BaseDomainEvent
	Section Section `json:"section"`
	NodeID  int     `json:"node_id"`
	TransID int     `json:"trans_id"`
}

func (e *BalanceRecalculationRequiredEvent) EventType() string {
	return EventTypeBalanceRecalculationRequired
}

// NewBalanceRecalculationRequiredEvent creates a new BalanceRecalculationRequiredEvent
func NewBalanceRecalculationRequiredEvent(section Section, nodeID, transID int) *BalanceRecalculationRequiredEvent {
	return &BalanceRecalculationRequiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBalanceRecalculationRequired, "Trans", transID),
		Section:         section,
		NodeID:          nodeID,
		TransID:         transID,
	}
}
