package event

import (
	"sync"

	"github.com/abacus/ledger/internal/domain/ledger"
	"go.uber.org/zap"
)

type viewerKey struct {
	section ledger.Section
	nodeID  int
}

// Station routes cross-account notifications to the viewer registered for a
// (section, node) pair. When a transaction is appended under one account,
// the counterpart account's view learns about it here without either side
// knowing about the other. Delivery is synchronous on the calling
// goroutine; a missing viewer is not an error, the notification is simply
// dropped.
type Station struct {
	mu      sync.RWMutex
	viewers map[viewerKey]ledger.TransViewer
	logger  *zap.Logger
}

// NewStation creates a new viewer station
func NewStation(logger *zap.Logger) *Station {
	return &Station{
		viewers: make(map[viewerKey]ledger.TransViewer),
		logger:  logger,
	}
}

// RegisterViewer binds the viewer for one account within a section,
// replacing any previous registration.
func (s *Station) RegisterViewer(section ledger.Section, nodeID int, viewer ledger.TransViewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers[viewerKey{section, nodeID}] = viewer
}

// DeregisterViewer removes the viewer for one account.
func (s *Station) DeregisterViewer(section ledger.Section, nodeID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, viewerKey{section, nodeID})
}

func (s *Station) find(section ledger.Section, nodeID int) ledger.TransViewer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewers[viewerKey{section, nodeID}]
}

// AppendTrans delivers a freshly written transaction to the counterpart
// account's view. The shadow passed on is bound to the counterpart side.
func (s *Station) AppendTrans(section ledger.Section, shadow *ledger.TransShadow) {
	if shadow == nil || shadow.Trans() == nil {
		return
	}

	viewer := s.find(section, shadow.RelatedNode())
	if viewer == nil {
		return
	}

	related := ledger.NewTransShadow(shadow.Trans(), !shadow.Left())
	viewer.AppendTrans(related)
}

// RemoveTrans tells one account's view to drop a transaction.
func (s *Station) RemoveTrans(section ledger.Section, nodeID, transID int) {
	viewer := s.find(section, nodeID)
	if viewer == nil {
		return
	}
	viewer.RemoveTrans(nodeID, transID)
}

// UpdateBalance tells one account's view to recompute its running balance
// from transID onward.
func (s *Station) UpdateBalance(section ledger.Section, nodeID, transID int) {
	viewer := s.find(section, nodeID)
	if viewer == nil {
		return
	}
	viewer.UpdateBalance(nodeID, transID)
}

// SetRule propagates a changed sign convention to one account's view.
func (s *Station) SetRule(section ledger.Section, nodeID int, rule bool) {
	viewer := s.find(section, nodeID)
	if viewer == nil {
		return
	}
	viewer.SetRule(nodeID, rule)
}
