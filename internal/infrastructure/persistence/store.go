package persistence

import (
	"fmt"
	"strings"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/domain/shared"
	"github.com/abacus/ledger/internal/infrastructure/pool"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// documentSeparator joins attachment references into the single document
// column; the store splits on it when reading.
const documentSeparator = ";"

// SectionStore owns one section's hierarchy and transaction tables plus the
// in-memory transaction index for that section. The index is a cache over
// the persisted rows, never a second source of truth: an id present in the
// index always matches its row, and index-dependent operations fail instead
// of silently re-reading when an id is missing.
//
// The store assumes a single logical writer and performs no internal
// locking; see the concurrency notes in the repository documentation.
type SectionStore struct {
	db     *gorm.DB
	logger *zap.Logger
	info   ledger.SectionInfo
	pools  *pool.Pools
	bus    shared.EventPublisher

	trans ledger.TransHash
}

// NewSectionStore creates the store for one section
func NewSectionStore(db *gorm.DB, logger *zap.Logger, section ledger.Section, pools *pool.Pools, bus shared.EventPublisher) *SectionStore {
	return &SectionStore{
		db:     db,
		logger: logger.Named(section.String()),
		info:   ledger.InfoFor(section),
		pools:  pools,
		bus:    bus,
		trans:  make(ledger.TransHash),
	}
}

// Section returns the section this store serves.
func (s *SectionStore) Section() ledger.Section {
	return s.info.Section
}

// CachedTrans returns the cached transaction for id, or nil.
func (s *SectionStore) CachedTrans(id int) *ledger.Trans {
	return s.trans[id]
}

// evictTrans removes id from the index and recycles the record. After this
// the id no longer resolves and any shadow bound to the record is invalid.
func (s *SectionStore) evictTrans(id int) {
	t, ok := s.trans[id]
	if !ok {
		return
	}
	delete(s.trans, id)
	s.pools.Trans.Recycle(t)
}

func joinDocument(document []string) string {
	return strings.Join(document, documentSeparator)
}

func splitDocument(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, documentSeparator)
	document := parts[:0]
	for _, part := range parts {
		if part != "" {
			document = append(document, part)
		}
	}
	if len(document) == 0 {
		return nil
	}
	return document
}

// placeholders returns n comma-joined "?" markers for an IN clause.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// lastInsertID reads the rowid generated by the previous INSERT on tx.
// Valid because every store shares one connection.
func lastInsertID(tx *gorm.DB) (int, error) {
	var id int
	if err := tx.Raw("SELECT last_insert_rowid()").Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("read generated id: %w", err)
	}
	return id, nil
}
