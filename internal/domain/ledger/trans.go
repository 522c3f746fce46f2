package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trans is a binary double-entry record. The two legs are symmetric; which
// one a caller sees as "primary" is a property of the TransShadow wrapped
// around the record, never of the record itself.
type Trans struct {
	ID int

	DateTime    time.Time
	Code        string
	Description string
	Document    []string
	State       bool

	// NodeID is the owning order header for the purchase and sales
	// sections; zero for the plain ledger sections.
	NodeID int

	LhsNode   int
	LhsRatio  decimal.Decimal
	LhsDebit  decimal.Decimal
	LhsCredit decimal.Decimal

	RhsNode   int
	RhsRatio  decimal.Decimal
	RhsDebit  decimal.Decimal
	RhsCredit decimal.Decimal
}

// Reset restores the record to its default-valued state for pool reuse.
func (t *Trans) Reset() {
	*t = Trans{}
}

// Pending reports whether the record still lacks a counterpart account.
// Pending records are pruned by callers instead of being persisted.
func (t *Trans) Pending() bool {
	return t.RhsNode == 0
}

// TransHash indexes cached transactions by id.
type TransHash map[int]*Trans
