package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransShadow is a perspective-bound projection over one Trans. It owns no
// data: every accessor reads or writes the underlying record, so two shadows
// bound to the same Trans from opposite sides always agree. The shadow must
// not outlive its Trans; recycling the Trans invalidates the shadow.
type TransShadow struct {
	trans *Trans
	left  bool
}

// NewTransShadow binds a shadow to trans. With left true the lhs leg is
// primary and the rhs leg is related; with left false the roles swap.
func NewTransShadow(trans *Trans, left bool) *TransShadow {
	return &TransShadow{trans: trans, left: left}
}

// Bind re-points the shadow at trans from the given side. Rebinding is a
// cheap re-point, not a reallocation.
func (s *TransShadow) Bind(trans *Trans, left bool) {
	s.trans = trans
	s.left = left
}

// Rebind flips or sets the perspective on the current record.
func (s *TransShadow) Rebind(left bool) {
	s.left = left
}

// Trans exposes the underlying record.
func (s *TransShadow) Trans() *Trans { return s.trans }

// Left reports which leg is primary.
func (s *TransShadow) Left() bool { return s.left }

// Reset detaches the shadow for pool reuse.
func (s *TransShadow) Reset() {
	s.trans = nil
	s.left = true
}

// Shared fields, bound directly.

func (s *TransShadow) ID() int                 { return s.trans.ID }
func (s *TransShadow) SetID(id int)            { s.trans.ID = id }
func (s *TransShadow) State() bool             { return s.trans.State }
func (s *TransShadow) SetState(v bool)         { s.trans.State = v }
func (s *TransShadow) DateTime() time.Time     { return s.trans.DateTime }
func (s *TransShadow) SetDateTime(v time.Time) { s.trans.DateTime = v }
func (s *TransShadow) Code() string            { return s.trans.Code }
func (s *TransShadow) SetCode(v string)        { s.trans.Code = v }
func (s *TransShadow) Description() string     { return s.trans.Description }
func (s *TransShadow) SetDescription(v string) { s.trans.Description = v }
func (s *TransShadow) Document() []string      { return s.trans.Document }
func (s *TransShadow) SetDocument(v []string)  { s.trans.Document = v }
func (s *TransShadow) NodeID() int             { return s.trans.NodeID }
func (s *TransShadow) SetNodeID(v int)         { s.trans.NodeID = v }

// Primary leg.

func (s *TransShadow) Node() int {
	if s.left {
		return s.trans.LhsNode
	}
	return s.trans.RhsNode
}

func (s *TransShadow) SetNode(v int) {
	if s.left {
		s.trans.LhsNode = v
	} else {
		s.trans.RhsNode = v
	}
}

func (s *TransShadow) Ratio() decimal.Decimal {
	if s.left {
		return s.trans.LhsRatio
	}
	return s.trans.RhsRatio
}

func (s *TransShadow) SetRatio(v decimal.Decimal) {
	if s.left {
		s.trans.LhsRatio = v
	} else {
		s.trans.RhsRatio = v
	}
}

func (s *TransShadow) Debit() decimal.Decimal {
	if s.left {
		return s.trans.LhsDebit
	}
	return s.trans.RhsDebit
}

func (s *TransShadow) SetDebit(v decimal.Decimal) {
	if s.left {
		s.trans.LhsDebit = v
	} else {
		s.trans.RhsDebit = v
	}
}

func (s *TransShadow) Credit() decimal.Decimal {
	if s.left {
		return s.trans.LhsCredit
	}
	return s.trans.RhsCredit
}

func (s *TransShadow) SetCredit(v decimal.Decimal) {
	if s.left {
		s.trans.LhsCredit = v
	} else {
		s.trans.RhsCredit = v
	}
}

// Related leg.

func (s *TransShadow) RelatedNode() int {
	if s.left {
		return s.trans.RhsNode
	}
	return s.trans.LhsNode
}

func (s *TransShadow) SetRelatedNode(v int) {
	if s.left {
		s.trans.RhsNode = v
	} else {
		s.trans.LhsNode = v
	}
}

func (s *TransShadow) RelatedRatio() decimal.Decimal {
	if s.left {
		return s.trans.RhsRatio
	}
	return s.trans.LhsRatio
}

func (s *TransShadow) SetRelatedRatio(v decimal.Decimal) {
	if s.left {
		s.trans.RhsRatio = v
	} else {
		s.trans.LhsRatio = v
	}
}

func (s *TransShadow) RelatedDebit() decimal.Decimal {
	if s.left {
		return s.trans.RhsDebit
	}
	return s.trans.LhsDebit
}

func (s *TransShadow) SetRelatedDebit(v decimal.Decimal) {
	if s.left {
		s.trans.RhsDebit = v
	} else {
		s.trans.LhsDebit = v
	}
}

func (s *TransShadow) RelatedCredit() decimal.Decimal {
	if s.left {
		return s.trans.RhsCredit
	}
	return s.trans.LhsCredit
}

func (s *TransShadow) SetRelatedCredit(v decimal.Decimal) {
	if s.left {
		s.trans.RhsCredit = v
	} else {
		s.trans.LhsCredit = v
	}
}
