package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransShadow_OppositeSidesAgree(t *testing.T) {
	trans := &Trans{
		ID:        3,
		LhsNode:   1,
		LhsRatio:  decimal.NewFromInt(1),
		LhsDebit:  decimal.NewFromInt(100),
		RhsNode:   2,
		RhsRatio:  decimal.NewFromInt(1),
		RhsCredit: decimal.NewFromInt(100),
	}

	left := NewTransShadow(trans, true)
	right := NewTransShadow(trans, false)

	assert.Equal(t, 1, left.Node())
	assert.Equal(t, 2, left.RelatedNode())
	assert.Equal(t, 2, right.Node())
	assert.Equal(t, 1, right.RelatedNode())

	assert.True(t, left.Debit().Equal(decimal.NewFromInt(100)))
	assert.True(t, left.RelatedCredit().Equal(decimal.NewFromInt(100)))
	assert.True(t, right.Credit().Equal(decimal.NewFromInt(100)))
	assert.True(t, right.RelatedDebit().Equal(decimal.NewFromInt(100)))
}

func TestTransShadow_WritesReachTheRecord(t *testing.T) {
	trans := &Trans{LhsNode: 1, RhsNode: 2}

	left := NewTransShadow(trans, true)
	right := NewTransShadow(trans, false)

	left.SetDebit(decimal.NewFromInt(250))
	assert.True(t, trans.LhsDebit.Equal(decimal.NewFromInt(250)))
	assert.True(t, right.RelatedDebit().Equal(decimal.NewFromInt(250)))

	right.SetRatio(decimal.NewFromFloat(1.5))
	assert.True(t, trans.RhsRatio.Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, left.RelatedRatio().Equal(decimal.NewFromFloat(1.5)))

	right.SetRelatedNode(9)
	assert.Equal(t, 9, trans.LhsNode)
	assert.Equal(t, 9, left.Node())
}

func TestTransShadow_SharedFields(t *testing.T) {
	trans := &Trans{}
	shadow := NewTransShadow(trans, false)

	when := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	shadow.SetID(12)
	shadow.SetDateTime(when)
	shadow.SetCode("PO-7")
	shadow.SetDescription("office chairs")
	shadow.SetDocument([]string{"a.pdf", "b.pdf"})
	shadow.SetState(true)
	shadow.SetNodeID(4)

	assert.Equal(t, 12, trans.ID)
	assert.Equal(t, when, trans.DateTime)
	assert.Equal(t, "PO-7", trans.Code)
	assert.Equal(t, "office chairs", trans.Description)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, trans.Document)
	assert.True(t, trans.State)
	assert.Equal(t, 4, trans.NodeID)
}

func TestTransShadow_RebindFlipsPerspective(t *testing.T) {
	trans := &Trans{LhsNode: 1, RhsNode: 2}
	shadow := NewTransShadow(trans, true)

	require.Equal(t, 1, shadow.Node())

	shadow.Rebind(false)
	assert.Equal(t, 2, shadow.Node())
	assert.Equal(t, 1, shadow.RelatedNode())
}

func TestTransShadow_BindRepoints(t *testing.T) {
	first := &Trans{ID: 1, LhsNode: 1, RhsNode: 2}
	second := &Trans{ID: 2, LhsNode: 5, RhsNode: 6}

	shadow := NewTransShadow(first, true)
	shadow.Bind(second, false)

	assert.Same(t, second, shadow.Trans())
	assert.Equal(t, 6, shadow.Node())
	assert.Equal(t, 2, shadow.ID())
}

func TestTrans_Pending(t *testing.T) {
	assert.True(t, (&Trans{LhsNode: 1}).Pending())
	assert.False(t, (&Trans{LhsNode: 1, RhsNode: 2}).Pending())
}
