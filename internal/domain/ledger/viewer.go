package ledger

// TransViewer is a presentation-side view over one account's transactions.
// The core never depends on a concrete viewer; the event station resolves
// the viewer registered for a (section, node) pair and delivers to it
// synchronously, preserving call ordering.
type TransViewer interface {
	// AppendTrans shows a newly appended transaction from this account's
	// perspective.
	AppendTrans(shadow *TransShadow)
	// RemoveTrans drops a transaction from the view.
	RemoveTrans(nodeID, transID int)
	// UpdateBalance recomputes the running balance from transID onward.
	UpdateBalance(nodeID, transID int)
	// SetRule propagates a changed sign convention for the account.
	SetRule(nodeID int, rule bool)
}
