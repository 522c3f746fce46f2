package ledger

// Section identifies one ledger book. Every section owns its own node,
// closure-path and transaction tables but shares the node/closure contract.
type Section int

const (
	SectionFinance Section = iota
	SectionProduct
	SectionTask
	SectionStakeholder
	SectionPurchase
	SectionSales
)

func (s Section) String() string {
	switch s {
	case SectionFinance:
		return "finance"
	case SectionProduct:
		return "product"
	case SectionTask:
		return "task"
	case SectionStakeholder:
		return "stakeholder"
	case SectionPurchase:
		return "purchase"
	case SectionSales:
		return "sales"
	default:
		return "unknown"
	}
}

// Sections lists every section in a stable order.
func Sections() []Section {
	return []Section{SectionFinance, SectionProduct, SectionTask, SectionStakeholder, SectionPurchase, SectionSales}
}

// SectionInfo carries the table names a store needs to address one section.
type SectionInfo struct {
	Section    Section
	NodeTable  string
	PathTable  string
	TransTable string
}

// InfoFor returns the table naming for a section.
func InfoFor(s Section) SectionInfo {
	name := s.String()
	return SectionInfo{
		Section:    s,
		NodeTable:  name,
		PathTable:  name + "_path",
		TransTable: name + "_transaction",
	}
}
