package persistence

import (
	"fmt"

	"github.com/abacus/ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

// nodeDDL is the chart-of-accounts table. Nodes are tombstoned via the
// removed flag, never physically deleted.
const nodeDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT    NOT NULL DEFAULT '',
    code          TEXT    NOT NULL DEFAULT '',
    description   TEXT    NOT NULL DEFAULT '',
    note          TEXT    NOT NULL DEFAULT '',
    rule          BOOLEAN NOT NULL DEFAULT 0,
    branch        BOOLEAN NOT NULL DEFAULT 0,
    unit          INTEGER NOT NULL DEFAULT 0,
    party         INTEGER NOT NULL DEFAULT 0,
    employee      INTEGER NOT NULL DEFAULT 0,
    initial_total NUMERIC NOT NULL DEFAULT 0,
    final_total   NUMERIC NOT NULL DEFAULT 0,
    removed       BOOLEAN NOT NULL DEFAULT 0
)`

// pathDDL is the materialized transitive closure. Unlike node and
// transaction rows, closure rows are physically deleted on structural
// change.
const pathDDL = `
CREATE TABLE IF NOT EXISTS %s (
    ancestor   INTEGER NOT NULL,
    descendant INTEGER NOT NULL,
    distance   INTEGER NOT NULL,
    PRIMARY KEY (ancestor, descendant)
)`

const transDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id          INTEGER  PRIMARY KEY AUTOINCREMENT,
    date_time   DATETIME,
    code        TEXT     NOT NULL DEFAULT '',
    description TEXT     NOT NULL DEFAULT '',
    document    TEXT     NOT NULL DEFAULT '',
    state       BOOLEAN  NOT NULL DEFAULT 0,
    node_id     INTEGER  NOT NULL DEFAULT 0,
    lhs_node    INTEGER  NOT NULL DEFAULT 0,
    lhs_ratio   NUMERIC  NOT NULL DEFAULT 1,
    lhs_debit   NUMERIC  NOT NULL DEFAULT 0,
    lhs_credit  NUMERIC  NOT NULL DEFAULT 0,
    rhs_node    INTEGER  NOT NULL DEFAULT 0,
    rhs_ratio   NUMERIC  NOT NULL DEFAULT 1,
    rhs_debit   NUMERIC  NOT NULL DEFAULT 0,
    rhs_credit  NUMERIC  NOT NULL DEFAULT 0,
    removed     BOOLEAN  NOT NULL DEFAULT 0
)`

// Migrate creates the node, closure and transaction tables for the given
// sections. Statements are idempotent.
func Migrate(db *gorm.DB, sections ...ledger.Section) error {
	if len(sections) == 0 {
		sections = ledger.Sections()
	}

	for _, section := range sections {
		info := ledger.InfoFor(section)

		statements := []string{
			fmt.Sprintf(nodeDDL, info.NodeTable),
			fmt.Sprintf(pathDDL, info.PathTable),
			fmt.Sprintf(transDDL, info.TransTable),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_lhs ON %s (lhs_node)", info.TransTable, info.TransTable),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_rhs ON %s (rhs_node)", info.TransTable, info.TransTable),
		}

		for _, stmt := range statements {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("migrate %s: %w", section, err)
			}
		}
	}

	return nil
}
