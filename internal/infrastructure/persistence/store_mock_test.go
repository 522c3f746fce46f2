package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/infrastructure/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var mockTransColumns = []string{
	"id", "date_time", "code", "description", "document", "state", "node_id",
	"lhs_node", "lhs_ratio", "lhs_debit", "lhs_credit",
	"rhs_node", "rhs_ratio", "rhs_debit", "rhs_credit",
}

// newMockStore wires a SectionStore over a mocked SQL connection for
// failure-path tests that an in-memory database cannot produce.
func newMockStore(t *testing.T, section ledger.Section) (*SectionStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	mock.ExpectQuery(`select sqlite_version`).
		WillReturnRows(sqlmock.NewRows([]string{"sqlite_version()"}).AddRow("3.45.0"))

	gormDB, err := gorm.Open(sqlite.Dialector{Conn: mockDB}, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewSectionStore(gormDB, zap.NewNop(), section, pool.NewPools(), nil), mock, mockDB
}

func mockTransRow(rows *sqlmock.Rows, id, lhsNode, rhsNode int) *sqlmock.Rows {
	return rows.AddRow(
		id, time.Time{}, "", "", "", false, 0,
		lhsNode, "1", "0", "0",
		rhsNode, "1", "0", "0",
	)
}

func TestReadTransactionsForNodeBatch_FailingChunkIsSkipped(t *testing.T) {
	store, mock, mockDB := newMockStore(t, ledger.SectionFinance)
	defer func() { _ = mockDB.Close() }()

	ids := make([]int, batchSize+1)
	for i := range ids {
		ids[i] = i + 1
	}

	// First chunk fails, second still contributes.
	mock.ExpectQuery(`FROM finance_transaction`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectQuery(`FROM finance_transaction`).
		WillReturnRows(mockTransRow(sqlmock.NewRows(mockTransColumns), batchSize+1, 1, 2))

	shadows, err := store.ReadTransactionsForNodeBatch(context.Background(), 1, ids)
	require.NoError(t, err)
	require.Len(t, shadows, 1)
	assert.Equal(t, batchSize+1, shadows[0].ID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadTransactionsForNode_QueryErrorSurfaces(t *testing.T) {
	store, mock, mockDB := newMockStore(t, ledger.SectionFinance)
	defer func() { _ = mockDB.Close() }()

	mock.ExpectQuery(`FROM finance_transaction`).
		WillReturnError(errors.New("database is locked"))

	_, err := store.ReadTransactionsForNode(context.Background(), 1)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildTree_ErrorDiscardsPartialTree(t *testing.T) {
	store, mock, mockDB := newMockStore(t, ledger.SectionFinance)
	defer func() { _ = mockDB.Close() }()

	nodeRows := sqlmock.NewRows([]string{
		"id", "name", "code", "description", "note", "rule", "branch", "unit", "initial_total", "final_total",
	}).AddRow(1, "assets", "", "", "", true, true, 0, "0", "0")

	mock.ExpectQuery(`FROM finance\s+WHERE removed = 0`).WillReturnRows(nodeRows)
	mock.ExpectQuery(`FROM finance_path`).
		WillReturnError(errors.New("database is locked"))

	nodes, err := store.BuildTree(context.Background())
	assert.Error(t, err)
	assert.Nil(t, nodes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
