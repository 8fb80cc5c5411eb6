package hook_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-guard/guard"
	"github.com/nsxbet/sql-guard/hook"
	"github.com/nsxbet/sql-guard/internal/sqlparse"
)

func newWrappedMock(t *testing.T, cfg guard.Config, driverName string) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	dsn := "sqlguard_" + driverName
	mockDB, mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	validator, err := guard.NewValidator(&cfg)
	require.NoError(t, err)
	t.Cleanup(validator.Close)

	hook.Register(driverName, mockDB.Driver(), hook.Config{
		Validator:      validator,
		Dialect:        sqlparse.MySQL,
		ExecutionLayer: guard.LayerAdHoc,
	})

	db, err := sql.Open(driverName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func TestHookBlocksDeleteWithoutWhere(t *testing.T) {
	db, _ := newWrappedMock(t, *guard.DefaultConfig(), "sqlguard_block_delete")

	_, err := db.ExecContext(context.Background(), "DELETE FROM accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestHookAllowsSafeSelect(t *testing.T) {
	db, mock := newWrappedMock(t, *guard.DefaultConfig(), "sqlguard_allow_select")
	mock.ExpectQuery("SELECT id FROM accounts WHERE id = \\? ORDER BY id LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	rows, err := db.QueryContext(context.Background(), "SELECT id FROM accounts WHERE id = ? ORDER BY id LIMIT 1", 1)
	require.NoError(t, err)
	defer rows.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHookRecordsAuditSlot(t *testing.T) {
	db, mock := newWrappedMock(t, *guard.DefaultConfig(), "sqlguard_audit_slot")
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ctx, slot := hook.WithAudit(context.Background())
	rows, err := db.QueryContext(ctx, "SELECT 1")
	require.NoError(t, err)
	_ = rows.Close()

	result, ok := slot.Result()
	require.True(t, ok)
	assert.True(t, result.Passed())
}
