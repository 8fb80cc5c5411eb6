package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-guard/internal/sqlparse"
)

func TestNewSqlContextRejectsEmptySQL(t *testing.T) {
	_, err := NewSqlContext("   ", sqlparse.MySQL)
	require.Error(t, err)
}

func TestNewSqlContextAppliesOptions(t *testing.T) {
	sctx, err := NewSqlContext("SELECT 1", sqlparse.MySQL,
		WithStatementID("stmt-1"),
		WithExecutionLayer(LayerORM),
		WithParams(map[string]any{"id": 1}),
		WithRowBounds(RowBounds{Offset: 10, Limit: 20}),
	)
	require.NoError(t, err)
	assert.Equal(t, "stmt-1", sctx.StatementID)
	assert.Equal(t, LayerORM, sctx.ExecutionLayer)
	assert.Equal(t, 1, sctx.Params["id"])
	require.NotNil(t, sctx.RowBounds)
	assert.EqualValues(t, 10, sctx.RowBounds.Offset)
	assert.EqualValues(t, 20, sctx.RowBounds.Limit)
}
