package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-guard/internal/sqlast"
)

func TestMatchPatternExactIsCaseInsensitive(t *testing.T) {
	assert.True(t, matchPattern("Secrets", "secrets"))
	assert.False(t, matchPattern("secrets", "secrets_archive"))
}

func TestMatchPatternTrailingWildcardMatchesByPrefix(t *testing.T) {
	assert.True(t, matchPattern("tmp_*", "TMP_orders"))
	assert.False(t, matchPattern("tmp_*", "orders_tmp"))
}

func TestValidatePolicyRejectsWildcardNotTrailing(t *testing.T) {
	err := ValidatePolicy(&Policy{DeniedTables: []string{"tmp_*_bak"}})
	require.Error(t, err)
}

func TestValidatePolicyAcceptsTrailingWildcard(t *testing.T) {
	err := ValidatePolicy(&Policy{ColumnBlacklist: []string{"secret_*"}})
	require.NoError(t, err)
}

func TestValidatePolicyNilIsNoop(t *testing.T) {
	require.NoError(t, ValidatePolicy(nil))
}

func TestPaginationExemptByTableWildcard(t *testing.T) {
	p := &Policy{PaginationExemptTables: []string{"lookup_*"}}
	assert.True(t, p.paginationExempt([]sqlast.TableRef{{Name: "lookup_codes"}}, ""))
	assert.False(t, p.paginationExempt([]sqlast.TableRef{{Name: "orders"}}, ""))
}

func TestPaginationExemptByStatementID(t *testing.T) {
	p := &Policy{PaginationExemptStatementIDs: []string{"reports.summary"}}
	assert.True(t, p.paginationExempt(nil, "reports.summary"))
	assert.False(t, p.paginationExempt(nil, "reports.detail"))
}
