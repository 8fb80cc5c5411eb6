package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

func run(t *testing.T, rule Rule, policy *Policy, stmt sqlast.Statement) *RuleCtx {
	t.Helper()
	rc := &RuleCtx{Policy: policy, StatementCount: 1}
	require.False(t, rule.Disabled(rc))
	rule.Check(rc, stmt)
	return rc
}

func TestWhereRequiredOnUpdateFlagsMissingWhere(t *testing.T) {
	rc := run(t, WhereRequiredOnUpdate(), nil, &sqlast.UpdateStatement{RawText: "UPDATE t SET x = 1"})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskCritical, rc.Violations[0].Risk)
}

func TestWhereRequiredOnUpdatePassesWithWhere(t *testing.T) {
	rc := run(t, WhereRequiredOnUpdate(), nil, &sqlast.UpdateStatement{
		RawText: "UPDATE t SET x = 1 WHERE id = 1",
		Where:   sqlast.Where{Present: true, Text: "id = 1"},
	})
	assert.Empty(t, rc.Violations)
}

func TestWhereRequiredOnDeleteFlagsMissingWhere(t *testing.T) {
	rc := run(t, WhereRequiredOnDelete(), nil, &sqlast.DeleteStatement{RawText: "DELETE FROM t"})
	require.Len(t, rc.Violations, 1)
}

func TestDummyConditionFlagsTautology(t *testing.T) {
	rc := run(t, DummyCondition(), nil, &sqlast.SelectStatement{
		Where: sqlast.Where{Present: true, Text: "1=1", IsTautology: true},
	})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskHigh, rc.Violations[0].Risk)
}

func TestDummyConditionIgnoresOrdinaryWhere(t *testing.T) {
	rc := run(t, DummyCondition(), nil, &sqlast.SelectStatement{
		Where: sqlast.Where{Present: true, Text: "id = 1"},
	})
	assert.Empty(t, rc.Violations)
}

func TestMissingPaginationCriticalWithNoWhereOrLimit(t *testing.T) {
	rc := run(t, MissingPagination(), nil, &sqlast.SelectStatement{
		Tables: []sqlast.TableRef{{Name: "users"}},
	})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskCritical, rc.Violations[0].Risk)
}

func TestMissingPaginationSkipsTablelessSelect(t *testing.T) {
	rc := run(t, MissingPagination(), nil, &sqlast.SelectStatement{RawText: "SELECT 1"})
	assert.Empty(t, rc.Violations)
}

func TestMissingPaginationAllowsSelectiveWhereNoLimit(t *testing.T) {
	// "SELECT id, name FROM users WHERE id = 1" — an ordinary selective
	// WHERE with no blacklist fields and no global enforcement configured
	// must not fire at all.
	rc := run(t, MissingPagination(), nil, &sqlast.SelectStatement{
		Tables: []sqlast.TableRef{{Name: "users"}},
		Where:  sqlast.Where{Present: true, Text: "id = 1"},
	})
	assert.Empty(t, rc.Violations)
}

func TestMissingPaginationCriticalWithTautologyWhere(t *testing.T) {
	rc := run(t, MissingPagination(), nil, &sqlast.SelectStatement{
		Tables: []sqlast.TableRef{{Name: "users"}},
		Where:  sqlast.Where{Present: true, Text: "1=1", IsTautology: true},
	})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskCritical, rc.Violations[0].Risk)
}

func TestMissingPaginationHighWhenWhereUsesOnlyBlacklistFields(t *testing.T) {
	policy := &Policy{ColumnBlacklist: []string{"ssn"}}
	rc := run(t, MissingPagination(), policy, &sqlast.SelectStatement{
		Tables: []sqlast.TableRef{{Name: "users"}},
		Where:  sqlast.Where{Present: true, Text: "ssn = '123-45-6789'"},
	})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskHigh, rc.Violations[0].Risk)
}

func TestMissingPaginationMediumWhenEnforcedForAllQueries(t *testing.T) {
	rc := &RuleCtx{EnforceForAllQueries: true, StatementCount: 1}
	MissingPagination().Check(rc, &sqlast.SelectStatement{
		Tables: []sqlast.TableRef{{Name: "users"}},
		Where:  sqlast.Where{Present: true, Text: "id = 1"},
	})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskMedium, rc.Violations[0].Risk)
}

func TestMissingPaginationExemptWithRowBounds(t *testing.T) {
	rc := &RuleCtx{RowBounds: &RowBounds{Limit: 20}, StatementCount: 1}
	MissingPagination().Check(rc, &sqlast.SelectStatement{Tables: []sqlast.TableRef{{Name: "users"}}})
	assert.Empty(t, rc.Violations, "host-supplied RowBounds counts as pagination regardless of WHERE shape")
}

func TestMissingPaginationExemptWithPaginationParam(t *testing.T) {
	rc := &RuleCtx{StatementCount: 1, Params: map[string]any{"page": fakePaginationParam{}}}
	MissingPagination().Check(rc, &sqlast.SelectStatement{Tables: []sqlast.TableRef{{Name: "users"}}})
	assert.Empty(t, rc.Violations)
}

func TestMissingPaginationExemptByWhitelistedTable(t *testing.T) {
	policy := &Policy{PaginationExemptTables: []string{"lookup_codes"}}
	rc := run(t, MissingPagination(), policy, &sqlast.SelectStatement{Tables: []sqlast.TableRef{{Name: "lookup_codes"}}})
	assert.Empty(t, rc.Violations)
}

func TestMissingPaginationExemptByWhitelistedStatementID(t *testing.T) {
	policy := &Policy{PaginationExemptStatementIDs: []string{"reports.summary"}}
	rc := &RuleCtx{Policy: policy, StatementID: "reports.summary", StatementCount: 1}
	MissingPagination().Check(rc, &sqlast.SelectStatement{Tables: []sqlast.TableRef{{Name: "users"}}})
	assert.Empty(t, rc.Violations)
}

type fakePaginationParam struct{}

func (fakePaginationParam) IsPaginationParam() bool { return true }

func TestMissingPaginationPassesWithLimit(t *testing.T) {
	rowCount := int64(10)
	rc := run(t, MissingPagination(), nil, &sqlast.SelectStatement{
		Tables: []sqlast.TableRef{{Name: "users"}},
		Limit:  sqlast.Limit{Present: true, RowCount: &rowCount},
	})
	assert.Empty(t, rc.Violations)
}

func TestDeepPaginationFlagsOffsetOverThreshold(t *testing.T) {
	offset := int64(50000)
	rowCount := int64(10)
	rc := run(t, DeepPagination(), nil, &sqlast.SelectStatement{
		Limit: sqlast.Limit{Present: true, RowCount: &rowCount, Offset: &offset},
	})
	require.Len(t, rc.Violations, 1)
}

func TestDeepPaginationRespectsPolicyOverride(t *testing.T) {
	offset := int64(500)
	rowCount := int64(10)
	policy := &Policy{DeepPageOffset: 1000}
	rc := run(t, DeepPagination(), policy, &sqlast.SelectStatement{
		Limit: sqlast.Limit{Present: true, RowCount: &rowCount, Offset: &offset},
	})
	assert.Empty(t, rc.Violations)
}

func TestLargePageSizeFlagsOverCap(t *testing.T) {
	rowCount := int64(5000)
	rc := run(t, LargePageSize(), nil, &sqlast.SelectStatement{
		Limit: sqlast.Limit{Present: true, RowCount: &rowCount},
	})
	require.Len(t, rc.Violations, 1)
}

func TestMissingOrderByWithPaginationFlagsUnordered(t *testing.T) {
	rowCount := int64(10)
	rc := run(t, MissingOrderByWithPagination(), nil, &sqlast.SelectStatement{
		Limit:   sqlast.Limit{Present: true, RowCount: &rowCount},
		OrderBy: false,
	})
	require.Len(t, rc.Violations, 1)
}

func TestBlacklistFieldDisabledWithoutPolicy(t *testing.T) {
	rule := BlacklistField()
	rc := &RuleCtx{}
	assert.True(t, rule.Disabled(rc))
}

func TestBlacklistFieldFlagsConfiguredColumn(t *testing.T) {
	policy := &Policy{ColumnBlacklist: []string{"ssn"}}
	rc := run(t, BlacklistField(), policy, &sqlast.SelectStatement{Columns: []string{"id", "u.ssn"}})
	require.Len(t, rc.Violations, 1)
	assert.Equal(t, riskmodel.RiskCritical, rc.Violations[0].Risk)
}

func TestWhitelistFieldFlagsColumnOutsideWhitelist(t *testing.T) {
	policy := &Policy{ColumnWhitelist: []string{"id", "name"}}
	rc := run(t, WhitelistField(), policy, &sqlast.SelectStatement{Columns: []string{"id", "ssn"}})
	require.Len(t, rc.Violations, 1)
}

func TestDeniedTableFlagsMatch(t *testing.T) {
	policy := &Policy{DeniedTables: []string{"secrets"}}
	rc := run(t, DeniedTable(), policy, &sqlast.SelectStatement{Tables: []sqlast.TableRef{{Name: "secrets"}}})
	require.Len(t, rc.Violations, 1)
}

func TestDeniedTableFlagsTrailingWildcardMatch(t *testing.T) {
	policy := &Policy{DeniedTables: []string{"tmp_*"}}
	rc := run(t, DeniedTable(), policy, &sqlast.SelectStatement{Tables: []sqlast.TableRef{{Name: "tmp_orders"}}})
	require.Len(t, rc.Violations, 1)
}

func TestReadOnlyTableFlagsWrite(t *testing.T) {
	policy := &Policy{ReadOnlyTables: []string{"audit_log"}}
	rc := run(t, ReadOnlyTable(), policy, &sqlast.DeleteStatement{Tables: []sqlast.TableRef{{Name: "audit_log"}}})
	require.Len(t, rc.Violations, 1)
}

func TestMultiStatementFlagsMoreThanOne(t *testing.T) {
	rc := &RuleCtx{StatementCount: 2}
	MultiStatement().Check(rc, &sqlast.SelectStatement{})
	require.Len(t, rc.Violations, 1)
}

func TestSetOperationFlagsUnion(t *testing.T) {
	rc := run(t, SetOperation(), nil, &sqlast.SelectStatement{IsSetOp: true})
	require.Len(t, rc.Violations, 1)
}

func TestIntoOutfileFlagsWrite(t *testing.T) {
	rc := run(t, IntoOutfile(), nil, &sqlast.SelectStatement{IntoOutfile: true})
	require.Len(t, rc.Violations, 1)
}

func TestDangerousFunctionFlagsBuiltinList(t *testing.T) {
	rc := run(t, DangerousFunction(), nil, &sqlast.SelectStatement{FunctionCalls: []string{"SLEEP"}})
	require.Len(t, rc.Violations, 1)
}

func TestDDLOperationFlagsCreate(t *testing.T) {
	rc := run(t, DDLOperation(), nil, &sqlast.OtherStatement{Keyword: "CREATE"})
	require.Len(t, rc.Violations, 1)
}

func TestSetStatementFlagsSet(t *testing.T) {
	rc := run(t, SetStatement(), nil, &sqlast.OtherStatement{Keyword: "SET"})
	require.Len(t, rc.Violations, 1)
}

func TestDefaultRulesNonEmptyAndNamed(t *testing.T) {
	ruleset := DefaultRules()
	require.Len(t, ruleset, 21)
	seen := map[string]bool{}
	for _, r := range ruleset {
		assert.NotEmpty(t, r.Name())
		assert.False(t, seen[r.Name()], "duplicate rule name %s", r.Name())
		seen[r.Name()] = true
	}
}
