package rules

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// Policy is the access-control configuration the guard checks statements
// against: table allow/deny lists, column allow/deny lists, and the
// pagination thresholds the pagination-family rules use. It has no
// dependency on a live schema catalog — everything here matches by name.
type Policy struct {
	DeniedTables    []string `yaml:"deniedTables" json:"deniedTables"`
	ReadOnlyTables  []string `yaml:"readOnlyTables" json:"readOnlyTables"`
	ColumnBlacklist []string `yaml:"columnBlacklist" json:"columnBlacklist"`
	// ColumnWhitelist, when non-empty, means only the listed columns may
	// appear in a SELECT list (a "*" or any other column is a violation).
	ColumnWhitelist []string `yaml:"columnWhitelist" json:"columnWhitelist"`
	// DangerousFunctions overrides the built-in list
	// (LOAD_FILE, SLEEP, BENCHMARK, ...) when non-empty.
	DangerousFunctions []string `yaml:"dangerousFunctions" json:"dangerousFunctions"`

	MaxPageSize          int64 `yaml:"maxPageSize" json:"maxPageSize"`                   // LargePageSize rule threshold, 0 uses the default 1000
	DeepPageOffset       int64 `yaml:"deepPageOffset" json:"deepPageOffset"`             // DeepPagination rule threshold, 0 uses the default 10000
	LogicalPageThreshold int64 `yaml:"logicalPageThreshold" json:"logicalPageThreshold"` // LogicalPagination rule threshold (offset/limit ratio), 0 uses the default 100

	// PaginationExemptTables and PaginationExemptStatementIDs excuse a
	// SELECT from MissingPagination entirely — a table or caller-supplied
	// statement id known to never return unbounded results.
	PaginationExemptTables       []string `yaml:"paginationExemptTables" json:"paginationExemptTables"`
	PaginationExemptStatementIDs []string `yaml:"paginationExemptStatementIds" json:"paginationExemptStatementIds"`
}

var defaultDangerousFunctions = []string{
	"LOAD_FILE", "SLEEP", "BENCHMARK", "GET_LOCK", "RELEASE_LOCK",
	"SYS_EXEC", "SYS_EVAL", "UPDATEXML", "EXTRACTVALUE", "PG_SLEEP",
	"PG_READ_FILE", "LO_IMPORT", "LO_EXPORT", "XP_CMDSHELL",
}

func (p *Policy) dangerousFunctions() []string {
	if p != nil && len(p.DangerousFunctions) > 0 {
		return p.DangerousFunctions
	}
	return defaultDangerousFunctions
}

func containsFold(list []string, needle string) bool {
	for _, item := range list {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}

// matchPattern reports whether value matches pattern case-insensitively. A
// pattern ending in "*" matches by prefix; ValidatePolicy rejects "*"
// anywhere else at config load, so every pattern reaching here is either a
// plain name or a valid trailing wildcard.
func matchPattern(pattern, value string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(strings.ToLower(value), strings.ToLower(prefix))
	}
	return strings.EqualFold(pattern, value)
}

func matchesAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if matchPattern(p, value) {
			return true
		}
	}
	return false
}

// ValidatePolicy rejects any table/column pattern using "*" anywhere but
// the trailing position — the only wildcard form matchPattern understands.
// Called at config load time so a typo'd pattern fails fast instead of
// silently never matching.
func ValidatePolicy(p *Policy) error {
	if p == nil {
		return nil
	}
	named := map[string][]string{
		"deniedTables":    p.DeniedTables,
		"readOnlyTables":  p.ReadOnlyTables,
		"columnBlacklist": p.ColumnBlacklist,

		"paginationExemptTables": p.PaginationExemptTables,
	}
	for field, patterns := range named {
		for _, pattern := range patterns {
			if idx := strings.IndexByte(pattern, '*'); idx >= 0 && idx != len(pattern)-1 {
				return errors.Errorf("%s: pattern %q may only use '*' as a trailing wildcard", field, pattern)
			}
		}
	}
	return nil
}

func (p *Policy) isDenied(table string) bool {
	return p != nil && matchesAny(p.DeniedTables, table)
}

func (p *Policy) isReadOnly(table string) bool {
	return p != nil && matchesAny(p.ReadOnlyTables, table)
}

func (p *Policy) isBlacklistedColumn(col string) bool {
	return p != nil && matchesAny(p.ColumnBlacklist, col)
}

// paginationExempt reports whether statementID or any of tables is on the
// configured pagination-exemption lists.
func (p *Policy) paginationExempt(tables []sqlast.TableRef, statementID string) bool {
	if p == nil {
		return false
	}
	if statementID != "" && containsFold(p.PaginationExemptStatementIDs, statementID) {
		return true
	}
	for _, t := range tables {
		if matchesAny(p.PaginationExemptTables, t.Name) {
			return true
		}
	}
	return false
}

// whitelistViolation returns the first column not on the whitelist, or ""
// when every column is allowed or there is no whitelist. A "*" column is
// always a violation; a "*" entry in the whitelist has no special meaning.
func (p *Policy) whitelistViolation(columns []string) string {
	if p == nil || len(p.ColumnWhitelist) == 0 {
		return ""
	}
	for _, col := range columns {
		name := strings.TrimSpace(col)
		if name == "*" {
			return "*"
		}
		// strip a trailing alias ("col AS c" / "col c") and a table qualifier.
		if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
			name = name[idx+1:]
		}
		if fields := strings.Fields(name); len(fields) > 0 {
			name = fields[0]
		}
		if !containsFold(p.ColumnWhitelist, name) {
			return name
		}
	}
	return ""
}
