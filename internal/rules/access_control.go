package rules

import (
	"regexp"
	"strings"

	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// BlacklistField flags a SELECT whose column list mentions a blacklisted
// column (e.g. a column holding sensitive data no query should read back
// in bulk).
func BlacklistField() Rule {
	return NewRule("access-control.blacklist-field", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			for _, col := range s.Columns {
				name := bareColumnName(col)
				if rc.Policy.isBlacklistedColumn(name) {
					rc.Report("access-control.blacklist-field", riskmodel.RiskCritical, riskmodel.Inherit,
						"SELECT reads blacklisted column "+name)
				}
			}
		},
	}, func(rc *RuleCtx) bool { return rc.Policy == nil || len(rc.Policy.ColumnBlacklist) == 0 })
}

// WhitelistField flags a SELECT that reads any column outside a configured
// whitelist (when one is configured at all).
func WhitelistField() Rule {
	return NewRule("access-control.whitelist-field", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			if bad := rc.Policy.whitelistViolation(s.Columns); bad != "" {
				rc.Report("access-control.whitelist-field", riskmodel.RiskHigh, riskmodel.Inherit,
					"SELECT reads column "+bad+" which is not on the configured whitelist")
			}
		},
	}, func(rc *RuleCtx) bool { return rc.Policy == nil || len(rc.Policy.ColumnWhitelist) == 0 })
}

// DeniedTable flags any statement touching a table on the deny list.
func DeniedTable() Rule {
	check := func(rc *RuleCtx, tables []sqlast.TableRef) {
		for _, t := range tables {
			if rc.Policy.isDenied(t.Name) {
				rc.Report("access-control.denied-table", riskmodel.RiskCritical, riskmodel.Inherit,
					"statement touches denied table "+t.Name)
			}
		}
	}
	return NewRule("access-control.denied-table", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) { check(rc, s.Tables) },
		Update: func(rc *RuleCtx, s *sqlast.UpdateStatement) { check(rc, s.Tables) },
		Delete: func(rc *RuleCtx, s *sqlast.DeleteStatement) { check(rc, s.Tables) },
		Insert: func(rc *RuleCtx, s *sqlast.InsertStatement) { check(rc, s.Tables) },
	}, func(rc *RuleCtx) bool { return rc.Policy == nil || len(rc.Policy.DeniedTables) == 0 })
}

// ReadOnlyTable flags a write (UPDATE/DELETE/INSERT) against a table
// configured as read-only.
func ReadOnlyTable() Rule {
	check := func(rc *RuleCtx, tables []sqlast.TableRef) {
		for _, t := range tables {
			if rc.Policy.isReadOnly(t.Name) {
				rc.Report("access-control.read-only-table", riskmodel.RiskCritical, riskmodel.Inherit,
					"write statement targets read-only table "+t.Name)
			}
		}
	}
	return NewRule("access-control.read-only-table", StatementFuncs{
		Update: func(rc *RuleCtx, s *sqlast.UpdateStatement) { check(rc, s.Tables) },
		Delete: func(rc *RuleCtx, s *sqlast.DeleteStatement) { check(rc, s.Tables) },
		Insert: func(rc *RuleCtx, s *sqlast.InsertStatement) { check(rc, s.Tables) },
	}, func(rc *RuleCtx) bool { return rc.Policy == nil || len(rc.Policy.ReadOnlyTables) == 0 })
}

func bareColumnName(col string) string {
	name := strings.TrimSpace(col)
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	return name
}

var (
	stringLiteralRe    = regexp.MustCompile(`'[^']*'`)
	whereIdentifierRe  = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	whereReservedWords = map[string]bool{
		"AND": true, "OR": true, "NOT": true, "NULL": true, "IS": true,
		"IN": true, "LIKE": true, "BETWEEN": true, "TRUE": true, "FALSE": true,
		"EXISTS": true, "ANY": true, "ALL": true, "ESCAPE": true,
	}
)

// whereFieldNames extracts the bare column names referenced in a WHERE
// clause's text: string literals are stripped first so their contents
// never look like identifiers, and the remaining reserved-word tokens are
// filtered out.
func whereFieldNames(whereText string) []string {
	stripped := stringLiteralRe.ReplaceAllString(whereText, " ")
	var names []string
	for _, tok := range whereIdentifierRe.FindAllString(stripped, -1) {
		if whereReservedWords[strings.ToUpper(tok)] {
			continue
		}
		names = append(names, bareColumnName(tok))
	}
	return names
}

// whereUsesOnlyBlacklistFields reports whether every column referenced in
// whereText is on the configured blacklist, and there is at least one.
func whereUsesOnlyBlacklistFields(whereText string, p *Policy) bool {
	if p == nil || len(p.ColumnBlacklist) == 0 {
		return false
	}
	fields := whereFieldNames(whereText)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !matchesAny(p.ColumnBlacklist, f) {
			return false
		}
	}
	return true
}
