package rules

import (
	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

var ddlKeywords = []string{"CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME"}
var callKeywords = []string{"CALL", "EXECUTE", "EXEC"}
var metadataKeywords = []string{"SHOW", "DESCRIBE", "DESC", "EXPLAIN"}

// DDLOperation flags a schema-changing statement reaching the guard at
// all — a runtime query layer should never be issuing DDL.
func DDLOperation() Rule {
	return NewRule("admin.ddl-operation", StatementFuncs{
		Raw: func(rc *RuleCtx, s *sqlast.OtherStatement) {
			if containsFold(ddlKeywords, s.Keyword) {
				rc.Report("admin.ddl-operation", riskmodel.RiskCritical, riskmodel.Inherit,
					"statement performs a DDL operation ("+s.Keyword+")")
			}
		},
	}, nil)
}

// CallOrExec flags CALL/EXECUTE/EXEC statements invoking stored routines,
// which can hide arbitrary logic behind an otherwise innocuous call.
func CallOrExec() Rule {
	return NewRule("admin.call-exec", StatementFuncs{
		Raw: func(rc *RuleCtx, s *sqlast.OtherStatement) {
			if containsFold(callKeywords, s.Keyword) {
				rc.Report("admin.call-exec", riskmodel.RiskHigh, riskmodel.Inherit,
					"statement invokes a stored routine ("+s.Keyword+")")
			}
		},
	}, nil)
}

// MetadataStatement flags SHOW/DESCRIBE/EXPLAIN-style probes, useful for
// an attacker enumerating schema but rarely something application code
// needs to run against a production connection.
func MetadataStatement() Rule {
	return NewRule("admin.metadata-statement", StatementFuncs{
		Raw: func(rc *RuleCtx, s *sqlast.OtherStatement) {
			if containsFold(metadataKeywords, s.Keyword) {
				rc.Report("admin.metadata-statement", riskmodel.RiskMedium, riskmodel.Inherit,
					"statement is a metadata probe ("+s.Keyword+")")
			}
		},
	}, nil)
}

// SetStatement flags SET statements, which can change session-level
// security-relevant state (SET ROLE, SET GLOBAL, SET autocommit, ...).
func SetStatement() Rule {
	return NewRule("admin.set-statement", StatementFuncs{
		Raw: func(rc *RuleCtx, s *sqlast.OtherStatement) {
			if s.Keyword == "SET" {
				rc.Report("admin.set-statement", riskmodel.RiskMedium, riskmodel.Inherit,
					"statement modifies session/connection state via SET")
			}
		},
	}, nil)
}
