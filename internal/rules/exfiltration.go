package rules

import (
	"strings"

	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// MultiStatement flags SQL text that parsed into more than one statement:
// a classic stacked-query injection vector, and risky even when it comes
// from a trusted caller since only the first statement gets validated.
func MultiStatement() Rule {
	check := func(rc *RuleCtx) {
		if rc.StatementCount > 1 {
			rc.Report("exfiltration.multi-statement", riskmodel.RiskCritical, riskmodel.Inherit,
				"input contains more than one SQL statement")
		}
	}
	return NewRule("exfiltration.multi-statement", StatementFuncs{
		Select: func(rc *RuleCtx, _ *sqlast.SelectStatement) { check(rc) },
		Update: func(rc *RuleCtx, _ *sqlast.UpdateStatement) { check(rc) },
		Delete: func(rc *RuleCtx, _ *sqlast.DeleteStatement) { check(rc) },
		Insert: func(rc *RuleCtx, _ *sqlast.InsertStatement) { check(rc) },
		Raw:    func(rc *RuleCtx, _ *sqlast.OtherStatement) { check(rc) },
	}, nil)
}

// SetOperation flags UNION/INTERSECT/EXCEPT in a SELECT, which are common
// vectors for combining an injected query with the original one to
// exfiltrate data the original query never intended to expose.
func SetOperation() Rule {
	return NewRule("exfiltration.set-operation", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			if s.IsSetOp {
				rc.Report("exfiltration.set-operation", riskmodel.RiskHigh, riskmodel.Inherit,
					"SELECT uses a set operation (UNION/INTERSECT/EXCEPT)")
			}
		},
	}, nil)
}

// SQLComment flags an inline comment marker anywhere in the statement text,
// a common technique for truncating or smuggling SQL past naive filters.
func SQLComment() Rule {
	has := func(text string) bool {
		return strings.Contains(text, "--") || strings.Contains(text, "/*") || strings.Contains(text, "#")
	}
	report := func(rc *RuleCtx, raw string) {
		if has(raw) {
			rc.Report("exfiltration.sql-comment", riskmodel.RiskMedium, riskmodel.Inherit,
				"statement contains an inline SQL comment marker")
		}
	}
	return NewRule("exfiltration.sql-comment", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) { report(rc, s.RawText) },
		Update: func(rc *RuleCtx, s *sqlast.UpdateStatement) { report(rc, s.RawText) },
		Delete: func(rc *RuleCtx, s *sqlast.DeleteStatement) { report(rc, s.RawText) },
		Insert: func(rc *RuleCtx, s *sqlast.InsertStatement) { report(rc, s.RawText) },
		Raw:    func(rc *RuleCtx, s *sqlast.OtherStatement) { report(rc, s.RawText) },
	}, nil)
}

// IntoOutfile flags SELECT ... INTO OUTFILE/DUMPFILE, which writes query
// results straight to the database server's filesystem.
func IntoOutfile() Rule {
	return NewRule("exfiltration.into-outfile", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			if s.IntoOutfile {
				rc.Report("exfiltration.into-outfile", riskmodel.RiskCritical, riskmodel.Inherit,
					"SELECT writes results to a server-side file via INTO OUTFILE/DUMPFILE")
			}
		},
	}, nil)
}

// DangerousFunction flags calls to functions that read server-local files,
// stall a connection, or otherwise escalate beyond ordinary data access
// (LOAD_FILE, SLEEP, BENCHMARK, xp_cmdshell, ...).
func DangerousFunction() Rule {
	check := func(rc *RuleCtx, calls []string) {
		dangerous := rc.Policy.dangerousFunctions()
		for _, fn := range calls {
			if containsFold(dangerous, fn) {
				rc.Report("exfiltration.dangerous-function", riskmodel.RiskHigh, riskmodel.Inherit,
					"statement calls dangerous function "+fn)
			}
		}
	}
	return NewRule("exfiltration.dangerous-function", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) { check(rc, s.FunctionCalls) },
		Update: func(rc *RuleCtx, s *sqlast.UpdateStatement) { check(rc, s.FunctionCalls) },
		Delete: func(rc *RuleCtx, s *sqlast.DeleteStatement) { check(rc, s.FunctionCalls) },
		Insert: func(rc *RuleCtx, s *sqlast.InsertStatement) { check(rc, s.FunctionCalls) },
	}, nil)
}
