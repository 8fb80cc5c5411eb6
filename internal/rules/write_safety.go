package rules

import (
	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// WhereRequiredOnUpdate flags an UPDATE with no WHERE clause: every row in
// the table would be rewritten. Grounded on the source tooling's
// StatementWhereRequireUpdateDeleteRule, generalised from an ANTLR
// listener to a plain sqlast.UpdateStatement check.
func WhereRequiredOnUpdate() Rule {
	return NewRule("write-safety.where-required-update", StatementFuncs{
		Update: func(rc *RuleCtx, s *sqlast.UpdateStatement) {
			if !s.Where.Present {
				rc.Report("write-safety.where-required-update", riskmodel.RiskCritical, riskmodel.Inherit,
					"UPDATE statement has no WHERE clause and will rewrite every row in the table")
			}
		},
	}, nil)
}

// WhereRequiredOnDelete is the DELETE counterpart of WhereRequiredOnUpdate.
func WhereRequiredOnDelete() Rule {
	return NewRule("write-safety.where-required-delete", StatementFuncs{
		Delete: func(rc *RuleCtx, s *sqlast.DeleteStatement) {
			if !s.Where.Present {
				rc.Report("write-safety.where-required-delete", riskmodel.RiskCritical, riskmodel.Inherit,
					"DELETE statement has no WHERE clause and will remove every row in the table")
			}
		},
	}, nil)
}

// DummyCondition flags a WHERE clause that is a syntactic always-true
// shape (1=1, 'a'='a', OR 1, ...). Same-column comparisons like
// "WHERE id = id" are intentionally left alone — recognising those needs a
// semantic normaliser this rule doesn't have.
func DummyCondition() Rule {
	report := func(rc *RuleCtx, where sqlast.Where) {
		if where.Present && where.IsTautology {
			rc.Report("write-safety.dummy-condition", riskmodel.RiskHigh, riskmodel.Inherit,
				"WHERE clause contains an always-true condition: "+where.Text)
		}
	}
	return NewRule("write-safety.dummy-condition", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) { report(rc, s.Where) },
		Update: func(rc *RuleCtx, s *sqlast.UpdateStatement) { report(rc, s.Where) },
		Delete: func(rc *RuleCtx, s *sqlast.DeleteStatement) { report(rc, s.Where) },
	}, nil)
}
