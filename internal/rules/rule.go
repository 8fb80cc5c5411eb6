// Package rules holds the statement visitor, the rule template method, and
// the fixed rule catalogue the default validator runs. A Rule never sees a
// dialect-specific parse tree — only the sqlast model sqlparse produced —
// and never reaches for thread-local state: everything a rule needs for
// one call is the *RuleCtx it's handed.
package rules

import (
	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// dispatcher adapts one Check call's (RuleCtx, StatementFuncs) pair into a
// sqlast.Visitor so funcRule.Check can reuse the shared Accept dispatch
// instead of its own type switch.
type dispatcher struct {
	rc  *RuleCtx
	fns StatementFuncs
}

func (d dispatcher) VisitSelect(s *sqlast.SelectStatement) error {
	if d.fns.Select != nil {
		d.fns.Select(d.rc, s)
	}
	return nil
}

func (d dispatcher) VisitUpdate(s *sqlast.UpdateStatement) error {
	if d.fns.Update != nil {
		d.fns.Update(d.rc, s)
	}
	return nil
}

func (d dispatcher) VisitDelete(s *sqlast.DeleteStatement) error {
	if d.fns.Delete != nil {
		d.fns.Delete(d.rc, s)
	}
	return nil
}

func (d dispatcher) VisitInsert(s *sqlast.InsertStatement) error {
	if d.fns.Insert != nil {
		d.fns.Insert(d.rc, s)
	}
	return nil
}

func (d dispatcher) VisitRawSQL(s *sqlast.OtherStatement) error {
	if d.fns.Raw != nil {
		d.fns.Raw(d.rc, s)
	}
	return nil
}

// RuleCtx is the explicit, per-call state a rule operates on. There is no
// hidden stack: a nested validation call just gets its own RuleCtx,
// mirroring ordinary Go call-stack nesting instead of a thread-local frame
// stack.
type RuleCtx struct {
	Policy         *Policy
	RowBounds      *RowBounds
	StatementCount int
	// StatementID and Params are carried through from guard.SqlContext so
	// rules can consult pagination whitelists and host-supplied parameter
	// capabilities (see PaginationParam) without duck-typing.
	StatementID string
	Params      map[string]any
	// EnforceForAllQueries mirrors the global config flag of the same
	// name: when set, MissingPagination fires even on an ordinary
	// selective WHERE that isn't blacklist-only.
	EnforceForAllQueries bool
	Violations           []riskmodel.Violation
}

// RowBounds is the pagination window the caller already knows about, if
// any — passed through from guard.SqlContext so pagination rules don't
// have to duck-type a parameter object's class name.
type RowBounds struct {
	Offset int64
	Limit  int64
}

// Report appends a violation with the strategy the rule passed in, as is.
// Resolving it against per-rule and global config happens later, in the
// guard's Validator.
func (rc *RuleCtx) Report(rule string, risk riskmodel.RiskLevel, strategy riskmodel.Strategy, message string) {
	rc.Violations = append(rc.Violations, riskmodel.Violation{
		Rule:     rule,
		Risk:     risk,
		Message:  message,
		Strategy: strategy,
	})
}

// Rule is one check. Disabled is consulted before Check runs at all —
// disabling a rule skips it outright rather than running it and discarding
// the result, so a disabled rule costs nothing.
type Rule interface {
	Name() string
	Disabled(rc *RuleCtx) bool
	Check(rc *RuleCtx, stmt sqlast.Statement)
}

// StatementFuncs is the per-kind dispatch table a rule is built from. Any
// nil entry is a no-op for that statement kind — the rule template
// method's default-arm behaviour REDESIGN calls for, expressed as data
// instead of an interface with five near-empty override points.
type StatementFuncs struct {
	Select func(rc *RuleCtx, s *sqlast.SelectStatement)
	Update func(rc *RuleCtx, s *sqlast.UpdateStatement)
	Delete func(rc *RuleCtx, s *sqlast.DeleteStatement)
	Insert func(rc *RuleCtx, s *sqlast.InsertStatement)
	Raw    func(rc *RuleCtx, s *sqlast.OtherStatement)
}

type funcRule struct {
	name     string
	fns      StatementFuncs
	disabled func(rc *RuleCtx) bool
}

// NewRule builds a Rule from a dispatch table. disabled may be nil, meaning
// the rule is always enabled.
func NewRule(name string, fns StatementFuncs, disabled func(rc *RuleCtx) bool) Rule {
	return &funcRule{name: name, fns: fns, disabled: disabled}
}

func (r *funcRule) Name() string { return r.name }

func (r *funcRule) Disabled(rc *RuleCtx) bool {
	return r.disabled != nil && r.disabled(rc)
}

// Check is this rule's template method: dispatch on Kind via Accept, run
// the matching arm if the rule defined one, default to doing nothing
// otherwise.
func (r *funcRule) Check(rc *RuleCtx, stmt sqlast.Statement) {
	_ = stmt.Accept(dispatcher{rc: rc, fns: r.fns})
}
