package rules

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// Orchestrator runs a fixed, registration-ordered vector of rules against
// one statement. A rule that panics never brings down the run: the panic
// is recovered, logged, and treated as "this rule found nothing" — the
// same containment the source tooling's advisor.Check gives each rule via
// its own recover(), generalised here to run once per rule instead of once
// per whole check.
type Orchestrator struct {
	rules []Rule
}

// NewOrchestrator builds an Orchestrator over a fixed rule vector. The
// vector is not mutable after construction — there is no Register call;
// callers assemble the slice once (see DefaultRules) and hand it in.
func NewOrchestrator(ruleset []Rule) *Orchestrator {
	cp := make([]Rule, len(ruleset))
	copy(cp, ruleset)
	return &Orchestrator{rules: cp}
}

// Run checks stmt against every enabled rule, in registration order; the
// violations accumulate on rc. It returns one error per rule that panicked:
// a panic is absorbed and never stops the remaining rules from running.
func (o *Orchestrator) Run(rc *RuleCtx, stmt sqlast.Statement) []error {
	var absorbed []error
	for _, rule := range o.rules {
		if rule.Disabled(rc) {
			continue
		}
		if err := runRule(rule, rc, stmt); err != nil {
			slog.Debug("rule check recovered from panic", "rule", rule.Name(), "error", err)
			absorbed = append(absorbed, err)
		}
	}
	return absorbed
}

func runRule(rule Rule, rc *RuleCtx, stmt sqlast.Statement) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "rule %q panicked", rule.Name())
			} else {
				err = errors.Errorf("rule %q panicked: %v", rule.Name(), r)
			}
		}
	}()
	rule.Check(rc, stmt)
	return nil
}
