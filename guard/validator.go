package guard

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/dedup"
	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/rules"
	"github.com/nsxbet/sql-guard/internal/sqlparse"
	"github.com/nsxbet/sql-guard/pkg/logger"
)

// Validator is the default entry point: parse SQL text into the
// dialect-neutral statement model, run the fixed rule catalogue against
// it, and resolve each finding's effective strategy against config. It
// owns a dedup filter and a parse cache, both bounded and TTL-based, so
// it should be built once per process (or per pool of callers sharing a
// dedup scope) and reused, not constructed per request.
type Validator struct {
	cfg          *Config
	orchestrator *rules.Orchestrator
	parseCache   *sqlparse.Cache
	dedup        *dedup.Filter
}

// NewValidator builds a Validator from cfg. A nil cfg uses DefaultConfig.
func NewValidator(cfg *Config) (*Validator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	var ruleset []rules.Rule
	for _, r := range rules.DefaultRules() {
		if cfg.Rules[r.Name()].Disabled {
			continue
		}
		ruleset = append(ruleset, r)
	}

	return &Validator{
		cfg:          cfg,
		orchestrator: rules.NewOrchestrator(ruleset),
		parseCache:   sqlparse.NewCache(cfg.parseCacheTTL(), uint64(cfg.ParseCacheCapacity)),
		dedup:        dedup.New(cfg.dedupTTL(), uint64(cfg.DedupCapacity)),
	}, nil
}

// Close releases the validator's background cache-eviction goroutines.
func (v *Validator) Close() {
	v.parseCache.Close()
	v.dedup.Close()
}

// Validate parses sctx's SQL (always in lenient mode — a statement the
// parser can't handle still gets the text-level rules applied rather than
// failing validation outright) and runs the rule catalogue against it.
// A statement whose exact text was already validated within the dedup
// window is reported clean without re-running the rules.
func (v *Validator) Validate(ctx context.Context, sctx SqlContext) (ValidationResult, error) {
	if v.dedup.Seen(sctx.SQL) {
		slog.DebugContext(ctx, "skipping duplicate validation", logger.StatementID(sctx.StatementID))
		return ValidationResult{StatementID: sctx.StatementID}, nil
	}

	outcome, err := v.parseCache.Parse(sctx.Dialect, sctx.SQL, sqlparse.Lenient)
	if err != nil {
		return ValidationResult{}, errors.Wrap(err, "parse sql")
	}

	rc := &rules.RuleCtx{
		Policy:               &v.cfg.Policy,
		RowBounds:            toRuleRowBounds(sctx.RowBounds),
		StatementCount:       outcome.StatementCount,
		StatementID:          sctx.StatementID,
		Params:               sctx.Params,
		EnforceForAllQueries: v.cfg.EnforceForAllQueries,
	}

	if absorbed := v.orchestrator.Run(rc, outcome.Primary); len(absorbed) > 0 {
		for _, e := range absorbed {
			slog.WarnContext(ctx, "rule check failed", logger.StatementID(sctx.StatementID), "error", e)
		}
	}

	result := ValidationResult{
		StatementID: sctx.StatementID,
		Violations:  v.resolveStrategies(rc.Violations),
	}
	return result, nil
}

// resolveStrategies drops violations from rules disabled in config and
// resolves every remaining violation's Strategy against its rule-level
// override, falling back to the global default.
func (v *Validator) resolveStrategies(violations []riskmodel.Violation) []riskmodel.Violation {
	if len(violations) == 0 {
		return nil
	}
	resolved := make([]riskmodel.Violation, 0, len(violations))
	for _, vi := range violations {
		ruleCfg := v.cfg.Rules[vi.Rule]
		if ruleCfg.Disabled {
			continue
		}
		vi.Strategy = riskmodel.Resolve(ruleCfg.Strategy, v.cfg.globalStrategy)
		resolved = append(resolved, vi)
	}
	return resolved
}

func toRuleRowBounds(b *RowBounds) *rules.RowBounds {
	if b == nil {
		return nil
	}
	return &rules.RowBounds{Offset: b.Offset, Limit: b.Limit}
}
