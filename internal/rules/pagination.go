package rules

import (
	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// PaginationParam is implemented by a host-supplied parameter value that
// represents a pagination object (an ORM's Pageable/IPage and similar).
// MissingPagination asks only "is any parameter pagination-bearing?" and
// leaves recognizing the host's own parameter types to the host adapter
// that implements this interface — a capability check standing in for the
// source tooling's duck-typing on parameter class name.
type PaginationParam interface {
	IsPaginationParam() bool
}

func hasPaginationParam(params map[string]any) bool {
	for _, v := range params {
		if p, ok := v.(PaginationParam); ok && p.IsPaginationParam() {
			return true
		}
	}
	return false
}

// MissingPagination flags a SELECT with no LIMIT/OFFSET, no host-supplied
// RowBounds, no pagination-bearing parameter, and not whitelisted by table
// or statement id. Among those, risk is stratified by how much evidence
// there is that the result set could be large: no WHERE (or a dummy one)
// is CRITICAL, a WHERE that filters only on blacklisted fields is HIGH,
// and an ordinary selective WHERE is MEDIUM only when policy requires
// pagination on every query — otherwise it doesn't fire at all.
func MissingPagination() Rule {
	return NewRule("pagination.missing-limit", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			if len(s.Tables) == 0 || s.Limit.Present || rc.RowBounds != nil {
				return
			}
			if hasPaginationParam(rc.Params) {
				return
			}
			if rc.Policy.paginationExempt(s.Tables, rc.StatementID) {
				return
			}

			switch {
			case !s.Where.Present || s.Where.IsTautology:
				rc.Report("pagination.missing-limit", riskmodel.RiskCritical, riskmodel.Inherit,
					"SELECT without WHERE and without pagination")
			case whereUsesOnlyBlacklistFields(s.Where.Text, rc.Policy):
				rc.Report("pagination.missing-limit", riskmodel.RiskHigh, riskmodel.Inherit,
					"WHERE uses only blacklist fields without pagination")
			case rc.EnforceForAllQueries:
				rc.Report("pagination.missing-limit", riskmodel.RiskMedium, riskmodel.Inherit,
					"query has no pagination and policy requires pagination on every query")
			}
		},
	}, nil)
}

// DeepPagination flags a large OFFSET, which forces the database to scan
// and discard that many rows before returning anything.
func DeepPagination() Rule {
	return NewRule("pagination.deep-offset", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			threshold := rc.Policy.deepPageThreshold()
			if s.Limit.Offset != nil && *s.Limit.Offset > threshold {
				rc.Report("pagination.deep-offset", riskmodel.RiskMedium, riskmodel.Inherit,
					"LIMIT OFFSET is deep enough to force a large row scan before returning results")
			}
		},
	}, nil)
}

// LogicalPagination flags an offset that is a large multiple of the page
// size — a caller paging forward with a small page size into a position
// that's still operationally expensive even though the offset value alone
// isn't over DeepPagination's threshold.
func LogicalPagination() Rule {
	return NewRule("pagination.logical-depth", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			threshold := rc.Policy.logicalPageThreshold()
			if s.Limit.Offset == nil || s.Limit.RowCount == nil || *s.Limit.RowCount == 0 {
				return
			}
			pages := *s.Limit.Offset / *s.Limit.RowCount
			if pages > threshold {
				rc.Report("pagination.logical-depth", riskmodel.RiskLow, riskmodel.Inherit,
					"query is paging past a large number of pages for its page size")
			}
		},
	}, nil)
}

// LargePageSize flags a LIMIT row count above the configured page size cap.
func LargePageSize() Rule {
	return NewRule("pagination.large-page-size", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			max := rc.Policy.maxPageSize()
			if s.Limit.RowCount != nil && *s.Limit.RowCount > max {
				rc.Report("pagination.large-page-size", riskmodel.RiskMedium, riskmodel.Inherit,
					"LIMIT row count exceeds the configured maximum page size")
			}
		},
	}, nil)
}

// MissingOrderByWithPagination flags a paginated SELECT with no ORDER BY:
// without a deterministic order, successive pages can skip or repeat rows.
func MissingOrderByWithPagination() Rule {
	return NewRule("pagination.missing-order-by", StatementFuncs{
		Select: func(rc *RuleCtx, s *sqlast.SelectStatement) {
			if s.Limit.Present && !s.OrderBy {
				rc.Report("pagination.missing-order-by", riskmodel.RiskLow, riskmodel.Inherit,
					"paginated SELECT has no ORDER BY, so page boundaries aren't deterministic")
			}
		},
	}, nil)
}

const (
	defaultMaxPageSize          = int64(1000)
	defaultDeepPageOffset       = int64(10000)
	defaultLogicalPageThreshold = int64(100)
)

func (p *Policy) maxPageSize() int64 {
	if p != nil && p.MaxPageSize > 0 {
		return p.MaxPageSize
	}
	return defaultMaxPageSize
}

func (p *Policy) deepPageThreshold() int64 {
	if p != nil && p.DeepPageOffset > 0 {
		return p.DeepPageOffset
	}
	return defaultDeepPageOffset
}

func (p *Policy) logicalPageThreshold() int64 {
	if p != nil && p.LogicalPageThreshold > 0 {
		return p.LogicalPageThreshold
	}
	return defaultLogicalPageThreshold
}
