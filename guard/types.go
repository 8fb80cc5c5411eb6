package guard

import (
	"github.com/nsxbet/sql-guard/internal/riskmodel"
	"github.com/nsxbet/sql-guard/internal/rules"
)

// RiskLevel, Strategy, Violation and ValidationResult are the core
// vocabulary shared between the guard's public API and the internal rule
// engine; they live in internal/riskmodel so internal/rules can build them
// without importing this package (which itself imports internal/rules),
// and are re-exported here under their public names.
type (
	RiskLevel        = riskmodel.RiskLevel
	Strategy         = riskmodel.Strategy
	Violation        = riskmodel.Violation
	ValidationResult = riskmodel.ValidationResult
)

// PaginationParam lets a host adapter mark one of SqlContext.Params as a
// pagination object (an ORM's Pageable/IPage and similar), so
// pagination.missing-limit recognizes pagination expressed through a
// parameter instead of literal LIMIT/OFFSET text.
type PaginationParam = rules.PaginationParam

const (
	RiskSafe     = riskmodel.RiskSafe
	RiskLow      = riskmodel.RiskLow
	RiskMedium   = riskmodel.RiskMedium
	RiskHigh     = riskmodel.RiskHigh
	RiskCritical = riskmodel.RiskCritical

	Inherit = riskmodel.Inherit
	Log     = riskmodel.Log
	Warn    = riskmodel.Warn
	Block   = riskmodel.Block
)

var (
	ParseRiskLevel = riskmodel.ParseRiskLevel
	ParseStrategy  = riskmodel.ParseStrategy
)
