package guard

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/sqlast"
	"github.com/nsxbet/sql-guard/internal/sqlparse"
)

// ExecutionLayer identifies where in the call stack a statement was
// captured, so rules and audit logs can distinguish an ORM-generated
// query from a hand-written one or a migration tool's.
type ExecutionLayer string

const (
	LayerUnspecified ExecutionLayer = ""
	LayerORM         ExecutionLayer = "orm"
	LayerRepository  ExecutionLayer = "repository"
	LayerMigration   ExecutionLayer = "migration"
	LayerAdHoc       ExecutionLayer = "adhoc"
)

// RowBounds is the pagination window the caller intended to apply, when
// known ahead of parsing (e.g. an ORM's Pageable/Limit parameter object).
// Rules use this instead of duck-typing a parameter's class name.
type RowBounds struct {
	Offset int64
	Limit  int64
}

// SqlContext is the immutable input to validation: the SQL text plus
// whatever the caller already knows about it.
type SqlContext struct {
	SQL            string
	Dialect        sqlparse.Dialect
	Statement      sqlast.Statement
	StatementID    string
	ExecutionLayer ExecutionLayer
	Params         map[string]any
	RowBounds      *RowBounds
}

// NewSqlContext builds a SqlContext for sql, rejecting empty input.
// Statement is left nil; Validate parses SQL itself and neither reads nor
// sets this field.
func NewSqlContext(sql string, dialect sqlparse.Dialect, opts ...SqlContextOption) (SqlContext, error) {
	if len(strings.TrimSpace(sql)) == 0 {
		return SqlContext{}, errors.New("sql context requires non-empty SQL text")
	}
	ctx := SqlContext{SQL: sql, Dialect: dialect}
	for _, opt := range opts {
		opt(&ctx)
	}
	return ctx, nil
}

// SqlContextOption configures optional SqlContext fields.
type SqlContextOption func(*SqlContext)

func WithStatementID(id string) SqlContextOption {
	return func(c *SqlContext) { c.StatementID = id }
}

func WithExecutionLayer(layer ExecutionLayer) SqlContextOption {
	return func(c *SqlContext) { c.ExecutionLayer = layer }
}

func WithParams(params map[string]any) SqlContextOption {
	return func(c *SqlContext) { c.Params = params }
}

func WithRowBounds(bounds RowBounds) SqlContextOption {
	return func(c *SqlContext) { c.RowBounds = &bounds }
}
