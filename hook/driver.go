package hook

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/guard"
	"github.com/nsxbet/sql-guard/internal/sqlparse"
	"github.com/nsxbet/sql-guard/pkg/logger"
)

// Config selects the validator and metadata a wrapped driver attaches to
// every statement it intercepts.
type Config struct {
	Validator      *guard.Validator
	Dialect        sqlparse.Dialect
	ExecutionLayer guard.ExecutionLayer
}

// Register wraps parent under a new driver name so database/sql callers
// can opt in with sql.Open(name, dsn) without touching the rest of their
// connection-handling code.
func Register(name string, parent driver.Driver, cfg Config) {
	sql.Register(name, &Driver{parent: parent, cfg: cfg})
}

// Driver wraps a database/sql/driver.Driver, validating every statement a
// connection it opens is asked to run.
type Driver struct {
	parent driver.Driver
	cfg    Config
}

func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.parent.Open(dsn)
	if err != nil {
		return nil, err
	}
	return &conn{Conn: c, cfg: d.cfg}, nil
}

// conn wraps a driver.Conn. Embedding satisfies the base driver.Conn
// interface (Prepare/Close/Begin) by promotion; ExecContext/QueryContext
// are added explicitly so database/sql prefers them over the
// prepare-then-exec fallback, the same shape the pack's database/sql
// logging wrappers use.
type conn struct {
	driver.Conn
	cfg Config
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := c.guard(ctx, query, args); err != nil {
		return nil, err
	}
	execer, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return execer.ExecContext(ctx, query, args)
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := c.guard(ctx, query, args); err != nil {
		return nil, err
	}
	queryer, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return queryer.QueryContext(ctx, query, args)
}

// guard validates query, records the result on ctx's AuditSlot when
// present, logs non-blocking findings, and returns an error only when the
// resolved strategy is BLOCK.
func (c *conn) guard(ctx context.Context, query string, args []driver.NamedValue) error {
	sctx, err := guard.NewSqlContext(query, c.cfg.Dialect,
		guard.WithExecutionLayer(c.cfg.ExecutionLayer),
		guard.WithParams(namedValueParams(args)),
	)
	if err != nil {
		return errors.Wrap(err, "build sql context")
	}

	result, err := c.cfg.Validator.Validate(ctx, sctx)
	if err != nil {
		return errors.Wrap(err, "validate statement")
	}

	if slot := slotFromContext(ctx); slot != nil {
		slot.record(result)
	}

	for _, v := range result.Violations {
		if v.Strategy == guard.Block {
			continue
		}
		slog.WarnContext(ctx, "sql guard violation", logger.Rule(v.Rule), logger.Risk(v.Risk), "message", v.Message)
	}

	if result.Strategy() == guard.Block {
		return errors.Errorf("sql guard blocked statement: %s", result.Strategy())
	}
	return nil
}

func namedValueParams(args []driver.NamedValue) map[string]any {
	if len(args) == 0 {
		return nil
	}
	params := make(map[string]any, len(args))
	for _, a := range args {
		key := a.Name
		if key == "" {
			key = strconv.Itoa(a.Ordinal)
		}
		params[key] = a.Value
	}
	return params
}
