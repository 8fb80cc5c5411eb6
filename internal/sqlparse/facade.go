// Package sqlparse is the dialect parser facade: Parse turns raw SQL text
// into the dialect-neutral sqlast.Statement model, in either Strict mode
// (a syntax error is returned to the caller) or Lenient mode (a syntax
// error degrades to an sqlast.OtherStatement with Unparsed set, never an
// error) — validation always runs in Lenient mode so a statement the
// parser can't handle still gets the text-level rules applied to it.
package sqlparse

import (
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/sqlast"
)

// Dialect selects which grammar parses the statement.
type Dialect int

const (
	MySQL Dialect = iota
	PostgreSQL
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgres"
	default:
		return "unknown"
	}
}

// ParseDialect maps a config/CLI dialect name to a Dialect, defaulting to
// MySQL for an empty string.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return PostgreSQL, nil
	default:
		return MySQL, errors.Errorf("unknown SQL dialect %q", name)
	}
}

// Mode controls how a parse error is surfaced.
type Mode int

const (
	Lenient Mode = iota
	Strict
)

// Outcome is the result of parsing one piece of SQL text, which may itself
// contain several semicolon-separated statements.
type Outcome struct {
	// Primary is the first parsed statement — what validation rules run
	// against. Multi-statement SQL still parses every statement (so
	// StatementCount is accurate) but only the first is visited by rules;
	// the multi-statement rule itself flags StatementCount > 1.
	Primary        sqlast.Statement
	StatementCount int
	Dialect        Dialect
}

// Parser is implemented per dialect.
type Parser interface {
	Parse(sql string, mode Mode) (Outcome, error)
}

// For looks up the Parser for a Dialect.
func For(d Dialect) (Parser, error) {
	switch d {
	case MySQL:
		return mysqlParser{}, nil
	case PostgreSQL:
		return postgresParser{}, nil
	default:
		return nil, errors.Errorf("no parser registered for dialect %v", d)
	}
}

// Parse is the package-level convenience entry point used by the guard.
func Parse(d Dialect, sql string, mode Mode) (Outcome, error) {
	p, err := For(d)
	if err != nil {
		return Outcome{}, err
	}
	return p.Parse(sql, mode)
}
