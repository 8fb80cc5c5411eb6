// Package sqlast defines a dialect-neutral statement model. Every dialect
// parser facade (MySQL, PostgreSQL, ...) produces values of these types, so
// rules never see a dialect-specific parse tree directly.
package sqlast

import "fmt"

// Kind tags the statement variant. Rules themselves dispatch through
// Statement.Accept rather than switching on Kind or using type assertions.
type Kind int

const (
	KindSelect Kind = iota
	KindUpdate
	KindDelete
	KindInsert
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindInsert:
		return "INSERT"
	case KindOther:
		return "OTHER"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TableRef names a table a statement reads or writes, optionally qualified
// by schema and aliased.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// Where captures what the parser could determine about a WHERE clause
// without a full expression evaluator.
type Where struct {
	Present     bool
	Text        string
	IsTautology bool // syntactic always-true shape: 1=1, 'a'='a', OR 1, ...
}

// Limit captures pagination bounds. RowCount/Offset are nil when the
// clause didn't specify that part (e.g. bare "LIMIT 10").
type Limit struct {
	Present  bool
	RowCount *int64
	Offset   *int64
}

// HasOrderBy reports whether Statement implementations expose an ORDER BY.
type HasOrderBy interface {
	OrderByPresent() bool
}

// Statement is the dialect-neutral AST node every dialect facade returns.
// It is a closed tagged union: Kind() tells the caller which concrete type
// to expect, and Accept dispatches to the matching Visitor method so callers
// never need a type switch of their own.
type Statement interface {
	Kind() Kind
	// Raw is the original source text of this single statement.
	Raw() string
	Accept(v Visitor) error
}

// SelectStatement models a SELECT, including UNION/INTERSECT/EXCEPT chains
// (IsSetOp) and SELECT ... INTO OUTFILE/DUMPFILE (IntoOutfile).
type SelectStatement struct {
	RawText       string
	Tables        []TableRef
	Columns       []string
	Where         Where
	Limit         Limit
	OrderBy       bool
	IsSetOp       bool
	IntoOutfile   bool
	FunctionCalls []string
}

func (s *SelectStatement) Kind() Kind               { return KindSelect }
func (s *SelectStatement) Raw() string               { return s.RawText }
func (s *SelectStatement) OrderByPresent() bool      { return s.OrderBy }
func (s *SelectStatement) Accept(v Visitor) error    { return v.VisitSelect(s) }

// UpdateStatement models an UPDATE ... SET ... [WHERE] [LIMIT].
type UpdateStatement struct {
	RawText       string
	Tables        []TableRef
	Where         Where
	Limit         Limit
	FunctionCalls []string
}

func (s *UpdateStatement) Kind() Kind            { return KindUpdate }
func (s *UpdateStatement) Raw() string            { return s.RawText }
func (s *UpdateStatement) Accept(v Visitor) error { return v.VisitUpdate(s) }

// DeleteStatement models a DELETE FROM ... [WHERE] [LIMIT].
type DeleteStatement struct {
	RawText       string
	Tables        []TableRef
	Where         Where
	Limit         Limit
	FunctionCalls []string
}

func (s *DeleteStatement) Kind() Kind            { return KindDelete }
func (s *DeleteStatement) Raw() string            { return s.RawText }
func (s *DeleteStatement) Accept(v Visitor) error { return v.VisitDelete(s) }

// InsertStatement models INSERT INTO ... (cols) VALUES (...) / INSERT ... SELECT.
type InsertStatement struct {
	RawText       string
	Tables        []TableRef
	Columns       []string
	HasSubselect  bool
	FunctionCalls []string
}

func (s *InsertStatement) Kind() Kind            { return KindInsert }
func (s *InsertStatement) Raw() string            { return s.RawText }
func (s *InsertStatement) Accept(v Visitor) error { return v.VisitInsert(s) }

// OtherStatement covers everything that parses but isn't one of the four
// DML kinds above: DDL, SET, CALL/EXEC, SHOW/DESCRIBE/EXPLAIN, transaction
// control, and anything the dialect facade fell back to Unparsed for.
type OtherStatement struct {
	RawText   string
	Keyword   string // first statement keyword, uppercased (CREATE, SET, CALL, ...)
	Unparsed  bool   // true when this came from a lenient-mode parse failure
}

func (s *OtherStatement) Kind() Kind            { return KindOther }
func (s *OtherStatement) Raw() string            { return s.RawText }
func (s *OtherStatement) Accept(v Visitor) error { return v.VisitRawSQL(s) }
