package sqlparse

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/antlr4-go/antlr/v4"
	mysql "github.com/gedhean/mysql-parser"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/sqlast"
)

type mysqlParser struct{}

func (mysqlParser) Parse(sql string, mode Mode) (Outcome, error) {
	pieces := splitStatements(sql)
	if len(pieces) == 0 {
		return Outcome{}, errors.New("empty SQL statement")
	}

	stmt, err := parseMySQLStatement(pieces[0], mode)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Primary:        stmt,
		StatementCount: len(pieces),
		Dialect:        MySQL,
	}, nil
}

// mysqlSyntaxErrorListener collects the first syntax error encountered.
type mysqlSyntaxErrorListener struct {
	*antlr.DefaultErrorListener
	err *SyntaxError
}

// SyntaxError is a dialect-neutral parse failure with position info.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return "syntax error at line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + ": " + e.Message
}

func (l *mysqlSyntaxErrorListener) SyntaxError(_ antlr.Recognizer, _ interface{}, line, column int, msg string, _ antlr.RecognitionException) {
	if l.err == nil {
		l.err = &SyntaxError{Line: line, Column: column, Message: msg}
	}
}

func parseMySQLStatement(sql string, mode Mode) (sqlast.Statement, error) {
	input := antlr.NewInputStream(sql)
	lexer := mysql.NewMySQLLexer(input)
	lexerListener := &mysqlSyntaxErrorListener{}
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(lexerListener)

	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)

	p := mysql.NewMySQLParser(stream)
	p.BuildParseTrees = true
	parserListener := &mysqlSyntaxErrorListener{}
	p.RemoveErrorListeners()
	p.AddErrorListener(parserListener)

	tree := p.Script()

	var parseErr error
	if lexerListener.err != nil {
		parseErr = lexerListener.err
	} else if parserListener.err != nil {
		parseErr = parserListener.err
	}

	if parseErr != nil {
		if mode == Strict {
			return nil, parseErr
		}
		return &sqlast.OtherStatement{RawText: sql, Keyword: firstKeyword(sql), Unparsed: true}, nil
	}

	w := &mysqlWalker{tokens: stream}
	antlr.ParseTreeWalkerDefault.Walk(w, tree)
	return w.statement(sql), nil
}

// mysqlWalker implements mysql.MySQLParserListener via a generic
// reflection-based node-type dispatch, accumulating just enough structure
// to populate sqlast.Statement.
type mysqlWalker struct {
	*mysql.BaseMySQLParserListener
	tokens *antlr.CommonTokenStream

	top     antlr.ParserRuleContext
	topKind sqlast.Kind

	hasWhere    bool
	whereText   string
	hasLimit    bool
	limitText   string
	functions   []string
}

func (w *mysqlWalker) EnterEveryRule(ctx antlr.ParserRuleContext) {
	switch nodeType(ctx) {
	case "SelectStatement":
		w.setTop(ctx, sqlast.KindSelect)
	case "UpdateStatement":
		w.setTop(ctx, sqlast.KindUpdate)
	case "DeleteStatement":
		w.setTop(ctx, sqlast.KindDelete)
	case "InsertStatement":
		w.setTop(ctx, sqlast.KindInsert)
	case "WhereClause":
		if !w.hasWhere && w.belongsToTop(ctx) {
			w.hasWhere = true
			w.whereText = w.text(ctx)
		}
	case "LimitClause", "SimpleLimitClause":
		if !w.hasLimit && w.belongsToTop(ctx) {
			w.hasLimit = true
			w.limitText = w.text(ctx)
		}
	case "FunctionCall":
		if name := functionName(w.text(ctx)); name != "" {
			w.functions = append(w.functions, strings.ToUpper(name))
		}
	}
}

func (w *mysqlWalker) setTop(ctx antlr.ParserRuleContext, k sqlast.Kind) {
	if w.top == nil {
		w.top = ctx
		w.topKind = k
	}
}

// belongsToTop reports whether ctx's nearest DML-statement ancestor is the
// statement we're building, so a WHERE/LIMIT inside a subquery isn't
// mistaken for the outer statement's clause.
func (w *mysqlWalker) belongsToTop(ctx antlr.ParserRuleContext) bool {
	if w.top == nil {
		return false
	}
	var cur antlr.Tree = ctx.GetParent()
	for cur != nil {
		if prc, ok := cur.(antlr.ParserRuleContext); ok {
			switch nodeType(prc) {
			case "SelectStatement", "UpdateStatement", "DeleteStatement", "InsertStatement":
				return prc == w.top
			}
		}
		cur = cur.GetParent()
	}
	return false
}

func (w *mysqlWalker) text(ctx antlr.ParserRuleContext) string {
	return w.tokens.GetTextFromInterval(ctx.GetSourceInterval())
}

func (w *mysqlWalker) statement(raw string) sqlast.Statement {
	if w.top == nil {
		return &sqlast.OtherStatement{RawText: raw, Keyword: firstKeyword(raw)}
	}

	topText := w.text(w.top)
	where := sqlast.Where{Present: w.hasWhere, Text: w.whereText, IsTautology: isTautology(w.whereText)}
	limit := parseLimit(w.limitText)
	tables := toTableRefs(extractTables(topText, w.topKind))

	switch w.topKind {
	case sqlast.KindSelect:
		return &sqlast.SelectStatement{
			RawText:       raw,
			Tables:        tables,
			Columns:       extractSelectColumns(topText),
			Where:         where,
			Limit:         limit,
			OrderBy:       orderByRe.MatchString(topText),
			IsSetOp:       setOpRe.MatchString(topText),
			IntoOutfile:   intoOutfileRe.MatchString(topText),
			FunctionCalls: w.functions,
		}
	case sqlast.KindUpdate:
		return &sqlast.UpdateStatement{RawText: raw, Tables: tables, Where: where, Limit: limit, FunctionCalls: w.functions}
	case sqlast.KindDelete:
		return &sqlast.DeleteStatement{RawText: raw, Tables: tables, Where: where, Limit: limit, FunctionCalls: w.functions}
	case sqlast.KindInsert:
		return &sqlast.InsertStatement{
			RawText:       raw,
			Tables:        tables,
			Columns:       extractInsertColumns(topText),
			HasSubselect:  selectInsertRe.MatchString(topText),
			FunctionCalls: w.functions,
		}
	default:
		return &sqlast.OtherStatement{RawText: raw, Keyword: firstKeyword(raw)}
	}
}

// nodeType returns the parse-tree rule name for ctx (e.g. "WhereClause") via
// reflection, so dispatch never has to hardcode every generated context
// type.
func nodeType(ctx antlr.ParserRuleContext) string {
	t := reflect.TypeOf(ctx)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.TrimSuffix(t.Name(), "Context")
}

var (
	fromRe         = regexp.MustCompile(`(?is)\bFROM\s+([a-zA-Z0-9_.\x60]+)`)
	updateRe       = regexp.MustCompile(`(?is)^\s*UPDATE\s+(?:LOW_PRIORITY\s+|IGNORE\s+)*([a-zA-Z0-9_.\x60]+)`)
	insertIntoRe   = regexp.MustCompile(`(?is)\bINTO\s+([a-zA-Z0-9_.\x60]+)`)
	joinRe         = regexp.MustCompile(`(?is)\bJOIN\s+([a-zA-Z0-9_.\x60]+)`)
	selectListRe   = regexp.MustCompile(`(?is)^\s*SELECT\s+(?:ALL\s+|DISTINCT\s+|DISTINCTROW\s+)?(.*?)\s+FROM\b`)
	insertColsRe   = regexp.MustCompile(`(?is)INTO\s+[a-zA-Z0-9_.\x60]+\s*\(([^)]*)\)`)
	orderByRe      = regexp.MustCompile(`(?is)\bORDER\s+BY\b`)
	setOpRe        = regexp.MustCompile(`(?is)\b(UNION|INTERSECT|EXCEPT)\b`)
	intoOutfileRe  = regexp.MustCompile(`(?is)\bINTO\s+(OUTFILE|DUMPFILE)\b`)
	selectInsertRe = regexp.MustCompile(`(?is)\bSELECT\b`)
	limitOffsetRe  = regexp.MustCompile(`(?is)LIMIT\s+(\d+)\s*,\s*(\d+)`)
	limitRowsRe    = regexp.MustCompile(`(?is)LIMIT\s+(\d+)(?:\s+OFFSET\s+(\d+))?`)
	firstWordRe    = regexp.MustCompile(`(?s)^\s*([a-zA-Z]+)`)
	functionNameRe = regexp.MustCompile(`(?s)^([a-zA-Z0-9_.]+)\s*\(`)
	tautologyRe    = regexp.MustCompile(`(?is)(^|[^0-9a-zA-Z_])(1\s*=\s*1|'[^']*'\s*=\s*'[^']*'|OR\s+1\b|1\s+OR\b)`)
)

func extractTables(text string, kind sqlast.Kind) []TableRefSlice {
	var refs []TableRefSlice
	add := func(name string) {
		if name == "" {
			return
		}
		refs = append(refs, TableRefSlice(cleanIdent(name)))
	}
	switch kind {
	case sqlast.KindUpdate:
		if m := updateRe.FindStringSubmatch(text); m != nil {
			add(m[1])
		}
	case sqlast.KindDelete:
		if m := fromRe.FindStringSubmatch(text); m != nil {
			add(m[1])
		}
	case sqlast.KindInsert:
		if m := insertIntoRe.FindStringSubmatch(text); m != nil {
			add(m[1])
		}
	case sqlast.KindSelect:
		if m := fromRe.FindStringSubmatch(text); m != nil {
			add(m[1])
		}
		for _, m := range joinRe.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}
	return refs
}

// TableRefSlice exists only to let extractTables build sqlast.TableRef
// values without importing sqlast twice in this file's helper signatures.
type TableRefSlice string

func cleanIdent(s string) string {
	return strings.Trim(s, "`\"[] \t\r\n")
}

func toTableRefs(names []TableRefSlice) []sqlast.TableRef {
	var out []sqlast.TableRef
	for _, n := range names {
		schema, name := splitQualified(string(n))
		out = append(out, sqlast.TableRef{Schema: schema, Name: name})
	}
	return out
}

func splitQualified(s string) (schema, name string) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) == 2 {
		return cleanIdent(parts[0]), cleanIdent(parts[1])
	}
	return "", cleanIdent(s)
}

func extractSelectColumns(text string) []string {
	m := selectListRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return splitTopLevel(m[1])
}

func extractInsertColumns(text string) []string {
	m := insertColsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return splitTopLevel(m[1])
}

// splitTopLevel splits a comma list on commas that aren't nested inside
// parentheses, and trims each element.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if start < len(s) {
		if tail := strings.TrimSpace(s[start:]); tail != "" {
			out = append(out, tail)
		}
	}
	return out
}

func functionName(text string) string {
	m := functionNameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	parts := strings.Split(m[1], ".")
	return parts[len(parts)-1]
}

func firstKeyword(sql string) string {
	m := firstWordRe.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func isTautology(whereText string) bool {
	if whereText == "" {
		return false
	}
	return tautologyRe.MatchString(whereText)
}

func parseLimit(text string) sqlast.Limit {
	if text == "" {
		return sqlast.Limit{}
	}
	if m := limitOffsetRe.FindStringSubmatch(text); m != nil {
		offset, _ := strconv.ParseInt(m[1], 10, 64)
		rows, _ := strconv.ParseInt(m[2], 10, 64)
		return sqlast.Limit{Present: true, RowCount: &rows, Offset: &offset}
	}
	if m := limitRowsRe.FindStringSubmatch(text); m != nil {
		rows, _ := strconv.ParseInt(m[1], 10, 64)
		l := sqlast.Limit{Present: true, RowCount: &rows}
		if m[2] != "" {
			off, _ := strconv.ParseInt(m[2], 10, 64)
			l.Offset = &off
		}
		return l
	}
	return sqlast.Limit{Present: true}
}

// splitStatements splits SQL text on top-level semicolons, skipping
// semicolons inside string/identifier quoting and comments. A simpler
// quote-aware scanner than a full ANTLR-token-aware splitter, since
// multi-statement detection only needs an accurate *count* and the first
// statement's text, not line/column bookkeeping for every piece.
func splitStatements(sql string) []string {
	var out []string
	var buf strings.Builder
	runes := []rune(sql)
	n := len(runes)
	inSingle, inDouble, inBacktick := false, false, false
	for i := 0; i < n; i++ {
		c := runes[i]
		switch {
		case inSingle:
			buf.WriteRune(c)
			if c == '\'' && !(i+1 < n && runes[i+1] == '\'') {
				inSingle = false
			} else if c == '\'' {
				buf.WriteRune(runes[i+1])
				i++
			}
			continue
		case inDouble:
			buf.WriteRune(c)
			if c == '"' {
				inDouble = false
			}
			continue
		case inBacktick:
			buf.WriteRune(c)
			if c == '`' {
				inBacktick = false
			}
			continue
		}

		if c == '-' && i+1 < n && runes[i+1] == '-' {
			for i < n && runes[i] != '\n' {
				buf.WriteRune(runes[i])
				i++
			}
			i-- // let the loop handle the terminating newline
			continue
		}
		if c == '/' && i+1 < n && runes[i+1] == '*' {
			j := i
			for j < n-1 && !(runes[j] == '*' && runes[j+1] == '/') {
				buf.WriteRune(runes[j])
				j++
			}
			if j < n-1 {
				buf.WriteRune(runes[j])
				buf.WriteRune(runes[j+1])
				j++
			}
			i = j
			continue
		}
		switch c {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case '`':
			inBacktick = true
		case ';':
			stmt := strings.TrimSpace(buf.String())
			if stmt != "" {
				out = append(out, stmt)
			}
			buf.Reset()
			continue
		}
		buf.WriteRune(c)
	}
	if tail := strings.TrimSpace(buf.String()); tail != "" {
		out = append(out, tail)
	}
	return out
}
