package sqlparse

import (
	"strings"

	"github.com/antlr4-go/antlr/v4"
	pg "github.com/bytebase/parser/postgresql"
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-guard/internal/sqlast"
)

type postgresParser struct{}

// Like the MySQL facade, the PostgreSQL facade walks the tree generically
// by rule-name text instead of naming concrete generated context types, so
// it never has to guess an accessor method that may not exist.
func (postgresParser) Parse(sql string, mode Mode) (Outcome, error) {
	pieces := splitStatements(sql)
	if len(pieces) == 0 {
		return Outcome{}, errors.New("empty SQL statement")
	}

	stmt, err := parsePostgresStatement(pieces[0], mode)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Primary:        stmt,
		StatementCount: len(pieces),
		Dialect:        PostgreSQL,
	}, nil
}

func parsePostgresStatement(sql string, mode Mode) (sqlast.Statement, error) {
	input := antlr.NewInputStream(sql)
	lexer := pg.NewPostgreSQLLexer(input)
	lexerListener := &mysqlSyntaxErrorListener{}
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(lexerListener)

	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)

	p := pg.NewPostgreSQLParser(stream)
	p.BuildParseTrees = true
	parserListener := &mysqlSyntaxErrorListener{}
	p.RemoveErrorListeners()
	p.AddErrorListener(parserListener)

	tree := p.Root()

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

	w := &pgWalker{tokens: stream}
	antlr.ParseTreeWalkerDefault.Walk(w, tree)
	return w.statement(sql), nil
}

// pgWalker drives a generic antlr.ParseTreeListener via EnterEveryRule, the
// same dispatch shape the MySQL walker uses, but classifies WHERE/LIMIT
// nodes by substring match on the lower-cased rule name instead of the
// MySQL walker's exact rule-name match.
type pgWalker struct {
	*pg.BasePostgreSQLParserListener
	tokens *antlr.CommonTokenStream

	top     antlr.ParserRuleContext
	topKind sqlast.Kind

	hasWhere  bool
	whereText string
	hasLimit  bool
	limitText string
}

func (w *pgWalker) EnterEveryRule(ctx antlr.ParserRuleContext) {
	lower := strings.ToLower(nodeType(ctx))
	switch {
	case lower == "selectstmt":
		w.setTop(ctx, sqlast.KindSelect)
	case lower == "updatestmt":
		w.setTop(ctx, sqlast.KindUpdate)
	case lower == "deletestmt":
		w.setTop(ctx, sqlast.KindDelete)
	case lower == "insertstmt":
		w.setTop(ctx, sqlast.KindInsert)
	case strings.Contains(lower, "where"):
		if !w.hasWhere && w.belongsToTop(ctx) {
			w.hasWhere = true
			w.whereText = w.text(ctx)
		}
	case strings.Contains(lower, "limit") || strings.Contains(lower, "select_fetch_first"):
		if !w.hasLimit && w.belongsToTop(ctx) {
			w.hasLimit = true
			w.limitText = w.text(ctx)
		}
	}
}

func (w *pgWalker) setTop(ctx antlr.ParserRuleContext, k sqlast.Kind) {
	if w.top == nil {
		w.top = ctx
		w.topKind = k
	}
}

func (w *pgWalker) belongsToTop(ctx antlr.ParserRuleContext) bool {
	if w.top == nil {
		return false
	}
	var cur antlr.Tree = ctx.GetParent()
	for cur != nil {
		if prc, ok := cur.(antlr.ParserRuleContext); ok {
			switch strings.ToLower(nodeType(prc)) {
			case "selectstmt", "updatestmt", "deletestmt", "insertstmt":
				return prc == w.top
			}
		}
		cur = cur.GetParent()
	}
	return false
}

func (w *pgWalker) text(ctx antlr.ParserRuleContext) string {
	return w.tokens.GetTextFromInterval(ctx.GetSourceInterval())
}

func (w *pgWalker) statement(raw string) sqlast.Statement {
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
			RawText:     raw,
			Tables:      tables,
			Columns:     extractSelectColumns(topText),
			Where:       where,
			Limit:       limit,
			OrderBy:     orderByRe.MatchString(topText),
			IsSetOp:     setOpRe.MatchString(topText),
			IntoOutfile: false, // PostgreSQL has COPY TO instead; handled as OtherStatement keyword "COPY"
		}
	case sqlast.KindUpdate:
		return &sqlast.UpdateStatement{RawText: raw, Tables: tables, Where: where, Limit: limit}
	case sqlast.KindDelete:
		return &sqlast.DeleteStatement{RawText: raw, Tables: tables, Where: where, Limit: limit}
	case sqlast.KindInsert:
		return &sqlast.InsertStatement{RawText: raw, Tables: tables, Columns: extractInsertColumns(topText), HasSubselect: selectInsertRe.MatchString(topText)}
	default:
		return &sqlast.OtherStatement{RawText: raw, Keyword: firstKeyword(raw)}
	}
}
