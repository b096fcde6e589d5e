// Package parser builds the concrete syntax tree from a token stream.
//
// The parser is recursive descent and total: every token sequence yields a
// Document. Unclosed forms come back without their closing leaf and are
// reported later by the transformer.
//
//	Document    ::= (Stmt | NewLine)* EOF
//	Stmt        ::= ExprOrClose+ (NewLine ExprOrClose+)*
//	ExprOrClose ::= Expr | BracketClose
//	Expr        ::= (Escaped | Module | Ident | Bracket | Dot | Comma | Whitespace | Text)+
//	Bracket     ::= Open (Expr | NewLine)* Close?
//	Escaped     ::= '\' (Dot | Comma | Open | Close | '\')?
package parser

import (
	"github.com/open-cli-collective/brack/pkg/cst"
	"github.com/open-cli-collective/brack/pkg/nodeid"
	"github.com/open-cli-collective/brack/pkg/token"
)

// Parse builds a Document from tokens. It returns the tokens left after EOF,
// which is empty for tokenizer output.
func Parse(tokens []token.Token) (*cst.Node, []token.Token) {
	doc := cst.NewInner(cst.Document)

	for len(tokens) > 0 {
		switch tokens[0].Kind {
		case token.EOF:
			doc.Add(cst.NewLeaf(tokens[0]))
			return doc, tokens[1:]
		case token.NewLine:
			doc.Add(cst.NewLeaf(tokens[0]))
			tokens = tokens[1:]
		default:
			stmt, rest, ok := parseStmt(tokens)
			if !ok {
				// Unreachable for well-formed streams; keep the token so
				// the tree still covers the input.
				doc.Add(cst.NewLeaf(tokens[0]))
				tokens = tokens[1:]
				continue
			}
			doc.Add(stmt)
			tokens = rest
		}
	}

	return doc, nil
}

func parseStmt(tokens []token.Token) (*cst.Node, []token.Token, bool) {
	stmt := cst.NewInner(cst.Stmt)

	for {
		n, rest, ok := parseExprOrClose(tokens)
		if !ok {
			break
		}
		stmt.Add(n)
		tokens = rest

		// A single newline continues the statement; a blank line ends it.
		if len(tokens) >= 2 && tokens[0].Kind == token.NewLine && startsExprOrClose(tokens[1]) {
			stmt.Add(cst.NewLeaf(tokens[0]))
			tokens = tokens[1:]
		}
	}

	if len(stmt.Children) == 0 {
		return nil, tokens, false
	}
	return stmt, tokens, true
}

func startsExprOrClose(t token.Token) bool {
	return t.Kind != token.NewLine && t.Kind != token.EOF
}

func parseExprOrClose(tokens []token.Token) (*cst.Node, []token.Token, bool) {
	if len(tokens) == 0 {
		return nil, tokens, false
	}
	if tokens[0].Kind.IsClose() {
		return cst.NewLeaf(tokens[0]), tokens[1:], true
	}
	return parseExpr(tokens)
}

func parseExpr(tokens []token.Token) (*cst.Node, []token.Token, bool) {
	expr := cst.NewInner(cst.Expr)

loop:
	for len(tokens) > 0 {
		t := tokens[0]
		switch {
		case t.Kind == token.BackSlash:
			var n *cst.Node
			n, tokens = parseEscaped(tokens)
			expr.Add(n)
		case t.Kind.IsOpen():
			var n *cst.Node
			n, tokens = parseBracket(tokens)
			expr.Add(n)
		case isExprLeaf(t.Kind):
			expr.Add(cst.NewLeaf(t))
			tokens = tokens[1:]
		default:
			break loop
		}
	}

	if len(expr.Children) == 0 {
		return nil, tokens, false
	}
	return expr, tokens, true
}

func isExprLeaf(k token.Kind) bool {
	switch k {
	case token.Text, token.Module, token.Ident, token.Dot, token.Comma, token.Whitespace:
		return true
	}
	return false
}

var bracketKinds = map[token.Kind]cst.Kind{
	token.AngleBracketOpen:  cst.Angle,
	token.CurlyBracketOpen:  cst.Curly,
	token.SquareBracketOpen: cst.Square,
}

// parseBracket consumes an opener, its body and the first closer of any
// family. Family mismatches are left for the transformer.
func parseBracket(tokens []token.Token) (*cst.Node, []token.Token) {
	node := cst.NewInner(bracketKinds[tokens[0].Kind], cst.NewLeaf(tokens[0]))
	tokens = tokens[1:]

	for len(tokens) > 0 {
		t := tokens[0]
		switch {
		case t.Kind.IsClose():
			node.Add(cst.NewLeaf(t))
			return node, tokens[1:]
		case t.Kind == token.NewLine:
			node.Add(cst.NewLeaf(t))
			tokens = tokens[1:]
		case t.Kind == token.EOF:
			return node, tokens
		default:
			expr, rest, ok := parseExpr(tokens)
			if !ok {
				return node, tokens
			}
			node.Add(expr)
			tokens = rest
		}
	}

	return node, tokens
}

func isEscapable(k token.Kind) bool {
	switch k {
	case token.Dot, token.Comma, token.BackSlash:
		return true
	}
	return k.IsOpen() || k.IsClose()
}

// parseEscaped turns '\' plus an escapable token into a BackSlash node
// holding the literal as Text. A lone backslash yields an empty node.
func parseEscaped(tokens []token.Token) (*cst.Node, []token.Token) {
	bs := tokens[0]
	node := &cst.Node{ID: nodeid.New(), Kind: cst.BackSlash, Span: bs.Span}
	tokens = tokens[1:]

	if len(tokens) > 0 && isEscapable(tokens[0].Kind) {
		lit := tokens[0]
		node.Children = []*cst.Node{{
			ID:    nodeid.New(),
			Kind:  cst.Text,
			Value: lit.Value,
			Span:  lit.Span,
		}}
		node.Span = bs.Span.Merge(lit.Span)
		tokens = tokens[1:]
	}

	return node, tokens
}
