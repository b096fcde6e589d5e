// Package codegen renders an expanded AST to a string by dispatching every
// form to its plugin and applying the global hooks.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/open-cli-collective/brack/pkg/ast"
	"github.com/open-cli-collective/brack/pkg/plugin"
	"github.com/open-cli-collective/brack/pkg/token"
)

var (
	// ErrUnexpandedMacro is returned for an Angle node left in the tree.
	ErrUnexpandedMacro = errors.New("macro form was not expanded")
	// ErrInvalidNode is returned for an Invalid node or a form without a
	// valid head.
	ErrInvalidNode = errors.New("document contains an invalid construct")
)

// Host is the part of the plugin host the generator dispatches to.
type Host interface {
	ArgumentTypes(module, command string, kind plugin.TypeKind) ([]plugin.Argument, error)
	CallInline(ctx context.Context, module, command string, values []plugin.Value) (string, error)
	CallBlock(ctx context.Context, module, command string, values []plugin.Value) (string, error)
	CallDocumentHook(ctx context.Context, values []plugin.Value) (string, bool, error)
	CallStmtHook(ctx context.Context, values []plugin.Value) (string, bool, error)
	CallExprHook(ctx context.Context, values []plugin.Value) (string, bool, error)
	CallTextHook(ctx context.Context, values []plugin.Value) (string, bool, error)
}

// Error is an evaluation error at the span of the offending node. Context
// is module.command for forms and the hook name for hooks.
type Error struct {
	Span    token.Span
	Context string
	Err     error
}

func (e *Error) Error() string {
	pos := fmt.Sprintf("%d:%d", e.Span.Start.Line+1, e.Span.Start.Character+1)
	if e.Context == "" {
		return fmt.Sprintf("%s: %v", pos, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", pos, e.Context, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Generate renders root. Children are evaluated strictly left to right and
// the first error stops generation.
func Generate(ctx context.Context, root *ast.Node, host Host) (string, error) {
	g := &generator{ctx: ctx, host: host}
	return g.node(root)
}

type generator struct {
	ctx  context.Context
	host Host
}

type hookFunc func(ctx context.Context, values []plugin.Value) (string, bool, error)

func (g *generator) node(n *ast.Node) (string, error) {
	switch n.Kind {
	case ast.Text:
		return g.hook(n, plugin.HookText, g.host.CallTextHook, n.Value)
	case ast.Module, ast.Ident:
		return n.Value, nil
	case ast.Ignored:
		return "", nil
	case ast.Invalid:
		return "", &Error{Span: n.Span, Err: ErrInvalidNode}
	case ast.Expr:
		return g.concat(n, plugin.HookExpr, g.host.CallExprHook)
	case ast.Stmt:
		return g.concat(n, plugin.HookStmt, g.host.CallStmtHook)
	case ast.Document:
		return g.concat(n, plugin.HookDocument, g.host.CallDocumentHook)
	case ast.Square:
		return g.form(n, plugin.TInline, g.host.CallInline)
	case ast.Curly:
		return g.form(n, plugin.TBlock, g.host.CallBlock)
	case ast.Angle:
		module, ident, _ := n.Head()
		return "", &Error{Span: n.Span, Context: module + "." + ident, Err: ErrUnexpandedMacro}
	}
	return "", &Error{Span: n.Span, Err: fmt.Errorf("unknown node kind %s", n.Kind)}
}

func (g *generator) concat(n *ast.Node, hook plugin.Hook, call hookFunc) (string, error) {
	var sb strings.Builder
	for _, c := range n.Children {
		s, err := g.node(c)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return g.hook(n, hook, call, sb.String())
}

// hook substitutes buffered with the hook's result when a plugin provides it.
func (g *generator) hook(n *ast.Node, hook plugin.Hook, call hookFunc, buffered string) (string, error) {
	out, ok, err := call(g.ctx, []plugin.Value{plugin.Text(buffered)})
	if err != nil {
		return "", &Error{Span: n.Span, Context: hook.String() + " hook", Err: err}
	}
	if !ok {
		return buffered, nil
	}
	return out, nil
}

type formFunc func(ctx context.Context, module, command string, values []plugin.Value) (string, error)

func (g *generator) form(n *ast.Node, kind plugin.TypeKind, call formFunc) (string, error) {
	module, ident, ok := n.Head()
	if !ok {
		return "", &Error{Span: n.Span, Err: ErrInvalidNode}
	}
	name := module + "." + ident

	params, err := g.host.ArgumentTypes(module, ident, kind)
	if err != nil {
		return "", &Error{Span: n.Span, Context: name, Err: unwrapCall(err)}
	}

	var actuals []string
	for _, c := range n.Children[2:] {
		if c.Kind == ast.Ignored {
			continue
		}
		if c.Kind == ast.Invalid {
			return "", &Error{Span: c.Span, Context: name, Err: ErrInvalidNode}
		}
		s, err := g.node(c)
		if err != nil {
			return "", err
		}
		actuals = append(actuals, s)
	}

	values, err := plugin.Pack(ident, params, actuals)
	if err != nil {
		return "", &Error{Span: n.Span, Context: name, Err: err}
	}
	out, err := call(g.ctx, module, ident, values)
	if err != nil {
		return "", &Error{Span: n.Span, Context: name, Err: unwrapCall(err)}
	}
	return out, nil
}

// unwrapCall drops a plugin.CallError wrapper whose module and command
// Error.Context already carries.
func unwrapCall(err error) error {
	if callErr, ok := err.(*plugin.CallError); ok {
		return callErr.Err
	}
	return err
}
