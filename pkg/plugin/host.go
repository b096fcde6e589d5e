package plugin

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/open-cli-collective/brack/pkg/ast"
)

// Hook identifies one of the optional global hooks.
type Hook int

const (
	HookDocument Hook = iota
	HookStmt
	HookExpr
	HookText
	hookCount
)

var hookNames = [...]string{
	HookDocument: "document",
	HookStmt:     "stmt",
	HookExpr:     "expr",
	HookText:     "text",
}

// Hooks lists every global hook.
func Hooks() []Hook {
	return []Hook{HookDocument, HookStmt, HookExpr, HookText}
}

// String returns the command name a plugin exports for the hook.
func (h Hook) String() string {
	if h >= 0 && h < hookCount {
		return hookNames[h]
	}
	return fmt.Sprintf("Hook(%d)", int(h))
}

// Kind is the return type the hook command must declare.
func (h Hook) Kind() TypeKind {
	if h == HookDocument || h == HookStmt {
		return TBlock
	}
	return TInline
}

// Features records which global hooks a plugin implements.
type Features struct {
	DocumentHook bool `yaml:"document_hook,omitempty" json:"document_hook,omitempty"`
	StmtHook     bool `yaml:"stmt_hook,omitempty" json:"stmt_hook,omitempty"`
	ExprHook     bool `yaml:"expr_hook,omitempty" json:"expr_hook,omitempty"`
	TextHook     bool `yaml:"text_hook,omitempty" json:"text_hook,omitempty"`
}

// Has reports whether the hook flag is set.
func (f Features) Has(h Hook) bool {
	switch h {
	case HookDocument:
		return f.DocumentHook
	case HookStmt:
		return f.StmtHook
	case HookExpr:
		return f.ExprHook
	case HookText:
		return f.TextHook
	}
	return false
}

// Descriptor names a plugin to load. Open, when set, replaces reading a
// WASM binary from Path.
type Descriptor struct {
	Name     string
	Path     string
	Features Features
	Open     func(ctx context.Context) (Instance, error)
}

type commandKey struct {
	name string
	kind TypeKind
}

// Plugin is a registered instance with its indexed metadata.
type Plugin struct {
	Name     string
	Features Features

	mu       sync.Mutex
	instance Instance
	commands map[commandKey]Metadata
}

// Commands returns the plugin's metadata ordered by command name and kind.
func (p *Plugin) Commands() []Metadata {
	out := make([]Metadata, 0, len(p.commands))
	for _, md := range p.commands {
		out = append(out, md)
	}
	slices.SortFunc(out, func(a, b Metadata) int {
		if c := cmp.Compare(a.CommandName, b.CommandName); c != 0 {
			return c
		}
		return cmp.Compare(a.ReturnType.Kind, b.ReturnType.Kind)
	})
	return out
}

func (p *Plugin) call(ctx context.Context, symbol string, payload []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instance.Call(ctx, symbol, payload)
}

// Host owns the plugins of one compilation and dispatches calls to them.
type Host struct {
	plugins map[string]*Plugin
	order   []*Plugin
	hooks   [hookCount]*Plugin
}

// NewHost returns an empty host.
func NewHost() *Host {
	return &Host{plugins: make(map[string]*Plugin)}
}

// Load instantiates and registers each descriptor in order. Plugins loaded
// before a failure stay registered and are released by Close.
func (h *Host) Load(ctx context.Context, descs ...Descriptor) error {
	for _, d := range descs {
		var inst Instance
		var err error
		if d.Open != nil {
			inst, err = d.Open(ctx)
		} else {
			inst, err = LoadWASM(ctx, d.Name, d.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to load plugin %s: %w", d.Name, err)
		}
		if err := h.Register(ctx, d.Name, d.Features, inst); err != nil {
			return err
		}
	}
	return nil
}

// Register indexes the metadata of inst under name and claims the global
// hooks in features. On failure inst is closed and the host is unchanged.
func (h *Host) Register(ctx context.Context, name string, features Features, inst Instance) (err error) {
	defer func() {
		if err != nil {
			_ = inst.Close(ctx)
		}
	}()

	if name == "" {
		return errors.New("plugin name is required")
	}
	if _, ok := h.plugins[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}

	raw, err := inst.Call(ctx, MetadataSymbol, nil)
	if err != nil {
		return fmt.Errorf("failed to get metadata from plugin %s: %w", name, err)
	}
	var records []Metadata
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("failed to parse metadata from plugin %s: %w", name, err)
	}

	p := &Plugin{
		Name:     name,
		Features: features,
		instance: inst,
		commands: make(map[commandKey]Metadata, len(records)),
	}
	for _, md := range records {
		if err := md.Validate(); err != nil {
			return fmt.Errorf("invalid metadata in plugin %s: %w", name, err)
		}
		key := commandKey{name: md.CommandName, kind: md.ReturnType.Kind}
		if _, ok := p.commands[key]; ok {
			return fmt.Errorf("invalid metadata in plugin %s: duplicate %s command %q", name, key.kind, key.name)
		}
		if !inst.Exports(md.CallName) {
			return fmt.Errorf("plugin %s: command %q: function %q is not exported", name, md.CommandName, md.CallName)
		}
		p.commands[key] = md
	}

	for _, hook := range Hooks() {
		if !features.Has(hook) {
			continue
		}
		if _, ok := p.commands[commandKey{name: hook.String(), kind: hook.Kind()}]; !ok {
			return fmt.Errorf("%w: plugin %s declares %s_hook but has no %s command %q", ErrMissingHook, name, hook, hook.Kind(), hook)
		}
		if other := h.hooks[hook]; other != nil {
			return fmt.Errorf("%w: %s hook of plugin %s is already provided by %s", ErrDuplicateHook, hook, name, other.Name)
		}
	}

	for _, hook := range Hooks() {
		if features.Has(hook) {
			h.hooks[hook] = p
			log.Printf("DEBUG: plugin %s provides the %s hook", name, hook)
		}
	}
	h.plugins[name] = p
	h.order = append(h.order, p)
	log.Printf("DEBUG: loaded plugin %s (%d commands)", name, len(records))
	return nil
}

// Plugins returns the registered plugins in load order.
func (h *Host) Plugins() []*Plugin {
	return slices.Clone(h.order)
}

// ArgumentTypes returns the positional parameters of module.command for
// the given dispatch kind.
func (h *Host) ArgumentTypes(module, command string, kind TypeKind) ([]Argument, error) {
	_, md, err := h.lookup(module, command, kind)
	if err != nil {
		return nil, err
	}
	return md.ArgumentTypes, nil
}

// CallInline renders a square form.
func (h *Host) CallInline(ctx context.Context, module, command string, values []Value) (string, error) {
	return h.callText(ctx, module, command, TInline, values)
}

// CallBlock renders a curly form.
func (h *Host) CallBlock(ctx context.Context, module, command string, values []Value) (string, error) {
	return h.callText(ctx, module, command, TBlock, values)
}

// CallMacro expands an angle form. The plugin receives the whole document
// and the ID of the invoking node, and returns the replacement node.
func (h *Host) CallMacro(ctx context.Context, module, command string, root *ast.Node, id string) (*ast.Node, error) {
	p, md, err := h.lookup(module, command, TAST)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal([]any{root, id})
	if err != nil {
		return nil, &CallError{Module: module, Command: command, Err: fmt.Errorf("failed to encode document: %w", err)}
	}
	out, err := p.call(ctx, md.CallName, payload)
	if err != nil {
		return nil, &CallError{Module: module, Command: command, Err: err}
	}
	var node ast.Node
	if err := json.Unmarshal(out, &node); err != nil {
		return nil, &CallError{Module: module, Command: command, Err: fmt.Errorf("invalid AST returned: %w", err)}
	}
	return &node, nil
}

// CallDocumentHook runs the document hook. ok is false when no plugin
// provides it.
func (h *Host) CallDocumentHook(ctx context.Context, values []Value) (string, bool, error) {
	return h.callHook(ctx, HookDocument, values)
}

// CallStmtHook runs the stmt hook, if any.
func (h *Host) CallStmtHook(ctx context.Context, values []Value) (string, bool, error) {
	return h.callHook(ctx, HookStmt, values)
}

// CallExprHook runs the expr hook, if any.
func (h *Host) CallExprHook(ctx context.Context, values []Value) (string, bool, error) {
	return h.callHook(ctx, HookExpr, values)
}

// CallTextHook runs the text hook, if any.
func (h *Host) CallTextHook(ctx context.Context, values []Value) (string, bool, error) {
	return h.callHook(ctx, HookText, values)
}

// Close releases every plugin instance.
func (h *Host) Close(ctx context.Context) error {
	var errs []error
	for _, p := range h.order {
		if err := p.instance.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close plugin %s: %w", p.Name, err))
		}
	}
	h.plugins = make(map[string]*Plugin)
	h.order = nil
	h.hooks = [hookCount]*Plugin{}
	return errors.Join(errs...)
}

func (h *Host) callHook(ctx context.Context, hook Hook, values []Value) (string, bool, error) {
	p := h.hooks[hook]
	if p == nil {
		return "", false, nil
	}
	out, err := h.callText(ctx, p.Name, hook.String(), hook.Kind(), values)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

func (h *Host) callText(ctx context.Context, module, command string, kind TypeKind, values []Value) (string, error) {
	p, md, err := h.lookup(module, command, kind)
	if err != nil {
		return "", err
	}
	if values == nil {
		values = []Value{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return "", &CallError{Module: module, Command: command, Err: fmt.Errorf("failed to encode arguments: %w", err)}
	}
	out, err := p.call(ctx, md.CallName, payload)
	if err != nil {
		return "", &CallError{Module: module, Command: command, Err: err}
	}
	return string(out), nil
}

func (h *Host) lookup(module, command string, kind TypeKind) (*Plugin, Metadata, error) {
	p, ok := h.plugins[module]
	if !ok {
		return nil, Metadata{}, &CallError{Module: module, Command: command, Err: ErrPluginNotFound}
	}
	md, ok := p.commands[commandKey{name: command, kind: kind}]
	if !ok {
		return nil, Metadata{}, &CallError{Module: module, Command: command, Err: fmt.Errorf("%w: no %s command", ErrCommandNotFound, kind)}
	}
	return p, md, nil
}
