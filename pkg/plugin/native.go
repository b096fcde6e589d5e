package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-cli-collective/brack/pkg/ast"
)

// Func is one exported function of a native plugin.
type Func func(ctx context.Context, payload []byte) ([]byte, error)

// Native is an in-process plugin backed by Go functions. It speaks the
// same payload encoding as a WASM plugin.
type Native struct {
	metadata []Metadata
	funcs    map[string]Func
}

// NewNative builds a native plugin. get_metadata is answered from metadata.
func NewNative(metadata []Metadata, funcs map[string]Func) *Native {
	return &Native{metadata: metadata, funcs: funcs}
}

func (n *Native) Call(ctx context.Context, symbol string, payload []byte) ([]byte, error) {
	if symbol == MetadataSymbol {
		return json.Marshal(n.metadata)
	}
	fn, ok := n.funcs[symbol]
	if !ok {
		return nil, fmt.Errorf("function %q is not exported", symbol)
	}
	return fn(ctx, payload)
}

func (n *Native) Exports(symbol string) bool {
	if symbol == MetadataSymbol {
		return true
	}
	_, ok := n.funcs[symbol]
	return ok
}

func (n *Native) Close(context.Context) error {
	return nil
}

// TextFunc adapts a function over decoded values into a Func for an
// inline, block or hook command.
func TextFunc(fn func(args []Value) (string, error)) Func {
	return func(_ context.Context, payload []byte) ([]byte, error) {
		var args []Value
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, fmt.Errorf("failed to decode arguments: %w", err)
		}
		out, err := fn(args)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
}

// MacroFunc adapts a function over the whole document and the invoking
// node ID into a Func for a TAST command.
func MacroFunc(fn func(root *ast.Node, id string) (*ast.Node, error)) Func {
	return func(_ context.Context, payload []byte) ([]byte, error) {
		var pair []json.RawMessage
		if err := json.Unmarshal(payload, &pair); err != nil {
			return nil, fmt.Errorf("failed to decode macro payload: %w", err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("failed to decode macro payload: expected [ast, id], got %d elements", len(pair))
		}
		var root ast.Node
		if err := json.Unmarshal(pair[0], &root); err != nil {
			return nil, fmt.Errorf("failed to decode macro document: %w", err)
		}
		var id string
		if err := json.Unmarshal(pair[1], &id); err != nil {
			return nil, fmt.Errorf("failed to decode macro node id: %w", err)
		}
		out, err := fn(&root, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	}
}
