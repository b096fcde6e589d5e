// Package builtin provides plugins that run in-process instead of being
// loaded from a WASM binary.
package builtin

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-cli-collective/brack/pkg/plugin"
)

var registry = map[string]func() *plugin.Native{
	"std":      Std,
	"markdown": Markdown,
}

// Names lists the available builtin plugin kinds.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns a fresh instance of the named builtin plugin.
func New(kind string) (plugin.Instance, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown builtin plugin %q (available: %v)", kind, Names())
	}
	return ctor(), nil
}

// Opener adapts New for plugin.Descriptor.Open.
func Opener(kind string) func(context.Context) (plugin.Instance, error) {
	return func(context.Context) (plugin.Instance, error) {
		return New(kind)
	}
}
