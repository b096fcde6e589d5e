package plugin

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Guest exports required by the payload ABI. Callables take (ptr, len)
// of a payload written into guest memory through alloc and return an i64
// packing ptr<<32 | len of the result.
const (
	allocSymbol   = "alloc"
	deallocSymbol = "dealloc"
)

type wasmInstance struct {
	name    string
	runtime wazero.Runtime
	module  api.Module
}

// LoadWASM reads and instantiates the plugin binary at path.
func LoadWASM(ctx context.Context, name, path string) (Instance, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin %s: %w", name, err)
	}
	return NewWASM(ctx, name, bin)
}

// NewWASM instantiates a plugin from its binary in a runtime of its own
// with WASI preview1 imports available.
func NewWASM(ctx context.Context, name string, bin []byte) (Instance, error) {
	r := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI for plugin %s: %w", name, err)
	}

	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize")
	mod, err := r.InstantiateWithConfig(ctx, bin, cfg)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate plugin %s: %w", name, err)
	}

	switch {
	case mod.ExportedMemory("memory") == nil:
		err = fmt.Errorf("plugin %s does not export memory", name)
	case mod.ExportedFunction(allocSymbol) == nil:
		err = fmt.Errorf("plugin %s does not export %s", name, allocSymbol)
	case mod.ExportedFunction(MetadataSymbol) == nil:
		err = fmt.Errorf("plugin %s does not export %s", name, MetadataSymbol)
	}
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}

	return &wasmInstance{name: name, runtime: r, module: mod}, nil
}

func (w *wasmInstance) Exports(symbol string) bool {
	return w.module.ExportedFunction(symbol) != nil
}

func (w *wasmInstance) Call(ctx context.Context, symbol string, payload []byte) ([]byte, error) {
	fn := w.module.ExportedFunction(symbol)
	if fn == nil {
		return nil, fmt.Errorf("function %q is not exported", symbol)
	}

	var params []uint64
	if len(fn.Definition().ParamTypes()) == 2 {
		ptr, err := w.write(ctx, payload)
		if err != nil {
			return nil, err
		}
		defer w.free(ctx, ptr, uint32(len(payload)))
		params = []uint64{uint64(ptr), uint64(len(payload))}
	}

	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("function %q returned %d values, expected 1", symbol, len(res))
	}

	ptr, size := uint32(res[0]>>32), uint32(res[0])
	data, ok := w.module.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("function %q returned out of range memory [%d, %d)", symbol, ptr, uint64(ptr)+uint64(size))
	}
	out := bytes.Clone(data)
	w.free(ctx, ptr, size)
	return out, nil
}

func (w *wasmInstance) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

func (w *wasmInstance) write(ctx context.Context, payload []byte) (uint32, error) {
	res, err := w.module.ExportedFunction(allocSymbol).Call(ctx, uint64(len(payload)))
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %d bytes: %w", len(payload), err)
	}
	if len(res) != 1 {
		return 0, fmt.Errorf("%s returned %d values, expected 1", allocSymbol, len(res))
	}
	ptr := uint32(res[0])
	if !w.module.Memory().Write(ptr, payload) {
		return 0, fmt.Errorf("%s returned out of range pointer %d", allocSymbol, ptr)
	}
	return ptr, nil
}

// free releases guest memory when the plugin exports dealloc.
func (w *wasmInstance) free(ctx context.Context, ptr, size uint32) {
	if fn := w.module.ExportedFunction(deallocSymbol); fn != nil {
		_, _ = fn.Call(ctx, uint64(ptr), uint64(size))
	}
}
