package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyModule is the smallest valid WASM binary: magic and version only.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestNewWASM_InvalidBinary(t *testing.T) {
	_, err := NewWASM(context.Background(), "bad", []byte("not wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to instantiate plugin bad")
}

func TestNewWASM_MissingExports(t *testing.T) {
	_, err := NewWASM(context.Background(), "empty", emptyModule)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin empty does not export memory")
}

func TestLoadWASM_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wasm")
	require.NoError(t, os.WriteFile(path, emptyModule, 0o600))

	_, err := LoadWASM(context.Background(), "empty", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not export memory")
}

func TestLoadWASM_MissingFile(t *testing.T) {
	_, err := LoadWASM(context.Background(), "std", filepath.Join(t.TempDir(), "nope.wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plugin std")
}

// guest assembles a plugin module for the payload ABI. alloc bumps a
// heap pointer held in global 0, dealloc counts its calls in the exported
// global "frees", and the one command echoes its payload back.
type guest struct {
	metadata []byte
	noMemory bool
}

func (g guest) binary() []byte {
	const (
		i32 = 0x7f
		i64 = 0x7e
	)
	types := vec(
		[]byte{0x60, 1, i32, 1, i32},      // alloc
		[]byte{0x60, 0, 1, i64},           // get_metadata
		[]byte{0x60, 2, i32, i32, 1, i64}, // callable
		[]byte{0x60, 2, i32, i32, 0},      // dealloc
	)
	funcs := vec([]byte{0}, []byte{3}, []byte{1}, []byte{2})
	globals := vec(
		cat([]byte{i32, 0x01, 0x41}, sleb(1024), []byte{0x0b}),
		[]byte{i32, 0x01, 0x41, 0x00, 0x0b},
	)

	exports := [][]byte{
		cat(name("alloc"), []byte{0x00, 0}),
		cat(name("dealloc"), []byte{0x00, 1}),
		cat(name(MetadataSymbol), []byte{0x00, 2}),
		cat(name("inline_echo"), []byte{0x00, 3}),
		cat(name("frees"), []byte{0x03, 1}),
	}
	if !g.noMemory {
		exports = append(exports, cat(name("memory"), []byte{0x02, 0}))
	}

	code := vec(
		// global.get 0; global.get 0; local.get 0; i32.add; global.set 0
		body(0x23, 0, 0x23, 0, 0x20, 0, 0x6a, 0x24, 0),
		// global.get 1; i32.const 1; i32.add; global.set 1
		body(0x23, 1, 0x41, 1, 0x6a, 0x24, 1),
		// (16 << 32) | len(metadata)
		body(cat([]byte{0x42, 16, 0x42, 32, 0x86, 0x42}, sleb(int64(len(g.metadata))), []byte{0x84})...),
		// (ptr << 32) | len
		body(0x20, 0, 0xad, 0x42, 32, 0x86, 0x20, 1, 0xad, 0x84),
	)

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, types)...)
	out = append(out, section(3, funcs)...)
	if !g.noMemory {
		out = append(out, section(5, vec([]byte{0x00, 1}))...)
	}
	out = append(out, section(6, globals)...)
	out = append(out, section(7, vec(exports...))...)
	out = append(out, section(10, code)...)
	if !g.noMemory {
		seg := cat([]byte{0x00, 0x41, 16, 0x0b}, uleb(uint64(len(g.metadata))), g.metadata)
		out = append(out, section(11, vec(seg))...)
	}
	return out
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func vec(items ...[]byte) []byte {
	return cat(uleb(uint64(len(items))), cat(items...))
}

func name(s string) []byte {
	return cat(uleb(uint64(len(s))), []byte(s))
}

func section(id byte, content []byte) []byte {
	return cat([]byte{id}, uleb(uint64(len(content))), content)
}

// body wraps instructions in a function body with no locals.
func body(instrs ...byte) []byte {
	fn := cat([]byte{0x00}, instrs, []byte{0x0b})
	return cat(uleb(uint64(len(fn))), fn)
}

func echoMetadata(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal([]Metadata{
		{CommandName: "echo", CallName: "inline_echo", ArgumentTypes: []Argument{{Name: "text", Type: Inline}}, ReturnType: Inline},
	})
	require.NoError(t, err)
	return raw
}

func TestNewWASM_NoMemoryExport(t *testing.T) {
	bin := guest{metadata: echoMetadata(t), noMemory: true}.binary()

	_, err := NewWASM(context.Background(), "nomem", bin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin nomem does not export memory")
}

func TestHost_LoadWASM(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "echo.wasm")
	require.NoError(t, os.WriteFile(path, guest{metadata: echoMetadata(t)}.binary(), 0o600))

	h := NewHost()
	require.NoError(t, h.Load(ctx, Descriptor{Name: "echo", Path: path}))
	t.Cleanup(func() { _ = h.Close(ctx) })

	require.Len(t, h.Plugins(), 1)
	p := h.Plugins()[0]
	require.Len(t, p.Commands(), 1)
	assert.Equal(t, "echo(text: TInline) -> TInline", p.Commands()[0].Signature())

	values := []Value{Text("Hello, World!")}
	want, err := json.Marshal(values)
	require.NoError(t, err)

	got, err := h.CallInline(ctx, "echo", "echo", values)
	require.NoError(t, err)
	assert.Equal(t, string(want), got)

	// One free for the metadata result, then one each for the call's
	// argument and result.
	frees := p.instance.(*wasmInstance).module.ExportedGlobal("frees")
	require.NotNil(t, frees)
	assert.Equal(t, uint64(3), frees.Get())

	_, err = h.CallBlock(ctx, "echo", "echo", values)
	require.ErrorIs(t, err, ErrCommandNotFound)
}
