package transform

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// DefaultEntry is the function a module transform exports when its
// definition names none.
const DefaultEntry = "callme"

// A module transform exports its linear memory as "memory" and
//
//	allocate(size i32) i32
//	deallocate(ptr i32, size i32)
//	<entry>(ptr i32, size i32) i64
//
// The entry reads size bytes of UTF-8 at ptr and returns the result's
// pointer in the high 32 bits and its length in the low 32 bits.
type wasmModule struct {
	path     string
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

func (r *Resolver) loadModule(ctx context.Context, path string) (*wasmModule, error) {
	r.mu.RLock()
	m, ok := r.modules[path]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[path]; ok {
		return m, nil
	}
	if r.runtime == nil {
		rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			rt.Close(ctx)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		r.runtime = rt
	}
	compiled, err := r.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	m = &wasmModule{path: path, runtime: r.runtime, compiled: compiled}
	r.modules[path] = m
	return m, nil
}

// transformer checks the module's exports and returns a Transformer that
// calls entry. An entry that is not exported as written is looked up again
// in snake_case.
func (m *wasmModule) transformer(entry string, timeout time.Duration) (Transformer, error) {
	if entry == "" {
		entry = DefaultEntry
	}
	exports := m.compiled.ExportedFunctions()
	if _, ok := exports[entry]; !ok {
		snake := strcase.ToSnake(entry)
		if _, ok := exports[snake]; !ok {
			return nil, fmt.Errorf("%w: %s does not export %q", ErrUnavailable, m.path, entry)
		}
		entry = snake
	}
	for _, name := range []string{"allocate", "deallocate"} {
		if _, ok := exports[name]; !ok {
			return nil, fmt.Errorf("%w: %s does not export %q", ErrUnavailable, m.path, name)
		}
	}
	if _, ok := m.compiled.ExportedMemories()["memory"]; !ok {
		return nil, fmt.Errorf("%w: %s does not export its memory", ErrUnavailable, m.path)
	}
	return &wasmTransformer{module: m, entry: entry, timeout: timeout}, nil
}

type wasmTransformer struct {
	module  *wasmModule
	entry   string
	timeout time.Duration
}

// Transform runs the entry in a fresh instance, so no state survives
// between calls.
func (t *wasmTransformer) Transform(ctx context.Context, content string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	mod, err := t.module.runtime.InstantiateModule(ctx, t.module.compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize"))
	if err != nil {
		return "", fmt.Errorf("%w: instantiating %s: %v", ErrFailed, t.module.path, err)
	}
	defer mod.Close(ctx)

	allocate := mod.ExportedFunction("allocate")
	deallocate := mod.ExportedFunction("deallocate")
	entry := mod.ExportedFunction(t.entry)
	mem := mod.Memory()

	contentSize := uint64(len(content))
	results, err := allocate.Call(ctx, contentSize)
	if err != nil {
		return "", fmt.Errorf("%w: allocate: %v", ErrFailed, err)
	}
	contentPtr := results[0]
	defer deallocate.Call(ctx, contentPtr, contentSize)

	if !mem.Write(uint32(contentPtr), []byte(content)) {
		return "", fmt.Errorf("%w: Memory.Write(%d, %d) out of range of memory size %d",
			ErrFailed, contentPtr, contentSize, mem.Size())
	}

	ptrSize, err := entry.Call(ctx, contentPtr, contentSize)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFailed, t.entry, err)
	}
	return readResult(ctx, mem, deallocate, ptrSize[0])
}

func readResult(ctx context.Context, mem api.Memory, deallocate api.Function, ptrSize uint64) (string, error) {
	resultPtr := uint32(ptrSize >> 32)
	resultSize := uint32(ptrSize)
	if resultSize == 0 {
		return "", nil
	}
	defer deallocate.Call(ctx, uint64(resultPtr), uint64(resultSize))

	b, ok := mem.Read(resultPtr, resultSize)
	if !ok {
		return "", fmt.Errorf("%w: Memory.Read(%d, %d) out of range of memory size %d",
			ErrFailed, resultPtr, resultSize, mem.Size())
	}
	// b aliases module memory, which is gone once the instance closes
	return string(b), nil
}
