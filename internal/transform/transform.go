package transform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ezhtml/eztag/internal/registry"
	"github.com/tetratelabs/wazero"
)

var (
	// ErrUnavailable is returned when a transform reference cannot be
	// turned into something runnable.
	ErrUnavailable = errors.New("transform unavailable")
	// ErrFailed is returned when a transform ran and did not produce text.
	ErrFailed = errors.New("transform failed")
)

// A Transformer rewrites a custom tag's inner text before expansion.
type Transformer interface {
	Transform(ctx context.Context, content string) (string, error)
}

// Func adapts an ordinary function to a Transformer.
type Func func(ctx context.Context, content string) (string, error)

func (f Func) Transform(ctx context.Context, content string) (string, error) {
	return f(ctx, content)
}

// Apply runs t over content. Without a transformer, or when it fails, the
// content comes back unchanged together with the error. An empty result
// from a successful transform is kept.
func Apply(ctx context.Context, t Transformer, content string) (out string, err error) {
	if t == nil {
		return content, nil
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = content, fmt.Errorf("%w: %v", ErrFailed, r)
		}
	}()
	out, err = t.Transform(ctx, content)
	if err != nil {
		return content, err
	}
	return out, nil
}

// A Resolver turns the transform references of custom tag definitions
// into Transformers. It is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	funcs   map[string]Transformer
	modules map[string]*wasmModule
	runtime wazero.Runtime

	baseDir string
	timeout time.Duration
}

type Option func(*Resolver)

// WithTimeout bounds every call into a WebAssembly transform.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithBaseDir sets the directory relative module paths are resolved in.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) {
		r.baseDir = dir
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		funcs:   make(map[string]Transformer),
		modules: make(map[string]*wasmModule),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register makes t available to definitions that name it in "func".
func (r *Resolver) Register(name string, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = t
}

// Resolve returns the Transformer ref points at, or nil when ref is empty.
// Inline source is never evaluated and always resolves to ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, ref *registry.TransformRef) (Transformer, error) {
	switch {
	case ref.IsZero():
		return nil, nil
	case ref.Func != "":
		r.mu.RLock()
		t, ok := r.funcs[ref.Func]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: no function named %q", ErrUnavailable, ref.Func)
		}
		return t, nil
	case ref.Source != "":
		return nil, fmt.Errorf("%w: inline transform source is not run", ErrUnavailable)
	}

	path := ref.Path
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".wasm" {
		return nil, fmt.Errorf("%w: %s: unsupported module type %q", ErrUnavailable, ref.Path, ext)
	}
	m, err := r.loadModule(ctx, path)
	if err != nil {
		return nil, err
	}
	return m.transformer(ref.Entry, r.timeout)
}

// Close releases every compiled module.
func (r *Resolver) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]*wasmModule)
	if r.runtime == nil {
		return nil
	}
	err := r.runtime.Close(ctx)
	r.runtime = nil
	return err
}
