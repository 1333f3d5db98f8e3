package transform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ezhtml/eztag/internal/registry"
	"gotest.tools/v3/assert"
)

// echoModule is a hand-assembled module with the transform ABI:
// a bump allocator, a no-op deallocate, "callme" returning its input and
// "shout_hello" returning "HELLO" from a data segment.
var echoModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32)->i32, (i32,i32)->(), (i32,i32)->i64
	0x01, 0x11, 0x03,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x02, 0x7f, 0x7f, 0x00,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7e,
	// function
	0x03, 0x05, 0x04, 0x00, 0x01, 0x02, 0x02,
	// memory: one page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// global: mutable heap pointer at 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,
	// export
	0x07, 0x39, 0x05,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x0a, 'd', 'e', 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x01,
	0x06, 'c', 'a', 'l', 'l', 'm', 'e', 0x00, 0x02,
	0x0b, 's', 'h', 'o', 'u', 't', '_', 'h', 'e', 'l', 'l', 'o', 0x00, 0x03,
	// code
	0x0a, 0x29, 0x04,
	0x0b, 0x00, 0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b,
	0x02, 0x00, 0x0b,
	0x0c, 0x00, 0x20, 0x00, 0xad, 0x42, 0x20, 0x86, 0x20, 0x01, 0xad, 0x84, 0x0b,
	0x0b, 0x00, 0x42, 0x80, 0x10, 0x42, 0x20, 0x86, 0x42, 0x05, 0x84, 0x0b,
	// data: "HELLO" at 2048
	0x0b, 0x0c, 0x01, 0x00, 0x41, 0x80, 0x10, 0x0b, 0x05, 'H', 'E', 'L', 'L', 'O',
}

func writeModule(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	upper := Func(func(_ context.Context, s string) (string, error) { return strings.ToUpper(s), nil })
	empty := Func(func(context.Context, string) (string, error) { return "", nil })
	failing := Func(func(context.Context, string) (string, error) { return "partial", errors.New("boom") })
	panicking := Func(func(context.Context, string) (string, error) { panic("boom") })

	tests := []struct {
		name string
		t    Transformer
		want string
		err  error
	}{
		{name: "nil", t: nil, want: "text"},
		{name: "upper", t: upper, want: "TEXT"},
		{name: "empty result is kept", t: empty, want: ""},
		{name: "failure keeps content", t: failing, want: "text", err: errors.New("boom")},
		{name: "panic keeps content", t: panicking, want: "text", err: ErrFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(ctx, tt.t, "text")
			assert.Equal(t, got, tt.want)
			if tt.err == nil {
				assert.NilError(t, err)
			} else {
				assert.ErrorContains(t, err, "boom")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := NewResolver()
	defer r.Close(ctx)
	r.Register("upper", Func(func(_ context.Context, s string) (string, error) { return strings.ToUpper(s), nil }))

	tr, err := r.Resolve(ctx, nil)
	assert.NilError(t, err)
	assert.Assert(t, tr == nil)

	tr, err = r.Resolve(ctx, &registry.TransformRef{Func: "upper"})
	assert.NilError(t, err)
	out, err := tr.Transform(ctx, "abc")
	assert.NilError(t, err)
	assert.Equal(t, out, "ABC")

	unavailable := []*registry.TransformRef{
		{Func: "missing"},
		{Source: "function callme(s) { return s }"},
		{Path: "transform.mjs"},
		{Path: "transform.js", Entry: "callme"},
		{Path: filepath.Join(t.TempDir(), "missing.wasm")},
	}
	for _, ref := range unavailable {
		_, err := r.Resolve(ctx, ref)
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}

func TestWasmTransform(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "echo.wasm"), echoModule, 0o644))
	r := NewResolver(WithBaseDir(dir))
	defer r.Close(ctx)

	echo, err := r.Resolve(ctx, &registry.TransformRef{Path: "echo.wasm"})
	assert.NilError(t, err)
	for _, in := range []string{"Outer content\n\nInner content", "héllo", ""} {
		out, err := Apply(ctx, echo, in)
		assert.NilError(t, err)
		assert.Equal(t, out, in)
	}

	hello, err := r.Resolve(ctx, &registry.TransformRef{Path: "echo.wasm", Entry: "shoutHello"})
	assert.NilError(t, err)
	out, err := hello.Transform(ctx, "ignored")
	assert.NilError(t, err)
	assert.Equal(t, out, "HELLO")

	_, err = r.Resolve(ctx, &registry.TransformRef{Path: "echo.wasm", Entry: "whisper"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, `does not export "whisper"`)
}

func TestWasmInvalidModule(t *testing.T) {
	ctx := context.Background()
	r := NewResolver()
	defer r.Close(ctx)
	path := writeModule(t, "junk.wasm", []byte("not wasm"))
	_, err := r.Resolve(ctx, &registry.TransformRef{Path: path})
	assert.ErrorIs(t, err, ErrUnavailable)
}
