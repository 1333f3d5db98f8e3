//go:build js && wasm

package main

import (
	"context"
	"errors"
	"strings"
	"syscall/js"

	eztag "github.com/ezhtml/eztag/internal"
	"github.com/ezhtml/eztag/internal/expand"
	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
	"github.com/ezhtml/eztag/internal/printer"
	"github.com/ezhtml/eztag/internal/registry"
	"github.com/ezhtml/eztag/internal/transform"
	wasm_utils "github.com/ezhtml/eztag/internal_wasm/utils"
	"github.com/norunners/vert"
)

func main() {
	js.Global().Set("__eztag_parse", js.FuncOf(Parse))
	js.Global().Set("__eztag_expand", js.FuncOf(ExpandAt))
	js.Global().Set("__eztag_expandAll", js.FuncOf(ExpandAll))
	js.Global().Set("__eztag_expandTag", js.FuncOf(ExpandTag))
	<-make(chan bool)
}

func jsString(j js.Value) string {
	if j.IsUndefined() || j.IsNull() {
		return ""
	}
	return j.String()
}

func jsBool(j js.Value) bool {
	if j.IsUndefined() || j.IsNull() {
		return false
	}
	return j.Bool()
}

func jsInt(j js.Value) int {
	if j.Type() != js.TypeNumber {
		return -1
	}
	return j.Int()
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

type options struct {
	filename   string
	registry   string
	transforms js.Value
	position   bool
}

func makeOptions(v js.Value) options {
	if v.Type() != js.TypeObject {
		return options{transforms: js.Undefined()}
	}
	return options{
		filename:   jsString(v.Get("filename")),
		registry:   jsString(v.Get("registry")),
		transforms: v.Get("transforms"),
		position:   jsBool(v.Get("position")),
	}
}

func loadRegistry(opts options) (*registry.Registry, error) {
	if strings.TrimSpace(opts.registry) == "" {
		return registry.New()
	}
	return registry.Load(strings.NewReader(opts.registry))
}

// makeResolver registers every function of the transforms option under its
// key, for definitions naming it in "func".
func makeResolver(opts options) *transform.Resolver {
	r := transform.NewResolver()
	if opts.transforms.Type() != js.TypeObject {
		return r
	}
	keys := js.Global().Get("Object").Call("keys", opts.transforms)
	for i := 0; i < keys.Length(); i++ {
		name := keys.Index(i).String()
		t, err := wasm_utils.NewJSTransformer(opts.transforms.Get(name))
		if err != nil {
			continue
		}
		r.Register(name, t)
	}
	return r
}

type ParseResult struct {
	AST         string                  `js:"ast"`
	Diagnostics []loc.DiagnosticMessage `js:"diagnostics"`
	Tags        []TagEntry              `js:"tags"`
}

type TagEntry struct {
	Name   string `js:"name"`
	Start  int    `js:"start"`
	End    int    `js:"end"`
	Custom bool   `js:"custom"`
}

func Parse(this js.Value, args []js.Value) interface{} {
	source := jsString(arg(args, 0))
	opts := makeOptions(arg(args, 1))
	h := handler.NewHandler(source, opts.filename)

	reg, err := loadRegistry(opts)
	if err != nil {
		return wasm_utils.ErrorToJSError(h, err)
	}
	tree, err := eztag.ParseWithOptions(strings.NewReader(source), eztag.ParseOptionWithHandler(h), eztag.ParseOptionWithTagSet(reg))
	if err != nil {
		return wasm_utils.ErrorToJSError(h, err)
	}
	result, err := printer.PrintToJSON(source, tree, printer.Options{Position: opts.position})
	if err != nil {
		return wasm_utils.ErrorToJSError(h, err)
	}

	tags := make([]TagEntry, 0, tree.Len())
	for _, n := range tree.Nodes() {
		extent := tree.Extent(n)
		tags = append(tags, TagEntry{Name: n.Name, Start: extent.Start, End: extent.End, Custom: n.Custom})
	}
	return vert.ValueOf(ParseResult{
		AST:         string(result.Output),
		Diagnostics: h.Diagnostics(),
		Tags:        tags,
	}).Value
}

type EditResult struct {
	Start   int    `js:"start"`
	End     int    `js:"end"`
	NewText string `js:"newText"`
	Tag     string `js:"tag"`
}

type ExpandResult struct {
	Edit        *EditResult             `js:"edit"`
	Diagnostics []loc.DiagnosticMessage `js:"diagnostics"`
}

type ExpandAllResult struct {
	Code        string                  `js:"code"`
	Edits       []EditResult            `js:"edits"`
	Diagnostics []loc.DiagnosticMessage `js:"diagnostics"`
}

func toEditResult(e expand.Edit) EditResult {
	return EditResult{Start: e.Range.Start, End: e.Range.End, NewText: e.NewText, Tag: e.Tag}
}

// promise runs fn off the event loop, so host transforms returning
// promises can be awaited.
func promise(h *handler.Handler, fn func(ctx context.Context) (interface{}, error)) interface{} {
	handlerFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve := args[0]
		reject := args[1]
		go func() {
			result, err := fn(context.Background())
			if err != nil {
				reject.Invoke(wasm_utils.ErrorToJSError(h, err))
				return
			}
			resolve.Invoke(result)
		}()
		return nil
	})
	defer handlerFunc.Release()
	return js.Global().Get("Promise").New(handlerFunc)
}

func newExpander(opts options, h *handler.Handler) (*expand.Expander, *transform.Resolver, error) {
	reg, err := loadRegistry(opts)
	if err != nil {
		return nil, nil, err
	}
	resolver := makeResolver(opts)
	return expand.NewExpander(reg, expand.WithHandler(h), expand.WithResolver(resolver)), resolver, nil
}

// ExpandAt resolves to {edit, diagnostics}; edit is null when offset is not
// inside a custom tag.
func ExpandAt(this js.Value, args []js.Value) interface{} {
	source := jsString(arg(args, 0))
	offset := jsInt(arg(args, 1))
	opts := makeOptions(arg(args, 2))
	h := handler.NewHandler(source, opts.filename)

	return promise(h, func(ctx context.Context) (interface{}, error) {
		e, resolver, err := newExpander(opts, h)
		if err != nil {
			return nil, err
		}
		defer resolver.Close(ctx)

		result := ExpandResult{}
		edit, err := e.ExpandAt(ctx, source, offset)
		switch {
		case err == nil:
			r := toEditResult(*edit)
			result.Edit = &r
		case errors.Is(err, expand.ErrNoCustomTag), errors.Is(err, expand.ErrUnknownTag):
		default:
			return nil, err
		}
		result.Diagnostics = h.Diagnostics()
		return vert.ValueOf(result).Value, nil
	})
}

func ExpandAll(this js.Value, args []js.Value) interface{} {
	source := jsString(arg(args, 0))
	opts := makeOptions(arg(args, 1))
	h := handler.NewHandler(source, opts.filename)

	return promise(h, func(ctx context.Context) (interface{}, error) {
		e, resolver, err := newExpander(opts, h)
		if err != nil {
			return nil, err
		}
		defer resolver.Close(ctx)

		code, edits, err := e.ExpandAll(ctx, source)
		if err != nil {
			return nil, err
		}
		result := ExpandAllResult{Code: code, Edits: make([]EditResult, 0, len(edits))}
		for _, edit := range edits {
			result.Edits = append(result.Edits, toEditResult(edit))
		}
		result.Diagnostics = h.Diagnostics()
		return vert.ValueOf(result).Value, nil
	})
}

// ExpandTag expands content as the inside of one tag, given its name and
// attribute object, and resolves to the expansion.
func ExpandTag(this js.Value, args []js.Value) interface{} {
	name := jsString(arg(args, 0))
	inner := jsString(arg(args, 1))
	attrs := wasm_utils.AttrsFromValue(arg(args, 2))
	opts := makeOptions(arg(args, 3))
	h := handler.NewHandler(inner, opts.filename)

	return promise(h, func(ctx context.Context) (interface{}, error) {
		e, resolver, err := newExpander(opts, h)
		if err != nil {
			return nil, err
		}
		defer resolver.Close(ctx)
		return e.ExpandTag(ctx, name, expand.InnerText(inner), attrs)
	})
}
