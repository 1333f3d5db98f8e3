//go:build js && wasm

package wasm_utils

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"syscall/js"

	eztag "github.com/ezhtml/eztag/internal"
	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
	"github.com/norunners/vert"
)

// See https://stackoverflow.com/questions/68426700/how-to-wait-a-js-async-function-from-golang-wasm
func Await(awaitable js.Value) ([]js.Value, []js.Value) {
	then := make(chan []js.Value)
	thenFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		then <- args
		return nil
	})
	// defers are called LIFO!
	// This will `close` before `Release()`
	defer thenFunc.Release()
	defer close(then)

	catch := make(chan []js.Value)
	catchFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		catch <- args
		return nil
	})
	defer catchFunc.Release()
	defer close(catch)

	awaitable.Call("then", thenFunc).Call("catch", catchFunc)

	select {
	case result := <-then:
		return result, nil
	case err := <-catch:
		return nil, err
	}
}

func isPromise(v js.Value) bool {
	return v.Type() == js.TypeObject && v.Get("then").Type() == js.TypeFunction
}

// GetAttrs turns attributes into a plain object. Valueless attributes
// become true.
func GetAttrs(attrs eztag.Attributes) js.Value {
	obj := js.Global().Get("Object").New()
	for _, attr := range attrs {
		if attr.HasValue() {
			obj.Set(attr.Key, attr.Val)
		} else {
			obj.Set(attr.Key, true)
		}
	}
	return obj
}

// AttrsFromValue reads a plain object back into attributes, in key order.
// true means a valueless attribute; false, null and undefined are dropped.
func AttrsFromValue(obj js.Value) eztag.Attributes {
	if obj.Type() != js.TypeObject {
		return nil
	}
	keys := js.Global().Get("Object").Call("keys", obj)
	attrs := make(eztag.Attributes, 0, keys.Length())
	for i := 0; i < keys.Length(); i++ {
		key := keys.Index(i).String()
		val := obj.Get(key)
		switch val.Type() {
		case js.TypeBoolean:
			if val.Bool() {
				attrs.Set(eztag.Attribute{Key: key, Type: eztag.EmptyAttribute})
			}
		case js.TypeNull, js.TypeUndefined:
		default:
			attrs.Set(eztag.Attribute{Key: key, Val: jsText(val), Type: eztag.QuotedAttribute})
		}
	}
	return attrs
}

func jsText(v js.Value) string {
	if v.Type() == js.TypeString {
		return v.String()
	}
	return js.Global().Get("String").Invoke(v).String()
}

type JSError struct {
	Message string `js:"message"`
	Stack   string `js:"stack"`
}

func (err *JSError) Value() js.Value {
	return vert.ValueOf(err).Value
}

// ErrorToJSError builds a JS error value. A ranged error is prefixed with
// its line and column when h knows the source.
func ErrorToJSError(h *handler.Handler, err error) js.Value {
	stack := string(debug.Stack())
	message := strings.TrimSpace(err.Error())
	var rangedError *loc.ErrorWithRange
	if h != nil && errors.As(err, &rangedError) {
		msg := handler.ErrorToMessage(h, loc.ErrorType, err)
		if msg.Location != nil {
			message = fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, message)
		}
	}
	jsError := JSError{
		Message: message,
		Stack:   stack,
	}
	return jsError.Value()
}

// A JSTransformer runs a host function as a custom transform. The function
// gets the content string and returns a string or a promise of one.
type JSTransformer struct {
	fn js.Value
}

func NewJSTransformer(fn js.Value) (*JSTransformer, error) {
	if fn.Type() != js.TypeFunction {
		return nil, fmt.Errorf("transform is a %s, not a function", fn.Type())
	}
	return &JSTransformer{fn: fn}, nil
}

func (t *JSTransformer) Transform(ctx context.Context, content string) (out string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform threw: %v", r)
		}
	}()

	result := t.fn.Invoke(content)
	if isPromise(result) {
		values, rejected := Await(result)
		if rejected != nil {
			if len(rejected) > 0 {
				return "", fmt.Errorf("transform rejected: %s", jsText(rejected[0]))
			}
			return "", errors.New("transform rejected")
		}
		if len(values) == 0 {
			return "", nil
		}
		result = values[0]
	}
	switch result.Type() {
	case js.TypeString:
		return result.String(), nil
	case js.TypeNull, js.TypeUndefined:
		return "", errors.New("transform returned nothing")
	}
	return jsText(result), nil
}
