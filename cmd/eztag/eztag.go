package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	eztag "github.com/ezhtml/eztag/internal"
	"github.com/ezhtml/eztag/internal/expand"
	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
	"github.com/ezhtml/eztag/internal/printer"
	"github.com/ezhtml/eztag/internal/registry"
	"github.com/ezhtml/eztag/internal/transform"
)

const usage = `usage: eztag [flags] [file]

Expands the custom tags of file (or stdin) with the definitions of the
registry and writes the result to stdout.

`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("eztag", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	registryPath := fs.String("registry", "", "custom tag definitions (JSON)")
	at := fs.Int("at", -1, "expand only the custom tag around this byte offset")
	printJSON := fs.Bool("json", false, "print the tag tree as JSON instead of expanding")
	position := fs.Bool("position", false, "include positions in -json output")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}

	filename := "<stdin>"
	in := stdin
	if fs.NArg() == 1 {
		filename = fs.Arg(0)
		f, err := os.Open(filename)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer f.Close()
		in = f
	}
	b, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	source := string(b)

	reg, err := registry.New()
	if *registryPath != "" {
		reg, err = registry.LoadFile(*registryPath)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	h := handler.NewHandler(source, filename)
	defer printDiagnostics(stderr, h)

	if *printJSON {
		tree, err := eztag.ParseWithOptions(strings.NewReader(source), eztag.ParseOptionWithHandler(h), eztag.ParseOptionWithTagSet(reg))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		result, err := printer.PrintToJSON(source, tree, printer.Options{Position: *position, Indent: "  "})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, string(result.Output))
		return 0
	}

	resolver := transform.NewResolver(transform.WithBaseDir(filepath.Dir(*registryPath)))
	defer resolver.Close(ctx)
	e := expand.NewExpander(reg, expand.WithHandler(h), expand.WithResolver(resolver))

	if *at >= 0 {
		edit, err := e.ExpandAt(ctx, source, *at)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprint(stdout, expand.ApplyEdits(source, []expand.Edit{*edit}))
		return 0
	}

	out, _, err := e.ExpandAll(ctx, source)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprint(stdout, out)
	return 0
}

func printDiagnostics(w io.Writer, h *handler.Handler) {
	for _, msg := range h.Diagnostics() {
		severity := "warning"
		if msg.Severity == int(loc.ErrorType) {
			severity = "error"
		}
		if msg.Location == nil {
			fmt.Fprintf(w, "%s: %s\n", severity, msg.Text)
			continue
		}
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", msg.Location.File, msg.Location.Line, msg.Location.Column, severity, msg.Text)
	}
}
