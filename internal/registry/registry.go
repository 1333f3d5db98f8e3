package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	eztag "github.com/ezhtml/eztag/internal"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

var ErrDuplicateTag = errors.New("duplicate custom tag")

// A Registry is an immutable set of custom tag definitions. It satisfies
// eztag.TagSet, so it can be handed straight to the parser. Use With to
// derive an updated registry.
type Registry struct {
	defs    map[string]*Definition
	version string
}

// New validates defs and returns a registry holding them.
func New(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(def.Name)
		if _, ok := r.defs[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, def.Name)
		}
		r.defs[key] = def
	}
	if err := r.computeVersion(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads a registry document: a JSON object keyed by tag name.
func Load(rd io.Reader) (*Registry, error) {
	doc := make(map[string]*Definition)
	if err := json.UnmarshalRead(rd, &doc); err != nil {
		return nil, fmt.Errorf("reading custom tags: %w", err)
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]*Definition, 0, len(doc))
	for _, name := range names {
		def := doc[name]
		if def == nil {
			return nil, fmt.Errorf("%w: %s: null definition", ErrInvalidDefinition, name)
		}
		def.Name = name
		defs = append(defs, def)
	}
	return New(defs...)
}

func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (r *Registry) document() map[string]*Definition {
	doc := make(map[string]*Definition, len(r.defs))
	for _, def := range r.defs {
		doc[def.Name] = def
	}
	return doc
}

// Save writes r in the form Load reads, with tag names sorted.
func (r *Registry) Save(w io.Writer) error {
	return json.MarshalWrite(w, r.document(), json.Deterministic(true), jsontext.WithIndent("  "))
}

func (r *Registry) computeVersion() error {
	var buf bytes.Buffer
	if err := json.MarshalWrite(&buf, r.document(), json.Deterministic(true)); err != nil {
		return err
	}
	r.version = eztag.HashString(buf.String())
	return nil
}

// Version fingerprints the registry's content. Registries with the same
// definitions have the same version.
func (r *Registry) Version() string {
	return r.version
}

func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.defs[strings.ToLower(name)]
	return def, ok
}

// IsVoid reports whether name is an HTML void element or a void custom tag.
func (r *Registry) IsVoid(name string) bool {
	if eztag.IsBuiltinVoid(name) {
		return true
	}
	def, ok := r.Lookup(name)
	return ok && def.Void
}

func (r *Registry) IsCustom(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the defined tag names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, def := range r.defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.defs)
}

// With returns a new registry with def added, replacing any definition of
// the same name. r is unchanged.
func (r *Registry) With(def *Definition) (*Registry, error) {
	defs := make([]*Definition, 0, len(r.defs)+1)
	for key, d := range r.defs {
		if key != strings.ToLower(def.Name) {
			defs = append(defs, d)
		}
	}
	defs = append(defs, def)
	return New(defs...)
}

// Without returns a new registry without the named definition.
func (r *Registry) Without(name string) (*Registry, error) {
	defs := make([]*Definition, 0, len(r.defs))
	for key, d := range r.defs {
		if key != strings.ToLower(name) {
			defs = append(defs, d)
		}
	}
	return New(defs...)
}
