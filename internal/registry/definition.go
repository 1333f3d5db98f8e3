package registry

import (
	"bytes"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	eztag "github.com/ezhtml/eztag/internal"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

var ErrInvalidDefinition = errors.New("invalid custom tag definition")

// An ExpansionNode is one standard tag of a custom tag's skeleton.
type ExpansionNode struct {
	Tag      string
	Attr     eztag.Attributes
	Children []*ExpansionNode
}

// TransformRef names the function run over a custom tag's inner text
// before expansion. At most one field other than Entry is set.
type TransformRef struct {
	// Func names a function registered in-process.
	Func string `json:"func,omitempty"`
	// Path is a module file; Entry names its exported function.
	Path  string `json:"path,omitempty"`
	Entry string `json:"entry,omitempty"`
	// Source is inline code. It is kept for the document format only and
	// is never run.
	Source string `json:"source,omitempty"`
}

func (t *TransformRef) IsZero() bool {
	return t == nil || (t.Func == "" && t.Path == "" && t.Source == "")
}

// A Definition describes what a custom tag expands to.
type Definition struct {
	Name     string         `json:"-"`
	Void     bool           `json:"void,omitzero"`
	Skeleton *ExpansionNode `json:"skeleton"`
	// Delimiters split the inner text between skeleton levels. See
	// LevelDelimiters for how they line up with Levels. They match
	// literally unless PatternDelimiters is set, in which case each one is
	// a regular expression.
	Delimiters        []string      `json:"delimiters,omitempty"`
	PatternDelimiters bool          `json:"patternDelimiters,omitzero"`
	Transform         *TransformRef `json:"transform,omitempty"`
}

// A Level is one skeleton node in pre-order.
type Level struct {
	Node *ExpansionNode
	// Parent is the index of the parent level, -1 for the root.
	Parent int
	Depth  int
}

// Levels flattens the skeleton in pre-order. Level 0 is the root.
func (d *Definition) Levels() []Level {
	levels := make([]Level, 0)
	var visit func(n *ExpansionNode, parent, depth int)
	visit = func(n *ExpansionNode, parent, depth int) {
		if n == nil {
			return
		}
		levels = append(levels, Level{Node: n, Parent: parent, Depth: depth})
		self := len(levels) - 1
		for _, c := range n.Children {
			visit(c, self, depth+1)
		}
	}
	visit(d.Skeleton, -1, 0)
	return levels
}

// LevelDelimiters returns one delimiter per level, "" where a level has
// none. With one delimiter per level they line up directly. With one fewer,
// the root has none and delimiter k starts level k+1.
func (d *Definition) LevelDelimiters() ([]string, error) {
	n := len(d.Levels())
	out := make([]string, n)
	switch len(d.Delimiters) {
	case 0:
	case n:
		copy(out, d.Delimiters)
	case n - 1:
		copy(out[1:], d.Delimiters)
	default:
		return nil, fmt.Errorf("%w: %s: %d delimiters for %d skeleton tags", ErrInvalidDefinition, d.Name, len(d.Delimiters), n)
	}
	seen := make(map[string]int, n)
	for i, delim := range out {
		if delim == "" {
			continue
		}
		if j, ok := seen[delim]; ok {
			return nil, fmt.Errorf("%w: %s: delimiter %q is used by levels %d and %d", ErrInvalidDefinition, d.Name, delim, j, i)
		}
		seen[delim] = i
	}
	return out, nil
}

// Validate reports the first problem that keeps d from being expanded.
func (d *Definition) Validate() error {
	if !IsValidTagName(d.Name) {
		return fmt.Errorf("%w: %q is not a valid tag name", ErrInvalidDefinition, d.Name)
	}
	if d.Skeleton == nil {
		return fmt.Errorf("%w: %s: no skeleton", ErrInvalidDefinition, d.Name)
	}
	for _, level := range d.Levels() {
		if !IsValidTagName(level.Node.Tag) {
			return fmt.Errorf("%w: %s: skeleton tag %q is not a valid tag name", ErrInvalidDefinition, d.Name, level.Node.Tag)
		}
	}
	if _, err := d.LevelDelimiters(); err != nil {
		return err
	}
	if t := d.Transform; t != nil {
		set := 0
		for _, s := range []string{t.Func, t.Path, t.Source} {
			if s != "" {
				set++
			}
		}
		if set > 1 {
			return fmt.Errorf("%w: %s: transform must name one of func, path or source", ErrInvalidDefinition, d.Name)
		}
	}
	return nil
}

// IsValidTagName reports whether name scans as a single element name.
func IsValidTagName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == utf8.RuneError {
			return false
		}
		if r == '_' || r == ':' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && (r == '.' || r == '-' || unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

type expansionNodeJSON struct {
	Tag      string           `json:"tag"`
	Attr     attributeObject  `json:"attributes,omitempty"`
	Children []*ExpansionNode `json:"children,omitempty"`
}

func (n ExpansionNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(expansionNodeJSON{Tag: n.Tag, Attr: attributeObject(n.Attr), Children: n.Children})
}

func (n *ExpansionNode) UnmarshalJSON(b []byte) error {
	var v expansionNodeJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Tag = v.Tag
	n.Attr = eztag.Attributes(v.Attr)
	n.Children = v.Children
	return nil
}

// attributeObject is a JSON object whose member order is the attribute
// order. A null member is a valueless attribute.
type attributeObject eztag.Attributes

func (a attributeObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	if err := enc.WriteToken(jsontext.ObjectStart); err != nil {
		return nil, err
	}
	for _, attr := range a {
		if err := enc.WriteToken(jsontext.String(attr.Key)); err != nil {
			return nil, err
		}
		value := jsontext.Null
		if attr.HasValue() {
			value = jsontext.String(attr.Val)
		}
		if err := enc.WriteToken(value); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteToken(jsontext.ObjectEnd); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func (a *attributeObject) UnmarshalJSON(b []byte) error {
	dec := jsontext.NewDecoder(bytes.NewReader(b))
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	switch tok.Kind() {
	case 'n':
		*a = nil
		return nil
	case '{':
	default:
		return fmt.Errorf("attributes must be an object, got %v", tok.Kind())
	}
	attrs := eztag.Attributes{}
	for dec.PeekKind() != '}' {
		key, err := dec.ReadToken()
		if err != nil {
			return err
		}
		// a token is only valid until the next read
		attr := eztag.Attribute{Key: key.String(), Type: eztag.QuotedAttribute}
		val, err := dec.ReadToken()
		if err != nil {
			return err
		}
		switch val.Kind() {
		case 'n':
			attr.Type = eztag.EmptyAttribute
		case '"', '0', 't', 'f':
			attr.Val = val.String()
		default:
			return fmt.Errorf("attribute %q must be a string or null", attr.Key)
		}
		attrs.Set(attr)
	}
	if _, err := dec.ReadToken(); err != nil {
		return err
	}
	*a = attributeObject(attrs)
	return nil
}
