package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	eztag "github.com/ezhtml/eztag/internal"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

const document = `{
  "callout": {
    "skeleton": {
      "tag": "div",
      "attributes": {"class": "box", "hidden": null, "data-x": "1"},
      "children": [{"tag": "p"}]
    },
    "delimiters": ["\n\n"],
    "transform": {"func": "upper"}
  },
  "icon": {"void": true, "skeleton": {"tag": "img", "attributes": {"src": "icon.svg"}}}
}`

func TestLoad(t *testing.T) {
	r, err := Load(strings.NewReader(document))
	assert.NilError(t, err)
	assert.DeepEqual(t, r.Names(), []string{"callout", "icon"})

	def, ok := r.Lookup("CALLOUT")
	assert.Assert(t, ok)
	assert.Equal(t, def.Name, "callout")
	assert.Equal(t, def.Skeleton.Tag, "div")
	assert.DeepEqual(t, def.Skeleton.Attr.Keys(), []string{"class", "hidden", "data-x"})
	hidden, _ := def.Skeleton.Attr.Get("hidden")
	assert.Assert(t, !hidden.HasValue())
	assert.Assert(t, is.Len(def.Skeleton.Children, 1))
	assert.Equal(t, def.Skeleton.Children[0].Tag, "p")
	assert.DeepEqual(t, def.Delimiters, []string{"\n\n"})
	assert.Equal(t, def.Transform.Func, "upper")

	assert.Assert(t, r.IsVoid("icon"))
	assert.Assert(t, r.IsVoid("br"))
	assert.Assert(t, !r.IsVoid("callout"))
	assert.Assert(t, r.IsCustom("Callout"))
	assert.Assert(t, !r.IsCustom("div"))
}

func TestSaveRoundTrip(t *testing.T) {
	r, err := Load(strings.NewReader(document))
	assert.NilError(t, err)

	var buf bytes.Buffer
	assert.NilError(t, r.Save(&buf))
	saved := buf.String()
	assert.Assert(t, strings.Index(saved, `"class"`) < strings.Index(saved, `"hidden"`))
	assert.Assert(t, strings.Index(saved, `"hidden"`) < strings.Index(saved, `"data-x"`))
	assert.Assert(t, strings.Index(saved, `"callout"`) < strings.Index(saved, `"icon"`))

	again, err := Load(strings.NewReader(saved))
	assert.NilError(t, err)
	assert.Equal(t, again.Version(), r.Version())
	for _, name := range r.Names() {
		want, _ := r.Lookup(name)
		got, _ := again.Lookup(name)
		assert.DeepEqual(t, got, want)
	}
}

func TestAttributesJSON(t *testing.T) {
	var n ExpansionNode
	source := `{"tag": "a", "attributes": {"href": "/x", "download": null, "title": "say \"hi\"", "data-n": "2"}}`
	assert.NilError(t, n.UnmarshalJSON([]byte(source)))
	assert.DeepEqual(t, n.Attr, eztag.Attributes{
		{Key: "href", Val: "/x", Type: eztag.QuotedAttribute},
		{Key: "download", Type: eztag.EmptyAttribute},
		{Key: "title", Val: `say "hi"`, Type: eztag.QuotedAttribute},
		{Key: "data-n", Val: "2", Type: eztag.QuotedAttribute},
	})

	b, err := n.MarshalJSON()
	assert.NilError(t, err)
	var again ExpansionNode
	assert.NilError(t, again.UnmarshalJSON(b))
	assert.DeepEqual(t, again, n)
}

func TestSavePatternDelimiters(t *testing.T) {
	r, err := New(&Definition{
		Name:              "rule",
		Skeleton:          skeleton("div", skeleton("p")),
		Delimiters:        []string{`\n-{3,}\n`},
		PatternDelimiters: true,
	})
	assert.NilError(t, err)
	var buf bytes.Buffer
	assert.NilError(t, r.Save(&buf))
	assert.Assert(t, is.Contains(buf.String(), `"patternDelimiters": true`))

	again, err := Load(&buf)
	assert.NilError(t, err)
	def, _ := again.Lookup("rule")
	assert.Assert(t, def.PatternDelimiters)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	assert.NilError(t, os.WriteFile(path, []byte(document), 0o644))
	r, err := LoadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, r.Len(), 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Assert(t, os.IsNotExist(err))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		is     error
	}{
		{name: "syntax", source: `{"callout": `},
		{name: "null definition", source: `{"callout": null}`, is: ErrInvalidDefinition},
		{name: "no skeleton", source: `{"callout": {}}`, is: ErrInvalidDefinition},
		{name: "nested attribute", source: `{"callout": {"skeleton": {"tag": "div", "attributes": {"a": {}}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.source))
			assert.Assert(t, err != nil)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func skeleton(tag string, children ...*ExpansionNode) *ExpansionNode {
	return &ExpansionNode{Tag: tag, Children: children}
}

func TestLevels(t *testing.T) {
	def := &Definition{Name: "card", Skeleton: skeleton("div", skeleton("p", skeleton("span")), skeleton("ul"))}
	tags := make([]string, 0)
	parents := make([]int, 0)
	depths := make([]int, 0)
	for _, level := range def.Levels() {
		tags = append(tags, level.Node.Tag)
		parents = append(parents, level.Parent)
		depths = append(depths, level.Depth)
	}
	assert.DeepEqual(t, tags, []string{"div", "p", "span", "ul"})
	assert.DeepEqual(t, parents, []int{-1, 0, 1, 0})
	assert.DeepEqual(t, depths, []int{0, 1, 2, 1})
}

func TestLevelDelimiters(t *testing.T) {
	two := skeleton("outer", skeleton("inner"))
	tests := []struct {
		name       string
		delimiters []string
		want       []string
	}{
		{name: "none", delimiters: nil, want: []string{"", ""}},
		{name: "one fewer than levels", delimiters: []string{"\n\n"}, want: []string{"", "\n\n"}},
		{name: "one per level", delimiters: []string{"---", "\n\n"}, want: []string{"---", "\n\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &Definition{Name: "x", Skeleton: two, Delimiters: tt.delimiters}
			got, err := def.LevelDelimiters()
			assert.NilError(t, err)
			assert.DeepEqual(t, got, tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		def  *Definition
		msg  string
	}{
		{
			name: "empty name",
			def:  &Definition{Skeleton: skeleton("div")},
			msg:  `"" is not a valid tag name`,
		},
		{
			name: "name starts with a digit",
			def:  &Definition{Name: "1up", Skeleton: skeleton("div")},
			msg:  `"1up" is not a valid tag name`,
		},
		{
			name: "no skeleton",
			def:  &Definition{Name: "x"},
			msg:  "no skeleton",
		},
		{
			name: "bad skeleton tag",
			def:  &Definition{Name: "x", Skeleton: skeleton("div", skeleton("a b"))},
			msg:  `skeleton tag "a b"`,
		},
		{
			name: "too many delimiters",
			def:  &Definition{Name: "x", Skeleton: skeleton("div"), Delimiters: []string{"a", "b", "c"}},
			msg:  "3 delimiters for 1 skeleton tags",
		},
		{
			name: "duplicate delimiter",
			def:  &Definition{Name: "x", Skeleton: skeleton("a", skeleton("b"), skeleton("c")), Delimiters: []string{"--", "--"}},
			msg:  `delimiter "--" is used by levels 1 and 2`,
		},
		{
			name: "two transforms",
			def:  &Definition{Name: "x", Skeleton: skeleton("div"), Transform: &TransformRef{Func: "a", Path: "b.wasm"}},
			msg:  "transform must name one of",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			assert.ErrorIs(t, err, ErrInvalidDefinition)
			assert.ErrorContains(t, err, tt.msg)
		})
	}

	valid := &Definition{Name: "my-tag.v2", Skeleton: skeleton("div", skeleton("p")), Delimiters: []string{"", "\n\n"}}
	assert.NilError(t, valid.Validate())
}

func TestWith(t *testing.T) {
	r, err := New(&Definition{Name: "a", Skeleton: skeleton("div")})
	assert.NilError(t, err)

	r2, err := r.With(&Definition{Name: "b", Skeleton: skeleton("span")})
	assert.NilError(t, err)
	assert.Equal(t, r.Len(), 1)
	assert.Equal(t, r2.Len(), 2)
	assert.Assert(t, r.Version() != r2.Version())

	r3, err := r2.With(&Definition{Name: "A", Skeleton: skeleton("section")})
	assert.NilError(t, err)
	assert.Equal(t, r3.Len(), 2)
	def, _ := r3.Lookup("a")
	assert.Equal(t, def.Skeleton.Tag, "section")

	r4, err := r3.Without("b")
	assert.NilError(t, err)
	assert.DeepEqual(t, r4.Names(), []string{"A"})

	_, err = New(&Definition{Name: "a", Skeleton: skeleton("div")}, &Definition{Name: "A", Skeleton: skeleton("div")})
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestTagSet(t *testing.T) {
	r, err := Load(strings.NewReader(document))
	assert.NilError(t, err)
	var tags eztag.TagSet = r
	tree, err := eztag.ParseWithOptions(strings.NewReader(`<callout>x<icon></callout>`), eztag.ParseOptionWithTagSet(tags))
	assert.NilError(t, err)
	nodes := tree.Nodes()
	assert.Assert(t, is.Len(nodes, 2))
	assert.Assert(t, nodes[0].Custom && nodes[0].Closed)
	assert.Assert(t, nodes[1].Custom && nodes[1].SelfClosed)
}
