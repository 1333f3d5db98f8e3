package eztag

import (
	"strings"
	"testing"

	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
	"github.com/ezhtml/eztag/internal/test_utils"
	"github.com/stretchr/testify/assert"
)

type testTagSet struct {
	voids   []string
	customs []string
}

func (s testTagSet) IsVoid(name string) bool {
	for _, v := range s.voids {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return IsBuiltinVoid(name)
}

func (s testTagSet) IsCustom(name string) bool {
	for _, c := range s.customs {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

type ParserLocTest struct {
	name     string
	input    string
	opening  loc.OffsetRange
	closing  loc.OffsetRange
	implicit bool
}

func TestParserLocation(t *testing.T) {
	Cases := []ParserLocTest{
		{
			name:    "end tag",
			input:   `<div id="target"></div>`,
			opening: loc.OffsetRange{Start: 0, End: 17},
			closing: loc.OffsetRange{Start: 17, End: 23},
		},
		{
			name: "nested",
			input: `<div class="TabBox">
	<div id="target" class="tab-bar">
		<h5>npm</h5>
	</div>
</div>`,
			opening: loc.OffsetRange{Start: 22, End: 55},
			closing: loc.OffsetRange{Start: 72, End: 78},
		},
		{
			name:    "stray end tag is skipped",
			input:   `<a id="target"></b></a>`,
			opening: loc.OffsetRange{Start: 0, End: 15},
			closing: loc.OffsetRange{Start: 19, End: 23},
		},
		{
			name:     "closed by ancestor",
			input:    `<a><b id="target"></a>`,
			opening:  loc.OffsetRange{Start: 3, End: 18},
			closing:  loc.UnknownRange(),
			implicit: true,
		},
		{
			name:    "case-insensitive end tag",
			input:   `<DIV id="target"></div>`,
			opening: loc.OffsetRange{Start: 0, End: 17},
			closing: loc.OffsetRange{Start: 17, End: 23},
		},
	}

	for _, tt := range Cases {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			target := findTargetNode(tree)
			if target == nil {
				t.Fatalf("no target in %q", tt.input)
			}
			assert.Equal(t, tt.opening, target.OpeningTag, "opening tag")
			assert.Equal(t, tt.closing, target.ClosingTag, "closing tag")
			assert.True(t, target.Closed)
			assert.Equal(t, tt.implicit, target.Implicit)
		})
	}
}

func findTargetNode(tree *TagTree) *TagNode {
	var target *TagNode
	tree.Walk(tree.Root(), func(n *TagNode) bool {
		if target != nil {
			return false
		}
		if attr, ok := n.Attr.Get("id"); ok && attr.Val == "target" {
			target = n
			return false
		}
		return true
	})
	return target
}

func TestParseVoid(t *testing.T) {
	tree, err := Parse(strings.NewReader(`<p><br>text<img src=x.png><input disabled/></p>`))
	assert.NoError(t, err)

	p := tree.ChildNodes(tree.Root())[0]
	assert.Equal(t, "p", p.Name)
	assert.True(t, p.Closed)
	assert.True(t, p.Void)

	children := tree.ChildNodes(p)
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
		assert.True(t, c.Closed, c.Name)
		assert.True(t, c.SelfClosed, c.Name)
		assert.Empty(t, c.Children, c.Name)
	}
	assert.Equal(t, []string{"br", "img", "input"}, names)

	src, _ := children[1].Attr.Get("src")
	assert.Equal(t, Attribute{Key: "src", Val: "x.png", KeyLoc: loc.Loc{Start: 16}, Type: UnquotedAttribute}, src)
	disabled, ok := children[2].Attr.Get("disabled")
	assert.True(t, ok)
	assert.False(t, disabled.HasValue())
}

func TestParseUnmatched(t *testing.T) {
	t.Run("stray end tag", func(t *testing.T) {
		source := `<a></b></a>`
		h := handler.NewHandler(source, "TestParseUnmatched.html")
		tree, err := ParseWithOptions(strings.NewReader(source), ParseOptionWithHandler(h))
		assert.NoError(t, err)
		assert.Equal(t, 1, tree.Len())
		a := tree.Node(1)
		assert.True(t, a.Closed)
		assert.Equal(t, loc.OffsetRange{Start: 7, End: 11}, a.ClosingTag)

		warnings := h.Warnings()
		if assert.Len(t, warnings, 1) {
			assert.Equal(t, int(loc.WARNING_UNMATCHED_END_TAG), warnings[0].Code)
			assert.Equal(t, 4, warnings[0].Location.Column)
		}
	})

	t.Run("stray end tag only", func(t *testing.T) {
		tree, err := Parse(strings.NewReader(`<a>x</b>`))
		assert.NoError(t, err)
		a := tree.Node(1)
		assert.False(t, a.Closed)
		assert.Equal(t, loc.UnknownRange(), a.ClosingTag)
		assert.Equal(t, RootID, a.Parent)
	})

	t.Run("closes both", func(t *testing.T) {
		tree, err := Parse(strings.NewReader(`<a><b></a>`))
		assert.NoError(t, err)
		a, b := tree.Node(1), tree.Node(2)
		assert.True(t, a.Closed)
		assert.False(t, a.Implicit)
		assert.True(t, b.Closed)
		assert.True(t, b.Implicit)
		assert.Equal(t, 6, tree.End(b))
		assert.Equal(t, 10, tree.End(a))
	})
}

func TestParseEndOfInput(t *testing.T) {
	source := `<div><span>`
	h := handler.NewHandler(source, "TestParseEndOfInput.html")
	tree, err := ParseWithOptions(strings.NewReader(source), ParseOptionWithHandler(h))
	assert.NoError(t, err)
	for _, n := range tree.Nodes() {
		assert.False(t, n.Closed, n.Name)
		assert.Equal(t, len(source), tree.End(n))
	}
	assert.Len(t, h.Warnings(), 2)

	tree, err = Parse(strings.NewReader(`<div><br>`))
	assert.NoError(t, err)
	div := tree.Node(1)
	assert.True(t, div.Void)
	assert.True(t, div.Closed)
}

func TestParseCustomTags(t *testing.T) {
	tags := testTagSet{voids: []string{"icon"}, customs: []string{"callout", "icon"}}
	source := `<callout class="x">hi<icon name=star></callout><div><callout/></div>`
	tree, err := ParseWithOptions(strings.NewReader(source), ParseOptionWithTagSet(tags))
	assert.NoError(t, err)

	custom := make([]string, 0)
	for _, n := range tree.Nodes() {
		if n.Custom {
			custom = append(custom, n.Name)
		}
	}
	assert.Equal(t, []string{"callout", "icon", "callout"}, custom)

	icon := tree.Node(2)
	assert.True(t, icon.SelfClosed)
	assert.True(t, icon.Closed)

	n, ok := tree.FindCustomNodeAt(20)
	assert.True(t, ok)
	assert.Equal(t, NodeID(1), n.ID)

	n, ok = tree.FindCustomNodeAt(strings.Index(source, "star"))
	assert.True(t, ok)
	assert.Equal(t, "icon", n.Name)

	_, ok = tree.FindCustomNodeAt(strings.Index(source, "<div>") + 1)
	assert.False(t, ok)
}

func TestParsePseudoClose(t *testing.T) {
	source := `<div<span></span>`
	tree, err := ParseWithOptions(strings.NewReader(source), ParseOptionEmitPseudoCloseTags(true))
	assert.NoError(t, err)
	root := tree.Root()
	assert.Len(t, root.Children, 2)
	div, span := tree.Node(1), tree.Node(2)
	assert.False(t, div.Closed)
	assert.Equal(t, -1, div.OpeningTag.End)
	assert.Equal(t, RootID, span.Parent)
	assert.True(t, span.Closed)
}

func TestFindNodeAt(t *testing.T) {
	tree, err := Parse(strings.NewReader(`<a><b>x</b></a>`))
	assert.NoError(t, err)
	tests := []struct {
		offset int
		want   string
	}{
		{0, "a"},
		{3, "b"},
		{6, "b"},
		{10, "b"},
		{11, "a"},
		{15, ""},
		{100, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tree.FindNodeAt(tt.offset).Name, "offset %d", tt.offset)
	}
	b := tree.Node(2)
	assert.Equal(t, "x", tree.Text(loc.OffsetRange{Start: b.OpeningTag.End, End: b.ClosingTag.Start}))
	assert.Equal(t, "a", tree.Closest(b, func(n *TagNode) bool { return n.Name == "a" }).Name)
	assert.Nil(t, tree.Closest(b, func(n *TagNode) bool { return n.Name == "z" }))
}

type shape struct {
	Name       string
	Attr       Attributes
	Void       bool
	SelfClosed bool
	Closed     bool
	Children   []shape
}

func shapeOf(tree *TagTree, n *TagNode) shape {
	s := shape{Name: n.Name, Void: n.Void, SelfClosed: n.SelfClosed, Closed: n.Closed}
	for _, a := range n.Attr {
		a.KeyLoc = loc.Loc{}
		s.Attr = append(s.Attr, a)
	}
	for _, c := range tree.ChildNodes(n) {
		s.Children = append(s.Children, shapeOf(tree, c))
	}
	return s
}

func fixturesRoundTrip() []string {
	return []string{
		`<div></div>`,
		`<div class="a b" id=main hidden><p>text<br>more</p><img src="x.png"></div>`,
		`<ul><li>one</li><li>two</li></ul>`,
		`<callout class="box">Outer

Inner</callout>`,
		`<svg><path d="M0 0" /></svg>`,
		`<p title='say "hi"'>x</p>`,
		`<script>if (a < b) {}</script><style>p{}</style>`,
		`<!doctype html><html><!-- c --><body></body></html>`,
	}
}

func TestRoundTrip(t *testing.T) {
	for _, source := range fixturesRoundTrip() {
		t.Run(test_utils.RedactTestName(source), func(t *testing.T) {
			tree, err := Parse(strings.NewReader(source))
			assert.NoError(t, err)

			var b strings.Builder
			PrintToSource(&b, tree, tree.Root())
			again, err := Parse(strings.NewReader(b.String()))
			assert.NoError(t, err)

			if diff := test_utils.ANSIDiff(shapeOf(tree, tree.Root()), shapeOf(again, again.Root())); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s\nprinted: %s", diff, b.String())
			}
		})
	}
}

func TestPrintToSourceBothQuotes(t *testing.T) {
	tree, err := Parse(strings.NewReader(`<p title="x" id=a>y</p>`))
	assert.NoError(t, err)
	p := tree.Node(1)
	p.Attr[0].Val = `it's "hi"`

	var b strings.Builder
	PrintToSource(&b, tree, tree.Root())
	assert.Equal(t, `<p title="it's &quot;hi&quot;" id=a></p>`, b.String())

	again, err := Parse(strings.NewReader(b.String()))
	assert.NoError(t, err)
	got := again.Node(1)
	assert.Equal(t, "p", got.Name)
	assert.True(t, got.Closed)
	if assert.Len(t, got.Attr, 2) {
		assert.Equal(t, Attribute{Key: "title", Val: "it's &quot;hi&quot;", Type: QuotedAttribute}, withoutLoc(got.Attr[0]))
		assert.Equal(t, "id", got.Attr[1].Key)
	}
}

func withoutLoc(a Attribute) Attribute {
	a.KeyLoc = loc.Loc{}
	return a
}

func FuzzParse(f *testing.F) {
	for _, source := range fixturesRoundTrip() {
		f.Add(source) // Use f.Add to provide a seed corpus
	}
	f.Fuzz(func(t *testing.T, source string) {
		h := handler.NewHandler(source, "FuzzParse.html")
		tree, err := ParseWithOptions(strings.NewReader(source), ParseOptionWithHandler(h))
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range tree.Nodes() {
			if n.SelfClosed && len(n.Children) > 0 {
				t.Errorf("void node %q has children", n.Name)
			}
			if parent := tree.Parent(n); parent == nil {
				t.Errorf("node %d has no parent", n.ID)
			}
		}
	})
}

func TestIsBuiltinVoid(t *testing.T) {
	for _, name := range []string{"br", "IMG", "input", "wbr", "source"} {
		assert.True(t, IsBuiltinVoid(name), name)
	}
	for _, name := range []string{"div", "span", "callout", ""} {
		assert.False(t, IsBuiltinVoid(name), name)
	}
}

func TestHashString(t *testing.T) {
	assert.Equal(t, HashString("abc"), HashString("abc"))
	assert.NotEqual(t, HashString("abc"), HashString("abd"))
	assert.Len(t, HashString(""), 8)
}
