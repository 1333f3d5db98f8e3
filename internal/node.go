package eztag

import (
	"strings"

	"github.com/ezhtml/eztag/internal/loc"
)

// NodeID indexes a TagNode in its TagTree.
type NodeID int

const (
	// RootID is the synthetic document node.
	RootID NodeID = 0
	// NoNode is the parent of the root.
	NoNode NodeID = -1
)

type AttributeType uint32

const (
	QuotedAttribute AttributeType = iota
	UnquotedAttribute
	// EmptyAttribute has no value, like the "disabled" in <input disabled>.
	EmptyAttribute
)

func (t AttributeType) String() string {
	switch t {
	case QuotedAttribute:
		return "quoted"
	case UnquotedAttribute:
		return "unquoted"
	case EmptyAttribute:
		return "empty"
	}
	return "invalid"
}

// An Attribute is an attribute key-value pair. Key is lower case. Val is
// stored without its quotes and is empty for an EmptyAttribute.
type Attribute struct {
	Key    string
	Val    string
	KeyLoc loc.Loc
	Type   AttributeType
}

// HasValue reports whether the attribute was written with a value.
func (a Attribute) HasValue() bool {
	return a.Type != EmptyAttribute
}

// Attributes keeps attributes in the order they were first set.
type Attributes []Attribute

func (a Attributes) index(key string) int {
	key = strings.ToLower(key)
	for i := range a {
		if a[i].Key == key {
			return i
		}
	}
	return -1
}

func (a Attributes) Get(key string) (Attribute, bool) {
	if i := a.index(key); i >= 0 {
		return a[i], true
	}
	return Attribute{}, false
}

func (a Attributes) Has(key string) bool {
	return a.index(key) >= 0
}

// Set replaces the attribute with the same key in place, or appends it.
func (a *Attributes) Set(attr Attribute) {
	attr.Key = strings.ToLower(attr.Key)
	if i := a.index(attr.Key); i >= 0 {
		(*a)[i] = attr
		return
	}
	*a = append(*a, attr)
}

func (a Attributes) Keys() []string {
	keys := make([]string, len(a))
	for i, attr := range a {
		keys[i] = attr.Key
	}
	return keys
}

func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// A TagNode is one tag of a parsed document. Offsets in OpeningTag and
// ClosingTag are negative while unknown.
type TagNode struct {
	ID NodeID
	// Name is the tag name as written; empty until the name is scanned.
	Name       string
	OpeningTag loc.OffsetRange
	ClosingTag loc.OffsetRange
	Parent     NodeID
	Children   []NodeID
	Attr       Attributes

	// Void is set on a node once a void or self-closed child closes back
	// into it.
	Void bool
	// Closed is set when the node was self-closed, void, matched by an end
	// tag or closed through an ancestor's end tag.
	Closed bool
	Custom bool
	// SelfClosed marks the void or self-closed node itself.
	SelfClosed bool
	// Implicit marks a node closed by an ancestor's end tag.
	Implicit bool

	end int
}

// IsRoot reports whether n is the synthetic document node.
func (n *TagNode) IsRoot() bool {
	return n.ID == RootID
}

// SameName compares tag names the way end tags are matched: an unnamed
// node only matches an empty name, otherwise lengths must agree and the
// names must be equal ignoring ASCII case.
func (n *TagNode) SameName(name string) bool {
	if n.Name == "" {
		return name == ""
	}
	return len(n.Name) == len(name) && equalFoldASCII(n.Name, name)
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

// A TagTree owns every node of one parse. Nodes live in a single slice in
// the order their "<" was scanned; index 0 is the document root.
type TagTree struct {
	nodes  []TagNode
	source []byte
}

func newTagTree(source []byte) *TagTree {
	return &TagTree{
		nodes: []TagNode{{
			ID:         RootID,
			Parent:     NoNode,
			OpeningTag: loc.OffsetRange{Start: 0, End: 0},
			ClosingTag: loc.OffsetRange{Start: len(source), End: len(source)},
			Closed:     true,
			end:        len(source),
		}},
		source: source,
	}
}

func (t *TagTree) add(parent NodeID, start int) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, TagNode{
		ID:         id,
		Parent:     parent,
		OpeningTag: loc.OpenRange(start),
		ClosingTag: loc.UnknownRange(),
		end:        -1,
	})
	p := &t.nodes[parent]
	p.Children = append(p.Children, id)
	return id
}

// Source returns the parsed text.
func (t *TagTree) Source() []byte {
	return t.source
}

func (t *TagTree) Root() *TagNode {
	return &t.nodes[RootID]
}

// Node returns the node with the given id, or nil.
func (t *TagTree) Node(id NodeID) *TagNode {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

func (t *TagTree) Parent(n *TagNode) *TagNode {
	return t.Node(n.Parent)
}

func (t *TagTree) ChildNodes(n *TagNode) []*TagNode {
	children := make([]*TagNode, len(n.Children))
	for i, id := range n.Children {
		children[i] = &t.nodes[id]
	}
	return children
}

// Nodes returns every node except the root, in document order.
func (t *TagTree) Nodes() []*TagNode {
	nodes := make([]*TagNode, 0, len(t.nodes)-1)
	for i := 1; i < len(t.nodes); i++ {
		nodes = append(nodes, &t.nodes[i])
	}
	return nodes
}

// Len returns the number of nodes, root excluded.
func (t *TagTree) Len() int {
	return len(t.nodes) - 1
}

// Walk calls fn for n and its descendants in document order. When fn
// returns false the node's children are skipped.
func (t *TagTree) Walk(n *TagNode, fn func(*TagNode) bool) {
	if !fn(n) {
		return
	}
	for _, id := range n.Children {
		t.Walk(&t.nodes[id], fn)
	}
}

// End returns the offset where n's extent ends: after its end tag, after
// its opening tag for void nodes, where the enclosing end tag starts for
// implicitly closed nodes, and at the end of input for nodes left open.
func (t *TagTree) End(n *TagNode) int {
	if n.end >= 0 {
		return n.end
	}
	return len(t.source)
}

// Extent returns [OpeningTag.Start, End(n)).
func (t *TagTree) Extent(n *TagNode) loc.OffsetRange {
	return loc.OffsetRange{Start: n.OpeningTag.Start, End: t.End(n)}
}

// FindNodeAt returns the innermost node whose extent contains offset, or
// the root.
func (t *TagTree) FindNodeAt(offset int) *TagNode {
	n := t.Root()
	for {
		var next *TagNode
		for _, id := range n.Children {
			c := &t.nodes[id]
			if c.OpeningTag.Start > offset {
				break
			}
			if offset < t.End(c) {
				next = c
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// FindCustomNodeAt returns the innermost custom node containing offset.
func (t *TagTree) FindCustomNodeAt(offset int) (*TagNode, bool) {
	n := t.Closest(t.FindNodeAt(offset), func(n *TagNode) bool { return n.Custom })
	return n, n != nil
}

// Closest returns n or its nearest ancestor matching fn. The root is never
// returned.
func (t *TagTree) Closest(n *TagNode, fn func(*TagNode) bool) *TagNode {
	for n != nil && !n.IsRoot() {
		if fn(n) {
			return n
		}
		n = t.Parent(n)
	}
	return nil
}

// Text returns the source covered by r, or an empty string when r is not
// known.
func (t *TagTree) Text(r loc.OffsetRange) string {
	if !r.Known() || r.Start > r.End || r.End > len(t.source) {
		return ""
	}
	return string(t.source[r.Start:r.End])
}
