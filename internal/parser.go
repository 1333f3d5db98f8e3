package eztag

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
	"golang.org/x/net/html/atom"
)

// A TagSet tells the parser which tag names are void and which are custom.
// Implementations must be safe to read while a parse is running.
type TagSet interface {
	IsVoid(name string) bool
	IsCustom(name string) bool
}

type builtinTagSet struct{}

func (builtinTagSet) IsVoid(name string) bool { return IsBuiltinVoid(name) }
func (builtinTagSet) IsCustom(string) bool    { return false }

// BuiltinTagSet knows the HTML void elements and no custom tags.
var BuiltinTagSet TagSet = builtinTagSet{}

// IsBuiltinVoid reports whether name is an HTML void element.
func IsBuiltinVoid(name string) bool {
	switch atom.Lookup([]byte(strings.ToLower(name))) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Keygen, atom.Link, atom.Meta, atom.Param, atom.Source,
		atom.Track, atom.Wbr:
		return true
	}
	return false
}

type parser struct {
	z    *Tokenizer
	tree *TagTree
	// cur is the insertion point.
	cur NodeID

	// pendingAttr is the key of the attribute awaiting a value.
	pendingAttr string
	endTagStart int
	endTagName  string

	tags    TagSet
	pseudo  bool
	handler *handler.Handler
}

type ParseOption func(p *parser)

func ParseOptionWithHandler(h *handler.Handler) ParseOption {
	return func(p *parser) {
		p.handler = h
	}
}

// ParseOptionWithTagSet sets the void and custom tag names used while
// parsing. The default is BuiltinTagSet.
func ParseOptionWithTagSet(tags TagSet) ParseOption {
	return func(p *parser) {
		if tags != nil {
			p.tags = tags
		}
	}
}

// ParseOptionEmitPseudoCloseTags makes a tag interrupted by a new "<" stop
// being the insertion point instead of swallowing the following markup.
func ParseOptionEmitPseudoCloseTags(emit bool) ParseOption {
	return func(p *parser) {
		p.pseudo = emit
	}
}

// Parse returns the TagTree for the markup read from r. Malformed markup
// never fails a parse; the only error is one returned by r.
func Parse(r io.Reader) (*TagTree, error) {
	return ParseWithOptions(r)
}

func ParseWithOptions(r io.Reader, opts ...ParseOption) (*TagTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tags:        BuiltinTagSet,
		endTagStart: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tree = newTagTree(src)
	p.cur = RootID
	p.z = newTokenizer(src, 0, WithinContent)
	p.z.handler = p.handler
	p.z.EmitPseudoCloseTags(p.pseudo)

	for p.z.Scan() != EOSToken {
		p.step()
	}
	p.finish()
	return p.tree, nil
}

func (p *parser) node(id NodeID) *TagNode {
	return &p.tree.nodes[id]
}

// ascend moves the insertion point to the parent of cur.
func (p *parser) ascend() *TagNode {
	p.cur = p.node(p.cur).Parent
	return p.node(p.cur)
}

func (p *parser) step() {
	z := p.z
	switch z.TokenType() {
	case StartTagOpenToken:
		p.cur = p.tree.add(p.cur, z.TokenOffset())
	case StartTagToken:
		p.node(p.cur).Name = string(z.TokenText())
	case StartTagCloseToken:
		if p.cur == RootID {
			return
		}
		n := p.node(p.cur)
		if z.TokenLength() == 0 {
			// pseudo close: the tag stays open but stops taking children
			n.end = z.TokenOffset()
			p.ascend()
			return
		}
		n.OpeningTag.End = z.TokenEnd()
		if n.Name == "" {
			return
		}
		n.Custom = p.tags.IsCustom(n.Name)
		if p.tags.IsVoid(n.Name) {
			n.Closed = true
			n.SelfClosed = true
			n.end = n.OpeningTag.End
			p.ascend().Void = true
		}
	case StartTagSelfCloseToken:
		if p.cur == RootID {
			return
		}
		n := p.node(p.cur)
		n.OpeningTag.End = z.TokenEnd()
		n.Closed = true
		n.SelfClosed = true
		n.end = n.OpeningTag.End
		if n.Name != "" {
			n.Custom = p.tags.IsCustom(n.Name)
		}
		p.ascend().Void = true
	case EndTagOpenToken:
		p.endTagStart = z.TokenOffset()
		p.endTagName = ""
	case EndTagToken:
		p.endTagName = strings.ToLower(string(z.TokenText()))
	case EndTagCloseToken:
		p.closeElement(z.TokenEnd())
	case AttributeNameToken:
		key := strings.ToLower(string(z.TokenText()))
		p.node(p.cur).Attr.Set(Attribute{
			Key:    key,
			KeyLoc: loc.Loc{Start: z.TokenOffset()},
			Type:   EmptyAttribute,
		})
		p.pendingAttr = key
	case AttributeValueToken:
		if p.pendingAttr == "" {
			return
		}
		n := p.node(p.cur)
		attr, _ := n.Attr.Get(p.pendingAttr)
		attr.Val, attr.Type = unquote(z.TokenText())
		n.Attr.Set(attr)
		p.pendingAttr = ""
	}
}

// closeElement matches the end tag just scanned against the insertion point
// and its ancestors. A match closes the ancestor and every node between;
// a stray end tag changes nothing.
func (p *parser) closeElement(end int) {
	match := p.node(p.cur)
	for !match.IsRoot() && !match.SameName(p.endTagName) {
		match = p.node(match.Parent)
	}
	if match.IsRoot() {
		p.warn(loc.WARNING_UNMATCHED_END_TAG, fmt.Sprintf("Unexpected end tag </%s>.", p.endTagName), p.endTagStart, end-p.endTagStart)
		return
	}
	for n := p.node(p.cur); n != match; n = p.node(n.Parent) {
		n.Closed = true
		n.Implicit = true
		n.end = p.endTagStart
	}
	match.Closed = true
	match.ClosingTag = loc.OffsetRange{Start: p.endTagStart, End: end}
	match.end = end
	p.cur = match.Parent
}

// finish closes whatever is still open at the end of input. Only a node
// that had a void child counts as closed there.
func (p *parser) finish() {
	for p.cur != RootID {
		n := p.node(p.cur)
		n.Closed = n.Void
		n.end = len(p.tree.source)
		if !n.Closed {
			p.warn(loc.WARNING_UNCLOSED_HTML_TAG, fmt.Sprintf("<%s> is not closed.", n.Name), n.OpeningTag.Start, len(n.Name)+1)
		}
		p.cur = n.Parent
	}
}

func (p *parser) warn(code loc.DiagnosticCode, text string, start int, length int) {
	if p.handler == nil {
		return
	}
	p.handler.AppendWarning(&loc.ErrorWithRange{
		Code:  code,
		Text:  text,
		Range: loc.Range{Loc: loc.Loc{Start: start}, Len: length},
	})
}

// unquote strips the quotes of an attribute value token. An unterminated
// value keeps everything after its opening quote.
func unquote(raw []byte) (string, AttributeType) {
	if len(raw) == 0 {
		return "", UnquotedAttribute
	}
	q := raw[0]
	if q != '"' && q != '\'' {
		return string(raw), UnquotedAttribute
	}
	if len(raw) >= 2 && raw[len(raw)-1] == q {
		return string(raw[1 : len(raw)-1]), QuotedAttribute
	}
	return string(raw[1:]), QuotedAttribute
}
