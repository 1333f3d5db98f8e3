package expand

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	eztag "github.com/ezhtml/eztag/internal"
	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
	"github.com/ezhtml/eztag/internal/registry"
	"github.com/ezhtml/eztag/internal/transform"
	"github.com/lithammer/dedent"
)

var (
	ErrNoCustomTag = errors.New("no custom tag at offset")
	ErrUnknownTag  = errors.New("unknown custom tag")
	ErrUnclosedTag = errors.New("custom tag is not closed")
)

// An Edit replaces Range of the source with NewText.
type Edit struct {
	Range   loc.OffsetRange
	NewText string
	// Tag is the custom tag that was expanded.
	Tag string
}

// An Expander expands custom tags found in a document using one registry
// snapshot. Plans are compiled once per tag and reused.
type Expander struct {
	reg      *registry.Registry
	resolver *transform.Resolver
	handler  *handler.Handler

	mu    sync.Mutex
	plans map[string]*Plan
}

type Option func(*Expander)

// WithHandler collects parse warnings and transform failures.
func WithHandler(h *handler.Handler) Option {
	return func(e *Expander) {
		e.handler = h
	}
}

// WithResolver sets how definitions' transforms are found. Without one,
// transforms are reported unavailable and the inner text is used as is.
func WithResolver(r *transform.Resolver) Option {
	return func(e *Expander) {
		e.resolver = r
	}
}

func NewExpander(reg *registry.Registry, opts ...Option) *Expander {
	e := &Expander{
		reg:   reg,
		plans: make(map[string]*Plan),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Expander) plan(name string) (*Plan, error) {
	def, ok := e.reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, name)
	}
	key := strings.ToLower(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.plans[key]; ok {
		return p, nil
	}
	p, err := Compile(def, e.reg)
	if err != nil {
		return nil, err
	}
	e.plans[key] = p
	return p, nil
}

func (e *Expander) parse(source string) (*eztag.TagTree, error) {
	opts := []eztag.ParseOption{eztag.ParseOptionWithTagSet(e.reg)}
	if e.handler != nil {
		opts = append(opts, eztag.ParseOptionWithHandler(e.handler))
	}
	return eztag.ParseWithOptions(strings.NewReader(source), opts...)
}

// ExpandAt expands the innermost custom tag containing offset.
func (e *Expander) ExpandAt(ctx context.Context, source string, offset int) (*Edit, error) {
	tree, err := e.parse(source)
	if err != nil {
		return nil, err
	}
	n, ok := tree.FindCustomNodeAt(offset)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrNoCustomTag, offset)
	}
	return e.expandNode(ctx, tree, n)
}

// ExpandAll expands every custom tag that is not inside another one and
// returns the rewritten source with the edits applied, in document order.
// Unclosed tags and tags whose delimiters do not compile are left in place
// and reported to the handler.
func (e *Expander) ExpandAll(ctx context.Context, source string) (string, []Edit, error) {
	tree, err := e.parse(source)
	if err != nil {
		return source, nil, err
	}
	edits := make([]Edit, 0)
	var walkErr error
	tree.Walk(tree.Root(), func(n *eztag.TagNode) bool {
		if walkErr != nil {
			return false
		}
		if !n.Custom {
			return true
		}
		edit, err := e.expandNode(ctx, tree, n)
		switch {
		case err == nil:
			edits = append(edits, *edit)
		case errors.Is(err, ErrUnclosedTag):
			e.warn(loc.WARNING_UNCLOSED_HTML_TAG, err.Error(), n.OpeningTag.Start, len(n.Name)+1)
		case errors.Is(err, registry.ErrInvalidDefinition):
			e.fail(loc.ERROR_INVALID_DELIMITER, err.Error(), n.OpeningTag.Start, len(n.Name)+1)
		default:
			walkErr = err
		}
		return false
	})
	if walkErr != nil {
		return source, nil, walkErr
	}
	return ApplyEdits(source, edits), edits, nil
}

// ExpandTag expands inner as the content of a name tag carrying attrs.
func (e *Expander) ExpandTag(ctx context.Context, name string, inner string, attrs eztag.Attributes) (string, error) {
	p, err := e.plan(name)
	if err != nil {
		return "", err
	}
	def, _ := e.reg.Lookup(name)
	inner = e.transform(ctx, def, inner, loc.Range{})
	return p.Expand(inner, attrs)
}

func (e *Expander) expandNode(ctx context.Context, tree *eztag.TagTree, n *eztag.TagNode) (*Edit, error) {
	p, err := e.plan(n.Name)
	if err != nil {
		return nil, err
	}
	def, _ := e.reg.Lookup(n.Name)

	var inner string
	var end int
	switch {
	case n.SelfClosed:
		end = n.OpeningTag.End
	case n.OpeningTag.Known() && n.ClosingTag.Known():
		inner = InnerText(tree.Text(loc.OffsetRange{Start: n.OpeningTag.End, End: n.ClosingTag.Start}))
		end = n.ClosingTag.End
	default:
		return nil, fmt.Errorf("%w: <%s> at offset %d", ErrUnclosedTag, n.Name, n.OpeningTag.Start)
	}

	inner = e.transform(ctx, def, inner, loc.Range{Loc: loc.Loc{Start: n.OpeningTag.Start}, Len: len(n.Name) + 1})
	text, err := p.Expand(inner, n.Attr)
	if err != nil {
		return nil, err
	}
	return &Edit{
		Range:   loc.OffsetRange{Start: n.OpeningTag.Start, End: end},
		NewText: text,
		Tag:     n.Name,
	}, nil
}

// transform runs def's transform over inner. Whatever goes wrong, the
// expansion goes on with inner unchanged.
func (e *Expander) transform(ctx context.Context, def *registry.Definition, inner string, at loc.Range) string {
	if def.Transform.IsZero() {
		return inner
	}
	if e.resolver == nil {
		e.warn(loc.WARNING_TRANSFORM_UNAVAILABLE, fmt.Sprintf("%v: <%s>: no resolver", transform.ErrUnavailable, def.Name), at.Loc.Start, at.Len)
		return inner
	}
	t, err := e.resolver.Resolve(ctx, def.Transform)
	if err == nil {
		inner, err = transform.Apply(ctx, t, inner)
	}
	if err != nil {
		e.warn(loc.WARNING_TRANSFORM_UNAVAILABLE, fmt.Sprintf("<%s>: %v", def.Name, err), at.Loc.Start, at.Len)
	}
	return inner
}

func (e *Expander) fail(code loc.DiagnosticCode, text string, start int, length int) {
	if e.handler == nil {
		return
	}
	e.handler.AppendError(&loc.ErrorWithRange{
		Code:  code,
		Text:  text,
		Range: loc.Range{Loc: loc.Loc{Start: start}, Len: length},
	})
}

func (e *Expander) warn(code loc.DiagnosticCode, text string, start int, length int) {
	if e.handler == nil {
		return
	}
	e.handler.AppendWarning(&loc.ErrorWithRange{
		Code:  code,
		Text:  text,
		Range: loc.Range{Loc: loc.Loc{Start: start}, Len: length},
	})
}

// InnerText normalizes a custom tag's content: common indentation is
// removed and surrounding blank space trimmed.
func InnerText(raw string) string {
	return strings.TrimSpace(dedent.Dedent(raw))
}

// ApplyEdits replaces each edit's range in source. Edits must not overlap.
func ApplyEdits(source string, edits []Edit) string {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start > sorted[j].Range.Start
	})
	for _, edit := range sorted {
		source = source[:edit.Range.Start] + edit.NewText + source[edit.Range.End:]
	}
	return source
}
