package expand

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	eztag "github.com/ezhtml/eztag/internal"
	"github.com/ezhtml/eztag/internal/loc"
	"github.com/ezhtml/eztag/internal/registry"
)

// MatchTimeout bounds a single delimiter search.
var MatchTimeout = 2 * time.Second

// A VoidSet decides which skeleton tags are void. A nil VoidSet means the
// HTML void elements.
type VoidSet interface {
	IsVoid(name string) bool
}

// listAttributes hold space-separated lists. Instance values are appended
// to the skeleton's instead of replacing them.
var listAttributes = map[string]bool{
	"class": true,
	"rel":   true,
	"part":  true,
}

type level struct {
	tag    string
	attr   eztag.Attributes
	parent int
	void   bool
	// group is the regexp group name of the level's delimiter, if any.
	group    string
	children []int
}

// A Plan is a custom tag definition compiled for expansion. It is safe for
// concurrent use.
type Plan struct {
	name    string
	levels  []level
	pattern *regexp2.Regexp
}

// Compile flattens def's skeleton and compiles its delimiters into one
// alternation with a named group per level, so a match tells which level
// starts there. Delimiters match literally, longest first, so one that is a
// prefix of another never hides it. With def.PatternDelimiters they are
// regular expressions, tried in level order.
func Compile(def *registry.Definition, voids VoidSet) (*Plan, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	delimiters, err := def.LevelDelimiters()
	if err != nil {
		return nil, err
	}
	isVoid := eztag.IsBuiltinVoid
	if voids != nil {
		isVoid = voids.IsVoid
	}

	type alternative struct {
		group string
		delim string
	}
	p := &Plan{name: def.Name}
	alternatives := make([]alternative, 0, len(delimiters))
	for i, lvl := range def.Levels() {
		l := level{
			tag:    lvl.Node.Tag,
			attr:   lvl.Node.Attr.Clone(),
			parent: lvl.Parent,
			void:   isVoid(lvl.Node.Tag),
		}
		if lvl.Parent >= 0 {
			p.levels[lvl.Parent].children = append(p.levels[lvl.Parent].children, i)
		}
		if delim := delimiters[i]; delim != "" {
			if def.PatternDelimiters {
				if _, err := regexp2.Compile(delim, regexp2.None); err != nil {
					return nil, fmt.Errorf("%w: %s: delimiter %q: %v", registry.ErrInvalidDefinition, def.Name, delim, err)
				}
			}
			l.group = "d" + strconv.Itoa(i)
			alternatives = append(alternatives, alternative{group: l.group, delim: delim})
		}
		p.levels = append(p.levels, l)
	}
	if len(alternatives) == 0 {
		return p, nil
	}

	if !def.PatternDelimiters {
		sort.SliceStable(alternatives, func(i, j int) bool {
			return len(alternatives[i].delim) > len(alternatives[j].delim)
		})
	}
	parts := make([]string, len(alternatives))
	for i, alt := range alternatives {
		delim := alt.delim
		if !def.PatternDelimiters {
			delim = regexp2.Escape(delim)
		}
		parts[i] = "(?<" + alt.group + ">" + delim + ")"
	}
	re, err := regexp2.Compile(strings.Join(parts, "|"), regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", registry.ErrInvalidDefinition, def.Name, err)
	}
	re.MatchTimeout = MatchTimeout
	p.pattern = re
	return p, nil
}

// Name returns the custom tag the plan was compiled from.
func (p *Plan) Name() string {
	return p.name
}

// Expand splits inner at the delimiters and lays the pieces out in the
// skeleton. Text before the first delimiter belongs to the root; text after
// a delimiter belongs to that delimiter's level, or to the nearest non-void
// ancestor when the level is void. Text reaching one level several times is
// kept in order. attrs are the instance's attributes, merged into the root.
//
// Each level's text is written right after its open tag and before its
// children, whatever the order in inner. So "a\n\nb---c" with a root
// delimiter "---" and a child delimiter "\n\n" puts c next to a, ahead of
// the child holding b.
func (p *Plan) Expand(inner string, attrs eztag.Attributes) (string, error) {
	buckets := make([][]string, len(p.levels))
	add := func(i int, text string) {
		for i > 0 && p.levels[i].void {
			i = p.levels[i].parent
		}
		if text = strings.TrimSpace(text); text != "" {
			buckets[i] = append(buckets[i], text)
		}
	}

	current := 0
	if p.pattern != nil {
		runes := []rune(inner)
		start := 0
		m, err := p.pattern.FindRunesMatch(runes)
		for ; m != nil; m, err = p.pattern.FindNextMatch(m) {
			if m.Length == 0 {
				continue
			}
			add(current, string(runes[start:m.Index]))
			current = p.matchedLevel(m)
			start = m.Index + m.Length
		}
		if err != nil {
			return "", fmt.Errorf("expanding <%s>: %w", p.name, err)
		}
		inner = string(runes[start:])
	}
	add(current, inner)

	root := p.levels[0]
	rootAttrs := MergeAttributes(root.attr, attrs)
	if len(p.levels) == 1 {
		if root.void {
			return openTag(root.tag, rootAttrs), nil
		}
		return openTag(root.tag, rootAttrs) + strings.Join(buckets[0], "\n") + closeTag(root.tag), nil
	}

	lines := make([]string, 0, 2*len(p.levels)+len(buckets))
	var render func(i int, attrs eztag.Attributes)
	render = func(i int, attrs eztag.Attributes) {
		l := p.levels[i]
		lines = append(lines, openTag(l.tag, attrs))
		if l.void {
			return
		}
		lines = append(lines, buckets[i]...)
		for _, c := range l.children {
			render(c, p.levels[c].attr)
		}
		lines = append(lines, closeTag(l.tag))
	}
	render(0, rootAttrs)
	return strings.Join(lines, "\n"), nil
}

func (p *Plan) matchedLevel(m *regexp2.Match) int {
	for i, l := range p.levels {
		if l.group == "" {
			continue
		}
		if g := m.GroupByName(l.group); g != nil && len(g.Captures) > 0 {
			return i
		}
	}
	return 0
}

// Expand compiles def and expands inner with it.
func Expand(inner string, def *registry.Definition, attrs eztag.Attributes, voids VoidSet) (string, error) {
	p, err := Compile(def, voids)
	if err != nil {
		return "", err
	}
	return p.Expand(inner, attrs)
}

// MergeAttributes returns the skeleton attributes with the instance's laid
// over them. List attributes are joined, skeleton values first; any other
// instance attribute replaces the skeleton's.
func MergeAttributes(skeleton, instance eztag.Attributes) eztag.Attributes {
	out := skeleton.Clone()
	for _, attr := range instance {
		attr.KeyLoc = loc.Loc{}
		if cur, ok := out.Get(attr.Key); ok && listAttributes[attr.Key] && cur.HasValue() && attr.HasValue() {
			cur.Val = strings.TrimSpace(strings.TrimSpace(cur.Val) + " " + strings.TrimSpace(attr.Val))
			out.Set(cur)
			continue
		}
		out.Set(attr)
	}
	return out
}

func openTag(tag string, attrs eztag.Attributes) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(tag)
	for _, attr := range attrs {
		b.WriteString(" ")
		b.WriteString(attr.Key)
		b.WriteString("=")
		if attr.HasValue() {
			b.WriteString(`"`)
			b.WriteString(strings.ReplaceAll(attr.Val, `"`, "&quot;"))
			b.WriteString(`"`)
		}
	}
	b.WriteString(">")
	return b.String()
}

func closeTag(tag string) string {
	return "</" + tag + ">"
}
