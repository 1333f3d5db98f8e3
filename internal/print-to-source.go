package eztag

import (
	"fmt"
	"strings"
)

// PrintToSource writes the markup of n and its descendants: names,
// attributes and nesting. Text between tags is not part of the tree and is
// not written.
func PrintToSource(buf *strings.Builder, tree *TagTree, n *TagNode) {
	if n.IsRoot() || n.Name == "" {
		for _, c := range tree.ChildNodes(n) {
			PrintToSource(buf, tree, c)
		}
		return
	}
	buf.WriteString(fmt.Sprintf(`<%s`, n.Name))
	for _, attr := range n.Attr {
		buf.WriteString(" ")
		buf.WriteString(attr.Key)
		switch attr.Type {
		case QuotedAttribute:
			buf.WriteString("=")
			switch {
			case !strings.Contains(attr.Val, `"`):
				buf.WriteString(`"` + attr.Val + `"`)
			case !strings.Contains(attr.Val, `'`):
				buf.WriteString(`'` + attr.Val + `'`)
			default:
				// values are kept raw, so only one holding both quotes
				// needs an entity
				buf.WriteString(`"` + strings.ReplaceAll(attr.Val, `"`, "&quot;") + `"`)
			}
		case UnquotedAttribute:
			buf.WriteString("=")
			buf.WriteString(attr.Val)
		}
	}
	if n.SelfClosed {
		buf.WriteString(" />")
		return
	}
	buf.WriteString(">")
	for _, c := range tree.ChildNodes(n) {
		PrintToSource(buf, tree, c)
	}
	if n.Closed {
		buf.WriteString(fmt.Sprintf(`</%s>`, n.Name))
	}
}
