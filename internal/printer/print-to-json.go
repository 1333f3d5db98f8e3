package printer

import (
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	eztag "github.com/ezhtml/eztag/internal"
)

type ASTPosition struct {
	Start *ASTPoint `json:"start,omitempty"`
	End   *ASTPoint `json:"end,omitempty"`
}

type ASTPoint struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

type ASTNode struct {
	Type       string    `json:"type"`
	Name       string    `json:"name,omitempty"`
	Value      string    `json:"value,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Attributes []ASTNode `json:"attributes,omitempty"`
	Children   []ASTNode `json:"children,omitempty"`

	// Elements only
	SelfClosed bool `json:"selfClosed,omitzero"`
	Implicit   bool `json:"implicit,omitzero"`
	Unclosed   bool `json:"unclosed,omitzero"`

	Position *ASTPosition `json:"position,omitempty"`
}

// PrintToJSON dumps the tag tree as JSON. Nodes whose name was never
// scanned are left out and their children take their place.
func PrintToJSON(sourcetext string, tree *eztag.TagTree, opts Options) (PrintResult, error) {
	p := &printer{sourcetext: sourcetext, opts: opts}
	root := ASTNode{Type: "root"}
	for _, c := range tree.ChildNodes(tree.Root()) {
		renderNode(p, tree, &root, c)
	}

	var jsonOpts []json.Options
	if opts.Indent != "" {
		jsonOpts = append(jsonOpts, jsontext.WithIndent(opts.Indent))
	}
	b, err := json.Marshal(root, jsonOpts...)
	if err != nil {
		return PrintResult{}, err
	}
	return PrintResult{Output: b}, nil
}

func renderNode(p *printer, tree *eztag.TagTree, parent *ASTNode, n *eztag.TagNode) {
	if n.Name == "" {
		for _, c := range tree.ChildNodes(n) {
			renderNode(p, tree, parent, c)
		}
		return
	}

	node := ASTNode{
		Type:       nodeType(n),
		Name:       n.Name,
		SelfClosed: n.SelfClosed,
		Implicit:   n.Implicit,
		Unclosed:   !n.Closed,
	}
	if p.opts.Position {
		node.Position = &ASTPosition{
			Start: p.point(n.OpeningTag.Start),
			End:   p.point(tree.End(n)),
		}
	}
	for _, attr := range n.Attr {
		attrNode := ASTNode{
			Type:  "attribute",
			Name:  attr.Key,
			Value: attr.Val,
			Kind:  attr.Type.String(),
		}
		if p.opts.Position {
			attrNode.Position = &ASTPosition{Start: p.point(attr.KeyLoc.Start)}
		}
		node.Attributes = append(node.Attributes, attrNode)
	}
	for _, c := range tree.ChildNodes(n) {
		renderNode(p, tree, &node, c)
	}

	parent.Children = append(parent.Children, node)
}
