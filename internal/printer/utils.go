package printer

import (
	"strings"

	eztag "github.com/ezhtml/eztag/internal"
	"golang.org/x/net/html/atom"
)

func nodeType(n *eztag.TagNode) string {
	switch {
	case n.Custom:
		return "custom-element"
	case isStandardTag(n.Name):
		return "element"
	default:
		return "unknown-element"
	}
}

// elements are the HTML elements. The atom table alone also holds
// attribute names and obsolete tags.
var elements = map[atom.Atom]bool{}

func init() {
	for _, a := range []atom.Atom{
		atom.A, atom.Abbr, atom.Address, atom.Area, atom.Article, atom.Aside,
		atom.Audio, atom.B, atom.Base, atom.Bdi, atom.Bdo, atom.Blockquote,
		atom.Body, atom.Br, atom.Button, atom.Canvas, atom.Caption, atom.Cite,
		atom.Code, atom.Col, atom.Colgroup, atom.Data, atom.Datalist, atom.Dd,
		atom.Del, atom.Details, atom.Dfn, atom.Dialog, atom.Div, atom.Dl,
		atom.Dt, atom.Em, atom.Embed, atom.Fieldset, atom.Figcaption,
		atom.Figure, atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3,
		atom.H4, atom.H5, atom.H6, atom.Head, atom.Header, atom.Hgroup,
		atom.Hr, atom.Html, atom.I, atom.Iframe, atom.Img, atom.Input,
		atom.Ins, atom.Kbd, atom.Label, atom.Legend, atom.Li, atom.Link,
		atom.Main, atom.Map, atom.Mark, atom.Math, atom.Menu, atom.Meta,
		atom.Meter, atom.Nav, atom.Noscript, atom.Object, atom.Ol,
		atom.Optgroup, atom.Option, atom.Output, atom.P, atom.Param,
		atom.Picture, atom.Pre, atom.Progress, atom.Q, atom.Rp, atom.Rt,
		atom.Ruby, atom.S, atom.Samp, atom.Script, atom.Section, atom.Select,
		atom.Slot, atom.Small, atom.Source, atom.Span, atom.Strong,
		atom.Style, atom.Sub, atom.Summary, atom.Sup, atom.Svg, atom.Table,
		atom.Tbody, atom.Td, atom.Template, atom.Textarea, atom.Tfoot,
		atom.Th, atom.Thead, atom.Time, atom.Title, atom.Tr, atom.Track,
		atom.U, atom.Ul, atom.Var, atom.Video, atom.Wbr,
	} {
		elements[a] = true
	}
}

func isStandardTag(name string) bool {
	return elements[atom.Lookup([]byte(strings.ToLower(name)))]
}
