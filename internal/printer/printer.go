package printer

import (
	"strings"

	"github.com/tdewolff/parse/v2"
)

type PrintResult struct {
	Output []byte
}

type printer struct {
	sourcetext string
	opts       Options
}

// Options controls what PrintToJSON includes.
type Options struct {
	// Position adds line, column and offset to every node and attribute.
	Position bool
	// Indent pretty-prints the output with the given indent.
	Indent string
}

func (p *printer) point(offset int) *ASTPoint {
	if offset < 0 || offset > len(p.sourcetext) {
		return nil
	}
	line, column, _ := parse.Position(strings.NewReader(p.sourcetext), offset)
	return &ASTPoint{Line: line, Column: column, Offset: offset}
}
