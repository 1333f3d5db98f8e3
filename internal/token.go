// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// The scanner states and their transitions are adapted from the HTML
// scanner of vscode-html-languageservice:
// https://github.com/microsoft/vscode-html-languageservice/blob/main/src/parser/htmlScanner.ts
//
// Copyright (c) Microsoft
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

package eztag

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ezhtml/eztag/internal/handler"
	"github.com/ezhtml/eztag/internal/loc"
)

// A TokenType is the type of a Token.
type TokenType uint32

const (
	// A StartTagOpenToken is the "<" of "<a>".
	StartTagOpenToken TokenType = iota
	// A StartTagToken is the "a" of "<a>".
	StartTagToken
	// An AttributeNameToken is the "k" of "<a k=v>".
	AttributeNameToken
	// A DelimiterAssignToken is the "=" of "<a k=v>".
	DelimiterAssignToken
	// An AttributeValueToken is the "v" of "<a k=v>", quotes included.
	AttributeValueToken
	// A StartTagCloseToken is the ">" of "<a>". It is empty when it was
	// emitted as a pseudo close.
	StartTagCloseToken
	// A StartTagSelfCloseToken is the "/>" of "<br/>".
	StartTagSelfCloseToken
	// An EndTagOpenToken is the "</" of "</a>".
	EndTagOpenToken
	// An EndTagToken is the "a" of "</a>".
	EndTagToken
	// An EndTagCloseToken is the ">" of "</a>".
	EndTagCloseToken
	StartCommentTagToken
	CommentToken
	EndCommentTagToken
	StartDoctypeTagToken
	DoctypeToken
	EndDoctypeTagToken
	// ContentToken is text between tags.
	ContentToken
	// ScriptToken is the raw body of a <script> element.
	ScriptToken
	// StylesToken is the raw body of a <style> element.
	StylesToken
	WhitespaceToken
	// UnknownToken covers input the scanner could not classify. It usually
	// carries an error message.
	UnknownToken
	// EOSToken is returned once the input is exhausted, and on every call
	// after that.
	EOSToken
)

// String returns a string representation of the TokenType.
func (t TokenType) String() string {
	switch t {
	case StartTagOpenToken:
		return "StartTagOpen"
	case StartTagToken:
		return "StartTag"
	case AttributeNameToken:
		return "AttributeName"
	case DelimiterAssignToken:
		return "DelimiterAssign"
	case AttributeValueToken:
		return "AttributeValue"
	case StartTagCloseToken:
		return "StartTagClose"
	case StartTagSelfCloseToken:
		return "StartTagSelfClose"
	case EndTagOpenToken:
		return "EndTagOpen"
	case EndTagToken:
		return "EndTag"
	case EndTagCloseToken:
		return "EndTagClose"
	case StartCommentTagToken:
		return "StartCommentTag"
	case CommentToken:
		return "Comment"
	case EndCommentTagToken:
		return "EndCommentTag"
	case StartDoctypeTagToken:
		return "StartDoctypeTag"
	case DoctypeToken:
		return "Doctype"
	case EndDoctypeTagToken:
		return "EndDoctypeTag"
	case ContentToken:
		return "Content"
	case ScriptToken:
		return "Script"
	case StylesToken:
		return "Styles"
	case WhitespaceToken:
		return "Whitespace"
	case UnknownToken:
		return "Unknown"
	case EOSToken:
		return "EOS"
	}
	return "Invalid(" + strconv.Itoa(int(t)) + ")"
}

// ScannerState is the state of the Tokenizer between two tokens.
type ScannerState uint32

const (
	WithinContent ScannerState = iota
	WithinComment
	WithinDoctype
	AfterOpeningStartTag
	AfterOpeningEndTag
	WithinTag
	WithinEndTag
	AfterAttributeName
	BeforeAttributeValue
	// WithinScriptContent and WithinStyleContent are the two raw text
	// states. Use RawText to tell them apart from the others.
	WithinScriptContent
	WithinStyleContent
)

// RawTextKind is the kind of element whose body is scanned as raw text.
type RawTextKind uint32

const (
	ScriptRawText RawTextKind = iota
	StyleRawText
)

func (k RawTextKind) String() string {
	switch k {
	case ScriptRawText:
		return "Script"
	case StyleRawText:
		return "Style"
	}
	return "Invalid(" + strconv.Itoa(int(k)) + ")"
}

// RawText reports whether s is a raw text state and, if so, which kind.
func (s ScannerState) RawText() (RawTextKind, bool) {
	switch s {
	case WithinScriptContent:
		return ScriptRawText, true
	case WithinStyleContent:
		return StyleRawText, true
	}
	return 0, false
}

func (s ScannerState) String() string {
	switch s {
	case WithinContent:
		return "WithinContent"
	case WithinComment:
		return "WithinComment"
	case WithinDoctype:
		return "WithinDoctype"
	case AfterOpeningStartTag:
		return "AfterOpeningStartTag"
	case AfterOpeningEndTag:
		return "AfterOpeningEndTag"
	case WithinTag:
		return "WithinTag"
	case WithinEndTag:
		return "WithinEndTag"
	case AfterAttributeName:
		return "AfterAttributeName"
	case BeforeAttributeValue:
		return "BeforeAttributeValue"
	case WithinScriptContent:
		return "WithinRawTextContent(Script)"
	case WithinStyleContent:
		return "WithinRawTextContent(Style)"
	}
	return "Invalid(" + strconv.Itoa(int(s)) + ")"
}

// A Token is a view of one scanned token: its type, where it starts, how
// long it is and the scanner state it left behind. It never holds a copy
// of the source text.
type Token struct {
	Type  TokenType
	Loc   loc.Loc
	Len   int
	State ScannerState
	// Err is set when the token reports malformed input.
	Err string
}

func (t Token) End() int {
	return t.Loc.Start + t.Len
}

// Text returns the bytes of src covered by the token.
func (t Token) Text(src []byte) []byte {
	if t.Loc.Start < 0 || t.End() > len(src) {
		return nil
	}
	return src[t.Loc.Start:t.End()]
}

func (t Token) String() string {
	s := fmt.Sprintf("%v[%d:%d]", t.Type, t.Loc.Start, t.End())
	if t.Err != "" {
		s += " (" + t.Err + ")"
	}
	return s
}

// htmlScriptContents lists <script type> values whose body is markup rather
// than script.
var htmlScriptContents = map[string]bool{
	"text/x-handlebars-template": true,
	"text/html":                  true,
}

// scriptBoundary finds the markers that matter while scanning a script
// body: comment openers and closers, and <script / </script tags.
var scriptBoundary = regexp.MustCompile(`(?i)<!--|-->|</?script\s*/?>?`)

// A Tokenizer returns a stream of markup Tokens.
type Tokenizer struct {
	// buf is the whole source; tokens are views into it.
	buf []byte
	// pos is the read cursor. buf[tokenOffset:pos] is the current token.
	pos         int
	tokenOffset int
	tt          TokenType
	tokenErr    string
	state       ScannerState

	// hasSpaceAfterTag gates attribute name scanning: an attribute name is
	// only recognised after whitespace.
	hasSpaceAfterTag bool
	// lastTag is the lower-cased name of the start tag being scanned.
	lastTag string
	// lastAttributeName is the lower-cased name of the last attribute.
	lastAttributeName string
	// lastTypeValue is the value of the current tag's type attribute.
	lastTypeValue string

	// emitPseudoCloseTags makes the tokenizer emit an empty
	// StartTagClose/EndTagClose when a "<" shows up before a tag's ">".
	emitPseudoCloseTags bool

	handler *handler.Handler
}

// EmitPseudoCloseTags sets whether a tag interrupted by a new "<" is closed
// with a zero-length close token instead of an Unknown token.
func (z *Tokenizer) EmitPseudoCloseTags(emit bool) {
	z.emitPseudoCloseTags = emit
}

// TokenType returns the type of the most recently scanned token.
func (z *Tokenizer) TokenType() TokenType {
	return z.tt
}

func (z *Tokenizer) TokenOffset() int {
	return z.tokenOffset
}

func (z *Tokenizer) TokenLength() int {
	return z.pos - z.tokenOffset
}

func (z *Tokenizer) TokenEnd() int {
	return z.pos
}

// TokenText returns the raw text of the current token. The slice aliases
// the tokenizer's buffer.
func (z *Tokenizer) TokenText() []byte {
	return z.buf[z.tokenOffset:z.pos]
}

// TokenError returns the error message attached to the current token, if
// any.
func (z *Tokenizer) TokenError() string {
	return z.tokenErr
}

func (z *Tokenizer) ScannerState() ScannerState {
	return z.state
}

// Source returns the buffer being tokenized.
func (z *Tokenizer) Source() []byte {
	return z.buf
}

// Token returns the current Token.
func (z *Tokenizer) Token() Token {
	return Token{
		Type:  z.tt,
		Loc:   loc.Loc{Start: z.tokenOffset},
		Len:   z.pos - z.tokenOffset,
		State: z.state,
		Err:   z.tokenErr,
	}
}

func (z *Tokenizer) warn(code loc.DiagnosticCode, text string, start int, length int) {
	if z.handler == nil {
		return
	}
	z.handler.AppendWarning(&loc.ErrorWithRange{
		Code: code,
		Text: text,
		Range: loc.Range{
			Loc: loc.Loc{Start: start},
			Len: length,
		},
	})
}

func (z *Tokenizer) finishToken(offset int, tt TokenType) TokenType {
	z.tt = tt
	z.tokenOffset = offset
	z.tokenErr = ""
	return tt
}

func (z *Tokenizer) finishTokenWithError(offset int, tt TokenType, code loc.DiagnosticCode, text string) TokenType {
	z.finishToken(offset, tt)
	z.tokenErr = text
	z.warn(code, text, offset, z.pos-offset)
	return tt
}

func (z *Tokenizer) eos() bool {
	return z.pos >= len(z.buf)
}

// peekByte returns the byte n positions past the cursor, or 0 outside the
// buffer.
func (z *Tokenizer) peekByte(n int) byte {
	i := z.pos + n
	if i < 0 || i >= len(z.buf) {
		return 0
	}
	return z.buf[i]
}

func (z *Tokenizer) advanceIfByte(c byte) bool {
	if z.pos < len(z.buf) && z.buf[z.pos] == c {
		z.pos++
		return true
	}
	return false
}

func (z *Tokenizer) advanceIfBytes(s string) bool {
	if !bytes.HasPrefix(z.buf[z.pos:], []byte(s)) {
		return false
	}
	z.pos += len(s)
	return true
}

// advanceIfFold is advanceIfBytes with ASCII case folding. s must be lower
// case.
func (z *Tokenizer) advanceIfFold(s string) bool {
	if z.pos+len(s) > len(z.buf) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if lowerASCII(z.buf[z.pos+i]) != s[i] {
			return false
		}
	}
	z.pos += len(s)
	return true
}

// advanceUntilByte moves the cursor to the next c and reports whether one
// was found. Without a match the cursor ends at the end of the buffer.
func (z *Tokenizer) advanceUntilByte(c byte) bool {
	if i := bytes.IndexByte(z.buf[z.pos:], c); i >= 0 {
		z.pos += i
		return true
	}
	z.pos = len(z.buf)
	return false
}

func (z *Tokenizer) advanceUntilBytes(s string) bool {
	if i := bytes.Index(z.buf[z.pos:], []byte(s)); i >= 0 {
		z.pos += i
		return true
	}
	z.pos = len(z.buf)
	return false
}

// advanceUntilFold moves the cursor to the next case-insensitive match of
// s, which must be lower case.
func (z *Tokenizer) advanceUntilFold(s string) bool {
	for ; z.pos+len(s) <= len(z.buf); z.pos++ {
		match := true
		for i := 0; i < len(s); i++ {
			if lowerASCII(z.buf[z.pos+i]) != s[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	z.pos = len(z.buf)
	return false
}

// skipWhiteSpace skips past any white space and reports whether there was
// any.
func (z *Tokenizer) skipWhiteSpace() bool {
	start := z.pos
	for z.pos < len(z.buf) {
		switch z.buf[z.pos] {
		case ' ', '\t', '\n', '\f', '\r':
			z.pos++
			continue
		}
		break
	}
	return z.pos > start
}

// advanceWhileRune consumes runes while ok holds for them, passing whether
// the rune is the first one consumed.
func (z *Tokenizer) advanceWhileRune(ok func(r rune, first bool) bool) []byte {
	start := z.pos
	for z.pos < len(z.buf) {
		r, size := utf8.DecodeRune(z.buf[z.pos:])
		if !ok(r, z.pos == start) {
			break
		}
		z.pos += size
	}
	return z.buf[start:z.pos]
}

// nextElementName reads a tag name like the "div" in "<div k=v>" and
// returns it lower-cased.
func (z *Tokenizer) nextElementName() string {
	name := z.advanceWhileRune(func(r rune, first bool) bool {
		if r == '_' || r == ':' || unicode.IsLetter(r) {
			return true
		}
		return !first && (r == '.' || r == '-' || unicode.IsDigit(r))
	})
	return strings.ToLower(string(name))
}

// nextAttributeName reads an attribute name like the "k" in "<div k=v>"
// and returns it lower-cased.
func (z *Tokenizer) nextAttributeName() string {
	name := z.advanceWhileRune(func(r rune, _ bool) bool {
		switch r {
		case '"', '\'', '>', '<', '/', '=':
			return false
		}
		if r == utf8.RuneError || unicode.IsSpace(r) {
			return false
		}
		return !(r <= 0x0F || r == 0x7F || (r >= 0x80 && r <= 0x9F))
	})
	return strings.ToLower(string(name))
}

// nextUnquotedValue reads an unquoted attribute value.
func (z *Tokenizer) nextUnquotedValue() []byte {
	return z.advanceWhileRune(func(r rune, _ bool) bool {
		switch r {
		case '"', '\'', '`', '=', '<', '>':
			return false
		}
		return !unicode.IsSpace(r)
	})
}

// Scan scans the next token and returns its type. Every call either
// advances the cursor or returns EOSToken, so repeated calls always reach
// the end of the input.
func (z *Tokenizer) Scan() TokenType {
	offset := z.pos
	oldState := z.state
	tt := z.internalScan()
	if tt != EOSToken && offset == z.pos && !(z.emitPseudoCloseTags && (tt == StartTagCloseToken || tt == EndTagCloseToken)) {
		z.pos++
		if z.pos > len(z.buf) {
			z.pos = len(z.buf)
		}
		return z.finishTokenWithError(offset, UnknownToken, loc.WARNING_SCANNER_STALLED,
			fmt.Sprintf("Scanner has not advanced at offset %d, state before: %v after: %v", offset, oldState, z.state))
	}
	return tt
}

func (z *Tokenizer) internalScan() TokenType {
	offset := z.pos
	if z.eos() {
		return z.finishToken(offset, EOSToken)
	}
	var errCode loc.DiagnosticCode
	var errText string

	switch z.state {
	case WithinComment:
		if z.advanceIfBytes("-->") {
			z.state = WithinContent
			return z.finishToken(offset, EndCommentTagToken)
		}
		if !z.advanceUntilBytes("-->") {
			return z.finishTokenWithError(offset, CommentToken, loc.WARNING_UNTERMINATED_HTML_COMMENT, "Comment is not terminated.")
		}
		return z.finishToken(offset, CommentToken)
	case WithinDoctype:
		if z.advanceIfByte('>') {
			z.state = WithinContent
			return z.finishToken(offset, EndDoctypeTagToken)
		}
		z.advanceUntilByte('>')
		return z.finishToken(offset, DoctypeToken)
	case WithinContent:
		if z.advanceIfByte('<') {
			if !z.eos() && z.peekByte(0) == '!' {
				if z.advanceIfBytes("!--") {
					z.state = WithinComment
					return z.finishToken(offset, StartCommentTagToken)
				}
				if z.advanceIfFold("!doctype") {
					z.state = WithinDoctype
					return z.finishToken(offset, StartDoctypeTagToken)
				}
			}
			if z.advanceIfByte('/') {
				z.state = AfterOpeningEndTag
				return z.finishToken(offset, EndTagOpenToken)
			}
			z.state = AfterOpeningStartTag
			return z.finishToken(offset, StartTagOpenToken)
		}
		z.advanceUntilByte('<')
		return z.finishToken(offset, ContentToken)
	case AfterOpeningEndTag:
		if name := z.nextElementName(); len(name) > 0 {
			z.state = WithinEndTag
			return z.finishToken(offset, EndTagToken)
		}
		if z.skipWhiteSpace() {
			return z.finishTokenWithError(offset, WhitespaceToken, loc.WARNING_WHITESPACE_AFTER_BRACKET, "Tag name must directly follow the open bracket.")
		}
		z.state = WithinEndTag
		z.advanceUntilByte('>')
		if offset < z.pos {
			return z.finishTokenWithError(offset, UnknownToken, loc.WARNING_TAG_NAME_EXPECTED, "End tag name expected.")
		}
		return z.internalScan()
	case WithinEndTag:
		if z.skipWhiteSpace() {
			return z.finishToken(offset, WhitespaceToken)
		}
		if z.advanceIfByte('>') {
			z.state = WithinContent
			return z.finishToken(offset, EndTagCloseToken)
		}
		if z.emitPseudoCloseTags && z.peekByte(0) == '<' {
			z.state = WithinContent
			return z.finishTokenWithError(offset, EndTagCloseToken, loc.WARNING_CLOSING_BRACKET_EXPECTED, "Closing bracket missing.")
		}
		errCode, errText = loc.WARNING_CLOSING_BRACKET_EXPECTED, "Closing bracket expected."
	case AfterOpeningStartTag:
		z.lastTag = z.nextElementName()
		z.lastTypeValue = ""
		z.lastAttributeName = ""
		if len(z.lastTag) > 0 {
			z.hasSpaceAfterTag = false
			z.state = WithinTag
			return z.finishToken(offset, StartTagToken)
		}
		if z.skipWhiteSpace() {
			return z.finishTokenWithError(offset, WhitespaceToken, loc.WARNING_WHITESPACE_AFTER_BRACKET, "Tag name must directly follow the open bracket.")
		}
		z.state = WithinTag
		z.advanceUntilByte('>')
		if offset < z.pos {
			return z.finishTokenWithError(offset, UnknownToken, loc.WARNING_TAG_NAME_EXPECTED, "Start tag name expected.")
		}
		return z.internalScan()
	case WithinTag:
		if z.skipWhiteSpace() {
			z.hasSpaceAfterTag = true
			return z.finishToken(offset, WhitespaceToken)
		}
		if z.hasSpaceAfterTag {
			z.lastAttributeName = z.nextAttributeName()
			if len(z.lastAttributeName) > 0 {
				z.state = AfterAttributeName
				z.hasSpaceAfterTag = false
				return z.finishToken(offset, AttributeNameToken)
			}
		}
		if z.advanceIfBytes("/>") {
			z.state = WithinContent
			return z.finishToken(offset, StartTagSelfCloseToken)
		}
		if z.advanceIfByte('>') {
			switch z.lastTag {
			case "script":
				if z.lastTypeValue != "" && htmlScriptContents[z.lastTypeValue] {
					z.state = WithinContent
				} else {
					z.state = WithinScriptContent
				}
			case "style":
				z.state = WithinStyleContent
			default:
				z.state = WithinContent
			}
			return z.finishToken(offset, StartTagCloseToken)
		}
		if z.emitPseudoCloseTags && z.peekByte(0) == '<' {
			z.state = WithinContent
			return z.finishTokenWithError(offset, StartTagCloseToken, loc.WARNING_CLOSING_BRACKET_EXPECTED, "Closing bracket missing.")
		}
		_, size := utf8.DecodeRune(z.buf[z.pos:])
		z.pos += size
		return z.finishTokenWithError(offset, UnknownToken, loc.WARNING_UNEXPECTED_CHARACTER, "Unexpected character in tag.")
	case AfterAttributeName:
		if z.skipWhiteSpace() {
			z.hasSpaceAfterTag = true
			return z.finishToken(offset, WhitespaceToken)
		}
		if z.advanceIfByte('=') {
			z.state = BeforeAttributeValue
			return z.finishToken(offset, DelimiterAssignToken)
		}
		// no advance yet, jump to WithinTag
		z.state = WithinTag
		return z.internalScan()
	case BeforeAttributeValue:
		if z.skipWhiteSpace() {
			return z.finishToken(offset, WhitespaceToken)
		}
		if value := z.nextUnquotedValue(); len(value) > 0 {
			// <foo bar=http://foo/> leaves the "/" to the self-close
			if z.peekByte(0) == '>' && z.peekByte(-1) == '/' {
				z.pos--
				value = value[:len(value)-1]
			}
			if z.lastAttributeName == "type" {
				z.lastTypeValue = string(value)
			}
			if len(value) > 0 {
				z.state = WithinTag
				z.hasSpaceAfterTag = false
				return z.finishToken(offset, AttributeValueToken)
			}
		}
		if ch := z.peekByte(0); ch == '\'' || ch == '"' {
			z.pos++
			terminated := z.advanceUntilByte(ch)
			valueEnd := z.pos
			if terminated {
				z.pos++
			}
			if z.lastAttributeName == "type" {
				z.lastTypeValue = string(z.buf[offset+1 : valueEnd])
			}
			z.state = WithinTag
			z.hasSpaceAfterTag = false
			if !terminated {
				return z.finishTokenWithError(offset, AttributeValueToken, loc.WARNING_UNTERMINATED_ATTRIBUTE_VALUE, "Attribute value is not terminated.")
			}
			return z.finishToken(offset, AttributeValueToken)
		}
		// no advance yet, jump to WithinTag
		z.state = WithinTag
		z.hasSpaceAfterTag = false
		return z.internalScan()
	case WithinScriptContent:
		z.readScript()
		z.state = WithinContent
		if offset < z.pos {
			return z.finishToken(offset, ScriptToken)
		}
		// no advance yet, jump to content
		return z.internalScan()
	case WithinStyleContent:
		z.advanceUntilFold("</style")
		z.state = WithinContent
		if offset < z.pos {
			return z.finishToken(offset, StylesToken)
		}
		// no advance yet, jump to content
		return z.internalScan()
	}

	z.pos++
	z.state = WithinContent
	if errText != "" {
		return z.finishTokenWithError(offset, UnknownToken, errCode, errText)
	}
	return z.finishToken(offset, UnknownToken)
}

// readScript advances to the "</script" that ends the current script body,
// or to the end of the input. A "</script" is ignored while inside an
// escaped "<!-- <script>" section.
func (z *Tokenizer) readScript() {
	const (
		scriptData = iota
		scriptDataEscaped
		scriptDataDoubleEscaped
	)
	state := scriptData
	for !z.eos() {
		m := scriptBoundary.FindIndex(z.buf[z.pos:])
		if m == nil {
			z.pos = len(z.buf)
			return
		}
		match := z.buf[z.pos+m[0] : z.pos+m[1]]
		z.pos += m[1]
		switch {
		case string(match) == "<!--":
			if state == scriptData {
				state = scriptDataEscaped
			}
		case string(match) == "-->":
			state = scriptData
		case match[1] != '/':
			// <script
			if state == scriptDataEscaped {
				state = scriptDataDoubleEscaped
			}
		default:
			// </script
			if state == scriptDataDoubleEscaped {
				state = scriptDataEscaped
			} else {
				z.pos -= len(match)
				return
			}
		}
	}
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// NewTokenizer returns a new Tokenizer for the given Reader, starting in
// content. The input is assumed to be UTF-8 encoded.
func NewTokenizer(r io.Reader) *Tokenizer {
	return NewTokenizerState(r, 0, WithinContent)
}

// NewTokenizerState returns a new Tokenizer that starts at offset in the
// given state, for re-scanning part of a document.
func NewTokenizerState(r io.Reader, offset int, state ScannerState) *Tokenizer {
	buf := new(bytes.Buffer)
	//nolint
	buf.ReadFrom(r)
	return newTokenizer(buf.Bytes(), offset, state)
}

func newTokenizer(buf []byte, offset int, state ScannerState) *Tokenizer {
	if offset < 0 {
		offset = 0
	}
	if offset > len(buf) {
		offset = len(buf)
	}
	return &Tokenizer{
		buf:         buf,
		pos:         offset,
		tokenOffset: offset,
		tt:          UnknownToken,
		state:       state,
	}
}
