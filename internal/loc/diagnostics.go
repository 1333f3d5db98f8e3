package loc

type DiagnosticCode int

const (
	ERROR                                DiagnosticCode = 1000
	ERROR_INVALID_DELIMITER              DiagnosticCode = 1002
	WARNING                              DiagnosticCode = 2000
	WARNING_UNTERMINATED_HTML_COMMENT    DiagnosticCode = 2001
	WARNING_UNCLOSED_HTML_TAG            DiagnosticCode = 2002
	WARNING_TAG_NAME_EXPECTED            DiagnosticCode = 2003
	WARNING_WHITESPACE_AFTER_BRACKET     DiagnosticCode = 2004
	WARNING_UNEXPECTED_CHARACTER         DiagnosticCode = 2005
	WARNING_CLOSING_BRACKET_EXPECTED     DiagnosticCode = 2006
	WARNING_UNTERMINATED_ATTRIBUTE_VALUE DiagnosticCode = 2007
	WARNING_UNMATCHED_END_TAG            DiagnosticCode = 2008
	WARNING_SCANNER_STALLED              DiagnosticCode = 2009
	WARNING_TRANSFORM_UNAVAILABLE        DiagnosticCode = 2010
	INFO                                 DiagnosticCode = 3000
	HINT                                 DiagnosticCode = 4000
)

type DiagnosticSeverity int

const (
	ErrorType       DiagnosticSeverity = 1
	WarningType     DiagnosticSeverity = 2
	InformationType DiagnosticSeverity = 3
	HintType        DiagnosticSeverity = 4
)

type DiagnosticMessage struct {
	Code     int                 `json:"code" js:"code"`
	Severity int                 `json:"severity" js:"severity"`
	Location *DiagnosticLocation `json:"location,omitempty" js:"location"`
	Hint     string              `json:"hint,omitempty" js:"hint"`
	Text     string              `json:"text" js:"text"`
}

type DiagnosticLocation struct {
	File     string `json:"file" js:"file"`
	Line     int    `json:"line" js:"line"`
	Column   int    `json:"column" js:"column"`
	Length   int    `json:"length" js:"length"`
	LineText string `json:"lineText,omitempty" js:"lineText"`
}

// ErrorWithRange is a diagnostic anchored to a byte range of the source.
type ErrorWithRange struct {
	Code  DiagnosticCode
	Text  string
	Hint  string
	Range Range
}

func (e *ErrorWithRange) Error() string {
	return e.Text
}

func (e *ErrorWithRange) ToMessage(location *DiagnosticLocation) DiagnosticMessage {
	return DiagnosticMessage{
		Code:     int(e.Code),
		Text:     e.Error(),
		Hint:     e.Hint,
		Location: location,
	}
}
