package handler

import (
	"errors"
	"sort"
	"strings"

	"github.com/ezhtml/eztag/internal/loc"
	"github.com/tdewolff/parse/v2"
)

// Handler collects the problems found in one source text. Nothing it
// collects stops processing; callers decide what to do with them.
type Handler struct {
	sourcetext string
	filename   string
	lines      []string
	errors     []error
	warnings   []error
}

func NewHandler(sourcetext string, filename string) *Handler {
	return &Handler{
		sourcetext: sourcetext,
		filename:   filename,
		lines:      strings.Split(sourcetext, "\n"),
		errors:     make([]error, 0),
		warnings:   make([]error, 0),
	}
}

func (h *Handler) HasErrors() bool {
	return len(h.errors) > 0
}

func (h *Handler) HasWarnings() bool {
	return len(h.warnings) > 0
}

func (h *Handler) AppendError(err error) {
	h.errors = append(h.errors, err)
}

func (h *Handler) AppendWarning(err error) {
	h.warnings = append(h.warnings, err)
}

// Position returns the 1-based line and column of a byte offset.
func (h *Handler) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(h.sourcetext) {
		offset = len(h.sourcetext)
	}
	line, column, _ = parse.Position(strings.NewReader(h.sourcetext), offset)
	return line, column
}

// Errors returns the errors in source order. Errors without a range come
// first.
func (h *Handler) Errors() []loc.DiagnosticMessage {
	return h.messages(loc.ErrorType, h.errors)
}

// Warnings returns the warnings in source order, like Errors.
func (h *Handler) Warnings() []loc.DiagnosticMessage {
	return h.messages(loc.WarningType, h.warnings)
}

// Diagnostics returns the errors followed by the warnings.
func (h *Handler) Diagnostics() []loc.DiagnosticMessage {
	return append(h.Errors(), h.Warnings()...)
}

func (h *Handler) messages(severity loc.DiagnosticSeverity, errs []error) []loc.DiagnosticMessage {
	sorted := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			sorted = append(sorted, err)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return offsetOf(sorted[i]) < offsetOf(sorted[j])
	})
	msgs := make([]loc.DiagnosticMessage, 0, len(sorted))
	for _, err := range sorted {
		msgs = append(msgs, ErrorToMessage(h, severity, err))
	}
	return msgs
}

func offsetOf(err error) int {
	var rangedError *loc.ErrorWithRange
	if errors.As(err, &rangedError) {
		return rangedError.Range.Loc.Start
	}
	return -1
}

func ErrorToMessage(h *Handler, severity loc.DiagnosticSeverity, err error) loc.DiagnosticMessage {
	var rangedError *loc.ErrorWithRange
	switch {
	case errors.As(err, &rangedError):
		line, column := h.Position(rangedError.Range.Loc.Start)
		location := &loc.DiagnosticLocation{
			File:   h.filename,
			Line:   line,
			Column: column,
			Length: rangedError.Range.Len,
		}
		if line > 0 && line <= len(h.lines) {
			location.LineText = strings.TrimRight(h.lines[line-1], "\r")
		}
		message := rangedError.ToMessage(location)
		message.Severity = int(severity)
		return message
	default:
		return loc.DiagnosticMessage{Text: err.Error(), Severity: int(severity)}
	}
}
