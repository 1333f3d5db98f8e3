package test_utils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/diff"
)

func ANSIDiff(x, y interface{}, opts ...cmp.Option) string {
	return colorize(cmp.Diff(x, y, opts...))
}

// TextDiff returns a colored unified diff of two texts, or "" when they
// are equal.
func TextDiff(want, got string) string {
	if want == got {
		return ""
	}
	var b strings.Builder
	if err := diff.Text("want", "got", want, got, &b); err != nil {
		return err.Error()
	}
	return colorize(b.String())
}

func colorize(diff string) string {
	if diff == "" {
		return ""
	}
	escapeCode := func(code int) string {
		return fmt.Sprintf("\x1b[%dm", code)
	}
	ss := strings.Split(diff, "\n")
	for i, s := range ss {
		switch {
		case strings.HasPrefix(s, "---"), strings.HasPrefix(s, "+++"):
		case strings.HasPrefix(s, "-"):
			ss[i] = escapeCode(31) + s + escapeCode(0)
		case strings.HasPrefix(s, "+"):
			ss[i] = escapeCode(32) + s + escapeCode(0)
		}
	}
	return strings.Join(ss, "\n")
}

var testNameRedactor = strings.NewReplacer(
	"#", "_", "<", "_", ">", "_", "(", "_", ")", "_", ":", "_", " ", "_",
	"'", "_", "\"", "_", "@", "_", "`", "_", "+", "_", "/", "_", "\n", "_",
)

// Removes unsupported characters from the test case name, because it will be used as name for the snapshot
func RedactTestName(testCaseName string) string {
	return testNameRedactor.Replace(testCaseName)
}

type OutputKind int

const (
	JsonOutput OutputKind = iota
)

var outputKind = map[OutputKind]string{
	JsonOutput: "json",
}

type SnapshotOptions struct {
	Testing      *testing.T
	TestCaseName string
	Input        string
	Output       string
	Kind         OutputKind
	FolderName   string
}

// It creates a snapshot for the given test case, the snapshot will include the input and the output of the test case
func MakeSnapshot(options *SnapshotOptions) {
	folderName := "__snapshots__"
	if options.FolderName != "" {
		folderName = options.FolderName
	}

	s := snaps.WithConfig(
		snaps.Filename(RedactTestName(options.TestCaseName)),
		snaps.Dir(folderName),
	)

	snapshot := "## Input\n\n```\n"
	snapshot += options.Input
	snapshot += "\n```\n\n## Output\n\n"
	snapshot += "```" + outputKind[options.Kind] + "\n"
	snapshot += options.Output
	snapshot += "\n```"

	s.MatchSnapshot(options.Testing, snapshot)
}
