// Package changelog splices per-issue changelog sections into the shared
// pull request body. Sections are bounded by HTML comment markers so the
// splice never has to guess at heading boundaries.
package changelog

import (
	"fmt"
	"strings"
	"time"
)

const (
	beginMarkerTemplateConstant    = "<!-- gwm:issue:%d:begin -->"
	endMarkerTemplateConstant      = "<!-- gwm:issue:%d:end -->"
	sectionHeadingTemplateConstant = "## Issue #%d: %s"
	entryLineTemplateConstant      = "- %s %s"
	malformedMessageTemplateConstant = "changelog section for issue %d has a begin marker without its end marker"
	newlineConstant                = "\n"
)

// MalformedChangelogError reports a begin marker whose end marker is missing.
// The body is returned untouched in that case.
type MalformedChangelogError struct {
	IssueNumber int
}

func (malformedError MalformedChangelogError) Error() string {
	return fmt.Sprintf(malformedMessageTemplateConstant, malformedError.IssueNumber)
}

// BeginMarker returns the opening marker for an issue's section.
func BeginMarker(issueNumber int) string {
	return fmt.Sprintf(beginMarkerTemplateConstant, issueNumber)
}

// EndMarker returns the closing marker for an issue's section.
func EndMarker(issueNumber int) string {
	return fmt.Sprintf(endMarkerTemplateConstant, issueNumber)
}

// FormatEntry renders one changelog line with an RFC3339 timestamp.
func FormatEntry(timestamp time.Time, action string) string {
	return fmt.Sprintf(entryLineTemplateConstant, timestamp.UTC().Format(time.RFC3339), action)
}

// AppendEntry splices one entry line into the issue's marked section. An
// existing section grows by one line just before its end marker; a body
// without the section gets a fresh marked section appended. Text outside
// the issue's markers is never modified.
func AppendEntry(body string, issueNumber int, issueTitle string, entryLine string) (string, error) {
	beginMarker := BeginMarker(issueNumber)
	endMarker := EndMarker(issueNumber)

	beginIndex := strings.Index(body, beginMarker)
	if beginIndex < 0 {
		return appendFreshSection(body, issueNumber, issueTitle, entryLine), nil
	}

	endIndex := strings.Index(body[beginIndex:], endMarker)
	if endIndex < 0 {
		return body, MalformedChangelogError{IssueNumber: issueNumber}
	}
	insertionIndex := beginIndex + endIndex

	var spliced strings.Builder
	spliced.WriteString(body[:insertionIndex])
	if !strings.HasSuffix(body[:insertionIndex], newlineConstant) {
		spliced.WriteString(newlineConstant)
	}
	spliced.WriteString(entryLine)
	spliced.WriteString(newlineConstant)
	spliced.WriteString(body[insertionIndex:])
	return spliced.String(), nil
}

func appendFreshSection(body string, issueNumber int, issueTitle string, entryLine string) string {
	var sectionBuilder strings.Builder
	trimmedBody := strings.TrimRight(body, newlineConstant)
	if len(trimmedBody) > 0 {
		sectionBuilder.WriteString(trimmedBody)
		sectionBuilder.WriteString(newlineConstant)
		sectionBuilder.WriteString(newlineConstant)
	}
	sectionBuilder.WriteString(BeginMarker(issueNumber))
	sectionBuilder.WriteString(newlineConstant)
	sectionBuilder.WriteString(fmt.Sprintf(sectionHeadingTemplateConstant, issueNumber, issueTitle))
	sectionBuilder.WriteString(newlineConstant)
	sectionBuilder.WriteString(entryLine)
	sectionBuilder.WriteString(newlineConstant)
	sectionBuilder.WriteString(EndMarker(issueNumber))
	sectionBuilder.WriteString(newlineConstant)
	return sectionBuilder.String()
}
