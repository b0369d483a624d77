package changelog_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/worksession/changelog"
)

func TestFormatEntry(testInstance *testing.T) {
	entryMoment := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	entryLine := changelog.FormatEntry(entryMoment, "started work session")
	require.Equal(testInstance, "- 2026-03-10T09:30:00Z started work session", entryLine)
}

func TestAppendEntryCreatesFreshSection(testInstance *testing.T) {
	spliced, spliceError := changelog.AppendEntry("", 42, "Fix config reload", "- entry one")
	require.NoError(testInstance, spliceError)

	expectedBody := strings.Join([]string{
		"<!-- gwm:issue:42:begin -->",
		"## Issue #42: Fix config reload",
		"- entry one",
		"<!-- gwm:issue:42:end -->",
		"",
	}, "\n")
	require.Equal(testInstance, expectedBody, spliced)
}

func TestAppendEntryPreservesSurroundingText(testInstance *testing.T) {
	existingBody := strings.Join([]string{
		"Shared WIP pull request.",
		"",
		"<!-- gwm:issue:7:begin -->",
		"## Issue #7: Earlier work",
		"- earlier entry",
		"<!-- gwm:issue:7:end -->",
		"",
	}, "\n")

	spliced, spliceError := changelog.AppendEntry(existingBody, 42, "Fix config reload", "- entry one")
	require.NoError(testInstance, spliceError)
	require.True(testInstance, strings.HasPrefix(spliced, strings.TrimRight(existingBody, "\n")))
	require.Contains(testInstance, spliced, "<!-- gwm:issue:42:begin -->")
	require.Contains(testInstance, spliced, "## Issue #42: Fix config reload")

	issueSevenSection := spliced[strings.Index(spliced, "<!-- gwm:issue:7:begin -->"):strings.Index(spliced, "<!-- gwm:issue:7:end -->")]
	require.NotContains(testInstance, issueSevenSection, "entry one")
}

func TestAppendEntryGrowsExistingSection(testInstance *testing.T) {
	initialBody, firstError := changelog.AppendEntry("", 42, "Fix config reload", "- entry one")
	require.NoError(testInstance, firstError)

	grownBody, secondError := changelog.AppendEntry(initialBody, 42, "Fix config reload", "- entry two")
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, 1, strings.Count(grownBody, "<!-- gwm:issue:42:begin -->"))
	require.Equal(testInstance, 1, strings.Count(grownBody, "## Issue #42: Fix config reload"))

	entryOneIndex := strings.Index(grownBody, "- entry one")
	entryTwoIndex := strings.Index(grownBody, "- entry two")
	endMarkerIndex := strings.Index(grownBody, "<!-- gwm:issue:42:end -->")
	require.Greater(testInstance, entryTwoIndex, entryOneIndex)
	require.Greater(testInstance, endMarkerIndex, entryTwoIndex)
}

func TestAppendEntryMalformedSection(testInstance *testing.T) {
	malformedBody := strings.Join([]string{
		"<!-- gwm:issue:42:begin -->",
		"## Issue #42: Fix config reload",
		"- entry one",
	}, "\n")

	unchangedBody, spliceError := changelog.AppendEntry(malformedBody, 42, "Fix config reload", "- entry two")
	require.Error(testInstance, spliceError)

	var malformedError changelog.MalformedChangelogError
	require.ErrorAs(testInstance, spliceError, &malformedError)
	require.Equal(testInstance, 42, malformedError.IssueNumber)
	require.Equal(testInstance, malformedBody, unchangedBody)
}

func TestAppendEntrySectionsStayIndependent(testInstance *testing.T) {
	bodyWithSeven, firstError := changelog.AppendEntry("", 7, "Earlier work", "- earlier entry")
	require.NoError(testInstance, firstError)

	bodyWithBoth, secondError := changelog.AppendEntry(bodyWithSeven, 42, "Fix config reload", "- entry one")
	require.NoError(testInstance, secondError)

	grownBody, thirdError := changelog.AppendEntry(bodyWithBoth, 7, "Earlier work", "- later entry")
	require.NoError(testInstance, thirdError)

	issueSevenSection := grownBody[strings.Index(grownBody, "<!-- gwm:issue:7:begin -->"):strings.Index(grownBody, "<!-- gwm:issue:7:end -->")]
	require.Contains(testInstance, issueSevenSection, "- later entry")
	require.NotContains(testInstance, issueSevenSection, "- entry one")

	issueFortyTwoSection := grownBody[strings.Index(grownBody, "<!-- gwm:issue:42:begin -->"):strings.Index(grownBody, "<!-- gwm:issue:42:end -->")]
	require.NotContains(testInstance, issueFortyTwoSection, "- later entry")
}

func TestMarkers(testInstance *testing.T) {
	require.Equal(testInstance, "<!-- gwm:issue:9:begin -->", changelog.BeginMarker(9))
	require.Equal(testInstance, "<!-- gwm:issue:9:end -->", changelog.EndMarker(9))
}
