package worksession

import (
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/session"
)

const (
	summaryHeadingTemplateConstant          = "## Work session summary for issue #%d"
	summaryBranchLineTemplateConstant       = "- Branch: `%s`"
	summaryPullLineTemplateConstant         = "- Pull request: #%d"
	summaryLogCountLineTemplateConstant     = "- Log entries: %d"
	summaryFilesHeadingConstant             = "### Modified files"
	summaryNextStepsHeadingConstant         = "### Next steps"
	summaryTestInstructionsHeadingConstant  = "### Test instructions"
	summaryListItemTemplateConstant         = "- %s"
	summaryLineSeparatorConstant            = "\n"
	summarySectionSeparatorConstant         = "\n\n"
)

// renderReviewSummary builds the issue comment posted by work review. Empty
// sections are omitted.
func renderReviewSummary(sessionRecord session.Record) string {
	headerLines := []string{
		fmt.Sprintf(summaryHeadingTemplateConstant, sessionRecord.IssueNumber),
		fmt.Sprintf(summaryBranchLineTemplateConstant, sessionRecord.Branch),
	}
	if sessionRecord.PullRequestNumber > 0 {
		headerLines = append(headerLines, fmt.Sprintf(summaryPullLineTemplateConstant, sessionRecord.PullRequestNumber))
	}
	headerLines = append(headerLines, fmt.Sprintf(summaryLogCountLineTemplateConstant, len(sessionRecord.WorkLog)))

	summarySections := []string{strings.Join(headerLines, summaryLineSeparatorConstant)}
	if listSection := renderListSection(summaryFilesHeadingConstant, sessionRecord.ModifiedFiles); len(listSection) > 0 {
		summarySections = append(summarySections, listSection)
	}
	if listSection := renderListSection(summaryNextStepsHeadingConstant, sessionRecord.NextSteps); len(listSection) > 0 {
		summarySections = append(summarySections, listSection)
	}
	if len(strings.TrimSpace(sessionRecord.TestInstructions)) > 0 {
		summarySections = append(summarySections,
			summaryTestInstructionsHeadingConstant+summaryLineSeparatorConstant+sessionRecord.TestInstructions)
	}
	return strings.Join(summarySections, summarySectionSeparatorConstant)
}

func renderListSection(heading string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	sectionLines := []string{heading}
	for _, listItem := range items {
		sectionLines = append(sectionLines, fmt.Sprintf(summaryListItemTemplateConstant, listItem))
	}
	return strings.Join(sectionLines, summaryLineSeparatorConstant)
}
