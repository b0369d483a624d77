package auditor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	issueListFailureTemplateConstant = "failed to list open issues: %w"
	pullListFailureTemplateConstant  = "failed to list open pull requests: %w"
	boardJoinWarningTemplateConstant = "board field values unavailable: %v"
	hoursPerDayConstant              = 24
)

var (
	// ErrIssueAPINotConfigured indicates the issue API dependency was not provided.
	ErrIssueAPINotConfigured = errors.New("audit service requires an issue API")
	// ErrPullDetailAPINotConfigured indicates the pull request detail dependency was not provided.
	ErrPullDetailAPINotConfigured = errors.New("audit service requires a pull request detail API")
)

// PullRequestDetailLister fetches open pull requests with review and check detail.
type PullRequestDetailLister interface {
	ListOpenPullRequestDetails(executionContext context.Context, repository string) ([]githubapi.PullRequestDetail, error)
}

// Dependencies carries the collaborators used by the audit service. BoardAPI
// may be nil, in which case issue rows carry no board annotations.
type Dependencies struct {
	IssueAPI    shared.IssueAPI
	PullDetails PullRequestDetailLister
	BoardAPI    shared.BoardAPI
	Clock       shared.Clock
}

// IssueRow is one audited issue with scan findings and board annotations.
type IssueRow struct {
	Number          int
	Title           string
	AgeDays         int
	Labels          []string
	Assignees       []string
	FileMentions    []string
	CrossReferences []string
	Board           board.FieldSummary
	HasBoardData    bool
}

// PullRequestRow is one audited pull request.
type PullRequestRow struct {
	Number          int
	Title           string
	AgeDays         int
	Labels          []string
	Assignees       []string
	FileMentions    []string
	CrossReferences []string
	Draft           bool
	Mergeable       string
	ReviewDecision  string
	ChecksState     string
}

// Summary aggregates counts across the audited items.
type Summary struct {
	TotalCount      int
	LabelCounts     map[string]int
	AssignedCount   int
	UnassignedCount int
}

// IssuesReport is the complete issue audit output.
type IssuesReport struct {
	Rows     []IssueRow
	Summary  Summary
	Warnings []string
}

// PullRequestsReport is the complete pull request audit output.
type PullRequestsReport struct {
	Rows    []PullRequestRow
	Summary Summary
}

// Service produces read-only audit reports. No audit operation mutates
// anything remote or local.
type Service struct {
	issueAPI    shared.IssueAPI
	pullDetails PullRequestDetailLister
	boardAPI    shared.BoardAPI
	clock       shared.Clock
}

// NewService validates the dependencies and builds an audit service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.IssueAPI == nil {
		return nil, ErrIssueAPINotConfigured
	}
	if dependencies.PullDetails == nil {
		return nil, ErrPullDetailAPINotConfigured
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{
		issueAPI:    dependencies.IssueAPI,
		pullDetails: dependencies.PullDetails,
		boardAPI:    dependencies.BoardAPI,
		clock:       clock,
	}, nil
}

// AuditIssues reports on all open issues. Board annotations come from one
// items scan; a board failure degrades to a warning and plain rows.
func (service *Service) AuditIssues(executionContext context.Context, repository string, fieldSettings workspace.BoardFieldsSettings) (IssuesReport, error) {
	openIssues, listError := service.issueAPI.ListOpenIssues(executionContext, repository)
	if listError != nil {
		return IssuesReport{}, fmt.Errorf(issueListFailureTemplateConstant, listError)
	}

	report := IssuesReport{Summary: newSummary()}

	boardItemsByIssue := map[int]board.Item{}
	if service.boardAPI != nil {
		boardItems, boardError := service.boardAPI.ListItems(executionContext)
		if boardError != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf(boardJoinWarningTemplateConstant, boardError))
		} else {
			for _, boardItem := range boardItems {
				if boardItem.HasIssue {
					boardItemsByIssue[boardItem.IssueNumber] = boardItem
				}
			}
		}
	}

	for _, openIssue := range openIssues {
		scannedText := openIssue.Title + "\n" + openIssue.Body
		issueRow := IssueRow{
			Number:          openIssue.Number,
			Title:           openIssue.Title,
			AgeDays:         service.ageInDays(openIssue.CreatedAt),
			Labels:          openIssue.Labels,
			Assignees:       openIssue.Assignees,
			FileMentions:    ScanFileMentions(scannedText),
			CrossReferences: ScanCrossReferences(scannedText),
		}
		if boardItem, onBoard := boardItemsByIssue[openIssue.Number]; onBoard {
			issueRow.Board = boardItem.SummarizeFields(fieldSettings)
			issueRow.HasBoardData = true
		}
		report.Rows = append(report.Rows, issueRow)
		accumulateSummary(&report.Summary, openIssue.Labels, openIssue.Assignees)
	}
	return report, nil
}

// AuditPullRequests reports on all open pull requests with review and check
// state.
func (service *Service) AuditPullRequests(executionContext context.Context, repository string) (PullRequestsReport, error) {
	openPulls, listError := service.pullDetails.ListOpenPullRequestDetails(executionContext, repository)
	if listError != nil {
		return PullRequestsReport{}, fmt.Errorf(pullListFailureTemplateConstant, listError)
	}

	report := PullRequestsReport{Summary: newSummary()}
	for _, openPull := range openPulls {
		scannedText := openPull.Title + "\n" + openPull.Body
		report.Rows = append(report.Rows, PullRequestRow{
			Number:          openPull.Number,
			Title:           openPull.Title,
			AgeDays:         service.ageInDays(openPull.CreatedAt),
			Labels:          openPull.Labels,
			Assignees:       openPull.Assignees,
			FileMentions:    ScanFileMentions(scannedText),
			CrossReferences: ScanCrossReferences(scannedText),
			Draft:           openPull.Draft,
			Mergeable:       openPull.Mergeable,
			ReviewDecision:  openPull.ReviewDecision,
			ChecksState:     openPull.ChecksState,
		})
		accumulateSummary(&report.Summary, openPull.Labels, openPull.Assignees)
	}
	return report, nil
}

func (service *Service) ageInDays(createdAt string) int {
	createdTime, parseError := time.Parse(time.RFC3339, createdAt)
	if parseError != nil {
		return 0
	}
	elapsed := service.clock.Now().Sub(createdTime)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Hours() / hoursPerDayConstant)
}

func newSummary() Summary {
	return Summary{LabelCounts: map[string]int{}}
}

func accumulateSummary(summary *Summary, labels []string, assignees []string) {
	summary.TotalCount++
	for _, labelName := range labels {
		summary.LabelCounts[labelName]++
	}
	if len(assignees) > 0 {
		summary.AssignedCount++
		return
	}
	summary.UnassignedCount++
}
