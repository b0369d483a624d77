package status

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	statusOptionNotConfiguredTemplateConstant = "status option %q is not configured; run gwm setup"
	issueLookupFailureTemplateConstant        = "failed to load issue #%d: %w"
	boardLookupFailureTemplateConstant        = "failed to locate issue #%d on the board: %w"
	boardAddFailureTemplateConstant           = "failed to add issue #%d to the board: %w"
	statusMutationFailureTemplateConstant     = "failed to set board status: %w"
	labelSyncAddWarningTemplateConstant       = "could not apply status label %q: %v"
	labelSyncRemoveWarningTemplateConstant    = "could not remove stale status label %q: %v"
	labelKeywordReplacementConstant           = "-"
	labelKeywordReplacedConstant              = " "
)

var (
	// ErrIssueAPINotConfigured indicates the issue API dependency was not provided.
	ErrIssueAPINotConfigured = errors.New("status service requires an issue API")
	// ErrBoardAPINotConfigured indicates the board API dependency was not provided.
	ErrBoardAPINotConfigured = errors.New("status service requires a board API")
)

// Dependencies carries the collaborators used by the status service.
type Dependencies struct {
	IssueAPI shared.IssueAPI
	BoardAPI shared.BoardAPI
}

// SetOptions configures one status transition.
type SetOptions struct {
	Repository       string
	Fields           workspace.BoardFieldsSettings
	IssueNumber      int
	TargetStatus     board.Status
	SynchronizeLabel bool
	LabelPrefix      string
}

// SetResult reports the applied transition.
type SetResult struct {
	IssueNumber    int
	ItemIdentifier string
	Status         board.Status
	AddedToBoard   bool
	Warnings       []string
}

// ShowResult reports an issue's board state for display.
type ShowResult struct {
	IssueNumber int
	Title       string
	Summary     board.FieldSummary
}

// Service moves issues through the board lifecycle.
type Service struct {
	issueAPI shared.IssueAPI
	boardAPI shared.BoardAPI
}

// NewService validates the dependencies and builds a status service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.IssueAPI == nil {
		return nil, ErrIssueAPINotConfigured
	}
	if dependencies.BoardAPI == nil {
		return nil, ErrBoardAPINotConfigured
	}
	return &Service{issueAPI: dependencies.IssueAPI, boardAPI: dependencies.BoardAPI}, nil
}

// Set updates the board Status field for an issue, adding the issue to the
// board first when it has no item yet. Label synchronization failures
// degrade to warnings; the status mutation itself is fatal.
func (service *Service) Set(executionContext context.Context, options SetOptions) (SetResult, error) {
	optionIdentifier, optionConfigured := options.Fields.Status.OptionIdentifier(string(options.TargetStatus))
	if !optionConfigured {
		return SetResult{}, fmt.Errorf(statusOptionNotConfiguredTemplateConstant, options.TargetStatus)
	}

	setResult := SetResult{IssueNumber: options.IssueNumber, Status: options.TargetStatus}

	boardItem, lookupError := service.boardAPI.FindItemByIssueNumber(executionContext, options.IssueNumber)
	switch {
	case lookupError == nil:
		setResult.ItemIdentifier = boardItem.Identifier
	case errors.As(lookupError, &board.ItemNotFoundError{}):
		trackedIssue, issueError := service.issueAPI.GetIssue(executionContext, options.Repository, options.IssueNumber)
		if issueError != nil {
			return SetResult{}, fmt.Errorf(issueLookupFailureTemplateConstant, options.IssueNumber, issueError)
		}
		itemIdentifier, addError := service.boardAPI.AddIssue(executionContext, trackedIssue.NodeIdentifier)
		if addError != nil {
			return SetResult{}, fmt.Errorf(boardAddFailureTemplateConstant, options.IssueNumber, addError)
		}
		setResult.ItemIdentifier = itemIdentifier
		setResult.AddedToBoard = true
	default:
		return SetResult{}, fmt.Errorf(boardLookupFailureTemplateConstant, options.IssueNumber, lookupError)
	}

	if mutationError := service.boardAPI.SetSingleSelectField(executionContext, setResult.ItemIdentifier, options.Fields.Status.FieldIdentifier, optionIdentifier); mutationError != nil {
		return SetResult{}, fmt.Errorf(statusMutationFailureTemplateConstant, mutationError)
	}

	if options.SynchronizeLabel {
		setResult.Warnings = service.synchronizeStatusLabels(executionContext, options)
	}
	return setResult, nil
}

// Show reads the issue title and its board field values.
func (service *Service) Show(executionContext context.Context, repository string, fieldSettings workspace.BoardFieldsSettings, issueNumber int) (ShowResult, error) {
	trackedIssue, issueError := service.issueAPI.GetIssue(executionContext, repository, issueNumber)
	if issueError != nil {
		return ShowResult{}, fmt.Errorf(issueLookupFailureTemplateConstant, issueNumber, issueError)
	}

	boardItem, lookupError := service.boardAPI.FindItemByIssueNumber(executionContext, issueNumber)
	if lookupError != nil {
		notFoundError := board.ItemNotFoundError{}
		if errors.As(lookupError, &notFoundError) {
			return ShowResult{}, notFoundError
		}
		return ShowResult{}, fmt.Errorf(boardLookupFailureTemplateConstant, issueNumber, lookupError)
	}

	return ShowResult{
		IssueNumber: issueNumber,
		Title:       trackedIssue.Title,
		Summary:     boardItem.SummarizeFields(fieldSettings),
	}, nil
}

// StatusLabel renders the mirrored label name for a status keyword, for
// example "status:in-progress".
func StatusLabel(labelPrefix string, statusValue board.Status) string {
	keyword := strings.ReplaceAll(strings.ToLower(string(statusValue)), labelKeywordReplacedConstant, labelKeywordReplacementConstant)
	return labelPrefix + keyword
}

// synchronizeStatusLabels mirrors the board status onto issue labels. Stale
// labels are discovered from the issue itself so only labels actually
// present trigger removal calls.
func (service *Service) synchronizeStatusLabels(executionContext context.Context, options SetOptions) []string {
	warnings := []string{}
	targetLabel := StatusLabel(options.LabelPrefix, options.TargetStatus)

	trackedIssue, issueError := service.issueAPI.GetIssue(executionContext, options.Repository, options.IssueNumber)
	if issueError == nil {
		for _, existingLabel := range trackedIssue.Labels {
			if !strings.HasPrefix(existingLabel, options.LabelPrefix) || existingLabel == targetLabel {
				continue
			}
			if removeError := service.issueAPI.RemoveIssueLabel(executionContext, options.Repository, options.IssueNumber, existingLabel); removeError != nil {
				warnings = append(warnings, fmt.Sprintf(labelSyncRemoveWarningTemplateConstant, existingLabel, removeError))
			}
		}
	}

	if addError := service.issueAPI.AddIssueLabels(executionContext, options.Repository, options.IssueNumber, []string{targetLabel}); addError != nil {
		warnings = append(warnings, fmt.Sprintf(labelSyncAddWarningTemplateConstant, targetLabel, addError))
	}
	return warnings
}
