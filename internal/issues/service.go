package issues

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	repositoryFieldNameConstant            = "repository"
	titleFieldNameConstant                 = "title"
	requiredValueMessageConstant           = "must be provided"
	statusFieldLabelConstant               = "status"
	priorityFieldLabelConstant             = "priority"
	sizeFieldLabelConstant                 = "size"
	estimateFieldLabelConstant             = "estimate"
	issueCreationFailedTemplateConstant    = "failed to create issue: %w"
	priorityDefaultWarningTemplateConstant = "unrecognized priority %q, applying default %s"
	sizeDefaultWarningTemplateConstant     = "unrecognized size %q, applying default %s"
	boardAddWarningTemplateConstant        = "issue #%d created but could not be added to the board: %v"
	missingOptionWarningTemplateConstant   = "board option %q is not configured for the %s field; run gwm setup"
	fieldMutationWarningTemplateConstant   = "failed to set the %s field on the board: %v"
)

var (
	// ErrIssueAPINotConfigured indicates the issue API dependency was not provided.
	ErrIssueAPINotConfigured = errors.New("issue service requires an issue API")
	// ErrBoardAPINotConfigured indicates the board API dependency was not provided.
	ErrBoardAPINotConfigured = errors.New("issue service requires a board API")
)

// Dependencies carries the collaborators used by the issue service.
type Dependencies struct {
	IssueAPI shared.IssueAPI
	BoardAPI shared.BoardAPI
}

// CreateOptions configures one issue creation.
type CreateOptions struct {
	Repository      string
	Fields          workspace.BoardFieldsSettings
	Title           string
	Body            string
	Labels          []string
	PriorityKeyword string
	SizeKeyword     string
}

// CreateResult reports the created issue and the board values applied to it.
type CreateResult struct {
	IssueNumber    int
	IssueURL       string
	ItemIdentifier string
	Status         board.Status
	Priority       board.Priority
	Size           board.Size
	EstimateHours  float64
	Warnings       []string
}

// Service creates issues and places them on the project board.
type Service struct {
	issueAPI shared.IssueAPI
	boardAPI shared.BoardAPI
}

// NewService validates the dependencies and builds an issue service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.IssueAPI == nil {
		return nil, ErrIssueAPINotConfigured
	}
	if dependencies.BoardAPI == nil {
		return nil, ErrBoardAPINotConfigured
	}
	return &Service{issueAPI: dependencies.IssueAPI, boardAPI: dependencies.BoardAPI}, nil
}

// Create makes the issue, adds it to the board, and applies the initial
// field values. Failures after the issue exists surface as warnings so the
// created issue is never lost; only the creation step itself is fatal.
func (service *Service) Create(executionContext context.Context, options CreateOptions) (CreateResult, error) {
	trimmedRepository := strings.TrimSpace(options.Repository)
	if len(trimmedRepository) == 0 {
		return CreateResult{}, githubapi.InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedTitle := strings.TrimSpace(options.Title)
	if len(trimmedTitle) == 0 {
		return CreateResult{}, githubapi.InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}

	warnings := []string{}
	effectivePriority := board.DefaultPriority
	if len(strings.TrimSpace(options.PriorityKeyword)) > 0 {
		parsedPriority, priorityError := board.ParsePriority(options.PriorityKeyword)
		if priorityError != nil {
			warnings = append(warnings, fmt.Sprintf(priorityDefaultWarningTemplateConstant, options.PriorityKeyword, board.DefaultPriority))
		} else {
			effectivePriority = parsedPriority
		}
	}
	effectiveSize := board.DefaultSize
	if len(strings.TrimSpace(options.SizeKeyword)) > 0 {
		parsedSize, sizeError := board.ParseSize(options.SizeKeyword)
		if sizeError != nil {
			warnings = append(warnings, fmt.Sprintf(sizeDefaultWarningTemplateConstant, options.SizeKeyword, board.DefaultSize))
		} else {
			effectiveSize = parsedSize
		}
	}

	createdIssue, creationError := service.issueAPI.CreateIssue(executionContext, trimmedRepository, githubapi.CreateIssueOptions{
		Title:  trimmedTitle,
		Body:   options.Body,
		Labels: options.Labels,
	})
	if creationError != nil {
		return CreateResult{}, fmt.Errorf(issueCreationFailedTemplateConstant, creationError)
	}

	creationResult := CreateResult{
		IssueNumber:   createdIssue.Number,
		IssueURL:      createdIssue.URL,
		Status:        board.StatusBacklog,
		Priority:      effectivePriority,
		Size:          effectiveSize,
		EstimateHours: effectiveSize.EstimateHours(),
	}

	itemIdentifier, boardAddError := service.boardAPI.AddIssue(executionContext, createdIssue.NodeIdentifier)
	if boardAddError != nil {
		creationResult.Warnings = append(warnings, fmt.Sprintf(boardAddWarningTemplateConstant, createdIssue.Number, boardAddError))
		return creationResult, nil
	}
	creationResult.ItemIdentifier = itemIdentifier

	warnings = append(warnings, service.applyCreationFields(executionContext, options.Fields, itemIdentifier, effectivePriority, effectiveSize)...)
	creationResult.Warnings = warnings
	return creationResult, nil
}

func (service *Service) applyCreationFields(executionContext context.Context, fieldSettings workspace.BoardFieldsSettings, itemIdentifier string, priority board.Priority, size board.Size) []string {
	warnings := []string{}
	warnings = append(warnings, service.applySingleSelect(executionContext, fieldSettings.Status, statusFieldLabelConstant, string(board.StatusBacklog), itemIdentifier)...)
	warnings = append(warnings, service.applySingleSelect(executionContext, fieldSettings.Priority, priorityFieldLabelConstant, string(priority), itemIdentifier)...)
	warnings = append(warnings, service.applySingleSelect(executionContext, fieldSettings.Size, sizeFieldLabelConstant, string(size), itemIdentifier)...)
	if estimateError := service.boardAPI.SetNumberField(executionContext, itemIdentifier, fieldSettings.Estimate.FieldIdentifier, size.EstimateHours()); estimateError != nil {
		warnings = append(warnings, fmt.Sprintf(fieldMutationWarningTemplateConstant, estimateFieldLabelConstant, estimateError))
	}
	return warnings
}

func (service *Service) applySingleSelect(executionContext context.Context, fieldSettings workspace.BoardFieldSettings, fieldLabel string, optionName string, itemIdentifier string) []string {
	optionIdentifier, optionConfigured := fieldSettings.OptionIdentifier(optionName)
	if !optionConfigured {
		return []string{fmt.Sprintf(missingOptionWarningTemplateConstant, optionName, fieldLabel)}
	}
	if mutationError := service.boardAPI.SetSingleSelectField(executionContext, itemIdentifier, fieldSettings.FieldIdentifier, optionIdentifier); mutationError != nil {
		return []string{fmt.Sprintf(fieldMutationWarningTemplateConstant, fieldLabel, mutationError)}
	}
	return nil
}
