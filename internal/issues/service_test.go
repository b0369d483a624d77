package issues_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/issues"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const testRepositoryConstant = "acme/widgets"

type stubIssueAPI struct {
	createIssueFunc        func(executionContext context.Context, repository string, options githubapi.CreateIssueOptions) (githubapi.Issue, error)
	recordedCreateOptions  []githubapi.CreateIssueOptions
	recordedRepositories   []string
	recordedAddedLabels    [][]string
	recordedRemovedLabels  []string
	addLabelsError         error
	removeLabelError       error
	listOpenIssuesFunc     func(executionContext context.Context, repository string) ([]githubapi.Issue, error)
	getIssueFunc           func(executionContext context.Context, repository string, issueNumber int) (githubapi.Issue, error)
	recordedLookupNumbers  []int
	recordedListRequests   int
	recordedLabelIssues    []int
	recordedRemovalTargets []string
}

func (stub *stubIssueAPI) CreateIssue(executionContext context.Context, repository string, options githubapi.CreateIssueOptions) (githubapi.Issue, error) {
	stub.recordedRepositories = append(stub.recordedRepositories, repository)
	stub.recordedCreateOptions = append(stub.recordedCreateOptions, options)
	if stub.createIssueFunc != nil {
		return stub.createIssueFunc(executionContext, repository, options)
	}
	return githubapi.Issue{}, nil
}

func (stub *stubIssueAPI) GetIssue(executionContext context.Context, repository string, issueNumber int) (githubapi.Issue, error) {
	stub.recordedLookupNumbers = append(stub.recordedLookupNumbers, issueNumber)
	if stub.getIssueFunc != nil {
		return stub.getIssueFunc(executionContext, repository, issueNumber)
	}
	return githubapi.Issue{}, nil
}

func (stub *stubIssueAPI) ListOpenIssues(executionContext context.Context, repository string) ([]githubapi.Issue, error) {
	stub.recordedListRequests++
	if stub.listOpenIssuesFunc != nil {
		return stub.listOpenIssuesFunc(executionContext, repository)
	}
	return nil, nil
}

func (stub *stubIssueAPI) AddIssueLabels(_ context.Context, _ string, issueNumber int, labels []string) error {
	stub.recordedLabelIssues = append(stub.recordedLabelIssues, issueNumber)
	stub.recordedAddedLabels = append(stub.recordedAddedLabels, labels)
	return stub.addLabelsError
}

func (stub *stubIssueAPI) RemoveIssueLabel(_ context.Context, _ string, _ int, label string) error {
	stub.recordedRemovedLabels = append(stub.recordedRemovedLabels, label)
	stub.recordedRemovalTargets = append(stub.recordedRemovalTargets, label)
	return stub.removeLabelError
}

type recordedSelectMutation struct {
	itemIdentifier   string
	fieldIdentifier  string
	optionIdentifier string
}

type recordedNumberMutation struct {
	itemIdentifier  string
	fieldIdentifier string
	value           float64
}

type stubBoardAPI struct {
	findItemFunc            func(executionContext context.Context, issueNumber int) (board.Item, error)
	addIssueFunc            func(executionContext context.Context, issueNodeIdentifier string) (string, error)
	listItemsFunc           func(executionContext context.Context) ([]board.Item, error)
	singleSelectError       map[string]error
	numberFieldError        error
	recordedSelectMutations []recordedSelectMutation
	recordedNumberMutations []recordedNumberMutation
	recordedAddedNodes      []string
}

func (stub *stubBoardAPI) FindItemByIssueNumber(executionContext context.Context, issueNumber int) (board.Item, error) {
	if stub.findItemFunc != nil {
		return stub.findItemFunc(executionContext, issueNumber)
	}
	return board.Item{}, board.ItemNotFoundError{IssueNumber: issueNumber}
}

func (stub *stubBoardAPI) AddIssue(executionContext context.Context, issueNodeIdentifier string) (string, error) {
	stub.recordedAddedNodes = append(stub.recordedAddedNodes, issueNodeIdentifier)
	if stub.addIssueFunc != nil {
		return stub.addIssueFunc(executionContext, issueNodeIdentifier)
	}
	return "ITEM_NEW", nil
}

func (stub *stubBoardAPI) SetSingleSelectField(_ context.Context, itemIdentifier string, fieldIdentifier string, optionIdentifier string) error {
	stub.recordedSelectMutations = append(stub.recordedSelectMutations, recordedSelectMutation{itemIdentifier: itemIdentifier, fieldIdentifier: fieldIdentifier, optionIdentifier: optionIdentifier})
	if stub.singleSelectError != nil {
		return stub.singleSelectError[fieldIdentifier]
	}
	return nil
}

func (stub *stubBoardAPI) SetNumberField(_ context.Context, itemIdentifier string, fieldIdentifier string, value float64) error {
	stub.recordedNumberMutations = append(stub.recordedNumberMutations, recordedNumberMutation{itemIdentifier: itemIdentifier, fieldIdentifier: fieldIdentifier, value: value})
	return stub.numberFieldError
}

func (stub *stubBoardAPI) ListItems(executionContext context.Context) ([]board.Item, error) {
	if stub.listItemsFunc != nil {
		return stub.listItemsFunc(executionContext)
	}
	return nil, nil
}

func testBoardFieldSettings() workspace.BoardFieldsSettings {
	return workspace.BoardFieldsSettings{
		Status: workspace.BoardFieldSettings{
			FieldIdentifier: "FIELD_STATUS",
			Options: map[string]string{
				"Backlog":     "OPTION_BACKLOG",
				"Ready":       "OPTION_READY",
				"In progress": "OPTION_IN_PROGRESS",
				"In review":   "OPTION_IN_REVIEW",
				"Done":        "OPTION_DONE",
			},
		},
		Priority: workspace.BoardFieldSettings{
			FieldIdentifier: "FIELD_PRIORITY",
			Options:         map[string]string{"P0": "OPTION_P0", "P1": "OPTION_P1", "P2": "OPTION_P2"},
		},
		Size: workspace.BoardFieldSettings{
			FieldIdentifier: "FIELD_SIZE",
			Options:         map[string]string{"XS": "OPTION_XS", "S": "OPTION_S", "M": "OPTION_M", "L": "OPTION_L", "XL": "OPTION_XL"},
		},
		Estimate: workspace.BoardFieldSettings{FieldIdentifier: "FIELD_ESTIMATE"},
	}
}

func newCreatedIssueStub() *stubIssueAPI {
	return &stubIssueAPI{
		createIssueFunc: func(context.Context, string, githubapi.CreateIssueOptions) (githubapi.Issue, error) {
			return githubapi.Issue{Number: 12, NodeIdentifier: "I_kwDOAbCdEf", URL: "https://github.com/acme/widgets/issues/12"}, nil
		},
	}
}

func TestNewServiceValidation(testInstance *testing.T) {
	_, missingIssueAPIError := issues.NewService(issues.Dependencies{BoardAPI: &stubBoardAPI{}})
	require.ErrorIs(testInstance, missingIssueAPIError, issues.ErrIssueAPINotConfigured)

	_, missingBoardAPIError := issues.NewService(issues.Dependencies{IssueAPI: &stubIssueAPI{}})
	require.ErrorIs(testInstance, missingBoardAPIError, issues.ErrBoardAPINotConfigured)
}

func TestCreateAppliesInitialFields(testInstance *testing.T) {
	issueAPI := newCreatedIssueStub()
	boardAPI := &stubBoardAPI{}
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	require.NoError(testInstance, serviceError)

	creationResult, creationError := service.Create(context.Background(), issues.CreateOptions{
		Repository:      testRepositoryConstant,
		Fields:          testBoardFieldSettings(),
		Title:           "Fix flaky watcher",
		Body:            "Watcher drops events under load.",
		Labels:          []string{"bug"},
		PriorityKeyword: "p0",
		SizeKeyword:     "L",
	})
	require.NoError(testInstance, creationError)
	require.Empty(testInstance, creationResult.Warnings)
	require.Equal(testInstance, 12, creationResult.IssueNumber)
	require.Equal(testInstance, "ITEM_NEW", creationResult.ItemIdentifier)
	require.Equal(testInstance, board.StatusBacklog, creationResult.Status)
	require.Equal(testInstance, board.PriorityP0, creationResult.Priority)
	require.Equal(testInstance, board.SizeLarge, creationResult.Size)
	require.Equal(testInstance, float64(8), creationResult.EstimateHours)

	require.Equal(testInstance, []string{testRepositoryConstant}, issueAPI.recordedRepositories)
	require.Equal(testInstance, "Fix flaky watcher", issueAPI.recordedCreateOptions[0].Title)
	require.Equal(testInstance, []string{"bug"}, issueAPI.recordedCreateOptions[0].Labels)

	require.Equal(testInstance, []string{"I_kwDOAbCdEf"}, boardAPI.recordedAddedNodes)
	require.Equal(testInstance, []recordedSelectMutation{
		{itemIdentifier: "ITEM_NEW", fieldIdentifier: "FIELD_STATUS", optionIdentifier: "OPTION_BACKLOG"},
		{itemIdentifier: "ITEM_NEW", fieldIdentifier: "FIELD_PRIORITY", optionIdentifier: "OPTION_P0"},
		{itemIdentifier: "ITEM_NEW", fieldIdentifier: "FIELD_SIZE", optionIdentifier: "OPTION_L"},
	}, boardAPI.recordedSelectMutations)
	require.Equal(testInstance, []recordedNumberMutation{
		{itemIdentifier: "ITEM_NEW", fieldIdentifier: "FIELD_ESTIMATE", value: 8},
	}, boardAPI.recordedNumberMutations)
}

func TestCreateDegradesUnrecognizedSize(testInstance *testing.T) {
	issueAPI := newCreatedIssueStub()
	boardAPI := &stubBoardAPI{}
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	require.NoError(testInstance, serviceError)

	creationResult, creationError := service.Create(context.Background(), issues.CreateOptions{
		Repository:  testRepositoryConstant,
		Fields:      testBoardFieldSettings(),
		Title:       "Fix flaky watcher",
		SizeKeyword: "XXL",
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, board.SizeMedium, creationResult.Size)
	require.Equal(testInstance, float64(4), creationResult.EstimateHours)
	require.Len(testInstance, creationResult.Warnings, 1)
	require.Contains(testInstance, creationResult.Warnings[0], `unrecognized size "XXL"`)

	lastSelectMutation := boardAPI.recordedSelectMutations[len(boardAPI.recordedSelectMutations)-1]
	require.Equal(testInstance, "OPTION_M", lastSelectMutation.optionIdentifier)
}

func TestCreateSurvivesBoardAddFailure(testInstance *testing.T) {
	issueAPI := newCreatedIssueStub()
	boardAPI := &stubBoardAPI{
		addIssueFunc: func(context.Context, string) (string, error) {
			return "", errors.New("board unreachable")
		},
	}
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	require.NoError(testInstance, serviceError)

	creationResult, creationError := service.Create(context.Background(), issues.CreateOptions{
		Repository: testRepositoryConstant,
		Fields:     testBoardFieldSettings(),
		Title:      "Fix flaky watcher",
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, 12, creationResult.IssueNumber)
	require.Empty(testInstance, creationResult.ItemIdentifier)
	require.Len(testInstance, creationResult.Warnings, 1)
	require.Contains(testInstance, creationResult.Warnings[0], "could not be added to the board")
	require.Empty(testInstance, boardAPI.recordedSelectMutations)
	require.Empty(testInstance, boardAPI.recordedNumberMutations)
}

func TestCreateContinuesPastFieldMutationFailure(testInstance *testing.T) {
	issueAPI := newCreatedIssueStub()
	boardAPI := &stubBoardAPI{
		singleSelectError: map[string]error{"FIELD_STATUS": errors.New("field locked")},
	}
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	require.NoError(testInstance, serviceError)

	creationResult, creationError := service.Create(context.Background(), issues.CreateOptions{
		Repository: testRepositoryConstant,
		Fields:     testBoardFieldSettings(),
		Title:      "Fix flaky watcher",
	})
	require.NoError(testInstance, creationError)
	require.Len(testInstance, creationResult.Warnings, 1)
	require.Contains(testInstance, creationResult.Warnings[0], "failed to set the status field")
	require.Len(testInstance, boardAPI.recordedSelectMutations, 3)
	require.Len(testInstance, boardAPI.recordedNumberMutations, 1)
}

func TestCreateWarnsOnMissingOptionConfiguration(testInstance *testing.T) {
	fieldSettings := testBoardFieldSettings()
	fieldSettings.Status.Options = map[string]string{"Ready": "OPTION_READY"}

	issueAPI := newCreatedIssueStub()
	boardAPI := &stubBoardAPI{}
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	require.NoError(testInstance, serviceError)

	creationResult, creationError := service.Create(context.Background(), issues.CreateOptions{
		Repository: testRepositoryConstant,
		Fields:     fieldSettings,
		Title:      "Fix flaky watcher",
	})
	require.NoError(testInstance, creationError)
	require.Len(testInstance, creationResult.Warnings, 1)
	require.Contains(testInstance, creationResult.Warnings[0], `board option "Backlog" is not configured`)
	require.Len(testInstance, boardAPI.recordedSelectMutations, 2)
}

func TestCreateFailsWhenIssueCreationFails(testInstance *testing.T) {
	issueAPI := &stubIssueAPI{
		createIssueFunc: func(context.Context, string, githubapi.CreateIssueOptions) (githubapi.Issue, error) {
			return githubapi.Issue{}, errors.New("rate limited")
		},
	}
	boardAPI := &stubBoardAPI{}
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	require.NoError(testInstance, serviceError)

	_, creationError := service.Create(context.Background(), issues.CreateOptions{
		Repository: testRepositoryConstant,
		Fields:     testBoardFieldSettings(),
		Title:      "Fix flaky watcher",
	})
	require.Error(testInstance, creationError)
	require.Contains(testInstance, creationError.Error(), "failed to create issue")
	require.Empty(testInstance, boardAPI.recordedAddedNodes)
}

func TestCreateValidatesInputs(testInstance *testing.T) {
	service, serviceError := issues.NewService(issues.Dependencies{IssueAPI: &stubIssueAPI{}, BoardAPI: &stubBoardAPI{}})
	require.NoError(testInstance, serviceError)

	_, missingTitleError := service.Create(context.Background(), issues.CreateOptions{Repository: testRepositoryConstant, Title: "   "})
	require.IsType(testInstance, githubapi.InvalidInputError{}, missingTitleError)

	_, missingRepositoryError := service.Create(context.Background(), issues.CreateOptions{Title: "Fix flaky watcher"})
	require.IsType(testInstance, githubapi.InvalidInputError{}, missingRepositoryError)
}
