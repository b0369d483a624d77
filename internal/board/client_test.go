package board_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	testProjectIdentifierConstant = "PVT_kwDOTest"
	testFirstItemsPageConstant    = `{
		"node": {
			"items": {
				"nodes": [
					{
						"id": "ITEM_DRAFT",
						"content": {},
						"fieldValues": {"nodes": [{}]}
					},
					{
						"id": "ITEM_5",
						"content": {"number": 5},
						"fieldValues": {"nodes": [
							{"name": "Backlog", "field": {"id": "FIELD_STATUS", "name": "Status"}}
						]}
					}
				],
				"pageInfo": {"hasNextPage": true, "endCursor": "CURSOR_1"}
			}
		}
	}`
	testSecondItemsPageConstant = `{
		"node": {
			"items": {
				"nodes": [
					{
						"id": "ITEM_12",
						"content": {"number": 12},
						"fieldValues": {"nodes": [
							{"name": "In progress", "field": {"id": "FIELD_STATUS", "name": "Status"}},
							{"name": "P1", "field": {"id": "FIELD_PRIORITY", "name": "Priority"}},
							{"name": "M", "field": {"id": "FIELD_SIZE", "name": "Size"}},
							{"number": 4, "field": {"id": "FIELD_ESTIMATE", "name": "Estimate"}}
						]}
					}
				],
				"pageInfo": {"hasNextPage": false, "endCursor": ""}
			}
		}
	}`
)

type recordedGraphQLCall struct {
	operation githubapi.OperationName
	query     string
	variables map[string]any
}

type stubGraphQLExecutor struct {
	responses     []string
	failure       error
	recordedCalls []recordedGraphQLCall
}

func (executor *stubGraphQLExecutor) ExecuteGraphQL(_ context.Context, operation githubapi.OperationName, query string, variables map[string]any, out any) error {
	executor.recordedCalls = append(executor.recordedCalls, recordedGraphQLCall{operation: operation, query: query, variables: variables})
	if executor.failure != nil {
		return executor.failure
	}
	if len(executor.responses) == 0 || out == nil {
		return nil
	}
	payload := executor.responses[0]
	executor.responses = executor.responses[1:]
	return json.Unmarshal([]byte(payload), out)
}

func newTestBoardClient(testInstance *testing.T, executor *stubGraphQLExecutor) *board.Client {
	client, creationError := board.NewClient(executor, testProjectIdentifierConstant)
	require.NoError(testInstance, creationError)
	return client
}

func testFieldSettings() workspace.BoardFieldsSettings {
	return workspace.BoardFieldsSettings{
		Status:   workspace.BoardFieldSettings{FieldIdentifier: "FIELD_STATUS"},
		Priority: workspace.BoardFieldSettings{FieldIdentifier: "FIELD_PRIORITY"},
		Size:     workspace.BoardFieldSettings{FieldIdentifier: "FIELD_SIZE"},
		Estimate: workspace.BoardFieldSettings{FieldIdentifier: "FIELD_ESTIMATE"},
	}
}

func TestNewClientValidation(testInstance *testing.T) {
	_, missingAPIError := board.NewClient(nil, testProjectIdentifierConstant)
	require.ErrorIs(testInstance, missingAPIError, board.ErrAPIClientNotConfigured)

	_, missingProjectError := board.NewClient(&stubGraphQLExecutor{}, "   ")
	require.ErrorIs(testInstance, missingProjectError, board.ErrProjectIdentifierRequired)
}

func TestFindItemByIssueNumberWalksPages(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{responses: []string{testFirstItemsPageConstant, testSecondItemsPageConstant}}
	client := newTestBoardClient(testInstance, executor)

	foundItem, findError := client.FindItemByIssueNumber(context.Background(), 12)
	require.NoError(testInstance, findError)
	require.Equal(testInstance, "ITEM_12", foundItem.Identifier)
	require.True(testInstance, foundItem.HasIssue)
	require.Equal(testInstance, "In progress", foundItem.Selections["FIELD_STATUS"])
	require.Equal(testInstance, float64(4), foundItem.Numbers["FIELD_ESTIMATE"])

	require.Len(testInstance, executor.recordedCalls, 2)
	require.Nil(testInstance, executor.recordedCalls[0].variables["cursor"])
	require.Equal(testInstance, "CURSOR_1", executor.recordedCalls[1].variables["cursor"])
	require.Equal(testInstance, testProjectIdentifierConstant, executor.recordedCalls[0].variables["project"])
}

func TestFindItemByIssueNumberStopsOnMatch(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{responses: []string{testFirstItemsPageConstant, testSecondItemsPageConstant}}
	client := newTestBoardClient(testInstance, executor)

	foundItem, findError := client.FindItemByIssueNumber(context.Background(), 5)
	require.NoError(testInstance, findError)
	require.Equal(testInstance, "ITEM_5", foundItem.Identifier)
	require.Len(testInstance, executor.recordedCalls, 1)
}

func TestFindItemByIssueNumberNotFound(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{responses: []string{testFirstItemsPageConstant, testSecondItemsPageConstant}}
	client := newTestBoardClient(testInstance, executor)

	_, findError := client.FindItemByIssueNumber(context.Background(), 999)
	require.ErrorAs(testInstance, findError, &board.ItemNotFoundError{})
	require.Contains(testInstance, findError.Error(), "issue #999 is not on the project board")

	_, invalidNumberError := client.FindItemByIssueNumber(context.Background(), 0)
	require.IsType(testInstance, githubapi.InvalidInputError{}, invalidNumberError)
}

func TestListItems(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{responses: []string{testFirstItemsPageConstant, testSecondItemsPageConstant}}
	client := newTestBoardClient(testInstance, executor)

	boardItems, listError := client.ListItems(context.Background())
	require.NoError(testInstance, listError)
	require.Len(testInstance, boardItems, 3)
	require.False(testInstance, boardItems[0].HasIssue)
	require.Equal(testInstance, 5, boardItems[1].IssueNumber)
	require.Equal(testInstance, 12, boardItems[2].IssueNumber)
}

func TestItemSummarizeFields(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{responses: []string{testFirstItemsPageConstant, testSecondItemsPageConstant}}
	client := newTestBoardClient(testInstance, executor)

	foundItem, findError := client.FindItemByIssueNumber(context.Background(), 12)
	require.NoError(testInstance, findError)

	fieldSummary := foundItem.SummarizeFields(testFieldSettings())
	require.Equal(testInstance, "In progress", fieldSummary.Status)
	require.Equal(testInstance, "P1", fieldSummary.Priority)
	require.Equal(testInstance, "M", fieldSummary.Size)
	require.True(testInstance, fieldSummary.HasEstimate)
	require.Equal(testInstance, float64(4), fieldSummary.Estimate)

	emptySummary := board.Item{Selections: map[string]string{}, Numbers: map[string]float64{}}.SummarizeFields(testFieldSettings())
	require.Empty(testInstance, emptySummary.Status)
	require.False(testInstance, emptySummary.HasEstimate)
}

func TestAddIssue(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{responses: []string{`{"addProjectV2ItemById": {"item": {"id": "ITEM_NEW"}}}`}}
	client := newTestBoardClient(testInstance, executor)

	itemIdentifier, addError := client.AddIssue(context.Background(), "I_kwDOAbCdEf")
	require.NoError(testInstance, addError)
	require.Equal(testInstance, "ITEM_NEW", itemIdentifier)

	recordedCall := executor.recordedCalls[0]
	require.Equal(testInstance, testProjectIdentifierConstant, recordedCall.variables["project"])
	require.Equal(testInstance, "I_kwDOAbCdEf", recordedCall.variables["content"])
	require.Contains(testInstance, recordedCall.query, "addProjectV2ItemById")
}

func TestAddIssueFailures(testInstance *testing.T) {
	emptyResponseExecutor := &stubGraphQLExecutor{responses: []string{`{"addProjectV2ItemById": {"item": {"id": ""}}}`}}
	client := newTestBoardClient(testInstance, emptyResponseExecutor)

	_, missingItemError := client.AddIssue(context.Background(), "I_kwDOAbCdEf")
	require.Error(testInstance, missingItemError)
	require.Contains(testInstance, missingItemError.Error(), "item identifier")

	_, blankNodeError := client.AddIssue(context.Background(), "   ")
	require.IsType(testInstance, githubapi.InvalidInputError{}, blankNodeError)
}

func TestSetSingleSelectField(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{}
	client := newTestBoardClient(testInstance, executor)

	setError := client.SetSingleSelectField(context.Background(), "ITEM_12", "FIELD_STATUS", "OPTION_IN_PROGRESS")
	require.NoError(testInstance, setError)

	recordedCall := executor.recordedCalls[0]
	require.Contains(testInstance, recordedCall.query, "updateProjectV2ItemFieldValue")
	require.Contains(testInstance, recordedCall.query, "singleSelectOptionId")
	require.Equal(testInstance, "ITEM_12", recordedCall.variables["item"])
	require.Equal(testInstance, "FIELD_STATUS", recordedCall.variables["field"])
	require.Equal(testInstance, "OPTION_IN_PROGRESS", recordedCall.variables["option"])

	missingOptionError := client.SetSingleSelectField(context.Background(), "ITEM_12", "FIELD_STATUS", " ")
	require.IsType(testInstance, githubapi.InvalidInputError{}, missingOptionError)
}

func TestSetNumberField(testInstance *testing.T) {
	executor := &stubGraphQLExecutor{}
	client := newTestBoardClient(testInstance, executor)

	setError := client.SetNumberField(context.Background(), "ITEM_12", "FIELD_ESTIMATE", 8)
	require.NoError(testInstance, setError)

	recordedCall := executor.recordedCalls[0]
	require.Contains(testInstance, recordedCall.query, "number: $number")
	require.Equal(testInstance, float64(8), recordedCall.variables["number"])

	missingItemError := client.SetNumberField(context.Background(), "  ", "FIELD_ESTIMATE", 8)
	require.IsType(testInstance, githubapi.InvalidInputError{}, missingItemError)
}
