package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/githubapi"
)

const (
	itemsPageSizeConstant                  = 100
	issueNumberFieldNameConstant           = "issue_number"
	itemIdentifierFieldNameConstant        = "item_identifier"
	fieldIdentifierFieldNameConstant       = "field_identifier"
	optionIdentifierFieldNameConstant      = "option_identifier"
	issueNodeIdentifierFieldNameConstant   = "issue_node_identifier"
	requiredValueMessageConstant           = "must be provided"
	positiveValueMessageConstant           = "must be positive"
	listItemsOperationNameConstant         = githubapi.OperationName("ListBoardItems")
	findItemOperationNameConstant          = githubapi.OperationName("FindBoardItemByIssueNumber")
	addIssueOperationNameConstant          = githubapi.OperationName("AddIssueToBoard")
	setSingleSelectOperationNameConstant   = githubapi.OperationName("SetBoardSingleSelectField")
	setNumberFieldOperationNameConstant    = githubapi.OperationName("SetBoardNumberField")
	projectVariableNameConstant            = "project"
	pageSizeVariableNameConstant           = "pageSize"
	cursorVariableNameConstant             = "cursor"
	contentVariableNameConstant            = "content"
	itemVariableNameConstant               = "item"
	fieldVariableNameConstant              = "field"
	optionVariableNameConstant             = "option"
	numberVariableNameConstant             = "number"
	itemNotFoundMessageTemplateConstant    = "issue #%d is not on the project board; add it to the board first"
	listItemsFailureMessageConstant        = "failed to list project board items: %w"
	addIssueFailureMessageConstant         = "failed to add issue to the project board: %w"
	setFieldValueFailureMessageConstant    = "failed to update project board field value: %w"
	missingItemIdentifierMessageConstant   = "board did not return an item identifier"
	addIssueMissingItemMessageTemplateName = "failed to add issue to the project board: %s"
)

const listItemsQueryConstant = `query($project: ID!, $pageSize: Int!, $cursor: String) {
  node(id: $project) {
    ... on ProjectV2 {
      items(first: $pageSize, after: $cursor) {
        nodes {
          id
          content {
            ... on Issue { number }
            ... on PullRequest { number }
          }
          fieldValues(first: 30) {
            nodes {
              ... on ProjectV2ItemFieldSingleSelectValue {
                name
                field { ... on ProjectV2FieldCommon { id name } }
              }
              ... on ProjectV2ItemFieldNumberValue {
                number
                field { ... on ProjectV2FieldCommon { id name } }
              }
            }
          }
        }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

const addIssueMutationConstant = `mutation($project: ID!, $content: ID!) {
  addProjectV2ItemById(input: {projectId: $project, contentId: $content}) {
    item { id }
  }
}`

const updateSingleSelectMutationConstant = `mutation($project: ID!, $item: ID!, $field: ID!, $option: String!) {
  updateProjectV2ItemFieldValue(input: {projectId: $project, itemId: $item, fieldId: $field, value: {singleSelectOptionId: $option}}) {
    projectV2Item { id }
  }
}`

const updateNumberMutationConstant = `mutation($project: ID!, $item: ID!, $field: ID!, $number: Float!) {
  updateProjectV2ItemFieldValue(input: {projectId: $project, itemId: $item, fieldId: $field, value: {number: $number}}) {
    projectV2Item { id }
  }
}`

var (
	// ErrAPIClientNotConfigured indicates the GraphQL executor dependency was not provided.
	ErrAPIClientNotConfigured = errors.New("board client requires a GitHub API client")
	// ErrProjectIdentifierRequired indicates the board client was built without a project node id.
	ErrProjectIdentifierRequired = errors.New("board client requires a project identifier")
)

// GraphQLExecutor runs GraphQL operations against GitHub.
type GraphQLExecutor interface {
	ExecuteGraphQL(executionContext context.Context, operation githubapi.OperationName, query string, variables map[string]any, out any) error
}

// ItemNotFoundError reports an issue that has no item on the board.
type ItemNotFoundError struct {
	IssueNumber int
}

// Error satisfies the error interface.
func (notFoundError ItemNotFoundError) Error() string {
	return fmt.Sprintf(itemNotFoundMessageTemplateConstant, notFoundError.IssueNumber)
}

// Item is one row of the project board.
type Item struct {
	Identifier  string
	IssueNumber int
	HasIssue    bool
	// Selections maps field identifiers to single-select option names.
	Selections map[string]string
	// Numbers maps field identifiers to number field values.
	Numbers map[string]float64
}

// Client runs board reads and mutations against one ProjectV2 board.
type Client struct {
	api               GraphQLExecutor
	projectIdentifier string
}

// NewClient validates the dependencies and builds a board client.
func NewClient(api GraphQLExecutor, projectIdentifier string) (*Client, error) {
	if api == nil {
		return nil, ErrAPIClientNotConfigured
	}
	trimmedProjectIdentifier := strings.TrimSpace(projectIdentifier)
	if len(trimmedProjectIdentifier) == 0 {
		return nil, ErrProjectIdentifierRequired
	}
	return &Client{api: api, projectIdentifier: trimmedProjectIdentifier}, nil
}

type itemsPageResponse struct {
	Node struct {
		Items struct {
			Nodes    []itemNodeResponse `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"items"`
	} `json:"node"`
}

type itemNodeResponse struct {
	Identifier string `json:"id"`
	Content    struct {
		Number *int `json:"number"`
	} `json:"content"`
	FieldValues struct {
		Nodes []struct {
			Name   string   `json:"name"`
			Number *float64 `json:"number"`
			Field  struct {
				Identifier string `json:"id"`
				Name       string `json:"name"`
			} `json:"field"`
		} `json:"nodes"`
	} `json:"fieldValues"`
}

func (node itemNodeResponse) toItem() Item {
	boardItem := Item{
		Identifier: node.Identifier,
		Selections: map[string]string{},
		Numbers:    map[string]float64{},
	}
	if node.Content.Number != nil {
		boardItem.IssueNumber = *node.Content.Number
		boardItem.HasIssue = true
	}
	for _, fieldValue := range node.FieldValues.Nodes {
		if len(fieldValue.Field.Identifier) == 0 {
			continue
		}
		if fieldValue.Number != nil {
			boardItem.Numbers[fieldValue.Field.Identifier] = *fieldValue.Number
			continue
		}
		if len(fieldValue.Name) > 0 {
			boardItem.Selections[fieldValue.Field.Identifier] = fieldValue.Name
		}
	}
	return boardItem
}

// ListItems returns every item on the board with its field values. The scan
// walks all pages, so cost grows linearly with board size.
func (client *Client) ListItems(executionContext context.Context) ([]Item, error) {
	collectedItems := []Item{}
	visitError := client.visitItems(executionContext, listItemsOperationNameConstant, func(boardItem Item) bool {
		collectedItems = append(collectedItems, boardItem)
		return true
	})
	if visitError != nil {
		return nil, visitError
	}
	return collectedItems, nil
}

// FindItemByIssueNumber scans board items until the item linked to the issue
// appears. The scan is O(n) in board size; a board without the issue yields
// ItemNotFoundError rather than a transport failure.
func (client *Client) FindItemByIssueNumber(executionContext context.Context, issueNumber int) (Item, error) {
	if issueNumber <= 0 {
		return Item{}, githubapi.InvalidInputError{FieldName: issueNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	matchedItem := Item{}
	matched := false
	visitError := client.visitItems(executionContext, findItemOperationNameConstant, func(boardItem Item) bool {
		if boardItem.HasIssue && boardItem.IssueNumber == issueNumber {
			matchedItem = boardItem
			matched = true
			return false
		}
		return true
	})
	if visitError != nil {
		return Item{}, visitError
	}
	if !matched {
		return Item{}, ItemNotFoundError{IssueNumber: issueNumber}
	}
	return matchedItem, nil
}

func (client *Client) visitItems(executionContext context.Context, operation githubapi.OperationName, visit func(Item) bool) error {
	var cursor any
	for {
		pageVariables := map[string]any{
			projectVariableNameConstant:  client.projectIdentifier,
			pageSizeVariableNameConstant: itemsPageSizeConstant,
			cursorVariableNameConstant:   cursor,
		}
		pageResponse := itemsPageResponse{}
		queryError := client.api.ExecuteGraphQL(executionContext, operation, listItemsQueryConstant, pageVariables, &pageResponse)
		if queryError != nil {
			return fmt.Errorf(listItemsFailureMessageConstant, queryError)
		}
		for _, itemNode := range pageResponse.Node.Items.Nodes {
			if !visit(itemNode.toItem()) {
				return nil
			}
		}
		if !pageResponse.Node.Items.PageInfo.HasNextPage {
			return nil
		}
		cursor = pageResponse.Node.Items.PageInfo.EndCursor
	}
}

type addIssueResponse struct {
	AddProjectV2ItemByID struct {
		Item struct {
			Identifier string `json:"id"`
		} `json:"item"`
	} `json:"addProjectV2ItemById"`
}

// AddIssue puts the issue on the board and returns the item identifier. The
// mutation is idempotent server-side, so re-adding an issue yields the
// existing item.
func (client *Client) AddIssue(executionContext context.Context, issueNodeIdentifier string) (string, error) {
	trimmedNodeIdentifier := strings.TrimSpace(issueNodeIdentifier)
	if len(trimmedNodeIdentifier) == 0 {
		return "", githubapi.InvalidInputError{FieldName: issueNodeIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	mutationVariables := map[string]any{
		projectVariableNameConstant: client.projectIdentifier,
		contentVariableNameConstant: trimmedNodeIdentifier,
	}
	mutationResponse := addIssueResponse{}
	mutationError := client.api.ExecuteGraphQL(executionContext, addIssueOperationNameConstant, addIssueMutationConstant, mutationVariables, &mutationResponse)
	if mutationError != nil {
		return "", fmt.Errorf(addIssueFailureMessageConstant, mutationError)
	}
	itemIdentifier := strings.TrimSpace(mutationResponse.AddProjectV2ItemByID.Item.Identifier)
	if len(itemIdentifier) == 0 {
		return "", fmt.Errorf(addIssueMissingItemMessageTemplateName, missingItemIdentifierMessageConstant)
	}
	return itemIdentifier, nil
}

// SetSingleSelectField assigns a single-select option to one item field.
func (client *Client) SetSingleSelectField(executionContext context.Context, itemIdentifier string, fieldIdentifier string, optionIdentifier string) error {
	trimmedItemIdentifier := strings.TrimSpace(itemIdentifier)
	if len(trimmedItemIdentifier) == 0 {
		return githubapi.InvalidInputError{FieldName: itemIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedFieldIdentifier := strings.TrimSpace(fieldIdentifier)
	if len(trimmedFieldIdentifier) == 0 {
		return githubapi.InvalidInputError{FieldName: fieldIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedOptionIdentifier := strings.TrimSpace(optionIdentifier)
	if len(trimmedOptionIdentifier) == 0 {
		return githubapi.InvalidInputError{FieldName: optionIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	mutationVariables := map[string]any{
		projectVariableNameConstant: client.projectIdentifier,
		itemVariableNameConstant:    trimmedItemIdentifier,
		fieldVariableNameConstant:   trimmedFieldIdentifier,
		optionVariableNameConstant:  trimmedOptionIdentifier,
	}
	mutationError := client.api.ExecuteGraphQL(executionContext, setSingleSelectOperationNameConstant, updateSingleSelectMutationConstant, mutationVariables, nil)
	if mutationError != nil {
		return fmt.Errorf(setFieldValueFailureMessageConstant, mutationError)
	}
	return nil
}

// SetNumberField assigns a number value to one item field.
func (client *Client) SetNumberField(executionContext context.Context, itemIdentifier string, fieldIdentifier string, value float64) error {
	trimmedItemIdentifier := strings.TrimSpace(itemIdentifier)
	if len(trimmedItemIdentifier) == 0 {
		return githubapi.InvalidInputError{FieldName: itemIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedFieldIdentifier := strings.TrimSpace(fieldIdentifier)
	if len(trimmedFieldIdentifier) == 0 {
		return githubapi.InvalidInputError{FieldName: fieldIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}

	mutationVariables := map[string]any{
		projectVariableNameConstant: client.projectIdentifier,
		itemVariableNameConstant:    trimmedItemIdentifier,
		fieldVariableNameConstant:   trimmedFieldIdentifier,
		numberVariableNameConstant:  value,
	}
	mutationError := client.api.ExecuteGraphQL(executionContext, setNumberFieldOperationNameConstant, updateNumberMutationConstant, mutationVariables, nil)
	if mutationError != nil {
		return fmt.Errorf(setFieldValueFailureMessageConstant, mutationError)
	}
	return nil
}
