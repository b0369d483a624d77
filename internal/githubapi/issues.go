package githubapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	issuesEndpointTemplateConstant           = "repos/%s/issues"
	issueEndpointTemplateConstant            = "repos/%s/issues/%d"
	issueLabelsEndpointTemplateConstant      = "repos/%s/issues/%d/labels"
	issueLabelEndpointTemplateConstant       = "repos/%s/issues/%d/labels/%s"
	openIssuesEndpointTemplateConstant       = "repos/%s/issues?state=open&per_page=%d"
	openIssuesPageSizeConstant               = 100
	repositoryFieldNameConstant              = "repository"
	issueNumberFieldNameConstant             = "issue_number"
	issueTitleFieldNameConstant              = "title"
	labelNameFieldNameConstant               = "label"
	positiveValueMessageConstant             = "value must be positive"
	createIssueOperationNameConstant         = OperationName("CreateIssue")
	getIssueOperationNameConstant            = OperationName("GetIssue")
	listOpenIssuesOperationNameConstant      = OperationName("ListOpenIssues")
	addIssueLabelsOperationNameConstant      = OperationName("AddIssueLabels")
	removeIssueLabelOperationNameConstant    = OperationName("RemoveIssueLabel")
)

// Issue carries the issue details used by workflow commands.
type Issue struct {
	Number         int
	NodeIdentifier string
	Title          string
	Body           string
	State          string
	URL            string
	CreatedAt      string
	Labels         []string
	Assignees      []string
	HasPullRequest bool
}

type issueResponse struct {
	Number         int    `json:"number"`
	NodeIdentifier string `json:"node_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	State          string `json:"state"`
	HTMLURL        string `json:"html_url"`
	CreatedAt      string `json:"created_at"`
	Labels         []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

func (response issueResponse) toIssue() Issue {
	labelNames := make([]string, 0, len(response.Labels))
	for _, labelEntry := range response.Labels {
		labelNames = append(labelNames, labelEntry.Name)
	}
	assigneeLogins := make([]string, 0, len(response.Assignees))
	for _, assigneeEntry := range response.Assignees {
		assigneeLogins = append(assigneeLogins, assigneeEntry.Login)
	}
	return Issue{
		Number:         response.Number,
		NodeIdentifier: response.NodeIdentifier,
		Title:          response.Title,
		Body:           response.Body,
		State:          response.State,
		URL:            response.HTMLURL,
		CreatedAt:      response.CreatedAt,
		Labels:         labelNames,
		Assignees:      assigneeLogins,
		HasPullRequest: response.PullRequest != nil,
	}
}

// CreateIssueOptions configures CreateIssue.
type CreateIssueOptions struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string
}

// CreateIssue opens a new issue and returns its identifiers.
func (client *Client) CreateIssue(executionContext context.Context, repository string, options CreateIssueOptions) (Issue, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return Issue{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedTitle := strings.TrimSpace(options.Title)
	if len(trimmedTitle) == 0 {
		return Issue{}, InvalidInputError{FieldName: issueTitleFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestBody := struct {
		Title     string   `json:"title"`
		Body      string   `json:"body,omitempty"`
		Labels    []string `json:"labels,omitempty"`
		Assignees []string `json:"assignees,omitempty"`
	}{
		Title:     trimmedTitle,
		Body:      options.Body,
		Labels:    options.Labels,
		Assignees: options.Assignees,
	}

	response := issueResponse{}
	endpoint := fmt.Sprintf(issuesEndpointTemplateConstant, trimmedRepository)
	requestError := client.ExecuteREST(executionContext, createIssueOperationNameConstant, httpMethodPostConstant, endpoint, requestBody, &response)
	if requestError != nil {
		return Issue{}, requestError
	}
	return response.toIssue(), nil
}

// GetIssue fetches a single issue by number.
func (client *Client) GetIssue(executionContext context.Context, repository string, issueNumber int) (Issue, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return Issue{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if issueNumber <= 0 {
		return Issue{}, InvalidInputError{FieldName: issueNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	response := issueResponse{}
	endpoint := fmt.Sprintf(issueEndpointTemplateConstant, trimmedRepository, issueNumber)
	requestError := client.ExecuteREST(executionContext, getIssueOperationNameConstant, httpMethodGetConstant, endpoint, nil, &response)
	if requestError != nil {
		return Issue{}, requestError
	}
	return response.toIssue(), nil
}

// ListOpenIssues enumerates open issues, excluding pull requests.
func (client *Client) ListOpenIssues(executionContext context.Context, repository string) ([]Issue, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	response := []issueResponse{}
	endpoint := fmt.Sprintf(openIssuesEndpointTemplateConstant, trimmedRepository, openIssuesPageSizeConstant)
	requestError := client.ExecuteREST(executionContext, listOpenIssuesOperationNameConstant, httpMethodGetConstant, endpoint, nil, &response)
	if requestError != nil {
		return nil, requestError
	}

	issues := make([]Issue, 0, len(response))
	for _, responseEntry := range response {
		if responseEntry.PullRequest != nil {
			continue
		}
		issues = append(issues, responseEntry.toIssue())
	}
	return issues, nil
}

// AddIssueLabels attaches labels to an issue, creating missing labels on the fly.
func (client *Client) AddIssueLabels(executionContext context.Context, repository string, issueNumber int, labels []string) error {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if issueNumber <= 0 {
		return InvalidInputError{FieldName: issueNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if len(labels) == 0 {
		return InvalidInputError{FieldName: labelNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestBody := struct {
		Labels []string `json:"labels"`
	}{Labels: labels}

	endpoint := fmt.Sprintf(issueLabelsEndpointTemplateConstant, trimmedRepository, issueNumber)
	return client.ExecuteREST(executionContext, addIssueLabelsOperationNameConstant, httpMethodPostConstant, endpoint, requestBody, nil)
}

// RemoveIssueLabel detaches one label from an issue.
func (client *Client) RemoveIssueLabel(executionContext context.Context, repository string, issueNumber int, label string) error {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if issueNumber <= 0 {
		return InvalidInputError{FieldName: issueNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	trimmedLabel := strings.TrimSpace(label)
	if len(trimmedLabel) == 0 {
		return InvalidInputError{FieldName: labelNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	endpoint := fmt.Sprintf(issueLabelEndpointTemplateConstant, trimmedRepository, issueNumber, url.PathEscape(trimmedLabel))
	return client.ExecuteREST(executionContext, removeIssueLabelOperationNameConstant, httpMethodDeleteConstant, endpoint, nil, nil)
}
