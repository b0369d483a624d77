package githubapi

import (
	"context"
	"fmt"
	"strings"
)

const (
	issueCommentsEndpointTemplateConstant     = "repos/%s/issues/%d/comments"
	issueCommentsListEndpointTemplateConstant = "repos/%s/issues/%d/comments?per_page=%d"
	commentPageSizeConstant                   = 100
	commentBodyFieldNameConstant              = "comment_body"
	commentLimitFieldNameConstant             = "limit"
	addCommentOperationNameConstant           = OperationName("AddIssueComment")
	listCommentsOperationNameConstant         = OperationName("ListIssueComments")
)

// Comment carries one issue comment.
type Comment struct {
	Identifier int64
	Author     string
	Body       string
	CreatedAt  string
	URL        string
}

type commentResponse struct {
	Identifier int64 `json:"id"`
	User       struct {
		Login string `json:"login"`
	} `json:"user"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	HTMLURL   string `json:"html_url"`
}

func (response commentResponse) toComment() Comment {
	return Comment{
		Identifier: response.Identifier,
		Author:     response.User.Login,
		Body:       response.Body,
		CreatedAt:  response.CreatedAt,
		URL:        response.HTMLURL,
	}
}

// AddIssueComment posts a comment on the issue.
func (client *Client) AddIssueComment(executionContext context.Context, repository string, issueNumber int, body string) (Comment, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return Comment{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if issueNumber <= 0 {
		return Comment{}, InvalidInputError{FieldName: issueNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if len(strings.TrimSpace(body)) == 0 {
		return Comment{}, InvalidInputError{FieldName: commentBodyFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestBody := struct {
		Body string `json:"body"`
	}{Body: body}

	response := commentResponse{}
	endpoint := fmt.Sprintf(issueCommentsEndpointTemplateConstant, trimmedRepository, issueNumber)
	requestError := client.ExecuteREST(executionContext, addCommentOperationNameConstant, httpMethodPostConstant, endpoint, requestBody, &response)
	if requestError != nil {
		return Comment{}, requestError
	}
	return response.toComment(), nil
}

// ListIssueComments returns the most recent comments on the issue, newest
// last, capped at limit. The comments endpoint serves ascending creation
// order, so the tail of one full page covers the recent history workflow
// commands display.
func (client *Client) ListIssueComments(executionContext context.Context, repository string, issueNumber int, limit int) ([]Comment, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if issueNumber <= 0 {
		return nil, InvalidInputError{FieldName: issueNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if limit <= 0 {
		return nil, InvalidInputError{FieldName: commentLimitFieldNameConstant, Message: positiveValueMessageConstant}
	}

	response := []commentResponse{}
	endpoint := fmt.Sprintf(issueCommentsListEndpointTemplateConstant, trimmedRepository, issueNumber, commentPageSizeConstant)
	requestError := client.ExecuteREST(executionContext, listCommentsOperationNameConstant, httpMethodGetConstant, endpoint, nil, &response)
	if requestError != nil {
		return nil, requestError
	}

	comments := make([]Comment, 0, len(response))
	for _, responseEntry := range response {
		comments = append(comments, responseEntry.toComment())
	}
	if len(comments) > limit {
		comments = comments[len(comments)-limit:]
	}
	return comments, nil
}
