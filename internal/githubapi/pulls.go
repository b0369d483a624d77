package githubapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/execshell"
)

const (
	pullsEndpointTemplateConstant        = "repos/%s/pulls"
	pullEndpointTemplateConstant         = "repos/%s/pulls/%d"
	pullsByHeadEndpointTemplateConstant  = "repos/%s/pulls?state=open&head=%s"
	pullRequestSubcommandConstant        = "pr"
	viewSubcommandConstant               = "view"
	webFlagConstant                      = "--web"
	repoFlagConstant                     = "--repo"
	headBranchFieldNameConstant          = "head_branch"
	baseBranchFieldNameConstant          = "base_branch"
	pullTitleFieldNameConstant           = "title"
	pullNumberFieldNameConstant          = "pull_number"
	headFilterTemplateConstant           = "%s:%s"
	findPullRequestOperationNameConstant = OperationName("FindPullRequestByHead")
	createPullRequestOperationConstant   = OperationName("CreatePullRequest")
	updatePullRequestOperationConstant   = OperationName("UpdatePullRequestBody")
	browsePullRequestOperationConstant   = OperationName("BrowsePullRequest")
)

// PullRequest carries the pull request details used by workflow commands.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
	URL        string
	Draft      bool
	State      string
}

type pullRequestResponse struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	State   string `json:"state"`
	Draft   bool   `json:"draft"`
	HTMLURL string `json:"html_url"`
	Head    struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

func (response pullRequestResponse) toPullRequest() PullRequest {
	return PullRequest{
		Number:     response.Number,
		Title:      response.Title,
		Body:       response.Body,
		HeadBranch: response.Head.Ref,
		BaseBranch: response.Base.Ref,
		URL:        response.HTMLURL,
		Draft:      response.Draft,
		State:      response.State,
	}
}

// FindPullRequestByHead locates the open pull request whose head matches the
// branch, returning found=false when none exists.
func (client *Client) FindPullRequestByHead(executionContext context.Context, repository string, headBranch string) (PullRequest, bool, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return PullRequest{}, false, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedHeadBranch := strings.TrimSpace(headBranch)
	if len(trimmedHeadBranch) == 0 {
		return PullRequest{}, false, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	ownerName := strings.SplitN(trimmedRepository, "/", 2)[0]
	headFilter := fmt.Sprintf(headFilterTemplateConstant, ownerName, trimmedHeadBranch)

	response := []pullRequestResponse{}
	endpoint := fmt.Sprintf(pullsByHeadEndpointTemplateConstant, trimmedRepository, headFilter)
	requestError := client.ExecuteREST(executionContext, findPullRequestOperationNameConstant, httpMethodGetConstant, endpoint, nil, &response)
	if requestError != nil {
		return PullRequest{}, false, requestError
	}
	if len(response) == 0 {
		return PullRequest{}, false, nil
	}
	return response[0].toPullRequest(), true, nil
}

// CreatePullRequestOptions configures CreatePullRequest.
type CreatePullRequestOptions struct {
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
	Draft      bool
}

// CreatePullRequest opens a pull request from the head branch into the base.
func (client *Client) CreatePullRequest(executionContext context.Context, repository string, options CreatePullRequestOptions) (PullRequest, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.Title)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: pullTitleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.HeadBranch)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.BaseBranch)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestBody := struct {
		Title string `json:"title"`
		Body  string `json:"body,omitempty"`
		Head  string `json:"head"`
		Base  string `json:"base"`
		Draft bool   `json:"draft"`
	}{
		Title: strings.TrimSpace(options.Title),
		Body:  options.Body,
		Head:  strings.TrimSpace(options.HeadBranch),
		Base:  strings.TrimSpace(options.BaseBranch),
		Draft: options.Draft,
	}

	response := pullRequestResponse{}
	endpoint := fmt.Sprintf(pullsEndpointTemplateConstant, trimmedRepository)
	requestError := client.ExecuteREST(executionContext, createPullRequestOperationConstant, httpMethodPostConstant, endpoint, requestBody, &response)
	if requestError != nil {
		return PullRequest{}, requestError
	}
	return response.toPullRequest(), nil
}

// UpdatePullRequestBody replaces the pull request description.
func (client *Client) UpdatePullRequestBody(executionContext context.Context, repository string, pullNumber int, body string) error {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullNumber <= 0 {
		return InvalidInputError{FieldName: pullNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	requestBody := struct {
		Body string `json:"body"`
	}{Body: body}

	endpoint := fmt.Sprintf(pullEndpointTemplateConstant, trimmedRepository, pullNumber)
	return client.ExecuteREST(executionContext, updatePullRequestOperationConstant, httpMethodPatchConstant, endpoint, requestBody, nil)
}

// BrowsePullRequest opens the pull request in the default browser via gh pr view.
func (client *Client) BrowsePullRequest(executionContext context.Context, repository string, pullNumber int) error {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullNumber <= 0 {
		return InvalidInputError{FieldName: pullNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			viewSubcommandConstant,
			strconv.Itoa(pullNumber),
			repoFlagConstant,
			trimmedRepository,
			webFlagConstant,
		},
		EnvironmentVariables: client.tokenEnvironment(),
	}
	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: browsePullRequestOperationConstant, Cause: executionError}
	}
	return nil
}
