// Package pulls opens pull requests in the browser, resolving the shared
// work branch pull request when no number is given.
package pulls

import (
	"context"
	"errors"
	"fmt"

	"github.com/bossprank/github-workflow-manager/internal/shared"
)

const (
	missingSharedPullTemplateConstant = "no open pull request for branch %q (start a work session first)"
	pullLookupFailureTemplateConstant = "failed to look up the shared pull request: %w"
	browseFailureTemplateConstant     = "failed to open pull request #%d: %w"
)

// ErrPullRequestAPINotConfigured indicates the pull request API dependency was not provided.
var ErrPullRequestAPINotConfigured = errors.New("pr service requires a pull request API")

// MissingSharedPullError reports that the shared work branch has no open
// pull request to browse.
type MissingSharedPullError struct {
	BranchName string
}

func (missingError MissingSharedPullError) Error() string {
	return fmt.Sprintf(missingSharedPullTemplateConstant, missingError.BranchName)
}

// OpenOptions configures a pr open invocation. A zero PullNumber means the
// shared pull request is resolved by head branch.
type OpenOptions struct {
	Repository string
	BranchName string
	PullNumber int
}

// OpenResult reports the pull request that was opened.
type OpenResult struct {
	PullNumber int
	Resolved   bool
}

// Service opens pull requests in the browser.
type Service struct {
	pullRequestAPI shared.PullRequestAPI
}

// NewService validates the dependency and builds a pr service.
func NewService(pullRequestAPI shared.PullRequestAPI) (*Service, error) {
	if pullRequestAPI == nil {
		return nil, ErrPullRequestAPINotConfigured
	}
	return &Service{pullRequestAPI: pullRequestAPI}, nil
}

// Open browses the requested pull request, resolving the shared one by head
// branch when no number was given.
func (service *Service) Open(executionContext context.Context, options OpenOptions) (OpenResult, error) {
	openResult := OpenResult{PullNumber: options.PullNumber}

	if options.PullNumber == 0 {
		sharedPull, pullFound, lookupError := service.pullRequestAPI.FindPullRequestByHead(executionContext, options.Repository, options.BranchName)
		if lookupError != nil {
			return OpenResult{}, fmt.Errorf(pullLookupFailureTemplateConstant, lookupError)
		}
		if !pullFound {
			return OpenResult{}, MissingSharedPullError{BranchName: options.BranchName}
		}
		openResult.PullNumber = sharedPull.Number
		openResult.Resolved = true
	}

	if browseError := service.pullRequestAPI.BrowsePullRequest(executionContext, options.Repository, openResult.PullNumber); browseError != nil {
		return OpenResult{}, fmt.Errorf(browseFailureTemplateConstant, openResult.PullNumber, browseError)
	}
	return openResult, nil
}
