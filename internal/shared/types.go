package shared

import (
	"context"
	"time"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/session"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

// IssueAPI covers the issue operations workflow commands perform.
type IssueAPI interface {
	CreateIssue(executionContext context.Context, repository string, options githubapi.CreateIssueOptions) (githubapi.Issue, error)
	GetIssue(executionContext context.Context, repository string, issueNumber int) (githubapi.Issue, error)
	ListOpenIssues(executionContext context.Context, repository string) ([]githubapi.Issue, error)
	AddIssueLabels(executionContext context.Context, repository string, issueNumber int, labels []string) error
	RemoveIssueLabel(executionContext context.Context, repository string, issueNumber int, label string) error
}

// CommentAPI covers the issue comment operations.
type CommentAPI interface {
	AddIssueComment(executionContext context.Context, repository string, issueNumber int, body string) (githubapi.Comment, error)
	ListIssueComments(executionContext context.Context, repository string, issueNumber int, limit int) ([]githubapi.Comment, error)
}

// PullRequestAPI covers the pull request operations.
type PullRequestAPI interface {
	FindPullRequestByHead(executionContext context.Context, repository string, headBranch string) (githubapi.PullRequest, bool, error)
	CreatePullRequest(executionContext context.Context, repository string, options githubapi.CreatePullRequestOptions) (githubapi.PullRequest, error)
	UpdatePullRequestBody(executionContext context.Context, repository string, pullNumber int, body string) error
	BrowsePullRequest(executionContext context.Context, repository string, pullNumber int) error
}

// BoardAPI covers the project board operations.
type BoardAPI interface {
	FindItemByIssueNumber(executionContext context.Context, issueNumber int) (board.Item, error)
	AddIssue(executionContext context.Context, issueNodeIdentifier string) (string, error)
	SetSingleSelectField(executionContext context.Context, itemIdentifier string, fieldIdentifier string, optionIdentifier string) error
	SetNumberField(executionContext context.Context, itemIdentifier string, fieldIdentifier string, value float64) error
	ListItems(executionContext context.Context) ([]board.Item, error)
}

// GitRepositoryManager covers the local git operations work sessions need.
type GitRepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	BranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	Checkout(executionContext context.Context, repositoryPath string, branchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error
	ChangedFiles(executionContext context.Context, repositoryPath string, baseReference string) ([]string, error)
	WorktreeChanges(executionContext context.Context, repositoryPath string) ([]string, error)
}

// SessionStore persists work session records.
type SessionStore interface {
	Load(issueNumber int) (session.Record, error)
	Save(record *session.Record) error
	Archive(issueNumber int) (string, error)
	StatePath(issueNumber int) string
}

// TokenResolver turns the configured token settings into a token value.
type TokenResolver interface {
	Resolve(executionContext context.Context, tokenSettings workspace.TokenSettings) (string, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
