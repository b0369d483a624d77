package dependencies

import (
	"context"

	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/execshell"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/gitrepo"
	"github.com/bossprank/github-workflow-manager/internal/session"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

// ResolveClock returns the provided clock or the system clock.
func ResolveClock(existing shared.Clock) shared.Clock {
	if existing != nil {
		return existing
	}
	return shared.SystemClock{}
}

// ResolveTokenResolver returns the provided resolver or the workspace default.
func ResolveTokenResolver(existing shared.TokenResolver) shared.TokenResolver {
	if existing != nil {
		return existing
	}
	return workspace.NewTokenResolver()
}

// ResolveShellExecutor constructs an OS-backed shell executor.
func ResolveShellExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	commandRunner := execshell.NewOSCommandRunner()
	return execshell.NewShellExecutor(logger, commandRunner, true)
}

// ResolveGitManager returns the provided manager or constructs one over a
// shell executor.
func ResolveGitManager(existing shared.GitRepositoryManager, logger *zap.Logger) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	shellExecutor, executorError := ResolveShellExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}
	return gitrepo.NewRepositoryManager(shellExecutor)
}

// ResolveGitHubClient builds a gh-backed API client carrying the token.
func ResolveGitHubClient(logger *zap.Logger, token string) (*githubapi.Client, error) {
	shellExecutor, executorError := ResolveShellExecutor(logger)
	if executorError != nil {
		return nil, executorError
	}
	return githubapi.NewClient(shellExecutor, token)
}

// ResolveWorkspaceAPI resolves the configured token and builds the API client
// in one step, the common preamble of networked commands.
func ResolveWorkspaceAPI(executionContext context.Context, tokenResolver shared.TokenResolver, tokenSettings workspace.TokenSettings, logger *zap.Logger) (*githubapi.Client, error) {
	resolvedToken, tokenError := ResolveTokenResolver(tokenResolver).Resolve(executionContext, tokenSettings)
	if tokenError != nil {
		return nil, tokenError
	}
	return ResolveGitHubClient(logger, resolvedToken)
}

// ResolveBoardAPI returns the provided board API or constructs a client bound
// to the configured project.
func ResolveBoardAPI(existing shared.BoardAPI, api board.GraphQLExecutor, projectIdentifier string) (shared.BoardAPI, error) {
	if existing != nil {
		return existing, nil
	}
	return board.NewClient(api, projectIdentifier)
}

// ResolveSessionStore returns the provided store or one rooted at the state
// directory.
func ResolveSessionStore(existing shared.SessionStore, stateDirectory string) (shared.SessionStore, error) {
	if existing != nil {
		return existing, nil
	}
	return session.NewStore(stateDirectory)
}
