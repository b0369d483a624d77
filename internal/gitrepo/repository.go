package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/execshell"
)

const (
	requiredValueMessageConstant                = "value must be provided"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
	remoteNameRequiredMessageConstant           = "remote name must be provided"
	baseReferenceRequiredMessageConstant        = "base reference must be provided"
	gitStatusSubcommandConstant                 = "status"
	gitStatusPorcelainFlagConstant              = "--porcelain"
	gitRevParseSubcommandConstant               = "rev-parse"
	gitRevParseAbbreviateFlagConstant           = "--abbrev-ref"
	gitHeadReferenceConstant                    = "HEAD"
	gitRemoteSubcommandConstant                 = "remote"
	gitRemoteGetURLSubcommandConstant           = "get-url"
	gitCheckoutSubcommandConstant               = "checkout"
	gitCheckoutNewBranchFlagConstant            = "-b"
	gitBranchSubcommandConstant                 = "branch"
	gitBranchListFlagConstant                   = "--list"
	gitPushSubcommandConstant                   = "push"
	gitPushSetUpstreamFlagConstant              = "-u"
	gitDiffSubcommandConstant                   = "diff"
	gitDiffNameOnlyFlagConstant                 = "--name-only"
	gitDiffRangeTemplateConstant                = "%s...%s"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	statusVerificationErrorTemplateConstant     = "failed to inspect worktree status: %w"
	currentBranchErrorTemplateConstant          = "failed to determine current branch: %w"
	remoteURLErrorTemplateConstant              = "failed to read remote %q: %w"
	branchLookupErrorTemplateConstant           = "failed to list branch %q: %w"
	checkoutErrorTemplateConstant               = "failed to checkout branch %q: %w"
	createBranchErrorTemplateConstant           = "failed to create branch %q: %w"
	pushErrorTemplateConstant                   = "failed to push branch %q: %w"
	changedFilesErrorTemplateConstant           = "failed to collect changed files against %q: %w"
	worktreeStatusErrorTemplateConstant         = "failed to collect worktree changes: %w"
	gitPorcelainRenameSeparatorConstant         = " -> "
	gitPorcelainPathOffsetConstant              = 3
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryPathRequired indicates the repository path argument was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name argument was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrRemoteNameRequired indicates the remote name argument was empty.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// ErrBaseReferenceRequired indicates the diff base argument was empty.
var ErrBaseReferenceRequired = errors.New(baseReferenceRequiredMessageConstant)

// GitExecutor exposes the subset of shell execution used by repository operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs repository-level git operations for workflow commands.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager from the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether the repository has no uncommitted changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant)
	if executionError != nil {
		return false, fmt.Errorf(statusVerificationErrorTemplateConstant, executionError)
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// GetCurrentBranch resolves the branch the repository currently has checked out.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitRevParseSubcommandConstant, gitRevParseAbbreviateFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", fmt.Errorf(currentBranchErrorTemplateConstant, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// GetRemoteURL reads the fetch URL configured for the named remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return "", ErrRemoteNameRequired
	}

	executionResult, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemoteName)
	if executionError != nil {
		return "", fmt.Errorf(remoteURLErrorTemplateConstant, trimmedRemoteName, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// BranchExists reports whether a local branch with the provided name exists.
func (manager *RepositoryManager) BranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return false, ErrBranchNameRequired
	}

	executionResult, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitBranchSubcommandConstant, gitBranchListFlagConstant, trimmedBranchName)
	if executionError != nil {
		return false, fmt.Errorf(branchLookupErrorTemplateConstant, trimmedBranchName, executionError)
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// Checkout switches the repository to an existing branch.
func (manager *RepositoryManager) Checkout(executionContext context.Context, repositoryPath string, branchName string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return ErrBranchNameRequired
	}

	_, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitCheckoutSubcommandConstant, trimmedBranchName)
	if executionError != nil {
		return fmt.Errorf(checkoutErrorTemplateConstant, trimmedBranchName, executionError)
	}
	return nil
}

// CreateBranch creates a new branch and switches the repository to it.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return ErrBranchNameRequired
	}

	_, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitCheckoutSubcommandConstant, gitCheckoutNewBranchFlagConstant, trimmedBranchName)
	if executionError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, trimmedBranchName, executionError)
	}
	return nil
}

// Push publishes the branch to the named remote, optionally recording the upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string, setUpstream bool) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return ErrRemoteNameRequired
	}
	trimmedBranchName := strings.TrimSpace(branchName)
	if len(trimmedBranchName) == 0 {
		return ErrBranchNameRequired
	}

	pushArguments := []string{gitPushSubcommandConstant}
	if setUpstream {
		pushArguments = append(pushArguments, gitPushSetUpstreamFlagConstant)
	}
	pushArguments = append(pushArguments, trimmedRemoteName, trimmedBranchName)

	_, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, pushArguments...)
	if executionError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, trimmedBranchName, executionError)
	}
	return nil
}

// ChangedFiles lists files that differ between the base reference and HEAD.
func (manager *RepositoryManager) ChangedFiles(executionContext context.Context, repositoryPath string, baseReference string) ([]string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}
	trimmedBaseReference := strings.TrimSpace(baseReference)
	if len(trimmedBaseReference) == 0 {
		return nil, ErrBaseReferenceRequired
	}

	diffRange := fmt.Sprintf(gitDiffRangeTemplateConstant, trimmedBaseReference, gitHeadReferenceConstant)
	executionResult, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitDiffSubcommandConstant, gitDiffNameOnlyFlagConstant, diffRange)
	if executionError != nil {
		return nil, fmt.Errorf(changedFilesErrorTemplateConstant, trimmedBaseReference, executionError)
	}

	changedFiles := make([]string, 0)
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		changedFiles = append(changedFiles, trimmedLine)
	}
	return changedFiles, nil
}

// WorktreeChanges lists paths with uncommitted modifications. Rename entries
// contribute the destination path.
func (manager *RepositoryManager) WorktreeChanges(executionContext context.Context, repositoryPath string) ([]string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executeGit(executionContext, trimmedRepositoryPath, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant)
	if executionError != nil {
		return nil, fmt.Errorf(worktreeStatusErrorTemplateConstant, executionError)
	}

	changedPaths := make([]string, 0)
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		if len(strings.TrimSpace(outputLine)) == 0 || len(outputLine) <= gitPorcelainPathOffsetConstant {
			continue
		}
		changedPath := strings.TrimSpace(outputLine[gitPorcelainPathOffsetConstant:])
		if separatorIndex := strings.Index(changedPath, gitPorcelainRenameSeparatorConstant); separatorIndex >= 0 {
			changedPath = strings.TrimSpace(changedPath[separatorIndex+len(gitPorcelainRenameSeparatorConstant):])
		}
		if len(changedPath) > 0 {
			changedPaths = append(changedPaths, changedPath)
		}
	}
	return changedPaths, nil
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	}
	return manager.executor.ExecuteGit(executionContext, commandDetails)
}
