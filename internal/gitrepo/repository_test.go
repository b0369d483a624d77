package gitrepo_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/execshell"
	"github.com/bossprank/github-workflow-manager/internal/gitrepo"
)

const (
	repositoryManagerTestPathConstant       = "/workspace/widgets"
	repositoryManagerTestBranchConstant     = "boss-wip"
	repositoryManagerTestRemoteConstant     = "origin"
	repositoryManagerTestBaseConstant       = "main"
	repositoryManagerSubtestNameTemplate    = "%d_%s"
	repositoryManagerTestRemoteURLConstant  = "git@github.com:acme/widgets.git"
	repositoryManagerFailureMessageConstant = "git exploded"
)

type scriptedGitExecutor struct {
	responses        map[string]execshell.ExecutionResult
	failures         map[string]error
	executedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.executedCommands = append(executor.executedCommands, details)
	commandKey := strings.Join(details.Arguments, " ")
	if failure, failureExists := executor.failures[commandKey]; failureExists {
		return execshell.ExecutionResult{}, failure
	}
	if response, responseExists := executor.responses[commandKey]; responseExists {
		return response, nil
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, constructionError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, constructionError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, manager)
}

func TestRepositoryManagerCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusOutput   string
		expectedResult bool
	}{
		{name: "clean worktree", statusOutput: "", expectedResult: true},
		{name: "whitespace only output", statusOutput: "\n", expectedResult: true},
		{name: "dirty worktree", statusOutput: " M internal/board/client.go\n?? notes.txt\n", expectedResult: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(repositoryManagerSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{
				responses: map[string]execshell.ExecutionResult{
					"status --porcelain": {StandardOutput: testCase.statusOutput},
				},
			}
			manager, constructionError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, constructionError)

			cleanWorktree, checkError := manager.CheckCleanWorktree(context.Background(), repositoryManagerTestPathConstant)
			require.NoError(testInstance, checkError)
			require.Equal(testInstance, testCase.expectedResult, cleanWorktree)
			require.Len(testInstance, executor.executedCommands, 1)
			require.Equal(testInstance, repositoryManagerTestPathConstant, executor.executedCommands[0].WorkingDirectory)
			require.Equal(testInstance, "0", executor.executedCommands[0].EnvironmentVariables["GIT_TERMINAL_PROMPT"])
		})
	}
}

func TestRepositoryManagerGetCurrentBranch(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"rev-parse --abbrev-ref HEAD": {StandardOutput: repositoryManagerTestBranchConstant + "\n"},
		},
	}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	currentBranch, branchError := manager.GetCurrentBranch(context.Background(), repositoryManagerTestPathConstant)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, repositoryManagerTestBranchConstant, currentBranch)
}

func TestRepositoryManagerGetRemoteURL(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"remote get-url origin": {StandardOutput: repositoryManagerTestRemoteURLConstant + "\n"},
		},
	}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	remoteURL, remoteError := manager.GetRemoteURL(context.Background(), repositoryManagerTestPathConstant, repositoryManagerTestRemoteConstant)
	require.NoError(testInstance, remoteError)
	require.Equal(testInstance, repositoryManagerTestRemoteURLConstant, remoteURL)
}

func TestRepositoryManagerBranchExists(testInstance *testing.T) {
	testCases := []struct {
		name           string
		listOutput     string
		expectedExists bool
	}{
		{name: "branch present", listOutput: "  boss-wip\n", expectedExists: true},
		{name: "branch absent", listOutput: "", expectedExists: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(repositoryManagerSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{
				responses: map[string]execshell.ExecutionResult{
					"branch --list boss-wip": {StandardOutput: testCase.listOutput},
				},
			}
			manager, constructionError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, constructionError)

			branchExists, existenceError := manager.BranchExists(context.Background(), repositoryManagerTestPathConstant, repositoryManagerTestBranchConstant)
			require.NoError(testInstance, existenceError)
			require.Equal(testInstance, testCase.expectedExists, branchExists)
		})
	}
}

func TestRepositoryManagerCreateBranchAndCheckout(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	require.NoError(testInstance, manager.CreateBranch(context.Background(), repositoryManagerTestPathConstant, repositoryManagerTestBranchConstant))
	require.NoError(testInstance, manager.Checkout(context.Background(), repositoryManagerTestPathConstant, repositoryManagerTestBaseConstant))

	require.Len(testInstance, executor.executedCommands, 2)
	require.Equal(testInstance, []string{"checkout", "-b", repositoryManagerTestBranchConstant}, executor.executedCommands[0].Arguments)
	require.Equal(testInstance, []string{"checkout", repositoryManagerTestBaseConstant}, executor.executedCommands[1].Arguments)
}

func TestRepositoryManagerPush(testInstance *testing.T) {
	testCases := []struct {
		name              string
		setUpstream       bool
		expectedArguments []string
	}{
		{
			name:              "push with upstream",
			setUpstream:       true,
			expectedArguments: []string{"push", "-u", repositoryManagerTestRemoteConstant, repositoryManagerTestBranchConstant},
		},
		{
			name:              "push without upstream",
			setUpstream:       false,
			expectedArguments: []string{"push", repositoryManagerTestRemoteConstant, repositoryManagerTestBranchConstant},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(repositoryManagerSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{}
			manager, constructionError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, constructionError)

			pushError := manager.Push(context.Background(), repositoryManagerTestPathConstant, repositoryManagerTestRemoteConstant, repositoryManagerTestBranchConstant, testCase.setUpstream)
			require.NoError(testInstance, pushError)
			require.Len(testInstance, executor.executedCommands, 1)
			require.Equal(testInstance, testCase.expectedArguments, executor.executedCommands[0].Arguments)
		})
	}
}

func TestRepositoryManagerChangedFiles(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"diff --name-only main...HEAD": {StandardOutput: "internal/board/client.go\n\ninternal/session/store.go\n"},
		},
	}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	changedFiles, diffError := manager.ChangedFiles(context.Background(), repositoryManagerTestPathConstant, repositoryManagerTestBaseConstant)
	require.NoError(testInstance, diffError)
	require.Equal(testInstance, []string{"internal/board/client.go", "internal/session/store.go"}, changedFiles)
}

func TestRepositoryManagerWorktreeChanges(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"status --porcelain": {StandardOutput: " M internal/board/client.go\n?? notes.txt\nR  old_name.go -> new_name.go\n\n"},
		},
	}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	worktreeChanges, statusError := manager.WorktreeChanges(context.Background(), repositoryManagerTestPathConstant)
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, []string{"internal/board/client.go", "notes.txt", "new_name.go"}, worktreeChanges)
}

func TestRepositoryManagerValidatesArguments(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	_, cleanError := manager.CheckCleanWorktree(context.Background(), " ")
	require.ErrorIs(testInstance, cleanError, gitrepo.ErrRepositoryPathRequired)

	checkoutError := manager.Checkout(context.Background(), repositoryManagerTestPathConstant, "")
	require.ErrorIs(testInstance, checkoutError, gitrepo.ErrBranchNameRequired)

	pushError := manager.Push(context.Background(), repositoryManagerTestPathConstant, "", repositoryManagerTestBranchConstant, false)
	require.ErrorIs(testInstance, pushError, gitrepo.ErrRemoteNameRequired)

	_, diffError := manager.ChangedFiles(context.Background(), repositoryManagerTestPathConstant, "")
	require.ErrorIs(testInstance, diffError, gitrepo.ErrBaseReferenceRequired)

	require.Empty(testInstance, executor.executedCommands)
}

func TestRepositoryManagerWrapsExecutorFailures(testInstance *testing.T) {
	executorFailure := errors.New(repositoryManagerFailureMessageConstant)
	executor := &scriptedGitExecutor{
		failures: map[string]error{
			"rev-parse --abbrev-ref HEAD": executorFailure,
		},
	}
	manager, constructionError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, constructionError)

	_, branchError := manager.GetCurrentBranch(context.Background(), repositoryManagerTestPathConstant)
	require.Error(testInstance, branchError)
	require.ErrorIs(testInstance, branchError, executorFailure)
	require.Contains(testInstance, branchError.Error(), "failed to determine current branch")
}
