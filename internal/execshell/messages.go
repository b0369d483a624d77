package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	currentDirectoryLabelConstant           = "current directory"
	unknownValueLabelConstant               = "unknown"
)

const (
	gitStatusSubcommandConstant       = "status"
	gitRevParseSubcommandConstant     = "rev-parse"
	gitAbbrevRefFlagConstant          = "--abbrev-ref"
	gitRemoteSubcommandConstant       = "remote"
	gitRemoteGetURLSubcommandConstant = "get-url"
	gitCheckoutSubcommandConstant     = "checkout"
	gitCheckoutCreateFlagConstant     = "-b"
	gitBranchSubcommandConstant       = "branch"
	gitBranchListFlagConstant         = "--list"
	gitPushSubcommandConstant         = "push"
	gitDiffSubcommandConstant         = "diff"
	gitNameOnlyFlagConstant           = "--name-only"
)

const (
	githubAPISubcommandConstant         = "api"
	githubGraphQLEndpointConstant       = "graphql"
	githubPullRequestSubcommandConstant = "pr"
	githubPullRequestViewConstant       = "view"
	githubPullRequestListConstant       = "list"
	githubPullRequestCreateConstant     = "create"
	githubPullRequestEditConstant       = "edit"
	githubWebFlagConstant               = "--web"
	githubHeadFlagConstant              = "--head"
	githubMethodFlagConstant            = "-X"
)

const (
	gitStatusStartTemplateConstant             = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant           = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant           = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant  = "Unable to review working tree status in %s: %s"
	gitBranchNameStartTemplateConstant         = "Identifying current branch in %s"
	gitBranchNameSuccessTemplateConstant       = "Identified current branch in %s"
	gitBranchNameFailureTemplateConstant       = "Failed to identify current branch in %s (exit code %d%s)"
	gitBranchNameExecutionTemplateConstant     = "Unable to identify current branch in %s: %s"
	gitRemoteStartTemplateConstant             = "Checking %s remote in %s"
	gitRemoteSuccessTemplateConstant           = "Read %s remote in %s"
	gitRemoteFailureTemplateConstant           = "Failed to read %s remote in %s (exit code %d%s)"
	gitRemoteExecutionFailureTemplateConstant  = "Unable to read %s remote in %s: %s"
	gitCheckoutStartTemplateConstant           = "Switching %s to branch %s"
	gitCheckoutCreateStartTemplateConstant     = "Creating branch %s in %s"
	gitCheckoutSuccessTemplateConstant         = "%s now on branch %s"
	gitCheckoutCreateSuccessTemplateConstant   = "Created branch %s in %s"
	gitCheckoutFailureTemplateConstant         = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConst   = "Unable to switch %s to branch %s: %s"
	gitBranchListStartTemplateConstant         = "Listing branches matching %s in %s"
	gitBranchListSuccessTemplateConstant       = "Listed branches matching %s in %s"
	gitBranchListFailureTemplateConstant       = "Failed to list branches matching %s in %s (exit code %d%s)"
	gitBranchListExecutionTemplateConstant     = "Unable to list branches matching %s in %s: %s"
	gitPushStartTemplateConstant               = "Pushing %s from %s"
	gitPushSuccessTemplateConstant             = "Pushed %s from %s"
	gitPushFailureTemplateConstant             = "Failed to push %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant    = "Unable to push %s from %s: %s"
	gitDiffStartTemplateConstant               = "Collecting changed files for %s in %s"
	gitDiffSuccessTemplateConstant             = "Collected changed files for %s in %s"
	gitDiffFailureTemplateConstant             = "Failed to collect changed files for %s in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant    = "Unable to collect changed files for %s in %s: %s"
	githubGraphQLStartTemplateConstant         = "Calling GitHub GraphQL API"
	githubGraphQLSuccessTemplateConstant       = "GitHub GraphQL API call completed"
	githubGraphQLFailureTemplateConstant       = "GitHub GraphQL API call failed (exit code %d%s)"
	githubGraphQLExecutionTemplateConstant     = "Unable to call GitHub GraphQL API: %s"
	githubRESTStartTemplateConstant            = "Calling GitHub API %s %s"
	githubRESTSuccessTemplateConstant          = "GitHub API %s %s completed"
	githubRESTFailureTemplateConstant          = "GitHub API %s %s failed (exit code %d%s)"
	githubRESTExecutionTemplateConstant        = "Unable to call GitHub API %s %s: %s"
	githubPullRequestViewStartTemplateConstant = "Opening pull request %s"
	githubPullRequestViewSuccessTemplate       = "Opened pull request %s"
	githubPullRequestViewFailureTemplate       = "Failed to open pull request %s (exit code %d%s)"
	githubPullRequestViewExecutionTemplate     = "Unable to open pull request %s: %s"
	githubPullRequestListStartTemplateConstant = "Listing pull requests for head %s"
	githubPullRequestListSuccessTemplate       = "Listed pull requests for head %s"
	githubPullRequestListFailureTemplate       = "Failed to list pull requests for head %s (exit code %d%s)"
	githubPullRequestListExecutionTemplate     = "Unable to list pull requests for head %s: %s"
	githubPullRequestCreateStartTemplate       = "Creating pull request"
	githubPullRequestCreateSuccessTemplate     = "Created pull request"
	githubPullRequestCreateFailureTemplate     = "Failed to create pull request (exit code %d%s)"
	githubPullRequestCreateExecutionTemplate   = "Unable to create pull request: %s"
	githubPullRequestEditStartTemplateConstant = "Updating pull request %s"
	githubPullRequestEditSuccessTemplate       = "Updated pull request %s"
	githubPullRequestEditFailureTemplate       = "Failed to update pull request %s (exit code %d%s)"
	githubPullRequestEditExecutionTemplate     = "Unable to update pull request %s: %s"
	githubDefaultRESTMethodConstant            = "GET"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch arguments[0] {
	case gitStatusSubcommandConstant:
		return formatter.renderLocationMessage(stage, command, result, failure,
			gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant,
			gitStatusFailureTemplateConstant, gitStatusExecutionFailureTemplateConstant)
	case gitRevParseSubcommandConstant:
		if containsArgument(arguments, gitAbbrevRefFlagConstant) {
			return formatter.renderLocationMessage(stage, command, result, failure,
				gitBranchNameStartTemplateConstant, gitBranchNameSuccessTemplateConstant,
				gitBranchNameFailureTemplateConstant, gitBranchNameExecutionTemplateConstant)
		}
	case gitRemoteSubcommandConstant:
		if len(arguments) > 1 && arguments[1] == gitRemoteGetURLSubcommandConstant {
			remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
			return formatter.renderSubjectLocationMessage(stage, command, result, failure, remoteName,
				gitRemoteStartTemplateConstant, gitRemoteSuccessTemplateConstant,
				gitRemoteFailureTemplateConstant, gitRemoteExecutionFailureTemplateConstant)
		}
	case gitCheckoutSubcommandConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitBranchSubcommandConstant:
		if containsArgument(arguments, gitBranchListFlagConstant) {
			pattern := formatter.ensureValue(formatter.lastNonFlagArgument(arguments[1:]))
			return formatter.renderSubjectLocationMessage(stage, command, result, failure, pattern,
				gitBranchListStartTemplateConstant, gitBranchListSuccessTemplateConstant,
				gitBranchListFailureTemplateConstant, gitBranchListExecutionTemplateConstant)
		}
	case gitPushSubcommandConstant:
		target := formatter.ensureValue(formatter.lastNonFlagArgument(arguments[1:]))
		return formatter.renderSubjectLocationMessage(stage, command, result, failure, target,
			gitPushStartTemplateConstant, gitPushSuccessTemplateConstant,
			gitPushFailureTemplateConstant, gitPushExecutionFailureTemplateConstant)
	case gitDiffSubcommandConstant:
		if containsArgument(arguments, gitNameOnlyFlagConstant) {
			revisionRange := formatter.ensureValue(formatter.lastNonFlagArgument(arguments[1:]))
			return formatter.renderSubjectLocationMessage(stage, command, result, failure, revisionRange,
				gitDiffStartTemplateConstant, gitDiffSuccessTemplateConstant,
				gitDiffFailureTemplateConstant, gitDiffExecutionFailureTemplateConstant)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	branchName := formatter.ensureValue(formatter.lastNonFlagArgument(arguments[1:]))
	location := formatter.describeWorkingDirectory(command)

	if containsArgument(arguments, gitCheckoutCreateFlagConstant) {
		branchName = formatter.ensureValue(findFlagValue(arguments, gitCheckoutCreateFlagConstant))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitCheckoutCreateStartTemplateConstant, branchName, location)
		case messageStageSuccess:
			return fmt.Sprintf(gitCheckoutCreateSuccessTemplateConstant, branchName, location)
		case messageStageFailure:
			return fmt.Sprintf(gitCheckoutFailureTemplateConstant, location, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitCheckoutExecutionFailureTemplateConst, location, branchName, formatter.describeFailure(failure))
		}
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, location, branchName)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, location, branchName)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, location, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCheckoutExecutionFailureTemplateConst, location, branchName, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch arguments[0] {
	case githubAPISubcommandConstant:
		return formatter.describeGitHubAPIMessage(command, result, failure, stage)
	case githubPullRequestSubcommandConstant:
		return formatter.describeGitHubPullRequestMessage(command, result, failure, stage)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubAPIMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	endpoint := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))

	if endpoint == githubGraphQLEndpointConstant {
		switch stage {
		case messageStageStart:
			return githubGraphQLStartTemplateConstant
		case messageStageSuccess:
			return githubGraphQLSuccessTemplateConstant
		case messageStageFailure:
			return fmt.Sprintf(githubGraphQLFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(githubGraphQLExecutionTemplateConstant, formatter.describeFailure(failure))
		}
	}

	method := findFlagValue(arguments, githubMethodFlagConstant)
	if len(method) == 0 {
		method = githubDefaultRESTMethodConstant
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(githubRESTStartTemplateConstant, method, endpoint)
	case messageStageSuccess:
		return fmt.Sprintf(githubRESTSuccessTemplateConstant, method, endpoint)
	case messageStageFailure:
		return fmt.Sprintf(githubRESTFailureTemplateConstant, method, endpoint, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(githubRESTExecutionTemplateConstant, method, endpoint, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeGitHubPullRequestMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch arguments[1] {
	case githubPullRequestViewConstant:
		identifier := formatter.ensureValue(formatter.firstNonFlagArgument(arguments[2:]))
		return formatter.renderSubjectMessage(stage, result, failure, identifier,
			githubPullRequestViewStartTemplateConstant, githubPullRequestViewSuccessTemplate,
			githubPullRequestViewFailureTemplate, githubPullRequestViewExecutionTemplate)
	case githubPullRequestListConstant:
		headBranch := formatter.ensureValue(findFlagValue(arguments, githubHeadFlagConstant))
		return formatter.renderSubjectMessage(stage, result, failure, headBranch,
			githubPullRequestListStartTemplateConstant, githubPullRequestListSuccessTemplate,
			githubPullRequestListFailureTemplate, githubPullRequestListExecutionTemplate)
	case githubPullRequestCreateConstant:
		switch stage {
		case messageStageStart:
			return githubPullRequestCreateStartTemplate
		case messageStageSuccess:
			return githubPullRequestCreateSuccessTemplate
		case messageStageFailure:
			return fmt.Sprintf(githubPullRequestCreateFailureTemplate, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(githubPullRequestCreateExecutionTemplate, formatter.describeFailure(failure))
		}
	case githubPullRequestEditConstant:
		identifier := formatter.ensureValue(formatter.firstNonFlagArgument(arguments[2:]))
		return formatter.renderSubjectMessage(stage, result, failure, identifier,
			githubPullRequestEditStartTemplateConstant, githubPullRequestEditSuccessTemplate,
			githubPullRequestEditFailureTemplate, githubPullRequestEditExecutionTemplate)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) renderLocationMessage(stage messageStage, command ShellCommand, result ExecutionResult, failure error, startTemplate string, successTemplate string, failureTemplate string, executionTemplate string) string {
	location := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, location)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, location)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, location, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionTemplate, location, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) renderSubjectLocationMessage(stage messageStage, command ShellCommand, result ExecutionResult, failure error, subject string, startTemplate string, successTemplate string, failureTemplate string, executionTemplate string) string {
	location := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, subject, location)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, subject, location)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, location, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionTemplate, subject, location, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) renderSubjectMessage(stage messageStage, result ExecutionResult, failure error, subject string, startTemplate string, successTemplate string, failureTemplate string, executionTemplate string) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, subject)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, subject)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionTemplate, subject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatCommandLabel(command) + formatter.formatWorkingDirectorySuffix(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return currentDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return unknownValueLabelConstant
	}
	return value
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return arguments[index]
}

func (formatter CommandMessageFormatter) firstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string) string {
	lastValue := emptyStringConstant
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			continue
		}
		lastValue = trimmedArgument
	}
	return lastValue
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return emptyStringConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if argument == value {
			return true
		}
	}
	return false
}
