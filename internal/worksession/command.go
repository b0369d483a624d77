package worksession

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	pathutils "github.com/bossprank/github-workflow-manager/internal/utils/path"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	workCommandUseConstant                  = "work"
	workCommandShortDescriptionConstant     = "Run the per-issue work session lifecycle"
	workCommandLongDescriptionConstant      = "work groups the start, continue, review, and done stages of an issue's work session. Each stage gates on the board status and session state before changing anything."
	startSubcommandUseConstant              = "start <issue-number>"
	startSubcommandShortDescriptionConstant = "Start a work session on an issue"
	continueSubcommandUseConstant           = "continue <issue-number>"
	continueSubcommandShortDescription      = "Record progress on an active session"
	reviewSubcommandUseConstant             = "review <issue-number>"
	reviewSubcommandShortDescription        = "Hand the session over for review"
	doneSubcommandUseConstant               = "done <issue-number>"
	doneSubcommandShortDescription          = "Close the session and archive its record"
	noteFlagNameConstant                    = "note"
	noteFlagDescriptionConstant             = "Progress note appended to the work log"
	fileFlagNameConstant                    = "file"
	fileFlagDescriptionConstant             = "Modified file to record (repeatable)"
	nextFlagNameConstant                    = "next"
	nextFlagDescriptionConstant             = "Pending next step to record (repeatable)"
	testsFlagNameConstant                   = "tests"
	testsFlagDescriptionConstant            = "Test instructions for the reviewer"
	subcommandArgumentCountConstant         = 1
	invalidIssueNumberTemplateConstant      = "issue number %q must be a positive integer"
	repositoryPathConstant                  = "."
	sessionStartedEventNameConstant         = "work_session_started"
	sessionStartedMessageTemplateConstant   = "Started work on issue #%d on branch %s"
	sessionContinuedEventNameConstant       = "work_session_continued"
	sessionContinuedMessageTemplate         = "Recorded progress on issue #%d (%d modified files)"
	sessionReviewedEventNameConstant        = "work_session_in_review"
	sessionReviewedMessageTemplateConstant  = "Issue #%d handed over for review"
	sessionDoneEventNameConstant            = "work_session_done"
	sessionDoneMessageTemplateConstant      = "Issue #%d done; session archived"
	pullCreatedMessageTemplateConstant      = "Opened shared pull request #%d"
	pullReusedMessageTemplateConstant       = "Using shared pull request #%d"
	backEdgeNoteMessageConstant             = "reviewer requested changes; resuming work"
	issueNumberPayloadKeyConstant           = "issue_number"
	branchPayloadKeyConstant                = "branch"
	pullNumberPayloadKeyConstant            = "pull_request_number"
	pullCreatedPayloadKeyConstant           = "pull_request_created"
	statePathPayloadKeyConstant             = "state_path"
	archivePathPayloadKeyConstant           = "archive_path"
	modifiedFilesPayloadKeyConstant         = "modified_file_count"
	backEdgePayloadKeyConstant              = "back_edge"
	commentURLPayloadKeyConstant            = "comment_url"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the work command hierarchy.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	PrinterProvider  PrinterProvider
	TokenResolver    shared.TokenResolver
	IssueAPI         shared.IssueAPI
	CommentAPI       shared.CommentAPI
	PullRequestAPI   shared.PullRequestAPI
	BoardAPI         shared.BoardAPI
	GitManager       shared.GitRepositoryManager
	Store            shared.SessionStore
	Clock            shared.Clock
}

// Build constructs the work command with its four stage subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	workCommand := &cobra.Command{
		Use:   workCommandUseConstant,
		Short: workCommandShortDescriptionConstant,
		Long:  workCommandLongDescriptionConstant,
	}

	startCommand := &cobra.Command{
		Use:   startSubcommandUseConstant,
		Short: startSubcommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(subcommandArgumentCountConstant),
		RunE:  builder.runStart,
	}

	continueCommand := &cobra.Command{
		Use:   continueSubcommandUseConstant,
		Short: continueSubcommandShortDescription,
		Args:  cobra.ExactArgs(subcommandArgumentCountConstant),
		RunE:  builder.runContinue,
	}
	continueCommand.Flags().String(noteFlagNameConstant, "", noteFlagDescriptionConstant)
	registerRecordFlags(continueCommand)

	reviewCommand := &cobra.Command{
		Use:   reviewSubcommandUseConstant,
		Short: reviewSubcommandShortDescription,
		Args:  cobra.ExactArgs(subcommandArgumentCountConstant),
		RunE:  builder.runReview,
	}
	registerRecordFlags(reviewCommand)

	doneCommand := &cobra.Command{
		Use:   doneSubcommandUseConstant,
		Short: doneSubcommandShortDescription,
		Args:  cobra.ExactArgs(subcommandArgumentCountConstant),
		RunE:  builder.runDone,
	}

	workCommand.AddCommand(startCommand)
	workCommand.AddCommand(continueCommand)
	workCommand.AddCommand(reviewCommand)
	workCommand.AddCommand(doneCommand)

	return workCommand, nil
}

func registerRecordFlags(command *cobra.Command) {
	command.Flags().StringArray(fileFlagNameConstant, nil, fileFlagDescriptionConstant)
	command.Flags().StringArray(nextFlagNameConstant, nil, nextFlagDescriptionConstant)
	command.Flags().String(testsFlagNameConstant, "", testsFlagDescriptionConstant)
}

func (builder *CommandBuilder) runStart(command *cobra.Command, arguments []string) error {
	settings, issueNumber, argumentError := resolveStageArguments(builder.SettingsProvider, arguments)
	if argumentError != nil {
		return argumentError
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	startResult, startError := service.Start(command.Context(), StartOptions{
		Repository:     settings.Repository,
		RepositoryPath: repositoryPathConstant,
		Branch:         settings.Branch,
		Fields:         settings.Board.Fields,
		IssueNumber:    issueNumber,
	})
	if startError != nil {
		return startError
	}

	for _, warningMessage := range startResult.Warnings {
		printer.Warning(warningMessage)
	}
	if startResult.PullRequestCreated {
		printer.Info(fmt.Sprintf(pullCreatedMessageTemplateConstant, startResult.PullRequestNumber))
	} else {
		printer.Info(fmt.Sprintf(pullReusedMessageTemplateConstant, startResult.PullRequestNumber))
	}
	printer.Event(sessionStartedEventNameConstant,
		fmt.Sprintf(sessionStartedMessageTemplateConstant, startResult.IssueNumber, startResult.Branch),
		map[string]any{
			issueNumberPayloadKeyConstant: startResult.IssueNumber,
			branchPayloadKeyConstant:      startResult.Branch,
			pullNumberPayloadKeyConstant:  startResult.PullRequestNumber,
			pullCreatedPayloadKeyConstant: startResult.PullRequestCreated,
			statePathPayloadKeyConstant:   startResult.StatePath,
		})
	return nil
}

func (builder *CommandBuilder) runContinue(command *cobra.Command, arguments []string) error {
	settings, issueNumber, argumentError := resolveStageArguments(builder.SettingsProvider, arguments)
	if argumentError != nil {
		return argumentError
	}

	progressNote, noteError := command.Flags().GetString(noteFlagNameConstant)
	if noteError != nil {
		return noteError
	}
	recordedFiles, recordedNextSteps, testInstructions, flagError := recordFlagValues(command)
	if flagError != nil {
		return flagError
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	continueResult, continueError := service.Continue(command.Context(), ContinueOptions{
		Repository:       settings.Repository,
		RepositoryPath:   repositoryPathConstant,
		Branch:           settings.Branch,
		Fields:           settings.Board.Fields,
		IssueNumber:      issueNumber,
		Note:             progressNote,
		Files:            recordedFiles,
		NextSteps:        recordedNextSteps,
		TestInstructions: testInstructions,
	})
	if continueError != nil {
		return continueError
	}

	for _, warningMessage := range continueResult.Warnings {
		printer.Warning(warningMessage)
	}
	if continueResult.BackEdgeNoted {
		printer.Info(backEdgeNoteMessageConstant)
	}
	printer.Event(sessionContinuedEventNameConstant,
		fmt.Sprintf(sessionContinuedMessageTemplate, continueResult.IssueNumber, continueResult.ModifiedFileCount),
		map[string]any{
			issueNumberPayloadKeyConstant:   continueResult.IssueNumber,
			branchPayloadKeyConstant:        continueResult.Branch,
			modifiedFilesPayloadKeyConstant: continueResult.ModifiedFileCount,
			backEdgePayloadKeyConstant:      continueResult.BackEdgeNoted,
			statePathPayloadKeyConstant:     continueResult.StatePath,
		})
	return nil
}

func (builder *CommandBuilder) runReview(command *cobra.Command, arguments []string) error {
	settings, issueNumber, argumentError := resolveStageArguments(builder.SettingsProvider, arguments)
	if argumentError != nil {
		return argumentError
	}

	recordedFiles, recordedNextSteps, testInstructions, flagError := recordFlagValues(command)
	if flagError != nil {
		return flagError
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	reviewResult, reviewError := service.Review(command.Context(), ReviewOptions{
		Repository:       settings.Repository,
		Fields:           settings.Board.Fields,
		IssueNumber:      issueNumber,
		Files:            recordedFiles,
		NextSteps:        recordedNextSteps,
		TestInstructions: testInstructions,
	})
	if reviewError != nil {
		return reviewError
	}

	for _, warningMessage := range reviewResult.Warnings {
		printer.Warning(warningMessage)
	}
	printer.Event(sessionReviewedEventNameConstant,
		fmt.Sprintf(sessionReviewedMessageTemplateConstant, reviewResult.IssueNumber),
		map[string]any{
			issueNumberPayloadKeyConstant: reviewResult.IssueNumber,
			pullNumberPayloadKeyConstant:  reviewResult.PullRequestNumber,
			commentURLPayloadKeyConstant:  reviewResult.CommentURL,
		})
	return nil
}

func (builder *CommandBuilder) runDone(command *cobra.Command, arguments []string) error {
	settings, issueNumber, argumentError := resolveStageArguments(builder.SettingsProvider, arguments)
	if argumentError != nil {
		return argumentError
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	doneResult, doneError := service.Done(command.Context(), DoneOptions{
		Repository:  settings.Repository,
		Fields:      settings.Board.Fields,
		IssueNumber: issueNumber,
	})
	if doneError != nil {
		return doneError
	}

	for _, warningMessage := range doneResult.Warnings {
		printer.Warning(warningMessage)
	}
	printer.Event(sessionDoneEventNameConstant,
		fmt.Sprintf(sessionDoneMessageTemplateConstant, doneResult.IssueNumber),
		map[string]any{
			issueNumberPayloadKeyConstant: doneResult.IssueNumber,
			archivePathPayloadKeyConstant: doneResult.ArchivePath,
		})
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command, settings workspace.Settings) (*Service, *ui.Printer, error) {
	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	issueAPI := builder.IssueAPI
	commentAPI := builder.CommentAPI
	pullRequestAPI := builder.PullRequestAPI
	boardAPI := builder.BoardAPI
	if issueAPI == nil || commentAPI == nil || pullRequestAPI == nil || boardAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return nil, nil, clientError
		}
		if issueAPI == nil {
			issueAPI = apiClient
		}
		if commentAPI == nil {
			commentAPI = apiClient
		}
		if pullRequestAPI == nil {
			pullRequestAPI = apiClient
		}
		resolvedBoardAPI, boardError := dependencies.ResolveBoardAPI(boardAPI, apiClient, settings.Board.ProjectIdentifier)
		if boardError != nil {
			return nil, nil, boardError
		}
		boardAPI = resolvedBoardAPI
	}

	gitManager, gitError := dependencies.ResolveGitManager(builder.GitManager, logger)
	if gitError != nil {
		return nil, nil, gitError
	}

	stateDirectory := pathutils.NewHomeExpander().Expand(settings.StateDirectory)
	sessionStore, storeError := dependencies.ResolveSessionStore(builder.Store, stateDirectory)
	if storeError != nil {
		return nil, nil, storeError
	}

	service, serviceError := NewService(Dependencies{
		IssueAPI:       issueAPI,
		CommentAPI:     commentAPI,
		PullRequestAPI: pullRequestAPI,
		BoardAPI:       boardAPI,
		GitManager:     gitManager,
		Store:          sessionStore,
		Clock:          dependencies.ResolveClock(builder.Clock),
	})
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, printer, nil
}

func resolveStageArguments(settingsProvider SettingsProvider, arguments []string) (workspace.Settings, int, error) {
	settings := resolveSettings(settingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return workspace.Settings{}, 0, validationError
	}
	if boardError := settings.ValidateBoard(); boardError != nil {
		return workspace.Settings{}, 0, boardError
	}

	issueNumber, parseError := strconv.Atoi(arguments[0])
	if parseError != nil || issueNumber <= 0 {
		return workspace.Settings{}, 0, fmt.Errorf(invalidIssueNumberTemplateConstant, arguments[0])
	}
	return settings, issueNumber, nil
}

func recordFlagValues(command *cobra.Command) ([]string, []string, string, error) {
	recordedFiles, filesError := command.Flags().GetStringArray(fileFlagNameConstant)
	if filesError != nil {
		return nil, nil, "", filesError
	}
	recordedNextSteps, nextStepsError := command.Flags().GetStringArray(nextFlagNameConstant)
	if nextStepsError != nil {
		return nil, nil, "", nextStepsError
	}
	testInstructions, testsError := command.Flags().GetString(testsFlagNameConstant)
	if testsError != nil {
		return nil, nil, "", testsError
	}
	return recordedFiles, recordedNextSteps, testInstructions, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	if logger := provider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func resolveSettings(provider SettingsProvider) workspace.Settings {
	if provider == nil {
		return workspace.Settings{}.Normalized()
	}
	return provider().Normalized()
}

func resolvePrinter(provider PrinterProvider, command *cobra.Command) *ui.Printer {
	if provider != nil {
		if printer := provider(); printer != nil {
			return printer
		}
	}
	return ui.NewPrinter(command.OutOrStdout(), ui.OutputModeHuman)
}
