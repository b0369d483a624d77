package status

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	"github.com/bossprank/github-workflow-manager/internal/utils/flags"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	statusCommandUseConstant               = "status"
	statusCommandShortDescriptionConstant  = "Inspect and change board status"
	statusCommandLongDescriptionConstant   = "status groups subcommands that read and move an issue's project board status."
	setSubcommandUseConstant               = "set <issue-number> <status>"
	setSubcommandShortDescriptionConstant  = "Move an issue to a board status column"
	showSubcommandUseConstant              = "show <issue-number>"
	showSubcommandShortDescriptionConstant = "Print an issue's board field values"
	syncLabelFlagNameConstant              = "sync-label"
	syncLabelFlagDescriptionConstant       = "Mirror the status onto an issue label"
	setArgumentCountConstant               = 2
	showArgumentCountConstant              = 1
	invalidIssueNumberTemplateConstant     = "issue number %q must be a positive integer"
	statusSetEventNameConstant             = "status_set"
	statusSetMessageTemplateConstant       = "Issue #%d moved to %s"
	boardAddNoteMessageTemplateConstant    = "Issue #%d was not on the board and has been added"
	statusShowEventNameConstant            = "status_show"
	statusShowMessageTemplateConstant      = "Issue #%d: %s"
	statusLineTemplateConstant             = "Status=%s Priority=%s Size=%s"
	estimateLineSuffixTemplateConstant     = " Estimate=%.0fh"
	unsetFieldPlaceholderConstant          = "-"
	issueNumberPayloadKeyConstant          = "issue_number"
	statusPayloadKeyConstant               = "status"
	priorityPayloadKeyConstant             = "priority"
	sizePayloadKeyConstant                 = "size"
	estimatePayloadKeyConstant             = "estimate_hours"
	titlePayloadKeyConstant                = "title"
	addedToBoardPayloadKeyConstant         = "added_to_board"
	statusKeywordJoinSeparatorConstant     = "|"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the status command hierarchy.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	PrinterProvider  PrinterProvider
	TokenResolver    shared.TokenResolver
	IssueAPI         shared.IssueAPI
	BoardAPI         shared.BoardAPI
}

// Build constructs the status command with the set and show subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	statusCommand := &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortDescriptionConstant,
		Long:  statusCommandLongDescriptionConstant,
	}

	setCommand := &cobra.Command{
		Use:   setSubcommandUseConstant,
		Short: setSubcommandShortDescriptionConstant,
		Long:  flags.FormatChoiceUsage(strings.ToLower(string(board.StatusBacklog)), statusKeywords(), setSubcommandShortDescriptionConstant),
		Args:  cobra.ExactArgs(setArgumentCountConstant),
		RunE:  builder.runSet,
	}
	setCommand.Flags().Bool(syncLabelFlagNameConstant, false, syncLabelFlagDescriptionConstant)

	showCommand := &cobra.Command{
		Use:   showSubcommandUseConstant,
		Short: showSubcommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(showArgumentCountConstant),
		RunE:  builder.runShow,
	}

	statusCommand.AddCommand(setCommand)
	statusCommand.AddCommand(showCommand)

	return statusCommand, nil
}

func statusKeywords() []string {
	keywords := make([]string, 0, len(board.StatusNames()))
	for _, statusName := range board.StatusNames() {
		keywords = append(keywords, strings.ReplaceAll(strings.ToLower(statusName), " ", "-"))
	}
	return keywords
}

func (builder *CommandBuilder) runSet(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}
	if boardValidationError := settings.ValidateBoard(); boardValidationError != nil {
		return boardValidationError
	}

	issueNumber, parseError := strconv.Atoi(arguments[0])
	if parseError != nil || issueNumber <= 0 {
		return fmt.Errorf(invalidIssueNumberTemplateConstant, arguments[0])
	}
	targetStatus, statusError := board.ParseStatus(arguments[1])
	if statusError != nil {
		return statusError
	}
	syncLabelFlagValue, syncFlagError := command.Flags().GetBool(syncLabelFlagNameConstant)
	if syncFlagError != nil {
		return syncFlagError
	}
	synchronizeLabel := syncLabelFlagValue || settings.Labels.SynchronizeStatus

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	setResult, setError := service.Set(command.Context(), SetOptions{
		Repository:       settings.Repository,
		Fields:           settings.Board.Fields,
		IssueNumber:      issueNumber,
		TargetStatus:     targetStatus,
		SynchronizeLabel: synchronizeLabel,
		LabelPrefix:      settings.Labels.StatusPrefix,
	})
	if setError != nil {
		return setError
	}

	if setResult.AddedToBoard {
		printer.Info(fmt.Sprintf(boardAddNoteMessageTemplateConstant, issueNumber))
	}
	printer.Event(statusSetEventNameConstant,
		fmt.Sprintf(statusSetMessageTemplateConstant, issueNumber, setResult.Status),
		map[string]any{
			issueNumberPayloadKeyConstant:  issueNumber,
			statusPayloadKeyConstant:       string(setResult.Status),
			addedToBoardPayloadKeyConstant: setResult.AddedToBoard,
		})
	for _, warningMessage := range setResult.Warnings {
		printer.Warning(warningMessage)
	}
	return nil
}

func (builder *CommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}
	if boardValidationError := settings.ValidateBoard(); boardValidationError != nil {
		return boardValidationError
	}

	issueNumber, parseError := strconv.Atoi(arguments[0])
	if parseError != nil || issueNumber <= 0 {
		return fmt.Errorf(invalidIssueNumberTemplateConstant, arguments[0])
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	showResult, showError := service.Show(command.Context(), settings.Repository, settings.Board.Fields, issueNumber)
	if showError != nil {
		return showError
	}

	statusLine := fmt.Sprintf(statusLineTemplateConstant,
		orPlaceholder(showResult.Summary.Status),
		orPlaceholder(showResult.Summary.Priority),
		orPlaceholder(showResult.Summary.Size))
	if showResult.Summary.HasEstimate {
		statusLine += fmt.Sprintf(estimateLineSuffixTemplateConstant, showResult.Summary.Estimate)
	}

	printer.Event(statusShowEventNameConstant,
		fmt.Sprintf(statusShowMessageTemplateConstant, showResult.IssueNumber, showResult.Title),
		map[string]any{
			issueNumberPayloadKeyConstant: showResult.IssueNumber,
			titlePayloadKeyConstant:       showResult.Title,
			statusPayloadKeyConstant:      showResult.Summary.Status,
			priorityPayloadKeyConstant:    showResult.Summary.Priority,
			sizePayloadKeyConstant:        showResult.Summary.Size,
			estimatePayloadKeyConstant:    showResult.Summary.Estimate,
		})
	printer.Line(statusLine)
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command, settings workspace.Settings) (*Service, *ui.Printer, error) {
	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	issueAPI := builder.IssueAPI
	boardAPI := builder.BoardAPI
	if issueAPI == nil || boardAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return nil, nil, clientError
		}
		if issueAPI == nil {
			issueAPI = apiClient
		}
		resolvedBoardAPI, boardError := dependencies.ResolveBoardAPI(boardAPI, apiClient, settings.Board.ProjectIdentifier)
		if boardError != nil {
			return nil, nil, boardError
		}
		boardAPI = resolvedBoardAPI
	}

	service, serviceError := NewService(Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, printer, nil
}

func orPlaceholder(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return unsetFieldPlaceholderConstant
	}
	return value
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
