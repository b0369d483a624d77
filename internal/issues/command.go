package issues

import (
	"fmt"

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
	issueCommandUseConstant              = "issue"
	issueCommandShortDescriptionConstant = "Manage GitHub issues on the workflow board"
	issueCommandLongDescriptionConstant  = "issue groups subcommands that create and inspect issues tracked on the project board."
	createCommandUseConstant             = "create <title>"
	createCommandShortDescription        = "Create an issue and place it on the board"
	createCommandLongDescription         = "create makes a GitHub issue, adds it to the configured project board, and applies the initial status, priority, size, and estimate fields."
	bodyFlagNameConstant                 = "body"
	bodyFlagDescriptionConstant          = "Issue body in Markdown"
	labelFlagNameConstant                = "label"
	labelFlagDescriptionConstant         = "Label to attach; repeatable"
	priorityFlagNameConstant             = "priority"
	priorityFlagDescriptionConstant      = "Priority assigned to the issue."
	sizeFlagNameConstant                 = "size"
	sizeFlagDescriptionConstant          = "Size estimate for the issue."
	createExecutionErrorTemplateConstant = "issue create failed: %w"
	issueCreatedEventNameConstant        = "issue_created"
	issueCreatedMessageTemplateConstant  = "Created issue #%d: %s"
	appliedFieldsMessageTemplateConstant = "Status=%s Priority=%s Size=%s Estimate=%.0fh"
	issueNumberPayloadKeyConstant        = "issue_number"
	issueURLPayloadKeyConstant           = "url"
	statusPayloadKeyConstant             = "status"
	priorityPayloadKeyConstant           = "priority"
	sizePayloadKeyConstant               = "size"
	estimatePayloadKeyConstant           = "estimate_hours"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the issue command hierarchy.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	PrinterProvider  PrinterProvider
	TokenResolver    shared.TokenResolver
	IssueAPI         shared.IssueAPI
	BoardAPI         shared.BoardAPI
}

// Build constructs the issue command with the create subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	issueCommand := &cobra.Command{
		Use:   issueCommandUseConstant,
		Short: issueCommandShortDescriptionConstant,
		Long:  issueCommandLongDescriptionConstant,
	}

	createCommand := &cobra.Command{
		Use:   createCommandUseConstant,
		Short: createCommandShortDescription,
		Long:  createCommandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runCreate,
	}

	createCommand.Flags().String(bodyFlagNameConstant, "", bodyFlagDescriptionConstant)
	createCommand.Flags().StringArray(labelFlagNameConstant, nil, labelFlagDescriptionConstant)
	createCommand.Flags().String(priorityFlagNameConstant, "", flags.FormatChoiceUsage(string(board.DefaultPriority), board.PriorityNames(), priorityFlagDescriptionConstant))
	createCommand.Flags().String(sizeFlagNameConstant, "", flags.FormatChoiceUsage(string(board.DefaultSize), board.SizeNames(), sizeFlagDescriptionConstant))

	issueCommand.AddCommand(createCommand)

	return issueCommand, nil
}

func (builder *CommandBuilder) runCreate(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}
	if boardValidationError := settings.ValidateBoard(); boardValidationError != nil {
		return boardValidationError
	}

	bodyValue, bodyFlagError := command.Flags().GetString(bodyFlagNameConstant)
	if bodyFlagError != nil {
		return bodyFlagError
	}
	labelValues, labelFlagError := command.Flags().GetStringArray(labelFlagNameConstant)
	if labelFlagError != nil {
		return labelFlagError
	}
	priorityValue, priorityFlagError := command.Flags().GetString(priorityFlagNameConstant)
	if priorityFlagError != nil {
		return priorityFlagError
	}
	sizeValue, sizeFlagError := command.Flags().GetString(sizeFlagNameConstant)
	if sizeFlagError != nil {
		return sizeFlagError
	}

	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	issueAPI := builder.IssueAPI
	boardAPI := builder.BoardAPI
	if issueAPI == nil || boardAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return clientError
		}
		if issueAPI == nil {
			issueAPI = apiClient
		}
		resolvedBoardAPI, boardError := dependencies.ResolveBoardAPI(boardAPI, apiClient, settings.Board.ProjectIdentifier)
		if boardError != nil {
			return boardError
		}
		boardAPI = resolvedBoardAPI
	}

	service, serviceError := NewService(Dependencies{IssueAPI: issueAPI, BoardAPI: boardAPI})
	if serviceError != nil {
		return serviceError
	}

	creationResult, creationError := service.Create(command.Context(), CreateOptions{
		Repository:      settings.Repository,
		Fields:          settings.Board.Fields,
		Title:           arguments[0],
		Body:            bodyValue,
		Labels:          labelValues,
		PriorityKeyword: priorityValue,
		SizeKeyword:     sizeValue,
	})
	if creationError != nil {
		return fmt.Errorf(createExecutionErrorTemplateConstant, creationError)
	}

	printer.Event(issueCreatedEventNameConstant,
		fmt.Sprintf(issueCreatedMessageTemplateConstant, creationResult.IssueNumber, creationResult.IssueURL),
		map[string]any{
			issueNumberPayloadKeyConstant: creationResult.IssueNumber,
			issueURLPayloadKeyConstant:    creationResult.IssueURL,
			statusPayloadKeyConstant:      string(creationResult.Status),
			priorityPayloadKeyConstant:    string(creationResult.Priority),
			sizePayloadKeyConstant:        string(creationResult.Size),
			estimatePayloadKeyConstant:    creationResult.EstimateHours,
		})
	printer.Info(fmt.Sprintf(appliedFieldsMessageTemplateConstant, creationResult.Status, creationResult.Priority, creationResult.Size, creationResult.EstimateHours))
	for _, warningMessage := range creationResult.Warnings {
		printer.Warning(warningMessage)
	}
	return nil
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
