package fields

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	"github.com/bossprank/github-workflow-manager/internal/utils/flags"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	fieldCommandUseConstant              = "field"
	fieldCommandShortDescriptionConstant = "Update project board field values"
	fieldCommandLongDescriptionConstant  = "field groups subcommands that change board field values for tracked issues."
	setCommandUseConstant                = "set <issue-number> <field> <value>"
	setCommandShortDescriptionConstant   = "Set one board field on an issue"
	setCommandArgumentCountConstant      = 3
	invalidIssueNumberTemplateConstant   = "issue number %q must be a positive integer"
	fieldUpdatedEventNameConstant        = "field_updated"
	fieldUpdatedMessageTemplateConstant  = "Set %s=%s on issue #%d"
	issueNumberPayloadKeyConstant        = "issue_number"
	fieldPayloadKeyConstant              = "field"
	valuePayloadKeyConstant              = "value"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the field command hierarchy.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	PrinterProvider  PrinterProvider
	TokenResolver    shared.TokenResolver
	BoardAPI         shared.BoardAPI
}

// Build constructs the field command with the set subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	fieldCommand := &cobra.Command{
		Use:   fieldCommandUseConstant,
		Short: fieldCommandShortDescriptionConstant,
		Long:  fieldCommandLongDescriptionConstant,
	}

	setCommand := &cobra.Command{
		Use:   setCommandUseConstant,
		Short: setCommandShortDescriptionConstant,
		Long:  flags.FormatChoiceUsage(fieldNamePriorityConstant, FieldNames(), setCommandShortDescriptionConstant),
		Args:  cobra.ExactArgs(setCommandArgumentCountConstant),
		RunE:  builder.runSet,
	}

	fieldCommand.AddCommand(setCommand)

	return fieldCommand, nil
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

	resolvedUpdate, resolveError := ResolveUpdate(settings.Board.Fields, arguments[1], arguments[2])
	if resolveError != nil {
		return resolveError
	}

	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	boardAPI := builder.BoardAPI
	if boardAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return clientError
		}
		resolvedBoardAPI, boardError := dependencies.ResolveBoardAPI(nil, apiClient, settings.Board.ProjectIdentifier)
		if boardError != nil {
			return boardError
		}
		boardAPI = resolvedBoardAPI
	}

	service, serviceError := NewService(boardAPI)
	if serviceError != nil {
		return serviceError
	}
	if applyError := service.Apply(command.Context(), issueNumber, resolvedUpdate); applyError != nil {
		return applyError
	}

	printer.Event(fieldUpdatedEventNameConstant,
		fmt.Sprintf(fieldUpdatedMessageTemplateConstant, resolvedUpdate.Field, resolvedUpdate.DisplayValue, issueNumber),
		map[string]any{
			issueNumberPayloadKeyConstant: issueNumber,
			fieldPayloadKeyConstant:       string(resolvedUpdate.Field),
			valuePayloadKeyConstant:       resolvedUpdate.DisplayValue,
		})
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
