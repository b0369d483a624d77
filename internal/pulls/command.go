package pulls

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	prCommandUseConstant                  = "pr"
	prCommandShortDescriptionConstant     = "Work with the shared pull request"
	openSubcommandUseConstant             = "open [pull-number]"
	openSubcommandShortDescription        = "Open a pull request in the browser"
	openSubcommandLongDescription         = "open browses a pull request. Without a number it resolves the shared work branch pull request."
	maximumOpenArgumentCountConstant      = 1
	invalidPullNumberTemplateConstant     = "pull request number %q must be a positive integer"
	pullOpenedEventNameConstant           = "pull_request_opened"
	pullOpenedMessageTemplateConstant     = "Opened pull request #%d in the browser"
	pullResolvedMessageTemplateConstant   = "Resolved shared pull request #%d from branch %s"
	pullNumberPayloadKeyConstant          = "pull_request_number"
	resolvedFromBranchPayloadKeyConstant  = "resolved_from_branch"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the pr command hierarchy.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	PrinterProvider  PrinterProvider
	TokenResolver    shared.TokenResolver
	PullRequestAPI   shared.PullRequestAPI
}

// Build constructs the pr command with the open subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	prCommand := &cobra.Command{
		Use:   prCommandUseConstant,
		Short: prCommandShortDescriptionConstant,
	}

	openCommand := &cobra.Command{
		Use:   openSubcommandUseConstant,
		Short: openSubcommandShortDescription,
		Long:  openSubcommandLongDescription,
		Args:  cobra.MaximumNArgs(maximumOpenArgumentCountConstant),
		RunE:  builder.runOpen,
	}

	prCommand.AddCommand(openCommand)
	return prCommand, nil
}

func (builder *CommandBuilder) runOpen(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}

	pullNumber := 0
	if len(arguments) > 0 {
		parsedNumber, parseError := strconv.Atoi(arguments[0])
		if parseError != nil || parsedNumber <= 0 {
			return fmt.Errorf(invalidPullNumberTemplateConstant, arguments[0])
		}
		pullNumber = parsedNumber
	}

	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	pullRequestAPI := builder.PullRequestAPI
	if pullRequestAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return clientError
		}
		pullRequestAPI = apiClient
	}

	service, serviceError := NewService(pullRequestAPI)
	if serviceError != nil {
		return serviceError
	}

	openResult, openError := service.Open(command.Context(), OpenOptions{
		Repository: settings.Repository,
		BranchName: settings.Branch.Name,
		PullNumber: pullNumber,
	})
	if openError != nil {
		return openError
	}

	if openResult.Resolved {
		printer.Info(fmt.Sprintf(pullResolvedMessageTemplateConstant, openResult.PullNumber, settings.Branch.Name))
	}
	printer.Event(pullOpenedEventNameConstant,
		fmt.Sprintf(pullOpenedMessageTemplateConstant, openResult.PullNumber),
		map[string]any{
			pullNumberPayloadKeyConstant:         openResult.PullNumber,
			resolvedFromBranchPayloadKeyConstant: openResult.Resolved,
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
