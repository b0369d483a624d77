package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	pathutils "github.com/bossprank/github-workflow-manager/internal/utils/path"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	monitorCommandUseConstant              = "monitor <issue-number>"
	monitorCommandShortDescription         = "Watch an issue's board status"
	monitorCommandLongDescriptionConstant  = "monitor polls the issue's board status and rings the terminal bell when it moves into In progress. It runs until interrupted."
	intervalFlagNameConstant               = "interval"
	intervalFlagDescriptionConstant        = "Poll interval (for example 30s)"
	monitorArgumentCountConstant           = 1
	invalidIssueNumberTemplateConstant     = "issue number %q must be a positive integer"
	monitorStartedMessageTemplateConstant  = "Watching issue #%d every %s"
	terminalBellConstant                   = "\a"
	statusAlertEventNameConstant           = "status_in_progress"
	statusAlertMessageTemplateConstant     = "Issue #%d moved from %s to %s"
	pollFailureMessageTemplateConstant     = "poll failed: %v"
	issueNumberPayloadKeyConstant          = "issue_number"
	previousStatusPayloadKeyConstant       = "previous_status"
	currentStatusPayloadKeyConstant        = "current_status"
	pollFailureLogMessageConstant          = "board poll failed"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// ConfigurationProvider returns the monitor command configuration.
type ConfigurationProvider func() Configuration

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the monitor command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      SettingsProvider
	ConfigurationProvider ConfigurationProvider
	PrinterProvider       PrinterProvider
	TokenResolver         shared.TokenResolver
	BoardAPI              shared.BoardAPI
	Store                 shared.SessionStore
	Clock                 shared.Clock
}

// Build constructs the monitor command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	monitorCommand := &cobra.Command{
		Use:   monitorCommandUseConstant,
		Short: monitorCommandShortDescription,
		Long:  monitorCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(monitorArgumentCountConstant),
		RunE:  builder.run,
	}
	monitorCommand.Flags().Duration(intervalFlagNameConstant, 0, intervalFlagDescriptionConstant)
	return monitorCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}
	if boardError := settings.ValidateBoard(); boardError != nil {
		return boardError
	}

	issueNumber, parseError := strconv.Atoi(arguments[0])
	if parseError != nil || issueNumber <= 0 {
		return fmt.Errorf(invalidIssueNumberTemplateConstant, arguments[0])
	}

	pollInterval, intervalError := builder.resolvePollInterval(command)
	if intervalError != nil {
		return intervalError
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

	sessionStore := builder.Store
	if sessionStore == nil {
		stateDirectory := pathutils.NewHomeExpander().Expand(settings.StateDirectory)
		resolvedStore, storeError := dependencies.ResolveSessionStore(nil, stateDirectory)
		if storeError != nil {
			return storeError
		}
		sessionStore = resolvedStore
	}

	service, serviceError := NewService(Dependencies{
		BoardAPI: boardAPI,
		Store:    sessionStore,
		Notifier: &printerNotifier{printer: printer, logger: logger, destination: command.OutOrStdout()},
		Clock:    dependencies.ResolveClock(builder.Clock),
	})
	if serviceError != nil {
		return serviceError
	}

	printer.Info(fmt.Sprintf(monitorStartedMessageTemplateConstant, issueNumber, pollInterval))

	runError := service.Run(command.Context(), RunOptions{
		Fields:       settings.Board.Fields,
		IssueNumber:  issueNumber,
		PollInterval: pollInterval,
	})
	if errors.Is(runError, context.Canceled) || errors.Is(runError, context.DeadlineExceeded) {
		return nil
	}
	return runError
}

func (builder *CommandBuilder) resolvePollInterval(command *cobra.Command) (time.Duration, error) {
	flagInterval, flagError := command.Flags().GetDuration(intervalFlagNameConstant)
	if flagError != nil {
		return 0, flagError
	}
	if command.Flags().Changed(intervalFlagNameConstant) && flagInterval > 0 {
		return flagInterval, nil
	}

	configuration := Configuration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	return configuration.EffectivePollInterval(), nil
}

// printerNotifier renders monitor observations through the shared printer,
// ringing the terminal bell on alerts.
type printerNotifier struct {
	printer     *ui.Printer
	logger      *zap.Logger
	destination io.Writer
}

func (notifier *printerNotifier) Alert(issueNumber int, previousStatus string, currentStatus string) {
	if notifier.printer.OutputMode() == ui.OutputModeHuman {
		fmt.Fprint(notifier.destination, terminalBellConstant)
	}
	notifier.printer.Event(statusAlertEventNameConstant,
		fmt.Sprintf(statusAlertMessageTemplateConstant, issueNumber, previousStatus, currentStatus),
		map[string]any{
			issueNumberPayloadKeyConstant:    issueNumber,
			previousStatusPayloadKeyConstant: previousStatus,
			currentStatusPayloadKeyConstant:  currentStatus,
		})
}

func (notifier *printerNotifier) Warning(message string) {
	notifier.printer.Warning(message)
}

func (notifier *printerNotifier) PollFailure(pollError error) {
	notifier.logger.Warn(pollFailureLogMessageConstant, zap.Error(pollError))
	notifier.printer.Warning(fmt.Sprintf(pollFailureMessageTemplateConstant, pollError))
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
