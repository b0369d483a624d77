package keepalive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	pathutils "github.com/bossprank/github-workflow-manager/internal/utils/path"
)

const (
	keepaliveCommandUseConstant             = "keepalive"
	keepaliveCommandShortDescription        = "Emit workspace heartbeat lines"
	keepaliveCommandLongDescription         = "keepalive appends a timestamped heartbeat line to a log file on an interval, restarting the writer and rotating the log when it grows too large. It runs until interrupted."
	intervalFlagNameConstant                = "interval"
	intervalFlagDescriptionConstant         = "Heartbeat interval (for example 60s)"
	logFlagNameConstant                     = "log"
	logFlagDescriptionConstant              = "Heartbeat log file path"
	maxLinesFlagNameConstant                = "max-lines"
	maxLinesFlagDescriptionConstant         = "Line count that triggers log rotation"
	keepaliveStartedMessageTemplateConstant = "Writing heartbeats to %s every %s (rotate past %d lines)"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the keepalive command configuration.
type ConfigurationProvider func() Configuration

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the keepalive command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	PrinterProvider       PrinterProvider
	Clock                 shared.Clock
}

// Build constructs the keepalive command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	keepaliveCommand := &cobra.Command{
		Use:   keepaliveCommandUseConstant,
		Short: keepaliveCommandShortDescription,
		Long:  keepaliveCommandLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	keepaliveCommand.Flags().Duration(intervalFlagNameConstant, 0, intervalFlagDescriptionConstant)
	keepaliveCommand.Flags().String(logFlagNameConstant, "", logFlagDescriptionConstant)
	keepaliveCommand.Flags().Int(maxLinesFlagNameConstant, 0, maxLinesFlagDescriptionConstant)
	return keepaliveCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := Configuration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	heartbeatInterval, logPath, maximumLines, flagError := builder.resolveRunSettings(command, configuration)
	if flagError != nil {
		return flagError
	}

	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)
	printer.Info(fmt.Sprintf(keepaliveStartedMessageTemplateConstant, logPath, heartbeatInterval, maximumLines))

	service := NewService(logger, dependencies.ResolveClock(builder.Clock))
	runError := service.Run(command.Context(), RunOptions{
		LogPath:      logPath,
		Interval:     heartbeatInterval,
		MaximumLines: maximumLines,
	})
	if errors.Is(runError, context.Canceled) || errors.Is(runError, context.DeadlineExceeded) {
		return nil
	}
	return runError
}

func (builder *CommandBuilder) resolveRunSettings(command *cobra.Command, configuration Configuration) (time.Duration, string, int, error) {
	heartbeatInterval := configuration.EffectivePollInterval()
	if command.Flags().Changed(intervalFlagNameConstant) {
		flagInterval, flagError := command.Flags().GetDuration(intervalFlagNameConstant)
		if flagError != nil {
			return 0, "", 0, flagError
		}
		if flagInterval > 0 {
			heartbeatInterval = flagInterval
		}
	}

	logPath := configuration.EffectiveLogPath()
	if command.Flags().Changed(logFlagNameConstant) {
		flagPath, flagError := command.Flags().GetString(logFlagNameConstant)
		if flagError != nil {
			return 0, "", 0, flagError
		}
		if len(flagPath) > 0 {
			logPath = flagPath
		}
	}
	logPath = pathutils.NewHomeExpander().Expand(logPath)

	maximumLines := configuration.EffectiveMaximumLines()
	if command.Flags().Changed(maxLinesFlagNameConstant) {
		flagLines, flagError := command.Flags().GetInt(maxLinesFlagNameConstant)
		if flagError != nil {
			return 0, "", 0, flagError
		}
		if flagLines > 0 {
			maximumLines = flagLines
		}
	}

	return heartbeatInterval, logPath, maximumLines, nil
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

func resolvePrinter(provider PrinterProvider, command *cobra.Command) *ui.Printer {
	if provider != nil {
		if printer := provider(); printer != nil {
			return printer
		}
	}
	return ui.NewPrinter(command.OutOrStdout(), ui.OutputModeHuman)
}
