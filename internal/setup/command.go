package setup

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
)

const (
	setupCommandUseConstant              = "setup"
	setupCommandShortDescriptionConstant = "Discover the workspace and write a configuration file"
	setupCommandLongDescriptionConstant  = "setup verifies the local tooling, resolves a GitHub token, detects the repository, picks a project board, and writes config.yaml once every check passes."
	outputFlagNameConstant               = "output"
	outputFlagDescriptionConstant        = "path the configuration file is written to"
	defaultOutputPathConstant            = "config.yaml"
	nonInteractiveFlagNameConstant       = "non-interactive"
	nonInteractiveFlagDescription        = "fail instead of prompting"
	repositoryPathConstant               = "."
	setupCompletedEventNameConstant      = "setup_completed"
	setupCompletedMessageTemplate        = "Setup complete for %s using board %q"
	repositoryPayloadKeyConstant         = "repository"
	projectTitlePayloadKeyConstant       = "project_title"
	viewerLoginPayloadKeyConstant        = "viewer_login"
	boardItemCountPayloadKeyConstant     = "board_item_count"
	outputPathPayloadKeyConstant         = "output_path"
	writtenPayloadKeyConstant            = "written"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the setup command.
type CommandBuilder struct {
	LoggerProvider  LoggerProvider
	PrinterProvider PrinterProvider
	TokenResolver   shared.TokenResolver
	GitManager      shared.GitRepositoryManager
	Prompter        Prompter
	APIFactory      APIFactory
}

// Build constructs the setup command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	setupCommand := &cobra.Command{
		Use:   setupCommandUseConstant,
		Short: setupCommandShortDescriptionConstant,
		Long:  setupCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	setupCommand.Flags().String(outputFlagNameConstant, defaultOutputPathConstant, outputFlagDescriptionConstant)
	setupCommand.Flags().Bool(nonInteractiveFlagNameConstant, false, nonInteractiveFlagDescription)
	return setupCommand, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	outputPath, outputError := command.Flags().GetString(outputFlagNameConstant)
	if outputError != nil {
		return outputError
	}
	nonInteractive, interactiveError := command.Flags().GetBool(nonInteractiveFlagNameConstant)
	if interactiveError != nil {
		return interactiveError
	}

	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	gitManager, gitManagerError := dependencies.ResolveGitManager(builder.GitManager, logger)
	if gitManagerError != nil {
		return gitManagerError
	}

	service, serviceError := NewService(Dependencies{
		Prompter:      builder.resolvePrompterDependency(nonInteractive),
		TokenResolver: dependencies.ResolveTokenResolver(builder.TokenResolver),
		GitManager:    gitManager,
		APIFactory:    builder.resolveAPIFactory(logger),
		ReportStep:    printer.Success,
	})
	if serviceError != nil {
		return serviceError
	}

	runResult, runError := service.Run(command.Context(), RunOptions{
		OutputPath:     outputPath,
		RepositoryPath: repositoryPathConstant,
	})
	if runError != nil {
		return runError
	}

	printer.Event(setupCompletedEventNameConstant,
		fmt.Sprintf(setupCompletedMessageTemplate, runResult.Settings.Repository, runResult.ProjectTitle),
		map[string]any{
			repositoryPayloadKeyConstant:     runResult.Settings.Repository,
			projectTitlePayloadKeyConstant:   runResult.ProjectTitle,
			viewerLoginPayloadKeyConstant:    runResult.ViewerLogin,
			boardItemCountPayloadKeyConstant: runResult.BoardItemCount,
			outputPathPayloadKeyConstant:     runResult.OutputPath,
			writtenPayloadKeyConstant:        runResult.Written,
		})
	return nil
}

func (builder *CommandBuilder) resolvePrompterDependency(nonInteractive bool) Prompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	if nonInteractive {
		return NewNonInteractivePrompter()
	}
	return NewFormPrompter()
}

func (builder *CommandBuilder) resolveAPIFactory(logger *zap.Logger) APIFactory {
	if builder.APIFactory != nil {
		return builder.APIFactory
	}
	return func(_ context.Context, token string) (DiscoveryAPI, error) {
		return dependencies.ResolveGitHubClient(logger, token)
	}
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
