package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/auditor"
	"github.com/bossprank/github-workflow-manager/internal/comments"
	"github.com/bossprank/github-workflow-manager/internal/fields"
	"github.com/bossprank/github-workflow-manager/internal/issues"
	"github.com/bossprank/github-workflow-manager/internal/keepalive"
	"github.com/bossprank/github-workflow-manager/internal/monitor"
	"github.com/bossprank/github-workflow-manager/internal/pulls"
	"github.com/bossprank/github-workflow-manager/internal/setup"
	"github.com/bossprank/github-workflow-manager/internal/status"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	"github.com/bossprank/github-workflow-manager/internal/utils"
	flagutils "github.com/bossprank/github-workflow-manager/internal/utils/flags"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
	"github.com/bossprank/github-workflow-manager/internal/worksession"
)

const (
	applicationNameConstant                 = "gwm"
	applicationShortDescriptionConstant     = "GitHub workflow manager for issues, work sessions, and project boards"
	applicationLongDescriptionConstant      = "gwm drives the issue lifecycle end to end: creating triaged issues, moving them across a ProjectV2 board, and running shared-branch work sessions through review and completion."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	outputFlagNameConstant                  = "output"
	outputFlagDescriptionConstant           = "result rendering mode"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "GWM"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "gwm CLI executed"
	rootCommandDebugMessageConstant         = "gwm CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	commandsConfigurationKeyConstant        = "commands"
	monitorConfigurationKeyConstant         = commandsConfigurationKeyConstant + ".monitor"
	keepaliveConfigurationKeyConstant       = commandsConfigurationKeyConstant + ".keepalive"
	commentsConfigurationKeyConstant        = commandsConfigurationKeyConstant + ".comments"
	debugEnvironmentVariableConstant        = "DEBUG"
	prefixedDebugEnvironmentVariable        = "GWM_DEBUG"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration   `mapstructure:"common"`
	Workspace workspace.Settings               `mapstructure:"workspace"`
	Commands  ApplicationCommandsConfiguration `mapstructure:"commands"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationCommandsConfiguration holds per-command tuning knobs.
type ApplicationCommandsConfiguration struct {
	Monitor   monitor.Configuration   `mapstructure:"monitor"`
	Keepalive keepalive.Configuration `mapstructure:"keepalive"`
	Comments  comments.Configuration  `mapstructure:"comments"`
}

// Application wires the Cobra root command, configuration loader, structured
// logger, and result printer.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	printer                *ui.Printer
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	outputModeFlagValue    string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		printer:                ui.NewPrinter(os.Stdout, ui.OutputModeHuman),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.outputModeFlagValue, outputFlagNameConstant, string(ui.OutputModeHuman),
		flagutils.FormatChoiceUsage(string(ui.OutputModeHuman), ui.OutputModeNames(), outputFlagDescriptionConstant))

	application.registerCommands(cobraCommand)
	application.rootCommand = cobraCommand

	return application
}

func (application *Application) registerCommands(rootCommand *cobra.Command) {
	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	settingsProvider := func() workspace.Settings {
		return application.configuration.Workspace
	}
	printerProvider := func() *ui.Printer {
		return application.printer
	}

	issueBuilder := issues.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
	}
	if issueCommand, buildError := issueBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(issueCommand)
	}

	fieldBuilder := fields.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
	}
	if fieldCommand, buildError := fieldBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(fieldCommand)
	}

	statusBuilder := status.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
	}
	if statusCommand, buildError := statusBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(statusCommand)
	}

	commentBuilder := comments.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
		ConfigurationProvider: func() comments.Configuration {
			return application.configuration.Commands.Comments
		},
	}
	if commentCommand, buildError := commentBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(commentCommand)
	}

	auditBuilder := auditor.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
	}
	if auditCommand, buildError := auditBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(auditCommand)
	}

	workBuilder := worksession.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
	}
	if workCommand, buildError := workBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(workCommand)
	}

	pullBuilder := pulls.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
	}
	if pullCommand, buildError := pullBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(pullCommand)
	}

	monitorBuilder := monitor.CommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: settingsProvider,
		PrinterProvider:  printerProvider,
		ConfigurationProvider: func() monitor.Configuration {
			return application.configuration.Commands.Monitor
		},
	}
	if monitorCommand, buildError := monitorBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(monitorCommand)
	}

	keepaliveBuilder := keepalive.CommandBuilder{
		LoggerProvider:  loggerProvider,
		PrinterProvider: printerProvider,
		ConfigurationProvider: func() keepalive.Configuration {
			return application.configuration.Commands.Keepalive
		},
	}
	if keepaliveCommand, buildError := keepaliveBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(keepaliveCommand)
	}

	setupBuilder := setup.CommandBuilder{
		LoggerProvider:  loggerProvider,
		PrinterProvider: printerProvider,
	}
	if setupCommand, buildError := setupBuilder.Build(); buildError == nil {
		rootCommand.AddCommand(setupCommand)
	}
}

// RootCommand exposes the assembled Cobra root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range monitor.DefaultConfigurationValues(monitorConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range keepalive.DefaultConfigurationValues(keepaliveConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range comments.DefaultConfigurationValues(commentsConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.configuration.Workspace = application.configuration.Workspace.Normalized()

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.debugLoggingForced() {
		application.configuration.Common.LogLevel = string(utils.LogLevelDebug)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	outputMode, outputModeError := ui.ParseOutputMode(application.outputModeFlagValue)
	if outputModeError != nil {
		return outputModeError
	}
	application.printer = ui.NewPrinter(os.Stdout, outputMode)

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) debugLoggingForced() bool {
	for _, variableName := range []string{prefixedDebugEnvironmentVariable, debugEnvironmentVariableConstant} {
		if value, isSet := os.LookupEnv(variableName); isSet && len(strings.TrimSpace(value)) > 0 {
			return true
		}
	}
	return false
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}
		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
