package comments

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
	commentCommandUseConstant              = "comment"
	commentCommandShortDescriptionConstant = "Post and read issue comments"
	commentCommandLongDescriptionConstant  = "comment groups subcommands that post a comment or render recent comment history for an issue."
	addSubcommandUseConstant               = "add <issue-number> <body>"
	addSubcommandShortDescriptionConstant  = "Post a comment on an issue"
	listSubcommandUseConstant              = "list <issue-number>"
	listSubcommandShortDescriptionConstant = "Show the most recent comments on an issue"
	limitFlagNameConstant                  = "limit"
	limitFlagDescriptionConstant           = "Maximum number of comments to show"
	addArgumentCountConstant               = 2
	listArgumentCountConstant              = 1
	invalidIssueNumberTemplateConstant     = "issue number %q must be a positive integer"
	invalidLimitTemplateConstant           = "limit %d must be a positive integer"
	commentPostedEventNameConstant         = "comment_posted"
	commentPostedMessageTemplateConstant   = "Comment posted on issue #%d"
	commentListEventNameConstant           = "comment_listed"
	commentCountMessageTemplateConstant    = "%d comment(s) on issue #%d"
	commentLineTemplateConstant            = "@%s (%s): %s"
	issueNumberPayloadKeyConstant          = "issue_number"
	commentURLPayloadKeyConstant           = "url"
	commentAuthorPayloadKeyConstant        = "author"
	commentBodyPayloadKeyConstant          = "body"
	commentCreatedPayloadKeyConstant       = "created_at"
	commentCountPayloadKeyConstant         = "count"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// ConfigurationProvider returns the comment command configuration.
type ConfigurationProvider func() Configuration

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the comment command hierarchy.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	SettingsProvider      SettingsProvider
	ConfigurationProvider ConfigurationProvider
	PrinterProvider       PrinterProvider
	TokenResolver         shared.TokenResolver
	CommentAPI            shared.CommentAPI
	Clock                 shared.Clock
}

// Build constructs the comment command with the add and list subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	commentCommand := &cobra.Command{
		Use:   commentCommandUseConstant,
		Short: commentCommandShortDescriptionConstant,
		Long:  commentCommandLongDescriptionConstant,
	}

	addCommand := &cobra.Command{
		Use:   addSubcommandUseConstant,
		Short: addSubcommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(addArgumentCountConstant),
		RunE:  builder.runAdd,
	}

	listCommand := &cobra.Command{
		Use:   listSubcommandUseConstant,
		Short: listSubcommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(listArgumentCountConstant),
		RunE:  builder.runList,
	}
	listCommand.Flags().Int(limitFlagNameConstant, 0, limitFlagDescriptionConstant)

	commentCommand.AddCommand(addCommand)
	commentCommand.AddCommand(listCommand)

	return commentCommand, nil
}

func (builder *CommandBuilder) runAdd(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}

	issueNumber, parseError := strconv.Atoi(arguments[0])
	if parseError != nil || issueNumber <= 0 {
		return fmt.Errorf(invalidIssueNumberTemplateConstant, arguments[0])
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	postedComment, postError := service.Add(command.Context(), settings.Repository, issueNumber, arguments[1])
	if postError != nil {
		return postError
	}

	printer.Event(commentPostedEventNameConstant,
		fmt.Sprintf(commentPostedMessageTemplateConstant, issueNumber),
		map[string]any{
			issueNumberPayloadKeyConstant: issueNumber,
			commentURLPayloadKeyConstant:  postedComment.URL,
		})
	return nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}

	issueNumber, parseError := strconv.Atoi(arguments[0])
	if parseError != nil || issueNumber <= 0 {
		return fmt.Errorf(invalidIssueNumberTemplateConstant, arguments[0])
	}

	limitFlagValue, limitFlagError := command.Flags().GetInt(limitFlagNameConstant)
	if limitFlagError != nil {
		return limitFlagError
	}
	effectiveLimit := limitFlagValue
	if !command.Flags().Changed(limitFlagNameConstant) {
		effectiveLimit = resolveConfiguration(builder.ConfigurationProvider).EffectiveLimit()
	}
	if effectiveLimit <= 0 {
		return fmt.Errorf(invalidLimitTemplateConstant, effectiveLimit)
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	recentComments, listError := service.ListRecent(command.Context(), settings.Repository, issueNumber, effectiveLimit)
	if listError != nil {
		return listError
	}

	printer.Event(commentListEventNameConstant,
		fmt.Sprintf(commentCountMessageTemplateConstant, len(recentComments), issueNumber),
		map[string]any{
			issueNumberPayloadKeyConstant:  issueNumber,
			commentCountPayloadKeyConstant: len(recentComments),
		})
	for _, recentComment := range recentComments {
		if printer.OutputMode() == ui.OutputModeMachine {
			printer.Event(commentListEventNameConstant, recentComment.Body, map[string]any{
				issueNumberPayloadKeyConstant:    issueNumber,
				commentAuthorPayloadKeyConstant:  recentComment.Author,
				commentBodyPayloadKeyConstant:    recentComment.Body,
				commentCreatedPayloadKeyConstant: recentComment.CreatedAt,
				commentURLPayloadKeyConstant:     recentComment.URL,
			})
			continue
		}
		printer.Line(fmt.Sprintf(commentLineTemplateConstant, recentComment.Author, service.RelativeAge(recentComment.CreatedAt), recentComment.Body))
	}
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command, settings workspace.Settings) (*Service, *ui.Printer, error) {
	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	commentAPI := builder.CommentAPI
	if commentAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return nil, nil, clientError
		}
		commentAPI = apiClient
	}

	service, serviceError := NewService(commentAPI, dependencies.ResolveClock(builder.Clock))
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, printer, nil
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

func resolveConfiguration(provider ConfigurationProvider) Configuration {
	if provider == nil {
		return Configuration{}
	}
	return provider()
}

func resolvePrinter(provider PrinterProvider, command *cobra.Command) *ui.Printer {
	if provider != nil {
		if printer := provider(); printer != nil {
			return printer
		}
	}
	return ui.NewPrinter(command.OutOrStdout(), ui.OutputModeHuman)
}
