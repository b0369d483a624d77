package auditor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/dependencies"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/ui"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	auditCommandUseConstant               = "audit"
	auditCommandShortDescriptionConstant  = "Report on open issues and pull requests"
	auditCommandLongDescriptionConstant   = "audit prints per-item reports with age, scan findings, and aggregate counts. It never mutates anything."
	issuesSubcommandUseConstant           = "issues"
	issuesSubcommandShortDescription      = "Audit open issues"
	prsSubcommandUseConstant              = "prs"
	prsSubcommandShortDescription         = "Audit open pull requests"
	issueRowEventNameConstant             = "issue_audited"
	pullRowEventNameConstant              = "pull_request_audited"
	summaryEventNameConstant              = "audit_summary"
	issueRowTemplateConstant              = "#%d %s (%dd old)"
	boardAnnotationTemplateConstant       = "  board: Status=%s Priority=%s Size=%s"
	boardEstimateSuffixTemplateConstant   = " Estimate=%.0fh"
	labelsLineTemplateConstant            = "  labels: %s"
	assigneesLineTemplateConstant         = "  assignees: %s"
	fileMentionsLineTemplateConstant      = "  files: %s"
	crossReferencesLineTemplateConstant   = "  refs: %s"
	pullStateLineTemplateConstant         = "  draft=%t mergeable=%s review=%s checks=%s"
	summaryHeaderTemplateConstant         = "%d item(s): %d assigned, %d unassigned"
	summaryLabelLineTemplateConstant      = "  label %s: %d"
	unsetValuePlaceholderConstant         = "-"
	listJoinSeparatorConstant             = ", "
	numberPayloadKeyConstant              = "number"
	titlePayloadKeyConstant               = "title"
	ageDaysPayloadKeyConstant             = "age_days"
	labelsPayloadKeyConstant              = "labels"
	assigneesPayloadKeyConstant           = "assignees"
	fileMentionsPayloadKeyConstant        = "file_mentions"
	crossReferencesPayloadKeyConstant     = "cross_references"
	statusPayloadKeyConstant              = "status"
	priorityPayloadKeyConstant            = "priority"
	sizePayloadKeyConstant                = "size"
	estimatePayloadKeyConstant            = "estimate_hours"
	draftPayloadKeyConstant               = "draft"
	mergeablePayloadKeyConstant           = "mergeable"
	reviewDecisionPayloadKeyConstant      = "review_decision"
	checksStatePayloadKeyConstant         = "checks_state"
	totalPayloadKeyConstant               = "total"
	assignedPayloadKeyConstant            = "assigned"
	unassignedPayloadKeyConstant          = "unassigned"
	labelCountsPayloadKeyConstant         = "label_counts"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the loaded workspace settings.
type SettingsProvider func() workspace.Settings

// PrinterProvider returns the output printer for the active invocation.
type PrinterProvider func() *ui.Printer

// CommandBuilder assembles the audit command hierarchy.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	PrinterProvider  PrinterProvider
	TokenResolver    shared.TokenResolver
	IssueAPI         shared.IssueAPI
	PullDetails      PullRequestDetailLister
	BoardAPI         shared.BoardAPI
	Clock            shared.Clock
}

// Build constructs the audit command with the issues and prs subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	auditCommand := &cobra.Command{
		Use:   auditCommandUseConstant,
		Short: auditCommandShortDescriptionConstant,
		Long:  auditCommandLongDescriptionConstant,
	}

	issuesCommand := &cobra.Command{
		Use:   issuesSubcommandUseConstant,
		Short: issuesSubcommandShortDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.runIssues,
	}

	prsCommand := &cobra.Command{
		Use:   prsSubcommandUseConstant,
		Short: prsSubcommandShortDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.runPullRequests,
	}

	auditCommand.AddCommand(issuesCommand)
	auditCommand.AddCommand(prsCommand)

	return auditCommand, nil
}

func (builder *CommandBuilder) runIssues(command *cobra.Command, _ []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	issuesReport, auditError := service.AuditIssues(command.Context(), settings.Repository, settings.Board.Fields)
	if auditError != nil {
		return auditError
	}

	for _, warningMessage := range issuesReport.Warnings {
		printer.Warning(warningMessage)
	}
	for _, issueRow := range issuesReport.Rows {
		printer.Event(issueRowEventNameConstant,
			fmt.Sprintf(issueRowTemplateConstant, issueRow.Number, issueRow.Title, issueRow.AgeDays),
			map[string]any{
				numberPayloadKeyConstant:          issueRow.Number,
				titlePayloadKeyConstant:           issueRow.Title,
				ageDaysPayloadKeyConstant:         issueRow.AgeDays,
				labelsPayloadKeyConstant:          issueRow.Labels,
				assigneesPayloadKeyConstant:       issueRow.Assignees,
				fileMentionsPayloadKeyConstant:    issueRow.FileMentions,
				crossReferencesPayloadKeyConstant: issueRow.CrossReferences,
				statusPayloadKeyConstant:          issueRow.Board.Status,
				priorityPayloadKeyConstant:        issueRow.Board.Priority,
				sizePayloadKeyConstant:            issueRow.Board.Size,
				estimatePayloadKeyConstant:        issueRow.Board.Estimate,
			})
		if printer.OutputMode() == ui.OutputModeMachine {
			continue
		}
		if issueRow.HasBoardData {
			boardLine := fmt.Sprintf(boardAnnotationTemplateConstant,
				orPlaceholder(issueRow.Board.Status),
				orPlaceholder(issueRow.Board.Priority),
				orPlaceholder(issueRow.Board.Size))
			if issueRow.Board.HasEstimate {
				boardLine += fmt.Sprintf(boardEstimateSuffixTemplateConstant, issueRow.Board.Estimate)
			}
			printer.Line(boardLine)
		}
		printRowDetail(printer, issueRow.Labels, issueRow.Assignees, issueRow.FileMentions, issueRow.CrossReferences)
	}
	printSummary(printer, issuesReport.Summary)
	return nil
}

func (builder *CommandBuilder) runPullRequests(command *cobra.Command, _ []string) error {
	settings := resolveSettings(builder.SettingsProvider)
	if validationError := settings.Validate(); validationError != nil {
		return validationError
	}

	service, printer, serviceError := builder.resolveService(command, settings)
	if serviceError != nil {
		return serviceError
	}

	pullsReport, auditError := service.AuditPullRequests(command.Context(), settings.Repository)
	if auditError != nil {
		return auditError
	}

	for _, pullRow := range pullsReport.Rows {
		printer.Event(pullRowEventNameConstant,
			fmt.Sprintf(issueRowTemplateConstant, pullRow.Number, pullRow.Title, pullRow.AgeDays),
			map[string]any{
				numberPayloadKeyConstant:          pullRow.Number,
				titlePayloadKeyConstant:           pullRow.Title,
				ageDaysPayloadKeyConstant:         pullRow.AgeDays,
				labelsPayloadKeyConstant:          pullRow.Labels,
				assigneesPayloadKeyConstant:       pullRow.Assignees,
				fileMentionsPayloadKeyConstant:    pullRow.FileMentions,
				crossReferencesPayloadKeyConstant: pullRow.CrossReferences,
				draftPayloadKeyConstant:           pullRow.Draft,
				mergeablePayloadKeyConstant:       pullRow.Mergeable,
				reviewDecisionPayloadKeyConstant:  pullRow.ReviewDecision,
				checksStatePayloadKeyConstant:     pullRow.ChecksState,
			})
		if printer.OutputMode() == ui.OutputModeMachine {
			continue
		}
		printer.Line(fmt.Sprintf(pullStateLineTemplateConstant,
			pullRow.Draft,
			orPlaceholder(pullRow.Mergeable),
			orPlaceholder(pullRow.ReviewDecision),
			orPlaceholder(pullRow.ChecksState)))
		printRowDetail(printer, pullRow.Labels, pullRow.Assignees, pullRow.FileMentions, pullRow.CrossReferences)
	}
	printSummary(printer, pullsReport.Summary)
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command, settings workspace.Settings) (*Service, *ui.Printer, error) {
	logger := resolveLogger(builder.LoggerProvider)
	printer := resolvePrinter(builder.PrinterProvider, command)

	issueAPI := builder.IssueAPI
	pullDetails := builder.PullDetails
	boardAPI := builder.BoardAPI
	if issueAPI == nil || pullDetails == nil || boardAPI == nil {
		apiClient, clientError := dependencies.ResolveWorkspaceAPI(command.Context(), builder.TokenResolver, settings.Token, logger)
		if clientError != nil {
			return nil, nil, clientError
		}
		if issueAPI == nil {
			issueAPI = apiClient
		}
		if pullDetails == nil {
			pullDetails = apiClient
		}
		// The board join is best effort: a workspace without board
		// identifiers still gets plain audit rows.
		if boardAPI == nil && settings.ValidateBoard() == nil {
			resolvedBoardAPI, boardError := dependencies.ResolveBoardAPI(nil, apiClient, settings.Board.ProjectIdentifier)
			if boardError == nil {
				boardAPI = resolvedBoardAPI
			}
		}
	}

	service, serviceError := NewService(Dependencies{
		IssueAPI:    issueAPI,
		PullDetails: pullDetails,
		BoardAPI:    boardAPI,
		Clock:       dependencies.ResolveClock(builder.Clock),
	})
	if serviceError != nil {
		return nil, nil, serviceError
	}
	return service, printer, nil
}

func printRowDetail(printer *ui.Printer, labels []string, assignees []string, fileMentions []string, crossReferences []string) {
	if len(labels) > 0 {
		printer.Line(fmt.Sprintf(labelsLineTemplateConstant, strings.Join(labels, listJoinSeparatorConstant)))
	}
	if len(assignees) > 0 {
		printer.Line(fmt.Sprintf(assigneesLineTemplateConstant, strings.Join(assignees, listJoinSeparatorConstant)))
	}
	if len(fileMentions) > 0 {
		printer.Line(fmt.Sprintf(fileMentionsLineTemplateConstant, strings.Join(fileMentions, listJoinSeparatorConstant)))
	}
	if len(crossReferences) > 0 {
		printer.Line(fmt.Sprintf(crossReferencesLineTemplateConstant, strings.Join(crossReferences, listJoinSeparatorConstant)))
	}
}

func printSummary(printer *ui.Printer, summary Summary) {
	printer.Event(summaryEventNameConstant,
		fmt.Sprintf(summaryHeaderTemplateConstant, summary.TotalCount, summary.AssignedCount, summary.UnassignedCount),
		map[string]any{
			totalPayloadKeyConstant:       summary.TotalCount,
			assignedPayloadKeyConstant:    summary.AssignedCount,
			unassignedPayloadKeyConstant:  summary.UnassignedCount,
			labelCountsPayloadKeyConstant: summary.LabelCounts,
		})
	if printer.OutputMode() == ui.OutputModeMachine {
		return
	}
	labelNames := make([]string, 0, len(summary.LabelCounts))
	for labelName := range summary.LabelCounts {
		labelNames = append(labelNames, labelName)
	}
	sort.Strings(labelNames)
	for _, labelName := range labelNames {
		printer.Line(fmt.Sprintf(summaryLabelLineTemplateConstant, labelName, summary.LabelCounts[labelName]))
	}
}

func orPlaceholder(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return unsetValuePlaceholderConstant
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
