package worksession

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/session"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
	"github.com/bossprank/github-workflow-manager/internal/worksession/changelog"
)

const (
	preconditionErrorTemplateConstant         = "%s (%s)"
	issueNotOnBoardTemplateConstant           = "issue #%d is not on the project board"
	issueNotOnBoardHintConstant               = "add it with gwm status set"
	wrongStatusForStartTemplateConstant       = "issue #%d has board status %q; work start needs Ready or In progress"
	wrongStatusForStartHintConstant           = "move it with gwm status set"
	wrongStatusForContinueTemplateConstant    = "issue #%d has board status %q; work continue needs In progress"
	wrongStatusForContinueHintConstant        = "start a new session with gwm work start"
	dirtyWorktreeMessageConstant              = "the working tree has uncommitted changes"
	dirtyWorktreeStartHintConstant            = "commit or stash them before starting a session"
	dirtyWorktreeSwitchTemplateConstant       = "cannot switch to branch %q with uncommitted changes"
	dirtyWorktreeSwitchHintConstant           = "commit or stash them, or check out the session branch yourself"
	noSessionMessageTemplateConstant          = "no active work session for issue #%d"
	noSessionHintConstant                     = "start one with gwm work start"
	unsetStatusDisplayValueConstant           = "(unset)"
	boardLookupFailureTemplateConstant        = "failed to locate issue #%d on the board: %w"
	issueLookupFailureTemplateConstant        = "failed to load issue #%d: %w"
	worktreeCheckFailureTemplateConstant      = "failed to inspect the working tree: %w"
	branchLookupFailureTemplateConstant       = "failed to inspect branch %q: %w"
	currentBranchFailureTemplateConstant      = "failed to read the current branch: %w"
	branchCreateFailureTemplateConstant       = "failed to create branch %q: %w"
	branchCheckoutFailureTemplateConstant     = "failed to check out branch %q: %w"
	branchPushFailureTemplateConstant         = "failed to push branch %q: %w"
	statusMutationFailureTemplateConstant     = "failed to set board status: %w"
	statusOptionMissingTemplateConstant       = "status option %q is not configured; run gwm setup"
	pullLookupFailureTemplateConstant         = "failed to look up the shared pull request: %w"
	pullCreateFailureTemplateConstant         = "failed to create the shared pull request: %w"
	recordSaveFailureTemplateConstant         = "failed to save the session record: %w"
	recordLoadFailureTemplateConstant         = "failed to load the session record: %w"
	recordArchiveFailureTemplateConstant      = "failed to archive the session record: %w"
	commentPostFailureTemplateConstant        = "failed to post the review summary comment: %w"
	changelogUpdateWarningTemplateConstant    = "could not update the pull request changelog: %v"
	changelogMissingPullWarningConstant       = "shared pull request not found; changelog entry skipped"
	committedDiffWarningTemplateConstant      = "could not list committed changes against %q: %v"
	worktreeDiffWarningTemplateConstant       = "could not list working tree changes: %v"
	pullTitleTemplateConstant                 = "WIP: %s"
	startedLogActionConstant                  = "work session started"
	continuedDefaultLogActionConstant         = "work session continued"
	backEdgeLogActionConstant                 = "reviewer requested changes; resuming work"
	reviewLogActionConstant                   = "submitted for review"
	doneLogActionConstant                     = "work session completed"
	startedChangelogActionConstant            = "started work session"
	reviewChangelogActionConstant             = "submitted for review"
	doneChangelogActionConstant               = "completed work"
	originRemoteNameConstant                  = "origin"
)

var (
	// ErrIssueAPINotConfigured indicates the issue API dependency was not provided.
	ErrIssueAPINotConfigured = errors.New("work session service requires an issue API")
	// ErrCommentAPINotConfigured indicates the comment API dependency was not provided.
	ErrCommentAPINotConfigured = errors.New("work session service requires a comment API")
	// ErrPullRequestAPINotConfigured indicates the pull request API dependency was not provided.
	ErrPullRequestAPINotConfigured = errors.New("work session service requires a pull request API")
	// ErrBoardAPINotConfigured indicates the board API dependency was not provided.
	ErrBoardAPINotConfigured = errors.New("work session service requires a board API")
	// ErrGitManagerNotConfigured indicates the git manager dependency was not provided.
	ErrGitManagerNotConfigured = errors.New("work session service requires a git repository manager")
	// ErrSessionStoreNotConfigured indicates the session store dependency was not provided.
	ErrSessionStoreNotConfigured = errors.New("work session service requires a session store")
)

// PreconditionError reports a gate failure before any mutation happened.
// The hint names the command that unblocks the session.
type PreconditionError struct {
	Message string
	Hint    string
}

func (preconditionError PreconditionError) Error() string {
	return fmt.Sprintf(preconditionErrorTemplateConstant, preconditionError.Message, preconditionError.Hint)
}

// Dependencies carries the collaborators used by the work session service.
type Dependencies struct {
	IssueAPI       shared.IssueAPI
	CommentAPI     shared.CommentAPI
	PullRequestAPI shared.PullRequestAPI
	BoardAPI       shared.BoardAPI
	GitManager     shared.GitRepositoryManager
	Store          shared.SessionStore
	Clock          shared.Clock
}

// Service runs the work session lifecycle.
type Service struct {
	issueAPI       shared.IssueAPI
	commentAPI     shared.CommentAPI
	pullRequestAPI shared.PullRequestAPI
	boardAPI       shared.BoardAPI
	gitManager     shared.GitRepositoryManager
	store          shared.SessionStore
	clock          shared.Clock
}

// NewService validates the dependencies and builds a work session service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.IssueAPI == nil {
		return nil, ErrIssueAPINotConfigured
	}
	if dependencies.CommentAPI == nil {
		return nil, ErrCommentAPINotConfigured
	}
	if dependencies.PullRequestAPI == nil {
		return nil, ErrPullRequestAPINotConfigured
	}
	if dependencies.BoardAPI == nil {
		return nil, ErrBoardAPINotConfigured
	}
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.Store == nil {
		return nil, ErrSessionStoreNotConfigured
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{
		issueAPI:       dependencies.IssueAPI,
		commentAPI:     dependencies.CommentAPI,
		pullRequestAPI: dependencies.PullRequestAPI,
		boardAPI:       dependencies.BoardAPI,
		gitManager:     dependencies.GitManager,
		store:          dependencies.Store,
		clock:          clock,
	}, nil
}

// StartOptions configures a work start invocation.
type StartOptions struct {
	Repository     string
	RepositoryPath string
	Branch         workspace.BranchSettings
	Fields         workspace.BoardFieldsSettings
	IssueNumber    int
}

// StartResult reports the session created by work start.
type StartResult struct {
	IssueNumber        int
	Title              string
	Branch             string
	PullRequestNumber  int
	PullRequestCreated bool
	StatePath          string
	Warnings           []string
}

// Start gates on board status and a clean working tree, then prepares the
// shared branch and pull request and writes the initial session record.
// Gate failures leave everything untouched.
func (service *Service) Start(executionContext context.Context, options StartOptions) (StartResult, error) {
	boardItem, gateError := service.gateOnBoardStatus(executionContext, options.Fields, options.IssueNumber,
		wrongStatusForStartTemplateConstant, wrongStatusForStartHintConstant,
		board.StatusReady, board.StatusInProgress)
	if gateError != nil {
		return StartResult{}, gateError
	}

	worktreeClean, worktreeError := service.gitManager.CheckCleanWorktree(executionContext, options.RepositoryPath)
	if worktreeError != nil {
		return StartResult{}, fmt.Errorf(worktreeCheckFailureTemplateConstant, worktreeError)
	}
	if !worktreeClean {
		return StartResult{}, PreconditionError{Message: dirtyWorktreeMessageConstant, Hint: dirtyWorktreeStartHintConstant}
	}

	trackedIssue, issueError := service.issueAPI.GetIssue(executionContext, options.Repository, options.IssueNumber)
	if issueError != nil {
		return StartResult{}, fmt.Errorf(issueLookupFailureTemplateConstant, options.IssueNumber, issueError)
	}

	if branchError := service.ensureSessionBranch(executionContext, options.RepositoryPath, options.Branch); branchError != nil {
		return StartResult{}, branchError
	}

	if statusError := service.setBoardStatus(executionContext, options.Fields, boardItem.Identifier, board.StatusInProgress); statusError != nil {
		return StartResult{}, statusError
	}

	startResult := StartResult{
		IssueNumber: options.IssueNumber,
		Title:       trackedIssue.Title,
		Branch:      options.Branch.Name,
	}

	sharedPull, pullCreated, pullError := service.ensureSharedPullRequest(executionContext, options.Repository, options.Branch)
	if pullError != nil {
		return StartResult{}, pullError
	}
	startResult.PullRequestNumber = sharedPull.Number
	startResult.PullRequestCreated = pullCreated

	startMoment := service.clock.Now()
	changelogWarnings, changelogError := service.appendChangelogEntry(executionContext, options.Repository, sharedPull,
		options.IssueNumber, trackedIssue.Title, changelog.FormatEntry(startMoment, startedChangelogActionConstant))
	if changelogError != nil {
		return StartResult{}, changelogError
	}
	startResult.Warnings = append(startResult.Warnings, changelogWarnings...)

	sessionRecord := session.NewRecord(options.IssueNumber, trackedIssue.Title, options.Branch.Name, startMoment)
	sessionRecord.PullRequestNumber = sharedPull.Number
	sessionRecord.AppendWorkLog(startMoment, startedLogActionConstant)
	if saveError := service.store.Save(&sessionRecord); saveError != nil {
		return StartResult{}, fmt.Errorf(recordSaveFailureTemplateConstant, saveError)
	}
	startResult.StatePath = service.store.StatePath(options.IssueNumber)
	return startResult, nil
}

// ContinueOptions configures a work continue invocation.
type ContinueOptions struct {
	Repository       string
	RepositoryPath   string
	Branch           workspace.BranchSettings
	Fields           workspace.BoardFieldsSettings
	IssueNumber      int
	Note             string
	Files            []string
	NextSteps        []string
	TestInstructions string
}

// ContinueResult reports the updated session state.
type ContinueResult struct {
	IssueNumber       int
	Branch            string
	BackEdgeNoted     bool
	ModifiedFileCount int
	StatePath         string
	Warnings          []string
}

// Continue resumes an existing session: it gates on the board status,
// returns to the session branch when safe, refreshes the modified file set
// from git, and appends the progress note.
func (service *Service) Continue(executionContext context.Context, options ContinueOptions) (ContinueResult, error) {
	sessionRecord, loadError := service.loadSessionRecord(options.IssueNumber)
	if loadError != nil {
		return ContinueResult{}, loadError
	}

	if _, gateError := service.gateOnBoardStatus(executionContext, options.Fields, options.IssueNumber,
		wrongStatusForContinueTemplateConstant, wrongStatusForContinueHintConstant,
		board.StatusInProgress); gateError != nil {
		return ContinueResult{}, gateError
	}

	continueResult := ContinueResult{IssueNumber: options.IssueNumber, Branch: sessionRecord.Branch}
	continueMoment := service.clock.Now()

	if sessionRecord.Status == session.RecordStatusInReview {
		continueResult.BackEdgeNoted = true
		sessionRecord.Status = session.RecordStatusInProgress
		sessionRecord.AppendWorkLog(continueMoment, backEdgeLogActionConstant)
	}

	if switchError := service.returnToSessionBranch(executionContext, options.RepositoryPath, sessionRecord.Branch); switchError != nil {
		return ContinueResult{}, switchError
	}

	committedFiles, committedError := service.gitManager.ChangedFiles(executionContext, options.RepositoryPath, options.Branch.Base)
	if committedError != nil {
		continueResult.Warnings = append(continueResult.Warnings,
			fmt.Sprintf(committedDiffWarningTemplateConstant, options.Branch.Base, committedError))
	}
	worktreeFiles, worktreeError := service.gitManager.WorktreeChanges(executionContext, options.RepositoryPath)
	if worktreeError != nil {
		continueResult.Warnings = append(continueResult.Warnings,
			fmt.Sprintf(worktreeDiffWarningTemplateConstant, worktreeError))
	}
	sessionRecord.RecordModifiedFiles(committedFiles...)
	sessionRecord.RecordModifiedFiles(worktreeFiles...)

	progressNote := strings.TrimSpace(options.Note)
	if len(progressNote) == 0 {
		progressNote = continuedDefaultLogActionConstant
	}
	sessionRecord.AppendWorkLog(continueMoment, progressNote)
	applyRecordInputs(&sessionRecord, options.Files, options.NextSteps, options.TestInstructions)

	if saveError := service.store.Save(&sessionRecord); saveError != nil {
		return ContinueResult{}, fmt.Errorf(recordSaveFailureTemplateConstant, saveError)
	}
	continueResult.ModifiedFileCount = len(sessionRecord.ModifiedFiles)
	continueResult.StatePath = service.store.StatePath(options.IssueNumber)
	return continueResult, nil
}

// ReviewOptions configures a work review invocation.
type ReviewOptions struct {
	Repository       string
	Fields           workspace.BoardFieldsSettings
	IssueNumber      int
	Files            []string
	NextSteps        []string
	TestInstructions string
}

// ReviewResult reports the review handoff.
type ReviewResult struct {
	IssueNumber       int
	CommentURL        string
	PullRequestNumber int
	Warnings          []string
}

// Review posts the summary comment, flips the board to In review, appends
// the changelog line, and marks the record in_review. Nothing is archived.
func (service *Service) Review(executionContext context.Context, options ReviewOptions) (ReviewResult, error) {
	sessionRecord, loadError := service.loadSessionRecord(options.IssueNumber)
	if loadError != nil {
		return ReviewResult{}, loadError
	}

	applyRecordInputs(&sessionRecord, options.Files, options.NextSteps, options.TestInstructions)

	summaryComment, commentError := service.commentAPI.AddIssueComment(executionContext, options.Repository,
		options.IssueNumber, renderReviewSummary(sessionRecord))
	if commentError != nil {
		return ReviewResult{}, fmt.Errorf(commentPostFailureTemplateConstant, commentError)
	}

	boardItem, lookupError := service.findBoardItem(executionContext, options.IssueNumber)
	if lookupError != nil {
		return ReviewResult{}, lookupError
	}
	if statusError := service.setBoardStatus(executionContext, options.Fields, boardItem.Identifier, board.StatusInReview); statusError != nil {
		return ReviewResult{}, statusError
	}

	reviewMoment := service.clock.Now()
	reviewResult := ReviewResult{
		IssueNumber:       options.IssueNumber,
		CommentURL:        summaryComment.URL,
		PullRequestNumber: sessionRecord.PullRequestNumber,
	}

	changelogWarnings, changelogError := service.appendChangelogForBranch(executionContext, options.Repository,
		sessionRecord.Branch, options.IssueNumber, sessionRecord.Title,
		changelog.FormatEntry(reviewMoment, reviewChangelogActionConstant))
	if changelogError != nil {
		return ReviewResult{}, changelogError
	}
	reviewResult.Warnings = append(reviewResult.Warnings, changelogWarnings...)

	sessionRecord.Status = session.RecordStatusInReview
	sessionRecord.AppendWorkLog(reviewMoment, reviewLogActionConstant)
	if saveError := service.store.Save(&sessionRecord); saveError != nil {
		return ReviewResult{}, fmt.Errorf(recordSaveFailureTemplateConstant, saveError)
	}
	return reviewResult, nil
}

// DoneOptions configures a work done invocation.
type DoneOptions struct {
	Repository  string
	Fields      workspace.BoardFieldsSettings
	IssueNumber int
}

// DoneResult reports the closed session.
type DoneResult struct {
	IssueNumber int
	ArchivePath string
	Warnings    []string
}

// Done flips the board to Done, closes out the changelog, and moves the
// session record into the archive. The active state path is gone afterwards.
func (service *Service) Done(executionContext context.Context, options DoneOptions) (DoneResult, error) {
	sessionRecord, loadError := service.loadSessionRecord(options.IssueNumber)
	if loadError != nil {
		return DoneResult{}, loadError
	}

	boardItem, lookupError := service.findBoardItem(executionContext, options.IssueNumber)
	if lookupError != nil {
		return DoneResult{}, lookupError
	}
	if statusError := service.setBoardStatus(executionContext, options.Fields, boardItem.Identifier, board.StatusDone); statusError != nil {
		return DoneResult{}, statusError
	}

	doneMoment := service.clock.Now()
	doneResult := DoneResult{IssueNumber: options.IssueNumber}

	changelogWarnings, changelogError := service.appendChangelogForBranch(executionContext, options.Repository,
		sessionRecord.Branch, options.IssueNumber, sessionRecord.Title,
		changelog.FormatEntry(doneMoment, doneChangelogActionConstant))
	if changelogError != nil {
		return DoneResult{}, changelogError
	}
	doneResult.Warnings = append(doneResult.Warnings, changelogWarnings...)

	sessionRecord.AppendWorkLog(doneMoment, doneLogActionConstant)
	if saveError := service.store.Save(&sessionRecord); saveError != nil {
		return DoneResult{}, fmt.Errorf(recordSaveFailureTemplateConstant, saveError)
	}

	archivePath, archiveError := service.store.Archive(options.IssueNumber)
	if archiveError != nil {
		return DoneResult{}, fmt.Errorf(recordArchiveFailureTemplateConstant, archiveError)
	}
	doneResult.ArchivePath = archivePath
	return doneResult, nil
}

func (service *Service) loadSessionRecord(issueNumber int) (session.Record, error) {
	sessionRecord, loadError := service.store.Load(issueNumber)
	if loadError == nil {
		return sessionRecord, nil
	}
	if errors.As(loadError, &session.NotFoundError{}) {
		return session.Record{}, PreconditionError{
			Message: fmt.Sprintf(noSessionMessageTemplateConstant, issueNumber),
			Hint:    noSessionHintConstant,
		}
	}
	return session.Record{}, fmt.Errorf(recordLoadFailureTemplateConstant, loadError)
}

func (service *Service) findBoardItem(executionContext context.Context, issueNumber int) (board.Item, error) {
	boardItem, lookupError := service.boardAPI.FindItemByIssueNumber(executionContext, issueNumber)
	if lookupError == nil {
		return boardItem, nil
	}
	if errors.As(lookupError, &board.ItemNotFoundError{}) {
		return board.Item{}, PreconditionError{
			Message: fmt.Sprintf(issueNotOnBoardTemplateConstant, issueNumber),
			Hint:    issueNotOnBoardHintConstant,
		}
	}
	return board.Item{}, fmt.Errorf(boardLookupFailureTemplateConstant, issueNumber, lookupError)
}

// gateOnBoardStatus loads the issue's board item and requires its Status to
// be one of the allowed values.
func (service *Service) gateOnBoardStatus(executionContext context.Context, fieldSettings workspace.BoardFieldsSettings,
	issueNumber int, messageTemplate string, hint string, allowedStatuses ...board.Status) (board.Item, error) {
	boardItem, lookupError := service.findBoardItem(executionContext, issueNumber)
	if lookupError != nil {
		return board.Item{}, lookupError
	}

	currentStatus := boardItem.Selections[fieldSettings.Status.FieldIdentifier]
	for _, allowedStatus := range allowedStatuses {
		if strings.EqualFold(currentStatus, string(allowedStatus)) {
			return boardItem, nil
		}
	}
	displayedStatus := currentStatus
	if len(strings.TrimSpace(displayedStatus)) == 0 {
		displayedStatus = unsetStatusDisplayValueConstant
	}
	return board.Item{}, PreconditionError{
		Message: fmt.Sprintf(messageTemplate, issueNumber, displayedStatus),
		Hint:    hint,
	}
}

func (service *Service) setBoardStatus(executionContext context.Context, fieldSettings workspace.BoardFieldsSettings,
	itemIdentifier string, targetStatus board.Status) error {
	optionIdentifier, optionConfigured := fieldSettings.Status.OptionIdentifier(string(targetStatus))
	if !optionConfigured {
		return fmt.Errorf(statusOptionMissingTemplateConstant, targetStatus)
	}
	if mutationError := service.boardAPI.SetSingleSelectField(executionContext, itemIdentifier,
		fieldSettings.Status.FieldIdentifier, optionIdentifier); mutationError != nil {
		return fmt.Errorf(statusMutationFailureTemplateConstant, mutationError)
	}
	return nil
}

// ensureSessionBranch creates the shared branch from the base when absent,
// checks it out otherwise, and pushes it with an upstream.
func (service *Service) ensureSessionBranch(executionContext context.Context, repositoryPath string, branchSettings workspace.BranchSettings) error {
	branchExists, lookupError := service.gitManager.BranchExists(executionContext, repositoryPath, branchSettings.Name)
	if lookupError != nil {
		return fmt.Errorf(branchLookupFailureTemplateConstant, branchSettings.Name, lookupError)
	}

	if branchExists {
		if checkoutError := service.gitManager.Checkout(executionContext, repositoryPath, branchSettings.Name); checkoutError != nil {
			return fmt.Errorf(branchCheckoutFailureTemplateConstant, branchSettings.Name, checkoutError)
		}
	} else {
		if checkoutError := service.gitManager.Checkout(executionContext, repositoryPath, branchSettings.Base); checkoutError != nil {
			return fmt.Errorf(branchCheckoutFailureTemplateConstant, branchSettings.Base, checkoutError)
		}
		if createError := service.gitManager.CreateBranch(executionContext, repositoryPath, branchSettings.Name); createError != nil {
			return fmt.Errorf(branchCreateFailureTemplateConstant, branchSettings.Name, createError)
		}
	}

	if pushError := service.gitManager.Push(executionContext, repositoryPath, originRemoteNameConstant, branchSettings.Name, true); pushError != nil {
		return fmt.Errorf(branchPushFailureTemplateConstant, branchSettings.Name, pushError)
	}
	return nil
}

// returnToSessionBranch checks out the session branch unless the tree is
// dirty. A dirty tree on the session branch itself is tolerated.
func (service *Service) returnToSessionBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	currentBranch, branchError := service.gitManager.GetCurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return fmt.Errorf(currentBranchFailureTemplateConstant, branchError)
	}
	if currentBranch == branchName {
		return nil
	}

	worktreeClean, worktreeError := service.gitManager.CheckCleanWorktree(executionContext, repositoryPath)
	if worktreeError != nil {
		return fmt.Errorf(worktreeCheckFailureTemplateConstant, worktreeError)
	}
	if !worktreeClean {
		return PreconditionError{
			Message: fmt.Sprintf(dirtyWorktreeSwitchTemplateConstant, branchName),
			Hint:    dirtyWorktreeSwitchHintConstant,
		}
	}
	if checkoutError := service.gitManager.Checkout(executionContext, repositoryPath, branchName); checkoutError != nil {
		return fmt.Errorf(branchCheckoutFailureTemplateConstant, branchName, checkoutError)
	}
	return nil
}

func (service *Service) ensureSharedPullRequest(executionContext context.Context, repository string,
	branchSettings workspace.BranchSettings) (githubapi.PullRequest, bool, error) {
	existingPull, pullFound, lookupError := service.pullRequestAPI.FindPullRequestByHead(executionContext, repository, branchSettings.Name)
	if lookupError != nil {
		return githubapi.PullRequest{}, false, fmt.Errorf(pullLookupFailureTemplateConstant, lookupError)
	}
	if pullFound {
		return existingPull, false, nil
	}

	createdPull, createError := service.pullRequestAPI.CreatePullRequest(executionContext, repository, githubapi.CreatePullRequestOptions{
		Title:      fmt.Sprintf(pullTitleTemplateConstant, branchSettings.Name),
		HeadBranch: branchSettings.Name,
		BaseBranch: branchSettings.Base,
	})
	if createError != nil {
		return githubapi.PullRequest{}, false, fmt.Errorf(pullCreateFailureTemplateConstant, createError)
	}
	return createdPull, true, nil
}

// appendChangelogEntry splices an entry into the given pull request's body.
// A malformed section is fatal; a failed body update degrades to a warning.
func (service *Service) appendChangelogEntry(executionContext context.Context, repository string,
	sharedPull githubapi.PullRequest, issueNumber int, issueTitle string, entryLine string) ([]string, error) {
	splicedBody, spliceError := changelog.AppendEntry(sharedPull.Body, issueNumber, issueTitle, entryLine)
	if spliceError != nil {
		return nil, spliceError
	}
	if updateError := service.pullRequestAPI.UpdatePullRequestBody(executionContext, repository, sharedPull.Number, splicedBody); updateError != nil {
		return []string{fmt.Sprintf(changelogUpdateWarningTemplateConstant, updateError)}, nil
	}
	return nil, nil
}

// appendChangelogForBranch resolves the shared pull request by head branch
// first. A missing pull request degrades to a warning.
func (service *Service) appendChangelogForBranch(executionContext context.Context, repository string,
	branchName string, issueNumber int, issueTitle string, entryLine string) ([]string, error) {
	sharedPull, pullFound, lookupError := service.pullRequestAPI.FindPullRequestByHead(executionContext, repository, branchName)
	if lookupError != nil {
		return []string{fmt.Sprintf(changelogUpdateWarningTemplateConstant, lookupError)}, nil
	}
	if !pullFound {
		return []string{changelogMissingPullWarningConstant}, nil
	}
	return service.appendChangelogEntry(executionContext, repository, sharedPull, issueNumber, issueTitle, entryLine)
}

func applyRecordInputs(sessionRecord *session.Record, files []string, nextSteps []string, testInstructions string) {
	sessionRecord.RecordModifiedFiles(files...)
	for _, nextStep := range nextSteps {
		sessionRecord.AddNextStep(nextStep)
	}
	if len(strings.TrimSpace(testInstructions)) > 0 {
		sessionRecord.SetTestInstructions(testInstructions)
	}
}
