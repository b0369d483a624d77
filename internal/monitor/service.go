package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/session"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	defaultPollIntervalConstant            = 30 * time.Second
	pollIntervalConfigurationKeyConstant   = ".poll_interval"
	stateLogActionTemplateConstant         = "board status moved to %s"
	stateFileMissingWarningTemplate        = "no state file for issue #%d; transition not logged"
	stateLogWarningTemplateConstant        = "could not append to the state file: %v"
	unsetStatusDisplayValueConstant        = "(unset)"
)

// ErrBoardAPINotConfigured indicates the board API dependency was not provided.
var ErrBoardAPINotConfigured = errors.New("monitor service requires a board API")

// ErrNotifierNotConfigured indicates the notifier dependency was not provided.
var ErrNotifierNotConfigured = errors.New("monitor service requires a notifier")

// Configuration carries the monitor command settings.
type Configuration struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// DefaultConfigurationValues supplies viper defaults under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + pollIntervalConfigurationKeyConstant: defaultPollIntervalConstant.String(),
	}
}

// EffectivePollInterval applies the built-in default when the setting is unset.
func (configuration Configuration) EffectivePollInterval() time.Duration {
	if configuration.PollInterval > 0 {
		return configuration.PollInterval
	}
	return defaultPollIntervalConstant
}

// Notifier receives the monitor's observations. Alert fires on a transition
// into In progress; Warning and PollFailure report non-fatal trouble.
type Notifier interface {
	Alert(issueNumber int, previousStatus string, currentStatus string)
	Warning(message string)
	PollFailure(pollError error)
}

// Dependencies carries the collaborators used by the monitor service. Store
// may be nil, in which case transitions are never logged to a state file.
type Dependencies struct {
	BoardAPI shared.BoardAPI
	Store    shared.SessionStore
	Notifier Notifier
	Clock    shared.Clock
}

// Service polls the board until its context is cancelled.
type Service struct {
	boardAPI shared.BoardAPI
	store    shared.SessionStore
	notifier Notifier
	clock    shared.Clock
}

// NewService validates the dependencies and builds a monitor service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.BoardAPI == nil {
		return nil, ErrBoardAPINotConfigured
	}
	if dependencies.Notifier == nil {
		return nil, ErrNotifierNotConfigured
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{
		boardAPI: dependencies.BoardAPI,
		store:    dependencies.Store,
		notifier: dependencies.Notifier,
		clock:    clock,
	}, nil
}

// RunOptions configures one monitoring run.
type RunOptions struct {
	Fields       workspace.BoardFieldsSettings
	IssueNumber  int
	PollInterval time.Duration
}

// Run polls the issue's board status every interval until the context is
// cancelled. The last-seen status lives only in memory; poll failures are
// reported and polling continues.
func (service *Service) Run(executionContext context.Context, options RunOptions) error {
	pollInterval := options.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollIntervalConstant
	}

	previousStatus := ""
	statusObserved := false

	service.poll(executionContext, options, &previousStatus, &statusObserved)

	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-executionContext.Done():
			return executionContext.Err()
		case <-pollTicker.C:
			service.poll(executionContext, options, &previousStatus, &statusObserved)
		}
	}
}

func (service *Service) poll(executionContext context.Context, options RunOptions, previousStatus *string, statusObserved *bool) {
	boardItem, lookupError := service.boardAPI.FindItemByIssueNumber(executionContext, options.IssueNumber)
	if lookupError != nil {
		service.notifier.PollFailure(lookupError)
		return
	}

	currentStatus := boardItem.Selections[options.Fields.Status.FieldIdentifier]
	if *statusObserved && !statusEquals(*previousStatus, board.StatusInProgress) && statusEquals(currentStatus, board.StatusInProgress) {
		displayedPrevious := *previousStatus
		if len(strings.TrimSpace(displayedPrevious)) == 0 {
			displayedPrevious = unsetStatusDisplayValueConstant
		}
		service.notifier.Alert(options.IssueNumber, displayedPrevious, currentStatus)
		service.appendTransitionLog(options.IssueNumber, currentStatus)
	}
	*previousStatus = currentStatus
	*statusObserved = true
}

// appendTransitionLog records the transition in the issue's state file. A
// missing file downgrades to a warning.
func (service *Service) appendTransitionLog(issueNumber int, currentStatus string) {
	if service.store == nil {
		return
	}

	sessionRecord, loadError := service.store.Load(issueNumber)
	if loadError != nil {
		if errors.As(loadError, &session.NotFoundError{}) {
			service.notifier.Warning(fmt.Sprintf(stateFileMissingWarningTemplate, issueNumber))
			return
		}
		service.notifier.Warning(fmt.Sprintf(stateLogWarningTemplateConstant, loadError))
		return
	}

	sessionRecord.AppendWorkLog(service.clock.Now(), fmt.Sprintf(stateLogActionTemplateConstant, currentStatus))
	if saveError := service.store.Save(&sessionRecord); saveError != nil {
		service.notifier.Warning(fmt.Sprintf(stateLogWarningTemplateConstant, saveError))
	}
}

func statusEquals(candidate string, statusValue board.Status) bool {
	return strings.EqualFold(strings.TrimSpace(candidate), string(statusValue))
}
