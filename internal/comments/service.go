package comments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bossprank/github-workflow-manager/internal/githubapi"
	"github.com/bossprank/github-workflow-manager/internal/shared"
)

const (
	defaultCommentLimitConstant       = 10
	commentPostFailureTemplateConstant = "failed to post comment on issue #%d: %w"
	commentListFailureTemplateConstant = "failed to list comments on issue #%d: %w"
	relativeAgeJustNowConstant         = "just now"
	relativeAgeMinutesTemplateConstant = "%dm ago"
	relativeAgeHoursTemplateConstant   = "%dh ago"
	relativeAgeDaysTemplateConstant    = "%dd ago"
)

// ErrCommentAPINotConfigured indicates the comment API dependency was not provided.
var ErrCommentAPINotConfigured = errors.New("comment service requires a comment API")

// Configuration carries the comment command settings.
type Configuration struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

// DefaultConfigurationValues supplies viper defaults under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + ".default_limit": defaultCommentLimitConstant,
	}
}

// EffectiveLimit applies the built-in default when the setting is unset.
func (configuration Configuration) EffectiveLimit() int {
	if configuration.DefaultLimit > 0 {
		return configuration.DefaultLimit
	}
	return defaultCommentLimitConstant
}

// Service posts comments and renders recent comment history.
type Service struct {
	commentAPI shared.CommentAPI
	clock      shared.Clock
}

// NewService validates the dependencies and builds a comment service.
func NewService(commentAPI shared.CommentAPI, clock shared.Clock) (*Service, error) {
	if commentAPI == nil {
		return nil, ErrCommentAPINotConfigured
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{commentAPI: commentAPI, clock: clock}, nil
}

// Add posts one comment and returns it.
func (service *Service) Add(executionContext context.Context, repository string, issueNumber int, body string) (githubapi.Comment, error) {
	postedComment, postError := service.commentAPI.AddIssueComment(executionContext, repository, issueNumber, body)
	if postError != nil {
		return githubapi.Comment{}, fmt.Errorf(commentPostFailureTemplateConstant, issueNumber, postError)
	}
	return postedComment, nil
}

// ListRecent returns the newest comments first, capped at limit. The API
// layer serves ascending creation order, so the slice is re-sorted here to
// keep the contract independent of server ordering.
func (service *Service) ListRecent(executionContext context.Context, repository string, issueNumber int, limit int) ([]githubapi.Comment, error) {
	fetchedComments, listError := service.commentAPI.ListIssueComments(executionContext, repository, issueNumber, limit)
	if listError != nil {
		return nil, fmt.Errorf(commentListFailureTemplateConstant, issueNumber, listError)
	}

	sort.SliceStable(fetchedComments, func(firstIndex, secondIndex int) bool {
		return fetchedComments[firstIndex].CreatedAt > fetchedComments[secondIndex].CreatedAt
	})
	if len(fetchedComments) > limit {
		fetchedComments = fetchedComments[:limit]
	}
	return fetchedComments, nil
}

// RelativeAge renders a compact age label for a comment timestamp. Raw
// timestamps that fail to parse come back unchanged.
func (service *Service) RelativeAge(createdAt string) string {
	parsedTime, parseError := time.Parse(time.RFC3339, createdAt)
	if parseError != nil {
		return createdAt
	}

	elapsed := service.clock.Now().Sub(parsedTime)
	switch {
	case elapsed < time.Minute:
		return relativeAgeJustNowConstant
	case elapsed < time.Hour:
		return fmt.Sprintf(relativeAgeMinutesTemplateConstant, int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf(relativeAgeHoursTemplateConstant, int(elapsed.Hours()))
	default:
		return fmt.Sprintf(relativeAgeDaysTemplateConstant, int(elapsed.Hours()/24))
	}
}
