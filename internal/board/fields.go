package board

import (
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/utils/flags"
)

const (
	statusVocabularyNameConstant   = "status"
	priorityVocabularyNameConstant = "priority"
	sizeVocabularyNameConstant     = "size"
	keywordSeparatorConstant       = " "
)

// Status names one column of the five-state board lifecycle.
type Status string

const (
	StatusBacklog    Status = "Backlog"
	StatusReady      Status = "Ready"
	StatusInProgress Status = "In progress"
	StatusInReview   Status = "In review"
	StatusDone       Status = "Done"
)

// Priority names the priority single-select options.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"

	DefaultPriority = PriorityP1
)

// Size names the size single-select options.
type Size string

const (
	SizeExtraSmall Size = "XS"
	SizeSmall      Size = "S"
	SizeMedium     Size = "M"
	SizeLarge      Size = "L"
	SizeExtraLarge Size = "XL"

	DefaultSize = SizeMedium
)

var sizeEstimateHours = map[Size]float64{
	SizeExtraSmall: 1,
	SizeSmall:      2,
	SizeMedium:     4,
	SizeLarge:      8,
	SizeExtraLarge: 16,
}

// UnknownKeywordError reports a keyword outside a typed vocabulary.
type UnknownKeywordError struct {
	Vocabulary string
	Keyword    string
	Choices    []string
}

// Error satisfies the error interface.
func (unknownError UnknownKeywordError) Error() string {
	return fmt.Sprintf("unknown %s %q (choose one of %s)", unknownError.Vocabulary, unknownError.Keyword, flags.JoinChoices(unknownError.Choices))
}

// StatusNames returns the board statuses in lifecycle order.
func StatusNames() []string {
	return []string{string(StatusBacklog), string(StatusReady), string(StatusInProgress), string(StatusInReview), string(StatusDone)}
}

// PriorityNames returns the priority options in descending urgency.
func PriorityNames() []string {
	return []string{string(PriorityP0), string(PriorityP1), string(PriorityP2)}
}

// SizeNames returns the size options in ascending order.
func SizeNames() []string {
	return []string{string(SizeExtraSmall), string(SizeSmall), string(SizeMedium), string(SizeLarge), string(SizeExtraLarge)}
}

// ParseStatus resolves a status keyword. Case and the separators "-", "_",
// and " " are interchangeable, so in-progress, in_progress, and In Progress
// all resolve to StatusInProgress.
func ParseStatus(candidate string) (Status, error) {
	normalizedCandidate := normalizeKeyword(candidate)
	for _, statusName := range StatusNames() {
		if normalizedCandidate == normalizeKeyword(statusName) {
			return Status(statusName), nil
		}
	}
	return "", UnknownKeywordError{Vocabulary: statusVocabularyNameConstant, Keyword: candidate, Choices: StatusNames()}
}

// ParsePriority resolves a priority keyword.
func ParsePriority(candidate string) (Priority, error) {
	normalizedCandidate := strings.ToUpper(strings.TrimSpace(candidate))
	for _, priorityName := range PriorityNames() {
		if normalizedCandidate == priorityName {
			return Priority(priorityName), nil
		}
	}
	return "", UnknownKeywordError{Vocabulary: priorityVocabularyNameConstant, Keyword: candidate, Choices: PriorityNames()}
}

// ParseSize resolves a size keyword.
func ParseSize(candidate string) (Size, error) {
	normalizedCandidate := strings.ToUpper(strings.TrimSpace(candidate))
	for _, sizeName := range SizeNames() {
		if normalizedCandidate == sizeName {
			return Size(sizeName), nil
		}
	}
	return "", UnknownKeywordError{Vocabulary: sizeVocabularyNameConstant, Keyword: candidate, Choices: SizeNames()}
}

// EstimateHours maps the size to its fixed hour estimate.
func (size Size) EstimateHours() float64 {
	return sizeEstimateHours[size]
}

func normalizeKeyword(keyword string) string {
	loweredKeyword := strings.ToLower(strings.TrimSpace(keyword))
	separatorReplacer := strings.NewReplacer("-", keywordSeparatorConstant, "_", keywordSeparatorConstant)
	return strings.Join(strings.Fields(separatorReplacer.Replace(loweredKeyword)), keywordSeparatorConstant)
}
