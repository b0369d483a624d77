package fields

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	fieldNamePriorityConstant             = "priority"
	fieldNameSizeConstant                 = "size"
	fieldNameEstimateConstant             = "estimate"
	fieldVocabularyNameConstant         = "field"
	invalidEstimateTemplateConstant     = "estimate %q must be a positive number of hours or one of %s"
	optionNotConfiguredTemplateConstant = "option %q is not configured for the %s field; run gwm setup"
	updateFailureTemplateConstant       = "failed to update the %s field: %w"
	boardLookupFailureTemplateConstant  = "failed to locate issue #%d on the board: %w"
	estimateSizeChoiceSeparatorConstant = "|"
)

// ErrBoardAPINotConfigured indicates the board API dependency was not provided.
var ErrBoardAPINotConfigured = errors.New("field service requires a board API")

// FieldName selects which board field an update targets.
type FieldName string

// Supported field names.
const (
	FieldPriority FieldName = FieldName(fieldNamePriorityConstant)
	FieldSize     FieldName = FieldName(fieldNameSizeConstant)
	FieldEstimate FieldName = FieldName(fieldNameEstimateConstant)
)

// FieldNames lists the updatable fields.
func FieldNames() []string {
	return []string{fieldNamePriorityConstant, fieldNameSizeConstant, fieldNameEstimateConstant}
}

// ParseFieldName validates a textual field selection.
func ParseFieldName(candidate string) (FieldName, error) {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	switch FieldName(normalizedCandidate) {
	case FieldPriority, FieldSize, FieldEstimate:
		return FieldName(normalizedCandidate), nil
	default:
		return FieldName(""), board.UnknownKeywordError{Vocabulary: fieldVocabularyNameConstant, Keyword: candidate, Choices: FieldNames()}
	}
}

// Update describes one resolved field mutation ready to execute.
type Update struct {
	Field            FieldName
	OptionIdentifier string
	FieldIdentifier  string
	NumberValue      float64
	IsNumber         bool
	DisplayValue     string
}

// ResolveUpdate maps the field/value pair onto the configured identifiers.
// All validation happens here, before any network call; unknown fields,
// unknown keywords, and unconfigured options are usage errors.
func ResolveUpdate(fieldSettings workspace.BoardFieldsSettings, fieldName string, value string) (Update, error) {
	parsedField, fieldError := ParseFieldName(fieldName)
	if fieldError != nil {
		return Update{}, fieldError
	}

	switch parsedField {
	case FieldPriority:
		parsedPriority, priorityError := board.ParsePriority(value)
		if priorityError != nil {
			return Update{}, priorityError
		}
		optionIdentifier, optionConfigured := fieldSettings.Priority.OptionIdentifier(string(parsedPriority))
		if !optionConfigured {
			return Update{}, fmt.Errorf(optionNotConfiguredTemplateConstant, parsedPriority, FieldPriority)
		}
		return Update{
			Field:            FieldPriority,
			FieldIdentifier:  fieldSettings.Priority.FieldIdentifier,
			OptionIdentifier: optionIdentifier,
			DisplayValue:     string(parsedPriority),
		}, nil
	case FieldSize:
		parsedSize, sizeError := board.ParseSize(value)
		if sizeError != nil {
			return Update{}, sizeError
		}
		optionIdentifier, optionConfigured := fieldSettings.Size.OptionIdentifier(string(parsedSize))
		if !optionConfigured {
			return Update{}, fmt.Errorf(optionNotConfiguredTemplateConstant, parsedSize, FieldSize)
		}
		return Update{
			Field:            FieldSize,
			FieldIdentifier:  fieldSettings.Size.FieldIdentifier,
			OptionIdentifier: optionIdentifier,
			DisplayValue:     string(parsedSize),
		}, nil
	default:
		estimateHours, estimateError := resolveEstimateHours(value)
		if estimateError != nil {
			return Update{}, estimateError
		}
		return Update{
			Field:           FieldEstimate,
			FieldIdentifier: fieldSettings.Estimate.FieldIdentifier,
			NumberValue:     estimateHours,
			IsNumber:        true,
			DisplayValue:    strconv.FormatFloat(estimateHours, 'f', -1, 64),
		}, nil
	}
}

// resolveEstimateHours accepts a positive number of hours or a size keyword
// translated through the fixed size table.
func resolveEstimateHours(value string) (float64, error) {
	trimmedValue := strings.TrimSpace(value)
	if parsedHours, parseError := strconv.ParseFloat(trimmedValue, 64); parseError == nil {
		if parsedHours <= 0 {
			return 0, fmt.Errorf(invalidEstimateTemplateConstant, value, strings.Join(board.SizeNames(), estimateSizeChoiceSeparatorConstant))
		}
		return parsedHours, nil
	}
	parsedSize, sizeError := board.ParseSize(trimmedValue)
	if sizeError != nil {
		return 0, fmt.Errorf(invalidEstimateTemplateConstant, value, strings.Join(board.SizeNames(), estimateSizeChoiceSeparatorConstant))
	}
	return parsedSize.EstimateHours(), nil
}

// Service applies resolved field updates to board items.
type Service struct {
	boardAPI shared.BoardAPI
}

// NewService validates the dependencies and builds a field service.
func NewService(boardAPI shared.BoardAPI) (*Service, error) {
	if boardAPI == nil {
		return nil, ErrBoardAPINotConfigured
	}
	return &Service{boardAPI: boardAPI}, nil
}

// Apply looks up the issue's board item and performs exactly one field
// mutation. A missing board item surfaces as board.ItemNotFoundError so the
// caller can point at `gwm status set`.
func (service *Service) Apply(executionContext context.Context, issueNumber int, update Update) error {
	boardItem, lookupError := service.boardAPI.FindItemByIssueNumber(executionContext, issueNumber)
	if lookupError != nil {
		notFoundError := board.ItemNotFoundError{}
		if errors.As(lookupError, &notFoundError) {
			return notFoundError
		}
		return fmt.Errorf(boardLookupFailureTemplateConstant, issueNumber, lookupError)
	}

	if update.IsNumber {
		if mutationError := service.boardAPI.SetNumberField(executionContext, boardItem.Identifier, update.FieldIdentifier, update.NumberValue); mutationError != nil {
			return fmt.Errorf(updateFailureTemplateConstant, update.Field, mutationError)
		}
		return nil
	}
	if mutationError := service.boardAPI.SetSingleSelectField(executionContext, boardItem.Identifier, update.FieldIdentifier, update.OptionIdentifier); mutationError != nil {
		return fmt.Errorf(updateFailureTemplateConstant, update.Field, mutationError)
	}
	return nil
}
