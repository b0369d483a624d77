package setup

import (
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	statusFieldDisplayNameConstant   = "Status"
	priorityFieldDisplayNameConstant = "Priority"
	sizeFieldDisplayNameConstant     = "Size"
	estimateFieldDisplayNameConstant = "Estimate"
	singleSelectDataTypeConstant     = "SINGLE_SELECT"
	numberDataTypeConstant           = "NUMBER"
	fieldMatchErrorTemplateConstant  = "board field %s: %s"
	fieldMissingMessageConstant      = "not found on the selected board"
	fieldDataTypeMessageTemplate     = "expected data type %s, found %s"
	statusOptionMissingTemplate      = "option %q is missing from the board"
)

// FieldMatchError indicates the selected board lacks a required field shape.
type FieldMatchError struct {
	FieldName string
	Message   string
}

// Error names the field and what was wrong with it.
func (matchError FieldMatchError) Error() string {
	return fmt.Sprintf(fieldMatchErrorTemplateConstant, matchError.FieldName, matchError.Message)
}

// MatchBoardFields maps the discovered board fields onto the configuration
// schema. Status, Priority, and Size must be single-select fields and
// Estimate a number field, matched by normalized name; the Status field must
// additionally offer every lifecycle option.
func MatchBoardFields(discoveredFields []board.Field) (workspace.BoardFieldsSettings, error) {
	statusField, statusError := matchSingleSelectField(discoveredFields, statusFieldDisplayNameConstant)
	if statusError != nil {
		return workspace.BoardFieldsSettings{}, statusError
	}
	if optionError := requireStatusOptions(statusField); optionError != nil {
		return workspace.BoardFieldsSettings{}, optionError
	}
	priorityField, priorityError := matchSingleSelectField(discoveredFields, priorityFieldDisplayNameConstant)
	if priorityError != nil {
		return workspace.BoardFieldsSettings{}, priorityError
	}
	sizeField, sizeError := matchSingleSelectField(discoveredFields, sizeFieldDisplayNameConstant)
	if sizeError != nil {
		return workspace.BoardFieldsSettings{}, sizeError
	}
	estimateField, estimateError := matchFieldByName(discoveredFields, estimateFieldDisplayNameConstant)
	if estimateError != nil {
		return workspace.BoardFieldsSettings{}, estimateError
	}
	if !strings.EqualFold(estimateField.DataType, numberDataTypeConstant) {
		return workspace.BoardFieldsSettings{}, FieldMatchError{
			FieldName: estimateFieldDisplayNameConstant,
			Message:   fmt.Sprintf(fieldDataTypeMessageTemplate, numberDataTypeConstant, estimateField.DataType),
		}
	}

	return workspace.BoardFieldsSettings{
		Status:   fieldSettingsWithStatusOptions(statusField),
		Priority: fieldSettingsFromOptions(priorityField),
		Size:     fieldSettingsFromOptions(sizeField),
		Estimate: workspace.BoardFieldSettings{FieldIdentifier: estimateField.Identifier},
	}, nil
}

func matchFieldByName(discoveredFields []board.Field, displayName string) (board.Field, error) {
	for _, discoveredField := range discoveredFields {
		if strings.EqualFold(strings.TrimSpace(discoveredField.Name), displayName) {
			return discoveredField, nil
		}
	}
	return board.Field{}, FieldMatchError{FieldName: displayName, Message: fieldMissingMessageConstant}
}

func matchSingleSelectField(discoveredFields []board.Field, displayName string) (board.Field, error) {
	matchedField, matchError := matchFieldByName(discoveredFields, displayName)
	if matchError != nil {
		return board.Field{}, matchError
	}
	if !strings.EqualFold(matchedField.DataType, singleSelectDataTypeConstant) {
		return board.Field{}, FieldMatchError{
			FieldName: displayName,
			Message:   fmt.Sprintf(fieldDataTypeMessageTemplate, singleSelectDataTypeConstant, matchedField.DataType),
		}
	}
	return matchedField, nil
}

func requireStatusOptions(statusField board.Field) error {
	for _, statusName := range board.StatusNames() {
		if _, found := findFieldOption(statusField, statusName); !found {
			return FieldMatchError{
				FieldName: statusFieldDisplayNameConstant,
				Message:   fmt.Sprintf(statusOptionMissingTemplate, statusName),
			}
		}
	}
	return nil
}

func findFieldOption(discoveredField board.Field, optionName string) (board.FieldOption, bool) {
	for _, fieldOption := range discoveredField.Options {
		if strings.EqualFold(strings.TrimSpace(fieldOption.Name), optionName) {
			return fieldOption, true
		}
	}
	return board.FieldOption{}, false
}

// fieldSettingsWithStatusOptions keys the option map by the canonical status
// spelling so keyword parsing lines up regardless of the board's casing.
func fieldSettingsWithStatusOptions(statusField board.Field) workspace.BoardFieldSettings {
	optionIdentifiers := map[string]string{}
	for _, statusName := range board.StatusNames() {
		if matchedOption, found := findFieldOption(statusField, statusName); found {
			optionIdentifiers[statusName] = matchedOption.Identifier
		}
	}
	return workspace.BoardFieldSettings{FieldIdentifier: statusField.Identifier, Options: optionIdentifiers}
}

func fieldSettingsFromOptions(discoveredField board.Field) workspace.BoardFieldSettings {
	optionIdentifiers := map[string]string{}
	for _, fieldOption := range discoveredField.Options {
		optionIdentifiers[strings.TrimSpace(fieldOption.Name)] = fieldOption.Identifier
	}
	return workspace.BoardFieldSettings{FieldIdentifier: discoveredField.Identifier, Options: optionIdentifiers}
}
