package setup_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/setup"
)

func completeBoardFields() []board.Field {
	return []board.Field{
		{
			Identifier: "FIELD_STATUS",
			Name:       "Status",
			DataType:   "SINGLE_SELECT",
			Options: []board.FieldOption{
				{Identifier: "OPT_BACKLOG", Name: "Backlog"},
				{Identifier: "OPT_READY", Name: "Ready"},
				{Identifier: "OPT_IN_PROGRESS", Name: "In Progress"},
				{Identifier: "OPT_IN_REVIEW", Name: "In Review"},
				{Identifier: "OPT_DONE", Name: "Done"},
			},
		},
		{
			Identifier: "FIELD_PRIORITY",
			Name:       "priority",
			DataType:   "SINGLE_SELECT",
			Options: []board.FieldOption{
				{Identifier: "OPT_P0", Name: "P0"},
				{Identifier: "OPT_P1", Name: "P1"},
			},
		},
		{
			Identifier: "FIELD_SIZE",
			Name:       "Size",
			DataType:   "SINGLE_SELECT",
			Options: []board.FieldOption{
				{Identifier: "OPT_S", Name: "S"},
				{Identifier: "OPT_M", Name: "M"},
			},
		},
		{Identifier: "FIELD_ESTIMATE", Name: "Estimate", DataType: "NUMBER"},
		{Identifier: "FIELD_TITLE", Name: "Title", DataType: "TITLE"},
	}
}

func TestMatchBoardFieldsSuccess(testInstance *testing.T) {
	matchedFields, matchError := setup.MatchBoardFields(completeBoardFields())
	require.NoError(testInstance, matchError)

	require.Equal(testInstance, "FIELD_STATUS", matchedFields.Status.FieldIdentifier)
	require.Equal(testInstance, map[string]string{
		"Backlog":     "OPT_BACKLOG",
		"Ready":       "OPT_READY",
		"In progress": "OPT_IN_PROGRESS",
		"In review":   "OPT_IN_REVIEW",
		"Done":        "OPT_DONE",
	}, matchedFields.Status.Options)

	require.Equal(testInstance, "FIELD_PRIORITY", matchedFields.Priority.FieldIdentifier)
	require.Equal(testInstance, map[string]string{"P0": "OPT_P0", "P1": "OPT_P1"}, matchedFields.Priority.Options)
	require.Equal(testInstance, "FIELD_SIZE", matchedFields.Size.FieldIdentifier)
	require.Equal(testInstance, "FIELD_ESTIMATE", matchedFields.Estimate.FieldIdentifier)
	require.Empty(testInstance, matchedFields.Estimate.Options)
}

func TestMatchBoardFieldsFailures(testInstance *testing.T) {
	testCases := []struct {
		name              string
		mutate            func([]board.Field) []board.Field
		expectedFieldName string
	}{
		{
			name: "status field missing",
			mutate: func(discoveredFields []board.Field) []board.Field {
				return discoveredFields[1:]
			},
			expectedFieldName: "Status",
		},
		{
			name: "status option missing",
			mutate: func(discoveredFields []board.Field) []board.Field {
				discoveredFields[0].Options = discoveredFields[0].Options[:4]
				return discoveredFields
			},
			expectedFieldName: "Status",
		},
		{
			name: "priority not single select",
			mutate: func(discoveredFields []board.Field) []board.Field {
				discoveredFields[1].DataType = "TEXT"
				return discoveredFields
			},
			expectedFieldName: "Priority",
		},
		{
			name: "estimate wrong data type",
			mutate: func(discoveredFields []board.Field) []board.Field {
				discoveredFields[3].DataType = "TEXT"
				return discoveredFields
			},
			expectedFieldName: "Estimate",
		},
		{
			name: "estimate missing",
			mutate: func(discoveredFields []board.Field) []board.Field {
				return append(discoveredFields[:3], discoveredFields[4])
			},
			expectedFieldName: "Estimate",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(toolsSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			_, matchError := setup.MatchBoardFields(testCase.mutate(completeBoardFields()))
			matchFailure := setup.FieldMatchError{}
			require.ErrorAs(testInstance, matchError, &matchFailure)
			require.Equal(testInstance, testCase.expectedFieldName, matchFailure.FieldName)
		})
	}
}
