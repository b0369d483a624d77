package workspace_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const settingsSubtestNameTemplate = "%d_%s"

func validTestSettings() workspace.Settings {
	return workspace.Settings{
		Repository:     "acme/widgets",
		StateDirectory: ".claude",
		Branch:         workspace.BranchSettings{Name: "boss-wip", Base: "main"},
		Token:          workspace.TokenSettings{Method: "environment", EnvironmentVariable: "GITHUB_TOKEN"},
		Board: workspace.BoardSettings{
			ProjectIdentifier: "PVT_kwDOBwK1zM4AAbcd",
			Fields: workspace.BoardFieldsSettings{
				Status: workspace.BoardFieldSettings{
					FieldIdentifier: "PVTSSF_status",
					Options:         map[string]string{"Backlog": "f75ad846", "In progress": "47fc9ee4"},
				},
				Priority: workspace.BoardFieldSettings{
					FieldIdentifier: "PVTSSF_priority",
					Options:         map[string]string{"P0": "aa", "P1": "bb", "P2": "cc"},
				},
				Size: workspace.BoardFieldSettings{
					FieldIdentifier: "PVTSSF_size",
					Options:         map[string]string{"XS": "1", "S": "2", "M": "3", "L": "4", "XL": "5"},
				},
				Estimate: workspace.BoardFieldSettings{FieldIdentifier: "PVTF_estimate"},
			},
		},
		Labels: workspace.LabelSettings{SynchronizeStatus: true, StatusPrefix: "status:"},
	}
}

func TestSettingsNormalizedAppliesDefaults(testInstance *testing.T) {
	normalizedSettings := workspace.Settings{Repository: "  acme/widgets  "}.Normalized()

	require.Equal(testInstance, "acme/widgets", normalizedSettings.Repository)
	require.Equal(testInstance, workspace.DefaultStateDirectoryConstant, normalizedSettings.StateDirectory)
	require.Equal(testInstance, workspace.DefaultWorkBranchNameConstant, normalizedSettings.Branch.Name)
	require.Equal(testInstance, workspace.DefaultBaseBranchNameConstant, normalizedSettings.Branch.Base)
	require.Equal(testInstance, workspace.DefaultTokenEnvironmentVariableConstant, normalizedSettings.Token.EnvironmentVariable)
	require.Equal(testInstance, workspace.DefaultStatusLabelPrefixConstant, normalizedSettings.Labels.StatusPrefix)
}

func TestSettingsNormalizedKeepsConfiguredValues(testInstance *testing.T) {
	configuredSettings := validTestSettings()
	configuredSettings.StateDirectory = ".workflow"
	configuredSettings.Branch.Name = "team-wip"

	normalizedSettings := configuredSettings.Normalized()
	require.Equal(testInstance, ".workflow", normalizedSettings.StateDirectory)
	require.Equal(testInstance, "team-wip", normalizedSettings.Branch.Name)
}

func TestSettingsValidate(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(settings *workspace.Settings)
		expectedField string
	}{
		{
			name:   "valid settings pass",
			mutate: func(settings *workspace.Settings) {},
		},
		{
			name:          "missing repository",
			mutate:        func(settings *workspace.Settings) { settings.Repository = "  " },
			expectedField: "workspace.repository",
		},
		{
			name:          "repository without owner",
			mutate:        func(settings *workspace.Settings) { settings.Repository = "widgets" },
			expectedField: "workspace.repository",
		},
		{
			name:          "repository with extra segment",
			mutate:        func(settings *workspace.Settings) { settings.Repository = "acme/widgets/extra" },
			expectedField: "workspace.repository",
		},
		{
			name:          "unknown token method",
			mutate:        func(settings *workspace.Settings) { settings.Token.Method = "vault" },
			expectedField: "workspace.token.method",
		},
		{
			name: "environment method without variable",
			mutate: func(settings *workspace.Settings) {
				settings.Token.Method = "environment"
				settings.Token.EnvironmentVariable = ""
			},
			expectedField: "workspace.token.environment_variable",
		},
		{
			name: "file method without path",
			mutate: func(settings *workspace.Settings) {
				settings.Token.Method = "file"
				settings.Token.FilePath = ""
			},
			expectedField: "workspace.token.file_path",
		},
		{
			name: "secret method without resource",
			mutate: func(settings *workspace.Settings) {
				settings.Token.Method = "secret-manager"
				settings.Token.SecretResource = ""
			},
			expectedField: "workspace.token.secret_resource",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(settingsSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			candidateSettings := validTestSettings()
			testCase.mutate(&candidateSettings)

			validationError := candidateSettings.Validate()
			if len(testCase.expectedField) == 0 {
				require.NoError(testInstance, validationError)
				return
			}
			require.Error(testInstance, validationError)
			settingsFailure := workspace.SettingsValidationError{}
			require.ErrorAs(testInstance, validationError, &settingsFailure)
			require.Equal(testInstance, testCase.expectedField, settingsFailure.Field)
		})
	}
}

func TestSettingsValidateBoard(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(settings *workspace.Settings)
		expectedField string
	}{
		{
			name:   "complete board settings pass",
			mutate: func(settings *workspace.Settings) {},
		},
		{
			name:          "missing project identifier",
			mutate:        func(settings *workspace.Settings) { settings.Board.ProjectIdentifier = "" },
			expectedField: "workspace.board.project_identifier",
		},
		{
			name:          "missing status field identifier",
			mutate:        func(settings *workspace.Settings) { settings.Board.Fields.Status.FieldIdentifier = "" },
			expectedField: "workspace.board.fields.status",
		},
		{
			name:          "missing priority options",
			mutate:        func(settings *workspace.Settings) { settings.Board.Fields.Priority.Options = nil },
			expectedField: "workspace.board.fields.priority",
		},
		{
			name:          "missing estimate field identifier",
			mutate:        func(settings *workspace.Settings) { settings.Board.Fields.Estimate.FieldIdentifier = "" },
			expectedField: "workspace.board.fields.estimate",
		},
		{
			name:   "estimate field needs no options",
			mutate: func(settings *workspace.Settings) { settings.Board.Fields.Estimate.Options = nil },
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(settingsSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			candidateSettings := validTestSettings()
			testCase.mutate(&candidateSettings)

			validationError := candidateSettings.ValidateBoard()
			if len(testCase.expectedField) == 0 {
				require.NoError(testInstance, validationError)
				return
			}
			require.Error(testInstance, validationError)
			settingsFailure := workspace.SettingsValidationError{}
			require.ErrorAs(testInstance, validationError, &settingsFailure)
			require.Equal(testInstance, testCase.expectedField, settingsFailure.Field)
		})
	}
}

func TestSettingsOwnerAndName(testInstance *testing.T) {
	ownerName, repositoryName, splitError := validTestSettings().OwnerAndName()
	require.NoError(testInstance, splitError)
	require.Equal(testInstance, "acme", ownerName)
	require.Equal(testInstance, "widgets", repositoryName)

	invalidSettings := validTestSettings()
	invalidSettings.Repository = "not-a-slug"
	_, _, invalidError := invalidSettings.OwnerAndName()
	require.Error(testInstance, invalidError)
}

func TestParseTokenMethod(testInstance *testing.T) {
	parsedMethod, parseError := workspace.ParseTokenMethod(" Secret-Manager ")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, workspace.TokenMethodSecretManager, parsedMethod)

	_, unknownError := workspace.ParseTokenMethod("keychain")
	require.Error(testInstance, unknownError)
	require.Contains(testInstance, unknownError.Error(), "environment|file|secret-manager")
}
