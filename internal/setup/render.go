package setup

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	workspaceConfigurationKeyConstant      = "workspace"
	repositoryConfigurationKeyConstant     = "repository"
	stateDirectoryConfigurationKeyConstant = "state_directory"
	branchConfigurationKeyConstant         = "branch"
	branchNameConfigurationKeyConstant     = "name"
	branchBaseConfigurationKeyConstant     = "base"
	tokenConfigurationKeyConstant          = "token"
	tokenMethodConfigurationKeyConstant    = "method"
	tokenEnvironmentConfigurationKey       = "environment_variable"
	tokenFilePathConfigurationKeyConstant  = "file_path"
	tokenSecretConfigurationKeyConstant    = "secret_resource"
	boardConfigurationKeyConstant          = "board"
	projectIdentifierConfigurationKey      = "project_identifier"
	fieldsConfigurationKeyConstant         = "fields"
	statusConfigurationKeyConstant         = "status"
	priorityConfigurationKeyConstant       = "priority"
	sizeConfigurationKeyConstant           = "size"
	estimateConfigurationKeyConstant       = "estimate"
	fieldIdentifierConfigurationKey        = "field_identifier"
	optionsConfigurationKeyConstant        = "options"
	labelsConfigurationKeyConstant         = "labels"
	synchronizeStatusConfigurationKey      = "synchronize_status"
	statusPrefixConfigurationKeyConstant   = "status_prefix"
	renderFailureMessageConstant           = "failed to render configuration: %w"
)

// RenderConfiguration serializes the discovered workspace settings as yaml
// using the same keys the configuration loader reads back.
func RenderConfiguration(settings workspace.Settings) (string, error) {
	normalizedSettings := settings.Normalized()

	tokenSection := map[string]any{
		tokenMethodConfigurationKeyConstant: normalizedSettings.Token.Method,
	}
	switch workspace.TokenMethod(normalizedSettings.Token.Method) {
	case workspace.TokenMethodEnvironment:
		tokenSection[tokenEnvironmentConfigurationKey] = normalizedSettings.Token.EnvironmentVariable
	case workspace.TokenMethodFile:
		tokenSection[tokenFilePathConfigurationKeyConstant] = normalizedSettings.Token.FilePath
	case workspace.TokenMethodSecretManager:
		tokenSection[tokenSecretConfigurationKeyConstant] = normalizedSettings.Token.SecretResource
	}

	configurationDocument := map[string]any{
		workspaceConfigurationKeyConstant: map[string]any{
			repositoryConfigurationKeyConstant:     normalizedSettings.Repository,
			stateDirectoryConfigurationKeyConstant: normalizedSettings.StateDirectory,
			branchConfigurationKeyConstant: map[string]any{
				branchNameConfigurationKeyConstant: normalizedSettings.Branch.Name,
				branchBaseConfigurationKeyConstant: normalizedSettings.Branch.Base,
			},
			tokenConfigurationKeyConstant: tokenSection,
			boardConfigurationKeyConstant: map[string]any{
				projectIdentifierConfigurationKey: normalizedSettings.Board.ProjectIdentifier,
				fieldsConfigurationKeyConstant: map[string]any{
					statusConfigurationKeyConstant:   renderFieldSection(normalizedSettings.Board.Fields.Status, true),
					priorityConfigurationKeyConstant: renderFieldSection(normalizedSettings.Board.Fields.Priority, true),
					sizeConfigurationKeyConstant:     renderFieldSection(normalizedSettings.Board.Fields.Size, true),
					estimateConfigurationKeyConstant: renderFieldSection(normalizedSettings.Board.Fields.Estimate, false),
				},
			},
			labelsConfigurationKeyConstant: map[string]any{
				synchronizeStatusConfigurationKey:    normalizedSettings.Labels.SynchronizeStatus,
				statusPrefixConfigurationKeyConstant: normalizedSettings.Labels.StatusPrefix,
			},
		},
	}

	renderedDocument, renderError := yaml.Marshal(configurationDocument)
	if renderError != nil {
		return "", fmt.Errorf(renderFailureMessageConstant, renderError)
	}
	return string(renderedDocument), nil
}

func renderFieldSection(fieldSettings workspace.BoardFieldSettings, includeOptions bool) map[string]any {
	fieldSection := map[string]any{
		fieldIdentifierConfigurationKey: fieldSettings.FieldIdentifier,
	}
	if includeOptions {
		fieldSection[optionsConfigurationKeyConstant] = fieldSettings.Options
	}
	return fieldSection
}
