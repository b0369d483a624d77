package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/githubapi"
)

const (
	ownerVariableNameConstant              = "owner"
	nameVariableNameConstant               = "name"
	ownerFieldNameConstant                 = "owner"
	repositoryNameFieldNameConstant        = "repository_name"
	projectIdentifierFieldNameConstant     = "project_identifier"
	listProjectsOperationNameConstant      = githubapi.OperationName("ListRepositoryProjects")
	listProjectFieldsOperationNameConstant = githubapi.OperationName("ListProjectFields")
	listProjectsFailureMessageConstant     = "failed to list repository project boards: %w"
	listFieldsFailureMessageConstant       = "failed to list project board fields: %w"
)

const listProjectsQueryConstant = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    projectsV2(first: 50) {
      nodes { id title number }
    }
  }
}`

const listProjectFieldsQueryConstant = `query($project: ID!) {
  node(id: $project) {
    ... on ProjectV2 {
      fields(first: 50) {
        nodes {
          ... on ProjectV2Field { id name dataType }
          ... on ProjectV2SingleSelectField { id name dataType options { id name } }
        }
      }
    }
  }
}`

// Project describes one ProjectV2 board attached to a repository.
type Project struct {
	Identifier string
	Title      string
	Number     int
}

// FieldOption describes one single-select option of a board field.
type FieldOption struct {
	Identifier string
	Name       string
}

// Field describes one board field with its options when single-select.
type Field struct {
	Identifier string
	Name       string
	DataType   string
	Options    []FieldOption
}

type listProjectsResponse struct {
	Repository struct {
		ProjectsV2 struct {
			Nodes []struct {
				Identifier string `json:"id"`
				Title      string `json:"title"`
				Number     int    `json:"number"`
			} `json:"nodes"`
		} `json:"projectsV2"`
	} `json:"repository"`
}

type listFieldsResponse struct {
	Node struct {
		Fields struct {
			Nodes []struct {
				Identifier string `json:"id"`
				Name       string `json:"name"`
				DataType   string `json:"dataType"`
				Options    []struct {
					Identifier string `json:"id"`
					Name       string `json:"name"`
				} `json:"options"`
			} `json:"nodes"`
		} `json:"fields"`
	} `json:"node"`
}

// ListRepositoryProjects returns the ProjectV2 boards linked to the repository.
func ListRepositoryProjects(executionContext context.Context, api GraphQLExecutor, ownerName string, repositoryName string) ([]Project, error) {
	trimmedOwnerName := strings.TrimSpace(ownerName)
	if len(trimmedOwnerName) == 0 {
		return nil, githubapi.InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedRepositoryName := strings.TrimSpace(repositoryName)
	if len(trimmedRepositoryName) == 0 {
		return nil, githubapi.InvalidInputError{FieldName: repositoryNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if api == nil {
		return nil, ErrAPIClientNotConfigured
	}

	queryVariables := map[string]any{
		ownerVariableNameConstant: trimmedOwnerName,
		nameVariableNameConstant:  trimmedRepositoryName,
	}
	queryResponse := listProjectsResponse{}
	queryError := api.ExecuteGraphQL(executionContext, listProjectsOperationNameConstant, listProjectsQueryConstant, queryVariables, &queryResponse)
	if queryError != nil {
		return nil, fmt.Errorf(listProjectsFailureMessageConstant, queryError)
	}

	discoveredProjects := []Project{}
	for _, projectNode := range queryResponse.Repository.ProjectsV2.Nodes {
		discoveredProjects = append(discoveredProjects, Project{
			Identifier: projectNode.Identifier,
			Title:      projectNode.Title,
			Number:     projectNode.Number,
		})
	}
	return discoveredProjects, nil
}

// ListProjectFields returns the fields of a board with single-select options.
func ListProjectFields(executionContext context.Context, api GraphQLExecutor, projectIdentifier string) ([]Field, error) {
	trimmedProjectIdentifier := strings.TrimSpace(projectIdentifier)
	if len(trimmedProjectIdentifier) == 0 {
		return nil, githubapi.InvalidInputError{FieldName: projectIdentifierFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if api == nil {
		return nil, ErrAPIClientNotConfigured
	}

	queryVariables := map[string]any{
		projectVariableNameConstant: trimmedProjectIdentifier,
	}
	queryResponse := listFieldsResponse{}
	queryError := api.ExecuteGraphQL(executionContext, listProjectFieldsOperationNameConstant, listProjectFieldsQueryConstant, queryVariables, &queryResponse)
	if queryError != nil {
		return nil, fmt.Errorf(listFieldsFailureMessageConstant, queryError)
	}

	discoveredFields := []Field{}
	for _, fieldNode := range queryResponse.Node.Fields.Nodes {
		if len(fieldNode.Identifier) == 0 {
			continue
		}
		discoveredField := Field{
			Identifier: fieldNode.Identifier,
			Name:       fieldNode.Name,
			DataType:   fieldNode.DataType,
		}
		for _, optionNode := range fieldNode.Options {
			discoveredField.Options = append(discoveredField.Options, FieldOption{
				Identifier: optionNode.Identifier,
				Name:       optionNode.Name,
			})
		}
		discoveredFields = append(discoveredFields, discoveredField)
	}
	return discoveredFields, nil
}
