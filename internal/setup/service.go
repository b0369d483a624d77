package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/board"
	"github.com/bossprank/github-workflow-manager/internal/gitrepo"
	"github.com/bossprank/github-workflow-manager/internal/shared"
	pathutils "github.com/bossprank/github-workflow-manager/internal/utils/path"
	"github.com/bossprank/github-workflow-manager/internal/workspace"
)

const (
	originRemoteNameConstant              = "origin"
	defaultTokenFilePathConstant          = "~/.config/gwm/token"
	tokenFileDirectoryPermissionsConstant = 0o700
	tokenFilePermissionsConstant          = 0o600
	outputDirectoryPermissionsConstant    = 0o755
	outputFilePermissionsConstant         = 0o644

	prompterRequiredMessageConstant      = "prompter must be configured"
	tokenResolverRequiredMessage         = "token resolver must be configured"
	gitManagerRequiredMessageConstant    = "git manager must be configured"
	apiFactoryRequiredMessageConstant    = "api factory must be configured"
	outputPathRequiredMessageConstant    = "output path must be provided"
	repositoryPathRequiredMessage        = "repository path must be provided"
	emptyTokenSecretMessageConstant      = "the entered token is empty"
	overwriteDeclinedMessageConstant     = "kept the existing configuration file untouched"
	noBoardsFoundTemplateConstant        = "repository %s has no ProjectV2 boards; link one on github.com and rerun setup"
	tokenFileWriteFailureTemplate        = "failed to write token file %s: %w"
	outputWriteFailureTemplateConstant   = "failed to write configuration file %s: %w"
	boardSmokeTestFailureTemplate        = "board read failed with the discovered settings: %w"
	viewerSmokeTestFailureTemplate       = "github api smoke test failed: %w"
	listProjectsFailureTemplateConstant  = "failed to discover project boards: %w"
	listFieldsFailureTemplateConstant    = "failed to discover board fields: %w"
	tokenMethodPromptTitleConstant       = "How should gwm obtain the GitHub token?"
	tokenEnvironmentChoiceLabelConstant  = "environment — read an environment variable"
	tokenFileChoiceLabelConstant         = "file — read a token file on disk"
	tokenSecretChoiceLabelConstant       = "secret-manager — fetch from Google Secret Manager"
	environmentVariablePromptTitle       = "Token environment variable"
	environmentVariablePromptDescription = "Name of the variable holding the GitHub token"
	tokenFilePromptTitleConstant         = "Token file path"
	tokenFilePromptDescriptionConstant   = "Path to the file holding the GitHub token"
	tokenSecretPromptTitleConstant       = "GitHub token"
	tokenSecretPromptDescriptionConstant = "Pasted token is stored with 0600 permissions"
	secretResourcePromptTitleConstant    = "Secret Manager resource"
	secretResourcePromptDescription      = "projects/<project>/secrets/<name>[/versions/<version>]"
	repositoryConfirmTitleTemplate       = "Use repository %s?"
	repositoryConfirmDescriptionConstant = "Detected from the origin remote"
	repositoryPromptTitleConstant        = "GitHub repository"
	repositoryPromptDescriptionConstant  = "owner/name slug"
	boardPromptTitleConstant             = "Which project board should gwm manage?"
	boardChoiceLabelTemplateConstant     = "%s (#%d)"
	overwriteConfirmTitleTemplateFormat  = "Overwrite existing %s?"
	overwriteConfirmDescriptionConstant  = "The current contents will be replaced"

	toolsStepMessageConstant        = "git and gh found on PATH"
	tokenStepMessageTemplateFormat  = "github token resolved via %s"
	repositoryStepMessageTemplate   = "using repository %s"
	boardStepMessageTemplateFormat  = "selected board %s"
	fieldsStepMessageConstant       = "matched board fields Status, Priority, Size, Estimate"
	smokeStepMessageTemplateFormat  = "api smoke test passed as %s (%d board items)"
	writtenStepMessageTemplateFmt   = "configuration written to %s"
)

// Package sentinels for missing wizard collaborators.
var (
	ErrPrompterNotConfigured      = errors.New(prompterRequiredMessageConstant)
	ErrTokenResolverNotConfigured = errors.New(tokenResolverRequiredMessage)
	ErrGitManagerNotConfigured    = errors.New(gitManagerRequiredMessageConstant)
	ErrAPIFactoryNotConfigured    = errors.New(apiFactoryRequiredMessageConstant)
)

// DiscoveryAPI covers the GitHub calls the wizard performs once a token is resolved.
type DiscoveryAPI interface {
	board.GraphQLExecutor
	ViewerLogin(executionContext context.Context) (string, error)
}

// APIFactory builds a DiscoveryAPI from a resolved token.
type APIFactory func(executionContext context.Context, token string) (DiscoveryAPI, error)

// StepReporter receives a progress line after each completed wizard step.
type StepReporter func(message string)

// Dependencies wires the collaborators the wizard needs.
type Dependencies struct {
	Prompter      Prompter
	ToolLookup    ToolLookup
	TokenResolver shared.TokenResolver
	GitManager    shared.GitRepositoryManager
	APIFactory    APIFactory
	ReportStep    StepReporter
}

// RunOptions parameterizes one wizard invocation.
type RunOptions struct {
	OutputPath     string
	RepositoryPath string
}

// Result summarizes a completed wizard run.
type Result struct {
	Settings       workspace.Settings
	ProjectTitle   string
	ViewerLogin    string
	BoardItemCount int
	OutputPath     string
	Written        bool
}

// Service drives the discovery wizard.
type Service struct {
	dependencies Dependencies
	homeExpander *pathutils.HomeExpander
}

// NewService validates the wizard collaborators.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Prompter == nil {
		return nil, ErrPrompterNotConfigured
	}
	if dependencies.TokenResolver == nil {
		return nil, ErrTokenResolverNotConfigured
	}
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.APIFactory == nil {
		return nil, ErrAPIFactoryNotConfigured
	}
	return &Service{dependencies: dependencies, homeExpander: pathutils.NewHomeExpander()}, nil
}

// Run walks every discovery step and writes the configuration file only
// after the final smoke test passes. A failed step aborts without touching
// the output path.
func (service *Service) Run(executionContext context.Context, options RunOptions) (Result, error) {
	if len(strings.TrimSpace(options.OutputPath)) == 0 {
		return Result{}, errors.New(outputPathRequiredMessageConstant)
	}
	if len(strings.TrimSpace(options.RepositoryPath)) == 0 {
		return Result{}, errors.New(repositoryPathRequiredMessage)
	}

	if toolError := CheckRequiredTools(service.dependencies.ToolLookup); toolError != nil {
		return Result{}, toolError
	}
	service.reportStep(toolsStepMessageConstant)

	tokenSettings, token, tokenError := service.resolveTokenStep(executionContext)
	if tokenError != nil {
		return Result{}, tokenError
	}
	service.reportStep(fmt.Sprintf(tokenStepMessageTemplateFormat, tokenSettings.Method))

	repositorySlug, repositoryError := service.resolveRepositoryStep(executionContext, options.RepositoryPath)
	if repositoryError != nil {
		return Result{}, repositoryError
	}
	service.reportStep(fmt.Sprintf(repositoryStepMessageTemplate, repositorySlug))

	discoveryAPI, apiError := service.dependencies.APIFactory(executionContext, token)
	if apiError != nil {
		return Result{}, apiError
	}

	selectedProject, projectError := service.resolveBoardStep(executionContext, discoveryAPI, repositorySlug)
	if projectError != nil {
		return Result{}, projectError
	}
	service.reportStep(fmt.Sprintf(boardStepMessageTemplateFormat, selectedProject.Title))

	discoveredFields, fieldsError := board.ListProjectFields(executionContext, discoveryAPI, selectedProject.Identifier)
	if fieldsError != nil {
		return Result{}, fmt.Errorf(listFieldsFailureTemplateConstant, fieldsError)
	}
	matchedFields, matchError := MatchBoardFields(discoveredFields)
	if matchError != nil {
		return Result{}, matchError
	}
	service.reportStep(fieldsStepMessageConstant)

	viewerLogin, itemCount, smokeError := service.runSmokeTest(executionContext, discoveryAPI, selectedProject.Identifier)
	if smokeError != nil {
		return Result{}, smokeError
	}
	service.reportStep(fmt.Sprintf(smokeStepMessageTemplateFormat, viewerLogin, itemCount))

	discoveredSettings := workspace.Settings{
		Repository: repositorySlug,
		Token:      tokenSettings,
		Board: workspace.BoardSettings{
			ProjectIdentifier: selectedProject.Identifier,
			Fields:            matchedFields,
		},
	}.Normalized()
	if validationError := discoveredSettings.Validate(); validationError != nil {
		return Result{}, validationError
	}
	if validationError := discoveredSettings.ValidateBoard(); validationError != nil {
		return Result{}, validationError
	}

	written, writeError := service.writeConfiguration(discoveredSettings, options.OutputPath)
	if writeError != nil {
		return Result{}, writeError
	}
	if written {
		service.reportStep(fmt.Sprintf(writtenStepMessageTemplateFmt, options.OutputPath))
	} else {
		service.reportStep(overwriteDeclinedMessageConstant)
	}

	return Result{
		Settings:       discoveredSettings,
		ProjectTitle:   selectedProject.Title,
		ViewerLogin:    viewerLogin,
		BoardItemCount: itemCount,
		OutputPath:     options.OutputPath,
		Written:        written,
	}, nil
}

func (service *Service) reportStep(message string) {
	if service.dependencies.ReportStep != nil {
		service.dependencies.ReportStep(message)
	}
}

func (service *Service) resolveTokenStep(executionContext context.Context) (workspace.TokenSettings, string, error) {
	methodChoices := []Choice{
		{Label: tokenEnvironmentChoiceLabelConstant, Value: string(workspace.TokenMethodEnvironment)},
		{Label: tokenFileChoiceLabelConstant, Value: string(workspace.TokenMethodFile)},
		{Label: tokenSecretChoiceLabelConstant, Value: string(workspace.TokenMethodSecretManager)},
	}
	selectedMethod, selectError := service.dependencies.Prompter.Select(tokenMethodPromptTitleConstant, methodChoices)
	if selectError != nil {
		return workspace.TokenSettings{}, "", selectError
	}
	tokenMethod, methodError := workspace.ParseTokenMethod(selectedMethod)
	if methodError != nil {
		return workspace.TokenSettings{}, "", methodError
	}

	tokenSettings := workspace.TokenSettings{Method: string(tokenMethod)}
	switch tokenMethod {
	case workspace.TokenMethodEnvironment:
		variableName, variableError := service.dependencies.Prompter.Input(
			environmentVariablePromptTitle, environmentVariablePromptDescription, workspace.DefaultTokenEnvironmentVariableConstant)
		if variableError != nil {
			return workspace.TokenSettings{}, "", variableError
		}
		tokenSettings.EnvironmentVariable = strings.TrimSpace(variableName)
	case workspace.TokenMethodFile:
		filePath, fileError := service.resolveTokenFileStep(executionContext)
		if fileError != nil {
			return workspace.TokenSettings{}, "", fileError
		}
		tokenSettings.FilePath = filePath
	case workspace.TokenMethodSecretManager:
		secretResource, resourceError := service.dependencies.Prompter.Input(
			secretResourcePromptTitleConstant, secretResourcePromptDescription, "")
		if resourceError != nil {
			return workspace.TokenSettings{}, "", resourceError
		}
		tokenSettings.SecretResource = strings.TrimSpace(secretResource)
	}

	resolvedToken, resolveError := service.dependencies.TokenResolver.Resolve(executionContext, tokenSettings)
	if resolveError != nil {
		return workspace.TokenSettings{}, "", resolveError
	}
	return tokenSettings, resolvedToken, nil
}

// resolveTokenFileStep prompts for the file location and seeds the file with
// a pasted token when it does not exist yet.
func (service *Service) resolveTokenFileStep(_ context.Context) (string, error) {
	filePath, pathError := service.dependencies.Prompter.Input(
		tokenFilePromptTitleConstant, tokenFilePromptDescriptionConstant, defaultTokenFilePathConstant)
	if pathError != nil {
		return "", pathError
	}
	trimmedPath := strings.TrimSpace(filePath)
	expandedPath := service.homeExpander.Expand(trimmedPath)
	if _, statError := os.Stat(expandedPath); statError == nil {
		return trimmedPath, nil
	}

	tokenValue, secretError := service.dependencies.Prompter.Secret(
		tokenSecretPromptTitleConstant, tokenSecretPromptDescriptionConstant)
	if secretError != nil {
		return "", secretError
	}
	if len(strings.TrimSpace(tokenValue)) == 0 {
		return "", errors.New(emptyTokenSecretMessageConstant)
	}
	if mkdirError := os.MkdirAll(filepath.Dir(expandedPath), tokenFileDirectoryPermissionsConstant); mkdirError != nil {
		return "", fmt.Errorf(tokenFileWriteFailureTemplate, trimmedPath, mkdirError)
	}
	if writeError := os.WriteFile(expandedPath, []byte(strings.TrimSpace(tokenValue)), tokenFilePermissionsConstant); writeError != nil {
		return "", fmt.Errorf(tokenFileWriteFailureTemplate, trimmedPath, writeError)
	}
	return trimmedPath, nil
}

func (service *Service) resolveRepositoryStep(executionContext context.Context, repositoryPath string) (string, error) {
	detectedSlug := ""
	remoteText, remoteError := service.dependencies.GitManager.GetRemoteURL(executionContext, repositoryPath, originRemoteNameConstant)
	if remoteError == nil {
		if parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteText); parseError == nil {
			detectedSlug = parsedRemote.Slug()
		}
	}

	if len(detectedSlug) > 0 {
		accepted, confirmError := service.dependencies.Prompter.Confirm(
			fmt.Sprintf(repositoryConfirmTitleTemplate, detectedSlug), repositoryConfirmDescriptionConstant, true)
		if confirmError != nil {
			return "", confirmError
		}
		if accepted {
			return detectedSlug, nil
		}
	}

	enteredSlug, inputError := service.dependencies.Prompter.Input(
		repositoryPromptTitleConstant, repositoryPromptDescriptionConstant, detectedSlug)
	if inputError != nil {
		return "", inputError
	}
	trimmedSlug := strings.TrimSpace(enteredSlug)
	if _, _, slugError := (workspace.Settings{Repository: trimmedSlug}).OwnerAndName(); slugError != nil {
		return "", slugError
	}
	return trimmedSlug, nil
}

func (service *Service) resolveBoardStep(executionContext context.Context, discoveryAPI DiscoveryAPI, repositorySlug string) (board.Project, error) {
	ownerName, repositoryName, slugError := (workspace.Settings{Repository: repositorySlug}).OwnerAndName()
	if slugError != nil {
		return board.Project{}, slugError
	}
	availableProjects, listError := board.ListRepositoryProjects(executionContext, discoveryAPI, ownerName, repositoryName)
	if listError != nil {
		return board.Project{}, fmt.Errorf(listProjectsFailureTemplateConstant, listError)
	}
	if len(availableProjects) == 0 {
		return board.Project{}, fmt.Errorf(noBoardsFoundTemplateConstant, repositorySlug)
	}

	projectChoices := make([]Choice, 0, len(availableProjects))
	for _, availableProject := range availableProjects {
		projectChoices = append(projectChoices, Choice{
			Label: fmt.Sprintf(boardChoiceLabelTemplateConstant, availableProject.Title, availableProject.Number),
			Value: availableProject.Identifier,
		})
	}
	selectedIdentifier, selectError := service.dependencies.Prompter.Select(boardPromptTitleConstant, projectChoices)
	if selectError != nil {
		return board.Project{}, selectError
	}
	for _, availableProject := range availableProjects {
		if availableProject.Identifier == selectedIdentifier {
			return availableProject, nil
		}
	}
	return availableProjects[0], nil
}

func (service *Service) runSmokeTest(executionContext context.Context, discoveryAPI DiscoveryAPI, projectIdentifier string) (string, int, error) {
	viewerLogin, viewerError := discoveryAPI.ViewerLogin(executionContext)
	if viewerError != nil {
		return "", 0, fmt.Errorf(viewerSmokeTestFailureTemplate, viewerError)
	}
	boardClient, clientError := board.NewClient(discoveryAPI, projectIdentifier)
	if clientError != nil {
		return "", 0, fmt.Errorf(boardSmokeTestFailureTemplate, clientError)
	}
	boardItems, listError := boardClient.ListItems(executionContext)
	if listError != nil {
		return "", 0, fmt.Errorf(boardSmokeTestFailureTemplate, listError)
	}
	return viewerLogin, len(boardItems), nil
}

func (service *Service) writeConfiguration(discoveredSettings workspace.Settings, outputPath string) (bool, error) {
	renderedConfiguration, renderError := RenderConfiguration(discoveredSettings)
	if renderError != nil {
		return false, renderError
	}

	expandedPath := service.homeExpander.Expand(strings.TrimSpace(outputPath))
	if _, statError := os.Stat(expandedPath); statError == nil {
		overwrite, confirmError := service.dependencies.Prompter.Confirm(
			fmt.Sprintf(overwriteConfirmTitleTemplateFormat, outputPath), overwriteConfirmDescriptionConstant, false)
		if confirmError != nil {
			return false, confirmError
		}
		if !overwrite {
			return false, nil
		}
	}

	outputDirectory := filepath.Dir(expandedPath)
	if mkdirError := os.MkdirAll(outputDirectory, outputDirectoryPermissionsConstant); mkdirError != nil {
		return false, fmt.Errorf(outputWriteFailureTemplateConstant, outputPath, mkdirError)
	}
	if writeError := os.WriteFile(expandedPath, []byte(renderedConfiguration), outputFilePermissionsConstant); writeError != nil {
		return false, fmt.Errorf(outputWriteFailureTemplateConstant, outputPath, writeError)
	}
	return true, nil
}
