package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"

	pathutils "github.com/bossprank/github-workflow-manager/internal/utils/path"
)

const (
	secretAccessTimeoutConstant                = 10 * time.Second
	secretProjectsPathPrefixConstant           = "projects/"
	secretSecretsPathSegmentConstant           = "/secrets/"
	secretVersionsPathSegmentConstant          = "/versions/"
	secretLatestVersionSuffixConstant          = "/versions/latest"
	tokenResolutionErrorTemplateConstant       = "resolve github token via %s: %s"
	environmentVariableUnsetTemplateConstant   = "environment variable %s is not set (export it or rerun gwm setup)"
	environmentVariableEmptyTemplateConstant   = "environment variable %s is empty"
	tokenFileReadFailureTemplateConstant       = "token file %s could not be read: %v"
	tokenFileEmptyTemplateConstant             = "token file %s is empty"
	secretClientFailureTemplateConstant        = "secret manager client could not be created: %v"
	secretAccessFailureTemplateConstant        = "secret %s could not be accessed: %v"
	secretPayloadEmptyTemplateConstant         = "secret %s returned an empty payload"
	secretResourceInvalidTemplateConstant      = "secret resource %s must use the projects/<project>/secrets/<name> form"
	tokenResolverNilSettingsMessageConstant    = "token settings must be provided"
)

// ErrTokenSettingsRequired indicates the resolver received empty token settings.
var ErrTokenSettingsRequired = errors.New(tokenResolverNilSettingsMessageConstant)

// TokenResolutionError indicates a configured token source produced no usable credential.
type TokenResolutionError struct {
	Method  TokenMethod
	Message string
}

// Error describes the failed token source.
func (resolutionError TokenResolutionError) Error() string {
	return fmt.Sprintf(tokenResolutionErrorTemplateConstant, resolutionError.Method, resolutionError.Message)
}

// SecretAccessor retrieves secret payloads by fully qualified version name.
type SecretAccessor interface {
	AccessSecret(executionContext context.Context, secretVersionName string) (string, error)
}

// SecretAccessorFactory builds a SecretAccessor on demand so that commands
// which never touch Secret Manager pay no construction cost.
type SecretAccessorFactory func(executionContext context.Context) (SecretAccessor, error)

type googleSecretAccessor struct {
	client *secretmanager.Client
}

func (accessor googleSecretAccessor) AccessSecret(executionContext context.Context, secretVersionName string) (string, error) {
	accessRequest := &secretmanagerpb.AccessSecretVersionRequest{Name: secretVersionName}
	accessResponse, accessError := accessor.client.AccessSecretVersion(executionContext, accessRequest)
	if accessError != nil {
		return "", accessError
	}
	return string(accessResponse.GetPayload().GetData()), nil
}

func defaultSecretAccessorFactory(clientOptions ...option.ClientOption) SecretAccessorFactory {
	return func(executionContext context.Context) (SecretAccessor, error) {
		secretClient, clientError := secretmanager.NewClient(executionContext, clientOptions...)
		if clientError != nil {
			return nil, clientError
		}
		return googleSecretAccessor{client: secretClient}, nil
	}
}

// TokenResolver resolves the GitHub token from the configured source.
type TokenResolver struct {
	environmentLookup     func(variableName string) (string, bool)
	fileReader            func(filePath string) ([]byte, error)
	homeExpander          *pathutils.HomeExpander
	secretAccessorFactory SecretAccessorFactory
}

// NewTokenResolver constructs a TokenResolver backed by the process
// environment, the filesystem, and Google Cloud Secret Manager.
func NewTokenResolver(clientOptions ...option.ClientOption) *TokenResolver {
	return &TokenResolver{
		environmentLookup:     os.LookupEnv,
		fileReader:            os.ReadFile,
		homeExpander:          pathutils.NewHomeExpander(),
		secretAccessorFactory: defaultSecretAccessorFactory(clientOptions...),
	}
}

// NewTokenResolverWithDependencies constructs a TokenResolver with injected
// collaborators. Nil dependencies fall back to the operating system defaults.
func NewTokenResolverWithDependencies(
	environmentLookup func(variableName string) (string, bool),
	fileReader func(filePath string) ([]byte, error),
	homeExpander *pathutils.HomeExpander,
	secretAccessorFactory SecretAccessorFactory,
) *TokenResolver {
	resolver := NewTokenResolver()
	if environmentLookup != nil {
		resolver.environmentLookup = environmentLookup
	}
	if fileReader != nil {
		resolver.fileReader = fileReader
	}
	if homeExpander != nil {
		resolver.homeExpander = homeExpander
	}
	if secretAccessorFactory != nil {
		resolver.secretAccessorFactory = secretAccessorFactory
	}
	return resolver
}

// Resolve produces the GitHub token for the configured source.
func (resolver *TokenResolver) Resolve(executionContext context.Context, tokenSettings TokenSettings) (string, error) {
	tokenMethod, tokenMethodError := ParseTokenMethod(tokenSettings.Method)
	if tokenMethodError != nil {
		return "", tokenMethodError
	}

	switch tokenMethod {
	case TokenMethodEnvironment:
		return resolver.resolveFromEnvironment(tokenSettings)
	case TokenMethodFile:
		return resolver.resolveFromFile(tokenSettings)
	case TokenMethodSecretManager:
		return resolver.resolveFromSecretManager(executionContext, tokenSettings)
	default:
		return "", ErrTokenSettingsRequired
	}
}

func (resolver *TokenResolver) resolveFromEnvironment(tokenSettings TokenSettings) (string, error) {
	variableName := strings.TrimSpace(tokenSettings.EnvironmentVariable)
	if len(variableName) == 0 {
		variableName = DefaultTokenEnvironmentVariableConstant
	}
	variableValue, variableSet := resolver.environmentLookup(variableName)
	if !variableSet {
		return "", TokenResolutionError{Method: TokenMethodEnvironment, Message: fmt.Sprintf(environmentVariableUnsetTemplateConstant, variableName)}
	}
	trimmedValue := strings.TrimSpace(variableValue)
	if len(trimmedValue) == 0 {
		return "", TokenResolutionError{Method: TokenMethodEnvironment, Message: fmt.Sprintf(environmentVariableEmptyTemplateConstant, variableName)}
	}
	return trimmedValue, nil
}

func (resolver *TokenResolver) resolveFromFile(tokenSettings TokenSettings) (string, error) {
	expandedFilePath := resolver.homeExpander.Expand(strings.TrimSpace(tokenSettings.FilePath))
	fileContents, readError := resolver.fileReader(expandedFilePath)
	if readError != nil {
		return "", TokenResolutionError{Method: TokenMethodFile, Message: fmt.Sprintf(tokenFileReadFailureTemplateConstant, expandedFilePath, readError)}
	}
	trimmedToken := strings.TrimSpace(string(fileContents))
	if len(trimmedToken) == 0 {
		return "", TokenResolutionError{Method: TokenMethodFile, Message: fmt.Sprintf(tokenFileEmptyTemplateConstant, expandedFilePath)}
	}
	return trimmedToken, nil
}

func (resolver *TokenResolver) resolveFromSecretManager(executionContext context.Context, tokenSettings TokenSettings) (string, error) {
	secretVersionName, normalizationError := NormalizeSecretVersionReference(tokenSettings.SecretResource)
	if normalizationError != nil {
		return "", normalizationError
	}

	boundedContext, cancelAccess := context.WithTimeout(executionContext, secretAccessTimeoutConstant)
	defer cancelAccess()

	secretAccessor, accessorError := resolver.secretAccessorFactory(boundedContext)
	if accessorError != nil {
		return "", TokenResolutionError{Method: TokenMethodSecretManager, Message: fmt.Sprintf(secretClientFailureTemplateConstant, accessorError)}
	}
	secretPayload, accessError := secretAccessor.AccessSecret(boundedContext, secretVersionName)
	if accessError != nil {
		return "", TokenResolutionError{Method: TokenMethodSecretManager, Message: fmt.Sprintf(secretAccessFailureTemplateConstant, secretVersionName, accessError)}
	}
	trimmedToken := strings.TrimSpace(secretPayload)
	if len(trimmedToken) == 0 {
		return "", TokenResolutionError{Method: TokenMethodSecretManager, Message: fmt.Sprintf(secretPayloadEmptyTemplateConstant, secretVersionName)}
	}
	return trimmedToken, nil
}

// NormalizeSecretVersionReference expands a Secret Manager resource to a fully
// qualified version name, defaulting the version to latest.
func NormalizeSecretVersionReference(secretResource string) (string, error) {
	trimmedResource := strings.TrimSpace(secretResource)
	if !strings.HasPrefix(trimmedResource, secretProjectsPathPrefixConstant) || !strings.Contains(trimmedResource, secretSecretsPathSegmentConstant) {
		return "", TokenResolutionError{Method: TokenMethodSecretManager, Message: fmt.Sprintf(secretResourceInvalidTemplateConstant, secretResource)}
	}
	if strings.Contains(trimmedResource, secretVersionsPathSegmentConstant) {
		return trimmedResource, nil
	}
	return trimmedResource + secretLatestVersionSuffixConstant, nil
}
