package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bossprank/github-workflow-manager/internal/execshell"
)

const (
	apiSubcommandConstant                   = "api"
	graphQLEndpointConstant                 = "graphql"
	methodFlagConstant                      = "-X"
	inputFlagConstant                       = "--input"
	stdinReferenceConstant                  = "-"
	acceptHeaderFlagConstant                = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	tokenEnvironmentVariableNameConstant    = "GH_TOKEN"
	httpMethodGetConstant                   = "GET"
	httpMethodPostConstant                  = "POST"
	httpMethodPatchConstant                 = "PATCH"
	httpMethodDeleteConstant                = "DELETE"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	tokenNotConfiguredMessageConstant       = "github token not configured"
	requiredValueMessageConstant            = "value required"
	queryFieldNameConstant                  = "query"
	endpointFieldNameConstant               = "endpoint"
	httpMethodFieldNameConstant             = "http_method"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	graphQLResponseErrorTemplateConstant    = "%s graphql request failed: %s"
	graphQLMessageJoinSeparatorConstant     = "; "
)

// OperationName describes a named GitHub workflow supported by the client.
type OperationName string

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub API calls through the gh CLI. Every invocation
// carries the resolved token in GH_TOKEN so gh never consults its own
// credential store.
type Client struct {
	executor GitHubCommandExecutor
	token    string
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrTokenNotConfigured indicates the client was constructed without a token.
	ErrTokenNotConfigured = errors.New(tokenNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// GraphQLResponseError carries the error messages returned in a GraphQL
// response envelope.
type GraphQLResponseError struct {
	Operation OperationName
	Messages  []string
}

// Error describes the GraphQL failure.
func (responseError GraphQLResponseError) Error() string {
	return fmt.Sprintf(graphQLResponseErrorTemplateConstant, responseError.Operation, strings.Join(responseError.Messages, graphQLMessageJoinSeparatorConstant))
}

// NewClient constructs a GitHub client bound to a resolved token.
func NewClient(executor GitHubCommandExecutor, token string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if len(strings.TrimSpace(token)) == 0 {
		return nil, ErrTokenNotConfigured
	}
	return &Client{executor: executor, token: strings.TrimSpace(token)}, nil
}

type graphQLRequestEnvelope struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponseEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ExecuteGraphQL posts a query to the GraphQL endpoint and decodes the data
// portion of the response envelope into out. Errors reported inside the
// envelope surface as GraphQLResponseError even when gh exits non-zero.
func (client *Client) ExecuteGraphQL(executionContext context.Context, operation OperationName, query string, variables map[string]any, out any) error {
	trimmedQuery := strings.TrimSpace(query)
	if len(trimmedQuery) == 0 {
		return InvalidInputError{FieldName: queryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	requestPayload, encodingError := json.Marshal(graphQLRequestEnvelope{Query: trimmedQuery, Variables: variables})
	if encodingError != nil {
		return PayloadEncodingError{Operation: operation, Cause: encodingError}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			graphQLEndpointConstant,
			inputFlagConstant,
			stdinReferenceConstant,
		},
		StandardInput:        requestPayload,
		EnvironmentVariables: client.tokenEnvironment(),
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)

	responseEnvelope := graphQLResponseEnvelope{}
	envelopeDecodable := json.Unmarshal([]byte(executionResult.StandardOutput), &responseEnvelope) == nil
	if envelopeDecodable && len(responseEnvelope.Errors) > 0 {
		errorMessages := make([]string, 0, len(responseEnvelope.Errors))
		for _, envelopeError := range responseEnvelope.Errors {
			errorMessages = append(errorMessages, envelopeError.Message)
		}
		return GraphQLResponseError{Operation: operation, Messages: errorMessages}
	}
	if executionError != nil {
		return OperationError{Operation: operation, Cause: executionError}
	}
	if !envelopeDecodable {
		return ResponseDecodingError{Operation: operation, Cause: errors.New(executionResult.StandardOutput)}
	}

	if out == nil {
		return nil
	}
	dataDecodingError := json.Unmarshal(responseEnvelope.Data, out)
	if dataDecodingError != nil {
		return ResponseDecodingError{Operation: operation, Cause: dataDecodingError}
	}
	return nil
}

// ExecuteREST calls a v3 endpoint through gh api, optionally sending a JSON
// request body on standard input and decoding the response into out.
func (client *Client) ExecuteREST(executionContext context.Context, operation OperationName, httpMethod string, endpoint string, requestBody any, out any) error {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if len(trimmedEndpoint) == 0 {
		return InvalidInputError{FieldName: endpointFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedHTTPMethod := strings.ToUpper(strings.TrimSpace(httpMethod))
	if len(trimmedHTTPMethod) == 0 {
		return InvalidInputError{FieldName: httpMethodFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandArguments := []string{
		apiSubcommandConstant,
		trimmedEndpoint,
		methodFlagConstant,
		trimmedHTTPMethod,
		acceptHeaderFlagConstant,
		acceptHeaderValueConstant,
	}

	commandDetails := execshell.CommandDetails{
		EnvironmentVariables: client.tokenEnvironment(),
	}

	if requestBody != nil {
		bodyPayload, encodingError := json.Marshal(requestBody)
		if encodingError != nil {
			return PayloadEncodingError{Operation: operation, Cause: encodingError}
		}
		commandArguments = append(commandArguments, inputFlagConstant, stdinReferenceConstant)
		commandDetails.StandardInput = bodyPayload
	}

	commandDetails.Arguments = commandArguments

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return OperationError{Operation: operation, Cause: executionError}
	}

	if out == nil {
		return nil
	}
	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), out)
	if decodingError != nil {
		return ResponseDecodingError{Operation: operation, Cause: decodingError}
	}
	return nil
}

func (client *Client) tokenEnvironment() map[string]string {
	return map[string]string{tokenEnvironmentVariableNameConstant: client.token}
}
