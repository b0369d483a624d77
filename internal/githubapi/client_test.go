package githubapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/execshell"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
)

const (
	testTokenConstant           = "ghp_test_token"
	testRepositoryConstant      = "acme/widgets"
	testGraphQLQueryConstant    = "query($owner:String!){repositoryOwner(login:$owner){id}}"
	testOperationNameConstant   = githubapi.OperationName("TestOperation")
	testGraphQLSuccessEnvelope  = `{"data":{"repositoryOwner":{"id":"MDQ6VXNlcjE="}}}`
	testGraphQLErrorEnvelope    = `{"data":null,"errors":[{"message":"Bad credentials"},{"message":"Field missing"}]}`
	testRESTResponseConstant    = `{"number":12,"title":"Example"}`
)

type stubGitHubExecutor struct {
	executeFunc     func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executeFunc != nil {
		return executor.executeFunc(executionContext, details)
	}
	return execshell.ExecutionResult{}, nil
}

func newTestClient(testInstance *testing.T, executor *stubGitHubExecutor) *githubapi.Client {
	client, creationError := githubapi.NewClient(executor, testTokenConstant)
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidation(testInstance *testing.T) {
	testInstance.Run("nil_executor", func(testInstance *testing.T) {
		client, creationError := githubapi.NewClient(nil, testTokenConstant)
		require.ErrorIs(testInstance, creationError, githubapi.ErrExecutorNotConfigured)
		require.Nil(testInstance, client)
	})
	testInstance.Run("blank_token", func(testInstance *testing.T) {
		client, creationError := githubapi.NewClient(&stubGitHubExecutor{}, "   ")
		require.ErrorIs(testInstance, creationError, githubapi.ErrTokenNotConfigured)
		require.Nil(testInstance, client)
	})
}

func TestExecuteGraphQL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		query       string
		executor    *stubGitHubExecutor
		expectError bool
		errorType   any
		verify      func(testInstance *testing.T, decodedData map[string]any, executor *stubGitHubExecutor)
	}{
		{
			name:  "graphql_success",
			query: testGraphQLQueryConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testGraphQLSuccessEnvelope}, nil
			}},
			verify: func(testInstance *testing.T, decodedData map[string]any, executor *stubGitHubExecutor) {
				require.Len(testInstance, executor.recordedDetails, 1)
				recordedDetails := executor.recordedDetails[0]
				require.Equal(testInstance, []string{"api", "graphql", "--input", "-"}, recordedDetails.Arguments)
				require.Equal(testInstance, testTokenConstant, recordedDetails.EnvironmentVariables["GH_TOKEN"])

				requestEnvelope := map[string]any{}
				require.NoError(testInstance, json.Unmarshal(recordedDetails.StandardInput, &requestEnvelope))
				require.Equal(testInstance, testGraphQLQueryConstant, requestEnvelope["query"])
				requestVariables, variablesPresent := requestEnvelope["variables"].(map[string]any)
				require.True(testInstance, variablesPresent)
				require.Equal(testInstance, "acme", requestVariables["owner"])

				ownerSection, ownerPresent := decodedData["repositoryOwner"].(map[string]any)
				require.True(testInstance, ownerPresent)
				require.Equal(testInstance, "MDQ6VXNlcjE=", ownerSection["id"])
			},
		},
		{
			name:  "graphql_envelope_errors",
			query: testGraphQLQueryConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testGraphQLErrorEnvelope}, nil
			}},
			expectError: true,
			errorType:   githubapi.GraphQLResponseError{},
		},
		{
			name:  "graphql_envelope_errors_with_nonzero_exit",
			query: testGraphQLQueryConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				failedResult := execshell.ExecutionResult{StandardOutput: testGraphQLErrorEnvelope, ExitCode: 1}
				return failedResult, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub}, Result: failedResult}
			}},
			expectError: true,
			errorType:   githubapi.GraphQLResponseError{},
		},
		{
			name:  "graphql_command_failure",
			query: testGraphQLQueryConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub}, Cause: errors.New("spawn failed")}
			}},
			expectError: true,
			errorType:   githubapi.OperationError{},
		},
		{
			name:  "graphql_decode_failure",
			query: testGraphQLQueryConstant,
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: "not-json"}, nil
			}},
			expectError: true,
			errorType:   githubapi.ResponseDecodingError{},
		},
		{
			name:        "graphql_blank_query",
			query:       "   ",
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubapi.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client := newTestClient(testInstance, testCase.executor)

			decodedData := map[string]any{}
			queryVariables := map[string]any{"owner": "acme"}
			executionError := client.ExecuteGraphQL(context.Background(), testOperationNameConstant, testCase.query, queryVariables, &decodedData)
			if testCase.expectError {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.errorType, executionError)
				return
			}
			require.NoError(testInstance, executionError)
			require.NotNil(testInstance, testCase.verify)
			testCase.verify(testInstance, decodedData, testCase.executor)
		})
	}
}

func TestExecuteGraphQLReportsEveryEnvelopeMessage(testInstance *testing.T) {
	executor := &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{StandardOutput: testGraphQLErrorEnvelope}, nil
	}}
	client := newTestClient(testInstance, executor)

	executionError := client.ExecuteGraphQL(context.Background(), testOperationNameConstant, testGraphQLQueryConstant, nil, nil)
	require.Error(testInstance, executionError)
	graphQLFailure := githubapi.GraphQLResponseError{}
	require.ErrorAs(testInstance, executionError, &graphQLFailure)
	require.Equal(testInstance, []string{"Bad credentials", "Field missing"}, graphQLFailure.Messages)
	require.Contains(testInstance, executionError.Error(), "Bad credentials; Field missing")
}

func TestExecuteREST(testInstance *testing.T) {
	testCases := []struct {
		name        string
		httpMethod  string
		endpoint    string
		requestBody any
		executor    *stubGitHubExecutor
		expectError bool
		errorType   any
		verify      func(testInstance *testing.T, executor *stubGitHubExecutor)
	}{
		{
			name:        "rest_post_with_body",
			httpMethod:  "POST",
			endpoint:    "repos/acme/widgets/issues",
			requestBody: map[string]string{"title": "Example"},
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testRESTResponseConstant}, nil
			}},
			verify: func(testInstance *testing.T, executor *stubGitHubExecutor) {
				require.Len(testInstance, executor.recordedDetails, 1)
				recordedDetails := executor.recordedDetails[0]
				require.Equal(testInstance, []string{"api", "repos/acme/widgets/issues", "-X", "POST", "-H", "Accept: application/vnd.github+json", "--input", "-"}, recordedDetails.Arguments)
				require.NotEmpty(testInstance, recordedDetails.StandardInput)
				require.Equal(testInstance, testTokenConstant, recordedDetails.EnvironmentVariables["GH_TOKEN"])
			},
		},
		{
			name:       "rest_get_without_body",
			httpMethod: "get",
			endpoint:   "repos/acme/widgets/issues/12",
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testRESTResponseConstant}, nil
			}},
			verify: func(testInstance *testing.T, executor *stubGitHubExecutor) {
				recordedDetails := executor.recordedDetails[0]
				require.Equal(testInstance, []string{"api", "repos/acme/widgets/issues/12", "-X", "GET", "-H", "Accept: application/vnd.github+json"}, recordedDetails.Arguments)
				require.Empty(testInstance, recordedDetails.StandardInput)
			},
		},
		{
			name:       "rest_command_failure",
			httpMethod: "GET",
			endpoint:   "repos/acme/widgets/issues/12",
			executor: &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				failedResult := execshell.ExecutionResult{StandardError: "HTTP 404: Not Found", ExitCode: 1}
				return failedResult, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub}, Result: failedResult}
			}},
			expectError: true,
			errorType:   githubapi.OperationError{},
		},
		{
			name:        "rest_blank_endpoint",
			httpMethod:  "GET",
			endpoint:    "  ",
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubapi.InvalidInputError{},
		},
		{
			name:        "rest_blank_method",
			httpMethod:  " ",
			endpoint:    "repos/acme/widgets/issues",
			executor:    &stubGitHubExecutor{},
			expectError: true,
			errorType:   githubapi.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client := newTestClient(testInstance, testCase.executor)

			decodedResponse := map[string]any{}
			executionError := client.ExecuteREST(context.Background(), testOperationNameConstant, testCase.httpMethod, testCase.endpoint, testCase.requestBody, &decodedResponse)
			if testCase.expectError {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.errorType, executionError)
				return
			}
			require.NoError(testInstance, executionError)
			require.NotNil(testInstance, testCase.verify)
			testCase.verify(testInstance, testCase.executor)
		})
	}
}
