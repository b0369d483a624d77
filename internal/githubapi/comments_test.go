package githubapi_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/execshell"
	"github.com/bossprank/github-workflow-manager/internal/githubapi"
)

const testCommentListResponseConstant = `[
	{"id": 1, "user": {"login": "operator"}, "body": "First note", "created_at": "2026-08-20T10:00:00Z", "html_url": "https://github.com/acme/widgets/issues/12#issuecomment-1"},
	{"id": 2, "user": {"login": "reviewer"}, "body": "Second note", "created_at": "2026-08-21T10:00:00Z", "html_url": "https://github.com/acme/widgets/issues/12#issuecomment-2"},
	{"id": 3, "user": {"login": "operator"}, "body": "Third note", "created_at": "2026-08-22T10:00:00Z", "html_url": "https://github.com/acme/widgets/issues/12#issuecomment-3"}
]`

func TestAddIssueComment(testInstance *testing.T) {
	executor := &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
		return execshell.ExecutionResult{StandardOutput: `{"id": 9, "user": {"login": "operator"}, "body": "Work started", "created_at": "2026-08-22T11:00:00Z", "html_url": "https://github.com/acme/widgets/issues/12#issuecomment-9"}`}, nil
	}}
	client := newTestClient(testInstance, executor)

	createdComment, addError := client.AddIssueComment(context.Background(), testRepositoryConstant, 12, "Work started")
	require.NoError(testInstance, addError)
	require.Equal(testInstance, int64(9), createdComment.Identifier)
	require.Equal(testInstance, "operator", createdComment.Author)

	recordedDetails := executor.recordedDetails[0]
	require.Equal(testInstance, "repos/acme/widgets/issues/12/comments", recordedDetails.Arguments[1])
	require.Equal(testInstance, "POST", recordedDetails.Arguments[3])

	requestBody := map[string]any{}
	require.NoError(testInstance, json.Unmarshal(recordedDetails.StandardInput, &requestBody))
	require.Equal(testInstance, "Work started", requestBody["body"])

	_, blankBodyError := client.AddIssueComment(context.Background(), testRepositoryConstant, 12, "   ")
	require.IsType(testInstance, githubapi.InvalidInputError{}, blankBodyError)
}

func TestListIssueComments(testInstance *testing.T) {
	testCases := []struct {
		name            string
		limit           int
		expectedAuthors []string
	}{
		{
			name:            "limit_keeps_most_recent_comments",
			limit:           2,
			expectedAuthors: []string{"reviewer", "operator"},
		},
		{
			name:            "limit_above_total_returns_everything",
			limit:           10,
			expectedAuthors: []string{"operator", "reviewer", "operator"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			executor := &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testCommentListResponseConstant}, nil
			}}
			client := newTestClient(subTest, executor)

			comments, listError := client.ListIssueComments(context.Background(), testRepositoryConstant, 12, testCase.limit)
			require.NoError(subTest, listError)
			require.Len(subTest, comments, len(testCase.expectedAuthors))
			for commentIndex, expectedAuthor := range testCase.expectedAuthors {
				require.Equal(subTest, expectedAuthor, comments[commentIndex].Author)
			}
			require.Equal(subTest, "repos/acme/widgets/issues/12/comments?per_page=100", executor.recordedDetails[0].Arguments[1])
		})
	}

	client := newTestClient(testInstance, &stubGitHubExecutor{})
	_, invalidLimitError := client.ListIssueComments(context.Background(), testRepositoryConstant, 12, 0)
	require.IsType(testInstance, githubapi.InvalidInputError{}, invalidLimitError)
}
