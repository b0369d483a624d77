package setup_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/setup"
)

const toolsSubtestNameTemplate = "%d_%s"

func TestCheckRequiredTools(testInstance *testing.T) {
	testCases := []struct {
		name            string
		missingTool     string
		expectedMissing string
	}{
		{name: "all tools present"},
		{name: "git missing", missingTool: "git", expectedMissing: "git"},
		{name: "gh missing", missingTool: "gh", expectedMissing: "gh"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(toolsSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			lookup := func(toolName string) (string, error) {
				if toolName == testCase.missingTool {
					return "", errors.New("not found")
				}
				return "/usr/bin/" + toolName, nil
			}

			checkError := setup.CheckRequiredTools(lookup)
			if len(testCase.expectedMissing) == 0 {
				require.NoError(testInstance, checkError)
				return
			}
			missingToolFailure := setup.MissingToolError{}
			require.ErrorAs(testInstance, checkError, &missingToolFailure)
			require.Equal(testInstance, testCase.expectedMissing, missingToolFailure.ToolName)
			require.NotEmpty(testInstance, missingToolFailure.InstallHint)
		})
	}
}
