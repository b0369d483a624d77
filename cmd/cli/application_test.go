package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/cmd/cli"
)

const (
	configurationFixtureConstant = `common:
  log_level: error
workspace:
  repository: acme/widgets
  token:
    method: environment
    environment_variable: ACME_TOKEN
`
)

func writeConfigurationFixture(testInstance *testing.T) string {
	testInstance.Helper()
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationFixtureConstant), 0o644))
	return configurationPath
}

func executeApplication(testInstance *testing.T, arguments ...string) (string, error) {
	testInstance.Helper()
	application := cli.NewApplication()
	outputBuffer := &bytes.Buffer{}
	rootCommand := application.RootCommand()
	rootCommand.SetOut(outputBuffer)
	rootCommand.SetErr(outputBuffer)
	rootCommand.SetArgs(arguments)
	executionError := application.Execute()
	return outputBuffer.String(), executionError
}

func TestApplicationShowsHelpWithoutArguments(testInstance *testing.T) {
	output, executionError := executeApplication(testInstance, "--config", writeConfigurationFixture(testInstance))
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "gwm")
	require.Contains(testInstance, output, "issue")
	require.Contains(testInstance, output, "work")
}

func TestApplicationRejectsUnknownOutputMode(testInstance *testing.T) {
	_, executionError := executeApplication(testInstance,
		"--config", writeConfigurationFixture(testInstance),
		"--output", "xml",
		"status", "show", "7")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unsupported output mode")
}

func TestApplicationRejectsInvalidLogLevel(testInstance *testing.T) {
	_, executionError := executeApplication(testInstance,
		"--config", writeConfigurationFixture(testInstance),
		"--log-level", "verbose")
	require.Error(testInstance, executionError)
}

func TestApplicationFailsFastOnMissingRepository(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte("common:\n  log_level: error\n"), 0o644))

	_, executionError := executeApplication(testInstance,
		"--config", configurationPath,
		"status", "show", "7")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "workspace.repository")
}
