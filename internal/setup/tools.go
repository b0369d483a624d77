package setup

import (
	"fmt"
	"os/exec"
)

const (
	gitToolNameConstant              = "git"
	githubCLIToolNameConstant        = "gh"
	gitInstallHintConstant           = "install git from https://git-scm.com/downloads"
	githubCLIInstallHintConstant     = "install the GitHub CLI from https://cli.github.com"
	missingToolErrorTemplateConstant = "required tool %q is not on PATH: %s"
)

// ToolLookup locates an executable on PATH, matching exec.LookPath.
type ToolLookup func(toolName string) (string, error)

// MissingToolError indicates a required executable is not installed.
type MissingToolError struct {
	ToolName    string
	InstallHint string
}

// Error names the missing tool and how to install it.
func (toolError MissingToolError) Error() string {
	return fmt.Sprintf(missingToolErrorTemplateConstant, toolError.ToolName, toolError.InstallHint)
}

// RequiredTool describes one executable the commands shell out to.
type RequiredTool struct {
	Name        string
	InstallHint string
}

// RequiredTools lists the executables every command depends on.
func RequiredTools() []RequiredTool {
	return []RequiredTool{
		{Name: gitToolNameConstant, InstallHint: gitInstallHintConstant},
		{Name: githubCLIToolNameConstant, InstallHint: githubCLIInstallHintConstant},
	}
}

// CheckRequiredTools verifies git and gh resolve through the supplied lookup.
func CheckRequiredTools(lookup ToolLookup) error {
	if lookup == nil {
		lookup = exec.LookPath
	}
	for _, requiredTool := range RequiredTools() {
		if _, lookupError := lookup(requiredTool.Name); lookupError != nil {
			return MissingToolError{ToolName: requiredTool.Name, InstallHint: requiredTool.InstallHint}
		}
	}
	return nil
}
