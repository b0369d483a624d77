package setup

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

const (
	promptRequiredErrorTemplateConstant = "step %q needs interactive input; rerun without --non-interactive"
)

// Choice pairs a display label with the value a selection yields.
type Choice struct {
	Label string
	Value string
}

// Prompter gathers answers from the operator running the wizard.
type Prompter interface {
	Confirm(title string, description string, defaultValue bool) (bool, error)
	Input(title string, description string, defaultValue string) (string, error)
	Secret(title string, description string) (string, error)
	Select(title string, choices []Choice) (string, error)
}

// PromptRequiredError indicates a wizard step needed input while prompts were disabled.
type PromptRequiredError struct {
	Step string
}

// Error names the step that required interaction.
func (promptError PromptRequiredError) Error() string {
	return fmt.Sprintf(promptRequiredErrorTemplateConstant, promptError.Step)
}

type formPrompter struct{}

// NewFormPrompter returns a Prompter backed by terminal forms.
func NewFormPrompter() Prompter {
	return formPrompter{}
}

func (formPrompter) Confirm(title string, description string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	confirmForm := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Value(&confirmed),
	))
	if runError := confirmForm.Run(); runError != nil {
		return false, runError
	}
	return confirmed, nil
}

func (formPrompter) Input(title string, description string, defaultValue string) (string, error) {
	answer := defaultValue
	inputForm := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Description(description).
			Value(&answer),
	))
	if runError := inputForm.Run(); runError != nil {
		return "", runError
	}
	return answer, nil
}

func (formPrompter) Secret(title string, description string) (string, error) {
	answer := ""
	secretForm := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Description(description).
			EchoMode(huh.EchoModePassword).
			Value(&answer),
	))
	if runError := secretForm.Run(); runError != nil {
		return "", runError
	}
	return answer, nil
}

func (formPrompter) Select(title string, choices []Choice) (string, error) {
	selectOptions := make([]huh.Option[string], 0, len(choices))
	for _, choice := range choices {
		selectOptions = append(selectOptions, huh.NewOption(choice.Label, choice.Value))
	}
	selected := ""
	selectForm := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(selectOptions...).
			Value(&selected),
	))
	if runError := selectForm.Run(); runError != nil {
		return "", runError
	}
	return selected, nil
}

type nonInteractivePrompter struct{}

// NewNonInteractivePrompter returns a Prompter that fails whenever a prompt
// would be shown, naming the prompt in the error.
func NewNonInteractivePrompter() Prompter {
	return nonInteractivePrompter{}
}

func (nonInteractivePrompter) Confirm(title string, _ string, _ bool) (bool, error) {
	return false, PromptRequiredError{Step: title}
}

func (nonInteractivePrompter) Input(title string, _ string, _ string) (string, error) {
	return "", PromptRequiredError{Step: title}
}

func (nonInteractivePrompter) Secret(title string, _ string) (string, error) {
	return "", PromptRequiredError{Step: title}
}

func (nonInteractivePrompter) Select(title string, _ []Choice) (string, error) {
	return "", PromptRequiredError{Step: title}
}
