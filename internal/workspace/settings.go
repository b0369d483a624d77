package workspace

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultStateDirectoryConstant is the work-session state root inside the repository.
	DefaultStateDirectoryConstant = ".claude"
	// DefaultWorkBranchNameConstant is the shared WIP branch used by work sessions.
	DefaultWorkBranchNameConstant = "boss-wip"
	// DefaultBaseBranchNameConstant is the pull request base branch.
	DefaultBaseBranchNameConstant = "main"
	// DefaultStatusLabelPrefixConstant prefixes mirrored status labels.
	DefaultStatusLabelPrefixConstant = "status:"
	// DefaultTokenEnvironmentVariableConstant names the token environment variable.
	DefaultTokenEnvironmentVariableConstant = "GITHUB_TOKEN"

	repositorySlugSeparatorConstant          = "/"
	repositoryFieldNameConstant              = "workspace.repository"
	tokenMethodFieldNameConstant             = "workspace.token.method"
	tokenEnvironmentFieldNameConstant        = "workspace.token.environment_variable"
	tokenFilePathFieldNameConstant           = "workspace.token.file_path"
	tokenSecretResourceFieldNameConstant     = "workspace.token.secret_resource"
	boardProjectFieldNameConstant            = "workspace.board.project_identifier"
	boardStatusFieldNameConstant             = "workspace.board.fields.status"
	boardPriorityFieldNameConstant           = "workspace.board.fields.priority"
	boardSizeFieldNameConstant               = "workspace.board.fields.size"
	boardEstimateFieldNameConstant           = "workspace.board.fields.estimate"
	settingsValidationErrorTemplateConstant  = "%s: %s"
	repositorySlugRequiredMessageConstant    = "repository slug must be provided"
	repositorySlugInvalidMessageConstant     = "repository slug must use the owner/name form"
	tokenMethodUnknownTemplateConstant       = "unknown token method %q (choose one of %s)"
	tokenEnvironmentRequiredMessageConstant  = "environment variable name must be provided for the environment token method"
	tokenFilePathRequiredMessageConstant     = "token file path must be provided for the file token method"
	tokenSecretRequiredMessageConstant       = "secret resource must be provided for the secret-manager token method"
	boardIdentifierRequiredMessageConstant   = "identifier must be configured before board commands can run; run gwm setup"
	boardOptionsRequiredTemplateConstant     = "option identifiers must be configured for %s; run gwm setup"
	tokenMethodEnvironmentStringConstant     = "environment"
	tokenMethodFileStringConstant            = "file"
	tokenMethodSecretManagerStringConstant   = "secret-manager"
	tokenMethodChoiceSeparatorConstant       = "|"
)

var repositorySlugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)

// TokenMethod selects how the GitHub token is resolved.
type TokenMethod string

// Supported token resolution methods.
const (
	TokenMethodEnvironment   TokenMethod = TokenMethod(tokenMethodEnvironmentStringConstant)
	TokenMethodFile          TokenMethod = TokenMethod(tokenMethodFileStringConstant)
	TokenMethodSecretManager TokenMethod = TokenMethod(tokenMethodSecretManagerStringConstant)
)

// TokenMethodNames lists the accepted token method spellings.
func TokenMethodNames() []string {
	return []string{
		tokenMethodEnvironmentStringConstant,
		tokenMethodFileStringConstant,
		tokenMethodSecretManagerStringConstant,
	}
}

// ParseTokenMethod validates a textual token method selection.
func ParseTokenMethod(candidate string) (TokenMethod, error) {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	switch TokenMethod(normalizedCandidate) {
	case TokenMethodEnvironment, TokenMethodFile, TokenMethodSecretManager:
		return TokenMethod(normalizedCandidate), nil
	default:
		return TokenMethod(""), SettingsValidationError{
			Field:   tokenMethodFieldNameConstant,
			Message: fmt.Sprintf(tokenMethodUnknownTemplateConstant, candidate, strings.Join(TokenMethodNames(), tokenMethodChoiceSeparatorConstant)),
		}
	}
}

// SettingsValidationError reports an unusable configuration value.
type SettingsValidationError struct {
	Field   string
	Message string
}

// Error describes the invalid configuration field.
func (validationError SettingsValidationError) Error() string {
	return fmt.Sprintf(settingsValidationErrorTemplateConstant, validationError.Field, validationError.Message)
}

// BranchSettings configures the branches used by work sessions and pull requests.
type BranchSettings struct {
	Name string `mapstructure:"name"`
	Base string `mapstructure:"base"`
}

// TokenSettings configures GitHub token resolution.
type TokenSettings struct {
	Method              string `mapstructure:"method"`
	EnvironmentVariable string `mapstructure:"environment_variable"`
	FilePath            string `mapstructure:"file_path"`
	SecretResource      string `mapstructure:"secret_resource"`
}

// BoardFieldSettings identifies one project field and its option identifiers.
type BoardFieldSettings struct {
	FieldIdentifier string            `mapstructure:"field_identifier"`
	Options         map[string]string `mapstructure:"options"`
}

// OptionIdentifier resolves the configured option id for an option name.
// Matching ignores case so keyword parsing and board names stay aligned.
func (fieldSettings BoardFieldSettings) OptionIdentifier(optionName string) (string, bool) {
	trimmedOptionName := strings.TrimSpace(optionName)
	for configuredName, optionIdentifier := range fieldSettings.Options {
		if strings.EqualFold(configuredName, trimmedOptionName) {
			return optionIdentifier, true
		}
	}
	return "", false
}

// BoardFieldsSettings groups the project fields managed by workflow commands.
type BoardFieldsSettings struct {
	Status   BoardFieldSettings `mapstructure:"status"`
	Priority BoardFieldSettings `mapstructure:"priority"`
	Size     BoardFieldSettings `mapstructure:"size"`
	Estimate BoardFieldSettings `mapstructure:"estimate"`
}

// BoardSettings identifies the ProjectV2 board and its fields.
type BoardSettings struct {
	ProjectIdentifier string              `mapstructure:"project_identifier"`
	Fields            BoardFieldsSettings `mapstructure:"fields"`
}

// LabelSettings configures optional status label mirroring.
type LabelSettings struct {
	SynchronizeStatus bool   `mapstructure:"synchronize_status"`
	StatusPrefix      string `mapstructure:"status_prefix"`
}

// Settings captures the workspace section of the configuration file.
type Settings struct {
	Repository     string         `mapstructure:"repository"`
	StateDirectory string         `mapstructure:"state_directory"`
	Branch         BranchSettings `mapstructure:"branch"`
	Token          TokenSettings  `mapstructure:"token"`
	Board          BoardSettings  `mapstructure:"board"`
	Labels         LabelSettings  `mapstructure:"labels"`
}

// Normalized returns a copy of the settings with defaults applied to empty values.
func (settings Settings) Normalized() Settings {
	normalizedSettings := settings
	normalizedSettings.Repository = strings.TrimSpace(settings.Repository)
	if len(strings.TrimSpace(normalizedSettings.StateDirectory)) == 0 {
		normalizedSettings.StateDirectory = DefaultStateDirectoryConstant
	}
	if len(strings.TrimSpace(normalizedSettings.Branch.Name)) == 0 {
		normalizedSettings.Branch.Name = DefaultWorkBranchNameConstant
	}
	if len(strings.TrimSpace(normalizedSettings.Branch.Base)) == 0 {
		normalizedSettings.Branch.Base = DefaultBaseBranchNameConstant
	}
	if len(strings.TrimSpace(normalizedSettings.Token.EnvironmentVariable)) == 0 {
		normalizedSettings.Token.EnvironmentVariable = DefaultTokenEnvironmentVariableConstant
	}
	if len(strings.TrimSpace(normalizedSettings.Labels.StatusPrefix)) == 0 {
		normalizedSettings.Labels.StatusPrefix = DefaultStatusLabelPrefixConstant
	}
	return normalizedSettings
}

// Validate checks the settings required by every command.
func (settings Settings) Validate() error {
	trimmedRepository := strings.TrimSpace(settings.Repository)
	if len(trimmedRepository) == 0 {
		return SettingsValidationError{Field: repositoryFieldNameConstant, Message: repositorySlugRequiredMessageConstant}
	}
	if !repositorySlugPattern.MatchString(trimmedRepository) {
		return SettingsValidationError{Field: repositoryFieldNameConstant, Message: repositorySlugInvalidMessageConstant}
	}

	tokenMethod, tokenMethodError := ParseTokenMethod(settings.Token.Method)
	if tokenMethodError != nil {
		return tokenMethodError
	}
	switch tokenMethod {
	case TokenMethodEnvironment:
		if len(strings.TrimSpace(settings.Token.EnvironmentVariable)) == 0 {
			return SettingsValidationError{Field: tokenEnvironmentFieldNameConstant, Message: tokenEnvironmentRequiredMessageConstant}
		}
	case TokenMethodFile:
		if len(strings.TrimSpace(settings.Token.FilePath)) == 0 {
			return SettingsValidationError{Field: tokenFilePathFieldNameConstant, Message: tokenFilePathRequiredMessageConstant}
		}
	case TokenMethodSecretManager:
		if len(strings.TrimSpace(settings.Token.SecretResource)) == 0 {
			return SettingsValidationError{Field: tokenSecretResourceFieldNameConstant, Message: tokenSecretRequiredMessageConstant}
		}
	}

	return nil
}

// ValidateBoard checks the identifiers required by board-touching commands.
func (settings Settings) ValidateBoard() error {
	if len(strings.TrimSpace(settings.Board.ProjectIdentifier)) == 0 {
		return SettingsValidationError{Field: boardProjectFieldNameConstant, Message: boardIdentifierRequiredMessageConstant}
	}

	fieldChecks := []struct {
		fieldName       string
		fieldSettings   BoardFieldSettings
		requiresOptions bool
	}{
		{fieldName: boardStatusFieldNameConstant, fieldSettings: settings.Board.Fields.Status, requiresOptions: true},
		{fieldName: boardPriorityFieldNameConstant, fieldSettings: settings.Board.Fields.Priority, requiresOptions: true},
		{fieldName: boardSizeFieldNameConstant, fieldSettings: settings.Board.Fields.Size, requiresOptions: true},
		{fieldName: boardEstimateFieldNameConstant, fieldSettings: settings.Board.Fields.Estimate, requiresOptions: false},
	}
	for _, fieldCheck := range fieldChecks {
		if len(strings.TrimSpace(fieldCheck.fieldSettings.FieldIdentifier)) == 0 {
			return SettingsValidationError{Field: fieldCheck.fieldName, Message: boardIdentifierRequiredMessageConstant}
		}
		if fieldCheck.requiresOptions && len(fieldCheck.fieldSettings.Options) == 0 {
			return SettingsValidationError{Field: fieldCheck.fieldName, Message: fmt.Sprintf(boardOptionsRequiredTemplateConstant, fieldCheck.fieldName)}
		}
	}

	return nil
}

// OwnerAndName splits the repository slug into its owner and name components.
func (settings Settings) OwnerAndName() (string, string, error) {
	trimmedRepository := strings.TrimSpace(settings.Repository)
	if !repositorySlugPattern.MatchString(trimmedRepository) {
		return "", "", SettingsValidationError{Field: repositoryFieldNameConstant, Message: repositorySlugInvalidMessageConstant}
	}
	slugComponents := strings.SplitN(trimmedRepository, repositorySlugSeparatorConstant, 2)
	return slugComponents[0], slugComponents[1], nil
}
