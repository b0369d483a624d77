package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

const (
	outputModeHumanStringConstant          = "human"
	outputModeMachineStringConstant        = "machine"
	outputModeJSONAliasStringConstant      = "json"
	unsupportedOutputModeTemplateConstant  = "unsupported output mode: %s"
	successPrefixLabelConstant             = "[ok]"
	warningPrefixLabelConstant             = "[warn]"
	failurePrefixLabelConstant             = "[error]"
	informationPrefixLabelConstant         = "[info]"
	successColorHexConstant                = "#6BCB77"
	warningColorHexConstant                = "#FFD93D"
	failureColorHexConstant                = "#FF6B6B"
	informationColorHexConstant            = "#5B8DEF"
	humanLineTemplateConstant              = "%s %s\n"
	machineRecordLevelSuccessConstant      = "ok"
	machineRecordLevelWarningConstant      = "warn"
	machineRecordLevelFailureConstant      = "error"
	machineRecordLevelInformationConstant  = "info"
	machineRecordTimestampLayoutConstant   = time.RFC3339
	machineRecordFallbackTemplateConstant  = `{"run_id":%q,"level":%q,"message":%q}` + "\n"
	printerDefaultEventNameConstant        = "message"
)

// OutputMode selects between human-readable and machine-readable result rendering.
type OutputMode string

// Supported output modes.
const (
	OutputModeHuman   OutputMode = OutputMode(outputModeHumanStringConstant)
	OutputModeMachine OutputMode = OutputMode(outputModeMachineStringConstant)
)

// OutputModeNames lists the accepted output mode spellings.
func OutputModeNames() []string {
	return []string{outputModeHumanStringConstant, outputModeJSONAliasStringConstant}
}

// ParseOutputMode validates a textual output mode selection.
func ParseOutputMode(candidate string) (OutputMode, error) {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	switch OutputMode(normalizedCandidate) {
	case OutputModeHuman:
		return OutputModeHuman, nil
	case OutputModeMachine, OutputMode(outputModeJSONAliasStringConstant):
		return OutputModeMachine, nil
	case OutputMode(emptyStringConstant):
		return OutputModeHuman, nil
	default:
		return OutputMode(emptyStringConstant), fmt.Errorf(unsupportedOutputModeTemplateConstant, candidate)
	}
}

type machineRecord struct {
	RunIdentifier string         `json:"run_id"`
	Timestamp     string         `json:"time"`
	Level         string         `json:"level"`
	Event         string         `json:"event"`
	Message       string         `json:"message"`
	Data          map[string]any `json:"data,omitempty"`
}

// Printer renders workflow results for people or for scripts.
//
// Human mode prefixes each line with a colored status marker. Machine mode
// emits one JSON object per line carrying a run identifier so scripted
// callers can correlate every record produced by a single invocation.
type Printer struct {
	destination   io.Writer
	outputMode    OutputMode
	runIdentifier string
	clock         func() time.Time
	successStyle  lipgloss.Style
	warningStyle  lipgloss.Style
	failureStyle  lipgloss.Style
	infoStyle     lipgloss.Style
}

// NewPrinter constructs a Printer targeting the provided writer.
func NewPrinter(destination io.Writer, outputMode OutputMode) *Printer {
	if destination == nil {
		destination = io.Discard
	}
	return &Printer{
		destination:   destination,
		outputMode:    outputMode,
		runIdentifier: uuid.New().String(),
		clock:         time.Now,
		successStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(successColorHexConstant)),
		warningStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(warningColorHexConstant)),
		failureStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(failureColorHexConstant)),
		infoStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color(informationColorHexConstant)),
	}
}

// RunIdentifier exposes the identifier stamped on machine-readable records.
func (printer *Printer) RunIdentifier() string {
	return printer.runIdentifier
}

// OutputMode reports the rendering mode selected at construction.
func (printer *Printer) OutputMode() OutputMode {
	return printer.outputMode
}

// Success reports a completed operation.
func (printer *Printer) Success(message string) {
	printer.emit(machineRecordLevelSuccessConstant, printerDefaultEventNameConstant, message, nil, printer.successStyle, successPrefixLabelConstant)
}

// Warning reports a non-fatal degradation.
func (printer *Printer) Warning(message string) {
	printer.emit(machineRecordLevelWarningConstant, printerDefaultEventNameConstant, message, nil, printer.warningStyle, warningPrefixLabelConstant)
}

// Failure reports an operation that did not complete.
func (printer *Printer) Failure(message string) {
	printer.emit(machineRecordLevelFailureConstant, printerDefaultEventNameConstant, message, nil, printer.failureStyle, failurePrefixLabelConstant)
}

// Info reports neutral progress detail.
func (printer *Printer) Info(message string) {
	printer.emit(machineRecordLevelInformationConstant, printerDefaultEventNameConstant, message, nil, printer.infoStyle, informationPrefixLabelConstant)
}

// Event reports a named result with a structured payload. Human mode renders
// only the message; machine mode carries the payload verbatim.
func (printer *Printer) Event(eventName string, message string, payload map[string]any) {
	printer.emit(machineRecordLevelSuccessConstant, eventName, message, payload, printer.successStyle, successPrefixLabelConstant)
}

// Line writes an unadorned result line. Machine mode wraps it in an info record.
func (printer *Printer) Line(message string) {
	if printer.outputMode == OutputModeMachine {
		printer.emit(machineRecordLevelInformationConstant, printerDefaultEventNameConstant, message, nil, printer.infoStyle, informationPrefixLabelConstant)
		return
	}
	fmt.Fprintln(printer.destination, message)
}

func (printer *Printer) emit(level string, eventName string, message string, payload map[string]any, style lipgloss.Style, prefixLabel string) {
	if printer.outputMode == OutputModeMachine {
		record := machineRecord{
			RunIdentifier: printer.runIdentifier,
			Timestamp:     printer.clock().UTC().Format(machineRecordTimestampLayoutConstant),
			Level:         level,
			Event:         eventName,
			Message:       message,
			Data:          payload,
		}
		encodedRecord, encodeError := json.Marshal(record)
		if encodeError != nil {
			fmt.Fprintf(printer.destination, machineRecordFallbackTemplateConstant, printer.runIdentifier, level, message)
			return
		}
		fmt.Fprintf(printer.destination, "%s\n", encodedRecord)
		return
	}
	fmt.Fprintf(printer.destination, humanLineTemplateConstant, style.Render(prefixLabel), message)
}
