package session

import (
	"sort"
	"strings"
	"time"
)

const (
	// CurrentSchemaVersion is the record layout this build reads and writes.
	CurrentSchemaVersion = 1

	legacySchemaVersionConstant = 0
)

// RecordStatus tracks where the persisted work session stands.
type RecordStatus string

const (
	RecordStatusInProgress RecordStatus = "in_progress"
	RecordStatusInReview   RecordStatus = "in_review"
)

// WorkLogEntry is one appended line of the session work log.
type WorkLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
}

// Record is the versioned per-issue work session document.
type Record struct {
	SchemaVersion     int            `json:"schema_version"`
	IssueNumber       int            `json:"issue_number"`
	Title             string         `json:"title"`
	Branch            string         `json:"branch"`
	PullRequestNumber int            `json:"pull_request_number,omitempty"`
	Status            RecordStatus   `json:"status"`
	StartedAt         time.Time      `json:"started_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	WorkLog           []WorkLogEntry `json:"work_log"`
	ModifiedFiles     []string       `json:"modified_files"`
	NextSteps         []string       `json:"next_steps"`
	TestInstructions  string         `json:"test_instructions,omitempty"`
}

// NewRecord builds a version 1 record for a freshly started session.
func NewRecord(issueNumber int, issueTitle string, branchName string, startedAt time.Time) Record {
	return Record{
		SchemaVersion: CurrentSchemaVersion,
		IssueNumber:   issueNumber,
		Title:         issueTitle,
		Branch:        branchName,
		Status:        RecordStatusInProgress,
		StartedAt:     startedAt,
		UpdatedAt:     startedAt,
		WorkLog:       []WorkLogEntry{},
		ModifiedFiles: []string{},
		NextSteps:     []string{},
	}
}

// AppendWorkLog adds one log entry. The log only ever grows.
func (record *Record) AppendWorkLog(timestamp time.Time, action string) {
	record.WorkLog = append(record.WorkLog, WorkLogEntry{Timestamp: timestamp, Action: action})
	record.UpdatedAt = timestamp
}

// RecordModifiedFiles merges paths into the modified file set without
// duplicates. The stored order is sorted so rewrites stay stable.
func (record *Record) RecordModifiedFiles(paths ...string) {
	knownPaths := map[string]bool{}
	for _, existingPath := range record.ModifiedFiles {
		knownPaths[existingPath] = true
	}
	for _, candidatePath := range paths {
		trimmedPath := strings.TrimSpace(candidatePath)
		if len(trimmedPath) == 0 || knownPaths[trimmedPath] {
			continue
		}
		knownPaths[trimmedPath] = true
		record.ModifiedFiles = append(record.ModifiedFiles, trimmedPath)
	}
	sort.Strings(record.ModifiedFiles)
}

// AddNextStep appends a pending follow-up unless already listed.
func (record *Record) AddNextStep(step string) {
	trimmedStep := strings.TrimSpace(step)
	if len(trimmedStep) == 0 {
		return
	}
	for _, existingStep := range record.NextSteps {
		if existingStep == trimmedStep {
			return
		}
	}
	record.NextSteps = append(record.NextSteps, trimmedStep)
}

// SetTestInstructions replaces the stored test instructions.
func (record *Record) SetTestInstructions(instructions string) {
	record.TestInstructions = strings.TrimSpace(instructions)
}

// migrate upgrades older layouts to the current schema version. Version 0
// documents predate updated_at, so the newest known timestamp stands in.
func (record *Record) migrate() {
	if record.SchemaVersion != legacySchemaVersionConstant {
		return
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.StartedAt
		for _, logEntry := range record.WorkLog {
			if logEntry.Timestamp.After(record.UpdatedAt) {
				record.UpdatedAt = logEntry.Timestamp
			}
		}
	}
	record.SchemaVersion = CurrentSchemaVersion
}
