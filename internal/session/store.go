package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	stateFileNameTemplateConstant     = "issue-%d.json"
	archiveFileNameTemplateConstant   = "issue-%d-%s.json"
	archiveDirectoryNameConstant      = "archive"
	archiveTimestampLayoutConstant    = "20060102-150405"
	temporaryFilePatternConstant      = "issue-*.json.tmp"
	stateFilePermissionsConstant      = 0o644
	stateDirectoryPermissionsConstant = 0o755
	notFoundMessageTemplateConstant   = "no work session state found for issue #%d at %s"
	futureVersionTemplateConstant     = "work session state for issue #%d uses schema version %d, newer than the supported version %d"
	readFailureTemplateConstant       = "failed to read work session state: %w"
	decodeFailureTemplateConstant     = "failed to decode work session state at %s: %w"
	encodeFailureTemplateConstant     = "failed to encode work session state: %w"
	writeFailureTemplateConstant      = "failed to write work session state: %w"
	archiveFailureTemplateConstant    = "failed to archive work session state: %w"
)

// ErrStateDirectoryRequired indicates the store was built without a directory.
var ErrStateDirectoryRequired = errors.New("session store requires a state directory")

// NotFoundError reports a missing state document for an issue.
type NotFoundError struct {
	IssueNumber int
	Path        string
}

// Error satisfies the error interface.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(notFoundMessageTemplateConstant, notFoundError.IssueNumber, notFoundError.Path)
}

// FutureVersionError reports a document written by a newer build.
type FutureVersionError struct {
	IssueNumber   int
	SchemaVersion int
}

// Error satisfies the error interface.
func (versionError FutureVersionError) Error() string {
	return fmt.Sprintf(futureVersionTemplateConstant, versionError.IssueNumber, versionError.SchemaVersion, CurrentSchemaVersion)
}

// Store persists work session records under the state directory.
// Writes are last-writer-wins; there is no locking.
type Store struct {
	stateDirectory string
	clock          func() time.Time
}

// NewStore builds a store rooted at the state directory.
func NewStore(stateDirectory string) (*Store, error) {
	trimmedDirectory := strings.TrimSpace(stateDirectory)
	if len(trimmedDirectory) == 0 {
		return nil, ErrStateDirectoryRequired
	}
	return &Store{stateDirectory: trimmedDirectory, clock: func() time.Time { return time.Now().UTC() }}, nil
}

// NewStoreWithClock builds a store with an injected clock for tests.
func NewStoreWithClock(stateDirectory string, clock func() time.Time) (*Store, error) {
	store, creationError := NewStore(stateDirectory)
	if creationError != nil {
		return nil, creationError
	}
	if clock != nil {
		store.clock = clock
	}
	return store, nil
}

// StatePath returns the active document path for an issue.
func (store *Store) StatePath(issueNumber int) string {
	return filepath.Join(store.stateDirectory, fmt.Sprintf(stateFileNameTemplateConstant, issueNumber))
}

// ArchiveDirectory returns the directory archived documents move into.
func (store *Store) ArchiveDirectory() string {
	return filepath.Join(store.stateDirectory, archiveDirectoryNameConstant)
}

// Load reads and migrates the state document for an issue. A missing
// document is a NotFoundError; a document from a newer build is a
// FutureVersionError.
func (store *Store) Load(issueNumber int) (Record, error) {
	statePath := store.StatePath(issueNumber)
	stateContent, readError := os.ReadFile(statePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return Record{}, NotFoundError{IssueNumber: issueNumber, Path: statePath}
		}
		return Record{}, fmt.Errorf(readFailureTemplateConstant, readError)
	}

	loadedRecord := Record{}
	if decodeError := json.Unmarshal(stateContent, &loadedRecord); decodeError != nil {
		return Record{}, fmt.Errorf(decodeFailureTemplateConstant, statePath, decodeError)
	}
	if loadedRecord.SchemaVersion > CurrentSchemaVersion {
		return Record{}, FutureVersionError{IssueNumber: issueNumber, SchemaVersion: loadedRecord.SchemaVersion}
	}
	loadedRecord.migrate()
	return loadedRecord, nil
}

// Save writes the record atomically via a temporary file and rename,
// stamping updated_at with the store clock.
func (store *Store) Save(record *Record) error {
	if directoryError := os.MkdirAll(store.stateDirectory, stateDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(writeFailureTemplateConstant, directoryError)
	}

	record.UpdatedAt = store.clock()
	encodedRecord, encodeError := json.MarshalIndent(record, "", "  ")
	if encodeError != nil {
		return fmt.Errorf(encodeFailureTemplateConstant, encodeError)
	}

	temporaryFile, temporaryError := os.CreateTemp(store.stateDirectory, temporaryFilePatternConstant)
	if temporaryError != nil {
		return fmt.Errorf(writeFailureTemplateConstant, temporaryError)
	}
	temporaryPath := temporaryFile.Name()
	if _, writeError := temporaryFile.Write(append(encodedRecord, '\n')); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf(writeFailureTemplateConstant, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeFailureTemplateConstant, closeError)
	}
	if permissionError := os.Chmod(temporaryPath, stateFilePermissionsConstant); permissionError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeFailureTemplateConstant, permissionError)
	}
	if renameError := os.Rename(temporaryPath, store.StatePath(record.IssueNumber)); renameError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeFailureTemplateConstant, renameError)
	}
	return nil
}

// Archive moves the active document into the archive directory and returns
// the archived path. The active path no longer exists afterwards.
func (store *Store) Archive(issueNumber int) (string, error) {
	statePath := store.StatePath(issueNumber)
	if _, statError := os.Stat(statePath); statError != nil {
		if os.IsNotExist(statError) {
			return "", NotFoundError{IssueNumber: issueNumber, Path: statePath}
		}
		return "", fmt.Errorf(archiveFailureTemplateConstant, statError)
	}

	archiveDirectory := store.ArchiveDirectory()
	if directoryError := os.MkdirAll(archiveDirectory, stateDirectoryPermissionsConstant); directoryError != nil {
		return "", fmt.Errorf(archiveFailureTemplateConstant, directoryError)
	}

	archiveName := fmt.Sprintf(archiveFileNameTemplateConstant, issueNumber, store.clock().Format(archiveTimestampLayoutConstant))
	archivePath := filepath.Join(archiveDirectory, archiveName)
	if renameError := os.Rename(statePath, archivePath); renameError != nil {
		return "", fmt.Errorf(archiveFailureTemplateConstant, renameError)
	}
	return archivePath, nil
}
