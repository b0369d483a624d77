package session_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/session"
)

var testClockTime = time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

func newTestStore(testInstance *testing.T) (*session.Store, string) {
	stateDirectory := filepath.Join(testInstance.TempDir(), ".claude")
	store, creationError := session.NewStoreWithClock(stateDirectory, func() time.Time { return testClockTime })
	require.NoError(testInstance, creationError)
	return store, stateDirectory
}

func TestNewStoreValidation(testInstance *testing.T) {
	_, creationError := session.NewStore("   ")
	require.ErrorIs(testInstance, creationError, session.ErrStateDirectoryRequired)
}

func TestSaveAndLoadRoundTrip(testInstance *testing.T) {
	store, stateDirectory := newTestStore(testInstance)

	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime.Add(-time.Hour))
	record.AppendWorkLog(testClockTime.Add(-time.Hour), "work session started")
	record.RecordModifiedFiles("internal/watcher/watcher.go", "internal/watcher/watcher_test.go")
	record.AddNextStep("verify reconnect path")
	record.SetTestInstructions("go test ./internal/watcher")
	record.PullRequestNumber = 7

	require.NoError(testInstance, store.Save(&record))
	require.Equal(testInstance, testClockTime, record.UpdatedAt)

	savedInfo, statError := os.Stat(filepath.Join(stateDirectory, "issue-42.json"))
	require.NoError(testInstance, statError)
	require.Equal(testInstance, os.FileMode(0o644), savedInfo.Mode().Perm())

	loadedRecord, loadError := store.Load(42)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, session.CurrentSchemaVersion, loadedRecord.SchemaVersion)
	require.Equal(testInstance, "Fix flaky watcher", loadedRecord.Title)
	require.Equal(testInstance, session.RecordStatusInProgress, loadedRecord.Status)
	require.Equal(testInstance, 7, loadedRecord.PullRequestNumber)
	require.Len(testInstance, loadedRecord.WorkLog, 1)
	require.Equal(testInstance, []string{"internal/watcher/watcher.go", "internal/watcher/watcher_test.go"}, loadedRecord.ModifiedFiles)
	require.Equal(testInstance, []string{"verify reconnect path"}, loadedRecord.NextSteps)
	require.Equal(testInstance, "go test ./internal/watcher", loadedRecord.TestInstructions)
}

func TestLoadMissingRecord(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)

	_, loadError := store.Load(99)
	notFoundError := session.NotFoundError{}
	require.ErrorAs(testInstance, loadError, &notFoundError)
	require.Equal(testInstance, 99, notFoundError.IssueNumber)
	require.Contains(testInstance, loadError.Error(), "issue-99.json")
}

func TestLoadMigratesLegacyRecord(testInstance *testing.T) {
	store, stateDirectory := newTestStore(testInstance)
	require.NoError(testInstance, os.MkdirAll(stateDirectory, 0o755))

	legacyDocument := `{
		"issue_number": 42,
		"title": "Fix flaky watcher",
		"branch": "boss-wip",
		"status": "in_progress",
		"started_at": "2026-08-20T09:00:00Z",
		"work_log": [
			{"timestamp": "2026-08-20T09:00:00Z", "action": "work session started"},
			{"timestamp": "2026-08-21T14:00:00Z", "action": "work session continued"}
		],
		"modified_files": ["internal/watcher/watcher.go"]
	}`
	require.NoError(testInstance, os.WriteFile(filepath.Join(stateDirectory, "issue-42.json"), []byte(legacyDocument), 0o644))

	migratedRecord, loadError := store.Load(42)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, session.CurrentSchemaVersion, migratedRecord.SchemaVersion)
	require.Equal(testInstance, time.Date(2026, 8, 21, 14, 0, 0, 0, time.UTC), migratedRecord.UpdatedAt)
}

func TestLoadRejectsFutureVersion(testInstance *testing.T) {
	store, stateDirectory := newTestStore(testInstance)
	require.NoError(testInstance, os.MkdirAll(stateDirectory, 0o755))

	futureDocument := `{"schema_version": 5, "issue_number": 42}`
	require.NoError(testInstance, os.WriteFile(filepath.Join(stateDirectory, "issue-42.json"), []byte(futureDocument), 0o644))

	_, loadError := store.Load(42)
	versionError := session.FutureVersionError{}
	require.ErrorAs(testInstance, loadError, &versionError)
	require.Equal(testInstance, 5, versionError.SchemaVersion)
	require.Contains(testInstance, loadError.Error(), "newer than the supported version 1")
}

func TestLoadReportsCorruptDocument(testInstance *testing.T) {
	store, stateDirectory := newTestStore(testInstance)
	require.NoError(testInstance, os.MkdirAll(stateDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(stateDirectory, "issue-42.json"), []byte("{not json"), 0o644))

	_, loadError := store.Load(42)
	require.Error(testInstance, loadError)
	require.Contains(testInstance, loadError.Error(), "issue-42.json")
}

func TestSaveWritesDocumentAtomically(testInstance *testing.T) {
	store, stateDirectory := newTestStore(testInstance)

	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime)
	require.NoError(testInstance, store.Save(&record))

	directoryEntries, readError := os.ReadDir(stateDirectory)
	require.NoError(testInstance, readError)
	require.Len(testInstance, directoryEntries, 1)
	require.Equal(testInstance, "issue-42.json", directoryEntries[0].Name())

	savedContent, contentError := os.ReadFile(filepath.Join(stateDirectory, "issue-42.json"))
	require.NoError(testInstance, contentError)
	require.True(testInstance, json.Valid(savedContent))
}

func TestArchiveMovesDocument(testInstance *testing.T) {
	store, stateDirectory := newTestStore(testInstance)

	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime)
	require.NoError(testInstance, store.Save(&record))

	archivePath, archiveError := store.Archive(42)
	require.NoError(testInstance, archiveError)
	require.Equal(testInstance, filepath.Join(stateDirectory, "archive", "issue-42-20260823-103000.json"), archivePath)

	_, activeStatError := os.Stat(store.StatePath(42))
	require.True(testInstance, os.IsNotExist(activeStatError))

	_, archivedStatError := os.Stat(archivePath)
	require.NoError(testInstance, archivedStatError)
}

func TestArchiveMissingRecord(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)

	_, archiveError := store.Archive(42)
	notFoundError := session.NotFoundError{}
	require.ErrorAs(testInstance, archiveError, &notFoundError)
}
