package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bossprank/github-workflow-manager/internal/session"
)

func TestAppendWorkLogGrowsOnly(testInstance *testing.T) {
	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime)
	require.Empty(testInstance, record.WorkLog)

	record.AppendWorkLog(testClockTime, "work session started")
	record.AppendWorkLog(testClockTime.Add(time.Hour), "work session continued")

	require.Len(testInstance, record.WorkLog, 2)
	require.Equal(testInstance, "work session started", record.WorkLog[0].Action)
	require.Equal(testInstance, testClockTime.Add(time.Hour), record.UpdatedAt)
}

func TestRecordModifiedFilesDeduplicates(testInstance *testing.T) {
	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime)

	record.RecordModifiedFiles("b.go", "a.go", "b.go", "  ", "")
	record.RecordModifiedFiles("a.go", "c.go")

	require.Equal(testInstance, []string{"a.go", "b.go", "c.go"}, record.ModifiedFiles)
}

func TestAddNextStepSkipsDuplicatesAndBlanks(testInstance *testing.T) {
	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime)

	record.AddNextStep("verify reconnect path")
	record.AddNextStep("  verify reconnect path  ")
	record.AddNextStep("   ")
	record.AddNextStep("measure poll latency")

	require.Equal(testInstance, []string{"verify reconnect path", "measure poll latency"}, record.NextSteps)
}

func TestSetTestInstructionsTrims(testInstance *testing.T) {
	record := session.NewRecord(42, "Fix flaky watcher", "boss-wip", testClockTime)

	record.SetTestInstructions("  go test ./...  ")
	require.Equal(testInstance, "go test ./...", record.TestInstructions)
}
