// Package session persists per-issue work session state as versioned JSON
// documents under the configured state directory, with atomic saves and
// archive-by-rename when a session finishes.
package session
