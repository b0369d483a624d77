// Package worksession drives the start/continue/review/done lifecycle of a
// per-issue work session: board status gating, the shared WIP branch, the
// shared pull request changelog, and the persisted session record.
package worksession
