// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec behind ShellExecutor, which logs every invocation,
// notifies an optional observer, and returns typed errors distinguishing
// non-zero exits from spawn failures. The workflow manager uses it to run
// git and the GitHub CLI in a testable manner.
package execshell
