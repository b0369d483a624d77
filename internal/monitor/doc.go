// Package monitor watches one issue's board status and raises an alert when
// it moves into In progress.
package monitor
