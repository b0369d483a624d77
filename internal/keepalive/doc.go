// Package keepalive emits workspace-liveness heartbeats: a writer loop
// appends timestamped lines to a log file and a watchdog loop restarts the
// writer and rotates the log when it grows past the configured line count.
package keepalive
