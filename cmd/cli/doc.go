// Package cli constructs the gwm command-line interface, wiring the Cobra
// command hierarchy, configuration loader, structured logging, and the
// result printer shared by every subcommand. It exposes helpers to build
// reusable application instances and to execute the default command set.
package cli
