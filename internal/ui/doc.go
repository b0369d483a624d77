// Package ui renders workflow results for terminal users and scripted callers.
//
// The Printer writes command results in either a colored human layout or a
// JSON-lines machine layout, while the console event logger translates shell
// command lifecycle notifications into concise progress messages. Detailed
// telemetry continues to flow through structured loggers.
package ui
