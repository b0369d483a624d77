// Package fields implements the field update command that assigns priority,
// size, or estimate values to a project board item.
package fields
