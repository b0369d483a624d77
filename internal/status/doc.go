// Package status implements the commands that move issues through the five
// board lifecycle columns and report an issue's current board state.
package status
