// Package setup implements the interactive discovery wizard that verifies
// the local tooling, resolves a GitHub token, detects the repository, picks
// a ProjectV2 board, matches its fields, and writes a fresh configuration
// file once every step has passed.
package setup
