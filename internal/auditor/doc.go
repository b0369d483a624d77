// Package auditor implements the read-only audit reports over open issues
// and pull requests, including filename and cross-reference scanning of
// title and body text.
package auditor
