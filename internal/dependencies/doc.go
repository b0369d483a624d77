// Package dependencies resolves the default implementations behind the
// shared interfaces, so command builders construct real collaborators only
// when a test has not injected its own.
package dependencies
