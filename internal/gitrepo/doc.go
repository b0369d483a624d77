// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for inspecting branches, remotes, and status,
// along with remote URL parsing consumed by the setup wizard and the pull
// request workflow.
package gitrepo
