// Package githubapi wraps the GitHub CLI for workflow commands.
//
// It drives both the GraphQL and REST surfaces through gh api, layers typed
// request and response structures for issues, comments, and pull requests,
// and integrates with execshell so interactions with GitHub can be mocked
// during testing. Every invocation carries the resolved token in GH_TOKEN.
package githubapi
