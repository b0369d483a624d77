// Package workspace models the configuration shared by workflow commands.
//
// Settings mirror the workspace section of config.yaml: the repository slug,
// the work-session state directory, branch names, project board identifiers,
// and the token source. TokenResolver turns the configured token source into
// a credential using one of three methods: a process environment variable, a
// token file, or Google Cloud Secret Manager.
package workspace
