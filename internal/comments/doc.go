// Package comments implements the commands that post and read issue comments.
package comments
